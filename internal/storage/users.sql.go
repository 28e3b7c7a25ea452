package storage

import (
	"context"
	"database/sql"
)

const createFamily = `INSERT INTO families (name) VALUES (?)
RETURNING id, name, created_at`

func (q *Queries) CreateFamily(ctx context.Context, name string) (Family, error) {
	row := q.db.QueryRowContext(ctx, createFamily, name)
	var i Family
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const getFamily = `SELECT id, name, created_at FROM families WHERE id = ?`

func (q *Queries) GetFamily(ctx context.Context, id int64) (Family, error) {
	row := q.db.QueryRowContext(ctx, getFamily, id)
	var i Family
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const createUser = `INSERT INTO users (name, email, family_id) VALUES (?, ?, ?)
RETURNING id, name, email, family_id, created_at`

type CreateUserParams struct {
	Name     string
	Email    string
	FamilyID sql.NullInt64
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser, arg.Name, arg.Email, arg.FamilyID)
	var i User
	err := row.Scan(&i.ID, &i.Name, &i.Email, &i.FamilyID, &i.CreatedAt)
	return i, err
}

const getUser = `SELECT id, name, email, family_id, created_at FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, id)
	var i User
	err := row.Scan(&i.ID, &i.Name, &i.Email, &i.FamilyID, &i.CreatedAt)
	return i, err
}

const setUserFamily = `UPDATE users SET family_id = ? WHERE id = ?`

type SetUserFamilyParams struct {
	FamilyID sql.NullInt64
	ID       int64
}

func (q *Queries) SetUserFamily(ctx context.Context, arg SetUserFamilyParams) error {
	_, err := q.db.ExecContext(ctx, setUserFamily, arg.FamilyID, arg.ID)
	return err
}
