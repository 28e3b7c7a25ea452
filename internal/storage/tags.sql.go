package storage

import (
	"context"
)

const createCategory = `INSERT INTO categories (family_id, name) VALUES (?, ?)
RETURNING id, family_id, name, created_at`

type CreateCategoryParams struct {
	FamilyID int64
	Name     string
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, createCategory, arg.FamilyID, arg.Name)
	var i Category
	err := row.Scan(&i.ID, &i.FamilyID, &i.Name, &i.CreatedAt)
	return i, err
}

const getCategory = `SELECT id, family_id, name, created_at FROM categories
WHERE id = ? AND family_id = ?`

type CategoryKey struct {
	ID       int64
	FamilyID int64
}

func (q *Queries) GetCategory(ctx context.Context, arg CategoryKey) (Category, error) {
	row := q.db.QueryRowContext(ctx, getCategory, arg.ID, arg.FamilyID)
	var i Category
	err := row.Scan(&i.ID, &i.FamilyID, &i.Name, &i.CreatedAt)
	return i, err
}

const listCategories = `SELECT id, family_id, name, created_at FROM categories
WHERE family_id = ?
ORDER BY name`

func (q *Queries) ListCategories(ctx context.Context, familyID int64) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.FamilyID, &i.Name, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// insertTag is a no-op when a live tag with the same name exists; the
// partial unique index turns a concurrent duplicate into an ignored row.
const insertTag = `INSERT OR IGNORE INTO tags (family_id, name) VALUES (?, ?)`

type TagKey struct {
	FamilyID int64
	Name     string
}

func (q *Queries) InsertTag(ctx context.Context, arg TagKey) error {
	_, err := q.db.ExecContext(ctx, insertTag, arg.FamilyID, arg.Name)
	return err
}

const getTagByName = `SELECT id, family_id, name, created_at, deleted_at FROM tags
WHERE family_id = ? AND name = ? AND deleted_at IS NULL`

func (q *Queries) GetTagByName(ctx context.Context, arg TagKey) (Tag, error) {
	row := q.db.QueryRowContext(ctx, getTagByName, arg.FamilyID, arg.Name)
	var i Tag
	err := row.Scan(&i.ID, &i.FamilyID, &i.Name, &i.CreatedAt, &i.DeletedAt)
	return i, err
}

const listTags = `SELECT id, family_id, name, created_at, deleted_at FROM tags
WHERE family_id = ? AND deleted_at IS NULL
ORDER BY name`

func (q *Queries) ListTags(ctx context.Context, familyID int64) ([]Tag, error) {
	return q.queryTags(ctx, listTags, familyID)
}

const listTransactionTags = `SELECT t.id, t.family_id, t.name, t.created_at, t.deleted_at
FROM tags t
JOIN transaction_tags tt ON tt.tag_id = t.id
WHERE tt.transaction_id = ?
ORDER BY t.name`

func (q *Queries) ListTransactionTags(ctx context.Context, transactionID int64) ([]Tag, error) {
	return q.queryTags(ctx, listTransactionTags, transactionID)
}

func (q *Queries) queryTags(ctx context.Context, query string, args ...interface{}) ([]Tag, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Tag
	for rows.Next() {
		var i Tag
		if err := rows.Scan(&i.ID, &i.FamilyID, &i.Name, &i.CreatedAt, &i.DeletedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const attachTag = `INSERT OR IGNORE INTO transaction_tags (transaction_id, tag_id) VALUES (?, ?)`

type AttachTagParams struct {
	TransactionID int64
	TagID         int64
}

func (q *Queries) AttachTag(ctx context.Context, arg AttachTagParams) error {
	_, err := q.db.ExecContext(ctx, attachTag, arg.TransactionID, arg.TagID)
	return err
}

const detachTags = `DELETE FROM transaction_tags WHERE transaction_id = ?`

func (q *Queries) DetachTags(ctx context.Context, transactionID int64) error {
	_, err := q.db.ExecContext(ctx, detachTags, transactionID)
	return err
}
