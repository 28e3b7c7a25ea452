package storage

import (
	"context"
	"database/sql"
)

const transactionColumns = `t.id, t.account_id, t.user_id, t.category_id, t.recurring_transaction_id,
    t.date, t.name, t.amount_cents, t.type, t.created_at, t.updated_at, t.deleted_at`

func scanTransaction(row rowScanner) (Transaction, error) {
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.UserID,
		&i.CategoryID,
		&i.RecurringTransactionID,
		&i.Date,
		&i.Name,
		&i.AmountCents,
		&i.Type,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.DeletedAt,
	)
	return i, err
}

const createTransaction = `INSERT INTO transactions (
    account_id, user_id, category_id, recurring_transaction_id, date, name, amount_cents, type
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, account_id, user_id, category_id, recurring_transaction_id,
    date, name, amount_cents, type, created_at, updated_at, deleted_at`

type CreateTransactionParams struct {
	AccountID              int64
	UserID                 int64
	CategoryID             sql.NullInt64
	RecurringTransactionID sql.NullInt64
	Date                   string
	Name                   string
	AmountCents            int64
	Type                   string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.AccountID,
		arg.UserID,
		arg.CategoryID,
		arg.RecurringTransactionID,
		arg.Date,
		arg.Name,
		arg.AmountCents,
		arg.Type,
	)
	return scanTransaction(row)
}

const getTransaction = `SELECT ` + transactionColumns + `
FROM transactions t
JOIN accounts a ON a.id = t.account_id
WHERE t.id = ? AND a.family_id = ? AND t.deleted_at IS NULL`

type TransactionKey struct {
	ID       int64
	FamilyID int64
}

func (q *Queries) GetTransaction(ctx context.Context, arg TransactionKey) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, arg.ID, arg.FamilyID))
}

const listTransactions = `SELECT ` + transactionColumns + `
FROM transactions t
JOIN accounts a ON a.id = t.account_id
WHERE a.family_id = ?1
  AND t.deleted_at IS NULL
  AND (?2 = 0 OR t.account_id = ?2)
  AND (?3 = '' OR t.date >= ?3)
  AND (?4 = '' OR t.date <= ?4)
ORDER BY t.date DESC, t.id DESC
LIMIT ?5`

type ListTransactionsParams struct {
	FamilyID  int64
	AccountID int64  // 0 for every account
	FromDate  string // inclusive, "" for no bound
	ToDate    string // inclusive, "" for no bound
	Limit     int64
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions,
		arg.FamilyID,
		arg.AccountID,
		arg.FromDate,
		arg.ToDate,
		arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		i, err := scanTransaction(rows)
		if err != nil {
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

const updateTransaction = `UPDATE transactions
SET account_id = ?, category_id = ?, date = ?, name = ?, amount_cents = ?, type = ?,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND deleted_at IS NULL`

type UpdateTransactionParams struct {
	AccountID   int64
	CategoryID  sql.NullInt64
	Date        string
	Name        string
	AmountCents int64
	Type        string
	ID          int64
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) error {
	_, err := q.db.ExecContext(ctx, updateTransaction,
		arg.AccountID,
		arg.CategoryID,
		arg.Date,
		arg.Name,
		arg.AmountCents,
		arg.Type,
		arg.ID,
	)
	return err
}

const softDeleteTransaction = `UPDATE transactions
SET deleted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND deleted_at IS NULL`

func (q *Queries) SoftDeleteTransaction(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, softDeleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
