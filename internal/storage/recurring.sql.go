package storage

import (
	"context"
	"database/sql"
)

const recurringColumns = `r.id, r.account_id, r.user_id, r.category_id, r.name, r.amount_cents, r.type,
    r.frequency, r.interval_count, r.start_date, r.end_date, r.next_occurrence,
    r.created_at, r.updated_at, r.deleted_at`

func scanRecurring(row rowScanner) (RecurringTransaction, error) {
	var i RecurringTransaction
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.UserID,
		&i.CategoryID,
		&i.Name,
		&i.AmountCents,
		&i.Type,
		&i.Frequency,
		&i.IntervalCount,
		&i.StartDate,
		&i.EndDate,
		&i.NextOccurrence,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.DeletedAt,
	)
	return i, err
}

func (q *Queries) queryRecurring(ctx context.Context, query string, args ...interface{}) ([]RecurringTransaction, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecurringTransaction
	for rows.Next() {
		i, err := scanRecurring(rows)
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

const createRecurring = `INSERT INTO recurring_transactions (
    account_id, user_id, category_id, name, amount_cents, type,
    frequency, interval_count, start_date, end_date, next_occurrence
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

type CreateRecurringParams struct {
	AccountID      int64
	UserID         int64
	CategoryID     sql.NullInt64
	Name           string
	AmountCents    int64
	Type           string
	Frequency      string
	IntervalCount  int64
	StartDate      string
	EndDate        sql.NullString
	NextOccurrence sql.NullString
}

func (q *Queries) CreateRecurring(ctx context.Context, arg CreateRecurringParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createRecurring,
		arg.AccountID,
		arg.UserID,
		arg.CategoryID,
		arg.Name,
		arg.AmountCents,
		arg.Type,
		arg.Frequency,
		arg.IntervalCount,
		arg.StartDate,
		arg.EndDate,
		arg.NextOccurrence,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

type RecurringKey struct {
	ID       int64
	FamilyID int64
}

const getRecurring = `SELECT ` + recurringColumns + `
FROM recurring_transactions r
JOIN accounts a ON a.id = r.account_id
WHERE r.id = ? AND a.family_id = ? AND r.deleted_at IS NULL`

func (q *Queries) GetRecurring(ctx context.Context, arg RecurringKey) (RecurringTransaction, error) {
	return scanRecurring(q.db.QueryRowContext(ctx, getRecurring, arg.ID, arg.FamilyID))
}

const getDeletedRecurring = `SELECT ` + recurringColumns + `
FROM recurring_transactions r
JOIN accounts a ON a.id = r.account_id
WHERE r.id = ? AND a.family_id = ? AND r.deleted_at IS NOT NULL`

func (q *Queries) GetDeletedRecurring(ctx context.Context, arg RecurringKey) (RecurringTransaction, error) {
	return scanRecurring(q.db.QueryRowContext(ctx, getDeletedRecurring, arg.ID, arg.FamilyID))
}

// FindRecurring ignores the soft-delete marker; callers inspect DeletedAt.
const findRecurring = `SELECT ` + recurringColumns + `
FROM recurring_transactions r
JOIN accounts a ON a.id = r.account_id
WHERE r.id = ? AND a.family_id = ?`

func (q *Queries) FindRecurring(ctx context.Context, arg RecurringKey) (RecurringTransaction, error) {
	return scanRecurring(q.db.QueryRowContext(ctx, findRecurring, arg.ID, arg.FamilyID))
}

const listRecurring = `SELECT ` + recurringColumns + `
FROM recurring_transactions r
JOIN accounts a ON a.id = r.account_id
WHERE a.family_id = ? AND r.deleted_at IS NULL
ORDER BY r.name, r.id`

func (q *Queries) ListRecurring(ctx context.Context, familyID int64) ([]RecurringTransaction, error) {
	return q.queryRecurring(ctx, listRecurring, familyID)
}

const listDeletedRecurring = `SELECT ` + recurringColumns + `
FROM recurring_transactions r
JOIN accounts a ON a.id = r.account_id
WHERE a.family_id = ? AND r.deleted_at IS NOT NULL
ORDER BY r.deleted_at DESC, r.id`

func (q *Queries) ListDeletedRecurring(ctx context.Context, familyID int64) ([]RecurringTransaction, error) {
	return q.queryRecurring(ctx, listDeletedRecurring, familyID)
}

// Rules on soft-deleted accounts are never due.
const listDueRecurring = `SELECT ` + recurringColumns + `
FROM recurring_transactions r
JOIN accounts a ON a.id = r.account_id
WHERE r.deleted_at IS NULL
  AND a.deleted_at IS NULL
  AND r.next_occurrence IS NOT NULL
  AND r.next_occurrence <= ?2
  AND (?1 = 0 OR a.family_id = ?1)
ORDER BY r.next_occurrence, r.id`

type ListDueRecurringParams struct {
	FamilyID int64 // 0 for every family
	AsOf     string
}

func (q *Queries) ListDueRecurring(ctx context.Context, arg ListDueRecurringParams) ([]RecurringTransaction, error) {
	return q.queryRecurring(ctx, listDueRecurring, arg.FamilyID, arg.AsOf)
}

const updateRecurring = `UPDATE recurring_transactions
SET account_id = ?, category_id = ?, name = ?, amount_cents = ?, type = ?,
    frequency = ?, interval_count = ?, start_date = ?, end_date = ?, next_occurrence = ?,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND deleted_at IS NULL`

type UpdateRecurringParams struct {
	AccountID      int64
	CategoryID     sql.NullInt64
	Name           string
	AmountCents    int64
	Type           string
	Frequency      string
	IntervalCount  int64
	StartDate      string
	EndDate        sql.NullString
	NextOccurrence sql.NullString
	ID             int64
}

func (q *Queries) UpdateRecurring(ctx context.Context, arg UpdateRecurringParams) error {
	_, err := q.db.ExecContext(ctx, updateRecurring,
		arg.AccountID,
		arg.CategoryID,
		arg.Name,
		arg.AmountCents,
		arg.Type,
		arg.Frequency,
		arg.IntervalCount,
		arg.StartDate,
		arg.EndDate,
		arg.NextOccurrence,
		arg.ID,
	)
	return err
}

const setNextOccurrence = `UPDATE recurring_transactions
SET next_occurrence = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

type SetNextOccurrenceParams struct {
	NextOccurrence sql.NullString
	ID             int64
}

func (q *Queries) SetNextOccurrence(ctx context.Context, arg SetNextOccurrenceParams) error {
	_, err := q.db.ExecContext(ctx, setNextOccurrence, arg.NextOccurrence, arg.ID)
	return err
}

const softDeleteRecurring = `UPDATE recurring_transactions
SET deleted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND deleted_at IS NULL`

func (q *Queries) SoftDeleteRecurring(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, softDeleteRecurring, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const restoreRecurring = `UPDATE recurring_transactions
SET deleted_at = NULL, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND deleted_at IS NOT NULL`

func (q *Queries) RestoreRecurring(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, restoreRecurring, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteRecurringLogs = `DELETE FROM recurring_transaction_logs WHERE recurring_transaction_id = ?`

func (q *Queries) DeleteRecurringLogs(ctx context.Context, recurringID int64) error {
	_, err := q.db.ExecContext(ctx, deleteRecurringLogs, recurringID)
	return err
}

// Only soft-deleted rules can be purged.
const purgeRecurring = `DELETE FROM recurring_transactions WHERE id = ? AND deleted_at IS NOT NULL`

func (q *Queries) PurgeRecurring(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, purgeRecurring, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createRecurringLog = `INSERT INTO recurring_transaction_logs (
    recurring_transaction_id, transaction_id, occurrence_date
) VALUES (?, ?, ?)`

type CreateRecurringLogParams struct {
	RecurringTransactionID int64
	TransactionID          sql.NullInt64
	OccurrenceDate         string
}

func (q *Queries) CreateRecurringLog(ctx context.Context, arg CreateRecurringLogParams) error {
	_, err := q.db.ExecContext(ctx, createRecurringLog,
		arg.RecurringTransactionID,
		arg.TransactionID,
		arg.OccurrenceDate,
	)
	return err
}

const listRecurringLogs = `SELECT id, recurring_transaction_id, transaction_id, occurrence_date, created_at
FROM recurring_transaction_logs
WHERE recurring_transaction_id = ?
ORDER BY occurrence_date`

func (q *Queries) ListRecurringLogs(ctx context.Context, recurringID int64) ([]RecurringTransactionLog, error) {
	rows, err := q.db.QueryContext(ctx, listRecurringLogs, recurringID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecurringTransactionLog
	for rows.Next() {
		var i RecurringTransactionLog
		if err := rows.Scan(
			&i.ID,
			&i.RecurringTransactionID,
			&i.TransactionID,
			&i.OccurrenceDate,
			&i.CreatedAt,
		); err != nil {
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
