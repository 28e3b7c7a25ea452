package storage

import (
	"context"
)

const accountColumns = `id, family_id, name, balance_cents, created_at, updated_at, deleted_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (Account, error) {
	var i Account
	err := row.Scan(
		&i.ID,
		&i.FamilyID,
		&i.Name,
		&i.BalanceCents,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.DeletedAt,
	)
	return i, err
}

const createAccount = `INSERT INTO accounts (family_id, name) VALUES (?, ?)
RETURNING ` + accountColumns

type CreateAccountParams struct {
	FamilyID int64
	Name     string
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx, createAccount, arg.FamilyID, arg.Name))
}

type AccountKey struct {
	ID       int64
	FamilyID int64
}

const getAccount = `SELECT ` + accountColumns + ` FROM accounts
WHERE id = ? AND family_id = ? AND deleted_at IS NULL`

func (q *Queries) GetAccount(ctx context.Context, arg AccountKey) (Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx, getAccount, arg.ID, arg.FamilyID))
}

const getDeletedAccount = `SELECT ` + accountColumns + ` FROM accounts
WHERE id = ? AND family_id = ? AND deleted_at IS NOT NULL`

func (q *Queries) GetDeletedAccount(ctx context.Context, arg AccountKey) (Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx, getDeletedAccount, arg.ID, arg.FamilyID))
}

const listAccounts = `SELECT ` + accountColumns + ` FROM accounts
WHERE family_id = ? AND deleted_at IS NULL
ORDER BY name, id`

func (q *Queries) ListAccounts(ctx context.Context, familyID int64) ([]Account, error) {
	return q.queryAccounts(ctx, listAccounts, familyID)
}

const listDeletedAccounts = `SELECT ` + accountColumns + ` FROM accounts
WHERE family_id = ? AND deleted_at IS NOT NULL
ORDER BY deleted_at DESC, id`

func (q *Queries) ListDeletedAccounts(ctx context.Context, familyID int64) ([]Account, error) {
	return q.queryAccounts(ctx, listDeletedAccounts, familyID)
}

const listAllActiveAccounts = `SELECT ` + accountColumns + ` FROM accounts
WHERE deleted_at IS NULL
ORDER BY id`

func (q *Queries) ListAllActiveAccounts(ctx context.Context) ([]Account, error) {
	return q.queryAccounts(ctx, listAllActiveAccounts)
}

func (q *Queries) queryAccounts(ctx context.Context, query string, args ...interface{}) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		i, err := scanAccount(rows)
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

const renameAccount = `UPDATE accounts SET name = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND family_id = ? AND deleted_at IS NULL`

type RenameAccountParams struct {
	Name     string
	ID       int64
	FamilyID int64
}

func (q *Queries) RenameAccount(ctx context.Context, arg RenameAccountParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, renameAccount, arg.Name, arg.ID, arg.FamilyID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const softDeleteAccount = `UPDATE accounts SET deleted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND family_id = ? AND deleted_at IS NULL`

func (q *Queries) SoftDeleteAccount(ctx context.Context, arg AccountKey) (int64, error) {
	result, err := q.db.ExecContext(ctx, softDeleteAccount, arg.ID, arg.FamilyID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const restoreAccount = `UPDATE accounts SET deleted_at = NULL, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND family_id = ? AND deleted_at IS NOT NULL`

func (q *Queries) RestoreAccount(ctx context.Context, arg AccountKey) (int64, error) {
	result, err := q.db.ExecContext(ctx, restoreAccount, arg.ID, arg.FamilyID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// The increment is evaluated by the database so concurrent writers never
// lose an update.
const addToAccountBalance = `UPDATE accounts
SET balance_cents = balance_cents + ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

type AddToAccountBalanceParams struct {
	Delta int64
	ID    int64
}

func (q *Queries) AddToAccountBalance(ctx context.Context, arg AddToAccountBalanceParams) error {
	_, err := q.db.ExecContext(ctx, addToAccountBalance, arg.Delta, arg.ID)
	return err
}

const setAccountBalance = `UPDATE accounts
SET balance_cents = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

type SetAccountBalanceParams struct {
	BalanceCents int64
	ID           int64
}

func (q *Queries) SetAccountBalance(ctx context.Context, arg SetAccountBalanceParams) error {
	_, err := q.db.ExecContext(ctx, setAccountBalance, arg.BalanceCents, arg.ID)
	return err
}

const sumAccountTransactions = `SELECT CAST(COALESCE(SUM(
    CASE WHEN type = 'Income' THEN amount_cents ELSE -amount_cents END
), 0) AS INTEGER)
FROM transactions
WHERE account_id = ? AND deleted_at IS NULL`

func (q *Queries) SumAccountTransactions(ctx context.Context, accountID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, sumAccountTransactions, accountID)
	var total int64
	err := row.Scan(&total)
	return total, err
}

// snapshotBalance records the account's current balance as the value for day.
const snapshotBalance = `INSERT INTO account_balance_history (account_id, day, balance_cents)
SELECT id, ?, balance_cents FROM accounts WHERE id = ?
ON CONFLICT (account_id, day) DO UPDATE SET balance_cents = excluded.balance_cents`

type SnapshotBalanceParams struct {
	Day       string
	AccountID int64
}

func (q *Queries) SnapshotBalance(ctx context.Context, arg SnapshotBalanceParams) error {
	_, err := q.db.ExecContext(ctx, snapshotBalance, arg.Day, arg.AccountID)
	return err
}

const listBalanceHistory = `SELECT id, account_id, day, balance_cents
FROM account_balance_history
WHERE account_id = ?1
  AND (?2 = '' OR day >= ?2)
  AND (?3 = '' OR day <= ?3)
ORDER BY day`

type ListBalanceHistoryParams struct {
	AccountID int64
	FromDay   string
	ToDay     string
}

func (q *Queries) ListBalanceHistory(ctx context.Context, arg ListBalanceHistoryParams) ([]AccountBalanceHistory, error) {
	rows, err := q.db.QueryContext(ctx, listBalanceHistory, arg.AccountID, arg.FromDay, arg.ToDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AccountBalanceHistory
	for rows.Next() {
		var i AccountBalanceHistory
		if err := rows.Scan(&i.ID, &i.AccountID, &i.Day, &i.BalanceCents); err != nil {
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

const getAccountFamily = `SELECT family_id FROM accounts WHERE id = ?`

func (q *Queries) GetAccountFamily(ctx context.Context, accountID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, getAccountFamily, accountID)
	var familyID int64
	err := row.Scan(&familyID)
	return familyID, err
}
