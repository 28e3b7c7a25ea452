package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"famfin/internal/core"
	"famfin/internal/storage"
)

const openingBalanceName = "Opening balance"

// AccountService manages accounts and their running balances.
type AccountService struct {
	storage *storage.SQLiteRepository
	now     clock
}

func NewAccountService(storage *storage.SQLiteRepository) *AccountService {
	return &AccountService{storage: storage}
}

type CreateAccountInput struct {
	Name string
	// OpeningBalance is optional; a leading "-" records an overdraft.
	OpeningBalance string
}

// RecalcResult reports a balance repair.
type RecalcResult struct {
	AccountID int64      `json:"accountId"`
	Previous  core.Money `json:"previous"`
	Current   core.Money `json:"current"`
}

// Changed reports whether the stored balance had drifted.
func (r RecalcResult) Changed() bool {
	return r.Previous != r.Current
}

// CreateAccount creates an account in the caller's family. An opening balance
// is booked as a transaction so the balance always equals the sum of the
// account's transactions.
func (s *AccountService) CreateAccount(ctx context.Context, caller core.Caller, in CreateAccountInput) (core.Account, error) {
	const message = "Failed to create account."
	q := s.storage.Queries()
	familyID, err := resolveFamily(ctx, q, caller)
	if err != nil {
		return core.Account{}, failure(ctx, "create_account", message, err)
	}

	name := strings.TrimSpace(in.Name)
	if err := (core.Account{Name: name}).Validate(); err != nil {
		return core.Account{}, invalid(err)
	}

	var opening *core.Transaction
	if raw := strings.TrimSpace(in.OpeningBalance); raw != "" {
		typ := core.Income
		if strings.HasPrefix(raw, "-") {
			typ = core.Expense
			raw = strings.TrimSpace(raw[1:])
		}
		amount, err := core.ParseAmount(raw)
		if err != nil {
			return core.Account{}, invalid(err)
		}
		opening = &core.Transaction{
			UserID: caller.UserID,
			Date:   s.now.today(),
			Name:   openingBalanceName,
			Amount: amount,
			Type:   typ,
		}
	}

	var created storage.Account
	err = s.storage.WithTx(ctx, func(q *storage.Queries) error {
		created, err = q.CreateAccount(ctx, storage.CreateAccountParams{FamilyID: familyID, Name: name})
		if err != nil {
			return err
		}
		if opening != nil {
			if _, err := q.CreateTransaction(ctx, storage.CreateTransactionParams{
				AccountID:   created.ID,
				UserID:      opening.UserID,
				Date:        opening.Date.String(),
				Name:        opening.Name,
				AmountCents: opening.Amount.Cents,
				Type:        string(opening.Type),
			}); err != nil {
				return err
			}
			if err := q.AddToAccountBalance(ctx, storage.AddToAccountBalanceParams{
				Delta: opening.SignedCents(),
				ID:    created.ID,
			}); err != nil {
				return err
			}
		}
		if err := snapshot(ctx, q, created.ID, s.now.today()); err != nil {
			return err
		}
		created, err = q.GetAccount(ctx, storage.AccountKey{ID: created.ID, FamilyID: familyID})
		return err
	})
	if err != nil {
		return core.Account{}, failure(ctx, "create_account", message, err)
	}

	slog.InfoContext(ctx, "Account created",
		"account_id", created.ID,
		"family_id", familyID,
		"balance_cents", created.BalanceCents)
	return created.Core(), nil
}

func (s *AccountService) GetAccount(ctx context.Context, caller core.Caller, id int64) (core.Account, error) {
	q := s.storage.Queries()
	familyID, err := resolveFamily(ctx, q, caller)
	if err != nil {
		return core.Account{}, failure(ctx, "get_account", "Failed to load account.", err)
	}
	acc, err := q.GetAccount(ctx, storage.AccountKey{ID: id, FamilyID: familyID})
	if err != nil {
		return core.Account{}, failure(ctx, "get_account", "Failed to load account.", notFoundOr(err, msgAccountNotFound))
	}
	return acc.Core(), nil
}

// ListAccounts lists active accounts, or soft-deleted ones when deleted is set.
func (s *AccountService) ListAccounts(ctx context.Context, caller core.Caller, deleted bool) ([]core.Account, error) {
	const message = "Failed to load accounts."
	q := s.storage.Queries()
	familyID, err := resolveFamily(ctx, q, caller)
	if err != nil {
		return nil, failure(ctx, "list_accounts", message, err)
	}
	var rows []storage.Account
	if deleted {
		rows, err = q.ListDeletedAccounts(ctx, familyID)
	} else {
		rows, err = q.ListAccounts(ctx, familyID)
	}
	if err != nil {
		return nil, failure(ctx, "list_accounts", message, err)
	}
	accounts := make([]core.Account, len(rows))
	for i, row := range rows {
		accounts[i] = row.Core()
	}
	return accounts, nil
}

// GetBalanceHistory returns the daily balance points of an account between
// from and to inclusive. Zero dates leave that side open.
func (s *AccountService) GetBalanceHistory(ctx context.Context, caller core.Caller, id int64, from, to core.Date) ([]core.BalancePoint, error) {
	const message = "Failed to load balance history."
	q := s.storage.Queries()
	familyID, err := resolveFamily(ctx, q, caller)
	if err != nil {
		return nil, failure(ctx, "balance_history", message, err)
	}
	if _, err := q.GetAccount(ctx, storage.AccountKey{ID: id, FamilyID: familyID}); err != nil {
		return nil, failure(ctx, "balance_history", message, notFoundOr(err, msgAccountNotFound))
	}
	rows, err := q.ListBalanceHistory(ctx, storage.ListBalanceHistoryParams{
		AccountID: id,
		FromDay:   from.String(),
		ToDay:     to.String(),
	})
	if err != nil {
		return nil, failure(ctx, "balance_history", message, err)
	}
	points := make([]core.BalancePoint, len(rows))
	for i, row := range rows {
		points[i] = row.Core()
	}
	return points, nil
}

// UpdateAccount renames an active account.
func (s *AccountService) UpdateAccount(ctx context.Context, caller core.Caller, id int64, name string) (core.Account, error) {
	const message = "Failed to update account."
	q := s.storage.Queries()
	familyID, err := resolveFamily(ctx, q, caller)
	if err != nil {
		return core.Account{}, failure(ctx, "update_account", message, err)
	}
	name = strings.TrimSpace(name)
	if err := (core.Account{Name: name}).Validate(); err != nil {
		return core.Account{}, invalid(err)
	}

	n, err := q.RenameAccount(ctx, storage.RenameAccountParams{Name: name, ID: id, FamilyID: familyID})
	if err != nil {
		return core.Account{}, failure(ctx, "update_account", message, err)
	}
	if n == 0 {
		return core.Account{}, core.NotFound(msgAccountNotFound)
	}
	acc, err := q.GetAccount(ctx, storage.AccountKey{ID: id, FamilyID: familyID})
	if err != nil {
		return core.Account{}, failure(ctx, "update_account", message, err)
	}
	return acc.Core(), nil
}

// DeleteAccount soft-deletes an account. Its transactions stay in place but
// the account leaves listings and recurring generation.
func (s *AccountService) DeleteAccount(ctx context.Context, caller core.Caller, id int64) error {
	const message = "Failed to delete account."
	q := s.storage.Queries()
	familyID, err := resolveFamily(ctx, q, caller)
	if err != nil {
		return failure(ctx, "delete_account", message, err)
	}
	n, err := q.SoftDeleteAccount(ctx, storage.AccountKey{ID: id, FamilyID: familyID})
	if err != nil {
		return failure(ctx, "delete_account", message, err)
	}
	if n == 0 {
		return core.NotFound(msgAccountNotFound)
	}
	slog.InfoContext(ctx, "Account deleted", "account_id", id, "family_id", familyID)
	return nil
}

func (s *AccountService) RestoreAccount(ctx context.Context, caller core.Caller, id int64) (core.Account, error) {
	const message = "Failed to restore account."
	q := s.storage.Queries()
	familyID, err := resolveFamily(ctx, q, caller)
	if err != nil {
		return core.Account{}, failure(ctx, "restore_account", message, err)
	}
	n, err := q.RestoreAccount(ctx, storage.AccountKey{ID: id, FamilyID: familyID})
	if err != nil {
		return core.Account{}, failure(ctx, "restore_account", message, err)
	}
	if n == 0 {
		return core.Account{}, core.NotFound("Deleted account not found.")
	}
	acc, err := q.GetAccount(ctx, storage.AccountKey{ID: id, FamilyID: familyID})
	if err != nil {
		return core.Account{}, failure(ctx, "restore_account", message, err)
	}
	return acc.Core(), nil
}

// UpdateDailyBalance records today's balance point for an account.
func (s *AccountService) UpdateDailyBalance(ctx context.Context, caller core.Caller, id int64) error {
	const message = "Failed to update balance history."
	q := s.storage.Queries()
	familyID, err := resolveFamily(ctx, q, caller)
	if err != nil {
		return failure(ctx, "update_daily_balance", message, err)
	}
	if _, err := q.GetAccount(ctx, storage.AccountKey{ID: id, FamilyID: familyID}); err != nil {
		return failure(ctx, "update_daily_balance", message, notFoundOr(err, msgAccountNotFound))
	}
	if err := snapshot(ctx, q, id, s.now.today()); err != nil {
		return failure(ctx, "update_daily_balance", message, err)
	}
	return nil
}

// RecalculateBalance recomputes an account balance from its non-deleted
// transactions and stores the result. It is a repair tool; mutations keep the
// balance current incrementally.
func (s *AccountService) RecalculateBalance(ctx context.Context, caller core.Caller, id int64) (RecalcResult, error) {
	const message = "Failed to recalculate account balance."
	q := s.storage.Queries()
	familyID, err := resolveFamily(ctx, q, caller)
	if err != nil {
		return RecalcResult{}, failure(ctx, "recalculate_balance", message, err)
	}
	var result RecalcResult
	err = s.storage.WithTx(ctx, func(q *storage.Queries) error {
		acc, err := q.GetAccount(ctx, storage.AccountKey{ID: id, FamilyID: familyID})
		if err != nil {
			return notFoundOr(err, msgAccountNotFound)
		}
		result, err = s.recalculate(ctx, q, acc)
		return err
	})
	if err != nil {
		return RecalcResult{}, failure(ctx, "recalculate_balance", message, err)
	}
	return result, nil
}

// SnapshotAll records today's balance of every active account. The recurring
// worker runs it once a day so history has a point even on quiet days.
func (s *AccountService) SnapshotAll(ctx context.Context) (int, error) {
	accounts, err := s.storage.Queries().ListAllActiveAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list accounts: %w", err)
	}
	day := s.now.today()
	for _, acc := range accounts {
		if err := snapshot(ctx, s.storage.Queries(), acc.ID, day); err != nil {
			return 0, fmt.Errorf("snapshot account %d: %w", acc.ID, err)
		}
	}
	return len(accounts), nil
}

// RecalculateAll repairs every active account. It runs without a caller and
// is meant for operators.
func (s *AccountService) RecalculateAll(ctx context.Context) ([]RecalcResult, error) {
	accounts, err := s.storage.Queries().ListAllActiveAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	results := make([]RecalcResult, 0, len(accounts))
	for _, acc := range accounts {
		var result RecalcResult
		err := s.storage.WithTx(ctx, func(q *storage.Queries) error {
			var err error
			result, err = s.recalculate(ctx, q, acc)
			return err
		})
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *AccountService) recalculate(ctx context.Context, q *storage.Queries, acc storage.Account) (RecalcResult, error) {
	sum, err := q.SumAccountTransactions(ctx, acc.ID)
	if err != nil {
		return RecalcResult{}, err
	}
	if err := q.SetAccountBalance(ctx, storage.SetAccountBalanceParams{BalanceCents: sum, ID: acc.ID}); err != nil {
		return RecalcResult{}, err
	}
	if err := snapshot(ctx, q, acc.ID, s.now.today()); err != nil {
		return RecalcResult{}, err
	}
	result := RecalcResult{
		AccountID: acc.ID,
		Previous:  core.Money{Cents: acc.BalanceCents},
		Current:   core.Money{Cents: sum},
	}
	if result.Changed() {
		slog.WarnContext(ctx, "Account balance drift repaired",
			"account_id", acc.ID,
			"previous_cents", acc.BalanceCents,
			"current_cents", sum)
	}
	return result, nil
}
