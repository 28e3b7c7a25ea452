package services

import (
	"context"
	"log/slog"
	"strings"

	"famfin/internal/amqp"
	"famfin/internal/core"
	"famfin/internal/storage"
)

const (
	msgTransactionNotFound = "Transaction not found or not accessible."
	defaultListLimit       = 100
	maxListLimit           = 1000
)

// TransactionService orchestrates transaction writes, tag resolution and the
// matching balance updates, then publishes ledger events.
type TransactionService struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher
	now       clock
}

func NewTransactionService(storage *storage.SQLiteRepository, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		storage:   storage,
		publisher: publisher,
	}
}

// TransactionInput holds the raw form fields of a create or update.
type TransactionInput struct {
	AccountID  string
	CategoryID string // optional
	Date       string
	Name       string
	Amount     string
	Type       string
	Tags       string // comma separated, optional
}

type transactionDraft struct {
	tx   core.Transaction
	tags []string
}

// parse validates every field before anything touches the database.
func (in TransactionInput) parse() (transactionDraft, error) {
	accountID, ok := core.ParseID(in.AccountID)
	if !ok {
		return transactionDraft{}, core.Invalid("Account is required.")
	}
	categoryID, err := optionalID(in.CategoryID, "Invalid category.")
	if err != nil {
		return transactionDraft{}, err
	}
	date, err := parseDay(in.Date)
	if err != nil {
		return transactionDraft{}, core.Invalid("Invalid date.")
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return transactionDraft{}, invalid(err)
	}
	tx := core.Transaction{
		AccountID:  accountID,
		CategoryID: categoryID,
		Date:       date,
		Name:       strings.TrimSpace(in.Name),
		Amount:     amount,
		Type:       core.TransactionType(strings.TrimSpace(in.Type)),
	}
	if err := tx.Validate(); err != nil {
		return transactionDraft{}, invalid(err)
	}
	return transactionDraft{tx: tx, tags: core.ParseTagList(in.Tags)}, nil
}

// CreateTransaction books a transaction against an active account of the
// caller's family and moves the account balance by its signed amount, all in
// one database transaction.
func (s *TransactionService) CreateTransaction(ctx context.Context, caller core.Caller, in TransactionInput) (core.Transaction, error) {
	const message = "Failed to create transaction."
	familyID, err := resolveFamily(ctx, s.storage.Queries(), caller)
	if err != nil {
		return core.Transaction{}, failure(ctx, "create_transaction", message, err)
	}
	draft, err := in.parse()
	if err != nil {
		return core.Transaction{}, err
	}
	draft.tx.UserID = caller.UserID

	var created core.Transaction
	err = s.storage.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetAccount(ctx, storage.AccountKey{ID: draft.tx.AccountID, FamilyID: familyID}); err != nil {
			return notFoundOr(err, msgAccountNotFound)
		}
		if err := checkCategory(ctx, q, familyID, draft.tx.CategoryID); err != nil {
			return err
		}
		row, err := q.CreateTransaction(ctx, storage.CreateTransactionParams{
			AccountID:   draft.tx.AccountID,
			UserID:      draft.tx.UserID,
			CategoryID:  storage.NullID(draft.tx.CategoryID),
			Date:        draft.tx.Date.String(),
			Name:        draft.tx.Name,
			AmountCents: draft.tx.Amount.Cents,
			Type:        string(draft.tx.Type),
		})
		if err != nil {
			return err
		}
		created = row.Core()
		if created.Tags, err = attachTags(ctx, q, familyID, row.ID, draft.tags); err != nil {
			return err
		}
		if err := q.AddToAccountBalance(ctx, storage.AddToAccountBalanceParams{
			Delta: created.SignedCents(),
			ID:    created.AccountID,
		}); err != nil {
			return err
		}
		return snapshot(ctx, q, created.AccountID, s.now.today())
	})
	if err != nil {
		return core.Transaction{}, failure(ctx, "create_transaction", message, err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", created.ID,
		"account_id", created.AccountID,
		"amount_cents", created.Amount.Cents,
		"type", created.Type)
	publish(ctx, s.publisher, amqp.TransactionCreated, familyID, created)
	return created, nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, caller core.Caller, id int64) (core.Transaction, error) {
	const message = "Failed to load transaction."
	q := s.storage.Queries()
	familyID, err := resolveFamily(ctx, q, caller)
	if err != nil {
		return core.Transaction{}, failure(ctx, "get_transaction", message, err)
	}
	row, err := q.GetTransaction(ctx, storage.TransactionKey{ID: id, FamilyID: familyID})
	if err != nil {
		return core.Transaction{}, failure(ctx, "get_transaction", message, notFoundOr(err, msgTransactionNotFound))
	}
	tx := row.Core()
	if tx.Tags, err = loadTags(ctx, q, tx.ID); err != nil {
		return core.Transaction{}, failure(ctx, "get_transaction", message, err)
	}
	return tx, nil
}

// TransactionFilter narrows ListTransactions. Zero values mean no filter.
type TransactionFilter struct {
	AccountID int64
	From      core.Date
	To        core.Date
	Limit     int
}

// ListTransactions returns the family's live transactions, newest first.
func (s *TransactionService) ListTransactions(ctx context.Context, caller core.Caller, f TransactionFilter) ([]core.Transaction, error) {
	const message = "Failed to load transactions."
	q := s.storage.Queries()
	familyID, err := resolveFamily(ctx, q, caller)
	if err != nil {
		return nil, failure(ctx, "list_transactions", message, err)
	}
	txs, err := listTransactions(ctx, q, familyID, f)
	if err != nil {
		return nil, failure(ctx, "list_transactions", message, err)
	}
	return txs, nil
}

// ListFamilyTransactions is ListTransactions for operator tooling that
// already knows the family.
func (s *TransactionService) ListFamilyTransactions(ctx context.Context, familyID int64, f TransactionFilter) ([]core.Transaction, error) {
	return listTransactions(ctx, s.storage.Queries(), familyID, f)
}

func listTransactions(ctx context.Context, q *storage.Queries, familyID int64, f TransactionFilter) ([]core.Transaction, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	rows, err := q.ListTransactions(ctx, storage.ListTransactionsParams{
		FamilyID:  familyID,
		AccountID: f.AccountID,
		FromDate:  f.From.String(),
		ToDate:    f.To.String(),
		Limit:     int64(limit),
	})
	if err != nil {
		return nil, err
	}
	txs := make([]core.Transaction, len(rows))
	for i, row := range rows {
		txs[i] = row.Core()
		if txs[i].Tags, err = loadTags(ctx, q, row.ID); err != nil {
			return nil, err
		}
	}
	return txs, nil
}

// UpdateTransaction rewrites a transaction. The old signed amount is taken
// off the old account and the new one applied to the (possibly different)
// new account inside the same database transaction.
func (s *TransactionService) UpdateTransaction(ctx context.Context, caller core.Caller, id int64, in TransactionInput) (core.Transaction, error) {
	const message = "Failed to update transaction."
	familyID, err := resolveFamily(ctx, s.storage.Queries(), caller)
	if err != nil {
		return core.Transaction{}, failure(ctx, "update_transaction", message, err)
	}
	draft, err := in.parse()
	if err != nil {
		return core.Transaction{}, err
	}

	var updated core.Transaction
	err = s.storage.WithTx(ctx, func(q *storage.Queries) error {
		oldRow, err := q.GetTransaction(ctx, storage.TransactionKey{ID: id, FamilyID: familyID})
		if err != nil {
			return notFoundOr(err, msgTransactionNotFound)
		}
		old := oldRow.Core()
		if _, err := q.GetAccount(ctx, storage.AccountKey{ID: draft.tx.AccountID, FamilyID: familyID}); err != nil {
			return notFoundOr(err, msgAccountNotFound)
		}
		if err := checkCategory(ctx, q, familyID, draft.tx.CategoryID); err != nil {
			return err
		}

		if err := q.AddToAccountBalance(ctx, storage.AddToAccountBalanceParams{
			Delta: -old.SignedCents(),
			ID:    old.AccountID,
		}); err != nil {
			return err
		}
		if err := q.UpdateTransaction(ctx, storage.UpdateTransactionParams{
			AccountID:   draft.tx.AccountID,
			CategoryID:  storage.NullID(draft.tx.CategoryID),
			Date:        draft.tx.Date.String(),
			Name:        draft.tx.Name,
			AmountCents: draft.tx.Amount.Cents,
			Type:        string(draft.tx.Type),
			ID:          id,
		}); err != nil {
			return err
		}
		if err := q.AddToAccountBalance(ctx, storage.AddToAccountBalanceParams{
			Delta: draft.tx.SignedCents(),
			ID:    draft.tx.AccountID,
		}); err != nil {
			return err
		}

		tags, err := attachTags(ctx, q, familyID, id, draft.tags)
		if err != nil {
			return err
		}

		today := s.now.today()
		if err := snapshot(ctx, q, old.AccountID, today); err != nil {
			return err
		}
		if old.AccountID != draft.tx.AccountID {
			if err := snapshot(ctx, q, draft.tx.AccountID, today); err != nil {
				return err
			}
		}

		row, err := q.GetTransaction(ctx, storage.TransactionKey{ID: id, FamilyID: familyID})
		if err != nil {
			return err
		}
		updated = row.Core()
		updated.Tags = tags
		return nil
	})
	if err != nil {
		return core.Transaction{}, failure(ctx, "update_transaction", message, err)
	}

	slog.InfoContext(ctx, "Transaction updated",
		"transaction_id", updated.ID,
		"account_id", updated.AccountID,
		"amount_cents", updated.Amount.Cents)
	publish(ctx, s.publisher, amqp.TransactionUpdated, familyID, updated)
	return updated, nil
}

// DeleteTransaction soft-deletes a transaction and removes its contribution
// from the account balance.
func (s *TransactionService) DeleteTransaction(ctx context.Context, caller core.Caller, id int64) error {
	const message = "Failed to delete transaction."
	familyID, err := resolveFamily(ctx, s.storage.Queries(), caller)
	if err != nil {
		return failure(ctx, "delete_transaction", message, err)
	}

	var deleted core.Transaction
	err = s.storage.WithTx(ctx, func(q *storage.Queries) error {
		row, err := q.GetTransaction(ctx, storage.TransactionKey{ID: id, FamilyID: familyID})
		if err != nil {
			return notFoundOr(err, msgTransactionNotFound)
		}
		deleted = row.Core()
		n, err := q.SoftDeleteTransaction(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return core.NotFound(msgTransactionNotFound)
		}
		if err := q.AddToAccountBalance(ctx, storage.AddToAccountBalanceParams{
			Delta: -deleted.SignedCents(),
			ID:    deleted.AccountID,
		}); err != nil {
			return err
		}
		return snapshot(ctx, q, deleted.AccountID, s.now.today())
	})
	if err != nil {
		return failure(ctx, "delete_transaction", message, err)
	}

	slog.InfoContext(ctx, "Transaction deleted",
		"transaction_id", id,
		"account_id", deleted.AccountID)
	publish(ctx, s.publisher, amqp.TransactionDeleted, familyID, deleted)
	return nil
}

// CreateCategory adds a category to the caller's family.
func (s *TransactionService) CreateCategory(ctx context.Context, caller core.Caller, name string) (core.Category, error) {
	const message = "Failed to create category."
	q := s.storage.Queries()
	familyID, err := resolveFamily(ctx, q, caller)
	if err != nil {
		return core.Category{}, failure(ctx, "create_category", message, err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.Invalid("Name is required.")
	}
	row, err := q.CreateCategory(ctx, storage.CreateCategoryParams{FamilyID: familyID, Name: name})
	if err != nil {
		return core.Category{}, failure(ctx, "create_category", message, err)
	}
	return row.Core(), nil
}

func (s *TransactionService) ListCategories(ctx context.Context, caller core.Caller) ([]core.Category, error) {
	const message = "Failed to load categories."
	q := s.storage.Queries()
	familyID, err := resolveFamily(ctx, q, caller)
	if err != nil {
		return nil, failure(ctx, "list_categories", message, err)
	}
	rows, err := q.ListCategories(ctx, familyID)
	if err != nil {
		return nil, failure(ctx, "list_categories", message, err)
	}
	out := make([]core.Category, len(rows))
	for i, row := range rows {
		out[i] = row.Core()
	}
	return out, nil
}

func (s *TransactionService) ListTags(ctx context.Context, caller core.Caller) ([]core.Tag, error) {
	const message = "Failed to load tags."
	q := s.storage.Queries()
	familyID, err := resolveFamily(ctx, q, caller)
	if err != nil {
		return nil, failure(ctx, "list_tags", message, err)
	}
	rows, err := q.ListTags(ctx, familyID)
	if err != nil {
		return nil, failure(ctx, "list_tags", message, err)
	}
	out := make([]core.Tag, len(rows))
	for i, row := range rows {
		out[i] = row.Core()
	}
	return out, nil
}

func attachTags(ctx context.Context, q *storage.Queries, familyID, transactionID int64, names []string) ([]core.Tag, error) {
	rows, err := q.ReplaceTags(ctx, familyID, transactionID, names)
	if err != nil {
		return nil, err
	}
	tags := make([]core.Tag, len(rows))
	for i, row := range rows {
		tags[i] = row.Core()
	}
	return tags, nil
}

func loadTags(ctx context.Context, q *storage.Queries, transactionID int64) ([]core.Tag, error) {
	rows, err := q.ListTransactionTags(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	tags := make([]core.Tag, len(rows))
	for i, row := range rows {
		tags[i] = row.Core()
	}
	return tags, nil
}
