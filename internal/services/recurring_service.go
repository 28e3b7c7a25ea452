package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"famfin/internal/amqp"
	"famfin/internal/core"
	"famfin/internal/storage"
)

const (
	msgRecurringNotFound = "Recurring transaction not found."
	msgDeletedNotFound   = "Deleted recurring transaction not found."
	msgNoValidIDs        = "No valid ids provided."

	// maxOccurrencesPerRun bounds how far one generation run catches up a
	// single rule; the next run continues from where it stopped.
	maxOccurrencesPerRun = 100
)

// Skip reasons reported by the bulk operations.
const (
	SkipNotFound          = "not_found"
	SkipNotDeletedAnymore = "not_deleted_anymore"
)

// RecurringService manages recurring rules and materializes their
// occurrences into transactions.
type RecurringService struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher
	now       clock
}

func NewRecurringService(storage *storage.SQLiteRepository, publisher EventPublisher) *RecurringService {
	return &RecurringService{
		storage:   storage,
		publisher: publisher,
	}
}

// RecurringInput holds the raw form fields of a rule.
type RecurringInput struct {
	AccountID  string
	CategoryID string // optional
	Name       string
	Amount     string
	Type       string
	Frequency  string
	Interval   string // optional, defaults to 1
	StartDate  string
	EndDate    string // optional
}

func (in RecurringInput) parse() (core.RecurringTransaction, error) {
	accountID, ok := core.ParseID(in.AccountID)
	if !ok {
		return core.RecurringTransaction{}, core.Invalid("Account is required.")
	}
	categoryID, err := optionalID(in.CategoryID, "Invalid category.")
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.RecurringTransaction{}, invalid(err)
	}
	interval := 1
	if raw := strings.TrimSpace(in.Interval); raw != "" {
		if interval, err = strconv.Atoi(raw); err != nil {
			return core.RecurringTransaction{}, invalid(core.ErrInvalidInterval)
		}
	}
	start, err := parseDay(in.StartDate)
	if err != nil {
		return core.RecurringTransaction{}, core.Invalid("Invalid start date.")
	}
	var end core.Date
	if strings.TrimSpace(in.EndDate) != "" {
		if end, err = parseDay(in.EndDate); err != nil {
			return core.RecurringTransaction{}, core.Invalid("Invalid end date.")
		}
	}

	rt := core.RecurringTransaction{
		AccountID:  accountID,
		CategoryID: categoryID,
		Name:       strings.TrimSpace(in.Name),
		Amount:     amount,
		Type:       core.TransactionType(strings.TrimSpace(in.Type)),
		Schedule: core.Schedule{
			Frequency: core.Frequency(strings.ToLower(strings.TrimSpace(in.Frequency))),
			Interval:  interval,
			Start:     start,
			End:       end,
		},
	}
	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, invalid(err)
	}
	return rt, nil
}

func (s *RecurringService) CreateRecurring(ctx context.Context, caller core.Caller, in RecurringInput) (core.RecurringTransaction, error) {
	const message = "Failed to create recurring transaction."
	familyID, err := resolveFamily(ctx, s.storage.Queries(), caller)
	if err != nil {
		return core.RecurringTransaction{}, failure(ctx, "create_recurring", message, err)
	}
	rt, err := in.parse()
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	rt.UserID = caller.UserID
	rt.NextOccurrence, _ = rt.Schedule.FirstOnOrAfter(rt.Schedule.Start)

	var created core.RecurringTransaction
	err = s.storage.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetAccount(ctx, storage.AccountKey{ID: rt.AccountID, FamilyID: familyID}); err != nil {
			return notFoundOr(err, msgAccountNotFound)
		}
		if err := checkCategory(ctx, q, familyID, rt.CategoryID); err != nil {
			return err
		}
		id, err := q.CreateRecurring(ctx, storage.CreateRecurringParams{
			AccountID:      rt.AccountID,
			UserID:         rt.UserID,
			CategoryID:     storage.NullID(rt.CategoryID),
			Name:           rt.Name,
			AmountCents:    rt.Amount.Cents,
			Type:           string(rt.Type),
			Frequency:      string(rt.Schedule.Frequency),
			IntervalCount:  int64(rt.Schedule.Interval),
			StartDate:      rt.Schedule.Start.String(),
			EndDate:        storage.NullDate(rt.Schedule.End),
			NextOccurrence: storage.NullDate(rt.NextOccurrence),
		})
		if err != nil {
			return err
		}
		row, err := q.GetRecurring(ctx, storage.RecurringKey{ID: id, FamilyID: familyID})
		if err != nil {
			return err
		}
		created = row.Core()
		return nil
	})
	if err != nil {
		return core.RecurringTransaction{}, failure(ctx, "create_recurring", message, err)
	}

	slog.InfoContext(ctx, "Recurring transaction created",
		"recurring_id", created.ID,
		"frequency", created.Schedule.Frequency,
		"next_occurrence", created.NextOccurrence.String())
	return created, nil
}

func (s *RecurringService) GetRecurring(ctx context.Context, caller core.Caller, id int64) (core.RecurringTransaction, error) {
	const message = "Failed to load recurring transaction."
	q := s.storage.Queries()
	familyID, err := resolveFamily(ctx, q, caller)
	if err != nil {
		return core.RecurringTransaction{}, failure(ctx, "get_recurring", message, err)
	}
	row, err := q.GetRecurring(ctx, storage.RecurringKey{ID: id, FamilyID: familyID})
	if err != nil {
		return core.RecurringTransaction{}, failure(ctx, "get_recurring", message, notFoundOr(err, msgRecurringNotFound))
	}
	return row.Core(), nil
}

// ListRecurring lists active rules, or soft-deleted ones when deleted is set.
func (s *RecurringService) ListRecurring(ctx context.Context, caller core.Caller, deleted bool) ([]core.RecurringTransaction, error) {
	const message = "Failed to load recurring transactions."
	q := s.storage.Queries()
	familyID, err := resolveFamily(ctx, q, caller)
	if err != nil {
		return nil, failure(ctx, "list_recurring", message, err)
	}
	var rows []storage.RecurringTransaction
	if deleted {
		rows, err = q.ListDeletedRecurring(ctx, familyID)
	} else {
		rows, err = q.ListRecurring(ctx, familyID)
	}
	if err != nil {
		return nil, failure(ctx, "list_recurring", message, err)
	}
	out := make([]core.RecurringTransaction, len(rows))
	for i, row := range rows {
		out[i] = row.Core()
	}
	return out, nil
}

// UpdateRecurring rewrites an active rule. Occurrences already generated are
// never produced again: the next occurrence is searched from the later of the
// new start date and the point the rule had reached.
func (s *RecurringService) UpdateRecurring(ctx context.Context, caller core.Caller, id int64, in RecurringInput) (core.RecurringTransaction, error) {
	const message = "Failed to update recurring transaction."
	familyID, err := resolveFamily(ctx, s.storage.Queries(), caller)
	if err != nil {
		return core.RecurringTransaction{}, failure(ctx, "update_recurring", message, err)
	}
	rt, err := in.parse()
	if err != nil {
		return core.RecurringTransaction{}, err
	}

	var updated core.RecurringTransaction
	err = s.storage.WithTx(ctx, func(q *storage.Queries) error {
		currentRow, err := q.GetRecurring(ctx, storage.RecurringKey{ID: id, FamilyID: familyID})
		if err != nil {
			return notFoundOr(err, msgRecurringNotFound)
		}
		current := currentRow.Core()
		if _, err := q.GetAccount(ctx, storage.AccountKey{ID: rt.AccountID, FamilyID: familyID}); err != nil {
			return notFoundOr(err, msgAccountNotFound)
		}
		if err := checkCategory(ctx, q, familyID, rt.CategoryID); err != nil {
			return err
		}

		resume, err := resumePoint(ctx, q, current)
		if err != nil {
			return err
		}
		from := rt.Schedule.Start
		if resume.After(from) {
			from = resume
		}
		next, _ := rt.Schedule.FirstOnOrAfter(from)

		if err := q.UpdateRecurring(ctx, storage.UpdateRecurringParams{
			AccountID:      rt.AccountID,
			CategoryID:     storage.NullID(rt.CategoryID),
			Name:           rt.Name,
			AmountCents:    rt.Amount.Cents,
			Type:           string(rt.Type),
			Frequency:      string(rt.Schedule.Frequency),
			IntervalCount:  int64(rt.Schedule.Interval),
			StartDate:      rt.Schedule.Start.String(),
			EndDate:        storage.NullDate(rt.Schedule.End),
			NextOccurrence: storage.NullDate(next),
			ID:             id,
		}); err != nil {
			return err
		}
		row, err := q.GetRecurring(ctx, storage.RecurringKey{ID: id, FamilyID: familyID})
		if err != nil {
			return err
		}
		updated = row.Core()
		return nil
	})
	if err != nil {
		return core.RecurringTransaction{}, failure(ctx, "update_recurring", message, err)
	}
	return updated, nil
}

// resumePoint is the first day a rule may still produce an occurrence on.
func resumePoint(ctx context.Context, q *storage.Queries, rt core.RecurringTransaction) (core.Date, error) {
	if !rt.NextOccurrence.IsZero() {
		return rt.NextOccurrence, nil
	}
	logs, err := q.ListRecurringLogs(ctx, rt.ID)
	if err != nil {
		return core.Date{}, err
	}
	if len(logs) == 0 {
		return core.Date{}, nil
	}
	return logs[len(logs)-1].Core().OccurrenceDate.AddDays(1), nil
}

// DeleteRecurring soft-deletes a rule. Logs and generated transactions stay.
func (s *RecurringService) DeleteRecurring(ctx context.Context, caller core.Caller, id int64) error {
	const message = "Failed to delete recurring transaction."
	q := s.storage.Queries()
	familyID, err := resolveFamily(ctx, q, caller)
	if err != nil {
		return failure(ctx, "delete_recurring", message, err)
	}
	if _, err := q.GetRecurring(ctx, storage.RecurringKey{ID: id, FamilyID: familyID}); err != nil {
		return failure(ctx, "delete_recurring", message, notFoundOr(err, msgRecurringNotFound))
	}
	if _, err := q.SoftDeleteRecurring(ctx, id); err != nil {
		return failure(ctx, "delete_recurring", message, err)
	}
	slog.InfoContext(ctx, "Recurring transaction deleted", "recurring_id", id)
	return nil
}

// RestoreRecurring clears the soft-delete marker of a deleted rule.
func (s *RecurringService) RestoreRecurring(ctx context.Context, caller core.Caller, id int64) (core.RecurringTransaction, error) {
	const message = "Failed to restore recurring transaction."
	familyID, err := resolveFamily(ctx, s.storage.Queries(), caller)
	if err != nil {
		return core.RecurringTransaction{}, failure(ctx, "restore_recurring", message, err)
	}

	var restored core.RecurringTransaction
	err = s.storage.WithTx(ctx, func(q *storage.Queries) error {
		key := storage.RecurringKey{ID: id, FamilyID: familyID}
		if _, err := q.GetDeletedRecurring(ctx, key); err != nil {
			return notFoundOr(err, msgDeletedNotFound)
		}
		if _, err := q.RestoreRecurring(ctx, id); err != nil {
			return err
		}
		row, err := q.GetRecurring(ctx, key)
		if err != nil {
			return err
		}
		restored = row.Core()
		return nil
	})
	if err != nil {
		return core.RecurringTransaction{}, failure(ctx, "restore_recurring", message, err)
	}
	slog.InfoContext(ctx, "Recurring transaction restored", "recurring_id", id)
	return restored, nil
}

// PurgeRecurring hard-deletes a soft-deleted rule and its logs. Transactions
// it generated are kept. Active rules are reported as not found.
func (s *RecurringService) PurgeRecurring(ctx context.Context, caller core.Caller, id int64) error {
	const message = "Failed to permanently delete recurring transaction."
	familyID, err := resolveFamily(ctx, s.storage.Queries(), caller)
	if err != nil {
		return failure(ctx, "purge_recurring", message, err)
	}

	err = s.storage.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetDeletedRecurring(ctx, storage.RecurringKey{ID: id, FamilyID: familyID}); err != nil {
			return notFoundOr(err, msgDeletedNotFound)
		}
		return purge(ctx, q, id)
	})
	if err != nil {
		return failure(ctx, "purge_recurring", message, err)
	}
	slog.InfoContext(ctx, "Recurring transaction purged", "recurring_id", id)
	return nil
}

func purge(ctx context.Context, q *storage.Queries, id int64) error {
	if err := q.DeleteRecurringLogs(ctx, id); err != nil {
		return fmt.Errorf("delete logs: %w", err)
	}
	if _, err := q.PurgeRecurring(ctx, id); err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return nil
}

type SkippedID struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult reports a bulk restore or purge.
type BulkResult struct {
	Affected int         `json:"affected"`
	Skipped  []SkippedID `json:"skipped"`
}

// BulkRestore restores up to core.MaxBulkIDs soft-deleted rules named in a
// free-text id list.
func (s *RecurringService) BulkRestore(ctx context.Context, caller core.Caller, rawIDs string) (BulkResult, error) {
	return s.bulk(ctx, caller, rawIDs, "bulk_restore", "Failed to bulk restore recurring transactions.",
		func(q *storage.Queries, id int64) error {
			_, err := q.RestoreRecurring(ctx, id)
			return err
		})
}

// BulkPurge permanently deletes up to core.MaxBulkIDs soft-deleted rules.
func (s *RecurringService) BulkPurge(ctx context.Context, caller core.Caller, rawIDs string) (BulkResult, error) {
	return s.bulk(ctx, caller, rawIDs, "bulk_purge", "Failed to bulk purge recurring transactions.",
		func(q *storage.Queries, id int64) error {
			return purge(ctx, q, id)
		})
}

// bulk partitions ids into rules that are still soft-deleted and skipped
// ones, then applies fn to the valid rules. Partitioning and mutation share
// one database transaction.
func (s *RecurringService) bulk(ctx context.Context, caller core.Caller, rawIDs, op, message string, fn func(*storage.Queries, int64) error) (BulkResult, error) {
	familyID, err := resolveFamily(ctx, s.storage.Queries(), caller)
	if err != nil {
		return BulkResult{}, failure(ctx, op, message, err)
	}
	ids := core.ParseIDList(rawIDs)
	if len(ids) == 0 {
		return BulkResult{}, core.Invalid(msgNoValidIDs)
	}

	result := BulkResult{Skipped: []SkippedID{}}
	err = s.storage.WithTx(ctx, func(q *storage.Queries) error {
		var valid []int64
		for _, id := range ids {
			row, err := q.FindRecurring(ctx, storage.RecurringKey{ID: id, FamilyID: familyID})
			switch {
			case errors.Is(err, sql.ErrNoRows):
				result.Skipped = append(result.Skipped, SkippedID{ID: id, Reason: SkipNotFound})
			case err != nil:
				return err
			case !row.DeletedAt.Valid:
				result.Skipped = append(result.Skipped, SkippedID{ID: id, Reason: SkipNotDeletedAnymore})
			default:
				valid = append(valid, id)
			}
		}
		for _, id := range valid {
			if err := fn(q, id); err != nil {
				return err
			}
		}
		result.Affected = len(valid)
		return nil
	})
	if err != nil {
		return BulkResult{}, failure(ctx, op, message, err)
	}

	slog.InfoContext(ctx, "Bulk recurring operation complete",
		"operation", op,
		"requested", len(ids),
		"affected", result.Affected,
		"skipped", len(result.Skipped))
	return result, nil
}

// GenerateResult summarizes a generation run.
type GenerateResult struct {
	Rules   int                `json:"rules"`
	Failed  int                `json:"failed"`
	Created []core.Transaction `json:"created"`
}

// Generate materializes the caller's due occurrences up to asOf.
func (s *RecurringService) Generate(ctx context.Context, caller core.Caller, asOf core.Date) (GenerateResult, error) {
	const message = "Failed to generate recurring transactions."
	if asOf.After(s.now.today()) {
		return GenerateResult{}, core.Invalid("As-of date cannot be in the future.")
	}
	familyID, err := resolveFamily(ctx, s.storage.Queries(), caller)
	if err != nil {
		return GenerateResult{}, failure(ctx, "generate_recurring", message, err)
	}
	result, err := s.generate(ctx, familyID, asOf)
	if err != nil {
		return GenerateResult{}, failure(ctx, "generate_recurring", message, err)
	}
	return result, nil
}

// GenerateAllDue materializes due occurrences for every family. A zero or
// future asOf means today.
func (s *RecurringService) GenerateAllDue(ctx context.Context, asOf core.Date) (GenerateResult, error) {
	return s.generate(ctx, 0, asOf)
}

func (s *RecurringService) generate(ctx context.Context, familyID int64, asOf core.Date) (GenerateResult, error) {
	if today := s.now.today(); asOf.IsZero() || asOf.After(today) {
		asOf = today
	}
	rules, err := s.storage.Queries().ListDueRecurring(ctx, storage.ListDueRecurringParams{
		FamilyID: familyID,
		AsOf:     asOf.String(),
	})
	if err != nil {
		return GenerateResult{}, fmt.Errorf("list due rules: %w", err)
	}

	result := GenerateResult{Created: []core.Transaction{}}
	for _, row := range rules {
		rule := row.Core()
		created, ruleFamily, err := s.generateRule(ctx, rule, asOf)
		if err != nil {
			// One broken rule must not block the others.
			slog.ErrorContext(ctx, "Failed to generate recurring occurrences",
				"recurring_id", rule.ID,
				"error", err)
			result.Failed++
			continue
		}
		result.Rules++
		for _, tx := range created {
			publish(ctx, s.publisher, amqp.TransactionCreated, ruleFamily, tx)
		}
		result.Created = append(result.Created, created...)
	}

	slog.InfoContext(ctx, "Recurring generation complete",
		"as_of", asOf.String(),
		"rules", result.Rules,
		"failed", result.Failed,
		"created", len(result.Created))
	return result, nil
}

// generateRule books every due occurrence of one rule and advances it, in a
// single database transaction.
func (s *RecurringService) generateRule(ctx context.Context, rule core.RecurringTransaction, asOf core.Date) ([]core.Transaction, int64, error) {
	due := rule.Schedule.Due(rule.NextOccurrence, asOf, maxOccurrencesPerRun)
	if len(due) == 0 {
		return nil, 0, nil
	}
	next, ok := rule.Schedule.Next(due[len(due)-1])
	if !ok {
		next = core.Date{}
	}

	var (
		created  []core.Transaction
		familyID int64
	)
	err := s.storage.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		if familyID, err = q.GetAccountFamily(ctx, rule.AccountID); err != nil {
			return err
		}
		for _, day := range due {
			row, err := q.CreateTransaction(ctx, storage.CreateTransactionParams{
				AccountID:              rule.AccountID,
				UserID:                 rule.UserID,
				CategoryID:             storage.NullID(rule.CategoryID),
				RecurringTransactionID: storage.NullID(rule.ID),
				Date:                   day.String(),
				Name:                   rule.Name,
				AmountCents:            rule.Amount.Cents,
				Type:                   string(rule.Type),
			})
			if err != nil {
				return fmt.Errorf("create transaction for %s: %w", day, err)
			}
			if err := q.CreateRecurringLog(ctx, storage.CreateRecurringLogParams{
				RecurringTransactionID: rule.ID,
				TransactionID:          storage.NullID(row.ID),
				OccurrenceDate:         day.String(),
			}); err != nil {
				return fmt.Errorf("log occurrence %s: %w", day, err)
			}
			if err := q.AddToAccountBalance(ctx, storage.AddToAccountBalanceParams{
				Delta: rule.SignedCents(),
				ID:    rule.AccountID,
			}); err != nil {
				return err
			}
			created = append(created, row.Core())
		}
		if err := q.SetNextOccurrence(ctx, storage.SetNextOccurrenceParams{
			NextOccurrence: storage.NullDate(next),
			ID:             rule.ID,
		}); err != nil {
			return err
		}
		return snapshot(ctx, q, rule.AccountID, s.now.today())
	})
	if err != nil {
		return nil, 0, err
	}

	slog.InfoContext(ctx, "Generated recurring occurrences",
		"recurring_id", rule.ID,
		"count", len(created),
		"next_occurrence", next.String())
	return created, familyID, nil
}
