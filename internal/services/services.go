// Package services implements the family finance actions. Every operation
// takes the caller explicitly, scopes all reads and writes to the caller's
// family and reports failures as *core.ActionError values.
package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"famfin/internal/amqp"
	"famfin/internal/core"
	"famfin/internal/dates"
	"famfin/internal/storage"
)

const (
	msgNoFamily        = "User must belong to a family."
	msgAccountNotFound = "Account not found or not accessible."
	msgCategoryMissing = "Category not found or not accessible."
)

// EventPublisher publishes ledger events after a mutation commits.
// *amqp.Client satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// resolveFamily authenticates caller and returns their family id.
func resolveFamily(ctx context.Context, q *storage.Queries, caller core.Caller) (int64, error) {
	if caller.UserID <= 0 {
		return 0, core.Unauthenticated()
	}
	user, err := q.GetUser(ctx, caller.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.Unauthenticated()
	}
	if err != nil {
		return 0, err
	}
	if !user.FamilyID.Valid {
		return 0, core.NoFamily(msgNoFamily)
	}
	return user.FamilyID.Int64, nil
}

// failure passes action errors through untouched and turns anything else
// into a generic message, logging the cause.
func failure(ctx context.Context, op, message string, err error) error {
	var ae *core.ActionError
	if errors.As(err, &ae) {
		return err
	}
	slog.ErrorContext(ctx, "Action failed",
		"operation", op,
		"error", err)
	return core.Failed(message)
}

// notFoundOr maps a missing row to a NotFound action error.
func notFoundOr(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotFound(message)
	}
	return err
}

// invalid turns a domain validation error into a caller-facing sentence.
func invalid(err error) error {
	msg := err.Error()
	r, size := utf8.DecodeRuneInString(msg)
	msg = string(unicode.ToUpper(r)) + msg[size:]
	if !strings.HasSuffix(msg, ".") {
		msg += "."
	}
	return core.Invalid(msg)
}

// parseDay accepts any supported date-time shape and keeps the calendar day.
func parseDay(raw string) (core.Date, error) {
	day, err := dates.FormatDate(strings.TrimSpace(raw), dates.Options{Style: dates.StyleDB})
	if err != nil {
		return core.Date{}, err
	}
	return core.ParseDate(day)
}

// optionalID parses an optional id field; blank means zero.
func optionalID(raw, message string) (int64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	id, ok := core.ParseID(raw)
	if !ok {
		return 0, core.Invalid(message)
	}
	return id, nil
}

func checkCategory(ctx context.Context, q *storage.Queries, familyID, categoryID int64) error {
	if categoryID == 0 {
		return nil
	}
	_, err := q.GetCategory(ctx, storage.CategoryKey{ID: categoryID, FamilyID: familyID})
	return notFoundOr(err, msgCategoryMissing)
}

func snapshot(ctx context.Context, q *storage.Queries, accountID int64, day core.Date) error {
	return q.SnapshotBalance(ctx, storage.SnapshotBalanceParams{Day: day.String(), AccountID: accountID})
}

func publish(ctx context.Context, p EventPublisher, kind amqp.EventKind, familyID int64, tx core.Transaction) {
	if p == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping event", "kind", kind)
		return
	}
	if err := p.PublishEvent(ctx, amqp.NewLedgerEvent(kind, familyID, tx)); err != nil {
		// The mutation is committed; the event is best effort.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind,
			"transaction_id", tx.ID,
			"error", err)
	}
}

type clock func() time.Time

func (c clock) today() core.Date {
	if c == nil {
		return core.DateOf(time.Now())
	}
	return core.DateOf(c())
}
