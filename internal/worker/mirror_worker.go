package worker

import (
	"context"
	"fmt"
	"log/slog"

	"famfin/internal/amqp"
	applog "famfin/internal/log"
	"famfin/internal/sheets"
)

// EventConsumer delivers ledger events to a handler until ctx is done.
type EventConsumer interface {
	ConsumeEvents(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error
}

// MirrorWorker appends every ledger event it receives to an outbound
// ledger, so the spreadsheet keeps an append-only history of changes.
type MirrorWorker struct {
	writer sheets.LedgerWriter
	logger *slog.Logger
}

func NewMirrorWorker(writer sheets.LedgerWriter, logger *slog.Logger) *MirrorWorker {
	if logger == nil {
		logger = slog.Default().With(applog.FieldComponent, applog.ComponentWorker)
	}
	return &MirrorWorker{writer: writer, logger: logger}
}

// RowFromEvent converts an event into its mirrored row. Deleted rows carry
// the negated amount so the column still sums to the live balance.
func RowFromEvent(ev *amqp.LedgerEvent) sheets.LedgerRow {
	signed := ev.Type.Sign() * ev.Amount.Cents
	if ev.Kind == amqp.TransactionDeleted {
		signed = -signed
	}
	return sheets.LedgerRow{
		Timestamp:     ev.Timestamp,
		Event:         string(ev.Kind),
		TransactionID: ev.TransactionID,
		FamilyID:      ev.FamilyID,
		AccountID:     ev.AccountID,
		Date:          ev.Date,
		Name:          ev.Name,
		SignedAmount:  signed,
		Type:          ev.Type,
	}
}

// HandleEvent mirrors a single event. A returned error makes the consumer
// requeue the delivery.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	if ev == nil {
		return fmt.Errorf("nil ledger event")
	}
	row := RowFromEvent(ev)
	ref, err := w.writer.AppendRow(ctx, row)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to mirror ledger event",
			applog.FieldEventKind, ev.Kind,
			applog.FieldTransactionID, ev.TransactionID,
			applog.FieldError, err)
		return fmt.Errorf("append ledger row: %w", err)
	}
	w.logger.InfoContext(ctx, "Mirrored ledger event",
		applog.FieldEventKind, ev.Kind,
		applog.FieldTransactionID, ev.TransactionID,
		applog.FieldAmountCents, row.SignedAmount,
		"row_ref", ref)
	return nil
}

// Run consumes events until ctx is cancelled.
func (w *MirrorWorker) Run(ctx context.Context, consumer EventConsumer) error {
	w.logger.InfoContext(ctx, "Starting ledger mirror")
	err := consumer.ConsumeEvents(ctx, w.HandleEvent)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
