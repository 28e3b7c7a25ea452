package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"famfin/internal/amqp"
	"famfin/internal/core"
	"famfin/internal/sheets"
	"famfin/internal/sheets/memory"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func event(kind amqp.EventKind, typ core.TransactionType, cents int64) *amqp.LedgerEvent {
	return &amqp.LedgerEvent{
		Kind:          kind,
		TransactionID: 10,
		AccountID:     2,
		FamilyID:      1,
		Date:          core.NewDate(2025, 4, 1),
		Name:          "Salary",
		Amount:        core.Money{Cents: cents},
		Type:          typ,
		Timestamp:     time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestRowFromEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   *amqp.LedgerEvent
		want int64
	}{
		{"income created", event(amqp.TransactionCreated, core.Income, 5000), 5000},
		{"expense created", event(amqp.TransactionCreated, core.Expense, 5000), -5000},
		{"expense updated", event(amqp.TransactionUpdated, core.Expense, 700), -700},
		{"expense deleted", event(amqp.TransactionDeleted, core.Expense, 700), 700},
		{"income deleted", event(amqp.TransactionDeleted, core.Income, 700), -700},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := RowFromEvent(tt.ev)
			if row.SignedAmount != tt.want {
				t.Errorf("SignedAmount = %d, want %d", row.SignedAmount, tt.want)
			}
			if row.Event != string(tt.ev.Kind) || row.TransactionID != 10 || !row.Date.Equal(tt.ev.Date) {
				t.Errorf("unexpected row %+v", row)
			}
		})
	}
}

func TestHandleEvent(t *testing.T) {
	store := memory.New()
	w := NewMirrorWorker(store, quietLogger())
	ctx := context.Background()

	if err := w.HandleEvent(ctx, event(amqp.TransactionCreated, core.Income, 1000)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if err := w.HandleEvent(ctx, nil); err == nil {
		t.Error("expected error for nil event")
	}
	bad := event(amqp.TransactionCreated, core.Income, 1000)
	bad.TransactionID = 0
	if err := w.HandleEvent(ctx, bad); err == nil {
		t.Error("expected error for invalid event")
	}

	rows := store.Rows()
	if len(rows) != 1 || rows[0].SignedAmount != 1000 {
		t.Errorf("unexpected rows %+v", rows)
	}
}

type failingWriter struct{}

func (failingWriter) AppendRow(context.Context, sheets.LedgerRow) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestHandleEventWriterError(t *testing.T) {
	w := NewMirrorWorker(failingWriter{}, quietLogger())
	err := w.HandleEvent(context.Background(), event(amqp.TransactionCreated, core.Income, 1000))
	if err == nil {
		t.Fatal("expected writer error to propagate")
	}
}

// replayConsumer hands a fixed set of events to the handler.
type replayConsumer struct {
	events []*amqp.LedgerEvent
	err    error
}

func (c replayConsumer) ConsumeEvents(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error {
	for _, ev := range c.events {
		if err := handler(ctx, ev); err != nil {
			return err
		}
	}
	return c.err
}

func TestRun(t *testing.T) {
	store := memory.New()
	w := NewMirrorWorker(store, quietLogger())

	consumer := replayConsumer{events: []*amqp.LedgerEvent{
		event(amqp.TransactionCreated, core.Expense, 300),
		event(amqp.TransactionDeleted, core.Expense, 300),
	}}
	if err := w.Run(context.Background(), consumer); err != nil {
		t.Fatalf("Run: %v", err)
	}
	rows := store.Rows()
	if len(rows) != 2 || rows[0].SignedAmount+rows[1].SignedAmount != 0 {
		t.Errorf("unexpected rows %+v", rows)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx, replayConsumer{err: context.Canceled}); err != nil {
		t.Errorf("Run after cancel = %v, want nil", err)
	}
	if err := w.Run(context.Background(), replayConsumer{err: errors.New("connection lost")}); err == nil {
		t.Error("expected consumer error")
	}
}
