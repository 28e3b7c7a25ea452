package services

import (
	"context"
	"testing"
	"time"
)

func TestDefaultRecurringProcessorConfig(t *testing.T) {
	config := DefaultRecurringProcessorConfig()

	if config.PollInterval != 1*time.Hour {
		t.Errorf("expected PollInterval 1h, got %v", config.PollInterval)
	}
	if config.SnapshotInterval != 24*time.Hour {
		t.Errorf("expected SnapshotInterval 24h, got %v", config.SnapshotInterval)
	}
}

func TestRecurringProcessor_StartRequiresServices(t *testing.T) {
	processor := NewRecurringProcessor(nil, nil, DefaultRecurringProcessorConfig())

	if err := processor.Start(context.Background()); err == nil {
		t.Error("Start should fail without services")
	}
	if processor.IsRunning() {
		t.Error("processor should not be running")
	}
}

func TestRecurringProcessor_StopWhenNotRunning(t *testing.T) {
	processor := NewRecurringProcessor(nil, nil, DefaultRecurringProcessorConfig())

	if err := processor.Stop(context.Background()); err != nil {
		t.Errorf("Stop should be a no-op when not running: %v", err)
	}
}

func TestRecurringProcessor_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	acc := env.createAccount(t, "Checking")
	env.createRule(t, env.recurring(), acc.ID, RecurringInput{StartDate: "2025-01-01", Frequency: "yearly"})

	processor := NewRecurringProcessor(env.recurring(), env.accounts(), RecurringProcessorConfig{
		PollInterval:     time.Hour,
		SnapshotInterval: time.Hour,
	})

	ctx := context.Background()
	if err := processor.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !processor.IsRunning() {
		t.Error("processor should be running")
	}
	if err := processor.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := processor.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if processor.IsRunning() {
		t.Error("processor should be stopped")
	}

	// The startup run catches up; Stop waits for it.
	rows, err := env.repo.Queries().ListRecurringLogs(ctx, 1)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(rows) == 0 {
		t.Error("expected the startup run to generate the 2025-01-01 occurrence")
	}
}
