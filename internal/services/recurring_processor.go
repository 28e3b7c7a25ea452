package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"famfin/internal/core"
)

// RecurringProcessorConfig holds configuration for the recurring processor
type RecurringProcessorConfig struct {
	// PollInterval is how often due occurrences are generated (default: 1h)
	PollInterval time.Duration

	// SnapshotInterval is how often every account gets a balance point (default: 24h)
	SnapshotInterval time.Duration
}

// DefaultRecurringProcessorConfig returns sensible defaults
func DefaultRecurringProcessorConfig() RecurringProcessorConfig {
	return RecurringProcessorConfig{
		PollInterval:     1 * time.Hour,
		SnapshotInterval: 24 * time.Hour,
	}
}

// RecurringProcessor periodically materializes due recurring transactions
// for every family and records daily balance points.
type RecurringProcessor struct {
	recurring *RecurringService
	accounts  *AccountService
	config    RecurringProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRecurringProcessor(recurring *RecurringService, accounts *AccountService, config RecurringProcessorConfig) *RecurringProcessor {
	return &RecurringProcessor{
		recurring: recurring,
		accounts:  accounts,
		config:    config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *RecurringProcessor) Start(ctx context.Context) error {
	if p.recurring == nil || p.accounts == nil {
		return fmt.Errorf("processor not properly initialized")
	}
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("recurring processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Recurring processor started",
		"poll_interval", p.config.PollInterval,
		"snapshot_interval", p.config.SnapshotInterval)
	return nil
}

// Stop gracefully stops the processor and waits for the current run.
func (p *RecurringProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Recurring processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Recurring processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *RecurringProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *RecurringProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	snapshotTicker := time.NewTicker(p.config.SnapshotInterval)
	defer snapshotTicker.Stop()

	// Catch up immediately on startup
	p.RunOnce(ctx)
	p.snapshot(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			p.RunOnce(ctx)
		case <-snapshotTicker.C:
			p.snapshot(ctx)
		}
	}
}

// RunOnce generates every occurrence due today and returns how many
// transactions were created.
func (p *RecurringProcessor) RunOnce(ctx context.Context) int {
	result, err := p.recurring.GenerateAllDue(ctx, core.Date{})
	if err != nil {
		slog.ErrorContext(ctx, "Recurring generation failed", "error", err)
		return 0
	}
	return len(result.Created)
}

func (p *RecurringProcessor) snapshot(ctx context.Context) {
	n, err := p.accounts.SnapshotAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Daily balance snapshot failed", "error", err)
		return
	}
	slog.DebugContext(ctx, "Daily balance snapshot complete", "accounts", n)
}
