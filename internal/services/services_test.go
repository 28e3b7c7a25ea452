package services

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"famfin/internal/amqp"
	"famfin/internal/core"
	"famfin/internal/storage"
)

type testEnv struct {
	repo      *storage.SQLiteRepository
	publisher *recordingPublisher
	caller    core.Caller
	familyID  int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "famfin.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	env := &testEnv{repo: repo, publisher: &recordingPublisher{}}
	env.familyID, env.caller = env.addMember(t, "Rossi", "anna@example.com")
	return env
}

// addMember creates a family with one member and returns both.
func (e *testEnv) addMember(t *testing.T, family, email string) (int64, core.Caller) {
	t.Helper()
	ctx := context.Background()
	q := e.repo.Queries()
	fam, err := q.CreateFamily(ctx, family)
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	user, err := q.CreateUser(ctx, storage.CreateUserParams{
		Name:     email,
		Email:    email,
		FamilyID: storage.NullID(fam.ID),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return fam.ID, core.Caller{UserID: user.ID}
}

func (e *testEnv) accounts() *AccountService {
	return NewAccountService(e.repo)
}

func (e *testEnv) transactions() *TransactionService {
	return NewTransactionService(e.repo, e.publisher)
}

func (e *testEnv) recurring() *RecurringService {
	return NewRecurringService(e.repo, e.publisher)
}

func (e *testEnv) createAccount(t *testing.T, name string) core.Account {
	t.Helper()
	acc, err := e.accounts().CreateAccount(context.Background(), e.caller, CreateAccountInput{Name: name})
	if err != nil {
		t.Fatalf("create account %q: %v", name, err)
	}
	return acc
}

func (e *testEnv) balance(t *testing.T, accountID int64) int64 {
	t.Helper()
	acc, err := e.repo.Queries().GetAccount(context.Background(), storage.AccountKey{ID: accountID, FamilyID: e.familyID})
	if err != nil {
		t.Fatalf("get account %d: %v", accountID, err)
	}
	return acc.BalanceCents
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, event *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) kinds() []amqp.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventKind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}

func assertKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}

func TestResolveFamily(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	q := env.repo.Queries()

	orphan, err := q.CreateUser(ctx, storage.CreateUserParams{Name: "Solo", Email: "solo@example.com"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	tests := []struct {
		name   string
		caller core.Caller
		want   error
	}{
		{"no session", core.Caller{}, core.ErrUnauthenticated},
		{"unknown user", core.Caller{UserID: 9999}, core.ErrUnauthenticated},
		{"user without family", core.Caller{UserID: orphan.ID}, core.ErrNoFamily},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveFamily(ctx, q, tt.caller)
			assertKind(t, err, tt.want)
		})
	}

	t.Run("member", func(t *testing.T) {
		familyID, err := resolveFamily(ctx, q, env.caller)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if familyID != env.familyID {
			t.Errorf("expected family %d, got %d", env.familyID, familyID)
		}
	})
}

func TestFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("action errors pass through", func(t *testing.T) {
		in := core.NotFound("Gone.")
		if got := failure(ctx, "op", "Failed.", in); got != in {
			t.Errorf("expected the same error back, got %v", got)
		}
	})

	t.Run("other errors become persistence failures", func(t *testing.T) {
		err := failure(ctx, "op", "Failed to do it.", errors.New("disk I/O error"))
		assertKind(t, err, core.ErrPersistence)
		if msg := core.Message(err, ""); msg != "Failed to do it." {
			t.Errorf("unexpected message %q", msg)
		}
	})
}

func TestInvalid(t *testing.T) {
	err := invalid(core.ErrInvalidAmount)
	assertKind(t, err, core.ErrValidation)
	if msg := core.Message(err, ""); msg != "Amount must be a positive number." {
		t.Errorf("unexpected message %q", msg)
	}
}
