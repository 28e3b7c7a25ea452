package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "famfin.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

type fixture struct {
	family  Family
	user    User
	account Account
}

func seed(t *testing.T, repo *SQLiteRepository) fixture {
	t.Helper()
	ctx := context.Background()
	q := repo.Queries()

	family, err := q.CreateFamily(ctx, "Rossi")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	user, err := q.CreateUser(ctx, CreateUserParams{
		Name:     "Anna",
		Email:    "anna@example.com",
		FamilyID: NullID(family.ID),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	account, err := q.CreateAccount(ctx, CreateAccountParams{FamilyID: family.ID, Name: "Checking"})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return fixture{family: family, user: user, account: account}
}

func TestFindOrCreateTag(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	ctx := context.Background()
	q := repo.Queries()

	first, err := q.FindOrCreateTag(ctx, TagKey{FamilyID: f.family.ID, Name: "food"})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	again, err := q.FindOrCreateTag(ctx, TagKey{FamilyID: f.family.ID, Name: "food"})
	if err != nil {
		t.Fatalf("again: %v", err)
	}
	if first.ID != again.ID {
		t.Errorf("expected same tag, got %d and %d", first.ID, again.ID)
	}

	upper, err := q.FindOrCreateTag(ctx, TagKey{FamilyID: f.family.ID, Name: "Food"})
	if err != nil {
		t.Fatalf("upper: %v", err)
	}
	if upper.ID == first.ID {
		t.Error("tag names should be case-sensitive")
	}

	tags, err := q.ListTags(ctx, f.family.ID)
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if len(tags) != 2 {
		t.Errorf("expected 2 tags, got %d", len(tags))
	}
}

func TestWithTx_RollsBack(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.WithTx(ctx, func(q *Queries) error {
		if err := q.AddToAccountBalance(ctx, AddToAccountBalanceParams{Delta: 500, ID: f.account.ID}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	acc, err := repo.Queries().GetAccount(ctx, AccountKey{ID: f.account.ID, FamilyID: f.family.ID})
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if acc.BalanceCents != 0 {
		t.Errorf("balance should be rolled back, got %d", acc.BalanceCents)
	}
}

func TestTransactionsAndBalance(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	ctx := context.Background()

	entries := []CreateTransactionParams{
		{Date: "2024-06-01", Name: "Salary", AmountCents: 250000, Type: "Income"},
		{Date: "2024-06-03", Name: "Groceries", AmountCents: 4550, Type: "Expense"},
		{Date: "2024-07-01", Name: "Rent", AmountCents: 90000, Type: "Expense"},
	}
	err := repo.WithTx(ctx, func(q *Queries) error {
		for _, e := range entries {
			e.AccountID = f.account.ID
			e.UserID = f.user.ID
			tx, err := q.CreateTransaction(ctx, e)
			if err != nil {
				return err
			}
			delta := tx.AmountCents
			if tx.Type == "Expense" {
				delta = -delta
			}
			if err := q.AddToAccountBalance(ctx, AddToAccountBalanceParams{Delta: delta, ID: f.account.ID}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("create transactions: %v", err)
	}

	q := repo.Queries()
	sum, err := q.SumAccountTransactions(ctx, f.account.ID)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	acc, err := q.GetAccount(ctx, AccountKey{ID: f.account.ID, FamilyID: f.family.ID})
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if sum != 155450 || acc.BalanceCents != sum {
		t.Errorf("sum=%d balance=%d, want 155450", sum, acc.BalanceCents)
	}

	june, err := q.ListTransactions(ctx, ListTransactionsParams{
		FamilyID: f.family.ID,
		FromDate: "2024-06-01",
		ToDate:   "2024-06-30",
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(june) != 2 || june[0].Name != "Groceries" {
		t.Errorf("unexpected june listing: %+v", june)
	}

	other, err := q.ListTransactions(ctx, ListTransactionsParams{FamilyID: f.family.ID + 1, Limit: 10})
	if err != nil {
		t.Fatalf("list other family: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected family scoping, got %d rows", len(other))
	}
}

func TestSnapshotBalance(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	ctx := context.Background()
	q := repo.Queries()

	for _, delta := range []int64{1000, -250} {
		if err := q.AddToAccountBalance(ctx, AddToAccountBalanceParams{Delta: delta, ID: f.account.ID}); err != nil {
			t.Fatalf("add: %v", err)
		}
		if err := q.SnapshotBalance(ctx, SnapshotBalanceParams{Day: "2024-06-01", AccountID: f.account.ID}); err != nil {
			t.Fatalf("snapshot: %v", err)
		}
	}

	history, err := q.ListBalanceHistory(ctx, ListBalanceHistoryParams{AccountID: f.account.ID})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].BalanceCents != 750 {
		t.Errorf("expected one point of 750, got %+v", history)
	}
}

func TestNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Queries().GetAccount(context.Background(), AccountKey{ID: 42, FamilyID: 1})
	if !errors.Is(NotFound("get account", err), ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(NotFound("op", errors.New("disk full")), ErrNotFound) {
		t.Fatal("unexpected ErrNotFound for other errors")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}
