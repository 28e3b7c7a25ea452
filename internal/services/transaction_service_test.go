package services

import (
	"context"
	"errors"
	"testing"

	"famfin/internal/amqp"
	"famfin/internal/core"
)

func TestTransactionService_CreateTransaction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.transactions()
	acc := env.createAccount(t, "Checking")

	created, err := svc.CreateTransaction(ctx, env.caller, TransactionInput{
		AccountID: itoa(acc.ID),
		Date:      "2025-08-15T22:29:43",
		Name:      "  Groceries ",
		Amount:    "12,345",
		Type:      "Expense",
		Tags:      "food, weekly, food,  ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.Date.String() != "2025-08-15" {
		t.Errorf("expected date 2025-08-15, got %s", created.Date)
	}
	if created.Name != "Groceries" {
		t.Errorf("expected trimmed name, got %q", created.Name)
	}
	if created.Amount.Cents != 1235 {
		t.Errorf("expected 1235 cents, got %d", created.Amount.Cents)
	}
	if len(created.Tags) != 2 || created.Tags[0].Name != "food" || created.Tags[1].Name != "weekly" {
		t.Errorf("unexpected tags %+v", created.Tags)
	}
	if got := env.balance(t, acc.ID); got != -1235 {
		t.Errorf("expected balance -1235, got %d", got)
	}

	events := env.publisher.events
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if e := events[0]; e.Kind != amqp.TransactionCreated || e.TransactionID != created.ID || e.FamilyID != env.familyID {
		t.Errorf("unexpected event %+v", e)
	}

	loaded, err := svc.GetTransaction(ctx, env.caller, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(loaded.Tags) != 2 {
		t.Errorf("expected tags to be loaded, got %+v", loaded.Tags)
	}
}

func TestTransactionService_CreateTransaction_Rejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.transactions()
	acc := env.createAccount(t, "Checking")
	_, stranger := env.addMember(t, "Bianchi", "luca@example.com")

	valid := TransactionInput{
		AccountID: itoa(acc.ID),
		Date:      "2025-01-10",
		Name:      "Coffee",
		Amount:    "2.50",
		Type:      "Expense",
	}
	with := func(edit func(*TransactionInput)) TransactionInput {
		in := valid
		edit(&in)
		return in
	}

	tests := []struct {
		name   string
		caller core.Caller
		in     TransactionInput
		want   error
	}{
		{"unauthenticated", core.Caller{}, valid, core.ErrUnauthenticated},
		{"zero amount", env.caller, with(func(in *TransactionInput) { in.Amount = "0" }), core.ErrValidation},
		{"negative amount", env.caller, with(func(in *TransactionInput) { in.Amount = "-2.50" }), core.ErrValidation},
		{"not a number", env.caller, with(func(in *TransactionInput) { in.Amount = "NaN" }), core.ErrValidation},
		{"infinite", env.caller, with(func(in *TransactionInput) { in.Amount = "Infinity" }), core.ErrValidation},
		{"rounds to zero", env.caller, with(func(in *TransactionInput) { in.Amount = "0.004" }), core.ErrValidation},
		{"bad type", env.caller, with(func(in *TransactionInput) { in.Type = "Transfer" }), core.ErrValidation},
		{"bad date", env.caller, with(func(in *TransactionInput) { in.Date = "2025-02-30" }), core.ErrValidation},
		{"missing name", env.caller, with(func(in *TransactionInput) { in.Name = "" }), core.ErrValidation},
		{"missing account", env.caller, with(func(in *TransactionInput) { in.AccountID = "" }), core.ErrValidation},
		{"unknown account", env.caller, with(func(in *TransactionInput) { in.AccountID = "999" }), core.ErrNotFound},
		{"unknown category", env.caller, with(func(in *TransactionInput) { in.CategoryID = "999" }), core.ErrNotFound},
		{"other family", stranger, valid, core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTransaction(ctx, tt.caller, tt.in)
			assertKind(t, err, tt.want)
		})
	}

	txs, err := svc.ListTransactions(ctx, env.caller, TransactionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected no transactions, got %d", len(txs))
	}
	if got := env.balance(t, acc.ID); got != 0 {
		t.Errorf("expected untouched balance, got %d", got)
	}
	if len(env.publisher.events) != 0 {
		t.Errorf("expected no events, got %d", len(env.publisher.events))
	}
}

func TestTransactionService_UpdateTransaction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.transactions()
	checking := env.createAccount(t, "Checking")
	savings := env.createAccount(t, "Savings")

	created, err := svc.CreateTransaction(ctx, env.caller, TransactionInput{
		AccountID: itoa(checking.ID),
		Date:      "2025-04-01",
		Name:      "Bonus",
		Amount:    "300",
		Type:      "Income",
		Tags:      "work",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("same account", func(t *testing.T) {
		updated, err := svc.UpdateTransaction(ctx, env.caller, created.ID, TransactionInput{
			AccountID: itoa(checking.ID),
			Date:      "2025-04-02",
			Name:      "Bonus",
			Amount:    "250",
			Type:      "Income",
			Tags:      "work, extra",
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got := env.balance(t, checking.ID); got != 25000 {
			t.Errorf("expected checking 25000, got %d", got)
		}
		if len(updated.Tags) != 2 {
			t.Errorf("expected tags replaced, got %+v", updated.Tags)
		}
	})

	t.Run("moved and flipped", func(t *testing.T) {
		_, err := svc.UpdateTransaction(ctx, env.caller, created.ID, TransactionInput{
			AccountID: itoa(savings.ID),
			Date:      "2025-04-02",
			Name:      "Refund owed",
			Amount:    "40",
			Type:      "Expense",
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got := env.balance(t, checking.ID); got != 0 {
			t.Errorf("expected checking 0, got %d", got)
		}
		if got := env.balance(t, savings.ID); got != -4000 {
			t.Errorf("expected savings -4000, got %d", got)
		}
		loaded, err := svc.GetTransaction(ctx, env.caller, created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(loaded.Tags) != 0 {
			t.Errorf("expected tags cleared, got %+v", loaded.Tags)
		}
	})

	t.Run("validation leaves row alone", func(t *testing.T) {
		_, err := svc.UpdateTransaction(ctx, env.caller, created.ID, TransactionInput{
			AccountID: itoa(savings.ID),
			Date:      "2025-04-02",
			Name:      "Refund owed",
			Amount:    "-1",
			Type:      "Expense",
		})
		assertKind(t, err, core.ErrValidation)
		if got := env.balance(t, savings.ID); got != -4000 {
			t.Errorf("expected savings -4000, got %d", got)
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := svc.UpdateTransaction(ctx, env.caller, 9999, TransactionInput{
			AccountID: itoa(savings.ID),
			Date:      "2025-04-02",
			Name:      "Ghost",
			Amount:    "1",
			Type:      "Expense",
		})
		assertKind(t, err, core.ErrNotFound)
	})

	kinds := env.publisher.kinds()
	want := []amqp.EventKind{amqp.TransactionCreated, amqp.TransactionUpdated, amqp.TransactionUpdated}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}
}

func TestTransactionService_DeleteTransaction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.transactions()
	acc := env.createAccount(t, "Checking")

	created, err := svc.CreateTransaction(ctx, env.caller, TransactionInput{
		AccountID: itoa(acc.ID),
		Date:      "2025-05-05",
		Name:      "Dinner",
		Amount:    "45",
		Type:      "Expense",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeleteTransaction(ctx, env.caller, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := env.balance(t, acc.ID); got != 0 {
		t.Errorf("expected balance restored to 0, got %d", got)
	}
	_, err = svc.GetTransaction(ctx, env.caller, created.ID)
	assertKind(t, err, core.ErrNotFound)

	err = svc.DeleteTransaction(ctx, env.caller, created.ID)
	assertKind(t, err, core.ErrNotFound)

	if kinds := env.publisher.kinds(); len(kinds) != 2 || kinds[1] != amqp.TransactionDeleted {
		t.Errorf("unexpected events %v", kinds)
	}
}

func TestTransactionService_PublishFailureDoesNotFail(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("broker down")
	acc := env.createAccount(t, "Checking")

	_, err := env.transactions().CreateTransaction(context.Background(), env.caller, TransactionInput{
		AccountID: itoa(acc.ID),
		Date:      "2025-05-05",
		Name:      "Dinner",
		Amount:    "45",
		Type:      "Expense",
	})
	if err != nil {
		t.Fatalf("publish errors must not fail the action: %v", err)
	}
	if got := env.balance(t, acc.ID); got != -4500 {
		t.Errorf("expected balance -4500, got %d", got)
	}
}

func TestTransactionService_ListTransactions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.transactions()
	checking := env.createAccount(t, "Checking")
	savings := env.createAccount(t, "Savings")

	for i, day := range []string{"2025-01-05", "2025-02-05", "2025-03-05"} {
		accountID := checking.ID
		if i == 2 {
			accountID = savings.ID
		}
		if _, err := svc.CreateTransaction(ctx, env.caller, TransactionInput{
			AccountID: itoa(accountID),
			Date:      day,
			Name:      "Entry " + day,
			Amount:    "10",
			Type:      "Income",
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter TransactionFilter
		want   []string
	}{
		{"all newest first", TransactionFilter{}, []string{"2025-03-05", "2025-02-05", "2025-01-05"}},
		{"by account", TransactionFilter{AccountID: checking.ID}, []string{"2025-02-05", "2025-01-05"}},
		{"date range", TransactionFilter{From: core.NewDate(2025, 2, 1), To: core.NewDate(2025, 3, 5)}, []string{"2025-03-05", "2025-02-05"}},
		{"limit", TransactionFilter{Limit: 1}, []string{"2025-03-05"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs, err := svc.ListTransactions(ctx, env.caller, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(txs) != len(tt.want) {
				t.Fatalf("expected %d transactions, got %d", len(tt.want), len(txs))
			}
			for i, day := range tt.want {
				if got := txs[i].Date.String(); got != day {
					t.Errorf("row %d: expected %s, got %s", i, day, got)
				}
			}
		})
	}
}

func TestTransactionService_Categories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.transactions()
	acc := env.createAccount(t, "Checking")

	cat, err := svc.CreateCategory(ctx, env.caller, "Utilities")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	_, err = svc.CreateCategory(ctx, env.caller, " ")
	assertKind(t, err, core.ErrValidation)

	tx, err := svc.CreateTransaction(ctx, env.caller, TransactionInput{
		AccountID:  itoa(acc.ID),
		CategoryID: itoa(cat.ID),
		Date:       "2025-06-01",
		Name:       "Electricity",
		Amount:     "60",
		Type:       "Expense",
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if tx.CategoryID != cat.ID {
		t.Errorf("expected category %d, got %d", cat.ID, tx.CategoryID)
	}

	_, stranger := env.addMember(t, "Bianchi", "luca@example.com")
	cats, err := svc.ListCategories(ctx, stranger)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(cats) != 0 {
		t.Errorf("categories leaked across families: %+v", cats)
	}
}
