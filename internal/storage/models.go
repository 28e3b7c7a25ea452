package storage

import (
	"database/sql"
	"time"

	"famfin/internal/core"
	"famfin/internal/dates"
)

type Family struct {
	ID        int64
	Name      string
	CreatedAt string
}

type User struct {
	ID        int64
	Name      string
	Email     string
	FamilyID  sql.NullInt64
	CreatedAt string
}

type Account struct {
	ID           int64
	FamilyID     int64
	Name         string
	BalanceCents int64
	CreatedAt    string
	UpdatedAt    string
	DeletedAt    sql.NullString
}

type AccountBalanceHistory struct {
	ID           int64
	AccountID    int64
	Day          string
	BalanceCents int64
}

type Category struct {
	ID        int64
	FamilyID  int64
	Name      string
	CreatedAt string
}

type Tag struct {
	ID        int64
	FamilyID  int64
	Name      string
	CreatedAt string
	DeletedAt sql.NullString
}

type Transaction struct {
	ID                     int64
	AccountID              int64
	UserID                 int64
	CategoryID             sql.NullInt64
	RecurringTransactionID sql.NullInt64
	Date                   string
	Name                   string
	AmountCents            int64
	Type                   string
	CreatedAt              string
	UpdatedAt              string
	DeletedAt              sql.NullString
}

type RecurringTransaction struct {
	ID             int64
	AccountID      int64
	UserID         int64
	CategoryID     sql.NullInt64
	Name           string
	AmountCents    int64
	Type           string
	Frequency      string
	IntervalCount  int64
	StartDate      string
	EndDate        sql.NullString
	NextOccurrence sql.NullString
	CreatedAt      string
	UpdatedAt      string
	DeletedAt      sql.NullString
}

type RecurringTransactionLog struct {
	ID                     int64
	RecurringTransactionID int64
	TransactionID          sql.NullInt64
	OccurrenceDate         string
	CreatedAt              string
}

// Conversions to domain types. Stored values are written by this package,
// so malformed timestamps decode as the zero value.

func parseTime(s string) time.Time {
	t, _ := dates.ParseDBTime(s)
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func parseDate(s string) core.Date {
	d, _ := core.ParseDate(s)
	return d
}

func parseNullDate(s sql.NullString) core.Date {
	if !s.Valid {
		return core.Date{}
	}
	return parseDate(s.String)
}

// NullDate stores the zero date as NULL.
func NullDate(d core.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

// NullID stores a zero id as NULL.
func NullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}

func (u User) Core() core.User {
	return core.User{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		FamilyID: u.FamilyID.Int64,
	}
}

func (f Family) Core() core.Family {
	return core.Family{ID: f.ID, Name: f.Name}
}

func (a Account) Core() core.Account {
	return core.Account{
		ID:        a.ID,
		FamilyID:  a.FamilyID,
		Name:      a.Name,
		Balance:   core.Money{Cents: a.BalanceCents},
		CreatedAt: parseTime(a.CreatedAt),
		UpdatedAt: parseTime(a.UpdatedAt),
		DeletedAt: parseNullTime(a.DeletedAt),
	}
}

func (h AccountBalanceHistory) Core() core.BalancePoint {
	return core.BalancePoint{
		AccountID: h.AccountID,
		Day:       parseDate(h.Day),
		Balance:   core.Money{Cents: h.BalanceCents},
	}
}

func (c Category) Core() core.Category {
	return core.Category{ID: c.ID, FamilyID: c.FamilyID, Name: c.Name}
}

func (t Tag) Core() core.Tag {
	return core.Tag{ID: t.ID, FamilyID: t.FamilyID, Name: t.Name}
}

func (t Transaction) Core() core.Transaction {
	return core.Transaction{
		ID:          t.ID,
		AccountID:   t.AccountID,
		UserID:      t.UserID,
		CategoryID:  t.CategoryID.Int64,
		RecurringID: t.RecurringTransactionID.Int64,
		Date:        parseDate(t.Date),
		Name:        t.Name,
		Amount:      core.Money{Cents: t.AmountCents},
		Type:        core.TransactionType(t.Type),
		CreatedAt:   parseTime(t.CreatedAt),
		UpdatedAt:   parseTime(t.UpdatedAt),
		DeletedAt:   parseNullTime(t.DeletedAt),
	}
}

func (r RecurringTransaction) Core() core.RecurringTransaction {
	return core.RecurringTransaction{
		ID:         r.ID,
		AccountID:  r.AccountID,
		UserID:     r.UserID,
		CategoryID: r.CategoryID.Int64,
		Name:       r.Name,
		Amount:     core.Money{Cents: r.AmountCents},
		Type:       core.TransactionType(r.Type),
		Schedule: core.Schedule{
			Frequency: core.Frequency(r.Frequency),
			Interval:  int(r.IntervalCount),
			Start:     parseDate(r.StartDate),
			End:       parseNullDate(r.EndDate),
		},
		NextOccurrence: parseNullDate(r.NextOccurrence),
		CreatedAt:      parseTime(r.CreatedAt),
		UpdatedAt:      parseTime(r.UpdatedAt),
		DeletedAt:      parseNullTime(r.DeletedAt),
	}
}

func (l RecurringTransactionLog) Core() core.RecurringLog {
	return core.RecurringLog{
		ID:             l.ID,
		RecurringID:    l.RecurringTransactionID,
		TransactionID:  l.TransactionID.Int64,
		OccurrenceDate: parseDate(l.OccurrenceDate),
		CreatedAt:      parseTime(l.CreatedAt),
	}
}
