package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	maxNameLength = 200
	maxInterval   = 365
)

type (
	TransactionType string

	Frequency string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Caller is the authenticated identity an action runs for. A zero UserID
	// means no session was presented.
	Caller struct {
		UserID int64
	}

	Family struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	User struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		FamilyID int64  `json:"familyId,omitempty"` // 0 when the user has no family
	}

	Account struct {
		ID        int64      `json:"id"`
		FamilyID  int64      `json:"familyId"`
		Name      string     `json:"name"`
		Balance   Money      `json:"balance"`
		CreatedAt time.Time  `json:"createdAt"`
		UpdatedAt time.Time  `json:"updatedAt"`
		DeletedAt *time.Time `json:"deletedAt,omitempty"`
	}

	// BalancePoint is one day of an account's balance history.
	BalancePoint struct {
		AccountID int64 `json:"accountId"`
		Day       Date  `json:"day"`
		Balance   Money `json:"balance"`
	}

	Category struct {
		ID       int64  `json:"id"`
		FamilyID int64  `json:"familyId"`
		Name     string `json:"name"`
	}

	Tag struct {
		ID       int64  `json:"id"`
		FamilyID int64  `json:"familyId"`
		Name     string `json:"name"`
	}

	Transaction struct {
		ID          int64           `json:"id"`
		AccountID   int64           `json:"accountId"`
		UserID      int64           `json:"userId"`
		CategoryID  int64           `json:"categoryId,omitempty"` // 0 when uncategorized
		RecurringID int64           `json:"recurringTransactionId,omitempty"`
		Date        Date            `json:"date"`
		Name        string          `json:"name"`
		Amount      Money           `json:"amount"`
		Type        TransactionType `json:"type"`
		Tags        []Tag           `json:"tags"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   time.Time       `json:"updatedAt"`
		DeletedAt   *time.Time      `json:"deletedAt,omitempty"`
	}

	RecurringTransaction struct {
		ID             int64           `json:"id"`
		AccountID      int64           `json:"accountId"`
		UserID         int64           `json:"userId"`
		CategoryID     int64           `json:"categoryId,omitempty"`
		Name           string          `json:"name"`
		Amount         Money           `json:"amount"`
		Type           TransactionType `json:"type"`
		Schedule       Schedule        `json:"schedule"`
		NextOccurrence Date            `json:"nextOccurrence"` // zero once the schedule is exhausted
		CreatedAt      time.Time       `json:"createdAt"`
		UpdatedAt      time.Time       `json:"updatedAt"`
		DeletedAt      *time.Time      `json:"deletedAt,omitempty"`
	}

	// RecurringLog records one materialized occurrence of a recurring rule.
	RecurringLog struct {
		ID             int64     `json:"id"`
		RecurringID    int64     `json:"recurringTransactionId"`
		TransactionID  int64     `json:"transactionId,omitempty"`
		OccurrenceDate Date      `json:"occurrenceDate"`
		CreatedAt      time.Time `json:"createdAt"`
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("amount must be a positive number")
	ErrEmptyName        = errors.New("name is required")
	ErrNameTooLong      = errors.New("name too long (max 200 characters)")
	ErrInvalidType      = errors.New("type must be Income or Expense")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidInterval  = errors.New("interval must be between 1 and 365")
	ErrMissingAccount   = errors.New("account is required")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

// String renders the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil || s == "" {
		*d = Date{}
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

// Sign is +1 for income and -1 for expenses.
func (t TransactionType) Sign() int64 {
	if t == Income {
		return 1
	}
	return -1
}

// SignedCents is the contribution of the transaction to its account balance.
func (t Transaction) SignedCents() int64 {
	return t.Type.Sign() * t.Amount.Cents
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func validateName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return ErrEmptyName
	}
	if len(name) > maxNameLength {
		return ErrNameTooLong
	}
	return nil
}

func (a Account) Validate() error {
	return validateName(a.Name)
}

func (t Transaction) Validate() error {
	if t.AccountID <= 0 {
		return ErrMissingAccount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := validateName(t.Name); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return t.Type.Validate()
}

func (rt RecurringTransaction) Validate() error {
	if rt.AccountID <= 0 {
		return ErrMissingAccount
	}
	if err := validateName(rt.Name); err != nil {
		return err
	}
	if err := rt.Amount.Validate(); err != nil {
		return err
	}
	if err := rt.Type.Validate(); err != nil {
		return err
	}
	return rt.Schedule.Validate()
}

// SignedCents is the balance contribution of each generated occurrence.
func (rt RecurringTransaction) SignedCents() int64 {
	return rt.Type.Sign() * rt.Amount.Cents
}
