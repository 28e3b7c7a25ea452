package sheets

import (
	"context"
	"errors"
	"strconv"
	"time"

	"famfin/internal/core"
	"famfin/internal/dates"
)

// Header is the first row of every ledger sheet.
var Header = []any{"Timestamp", "Event", "Transaction", "Family", "Account", "Date", "Name", "Amount", "Type"}

// LedgerRow is one mirrored ledger event.
type LedgerRow struct {
	Timestamp     time.Time
	Event         string
	TransactionID int64
	FamilyID      int64
	AccountID     int64
	Date          core.Date
	Name          string
	// SignedAmount is negative for expenses.
	SignedAmount int64
	Type         core.TransactionType
}

func (r LedgerRow) Validate() error {
	if r.Event == "" {
		return errors.New("event kind is required")
	}
	if r.TransactionID <= 0 {
		return errors.New("transaction id is required")
	}
	return r.Date.Validate()
}

// Values renders the row in Header order. Dates use DD/MM/YYYY and
// amounts a plain signed decimal so spreadsheets can sum the column.
func (r LedgerRow) Values() []any {
	day, err := dates.FormatDate(r.Date.String(), dates.Options{Style: dates.StyleNormal})
	if err != nil {
		day = r.Date.String()
	}
	sign := ""
	cents := r.SignedAmount
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return []any{
		dates.FormatDBTime(r.Timestamp),
		r.Event,
		strconv.FormatInt(r.TransactionID, 10),
		strconv.FormatInt(r.FamilyID, 10),
		strconv.FormatInt(r.AccountID, 10),
		day,
		r.Name,
		sign + core.Money{Cents: cents}.String(),
		string(r.Type),
	}
}

// LedgerWriter appends mirrored rows to an outbound store.
type LedgerWriter interface {
	AppendRow(ctx context.Context, row LedgerRow) (rowRef string, err error)
}
