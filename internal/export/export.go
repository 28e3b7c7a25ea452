// Package export writes a family's ledger to an Excel workbook.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"famfin/internal/core"
	"famfin/internal/currency"
	"famfin/internal/dates"
	"famfin/internal/services"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Transactions"

// MaxRows is the largest export a single workbook holds.
const MaxRows = 1000

var header = []string{"Date", "Account", "Category", "Name", "Type", "Amount", "Formatted", "Tags"}

// TransactionLister is the part of the transaction service the exporter reads.
type TransactionLister interface {
	ListFamilyTransactions(ctx context.Context, familyID int64, f services.TransactionFilter) ([]core.Transaction, error)
}

// Options controls labels and money formatting. Unknown account and
// category ids are written as "#<id>".
type Options struct {
	Currency   string
	Locale     string
	Accounts   map[int64]string
	Categories map[int64]string
}

type Exporter struct {
	lister TransactionLister
	opts   Options
}

func New(lister TransactionLister, opts Options) *Exporter {
	return &Exporter{lister: lister, opts: opts}
}

// Export writes the family's live transactions dated between from and to
// (inclusive, zero meaning unbounded) and returns how many were written.
func (e *Exporter) Export(ctx context.Context, w io.Writer, familyID int64, from, to core.Date) (int, error) {
	txs, err := e.lister.ListFamilyTransactions(ctx, familyID, services.TransactionFilter{
		From:  from,
		To:    to,
		Limit: MaxRows,
	})
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}
	if err := Write(w, txs, e.opts); err != nil {
		return 0, err
	}
	return len(txs), nil
}

// Write renders txs, oldest first, followed by a net total row.
func Write(w io.Writer, txs []core.Transaction, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	total := decimal.Zero
	for i := len(txs) - 1; i >= 0; i-- {
		tx := txs[i]
		signed := decimal.New(tx.SignedCents(), -2)
		total = total.Add(signed)

		row, err := rowValues(tx, signed, opts)
		if err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, len(txs)-i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", len(txs)-i+1, err)
		}
	}

	totalRow := len(txs) + 2
	formatted, err := currency.Format(total, opts.Currency, opts.Locale)
	if err != nil {
		return fmt.Errorf("format total: %w", err)
	}
	cell, err := excelize.CoordinatesToCellName(1, totalRow)
	if err != nil {
		return err
	}
	totals := []any{"Total", nil, nil, nil, nil, total.InexactFloat64(), formatted}
	if err := f.SetSheetRow(sheetName, cell, &totals); err != nil {
		return fmt.Errorf("write total: %w", err)
	}
	if err := f.SetRowStyle(sheetName, totalRow, totalRow, bold); err != nil {
		return fmt.Errorf("style total: %w", err)
	}

	_ = f.SetColWidth(sheetName, "A", "A", 12)
	_ = f.SetColWidth(sheetName, "B", "C", 18)
	_ = f.SetColWidth(sheetName, "D", "D", 30)
	_ = f.SetColWidth(sheetName, "E", "G", 12)
	_ = f.SetColWidth(sheetName, "H", "H", 24)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func rowValues(tx core.Transaction, signed decimal.Decimal, opts Options) ([]any, error) {
	day, err := dates.FormatDate(tx.Date.String(), dates.Options{Style: dates.StyleNormal})
	if err != nil {
		return nil, fmt.Errorf("transaction %d: %w", tx.ID, err)
	}
	formatted, err := currency.Format(signed, opts.Currency, opts.Locale)
	if err != nil {
		return nil, fmt.Errorf("format amount: %w", err)
	}
	tags := make([]string, len(tx.Tags))
	for i, t := range tx.Tags {
		tags[i] = t.Name
	}
	category := ""
	if tx.CategoryID != 0 {
		category = label(opts.Categories, tx.CategoryID)
	}
	return []any{
		day,
		label(opts.Accounts, tx.AccountID),
		category,
		tx.Name,
		string(tx.Type),
		signed.InexactFloat64(),
		formatted,
		strings.Join(tags, ", "),
	}, nil
}

func label(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("#%d", id)
}
