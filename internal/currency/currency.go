// Package currency renders monetary amounts for display.
package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	DefaultCode   = "EUR"
	DefaultLocale = "es-ES"
)

var symbols = map[currency.Unit]string{
	currency.EUR: "€",
	currency.USD: "$",
	currency.GBP: "£",
	currency.JPY: "¥",
	currency.CHF: "CHF",
}

// Languages that write the symbol after the number, separated by a
// no-break space.
var suffixLanguages = map[string]bool{
	"es": true, "fr": true, "de": true, "it": true, "pt": true, "ca": true,
	"fi": true, "sv": true, "da": true, "nb": true, "pl": true, "cs": true,
	"sk": true, "hu": true, "ro": true, "el": true,
}

// Format renders amount in the given ISO currency code and BCP 47 locale
// with exactly two fraction digits. Empty code or locale fall back to
// EUR and es-ES.
//
//	Format(decimal.RequireFromString("12.5"), "", "")        // "12,50 €"
//	Format(decimal.RequireFromString("1234.5"), "USD", "en-US") // "$1,234.50"
func Format(amount decimal.Decimal, code, locale string) (string, error) {
	if code == "" {
		code = DefaultCode
	}
	if locale == "" {
		locale = DefaultLocale
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("unknown currency %q: %w", code, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "", fmt.Errorf("unknown locale %q: %w", locale, err)
	}

	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}

	p := message.NewPrinter(tag)
	digits := p.Sprint(number.Decimal(rounded.InexactFloat64(),
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))

	symbol, ok := symbols[unit]
	if !ok {
		symbol = unit.String()
	}
	base, _ := tag.Base()
	if suffixLanguages[base.String()] {
		return sign + digits + "\u00a0" + symbol, nil
	}
	return sign + symbol + digits, nil
}
