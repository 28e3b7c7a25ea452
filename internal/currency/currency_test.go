package currency

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		code   string
		locale string
		want   string
	}{
		{"defaults", "12.5", "", "", "12,50\u00a0€"},
		{"rounds to cents", "3.456", "EUR", "es-ES", "3,46\u00a0€"},
		{"negative suffix", "-7", "EUR", "es-ES", "-7,00\u00a0€"},
		{"english prefix", "1234.5", "USD", "en-US", "$1,234.50"},
		{"negative prefix", "-0.5", "USD", "en-US", "-$0.50"},
		{"pound", "3", "GBP", "en-GB", "£3.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(decimal.RequireFromString(tt.amount), tt.code, tt.locale)
			if err != nil {
				t.Fatalf("Format error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Format(%s, %q, %q) = %q, want %q", tt.amount, tt.code, tt.locale, got, tt.want)
			}
		})
	}
}

func TestFormat_Errors(t *testing.T) {
	if _, err := Format(decimal.NewFromInt(1), "XX", "es-ES"); err == nil {
		t.Error("expected error for bad currency code")
	}
	if _, err := Format(decimal.NewFromInt(1), "EUR", "not a locale!"); err == nil {
		t.Error("expected error for bad locale")
	}
}
