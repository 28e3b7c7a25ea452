package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false}, // rounds to zero
		{"1e3", 0, false},
		{"NaN", 0, false},
		{"Infinity", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error, got %d", tc.in, got.Cents)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	if s := (Money{Cents: -1250}).String(); s != "-12.50" {
		t.Fatalf("String() = %q", s)
	}
	b, err := json.Marshal(Money{Cents: 5})
	if err != nil || string(b) != `"0.05"` {
		t.Fatalf("marshal = %s, %v", b, err)
	}
}
