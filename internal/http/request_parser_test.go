package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"famfin/internal/core"
)

func newParser(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/actions/test", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return p
}

func TestRequestBodyParser_JSON(t *testing.T) {
	p := newParser(t, "application/json", `{"id": "123", "name": " test ", "amount": 42.5, "tags": ["food", "", "home"], "deleted": true}`)

	tests := map[string]string{
		"id":      "123",
		"name":    "test",
		"amount":  "42.5",
		"tags":    "food,home",
		"deleted": "true",
		"missing": "",
	}
	for key, want := range tests {
		if got := p.Get(key); got != want {
			t.Errorf("Get(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	p := newParser(t, "application/x-www-form-urlencoded", "id=456&name=form+test&tags=a&tags=b")

	if id := p.Get("id"); id != "456" {
		t.Errorf("Get('id') = %q, want '456'", id)
	}
	if name := p.Get("name"); name != "form test" {
		t.Errorf("Get('name') = %q, want 'form test'", name)
	}
	if tags := p.Get("tags"); tags != "a,b" {
		t.Errorf("Get('tags') = %q, want 'a,b'", tags)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	p := newParser(t, "", "")
	if val := p.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/actions/test", strings.NewReader(`{"id":`))
	req.Header.Set("Content-Type", "application/json")
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err == nil {
		t.Fatal("expected parse error")
	}
	if err := p.Parse(); err == nil {
		t.Error("repeated Parse should keep returning the error")
	}
}

func TestRequestBodyParser_Typed(t *testing.T) {
	p := newParser(t, "application/x-www-form-urlencoded",
		"id=7&bad=-3&from=2025-03-01&to=2025-02-30&limit=20&neg=-1&deleted=1&off=no")

	if id, err := p.ID("id"); err != nil || id != 7 {
		t.Errorf("ID(id) = %d, %v", id, err)
	}
	for _, key := range []string{"bad", "missing"} {
		if _, err := p.ID(key); !errors.Is(err, core.ErrValidation) {
			t.Errorf("ID(%q) err = %v, want validation", key, err)
		}
	}

	if d, err := p.Date("from"); err != nil || !d.Equal(core.NewDate(2025, 3, 1)) {
		t.Errorf("Date(from) = %v, %v", d, err)
	}
	if _, err := p.Date("to"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("Date(to) err = %v, want validation", err)
	}
	if d, err := p.Date("missing"); err != nil || !d.IsZero() {
		t.Errorf("Date(missing) = %v, %v", d, err)
	}

	if n, err := p.Int("limit"); err != nil || n != 20 {
		t.Errorf("Int(limit) = %d, %v", n, err)
	}
	if _, err := p.Int("neg"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("Int(neg) err = %v, want validation", err)
	}

	if !p.Bool("deleted") || p.Bool("off") || p.Bool("missing") {
		t.Error("unexpected Bool results")
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain  ", "plain"},
		{"null\x00byte", "nullbyte"},
		{"keep\ttab", "keep\ttab"},
		{"bell\x07", "bell"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
