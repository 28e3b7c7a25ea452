package http

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"famfin/internal/core"
)

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return body
}

func TestActionResponse_OK(t *testing.T) {
	rr := httptest.NewRecorder()
	OK().With("restored", 2).Write(rr)

	if rr.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := decodeBody(t, rr)
	if body["ok"] != true {
		t.Errorf("ok = %v, want true", body["ok"])
	}
	if body["restored"] != float64(2) {
		t.Errorf("restored = %v, want 2", body["restored"])
	}
	if _, present := body["error"]; present {
		t.Error("successful result must not carry an error")
	}
}

func TestActionResponse_ReservedKeys(t *testing.T) {
	rr := httptest.NewRecorder()
	OK().With("ok", false).With("error", "nope").Write(rr)

	body := decodeBody(t, rr)
	if body["ok"] != true {
		t.Errorf("ok was overwritten: %v", body["ok"])
	}
	if _, present := body["error"]; present {
		t.Error("error was injected through With")
	}
}

func TestFail(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"unauthenticated", core.Unauthenticated(), http.StatusUnauthorized, "Authentication required."},
		{"no family", core.NoFamily("User must belong to a family."), http.StatusForbidden, "User must belong to a family."},
		{"not found", core.NotFound("Account not found or not accessible."), http.StatusNotFound, "Account not found or not accessible."},
		{"validation", core.Invalid("Invalid date."), http.StatusUnprocessableEntity, "Invalid date."},
		{"persistence", core.Failed("Failed to create account."), http.StatusInternalServerError, "Failed to create account."},
		{"raw error keeps detail private", errors.New("disk I/O error"), http.StatusInternalServerError, "Something failed."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Fail(tt.err, "Something failed.").Write(rr)

			if rr.Code != tt.status {
				t.Errorf("Status code = %d, want %d", rr.Code, tt.status)
			}
			body := decodeBody(t, rr)
			if body["ok"] != false {
				t.Errorf("ok = %v, want false", body["ok"])
			}
			if body["error"] != tt.message {
				t.Errorf("error = %v, want %q", body["error"], tt.message)
			}
		})
	}
}

func TestActionResponse_EncodeFailure(t *testing.T) {
	rr := httptest.NewRecorder()
	OK().With("bad", math.NaN()).Write(rr)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	body := decodeBody(t, rr)
	if body["ok"] != false || body["error"] != msgUnexpected {
		t.Errorf("unexpected body %v", body)
	}
}
