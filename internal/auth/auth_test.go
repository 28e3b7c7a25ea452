package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAuthenticator_RoundTrip(t *testing.T) {
	a := New("s3cret")

	token, err := a.Issue(42, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	caller, err := a.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if caller.UserID != 42 {
		t.Errorf("expected user 42, got %d", caller.UserID)
	}
}

func TestAuthenticator_Rejects(t *testing.T) {
	a := New("s3cret")
	good, err := a.Issue(7, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	expired := New("s3cret")
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	old, err := expired.Issue(7, time.Hour)
	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}

	other, err := New("different").Issue(7, time.Hour)
	if err != nil {
		t.Fatalf("issue other: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 7}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", old},
		{"wrong secret", other},
		{"unsigned", none},
		{"tampered", good + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Parse(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestAuthenticator_Issue_InvalidUser(t *testing.T) {
	if _, err := New("s3cret").Issue(0, time.Hour); err == nil {
		t.Error("expected error for user 0")
	}
}

func TestAuthenticator_FromRequest(t *testing.T) {
	a := New("s3cret")
	token, err := a.Issue(3, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tests := []struct {
		name    string
		header  string
		wantID  int64
		wantErr error
	}{
		{"bearer", "Bearer " + token, 3, nil},
		{"lowercase scheme", "bearer " + token, 3, nil},
		{"missing", "", 0, ErrMissingToken},
		{"basic auth", "Basic dXNlcjpwYXNz", 0, ErrMissingToken},
		{"empty token", "Bearer ", 0, ErrMissingToken},
		{"bad token", "Bearer abc", 0, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/actions/list_accounts", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			caller, err := a.FromRequest(r)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if caller.UserID != tt.wantID {
				t.Errorf("expected user %d, got %d", tt.wantID, caller.UserID)
			}
		})
	}
}
