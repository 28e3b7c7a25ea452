// Package auth issues and verifies the bearer tokens that identify the
// caller of an action.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"famfin/internal/core"
)

const DefaultTTL = 24 * time.Hour

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the JWT payload. UserID is the only identity a token carries;
// the family is always resolved from the database.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies HS256 tokens with a shared secret.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

func New(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for userID valid for ttl (DefaultTTL when ttl <= 0).
func (a *Authenticator) Issue(userID int64, ttl time.Duration) (string, error) {
	if userID <= 0 {
		return "", errors.New("user id must be positive")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := a.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse verifies token and returns the caller it identifies.
func (a *Authenticator) Parse(token string) (core.Caller, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return core.Caller{}, errors.Join(ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID <= 0 {
		return core.Caller{}, ErrInvalidToken
	}
	return core.Caller{UserID: claims.UserID}, nil
}

// FromRequest reads the Authorization: Bearer header.
func (a *Authenticator) FromRequest(r *http.Request) (core.Caller, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return core.Caller{}, ErrMissingToken
	}
	return a.Parse(strings.TrimSpace(token))
}
