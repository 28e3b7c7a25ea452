// Package http exposes the family finance actions over HTTP.
//
// This file implements the Builder Pattern for action results. Every action
// answers with a JSON object carrying "ok", an "error" message on failure and
// any payload keys the action adds.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"famfin/internal/core"
)

const msgUnexpected = "Unexpected error."

// ActionResponse provides a fluent API for building action results.
type ActionResponse struct {
	statusCode int
	fields     map[string]any
}

// OK starts a successful result with a 200 status.
func OK() *ActionResponse {
	return &ActionResponse{
		statusCode: http.StatusOK,
		fields:     map[string]any{"ok": true},
	}
}

// Fail starts a failed result. The status follows the error kind and the
// message is the caller-facing one carried by err, or fallback.
func Fail(err error, fallback string) *ActionResponse {
	return &ActionResponse{
		statusCode: StatusFor(err),
		fields: map[string]any{
			"ok":    false,
			"error": core.Message(err, fallback),
		},
	}
}

// StatusFor maps an action error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, core.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNoFamily):
		return http.StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// With adds a payload key. "ok" and "error" are reserved.
func (b *ActionResponse) With(key string, value any) *ActionResponse {
	if key == "ok" || key == "error" {
		return b
	}
	b.fields[key] = value
	return b
}

func (b *ActionResponse) Status(code int) *ActionResponse {
	b.statusCode = code
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ActionResponse) Write(w http.ResponseWriter) {
	body, err := json.Marshal(b.fields)
	if err != nil {
		slog.Error("Failed to encode action response", "error", err)
		body, _ = json.Marshal(map[string]any{"ok": false, "error": msgUnexpected})
		b.statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(body)
}
