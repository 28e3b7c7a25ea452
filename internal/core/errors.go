package core

import (
	"errors"
	"fmt"
)

// Error kinds returned by the mutation services. Match them with errors.Is.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNoFamily        = errors.New("no family")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrPersistence     = errors.New("persistence failure")
)

// ActionError carries a kind sentinel and the human readable message an
// action returns to its caller. Internal detail never goes into Message.
type ActionError struct {
	Kind    error
	Message string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ActionError) Unwrap() error {
	return e.Kind
}

func Unauthenticated() error {
	return &ActionError{Kind: ErrUnauthenticated, Message: "Authentication required."}
}

func NoFamily(message string) error {
	return &ActionError{Kind: ErrNoFamily, Message: message}
}

func NotFound(message string) error {
	return &ActionError{Kind: ErrNotFound, Message: message}
}

func Invalid(message string) error {
	return &ActionError{Kind: ErrValidation, Message: message}
}

func Failed(message string) error {
	return &ActionError{Kind: ErrPersistence, Message: message}
}

// Message extracts the caller-facing message from err. Errors that are not
// ActionErrors are reported with fallback so their detail stays server-side.
func Message(err error, fallback string) string {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return fallback
}
