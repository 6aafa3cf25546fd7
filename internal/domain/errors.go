// Package domain contains the core entities of the IAM system: users,
// groups, policies, sessions, and the aliasing/identifier rules that bind
// them together. These types have no knowledge of storage, HTTP, or
// transport concerns.
package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map these to status codes; they never
// carry enough detail on their own to distinguish "doesn't exist" from
// "not allowed to see it" — that distinction is made by AuthenticationError
// and NotAuthorized, which are deliberately uninformative.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotAuthorized = errors.New("not authorized")
	ErrInternal      = errors.New("internal error")
)

// NotFoundError names the entity kind and identifier that could not be
// resolved. It wraps ErrNotFound so callers can keep using errors.Is.
type NotFoundError struct {
	Kind string // "user", "group", "policy", "session", "membership", "attachment"
	Ident string
}

func (e *NotFoundError) Error() string {
	if e.Ident == "" {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Ident)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound builds a NotFoundError for the given entity kind.
func NewNotFound(kind, ident string) error {
	return &NotFoundError{Kind: kind, Ident: ident}
}

// AuthenticationReason enumerates why authentication failed.
// The HTTP layer never surfaces the reason in a response body — only in
// logs — but handlers need it to pick the right internal branch and for
// tests asserting behavior.
type AuthenticationReason string

const (
	ReasonInvalidHeaders  AuthenticationReason = "invalid_headers"
	ReasonInvalidHost     AuthenticationReason = "invalid_host"
	ReasonInvalidSignature AuthenticationReason = "invalid_signature"
	ReasonUserNotFound    AuthenticationReason = "user_not_found"
)

// AuthenticationError is returned by the authentication handler. Its
// Error() string is intentionally generic; callers that need to branch on
// the reason use errors.As and inspect Reason directly, never displaying
// it to the client.
type AuthenticationError struct {
	Reason AuthenticationReason
}

func (e *AuthenticationError) Error() string {
	return "authentication failed"
}

// NewAuthenticationError builds an AuthenticationError for the given reason.
func NewAuthenticationError(reason AuthenticationReason) error {
	return &AuthenticationError{Reason: reason}
}

// ValidationError represents a single validation failure on one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation failures.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%d validation errors", len(e))
}
