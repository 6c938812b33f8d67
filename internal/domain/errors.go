package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error the workflow returns wraps exactly one of these.
var (
	ErrValidation    = errors.New("validation error")
	ErrAuthorization = errors.New("authorization error")
	ErrNotFound      = errors.New("not found")
	ErrInvalidState  = errors.New("invalid state")
	ErrInternal      = errors.New("internal error")
)

// kindError is a sentinel with a human readable message that matches its kind via errors.Is.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	// Authorization errors
	ErrUnauthenticated  = newKindError(ErrAuthorization, "authentication required")
	ErrInsufficientRole = newKindError(ErrAuthorization, "insufficient role for this operation")
	ErrNotOwner         = newKindError(ErrAuthorization, "access denied")
	ErrUnknownPrincipal = newKindError(ErrAuthorization, "principal is not a known user")
	ErrInvalidToken     = newKindError(ErrAuthorization, "invalid token")
	ErrExpiredToken     = newKindError(ErrAuthorization, "token has expired")

	// Expense errors
	ErrExpenseNotFound   = newKindError(ErrNotFound, "expense not found")
	ErrUserNotFound      = newKindError(ErrNotFound, "user not found")
	ErrExpenseNotPending = newKindError(ErrInvalidState, "only pending expenses can be reviewed")
	ErrInvalidTransition = newKindError(ErrInvalidState, "invalid status transition")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// IsDomainError reports whether err is one of the expected workflow outcomes.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrAuthorization) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidState)
}

// Internal wraps an unexpected failure so callers can tell it apart from domain errors.
func Internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}
