package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by id-based lookups on missing rows.
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken is returned when registration hits the users.username
	// unique constraint.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrUserNotFound and ErrInvalidPassword are distinguished inside the core
	// so callers can log precisely. The HTTP layer must surface both as the
	// same generic message to avoid account enumeration.
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidInput covers empty username/password on registration.
	ErrInvalidInput = errors.New("username and password are required")

	// ErrSetupDone is returned when first-run setup is attempted again after
	// an account already exists.
	ErrSetupDone = errors.New("setup already completed")
)

// ValidationError reports a missing or out-of-range field on a record create.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
