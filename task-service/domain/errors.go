package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both missing items and items owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when no caller identity is available.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTransaction wraps failures of the atomic unit (commit, conflicts, lost connections).
	ErrTransaction = errors.New("transaction failed")
)

// ValidationError reports a malformed request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
