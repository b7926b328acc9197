// Package apperrors defines the error taxonomy shared across services.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrGeneratorOffline = errors.New("text generator unavailable")
	ErrJobNotAcceptable = errors.New("job is not in an acceptable state")
	ErrQuarterNotFinal  = errors.New("quarter is not finalized")
)

// ValidationError reports caller-correctable input problems: disallowed
// transitions, timestamp ordering violations, missing finalization overrides.
type ValidationError struct {
	Message string
	Details []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Details, "; "))
}

// NewValidation creates a ValidationError with optional detail lines.
func NewValidation(message string, details ...string) *ValidationError {
	return &ValidationError{Message: message, Details: details}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
