package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies generator failures.
type ErrorType string

const (
	// ErrorTypeUnavailable covers endpoints that cannot be reached at all.
	ErrorTypeUnavailable ErrorType = "unavailable"
	// ErrorTypeRequestFailed covers requests the endpoint rejected or
	// failed to serve.
	ErrorTypeRequestFailed ErrorType = "request_failed"
	// ErrorTypeParseFailed covers responses that carried no usable payload.
	ErrorTypeParseFailed ErrorType = "parse_failed"
)

// Error is a classified generator error.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a classified generator error.
func NewError(errType ErrorType, message string, cause error) *Error {
	return &Error{Type: errType, Message: message, Cause: cause}
}

// ClassifyError categorizes a provider error. Connection-level failures
// become unavailable; everything else a request failure.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "no such host"),
		strings.Contains(lower, "timeout"),
		strings.Contains(lower, "deadline exceeded"):
		return NewError(ErrorTypeUnavailable, "generator unreachable", err)
	default:
		return NewError(ErrorTypeRequestFailed, "generation request failed", err)
	}
}

// TypeOf extracts the ErrorType from an error.
func TypeOf(err error) ErrorType {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Type
	}
	return ErrorTypeRequestFailed
}
