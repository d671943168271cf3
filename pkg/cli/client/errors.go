package client

import (
	"errors"
	"fmt"
)

// ErrorType categorizes failures reported by the backend client
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeSubmission      ErrorType = "submission"
	ErrorTypeFetch           ErrorType = "fetch"
	ErrorTypeStreamTransport ErrorType = "stream_transport"
)

// ErrEmptyBatch is returned before any request when there is nothing to submit
var ErrEmptyBatch = &Error{Type: ErrorTypeValidation, Message: "No valid URLs to submit."}

// Error represents a structured failure talking to the backend
type Error struct {
	Type       ErrorType
	StatusCode int    // 0 when no response was received
	Message    string // server-supplied detail, if any
	Cause      error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.UserMessage()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying error for error unwrapping
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors of the same type and message, so errors.Is works with
// ErrEmptyBatch
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// UserMessage returns the best human-readable description: the server detail
// when present, otherwise a generic message for the error type.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Type {
	case ErrorTypeSubmission:
		return "Failed to submit URLs. Please try again."
	case ErrorTypeFetch:
		return "Failed to fetch the newsletter result."
	case ErrorTypeStreamTransport:
		return "Lost connection to the status stream."
	case ErrorTypeValidation:
		return "Invalid request."
	default:
		return "Unexpected error."
	}
}

// IsType reports whether err is a client error of the given type
func IsType(err error, t ErrorType) bool {
	var clientErr *Error
	return errors.As(err, &clientErr) && clientErr.Type == t
}

func newValidationError(message string, cause error) *Error {
	return &Error{Type: ErrorTypeValidation, Message: message, Cause: cause}
}

func newTransportError(cause error) *Error {
	return &Error{Type: ErrorTypeStreamTransport, Cause: cause}
}
