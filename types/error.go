package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the coordination layer.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a lookup for an unknown service, order, or
	// knowledge entry id.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidArgument indicates a request that is malformed before any
	// write occurs, such as a message without a recipient.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeStoreClosed indicates an operation against a closed store.
	ErrCodeStoreClosed ErrorCode = "STORE_CLOSED"
	// ErrCodeInternal indicates an unexpected failure in the layer itself.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Error is a structured error with a code, message, and optional cause.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates a new Error with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// GetErrorCode extracts the error code from an error, unwrapping as needed.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound reports whether err carries the NOT_FOUND code.
func IsNotFound(err error) bool {
	return GetErrorCode(err) == ErrCodeNotFound
}

// IsInvalidArgument reports whether err carries the INVALID_ARGUMENT code.
func IsInvalidArgument(err error) bool {
	return GetErrorCode(err) == ErrCodeInvalidArgument
}
