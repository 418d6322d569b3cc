package livechat

import (
	"errors"
	"fmt"
)

// ErrorCode represents a categorized error type.
type ErrorCode int

const (
	ErrorUnknown ErrorCode = iota

	// Transport errors
	ErrorConnection
	ErrorDisconnected
	ErrorTimeout
	ErrorReconnectExhausted

	// Frame errors
	ErrorSerialization
	ErrorInvalidFrame

	// Client-side errors
	ErrorInvalidConfig
	ErrorHistory
	ErrorClosed
)

// String returns the string representation of an ErrorCode.
func (e ErrorCode) String() string {
	switch e {
	case ErrorUnknown:
		return "unknown"
	case ErrorConnection:
		return "connection_error"
	case ErrorDisconnected:
		return "disconnected"
	case ErrorTimeout:
		return "timeout"
	case ErrorReconnectExhausted:
		return "reconnect_exhausted"
	case ErrorSerialization:
		return "serialization_error"
	case ErrorInvalidFrame:
		return "invalid_frame"
	case ErrorInvalidConfig:
		return "invalid_config"
	case ErrorHistory:
		return "history_error"
	case ErrorClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown_code_%d", e)
	}
}

// Error is a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s (wrapped: %v)", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface for error comparison.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with an Error.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Wrapped: err,
	}
}

// CodeOf returns the ErrorCode carried by err, or ErrorUnknown.
func CodeOf(err error) ErrorCode {
	var le *Error
	if !errors.As(err, &le) {
		return ErrorUnknown
	}
	return le.Code
}

// IsConnectionError checks if an error is a connection-related error.
func IsConnectionError(err error) bool {
	switch CodeOf(err) {
	case ErrorConnection, ErrorDisconnected, ErrorTimeout, ErrorReconnectExhausted:
		return true
	default:
		return false
	}
}

// IsFrameError checks if an error came from decoding an inbound frame.
func IsFrameError(err error) bool {
	code := CodeOf(err)
	return code == ErrorSerialization || code == ErrorInvalidFrame
}
