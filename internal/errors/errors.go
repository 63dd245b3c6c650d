// Package errors provides the structured error kinds shared by the sampling
// engine, the serializers and the RN tree fetcher.
//
// Every failure in the core is a value: callers inspect the code with
// CodeOf or Is and decide whether to absorb, retry, or fall back.
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodePlatformQuery,
//	    "hit test failed",
//	    cause,
//	    map[string]any{"x": pt.X, "y": pt.Y},
//	)
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies a failure.
type ErrorCode string

const (
	// ErrCodePointOutOfBounds indicates a probe point outside the application frame.
	ErrCodePointOutOfBounds ErrorCode = "POINT_OUT_OF_BOUNDS"
	// ErrCodePlatformQuery indicates a hit-test, snapshot or attribute read errored or timed out.
	ErrCodePlatformQuery ErrorCode = "PLATFORM_QUERY_FAILED"
	// ErrCodeElementDetached indicates the element vanished before its subtree was read.
	ErrCodeElementDetached ErrorCode = "ELEMENT_DETACHED"
	// ErrCodeSerialization indicates an unresolved attribute or a malformed input tree.
	ErrCodeSerialization ErrorCode = "SERIALIZATION_FAILED"
	// ErrCodeRemoteFetch indicates a network or parse failure talking to the RN server.
	ErrCodeRemoteFetch ErrorCode = "REMOTE_FETCH_FAILED"
	// ErrCodeInvalidConfig indicates rejected configuration values.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// StructuredError carries a code, a human-readable message, the underlying
// cause and optional context for logs.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// NewWithContext creates a new StructuredError with context information.
func NewWithContext(code ErrorCode, message string, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Context: context,
	}
}

// Wrap wraps an existing error with a code and message.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithContext wraps an error with additional context information.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: context,
	}
}

// CodeOf returns the code of the outermost StructuredError in err's chain,
// or "" when there is none.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
