// Package errors provides structured error types for the sortbound
// engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the search engine
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "N=%d out of range", n)
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeLayerIO, origErr, "failed to read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes matching spec §7's error kinds.
const (
	// ErrCodeInvalidConfig covers bad N/C/flag combinations, reported
	// once at parse time ("Configuration errors").
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// ErrCodeCapacityOverrun covers a shard map or record store that
	// could not grow to accommodate new entries ("Capacity overrun...
	// fail fatally").
	ErrCodeCapacityOverrun Code = "CAPACITY_OVERRUN"

	// ErrCodeLinExtOverflow marks a linear-extension count that
	// overflowed the fast path. pkg/linext recovers from this
	// internally by rerunning the wide path; the code exists for
	// diagnostics when even the wide path cannot make progress
	// ("recovered locally by wide-path rerun").
	ErrCodeLinExtOverflow Code = "LINEXT_OVERFLOW"

	// ErrCodeLayerIO covers a persisted layer file that could not be
	// read or written; treated as "no reusable layer" rather than
	// fatal ("I/O errors on layer files").
	ErrCodeLayerIO Code = "LAYER_IO"

	// ErrCodeInternal covers invariant violations that should be
	// unreachable given a well-formed configuration.
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// ExitCode maps an error's code to a process exit code (spec §6: exit 0
// including NOT-SORTABLE/inconclusive verdicts, nonzero on invalid
// configuration).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch GetCode(err) {
	case ErrCodeInvalidConfig:
		return 2
	case ErrCodeCapacityOverrun:
		return 3
	case ErrCodeLayerIO:
		return 4
	case ErrCodeInternal:
		return 70
	default:
		return 1
	}
}
