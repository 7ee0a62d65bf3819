// Package errors provides structured error types for envmanifest.
//
// Every fatal condition the resolution, merge, matrix and deploy stages can
// raise carries a machine-readable [Code], so callers can tell an ambiguous
// source layout from an unsupported special package without string matching.
//
// # Error Codes
//
//   - AMBIGUOUS_AUTHORITY: two sources claim the same distribution
//   - NOT_IMPLEMENTED: a special package the matrix engine cannot handle
//   - UNSATISFIABLE: the solver found no consistent selection
//   - MISSING_ARTIFACT: a manifest entry has no built distribution
//   - INVALID_*: input validation failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeAmbiguousAuthority, "%s provided by %s and %s", dist, a, b)
//	if errors.Is(err, errors.ErrCodeAmbiguousAuthority) {
//	    // abort the environment
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeInvalidSpec    Code = "INVALID_SPEC"
	ErrCodeInvalidRecipe  Code = "INVALID_RECIPE"
	ErrCodeInvalidVersion Code = "INVALID_VERSION"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeMissingArtifact Code = "MISSING_ARTIFACT"

	// Resolution errors
	ErrCodeAmbiguousAuthority Code = "AMBIGUOUS_AUTHORITY"
	ErrCodeUnsatisfiable      Code = "UNSATISFIABLE"
	ErrCodeNotImplemented     Code = "NOT_IMPLEMENTED"

	// Build errors
	ErrCodeBuildFailed Code = "BUILD_FAILED"

	// Internal errors
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

// Recoverable reports whether err may be dropped by a stage that works
// case-by-case. Only solver rejections qualify; everything else aborts the
// environment.
func Recoverable(err error) bool {
	return err != nil && GetCode(err) == ErrCodeUnsatisfiable
}
