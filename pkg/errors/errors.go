// Package errors provides standardized error types for rsbench runs.
package errors

import (
	"errors"
	"fmt"
)

// Error codes reported by a benchmark run.
const (
	CodeInvalidConfig    = "INVALID_CONFIG"
	CodeConnectionFailed = "CONNECTION_FAILED"
	CodeStatementFailed  = "STATEMENT_FAILED"
	CodeStagingFailed    = "STAGING_FAILED"
	CodeCanceled         = "CANCELED"
	CodeInternal         = "INTERNAL_ERROR"
)

// BenchError represents a benchmark error with code, message, and optional details.
type BenchError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface.
func (e *BenchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *BenchError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *BenchError) Is(target error) bool {
	t, ok := target.(*BenchError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail adds a single detail to the error.
func (e *BenchError) WithDetail(key string, value interface{}) *BenchError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Common errors
var (
	ErrInvalidConfig    = &BenchError{Code: CodeInvalidConfig, Message: "invalid configuration"}
	ErrMissingCopyArgs  = &BenchError{Code: CodeInvalidConfig, Message: "copy-s3-path and copy-iam-role are required for the copy scenario"}
	ErrConnectionFailed = &BenchError{Code: CodeConnectionFailed, Message: "database connection failed"}
	ErrStatementFailed  = &BenchError{Code: CodeStatementFailed, Message: "statement execution failed"}
	ErrStagingFailed    = &BenchError{Code: CodeStagingFailed, Message: "staging file upload failed"}
)

// New creates a new BenchError with the given code and message.
func New(code, message string) *BenchError {
	return &BenchError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with a BenchError.
func Wrap(err error, code, message string) *BenchError {
	if err == nil {
		return nil
	}
	return &BenchError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code, format string, args ...interface{}) *BenchError {
	if err == nil {
		return nil
	}
	return &BenchError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// IsInvalidConfig checks if an error is a configuration error.
func IsInvalidConfig(err error) bool {
	return GetCode(err) == CodeInvalidConfig
}

// IsConnectionFailed checks if an error is a connection error.
func IsConnectionFailed(err error) bool {
	return GetCode(err) == CodeConnectionFailed
}

// GetCode extracts the error code from an error.
func GetCode(err error) string {
	var benchErr *BenchError
	if errors.As(err, &benchErr) {
		return benchErr.Code
	}
	return CodeInternal
}

// GetMessage extracts the error message from an error.
func GetMessage(err error) string {
	var benchErr *BenchError
	if errors.As(err, &benchErr) {
		return benchErr.Message
	}
	return err.Error()
}

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
