// Package errors provides structured error types for the CartFlow pipeline.
// All errors include a category, code, message, and recoverable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by pipeline component.
type ErrorCategory string

const (
	ErrCategoryConnection ErrorCategory = "CONNECTION"
	ErrCategoryBatch      ErrorCategory = "BATCH"
	ErrCategoryEvent      ErrorCategory = "EVENT"
	ErrCategoryStore      ErrorCategory = "STORE"
	ErrCategoryConfig     ErrorCategory = "CONFIG"
	ErrCategoryIO         ErrorCategory = "IO"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Connection codes
	CodeOpenFailed = "OPEN_FAILED"
	CodePingFailed = "PING_FAILED"

	// Batch codes
	CodeReadFailed     = "READ_FAILED"
	CodeMalformedBatch = "MALFORMED_BATCH"

	// Event codes
	CodeMalformedEvent = "MALFORMED_EVENT"
	CodeUnknownType    = "UNKNOWN_TYPE"
	CodeBadTimestamp   = "BAD_TIMESTAMP"

	// Store codes
	CodeWriteFailed  = "WRITE_FAILED"
	CodeBeginFailed  = "BEGIN_FAILED"
	CodeCommitFailed = "COMMIT_FAILED"

	// Config codes
	CodeInvalidConfig = "INVALID_CONFIG"

	// IO codes
	CodeWriteFileFailed = "WRITE_FILE_FAILED"
	CodeListFailed      = "LIST_FAILED"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// PipelineError is the structured error type used throughout the pipeline.
// Recoverable errors are counted and the load moves to the next record;
// everything else aborts the file or the whole run.
type PipelineError struct {
	Category    ErrorCategory
	Code        string
	Message     string
	Details     map[string]interface{}
	Cause       error
	Recoverable bool
}

// Error returns a formatted error string.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *PipelineError) Is(target error) bool {
	var t *PipelineError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new PipelineError.
func New(category ErrorCategory, code, message string) *PipelineError {
	return &PipelineError{
		Category:    category,
		Code:        code,
		Message:     message,
		Recoverable: isRecoverable(category, code),
	}
}

// Wrap creates a new PipelineError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *PipelineError {
	return &PipelineError{
		Category:    category,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: isRecoverable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *PipelineError) WithDetails(details map[string]interface{}) *PipelineError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRecoverable checks whether an error (or its chain) is recoverable,
// meaning the failure is scoped to a single record.
func IsRecoverable(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Recoverable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a PipelineError.
func GetCategory(err error) ErrorCategory {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a PipelineError.
func GetCode(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// isRecoverable determines if a failure is scoped to a single record.
// Malformed events and rejected inserts are counted and skipped; connection,
// batch, and commit failures take down the file or the run.
func isRecoverable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryEvent:
		return true
	case category == ErrCategoryStore && code == CodeWriteFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewConnectionError(message string, cause error) *PipelineError {
	return Wrap(ErrCategoryConnection, CodeOpenFailed, message, cause)
}

func NewMalformedBatchError(message string, cause error) *PipelineError {
	return Wrap(ErrCategoryBatch, CodeMalformedBatch, message, cause)
}

func NewMalformedEventError(code, message string, cause error) *PipelineError {
	return Wrap(ErrCategoryEvent, code, message, cause)
}

func NewStoreWriteError(message string, cause error) *PipelineError {
	return Wrap(ErrCategoryStore, CodeWriteFailed, message, cause)
}

func NewCommitError(message string, cause error) *PipelineError {
	return Wrap(ErrCategoryStore, CodeCommitFailed, message, cause)
}

func NewConfigError(message string) *PipelineError {
	return New(ErrCategoryConfig, CodeInvalidConfig, message)
}

func NewInternalError(message string, cause error) *PipelineError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
