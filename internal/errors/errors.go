package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// LoomError is the structured error type for tagindex.
// It provides context for error handling, logging, and presentation.
type LoomError struct {
	// Code is the unique error code (e.g., "ERR_301_STORE_OPEN").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Storage, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *LoomError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *LoomError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *LoomError) Is(target error) bool {
	if t, ok := target.(*LoomError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *LoomError) WithDetail(key, value string) *LoomError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new LoomError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *LoomError {
	return &LoomError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a LoomError from an existing error.
// The error's message becomes the LoomError message.
func Wrap(code string, err error) *LoomError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *LoomError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// StorageError creates a database-related error.
func StorageError(message string, cause error) *LoomError {
	return New(ErrCodeStoreOpen, message, cause)
}

// ConsistencyError creates a fatal store-consistency error.
// These abort the surrounding sync transaction.
func ConsistencyError(message string, cause error) *LoomError {
	return New(ErrCodeConsistency, message, cause)
}

// ValidationError creates an input validation error.
func ValidationError(message string, cause error) *LoomError {
	return New(ErrCodeInvalidInput, message, cause)
}

// Cancelled creates a cancellation marker error.
func Cancelled(cause error) *LoomError {
	return New(ErrCodeCancelled, "operation cancelled", cause)
}

// FromContext maps a context error to a cancellation LoomError.
// Returns nil when the context carries no error.
func FromContext(ctx context.Context) *LoomError {
	if err := ctx.Err(); err != nil {
		return Cancelled(err)
	}
	return nil
}

// IsCancelled reports whether err represents a cancellation rather than
// a failure. It recognizes both LoomError cancellations and bare
// context errors anywhere in the chain.
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	var le *LoomError
	if stderrors.As(err, &le) && le.Category == CategoryCancelled {
		return true
	}
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var le *LoomError
	if stderrors.As(err, &le) {
		return le.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the current sync pass.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var le *LoomError
	if stderrors.As(err, &le) {
		return le.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a LoomError.
// Returns empty string if not a LoomError.
func GetCode(err error) string {
	var le *LoomError
	if stderrors.As(err, &le) {
		return le.Code
	}
	return ""
}

// GetCategory extracts the category from a LoomError.
// Returns empty string if not a LoomError.
func GetCategory(err error) Category {
	var le *LoomError
	if stderrors.As(err, &le) {
		return le.Category
	}
	return ""
}
