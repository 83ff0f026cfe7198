// Package errors provides a lightweight structured error type (LithoError)
// for category-based classification across the prerender pipeline and CLI.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of a litho error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig ErrorCategory = "config"
	CategoryUsage  ErrorCategory = "usage"

	// Pipeline phase errors
	CategoryHook    ErrorCategory = "hook"
	CategoryRouting ErrorCategory = "routing"
	CategoryRender  ErrorCategory = "render"
	CategoryOutput  ErrorCategory = "output"

	// Runtime and infrastructure errors
	CategoryHistory  ErrorCategory = "history"
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the run
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// LithoError is a structured error with category, severity, and context
type LithoError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for LithoError
type ContextFields map[string]any

// Error implements the error interface
func (e *LithoError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *LithoError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *LithoError) WithContext(key string, value any) *LithoError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new LithoError
func New(category ErrorCategory, severity ErrorSeverity, message string) *LithoError {
	return &LithoError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Newf creates a new LithoError with a formatted message
func Newf(category ErrorCategory, severity ErrorSeverity, format string, args ...any) *LithoError {
	return New(category, severity, fmt.Sprintf(format, args...))
}

// Wrap creates a new LithoError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *LithoError {
	return &LithoError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// NewUsageError creates a fatal usage error: the caller violated a documented
// contract (malformed hook return, duplicate global hooks, contradictory
// exclusion, deprecated option, and so on). Usage errors abort the run.
func NewUsageError(format string, args ...any) *LithoError {
	return Newf(CategoryUsage, SeverityFatal, format, args...)
}

// NewHookFault wraps an error raised inside a user-supplied hook. The source
// file is recorded for diagnostics; hook faults abort the run.
func NewHookFault(err error, sourceFile string) *LithoError {
	e := Wrap(err, CategoryHook, SeverityFatal, "prerender hook failed")
	return e.WithContext("sourceFile", sourceFile)
}

// IsUsage reports whether err is (or wraps) a fatal usage error.
func IsUsage(err error) bool {
	var le *LithoError
	if errors.As(err, &le) {
		return le.Category == CategoryUsage && le.Severity == SeverityFatal
	}
	return false
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	var le *LithoError
	if errors.As(err, &le) {
		return le.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal
// if it is not a LithoError
func GetCategory(err error) ErrorCategory {
	var le *LithoError
	if errors.As(err, &le) {
		return le.Category
	}
	return CategoryInternal
}

// IsFatal reports whether err carries fatal severity.
func IsFatal(err error) bool {
	var le *LithoError
	if errors.As(err, &le) {
		return le.Severity == SeverityFatal
	}
	return false
}
