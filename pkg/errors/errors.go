// Package errors provides structured error types for Quire.
// Errors include context, causes, and actionable suggestions.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Category classifies errors for consistent handling and display.
type Category string

const (
	CategoryConfig     Category = "config"     // Configuration loading/parsing errors
	CategoryValidation Category = "validation" // Rejected subject, grade or request body
	CategoryGeneration Category = "generation" // The crew failed or produced nothing
	CategoryResource   Category = "resource"   // Fonts and other startup resources
	CategoryRender     Category = "render"     // Layout or PDF encoding errors
	CategoryBackend    Category = "backend"    // LLM backend communication errors
	CategoryAgent      Category = "agent"      // Agent definition/runtime errors
	CategoryNetwork    Category = "network"    // Network/connectivity errors
	CategoryIO         Category = "io"         // File/IO errors
	CategoryInternal   Category = "internal"   // Internal/unexpected errors
)

// QuireError is a structured error with context and suggestions.
type QuireError struct {
	// Code is a unique identifier for this error type (e.g., "CONFIG_NOT_FOUND")
	Code string

	// Category classifies this error for consistent handling
	Category Category

	// Message is the primary error message describing what went wrong
	Message string

	// Context provides additional key-value details about the error
	Context map[string]string

	// Cause is the underlying error that triggered this error
	Cause error

	// Suggestions are actionable remediation steps for the user
	Suggestions []string
}

// Error implements the error interface.
func (e *QuireError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain inspection.
func (e *QuireError) Unwrap() error {
	return e.Cause
}

// Is reports whether e matches target for errors.Is() checks.
// Two QuireErrors match if they have the same Code.
func (e *QuireError) Is(target error) bool {
	if t, ok := target.(*QuireError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new QuireError with the given code, category, and message.
func New(code string, category Category, message string) *QuireError {
	return &QuireError{
		Code:     code,
		Category: category,
		Message:  message,
		Context:  make(map[string]string),
	}
}

// WithContext adds a context key-value pair and returns the error for chaining.
func (e *QuireError) WithContext(key, value string) *QuireError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithCause wraps an underlying error and returns the error for chaining.
func (e *QuireError) WithCause(cause error) *QuireError {
	e.Cause = cause
	return e
}

// WithSuggestion adds a remediation suggestion and returns the error for chaining.
func (e *QuireError) WithSuggestion(suggestion string) *QuireError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// HasContext returns true if the error has context information.
func (e *QuireError) HasContext() bool {
	return len(e.Context) > 0
}

// HasSuggestions returns true if the error has suggestions.
func (e *QuireError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// ContextString returns the context entries as sorted key="value" pairs.
func (e *QuireError) ContextString() string {
	if len(e.Context) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, e.Context[k]))
	}
	return strings.Join(parts, ", ")
}

// Wrap wraps an existing error with a QuireError.
func Wrap(err error, code string, category Category, message string) *QuireError {
	return New(code, category, message).WithCause(err)
}

// AsQuireError finds the first QuireError in err's chain.
func AsQuireError(err error) (*QuireError, bool) {
	if err == nil {
		return nil, false
	}
	var qe *QuireError
	if stderrors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

// IsCategory checks if an error is a QuireError with the given category.
func IsCategory(err error, category Category) bool {
	if qe, ok := AsQuireError(err); ok {
		return qe.Category == category
	}
	return false
}

// IsCode checks if an error is a QuireError with the given code.
func IsCode(err error, code string) bool {
	if qe, ok := AsQuireError(err); ok {
		return qe.Code == code
	}
	return false
}

// CategoryOf returns the category of err, or CategoryInternal for plain errors.
func CategoryOf(err error) Category {
	if qe, ok := AsQuireError(err); ok {
		return qe.Category
	}
	return CategoryInternal
}
