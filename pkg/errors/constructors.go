package errors

import "fmt"

// -----------------------------------------------------------------------------
// Smart Constructors with Auto-Attached Suggestions
// -----------------------------------------------------------------------------

// Config creates a configuration error with auto-attached suggestions.
func Config(code, message string) *QuireError {
	return AttachSuggestions(New(code, CategoryConfig, message))
}

// ConfigWrap wraps an error as a configuration error with auto-attached suggestions.
func ConfigWrap(cause error, code, message string) *QuireError {
	return AttachSuggestions(Wrap(cause, code, CategoryConfig, message))
}

// Validation creates a validation error with auto-attached suggestions.
func Validation(code, message string) *QuireError {
	return AttachSuggestions(New(code, CategoryValidation, message))
}

// Validationf creates a validation error with a formatted message.
func Validationf(code, format string, args ...interface{}) *QuireError {
	return Validation(code, fmt.Sprintf(format, args...))
}

// Generation wraps a crew failure. cause may be nil.
func Generation(cause error, code, message string) *QuireError {
	return AttachSuggestions(Wrap(cause, code, CategoryGeneration, message))
}

// Resource creates a resource error with auto-attached suggestions.
func Resource(code, message string) *QuireError {
	return AttachSuggestions(New(code, CategoryResource, message))
}

// ResourceWrap wraps an error as a resource error.
func ResourceWrap(cause error, code, message string) *QuireError {
	return AttachSuggestions(Wrap(cause, code, CategoryResource, message))
}

// Render creates a render error with auto-attached suggestions.
func Render(code, message string) *QuireError {
	return AttachSuggestions(New(code, CategoryRender, message))
}

// RenderWrap wraps an error as a render error.
func RenderWrap(cause error, code, message string) *QuireError {
	return AttachSuggestions(Wrap(cause, code, CategoryRender, message))
}

// Backend creates a backend communication error with auto-attached suggestions.
func Backend(code, message string) *QuireError {
	return AttachSuggestions(New(code, CategoryBackend, message))
}

// BackendWrap wraps an error as a backend error with auto-attached suggestions.
func BackendWrap(cause error, code, message string) *QuireError {
	return AttachSuggestions(Wrap(cause, code, CategoryBackend, message))
}

// Agent creates an agent-related error with auto-attached suggestions.
func Agent(code, message string) *QuireError {
	return AttachSuggestions(New(code, CategoryAgent, message))
}

// AgentWrap wraps an error as an agent error with auto-attached suggestions.
func AgentWrap(cause error, code, message string) *QuireError {
	return AttachSuggestions(Wrap(cause, code, CategoryAgent, message))
}

// IOWrap wraps an error as an IO error.
func IOWrap(cause error, code, message string) *QuireError {
	return AttachSuggestions(Wrap(cause, code, CategoryIO, message))
}

// Internal creates an internal error.
func Internal(code, message string) *QuireError {
	return New(code, CategoryInternal, message)
}
