package errors

import "strings"

// -----------------------------------------------------------------------------
// Configuration Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = "CONFIG_NOT_FOUND"

	// ErrConfigParseFailed indicates the configuration file could not be parsed.
	ErrConfigParseFailed = "CONFIG_PARSE_FAILED"

	// ErrConfigInvalid indicates configuration values are invalid.
	ErrConfigInvalid = "CONFIG_INVALID"

	// ErrConfigInitFailed indicates config initialization failed.
	ErrConfigInitFailed = "CONFIG_INIT_FAILED"

	ErrConfigWriteFailed = "CONFIG_WRITE_FAILED"
)

// -----------------------------------------------------------------------------
// Validation Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrValidationInvalidSubject indicates a subject outside the offered set.
	ErrValidationInvalidSubject = "VALIDATION_INVALID_SUBJECT"

	// ErrValidationInvalidGrade indicates a grade outside 5..12.
	ErrValidationInvalidGrade = "VALIDATION_INVALID_GRADE"

	// ErrValidationRequired indicates a required field is missing.
	ErrValidationRequired = "VALIDATION_REQUIRED"

	// ErrValidationInvalidBody indicates a request body failed schema validation.
	ErrValidationInvalidBody = "VALIDATION_INVALID_BODY"
)

// -----------------------------------------------------------------------------
// Generation Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrGenerationFailed indicates the crew run returned an error.
	ErrGenerationFailed = "GENERATION_FAILED"

	// ErrGenerationEmptyOutput indicates the crew returned no result or no text.
	ErrGenerationEmptyOutput = "GENERATION_EMPTY_OUTPUT"

	// ErrGenerationTimeout indicates the crew run exceeded its deadline.
	ErrGenerationTimeout = "GENERATION_TIMEOUT"
)

// -----------------------------------------------------------------------------
// Resource Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrResourceFontMissing indicates a font file does not exist.
	ErrResourceFontMissing = "RESOURCE_FONT_MISSING"

	// ErrResourceFontInvalid indicates a font file could not be parsed.
	ErrResourceFontInvalid = "RESOURCE_FONT_INVALID"

	// ErrResourceFontNotRegistered indicates a layout profile names an unknown font.
	ErrResourceFontNotRegistered = "RESOURCE_FONT_NOT_REGISTERED"

	// ErrResourceFontDuplicate indicates a font name was registered twice.
	ErrResourceFontDuplicate = "RESOURCE_FONT_DUPLICATE"

	// ErrResourceRegistrySealed indicates registration after startup.
	ErrResourceRegistrySealed = "RESOURCE_REGISTRY_SEALED"
)

// -----------------------------------------------------------------------------
// Render Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrRenderEncodingFailed indicates a character has no glyph or code in the active font.
	ErrRenderEncodingFailed = "RENDER_ENCODING_FAILED"

	// ErrRenderFailed indicates the document could not be assembled.
	ErrRenderFailed = "RENDER_FAILED"
)

// -----------------------------------------------------------------------------
// Backend and Agent Error Codes
// -----------------------------------------------------------------------------

const (
	ErrBackendNotFound          = "BACKEND_NOT_FOUND"
	ErrBackendAlreadyRegistered = "BACKEND_ALREADY_REGISTERED"
	ErrBackendConnectionFailed  = "BACKEND_CONNECTION_FAILED"
	ErrBackendAPIError          = "BACKEND_API_ERROR"
	ErrBackendAuthFailed        = "BACKEND_AUTH_FAILED"
	ErrBackendTimeout           = "BACKEND_TIMEOUT"

	ErrAgentInvalidConfig = "AGENT_INVALID_CONFIG"
	ErrAgentChatFailed    = "AGENT_CHAT_FAILED"
	ErrAgentNotFound      = "AGENT_NOT_FOUND"
)

// -----------------------------------------------------------------------------
// IO and Internal Error Codes
// -----------------------------------------------------------------------------

const (
	ErrIOReadFailed  = "IO_READ_FAILED"
	ErrIOWriteFailed = "IO_WRITE_FAILED"

	ErrInternalError = "INTERNAL_ERROR"
	ErrInternalPanic = "INTERNAL_PANIC"
)

// codePrefixes maps code prefixes to categories.
var codePrefixes = map[string]Category{
	"CONFIG_":     CategoryConfig,
	"VALIDATION_": CategoryValidation,
	"GENERATION_": CategoryGeneration,
	"RESOURCE_":   CategoryResource,
	"RENDER_":     CategoryRender,
	"BACKEND_":    CategoryBackend,
	"AGENT_":      CategoryAgent,
	"NETWORK_":    CategoryNetwork,
	"IO_":         CategoryIO,
	"INTERNAL_":   CategoryInternal,
}

// CodeCategory returns the category implied by an error code's prefix.
func CodeCategory(code string) Category {
	for prefix, cat := range codePrefixes {
		if strings.HasPrefix(code, prefix) {
			return cat
		}
	}
	return CategoryInternal
}
