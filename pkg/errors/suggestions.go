package errors

import (
	"runtime"
	"sort"
)

// Context keys used to select appropriate suggestions.
const (
	ContextOS      = "os"
	ContextSubject = "subject"
	ContextPath    = "path"
)

// Suggestion represents a remediation suggestion with optional conditions.
type Suggestion struct {
	// Text is the suggestion message displayed to the user.
	Text string

	// Conditions must all match the error context for the suggestion to apply.
	// Empty conditions match any context.
	Conditions map[string]string

	// Priority orders suggestions; higher first.
	Priority int
}

// Matches returns true if this suggestion's conditions match the given context.
func (s *Suggestion) Matches(ctx map[string]string) bool {
	for key, value := range s.Conditions {
		if ctx[key] != value {
			return false
		}
	}
	return true
}

// Registry maps error codes to their remediation suggestions.
type Registry struct {
	suggestions map[string][]Suggestion
}

// NewRegistry creates a new suggestion registry.
func NewRegistry() *Registry {
	return &Registry{
		suggestions: make(map[string][]Suggestion),
	}
}

// Register adds a suggestion for an error code.
func (r *Registry) Register(code, text string) *Registry {
	r.suggestions[code] = append(r.suggestions[code], Suggestion{Text: text})
	return r
}

// RegisterWithCondition adds a suggestion that only applies when the context matches.
func (r *Registry) RegisterWithCondition(code, text string, conditions map[string]string) *Registry {
	r.suggestions[code] = append(r.suggestions[code], Suggestion{
		Text:       text,
		Conditions: conditions,
	})
	return r
}

// RegisterWithPriority adds a suggestion with explicit priority.
func (r *Registry) RegisterWithPriority(code, text string, priority int) *Registry {
	r.suggestions[code] = append(r.suggestions[code], Suggestion{
		Text:     text,
		Priority: priority,
	})
	return r
}

// Get returns all suggestions for code that match ctx, highest priority first.
func (r *Registry) Get(code string, ctx map[string]string) []string {
	var matching []Suggestion
	for _, s := range r.suggestions[code] {
		if s.Matches(ctx) {
			matching = append(matching, s)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Priority > matching[j].Priority
	})

	result := make([]string, len(matching))
	for i, s := range matching {
		result[i] = s.Text
	}
	return result
}

// HasSuggestions returns true if any suggestions exist for the error code.
func (r *Registry) HasSuggestions(code string) bool {
	return len(r.suggestions[code]) > 0
}

// DefaultContext returns a context map with current platform information.
func DefaultContext() map[string]string {
	return map[string]string{ContextOS: runtime.GOOS}
}

// MergeContext combines context maps. Later maps win on duplicate keys.
func MergeContext(contexts ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, ctx := range contexts {
		for k, v := range ctx {
			result[k] = v
		}
	}
	return result
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the global default registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func init() {
	registerConfigSuggestions()
	registerValidationSuggestions()
	registerGenerationSuggestions()
	registerResourceSuggestions()
	registerRenderSuggestions()
	registerBackendSuggestions()
}

func registerConfigSuggestions() {
	defaultRegistry.Register(ErrConfigNotFound,
		"Run 'quire init' to create a default configuration")
	defaultRegistry.Register(ErrConfigParseFailed,
		"Check the YAML syntax of the configuration file")
	defaultRegistry.Register(ErrConfigInvalid,
		"Compare your configuration against configs/config.yaml")
}

func registerValidationSuggestions() {
	defaultRegistry.Register(ErrValidationInvalidSubject,
		"Pick one of the offered subjects, e.g. English_A, Urdu_B or Islamiat")
	defaultRegistry.Register(ErrValidationInvalidGrade,
		"Grades run from 5 to 12")
}

func registerGenerationSuggestions() {
	defaultRegistry.RegisterWithPriority(ErrGenerationFailed,
		"Check that GEMINI_API_KEY is set in the environment or .env file", 10)
	defaultRegistry.Register(ErrGenerationFailed,
		"Retry; the model endpoint may be rate limiting")
	defaultRegistry.Register(ErrGenerationEmptyOutput,
		"Retry the request; the model returned no text")
	defaultRegistry.Register(ErrGenerationTimeout,
		"Raise llm.timeout in the configuration")
}

func registerResourceSuggestions() {
	defaultRegistry.Register(ErrResourceFontMissing,
		"Download NotoNastaliqUrdu-Regular.ttf and point fonts.urdu_path at it")
	defaultRegistry.Register(ErrResourceFontInvalid,
		"Use a TrueType (.ttf) font file")
	defaultRegistry.Register(ErrResourceFontNotRegistered,
		"Register the font under the name used by the layout profile")
}

func registerRenderSuggestions() {
	defaultRegistry.Register(ErrRenderEncodingFailed,
		"Disable render.strict_encoding to substitute unsupported characters")
}

func registerBackendSuggestions() {
	defaultRegistry.Register(ErrBackendAuthFailed,
		"Check the API key used for the LLM backend")
	defaultRegistry.Register(ErrBackendConnectionFailed,
		"Check llm.base_url and your network connection")
	defaultRegistry.RegisterWithCondition(ErrBackendConnectionFailed,
		"If you are behind a proxy, set HTTPS_PROXY", map[string]string{ContextOS: "linux"})
}

// AttachSuggestions adds suggestions from the registry to a QuireError.
func AttachSuggestions(err *QuireError) *QuireError {
	if err == nil {
		return nil
	}
	ctx := MergeContext(DefaultContext(), err.Context)
	if suggestions := defaultRegistry.Get(err.Code, ctx); len(suggestions) > 0 {
		err.Suggestions = append(err.Suggestions, suggestions...)
	}
	return err
}
