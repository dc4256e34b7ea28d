// Package api provides the HTTP/WebSocket server for the Quire web UI.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	qerrors "github.com/r3d91ll/quire/pkg/errors"
)

// HandlerFunc is the function signature for API handlers.
type HandlerFunc func(w http.ResponseWriter, r *http.Request)

// Route represents a registered route with its handler.
type Route struct {
	Method  string
	Pattern string
	Handler HandlerFunc
}

// Router is a small HTTP router with :param path segments.
type Router struct {
	routes []Route
	mu     sync.RWMutex

	// NotFound is called when no route matches
	NotFound http.Handler
}

// NewRouter creates a new Router instance.
func NewRouter() *Router {
	return &Router{
		routes: make([]Route, 0),
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			WriteError(w, http.StatusNotFound, "not_found", "The requested resource was not found")
		}),
	}
}

// Handle registers a handler for the given method and pattern.
// Patterns support path parameters with :param syntax (e.g., /api/papers/:id/pdf).
func (rt *Router) Handle(method, pattern string, handler HandlerFunc) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.routes = append(rt.routes, Route{
		Method:  method,
		Pattern: pattern,
		Handler: handler,
	})
}

// GET registers a handler for GET requests.
func (rt *Router) GET(pattern string, handler HandlerFunc) {
	rt.Handle(http.MethodGet, pattern, handler)
}

// POST registers a handler for POST requests.
func (rt *Router) POST(pattern string, handler HandlerFunc) {
	rt.Handle(http.MethodPost, pattern, handler)
}

// ServeHTTP implements the http.Handler interface. A path that matches
// only under another method gets 405.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	path := r.URL.Path
	pathMatched := false

	for _, route := range rt.routes {
		params, matched := matchPath(route.Pattern, path)
		if !matched {
			continue
		}
		if route.Method != r.Method {
			pathMatched = true
			continue
		}
		if len(params) > 0 {
			r = setPathParams(r, params)
		}
		route.Handler(w, r)
		return
	}

	if pathMatched {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed for this resource")
		return
	}
	rt.NotFound.ServeHTTP(w, r)
}

// matchPath matches a URL path against a pattern and extracts path parameters.
func matchPath(pattern, path string) (map[string]string, bool) {
	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	pathParts := strings.Split(strings.Trim(path, "/"), "/")

	if len(patternParts) != len(pathParts) {
		return nil, false
	}

	params := make(map[string]string)
	for i, patternPart := range patternParts {
		if strings.HasPrefix(patternPart, ":") {
			params[patternPart[1:]] = pathParts[i]
		} else if patternPart != pathParts[i] {
			return nil, false
		}
	}
	return params, true
}

type contextKey string

const pathParamsKey contextKey = "pathParams"

func setPathParams(r *http.Request, params map[string]string) *http.Request {
	ctx := context.WithValue(r.Context(), pathParamsKey, params)
	return r.WithContext(ctx)
}

// PathParam extracts a path parameter from the request.
func PathParam(r *http.Request, name string) string {
	params, ok := r.Context().Value(pathParamsKey).(map[string]string)
	if !ok {
		return ""
	}
	return params[name]
}

// -----------------------------------------------------------------------------
// Response Helpers
// -----------------------------------------------------------------------------

// APIResponse is the standard response wrapper for API endpoints.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError represents an error response.
type APIError struct {
	Code        string   `json:"code"`
	Category    string   `json:"category,omitempty"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// WriteJSON writes a successful JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	writeResponse(w, status, APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeResponse(w, status, APIResponse{
		Error: &APIError{Code: code, Message: message},
	})
}

// WriteFailure writes err with the status its category maps to. data,
// if not nil, rides along with the error.
func WriteFailure(w http.ResponseWriter, err error, data interface{}) {
	writeResponse(w, StatusFor(err), APIResponse{
		Data:  data,
		Error: toAPIError(err),
	})
}

func writeResponse(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(resp)
}

// StatusFor maps an error category to an HTTP status.
func StatusFor(err error) int {
	switch qerrors.CategoryOf(err) {
	case qerrors.CategoryValidation:
		return http.StatusBadRequest
	case qerrors.CategoryGeneration, qerrors.CategoryBackend, qerrors.CategoryAgent:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func toAPIError(err error) *APIError {
	qe, ok := qerrors.AsQuireError(err)
	if !ok {
		return &APIError{
			Code:     qerrors.ErrInternalError,
			Category: string(qerrors.CategoryInternal),
			Message:  "An unexpected error occurred",
		}
	}
	return &APIError{
		Code:        qe.Code,
		Category:    string(qe.Category),
		Message:     qe.Message,
		Suggestions: qe.Suggestions,
	}
}

// ReadJSON reads and decodes a JSON request body into the given target.
func ReadJSON(r *http.Request, target interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
