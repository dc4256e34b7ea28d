package backend

import (
	"context"
	"sort"
	"strings"
	"sync"

	qerrors "github.com/r3d91ll/quire/pkg/errors"
)

// Registry manages available backends.
type Registry struct {
	backends map[string]Backend
	mu       sync.RWMutex
}

// NewRegistry creates a new backend registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Backend),
	}
}

// Register adds a backend to the registry.
func (r *Registry) Register(name string, backend Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[name]; exists {
		return qerrors.Backend(qerrors.ErrBackendAlreadyRegistered, "backend already registered").
			WithContext("backend", name)
	}
	r.backends[name] = backend
	return nil
}

// Get retrieves a backend by name.
func (r *Registry) Get(name string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	backend, ok := r.backends[name]
	return backend, ok
}

// Require retrieves a backend or returns BACKEND_NOT_FOUND listing the
// registered names.
func (r *Registry) Require(name string) (Backend, error) {
	if b, ok := r.Get(name); ok {
		return b, nil
	}
	err := qerrors.Backend(qerrors.ErrBackendNotFound, "the specified backend is not registered").
		WithContext("backend", name)
	if names := r.List(); len(names) > 0 {
		err.WithContext("available_backends", strings.Join(names, ", "))
	}
	return nil, err
}

// List returns all registered backend names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.backends))
	for name := range r.backends {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Status returns availability status for all backends.
func (r *Registry) Status(ctx context.Context) map[string]Status {
	// copy so IsAvailable runs without the lock
	r.mu.RLock()
	backends := make(map[string]Backend, len(r.backends))
	for name, b := range r.backends {
		backends[name] = b
	}
	r.mu.RUnlock()

	result := make(map[string]Status)
	for name, backend := range backends {
		result[name] = Status{
			Name:         name,
			Type:         backend.Type(),
			Available:    backend.IsAvailable(ctx),
			Capabilities: backend.Capabilities(),
		}
	}
	return result
}

// Status represents backend status.
type Status struct {
	Name         string       `json:"name"`
	Type         Type         `json:"type"`
	Available    bool         `json:"available"`
	Capabilities Capabilities `json:"capabilities"`
}
