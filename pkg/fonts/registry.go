package fonts

import (
	"sort"
	"sync"

	qerrors "github.com/r3d91ll/quire/pkg/errors"
)

// Registry holds named fonts. It is filled at startup and sealed before
// the first render; after Seal it is read-only and safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	fonts  map[string]*Font
	sealed bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{fonts: make(map[string]*Font)}
}

// Register loads the font at path under name.
func (r *Registry) Register(name, path string) error {
	f, err := Load(name, path)
	if err != nil {
		return err
	}
	return r.Add(f)
}

// Add registers an already parsed font under f.Name.
func (r *Registry) Add(f *Font) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return qerrors.Resource(qerrors.ErrResourceRegistrySealed, "font registry is sealed").
			WithContext("font", f.Name)
	}
	if _, exists := r.fonts[f.Name]; exists {
		return qerrors.Resource(qerrors.ErrResourceFontDuplicate, "font already registered").
			WithContext("font", f.Name)
	}
	r.fonts[f.Name] = f
	return nil
}

// Seal stops further registration.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Get returns a registered font by name.
func (r *Registry) Get(name string) (*Font, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fonts[name]
	return f, ok
}

// Require returns the named font or a RESOURCE_FONT_NOT_REGISTERED error.
func (r *Registry) Require(name string) (*Font, error) {
	if f, ok := r.Get(name); ok {
		return f, nil
	}
	return nil, qerrors.Resource(qerrors.ErrResourceFontNotRegistered, "font is not registered").
		WithContext("font", name)
}

// Names returns registered font names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.fonts))
	for n := range r.fonts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
