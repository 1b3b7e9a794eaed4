// Package native serves handler resources implemented in Go. Programs embedding the
// router register a factory per resource path; the file on disk only marks the route
// and triggers reloads when it changes.
package native

import (
	"context"
	"maps"
	"path/filepath"
	"slices"
	"sync"

	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/core/ports"
	"go.trai.ch/zerr"
)

// Name identifies the native runtime.
const Name = "native"

// Factory builds a fresh module. It is called on every load of its resource.
type Factory func(ctx context.Context) (Module, error)

// Module is a handler implemented in Go. Create and Destroy are optional.
type Module struct {
	Serve   domain.HandlerFunc
	Create  domain.HookFunc
	Destroy domain.HookFunc
}

var _ ports.Runtime = (*Registry)(nil)

// Registry is a ports.Runtime resolving resource ids to registered factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register associates the resource at path with factory, replacing any previous one.
func (r *Registry) Register(path string, factory Factory) error {
	id, err := filepath.Abs(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "resolve handler path"), "path", path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = factory
	return nil
}

// Unregister drops the factory for path.
func (r *Registry) Unregister(path string) {
	id, err := filepath.Abs(path)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, id)
}

// Name returns the runtime name.
func (r *Registry) Name() string {
	return Name
}

// Supports reports whether a factory is registered for id.
func (r *Registry) Supports(id string) bool {
	_, ok := r.factory(id)
	return ok
}

// Load calls the factory registered for id.
func (r *Registry) Load(ctx context.Context, id string) (ports.Module, error) {
	factory, ok := r.factory(id)
	if !ok {
		return nil, zerr.With(zerr.New("no factory registered"), "id", id)
	}
	mod, err := factory(ctx)
	if err != nil {
		return nil, err
	}
	return mod, nil
}

func (r *Registry) factory(id string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[filepath.Clean(id)]
	return f, ok
}

// IDs returns the registered resource ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// Handler implements ports.Module.
func (m Module) Handler() domain.HandlerFunc {
	return m.Serve
}

// Hook implements ports.Module.
func (m Module) Hook(name string) (domain.HookFunc, bool) {
	var fn domain.HookFunc
	switch name {
	case domain.HookCreate:
		fn = m.Create
	case domain.HookDestroy:
		fn = m.Destroy
	}
	return fn, fn != nil
}
