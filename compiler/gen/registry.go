package gen

import (
	"sync"

	"github.com/syssam/schemaforge"
)

// Registry holds named generators in registration order. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	order []string
	gens  map[string]schemaforge.Generator
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{gens: make(map[string]schemaforge.Generator)}
}

// Register adds a generator. Registering a name twice fails with a
// ConflictError; the first registration stays in place.
func (r *Registry) Register(g schemaforge.Generator) error {
	if g == nil {
		return NewConfigError("Generator", nil, "generator cannot be nil")
	}
	name := g.Name()
	if name == "" {
		return NewConfigError("Generator", nil, "generator name cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.gens[name]; exists {
		return &ConflictError{Name: name}
	}
	r.gens[name] = g
	r.order = append(r.order, name)
	return nil
}

// MustRegister registers generators and panics on conflict. It returns
// the registry to enable chained registration at setup time.
func (r *Registry) MustRegister(gens ...schemaforge.Generator) *Registry {
	for _, g := range gens {
		if err := r.Register(g); err != nil {
			panic(err)
		}
	}
	return r
}

// Unregister removes the named generator. It is idempotent and reports
// whether anything was removed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.gens[name]; !exists {
		return false
	}
	delete(r.gens, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Generator returns the named generator, or nil.
func (r *Registry) Generator(name string) schemaforge.Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gens[name]
}

// Generators returns all registered generators in registration order.
func (r *Registry) Generators() []schemaforge.Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]schemaforge.Generator, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.gens[name])
	}
	return out
}

// Len returns the number of registered generators.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
