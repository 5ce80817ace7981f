package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a Provider from shared dependencies.
type Factory func(deps Deps) (Provider, error)

// Registry maps provider names to constructors. It is built explicitly
// at startup and passed to whoever needs to instantiate providers;
// there is no process-wide registry.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register binds a constructor to a provider name. Registering the same
// name twice is a programmer error.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("provider %q: nil factory", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("provider %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// New instantiates the provider registered under name.
func (r *Registry) New(name string, deps Deps) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return factory(deps)
}

// Names returns all registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
