package provider

import (
	"fmt"
	"sync"
)

// Factory builds a provider the first time it is requested.
type Factory func() (OAuthProvider, error)

// Registry resolves provider names to process-wide provider instances.
// It is created once at startup, handed to the auth use case and never
// torn down. Instances are built lazily on first use and then reused.
type Registry struct {
	defaultName string

	mu        sync.Mutex
	factories map[string]Factory
	providers map[string]OAuthProvider
}

// NewRegistry creates an empty registry. defaultName is used when Get is
// called with an empty provider name.
func NewRegistry(defaultName string) *Registry {
	return &Registry{
		defaultName: defaultName,
		factories:   make(map[string]Factory),
		providers:   make(map[string]OAuthProvider),
	}
}

// Register adds a factory under name. Registering a name twice replaces the
// factory but keeps an already built instance.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = factory
}

// DefaultName returns the provider used for empty names.
func (r *Registry) DefaultName() string {
	return r.defaultName
}

// Get returns the provider registered under name, building it on first use.
func (r *Registry) Get(name string) (OAuthProvider, error) {
	if name == "" {
		name = r.defaultName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.providers[name]; ok {
		return p, nil
	}

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, name)
	}

	p, err := factory()
	if err != nil {
		return nil, fmt.Errorf("init provider %s: %w", name, err)
	}

	r.providers[name] = p
	return p, nil
}
