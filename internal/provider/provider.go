// Package provider defines the generic data-provider call contract and the
// resilient client every collector goes through.
package provider

import (
	"context"
	"encoding/json"
	"sync"
)

// Provider is one external data source. Invoke executes a named operation
// with JSON params and returns the raw JSON result; implementations wrap a
// concrete API client and surface transport errors unclassified (the
// resilient client classifies them).
type Provider interface {
	// Name returns the canonical provider identifier (breaker key).
	Name() string
	// Configured reports whether the provider's credential is present.
	Configured() bool
	// Invoke executes one operation.
	Invoke(ctx context.Context, operation string, params json.RawMessage) (json.RawMessage, error)
}

// Registry holds the configured providers by name.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns a provider by name, or nil if not registered.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// List returns all registered provider names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
