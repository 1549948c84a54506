package provider

import (
	"sort"
	"sync"

	"github.com/altbridge/chatd/internal/domain"
)

// Registry resolves provider keys to registered adapters. It replaces
// ad-hoc string dispatch at call sites: the set of providers is fixed at
// construction time.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under its own name.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Resolve returns the provider for key, or a ValidationError for unknown
// keys so transports can answer with a 4xx.
func (r *Registry) Resolve(key string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[key]
	if !ok {
		return nil, domain.NewValidationError("unknown ai provider %q", key)
	}
	return p, nil
}

// Names returns the registered provider keys, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CanStream reports whether the provider supports incremental output.
func CanStream(p Provider) bool {
	_, ok := p.(Streamer)
	return ok
}
