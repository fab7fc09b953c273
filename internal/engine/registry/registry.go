// Package registry holds the modules materialized in the current session.
package registry

import (
	"sort"
	"sync"

	"go.trai.ch/wick/internal/core/domain"
)

// Registry maps module names to their callables. It is not persisted.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]domain.Callable
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{modules: make(map[string]domain.Callable)}
}

// Set registers fn under name, replacing any previous callable.
func (r *Registry) Set(name string, fn domain.Callable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[name] = fn
}

// Get returns the callable registered under name.
func (r *Registry) Get(name string) (domain.Callable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.modules[name]
	return fn, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}
