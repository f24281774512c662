// Package vfsreg is the VFS-facing scheme registry: process-wide, mutable,
// with a single boot-to-shutdown lifecycle. It is deliberately narrow
// (Register, Unregister, LookupByScheme) rather than exposing its map
// directly, per the isolation spec.md §9 recommends for this kind of global
// state.
package vfsreg

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Registry holds the scheme handles currently known to the VFS, keyed by
// scheme name.
type Registry struct {
	mu       sync.Mutex
	handlers map[string]io.Closer // GUARDED_BY(mu)
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{handlers: make(map[string]io.Closer)}
}

// Register advertises name as owned by handler. It returns an error if name
// is already registered.
func (r *Registry) Register(name string, handler io.Closer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("vfsreg: scheme %q already registered", name)
	}
	r.handlers[name] = handler
	return nil
}

// Unregister removes name from the registry, if present. Removing an
// unregistered name is a silent no-op: this is how ProviderHandle's
// last-strong-ref teardown behaves when it races with an explicit
// unregistration elsewhere.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, name)
}

// LookupByScheme returns the handler registered for name, if any.
func (r *Registry) LookupByScheme(name string) (io.Closer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the currently-registered scheme names in sorted order, for
// tests and diagnostics.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
