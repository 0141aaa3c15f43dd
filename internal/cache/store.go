// Package cache - store.go defines the storage abstraction backing the template cache.
package cache

import (
	"context"
	"sync"

	"github.com/jonathan/form-autofill/internal/types"
)

// Store persists the template namespace as a single logical key-value record.
// Every cache operation reads, modifies, and writes the whole map, so each
// operation is atomic with respect to other cache operations. The design
// assumes serial access from one active session; no per-entry concurrency
// control is provided.
type Store interface {
	// Load returns the full template map. A missing namespace is an empty
	// map, not an error.
	Load(ctx context.Context) (map[string]types.CachedTemplate, error)
	// Save replaces the full template map.
	Save(ctx context.Context, templates map[string]types.CachedTemplate) error
	// Close releases any resources held by the store.
	Close() error
}

// MemoryStore is an in-process Store; sessions served from it start with an
// empty cache every run.
type MemoryStore struct {
	mu        sync.Mutex
	templates map[string]types.CachedTemplate
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{templates: make(map[string]types.CachedTemplate)}
}

// Load returns a copy of the stored map.
func (s *MemoryStore) Load(_ context.Context) (map[string]types.CachedTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]types.CachedTemplate, len(s.templates))
	for k, v := range s.templates {
		out[k] = v
	}
	return out, nil
}

// Save replaces the stored map with a copy of the input.
func (s *MemoryStore) Save(_ context.Context, templates map[string]types.CachedTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.templates = make(map[string]types.CachedTemplate, len(templates))
	for k, v := range templates {
		s.templates[k] = v
	}
	return nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
