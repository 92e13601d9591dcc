package registry

import (
	"sort"
	"sync"

	"github.com/ericogr/encounters/internal/game"
)

// Registry holds live values by key and guarantees at most one value per
// key. Key construction lives in the keys package; the registry treats keys
// as opaque strings.
type Registry[T comparable] struct {
	mu      sync.RWMutex
	entries map[string]T
}

func New[T comparable]() *Registry[T] {
	return &Registry[T]{entries: make(map[string]T)}
}

// Insert stores v under key only if the key is free. The presence check and
// the write happen under one lock, so two concurrent inserts for the same
// key cannot both succeed.
func (r *Registry[T]) Insert(key string, v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[key]; exists {
		return game.ErrAlreadyActive
	}
	r.entries[key] = v
	return nil
}

// Get returns the value registered under key.
func (r *Registry[T]) Get(key string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

// Remove deletes key only while it still maps to v, so a finished owner
// never evicts a newer registration under the same key.
func (r *Registry[T]) Remove(key string, v T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.entries[key]
	if !ok || cur != v {
		return false
	}
	delete(r.entries, key)
	return true
}

// Len returns the number of live entries.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Keys returns the registered keys in sorted order.
func (r *Registry[T]) Keys() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.entries))
	for k := range r.entries {
		out = append(out, k)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}
