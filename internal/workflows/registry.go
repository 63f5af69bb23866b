package workflows

import (
	"fmt"
	"iter"
	"sync"

	rgerrors "github.com/chazuruo/relagit/internal/errors"
)

// Registry holds the workflows produced by a load pass.
//
// Entries keep insertion order and are never mutated once added. Readers may
// run concurrently; Reset is the only way to remove entries.
type Registry struct {
	mu      sync.RWMutex
	entries []*Definition
	byID    map[string]*Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Definition)}
}

// Add inserts a definition. IDs must be non-empty and unique.
func (r *Registry) Add(def *Definition) error {
	if def == nil {
		return rgerrors.Invalidf("nil workflow definition")
	}
	if def.ID == "" {
		return rgerrors.Invalidf("workflow %q has no id", def.Name)
	}
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[def.ID]; exists {
		return fmt.Errorf("workflow %q: %w", def.ID, rgerrors.ErrAlreadyExists)
	}
	r.entries = append(r.entries, def)
	r.byID[def.ID] = def
	return nil
}

// All yields every definition in insertion order. The sequence iterates a
// snapshot taken when iteration starts.
func (r *Registry) All() iter.Seq[*Definition] {
	return func(yield func(*Definition) bool) {
		for _, def := range r.snapshot() {
			if !yield(def) {
				return
			}
		}
	}
}

// Matching returns the definitions whose triggers contain event.
func (r *Registry) Matching(event Event) []*Definition {
	var out []*Definition
	for def := range r.All() {
		if def.Triggers.Has(event) {
			out = append(out, def)
		}
	}
	return out
}

// Get returns the definition with the given ID.
func (r *Registry) Get(id string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byID[id]
	return def, ok
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Reset removes every definition and releases its execution unit.
func (r *Registry) Reset() {
	r.mu.Lock()
	entries := r.entries
	r.entries = nil
	r.byID = make(map[string]*Definition)
	r.mu.Unlock()

	for _, def := range entries {
		def.Release()
	}
}

func (r *Registry) snapshot() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Definition, len(r.entries))
	copy(out, r.entries)
	return out
}
