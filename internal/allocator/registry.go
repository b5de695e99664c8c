package allocator

import (
	"time"

	"github.com/pkg/errors"

	"github.com/mohdas1am/maas/internal/slab"
)

// Allocation is the registry entry for one outstanding allocation
// (spec.md §3).
type Allocation struct {
	ID          string
	Class       int
	RequestedN  int64
	Slab        *slab.Slab
	CreatedAt   time.Time
}

// ErrCollision is returned by registry.insert when the identifier already
// exists — spec.md §4.1 calls this "implementationally impossible under a
// strong RNG" but still classifies it as InternalError if it ever occurs.
var ErrCollision = errors.New("allocation identifier collision")

// ErrNotFound is returned by registry.remove when the identifier is unknown.
var ErrNotFound = errors.New("unknown allocation identifier")

// registry maps identifier to Allocation. It is not independently
// synchronized: callers (Allocator) hold a single mutex across registry
// mutation and counter updates, per spec.md §5's "single logical
// transaction per allocate/free".
type registry struct {
	entries map[string]*Allocation
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]*Allocation)}
}

func (r *registry) insert(a *Allocation) error {
	if _, exists := r.entries[a.ID]; exists {
		return ErrCollision
	}
	r.entries[a.ID] = a
	return nil
}

func (r *registry) remove(id string) (*Allocation, error) {
	a, exists := r.entries[id]
	if !exists {
		return nil, ErrNotFound
	}
	delete(r.entries, id)
	return a, nil
}

func (r *registry) len() int {
	return len(r.entries)
}
