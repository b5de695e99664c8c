// Package allocator implements the server-side slab allocator and
// allocation registry of spec.md §4.1/§4.2: route a request to the
// smallest size class that fits, reuse a free slab when available,
// enforce the global pool-byte ceiling, and keep per-class and aggregate
// counters consistent with the registry at every observation point.
//
// The control flow (strategy dispatch → pool/slab lookup → counter
// update) is grounded on the teacher's
// app/core/go_core/custom_allocators.go CustomAllocator[T].Allocate /
// Deallocate; CustomAllocatorMetrics' mutex-guarded counter struct shapes
// allocator.Snapshot.
package allocator

import (
	"sync"
	"time"

	"github.com/mohdas1am/maas/internal/errs"
	"github.com/mohdas1am/maas/internal/idgen"
	"github.com/mohdas1am/maas/internal/logging"
	"github.com/mohdas1am/maas/internal/slab"
)

// Allocator serves allocate/free requests against a fixed slab.Set,
// guarding the registry and every counter with a single mutex so that no
// observer ever sees the registry and counters disagree (spec.md §4.1
// "Statistics contract").
type Allocator struct {
	mu  sync.Mutex
	set *slab.Set
	reg *registry
	log *logging.Logger

	totalAllocations int64
	activeAllocations int64
	slabReuseTotal    int64
	inUseBytes        int64
}

// New builds an Allocator over the given size classes and pool-byte
// ceiling.
func New(set *slab.Set, log *logging.Logger) *Allocator {
	if log == nil {
		log = logging.New("maas-allocator")
	}
	return &Allocator{set: set, reg: newRegistry(), log: log}
}

// Result is the successful outcome of Allocate.
type Result struct {
	ID              string
	RequestedBytes  int64
	ActualBytes     int64
	CreatedAt       time.Time
}

// Allocate implements spec.md §4.1's allocation procedure.
func (a *Allocator) Allocate(n int64) (Result, error) {
	if n <= 0 {
		return Result{}, errs.New(errs.KindInvalidRequest, "size_bytes must be a positive integer")
	}

	class, err := a.set.RouteClass(n)
	if err != nil {
		return Result{}, errs.New(errs.KindRequestTooLarge, "requested size exceeds the largest configured size class")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	s, reused, err := a.set.Acquire(class)
	if err != nil {
		return Result{}, errs.New(errs.KindPoolExhausted, "allocating this slab would exceed the pool size ceiling")
	}

	id := idgen.New()
	alloc := &Allocation{
		ID:         id,
		Class:      class,
		RequestedN: n,
		Slab:       s,
		CreatedAt:  time.Now(),
	}
	if insertErr := a.reg.insert(alloc); insertErr != nil {
		// Collision is only reachable under a broken RNG. The slab goes back
		// to its free list and the request fails as InternalError without
		// touching any counter; the identifier is not regenerated here.
		a.set.Release(s)
		return Result{}, errs.Wrap(errs.KindInternalError, insertErr, "allocation identifier collision")
	}

	a.totalAllocations++
	a.activeAllocations++
	a.inUseBytes += s.Width()
	if reused {
		a.slabReuseTotal++
	}

	a.log.Info("allocated slab", map[string]interface{}{
		"id": id, "requested_bytes": n, "actual_bytes": s.Width(), "reused": reused,
	})

	return Result{
		ID:             id,
		RequestedBytes: n,
		ActualBytes:    s.Width(),
		CreatedAt:      alloc.CreatedAt,
	}, nil
}

// Deallocate implements spec.md §4.1's deallocation procedure.
func (a *Allocator) Deallocate(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	alloc, err := a.reg.remove(id)
	if err != nil {
		return errs.New(errs.KindUnknownAllocation, "no allocation exists with the given id")
	}

	a.set.Release(alloc.Slab)
	a.activeAllocations--
	a.inUseBytes -= alloc.Slab.Width()

	a.log.Info("freed slab", map[string]interface{}{"id": id, "class": alloc.Class})
	return nil
}

// Snapshot is a consistent point-in-time view used by the stats/metrics
// layer (spec.md §4.3).
type Snapshot struct {
	ActiveAllocations   int64
	TotalAllocations    int64
	SlabReuseTotal      int64
	TotalInUseBytes     int64
	TotalAllocatedBytes int64
	MaxPoolBytes        int64
	Classes             []ClassSnapshot
}

// ClassSnapshot is the per-size-class portion of Snapshot.
type ClassSnapshot struct {
	Width      int64
	TotalSlabs int64
	FreeSlabs  int64
	InUseSlabs int64
}

// Snapshot returns a consistent view of all counters and per-class pool
// state, taken under the same mutex that guards allocate/free so readers
// never observe torn accounting (spec.md §4.2 "snapshot-for-statistics").
func (a *Allocator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	widths := a.set.Widths()
	classes := make([]ClassSnapshot, len(widths))
	for i, w := range widths {
		total, free, inUse := a.set.ClassCounts(i)
		classes[i] = ClassSnapshot{Width: w, TotalSlabs: total, FreeSlabs: free, InUseSlabs: inUse}
	}

	return Snapshot{
		ActiveAllocations:   a.activeAllocations,
		TotalAllocations:    a.totalAllocations,
		SlabReuseTotal:      a.slabReuseTotal,
		TotalInUseBytes:     a.inUseBytes,
		TotalAllocatedBytes: a.set.TotalBytes(),
		MaxPoolBytes:        a.set.MaxPoolBytes(),
		Classes:             classes,
	}
}

// RegistrySize returns the number of outstanding allocations, matching
// ActiveAllocations in Snapshot — exposed separately for invariant tests
// (spec.md §8 invariant 4: active_allocations == |registry|).
func (a *Allocator) RegistrySize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reg.len()
}
