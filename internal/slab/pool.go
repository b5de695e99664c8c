package slab

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// ErrNoClassFits is returned when a requested size exceeds every configured class.
var ErrNoClassFits = errors.New("no size class is wide enough for the request")

// classPool is the free list and counters for a single size class. Each
// class is guarded by its own mutex, matching spec.md §5's allowance to
// "shard the lock per class". Set.Acquire/Release take the class lock for
// free-list and count changes and the Set-level bytesMu for the byte
// budget; the two locks are never held together, so callers that need a
// consistent view across both (allocator.Allocator) hold their own mutex
// around every Acquire, Release and read.
type classPool struct {
	mu        sync.Mutex
	width     int64
	free      []*Slab
	totalCount int64
}

// Set is the full collection of per-class pools plus the global byte
// ceiling. Widths are fixed at construction and never change membership.
type Set struct {
	widths       []int64
	pools        []*classPool
	maxPoolBytes int64

	bytesMu     sync.Mutex
	totalBytes  int64 // Σ total_count(c) × width(c), guarded by bytesMu
}

// NewSet builds a Set from an unordered list of distinct class widths and a
// global pool-byte ceiling. Widths are sorted ascending so routing can stop
// at the first class wide enough. initialPerClass pre-populates every
// class's free list with that many zeroed slabs at construction time
// (spec.md §3 SizeClass's "initial-preallocation count", §6
// memory.initial_slabs_per_size) — counted toward total_count and the
// global ceiling exactly like any other slab. Pass 0 to skip
// preallocation.
func NewSet(widths []int64, maxPoolBytes int64, initialPerClass int) (*Set, error) {
	if len(widths) == 0 {
		return nil, errors.New("at least one size class is required")
	}
	seen := make(map[int64]bool, len(widths))
	sorted := append([]int64(nil), widths...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, w := range sorted {
		if w < 1 {
			return nil, errors.Errorf("size class width %d must be >= 1 byte", w)
		}
		if seen[w] {
			return nil, errors.Errorf("duplicate size class width %d", w)
		}
		seen[w] = true
	}

	s := &Set{widths: sorted, maxPoolBytes: maxPoolBytes}
	s.pools = make([]*classPool, len(sorted))
	for i, w := range sorted {
		s.pools[i] = &classPool{width: w}
	}

	for c, w := range sorted {
		for i := 0; i < initialPerClass; i++ {
			if s.totalBytes+w > s.maxPoolBytes {
				return nil, errors.Errorf("initial_slabs_per_size=%d for width %d would exceed max_pool_bytes=%d", initialPerClass, w, s.maxPoolBytes)
			}
			s.totalBytes += w
			s.pools[c].totalCount++
			s.pools[c].free = append(s.pools[c].free, newSlab(c, w))
		}
	}

	return s, nil
}

// Widths returns the configured class widths, ascending.
func (s *Set) Widths() []int64 {
	out := make([]int64, len(s.widths))
	copy(out, s.widths)
	return out
}

// MaxPoolBytes returns the global ceiling.
func (s *Set) MaxPoolBytes() int64 {
	return s.maxPoolBytes
}

// RouteClass returns the index of the smallest class whose width is >= n,
// or ErrNoClassFits if n exceeds every class. Routing is a pure function of
// the fixed width list, so it is idempotent for a given n (testable
// property "routing idempotence").
func (s *Set) RouteClass(n int64) (int, error) {
	for i, w := range s.widths {
		if w >= n {
			return i, nil
		}
	}
	return -1, ErrNoClassFits
}

// Width returns the byte width of class c.
func (s *Set) Width(c int) int64 {
	return s.widths[c]
}

// Acquire pops a free slab from class c, or allocates a fresh one if the
// global ceiling permits. The returned bool reports whether the slab was
// reused (true) or freshly allocated (false).
func (s *Set) Acquire(c int) (slab *Slab, reused bool, err error) {
	pool := s.pools[c]

	pool.mu.Lock()
	if n := len(pool.free); n > 0 {
		slab = pool.free[n-1]
		pool.free = pool.free[:n-1]
		pool.mu.Unlock()
		return slab, true, nil
	}
	pool.mu.Unlock()

	// No free slab: reserve the byte budget and mint a fresh one. The
	// budget check and the totalBytes increment happen in the same critical
	// section so concurrent acquires never jointly overshoot the ceiling
	// (spec.md §4.1 step 3); the class's totalCount is incremented
	// afterwards under the class lock.
	width := pool.width
	s.bytesMu.Lock()
	if s.totalBytes+width > s.maxPoolBytes {
		s.bytesMu.Unlock()
		return nil, false, ErrPoolExhausted
	}
	s.totalBytes += width
	s.bytesMu.Unlock()

	pool.mu.Lock()
	pool.totalCount++
	pool.mu.Unlock()

	return newSlab(c, width), false, nil
}

// Release zeroes and returns a slab to its class's free list. total_count
// is unchanged — slabs are retained for the process lifetime, never
// released to the OS (spec.md §9 open question (c)).
func (s *Set) Release(slab *Slab) {
	slab.Zero()
	pool := s.pools[slab.Class]
	pool.mu.Lock()
	pool.free = append(pool.free, slab)
	pool.mu.Unlock()
}

// ClassCounts reports, for class c, (total, free, inUse).
func (s *Set) ClassCounts(c int) (total, free, inUse int64) {
	pool := s.pools[c]
	pool.mu.Lock()
	defer pool.mu.Unlock()
	total = pool.totalCount
	free = int64(len(pool.free))
	return total, free, total - free
}

// TotalBytes returns Σ total_count(c) × width(c), the quantity spec.md §4.1
// checks against MaxPoolBytes before minting a fresh slab.
func (s *Set) TotalBytes() int64 {
	s.bytesMu.Lock()
	defer s.bytesMu.Unlock()
	return s.totalBytes
}

// ErrPoolExhausted is returned by Acquire when granting a fresh slab would
// exceed the global ceiling.
var ErrPoolExhausted = errors.New("pool exhausted")
