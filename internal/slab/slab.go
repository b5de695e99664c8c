// Package slab implements the per-class slab pools described in spec.md
// §3/§4.1: a fixed, configuration-driven set of size classes, each with a
// free list of fixed-width byte buffers. The shape is grounded on the
// teacher's app/core/go_core/custom_allocators.go Slab[T]/SlabAllocator[T]
// (per-slab mutex, free-slot bookkeeping) and
// other_examples' standardbeagle-lci slab_allocator.go (smallest-class-
// that-fits routing over an ordered tier list) — generalized from pooled
// typed objects to raw byte buffers, since spec.md's slabs are memory
// regions, not generic values.
package slab

// Slab is a single fixed-width byte buffer, either free or in use.
type Slab struct {
	Class  int   // index into the owning Set's ordered class list
	Buffer []byte
}

// Width returns the slab's byte width.
func (s *Slab) Width() int64 {
	return int64(len(s.Buffer))
}

// Zero clears the slab's contents, per spec.md §4.1 step 2 ("defense in
// depth against reuse leakage") and testable property 6.
func (s *Slab) Zero() {
	for i := range s.Buffer {
		s.Buffer[i] = 0
	}
}

func newSlab(class int, width int64) *Slab {
	return &Slab{Class: class, Buffer: make([]byte, width)}
}
