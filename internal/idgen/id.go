// Package idgen generates the opaque 128-bit allocation identifiers
// spec.md §3/§6 requires: globally unique, unguessable, canonical
// 8-4-4-4-12 hex form.
package idgen

import "github.com/google/uuid"

// New returns a fresh identifier's canonical string form.
func New() string {
	return uuid.New().String()
}

// Empty is the sentinel identifier returned for local (non-remote)
// allocations, per spec.md §4.5 ("a local allocation returns an empty
// identifier").
const Empty = ""
