// Package index implements the multi-key identity index used to match
// entities across sparse external-identifier sets.
//
// The index keeps one exact-match map per identifier kind, so membership and
// retrieval stay O(1) per kind regardless of how many entities are registered.
// Lookups walk [models.IDPriority]: Get returns the item registered under the
// highest-priority kind present in both the query and the index, and Has
// short-circuits on the first hit.
//
// Indexes are pass-scoped: the reconciliation engine builds one per tier from
// whatever is on disk and discards it when the pass ends. They are never kept
// as process-wide state, which keeps them consistent with notes written by an
// earlier tier of the same pass.
package index

import (
	"tunedex/internal/models"
)

// Index maps known external identifiers to a representative item. The zero
// value is not usable; construct with [New].
//
// Index is not safe for concurrent mutation; the engine synchronizes writes
// when parallel note creators register near-duplicate entities.
type Index[T comparable] struct {
	byKind map[models.IDKind]map[string]T
	seen   map[T]struct{}
	items  []T
}

// New creates an empty index.
func New[T comparable]() *Index[T] {
	byKind := make(map[models.IDKind]map[string]T, len(models.IDPriority))
	for _, kind := range models.IDPriority {
		byKind[kind] = make(map[string]T)
	}
	return &Index[T]{
		byKind: byKind,
		seen:   make(map[T]struct{}),
	}
}

// Set registers item under every identifier kind in ids carrying a non-empty
// value. Items registered under multiple kinds are enumerated once by Values.
func (ix *Index[T]) Set(ids models.EntityIDs, item T) {
	registered := false
	for _, kind := range models.IDPriority {
		value := ids[kind]
		if value == "" {
			continue
		}
		ix.byKind[kind][value] = item
		registered = true
	}
	if !registered {
		return
	}
	if _, ok := ix.seen[item]; !ok {
		ix.seen[item] = struct{}{}
		ix.items = append(ix.items, item)
	}
}

// Has reports whether any identifier kind present in ids matches a registered
// value. Absent identifiers are skipped.
func (ix *Index[T]) Has(ids models.EntityIDs) bool {
	for _, kind := range models.IDPriority {
		value := ids[kind]
		if value == "" {
			continue
		}
		if _, ok := ix.byKind[kind][value]; ok {
			return true
		}
	}
	return false
}

// Get returns the item matching the highest-priority identifier kind present
// in both ids and the index. The second return is false when nothing matches.
func (ix *Index[T]) Get(ids models.EntityIDs) (T, bool) {
	for _, kind := range models.IDPriority {
		value := ids[kind]
		if value == "" {
			continue
		}
		if item, ok := ix.byKind[kind][value]; ok {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Values returns every distinct registered item. Order is unspecified.
func (ix *Index[T]) Values() []T {
	out := make([]T, len(ix.items))
	copy(out, ix.items)
	return out
}

// Len returns the number of distinct registered items.
func (ix *Index[T]) Len() int {
	return len(ix.items)
}
