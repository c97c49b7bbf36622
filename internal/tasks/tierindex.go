package tasks

import (
	"strings"
	"sync"

	"tunedex/internal/index"
	"tunedex/internal/models"
	"tunedex/internal/vault"
)

// tierIndex is the pass-scoped identity index for one tier, built fresh from
// disk at the start of the tier and never carried across passes. Lookups are
// safe under the parallel per-entity writers; additions are serialized.
type tierIndex struct {
	mu     sync.RWMutex
	ids    *index.Index[*vault.Note]
	titles map[string]*vault.Note
	all    []*vault.Note
}

func newTierIndex(notes []*vault.Note) *tierIndex {
	ti := &tierIndex{
		ids:    index.New[*vault.Note](),
		titles: make(map[string]*vault.Note, len(notes)),
	}
	for _, n := range notes {
		ti.add(n)
	}
	return ti
}

func (ti *tierIndex) add(n *vault.Note) {
	ti.addIDs(n, vault.NoteIDs(n))
}

func (ti *tierIndex) addIDs(n *vault.Note, ids models.EntityIDs) {
	ti.ids.Set(ids, n)
	ti.all = append(ti.all, n)

	key := titleKey(vault.NoteTitle(n))
	if _, taken := ti.titles[key]; !taken && key != "" {
		ti.titles[key] = n
	}
}

// register records a newly allocated note under the entity's identifier set.
// The note itself has no metadata yet at this point; its fields are applied by
// the tier's writers after planning.
func (ti *tierIndex) register(n *vault.Note, ids models.EntityIDs) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.addIDs(n, ids)
}

// lookup finds the note backing an identifier set.
func (ti *tierIndex) lookup(ids models.EntityIDs) (*vault.Note, bool) {
	ti.mu.RLock()
	defer ti.mu.RUnlock()
	return ti.ids.Get(ids)
}

// resolve maps an identifier set, falling back to a display-title match, to
// an existing note's link target. The title fallback is what lets a bare
// string reference heal into a link.
func (ti *tierIndex) resolve(ids models.EntityIDs, title string) (string, bool) {
	ti.mu.RLock()
	defer ti.mu.RUnlock()

	if n, ok := ti.ids.Get(ids); ok {
		return n.LinkTarget(), true
	}
	if n, ok := ti.titles[titleKey(title)]; ok {
		return n.LinkTarget(), true
	}
	return "", false
}

// linkFunc adapts the index to the vault's resolver contract.
func (ti *tierIndex) linkFunc() vault.LinkFunc {
	return func(ids models.EntityIDs) (string, bool) {
		ti.mu.RLock()
		defer ti.mu.RUnlock()
		if n, ok := ti.ids.Get(ids); ok {
			return n.LinkTarget(), true
		}
		return "", false
	}
}

func (ti *tierIndex) notes() []*vault.Note {
	ti.mu.RLock()
	defer ti.mu.RUnlock()
	return append([]*vault.Note(nil), ti.all...)
}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
