package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"tunedex/internal/vault"
)

var _ list.Item = noteItem{}

// noteItem wraps [vault.Note] to implement [list.Item].
type noteItem struct {
	note *vault.Note
}

func (i noteItem) FilterValue() string { return vault.NoteTitle(i.note) }
func (i noteItem) Title() string       { return vault.NoteTitle(i.note) }
func (i noteItem) Description() string {
	parts := []string{}
	if vault.NoteInLibrary(i.note) {
		parts = append(parts, "in library")
	}
	if refs := vault.ArtistRefs(i.note); len(refs) > 0 {
		labels := make([]string, 0, len(refs))
		for _, ref := range refs {
			labels = append(labels, ref.Label)
		}
		parts = append(parts, strings.Join(labels, ", "))
	}
	if len(parts) == 0 {
		return i.note.Path()
	}
	return strings.Join(parts, " • ")
}
