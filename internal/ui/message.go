package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"tunedex/internal/models"
	"tunedex/internal/tasks"
	"tunedex/internal/vault"
)

var (
	_ tea.Msg = notesLoadedMsg{}
	_ tea.Msg = progressUpdateMsg{}
	_ tea.Msg = syncCompleteMsg{}
)

// notesLoadedMsg delivers one tier's notes read from disk.
type notesLoadedMsg struct {
	kind  models.Kind
	notes []*vault.Note
	err   error
}

// progressUpdateMsg delivers one engine progress update.
type progressUpdateMsg tasks.ProgressUpdate

// syncCompleteMsg delivers the outcome of a finished pass.
type syncCompleteMsg struct {
	result *tasks.SyncResult
	err    error
}
