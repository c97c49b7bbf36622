package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"tunedex/internal/models"
	"tunedex/internal/tasks"
	"tunedex/internal/vault"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BrowseView ViewState = iota
	DetailView
	ConfirmView
	SyncView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	view   ViewState
	notes  *vault.Repository
	engine *tasks.SyncEngine

	width  int
	height int

	kind     models.Kind
	noteList list.Model
	selected *vault.Note

	fullPass     bool
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.SyncResult

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, notes *vault.Repository, engine *tasks.SyncEngine) *Model {
	return &Model{
		ctx:    ctx,
		view:   BrowseView,
		notes:  notes,
		engine: engine,
		kind:   models.KindArtist,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init loads the first tier from the vault.
func (m *Model) Init() tea.Cmd {
	return m.loadTier(m.kind)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.noteList.Width() == 0 {
			m.noteList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case BrowseView:
			return m.handleBrowseKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case notesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.kind = msg.kind
		items := make([]list.Item, len(msg.notes))
		for i, note := range msg.notes {
			items[i] = noteItem{note: note}
		}
		m.noteList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.noteList.Title = fmt.Sprintf("%s (%d)", tierTitle(msg.kind), len(msg.notes))
		m.noteList.SetSize(m.width-4, m.height-8)
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case syncCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case BrowseView:
		return m.renderBrowse()
	case DetailView:
		return m.renderDetail()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		return m, m.loadTier(nextKind(m.kind))
	case "s":
		m.fullPass = false
		m.view = ConfirmView
		return m, nil
	case "S":
		m.fullPass = true
		m.view = ConfirmView
		return m, nil
	case "enter":
		if selected := m.noteList.SelectedItem(); selected != nil {
			if item, ok := selected.(noteItem); ok {
				m.selected = item.note
				m.view = DetailView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.noteList, cmd = m.noteList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.selected = nil
		m.view = BrowseView
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = BrowseView
		return m, nil
	case "y":
		m.view = SyncView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = BrowseView
		m.result = nil
		m.err = nil
		return m, m.loadTier(m.kind)
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != BrowseView {
		return m, nil
	}
	var cmd tea.Cmd
	m.noteList, cmd = m.noteList.Update(msg)
	return m, cmd
}

func tierTitle(kind models.Kind) string {
	t := kind.Tier()
	if t == "" {
		return ""
	}
	return strings.ToUpper(t[:1]) + t[1:]
}

func nextKind(k models.Kind) models.Kind {
	switch k {
	case models.KindArtist:
		return models.KindAlbum
	case models.KindAlbum:
		return models.KindTrack
	default:
		return models.KindArtist
	}
}

func (m *Model) loadTier(kind models.Kind) tea.Cmd {
	return func() tea.Msg {
		notes, _, err := m.notes.ReadTier(kind)
		return notesLoadedMsg{kind: kind, notes: notes, err: err}
	}
}

func (m *Model) startSync() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.progress = tasks.ProgressUpdate{}

	full := m.fullPass
	progress := m.progressChan

	go func() {
		var (
			result *tasks.SyncResult
			err    error
		)
		if full {
			result, err = m.engine.FullSync(m.ctx, progress)
		} else {
			result, err = m.engine.IncrementalSync(m.ctx, progress)
		}
		m.result = result
		m.err = err
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return syncCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return syncCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderBrowse() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.tier, m.keys.sync, m.keys.full, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.noteList.View(), helpView)
}

func (m *Model) renderDetail() string {
	n := m.selected
	if n == nil {
		return ""
	}

	title := styles.title.Render(vault.NoteTitle(n))

	var b strings.Builder
	fmt.Fprintf(&b, "Path: %s\n", n.Path())

	if vault.NoteInLibrary(n) {
		fmt.Fprintf(&b, "Library: %s\n", styles.ok.Render("yes"))
	} else {
		fmt.Fprintf(&b, "Library: no\n")
	}

	if created := vault.NoteCreated(n); !created.IsZero() {
		fmt.Fprintf(&b, "Added: %s\n", created.Format("2006-01-02"))
	}

	ids := vault.NoteIDs(n)
	for _, kind := range models.IDPriority {
		if v := ids[kind]; v != "" {
			fmt.Fprintf(&b, "%s: %s\n", kind, v)
		}
	}

	if refs := vault.ArtistRefs(n); len(refs) > 0 {
		labels := make([]string, 0, len(refs))
		for _, ref := range refs {
			labels = append(labels, ref.Label)
		}
		fmt.Fprintf(&b, "Artists: %s\n", strings.Join(labels, ", "))
	}
	if ref := vault.AlbumRef(n); ref != nil {
		fmt.Fprintf(&b, "Album: %s\n", ref.Label)
	}

	sources := vault.NoteSources(n)
	if sources.Spotify != "" {
		fmt.Fprintf(&b, "Spotify: %s\n", sources.Spotify)
	}
	if sources.Local != "" {
		fmt.Fprintf(&b, "Local file: %s\n", sources.Local)
	}
	if len(sources.Online) > 0 {
		fmt.Fprintf(&b, "Seen in: %s\n", strings.Join(sources.Online, ", "))
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, b.String(), helpView)
}

func (m *Model) renderConfirm() string {
	kind := "incremental"
	detail := "Ingest recently saved items only."
	if m.fullPass {
		kind = "full"
		detail = "Refresh every note and recompute library membership."
	}

	title := styles.title.Render(fmt.Sprintf("Run a %s sync pass?", kind))
	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, detail, helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing Library")

	phase := m.progress.Phase.String()
	if m.progress.Total > 1 {
		phase = fmt.Sprintf("%s (%d/%d)", phase, m.progress.Step, m.progress.Total)
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress r to return, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to return, q to quit")
	}

	title := styles.ok.Render("✓ Pass Complete")
	info := fmt.Sprintf(
		"\nKind: %s\nDuration: %s\nCreated: %d\nUpdated: %d\nUnchanged: %d",
		m.result.Kind,
		m.result.Duration.Round(time.Millisecond),
		m.result.Created,
		m.result.Updated,
		m.result.Unchanged,
	)

	var skipped string
	if m.result.Failed() {
		skipped = fmt.Sprintf("\n\n%s", styles.warn.Render("Skipped categories:"))
		for _, kind := range models.Kinds {
			if err, ok := m.result.CategoryErrors[kind.Tier()]; ok {
				skipped += fmt.Sprintf("\n  • %s: %v", kind.Tier(), err)
			}
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, skipped, helpView)
}
