package models

import (
	"fmt"
	"time"
)

// LocalFile is a database-backed record of a scanned local audio file.
//
// Rows are keyed by a normalized "artist|album|title" string so vault track
// notes can be linked to files on disk without exact tag matches.
type LocalFile struct {
	id        string
	sequence  int
	fileKey   string
	path      string
	artist    string
	album     string
	title     string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewLocalFile creates a LocalFile record from scanned tag data.
func NewLocalFile(sequence int, path, artist, album, title, fileKey string) *LocalFile {
	now := time.Now()
	return &LocalFile{
		sequence:  sequence,
		fileKey:   fileKey,
		path:      path,
		artist:    artist,
		album:     album,
		title:     title,
		createdAt: now,
		updatedAt: now,
	}
}

func (f *LocalFile) ID() string            { return f.id }
func (f *LocalFile) Sequence() int         { return f.sequence }
func (f *LocalFile) FileKey() string       { return f.fileKey }
func (f *LocalFile) Path() string          { return f.path }
func (f *LocalFile) Artist() string        { return f.artist }
func (f *LocalFile) Album() string         { return f.album }
func (f *LocalFile) Title() string         { return f.title }
func (f *LocalFile) CreatedAt() time.Time  { return f.createdAt }
func (f *LocalFile) UpdatedAt() time.Time  { return f.updatedAt }
func (f *LocalFile) DeletedAt() *time.Time { return f.deletedAt }

func (f *LocalFile) SetID(id string)            { f.id = id }
func (f *LocalFile) SetUpdatedAt(t time.Time)   { f.updatedAt = t }
func (f *LocalFile) SetDeletedAt(t *time.Time)  { f.deletedAt = t }
func (f *LocalFile) SetCreatedAt(t time.Time)   { f.createdAt = t }

// Validate checks required fields before persistence.
func (f *LocalFile) Validate() error {
	if f.path == "" {
		return fmt.Errorf("local file path is required")
	}
	if f.fileKey == "" {
		return fmt.Errorf("local file key is required")
	}
	return nil
}

// PassKind distinguishes full from incremental reconciliation passes.
type PassKind string

const (
	PassFull        PassKind = "full"
	PassIncremental PassKind = "incremental"
)

// SyncPass is a database-backed record of one reconciliation pass.
type SyncPass struct {
	id        string
	sequence  int
	kind      PassKind
	startedAt time.Time
	finished  *time.Time
	created   int
	updated   int
	flagged   int
	errText   string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewSyncPass creates a SyncPass record for a pass starting now.
func NewSyncPass(sequence int, kind PassKind) *SyncPass {
	now := time.Now()
	return &SyncPass{
		sequence:  sequence,
		kind:      kind,
		startedAt: now,
		createdAt: now,
		updatedAt: now,
	}
}

func (p *SyncPass) ID() string            { return p.id }
func (p *SyncPass) Sequence() int         { return p.sequence }
func (p *SyncPass) Kind() PassKind        { return p.kind }
func (p *SyncPass) StartedAt() time.Time  { return p.startedAt }
func (p *SyncPass) FinishedAt() *time.Time { return p.finished }
func (p *SyncPass) CreatedNotes() int     { return p.created }
func (p *SyncPass) UpdatedNotes() int     { return p.updated }
func (p *SyncPass) FlaggedNotes() int     { return p.flagged }
func (p *SyncPass) Error() string         { return p.errText }
func (p *SyncPass) CreatedAt() time.Time  { return p.createdAt }
func (p *SyncPass) UpdatedAt() time.Time  { return p.updatedAt }
func (p *SyncPass) DeletedAt() *time.Time { return p.deletedAt }

func (p *SyncPass) SetID(id string)           { p.id = id }
func (p *SyncPass) SetStartedAt(t time.Time)  { p.startedAt = t }
func (p *SyncPass) SetUpdatedAt(t time.Time)  { p.updatedAt = t }
func (p *SyncPass) SetDeletedAt(t *time.Time) { p.deletedAt = t }

// Finish records the pass outcome.
func (p *SyncPass) Finish(created, updated, flagged int, err error) {
	now := time.Now()
	p.finished = &now
	p.created = created
	p.updated = updated
	p.flagged = flagged
	if err != nil {
		p.errText = err.Error()
	}
}

// SetOutcome restores counters when scanning rows from the database.
func (p *SyncPass) SetOutcome(finished *time.Time, created, updated, flagged int, errText string) {
	p.finished = finished
	p.created = created
	p.updated = updated
	p.flagged = flagged
	p.errText = errText
}

// Validate checks required fields before persistence.
func (p *SyncPass) Validate() error {
	switch p.kind {
	case PassFull, PassIncremental:
	default:
		return fmt.Errorf("invalid pass kind: %q", p.kind)
	}
	if p.startedAt.IsZero() {
		return fmt.Errorf("pass start time is required")
	}
	return nil
}
