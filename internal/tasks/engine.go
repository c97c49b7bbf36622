package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"tunedex/internal/models"
	"tunedex/internal/services"
	"tunedex/internal/shared"
	"tunedex/internal/vault"
)

// FileMatcher locates a previously scanned local audio file for a track.
type FileMatcher interface {
	FindTrackFile(artist, album, title string) (string, bool)
}

// PassHistory persists sync pass outcomes.
type PassHistory interface {
	NextSequence() (int, error)
	Record(pass *models.SyncPass) error
	Finalize(pass *models.SyncPass) error
}

// SyncOpts configures a SyncEngine.
type SyncOpts struct {
	Workers  int           // concurrent note writers per tier
	Debounce time.Duration // minimum gap between incremental passes
	LockPath string        // pass lock file
}

// SyncResult summarizes a completed pass.
type SyncResult struct {
	Kind      models.PassKind
	StartedAt time.Time
	Duration  time.Duration

	Created   int // notes created
	Updated   int // notes rewritten
	Unchanged int // notes touched but identical
	Flagged   int // malformed notes skipped

	// CategoryErrors maps a tier to its fetch failure. A failed category is
	// skipped for the pass; the others proceed.
	CategoryErrors map[string]error

	WriteErrors int // per-note write failures, retried implicitly next pass
}

// Failed reports whether any data category was skipped.
func (r *SyncResult) Failed() bool {
	return len(r.CategoryErrors) > 0
}

// ErrorText joins category errors for persistence, empty on a clean pass.
func (r *SyncResult) ErrorText() string {
	if len(r.CategoryErrors) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r.CategoryErrors))
	for _, kind := range models.Kinds {
		if err, ok := r.CategoryErrors[kind.Tier()]; ok {
			parts = append(parts, fmt.Sprintf("%s: %v", kind.Tier(), err))
		}
	}
	return strings.Join(parts, "; ")
}

// SyncEngine reconciles the remote music catalog into the vault. Passes run
// tier by tier in dependency order with a hard barrier between tiers, so
// album and track notes always link against an up-to-date artist tier.
type SyncEngine struct {
	source   services.LibrarySource
	enricher *services.Enricher
	notes    *vault.Repository
	matcher  FileMatcher
	history  PassHistory
	guard    *PassGuard
	logger   *log.Logger
	workers  int
	now      func() time.Time
}

// NewSyncEngine creates an engine over a library source and a vault.
func NewSyncEngine(source services.LibrarySource, enricher *services.Enricher, notes *vault.Repository, opts SyncOpts, logger *log.Logger) *SyncEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 5
	}
	if workers > 10 {
		workers = 10
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 10 * time.Second
	}
	lockPath := opts.LockPath
	if lockPath == "" {
		lockPath = "./tunedex.lock"
	}

	return &SyncEngine{
		source:   source,
		enricher: enricher,
		notes:    notes,
		guard:    NewPassGuard(lockPath, debounce),
		logger:   logger,
		workers:  workers,
		now:      time.Now,
	}
}

// SetMatcher wires the local audio file matcher, optional.
func (e *SyncEngine) SetMatcher(m FileMatcher) { e.matcher = m }

// SetHistory wires pass persistence, optional.
func (e *SyncEngine) SetHistory(h PassHistory) { e.history = h }

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *SyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// FullSync runs a complete pass: ensure folders, freshen existing notes,
// fetch and ingest each tier, then recompute library membership across every
// note of each successfully fetched tier.
func (e *SyncEngine) FullSync(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: library source not initialized", shared.ErrServiceUnavailable)
	}
	if err := e.guard.Acquire(); err != nil {
		return nil, err
	}
	defer e.guard.Release()

	result := e.newResult(models.PassFull)
	pass := e.beginPass(models.PassFull)

	e.sendProgress(progress, ensureDirsUpdate())
	if err := e.notes.EnsureDirs(); err != nil {
		e.finishPass(pass, result, err)
		return nil, err
	}

	indexes, err := e.buildIndexes(result)
	if err != nil {
		e.finishPass(pass, result, err)
		return nil, err
	}

	e.freshen(ctx, indexes, result, progress)

	saved := make(map[models.Kind]map[*vault.Note]struct{}, len(models.Kinds))
	labels := e.fetchLabels(ctx, progress)

	for _, kind := range models.Kinds {
		set, err := e.syncTier(ctx, kind, services.SourceOptions{}, indexes, labels, result, progress)
		if err != nil {
			result.CategoryErrors[kind.Tier()] = err
			e.logger.Error("category fetch failed, skipping tier", "tier", kind.Tier(), "error", err)
			e.sendProgress(progress, categoryFailedUpdate(kind, err))
			continue
		}
		saved[kind] = set
	}

	e.recomputeLibraryStatus(indexes, saved, result, progress)

	result.Duration = e.now().Sub(result.StartedAt)
	e.finishPass(pass, result, nil)
	return result, nil
}

// IncrementalSync runs a cheap pass over the most recently saved entities.
// It never freshens and never revokes library membership.
func (e *SyncEngine) IncrementalSync(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: library source not initialized", shared.ErrServiceUnavailable)
	}
	if err := e.guard.AcquireIncremental(); err != nil {
		return nil, err
	}
	defer e.guard.Release()

	result := e.newResult(models.PassIncremental)
	pass := e.beginPass(models.PassIncremental)

	e.sendProgress(progress, ensureDirsUpdate())
	if err := e.notes.EnsureDirs(); err != nil {
		e.finishPass(pass, result, err)
		return nil, err
	}

	indexes, err := e.buildIndexes(result)
	if err != nil {
		e.finishPass(pass, result, err)
		return nil, err
	}

	for _, kind := range models.Kinds {
		if _, err := e.syncTier(ctx, kind, services.SourceOptions{RecentOnly: true}, indexes, nil, result, progress); err != nil {
			result.CategoryErrors[kind.Tier()] = err
			e.logger.Error("category fetch failed, skipping tier", "tier", kind.Tier(), "error", err)
			e.sendProgress(progress, categoryFailedUpdate(kind, err))
		}
	}

	result.Duration = e.now().Sub(result.StartedAt)
	e.finishPass(pass, result, nil)
	return result, nil
}

func (e *SyncEngine) newResult(kind models.PassKind) *SyncResult {
	return &SyncResult{
		Kind:           kind,
		StartedAt:      e.now(),
		CategoryErrors: make(map[string]error),
	}
}

func (e *SyncEngine) beginPass(kind models.PassKind) *models.SyncPass {
	if e.history == nil {
		return nil
	}
	seq, err := e.history.NextSequence()
	if err != nil {
		e.logger.Warn("pass history unavailable", "error", err)
		return nil
	}
	pass := models.NewSyncPass(seq, kind)
	if err := e.history.Record(pass); err != nil {
		e.logger.Warn("failed to record pass start", "error", err)
		return nil
	}
	return pass
}

func (e *SyncEngine) finishPass(pass *models.SyncPass, result *SyncResult, fatal error) {
	if pass == nil || e.history == nil {
		return
	}
	err := fatal
	if err == nil && result.Failed() {
		err = errors.New(result.ErrorText())
	}
	pass.Finish(result.Created, result.Updated, result.Flagged, err)
	if histErr := e.history.Finalize(pass); histErr != nil {
		e.logger.Warn("failed to record pass outcome", "error", histErr)
	}
}

// buildIndexes reads every tier from disk into a fresh pass-scoped index.
func (e *SyncEngine) buildIndexes(result *SyncResult) (map[models.Kind]*tierIndex, error) {
	indexes := make(map[models.Kind]*tierIndex, len(models.Kinds))
	for _, kind := range models.Kinds {
		notes, flagged, err := e.notes.ReadTier(kind)
		if err != nil {
			return nil, err
		}
		result.Flagged += flagged
		indexes[kind] = newTierIndex(notes)
	}
	return indexes, nil
}

// freshen repairs existing notes before anything is fetched: entity fields
// run back through the enricher so notes created before some metadata was
// available pick it up, and stored relationship references heal, a bare
// display string becoming a wiki link once the referenced note exists. Only
// notes whose rendering actually differs are rewritten.
func (e *SyncEngine) freshen(ctx context.Context, indexes map[models.Kind]*tierIndex, result *SyncResult, progress chan<- ProgressUpdate) {
	artistIx := indexes[models.KindArtist]
	albumIx := indexes[models.KindAlbum]

	for step, kind := range models.Kinds {
		e.sendProgress(progress, freshenUpdate(step+1, len(models.Kinds), kind.Tier()))
		notes := indexes[kind].notes()
		if len(notes) == 0 {
			continue
		}

		e.enrichNotes(ctx, kind, notes, indexes)

		for _, note := range notes {
			if kind != models.KindArtist {
				healArtistRefs(note, artistIx)
			}
			if kind == models.KindTrack {
				healAlbumRef(note, albumIx)
			}
			if changed, err := e.notes.Write(note, e.now()); err != nil {
				e.logger.Warn("failed to rewrite refreshed note", "path", note.Path(), "error", err)
				result.WriteErrors++
			} else if changed {
				result.Updated++
			}
		}
	}
}

// enrichNotes reconstructs a tier's entities from disk, enriches them as one
// batch, and overlays the results back onto the notes. Relationship fields the
// enrichment learned fold in additively, so a track stored without an album
// gains its link here once the canonical record knows one.
func (e *SyncEngine) enrichNotes(ctx context.Context, kind models.Kind, notes []*vault.Note, indexes map[models.Kind]*tierIndex) {
	if e.enricher == nil {
		return
	}
	now := e.now()

	switch kind {
	case models.KindArtist:
		artists := make([]*models.Artist, len(notes))
		for i, n := range notes {
			artists[i] = &models.Artist{MusicEntity: vault.NoteEntity(n)}
		}
		e.enricher.EnrichArtists(ctx, artists)
		for i, n := range notes {
			vault.ApplyEntityFields(n, &artists[i].MusicEntity, now)
		}

	case models.KindAlbum:
		albums := make([]*models.Album, len(notes))
		for i, n := range notes {
			albums[i] = &models.Album{MusicEntity: vault.NoteEntity(n)}
		}
		e.enricher.EnrichAlbums(ctx, albums)
		resolveArtist := indexes[models.KindArtist].linkFunc()
		for i, n := range notes {
			vault.ApplyEntityFields(n, &albums[i].MusicEntity, now)
			vault.MergeAlbumRelations(n, albums[i], resolveArtist)
		}

	default:
		tracks := make([]*models.Track, len(notes))
		for i, n := range notes {
			tracks[i] = &models.Track{MusicEntity: vault.NoteEntity(n)}
		}
		e.enricher.EnrichTracks(ctx, tracks)
		resolveArtist := indexes[models.KindArtist].linkFunc()
		resolveAlbum := indexes[models.KindAlbum].linkFunc()
		for i, n := range notes {
			vault.ApplyEntityFields(n, &tracks[i].MusicEntity, now)
			vault.MergeTrackRelations(n, tracks[i], resolveArtist, resolveAlbum)
		}
	}
}

func healArtistRefs(note *vault.Note, artists *tierIndex) bool {
	refs := vault.ArtistRefs(note)
	if len(refs) == 0 {
		return false
	}

	healed := false
	for i, ref := range refs {
		if ref.Target != "" {
			continue
		}
		if target, ok := artists.resolve(nil, ref.Label); ok {
			refs[i].Target = target
			healed = true
		}
	}
	if healed {
		vault.SetArtistRefs(note, refs)
	}
	return healed
}

func healAlbumRef(note *vault.Note, albums *tierIndex) bool {
	ref := vault.AlbumRef(note)
	if ref == nil || ref.Target != "" {
		return false
	}
	target, ok := albums.resolve(nil, ref.Label)
	if !ok {
		return false
	}
	ref.Target = target
	vault.SetAlbumRef(note, *ref)
	return true
}

// noteJob is one entity's upsert, prepared by the tier fetch.
type noteJob struct {
	title string
	ids   models.EntityIDs
	apply func(n *vault.Note)
}

// workItem groups every job that resolved to the same note, so the parallel
// writers never touch one note from two goroutines.
type workItem struct {
	note    *vault.Note
	created bool
	applies []func(n *vault.Note)
}

// syncTier fetches one tier and upserts its notes, returning the set of
// notes backed by a currently saved entity.
func (e *SyncEngine) syncTier(
	ctx context.Context,
	kind models.Kind,
	opts services.SourceOptions,
	indexes map[models.Kind]*tierIndex,
	labels map[string][]string,
	result *SyncResult,
	progress chan<- ProgressUpdate,
) (map[*vault.Note]struct{}, error) {
	e.sendProgress(progress, fetchUpdate(kind))

	ti := indexes[kind]
	jobs, err := e.fetchTier(ctx, kind, opts, indexes, labels)
	if err != nil {
		return nil, err
	}

	items := e.planTier(kind, jobs, ti, result)
	e.runTier(ctx, kind, items, result, progress)

	saved := make(map[*vault.Note]struct{}, len(items))
	for _, item := range items {
		saved[item.note] = struct{}{}
	}
	e.sendProgress(progress, ingestDoneUpdate(kind, result.Created, result.Updated))
	return saved, nil
}

// fetchTier pulls and enriches one tier's saved entities and turns them into
// note upsert jobs. Relationship fields resolve against the tiers ingested
// before this one.
func (e *SyncEngine) fetchTier(
	ctx context.Context,
	kind models.Kind,
	opts services.SourceOptions,
	indexes map[models.Kind]*tierIndex,
	labels map[string][]string,
) ([]noteJob, error) {
	now := e.now()
	ti := indexes[kind]

	switch kind {
	case models.KindArtist:
		artists, err := e.source.GetSavedArtists(ctx, opts)
		if err != nil {
			return nil, err
		}
		enrichFresh(e, ctx, ti, artists, e.enricher.EnrichArtists)

		jobs := make([]noteJob, 0, len(artists))
		for _, artist := range artists {
			jobs = append(jobs, noteJob{
				title: artist.Title,
				ids:   artist.IDs,
				apply: func(n *vault.Note) { vault.ApplyArtist(n, artist, now) },
			})
		}
		return jobs, nil

	case models.KindAlbum:
		albums, err := e.source.GetSavedAlbums(ctx, opts)
		if err != nil {
			return nil, err
		}
		enrichFresh(e, ctx, ti, albums, e.enricher.EnrichAlbums)

		resolveArtist := indexes[models.KindArtist].linkFunc()
		jobs := make([]noteJob, 0, len(albums))
		for _, album := range albums {
			jobs = append(jobs, noteJob{
				title: album.Title,
				ids:   album.IDs,
				apply: func(n *vault.Note) { vault.ApplyAlbum(n, album, resolveArtist, now) },
			})
		}
		return jobs, nil

	default:
		tracks, err := e.source.GetSavedTracks(ctx, opts)
		if err != nil {
			return nil, err
		}
		enrichFresh(e, ctx, ti, tracks, e.enricher.EnrichTracks)

		resolveArtist := indexes[models.KindArtist].linkFunc()
		resolveAlbum := indexes[models.KindAlbum].linkFunc()

		jobs := make([]noteJob, 0, len(tracks))
		for _, track := range tracks {
			if labels != nil {
				if id, ok := e.source.GetPrimaryID(track.IDs); ok {
					for _, label := range labels[id] {
						track.Sources.AddLabel(label)
					}
				}
			}
			if e.matcher != nil && track.Sources.Local == "" {
				artist := ""
				if len(track.Artists) > 0 {
					artist = track.Artists[0].Title
				}
				album := ""
				if track.Album != nil {
					album = track.Album.Title
				}
				if path, ok := e.matcher.FindTrackFile(artist, album, track.Title); ok {
					track.Sources.Local = path
				}
			}

			jobs = append(jobs, noteJob{
				title: track.Title,
				ids:   track.IDs,
				apply: func(n *vault.Note) { vault.ApplyTrack(n, track, resolveArtist, resolveAlbum, now) },
			})
		}
		return jobs, nil
	}
}

// enrichFresh enriches only the entities not yet represented on disk; the
// represented ones were already refreshed by the freshen step.
func enrichFresh[T models.Entity](e *SyncEngine, ctx context.Context, ti *tierIndex, items []T, enrich func(context.Context, []T) []T) {
	if e.enricher == nil {
		return
	}
	var fresh []T
	for _, item := range items {
		if _, ok := ti.lookup(item.Meta().IDs); !ok {
			fresh = append(fresh, item)
		}
	}
	if len(fresh) > 0 {
		enrich(ctx, fresh)
	}
}

// planTier resolves every job against the tier index, allocating notes for
// entities not yet represented. Allocation and index registration are
// single-threaded here; only the note writes fan out.
func (e *SyncEngine) planTier(kind models.Kind, jobs []noteJob, ti *tierIndex, result *SyncResult) []workItem {
	var items []workItem
	byNote := make(map[*vault.Note]int)

	for _, job := range jobs {
		note, ok := ti.lookup(job.ids)
		created := false
		if !ok {
			allocated, err := e.notes.Allocate(kind, job.title)
			if err != nil {
				e.logger.Error("cannot place note, skipping entity", "tier", kind.Tier(), "title", job.title, "error", err)
				result.WriteErrors++
				continue
			}
			note = allocated
			created = true
			ti.register(note, job.ids)
		}

		if idx, seen := byNote[note]; seen {
			items[idx].applies = append(items[idx].applies, job.apply)
			continue
		}
		byNote[note] = len(items)
		items = append(items, workItem{note: note, created: created, applies: []func(n *vault.Note){job.apply}})
	}

	return items
}

// runTier writes the planned notes through a bounded worker pool.
func (e *SyncEngine) runTier(ctx context.Context, kind models.Kind, items []workItem, result *SyncResult, progress chan<- ProgressUpdate) {
	if len(items) == 0 {
		return
	}

	work := make(chan workItem, len(items))
	var wg sync.WaitGroup
	var mu sync.Mutex

	step := 0
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				select {
				case <-ctx.Done():
					return
				default:
				}

				for _, apply := range item.applies {
					apply(item.note)
				}

				changed, err := e.notes.Write(item.note, e.now())

				mu.Lock()
				step++
				e.sendProgress(progress, ingestUpdate(kind, step, len(items), item.note.Name()))
				switch {
				case err != nil:
					e.logger.Warn("note write failed", "path", item.note.Path(), "error", err)
					result.WriteErrors++
				case item.created:
					result.Created++
				case changed:
					result.Updated++
				default:
					result.Unchanged++
				}
				mu.Unlock()
			}
		}()
	}

	for _, item := range items {
		work <- item
	}
	close(work)
	wg.Wait()
}

// fetchLabels collects playlist names per track identifier. Label collection
// is best-effort; a failure only costs provenance labels.
func (e *SyncEngine) fetchLabels(ctx context.Context, progress chan<- ProgressUpdate) map[string][]string {
	e.sendProgress(progress, fetchPlaylistsUpdate())
	labels, err := e.source.GetPlaylistLabels(ctx)
	if err != nil {
		e.logger.Warn("playlist label collection failed", "error", err)
		return nil
	}
	return labels
}

// recomputeLibraryStatus flips in_library across every note of each tier
// whose fetch succeeded: present in this pass's saved set means true,
// everything else false. Skipped categories keep their stored flags.
func (e *SyncEngine) recomputeLibraryStatus(
	indexes map[models.Kind]*tierIndex,
	saved map[models.Kind]map[*vault.Note]struct{},
	result *SyncResult,
	progress chan<- ProgressUpdate,
) {
	for step, kind := range models.Kinds {
		set, fetched := saved[kind]
		if !fetched {
			continue
		}
		e.sendProgress(progress, libraryStatusUpdate(step+1, len(models.Kinds), kind.Tier()))

		for _, note := range indexes[kind].notes() {
			_, inLibrary := set[note]
			if vault.NoteInLibrary(note) == inLibrary {
				continue
			}
			vault.SetInLibrary(note, inLibrary)
			if _, err := e.notes.Write(note, e.now()); err != nil {
				e.logger.Warn("failed to update library status", "path", note.Path(), "error", err)
				result.WriteErrors++
				continue
			}
			result.Updated++
		}
	}
}
