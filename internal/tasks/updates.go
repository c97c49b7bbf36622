package tasks

import (
	"fmt"

	"tunedex/internal/models"
)

// ProgressUpdate represents a progress event during a sync pass.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pass phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Pass phase enumeration
type Phase int

const (
	EnsureDirs Phase = iota
	Freshen
	FetchArtists
	FetchAlbums
	FetchTracks
	FetchPlaylists
	IngestArtists
	IngestAlbums
	IngestTracks
	LibraryStatus
)

func (p Phase) String() string {
	switch p {
	case EnsureDirs:
		return "ensure_dirs"
	case Freshen:
		return "freshen"
	case FetchArtists:
		return "fetch_artists"
	case FetchAlbums:
		return "fetch_albums"
	case FetchTracks:
		return "fetch_tracks"
	case FetchPlaylists:
		return "fetch_playlists"
	case IngestArtists:
		return "ingest_artists"
	case IngestAlbums:
		return "ingest_albums"
	case IngestTracks:
		return "ingest_tracks"
	case LibraryStatus:
		return "library_status"
	default:
		return ""
	}
}

func fetchPhase(kind models.Kind) Phase {
	switch kind {
	case models.KindArtist:
		return FetchArtists
	case models.KindAlbum:
		return FetchAlbums
	default:
		return FetchTracks
	}
}

func ingestPhase(kind models.Kind) Phase {
	switch kind {
	case models.KindArtist:
		return IngestArtists
	case models.KindAlbum:
		return IngestAlbums
	default:
		return IngestTracks
	}
}

func ensureDirsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnsureDirs,
		Step:    1,
		Total:   1,
		Message: "Preparing vault folders...",
	}
}

func freshenUpdate(step, total int, tier string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Freshen,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Refreshing %s notes...", tier),
	}
}

func fetchUpdate(kind models.Kind) ProgressUpdate {
	return ProgressUpdate{
		Phase:   fetchPhase(kind),
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching saved %s from Spotify...", kind.Tier()),
	}
}

func fetchPlaylistsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: "Collecting playlist labels...",
	}
}

func ingestUpdate(kind models.Kind, step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ingestPhase(kind),
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, title),
	}
}

func ingestDoneUpdate(kind models.Kind, created, updated int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ingestPhase(kind),
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("✓ %s: %d created, %d updated", kind.Tier(), created, updated),
	}
}

func categoryFailedUpdate(kind models.Kind, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   fetchPhase(kind),
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("✗ %s skipped: %v", kind.Tier(), err),
	}
}

func libraryStatusUpdate(step, total int, tier string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LibraryStatus,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Recomputing library status for %s...", tier),
	}
}
