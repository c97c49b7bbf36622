// package services defines interface LibrarySource for remote music catalogs
//
// Spotify (direct), local file tags (future adapter)
package services

import (
	"context"

	"tunedex/internal/models"
)

// SourceOptions configures saved-collection fetches.
type SourceOptions struct {
	// RecentOnly limits the fetch to the most-recently-changed page of
	// results, bounded to a small fixed window, instead of paging through the
	// complete saved collection.
	RecentOnly bool
}

// LibrarySource is the abstraction over one remote catalog. Implementations
// return entities already normalized to the models package.
type LibrarySource interface {
	// Authenticate performs OAuth or API key authentication with the source.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// GetSavedArtists retrieves the artists the user follows.
	GetSavedArtists(ctx context.Context, opts SourceOptions) ([]*models.Artist, error)

	// GetSavedAlbums retrieves the albums saved in the user's library.
	GetSavedAlbums(ctx context.Context, opts SourceOptions) ([]*models.Album, error)

	// GetSavedTracks retrieves the tracks saved in the user's library.
	GetSavedTracks(ctx context.Context, opts SourceOptions) ([]*models.Track, error)

	// GetArtistsByID fetches artists by primary identifier, chunked to the
	// source's batch ceiling. Unknown identifiers are skipped, not errors.
	GetArtistsByID(ctx context.Context, ids []string) ([]*models.Artist, error)

	// GetAlbumsByID fetches albums by primary identifier.
	GetAlbumsByID(ctx context.Context, ids []string) ([]*models.Album, error)

	// GetTracksByID fetches tracks by primary identifier.
	GetTracksByID(ctx context.Context, ids []string) ([]*models.Track, error)

	// GetPrimaryID extracts the identifier this source can re-fetch an entity
	// by. Returns false when the set carries nothing usable.
	GetPrimaryID(ids models.EntityIDs) (string, bool)

	// GetPlaylistLabels maps the source's track identifiers to the names of
	// the user playlists containing them, for provenance labels.
	GetPlaylistLabels(ctx context.Context) (map[string][]string, error)

	// Name returns the name of the source (e.g. "Spotify")
	Name() string
}
