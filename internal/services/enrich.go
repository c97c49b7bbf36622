package services

import (
	"context"

	"github.com/charmbracelet/log"

	"tunedex/internal/index"
	"tunedex/internal/models"
	"tunedex/internal/shared"
)

// Enricher re-fetches canonical records for entities that carry a usable
// primary identifier and folds the results back in. Correlation between the
// request and the response always goes through identifier lookup, never
// array position: the API omits unknown identifiers from its responses.
type Enricher struct {
	source LibrarySource
	logger *log.Logger
}

// NewEnricher creates an enricher backed by the given source.
func NewEnricher(source LibrarySource, logger *log.Logger) *Enricher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Enricher{source: source, logger: logger}
}

// EnrichArtists refreshes artist metadata in place. Artists with no usable
// identifier are passed through untouched. A fetch failure leaves the whole
// batch unenriched rather than failing the caller.
func (e *Enricher) EnrichArtists(ctx context.Context, artists []*models.Artist) []*models.Artist {
	enrichBatch(e, ctx, artists, e.source.GetArtistsByID, func(item, match *models.Artist) []models.IDKind {
		return item.Meta().Merge(*match.Meta())
	})
	return artists
}

// EnrichAlbums refreshes album metadata in place, including the artist and
// track listing when the stored record lacks them.
func (e *Enricher) EnrichAlbums(ctx context.Context, albums []*models.Album) []*models.Album {
	enrichBatch(e, ctx, albums, e.source.GetAlbumsByID, func(item, match *models.Album) []models.IDKind {
		disagreements := item.Meta().Merge(*match.Meta())
		item.MergeRelated(match)
		return disagreements
	})
	return albums
}

// EnrichTracks refreshes track metadata in place, including the album
// relationship when the stored record lacks one.
func (e *Enricher) EnrichTracks(ctx context.Context, tracks []*models.Track) []*models.Track {
	enrichBatch(e, ctx, tracks, e.source.GetTracksByID, func(item, match *models.Track) []models.IDKind {
		disagreements := item.Meta().Merge(*match.Meta())
		item.MergeRelated(match)
		return disagreements
	})
	return tracks
}

func enrichBatch[T interface {
	models.Entity
	comparable
}](e *Enricher, ctx context.Context, items []T, fetch func(context.Context, []string) ([]T, error), merge func(item, match T) []models.IDKind) {
	var ids []string
	for _, item := range items {
		if id, ok := e.source.GetPrimaryID(item.Meta().IDs); ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}

	fetched, err := fetch(ctx, ids)
	if err != nil {
		e.logger.Warn("enrichment fetch failed, keeping existing metadata", "source", e.source.Name(), "error", err)
		return
	}

	ix := index.New[T]()
	for _, f := range fetched {
		ix.Set(f.Meta().IDs, f)
	}

	for _, item := range items {
		match, ok := ix.Get(item.Meta().IDs)
		if !ok {
			continue
		}
		disagreements := merge(item, match)
		for _, kind := range disagreements {
			e.logger.Debug("identifier disagreement, keeping first seen value",
				"kind", kind, "title", item.Meta().Title, "source", e.source.Name())
		}
	}
}
