// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"tunedex/internal/models"
	"tunedex/internal/services"
)

// MockLibrarySource is a configurable test double for [services.LibrarySource].
//
// The zero value behaves as an authenticated source with an empty library.
// Assign the function fields to script specific behavior per test.
type MockLibrarySource struct {
	AuthenticateFunc   func(ctx context.Context, credentials map[string]string) error
	SavedArtistsFunc   func(ctx context.Context, opts services.SourceOptions) ([]*models.Artist, error)
	SavedAlbumsFunc    func(ctx context.Context, opts services.SourceOptions) ([]*models.Album, error)
	SavedTracksFunc    func(ctx context.Context, opts services.SourceOptions) ([]*models.Track, error)
	ArtistsByIDFunc    func(ctx context.Context, ids []string) ([]*models.Artist, error)
	AlbumsByIDFunc     func(ctx context.Context, ids []string) ([]*models.Album, error)
	TracksByIDFunc     func(ctx context.Context, ids []string) ([]*models.Track, error)
	PlaylistLabelsFunc func(ctx context.Context) (map[string][]string, error)
	PrimaryIDFunc      func(ids models.EntityIDs) (string, bool)
}

func (m *MockLibrarySource) Authenticate(ctx context.Context, credentials map[string]string) error {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, credentials)
	}
	return nil
}

func (m *MockLibrarySource) GetSavedArtists(ctx context.Context, opts services.SourceOptions) ([]*models.Artist, error) {
	if m.SavedArtistsFunc != nil {
		return m.SavedArtistsFunc(ctx, opts)
	}
	return []*models.Artist{}, nil
}

func (m *MockLibrarySource) GetSavedAlbums(ctx context.Context, opts services.SourceOptions) ([]*models.Album, error) {
	if m.SavedAlbumsFunc != nil {
		return m.SavedAlbumsFunc(ctx, opts)
	}
	return []*models.Album{}, nil
}

func (m *MockLibrarySource) GetSavedTracks(ctx context.Context, opts services.SourceOptions) ([]*models.Track, error) {
	if m.SavedTracksFunc != nil {
		return m.SavedTracksFunc(ctx, opts)
	}
	return []*models.Track{}, nil
}

func (m *MockLibrarySource) GetArtistsByID(ctx context.Context, ids []string) ([]*models.Artist, error) {
	if m.ArtistsByIDFunc != nil {
		return m.ArtistsByIDFunc(ctx, ids)
	}
	return []*models.Artist{}, nil
}

func (m *MockLibrarySource) GetAlbumsByID(ctx context.Context, ids []string) ([]*models.Album, error) {
	if m.AlbumsByIDFunc != nil {
		return m.AlbumsByIDFunc(ctx, ids)
	}
	return []*models.Album{}, nil
}

func (m *MockLibrarySource) GetTracksByID(ctx context.Context, ids []string) ([]*models.Track, error) {
	if m.TracksByIDFunc != nil {
		return m.TracksByIDFunc(ctx, ids)
	}
	return []*models.Track{}, nil
}

func (m *MockLibrarySource) GetPrimaryID(ids models.EntityIDs) (string, bool) {
	if m.PrimaryIDFunc != nil {
		return m.PrimaryIDFunc(ids)
	}
	if id := ids[models.IDSpotifyID]; id != "" {
		return id, true
	}
	return "", false
}

func (m *MockLibrarySource) GetPlaylistLabels(ctx context.Context) (map[string][]string, error) {
	if m.PlaylistLabelsFunc != nil {
		return m.PlaylistLabelsFunc(ctx)
	}
	return map[string][]string{}, nil
}

func (m *MockLibrarySource) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
