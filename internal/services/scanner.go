package services

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"tunedex/internal/models"
	"tunedex/internal/shared"
)

// audioExtensions lists the file extensions treated as audio during a scan.
var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".flac": {},
	".m4a":  {},
	".ogg":  {},
	".opus": {},
	".wav":  {},
	".aiff": {},
}

// FileStore persists scanned audio files.
type FileStore interface {
	Upsert(file *models.LocalFile) error
}

// ScanResult summarizes one scan of a music directory.
type ScanResult struct {
	Scanned int // audio files indexed
	Skipped int // audio files outside the artist/album/track layout
	Failed  int // files that could not be stored
}

// LocalScanner walks a music directory and indexes audio files for track matching.
//
// The directory is expected to follow an artist/album/track layout. Files
// nested too shallow to carry both an artist and an album segment are skipped
// rather than guessed at.
type LocalScanner struct {
	store  FileStore
	logger *log.Logger
}

// NewLocalScanner creates a scanner that stores results in the given store.
func NewLocalScanner(store FileStore, logger *log.Logger) *LocalScanner {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LocalScanner{store: store, logger: logger}
}

// Scan walks root and upserts every recognized audio file. Files already
// indexed keep their identity; retagged files are refreshed in place.
func (s *LocalScanner) Scan(ctx context.Context, root string) (*ScanResult, error) {
	result := &ScanResult{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		artist, album, title, ok := splitTrackPath(root, path)
		if !ok {
			s.logger.Debug("skipping file outside artist/album layout", "path", path)
			result.Skipped++
			return nil
		}

		key := shared.NormalizeFileKey(artist, album, title)
		file := models.NewLocalFile(0, path, artist, album, title, key)
		if err := s.store.Upsert(file); err != nil {
			s.logger.Warn("failed to index file", "path", path, "error", err)
			result.Failed++
			return nil
		}

		result.Scanned++
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("%w: %v", shared.ErrScanFailed, err)
	}

	return result, nil
}

// splitTrackPath derives artist, album and title from a file's position under
// root. The last three path segments are artist/album/file; the title is the
// file name with its extension and any leading track number stripped.
func splitTrackPath(root, path string) (artist, album, title string, ok bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", "", "", false
	}

	segments := strings.Split(filepath.ToSlash(rel), "/")
	if len(segments) < 3 {
		return "", "", "", false
	}

	artist = segments[len(segments)-3]
	album = segments[len(segments)-2]
	name := segments[len(segments)-1]

	title = strings.TrimSuffix(name, filepath.Ext(name))
	title = trimTrackNumber(title)
	if artist == "" || album == "" || title == "" {
		return "", "", "", false
	}

	return artist, album, title, true
}

// trimTrackNumber strips a leading "NN", "NN ", "NN - " or "NN." track prefix.
func trimTrackNumber(name string) string {
	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	if i == 0 || i > 3 {
		return name
	}

	rest := name[i:]
	for _, prefix := range []string{" - ", ". ", " ", "-", "."} {
		if strings.HasPrefix(rest, prefix) {
			return strings.TrimPrefix(rest, prefix)
		}
	}
	return name
}
