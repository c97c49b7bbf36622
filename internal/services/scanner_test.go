package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tunedex/internal/models"
)

type mockFileStore struct {
	files []*models.LocalFile
	err   error
}

func (m *mockFileStore) Upsert(file *models.LocalFile) error {
	if m.err != nil {
		return m.err
	}
	m.files = append(m.files, file)
	return nil
}

func writeAudioFile(t *testing.T, root string, segments ...string) {
	t.Helper()
	path := filepath.Join(append([]string{root}, segments...)...)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

func TestLocalScanner(t *testing.T) {
	t.Run("Indexes Artist Album Track Layout", func(t *testing.T) {
		root := t.TempDir()
		writeAudioFile(t, root, "Radiohead", "Kid A", "01 Everything in Its Right Place.flac")
		writeAudioFile(t, root, "Radiohead", "Kid A", "04 - How to Disappear Completely.mp3")
		writeAudioFile(t, root, "Burial", "Untrue", "02. Archangel.ogg")

		store := &mockFileStore{}
		scanner := NewLocalScanner(store, nil)

		result, err := scanner.Scan(context.Background(), root)
		if err != nil {
			t.Fatalf("scan failed: %v", err)
		}

		if result.Scanned != 3 {
			t.Errorf("expected 3 scanned, got %d", result.Scanned)
		}

		byTitle := map[string]*models.LocalFile{}
		for _, f := range store.files {
			byTitle[f.Title()] = f
		}

		track, ok := byTitle["Everything in Its Right Place"]
		if !ok {
			t.Fatal("expected track number stripped from title")
		}
		if track.Artist() != "Radiohead" || track.Album() != "Kid A" {
			t.Errorf("unexpected artist/album: %s / %s", track.Artist(), track.Album())
		}
		if track.FileKey() == "" {
			t.Error("expected a normalized file key")
		}
		if _, ok := byTitle["How to Disappear Completely"]; !ok {
			t.Error("expected dash-separated track number stripped")
		}
		if _, ok := byTitle["Archangel"]; !ok {
			t.Error("expected dot-separated track number stripped")
		}
	})

	t.Run("Skips Non-Audio And Shallow Files", func(t *testing.T) {
		root := t.TempDir()
		writeAudioFile(t, root, "Radiohead", "Kid A", "cover.jpg")
		writeAudioFile(t, root, "Radiohead", "Kid A", "03 The National Anthem.flac")
		writeAudioFile(t, root, "loose-track.mp3")
		writeAudioFile(t, root, "Radiohead", "stray.flac")

		store := &mockFileStore{}
		scanner := NewLocalScanner(store, nil)

		result, err := scanner.Scan(context.Background(), root)
		if err != nil {
			t.Fatalf("scan failed: %v", err)
		}

		if result.Scanned != 1 {
			t.Errorf("expected 1 scanned, got %d", result.Scanned)
		}
		if result.Skipped != 2 {
			t.Errorf("expected 2 skipped, got %d", result.Skipped)
		}
	})

	t.Run("Handles Nested Disc Directories", func(t *testing.T) {
		root := t.TempDir()
		writeAudioFile(t, root, "Boxed", "Sets", "Disc 1", "101 Opener.flac")

		store := &mockFileStore{}
		scanner := NewLocalScanner(store, nil)

		if _, err := scanner.Scan(context.Background(), root); err != nil {
			t.Fatalf("scan failed: %v", err)
		}

		if len(store.files) != 1 {
			t.Fatalf("expected 1 file, got %d", len(store.files))
		}
		if store.files[0].Album() != "Disc 1" || store.files[0].Artist() != "Sets" {
			t.Errorf("expected nearest two directories as artist/album, got %s / %s",
				store.files[0].Artist(), store.files[0].Album())
		}
	})

	t.Run("Store Failures Counted Not Fatal", func(t *testing.T) {
		root := t.TempDir()
		writeAudioFile(t, root, "Radiohead", "Kid A", "05 Treefingers.flac")

		store := &mockFileStore{err: errors.New("disk full")}
		scanner := NewLocalScanner(store, nil)

		result, err := scanner.Scan(context.Background(), root)
		if err != nil {
			t.Fatalf("scan should not fail on store errors: %v", err)
		}
		if result.Failed != 1 || result.Scanned != 0 {
			t.Errorf("expected 1 failed and 0 scanned, got %d and %d", result.Failed, result.Scanned)
		}
	})

	t.Run("Cancelled Context Stops Walk", func(t *testing.T) {
		root := t.TempDir()
		writeAudioFile(t, root, "Radiohead", "Kid A", "06 Optimistic.flac")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		scanner := NewLocalScanner(&mockFileStore{}, nil)
		if _, err := scanner.Scan(ctx, root); err == nil {
			t.Error("expected error from cancelled context")
		}
	})
}

func TestTrimTrackNumber(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"Space Separator", "01 Idioteque", "Idioteque"},
		{"Dash Separator", "01 - Idioteque", "Idioteque"},
		{"Dot Separator", "01. Idioteque", "Idioteque"},
		{"No Number", "Idioteque", "Idioteque"},
		{"Number Only", "1969", "1969"},
		{"Long Number Prefix Kept", "20000 Leagues", "20000 Leagues"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := trimTrackNumber(tc.in); got != tc.want {
				t.Errorf("trimTrackNumber(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
