package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"tunedex/internal/models"
	"tunedex/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func newTestFile(path, artist, album, title string) *models.LocalFile {
	key := shared.NormalizeFileKey(artist, album, title)
	return models.NewLocalFile(0, path, artist, album, title, key)
}

func TestLocalFileRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLocalFileRepository(db)
		file := newTestFile("/music/Radiohead/Kid A/01 Everything in Its Right Place.flac", "Radiohead", "Kid A", "Everything in Its Right Place")

		if err := repo.Create(file); err != nil {
			t.Fatalf("failed to create local file: %v", err)
		}

		if file.ID() == "" {
			t.Error("file ID should be set after creation")
		}
	})

	t.Run("Create Rejects Missing Path", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLocalFileRepository(db)
		file := newTestFile("", "Radiohead", "Kid A", "Idioteque")

		if err := repo.Create(file); err == nil {
			t.Error("expected validation error for empty path")
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLocalFileRepository(db)
		file := newTestFile("/music/a.flac", "Radiohead", "Kid A", "Idioteque")

		if err := repo.Create(file); err != nil {
			t.Fatalf("failed to create local file: %v", err)
		}

		retrieved, err := repo.Get(file.ID())
		if err != nil {
			t.Fatalf("failed to get local file: %v", err)
		}

		if retrieved.Path() != "/music/a.flac" {
			t.Errorf("expected path /music/a.flac, got %s", retrieved.Path())
		}
		if retrieved.FileKey() != file.FileKey() {
			t.Errorf("expected file key %s, got %s", file.FileKey(), retrieved.FileKey())
		}
	})

	t.Run("GetByFileKey Normalizes Lookup", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLocalFileRepository(db)
		file := newTestFile("/music/b.flac", "Sigur Rós", "Ágætis byrjun", "Svefn-g-englar")

		if err := repo.Create(file); err != nil {
			t.Fatalf("failed to create local file: %v", err)
		}

		key := shared.NormalizeFileKey("sigur rós", "ágætis byrjun", "svefn g englar")
		retrieved, err := repo.GetByFileKey(key)
		if err != nil {
			t.Fatalf("failed to get by file key: %v", err)
		}

		if retrieved.Path() != "/music/b.flac" {
			t.Errorf("expected path /music/b.flac, got %s", retrieved.Path())
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLocalFileRepository(db)
		file := newTestFile("/music/c.flac", "Radiohead", "Kid A", "Optimistic")

		if err := repo.Create(file); err != nil {
			t.Fatalf("failed to create local file: %v", err)
		}

		renamed := models.NewLocalFile(file.Sequence(), file.Path(), "Radiohead", "Kid A", "Optimistic (Remaster)", shared.NormalizeFileKey("Radiohead", "Kid A", "Optimistic (Remaster)"))
		renamed.SetID(file.ID())

		if err := repo.Update(renamed); err != nil {
			t.Fatalf("failed to update local file: %v", err)
		}

		retrieved, err := repo.Get(file.ID())
		if err != nil {
			t.Fatalf("failed to get local file: %v", err)
		}
		if retrieved.Title() != "Optimistic (Remaster)" {
			t.Errorf("expected updated title, got %s", retrieved.Title())
		}
	})

	t.Run("Upsert Keeps Identity On Rescan", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLocalFileRepository(db)
		file := newTestFile("/music/d.flac", "Boards of Canada", "Geogaddi", "1969")

		if err := repo.Upsert(file); err != nil {
			t.Fatalf("first upsert failed: %v", err)
		}

		rescanned := newTestFile("/music/d.flac", "Boards of Canada", "Geogaddi", "Nineteen Sixty Nine")
		if err := repo.Upsert(rescanned); err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}

		if rescanned.ID() != file.ID() {
			t.Errorf("rescan should keep ID %s, got %s", file.ID(), rescanned.ID())
		}

		files, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list local files: %v", err)
		}
		if len(files) != 1 {
			t.Fatalf("expected 1 file after rescan, got %d", len(files))
		}
		if files[0].Title() != "Nineteen Sixty Nine" {
			t.Errorf("expected rescanned title, got %s", files[0].Title())
		}
	})

	t.Run("Upsert Revives Deleted Row", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLocalFileRepository(db)
		file := newTestFile("/music/e.flac", "Burial", "Untrue", "Archangel")

		if err := repo.Create(file); err != nil {
			t.Fatalf("failed to create local file: %v", err)
		}
		if err := repo.Delete(file.ID()); err != nil {
			t.Fatalf("failed to delete local file: %v", err)
		}

		rescanned := newTestFile("/music/e.flac", "Burial", "Untrue", "Archangel")
		if err := repo.Upsert(rescanned); err != nil {
			t.Fatalf("upsert after delete failed: %v", err)
		}

		retrieved, err := repo.Get(file.ID())
		if err != nil {
			t.Fatalf("revived row should be visible: %v", err)
		}
		if retrieved.DeletedAt() != nil {
			t.Error("revived row should not be soft-deleted")
		}
	})

	t.Run("Delete Hides From Lookups", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLocalFileRepository(db)
		file := newTestFile("/music/f.flac", "Aphex Twin", "Drukqs", "Avril 14th")

		if err := repo.Create(file); err != nil {
			t.Fatalf("failed to create local file: %v", err)
		}
		if err := repo.Delete(file.ID()); err != nil {
			t.Fatalf("failed to delete local file: %v", err)
		}

		if _, err := repo.Get(file.ID()); err == nil {
			t.Error("expected error getting deleted file")
		}
		if _, err := repo.GetByFileKey(file.FileKey()); err == nil {
			t.Error("expected error getting deleted file by key")
		}
		if err := repo.Delete(file.ID()); err == nil {
			t.Error("expected error deleting twice")
		}
	})

	t.Run("List Filters By Artist And Album", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLocalFileRepository(db)
		seeds := []*models.LocalFile{
			newTestFile("/music/r1.flac", "Radiohead", "Kid A", "Idioteque"),
			newTestFile("/music/r2.flac", "Radiohead", "OK Computer", "Airbag"),
			newTestFile("/music/b1.flac", "Burial", "Untrue", "Archangel"),
		}
		for _, seed := range seeds {
			if err := repo.Create(seed); err != nil {
				t.Fatalf("failed to seed local file: %v", err)
			}
		}

		files, err := repo.List(map[string]any{"artist": "Radiohead"})
		if err != nil {
			t.Fatalf("failed to list by artist: %v", err)
		}
		if len(files) != 2 {
			t.Errorf("expected 2 Radiohead files, got %d", len(files))
		}

		files, err = repo.List(map[string]any{"artist": "Radiohead", "album": "Kid A"})
		if err != nil {
			t.Fatalf("failed to list by artist and album: %v", err)
		}
		if len(files) != 1 || files[0].Title() != "Idioteque" {
			t.Errorf("expected only the Kid A track, got %d files", len(files))
		}
	})
}

func TestFileMatcher(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewLocalFileRepository(db)
	if err := repo.Create(newTestFile("/music/kid-a/03.flac", "Radiohead", "Kid A", "The National Anthem")); err != nil {
		t.Fatalf("failed to seed local file: %v", err)
	}

	matcher := NewFileMatcher(repo)

	t.Run("Matches Despite Punctuation And Case", func(t *testing.T) {
		path, ok := matcher.FindTrackFile("RADIOHEAD", "Kid A", "The National Anthem!")
		if !ok {
			t.Fatal("expected a match")
		}
		if path != "/music/kid-a/03.flac" {
			t.Errorf("expected /music/kid-a/03.flac, got %s", path)
		}
	})

	t.Run("No Match Returns False", func(t *testing.T) {
		if _, ok := matcher.FindTrackFile("Radiohead", "Kid A", "Treefingers"); ok {
			t.Error("expected no match for unscanned track")
		}
	})
}

func TestSyncPassRepository(t *testing.T) {
	t.Run("NextSequence Increments", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncPassRepository(db)

		first, err := repo.NextSequence()
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		second, err := repo.NextSequence()
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}

		if first != 1 || second != 2 {
			t.Errorf("expected sequences 1 and 2, got %d and %d", first, second)
		}
	})

	t.Run("Record And Finalize", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncPassRepository(db)

		seq, err := repo.NextSequence()
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}

		pass := models.NewSyncPass(seq, models.PassFull)
		if err := repo.Record(pass); err != nil {
			t.Fatalf("failed to record pass: %v", err)
		}
		if pass.ID() == "" {
			t.Error("pass ID should be set after recording")
		}

		pass.Finish(3, 2, 1, errors.New("albums: upstream unavailable"))
		if err := repo.Finalize(pass); err != nil {
			t.Fatalf("failed to finalize pass: %v", err)
		}

		retrieved, err := repo.Get(pass.ID())
		if err != nil {
			t.Fatalf("failed to get pass: %v", err)
		}

		if retrieved.Kind() != models.PassFull {
			t.Errorf("expected full pass, got %s", retrieved.Kind())
		}
		if retrieved.FinishedAt() == nil {
			t.Error("finalized pass should have a finish time")
		}
		if retrieved.CreatedNotes() != 3 || retrieved.UpdatedNotes() != 2 || retrieved.FlaggedNotes() != 1 {
			t.Errorf("unexpected counters: %d created, %d updated, %d flagged",
				retrieved.CreatedNotes(), retrieved.UpdatedNotes(), retrieved.FlaggedNotes())
		}
		if retrieved.Error() != "albums: upstream unavailable" {
			t.Errorf("unexpected error text: %q", retrieved.Error())
		}
	})

	t.Run("Record Rejects Invalid Kind", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncPassRepository(db)
		pass := models.NewSyncPass(1, models.PassKind("hourly"))

		if err := repo.Record(pass); err == nil {
			t.Error("expected validation error for unknown pass kind")
		}
	})

	t.Run("Finalize Unknown Pass Fails", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncPassRepository(db)
		pass := models.NewSyncPass(1, models.PassIncremental)
		pass.SetID("missing")
		pass.Finish(0, 0, 0, nil)

		if err := repo.Finalize(pass); err == nil {
			t.Error("expected error finalizing unrecorded pass")
		}
	})

	t.Run("Recent Orders Newest First", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncPassRepository(db)

		for i := 0; i < 3; i++ {
			seq, err := repo.NextSequence()
			if err != nil {
				t.Fatalf("failed to get sequence: %v", err)
			}
			kind := models.PassIncremental
			if i == 0 {
				kind = models.PassFull
			}
			pass := models.NewSyncPass(seq, kind)
			pass.SetStartedAt(time.Date(2025, 6, 1+i, 12, 0, 0, 0, time.UTC))
			if err := repo.Record(pass); err != nil {
				t.Fatalf("failed to record pass: %v", err)
			}
		}

		passes, err := repo.Recent(2)
		if err != nil {
			t.Fatalf("failed to list recent passes: %v", err)
		}

		if len(passes) != 2 {
			t.Fatalf("expected 2 passes, got %d", len(passes))
		}
		if passes[0].Sequence() != 3 || passes[1].Sequence() != 2 {
			t.Errorf("expected sequences [3 2], got [%d %d]", passes[0].Sequence(), passes[1].Sequence())
		}
	})
}
