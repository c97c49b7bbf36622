package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"tunedex/internal/models"
	"tunedex/internal/shared"
)

// LocalFileRepository persists scanned local audio files for track matching.
//
// Rows are keyed by normalized "artist|album|title" strings built with
// [shared.NormalizeFileKey], so vault notes can link to files on disk without
// exact tag matches. Supports soft deletes via deleted_at timestamps.
type LocalFileRepository struct {
	db *sql.DB
}

// NewLocalFileRepository creates a new LocalFileRepository with the given database connection
func NewLocalFileRepository(db *sql.DB) *LocalFileRepository {
	return &LocalFileRepository{db: db}
}

// Create inserts a new [models.LocalFile] into the database with generated ID and sequence
func (r *LocalFileRepository) Create(file *models.LocalFile) error {
	sequence, err := NextSequence(r.db, "local_files")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	file.SetID(id)

	if err := file.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO local_files (id, sequence, file_key, path, artist, album, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		file.FileKey(),
		file.Path(),
		file.Artist(),
		file.Album(),
		file.Title(),
		file.CreatedAt(),
		file.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert local file: %w", err)
	}

	return nil
}

// Upsert inserts the file, or refreshes the existing row when the path was
// scanned before. Rescans keep the original ID and sequence.
func (r *LocalFileRepository) Upsert(file *models.LocalFile) error {
	existing, err := r.GetByPath(file.Path())
	if err != nil {
		return r.Create(file)
	}

	now := time.Now()

	query := `
		UPDATE local_files
		SET file_key = ?, artist = ?, album = ?, title = ?, updated_at = ?, deleted_at = NULL
		WHERE id = ?
	`

	_, err = r.db.Exec(query,
		file.FileKey(),
		file.Artist(),
		file.Album(),
		file.Title(),
		now,
		existing.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update local file: %w", err)
	}

	file.SetID(existing.ID())
	file.SetUpdatedAt(now)
	return nil
}

// Update modifies the tag fields of an existing local file
func (r *LocalFileRepository) Update(file *models.LocalFile) error {
	if err := file.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	file.SetUpdatedAt(now)

	query := `
		UPDATE local_files
		SET file_key = ?, artist = ?, album = ?, title = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		file.FileKey(),
		file.Artist(),
		file.Album(),
		file.Title(),
		now,
		file.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update local file: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("local file not found or already deleted: %s", file.ID())
	}

	return nil
}

// Get retrieves a local file by ID, excluding soft-deleted rows
func (r *LocalFileRepository) Get(id string) (*models.LocalFile, error) {
	query := `
		SELECT id, sequence, file_key, path, artist, album, title, created_at, updated_at, deleted_at
		FROM local_files
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByPath retrieves a local file by its absolute path, including soft-deleted
// rows so rescans can revive them
func (r *LocalFileRepository) GetByPath(path string) (*models.LocalFile, error) {
	query := `
		SELECT id, sequence, file_key, path, artist, album, title, created_at, updated_at, deleted_at
		FROM local_files
		WHERE path = ?
	`

	return r.scanOne(r.db.QueryRow(query, path))
}

// GetByFileKey retrieves the first local file matching the normalized key
func (r *LocalFileRepository) GetByFileKey(key string) (*models.LocalFile, error) {
	query := `
		SELECT id, sequence, file_key, path, artist, album, title, created_at, updated_at, deleted_at
		FROM local_files
		WHERE file_key = ? AND deleted_at IS NULL
		ORDER BY sequence ASC
		LIMIT 1
	`

	return r.scanOne(r.db.QueryRow(query, key))
}

// Delete soft-deletes a local file by ID
func (r *LocalFileRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE local_files
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete local file: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("local file not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all local files matching the given criteria, excluding soft-deleted rows
func (r *LocalFileRepository) List(criteria map[string]any) ([]*models.LocalFile, error) {
	query := `
		SELECT id, sequence, file_key, path, artist, album, title, created_at, updated_at, deleted_at
		FROM local_files
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	if album, ok := criteria["album"].(string); ok && album != "" {
		query += " AND album = ?"
		args = append(args, album)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query local files: %w", err)
	}
	defer rows.Close()

	files := []*models.LocalFile{}
	for rows.Next() {
		file, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return files, nil
}

// scanOne scans a single row into a [models.LocalFile]
func (r *LocalFileRepository) scanOne(row *sql.Row) (*models.LocalFile, error) {
	var (
		id        string
		sequence  int
		fileKey   string
		path      string
		artist    string
		album     string
		title     string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &fileKey, &path, &artist, &album, &title, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("local file not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan local file: %w", err)
	}

	file := models.NewLocalFile(sequence, path, artist, album, title, fileKey)
	file.SetID(id)
	file.SetCreatedAt(createdAt)
	file.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		file.SetDeletedAt(&deletedAt.Time)
	}

	return file, nil
}

// scanRow scans a row from [sql.Rows] into a [models.LocalFile]
func (r *LocalFileRepository) scanRow(rows *sql.Rows) (*models.LocalFile, error) {
	var (
		id        string
		sequence  int
		fileKey   string
		path      string
		artist    string
		album     string
		title     string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &fileKey, &path, &artist, &album, &title, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan local file: %w", err)
	}

	file := models.NewLocalFile(sequence, path, artist, album, title, fileKey)
	file.SetID(id)
	file.SetCreatedAt(createdAt)
	file.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		file.SetDeletedAt(&deletedAt.Time)
	}

	return file, nil
}

// FileMatcher adapts the repository to the sync engine's lookup interface.
//
// FindTrackFile normalizes the query the same way [shared.NormalizeFileKey]
// normalized scanned rows, so tag punctuation and casing differences still match.
type FileMatcher struct {
	files *LocalFileRepository
}

// NewFileMatcher creates a FileMatcher backed by the given repository
func NewFileMatcher(files *LocalFileRepository) *FileMatcher {
	return &FileMatcher{files: files}
}

// FindTrackFile returns the path of a scanned file matching artist, album and title
func (m *FileMatcher) FindTrackFile(artist, album, title string) (string, bool) {
	key := shared.NormalizeFileKey(artist, album, title)
	file, err := m.files.GetByFileKey(key)
	if err != nil {
		return "", false
	}
	return file.Path(), true
}
