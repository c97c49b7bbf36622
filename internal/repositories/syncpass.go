package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"tunedex/internal/models"
	"tunedex/internal/shared"
)

// SyncPassRepository persists reconciliation pass history.
//
// The sync engine records a row when a pass starts and finalizes it with
// counters and error text when the pass ends, so `sync log` can show what
// each pass changed. Supports soft deletes via deleted_at timestamps.
type SyncPassRepository struct {
	db *sql.DB
}

// NewSyncPassRepository creates a new SyncPassRepository with the given database connection
func NewSyncPassRepository(db *sql.DB) *SyncPassRepository {
	return &SyncPassRepository{db: db}
}

// NextSequence returns the next pass sequence number
func (r *SyncPassRepository) NextSequence() (int, error) {
	return NextSequence(r.db, "sync_passes")
}

// Record inserts a newly started [models.SyncPass] with a generated ID.
// The caller supplies the sequence obtained from [SyncPassRepository.NextSequence].
func (r *SyncPassRepository) Record(pass *models.SyncPass) error {
	id := shared.GenerateID()
	pass.SetID(id)

	if err := pass.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sync_passes (id, sequence, kind, started_at, created_notes, updated_notes, flagged_notes, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		id,
		pass.Sequence(),
		string(pass.Kind()),
		pass.StartedAt(),
		pass.CreatedNotes(),
		pass.UpdatedNotes(),
		pass.FlaggedNotes(),
		pass.Error(),
		pass.CreatedAt(),
		pass.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync pass: %w", err)
	}

	return nil
}

// Finalize stores the outcome of a finished pass
func (r *SyncPassRepository) Finalize(pass *models.SyncPass) error {
	now := time.Now()
	pass.SetUpdatedAt(now)

	query := `
		UPDATE sync_passes
		SET finished_at = ?, created_notes = ?, updated_notes = ?, flagged_notes = ?, error = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		pass.FinishedAt(),
		pass.CreatedNotes(),
		pass.UpdatedNotes(),
		pass.FlaggedNotes(),
		pass.Error(),
		now,
		pass.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to finalize sync pass: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync pass not found or already deleted: %s", pass.ID())
	}

	return nil
}

// Get retrieves a sync pass by ID, excluding soft-deleted rows
func (r *SyncPassRepository) Get(id string) (*models.SyncPass, error) {
	query := `
		SELECT id, sequence, kind, started_at, finished_at, created_notes, updated_notes, flagged_notes, error, created_at, updated_at, deleted_at
		FROM sync_passes
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// Recent retrieves the most recent passes, newest first
func (r *SyncPassRepository) Recent(limit int) ([]*models.SyncPass, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, sequence, kind, started_at, finished_at, created_notes, updated_notes, flagged_notes, error, created_at, updated_at, deleted_at
		FROM sync_passes
		WHERE deleted_at IS NULL
		ORDER BY sequence DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync passes: %w", err)
	}
	defer rows.Close()

	passes := []*models.SyncPass{}
	for rows.Next() {
		pass, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		passes = append(passes, pass)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return passes, nil
}

// scanOne scans a single row into a [models.SyncPass]
func (r *SyncPassRepository) scanOne(row *sql.Row) (*models.SyncPass, error) {
	var (
		id         string
		sequence   int
		kind       string
		startedAt  time.Time
		finishedAt sql.NullTime
		created    int
		updated    int
		flagged    int
		errText    string
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &kind, &startedAt, &finishedAt, &created, &updated, &flagged, &errText, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sync pass not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync pass: %w", err)
	}

	return buildPass(id, sequence, kind, startedAt, finishedAt, created, updated, flagged, errText, updatedAt, deletedAt), nil
}

// scanRow scans a row from [sql.Rows] into a [models.SyncPass]
func (r *SyncPassRepository) scanRow(rows *sql.Rows) (*models.SyncPass, error) {
	var (
		id         string
		sequence   int
		kind       string
		startedAt  time.Time
		finishedAt sql.NullTime
		created    int
		updated    int
		flagged    int
		errText    string
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &kind, &startedAt, &finishedAt, &created, &updated, &flagged, &errText, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync pass: %w", err)
	}

	return buildPass(id, sequence, kind, startedAt, finishedAt, created, updated, flagged, errText, updatedAt, deletedAt), nil
}

func buildPass(id string, sequence int, kind string, startedAt time.Time, finishedAt sql.NullTime, created, updated, flagged int, errText string, updatedAt time.Time, deletedAt sql.NullTime) *models.SyncPass {
	pass := models.NewSyncPass(sequence, models.PassKind(kind))
	pass.SetID(id)
	pass.SetStartedAt(startedAt)
	pass.SetUpdatedAt(updatedAt)

	var finished *time.Time
	if finishedAt.Valid {
		finished = &finishedAt.Time
	}
	pass.SetOutcome(finished, created, updated, flagged, errText)

	if deletedAt.Valid {
		pass.SetDeletedAt(&deletedAt.Time)
	}

	return pass
}
