package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/studybuddy/studybuddy-hub/internal/domain/progress"
	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// noScore is how a NULL score travels through COALESCE in progress queries.
const noScore = -1

// ProgressRepository implements progress.ProgressRepository for PostgreSQL.
type ProgressRepository struct {
	db Querier
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(db Querier) *ProgressRepository {
	return &ProgressRepository{db: db}
}

var _ progress.ProgressRepository = (*ProgressRepository)(nil)

const progressColumns = `
	resource_id::text,
	COALESCE(quiz_score, -1)::int,
	COALESCE(flashcard_score, -1)::int,
	summary_completed,
	updated_at`

// ListByUser returns all progress records of a user, oldest first.
func (r *ProgressRepository) ListByUser(ctx context.Context, userID string) ([]progress.ActivityRecord, error) {
	query := `SELECT` + progressColumns + `
		FROM progress
		WHERE user_id = $1
		ORDER BY updated_at ASC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, storageError("list progress", err)
	}
	defer rows.Close()

	var records []progress.ActivityRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, storageError("scan progress row", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate progress rows", err)
	}

	return records, nil
}

// Get returns the record of one resource.
func (r *ProgressRepository) Get(ctx context.Context, userID, resourceID string) (progress.ActivityRecord, error) {
	query := `SELECT` + progressColumns + `
		FROM progress
		WHERE user_id = $1 AND resource_id = $2`

	rec, err := scanRecord(r.db.QueryRow(ctx, query, userID, resourceID))
	if IsNoRows(err) {
		return progress.ActivityRecord{}, shared.WrapError("progress", "Get", shared.ErrNotFound, "progress record not found", err)
	}
	if err != nil {
		return progress.ActivityRecord{}, storageError("get progress", err)
	}

	return rec, nil
}

// Save inserts or replaces the record of (userID, record.ResourceID).
func (r *ProgressRepository) Save(ctx context.Context, userID string, record progress.ActivityRecord) error {
	query := `
		INSERT INTO progress (user_id, resource_id, quiz_score, flashcard_score, summary_completed, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, resource_id) DO UPDATE SET
			quiz_score = EXCLUDED.quiz_score,
			flashcard_score = EXCLUDED.flashcard_score,
			summary_completed = EXCLUDED.summary_completed,
			updated_at = EXCLUDED.updated_at`

	updatedAt := record.LastUpdated
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, query,
		userID,
		record.ResourceID,
		record.QuizScore,
		record.FlashcardScore,
		record.SummaryCompleted,
		updatedAt,
	)
	if IsForeignKeyViolation(err) {
		return shared.WrapError("progress", "Save", shared.ErrNotFound, "user or resource not found", err)
	}
	if IsCheckViolation(err) {
		return shared.WrapError("progress", "Save", shared.ErrValueOutOfRange, "score out of range", err)
	}
	if err != nil {
		return storageError("save progress", err)
	}

	return nil
}

// scanRecord reads one row selected with progressColumns.
func scanRecord(row pgx.Row) (progress.ActivityRecord, error) {
	var (
		rec       progress.ActivityRecord
		quiz      int
		flashcard int
	)

	if err := row.Scan(&rec.ResourceID, &quiz, &flashcard, &rec.SummaryCompleted, &rec.LastUpdated); err != nil {
		return progress.ActivityRecord{}, err
	}

	if quiz != noScore {
		rec.QuizScore = &quiz
	}
	if flashcard != noScore {
		rec.FlashcardScore = &flashcard
	}

	return rec, nil
}
