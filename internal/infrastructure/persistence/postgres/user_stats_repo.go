package postgres

import (
	"context"

	"github.com/studybuddy/studybuddy-hub/internal/domain/progress"
)

// UserStatsRepository implements progress.UserStatsRepository for PostgreSQL.
type UserStatsRepository struct {
	db Querier
}

// NewUserStatsRepository creates a new UserStatsRepository.
func NewUserStatsRepository(db Querier) *UserStatsRepository {
	return &UserStatsRepository{db: db}
}

var _ progress.UserStatsRepository = (*UserStatsRepository)(nil)

// Exists checks if a user exists by ID.
func (r *UserStatsRepository) Exists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)",
		userID,
	).Scan(&exists)
	if err != nil {
		return false, storageError("check user existence", err)
	}
	return exists, nil
}

// CountResources returns the number of resources the user uploaded.
func (r *UserStatsRepository) CountResources(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*)::int FROM resources WHERE owner_id = $1",
		userID,
	).Scan(&count)
	if err != nil {
		return 0, storageError("count resources", err)
	}
	return count, nil
}

// CountSharesReceived returns how many times the user's resources were shared.
func (r *UserStatsRepository) CountSharesReceived(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)::int
		FROM shares s
		JOIN resources res ON res.id = s.resource_id
		WHERE res.owner_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, storageError("count shares received", err)
	}
	return count, nil
}
