package postgres

import (
	"context"

	"github.com/studybuddy/studybuddy-hub/internal/domain/progress"
	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
)

// BadgeRepository implements progress.BadgeRepository for PostgreSQL.
type BadgeRepository struct {
	db Querier
}

// NewBadgeRepository creates a new BadgeRepository.
func NewBadgeRepository(db Querier) *BadgeRepository {
	return &BadgeRepository{db: db}
}

var _ progress.BadgeRepository = (*BadgeRepository)(nil)

// GetEquipped returns the equipped category, or "" when none is equipped.
func (r *BadgeRepository) GetEquipped(ctx context.Context, userID string) (progress.BadgeCategory, error) {
	var category string
	err := r.db.QueryRow(ctx,
		"SELECT category FROM badge_equips WHERE user_id = $1",
		userID,
	).Scan(&category)
	if IsNoRows(err) {
		return "", nil
	}
	if err != nil {
		return "", storageError("get equipped badge", err)
	}
	return progress.BadgeCategory(category), nil
}

// SetEquipped stores the equipped category. An empty category unequips.
func (r *BadgeRepository) SetEquipped(ctx context.Context, userID string, category progress.BadgeCategory) error {
	if category == "" {
		if _, err := r.db.Exec(ctx, "DELETE FROM badge_equips WHERE user_id = $1", userID); err != nil {
			return storageError("unequip badge", err)
		}
		return nil
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO badge_equips (user_id, category, equipped_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			category = EXCLUDED.category,
			equipped_at = EXCLUDED.equipped_at`,
		userID, string(category),
	)
	if IsForeignKeyViolation(err) {
		return shared.ErrUserNotFound
	}
	if err != nil {
		return storageError("equip badge", err)
	}
	return nil
}
