package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Контракты хранилища прогресса. Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository хранит записи прогресса (одна на пару пользователь/ресурс).
type ProgressRepository interface {
	// ListByUser возвращает все записи пользователя.
	ListByUser(ctx context.Context, userID string) ([]ActivityRecord, error)

	// Get возвращает запись по ресурсу.
	// Возвращает ошибку, совместимую с shared.ErrNotFound, если записи нет.
	Get(ctx context.Context, userID, resourceID string) (ActivityRecord, error)

	// Save создаёт или заменяет запись.
	Save(ctx context.Context, userID string, record ActivityRecord) error
}

// UserStatsRepository отдаёт счётчики пользователя, которые входят в опыт.
type UserStatsRepository interface {
	// Exists проверяет, что пользователь существует.
	Exists(ctx context.Context, userID string) (bool, error)

	// CountResources возвращает количество загруженных пользователем ресурсов.
	CountResources(ctx context.Context, userID string) (int, error)

	// CountSharesReceived возвращает, сколько раз делились ресурсами пользователя.
	CountSharesReceived(ctx context.Context, userID string) (int, error)
}

// BadgeRepository хранит выбранный пользователем бейдж.
type BadgeRepository interface {
	// GetEquipped возвращает выбранную категорию (пустая строка = не выбрана).
	GetEquipped(ctx context.Context, userID string) (BadgeCategory, error)

	// SetEquipped сохраняет выбор. Пустая категория снимает бейдж.
	SetEquipped(ctx context.Context, userID string, category BadgeCategory) error
}

// ProfileCache - кеш карточек профиля.
type ProfileCache interface {
	// Get возвращает карточку из кеша; found = false при промахе.
	Get(ctx context.Context, userID string) (card *ProfileCard, found bool, err error)

	// Set сохраняет карточку на ttl.
	Set(ctx context.Context, card *ProfileCard, ttl time.Duration) error

	// Invalidate удаляет карточку пользователя.
	Invalidate(ctx context.Context, userID string) error
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE SOURCE
// ══════════════════════════════════════════════════════════════════════════════

// ProfileSource собирает ProfileInput из хранилищ.
type ProfileSource struct {
	progress ProgressRepository
	stats    UserStatsRepository
	badges   BadgeRepository
}

// NewProfileSource создаёт источник данных профиля.
func NewProfileSource(progress ProgressRepository, stats UserStatsRepository, badges BadgeRepository) *ProfileSource {
	return &ProfileSource{progress: progress, stats: stats, badges: badges}
}

// Load читает записи, счётчики и выбранный бейдж пользователя.
// Возвращает shared.ErrUserNotFound, если пользователя нет.
func (s *ProfileSource) Load(ctx context.Context, userID string) (ProfileInput, error) {
	exists, err := s.stats.Exists(ctx, userID)
	if err != nil {
		return ProfileInput{}, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return ProfileInput{}, shared.ErrUserNotFound
	}

	resources, err := s.stats.CountResources(ctx, userID)
	if err != nil {
		return ProfileInput{}, fmt.Errorf("count resources: %w", err)
	}
	shares, err := s.stats.CountSharesReceived(ctx, userID)
	if err != nil {
		return ProfileInput{}, fmt.Errorf("count shares: %w", err)
	}
	records, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return ProfileInput{}, fmt.Errorf("list progress: %w", err)
	}

	var equipped BadgeCategory
	if s.badges != nil {
		if equipped, err = s.badges.GetEquipped(ctx, userID); err != nil {
			return ProfileInput{}, fmt.Errorf("get equipped badge: %w", err)
		}
	}

	return ProfileInput{
		UserID:         userID,
		ResourceCount:  resources,
		SharesReceived: shares,
		Records:        records,
		EquippedBadge:  equipped,
	}, nil
}
