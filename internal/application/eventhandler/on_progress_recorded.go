// Package eventhandler содержит обработчики доменных событий.
// Они держат кеш карточек профиля в актуальном состоянии и
// порождают производные события, например повышение уровня.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studybuddy/studybuddy-hub/internal/domain/progress"
	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// PROFILE EVENTS HANDLER
// Реагирует на запись прогресса и смену бейджа:
// - сбрасывает кешированную карточку профиля
// - пересчитывает уровень и публикует progress.level_up при повышении
// ═══════════════════════════════════════════════════════════════════════════

// ProfileBuilder пересчитывает карточку профиля из хранилища.
type ProfileBuilder interface {
	Build(ctx context.Context, userID string) (*progress.ProfileCard, error)
}

// ProfileEventsHandler обрабатывает события, меняющие карточку профиля.
type ProfileEventsHandler struct {
	cache     progress.ProfileCache
	profiles  ProfileBuilder
	publisher shared.EventPublisher
	cacheTTL  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// NewProfileEventsHandler создаёт обработчик. cache может быть nil.
func NewProfileEventsHandler(
	cache progress.ProfileCache,
	profiles ProfileBuilder,
	publisher shared.EventPublisher,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *ProfileEventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileEventsHandler{
		cache:     cache,
		profiles:  profiles,
		publisher: publisher,
		cacheTTL:  cacheTTL,
		timeout:   10 * time.Second,
		logger:    logger.With("handler", "profile_events"),
	}
}

// Register подписывает обработчик на шину.
func (h *ProfileEventsHandler) Register(bus shared.EventSubscriber) error {
	if err := bus.Subscribe(shared.EventProgressRecorded, h.OnProgressRecorded); err != nil {
		return fmt.Errorf("subscribe %s: %w", shared.EventProgressRecorded, err)
	}
	if err := bus.Subscribe(shared.EventBadgeEquipped, h.OnBadgeEquipped); err != nil {
		return fmt.Errorf("subscribe %s: %w", shared.EventBadgeEquipped, err)
	}
	return nil
}

// OnProgressRecorded сбрасывает кеш и проверяет повышение уровня.
// Повышение проверяется только для событий, записанных этим экземпляром:
// копии из других экземпляров приходят в виде конверта и лишь сбрасывают кеш.
func (h *ProfileEventsHandler) OnProgressRecorded(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	userID := event.AggregateID()
	h.invalidate(ctx, userID)

	recorded, ok := event.(shared.ProgressRecordedEvent)
	if !ok {
		return nil
	}
	h.warm(ctx, userID)

	// 0 - уровень до или после записи неизвестен.
	// Сравниваются уровни самой записи, а не текущей карточки.
	if recorded.PreviousLevel == 0 || recorded.NewLevel <= recorded.PreviousLevel {
		return nil
	}

	h.logger.Info("level up",
		"user_id", userID,
		"old_level", recorded.PreviousLevel,
		"new_level", recorded.NewLevel,
		"level_name", recorded.LevelName,
	)

	if h.publisher == nil {
		return nil
	}
	return h.publisher.Publish(shared.NewLevelUpEvent(
		userID,
		recorded.PreviousLevel,
		recorded.NewLevel,
		recorded.LevelName,
		recorded.Experience,
	))
}

// OnBadgeEquipped сбрасывает кеш карточки.
func (h *ProfileEventsHandler) OnBadgeEquipped(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.invalidate(ctx, event.AggregateID())
	return nil
}

func (h *ProfileEventsHandler) invalidate(ctx context.Context, userID string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx, userID); err != nil {
		h.logger.Warn("failed to invalidate profile cache", "user_id", userID, "error", err)
	}
}

// warm кладёт в кеш свежую карточку. Ошибки только логируются.
func (h *ProfileEventsHandler) warm(ctx context.Context, userID string) {
	if h.profiles == nil || h.cache == nil {
		return
	}
	card, err := h.profiles.Build(ctx, userID)
	if err != nil {
		h.logger.Warn("failed to rebuild profile", "user_id", userID, "error", err)
		return
	}
	if err := h.cache.Set(ctx, card, h.cacheTTL); err != nil {
		h.logger.Warn("failed to warm profile cache", "user_id", userID, "error", err)
	}
}
