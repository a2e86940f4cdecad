// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studybuddy/studybuddy-hub/internal/domain/progress"
	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROFILE CARD QUERY
// Собирает карточку профиля: опыт, уровень, серии, бейджи.
// Карточка кешируется; запись прогресса или смена бейджа сбрасывает кеш.
// ══════════════════════════════════════════════════════════════════════════════

// GetProfileCardQuery содержит параметры запроса карточки профиля.
type GetProfileCardQuery struct {
	// UserID - ID пользователя (UUID).
	UserID string

	// SkipCache - пересчитать карточку, не заглядывая в кеш.
	SkipCache bool
}

// Validate проверяет корректность параметров запроса.
func (q *GetProfileCardQuery) Validate() error {
	id, err := shared.NewUserID(q.UserID)
	if err != nil {
		return err
	}
	q.UserID = id.String()
	return nil
}

// ProfileCardDTO - карточка профиля для API.
type ProfileCardDTO struct {
	// ─────────────────────────────────────────────────────────────────────────
	// Опыт и уровень
	// ─────────────────────────────────────────────────────────────────────────

	UserID     string   `json:"user_id"`
	Experience float64  `json:"experience"`
	Level      LevelDTO `json:"level"`

	// ─────────────────────────────────────────────────────────────────────────
	// Серии
	// ─────────────────────────────────────────────────────────────────────────

	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	StreakStatus  string `json:"streak_status"`

	// ─────────────────────────────────────────────────────────────────────────
	// Бейджи
	// ─────────────────────────────────────────────────────────────────────────

	// Badges - только открытые бейджи.
	Badges []BadgeDTO `json:"badges"`

	// EquippedBadge - выбранный бейдж (nil, если не выбран или заблокирован).
	EquippedBadge *BadgeDTO `json:"equipped_badge,omitempty"`

	// ─────────────────────────────────────────────────────────────────────────
	// Счётчики
	// ─────────────────────────────────────────────────────────────────────────

	ResourceCount  int `json:"resource_count"`
	SharesReceived int `json:"shares_received"`

	GeneratedAt time.Time `json:"generated_at"`

	// FromCache - карточка взята из кеша.
	FromCache bool `json:"from_cache"`
}

// BadgeDTO - бейдж одной категории.
type BadgeDTO struct {
	Category      string `json:"category"`
	Title         string `json:"title"`
	Tier          string `json:"tier"`
	Count         int    `json:"count"`
	NextTier      string `json:"next_tier,omitempty"`
	NextThreshold int    `json:"next_threshold,omitempty"`
}

// NewBadgeDTO преобразует доменный бейдж.
func NewBadgeDTO(b progress.Badge) BadgeDTO {
	return BadgeDTO{
		Category:      string(b.Category),
		Title:         b.Title,
		Tier:          b.Tier.String(),
		Count:         b.Count,
		NextTier:      string(b.NextTier),
		NextThreshold: b.NextThreshold,
	}
}

// NewProfileCardDTO преобразует доменную карточку.
func NewProfileCardDTO(card *progress.ProfileCard, fromCache bool) *ProfileCardDTO {
	dto := &ProfileCardDTO{
		UserID:         card.UserID,
		Experience:     card.Experience,
		Level:          newLevelDTO(card.Level, card.Experience),
		CurrentStreak:  card.Streak.Current,
		LongestStreak:  card.Streak.Longest,
		StreakStatus:   string(card.Streak.Status),
		Badges:         make([]BadgeDTO, 0, len(card.Badges)),
		ResourceCount:  card.ResourceCount,
		SharesReceived: card.SharesReceived,
		GeneratedAt:    card.GeneratedAt,
		FromCache:      fromCache,
	}
	for _, b := range card.Badges {
		dto.Badges = append(dto.Badges, NewBadgeDTO(b))
	}
	if card.EquippedBadge != nil {
		equipped := NewBadgeDTO(*card.EquippedBadge)
		dto.EquippedBadge = &equipped
	}
	return dto
}

// GetProfileCardHandler обрабатывает запросы карточки профиля.
type GetProfileCardHandler struct {
	source   *progress.ProfileSource
	engine   *progress.Engine
	cache    progress.ProfileCache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewGetProfileCardHandler создаёт новый обработчик.
// cache может быть nil - тогда карточка всегда пересчитывается.
func NewGetProfileCardHandler(
	source *progress.ProfileSource,
	engine *progress.Engine,
	cache progress.ProfileCache,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *GetProfileCardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetProfileCardHandler{
		source:   source,
		engine:   engine,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.With("handler", "get_profile_card"),
	}
}

// Handle возвращает карточку профиля.
// Ошибки кеша не прерывают запрос: карточка пересчитывается из хранилища.
// У карточки из кеша текущая серия пересчитывается на текущий момент.
func (h *GetProfileCardHandler) Handle(ctx context.Context, q GetProfileCardQuery) (*ProfileCardDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if h.cache != nil && !q.SkipCache {
		card, found, err := h.cache.Get(ctx, q.UserID)
		if err != nil {
			h.logger.Warn("profile cache read failed", "user_id", q.UserID, "error", err)
		} else if found {
			refreshed := h.engine.RefreshStreak(*card)
			return NewProfileCardDTO(&refreshed, true), nil
		}
	}

	card, err := h.Build(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, card, h.cacheTTL); err != nil {
			h.logger.Warn("profile cache write failed", "user_id", q.UserID, "error", err)
		}
	}

	return NewProfileCardDTO(card, false), nil
}

// Build пересчитывает карточку из хранилища, минуя кеш.
func (h *GetProfileCardHandler) Build(ctx context.Context, userID string) (*progress.ProfileCard, error) {
	input, err := h.source.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	card, err := h.engine.BuildProfile(input)
	if err != nil {
		return nil, fmt.Errorf("build profile %s: %w", userID, err)
	}
	return &card, nil
}
