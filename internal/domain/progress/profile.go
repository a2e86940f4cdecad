package progress

import (
	"time"

	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE CONFIG
// ══════════════════════════════════════════════════════════════════════════════

// EngineConfig - настройки движка прогресса.
type EngineConfig struct {
	Levels   *LevelTable
	Weights  Weights
	Tiers    TierThresholds
	Location *time.Location
}

// DefaultEngineConfig возвращает конфигурацию по умолчанию (UTC).
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Levels:   DefaultLevelTable(),
		Weights:  DefaultWeights(),
		Tiers:    DefaultTierThresholds(),
		Location: time.UTC,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Engine собирает опыт, уровень, серии и бейджи в карточку профиля.
// Не хранит изменяемого состояния и безопасен для конкурентного использования.
type Engine struct {
	levels  *LevelTable
	weights Weights
	tiers   TierThresholds
	streaks *StreakCalculator
	now     func() time.Time
}

// NewEngine создаёт движок. Пустые таблица уровней и пороги бейджей заменяются
// значениями по умолчанию; веса берутся как есть, нулевые веса допустимы.
func NewEngine(cfg EngineConfig) *Engine {
	defaults := DefaultEngineConfig()
	if cfg.Levels == nil {
		cfg.Levels = defaults.Levels
	}
	if len(cfg.Tiers.steps) == 0 {
		cfg.Tiers = defaults.Tiers
	}

	return &Engine{
		levels:  cfg.Levels,
		weights: cfg.Weights,
		tiers:   cfg.Tiers,
		streaks: NewStreakCalculator(cfg.Location),
		now:     time.Now,
	}
}

// WithClock подменяет источник текущего времени (для тестов и CLI).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	clone := *e
	clone.now = now
	return &clone
}

// Levels возвращает таблицу уровней движка.
func (e *Engine) Levels() *LevelTable {
	return e.levels
}

// Weights возвращает веса опыта.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Tiers возвращает пороги бейджей.
func (e *Engine) Tiers() TierThresholds {
	return e.tiers
}

// Streaks возвращает калькулятор серий.
func (e *Engine) Streaks() *StreakCalculator {
	return e.streaks
}

// ──────────────────────────────────────────────────────────────────────────────
// Profile card
// ──────────────────────────────────────────────────────────────────────────────

// ProfileInput - всё, что нужно для построения карточки профиля.
type ProfileInput struct {
	UserID         string
	ResourceCount  int
	SharesReceived int
	Records        []ActivityRecord

	// EquippedBadge - выбранная категория (пустая строка = не выбрана).
	EquippedBadge BadgeCategory
}

// StreakInfo - серии пользователя.
// LastActive (последний активный день, полночь UTC) и Trailing (серия,
// заканчивающаяся этим днём) позволяют пересчитать Current и Status
// для закешированной карточки.
type StreakInfo struct {
	Current    int          `json:"current"`
	Longest    int          `json:"longest"`
	Status     StreakStatus `json:"status"`
	LastActive time.Time    `json:"last_active"`
	Trailing   int          `json:"trailing"`
}

// ProfileCard - карточка профиля пользователя.
type ProfileCard struct {
	UserID           string     `json:"user_id"`
	Experience       float64    `json:"experience"`
	Level            LevelInfo  `json:"level"`
	ProgressPercent  int        `json:"progress_percent"`
	ExperienceToNext float64    `json:"experience_to_next"`
	Streak           StreakInfo `json:"streak"`
	Badges           []Badge    `json:"badges"`
	EquippedBadge    *Badge     `json:"equipped_badge,omitempty"`
	ResourceCount    int        `json:"resource_count"`
	SharesReceived   int        `json:"shares_received"`
	GeneratedAt      time.Time  `json:"generated_at"`
}

// BuildProfile строит карточку профиля.
// Серия считается по времени последнего изменения записей прогресса,
// в опыт входит самая длинная серия.
func (e *Engine) BuildProfile(in ProfileInput) (ProfileCard, error) {
	timestamps := make([]time.Time, 0, len(in.Records))
	for _, rec := range in.Records {
		if !rec.LastUpdated.IsZero() {
			timestamps = append(timestamps, rec.LastUpdated)
		}
	}

	now := e.now()
	streak, err := e.streaks.Info(timestamps, now)
	if err != nil {
		return ProfileCard{}, err
	}

	xp, err := ComputeExperience(UserActivitySummary{
		ResourceCount:   in.ResourceCount,
		SharesReceived:  in.SharesReceived,
		StreakLength:    streak.Longest,
		ProgressRecords: in.Records,
	}, e.weights)
	if err != nil {
		return ProfileCard{}, err
	}

	level, err := e.levels.Resolve(xp)
	if err != nil {
		return ProfileCard{}, err
	}

	badges, err := ResolveBadges(CountActivities(in.Records, in.ResourceCount, in.SharesReceived), e.tiers)
	if err != nil {
		return ProfileCard{}, err
	}

	card := ProfileCard{
		UserID:           in.UserID,
		Experience:       xp,
		Level:            level,
		ProgressPercent:  level.ProgressPercent(xp),
		ExperienceToNext: level.ExperienceToNext(xp),
		Streak:           streak,
		Badges:           VisibleBadges(badges),
		ResourceCount:    in.ResourceCount,
		SharesReceived:   in.SharesReceived,
		GeneratedAt:      now.UTC(),
	}

	// Выбранный бейдж показывается, только пока он открыт.
	if in.EquippedBadge != "" {
		if b, ok := FindBadge(badges, in.EquippedBadge); ok && !b.Tier.IsLocked() {
			card.EquippedBadge = &b
		}
	}

	return card, nil
}

// RefreshStreak обновляет текущую серию закешированной карточки на текущий момент.
func (e *Engine) RefreshStreak(card ProfileCard) ProfileCard {
	card.Streak = e.streaks.Refresh(card.Streak, e.now())
	return card
}

// ResolveBadgesFor вычисляет бейджи всех категорий, включая заблокированные.
func (e *Engine) ResolveBadgesFor(in ProfileInput) ([]Badge, error) {
	return ResolveBadges(CountActivities(in.Records, in.ResourceCount, in.SharesReceived), e.tiers)
}

// CanEquip проверяет, можно ли выбрать бейдж категории.
func (e *Engine) CanEquip(in ProfileInput, category BadgeCategory) (Badge, error) {
	if !category.IsValid() {
		return Badge{}, shared.ErrUnknownBadge
	}
	badges, err := e.ResolveBadgesFor(in)
	if err != nil {
		return Badge{}, err
	}
	b, _ := FindBadge(badges, category)
	if b.Tier.IsLocked() {
		return b, shared.ErrBadgeLocked
	}
	return b, nil
}
