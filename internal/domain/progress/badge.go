package progress

import (
	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE TIER
// ══════════════════════════════════════════════════════════════════════════════

// BadgeTier - уровень бейджа.
type BadgeTier string

const (
	TierLocked   BadgeTier = "locked"
	TierBronze   BadgeTier = "bronze"
	TierSilver   BadgeTier = "silver"
	TierGold     BadgeTier = "gold"
	TierPlatinum BadgeTier = "platinum"
	TierRuby     BadgeTier = "ruby"
)

// tierOrder - все уровни по возрастанию.
var tierOrder = []BadgeTier{TierLocked, TierBronze, TierSilver, TierGold, TierPlatinum, TierRuby}

// Rank возвращает порядковый номер уровня (locked = 0, ruby = 5, неизвестный = -1).
func (t BadgeTier) Rank() int {
	for i, tier := range tierOrder {
		if tier == t {
			return i
		}
	}
	return -1
}

// IsValid проверяет, что уровень известен.
func (t BadgeTier) IsValid() bool {
	return t.Rank() >= 0
}

// IsLocked - true для заблокированного бейджа.
func (t BadgeTier) IsLocked() bool {
	return t == TierLocked
}

// Less сравнивает уровни.
func (t BadgeTier) Less(other BadgeTier) bool {
	return t.Rank() < other.Rank()
}

// String returns the tier name.
func (t BadgeTier) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// TIER THRESHOLDS
// ══════════════════════════════════════════════════════════════════════════════

// TierThreshold - минимальное количество действий для уровня.
type TierThreshold struct {
	Tier     BadgeTier `json:"tier"`
	MinCount int       `json:"min_count"`
}

// TierThresholds - пороги от bronze до ruby, по возрастанию.
type TierThresholds struct {
	steps []TierThreshold
}

// NewTierThresholds создаёт пороги для bronze, silver, gold, platinum, ruby.
// Пороги должны быть положительными и строго возрастать.
func NewTierThresholds(bronze, silver, gold, platinum, ruby int) (TierThresholds, error) {
	counts := []int{bronze, silver, gold, platinum, ruby}
	steps := make([]TierThreshold, len(counts))
	for i, c := range counts {
		if c <= 0 || (i > 0 && c <= counts[i-1]) {
			return TierThresholds{}, shared.ErrInvalidTiers
		}
		steps[i] = TierThreshold{Tier: tierOrder[i+1], MinCount: c}
	}
	return TierThresholds{steps: steps}, nil
}

// DefaultTierThresholds возвращает стандартные пороги 5/50/100/500/1000.
func DefaultTierThresholds() TierThresholds {
	t, err := NewTierThresholds(5, 50, 100, 500, 1000)
	if err != nil {
		panic(err)
	}
	return t
}

// Steps возвращает копию порогов.
func (t TierThresholds) Steps() []TierThreshold {
	out := make([]TierThreshold, len(t.steps))
	copy(out, t.steps)
	return out
}

// ResolveTier возвращает наивысший уровень, порог которого не больше count.
// Ниже порога bronze - locked.
func ResolveTier(count int, thresholds TierThresholds) (BadgeTier, error) {
	if count < 0 {
		return TierLocked, shared.Invalidf("badge", "ResolveTier", shared.ErrNegativeValue, "count %d is negative", count)
	}
	if len(thresholds.steps) == 0 {
		return TierLocked, shared.ErrInvalidTiers
	}

	tier := TierLocked
	for _, step := range thresholds.steps {
		if count < step.MinCount {
			break
		}
		tier = step.Tier
	}
	return tier, nil
}

// NextTier возвращает следующий уровень и его порог.
// ok = false, если уровень уже максимальный.
func (t TierThresholds) NextTier(current BadgeTier) (BadgeTier, int, bool) {
	for _, step := range t.steps {
		if current.Less(step.Tier) {
			return step.Tier, step.MinCount, true
		}
	}
	return "", 0, false
}

// ══════════════════════════════════════════════════════════════════════════════
// BADGE CATEGORIES
// ══════════════════════════════════════════════════════════════════════════════

// BadgeCategory - вид активности, за который выдаётся бейдж.
type BadgeCategory string

const (
	BadgeQuizMaster     BadgeCategory = "quiz_master"
	BadgeFlashcardFan   BadgeCategory = "flashcard_fan"
	BadgeSummaryScholar BadgeCategory = "summary_scholar"
	BadgeCurator        BadgeCategory = "curator"
	BadgeCommunityStar  BadgeCategory = "community_star"
)

// BadgeCategories - все категории в порядке отображения.
var BadgeCategories = []BadgeCategory{
	BadgeQuizMaster,
	BadgeFlashcardFan,
	BadgeSummaryScholar,
	BadgeCurator,
	BadgeCommunityStar,
}

// badgeTitles - названия бейджей для карточки профиля.
var badgeTitles = map[BadgeCategory]string{
	BadgeQuizMaster:     "Quiz Master",
	BadgeFlashcardFan:   "Flashcard Fan",
	BadgeSummaryScholar: "Summary Scholar",
	BadgeCurator:        "Curator",
	BadgeCommunityStar:  "Community Star",
}

// IsValid проверяет, что категория известна.
func (c BadgeCategory) IsValid() bool {
	_, ok := badgeTitles[c]
	return ok
}

// Title возвращает название бейджа.
func (c BadgeCategory) Title() string {
	return badgeTitles[c]
}

// ParseBadgeCategory разбирает строку в категорию.
func ParseBadgeCategory(s string) (BadgeCategory, error) {
	c := BadgeCategory(s)
	if !c.IsValid() {
		return "", shared.ErrUnknownBadge
	}
	return c, nil
}

// ActivityCounts - количество действий по категориям.
type ActivityCounts map[BadgeCategory]int

// CountActivities считает действия по категориям из записей прогресса
// и счётчиков пользователя.
func CountActivities(records []ActivityRecord, resourceCount, sharesReceived int) ActivityCounts {
	counts := ActivityCounts{
		BadgeQuizMaster:     0,
		BadgeFlashcardFan:   0,
		BadgeSummaryScholar: 0,
		BadgeCurator:        resourceCount,
		BadgeCommunityStar:  sharesReceived,
	}
	for _, rec := range records {
		if rec.QuizScore != nil {
			counts[BadgeQuizMaster]++
		}
		if rec.FlashcardScore != nil {
			counts[BadgeFlashcardFan]++
		}
		if rec.SummaryCompleted {
			counts[BadgeSummaryScholar]++
		}
	}
	return counts
}

// Badge - вычисленный бейдж одной категории.
type Badge struct {
	Category      BadgeCategory `json:"category"`
	Title         string        `json:"title"`
	Tier          BadgeTier     `json:"tier"`
	Count         int           `json:"count"`
	NextTier      BadgeTier     `json:"next_tier,omitempty"`
	NextThreshold int           `json:"next_threshold,omitempty"`
}

// ResolveBadges вычисляет бейджи всех категорий в порядке BadgeCategories.
func ResolveBadges(counts ActivityCounts, thresholds TierThresholds) ([]Badge, error) {
	badges := make([]Badge, 0, len(BadgeCategories))
	for _, category := range BadgeCategories {
		count := counts[category]
		tier, err := ResolveTier(count, thresholds)
		if err != nil {
			return nil, err
		}

		badge := Badge{
			Category: category,
			Title:    category.Title(),
			Tier:     tier,
			Count:    count,
		}
		if next, threshold, ok := thresholds.NextTier(tier); ok {
			badge.NextTier = next
			badge.NextThreshold = threshold
		}
		badges = append(badges, badge)
	}
	return badges, nil
}

// VisibleBadges оставляет только открытые бейджи.
func VisibleBadges(badges []Badge) []Badge {
	visible := make([]Badge, 0, len(badges))
	for _, b := range badges {
		if !b.Tier.IsLocked() {
			visible = append(visible, b)
		}
	}
	return visible
}

// FindBadge ищет бейдж категории.
func FindBadge(badges []Badge, category BadgeCategory) (Badge, bool) {
	for _, b := range badges {
		if b.Category == category {
			return b, true
		}
	}
	return Badge{}, false
}
