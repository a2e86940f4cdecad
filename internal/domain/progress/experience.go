package progress

import (
	"math"
	"time"

	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY RECORDS
// ══════════════════════════════════════════════════════════════════════════════

// ActivityRecord - прогресс пользователя по одному ресурсу.
// Принадлежит хранилищу прогресса; движок только читает его.
type ActivityRecord struct {
	// ResourceID - ресурс, к которому относится запись.
	ResourceID string `json:"resource_id"`

	// QuizScore - результат квиза в процентах (nil = квиз не проходили).
	QuizScore *int `json:"quiz_score,omitempty"`

	// FlashcardScore - результат карточек в процентах (nil = не проходили).
	FlashcardScore *int `json:"flashcard_score,omitempty"`

	// SummaryCompleted - прочитано ли краткое содержание.
	SummaryCompleted bool `json:"summary_completed"`

	// LastUpdated - время последнего изменения записи.
	LastUpdated time.Time `json:"last_updated"`
}

// Validate проверяет оценки записи.
func (r ActivityRecord) Validate() error {
	if r.QuizScore != nil && (*r.QuizScore < shared.MinScore || *r.QuizScore > shared.MaxScore) {
		return shared.Invalidf("progress", "ValidateRecord", shared.ErrValueOutOfRange, "quiz score %d out of range", *r.QuizScore)
	}
	if r.FlashcardScore != nil && (*r.FlashcardScore < shared.MinScore || *r.FlashcardScore > shared.MaxScore) {
		return shared.Invalidf("progress", "ValidateRecord", shared.ErrValueOutOfRange, "flashcard score %d out of range", *r.FlashcardScore)
	}
	return nil
}

// Merge накладывает обновление на запись: оценки заменяются только если
// переданы, а прочитанное краткое содержание остаётся прочитанным.
func (r ActivityRecord) Merge(update ActivityRecord) ActivityRecord {
	merged := r
	if update.ResourceID != "" {
		merged.ResourceID = update.ResourceID
	}
	if update.QuizScore != nil {
		merged.QuizScore = update.QuizScore
	}
	if update.FlashcardScore != nil {
		merged.FlashcardScore = update.FlashcardScore
	}
	merged.SummaryCompleted = r.SummaryCompleted || update.SummaryCompleted
	if update.LastUpdated.After(merged.LastUpdated) {
		merged.LastUpdated = update.LastUpdated
	}
	return merged
}

// UserActivitySummary - входные данные для подсчёта опыта.
type UserActivitySummary struct {
	ResourceCount   int
	SharesReceived  int
	StreakLength    int
	ProgressRecords []ActivityRecord
}

// ══════════════════════════════════════════════════════════════════════════════
// EXPERIENCE AGGREGATOR
// ══════════════════════════════════════════════════════════════════════════════

// Weights - вклад каждого вида активности в опыт.
type Weights struct {
	PerResource     float64 `json:"per_resource"`
	PerShare        float64 `json:"per_share"`
	PerStreakDay    float64 `json:"per_streak_day"`
	QuizWeight      float64 `json:"quiz_weight"`
	FlashcardWeight float64 `json:"flashcard_weight"`
	SummaryWeight   float64 `json:"summary_weight"`
}

// DefaultWeights возвращает стандартные веса.
func DefaultWeights() Weights {
	return Weights{
		PerResource:     20,
		PerShare:        10,
		PerStreakDay:    5,
		QuizWeight:      15,
		FlashcardWeight: 15,
		SummaryWeight:   15,
	}
}

// Validate проверяет, что веса конечные и не отрицательные.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"per_resource":     w.PerResource,
		"per_share":        w.PerShare,
		"per_streak_day":   w.PerStreakDay,
		"quiz_weight":      w.QuizWeight,
		"flashcard_weight": w.FlashcardWeight,
		"summary_weight":   w.SummaryWeight,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return shared.Invalidf("progress", "ValidateWeights", shared.ErrInvalidInput, "weight %s must be a finite number", name)
		}
		if v < 0 {
			return shared.Invalidf("progress", "ValidateWeights", shared.ErrNegativeValue, "weight %s is negative", name)
		}
	}
	return nil
}

// ComputeExperience считает суммарный опыт пользователя:
//
//	perResource*resources + perShare*shares + perStreakDay*streak +
//	Σ(quiz/100*quizWeight + flashcard/100*flashcardWeight + summaryWeight)
//
// Отсутствующие оценки дают 0.
func ComputeExperience(summary UserActivitySummary, w Weights) (float64, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}
	if summary.ResourceCount < 0 || summary.SharesReceived < 0 || summary.StreakLength < 0 {
		return 0, shared.Invalidf("progress", "ComputeExperience", shared.ErrNegativeValue,
			"counts must be non-negative (resources=%d, shares=%d, streak=%d)",
			summary.ResourceCount, summary.SharesReceived, summary.StreakLength)
	}

	total := w.PerResource*float64(summary.ResourceCount) +
		w.PerShare*float64(summary.SharesReceived) +
		w.PerStreakDay*float64(summary.StreakLength)

	for _, rec := range summary.ProgressRecords {
		if err := rec.Validate(); err != nil {
			return 0, err
		}
		total += recordExperience(rec, w)
	}

	return total, nil
}

// recordExperience - вклад одной записи прогресса.
func recordExperience(rec ActivityRecord, w Weights) float64 {
	var xp float64
	if rec.QuizScore != nil {
		xp += float64(*rec.QuizScore) * w.QuizWeight / 100
	}
	if rec.FlashcardScore != nil {
		xp += float64(*rec.FlashcardScore) * w.FlashcardWeight / 100
	}
	if rec.SummaryCompleted {
		xp += w.SummaryWeight
	}
	return xp
}
