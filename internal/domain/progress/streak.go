package progress

import (
	"sort"
	"time"

	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
	"github.com/studybuddy/studybuddy-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK STATUS
// ══════════════════════════════════════════════════════════════════════════════

// StreakStatus - состояние текущей серии.
type StreakStatus string

const (
	// StreakNone - активности ещё не было.
	StreakNone StreakStatus = "none"

	// StreakActive - активность была сегодня.
	StreakActive StreakStatus = "active"

	// StreakAtRisk - последняя активность вчера, серия сгорит в конце дня.
	StreakAtRisk StreakStatus = "at_risk"

	// StreakBroken - пропущен хотя бы один полный день.
	StreakBroken StreakStatus = "broken"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK CALCULATOR
// ══════════════════════════════════════════════════════════════════════════════

// StreakCalculator считает серии последовательных календарных дней.
// Дни определяются в часовом поясе калькулятора.
type StreakCalculator struct {
	loc *time.Location
}

// NewStreakCalculator создаёт калькулятор для часового пояса (nil = UTC).
func NewStreakCalculator(loc *time.Location) *StreakCalculator {
	if loc == nil {
		loc = time.UTC
	}
	return &StreakCalculator{loc: loc}
}

// Location возвращает часовой пояс калькулятора.
func (c *StreakCalculator) Location() *time.Location {
	return c.loc
}

// LongestStreak считает самую длинную серию в UTC.
func LongestStreak(timestamps []time.Time) (int, error) {
	return NewStreakCalculator(time.UTC).Longest(timestamps)
}

// Longest возвращает длину самой длинной серии последовательных дней.
// Несколько событий в один день считаются одним днём.
// Порядок меток не важен.
func (c *StreakCalculator) Longest(timestamps []time.Time) (int, error) {
	days, err := c.distinctDays(timestamps)
	if err != nil {
		return 0, err
	}
	return longestRun(days), nil
}

// CurrentStreak возвращает длину серии, которая заканчивается сегодня или вчера.
// Если последняя активность была раньше, серия считается прерванной (0).
func (c *StreakCalculator) CurrentStreak(timestamps []time.Time, now time.Time) (int, StreakStatus, error) {
	info, err := c.Info(timestamps, now)
	if err != nil {
		return 0, StreakNone, err
	}
	return info.Current, info.Status, nil
}

// Info считает все показатели серии на момент now.
func (c *StreakCalculator) Info(timestamps []time.Time, now time.Time) (StreakInfo, error) {
	days, err := c.distinctDays(timestamps)
	if err != nil {
		return StreakInfo{}, err
	}
	if len(days) == 0 {
		return StreakInfo{Status: StreakNone}, nil
	}

	info := StreakInfo{
		Longest:    longestRun(days),
		LastActive: days[len(days)-1],
		Trailing:   trailingRun(days),
	}
	return c.Refresh(info, now), nil
}

// Refresh пересчитывает текущую серию и статус на момент now по
// LastActive и Trailing. Остальные поля не меняются.
func (c *StreakCalculator) Refresh(info StreakInfo, now time.Time) StreakInfo {
	if info.LastActive.IsZero() {
		return info
	}

	switch gap := timeutil.DaysBetween(info.LastActive, timeutil.CivilDay(now, c.loc), time.UTC); {
	case gap <= 0:
		// Метки из будущего относительно now считаются сегодняшними.
		info.Status, info.Current = StreakActive, info.Trailing
	case gap == 1:
		info.Status, info.Current = StreakAtRisk, info.Trailing
	default:
		info.Status, info.Current = StreakBroken, 0
	}
	return info
}

// longestRun - самая длинная серия в отсортированных уникальных днях.
func longestRun(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if timeutil.DaysBetween(days[i-1], days[i], time.UTC) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// trailingRun - длина серии, заканчивающейся последним днём.
func trailingRun(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	run := 1
	for i := len(days) - 1; i > 0; i-- {
		if timeutil.DaysBetween(days[i-1], days[i], time.UTC) != 1 {
			break
		}
		run++
	}
	return run
}

// distinctDays переводит метки в календарные дни, сортирует и убирает дубликаты.
func (c *StreakCalculator) distinctDays(timestamps []time.Time) ([]time.Time, error) {
	days := make([]time.Time, 0, len(timestamps))
	for _, ts := range timestamps {
		if ts.IsZero() {
			return nil, shared.ErrInvalidTimestamp
		}
		days = append(days, timeutil.CivilDay(ts, c.loc))
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	unique := days[:0]
	for i, d := range days {
		if i > 0 && d.Equal(unique[len(unique)-1]) {
			continue
		}
		unique = append(unique, d)
	}

	return unique, nil
}
