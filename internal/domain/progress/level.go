package progress

import (
	"math"
	"sort"

	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL TABLE
// ══════════════════════════════════════════════════════════════════════════════

// LevelThreshold - нижняя граница опыта для уровня и его название.
type LevelThreshold struct {
	// ExperienceFloor - минимальный опыт для уровня (включительно).
	ExperienceFloor int `json:"experience_floor"`

	// Name - название уровня.
	Name string `json:"name"`
}

// LevelTable - неизменяемая таблица уровней, отсортированная по возрастанию порога.
type LevelTable struct {
	entries []LevelThreshold
}

// NewLevelTable проверяет и копирует пороги.
// Первый порог должен быть 0, пороги строго возрастают, названия не пустые.
func NewLevelTable(entries ...LevelThreshold) (*LevelTable, error) {
	if len(entries) == 0 || entries[0].ExperienceFloor != 0 {
		return nil, shared.ErrInvalidLevelTable
	}
	for i, e := range entries {
		if e.Name == "" {
			return nil, shared.ErrInvalidLevelTable
		}
		if i > 0 && e.ExperienceFloor <= entries[i-1].ExperienceFloor {
			return nil, shared.ErrInvalidLevelTable
		}
	}

	copied := make([]LevelThreshold, len(entries))
	copy(copied, entries)
	return &LevelTable{entries: copied}, nil
}

// defaultLevels - таблица из 15 уровней.
var defaultLevels = []LevelThreshold{
	{0, "Novice"},
	{100, "Learner"},
	{250, "Apprentice"},
	{450, "Explorer"},
	{700, "Student"},
	{1000, "Achiever"},
	{1400, "Scholar"},
	{1900, "Expert"},
	{2500, "Specialist"},
	{3200, "Master"},
	{4000, "Sage"},
	{5000, "Mentor"},
	{6200, "Luminary"},
	{7600, "Virtuoso"},
	{9200, "Legend"},
}

// DefaultLevelTable возвращает стандартную таблицу уровней.
func DefaultLevelTable() *LevelTable {
	table, err := NewLevelTable(defaultLevels...)
	if err != nil {
		panic(err) // таблица задана в коде
	}
	return table
}

// Len возвращает количество уровней.
func (t *LevelTable) Len() int {
	return len(t.entries)
}

// Entries возвращает копию порогов.
func (t *LevelTable) Entries() []LevelThreshold {
	out := make([]LevelThreshold, len(t.entries))
	copy(out, t.entries)
	return out
}

// Threshold возвращает порог уровня по его номеру (с 1).
func (t *LevelTable) Threshold(level int) (LevelThreshold, bool) {
	if level < 1 || level > len(t.entries) {
		return LevelThreshold{}, false
	}
	return t.entries[level-1], true
}

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL RESOLVER
// ══════════════════════════════════════════════════════════════════════════════

// LevelInfo - результат определения уровня.
type LevelInfo struct {
	// Level - номер уровня (с 1).
	Level int `json:"level"`

	// Name - название уровня.
	Name string `json:"name"`

	// ExperienceFloor - порог текущего уровня.
	ExperienceFloor int `json:"experience_floor"`

	// NextLevelExperience - порог следующего уровня.
	// На последнем уровне равен порогу текущего уровня.
	NextLevelExperience int `json:"next_level_experience"`

	// MaxLevel - true, если следующего уровня нет.
	MaxLevel bool `json:"max_level"`
}

// Resolve определяет уровень по опыту.
// Уровень - позиция последнего порога, который не превышает опыт.
func (t *LevelTable) Resolve(experience float64) (LevelInfo, error) {
	if math.IsNaN(experience) || math.IsInf(experience, 0) {
		return LevelInfo{}, shared.Invalidf("progress", "ResolveLevel", shared.ErrInvalidInput, "experience must be a finite number")
	}
	if experience < 0 {
		return LevelInfo{}, shared.Invalidf("progress", "ResolveLevel", shared.ErrNegativeValue, "experience %.2f is negative", experience)
	}

	// Первый порог, строго больший опыта; уровень - предыдущая позиция.
	level := sort.Search(len(t.entries), func(i int) bool {
		return float64(t.entries[i].ExperienceFloor) > experience
	})

	current := t.entries[level-1]
	info := LevelInfo{
		Level:               level,
		Name:                current.Name,
		ExperienceFloor:     current.ExperienceFloor,
		NextLevelExperience: current.ExperienceFloor,
		MaxLevel:            level == len(t.entries),
	}
	if !info.MaxLevel {
		info.NextLevelExperience = t.entries[level].ExperienceFloor
	}

	return info, nil
}

// ProgressPercent возвращает прогресс к следующему уровню (0-100).
// На последнем уровне всегда 100.
func (li LevelInfo) ProgressPercent(experience float64) int {
	if li.MaxLevel {
		return 100
	}
	span := float64(li.NextLevelExperience - li.ExperienceFloor)
	if span <= 0 {
		return 100
	}

	percent := int((experience - float64(li.ExperienceFloor)) * 100 / span)
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// ExperienceToNext возвращает, сколько опыта осталось до следующего уровня.
func (li LevelInfo) ExperienceToNext(experience float64) float64 {
	if li.MaxLevel {
		return 0
	}
	return math.Max(0, float64(li.NextLevelExperience)-experience)
}
