package query

import (
	"github.com/studybuddy/studybuddy-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESOLVE LEVEL QUERY
// Предпросмотр уровня для произвольного опыта и сама таблица уровней.
// ══════════════════════════════════════════════════════════════════════════════

// ResolveLevelQuery содержит опыт, для которого нужен уровень.
type ResolveLevelQuery struct {
	Experience float64
}

// LevelDTO - уровень и прогресс до следующего.
type LevelDTO struct {
	Level               int     `json:"level"`
	Name                string  `json:"name"`
	ExperienceFloor     int     `json:"experience_floor"`
	NextLevelExperience int     `json:"next_level_experience"`
	MaxLevel            bool    `json:"max_level"`
	ProgressPercent     int     `json:"progress_percent"`
	ExperienceToNext    float64 `json:"experience_to_next"`
}

func newLevelDTO(info progress.LevelInfo, experience float64) LevelDTO {
	return LevelDTO{
		Level:               info.Level,
		Name:                info.Name,
		ExperienceFloor:     info.ExperienceFloor,
		NextLevelExperience: info.NextLevelExperience,
		MaxLevel:            info.MaxLevel,
		ProgressPercent:     info.ProgressPercent(experience),
		ExperienceToNext:    info.ExperienceToNext(experience),
	}
}

// LevelTableEntryDTO - строка таблицы уровней.
type LevelTableEntryDTO struct {
	Level           int    `json:"level"`
	Name            string `json:"name"`
	ExperienceFloor int    `json:"experience_floor"`
}

// ResolveLevelHandler отвечает на запросы об уровнях.
type ResolveLevelHandler struct {
	levels *progress.LevelTable
}

// NewResolveLevelHandler создаёт обработчик поверх таблицы уровней.
func NewResolveLevelHandler(levels *progress.LevelTable) *ResolveLevelHandler {
	if levels == nil {
		levels = progress.DefaultLevelTable()
	}
	return &ResolveLevelHandler{levels: levels}
}

// Handle определяет уровень для опыта.
func (h *ResolveLevelHandler) Handle(q ResolveLevelQuery) (LevelDTO, error) {
	info, err := h.levels.Resolve(q.Experience)
	if err != nil {
		return LevelDTO{}, err
	}
	return newLevelDTO(info, q.Experience), nil
}

// Table возвращает таблицу уровней.
func (h *ResolveLevelHandler) Table() []LevelTableEntryDTO {
	entries := h.levels.Entries()
	out := make([]LevelTableEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = LevelTableEntryDTO{
			Level:           i + 1,
			Name:            e.Name,
			ExperienceFloor: e.ExperienceFloor,
		}
	}
	return out
}
