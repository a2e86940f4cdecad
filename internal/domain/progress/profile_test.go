package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// weekOfRecords returns 7 records, one per consecutive day ending on last.
func weekOfRecords(last time.Time) []ActivityRecord {
	records := make([]ActivityRecord, 0, 7)
	for i := 6; i >= 0; i-- {
		records = append(records, ActivityRecord{
			ResourceID:  "r",
			LastUpdated: last.AddDate(0, 0, -i),
		})
	}
	return records
}

func TestEngine_BuildProfile(t *testing.T) {
	now := day(2024, 5, 7, 18)
	records := weekOfRecords(day(2024, 5, 7, 9))
	records[0].QuizScore = intPtr(80)
	records[0].SummaryCompleted = true

	engine := NewEngine(DefaultEngineConfig()).WithClock(fixedClock(now))
	card, err := engine.BuildProfile(ProfileInput{
		UserID:         "user-1",
		ResourceCount:  3,
		SharesReceived: 2,
		Records:        records,
	})
	require.NoError(t, err)

	assert.Equal(t, "user-1", card.UserID)
	assert.InDelta(t, 142.0, card.Experience, 1e-9)
	assert.Equal(t, 2, card.Level.Level)
	assert.Equal(t, "Learner", card.Level.Name)
	assert.Equal(t, 250, card.Level.NextLevelExperience)
	assert.Equal(t, 28, card.ProgressPercent)
	assert.InDelta(t, 108.0, card.ExperienceToNext, 1e-9)

	assert.Equal(t, 7, card.Streak.Longest)
	assert.Equal(t, 7, card.Streak.Current)
	assert.Equal(t, StreakActive, card.Streak.Status)

	// Only the curator badge is short of bronze (3 < 5); nothing is visible.
	assert.Empty(t, card.Badges)
	assert.Nil(t, card.EquippedBadge)
	assert.Equal(t, now.UTC(), card.GeneratedAt)
}

func TestEngine_BuildProfile_EquippedBadge(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig()).WithClock(fixedClock(day(2024, 5, 1, 12)))

	card, err := engine.BuildProfile(ProfileInput{
		UserID:        "user-1",
		ResourceCount: 12,
		EquippedBadge: BadgeCurator,
	})
	require.NoError(t, err)

	require.NotNil(t, card.EquippedBadge)
	assert.Equal(t, BadgeCurator, card.EquippedBadge.Category)
	assert.Equal(t, TierBronze, card.EquippedBadge.Tier)
	require.Len(t, card.Badges, 1)
	assert.Equal(t, StreakNone, card.Streak.Status)
}

func TestEngine_BuildProfile_LockedEquippedBadgeHidden(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())

	card, err := engine.BuildProfile(ProfileInput{
		UserID:        "user-1",
		EquippedBadge: BadgeQuizMaster,
	})
	require.NoError(t, err)
	assert.Nil(t, card.EquippedBadge)
}

func TestEngine_BuildProfile_InvalidRecord(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())

	_, err := engine.BuildProfile(ProfileInput{
		Records: []ActivityRecord{{QuizScore: intPtr(150), LastUpdated: day(2024, 5, 1, 1)}},
	})
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestEngine_CanEquip(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())
	in := ProfileInput{SharesReceived: 50}

	b, err := engine.CanEquip(in, BadgeCommunityStar)
	require.NoError(t, err)
	assert.Equal(t, TierSilver, b.Tier)

	_, err = engine.CanEquip(in, BadgeFlashcardFan)
	assert.ErrorIs(t, err, shared.ErrBadgeLocked)
	assert.True(t, shared.IsConflict(err))

	_, err = engine.CanEquip(in, BadgeCategory("unknown"))
	assert.ErrorIs(t, err, shared.ErrUnknownBadge)
}

func TestNewEngine_FillsDefaults(t *testing.T) {
	engine := NewEngine(EngineConfig{})

	assert.Equal(t, 15, engine.Levels().Len())
	assert.Len(t, engine.Tiers().Steps(), 5)
	assert.Equal(t, time.UTC, engine.Streaks().Location())
}

func TestNewEngine_KeepsExplicitZeroWeights(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Weights = Weights{}
	engine := NewEngine(cfg).WithClock(fixedClock(time.Date(2024, 5, 7, 12, 0, 0, 0, time.UTC)))

	assert.Equal(t, Weights{}, engine.Weights())

	card, err := engine.BuildProfile(ProfileInput{UserID: "u1", ResourceCount: 12, SharesReceived: 3})
	require.NoError(t, err)
	assert.Zero(t, card.Experience)
	assert.Equal(t, 1, card.Level.Level)
}

func TestNewEngine_DefaultWeights(t *testing.T) {
	engine := NewEngine(DefaultEngineConfig())
	assert.Equal(t, DefaultWeights(), engine.Weights())
	assert.Len(t, engine.Tiers().Steps(), 5)
	assert.Equal(t, time.UTC, engine.Streaks().Location())
}
