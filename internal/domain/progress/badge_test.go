package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
)

func TestResolveTier(t *testing.T) {
	thresholds := DefaultTierThresholds()

	tests := []struct {
		count int
		want  BadgeTier
	}{
		{0, TierLocked},
		{4, TierLocked},
		{5, TierBronze},
		{49, TierBronze},
		{50, TierSilver},
		{100, TierGold},
		{499, TierGold},
		{500, TierPlatinum},
		{999, TierPlatinum},
		{1000, TierRuby},
		{1_000_000, TierRuby},
	}

	for _, tt := range tests {
		got, err := ResolveTier(tt.count, thresholds)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "count %d", tt.count)
	}
}

func TestResolveTier_NegativeCount(t *testing.T) {
	_, err := ResolveTier(-1, DefaultTierThresholds())
	assert.ErrorIs(t, err, shared.ErrNegativeValue)
}

func TestResolveTier_ZeroThresholds(t *testing.T) {
	_, err := ResolveTier(10, TierThresholds{})
	assert.ErrorIs(t, err, shared.ErrInvalidTiers)
}

func TestNewTierThresholds_Validation(t *testing.T) {
	_, err := NewTierThresholds(5, 5, 100, 500, 1000)
	assert.ErrorIs(t, err, shared.ErrInvalidTiers)

	_, err = NewTierThresholds(0, 50, 100, 500, 1000)
	assert.ErrorIs(t, err, shared.ErrInvalidTiers)

	_, err = NewTierThresholds(5, 50, 40, 500, 1000)
	assert.ErrorIs(t, err, shared.ErrInvalidTiers)

	custom, err := NewTierThresholds(1, 2, 3, 4, 5)
	require.NoError(t, err)
	tier, err := ResolveTier(3, custom)
	require.NoError(t, err)
	assert.Equal(t, TierGold, tier)
}

func TestBadgeTier_Ordering(t *testing.T) {
	assert.True(t, TierLocked.Less(TierBronze))
	assert.True(t, TierPlatinum.Less(TierRuby))
	assert.False(t, TierRuby.Less(TierGold))
	assert.Equal(t, 5, TierRuby.Rank())
	assert.False(t, BadgeTier("diamond").IsValid())
}

func TestTierThresholds_NextTier(t *testing.T) {
	thresholds := DefaultTierThresholds()

	next, count, ok := thresholds.NextTier(TierLocked)
	require.True(t, ok)
	assert.Equal(t, TierBronze, next)
	assert.Equal(t, 5, count)

	next, count, ok = thresholds.NextTier(TierGold)
	require.True(t, ok)
	assert.Equal(t, TierPlatinum, next)
	assert.Equal(t, 500, count)

	_, _, ok = thresholds.NextTier(TierRuby)
	assert.False(t, ok)
}

func TestCountActivities(t *testing.T) {
	records := []ActivityRecord{
		{QuizScore: intPtr(80), SummaryCompleted: true},
		{QuizScore: intPtr(0), FlashcardScore: intPtr(50)},
		{},
	}

	counts := CountActivities(records, 7, 3)

	assert.Equal(t, 2, counts[BadgeQuizMaster])
	assert.Equal(t, 1, counts[BadgeFlashcardFan])
	assert.Equal(t, 1, counts[BadgeSummaryScholar])
	assert.Equal(t, 7, counts[BadgeCurator])
	assert.Equal(t, 3, counts[BadgeCommunityStar])
}

func TestResolveBadges_AndVisible(t *testing.T) {
	counts := ActivityCounts{
		BadgeQuizMaster: 4,
		BadgeCurator:    60,
	}

	badges, err := ResolveBadges(counts, DefaultTierThresholds())
	require.NoError(t, err)
	require.Len(t, badges, len(BadgeCategories))

	quiz, ok := FindBadge(badges, BadgeQuizMaster)
	require.True(t, ok)
	assert.Equal(t, TierLocked, quiz.Tier)
	assert.Equal(t, TierBronze, quiz.NextTier)
	assert.Equal(t, 5, quiz.NextThreshold)

	curator, _ := FindBadge(badges, BadgeCurator)
	assert.Equal(t, TierSilver, curator.Tier)
	assert.Equal(t, "Curator", curator.Title)

	visible := VisibleBadges(badges)
	require.Len(t, visible, 1)
	assert.Equal(t, BadgeCurator, visible[0].Category)
}

func TestParseBadgeCategory(t *testing.T) {
	c, err := ParseBadgeCategory("community_star")
	require.NoError(t, err)
	assert.Equal(t, BadgeCommunityStar, c)

	_, err = ParseBadgeCategory("speedrunner")
	assert.ErrorIs(t, err, shared.ErrUnknownBadge)
}
