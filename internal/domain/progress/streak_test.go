package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
)

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestLongestStreak(t *testing.T) {
	tests := []struct {
		name       string
		timestamps []time.Time
		want       int
	}{
		{"empty", nil, 0},
		{"single", []time.Time{day(2024, 5, 1, 10)}, 1},
		{"three consecutive days", []time.Time{
			day(2024, 5, 1, 10), day(2024, 5, 2, 9), day(2024, 5, 3, 23),
		}, 3},
		{"gap of two days", []time.Time{day(2024, 5, 1, 10), day(2024, 5, 3, 10)}, 1},
		{"unordered input", []time.Time{
			day(2024, 5, 3, 1), day(2024, 5, 1, 1), day(2024, 5, 2, 1),
		}, 3},
		{"same day duplicates collapse", []time.Time{
			day(2024, 5, 1, 8), day(2024, 5, 1, 20), day(2024, 5, 2, 8), day(2024, 5, 2, 9),
		}, 2},
		{"longest run wins", []time.Time{
			day(2024, 5, 1, 1), day(2024, 5, 2, 1),
			day(2024, 5, 10, 1), day(2024, 5, 11, 1), day(2024, 5, 12, 1), day(2024, 5, 13, 1),
			day(2024, 5, 20, 1),
		}, 4},
		{"month boundary", []time.Time{day(2024, 2, 28, 1), day(2024, 2, 29, 1), day(2024, 3, 1, 1)}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LongestStreak(tt.timestamps)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLongestStreak_DoesNotMutateInput(t *testing.T) {
	input := []time.Time{day(2024, 5, 3, 1), day(2024, 5, 1, 1)}
	_, err := LongestStreak(input)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 5, 3, 1), input[0])
}

func TestLongestStreak_RejectsZeroTimestamp(t *testing.T) {
	_, err := LongestStreak([]time.Time{day(2024, 5, 1, 1), {}})
	assert.ErrorIs(t, err, shared.ErrInvalidTimestamp)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestStreakCalculator_UsesTimeZone(t *testing.T) {
	almaty := time.FixedZone("Asia/Almaty", 5*60*60)
	// 20:00 UTC on May 1st is 01:00 on May 2nd in Almaty.
	timestamps := []time.Time{day(2024, 5, 1, 10), day(2024, 5, 1, 20)}

	utc, err := NewStreakCalculator(nil).Longest(timestamps)
	require.NoError(t, err)
	assert.Equal(t, 1, utc)

	local, err := NewStreakCalculator(almaty).Longest(timestamps)
	require.NoError(t, err)
	assert.Equal(t, 2, local)
}

func TestStreakCalculator_CurrentStreak(t *testing.T) {
	calc := NewStreakCalculator(time.UTC)
	history := []time.Time{
		day(2024, 5, 1, 10),
		day(2024, 5, 3, 10), day(2024, 5, 4, 10), day(2024, 5, 5, 10),
	}

	tests := []struct {
		name       string
		now        time.Time
		wantLen    int
		wantStatus StreakStatus
	}{
		{"active today", day(2024, 5, 5, 22), 3, StreakActive},
		{"at risk the next day", day(2024, 5, 6, 12), 3, StreakAtRisk},
		{"broken after a missed day", day(2024, 5, 7, 0), 0, StreakBroken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, status, err := calc.CurrentStreak(history, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, n)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestStreakCalculator_CurrentStreakEmpty(t *testing.T) {
	n, status, err := NewStreakCalculator(nil).CurrentStreak(nil, day(2024, 5, 1, 0))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, StreakNone, status)
}

func TestStreakCalculator_InfoAndRefresh(t *testing.T) {
	calc := NewStreakCalculator(time.UTC)
	history := []time.Time{
		day(2024, 5, 1, 10), day(2024, 5, 2, 10), day(2024, 5, 3, 10), day(2024, 5, 4, 10),
		day(2024, 5, 8, 10), day(2024, 5, 9, 10),
	}

	info, err := calc.Info(history, day(2024, 5, 9, 20))
	require.NoError(t, err)
	assert.Equal(t, 4, info.Longest)
	assert.Equal(t, 2, info.Trailing)
	assert.Equal(t, day(2024, 5, 9, 0), info.LastActive)
	assert.Equal(t, 2, info.Current)
	assert.Equal(t, StreakActive, info.Status)

	next := calc.Refresh(info, day(2024, 5, 10, 8))
	assert.Equal(t, StreakAtRisk, next.Status)
	assert.Equal(t, 2, next.Current)
	assert.Equal(t, 4, next.Longest)

	later := calc.Refresh(info, day(2024, 5, 11, 8))
	assert.Equal(t, StreakBroken, later.Status)
	assert.Zero(t, later.Current)
	assert.Equal(t, 2, later.Trailing)

	// Without a last active day there is nothing to refresh.
	none := StreakInfo{Status: StreakNone}
	assert.Equal(t, none, calc.Refresh(none, day(2024, 5, 11, 8)))
}
