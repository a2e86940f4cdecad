package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysBetween_AcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// DST starts on 2024-03-10 in New York; that day is only 23 hours long.
	before := time.Date(2024, 3, 9, 23, 30, 0, 0, loc)
	after := time.Date(2024, 3, 10, 23, 30, 0, 0, loc)

	assert.Equal(t, 1, DaysBetween(before, after, loc))
	assert.Equal(t, -1, DaysBetween(after, before, loc))
}

func TestCivilDay_UsesLocation(t *testing.T) {
	almaty := time.FixedZone("Asia/Almaty", 5*60*60)
	ts := time.Date(2024, 5, 1, 21, 0, 0, 0, time.UTC) // 02:00 on May 2nd in Almaty

	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), CivilDay(ts, nil))
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), CivilDay(ts, almaty))
}

func TestIsSameDay(t *testing.T) {
	a := time.Date(2024, 5, 1, 0, 0, 1, 0, time.UTC)
	b := time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC)

	assert.True(t, IsSameDay(a, b, time.UTC))
	assert.False(t, IsSameDay(a, b.Add(time.Second), time.UTC))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29", nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", FormatDateStr(d, nil))

	_, err = ParseDate("29.02.2024", nil)
	assert.Error(t, err)
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = LoadLocation("Mars/Olympus_Mons")
	assert.Error(t, err)
}

func TestHoursUntilEndOfDay(t *testing.T) {
	ts := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, 4, HoursUntilEndOfDay(ts, time.UTC))
}
