package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/studybuddy-hub/config"
	"github.com/studybuddy/studybuddy-hub/internal/application/query"
)

func execute(t *testing.T, vars map[string]string, args ...string) (string, error) {
	t.Helper()
	if vars == nil {
		vars = map[string]string{}
	}

	root := newRootCmd(func() (*config.Config, error) { return config.LoadFromMap(vars) })
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLevelCmd(t *testing.T) {
	out, err := execute(t, nil, "level", "--xp", "142")
	require.NoError(t, err)
	assert.Equal(t, "Level 2 (Learner)\n28% to level 3, 108 XP to go (next at 250 XP)\n", out)

	out, err = execute(t, nil, "level", "--xp", "20000", "-f", "json")
	require.NoError(t, err)
	var level query.LevelDTO
	require.NoError(t, json.Unmarshal([]byte(out), &level))
	assert.True(t, level.MaxLevel)
	assert.Equal(t, "Legend", level.Name)

	out, err = execute(t, nil, "level", "--table", "--format", "json")
	require.NoError(t, err)
	var table []query.LevelTableEntryDTO
	require.NoError(t, json.Unmarshal([]byte(out), &table))
	assert.Len(t, table, 15)
}

func TestLevelCmd_Errors(t *testing.T) {
	_, err := execute(t, nil, "level")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--xp or --table")

	_, err = execute(t, nil, "level", "--xp=-5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative")

	_, err = execute(t, nil, "level", "--xp", "1", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestStreakCmd(t *testing.T) {
	out, err := execute(t, nil, "streak",
		"--date", "2024-05-01",
		"--date", "2024-05-02",
		"--date", "2024-05-02",
		"--date", "2024-05-03",
		"--date", "2024-05-05T09:30:00Z",
		"--now", "2024-05-05",
		"--format", "json",
	)
	require.NoError(t, err)

	var report StreakReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 5, report.Days)
	assert.Equal(t, 3, report.Longest)
	assert.Equal(t, 1, report.Current)
	assert.Equal(t, "active", string(report.Status))
	assert.Equal(t, "2024-05-05", report.LastActive)
	assert.Zero(t, report.HoursLeft)
}

func TestStreakCmd_AtRisk(t *testing.T) {
	out, err := execute(t, nil, "streak",
		"--date", "2024-05-01",
		"--date", "2024-05-02",
		"--now", "2024-05-03T18:00:00Z",
	)
	require.NoError(t, err)
	assert.Equal(t, "Longest streak: 2 days\nCurrent streak: 2 days (at_risk)\nStudy within 6 hours to keep it\n", out)
}

func TestStreakCmd_TimeZone(t *testing.T) {
	// 20:00 UTC on May 1 is already May 2 in Almaty.
	vars := map[string]string{"PROGRESS_TIMEZONE": "Asia/Almaty"}
	out, err := execute(t, vars, "streak",
		"--date", "2024-05-01T20:00:00Z",
		"--date", "2024-05-03",
		"--now", "2024-05-03",
		"-f", "json",
	)
	require.NoError(t, err)

	var report StreakReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Longest)
	assert.Equal(t, 2, report.Current)
}

func TestStreakCmd_BadDate(t *testing.T) {
	_, err := execute(t, nil, "streak", "--date", "May 1st")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")
}

func TestTierCmd(t *testing.T) {
	out, err := execute(t, nil, "tier", "--count", "12")
	require.NoError(t, err)
	assert.Equal(t, "12 -> bronze\nnext: silver at 50\n", out)

	out, err = execute(t, nil, "tier", "--count", "1000", "-f", "json")
	require.NoError(t, err)
	var report TierReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "ruby", string(report.Tier))
	assert.Empty(t, report.NextTier)

	out, err = execute(t, map[string]string{"PROGRESS_TIERS": "1,2,3,4,5"}, "tier", "--count", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "3 -> gold")

	_, err = execute(t, nil, "tier")
	require.Error(t, err)

	_, err = execute(t, nil, "tier", "--count=-1")
	require.Error(t, err)
}

func TestConfigError(t *testing.T) {
	_, err := execute(t, map[string]string{"PROGRESS_TIMEZONE": "Nowhere/Special"}, "tier", "--count", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestCacheFlushCmd(t *testing.T) {
	mr := miniredis.RunT(t)
	vars := map[string]string{
		"REDIS_HOST":             mr.Host(),
		"REDIS_PORT":             mr.Port(),
		"REDIS_CONNECT_ATTEMPTS": "1",
	}
	userID := "5b0e8f8c-4a57-4d5b-9a53-0c7c0f0c1a01"
	require.NoError(t, mr.Set("profile:"+userID, `{}`))
	require.NoError(t, mr.Set("profile:other", `{}`))
	require.NoError(t, mr.Set("unrelated", "keep"))

	out, err := execute(t, vars, "cache", "flush", "--user", userID)
	require.NoError(t, err)
	assert.Equal(t, "removed 1 cached profile(s)\n", out)
	assert.False(t, mr.Exists("profile:"+userID))
	assert.True(t, mr.Exists("profile:other"))

	out, err = execute(t, vars, "cache", "flush", "-f", "json")
	require.NoError(t, err)
	var res map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res["removed"])
	assert.True(t, mr.Exists("unrelated"))

	_, err = execute(t, map[string]string{"REDIS_DISABLED": "true"}, "cache", "flush")
	require.Error(t, err)

	_, err = execute(t, vars, "cache", "flush", "--user", "nope")
	require.Error(t, err)
}
