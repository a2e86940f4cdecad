package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/studybuddy-hub/internal/domain/progress"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheFromClient(client), srv
}

func TestCache_SetGet(t *testing.T) {
	cache, srv := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
		XP   int    `json:"xp"`
	}

	require.NoError(t, cache.Set(ctx, "k", payload{Name: "ann", XP: 142}, time.Minute))

	var got payload
	require.NoError(t, cache.Get(ctx, "k", &got))
	assert.Equal(t, payload{Name: "ann", XP: 142}, got)

	srv.FastForward(2 * time.Minute)
	assert.ErrorIs(t, cache.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestCache_Validation(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	assert.ErrorIs(t, cache.Set(ctx, "", 1, time.Minute), ErrCacheKeyEmpty)
	assert.ErrorIs(t, cache.Set(ctx, "k", nil, time.Minute), ErrCacheNilValue)
	assert.ErrorIs(t, cache.Set(ctx, "k", 1, -time.Second), ErrCacheInvalidTTL)

	var dest int
	assert.ErrorIs(t, cache.Get(ctx, "", &dest), ErrCacheKeyEmpty)
}

func TestCache_GetCorruptValue(t *testing.T) {
	cache, srv := newTestCache(t)
	require.NoError(t, srv.Set("k", "{not json"))

	var dest map[string]any
	assert.ErrorIs(t, cache.Get(context.Background(), "k", &dest), ErrCacheSerialization)
}

func TestCache_DeleteByPattern(t *testing.T) {
	cache, srv := newTestCache(t)
	ctx := context.Background()

	for _, k := range []string{"profile:a", "profile:b", "profile:c", "other:a"} {
		require.NoError(t, cache.Set(ctx, k, 1, 0))
	}

	n, err := cache.DeleteByPattern(ctx, "profile:*")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, srv.Exists("other:a"))
	assert.False(t, srv.Exists("profile:a"))
}

func TestProfileCache_RoundTrip(t *testing.T) {
	cache, srv := newTestCache(t)
	profiles := NewProfileCache(cache)
	ctx := context.Background()

	_, found, err := profiles.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, found)

	card := &progress.ProfileCard{
		UserID:     "user-1",
		Experience: 142,
		Level:      progress.LevelInfo{Level: 2, Name: "Learner", ExperienceFloor: 100, NextLevelExperience: 250},
		Badges:     []progress.Badge{{Category: progress.BadgeCurator, Tier: progress.TierBronze, Count: 5}},
		Streak: progress.StreakInfo{
			Current:    3,
			Longest:    7,
			Status:     progress.StreakActive,
			LastActive: time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC),
			Trailing:   3,
		},
	}
	require.NoError(t, profiles.Set(ctx, card, 0))
	assert.Equal(t, TTLProfileCard, srv.TTL(ProfileKey("user-1")))

	got, found, err := profiles.Get(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, got.Level.Level)
	assert.Equal(t, "Learner", got.Level.Name)
	assert.Equal(t, progress.TierBronze, got.Badges[0].Tier)
	assert.True(t, card.Streak.LastActive.Equal(got.Streak.LastActive))
	assert.Equal(t, 3, got.Streak.Trailing)

	require.NoError(t, profiles.Invalidate(ctx, "user-1"))
	_, found, err = profiles.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestProfileCache_InvalidateAll(t *testing.T) {
	cache, _ := newTestCache(t)
	profiles := NewProfileCache(cache)
	ctx := context.Background()

	require.NoError(t, profiles.Set(ctx, &progress.ProfileCard{UserID: "a"}, time.Minute))
	require.NoError(t, profiles.Set(ctx, &progress.ProfileCard{UserID: "b"}, time.Minute))

	n, err := profiles.InvalidateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCache_ExistsAndTTL(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))

	ok, err := cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err := cache.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)

	require.NoError(t, cache.Delete(ctx, "k"))
	ok, err = cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
