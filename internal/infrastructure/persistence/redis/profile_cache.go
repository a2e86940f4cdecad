package redis

import (
	"context"
	"errors"
	"time"

	"github.com/studybuddy/studybuddy-hub/internal/domain/progress"
)

// ProfileCache implements progress.ProfileCache on top of Cache.
type ProfileCache struct {
	cache *Cache
}

// NewProfileCache creates a new ProfileCache.
func NewProfileCache(cache *Cache) *ProfileCache {
	return &ProfileCache{cache: cache}
}

var _ progress.ProfileCache = (*ProfileCache)(nil)

// Get returns the cached card; found is false on a miss.
func (p *ProfileCache) Get(ctx context.Context, userID string) (*progress.ProfileCard, bool, error) {
	var card progress.ProfileCard
	err := p.cache.Get(ctx, ProfileKey(userID), &card)
	if errors.Is(err, ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &card, true, nil
}

// Set caches the card under its user's key.
func (p *ProfileCache) Set(ctx context.Context, card *progress.ProfileCard, ttl time.Duration) error {
	if card == nil {
		return ErrCacheNilValue
	}
	if ttl == 0 {
		ttl = TTLProfileCard
	}
	return p.cache.Set(ctx, ProfileKey(card.UserID), card, ttl)
}

// Invalidate removes the user's cached card.
func (p *ProfileCache) Invalidate(ctx context.Context, userID string) error {
	return p.cache.Delete(ctx, ProfileKey(userID))
}

// InvalidateAll removes every cached card and returns how many were removed.
func (p *ProfileCache) InvalidateAll(ctx context.Context) (int, error) {
	return p.cache.DeleteByPattern(ctx, PrefixProfile+"*")
}
