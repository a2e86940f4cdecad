// Package apptest provides in-memory repositories, cache and publisher for
// application-layer tests.
package apptest

import (
	"context"
	"sync"
	"time"

	"github.com/studybuddy/studybuddy-hub/internal/domain/progress"
	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
)

// ──────────────────────────────────────────────────────────────────────────────
// Store
// ──────────────────────────────────────────────────────────────────────────────

// Store implements the progress, user stats and badge repositories.
type Store struct {
	mu        sync.Mutex
	users     map[string]bool
	resources map[string]int
	shares    map[string]int
	records   map[string]map[string]progress.ActivityRecord
	equipped  map[string]progress.BadgeCategory

	// Err, when set, is returned by every method.
	Err error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:     make(map[string]bool),
		resources: make(map[string]int),
		shares:    make(map[string]int),
		records:   make(map[string]map[string]progress.ActivityRecord),
		equipped:  make(map[string]progress.BadgeCategory),
	}
}

// AddUser registers a user with resource and share counts.
func (s *Store) AddUser(userID string, resources, shares int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = true
	s.resources[userID] = resources
	s.shares[userID] = shares
}

// Put stores a record directly.
func (s *Store) Put(userID string, rec progress.ActivityRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records[userID] == nil {
		s.records[userID] = make(map[string]progress.ActivityRecord)
	}
	s.records[userID][rec.ResourceID] = rec
}

// Exists implements progress.UserStatsRepository.
func (s *Store) Exists(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID], s.Err
}

// CountResources implements progress.UserStatsRepository.
func (s *Store) CountResources(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resources[userID], s.Err
}

// CountSharesReceived implements progress.UserStatsRepository.
func (s *Store) CountSharesReceived(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shares[userID], s.Err
}

// ListByUser implements progress.ProgressRepository.
func (s *Store) ListByUser(_ context.Context, userID string) ([]progress.ActivityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]progress.ActivityRecord, 0, len(s.records[userID]))
	for _, rec := range s.records[userID] {
		out = append(out, rec)
	}
	return out, nil
}

// Get implements progress.ProgressRepository.
func (s *Store) Get(_ context.Context, userID, resourceID string) (progress.ActivityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return progress.ActivityRecord{}, s.Err
	}
	rec, ok := s.records[userID][resourceID]
	if !ok {
		return progress.ActivityRecord{}, shared.NewDomainError("progress", "Get", shared.ErrNotFound, "progress record not found")
	}
	return rec, nil
}

// Save implements progress.ProgressRepository.
func (s *Store) Save(_ context.Context, userID string, rec progress.ActivityRecord) error {
	if s.Err != nil {
		return s.Err
	}
	s.Put(userID, rec)
	return nil
}

// GetEquipped implements progress.BadgeRepository.
func (s *Store) GetEquipped(_ context.Context, userID string) (progress.BadgeCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.equipped[userID], s.Err
}

// SetEquipped implements progress.BadgeRepository.
func (s *Store) SetEquipped(_ context.Context, userID string, category progress.BadgeCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if category == "" {
		delete(s.equipped, userID)
		return nil
	}
	s.equipped[userID] = category
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Cache
// ──────────────────────────────────────────────────────────────────────────────

// Cache implements progress.ProfileCache in memory.
type Cache struct {
	mu    sync.Mutex
	cards map[string]progress.ProfileCard

	Invalidations int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{cards: make(map[string]progress.ProfileCard)}
}

// Get implements progress.ProfileCache.
func (c *Cache) Get(_ context.Context, userID string) (*progress.ProfileCard, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	card, ok := c.cards[userID]
	if !ok {
		return nil, false, nil
	}
	return &card, true, nil
}

// Set implements progress.ProfileCache.
func (c *Cache) Set(_ context.Context, card *progress.ProfileCard, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cards[card.UserID] = *card
	return nil
}

// Invalidate implements progress.ProfileCache.
func (c *Cache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cards, userID)
	c.Invalidations++
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Publisher
// ──────────────────────────────────────────────────────────────────────────────

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	events []shared.Event
}

// Publish implements shared.EventPublisher.
func (p *Publisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of the published events.
func (p *Publisher) Events() []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]shared.Event(nil), p.events...)
}

// OfType returns the published events of one type.
func (p *Publisher) OfType(t shared.EventType) []shared.Event {
	var out []shared.Event
	for _, e := range p.Events() {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}
