package eventhandler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/studybuddy-hub/internal/application/apptest"
	"github.com/studybuddy/studybuddy-hub/internal/application/query"
	"github.com/studybuddy/studybuddy-hub/internal/domain/progress"
	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
	"github.com/studybuddy/studybuddy-hub/internal/infrastructure/messaging"
)

const userID = "5b0e8f8c-4a57-4d5b-9a53-0c7c0f0c1a01"

type fixture struct {
	store     *apptest.Store
	cache     *apptest.Cache
	publisher *apptest.Publisher
	handler   *ProfileEventsHandler
}

func newFixture() *fixture {
	now := time.Date(2024, 5, 7, 12, 0, 0, 0, time.UTC)
	f := &fixture{
		store:     apptest.NewStore(),
		cache:     apptest.NewCache(),
		publisher: &apptest.Publisher{},
	}
	engine := progress.NewEngine(progress.DefaultEngineConfig()).WithClock(func() time.Time { return now })
	profiles := query.NewGetProfileCardHandler(progress.NewProfileSource(f.store, f.store, f.store), engine, f.cache, time.Minute, nil)
	f.handler = NewProfileEventsHandler(f.cache, profiles, f.publisher, time.Minute, nil)
	return f
}

func TestOnProgressRecorded_PublishesLevelUp(t *testing.T) {
	f := newFixture()
	// 6 resources = 120 XP, level 2.
	f.store.AddUser(userID, 6, 0)

	event := shared.NewProgressRecordedEvent(userID, "r1", nil, nil, true, 1).WithLevel(2, "Learner", 120)
	err := f.handler.OnProgressRecorded(event)
	require.NoError(t, err)

	events := f.publisher.OfType(shared.EventLevelUp)
	require.Len(t, events, 1)
	levelUp := events[0].(shared.LevelUpEvent)
	assert.Equal(t, 1, levelUp.OldLevel)
	assert.Equal(t, 2, levelUp.NewLevel)
	assert.Equal(t, "Learner", levelUp.LevelName)
	assert.InDelta(t, 120.0, levelUp.Experience, 1e-9)

	// The rebuilt card is cached again.
	card, found, err := f.cache.Get(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, card.Level.Level)
	assert.Equal(t, 1, f.cache.Invalidations)
}

func TestOnProgressRecorded_NoLevelChange(t *testing.T) {
	f := newFixture()
	f.store.AddUser(userID, 1, 0)

	require.NoError(t, f.handler.OnProgressRecorded(shared.NewProgressRecordedEvent(userID, "r1", nil, nil, true, 1).WithLevel(1, "Novice", 35)))
	assert.Empty(t, f.publisher.OfType(shared.EventLevelUp))

	// Unknown level after the write never reports a level up.
	require.NoError(t, f.handler.OnProgressRecorded(shared.NewProgressRecordedEvent(userID, "r1", nil, nil, true, 1)))
	assert.Empty(t, f.publisher.OfType(shared.EventLevelUp))

	// Unknown previous level never reports a level up.
	f.store.AddUser(userID, 50, 0)
	require.NoError(t, f.handler.OnProgressRecorded(shared.NewProgressRecordedEvent(userID, "r1", nil, nil, true, 0).WithLevel(7, "Scholar", 1015)))
	assert.Empty(t, f.publisher.OfType(shared.EventLevelUp))
}

func TestOnProgressRecorded_LateEventsLevelUpOnce(t *testing.T) {
	f := newFixture()
	// Both writes are stored before either event is handled.
	f.store.AddUser(userID, 4, 0)
	f.store.Put(userID, progress.ActivityRecord{ResourceID: "r1", SummaryCompleted: true, LastUpdated: time.Now()})
	f.store.Put(userID, progress.ActivityRecord{ResourceID: "r2", SummaryCompleted: true, LastUpdated: time.Now()})

	first := shared.NewProgressRecordedEvent(userID, "r1", nil, nil, true, 1).WithLevel(1, "Novice", 95)
	second := shared.NewProgressRecordedEvent(userID, "r2", nil, nil, true, 1).WithLevel(2, "Learner", 110)
	require.NoError(t, f.handler.OnProgressRecorded(first))
	require.NoError(t, f.handler.OnProgressRecorded(second))

	events := f.publisher.OfType(shared.EventLevelUp)
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].(shared.LevelUpEvent).NewLevel)
}

func TestOnBadgeEquipped_InvalidatesCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, &progress.ProfileCard{UserID: userID}, time.Minute))

	require.NoError(t, f.handler.OnBadgeEquipped(shared.NewBadgeEquippedEvent(userID, "curator", "bronze")))

	_, found, err := f.cache.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRegister_SubscribesToBus(t *testing.T) {
	f := newFixture()
	f.store.AddUser(userID, 6, 0)

	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{AsyncMode: false})
	defer bus.Close()
	require.NoError(t, f.handler.Register(bus))

	require.NoError(t, bus.Publish(shared.NewProgressRecordedEvent(userID, "r1", nil, nil, true, 1).WithLevel(2, "Learner", 120)))
	assert.Len(t, f.publisher.OfType(shared.EventLevelUp), 1)

	require.NoError(t, bus.Publish(shared.NewBadgeEquippedEvent(userID, "", "")))
	assert.Equal(t, 2, f.cache.Invalidations)
}
