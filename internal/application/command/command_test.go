package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/studybuddy-hub/internal/application/apptest"
	"github.com/studybuddy/studybuddy-hub/internal/application/eventhandler"
	"github.com/studybuddy/studybuddy-hub/internal/application/query"
	"github.com/studybuddy/studybuddy-hub/internal/domain/progress"
	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
)

const (
	userID     = "5b0e8f8c-4a57-4d5b-9a53-0c7c0f0c1a01"
	resourceID = "9d1c2e5a-7b3f-4e0a-8c61-2f4b6a8d9e02"
)

var now = time.Date(2024, 5, 7, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

type fixture struct {
	store     *apptest.Store
	cache     *apptest.Cache
	publisher *apptest.Publisher
	engine    *progress.Engine
	source    *progress.ProfileSource
	profiles  *query.GetProfileCardHandler
}

func newFixture() *fixture {
	f := &fixture{
		store:     apptest.NewStore(),
		cache:     apptest.NewCache(),
		publisher: &apptest.Publisher{},
		engine:    progress.NewEngine(progress.DefaultEngineConfig()).WithClock(func() time.Time { return now }),
	}
	f.source = progress.NewProfileSource(f.store, f.store, f.store)
	f.profiles = query.NewGetProfileCardHandler(f.source, f.engine, f.cache, time.Minute, nil)
	return f
}

func (f *fixture) recordHandler() *RecordProgressHandler {
	return NewRecordProgressHandler(f.store, f.profiles, f.cache, f.publisher, nil).
		WithClock(func() time.Time { return now })
}

// ──────────────────────────────────────────────────────────────────────────────
// RecordProgress
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordProgress_NewRecord(t *testing.T) {
	f := newFixture()
	f.store.AddUser(userID, 4, 1)

	res, err := f.recordHandler().Handle(context.Background(), RecordProgressCommand{
		UserID:           userID,
		ResourceID:       resourceID,
		QuizScore:        intPtr(100),
		SummaryCompleted: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.PreviousLevel)
	// 4 resources, 1 share, full quiz, summary and a 1-day streak = 125 XP.
	assert.Equal(t, 2, res.NewLevel)
	assert.Equal(t, resourceID, res.Record.ResourceID)
	assert.Equal(t, now, res.Record.LastUpdated)

	stored, err := f.store.Get(context.Background(), userID, resourceID)
	require.NoError(t, err)
	assert.Equal(t, 100, *stored.QuizScore)
	assert.True(t, stored.SummaryCompleted)

	events := f.publisher.OfType(shared.EventProgressRecorded)
	require.Len(t, events, 1)
	recorded := events[0].(shared.ProgressRecordedEvent)
	assert.Equal(t, userID, recorded.UserID)
	assert.Equal(t, 1, recorded.PreviousLevel)
}

func TestRecordProgress_MergesWithStoredRecord(t *testing.T) {
	f := newFixture()
	f.store.AddUser(userID, 0, 0)
	f.store.Put(userID, progress.ActivityRecord{
		ResourceID:       resourceID,
		QuizScore:        intPtr(50),
		SummaryCompleted: true,
		LastUpdated:      now.AddDate(0, 0, -3),
	})

	res, err := f.recordHandler().Handle(context.Background(), RecordProgressCommand{
		UserID:         userID,
		ResourceID:     resourceID,
		FlashcardScore: intPtr(70),
	})
	require.NoError(t, err)

	assert.Equal(t, 50, *res.Record.QuizScore)
	assert.Equal(t, 70, *res.Record.FlashcardScore)
	assert.True(t, res.Record.SummaryCompleted)
	assert.Equal(t, now, res.Record.LastUpdated)
}

func TestRecordProgress_UsesCachedLevel(t *testing.T) {
	f := newFixture()
	f.store.AddUser(userID, 0, 0)
	require.NoError(t, f.cache.Set(context.Background(), &progress.ProfileCard{
		UserID: userID,
		Level:  progress.LevelInfo{Level: 4, Name: "Explorer"},
	}, time.Minute))

	res, err := f.recordHandler().Handle(context.Background(), RecordProgressCommand{
		UserID:           userID,
		ResourceID:       resourceID,
		SummaryCompleted: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.PreviousLevel)
}

func TestRecordProgress_InvalidatesCachedCard(t *testing.T) {
	f := newFixture()
	f.store.AddUser(userID, 0, 0)
	require.NoError(t, f.cache.Set(context.Background(), &progress.ProfileCard{UserID: userID}, time.Minute))

	_, err := f.recordHandler().Handle(context.Background(), RecordProgressCommand{
		UserID:           userID,
		ResourceID:       resourceID,
		SummaryCompleted: true,
	})
	require.NoError(t, err)

	_, found, err := f.cache.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRecordProgress_BackToBackWritesLevelUpOnce(t *testing.T) {
	f := newFixture()
	// 3 resources = 60 XP, level 1.
	f.store.AddUser(userID, 3, 0)
	ctx := context.Background()

	card, err := f.profiles.Handle(ctx, query.GetProfileCardQuery{UserID: userID})
	require.NoError(t, err)
	require.Equal(t, 1, card.Level.Level)

	// 60 + summary + 1-day streak = 80 XP, then + summary + full quiz = 110 XP.
	h := f.recordHandler()
	for _, cmd := range []RecordProgressCommand{
		{UserID: userID, ResourceID: resourceID, SummaryCompleted: true},
		{UserID: userID, ResourceID: "2f6a4c1e-8b3d-4e7f-9a05-1c2d3e4f5a6b", SummaryCompleted: true, QuizScore: intPtr(100)},
	} {
		_, err := h.Handle(ctx, cmd)
		require.NoError(t, err)
	}

	recorded := f.publisher.OfType(shared.EventProgressRecorded)
	require.Len(t, recorded, 2)
	first := recorded[0].(shared.ProgressRecordedEvent)
	second := recorded[1].(shared.ProgressRecordedEvent)
	assert.Equal(t, []int{1, 1}, []int{first.PreviousLevel, first.NewLevel})
	assert.Equal(t, []int{1, 2}, []int{second.PreviousLevel, second.NewLevel})
	assert.InDelta(t, 110.0, second.Experience, 1e-9)

	// The events are handled only after both writes, as on the async bus.
	levelUps := &apptest.Publisher{}
	events := eventhandler.NewProfileEventsHandler(f.cache, f.profiles, levelUps, time.Minute, nil)
	for _, e := range recorded {
		require.NoError(t, events.OnProgressRecorded(e))
	}

	require.Len(t, levelUps.OfType(shared.EventLevelUp), 1)
	levelUp := levelUps.OfType(shared.EventLevelUp)[0].(shared.LevelUpEvent)
	assert.Equal(t, 1, levelUp.OldLevel)
	assert.Equal(t, 2, levelUp.NewLevel)
}

func TestRecordProgress_Validation(t *testing.T) {
	f := newFixture()
	f.store.AddUser(userID, 0, 0)
	h := f.recordHandler()
	ctx := context.Background()

	tests := []struct {
		name string
		cmd  RecordProgressCommand
		want error
	}{
		{
			name: "empty update",
			cmd:  RecordProgressCommand{UserID: userID, ResourceID: resourceID},
			want: shared.ErrEmptyProgress,
		},
		{
			name: "quiz score above 100",
			cmd:  RecordProgressCommand{UserID: userID, ResourceID: resourceID, QuizScore: intPtr(101)},
			want: shared.ErrValueOutOfRange,
		},
		{
			name: "negative flashcard score",
			cmd:  RecordProgressCommand{UserID: userID, ResourceID: resourceID, FlashcardScore: intPtr(-1)},
			want: shared.ErrValueOutOfRange,
		},
		{
			name: "bad resource id",
			cmd:  RecordProgressCommand{UserID: userID, ResourceID: "nope", SummaryCompleted: true},
			want: shared.ErrInvalidID,
		},
		{
			name: "bad user id",
			cmd:  RecordProgressCommand{UserID: "nope", ResourceID: resourceID, SummaryCompleted: true},
			want: shared.ErrInvalidID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Handle(ctx, tt.cmd)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, shared.IsValidation(err))
		})
	}

	assert.Empty(t, f.publisher.Events())
}

func TestRecordProgress_UnknownUser(t *testing.T) {
	f := newFixture()

	_, err := f.recordHandler().Handle(context.Background(), RecordProgressCommand{
		UserID:           userID,
		ResourceID:       resourceID,
		SummaryCompleted: true,
	})
	assert.ErrorIs(t, err, shared.ErrUserNotFound)
}

func TestRecordProgress_StorageFailure(t *testing.T) {
	f := newFixture()
	f.store.AddUser(userID, 0, 0)
	require.NoError(t, f.cache.Set(context.Background(), &progress.ProfileCard{UserID: userID}, time.Minute))
	f.store.Err = errors.New("connection reset")

	_, err := f.recordHandler().Handle(context.Background(), RecordProgressCommand{
		UserID:           userID,
		ResourceID:       resourceID,
		SummaryCompleted: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, f.publisher.Events())
}

// ──────────────────────────────────────────────────────────────────────────────
// EquipBadge
// ──────────────────────────────────────────────────────────────────────────────

func TestEquipBadge(t *testing.T) {
	f := newFixture()
	f.store.AddUser(userID, 12, 0)
	h := NewEquipBadgeHandler(f.source, f.engine, f.store, f.publisher, nil)
	ctx := context.Background()

	res, err := h.Handle(ctx, EquipBadgeCommand{UserID: userID, Category: "curator"})
	require.NoError(t, err)
	require.NotNil(t, res.Badge)
	assert.Equal(t, progress.TierBronze, res.Badge.Tier)

	equipped, err := f.store.GetEquipped(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, progress.BadgeCurator, equipped)

	events := f.publisher.OfType(shared.EventBadgeEquipped)
	require.Len(t, events, 1)
	assert.Equal(t, "bronze", events[0].(shared.BadgeEquippedEvent).Tier)

	// Clearing the slot.
	res, err = h.Handle(ctx, EquipBadgeCommand{UserID: userID})
	require.NoError(t, err)
	assert.Nil(t, res.Badge)

	equipped, err = f.store.GetEquipped(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, equipped)
}

func TestEquipBadge_Rejected(t *testing.T) {
	f := newFixture()
	f.store.AddUser(userID, 12, 0)
	h := NewEquipBadgeHandler(f.source, f.engine, f.store, f.publisher, nil)
	ctx := context.Background()

	_, err := h.Handle(ctx, EquipBadgeCommand{UserID: userID, Category: "quiz_master"})
	assert.ErrorIs(t, err, shared.ErrBadgeLocked)

	_, err = h.Handle(ctx, EquipBadgeCommand{UserID: userID, Category: "wizard"})
	assert.ErrorIs(t, err, shared.ErrUnknownBadge)

	_, err = h.Handle(ctx, EquipBadgeCommand{UserID: "5b0e8f8c-4a57-4d5b-9a53-0c7c0f0c1aff", Category: "curator"})
	assert.ErrorIs(t, err, shared.ErrUserNotFound)

	assert.Empty(t, f.publisher.Events())
}
