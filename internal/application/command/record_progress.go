// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studybuddy/studybuddy-hub/internal/domain/progress"
	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD PROGRESS COMMAND
// Records a quiz result, a flashcard result or a finished summary for one
// resource. The stored record is merged, not overwritten: a score is replaced
// only when a new one is given, and a completed summary stays completed.
// ══════════════════════════════════════════════════════════════════════════════

// RecordProgressCommand contains the progress update.
type RecordProgressCommand struct {
	UserID     string
	ResourceID string

	// QuizScore is the quiz result in percent (nil = not part of this update).
	QuizScore *int

	// FlashcardScore is the flashcard result in percent (nil = not part of this update).
	FlashcardScore *int

	// SummaryCompleted marks the resource summary as read.
	SummaryCompleted bool

	// CorrelationID is copied onto the published event.
	CorrelationID string
}

// Validate validates the command and normalizes IDs.
func (c *RecordProgressCommand) Validate() error {
	userID, err := shared.NewUserID(c.UserID)
	if err != nil {
		return err
	}
	resourceID, err := shared.NewResourceID(c.ResourceID)
	if err != nil {
		return err
	}
	c.UserID, c.ResourceID = userID.String(), resourceID.String()

	if c.QuizScore == nil && c.FlashcardScore == nil && !c.SummaryCompleted {
		return shared.ErrEmptyProgress
	}
	return c.record(time.Time{}).Validate()
}

func (c RecordProgressCommand) record(at time.Time) progress.ActivityRecord {
	return progress.ActivityRecord{
		ResourceID:       c.ResourceID,
		QuizScore:        c.QuizScore,
		FlashcardScore:   c.FlashcardScore,
		SummaryCompleted: c.SummaryCompleted,
		LastUpdated:      at,
	}
}

// RecordProgressResult contains the stored record.
type RecordProgressResult struct {
	Record progress.ActivityRecord `json:"record"`

	// PreviousLevel is the user's level before the write (0 = unknown).
	PreviousLevel int `json:"previous_level"`

	// NewLevel is the user's level after the write (0 = unknown).
	NewLevel int `json:"new_level"`
}

// ProfileBuilder rebuilds a profile card from storage.
type ProfileBuilder interface {
	Build(ctx context.Context, userID string) (*progress.ProfileCard, error)
}

// RecordProgressHandler handles RecordProgressCommand.
type RecordProgressHandler struct {
	progressRepo progress.ProgressRepository
	profiles     ProfileBuilder
	cache        progress.ProfileCache
	publisher    shared.EventPublisher
	now          func() time.Time
	logger       *slog.Logger
}

// NewRecordProgressHandler creates a new handler.
// cache and publisher may be nil.
func NewRecordProgressHandler(
	progressRepo progress.ProgressRepository,
	profiles ProfileBuilder,
	cache progress.ProfileCache,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *RecordProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordProgressHandler{
		progressRepo: progressRepo,
		profiles:     profiles,
		cache:        cache,
		publisher:    publisher,
		now:          time.Now,
		logger:       logger.With("handler", "record_progress"),
	}
}

// WithClock overrides the time source.
func (h *RecordProgressHandler) WithClock(now func() time.Time) *RecordProgressHandler {
	h.now = now
	return h
}

// Handle executes the command.
func (h *RecordProgressHandler) Handle(ctx context.Context, cmd RecordProgressCommand) (*RecordProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	previousLevel, err := h.currentLevel(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	existing, err := h.progressRepo.Get(ctx, cmd.UserID, cmd.ResourceID)
	switch {
	case shared.IsNotFound(err):
		existing = progress.ActivityRecord{ResourceID: cmd.ResourceID}
	case err != nil:
		return nil, fmt.Errorf("load progress: %w", err)
	}

	merged := existing.Merge(cmd.record(h.now().UTC()))
	if err := h.progressRepo.Save(ctx, cmd.UserID, merged); err != nil {
		return nil, err
	}

	// The next write must read its previous level from storage, not from
	// a card the event handlers have not refreshed yet.
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, cmd.UserID); err != nil {
			h.logger.Warn("profile cache invalidation failed", "user_id", cmd.UserID, "error", err)
		}
	}
	after := h.levelAfterWrite(ctx, cmd.UserID)

	h.logger.Info("progress recorded",
		"user_id", cmd.UserID,
		"resource_id", cmd.ResourceID,
		"previous_level", previousLevel,
		"new_level", after.Level,
	)

	if h.publisher != nil {
		event := shared.NewProgressRecordedEvent(
			cmd.UserID,
			cmd.ResourceID,
			merged.QuizScore,
			merged.FlashcardScore,
			merged.SummaryCompleted,
			previousLevel,
		)
		event = event.WithLevel(after.Level, after.Name, after.Experience)
		event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
		if err := h.publisher.Publish(event); err != nil {
			h.logger.Warn("failed to publish progress event", "user_id", cmd.UserID, "error", err)
		}
	}

	return &RecordProgressResult{Record: merged, PreviousLevel: previousLevel, NewLevel: after.Level}, nil
}

// levelSnapshot is the level a write left the user on. Zero when unknown.
type levelSnapshot struct {
	Level      int
	Name       string
	Experience float64
}

// levelAfterWrite rebuilds the card from storage. A failure only costs the
// level-up notification, so it is logged and reported as unknown.
func (h *RecordProgressHandler) levelAfterWrite(ctx context.Context, userID string) levelSnapshot {
	if h.profiles == nil {
		return levelSnapshot{}
	}
	card, err := h.profiles.Build(ctx, userID)
	if err != nil {
		h.logger.Warn("failed to rebuild profile after write", "user_id", userID, "error", err)
		return levelSnapshot{}
	}
	return levelSnapshot{Level: card.Level.Level, Name: card.Level.Name, Experience: card.Experience}
}

// currentLevel reads the level from the cached card, rebuilding it on a miss.
// Rebuilding also rejects unknown users.
func (h *RecordProgressHandler) currentLevel(ctx context.Context, userID string) (int, error) {
	if h.cache != nil {
		card, found, err := h.cache.Get(ctx, userID)
		if err != nil {
			h.logger.Warn("profile cache read failed", "user_id", userID, "error", err)
		} else if found {
			return card.Level.Level, nil
		}
	}

	if h.profiles == nil {
		return 0, nil
	}
	card, err := h.profiles.Build(ctx, userID)
	if err != nil {
		return 0, err
	}
	return card.Level.Level, nil
}
