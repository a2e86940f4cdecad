// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types.
const (
	// Progress events
	EventProgressRecorded EventType = "progress.recorded"
	EventLevelUp          EventType = "progress.level_up"

	// Badge events
	EventBadgeEquipped EventType = "badge.equipped"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// Correlation returns the correlation ID (usually the HTTP request ID).
func (e BaseEvent) Correlation() string {
	return e.CorrelationID
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// ProgressRecordedEvent is emitted after a progress record was written.
// PreviousLevel and NewLevel are the levels before and after this write;
// 0 means unknown.
type ProgressRecordedEvent struct {
	BaseEvent
	UserID           string  `json:"user_id"`
	ResourceID       string  `json:"resource_id"`
	QuizScore        *int    `json:"quiz_score,omitempty"`
	FlashcardScore   *int    `json:"flashcard_score,omitempty"`
	SummaryCompleted bool    `json:"summary_completed"`
	PreviousLevel    int     `json:"previous_level,omitempty"`
	NewLevel         int     `json:"new_level,omitempty"`
	LevelName        string  `json:"level_name,omitempty"`
	Experience       float64 `json:"experience,omitempty"`
}

// Payload implements Event interface.
func (e ProgressRecordedEvent) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"user_id":           e.UserID,
		"resource_id":       e.ResourceID,
		"summary_completed": e.SummaryCompleted,
		"previous_level":    e.PreviousLevel,
		"new_level":         e.NewLevel,
	}
	if e.QuizScore != nil {
		p["quiz_score"] = *e.QuizScore
	}
	if e.FlashcardScore != nil {
		p["flashcard_score"] = *e.FlashcardScore
	}
	return p
}

// NewProgressRecordedEvent creates a new ProgressRecordedEvent.
func NewProgressRecordedEvent(userID, resourceID string, quiz, flashcard *int, summary bool, previousLevel int) ProgressRecordedEvent {
	return ProgressRecordedEvent{
		BaseEvent:        NewBaseEvent(EventProgressRecorded, userID),
		UserID:           userID,
		ResourceID:       resourceID,
		QuizScore:        quiz,
		FlashcardScore:   flashcard,
		SummaryCompleted: summary,
		PreviousLevel:    previousLevel,
	}
}

// WithLevel records the level reached by the write.
func (e ProgressRecordedEvent) WithLevel(level int, name string, experience float64) ProgressRecordedEvent {
	e.NewLevel = level
	e.LevelName = name
	e.Experience = experience
	return e
}

// LevelUpEvent is emitted when a user crosses into a higher level.
type LevelUpEvent struct {
	BaseEvent
	UserID     string  `json:"user_id"`
	OldLevel   int     `json:"old_level"`
	NewLevel   int     `json:"new_level"`
	LevelName  string  `json:"level_name"`
	Experience float64 `json:"experience"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"old_level":  e.OldLevel,
		"new_level":  e.NewLevel,
		"level_name": e.LevelName,
		"experience": e.Experience,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID string, oldLevel, newLevel int, name string, experience float64) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent:  NewBaseEvent(EventLevelUp, userID),
		UserID:     userID,
		OldLevel:   oldLevel,
		NewLevel:   newLevel,
		LevelName:  name,
		Experience: experience,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Badge Events
// ═══════════════════════════════════════════════════════════════════════════

// BadgeEquippedEvent is emitted when a user equips or clears a badge.
// An empty Category means the badge slot was cleared.
type BadgeEquippedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Category string `json:"category"`
	Tier     string `json:"tier,omitempty"`
}

// Payload implements Event interface.
func (e BadgeEquippedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":  e.UserID,
		"category": e.Category,
		"tier":     e.Tier,
	}
}

// NewBadgeEquippedEvent creates a new BadgeEquippedEvent.
func NewBadgeEquippedEvent(userID, category, tier string) BadgeEquippedEvent {
	return BadgeEquippedEvent{
		BaseEvent: NewBaseEvent(EventBadgeEquipped, userID),
		UserID:    userID,
		Category:  category,
		Tier:      tier,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Source        string          `json:"source,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
