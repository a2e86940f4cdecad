package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
)

// DefaultChannel is the Redis channel events are published on.
const DefaultChannel = "studybuddy:events"

// ══════════════════════════════════════════════════════════════════════════════
// ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// NewEnvelope wraps an event for transport and stamps it with a ULID.
func NewEnvelope(event shared.Event, source string) (shared.EventEnvelope, error) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return shared.EventEnvelope{}, fmt.Errorf("marshal payload: %w", err)
	}

	envelope := shared.EventEnvelope{
		ID:          ulid.Make().String(),
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Timestamp:   event.OccurredAt(),
		Version:     1,
		Source:      source,
		Payload:     payload,
	}
	if c, ok := event.(interface{ Correlation() string }); ok {
		envelope.CorrelationID = c.Correlation()
	}
	return envelope, nil
}

// envelopeEvent is an event rebuilt from an envelope received from another instance.
type envelopeEvent struct {
	envelope shared.EventEnvelope
	payload  map[string]interface{}
}

func (e *envelopeEvent) EventType() shared.EventType { return e.envelope.Type }
func (e *envelopeEvent) AggregateID() string { return e.envelope.AggregateID }
func (e *envelopeEvent) OccurredAt() time.Time { return e.envelope.Timestamp }
func (e *envelopeEvent) Payload() map[string]interface{} { return e.payload }

// ══════════════════════════════════════════════════════════════════════════════
// REDIS EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// RedisEventBus publishes events through Redis Pub/Sub. Local handlers run
// through an in-memory bus; events from other instances are replayed into it.
type RedisEventBus struct {
	client     *redis.Client
	pubsub     *redis.PubSub
	localBus   *InMemoryEventBus
	channel    string
	instanceID string
	logger     *slog.Logger
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.RWMutex
	closed     bool
}

// RedisEventBusConfig contains configuration for RedisEventBus.
type RedisEventBusConfig struct {
	Client *redis.Client

	// Channel defaults to DefaultChannel.
	Channel string

	// InstanceID filters out this instance's own messages. Generated when empty.
	InstanceID string

	LocalBusConfig InMemoryEventBusConfig
	Logger         *slog.Logger
}

// NewRedisEventBus subscribes to the channel and starts the listener.
func NewRedisEventBus(ctx context.Context, config RedisEventBusConfig) (*RedisEventBus, error) {
	if config.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if config.Channel == "" {
		config.Channel = DefaultChannel
	}
	if config.InstanceID == "" {
		config.InstanceID = ulid.Make().String()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.LocalBusConfig.Logger == nil {
		config.LocalBusConfig.Logger = config.Logger
	}

	pubsub := config.Client.Subscribe(ctx, config.Channel)
	// Wait for the subscription to be confirmed before accepting publishes.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", config.Channel, err)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	bus := &RedisEventBus{
		client:     config.Client,
		pubsub:     pubsub,
		localBus:   NewInMemoryEventBus(config.LocalBusConfig),
		channel:    config.Channel,
		instanceID: config.InstanceID,
		logger:     config.Logger.With("instance_id", config.InstanceID, "channel", config.Channel),
		cancel:     cancel,
	}

	bus.wg.Add(1)
	go func() {
		defer bus.wg.Done()
		bus.listen(listenCtx)
	}()

	return bus, nil
}

// InstanceID returns the identifier this bus stamps on outgoing envelopes.
func (b *RedisEventBus) InstanceID() string {
	return b.instanceID
}

// Subscribe registers a handler for a specific event type.
func (b *RedisEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.localBus.Subscribe(eventType, handler)
}

// SubscribeAll registers a handler for all events.
func (b *RedisEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.localBus.SubscribeAll(handler)
}

// Publish sends the event to Redis and to local handlers.
// A Redis failure is logged; local handlers still run.
func (b *RedisEventBus) Publish(event shared.Event) error {
	if event == nil {
		return ErrNilEvent
	}

	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrEventBusClosed
	}

	envelope, err := NewEnvelope(event, b.instanceID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Error("failed to publish to redis", "event_type", event.EventType(), "error", err)
	}

	return b.localBus.Publish(event)
}

// listen replays messages from other instances into the local bus.
func (b *RedisEventBus) listen(ctx context.Context) {
	messages := b.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			b.handleMessage(msg.Payload)
		}
	}
}

func (b *RedisEventBus) handleMessage(raw string) {
	var envelope shared.EventEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		b.logger.Error("failed to unmarshal event envelope", "error", err)
		return
	}

	// Own events were already handled locally in Publish.
	if envelope.Source == b.instanceID {
		return
	}

	payload := make(map[string]interface{})
	if len(envelope.Payload) > 0 {
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			b.logger.Error("failed to unmarshal event payload", "event_id", envelope.ID, "error", err)
			return
		}
	}

	if err := b.localBus.Publish(&envelopeEvent{envelope: envelope, payload: payload}); err != nil {
		b.logger.Warn("dropping remote event", "event_id", envelope.ID, "error", err)
	}
}

// Close stops the listener, closes the subscription and drains local handlers.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	err := b.pubsub.Close()
	b.wg.Wait()

	if lerr := b.localBus.Close(); lerr != nil && err == nil {
		err = lerr
	}
	return err
}

// Metrics returns the local bus counters.
func (b *RedisEventBus) Metrics() EventBusMetricsSnapshot {
	return b.localBus.Metrics()
}
