// Package messaging implements the event bus of the progress engine.
// It provides an in-memory bus for single-instance deployments and a
// Redis-backed bus for fan-out across instances.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/edusmart/progress-engine/internal/domain/shared"
	"github.com/edusmart/progress-engine/internal/infrastructure/persistence/redis"
	"github.com/edusmart/progress-engine/pkg/logger"
)

// ErrBusClosed is returned when publishing on a closed bus.
var ErrBusClosed = errors.New("messaging: event bus is closed")

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus is a simple in-memory implementation of shared.EventBus.
// Suitable for single-instance deployments and testing.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	asyncMode   bool
	workerPool  chan struct{}
	log         *logger.Logger
	closed      bool
	wg          sync.WaitGroup
}

// InMemoryEventBusConfig contains configuration for InMemoryEventBus.
type InMemoryEventBusConfig struct {
	// AsyncMode enables asynchronous event processing.
	AsyncMode bool

	// WorkerPoolSize is the number of concurrent workers for async processing.
	WorkerPoolSize int

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultInMemoryEventBusConfig returns sensible defaults.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 10,
	}
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(config InMemoryEventBusConfig) *InMemoryEventBus {
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}
	log := config.Logger
	if log == nil {
		log = logger.Default()
	}

	return &InMemoryEventBus{
		handlers:   make(map[shared.EventType][]shared.EventHandler),
		asyncMode:  config.AsyncMode,
		workerPool: make(chan struct{}, config.WorkerPoolSize),
		log:        log.With(logger.Component("eventbus")),
	}
}

// Subscribe registers a handler for one event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("messaging: handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// SubscribeAll registers a handler for every event type.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("messaging: handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}
	b.allHandlers = append(b.allHandlers, handler)
	return nil
}

// Publish delivers the event to all matching handlers. In async mode delivery
// happens on the worker pool and a failing handler never fails the publish.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	handlers := make([]shared.EventHandler, 0,
		len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if b.asyncMode {
			b.executeAsync(event, handler)
		} else if err := b.execute(event, handler); err != nil {
			return err
		}
	}
	return nil
}

func (b *InMemoryEventBus) executeAsync(event shared.Event, handler shared.EventHandler) {
	b.wg.Add(1)
	b.workerPool <- struct{}{}

	go func() {
		defer func() {
			<-b.workerPool
			b.wg.Done()
			if r := recover(); r != nil {
				b.log.Error("event handler panicked",
					logger.String("event_type", string(event.EventType())),
					logger.Any("panic", r),
				)
			}
		}()

		if err := handler(event); err != nil {
			b.log.Warn("event handler failed",
				logger.String("event_type", string(event.EventType())),
				logger.Err(err),
			)
		}
	}()
}

func (b *InMemoryEventBus) execute(event shared.Event, handler shared.EventHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("messaging: event handler panicked")
		}
	}()
	return handler(event)
}

// Close stops accepting events and waits for in-flight handlers.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REDIS EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// eventEnvelope is the wire format of an event on the Redis channel.
type eventEnvelope struct {
	EventType   shared.EventType       `json:"event_type"`
	AggregateID string                 `json:"aggregate_id"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Payload     map[string]interface{} `json:"payload"`
}

// remoteEvent is an event reconstructed from an envelope. It satisfies
// shared.Event but carries only the serialized payload.
type remoteEvent struct {
	envelope eventEnvelope
}

func (e *remoteEvent) EventType() shared.EventType     { return e.envelope.EventType }
func (e *remoteEvent) AggregateID() string             { return e.envelope.AggregateID }
func (e *remoteEvent) OccurredAt() time.Time           { return e.envelope.OccurredAt }
func (e *remoteEvent) Payload() map[string]interface{} { return e.envelope.Payload }

// RedisEventBus publishes events over Redis pub/sub and delivers received
// envelopes to a local in-memory bus. Instances of the engine share derived
// state through PostgreSQL; the bus only carries notifications, so at-most-once
// delivery is acceptable.
type RedisEventBus struct {
	cache  *redis.Cache
	local  *InMemoryEventBus
	log    *logger.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// RedisChannel is the pub/sub channel carrying all engine events.
const RedisChannel = "events"

// NewRedisEventBus creates the bus and starts the subscription loop.
func NewRedisEventBus(cache *redis.Cache, local *InMemoryEventBus, log *logger.Logger) *RedisEventBus {
	ctx, cancel := context.WithCancel(context.Background())
	b := &RedisEventBus{
		cache:  cache,
		local:  local,
		log:    log.With(logger.Component("redis_eventbus")),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go b.subscriptionLoop(ctx)
	return b
}

// Subscribe registers a handler on the local bus.
func (b *RedisEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.local.Subscribe(eventType, handler)
}

// SubscribeAll registers a catch-all handler on the local bus.
func (b *RedisEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.local.SubscribeAll(handler)
}

// Publish sends the event to Redis; remote instances (including this one)
// receive it via the subscription loop.
func (b *RedisEventBus) Publish(event shared.Event) error {
	envelope := eventEnvelope{
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     event.Payload(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := b.cache.Publish(ctx, redis.PubSubChannel(RedisChannel), envelope); err != nil {
		// Degrade to local-only delivery rather than dropping the event.
		b.log.Warn("redis publish failed, delivering locally", logger.Err(err))
		return b.local.Publish(event)
	}
	return nil
}

func (b *RedisEventBus) subscriptionLoop(ctx context.Context) {
	defer close(b.done)

	sub := b.cache.Subscribe(ctx, redis.PubSubChannel(RedisChannel))
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var envelope eventEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				b.log.Warn("malformed event envelope", logger.Err(err))
				continue
			}
			if err := b.local.Publish(&remoteEvent{envelope: envelope}); err != nil {
				b.log.Warn("local delivery failed",
					logger.String("event_type", string(envelope.EventType)),
					logger.Err(err),
				)
			}
		}
	}
}

// Close stops the subscription loop and the local bus.
func (b *RedisEventBus) Close() error {
	b.cancel()
	<-b.done
	return b.local.Close()
}
