package messaging

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusmart/progress-engine/internal/domain/shared"
	"github.com/edusmart/progress-engine/pkg/logger"
)

func newSyncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = false
	cfg.Logger = logger.New(logger.Options{Level: logger.LevelError})
	return NewInMemoryEventBus(cfg)
}

func TestInMemoryEventBusDeliversToSubscribers(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var received []shared.Event
	err := bus.Subscribe(shared.EventCompletionRecorded, func(e shared.Event) error {
		received = append(received, e)
		return nil
	})
	require.NoError(t, err)

	event := shared.NewCompletionRecordedEvent("user-1", "res-1", "video", "Go", 50)
	require.NoError(t, bus.Publish(event))

	require.Len(t, received, 1)
	assert.Equal(t, shared.EventCompletionRecorded, received[0].EventType())
	assert.Equal(t, "user-1", received[0].AggregateID())
}

func TestInMemoryEventBusFiltersByEventType(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var completions, levelUps int
	require.NoError(t, bus.Subscribe(shared.EventCompletionRecorded, func(shared.Event) error {
		completions++
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(shared.Event) error {
		levelUps++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewCompletionRecordedEvent("user-1", "res-1", "video", "Go", 50)))
	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("user-1", "Beginner", "Intermediate", 100)))
	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("user-1", "Intermediate", "Advanced", 150)))

	assert.Equal(t, 1, completions)
	assert.Equal(t, 2, levelUps)
}

func TestInMemoryEventBusSubscribeAll(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var all int
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		all++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewCompletionRecordedEvent("user-1", "res-1", "video", "Go", 50)))
	require.NoError(t, bus.Publish(shared.NewAchievementUnlockedEvent("user-1", "first-resource", 25)))

	assert.Equal(t, 2, all)
}

func TestInMemoryEventBusSyncPropagatesHandlerError(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	handlerErr := errors.New("projection update failed")
	require.NoError(t, bus.Subscribe(shared.EventCompletionRecorded, func(shared.Event) error {
		return handlerErr
	}))

	err := bus.Publish(shared.NewCompletionRecordedEvent("user-1", "res-1", "video", "Go", 50))
	assert.ErrorIs(t, err, handlerErr)
}

func TestInMemoryEventBusSyncRecoversHandlerPanic(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	require.NoError(t, bus.Subscribe(shared.EventCompletionRecorded, func(shared.Event) error {
		panic("boom")
	}))

	err := bus.Publish(shared.NewCompletionRecordedEvent("user-1", "res-1", "video", "Go", 50))
	assert.Error(t, err)
}

func TestInMemoryEventBusAsyncDelivery(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.Logger = logger.New(logger.Options{Level: logger.LevelError})
	bus := NewInMemoryEventBus(cfg)

	const n = 20
	var delivered atomic.Int64
	var wg sync.WaitGroup
	wg.Add(n)
	require.NoError(t, bus.Subscribe(shared.EventCompletionRecorded, func(shared.Event) error {
		delivered.Add(1)
		wg.Done()
		return nil
	}))

	for i := 0; i < n; i++ {
		require.NoError(t, bus.Publish(shared.NewCompletionRecordedEvent("user-1", "res-1", "video", "Go", 50)))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for async delivery")
	}

	require.NoError(t, bus.Close())
	assert.Equal(t, int64(n), delivered.Load())
}

func TestInMemoryEventBusPublishAfterClose(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewCompletionRecordedEvent("user-1", "res-1", "video", "Go", 50))
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestInMemoryEventBusSubscribeAfterClose(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	err := bus.Subscribe(shared.EventCompletionRecorded, func(shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrBusClosed)
}
