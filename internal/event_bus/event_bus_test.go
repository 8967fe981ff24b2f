package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishInSubscriptionOrder(t *testing.T) {
	bus := NewEventBus()
	var calls []int
	for i := range 5 {
		bus.Subscribe(EventCreatedType, func(Event) error {
			calls = append(calls, i)
			return nil
		})
	}

	err := bus.Publish(NewEvent(context.Background(), EventCreatedType, EventCreated{Key: "2024-09-04 12:00"}))

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, calls)
}

func TestEventBus_OnlyMatchingType(t *testing.T) {
	bus := NewEventBus()
	called := false
	bus.Subscribe(EventDeletedType, func(Event) error {
		called = true
		return nil
	})

	err := bus.Publish(NewEvent(context.Background(), EventCreatedType, EventCreated{}))

	require.NoError(t, err)
	assert.False(t, called)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()
	count := 0
	unsubscribe := bus.Subscribe(EventDeletedType, func(Event) error {
		count++
		return nil
	})

	require.NoError(t, bus.Publish(NewEvent(context.Background(), EventDeletedType, EventDeleted{})))
	unsubscribe()
	require.NoError(t, bus.Publish(NewEvent(context.Background(), EventDeletedType, EventDeleted{})))

	assert.Equal(t, 1, count)
}

func TestEventBus_CollectsErrorsAndPanics(t *testing.T) {
	bus := NewEventBus()
	failure := errors.New("handler failed")
	reached := false
	bus.Subscribe(EventUpdatedType, func(Event) error { return failure })
	bus.Subscribe(EventUpdatedType, func(Event) error { panic("boom") })
	bus.Subscribe(EventUpdatedType, func(Event) error {
		reached = true
		return nil
	})

	err := bus.Publish(NewEvent(context.Background(), EventUpdatedType, EventUpdated{}))

	require.Error(t, err)
	assert.ErrorIs(t, err, failure)
	assert.Contains(t, err.Error(), "2 handler(s) failed")
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, reached)
}

func TestEventBus_CancelledContext(t *testing.T) {
	bus := NewEventBus()
	called := false
	bus.Subscribe(EventCreatedType, func(Event) error {
		called = true
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bus.Publish(NewEvent(ctx, EventCreatedType, EventCreated{}))

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestSubscribeTyped(t *testing.T) {
	bus := NewEventBus()
	var received []EventDeleted
	SubscribeTyped(bus, EventDeletedType, func(e EventT[EventDeleted]) error {
		assert.NotNil(t, e.Context())
		received = append(received, e.Data)
		return nil
	})

	require.NoError(t, bus.Publish(NewEvent(context.Background(), EventDeletedType, EventDeleted{Key: "2024-09-04 12:00"})))
	require.NoError(t, bus.Publish(NewEvent(context.Background(), EventDeletedType, "wrong payload")))
	require.NoError(t, bus.Publish(Event{Type: EventDeletedType}))

	assert.Equal(t, []EventDeleted{{Key: "2024-09-04 12:00"}}, received)
}
