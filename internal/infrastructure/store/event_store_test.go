package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestEventStore_AppendStoresAtGivenVersion(t *testing.T) {
	ctx := context.Background()
	es := NewEventStore(nil, nil)

	first, err := es.Append(ctx, "cart-a", "Cart", "ItemAddedToCart", 1, map[string]any{"product_id": "1"})
	require.NoError(t, err)
	second, err := es.Append(ctx, "cart-a", "Cart", "CartCleared", 2, map[string]any{})
	require.NoError(t, err)
	other, err := es.Append(ctx, "cart-b", "Cart", "CartCleared", 1, map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, 1, other.Version)
	assert.NotEmpty(t, first.ID)
	assert.JSONEq(t, `{"product_id":"1"}`, string(first.Data))
}

func TestEventStore_GetEventsFromVersion(t *testing.T) {
	ctx := context.Background()
	es := NewEventStore(nil, nil)

	for i := 0; i < 5; i++ {
		_, err := es.Append(ctx, "order-1", "Order", "OrderStatusChanged", i+1, map[string]int{"n": i})
		require.NoError(t, err)
	}

	all, err := es.GetEvents(ctx, "order-1")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	tail, err := es.GetEventsFromVersion(ctx, "order-1", 3)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, 4, tail[0].Version)
	assert.Equal(t, 5, tail[1].Version)

	none, err := es.GetEvents(ctx, "order-unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEventStore_GetAllEventsKeepsAppendOrder(t *testing.T) {
	ctx := context.Background()
	es := NewEventStore(nil, nil)

	_, _ = es.Append(ctx, "order-1", "Order", "OrderPlaced", 1, nil)
	_, _ = es.Append(ctx, "cart-x", "Cart", "CartCleared", 1, nil)
	_, _ = es.Append(ctx, "order-1", "Order", "OrderStatusChanged", 2, nil)

	events, err := es.GetAllEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "OrderPlaced", events[0].EventType)
	assert.Equal(t, "CartCleared", events[1].EventType)
	assert.Equal(t, "OrderStatusChanged", events[2].EventType)
}

func TestEventStore_PublishesAppendedEvents(t *testing.T) {
	ctx := context.Background()
	var keys []string
	var published []Event
	es := NewEventStore(PublisherFunc(func(ctx context.Context, key string, event any) error {
		keys = append(keys, key)
		published = append(published, event.(Event))
		return nil
	}), nil)

	_, err := es.Append(ctx, "order-1", "Order", "OrderPlaced", 1, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"order-1"}, keys)
	require.Len(t, published, 1)
	assert.Equal(t, "OrderPlaced", published[0].EventType)
}

func TestEventStore_PublishFailureIsLoggedNotReturned(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	es := NewEventStore(PublisherFunc(func(ctx context.Context, key string, event any) error {
		return errors.New("broker down")
	}), zap.New(core))

	event, err := es.Append(context.Background(), "order-1", "Order", "OrderPlaced", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, event.Version)

	entries := logs.FilterMessage("failed to publish event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "order-1", entries[0].ContextMap()["aggregate_id"])
}

func TestEventStore_AppendRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	es := NewEventStore(nil, nil)

	_, err := es.Append(ctx, "order-1", "Order", "OrderPlaced", 1, nil)
	require.NoError(t, err)

	_, err = es.Append(ctx, "order-1", "Order", "OrderStatusChanged", 1, nil)
	assert.ErrorIs(t, err, ErrVersionConflict)
	_, err = es.Append(ctx, "order-1", "Order", "OrderStatusChanged", 3, nil)
	assert.ErrorIs(t, err, ErrVersionConflict)

	events, err := es.GetEvents(ctx, "order-1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestEventStore_RejectedAppendIsNotPublished(t *testing.T) {
	ctx := context.Background()
	published := 0
	es := NewEventStore(PublisherFunc(func(ctx context.Context, key string, event any) error {
		published++
		return nil
	}), nil)

	_, err := es.Append(ctx, "order-1", "Order", "OrderPlaced", 1, nil)
	require.NoError(t, err)
	_, err = es.Append(ctx, "order-1", "Order", "OrderCancelled", 1, nil)
	require.ErrorIs(t, err, ErrVersionConflict)

	assert.Equal(t, 1, published)
}

func TestEventStore_ConcurrentAppendsAtSameVersionOneWins(t *testing.T) {
	ctx := context.Background()
	es := NewEventStore(nil, nil)

	const writers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	won, conflicts := 0, 0
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := es.Append(ctx, "cart-a", "Cart", "ItemAddedToCart", 1, nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case errors.Is(err, ErrVersionConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, won)
	assert.Equal(t, writers-1, conflicts)
	events, err := es.GetEvents(ctx, "cart-a")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestEventStore_PublishesInAppendOrder(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	var versions []int
	es := NewEventStore(PublisherFunc(func(ctx context.Context, key string, event any) error {
		mu.Lock()
		defer mu.Unlock()
		versions = append(versions, event.(Event).Version)
		return nil
	}), nil)

	// Writers retry on conflict, so every version 1..n is appended exactly once.
	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				events, err := es.GetEvents(ctx, "order-1")
				if err != nil {
					return
				}
				_, err = es.Append(ctx, "order-1", "Order", "OrderStatusChanged", len(events)+1, nil)
				if !errors.Is(err, ErrVersionConflict) {
					return
				}
			}
		}()
	}
	wg.Wait()

	require.Len(t, versions, writers)
	for i, v := range versions {
		assert.Equal(t, i+1, v)
	}
}
