package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/storefront/internal/infrastructure/store"
	"go.uber.org/zap"
)

// Aggregate defines the interface for event-sourced aggregates
type Aggregate interface {
	GetID() string
	GetVersion() int
	ApplyEvent(store.Event) error
}

// LoadAggregate loads an aggregate by replaying events, using snapshot if available.
// The boolean reports whether the aggregate has any history at all.
func LoadAggregate[T Aggregate](
	ctx context.Context,
	eventStore store.EventStoreInterface,
	id string,
	newAggregate func() T,
) (T, bool, error) {
	var zero T
	agg := newAggregate()

	snapshot, err := eventStore.GetSnapshot(ctx, id)
	if err != nil {
		return zero, false, fmt.Errorf("failed to get snapshot: %w", err)
	}

	fromVersion := 0
	if snapshot != nil {
		if err := json.Unmarshal(snapshot.State, agg); err != nil {
			return zero, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		fromVersion = snapshot.Version
	}

	events, err := eventStore.GetEventsFromVersion(ctx, id, fromVersion)
	if err != nil {
		return zero, false, fmt.Errorf("failed to get events: %w", err)
	}

	for _, event := range events {
		if err := agg.ApplyEvent(event); err != nil {
			return zero, false, fmt.Errorf("failed to apply %s v%d: %w", event.EventType, event.Version, err)
		}
	}

	return agg, snapshot != nil || len(events) > 0, nil
}

// Commit appends an event for agg, applies the stored event to it and takes a
// snapshot when one is due. A failed snapshot is logged; the event is already stored.
// The event is appended at agg's version plus one, so Commit fails with
// store.ErrVersionConflict when another writer committed since agg was loaded.
func Commit(
	ctx context.Context,
	eventStore store.EventStoreInterface,
	logger *zap.Logger,
	agg Aggregate,
	aggregateType, eventType string,
	data any,
) (*store.Event, error) {
	event, err := eventStore.Append(ctx, agg.GetID(), aggregateType, eventType, agg.GetVersion()+1, data)
	if err != nil {
		return nil, fmt.Errorf("failed to append %s: %w", eventType, err)
	}
	if err := agg.ApplyEvent(*event); err != nil {
		return nil, fmt.Errorf("failed to apply %s: %w", eventType, err)
	}

	if err := MaybeCreateSnapshot(ctx, eventStore, agg, aggregateType); err != nil && logger != nil {
		logger.Warn("failed to create snapshot",
			zap.String("aggregate_id", agg.GetID()),
			zap.Int("version", agg.GetVersion()),
			zap.Error(err))
	}
	return event, nil
}

// MaybeCreateSnapshot saves the aggregate state when its version hits the threshold
func MaybeCreateSnapshot(
	ctx context.Context,
	eventStore store.EventStoreInterface,
	agg Aggregate,
	aggregateType string,
) error {
	version := agg.GetVersion()
	if !store.ShouldSnapshot(version) {
		return nil
	}

	state, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("failed to marshal aggregate state: %w", err)
	}

	snapshot := &store.Snapshot{
		AggregateID:   agg.GetID(),
		AggregateType: aggregateType,
		Version:       version,
		State:         state,
		CreatedAt:     time.Now().UTC(),
	}
	if err := eventStore.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
