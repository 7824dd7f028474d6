package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventStore keeps events in process memory for the lifetime of the session
// and forwards each appended event to an optional publisher.
type EventStore struct {
	mu        sync.RWMutex
	publishMu sync.Mutex // keeps publish order equal to append order; publishers must not call back into the store
	events    map[string][]Event // aggregateID -> events
	all       []Event            // append order across aggregates
	snapshots map[string]Snapshot
	publisher Publisher
	logger    *zap.Logger
}

func NewEventStore(publisher Publisher, logger *zap.Logger) *EventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventStore{
		events:    make(map[string][]Event),
		snapshots: make(map[string]Snapshot),
		publisher: publisher,
		logger:    logger.Named("event-store"),
	}
}

// Append stores an event at the given version and publishes it. A publish
// failure is logged and does not undo the append; consumers rebuild from the
// log on replay.
func (es *EventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, version int, data any) (*Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}

	es.mu.Lock()
	if next := len(es.events[aggregateID]) + 1; version != next {
		es.mu.Unlock()
		return nil, fmt.Errorf("%w: %s v%d, next is v%d", ErrVersionConflict, aggregateID, version, next)
	}
	event := newEvent(uuid.New().String(), aggregateID, aggregateType, eventType, jsonData, version)
	es.events[aggregateID] = append(es.events[aggregateID], event)
	es.all = append(es.all, event)
	// Taken before mu is released so events are published in append order.
	es.publishMu.Lock()
	es.mu.Unlock()

	defer es.publishMu.Unlock()
	publish(ctx, es.publisher, es.logger, event)
	return &event, nil
}

// GetEvents returns all events for an aggregate
func (es *EventStore) GetEvents(ctx context.Context, aggregateID string) ([]Event, error) {
	return es.GetEventsFromVersion(ctx, aggregateID, 0)
}

// GetEventsFromVersion returns events with a version greater than fromVersion
func (es *EventStore) GetEventsFromVersion(ctx context.Context, aggregateID string, fromVersion int) ([]Event, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	var out []Event
	for _, e := range es.events[aggregateID] {
		if e.Version > fromVersion {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetAllEvents returns every event in append order
func (es *EventStore) GetAllEvents(ctx context.Context) ([]Event, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	out := make([]Event, len(es.all))
	copy(out, es.all)
	return out, nil
}

func (es *EventStore) GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	snapshot, ok := es.snapshots[aggregateID]
	if !ok {
		return nil, nil
	}
	return &snapshot, nil
}

func (es *EventStore) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	es.snapshots[snapshot.AggregateID] = *snapshot
	return nil
}

func publish(ctx context.Context, publisher Publisher, logger *zap.Logger, event Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event.AggregateID, event); err != nil {
		logger.Error("failed to publish event",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.EventType),
			zap.String("aggregate_id", event.AggregateID),
			zap.Error(err))
	}
}
