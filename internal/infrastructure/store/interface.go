package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrVersionConflict is returned when another writer appended the same aggregate version first
var ErrVersionConflict = errors.New("event version conflict")

// Event represents a domain event
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
}

// EventStoreInterface defines the interface for event stores.
// Append takes the version the new event must receive, one past the version the
// caller loaded; if the aggregate has moved on since, it fails with ErrVersionConflict.
type EventStoreInterface interface {
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, version int, data any) (*Event, error)
	GetEvents(ctx context.Context, aggregateID string) ([]Event, error)
	GetEventsFromVersion(ctx context.Context, aggregateID string, fromVersion int) ([]Event, error)
	GetAllEvents(ctx context.Context) ([]Event, error)
	GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
}

// Publisher forwards stored events to downstream consumers (Kafka, inline projector)
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// PublisherFunc adapts a function to the Publisher interface
type PublisherFunc func(ctx context.Context, key string, event any) error

func (f PublisherFunc) Publish(ctx context.Context, key string, event any) error {
	return f(ctx, key, event)
}

func newEvent(id, aggregateID, aggregateType, eventType string, data json.RawMessage, version int) Event {
	return Event{
		ID:            id,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          data,
		Timestamp:     time.Now().UTC(),
		Version:       version,
	}
}
