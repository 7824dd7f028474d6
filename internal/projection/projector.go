package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/readmodel"
	"go.uber.org/zap"
)

// Projector builds order read models from the event log. Each model records
// the version of the last event applied, so redelivered or replayed events are
// skipped.
type Projector struct {
	readStore store.ReadStoreInterface
	logger    *zap.Logger
}

func NewProjector(readStore store.ReadStoreInterface, logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{readStore: readStore, logger: logger.Named("projector")}
}

// HandleEvent decodes a JSON event envelope; it matches kafka.MessageHandler
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("failed to decode event: %w", err)
	}
	return p.Project(ctx, event)
}

// Project applies one event. Events of aggregates without a read model are ignored.
func (p *Projector) Project(ctx context.Context, event store.Event) error {
	p.logger.Debug("received event",
		zap.String("event_type", event.EventType),
		zap.String("aggregate_id", event.AggregateID),
		zap.Int("version", event.Version))

	if event.AggregateType != order.AggregateType {
		return nil
	}

	switch event.EventType {
	case order.EventOrderPlaced:
		return p.orderPlaced(ctx, event)
	case order.EventOrderStatusChanged:
		return p.orderStatusChanged(ctx, event)
	}
	return nil
}

// Replay projects every stored event, oldest first, and returns how many were read
func (p *Projector) Replay(ctx context.Context, es store.EventStoreInterface) (int, error) {
	events, err := es.GetAllEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read event log: %w", err)
	}
	for _, event := range events {
		if err := p.Project(ctx, event); err != nil {
			return 0, fmt.Errorf("replay %s v%d: %w", event.AggregateID, event.Version, err)
		}
	}
	p.logger.Info("replayed event log", zap.Int("events", len(events)))
	return len(events), nil
}

func (p *Projector) orderPlaced(ctx context.Context, event store.Event) error {
	var e order.OrderPlaced
	if err := json.Unmarshal(event.Data, &e); err != nil {
		return err
	}

	if current, ok, err := p.readStore.Get(ctx, readmodel.CollectionOrders, e.OrderID); err != nil {
		return err
	} else if ok && current.(*readmodel.OrderReadModel).Version >= event.Version {
		return nil
	}

	m := &readmodel.OrderReadModel{
		ID:                e.OrderID,
		Items:             e.Items,
		TotalAmount:       e.TotalAmount,
		CustomerInfo:      e.CustomerInfo,
		OrderDate:         e.OrderDate,
		EstimatedDelivery: e.EstimatedDelivery,
		UpdatedAt:         e.OrderDate,
		History:           []readmodel.StatusChange{{Status: order.StatusPending, At: e.OrderDate}},
		Version:           event.Version,
	}
	m.SetStatus(order.StatusPending)
	return p.readStore.Set(ctx, readmodel.CollectionOrders, e.OrderID, m)
}

func (p *Projector) orderStatusChanged(ctx context.Context, event store.Event) error {
	var e order.OrderStatusChanged
	if err := json.Unmarshal(event.Data, &e); err != nil {
		return err
	}

	found, err := p.readStore.Update(ctx, readmodel.CollectionOrders, e.OrderID, func(current any) any {
		prev := current.(*readmodel.OrderReadModel)
		if prev.Version >= event.Version {
			return prev
		}
		m := *prev
		m.History = append(slices.Clone(prev.History), readmodel.StatusChange{Status: e.To, At: e.ChangedAt, Reason: e.Reason})
		m.SetStatus(e.To)
		m.UpdatedAt = e.ChangedAt
		m.Version = event.Version
		return &m
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("status change for unprojected order %s", e.OrderID)
	}
	return nil
}

// InlinePublisher projects events in the writing process, used when no broker is configured
func InlinePublisher(p *Projector) store.Publisher {
	return store.PublisherFunc(func(ctx context.Context, key string, event any) error {
		switch e := event.(type) {
		case store.Event:
			return p.Project(ctx, e)
		case *store.Event:
			return p.Project(ctx, *e)
		default:
			value, err := json.Marshal(event)
			if err != nil {
				return err
			}
			return p.HandleEvent(ctx, []byte(key), value)
		}
	})
}
