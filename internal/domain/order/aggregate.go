package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/storefront/internal/domain/aggregate"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const AggregateType = "Order"

// DefaultDeliveryOffset is how long after the order date delivery is estimated
const DefaultDeliveryOffset = 72 * time.Hour

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrEmptyOrder             = errors.New("order must have at least one item")
	ErrInvalidItem            = errors.New("invalid order item")
	ErrIncompleteCustomerInfo = errors.New("customer info is incomplete")
	ErrTotalMismatch          = errors.New("total amount does not match items")
	ErrInvalidStatus          = errors.New("invalid order status")
	ErrIllegalTransition      = errors.New("illegal status transition")

	ErrOrderCancelled = fmt.Errorf("order is cancelled: %w", ErrIllegalTransition)
	ErrOrderDelivered = fmt.Errorf("order is already delivered: %w", ErrIllegalTransition)
	ErrOrderShipped   = fmt.Errorf("cannot cancel shipped order: %w", ErrIllegalTransition)
)

type Order struct {
	ID                string          `json:"id"`
	Items             []Item          `json:"items"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Status            Status          `json:"status"`
	CustomerInfo      CustomerInfo    `json:"customer_info"`
	OrderDate         time.Time       `json:"order_date"`
	EstimatedDelivery time.Time       `json:"estimated_delivery"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"` // Current event version
}

// Aggregate interface implementation
func (o *Order) GetID() string   { return o.ID }
func (o *Order) GetVersion() int { return o.Version }

// ApplyEvent applies a single event to the order state (implements aggregate.Aggregate)
func (o *Order) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventOrderPlaced:
		var data OrderPlaced
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.ID = data.OrderID
		o.Items = data.Items
		o.TotalAmount = data.TotalAmount
		o.Status = StatusPending
		o.CustomerInfo = data.CustomerInfo
		o.OrderDate = data.OrderDate
		o.EstimatedDelivery = data.EstimatedDelivery
		o.UpdatedAt = data.OrderDate
	case EventOrderStatusChanged:
		var data OrderStatusChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = data.To
		o.UpdatedAt = data.ChangedAt
	default:
		return fmt.Errorf("unknown order event %q", event.EventType)
	}
	o.Version = event.Version
	return nil
}

// PlaceParams is a new order as submitted at checkout
type PlaceParams struct {
	Items        []Item
	TotalAmount  decimal.Decimal
	Status       Status // zero value means pending
	CustomerInfo CustomerInfo
}

type Option func(*Service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithDeliveryOffset(d time.Duration) Option {
	return func(s *Service) { s.deliveryOffset = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

type Service struct {
	eventStore     store.EventStoreInterface
	logger         *zap.Logger
	now            func() time.Time
	deliveryOffset time.Duration
}

func NewService(es store.EventStoreInterface, opts ...Option) *Service {
	s := &Service{
		eventStore:     es,
		logger:         zap.NewNop(),
		now:            time.Now,
		deliveryOffset: DefaultDeliveryOffset,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("order")
	return s
}

const idPrefix = "order-"

// newOrderID returns order-<unix millis>-<9 random characters>. Collisions
// within one millisecond are possible in principle and are not detected.
func newOrderID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return idPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix
}

// ValidatePlace reports whether p would be accepted by Place
func ValidatePlace(p PlaceParams) error {
	if len(p.Items) == 0 {
		return ErrEmptyOrder
	}
	for _, item := range p.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: quantity %d for product %s", ErrInvalidItem, item.Quantity, item.Product.ID)
		}
		want := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if !item.TotalPrice.Equal(want) {
			return fmt.Errorf("%w: product %s line total %s, want %s", ErrTotalMismatch, item.Product.ID, item.TotalPrice, want)
		}
	}
	if sum := SumItems(p.Items); !p.TotalAmount.Equal(sum) {
		return fmt.Errorf("%w: total %s, items sum to %s", ErrTotalMismatch, p.TotalAmount, sum)
	}
	if p.Status != "" && p.Status != StatusPending {
		return fmt.Errorf("%w: new orders start pending, got %q", ErrInvalidStatus, p.Status)
	}
	return p.CustomerInfo.Validate()
}

// Place records a new pending order
func (s *Service) Place(ctx context.Context, p PlaceParams) (*Order, error) {
	if err := ValidatePlace(p); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &Order{ID: newOrderID(now)}
	items := make([]Item, len(p.Items))
	copy(items, p.Items)

	event := OrderPlaced{
		OrderID:           order.ID,
		Items:             items,
		TotalAmount:       p.TotalAmount,
		CustomerInfo:      p.CustomerInfo,
		OrderDate:         now,
		EstimatedDelivery: now.Add(s.deliveryOffset),
	}
	if _, err := aggregate.Commit(ctx, s.eventStore, s.logger, order, AggregateType, EventOrderPlaced, event); err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.Int("items", len(order.Items)),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)))
	return order, nil
}

// Find returns the order, or ok=false when no order has that id.
// Ids of other aggregates, such as carts, are never orders.
func (s *Service) Find(ctx context.Context, orderID string) (*Order, bool, error) {
	if !strings.HasPrefix(orderID, idPrefix) {
		return nil, false, nil
	}
	order, found, err := aggregate.LoadAggregate(ctx, s.eventStore, orderID, func() *Order {
		return &Order{}
	})
	if err != nil || !found {
		return nil, false, err
	}
	return order, true, nil
}

func (s *Service) load(ctx context.Context, orderID string) (*Order, error) {
	order, found, err := s.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return order, nil
}

// UpdateStatus moves the order to next if the lifecycle allows it
func (s *Service) UpdateStatus(ctx context.Context, orderID string, next Status) (*Order, error) {
	return s.transition(ctx, orderID, func(*Order) (Status, error) {
		if !next.Valid() {
			return "", fmt.Errorf("%w: %q", ErrInvalidStatus, next)
		}
		return next, nil
	}, "")
}

// Advance moves the order one step along the fulfilment chain
func (s *Service) Advance(ctx context.Context, orderID string) (*Order, error) {
	return s.transition(ctx, orderID, func(o *Order) (Status, error) {
		next, ok := NextStatus(o.Status)
		if !ok {
			return "", transitionError(o.Status, "")
		}
		return next, nil
	}, "")
}

// Cancel is allowed until the order ships
func (s *Service) Cancel(ctx context.Context, orderID, reason string) (*Order, error) {
	return s.transition(ctx, orderID, func(*Order) (Status, error) {
		return StatusCancelled, nil
	}, reason)
}

func (s *Service) transition(ctx context.Context, orderID string, target func(*Order) (Status, error), reason string) (*Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	next, err := target(order)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if !CanTransition(from, next) {
		return nil, transitionError(from, next)
	}

	event := OrderStatusChanged{
		OrderID:   orderID,
		From:      from,
		To:        next,
		Reason:    reason,
		ChangedAt: s.now().UTC(),
	}
	if _, err := aggregate.Commit(ctx, s.eventStore, s.logger, order, AggregateType, EventOrderStatusChanged, event); err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.String("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(next)))
	return order, nil
}
