package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/internal/domain/aggregate"
	"github.com/example/storefront/internal/domain/catalog"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const AggregateType = "Cart"

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product_id is required")
)

type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart holds at most one entry per product, in the order products were first added
type Cart struct {
	ID      string     `json:"id"`
	Items   []CartItem `json:"items"`
	Version int        `json:"version"`
}

// GetCartID returns the cart id for a shopper session
func GetCartID(sessionID string) string {
	return "cart-" + sessionID
}

// Aggregate interface implementation
func (c *Cart) GetID() string   { return c.ID }
func (c *Cart) GetVersion() int { return c.Version }

func (c *Cart) indexOf(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Quantity returns the quantity held for a product, 0 when absent
func (c *Cart) Quantity(productID string) int {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// Len is the number of distinct products in the cart
func (c *Cart) Len() int { return len(c.Items) }

// ApplyEvent applies a single event to the cart state (implements aggregate.Aggregate)
func (c *Cart) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventItemAdded:
		var data ItemAddedToCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if i := c.indexOf(data.ProductID); i >= 0 {
			c.Items[i].Quantity += data.Quantity
		} else {
			c.Items = append(c.Items, CartItem{ProductID: data.ProductID, Quantity: data.Quantity})
		}
	case EventQuantityUpdated:
		var data CartItemQuantityUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if i := c.indexOf(data.ProductID); i >= 0 {
			c.Items[i].Quantity = data.Quantity
		}
	case EventItemRemoved:
		var data ItemRemovedFromCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if i := c.indexOf(data.ProductID); i >= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		}
	case EventCartCleared:
		c.Items = nil
	default:
		return fmt.Errorf("unknown cart event %q", event.EventType)
	}
	c.ID = event.AggregateID
	c.Version = event.Version
	return nil
}

// ProductLookup finds catalog products by id
type ProductLookup interface {
	Get(id string) (catalog.Product, bool)
}

// Resolution is a cart priced against the catalog
type Resolution struct {
	Items   []order.Item    `json:"items"`
	Total   decimal.Decimal `json:"total"`
	Missing []string        `json:"missing,omitempty"` // product ids no longer in the catalog
	Version int             `json:"version"`           // cart version that was priced
}

// Resolve prices every entry whose product exists, keeping cart order.
// Entries for unknown products are left out of Items and Total.
func (c *Cart) Resolve(products ProductLookup) Resolution {
	res := Resolution{Items: make([]order.Item, 0, len(c.Items)), Total: decimal.Zero, Version: c.Version}
	for _, entry := range c.Items {
		p, ok := products.Get(entry.ProductID)
		if !ok {
			res.Missing = append(res.Missing, entry.ProductID)
			continue
		}
		item, err := order.NewItem(p, entry.Quantity)
		if err != nil {
			res.Missing = append(res.Missing, entry.ProductID)
			continue
		}
		res.Items = append(res.Items, item)
		res.Total = res.Total.Add(item.TotalPrice)
	}
	return res
}

type Service struct {
	eventStore store.EventStoreInterface
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(es store.EventStoreInterface, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{eventStore: es, logger: logger.Named("cart"), now: time.Now}
}

// Get returns the cart, empty when it has no history
func (s *Service) Get(ctx context.Context, cartID string) (*Cart, error) {
	cart, _, err := aggregate.LoadAggregate(ctx, s.eventStore, cartID, func() *Cart {
		return &Cart{ID: cartID}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load cart %s: %w", cartID, err)
	}
	return cart, nil
}

func (s *Service) commit(ctx context.Context, cart *Cart, eventType string, data any) (*Cart, error) {
	if _, err := aggregate.Commit(ctx, s.eventStore, s.logger, cart, AggregateType, eventType, data); err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItem adds quantity to the product's entry, creating it if needed
func (s *Service) AddItem(ctx context.Context, cartID, productID string, quantity int) (*Cart, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	cart, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, cart, EventItemAdded, ItemAddedToCart{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   s.now(),
	})
}

// UpdateQuantity sets the product's quantity. Zero or less removes the entry;
// a product not in the cart is left alone.
func (s *Service) UpdateQuantity(ctx context.Context, cartID, productID string, quantity int) (*Cart, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	if quantity <= 0 {
		return s.RemoveItem(ctx, cartID, productID)
	}

	cart, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.indexOf(productID) < 0 || cart.Quantity(productID) == quantity {
		return cart, nil
	}
	return s.commit(ctx, cart, EventQuantityUpdated, CartItemQuantityUpdated{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		UpdatedAt: s.now(),
	})
}

// RemoveItem drops the product's entry; removing an absent product does nothing
func (s *Service) RemoveItem(ctx context.Context, cartID, productID string) (*Cart, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}

	cart, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.indexOf(productID) < 0 {
		return cart, nil
	}
	return s.commit(ctx, cart, EventItemRemoved, ItemRemovedFromCart{
		CartID:    cartID,
		ProductID: productID,
		RemovedAt: s.now(),
	})
}

// Clear empties the cart. The event is recorded even for an empty cart.
func (s *Service) Clear(ctx context.Context, cartID string) (*Cart, error) {
	cart, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, cart, EventCartCleared, CartCleared{
		CartID:    cartID,
		ClearedAt: s.now(),
	})
}

// ClearAt empties the cart only if it is still at version, failing with
// store.ErrVersionConflict when it changed after being read.
func (s *Service) ClearAt(ctx context.Context, cartID string, version int) (*Cart, error) {
	cart, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Version != version {
		return nil, fmt.Errorf("%w: cart %s at v%d, expected v%d", store.ErrVersionConflict, cartID, cart.Version, version)
	}
	return s.commit(ctx, cart, EventCartCleared, CartCleared{
		CartID:    cartID,
		ClearedAt: s.now(),
	})
}

// Resolve loads the cart and prices it; products missing from the catalog are logged
func (s *Service) Resolve(ctx context.Context, cartID string, products ProductLookup) (Resolution, error) {
	cart, err := s.Get(ctx, cartID)
	if err != nil {
		return Resolution{}, err
	}
	res := cart.Resolve(products)
	if len(res.Missing) > 0 {
		s.logger.Warn("cart references products missing from the catalog",
			zap.String("cart_id", cartID),
			zap.Strings("product_ids", res.Missing))
	}
	return res, nil
}
