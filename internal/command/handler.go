package command

import (
	"context"
	"fmt"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/catalog"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/metrics"
	"go.uber.org/zap"
)

type Handler struct {
	catalog  *catalog.Catalog
	cartSvc  *cart.Service
	orderSvc *order.Service
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewHandler(
	cat *catalog.Catalog,
	cartSvc *cart.Service,
	orderSvc *order.Service,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		catalog:  cat,
		cartSvc:  cartSvc,
		orderSvc: orderSvc,
		metrics:  m,
		logger:   logger.Named("command"),
	}
}

// AddToCart adds an item to the cart once the product is known to the catalog
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) (*cart.Cart, error) {
	if _, ok := h.catalog.Get(cmd.ProductID); !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrProductNotFound, cmd.ProductID)
	}
	c, err := h.cartSvc.AddItem(ctx, cmd.CartID, cmd.ProductID, cmd.Quantity)
	if err != nil {
		return nil, err
	}
	h.metrics.CartMutation("add")
	return c, nil
}

func (h *Handler) UpdateCartItem(ctx context.Context, cmd UpdateCartItem) (*cart.Cart, error) {
	c, err := h.cartSvc.UpdateQuantity(ctx, cmd.CartID, cmd.ProductID, cmd.Quantity)
	if err != nil {
		return nil, err
	}
	h.metrics.CartMutation("update")
	return c, nil
}

func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) (*cart.Cart, error) {
	c, err := h.cartSvc.RemoveItem(ctx, cmd.CartID, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	h.metrics.CartMutation("remove")
	return c, nil
}

func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) (*cart.Cart, error) {
	c, err := h.cartSvc.Clear(ctx, cmd.CartID)
	if err != nil {
		return nil, err
	}
	h.metrics.CartMutation("clear")
	return c, nil
}

// PlaceOrder checks out the cart: it prices the cart against the catalog,
// empties the cart at the priced version and then records the order.
// A cart changed or checked out concurrently fails with store.ErrVersionConflict
// and no order is placed.
func (h *Handler) PlaceOrder(ctx context.Context, cmd PlaceOrder) (*order.Order, error) {
	res, err := h.cartSvc.Resolve(ctx, cmd.CartID, h.catalog)
	if err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return nil, order.ErrEmptyOrder
	}

	params := order.PlaceParams{
		Items:        res.Items,
		TotalAmount:  res.Total,
		Status:       order.StatusPending,
		CustomerInfo: cmd.CustomerInfo,
	}
	if err := order.ValidatePlace(params); err != nil {
		return nil, err
	}
	if _, err := h.cartSvc.ClearAt(ctx, cmd.CartID, res.Version); err != nil {
		return nil, err
	}

	o, err := h.orderSvc.Place(ctx, params)
	if err != nil {
		h.restoreCart(ctx, cmd.CartID, res.Items)
		return nil, err
	}
	h.metrics.OrderPlaced(o.TotalAmount.InexactFloat64())
	return o, nil
}

// restoreCart puts back the items of a checkout whose order could not be recorded
func (h *Handler) restoreCart(ctx context.Context, cartID string, items []order.Item) {
	for _, item := range items {
		if _, err := h.cartSvc.AddItem(ctx, cartID, item.Product.ID, item.Quantity); err != nil {
			h.logger.Error("failed to restore cart after checkout failure",
				zap.String("cart_id", cartID),
				zap.String("product_id", item.Product.ID),
				zap.Error(err))
			return
		}
	}
}

func (h *Handler) AdvanceOrder(ctx context.Context, cmd AdvanceOrder) (*order.Order, error) {
	return h.statusChanged(h.orderSvc.Advance(ctx, cmd.OrderID))
}

func (h *Handler) UpdateOrderStatus(ctx context.Context, cmd UpdateOrderStatus) (*order.Order, error) {
	status, err := order.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	return h.statusChanged(h.orderSvc.UpdateStatus(ctx, cmd.OrderID, status))
}

func (h *Handler) CancelOrder(ctx context.Context, cmd CancelOrder) (*order.Order, error) {
	return h.statusChanged(h.orderSvc.Cancel(ctx, cmd.OrderID, cmd.Reason))
}

func (h *Handler) statusChanged(o *order.Order, err error) (*order.Order, error) {
	if err != nil {
		return nil, err
	}
	h.metrics.StatusTransition(string(o.Status))
	return o, nil
}
