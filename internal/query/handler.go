package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/catalog"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/readmodel"
	"github.com/shopspring/decimal"
)

// OrderFinder reads an order from the event log
type OrderFinder interface {
	Find(ctx context.Context, orderID string) (*order.Order, bool, error)
}

// CartReader loads a cart aggregate
type CartReader interface {
	Get(ctx context.Context, cartID string) (*cart.Cart, error)
}

type Handler struct {
	readStore store.ReadStoreInterface
	catalog   *catalog.Catalog
	orders    OrderFinder
	carts     CartReader
}

func NewHandler(readStore store.ReadStoreInterface, cat *catalog.Catalog, orders OrderFinder, carts CartReader) *Handler {
	return &Handler{readStore: readStore, catalog: cat, orders: orders, carts: carts}
}

// Products
func (h *Handler) GetProduct(id string) (catalog.Product, bool) {
	return h.catalog.Get(id)
}

// ListProducts returns catalog products matching term, in catalog order
func (h *Handler) ListProducts(term string) []catalog.Product {
	return h.catalog.Search(term)
}

// GetCart prices the cart for display. Lines for products no longer in the
// catalog are omitted and listed in Missing.
func (h *Handler) GetCart(ctx context.Context, cartID string) (*readmodel.CartReadModel, error) {
	c, err := h.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	res := c.Resolve(h.catalog)

	view := &readmodel.CartReadModel{
		ID:      cartID,
		Lines:   make([]readmodel.CartLine, 0, len(res.Items)),
		Total:   res.Total,
		Missing: res.Missing,
	}
	for _, item := range res.Items {
		view.Lines = append(view.Lines, readmodel.CartLine{
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Unit:      item.Product.Unit,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
			LineTotal: item.TotalPrice,
		})
	}
	return view, nil
}

// Orders

// GetOrder is used for tracking, so it reads the event log rather than the
// projection, which may lag behind. The projected status history is attached
// when the projection has caught up.
func (h *Handler) GetOrder(ctx context.Context, id string) (*readmodel.OrderReadModel, bool, error) {
	o, ok, err := h.orders.Find(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}

	view := readmodel.FromOrder(o)
	projected, ok, err := h.readStore.Get(ctx, readmodel.CollectionOrders, id)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read projected order %s: %w", id, err)
	}
	if ok {
		if m := projected.(*readmodel.OrderReadModel); m.Version == o.Version {
			view.History = m.History
		}
	}
	return view, true, nil
}

// ListOrders returns projected orders, newest first. An empty status returns all.
func (h *Handler) ListOrders(ctx context.Context, status order.Status) ([]*readmodel.OrderReadModel, error) {
	all, err := h.allOrders(ctx)
	if err != nil {
		return nil, err
	}

	orders := make([]*readmodel.OrderReadModel, 0, len(all))
	for _, m := range all {
		if status == "" || m.Status == status {
			orders = append(orders, m)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].OrderDate.After(orders[j].OrderDate)
		}
		return orders[i].ID > orders[j].ID
	})
	return orders, nil
}

// Dashboard counts orders per status. Revenue covers every order that was not cancelled.
func (h *Handler) Dashboard(ctx context.Context) (*readmodel.DashboardReadModel, error) {
	all, err := h.allOrders(ctx)
	if err != nil {
		return nil, err
	}

	d := &readmodel.DashboardReadModel{
		ByStatus: make(map[order.Status]int, len(order.AllStatuses())),
		Revenue:  decimal.Zero,
	}
	for _, s := range order.AllStatuses() {
		d.ByStatus[s] = 0
	}
	for _, m := range all {
		d.TotalOrders++
		d.ByStatus[m.Status]++
		if !m.Status.IsTerminal() {
			d.OpenOrders++
		}
		if m.Status != order.StatusCancelled {
			d.Revenue = d.Revenue.Add(m.TotalAmount)
		}
	}
	return d, nil
}

func (h *Handler) allOrders(ctx context.Context) ([]*readmodel.OrderReadModel, error) {
	items, err := h.readStore.GetAll(ctx, readmodel.CollectionOrders)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	orders := make([]*readmodel.OrderReadModel, 0, len(items))
	for _, item := range items {
		orders = append(orders, item.(*readmodel.OrderReadModel))
	}
	return orders, nil
}
