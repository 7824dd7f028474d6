package readmodel

import (
	"time"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/shopspring/decimal"
)

// Collection names in the read store
const (
	CollectionOrders = "orders"
)

// Collections returns the decoders a persistent read store needs for each collection
func Collections() store.Decoders {
	return store.Decoders{
		CollectionOrders: func() any { return &OrderReadModel{} },
	}
}

// StatusChange is one entry of an order's status history
type StatusChange struct {
	Status order.Status `json:"status"`
	At     time.Time    `json:"at"`
	Reason string       `json:"reason,omitempty"`
}

// OrderReadModel is the read model for order tracking and the admin views
type OrderReadModel struct {
	ID                string             `json:"id"`
	Items             []order.Item       `json:"items"`
	TotalAmount       decimal.Decimal    `json:"total_amount"`
	Status            order.Status       `json:"status"`
	StatusLabel       string             `json:"status_label"`
	NextStatus        order.Status       `json:"next_status,omitempty"`
	CustomerInfo      order.CustomerInfo `json:"customer_info"`
	OrderDate         time.Time          `json:"order_date"`
	EstimatedDelivery time.Time          `json:"estimated_delivery"`
	UpdatedAt         time.Time          `json:"updated_at"`
	History           []StatusChange     `json:"history"`
	Version           int                `json:"version"` // last event applied
}

// FromOrder renders an aggregate; history is left for the caller to fill in
func FromOrder(o *order.Order) *OrderReadModel {
	m := &OrderReadModel{
		ID:                o.ID,
		Items:             o.Items,
		TotalAmount:       o.TotalAmount,
		CustomerInfo:      o.CustomerInfo,
		OrderDate:         o.OrderDate,
		EstimatedDelivery: o.EstimatedDelivery,
		UpdatedAt:         o.UpdatedAt,
		Version:           o.Version,
	}
	m.SetStatus(o.Status)
	return m
}

// SetStatus updates the status and the fields derived from it
func (m *OrderReadModel) SetStatus(s order.Status) {
	m.Status = s
	m.StatusLabel = s.Label()
	m.NextStatus, _ = order.NextStatus(s)
}

// DashboardReadModel summarizes all orders for the admin page
type DashboardReadModel struct {
	TotalOrders int                  `json:"total_orders"`
	ByStatus    map[order.Status]int `json:"by_status"`
	OpenOrders  int                  `json:"open_orders"`
	Revenue     decimal.Decimal      `json:"revenue"` // excludes cancelled orders
}

// CartLine is a priced cart entry
type CartLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartReadModel is the cart as the checkout page shows it
type CartReadModel struct {
	ID      string          `json:"id"`
	Lines   []CartLine      `json:"lines"`
	Total   decimal.Decimal `json:"total"`
	Missing []string        `json:"missing,omitempty"`
}
