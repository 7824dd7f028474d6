package command

import "github.com/example/storefront/internal/domain/order"

// Cart Commands
type AddToCart struct {
	CartID    string `json:"-"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItem struct {
	CartID    string `json:"-"`
	ProductID string `json:"-"`
	Quantity  int    `json:"quantity"`
}

type RemoveFromCart struct {
	CartID    string `json:"-"`
	ProductID string `json:"-"`
}

type ClearCart struct {
	CartID string `json:"-"`
}

// Order Commands
type PlaceOrder struct {
	CartID       string             `json:"-"`
	CustomerInfo order.CustomerInfo `json:"customer_info"`
}

type AdvanceOrder struct {
	OrderID string `json:"-"`
}

type UpdateOrderStatus struct {
	OrderID string `json:"-"`
	Status  string `json:"status"`
}

type CancelOrder struct {
	OrderID string `json:"-"`
	Reason  string `json:"reason"`
}
