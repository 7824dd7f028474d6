package order

import (
	"fmt"
	"strings"

	"github.com/example/storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// Item is an order line. Product is a copy taken when the order is placed.
type Item struct {
	Product    catalog.Product `json:"product"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func NewItem(p catalog.Product, quantity int) (Item, error) {
	if quantity < 1 {
		return Item{}, fmt.Errorf("%w: quantity %d for product %s", ErrInvalidItem, quantity, p.ID)
	}
	return Item{
		Product:    p,
		Quantity:   quantity,
		TotalPrice: p.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

// SumItems is the sum of item totals
func SumItems(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

type CustomerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Validate requires every field to be non-blank
func (c CustomerInfo) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", c.Name},
		{"email", c.Email},
		{"phone", c.Phone},
		{"address", c.Address},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteCustomerInfo, strings.Join(missing, ", "))
	}
	return nil
}
