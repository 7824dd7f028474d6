package order

import (
	"testing"

	"github.com/example/storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		from Status
		next Status
		ok   bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusProcessing, true},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusDelivered, "", false},
		{StatusCancelled, "", false},
		{Status("unknown"), "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			next, ok := NextStatus(tt.from)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.next, next)
		})
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusConfirmed))
	assert.True(t, CanTransition(StatusPending, StatusCancelled))
	assert.True(t, CanTransition(StatusProcessing, StatusCancelled))
	assert.False(t, CanTransition(StatusPending, StatusDelivered))
	assert.False(t, CanTransition(StatusShipped, StatusCancelled))
	assert.False(t, CanTransition(StatusDelivered, StatusPending))
	assert.False(t, CanTransition(StatusCancelled, StatusPending))
	assert.False(t, CanTransition(StatusConfirmed, StatusConfirmed))
}

func TestNextStatus_AgreesWithCanTransition(t *testing.T) {
	for _, s := range AllStatuses() {
		if next, ok := NextStatus(s); ok {
			assert.True(t, CanTransition(s, next), "%s -> %s", s, next)
		}
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Shipped ")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, s)

	_, err = ParseStatus("lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = ParseStatus("")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestStatus_LabelAndTerminal(t *testing.T) {
	for _, s := range AllStatuses() {
		assert.NotEqual(t, "Unknown", s.Label(), s)
	}
	assert.Equal(t, "Processing", StatusProcessing.Label())
	assert.Equal(t, "Unknown", Status("lost").Label())

	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusShipped.IsTerminal())
	assert.False(t, Status("lost").IsTerminal())
}

func tomatoes() catalog.Product {
	p, _ := catalog.Default().Get("1")
	return p
}

func TestNewItem(t *testing.T) {
	_, err := NewItem(tomatoes(), 0)
	assert.ErrorIs(t, err, ErrInvalidItem)

	item, err := NewItem(tomatoes(), 4)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(98).Equal(item.TotalPrice))
}

func TestCustomerInfo_Validate(t *testing.T) {
	err := CustomerInfo{Name: "A"}.Validate()
	require.ErrorIs(t, err, ErrIncompleteCustomerInfo)
	assert.Contains(t, err.Error(), "email, phone, address")

	assert.NoError(t, CustomerInfo{Name: "A", Email: "a@b.c", Phone: "1", Address: "x"}.Validate())
}
