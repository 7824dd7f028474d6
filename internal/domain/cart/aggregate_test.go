package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/example/storefront/internal/domain/catalog"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/infrastructure/store/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testCartID = "cart-session-1"

func newTestCartService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore, nil)
	return service, eventStore
}

func mustAdd(t *testing.T, s *Service, productID string, quantity int) *Cart {
	t.Helper()
	c, err := s.AddItem(context.Background(), testCartID, productID, quantity)
	require.NoError(t, err)
	return c
}

// ============================================
// GetCartID Tests
// ============================================

func TestGetCartID(t *testing.T) {
	assert.Equal(t, "cart-abc", GetCartID("abc"))
	assert.Equal(t, "cart-", GetCartID(""))
}

// ============================================
// AddItem Tests
// ============================================

func TestService_AddItem_Success(t *testing.T) {
	service, eventStore := newTestCartService()

	cart := mustAdd(t, service, "1", 2)

	assert.Equal(t, testCartID, cart.ID)
	assert.Equal(t, []CartItem{{ProductID: "1", Quantity: 2}}, cart.Items)
	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventItemAdded, eventStore.AppendCalls[0].EventType)
	assert.Equal(t, AggregateType, eventStore.AppendCalls[0].AggregateType)
}

func TestService_AddItem_SameProductSumsQuantities(t *testing.T) {
	service, _ := newTestCartService()

	mustAdd(t, service, "1", 2)
	mustAdd(t, service, "2", 1)
	cart := mustAdd(t, service, "1", 3)

	assert.Equal(t, 2, cart.Len())
	assert.Equal(t, 5, cart.Quantity("1"))
	assert.Equal(t, "1", cart.Items[0].ProductID, "first-added product stays first")
}

func TestService_AddItem_Invalid(t *testing.T) {
	service, eventStore := newTestCartService()
	ctx := context.Background()

	_, err := service.AddItem(ctx, testCartID, "", 1)
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = service.AddItem(ctx, testCartID, "1", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = service.AddItem(ctx, testCartID, "1", -3)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_AddItem_EventStoreError(t *testing.T) {
	service, eventStore := newTestCartService()
	eventStore.AppendErr = errors.New("event store error")

	_, err := service.AddItem(context.Background(), testCartID, "1", 1)
	assert.Error(t, err)
}

// ============================================
// UpdateQuantity Tests
// ============================================

func TestService_UpdateQuantity_SetsValue(t *testing.T) {
	service, _ := newTestCartService()
	mustAdd(t, service, "1", 2)

	cart, err := service.UpdateQuantity(context.Background(), testCartID, "1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Quantity("1"))
}

func TestService_UpdateQuantity_ZeroRemoves(t *testing.T) {
	service, eventStore := newTestCartService()
	mustAdd(t, service, "1", 2)

	cart, err := service.UpdateQuantity(context.Background(), testCartID, "1", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, cart.Len())
	assert.Equal(t, EventItemRemoved, eventStore.AppendCalls[1].EventType)
}

func TestService_UpdateQuantity_AbsentProductIsNoop(t *testing.T) {
	service, eventStore := newTestCartService()
	mustAdd(t, service, "1", 2)

	cart, err := service.UpdateQuantity(context.Background(), testCartID, "9", 4)
	require.NoError(t, err)
	assert.Equal(t, []CartItem{{ProductID: "1", Quantity: 2}}, cart.Items)
	assert.Len(t, eventStore.AppendCalls, 1)
}

// ============================================
// RemoveItem Tests
// ============================================

func TestService_RemoveItem_Success(t *testing.T) {
	service, _ := newTestCartService()
	mustAdd(t, service, "1", 2)
	mustAdd(t, service, "2", 1)
	mustAdd(t, service, "3", 4)

	cart, err := service.RemoveItem(context.Background(), testCartID, "2")
	require.NoError(t, err)
	assert.Equal(t, []CartItem{{ProductID: "1", Quantity: 2}, {ProductID: "3", Quantity: 4}}, cart.Items)
}

func TestService_RemoveItem_AbsentLeavesCartUnchanged(t *testing.T) {
	service, eventStore := newTestCartService()
	before := mustAdd(t, service, "1", 2)

	after, err := service.RemoveItem(context.Background(), testCartID, "5")
	require.NoError(t, err)
	assert.Equal(t, before.Items, after.Items)
	assert.Equal(t, before.Version, after.Version)
	assert.Len(t, eventStore.AppendCalls, 1)
}

func TestService_RemoveItem_EmptyProductID(t *testing.T) {
	service, _ := newTestCartService()

	_, err := service.RemoveItem(context.Background(), testCartID, "")
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

// ============================================
// Clear Tests
// ============================================

func TestService_Clear_Success(t *testing.T) {
	service, eventStore := newTestCartService()
	mustAdd(t, service, "1", 2)
	mustAdd(t, service, "2", 3)

	cart, err := service.Clear(context.Background(), testCartID)
	require.NoError(t, err)
	assert.Equal(t, 0, cart.Len())
	assert.Equal(t, EventCartCleared, eventStore.AppendCalls[2].EventType)

	reloaded, err := service.Get(context.Background(), testCartID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Items)
}

func TestService_Clear_EmptyCartStillRecords(t *testing.T) {
	service, eventStore := newTestCartService()

	_, err := service.Clear(context.Background(), testCartID)
	require.NoError(t, err)
	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventCartCleared, eventStore.AppendCalls[0].EventType)
}

func TestService_ClearAt_CurrentVersion(t *testing.T) {
	service, _ := newTestCartService()
	mustAdd(t, service, "1", 2)

	cart, err := service.ClearAt(context.Background(), testCartID, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, cart.Len())
	assert.Equal(t, 2, cart.Version)
}

func TestService_ClearAt_ChangedSinceRead(t *testing.T) {
	service, eventStore := newTestCartService()
	mustAdd(t, service, "1", 2)

	res, err := service.Resolve(context.Background(), testCartID, catalog.Default())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Version)
	mustAdd(t, service, "2", 1)

	_, err = service.ClearAt(context.Background(), testCartID, res.Version)
	assert.ErrorIs(t, err, store.ErrVersionConflict)
	require.Len(t, eventStore.AppendCalls, 2)

	cart, err := service.Get(context.Background(), testCartID)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Quantity("1"))
	assert.Equal(t, 1, cart.Quantity("2"))
}

func TestService_ConcurrentAdds_LoserConflicts(t *testing.T) {
	service, _ := newTestCartService()
	mustAdd(t, service, "1", 1)

	loaded, err := service.Get(context.Background(), testCartID)
	require.NoError(t, err)
	mustAdd(t, service, "2", 1)

	_, err = service.commit(context.Background(), loaded, EventItemAdded, ItemAddedToCart{CartID: testCartID, ProductID: "3", Quantity: 1})
	assert.ErrorIs(t, err, store.ErrVersionConflict)
}

// ============================================
// Get / Replay Tests
// ============================================

func TestService_Get_NoHistory(t *testing.T) {
	service, _ := newTestCartService()

	cart, err := service.Get(context.Background(), testCartID)
	require.NoError(t, err)
	assert.Equal(t, testCartID, cart.ID)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.Version)
}

func TestService_Get_ReplaysAfterSnapshot(t *testing.T) {
	service, eventStore := newTestCartService()

	for i := 0; i < store.SnapshotThreshold+2; i++ {
		mustAdd(t, service, "1", 1)
	}

	require.Len(t, eventStore.SaveSnapshotCalls, 1)
	cart, err := service.Get(context.Background(), testCartID)
	require.NoError(t, err)
	assert.Equal(t, 12, cart.Quantity("1"))
	assert.Equal(t, 12, cart.Version)
}

func TestService_Get_LoadError(t *testing.T) {
	service, eventStore := newTestCartService()
	eventStore.GetSnapshotErr = errors.New("db down")

	_, err := service.Get(context.Background(), testCartID)
	assert.Error(t, err)
}

// ============================================
// Resolve Tests
// ============================================

func TestCart_Resolve_PricesKnownProducts(t *testing.T) {
	cart := &Cart{Items: []CartItem{
		{ProductID: "1", Quantity: 2},
		{ProductID: "2", Quantity: 3},
	}}

	res := cart.Resolve(catalog.Default())

	require.Len(t, res.Items, 2)
	assert.Equal(t, "Tomatoes", res.Items[0].Product.Name)
	assert.True(t, decimal.RequireFromString("49.00").Equal(res.Items[0].TotalPrice))
	assert.True(t, decimal.RequireFromString("54.00").Equal(res.Items[1].TotalPrice))
	assert.True(t, decimal.RequireFromString("103.00").Equal(res.Total))
	assert.Empty(t, res.Missing)
}

func TestCart_Resolve_DropsUnknownProducts(t *testing.T) {
	cart := &Cart{Items: []CartItem{
		{ProductID: "404", Quantity: 1},
		{ProductID: "3", Quantity: 4},
	}}

	res := cart.Resolve(catalog.Default())

	require.Len(t, res.Items, 1)
	assert.Equal(t, "Potatoes", res.Items[0].Product.Name)
	assert.True(t, decimal.RequireFromString("63.00").Equal(res.Total))
	assert.Equal(t, []string{"404"}, res.Missing)
}

func TestCart_Resolve_Empty(t *testing.T) {
	res := (&Cart{}).Resolve(catalog.Default())

	assert.Empty(t, res.Items)
	assert.True(t, res.Total.IsZero())
}

func TestService_Resolve_LogsMissingProducts(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	service := NewService(mocks.NewMockEventStore(), zap.New(core))
	mustAdd(t, service, "1", 1)
	mustAdd(t, service, "gone", 1)

	res, err := service.Resolve(context.Background(), testCartID, catalog.Default())
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, 1, logs.FilterMessage("cart references products missing from the catalog").Len())
}
