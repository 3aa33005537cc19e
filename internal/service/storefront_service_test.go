package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"pharmago/internal/checkout"
	"pharmago/internal/events"
	"pharmago/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func eventOf(eventType, orderID string) any {
	return mock.MatchedBy(func(e events.Event) bool {
		return e.Type == eventType && e.OrderID == orderID
	})
}

func TestStorefrontService_AddToCart(t *testing.T) {
	f := newFixture(t)
	svc := f.storefront()
	ctx := context.Background()

	cart, err := svc.AddToCart(ctx, "u1", model.AddToCartRequest{PharmacyID: "1", ProductID: "m1"})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Apollo Pharmacy", cart.Items[0].PharmacyName)
	assert.Equal(t, 1, cart.Items[0].Quantity)

	cart, err = svc.AddToCart(ctx, "u1", model.AddToCartRequest{PharmacyID: "1", ProductID: "m1"})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	// Same medicine from another pharmacy is a separate line.
	cart, err = svc.AddToCart(ctx, "u1", model.AddToCartRequest{PharmacyID: "2", ProductID: "m1"})
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Len(t, cart.Groups, 2)
	assert.Equal(t, 3, cart.TotalItems)
	assert.True(t, cart.TotalPrice.Equal(decimal.RequireFromString("72")), cart.TotalPrice.String())
}

func TestStorefrontService_AddToCart_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  model.AddToCartRequest
		want error
	}{
		{name: "Unknown pharmacy", req: model.AddToCartRequest{PharmacyID: "99", ProductID: "m1"}, want: model.ErrPharmacyNotFound},
		{name: "Unknown medicine", req: model.AddToCartRequest{PharmacyID: "1", ProductID: "nope"}, want: model.ErrMedicineNotFound},
		{name: "Out of stock", req: model.AddToCartRequest{PharmacyID: "1", ProductID: "m2"}, want: model.ErrMedicineUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			svc := f.storefront()

			_, err := svc.AddToCart(context.Background(), "u1", tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("Missing fields", func(t *testing.T) {
		f := newFixture(t)
		svc := f.storefront()

		_, err := svc.AddToCart(context.Background(), "u1", model.AddToCartRequest{})

		var verr *model.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "pharmacyId")
		assert.Contains(t, verr.Fields, "productId")
	})

	t.Run("Anonymous user", func(t *testing.T) {
		f := newFixture(t)
		svc := f.storefront()

		_, err := svc.AddToCart(context.Background(), "", model.AddToCartRequest{PharmacyID: "1", ProductID: "m1"})
		assert.ErrorIs(t, err, model.ErrUnauthorised)
	})
}

func TestStorefrontService_QuantityAndRemove(t *testing.T) {
	f := newFixture(t)
	svc := f.storefront()
	ctx := context.Background()
	key := model.CartKey{ProductID: "m1", PharmacyID: "1"}

	_, err := svc.AddToCart(ctx, "u1", model.AddToCartRequest{PharmacyID: "1", ProductID: "m1"})
	require.NoError(t, err)

	cart, err := svc.SetQuantity(ctx, "u1", key, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.TotalItems)

	cart, err = svc.SetQuantity(ctx, "u1", key, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.NotNil(t, cart.Groups)

	_, err = svc.RemoveFromCart(ctx, "u1", key)
	assert.ErrorIs(t, err, model.ErrCartItemNotFound)

	_, err = svc.SetQuantity(ctx, "u1", key, 2)
	assert.ErrorIs(t, err, model.ErrCartItemNotFound)
}

func TestStorefrontService_CartsAreIsolated(t *testing.T) {
	f := newFixture(t)
	svc := f.storefront()
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "u1", model.AddToCartRequest{PharmacyID: "1", ProductID: "m1"})
	require.NoError(t, err)

	other, err := svc.Cart(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other.Items)

	require.NoError(t, svc.ClearCart(ctx, "u1"))
	mine, err := svc.Cart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, mine.Items)
}

func TestStorefrontService_PlaceOrder(t *testing.T) {
	f := newFixture(t)
	svc := f.storefront()
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "u1", model.AddToCartRequest{PharmacyID: "1", ProductID: "m1"})
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, "u1", model.AddToCartRequest{PharmacyID: "1", ProductID: "m3"})
	require.NoError(t, err)

	f.publisher.On("Publish", mock.Anything, eventOf(events.TypeOrderPlaced, "ORD000001")).Return(nil).Once()

	placed, err := svc.PlaceOrder(ctx, customer(), validForm())

	require.NoError(t, err)
	assert.Equal(t, "ORD000001", placed.ID)
	assert.Equal(t, model.OrderStatusPending, placed.Status)
	assert.Equal(t, "1", placed.PharmacyID)
	assert.Equal(t, "9876543210", placed.CustomerPhone)
	assert.Equal(t, "asha@example.com", placed.CustomerEmail)
	assert.True(t, placed.Total.Equal(decimal.RequireFromString("43")), placed.Total.String())
	f.publisher.AssertExpectations(t)

	// Archived under the order ID.
	doc, err := f.docs.Get(ctx, OrdersCollection, "ORD000001")
	require.NoError(t, err)
	assert.Equal(t, "u1", doc["userId"])
	assert.Equal(t, "pending", doc["status"])

	// Checkout is confirmed and the cart survives until the delay passes.
	state, err := svc.Checkout(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, string(checkout.StateConfirmed), state.State)
	require.NotNil(t, state.Order)
	assert.Equal(t, "ORD000001", state.Order.ID)

	cart, err := svc.Cart(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)

	f.scheduler.Advance(3 * time.Second)

	cart, err = svc.Cart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// A second submit needs a reset first.
	_, err = svc.PlaceOrder(ctx, customer(), validForm())
	assert.ErrorIs(t, err, model.ErrCheckoutConfirmed)

	require.NoError(t, svc.ResetCheckout(ctx, "u1"))
	_, err = svc.PlaceOrder(ctx, customer(), validForm())
	assert.ErrorIs(t, err, model.ErrEmptyCart)
}

func TestStorefrontService_PlaceOrder_MultiplePharmacies(t *testing.T) {
	f := newFixture(t)
	svc := f.storefront()
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "u1", model.AddToCartRequest{PharmacyID: "1", ProductID: "m1"})
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, "u1", model.AddToCartRequest{PharmacyID: "2", ProductID: "m1"})
	require.NoError(t, err)

	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	placed, err := svc.PlaceOrder(ctx, customer(), validForm())

	require.NoError(t, err)
	assert.Equal(t, model.MultiplePharmaciesID, placed.PharmacyID)
	assert.Equal(t, model.MultiplePharmaciesName, placed.PharmacyName)
}

func TestStorefrontService_PlaceOrder_InvalidForm(t *testing.T) {
	f := newFixture(t)
	svc := f.storefront()
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "u1", model.AddToCartRequest{PharmacyID: "1", ProductID: "m1"})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(ctx, customer(), checkout.Form{FullName: "Asha", Address: "Mumbai", Phone: "12345"})

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Please enter a valid 10-digit phone number", verr.Fields["phoneNumber"])

	orders, err := svc.ListOrders(ctx, "u1", "")
	require.NoError(t, err)
	assert.Empty(t, orders)

	archived, err := f.docs.ReadAll(ctx, OrdersCollection)
	require.NoError(t, err)
	assert.Empty(t, archived)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestStorefrontService_PlaceOrder_SkipsArchivedIDs(t *testing.T) {
	f := newFixture(t)
	svc := f.storefront()
	ctx := context.Background()

	// An archived document already holds the first generated ID.
	f.archive(t, model.Order{ID: "ORD000001", UserID: "someone-else", Status: model.OrderStatusPending})

	_, err := svc.AddToCart(ctx, "u1", model.AddToCartRequest{PharmacyID: "1", ProductID: "m1"})
	require.NoError(t, err)

	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	placed, err := svc.PlaceOrder(ctx, customer(), validForm())

	require.NoError(t, err)
	assert.Equal(t, "ORD000002", placed.ID)

	doc, err := f.docs.Get(ctx, OrdersCollection, "ORD000001")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", doc["userId"])

	doc, err = f.docs.Get(ctx, OrdersCollection, "ORD000002")
	require.NoError(t, err)
	assert.Equal(t, "u1", doc["userId"])
}

func TestStorefrontService_PlaceOrder_TwoUsersNeverShareAnID(t *testing.T) {
	f := newFixtureWithIDs(t, &fixedIDs{ids: []string{"ORD123456789", "ORD123456789", "ORD123456790"}})
	svc := f.storefront()
	pharmacy := f.pharmacy()
	ctx := context.Background()

	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	users := []model.User{
		{ID: "u1", Email: "asha@example.com", Role: model.RoleUser},
		{ID: "u2", Email: "ravi@example.com", Role: model.RoleUser},
	}

	placed := make([]*model.Order, len(users))
	for i, user := range users {
		_, err := svc.AddToCart(ctx, user.ID, model.AddToCartRequest{PharmacyID: "1", ProductID: "m1"})
		require.NoError(t, err)

		placed[i], err = svc.PlaceOrder(ctx, user, validForm())
		require.NoError(t, err)
	}

	assert.Equal(t, "ORD123456789", placed[0].ID)
	assert.Equal(t, "ORD123456790", placed[1].ID)

	archived, err := f.docs.ReadAll(ctx, OrdersCollection)
	require.NoError(t, err)
	assert.Len(t, archived, 2)

	// Confirming the second user's order leaves the first user's alone.
	_, err = pharmacy.UpdateOrderStatus(ctx, "1", placed[1].ID, model.OrderStatusConfirmed)
	require.NoError(t, err)

	first, err := svc.GetOrder(ctx, "u1", placed[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, first.Status)

	second, err := svc.GetOrder(ctx, "u2", placed[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, second.Status)
}

func TestStorefrontService_PlaceOrder_PublishFailureIsLogged(t *testing.T) {
	f := newFixture(t)
	svc := f.storefront()
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "u1", model.AddToCartRequest{PharmacyID: "1", ProductID: "m1"})
	require.NoError(t, err)

	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	placed, err := svc.PlaceOrder(ctx, customer(), validForm())

	require.NoError(t, err)

	got, err := svc.GetOrder(ctx, "u1", placed.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	_, err = f.docs.Get(ctx, OrdersCollection, placed.ID)
	assert.NoError(t, err)
}

func TestStorefrontService_ListAndGetOrders(t *testing.T) {
	f := newFixture(t)
	svc := f.storefront()
	ctx := context.Background()

	f.archive(t, model.Order{ID: "ORD100", UserID: "u1", Status: model.OrderStatusDelivered, PharmacyID: "1"})
	f.archive(t, model.Order{ID: "ORD101", UserID: "u1", Status: model.OrderStatusPending, PharmacyID: "2"})
	f.archive(t, model.Order{ID: "ORD102", UserID: "u2", Status: model.OrderStatusPending, PharmacyID: "2"})

	all, err := svc.ListOrders(ctx, "u1", "all")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := svc.ListOrders(ctx, "u1", model.OrderStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "ORD101", pending[0].ID)

	_, err = svc.ListOrders(ctx, "u1", "shipped")
	assert.ErrorIs(t, err, model.ErrInvalidOrderStatus)

	got, err := svc.GetOrder(ctx, "u1", "ORD100")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, got.Status)

	_, err = svc.GetOrder(ctx, "u1", "ORD102")
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}

func TestStorefrontService_CancelOrder(t *testing.T) {
	f := newFixture(t)
	svc := f.storefront()
	ctx := context.Background()

	f.archive(t, model.Order{ID: "ORD200", UserID: "u1", Status: model.OrderStatusPending, PharmacyID: "1"})
	f.archive(t, model.Order{ID: "ORD201", UserID: "u1", Status: model.OrderStatusConfirmed, PharmacyID: "1"})

	f.publisher.On("Publish", mock.Anything, eventOf(events.TypeOrderStatusChanged, "ORD200")).Return(nil).Once()

	cancelled, err := svc.CancelOrder(ctx, "u1", "ORD200")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	f.publisher.AssertExpectations(t)

	doc, err := f.docs.Get(ctx, OrdersCollection, "ORD200")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", doc["status"])

	_, err = svc.CancelOrder(ctx, "u1", "ORD200")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = svc.CancelOrder(ctx, "u1", "ORD201")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = svc.CancelOrder(ctx, "u1", "ORD999")
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}

func TestStorefrontService_EvictedSessionRestoresHistory(t *testing.T) {
	f := newFixture(t)
	svc := f.storefront()
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "u1", model.AddToCartRequest{PharmacyID: "1", ProductID: "m1"})
	require.NoError(t, err)

	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	placed, err := svc.PlaceOrder(ctx, customer(), validForm())
	require.NoError(t, err)

	require.True(t, f.registry.Evict("u1"))
	assert.Zero(t, f.scheduler.Pending())

	orders, err := svc.ListOrders(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, placed.ID, orders[0].ID)
	assert.True(t, orders[0].Total.Equal(placed.Total))

	cart, err := svc.Cart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}
