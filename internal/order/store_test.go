package order

import (
	"testing"
	"time"

	"pharmago/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder(id string) model.Order {
	return model.Order{
		ID:     id,
		Status: model.OrderStatusPending,
		Items: []model.OrderItem{
			{ProductID: "p1", Name: "Crocin", Quantity: 2, UnitPrice: model.PriceFromFloat(245), PharmacyID: "1"},
		},
		Total:           decimal.NewFromInt(490),
		PharmacyID:      "1",
		PharmacyName:    "Apollo Pharmacy",
		DeliveryAddress: "221B Baker St",
		CustomerName:    "Jane Doe",
		CustomerPhone:   "9876543210",
		CreatedAt:       time.Now(),
	}
}

func TestStore_Create(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.Create(testOrder("ORD000001001")))

	assert.Equal(t, 1, store.Len())
	assert.True(t, store.Exists("ORD000001001"))

	got, err := store.Get("ORD000001001")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, got.Status)
	assert.True(t, decimal.NewFromInt(490).Equal(got.Total))
}

func TestStore_CreateDuplicateID(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Create(testOrder("ORD1")))

	err := store.Create(testOrder("ORD1"))

	assert.ErrorIs(t, err, model.ErrOrderExists)
	assert.Equal(t, 1, store.Len())
}

func TestStore_CreateCopiesItems(t *testing.T) {
	store := NewStore()
	o := testOrder("ORD1")
	require.NoError(t, store.Create(o))

	o.Items[0].Quantity = 50

	got, err := store.Get("ORD1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Items[0].Quantity)

	got.Items[0].Quantity = 70
	again, _ := store.Get("ORD1")
	assert.Equal(t, 2, again.Items[0].Quantity)
}

func TestStore_SetStatus(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Create(testOrder("ORD1")))

	require.NoError(t, store.SetStatus("ORD1", model.OrderStatusConfirmed))
	got, _ := store.Get("ORD1")
	assert.Equal(t, model.OrderStatusConfirmed, got.Status)

	require.NoError(t, store.SetStatus("ORD1", model.OrderStatusDelivered))
	got, _ = store.Get("ORD1")
	assert.Equal(t, model.OrderStatusDelivered, got.Status)
}

func TestStore_SetStatusInvalid(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Create(testOrder("ORD1")))

	err := store.SetStatus("ORD1", model.OrderStatus("shipped"))

	assert.ErrorIs(t, err, model.ErrInvalidOrderStatus)
	got, _ := store.Get("ORD1")
	assert.Equal(t, model.OrderStatusPending, got.Status)
}

// Scenario D: cancelling a pending order, and cancelling an unknown ID.
func TestStore_ScenarioD(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Create(testOrder("ORD1")))
	require.NoError(t, store.Create(testOrder("ORD2")))

	require.NoError(t, store.Cancel("ORD1"))

	got, _ := store.Get("ORD1")
	assert.Equal(t, model.OrderStatusCancelled, got.Status)

	before := store.List("")
	err := store.Cancel("ORD404")
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
	assert.Equal(t, before, store.List(""))
}

func TestStore_List(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Create(testOrder("ORD1")))
	require.NoError(t, store.Create(testOrder("ORD2")))
	require.NoError(t, store.Create(testOrder("ORD3")))
	require.NoError(t, store.Cancel("ORD2"))

	tests := []struct {
		name     string
		status   model.OrderStatus
		expected []string
	}{
		{name: "Empty filter", status: "", expected: []string{"ORD1", "ORD2", "ORD3"}},
		{name: "All", status: "all", expected: []string{"ORD1", "ORD2", "ORD3"}},
		{name: "Pending", status: model.OrderStatusPending, expected: []string{"ORD1", "ORD3"}},
		{name: "Cancelled", status: model.OrderStatusCancelled, expected: []string{"ORD2"}},
		{name: "Delivered", status: model.OrderStatusDelivered, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := []string{}
			for _, o := range store.List(tt.status) {
				ids = append(ids, o.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	store := NewStore()

	_, err := store.Get("nope")

	assert.ErrorIs(t, err, model.ErrOrderNotFound)
	assert.False(t, store.Exists("nope"))
}
