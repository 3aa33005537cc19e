package service

import (
	"context"

	"pharmago/internal/catalog"
	"pharmago/internal/checkout"
	"pharmago/internal/model"
)

// Document store collections written by the services.
const (
	OrdersCollection          = "orders"
	StockAlertsCollection     = "stock_alerts"
	SupportMessagesCollection = "support_messages"
)

// StorefrontService defines the customer-facing cart, checkout and order operations.
type StorefrontService interface {
	// Cart returns the user's cart with per-pharmacy groups and totals.
	Cart(ctx context.Context, userID string) (*model.CartResponse, error)

	// AddToCart adds one unit of a listed medicine to the cart.
	AddToCart(ctx context.Context, userID string, req model.AddToCartRequest) (*model.CartResponse, error)

	// SetQuantity sets a cart line quantity. Zero or less removes the line.
	SetQuantity(ctx context.Context, userID string, key model.CartKey, quantity int) (*model.CartResponse, error)

	// RemoveFromCart deletes a cart line.
	RemoveFromCart(ctx context.Context, userID string, key model.CartKey) (*model.CartResponse, error)

	// ClearCart empties the cart.
	ClearCart(ctx context.Context, userID string) error

	// Checkout reports the workflow state.
	Checkout(ctx context.Context, userID string) (*model.CheckoutResponse, error)

	// PlaceOrder submits the delivery form and places an order from the cart.
	PlaceOrder(ctx context.Context, user model.User, form checkout.Form) (*model.Order, error)

	// ResetCheckout returns a confirmed checkout to form entry.
	ResetCheckout(ctx context.Context, userID string) error

	// ListOrders returns the user's orders filtered by status ("" or "all" for every order).
	ListOrders(ctx context.Context, userID string, status model.OrderStatus) ([]model.Order, error)

	// GetOrder returns one of the user's orders.
	GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error)

	// CancelOrder cancels a pending order.
	CancelOrder(ctx context.Context, userID, orderID string) (*model.Order, error)
}

// PharmacyService defines the pharmacy admin portal operations.
type PharmacyService interface {
	// Profile returns the pharmacy's name, address and contact.
	Profile(ctx context.Context, pharmacyID string) (*model.PharmacyProfile, error)

	// UpdateProfile replaces the pharmacy's name, address and contact.
	UpdateProfile(ctx context.Context, pharmacyID string, profile model.PharmacyProfile) (*model.PharmacyProfile, error)

	// Medicines lists the pharmacy's medicines.
	Medicines(ctx context.Context, pharmacyID string) ([]model.Medicine, error)

	// UpdateMedicine changes the price or stock of one medicine.
	UpdateMedicine(ctx context.Context, pharmacyID, medicineID string, patch model.MedicinePatch) (*model.Medicine, error)

	// BulkUpdate sets the price or stock of several medicines.
	BulkUpdate(ctx context.Context, pharmacyID string, req model.BulkUpdateRequest) ([]model.Medicine, error)

	// LowStock lists medicines at or below the configured threshold.
	LowStock(ctx context.Context, pharmacyID string) ([]model.Medicine, error)

	// ListOrders returns archived orders containing the pharmacy's medicines.
	ListOrders(ctx context.Context, pharmacyID string, status model.OrderStatus) ([]model.Order, error)

	// UpdateOrderStatus moves an order along pending -> confirmed -> delivered,
	// or cancels a pending one.
	UpdateOrderStatus(ctx context.Context, pharmacyID, orderID string, status model.OrderStatus) (*model.Order, error)
}

// CatalogService defines medicine search and stock alerts.
type CatalogService interface {
	// Search returns pharmacies stocking medicines that match query, narrowed by filter.
	Search(ctx context.Context, query string, sortBy catalog.SortBy, filter catalog.Filter) ([]model.PharmacyResult, error)

	// CreateStockAlert records a request to be told when a medicine is back in stock.
	CreateStockAlert(ctx context.Context, userID string, req model.StockAlertRequest) (*model.StockAlert, error)
}

// SupportService defines the help-and-support contact form.
type SupportService interface {
	// Submit stores a contact message after the simulated delivery delay.
	Submit(ctx context.Context, userID string, req model.ContactRequest) (*model.SupportReceipt, error)
}
