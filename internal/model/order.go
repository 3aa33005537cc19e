package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// MultiplePharmacies is the attribution used when an order spans pharmacies.
const (
	MultiplePharmaciesID   = "multiple"
	MultiplePharmaciesName = "Multiple Pharmacies"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the pharmacy workflow allows moving from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusConfirmed || next == OrderStatusCancelled
	case OrderStatusConfirmed:
		return next == OrderStatusDelivered
	}
	return false
}

// Order represents a placed order. Items are a snapshot taken at checkout.
type Order struct {
	ID              string          `json:"id"`
	TrackingNumber  string          `json:"trackingNumber"`
	UserID          string          `json:"userId,omitempty"`
	Status          OrderStatus     `json:"status"`
	Items           []OrderItem     `json:"items"`
	Total           decimal.Decimal `json:"total"`
	PharmacyID      string          `json:"pharmacyId"`
	PharmacyName    string          `json:"pharmacy"`
	DeliveryAddress string          `json:"deliveryAddress"`
	CustomerName    string          `json:"customerName"`
	CustomerPhone   string          `json:"customerPhone"`
	CustomerEmail   string          `json:"customerEmail,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	clone := o
	clone.Items = make([]OrderItem, len(o.Items))
	copy(clone.Items, o.Items)
	return clone
}

// OrderItem represents a line item frozen at checkout.
type OrderItem struct {
	ProductID    string `json:"productId"`
	Name         string `json:"name"`
	Brand        string `json:"brand,omitempty"`
	Strength     string `json:"strength,omitempty"`
	Quantity     int    `json:"quantity"`
	UnitPrice    Price  `json:"price"`
	PharmacyID   string `json:"pharmacyId"`
	PharmacyName string `json:"pharmacy"`
}

// StatusRequest represents the request payload for a status change.
type StatusRequest struct {
	Status OrderStatus `json:"status"`
}

// CheckoutResponse reports the checkout workflow state and the confirmed order, if any.
type CheckoutResponse struct {
	State string `json:"state"`
	Order *Order `json:"order,omitempty"`
}
