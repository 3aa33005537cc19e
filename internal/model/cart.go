package model

import "github.com/shopspring/decimal"

// CartKey identifies a cart line: the same medicine from two pharmacies is two lines.
type CartKey struct {
	ProductID  string `json:"productId"`
	PharmacyID string `json:"pharmacyId"`
}

// CartItem represents a medicine selected from a pharmacy listing.
type CartItem struct {
	ProductID    string `json:"productId" validate:"required"`
	PharmacyID   string `json:"pharmacyId" validate:"required"`
	PharmacyName string `json:"pharmacyName"`
	Name         string `json:"name"`
	Brand        string `json:"brand,omitempty"`
	Strength     string `json:"strength,omitempty"`
	UnitPrice    Price  `json:"price"`
	Quantity     int    `json:"quantity"`
	Available    bool   `json:"available"`
	Stock        int    `json:"stock"`
}

// Key returns the uniqueness key of the item.
func (i CartItem) Key() CartKey {
	return CartKey{ProductID: i.ProductID, PharmacyID: i.PharmacyID}
}

// LineTotal returns unit price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// PharmacyGroup is the slice of a cart sourced from one pharmacy.
type PharmacyGroup struct {
	PharmacyID   string          `json:"pharmacyId"`
	PharmacyName string          `json:"pharmacyName"`
	Items        []CartItem      `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// CartResponse represents the response payload for a cart.
type CartResponse struct {
	Items      []CartItem      `json:"items"`
	Groups     []PharmacyGroup `json:"groups"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// QuantityRequest represents the request payload for setting a line quantity.
type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

// AddToCartRequest represents the request payload for adding a listed medicine.
type AddToCartRequest struct {
	PharmacyID string `json:"pharmacyId"`
	ProductID  string `json:"productId"`
}
