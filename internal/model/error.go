package model

import (
	"sort"
	"strings"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeValidation          = "VALIDATION_FAILED"
	ErrCodeInvalidPrice        = "INVALID_PRICE"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeCartItemNotFound    = "CART_ITEM_NOT_FOUND"
	ErrCodeEmptyCart           = "EMPTY_CART"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeOrderExists         = "ORDER_EXISTS"
	ErrCodeInvalidOrderStatus  = "INVALID_ORDER_STATUS"
	ErrCodeInvalidTransition   = "INVALID_STATUS_TRANSITION"
	ErrCodeCheckoutConfirmed   = "CHECKOUT_ALREADY_CONFIRMED"
	ErrCodePharmacyNotFound    = "PHARMACY_NOT_FOUND"
	ErrCodeMedicineNotFound    = "MEDICINE_NOT_FOUND"
	ErrCodeEmptyQuery          = "EMPTY_QUERY"
	ErrCodeInvalidBulkField    = "INVALID_BULK_FIELD"
	ErrCodeDocumentNotFound    = "DOCUMENT_NOT_FOUND"
	ErrCodeDocumentExists      = "DOCUMENT_EXISTS"
	ErrCodeEmailTaken          = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeInvalidPreference   = "INVALID_PREFERENCE_KEY"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeAlertContactMissing = "ALERT_CONTACT_MISSING"
	ErrCodeMedicineUnavailable = "MEDICINE_UNAVAILABLE"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidPrice        = NewDomainError(ErrCodeInvalidPrice, "Price must be a non-negative amount")
	ErrInvalidQuantity     = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrCartItemNotFound    = NewDomainError(ErrCodeCartItemNotFound, "Item is not in the cart")
	ErrEmptyCart           = NewDomainError(ErrCodeEmptyCart, "Cart is empty")
	ErrOrderNotFound       = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrOrderExists         = NewDomainError(ErrCodeOrderExists, "An order with this ID already exists")
	ErrInvalidOrderStatus  = NewDomainError(ErrCodeInvalidOrderStatus, "Unknown order status")
	ErrInvalidTransition   = NewDomainError(ErrCodeInvalidTransition, "Order cannot move to the requested status")
	ErrCheckoutConfirmed   = NewDomainError(ErrCodeCheckoutConfirmed, "Checkout already confirmed; reset before placing another order")
	ErrPharmacyNotFound    = NewDomainError(ErrCodePharmacyNotFound, "Pharmacy not found")
	ErrMedicineNotFound    = NewDomainError(ErrCodeMedicineNotFound, "One or more medicines not found")
	ErrEmptyQuery          = NewDomainError(ErrCodeEmptyQuery, "Search query is required")
	ErrInvalidBulkField    = NewDomainError(ErrCodeInvalidBulkField, "Bulk update field must be price or stock")
	ErrDocumentNotFound    = NewDomainError(ErrCodeDocumentNotFound, "Document not found")
	ErrDocumentExists      = NewDomainError(ErrCodeDocumentExists, "A document with this ID already exists")
	ErrEmailTaken          = NewDomainError(ErrCodeEmailTaken, "An account with this email already exists")
	ErrInvalidCredentials  = NewDomainError(ErrCodeInvalidCredentials, "Invalid email or password")
	ErrInvalidPreference   = NewDomainError(ErrCodeInvalidPreference, "Unknown preference key")
	ErrUnauthorised        = NewDomainError(ErrCodeUnauthorised, "Authentication required")
	ErrForbidden           = NewDomainError(ErrCodeForbidden, "Not allowed")
	ErrAlertContactMissing = NewDomainError(ErrCodeAlertContactMissing, "Please provide either email or phone number")
	ErrMedicineUnavailable = NewDomainError(ErrCodeMedicineUnavailable, "Medicine is out of stock at this pharmacy")
)

// ValidationError carries per-field messages for a rejected form.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates an empty validation error.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a message for a field, keeping the first one reported.
func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
