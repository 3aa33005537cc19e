package handler

import (
	"net/http"

	"pharmago/internal/checkout"
	"pharmago/internal/model"
	"pharmago/internal/service"

	"github.com/rs/zerolog"
)

// StorefrontHandler handles cart, checkout and order HTTP requests.
type StorefrontHandler struct {
	service service.StorefrontService
	logger  zerolog.Logger
}

// NewStorefrontHandler creates a new storefront handler.
func NewStorefrontHandler(service service.StorefrontService, logger zerolog.Logger) *StorefrontHandler {
	return &StorefrontHandler{
		service: service,
		logger:  logger.With().Str("handler", "storefront").Logger(),
	}
}

// cartKey reads the cart line key from the {pharmacyId}/{productId} path.
func cartKey(r *http.Request) model.CartKey {
	return model.CartKey{
		PharmacyID: r.PathValue("pharmacyId"),
		ProductID:  r.PathValue("productId"),
	}
}

// GetCart handles GET /api/cart requests.
func (h *StorefrontHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	cart, err := h.service.Cart(r.Context(), user.ID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// AddItem handles POST /api/cart/items requests.
func (h *StorefrontHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.AddToCartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	cart, err := h.service.AddToCart(r.Context(), user.ID, req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// UpdateItem handles PATCH /api/cart/items/{pharmacyId}/{productId} requests.
func (h *StorefrontHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.QuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	cart, err := h.service.SetQuantity(r.Context(), user.ID, cartKey(r), req.Quantity)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// RemoveItem handles DELETE /api/cart/items/{pharmacyId}/{productId} requests.
func (h *StorefrontHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	cart, err := h.service.RemoveFromCart(r.Context(), user.ID, cartKey(r))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// ClearCart handles DELETE /api/cart requests.
func (h *StorefrontHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.service.ClearCart(r.Context(), user.ID); err != nil {
		writeError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetCheckout handles GET /api/checkout requests.
func (h *StorefrontHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	state, err := h.service.Checkout(r.Context(), user.ID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// PlaceOrder handles POST /api/checkout requests.
func (h *StorefrontHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var form checkout.Form
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, err, h.logger)
		return
	}

	placed, err := h.service.PlaceOrder(r.Context(), user, form)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, placed)
}

// ResetCheckout handles POST /api/checkout/reset requests.
func (h *StorefrontHandler) ResetCheckout(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.service.ResetCheckout(r.Context(), user.ID); err != nil {
		writeError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListOrders handles GET /api/orders requests.
func (h *StorefrontHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	status := model.OrderStatus(r.URL.Query().Get("status"))
	orders, err := h.service.ListOrders(r.Context(), user.ID, status)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetOrder handles GET /api/orders/{id} requests.
func (h *StorefrontHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	o, err := h.service.GetOrder(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

// CancelOrder handles POST /api/orders/{id}/cancel requests.
func (h *StorefrontHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	o, err := h.service.CancelOrder(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, o)
}
