package handler

import (
	"net/http"

	"pharmago/internal/model"
	"pharmago/internal/service"

	"github.com/rs/zerolog"
)

// PharmacyHandler handles the pharmacy admin portal. Every request acts on
// the pharmacy of the signed-in account.
type PharmacyHandler struct {
	service service.PharmacyService
	logger  zerolog.Logger
}

// NewPharmacyHandler creates a new pharmacy handler.
func NewPharmacyHandler(service service.PharmacyService, logger zerolog.Logger) *PharmacyHandler {
	return &PharmacyHandler{
		service: service,
		logger:  logger.With().Str("handler", "pharmacy").Logger(),
	}
}

func pharmacyID(r *http.Request) (string, error) {
	user, err := currentUser(r)
	if err != nil {
		return "", err
	}
	if user.Role != model.RolePharmacy || user.PharmacyID == "" {
		return "", model.ErrForbidden
	}
	return user.PharmacyID, nil
}

// Profile handles GET /api/pharmacy/profile requests.
func (h *PharmacyHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, err := pharmacyID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	profile, err := h.service.Profile(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PATCH /api/pharmacy/profile requests.
func (h *PharmacyHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pharmacyID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var profile model.PharmacyProfile
	if err := decodeJSON(w, r, &profile); err != nil {
		writeError(w, err, h.logger)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), id, profile)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// ListMedicines handles GET /api/pharmacy/medicines requests.
func (h *PharmacyHandler) ListMedicines(w http.ResponseWriter, r *http.Request) {
	id, err := pharmacyID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	medicines, err := h.service.Medicines(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, medicines)
}

// UpdateMedicine handles PATCH /api/pharmacy/medicines/{id} requests.
func (h *PharmacyHandler) UpdateMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := pharmacyID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var patch model.MedicinePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err, h.logger)
		return
	}

	medicine, err := h.service.UpdateMedicine(r.Context(), id, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, medicine)
}

// BulkUpdate handles POST /api/pharmacy/medicines/bulk requests.
func (h *PharmacyHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pharmacyID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.BulkUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	updated, err := h.service.BulkUpdate(r.Context(), id, req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// LowStock handles GET /api/pharmacy/medicines/low-stock requests.
func (h *PharmacyHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	id, err := pharmacyID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	medicines, err := h.service.LowStock(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, medicines)
}

// ListOrders handles GET /api/pharmacy/orders requests.
func (h *PharmacyHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	id, err := pharmacyID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	orders, err := h.service.ListOrders(r.Context(), id, model.OrderStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// UpdateOrderStatus handles PATCH /api/pharmacy/orders/{id}/status requests.
func (h *PharmacyHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pharmacyID(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	updated, err := h.service.UpdateOrderStatus(r.Context(), id, r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}
