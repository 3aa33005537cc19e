package handler

import (
	"encoding/json"
	"net/http"

	"pharmago/internal/model"
	"pharmago/internal/preferences"

	"github.com/rs/zerolog"
)

// PreferenceHandler handles per-user settings and profile blobs.
type PreferenceHandler struct {
	store  preferences.Store
	logger zerolog.Logger
}

// NewPreferenceHandler creates a new preference handler.
func NewPreferenceHandler(store preferences.Store, logger zerolog.Logger) *PreferenceHandler {
	return &PreferenceHandler{
		store:  store,
		logger: logger.With().Str("handler", "preferences").Logger(),
	}
}

// Get handles GET /api/me/preferences/{key} requests.
// An unset preference is returned as JSON null.
func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var value json.RawMessage
	found, err := h.store.Get(r.Context(), user.ID, r.PathValue("key"), &value)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	if !found {
		value = json.RawMessage("null")
	}

	writeJSON(w, http.StatusOK, value)
}

// Put handles PUT /api/me/preferences/{key} requests.
func (h *PreferenceHandler) Put(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	key := r.PathValue("key")
	if !preferences.ValidKey(key) {
		writeError(w, model.ErrInvalidPreference, h.logger)
		return
	}

	var value json.RawMessage
	if err := decodeJSON(w, r, &value); err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.store.Put(r.Context(), user.ID, key, value); err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, value)
}
