package handler

import (
	"net/http"

	"pharmago/internal/middleware"
	"pharmago/internal/model"
	"pharmago/internal/service"

	"github.com/rs/zerolog"
)

// SupportHandler handles the help-and-support contact form.
type SupportHandler struct {
	service service.SupportService
	logger  zerolog.Logger
}

// NewSupportHandler creates a new support handler.
func NewSupportHandler(service service.SupportService, logger zerolog.Logger) *SupportHandler {
	return &SupportHandler{
		service: service,
		logger:  logger.With().Str("handler", "support").Logger(),
	}
}

// Contact handles POST /api/support/messages requests. Signing in is optional;
// a signed-in sender is recorded with the message.
func (h *SupportHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var req model.ContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	var userID string
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		userID = user.ID
	}

	receipt, err := h.service.Submit(r.Context(), userID, req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, receipt)
}
