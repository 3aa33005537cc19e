package handler

import (
	"net/http"

	"pharmago/internal/identity"
	"pharmago/internal/middleware"
	"pharmago/internal/model"

	"github.com/rs/zerolog"
)

// AuthHandler handles account HTTP requests.
type AuthHandler struct {
	provider identity.Provider
	logger   zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(provider identity.Provider, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		logger:   logger.With().Str("handler", "auth").Logger(),
	}
}

// SignUp handles POST /api/auth/signup requests.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req model.SignUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	user, err := h.provider.SignUp(r.Context(), req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// SignIn handles POST /api/auth/signin requests.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req model.SignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	session, err := h.provider.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// SignOut handles POST /api/auth/signout requests.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.provider.SignOut(r.Context(), middleware.TokenFromContext(r.Context())); err != nil {
		writeError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me requests.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
