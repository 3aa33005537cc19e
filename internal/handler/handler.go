// Package handler exposes the storefront and pharmacy portal over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"pharmago/internal/middleware"
	"pharmago/internal/model"

	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// statusByCode maps domain error codes to HTTP status codes.
var statusByCode = map[string]int{
	model.ErrCodeInvalidJSON:         http.StatusBadRequest,
	model.ErrCodeInvalidPrice:        http.StatusBadRequest,
	model.ErrCodeInvalidQuantity:     http.StatusBadRequest,
	model.ErrCodeEmptyCart:           http.StatusBadRequest,
	model.ErrCodeInvalidOrderStatus:  http.StatusBadRequest,
	model.ErrCodeEmptyQuery:          http.StatusBadRequest,
	model.ErrCodeInvalidBulkField:    http.StatusBadRequest,
	model.ErrCodeInvalidPreference:   http.StatusBadRequest,
	model.ErrCodeAlertContactMissing: http.StatusBadRequest,
	model.ErrCodeUnauthorised:        http.StatusUnauthorized,
	model.ErrCodeInvalidCredentials:  http.StatusUnauthorized,
	model.ErrCodeForbidden:           http.StatusForbidden,
	model.ErrCodeCartItemNotFound:    http.StatusNotFound,
	model.ErrCodeOrderNotFound:       http.StatusNotFound,
	model.ErrCodePharmacyNotFound:    http.StatusNotFound,
	model.ErrCodeMedicineNotFound:    http.StatusNotFound,
	model.ErrCodeDocumentNotFound:    http.StatusNotFound,
	model.ErrCodeOrderExists:         http.StatusConflict,
	model.ErrCodeDocumentExists:      http.StatusConflict,
	model.ErrCodeEmailTaken:          http.StatusConflict,
	model.ErrCodeInvalidTransition:   http.StatusConflict,
	model.ErrCodeCheckoutConfirmed:   http.StatusConflict,
	model.ErrCodeMedicineUnavailable: http.StatusConflict,
}

var errInvalidJSON = model.NewDomainError(model.ErrCodeInvalidJSON, "Request body is not valid JSON")

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing useful to tell the client.
		return
	}
}

// writeError maps err to a status code and writes the error envelope.
// Unknown errors are logged and reported as a generic 500.
func writeError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, model.ErrorResponse{
			Error:   model.ErrCodeValidation,
			Message: "Please correct the highlighted fields",
			Fields:  verr.Fields,
		})
		return
	}

	var derr *model.DomainError
	if errors.As(err, &derr) {
		status, known := statusByCode[derr.Code]
		if !known {
			status = http.StatusBadRequest
		}
		logger.Debug().Str("code", derr.Code).Int("status", status).Msg("request rejected")
		writeJSON(w, status, model.ErrorResponse{Error: derr.Code, Message: derr.Message})
		return
	}

	status := http.StatusInternalServerError
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}

	logger.Error().Err(err).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{
		Error:   model.ErrCodeInternalError,
		Message: "internal server error",
	})
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errInvalidJSON
	}
	return nil
}

// currentUser returns the authenticated user. Routes behind Authenticate always have one.
func currentUser(r *http.Request) (model.User, error) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return model.User{}, model.ErrUnauthorised
	}
	return user, nil
}
