package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"pharmago/internal/middleware"
	"pharmago/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRequest builds a request with an optional JSON body and signed-in user.
func newRequest(t *testing.T, method, target string, body any, user *model.User) *http.Request {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), *user, "token-"+user.ID))
	}
	return req
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

var (
	shopper    = &model.User{ID: "u1", Email: "asha@example.com", FirstName: "Asha", Role: model.RoleUser}
	pharmacist = &model.User{ID: "p1", Email: "owner@apollo.example", FirstName: "Ravi", Role: model.RolePharmacy, PharmacyID: "1"}
)

func TestWriteError(t *testing.T) {
	verr := model.NewValidationError()
	verr.Add("phoneNumber", "Please enter a valid 10-digit phone number")

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{name: "Validation", err: verr, expectedStatus: http.StatusUnprocessableEntity, expectedCode: model.ErrCodeValidation},
		{name: "Bad request", err: model.ErrEmptyCart, expectedStatus: http.StatusBadRequest, expectedCode: model.ErrCodeEmptyCart},
		{name: "Unauthorised", err: model.ErrInvalidCredentials, expectedStatus: http.StatusUnauthorized, expectedCode: model.ErrCodeInvalidCredentials},
		{name: "Forbidden", err: model.ErrForbidden, expectedStatus: http.StatusForbidden, expectedCode: model.ErrCodeForbidden},
		{name: "Not found", err: model.ErrOrderNotFound, expectedStatus: http.StatusNotFound, expectedCode: model.ErrCodeOrderNotFound},
		{name: "Conflict", err: model.ErrCheckoutConfirmed, expectedStatus: http.StatusConflict, expectedCode: model.ErrCodeCheckoutConfirmed},
		{name: "Wrapped domain error", err: fmt.Errorf("lookup: %w", model.ErrPharmacyNotFound), expectedStatus: http.StatusNotFound, expectedCode: model.ErrCodePharmacyNotFound},
		{name: "Unmapped domain code", err: model.NewDomainError("SOMETHING_NEW", "x"), expectedStatus: http.StatusBadRequest, expectedCode: "SOMETHING_NEW"},
		{name: "Timeout", err: context.DeadlineExceeded, expectedStatus: http.StatusGatewayTimeout, expectedCode: model.ErrCodeInternalError},
		{name: "Unknown", err: errors.New("db exploded"), expectedStatus: http.StatusInternalServerError, expectedCode: model.ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			writeError(w, tt.err, zerolog.Nop())

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			resp := decodeBody[model.ErrorResponse](t, w)
			assert.Equal(t, tt.expectedCode, resp.Error)
			assert.NotContains(t, resp.Message, "db exploded")
		})
	}

	t.Run("Validation fields are returned", func(t *testing.T) {
		w := httptest.NewRecorder()

		writeError(w, verr, zerolog.Nop())

		resp := decodeBody[model.ErrorResponse](t, w)
		assert.Equal(t, map[string]string{"phoneNumber": "Please enter a valid 10-digit phone number"}, resp.Fields)
	})
}

func TestCurrentUser(t *testing.T) {
	_, err := currentUser(newRequest(t, http.MethodGet, "/api/cart", nil, nil))
	assert.ErrorIs(t, err, model.ErrUnauthorised)

	user, err := currentUser(newRequest(t, http.MethodGet, "/api/cart", nil, shopper))
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}
