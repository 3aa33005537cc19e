package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"pharmago/internal/model"

	"github.com/rs/zerolog"
)

type contextKey int

const (
	userKey contextKey = iota
	tokenKey
)

// TokenVerifier resolves a bearer token to its account.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (model.User, error)
}

// WithUser returns a context carrying the authenticated user and token.
func WithUser(ctx context.Context, user model.User, token string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, tokenKey, token)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userKey).(model.User)
	return user, ok
}

// TokenFromContext returns the bearer token the request was authenticated with.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// Authenticate requires a valid "Authorization: Bearer <token>" header on
// every request except the public routes, given as "METHOD /path" or "/path".
// Public routes still get the user attached when a valid token is sent.
func Authenticate(verifier TokenVerifier, public []string, logger zerolog.Logger) func(http.Handler) http.Handler {
	open := make(map[string]bool, len(public))
	for _, route := range public {
		open[route] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			isPublic := open[r.URL.Path] || open[r.Method+" "+r.URL.Path]

			token, found := bearerToken(r)
			if !found {
				if isPublic {
					next.ServeHTTP(w, r)
					return
				}
				logger.Warn().Str("path", r.URL.Path).Msg("missing bearer token")
				writeError(w, http.StatusUnauthorized, model.ErrUnauthorised)
				return
			}

			user, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if isPublic {
					next.ServeHTTP(w, r)
					return
				}
				logger.Warn().Err(err).Str("path", r.URL.Path).Msg("rejected bearer token")
				writeError(w, http.StatusUnauthorized, model.ErrUnauthorised)
				return
			}

			if rw, ok := w.(*responseWriter); ok {
				rw.userID = user.ID
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user, token)))
		})
	}
}

// RequireRole rejects authenticated users whose role differs from role.
func RequireRole(role model.Role, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, model.ErrUnauthorised)
				return
			}

			if user.Role != role {
				logger.Warn().
					Str("user_id", user.ID).
					Str("role", string(user.Role)).
					Str("path", r.URL.Path).
					Msg("role not allowed")
				writeError(w, http.StatusForbidden, model.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeError(w http.ResponseWriter, status int, err *model.DomainError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: err.Code, Message: err.Message})
}
