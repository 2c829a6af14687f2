package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/usecase"
)

type contextKey struct{}

var userContextKey = contextKey{}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

// extractBearerToken returns the token of an "Authorization: Bearer" header value.
func extractBearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAuth rejects requests without a valid access token for an active,
// verified user and stores that user in the request context.
func (h *AuthHTTPHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractBearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, h.logger, usecase.ErrUnauthenticated)
			return
		}

		user, err := h.guard.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}

		if err := h.guard.RequireActive(user); err != nil {
			writeError(w, h.logger, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireRole must run after RequireAuth.
func (h *AuthHTTPHandler) RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				writeError(w, h.logger, usecase.ErrUnauthenticated)
				return
			}

			if err := h.guard.RequireRole(user, roles...); err != nil {
				writeError(w, h.logger, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// OptionalAuth attaches the user when a valid access token is present and
// lets the request through as anonymous otherwise.
func (h *AuthHTTPHandler) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractBearerToken(r.Header.Get("Authorization"))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		if user := h.guard.Optional(r.Context(), token); user != nil {
			r = r.WithContext(WithUser(r.Context(), user))
		}

		next.ServeHTTP(w, r)
	})
}
