package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/clinidoc-api/shared/provider"
)

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantKind    string
		wantMessage string
	}{
		{"duplicate", usecase.ErrDuplicateEmail, http.StatusConflict, "duplicate_email", "email already registered"},
		{"credentials", usecase.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "incorrect email or password"},
		{
			"wrapped unauthenticated hides cause",
			fmt.Errorf("%w: %w", usecase.ErrUnauthenticated, errors.New("signature is invalid")),
			http.StatusUnauthorized, "unauthenticated", "could not validate credentials",
		},
		{"revoked", usecase.ErrTokenRevoked, http.StatusUnauthorized, "token_revoked", "refresh token has been revoked"},
		{
			"role error keeps detail",
			&usecase.RoleError{Role: model.RoleViewer, Allowed: model.AdminRoles},
			http.StatusForbidden, "forbidden", `role "viewer" is not permitted, requires one of: admin`,
		},
		{
			"inactive wins over forbidden",
			fmt.Errorf("%w: %w", usecase.ErrForbidden, usecase.ErrAccountInactive),
			http.StatusForbidden, "account_inactive", "forbidden: user account is inactive",
		},
		{"oauth assertion", usecase.ErrInvalidOAuthAssertion, http.StatusBadRequest, "invalid_oauth_assertion", usecase.ErrInvalidOAuthAssertion.Error()},
		{"not found", usecase.ErrUserNotFound, http.StatusNotFound, "user_not_found", "user not found"},
		{"unsupported provider", provider.ErrUnsupportedProvider, http.StatusBadRequest, "unsupported_provider", provider.ErrUnsupportedProvider.Error()},
		{"provider down", fmt.Errorf("fetch jwks: %w", provider.ErrProviderUnavailable), http.StatusServiceUnavailable, "provider_unavailable", provider.ErrProviderUnavailable.Error()},
		{"invalid role", model.ErrInvalidRole, http.StatusUnprocessableEntity, "invalid_role", model.ErrInvalidRole.Error()},
		{"unknown", errors.New("mongo: connection reset"), http.StatusInternalServerError, "internal", "something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, kind, message := classifyError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantMessage, message)
		})
	}
}

func TestWriteError_Challenge(t *testing.T) {
	logger := nopLogger()

	rec := httptest.NewRecorder()
	kind := writeError(rec, &logger, usecase.ErrTokenRevoked)
	assert.Equal(t, "token_revoked", kind)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.JSONEq(t, `{"error":"refresh token has been revoked"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	writeError(rec, &logger, usecase.ErrDuplicateEmail)
	assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, ok := extractBearerToken(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, token)
		})
	}
}
