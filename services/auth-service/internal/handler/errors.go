package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/clinidoc-api/shared/provider"
)

type errorKind struct {
	err    error
	status int
	name   string
}

// errorKinds is matched in order; the first entry that errors.Is accepts wins.
var errorKinds = []errorKind{
	{usecase.ErrDuplicateEmail, http.StatusConflict, "duplicate_email"},
	{usecase.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{usecase.ErrAccountInactive, http.StatusForbidden, "account_inactive"},
	{usecase.ErrTokenRevoked, http.StatusUnauthorized, "token_revoked"},
	{usecase.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{usecase.ErrForbidden, http.StatusForbidden, "forbidden"},
	{usecase.ErrInvalidOAuthAssertion, http.StatusBadRequest, "invalid_oauth_assertion"},
	{usecase.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{provider.ErrUnsupportedProvider, http.StatusBadRequest, "unsupported_provider"},
	{provider.ErrProviderUnavailable, http.StatusServiceUnavailable, "provider_unavailable"},
	{provider.ErrUnknownSigningKey, http.StatusUnauthorized, "unknown_signing_key"},
	{provider.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{model.ErrInvalidRole, http.StatusUnprocessableEntity, "invalid_role"},
}

// classifyError returns the HTTP status, a stable kind name and a client
// safe message for err.
func classifyError(err error) (int, string, string) {
	for _, k := range errorKinds {
		if !errors.Is(err, k.err) {
			continue
		}

		message := k.err.Error()
		if k.status == http.StatusForbidden {
			// Role and verification gates carry useful detail.
			message = err.Error()
		}
		return k.status, k.name, message
	}

	return http.StatusInternalServerError, "internal", "something went wrong"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, logger *zerolog.Logger, err error) string {
	status, kind, message := classifyError(err)

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error().Err(err).Str("kind", kind).Msg("request failed")
	default:
		logger.Debug().Err(err).Str("kind", kind).Msg("request rejected")
	}

	if kind == "unauthenticated" || kind == "token_revoked" {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	writeJSON(w, status, payload.ErrorResponse{Error: message})
	return kind
}
