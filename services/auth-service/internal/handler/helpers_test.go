package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/clinidoc-api/shared/auth"
	"github.com/vasapolrittideah/clinidoc-api/shared/metrics"
	"github.com/vasapolrittideah/clinidoc-api/shared/provider"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type stubProvider struct {
	identities map[string]provider.UserInfo
	err        error
}

func (s *stubProvider) Name() string { return "auth0" }

func (s *stubProvider) VerifyToken(_ context.Context, token string) (provider.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	info, ok := s.identities[token]
	if !ok {
		return nil, provider.ErrInvalidToken
	}
	return provider.Claims{"sub": info.Subject, "email": info.Email}, nil
}

func (s *stubProvider) GetUserInfo(_ context.Context, token string, _ provider.Claims) (*provider.UserInfo, error) {
	info := s.identities[token]
	return &info, nil
}

type testServer struct {
	*httptest.Server

	repo     repository.UserRepository
	guard    *usecase.AccessGuard
	metrics  *metrics.Metrics
	provider *stubProvider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := zerolog.Nop()
	codec, err := auth.NewJWTAuthenticator(testSecret, "", "")
	require.NoError(t, err)

	stub := &stubProvider{identities: map[string]provider.UserInfo{}}
	registry := provider.NewRegistry("auth0")
	registry.Register("auth0", func() (provider.OAuthProvider, error) { return stub, nil })

	repo := repository.NewUserMemoryRepository()
	authUsecase := usecase.NewAuthUsecase(repo, codec, registry, config.TokenConfig{
		AccessTokenExpiresIn:  30 * time.Minute,
		RefreshTokenExpiresIn: 7 * 24 * time.Hour,
	}, &logger)
	guard := usecase.NewAccessGuard(codec, repo, &logger)
	m := metrics.New(prometheus.NewRegistry())

	h := NewAuthHTTPHandler(authUsecase, guard, m, &logger)
	srv := httptest.NewServer(NewRouter(h, &logger, RouterConfig{
		AllowedOrigins: []string{"*"},
		Gatherer:       prometheus.NewRegistry(),
	}))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, repo: repo, guard: guard, metrics: m, provider: stub}
}

// do sends a JSON request and decodes the JSON response into a generic map.
func (s *testServer) do(t *testing.T, method, path string, body any, token string) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}

	return resp, out
}

// registerUser registers, optionally verifies and promotes a user, and logs in.
func (s *testServer) registerUser(t *testing.T, email string, role model.Role, verified bool) (string, map[string]any) {
	t.Helper()

	resp, body := s.do(t, http.MethodPost, "/api/v1/auth/register", map[string]any{
		"email":     email,
		"password":  "longpassword123",
		"full_name": "Test User",
		"role":      string(role),
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	id := body["id"].(string)

	if verified {
		v := true
		_, err := s.repo.UpdateUser(context.Background(), id, repository.UpdateUserParams{IsVerified: &v})
		require.NoError(t, err)
	}

	resp, body = s.do(t, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email":    email,
		"password": "longpassword123",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	return id, body
}
