package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/clinidoc-api/shared/auth"
	"github.com/vasapolrittideah/clinidoc-api/shared/provider"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// fakeProvider accepts the tokens listed in identities and reports the
// matching user info.
type fakeProvider struct {
	name       string
	identities map[string]provider.UserInfo
	verifyErr  error

	// gate, when set, holds every GetUserInfo call until it is closed.
	gate chan struct{}
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) VerifyToken(_ context.Context, token string) (provider.Claims, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	info, ok := f.identities[token]
	if !ok {
		return nil, provider.ErrInvalidToken
	}
	return provider.Claims{"sub": info.Subject, "email": info.Email}, nil
}

func (f *fakeProvider) GetUserInfo(_ context.Context, token string, _ provider.Claims) (*provider.UserInfo, error) {
	if f.gate != nil {
		<-f.gate
	}
	info := f.identities[token]
	return &info, nil
}

type testEnv struct {
	usecase  AuthUsecase
	guard    *AccessGuard
	repo     repository.UserRepository
	codec    *auth.JWTAuthenticator
	provider *fakeProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zerolog.Nop()
	codec, err := auth.NewJWTAuthenticator(testSecret, "", "")
	require.NoError(t, err)

	fake := &fakeProvider{
		name:       "auth0",
		identities: map[string]provider.UserInfo{},
	}
	registry := provider.NewRegistry("auth0")
	registry.Register("auth0", func() (provider.OAuthProvider, error) { return fake, nil })

	repo := repository.NewUserMemoryRepository()
	tokenCfg := config.TokenConfig{
		AccessTokenExpiresIn:  30 * time.Minute,
		RefreshTokenExpiresIn: 7 * 24 * time.Hour,
	}

	return &testEnv{
		usecase:  NewAuthUsecase(repo, codec, registry, tokenCfg, &logger),
		guard:    NewAccessGuard(codec, repo, &logger),
		repo:     repo,
		codec:    codec,
		provider: fake,
	}
}

func (e *testEnv) register(t *testing.T, email, password string) string {
	t.Helper()

	user, err := e.usecase.Register(context.Background(), RegisterParams{
		Email:    email,
		Password: password,
		FullName: "A Name",
	})
	require.NoError(t, err)

	return user.ID
}

func (e *testEnv) setVerified(t *testing.T, id string) {
	t.Helper()

	verified := true
	_, err := e.repo.UpdateUser(context.Background(), id, repository.UpdateUserParams{IsVerified: &verified})
	require.NoError(t, err)
}

func (e *testEnv) addIdentity(token string, info provider.UserInfo) {
	e.provider.identities[token] = info
}
