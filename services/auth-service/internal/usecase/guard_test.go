package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/clinidoc-api/shared/auth"
)

func TestAccessGuard_Authenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "a@x.com", "longpassword123")
	user, err := env.usecase.GetUser(ctx, id)
	require.NoError(t, err)
	tokens, err := env.usecase.IssueTokens(user)
	require.NoError(t, err)

	got, err := env.guard.Authenticate(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "garbage"},
		{name: "refresh token", token: tokens.RefreshToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.guard.Authenticate(ctx, tt.token)
			assert.ErrorIs(t, err, ErrUnauthenticated)
			assert.Nil(t, env.guard.Optional(ctx, tt.token))
		})
	}

	t.Run("unknown subject", func(t *testing.T) {
		claims := auth.Claims{Email: "ghost@x.com", Role: "admin"}
		claims.Subject = "ghost"
		token, err := env.codec.IssueToken(claims, auth.TokenTypeAccess, time.Minute)
		require.NoError(t, err)

		_, err = env.guard.Authenticate(ctx, token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("optional", func(t *testing.T) {
		got := env.guard.Optional(ctx, tokens.AccessToken)
		require.NotNil(t, got)
		assert.Equal(t, id, got.ID)
	})
}

func TestAccessGuard_RequireActive(t *testing.T) {
	env := newTestEnv(t)

	err := env.guard.RequireActive(&model.User{IsActive: true, IsVerified: false})
	assert.ErrorIs(t, err, ErrForbidden)

	err = env.guard.RequireActive(&model.User{IsActive: false, IsVerified: true})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, err, ErrAccountInactive)

	assert.NoError(t, env.guard.RequireActive(&model.User{IsActive: true, IsVerified: true}))
}

func TestAccessGuard_RoleGate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.usecase.Register(ctx, RegisterParams{
		Email:    "viewer@x.com",
		Password: "longpassword123",
		FullName: "Viewer",
		Role:     model.RoleViewer,
	})
	require.NoError(t, err)
	env.setVerified(t, user.ID)

	tokens, err := env.usecase.IssueTokens(user)
	require.NoError(t, err)

	current, err := env.guard.Authenticate(ctx, tokens.AccessToken)
	require.NoError(t, err)
	require.NoError(t, env.guard.RequireActive(current))

	err = env.guard.RequireRole(current, model.ClinicalRoles...)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)

	var roleErr *RoleError
	require.True(t, errors.As(err, &roleErr))
	assert.Equal(t, model.ClinicalRoles, roleErr.Allowed)
	assert.Equal(t, model.RoleViewer, roleErr.Role)

	clinician := model.RoleClinician
	_, err = env.usecase.UpdateUser(ctx, user.ID, UpdateUserParams{Role: &clinician})
	require.NoError(t, err)

	// The role is read from the store, so the same access token now passes.
	current, err = env.guard.Authenticate(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.NoError(t, env.guard.RequireRole(current, model.ClinicalRoles...))
	assert.ErrorIs(t, env.guard.RequireRole(current, model.AdminRoles...), ErrForbidden)
}
