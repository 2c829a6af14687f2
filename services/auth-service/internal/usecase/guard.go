package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/clinidoc-api/shared/auth"
)

// AccessGuard resolves the user behind an access token and gates requests
// on account state and role.
type AccessGuard struct {
	jwtAuth  TokenCodec
	userRepo repository.UserRepository
	logger   *zerolog.Logger
}

func NewAccessGuard(jwtAuth TokenCodec, userRepo repository.UserRepository, logger *zerolog.Logger) *AccessGuard {
	return &AccessGuard{
		jwtAuth:  jwtAuth,
		userRepo: userRepo,
		logger:   logger,
	}
}

// Authenticate verifies an access token and loads its user. Any codec failure
// or an unknown subject yields ErrUnauthenticated.
func (g *AccessGuard) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := g.jwtAuth.VerifyToken(token, auth.TokenTypeAccess)
	if err != nil {
		g.logger.Debug().Err(err).Msg("access token rejected")
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return nil, ErrUnauthenticated
	}

	user, err := g.userRepo.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}

		return nil, err
	}

	return user, nil
}

// RequireActive rejects inactive or unverified users.
func (g *AccessGuard) RequireActive(user *model.User) error {
	if !user.IsActive {
		return fmt.Errorf("%w: %w", ErrForbidden, ErrAccountInactive)
	}
	if !user.IsVerified {
		return fmt.Errorf("%w: user account is not verified", ErrForbidden)
	}

	return nil
}

// RequireRole rejects users whose role is not in allowed.
func (g *AccessGuard) RequireRole(user *model.User, allowed ...model.Role) error {
	if slices.Contains(allowed, user.Role) {
		return nil
	}

	g.logger.Warn().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("role not permitted")
	return &RoleError{Role: user.Role, Allowed: allowed}
}

// Optional behaves like Authenticate but returns nil instead of an error.
func (g *AccessGuard) Optional(ctx context.Context, token string) *model.User {
	if token == "" {
		return nil
	}

	user, err := g.Authenticate(ctx, token)
	if err != nil {
		return nil
	}

	return user
}
