package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/repository"
	authtypes "github.com/vasapolrittideah/clinidoc-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/clinidoc-api/shared/auth"
	"github.com/vasapolrittideah/clinidoc-api/shared/provider"
	"github.com/vasapolrittideah/clinidoc-api/shared/security"
)

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	// Register creates an active, unverified password user.
	Register(ctx context.Context, params RegisterParams) (*model.User, error)

	// Login checks email and password and records the login time.
	Login(ctx context.Context, params LoginParams) (*model.User, error)

	// LoginOAuth verifies a provider token and finds, links or creates the matching user.
	LoginOAuth(ctx context.Context, params OAuthLoginParams) (*model.User, error)

	// IssueTokens mints an access and refresh token pair for user without touching the store.
	IssueTokens(user *model.User) (*authtypes.Tokens, error)

	// Refresh exchanges a refresh token for a new token pair.
	Refresh(ctx context.Context, refreshToken string) (*authtypes.Tokens, error)

	// Logout revokes every refresh token issued to user so far.
	Logout(ctx context.Context, user *model.User) error

	GetUser(ctx context.Context, id string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error)
}

// TokenCodec signs and verifies service tokens.
type TokenCodec interface {
	IssueToken(claims auth.Claims, tokenType auth.TokenType, ttl time.Duration) (string, error)
	VerifyToken(tokenString string, expected auth.TokenType) (*auth.Claims, error)
}

// ProviderResolver resolves an OAuth provider by name. An empty name selects
// the default provider.
type ProviderResolver interface {
	Get(name string) (provider.OAuthProvider, error)
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Email    string
	Password string
	FullName string
	Role     model.Role
}

// LoginParams defines the parameters for user login.
type LoginParams struct {
	Email    string
	Password string
}

// OAuthLoginParams defines the parameters for an OAuth login.
type OAuthLoginParams struct {
	Provider    string
	AccessToken string
}

// UpdateUserParams defines the profile fields an administrator may change.
type UpdateUserParams struct {
	Email    *string
	FullName *string
	Role     *model.Role
	IsActive *bool
}

// dummyPasswordHash is verified against when no stored hash exists so that
// login latency does not reveal whether an email is registered.
var dummyPasswordHash = sync.OnceValue(func() string {
	hash, _ := security.HashPassword("clinidoc-timing-equalizer")
	return hash
})

type authUsecase struct {
	userRepo  repository.UserRepository
	jwtAuth   TokenCodec
	providers ProviderResolver
	tokenCfg  config.TokenConfig
	logger    *zerolog.Logger
}

func NewAuthUsecase(
	userRepo repository.UserRepository,
	jwtAuth TokenCodec,
	providers ProviderResolver,
	tokenCfg config.TokenConfig,
	logger *zerolog.Logger,
) AuthUsecase {
	return &authUsecase{
		userRepo:  userRepo,
		jwtAuth:   jwtAuth,
		providers: providers,
		tokenCfg:  tokenCfg,
		logger:    logger,
	}
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	email := normalizeEmail(params.Email)

	role := params.Role
	if role == "" {
		role = model.RoleClinician
	}
	if !role.Valid() {
		return nil, model.ErrInvalidRole
	}

	if _, err := u.userRepo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     strings.TrimSpace(params.FullName),
		Role:         role,
		IsActive:     true,
		IsVerified:   false,
		TokenVersion: uuid.NewString(),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	created, err := u.userRepo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateEmail
		}

		return nil, err
	}

	u.logger.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")

	return created, nil
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*model.User, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, normalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			security.VerifyPassword(params.Password, dummyPasswordHash())
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if !user.HasPassword() {
		security.VerifyPassword(params.Password, dummyPasswordHash())
		return nil, ErrInvalidCredentials
	}

	if !security.VerifyPassword(params.Password, user.PasswordHash) {
		u.logger.Warn().Str("user_id", user.ID).Msg("password mismatch")
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return u.touchLastLogin(ctx, user)
}

func (u *authUsecase) LoginOAuth(ctx context.Context, params OAuthLoginParams) (*model.User, error) {
	p, err := u.providers.Get(params.Provider)
	if err != nil {
		return nil, err
	}

	claims, err := p.VerifyToken(ctx, params.AccessToken)
	if err != nil {
		return nil, err
	}

	info, err := p.GetUserInfo(ctx, params.AccessToken, claims)
	if err != nil {
		return nil, err
	}

	subject := claims.String("sub")
	if subject == "" {
		subject = info.Subject
	}
	email := normalizeEmail(info.Email)
	if email == "" {
		email = normalizeEmail(claims.String("email"))
	}
	if subject == "" || email == "" {
		return nil, ErrInvalidOAuthAssertion
	}

	name := strings.TrimSpace(info.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	identity := oauthIdentity{provider: p.Name(), subject: subject, email: email, name: name}

	user, err := u.resolveOAuthUser(ctx, identity, true)
	if errors.Is(err, repository.ErrDuplicateKey) {
		// A concurrent login created or linked the same identity first.
		user, err = u.resolveOAuthUser(ctx, identity, false)
	}
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return u.touchLastLogin(ctx, user)
}

type oauthIdentity struct {
	provider string
	subject  string
	email    string
	name     string
}

// resolveOAuthUser looks the identity up by subject, then by email (linking
// the match), and finally creates a new user when allowCreate is set.
func (u *authUsecase) resolveOAuthUser(ctx context.Context, id oauthIdentity, allowCreate bool) (*model.User, error) {
	user, err := u.userRepo.GetUserByOAuthSubject(ctx, id.subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	user, err = u.userRepo.GetUserByEmail(ctx, id.email)
	switch {
	case err == nil:
		verified := true
		linked, err := u.userRepo.UpdateUser(ctx, user.ID, repository.UpdateUserParams{
			OAuthProvider: &id.provider,
			OAuthSubject:  &id.subject,
			IsVerified:    &verified,
		})
		if err != nil {
			return nil, err
		}

		u.logger.Info().Str("user_id", linked.ID).Str("provider", id.provider).Msg("linked oauth identity to existing user")
		return linked, nil
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, err
	case !allowCreate:
		return nil, fmt.Errorf("resolve oauth user after conflict: %w", err)
	}

	user = &model.User{
		Email:         id.email,
		FullName:      id.name,
		Role:          model.DefaultOAuthRole,
		IsActive:      true,
		IsVerified:    true,
		OAuthProvider: id.provider,
		OAuthSubject:  id.subject,
		TokenVersion:  uuid.NewString(),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	created, err := u.userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	u.logger.Info().Str("user_id", created.ID).Str("provider", id.provider).Msg("user created from oauth login")
	return created, nil
}

func (u *authUsecase) IssueTokens(user *model.User) (*authtypes.Tokens, error) {
	claims := auth.Claims{
		Email: user.Email,
		Role:  string(user.Role),
	}
	claims.Subject = user.ID

	accessToken, err := u.jwtAuth.IssueToken(claims, auth.TokenTypeAccess, u.tokenCfg.AccessTokenExpiresIn)
	if err != nil {
		return nil, err
	}

	claims.TokenVersion = user.TokenVersion
	refreshToken, err := u.jwtAuth.IssueToken(claims, auth.TokenTypeRefresh, u.tokenCfg.RefreshTokenExpiresIn)
	if err != nil {
		return nil, err
	}

	return &authtypes.Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    authtypes.TokenTypeBearer,
		ExpiresIn:    int64(u.tokenCfg.AccessTokenExpiresIn.Seconds()),
	}, nil
}

func (u *authUsecase) Refresh(ctx context.Context, refreshToken string) (*authtypes.Tokens, error) {
	claims, err := u.jwtAuth.VerifyToken(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return nil, ErrUnauthenticated
	}

	user, err := u.userRepo.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}

		return nil, err
	}

	if claims.TokenVersion != user.TokenVersion {
		u.logger.Warn().Str("user_id", user.ID).Msg("revoked refresh token presented")
		return nil, ErrTokenRevoked
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return u.IssueTokens(user)
}

func (u *authUsecase) Logout(ctx context.Context, user *model.User) error {
	version := uuid.NewString()
	if _, err := u.userRepo.UpdateUser(ctx, user.ID, repository.UpdateUserParams{TokenVersion: &version}); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUnauthenticated
		}

		return err
	}

	user.TokenVersion = version
	return nil
}

func (u *authUsecase) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return user, nil
}

func (u *authUsecase) UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error) {
	update := repository.UpdateUserParams{
		FullName: params.FullName,
		Role:     params.Role,
		IsActive: params.IsActive,
	}
	if params.Email != nil {
		email := normalizeEmail(*params.Email)
		update.Email = &email
	}
	if params.Role != nil && !params.Role.Valid() {
		return nil, model.ErrInvalidRole
	}

	user, err := u.userRepo.UpdateUser(ctx, id, update)
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, repository.ErrNoUpdate):
		return u.GetUser(ctx, id)
	case errors.Is(err, repository.ErrUserNotFound):
		return nil, ErrUserNotFound
	case errors.Is(err, repository.ErrDuplicateKey):
		return nil, ErrDuplicateEmail
	default:
		return nil, err
	}
}

func (u *authUsecase) touchLastLogin(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now().UTC()
	updated, err := u.userRepo.UpdateUser(ctx, user.ID, repository.UpdateUserParams{LastLogin: &now})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
