package provider

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported oauth provider")
	ErrProviderUnavailable = errors.New("oauth provider unavailable")
	ErrUnknownSigningKey   = errors.New("unable to find appropriate signing key")
	ErrInvalidToken        = errors.New("invalid oauth token")
)

// Claims is a verified claim set returned by an OAuth provider.
type Claims map[string]any

// String returns the claim as a string, or "" when absent or not a string.
func (c Claims) String(name string) string {
	v, _ := c[name].(string)
	return v
}

// Bool returns the claim as a bool. Cognito encodes email_verified as a
// string, so "true" is accepted as well.
func (c Claims) Bool(name string) bool {
	switch v := c[name].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

// UserInfo is the normalized identity facts reported by a provider.
type UserInfo struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// OAuthProvider defines the contract every external OAuth provider must
// implement. Implementations return identity facts only and never create,
// link or update users.
type OAuthProvider interface {
	// Name returns the provider identifier used by the registry.
	Name() string

	// VerifyToken checks the bearer token against the provider and returns its claims.
	VerifyToken(ctx context.Context, token string) (Claims, error)

	// GetUserInfo returns the identity behind a token already accepted by VerifyToken.
	GetUserInfo(ctx context.Context, token string, claims Claims) (*UserInfo, error)
}

// userInfoFromClaims derives user info from verified claims without any network call.
func userInfoFromClaims(claims Claims) *UserInfo {
	return &UserInfo{
		Subject:       claims.String("sub"),
		Email:         claims.String("email"),
		EmailVerified: claims.Bool("email_verified"),
		Name:          claims.String("name"),
	}
}
