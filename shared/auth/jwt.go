package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the minimum accepted HMAC secret size in bytes.
const MinSecretLength = 32

// TokenType distinguishes access tokens from refresh tokens through the "type" claim.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	ErrSecretTooShort   = fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	ErrMalformed        = errors.New("token is malformed")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrExpired          = errors.New("token has expired")
	ErrTypeMismatch     = errors.New("token type mismatch")
)

// Claims is the payload carried by access and refresh tokens.
// TokenVersion is only set on refresh tokens.
type Claims struct {
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	TokenVersion string    `json:"token_version,omitempty"`
	Type         TokenType `json:"type"`
	jwt.RegisteredClaims
}

// JWTAuthenticator represents a JWT based authenticator.
type JWTAuthenticator struct {
	secret   []byte
	audience string
	issuer   string
	now      func() time.Time
}

// NewJWTAuthenticator creates a new JWTAuthenticator instance. Audience and
// issuer are optional; when set they are written on issue and enforced on verify.
func NewJWTAuthenticator(secret, audience, issuer string) (*JWTAuthenticator, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}

	return &JWTAuthenticator{
		secret:   []byte(secret),
		audience: audience,
		issuer:   issuer,
		now:      time.Now,
	}, nil
}

// IssueToken signs claims as a token of the given type that expires after ttl.
// The iat, exp and type claims are always overwritten.
func (a *JWTAuthenticator) IssueToken(claims Claims, tokenType TokenType, ttl time.Duration) (string, error) {
	now := a.now()

	claims.Type = tokenType
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if a.issuer != "" {
		claims.Issuer = a.issuer
	}
	if a.audience != "" {
		claims.Audience = jwt.ClaimStrings{a.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenStr, err := token.SignedString(a.secret)
	if err != nil {
		return "", err
	}

	return tokenStr, nil
}

// VerifyToken validates the signature and expiry of tokenString and checks
// that it carries the expected type. HS256 is the only accepted algorithm
// no matter what the token header declares.
func (a *JWTAuthenticator) VerifyToken(tokenString string, expected TokenType) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(a.now),
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, classify(err)
	}

	if !token.Valid {
		return nil, ErrInvalidSignature
	}

	if claims.Type != expected {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrTypeMismatch, claims.Type, expected)
	}

	return claims, nil
}

// classify maps golang-jwt validation errors onto the codec error kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		// Missing exp, future iat, wrong audience or issuer.
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
