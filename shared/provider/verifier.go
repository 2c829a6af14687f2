package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// rs256Verifier validates provider-issued RS256 tokens against a KeySet.
type rs256Verifier struct {
	keys     *KeySet
	issuer   string
	audience string
}

func (v *rs256Verifier) verify(ctx context.Context, raw string) (Claims, error) {
	claims := jwt.MapClaims{}

	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token header has no kid")
		}
		return v.keys.Key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrProviderUnavailable):
			return nil, ErrProviderUnavailable
		case errors.Is(err, ErrUnknownSigningKey):
			return nil, ErrUnknownSigningKey
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	return Claims(claims), nil
}
