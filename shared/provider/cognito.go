package provider

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

const cognitoProviderName = "cognito"

// CognitoConfig holds the user pool issuer and app client id.
type CognitoConfig struct {
	Issuer   string
	JWKSURL  string
	ClientID string
}

// CognitoConfigFromPool derives the issuer and JWKS endpoints of a user pool.
func CognitoConfigFromPool(region, userPoolID, clientID string) CognitoConfig {
	issuer := fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
	return CognitoConfig{
		Issuer:   issuer,
		JWKSURL:  issuer + "/.well-known/jwks.json",
		ClientID: clientID,
	}
}

// CognitoProvider verifies Cognito tokens. Profile claims travel inside the
// token, so no userinfo call is made.
type CognitoProvider struct {
	verifier *rs256Verifier
	logger   *zerolog.Logger
}

// NewCognitoProvider creates a Cognito provider sharing keys through keySet.
func NewCognitoProvider(cfg CognitoConfig, keySet *KeySet, logger *zerolog.Logger) (*CognitoProvider, error) {
	if cfg.Issuer == "" || cfg.JWKSURL == "" || cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: cognito config missing required fields", ErrUnsupportedProvider)
	}

	return &CognitoProvider{
		verifier: &rs256Verifier{
			keys:     keySet,
			issuer:   cfg.Issuer,
			audience: cfg.ClientID,
		},
		logger: logger,
	}, nil
}

func (p *CognitoProvider) Name() string {
	return cognitoProviderName
}

func (p *CognitoProvider) VerifyToken(ctx context.Context, token string) (Claims, error) {
	claims, err := p.verifier.verify(ctx, token)
	if err != nil {
		p.logger.Warn().Err(err).Str("provider", cognitoProviderName).Msg("token verification failed")
		return nil, err
	}

	return claims, nil
}

func (p *CognitoProvider) GetUserInfo(_ context.Context, _ string, claims Claims) (*UserInfo, error) {
	return userInfoFromClaims(claims), nil
}
