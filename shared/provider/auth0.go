package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const auth0ProviderName = "auth0"

// Auth0Config holds the endpoints and expected values for an Auth0 tenant.
type Auth0Config struct {
	Issuer      string
	JWKSURL     string
	UserInfoURL string
	Audience    string
}

// Auth0ConfigFromDomain derives the standard tenant endpoints from its domain.
func Auth0ConfigFromDomain(domain, audience string) Auth0Config {
	domain = strings.TrimSuffix(strings.TrimPrefix(domain, "https://"), "/")
	return Auth0Config{
		Issuer:      "https://" + domain + "/",
		JWKSURL:     "https://" + domain + "/.well-known/jwks.json",
		UserInfoURL: "https://" + domain + "/userinfo",
		Audience:    audience,
	}
}

// Auth0Provider verifies Auth0 access tokens against the tenant's JWKS and
// reads the profile from the userinfo endpoint.
type Auth0Provider struct {
	cfg      Auth0Config
	client   *http.Client
	verifier *rs256Verifier
	logger   *zerolog.Logger
}

// NewAuth0Provider creates an Auth0 provider sharing keys through keySet.
func NewAuth0Provider(cfg Auth0Config, keySet *KeySet, client *http.Client, logger *zerolog.Logger) (*Auth0Provider, error) {
	if cfg.Issuer == "" || cfg.JWKSURL == "" || cfg.UserInfoURL == "" || cfg.Audience == "" {
		return nil, fmt.Errorf("%w: auth0 config missing required fields", ErrUnsupportedProvider)
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Auth0Provider{
		cfg:    cfg,
		client: client,
		verifier: &rs256Verifier{
			keys:     keySet,
			issuer:   cfg.Issuer,
			audience: cfg.Audience,
		},
		logger: logger,
	}, nil
}

func (p *Auth0Provider) Name() string {
	return auth0ProviderName
}

func (p *Auth0Provider) VerifyToken(ctx context.Context, token string) (Claims, error) {
	claims, err := p.verifier.verify(ctx, token)
	if err != nil {
		p.logger.Warn().Err(err).Str("provider", auth0ProviderName).Msg("token verification failed")
		return nil, err
	}

	return claims, nil
}

// GetUserInfo calls the tenant userinfo endpoint with the bearer token.
func (p *Auth0Provider) GetUserInfo(ctx context.Context, token string, _ Claims) (*UserInfo, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: userinfo rejected token", ErrInvalidToken)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: userinfo: status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %v", ErrProviderUnavailable, err)
	}

	return &info, nil
}
