package main

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/clinidoc-api/shared/metrics"
	"github.com/vasapolrittideah/clinidoc-api/shared/provider"
)

// newProviderRegistry registers a factory for every provider with complete
// settings. Providers are built lazily on first use.
func newProviderRegistry(cfg *config.AuthServiceConfig, m *metrics.Metrics, log *zerolog.Logger) *provider.Registry {
	client := &http.Client{Timeout: cfg.OAuth.HTTPTimeout}
	registry := provider.NewRegistry(cfg.OAuth.DefaultProvider)

	keySet := func(name, url string) *provider.KeySet {
		return provider.NewKeySet(url, client, log,
			provider.WithMaxAge(cfg.OAuth.JWKSMaxAge),
			provider.WithFetchObserver(func(err error) { m.ObserveKeySetFetch(name, err) }),
		)
	}

	if cfg.Auth0.Enabled() {
		registry.Register("auth0", func() (provider.OAuthProvider, error) {
			auth0Cfg := provider.Auth0ConfigFromDomain(cfg.Auth0.Domain, cfg.Auth0.Audience)
			p, err := provider.NewAuth0Provider(auth0Cfg, keySet("auth0", auth0Cfg.JWKSURL), client, log)
			if err != nil {
				return nil, err
			}
			return p, nil
		})
	}

	if cfg.Cognito.Enabled() {
		registry.Register("cognito", func() (provider.OAuthProvider, error) {
			cognitoCfg := provider.CognitoConfigFromPool(cfg.Cognito.Region, cfg.Cognito.UserPoolID, cfg.Cognito.ClientID)
			p, err := provider.NewCognitoProvider(cognitoCfg, keySet("cognito", cognitoCfg.JWKSURL), log)
			if err != nil {
				return nil, err
			}
			return p, nil
		})
	}

	if cfg.Google.Enabled() {
		registry.Register("google", func() (provider.OAuthProvider, error) {
			p, err := provider.NewGoogleProvider(cfg.Google.ClientID, client, log)
			if err != nil {
				return nil, err
			}
			return p, nil
		})
	}

	log.Info().Str("default", registry.DefaultName()).Msg("oauth providers configured")

	return registry
}
