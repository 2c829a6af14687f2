package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

// AuthServiceConfig holds the auth service configuration read from the environment.
type AuthServiceConfig struct {
	HTTPPort           string   `env:"HTTP_PORT"            envDefault:"8080"`
	GRPCPort           string   `env:"GRPC_PORT"            envDefault:"9090"`
	LogLevel           string   `env:"LOG_LEVEL"            envDefault:"info"`
	LogFormat          string   `env:"LOG_FORMAT"           envDefault:"json"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"     envSeparator:","`
	StoreDriver        string   `env:"STORE_DRIVER"         envDefault:"mongo"`

	Mongo   MongoConfig   `envPrefix:"MONGO_"`
	Token   TokenConfig   `envPrefix:"JWT_"`
	OAuth   OAuthConfig   `envPrefix:"OAUTH_"`
	Auth0   Auth0Config   `envPrefix:"AUTH0_"`
	Cognito CognitoConfig `envPrefix:"COGNITO_"`
	Google  GoogleConfig  `envPrefix:"GOOGLE_"`
}

type MongoConfig struct {
	URI      string `env:"URI"      envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"clinidoc"`
}

// TokenConfig configures the token codec and token lifetimes.
type TokenConfig struct {
	SecretKey             string        `env:"SECRET_KEY"`
	Issuer                string        `env:"ISSUER"`
	Audience              string        `env:"AUDIENCE"`
	AccessTokenExpiresIn  time.Duration `env:"ACCESS_TOKEN_EXPIRES_IN"  envDefault:"30m"`
	RefreshTokenExpiresIn time.Duration `env:"REFRESH_TOKEN_EXPIRES_IN" envDefault:"168h"`
}

// OAuthConfig holds settings shared by every OAuth provider.
type OAuthConfig struct {
	DefaultProvider string        `env:"PROVIDER"     envDefault:"auth0"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
	JWKSMaxAge      time.Duration `env:"JWKS_MAX_AGE" envDefault:"1h"`
}

type Auth0Config struct {
	Domain   string `env:"DOMAIN"`
	Audience string `env:"AUDIENCE"`
}

type CognitoConfig struct {
	Region     string `env:"REGION"`
	UserPoolID string `env:"USER_POOL_ID"`
	ClientID   string `env:"CLIENT_ID"`
}

type GoogleConfig struct {
	ClientID string `env:"CLIENT_ID"`
}

// Enabled reports whether enough settings are present to build the provider.
func (c Auth0Config) Enabled() bool { return c.Domain != "" && c.Audience != "" }

func (c CognitoConfig) Enabled() bool {
	return c.Region != "" && c.UserPoolID != "" && c.ClientID != ""
}

func (c GoogleConfig) Enabled() bool { return c.ClientID != "" }

// NewAuthServiceConfig parses and validates the configuration from the environment.
func NewAuthServiceConfig() (*AuthServiceConfig, error) {
	cfg, err := env.ParseAs[AuthServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks if the configuration is usable.
func (c *AuthServiceConfig) Validate() error {
	if c.Token.SecretKey == "" {
		return fmt.Errorf("missing JWT_SECRET_KEY environment variable")
	}
	if len(c.Token.SecretKey) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 bytes")
	}
	if c.Token.AccessTokenExpiresIn <= 0 || c.Token.RefreshTokenExpiresIn <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.Token.AccessTokenExpiresIn >= c.Token.RefreshTokenExpiresIn {
		return fmt.Errorf("JWT_ACCESS_TOKEN_EXPIRES_IN must be shorter than JWT_REFRESH_TOKEN_EXPIRES_IN")
	}

	switch c.StoreDriver {
	case StoreDriverMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("missing MONGO_URI environment variable")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	return nil
}
