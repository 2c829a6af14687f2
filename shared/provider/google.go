package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const googleProviderName = "google"

var ErrInvalidGoogleAudience = errors.New("invalid google audience")

// GoogleProvider validates Google ID tokens through the tokeninfo API.
type GoogleProvider struct {
	clientID string
	options  []option.ClientOption
	logger   *zerolog.Logger
}

// NewGoogleProvider creates a Google provider accepting ID tokens issued to clientID.
func NewGoogleProvider(clientID string, client *http.Client, logger *zerolog.Logger, opts ...option.ClientOption) (*GoogleProvider, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: google config missing client id", ErrUnsupportedProvider)
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &GoogleProvider{
		clientID: clientID,
		options:  append([]option.ClientOption{option.WithHTTPClient(client)}, opts...),
		logger:   logger,
	}, nil
}

func (p *GoogleProvider) Name() string {
	return googleProviderName
}

func (p *GoogleProvider) VerifyToken(ctx context.Context, token string) (Claims, error) {
	oauth2Service, err := oauth2api.NewService(ctx, p.options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	tokenInfo, err := oauth2Service.Tokeninfo().IdToken(token).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		return nil, fmt.Errorf("%w: tokeninfo: %v", ErrProviderUnavailable, err)
	}

	if tokenInfo.Audience != p.clientID {
		p.logger.Warn().Str("provider", googleProviderName).Str("audience", tokenInfo.Audience).Msg("token audience mismatch")
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrInvalidGoogleAudience)
	}

	if tokenInfo.ExpiresIn <= 0 {
		return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
	}

	return Claims{
		"sub":            tokenInfo.UserId,
		"email":          tokenInfo.Email,
		"email_verified": tokenInfo.VerifiedEmail,
		"aud":            tokenInfo.Audience,
	}, nil
}

// GetUserInfo reuses the tokeninfo response. Google does not return a display
// name there, so the caller falls back to the email local part.
func (p *GoogleProvider) GetUserInfo(_ context.Context, _ string, claims Claims) (*UserInfo, error) {
	return userInfoFromClaims(claims), nil
}
