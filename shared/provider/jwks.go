package provider

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultKeySetMaxAge bounds how long a fetched key set is trusted.
const DefaultKeySetMaxAge = time.Hour

// jsonWebKey is the subset of RFC 7517 fields needed for RSA signature keys.
type jsonWebKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jsonWebKeySet struct {
	Keys []jsonWebKey `json:"keys"`
}

// KeySet caches a provider's published signing keys. It is safe for
// concurrent use; readers share the cached keys and a miss on a key id
// triggers one coalesced refetch.
type KeySet struct {
	url     string
	client  *http.Client
	maxAge  time.Duration
	logger  *zerolog.Logger
	onFetch func(err error)
	now     func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time

	group singleflight.Group
}

// KeySetOption configures a KeySet.
type KeySetOption func(*KeySet)

// WithMaxAge sets how long fetched keys are used before a forced refetch.
func WithMaxAge(d time.Duration) KeySetOption {
	return func(k *KeySet) {
		if d > 0 {
			k.maxAge = d
		}
	}
}

// WithFetchObserver registers a callback invoked after every fetch attempt.
func WithFetchObserver(fn func(err error)) KeySetOption {
	return func(k *KeySet) { k.onFetch = fn }
}

// NewKeySet creates a lazily populated key set for the JWKS document at url.
func NewKeySet(url string, client *http.Client, logger *zerolog.Logger, opts ...KeySetOption) *KeySet {
	if client == nil {
		client = http.DefaultClient
	}

	k := &KeySet{
		url:    url,
		client: client,
		maxAge: DefaultKeySetMaxAge,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(k)
	}

	return k
}

// Key returns the public key for kid. A cached key older than the max age
// is never returned without a refetch, and an unknown kid causes exactly one
// refetch before ErrUnknownSigningKey is reported.
func (k *KeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, fresh := k.lookup(kid); key != nil && fresh {
		return key, nil
	}

	if err := k.refresh(ctx); err != nil {
		return nil, err
	}

	if key, _ := k.lookup(kid); key != nil {
		return key, nil
	}

	return nil, fmt.Errorf("%w: kid %q", ErrUnknownSigningKey, kid)
}

func (k *KeySet) lookup(kid string) (*rsa.PublicKey, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	fresh := !k.fetchedAt.IsZero() && k.now().Sub(k.fetchedAt) < k.maxAge
	return k.keys[kid], fresh
}

func (k *KeySet) refresh(ctx context.Context) error {
	_, err, _ := k.group.Do(k.url, func() (any, error) {
		keys, err := k.fetch(ctx)
		if k.onFetch != nil {
			k.onFetch(err)
		}
		if err != nil {
			return nil, err
		}

		k.mu.Lock()
		k.keys = keys
		k.fetchedAt = k.now()
		k.mu.Unlock()

		k.logger.Debug().Str("url", k.url).Int("keys", len(keys)).Msg("signing key set refreshed")
		return nil, nil
	})

	return err
}

func (k *KeySet) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch jwks: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch jwks: status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var set jsonWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("%w: decode jwks: %v", ErrProviderUnavailable, err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, jwk := range set.Keys {
		if jwk.Kty != "RSA" || jwk.Kid == "" || (jwk.Use != "" && jwk.Use != "sig") {
			continue
		}

		pub, err := jwk.rsaPublicKey()
		if err != nil {
			k.logger.Warn().Err(err).Str("kid", jwk.Kid).Msg("skipping unparsable signing key")
			continue
		}
		keys[jwk.Kid] = pub
	}

	return keys, nil
}

func (j jsonWebKey) rsaPublicKey() (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	if len(n) == 0 || len(e) == 0 || len(e) > 4 {
		return nil, fmt.Errorf("invalid rsa key parameters")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}
