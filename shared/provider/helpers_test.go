package provider

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return key
}

// jwksServer publishes a mutable set of RSA public keys and counts fetches.
type jwksServer struct {
	*httptest.Server

	mu      sync.Mutex
	keys    map[string]*rsa.PublicKey
	status  int
	fetches atomic.Int32
}

func newJWKSServer(t *testing.T, keys map[string]*rsa.PrivateKey) *jwksServer {
	t.Helper()

	s := &jwksServer{keys: make(map[string]*rsa.PublicKey), status: http.StatusOK}
	for kid, key := range keys {
		s.keys[kid] = &key.PublicKey
	}

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.fetches.Add(1)

		s.mu.Lock()
		defer s.mu.Unlock()

		if s.status != http.StatusOK {
			w.WriteHeader(s.status)
			return
		}

		set := jsonWebKeySet{}
		for kid, pub := range s.keys {
			set.Keys = append(set.Keys, jsonWebKey{
				Kty: "RSA",
				Kid: kid,
				Use: "sig",
				Alg: "RS256",
				N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(s.Close)

	return s
}

func (s *jwksServer) setKey(kid string, key *rsa.PrivateKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key == nil {
		delete(s.keys, kid)
		return
	}
	s.keys[kid] = &key.PublicKey
}

func (s *jwksServer) setStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
}

func signRS256(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}

	signed, err := token.SignedString(key)
	require.NoError(t, err)

	return signed
}

func baseClaims(issuer, audience string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":   issuer,
		"aud":   audience,
		"sub":   "oauth|12345",
		"email": "oauth.user@x.com",
		"name":  "OAuth User",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}
