package oidc

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"sync"
	"time"
)

const (
	defaultKeySetTTL          = 15 * time.Minute
	defaultKeySetFetchTimeout = 5 * time.Second
)

// KeySet caches the identity provider's JWKS, keyed by kid. Keys are served
// from the cache until the TTL passes; an unknown kid forces a re-fetch so
// provider key rotation is picked up on the first verification failure.
type KeySet struct {
	url          string
	httpClient   *http.Client
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time

	refreshMu sync.Mutex
}

type jwksResponse struct {
	Keys []jwkKey `json:"keys"`
}

type jwkKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// NewKeySet creates a key set cache for the given JWKS endpoint.
func NewKeySet(url string, httpClient *http.Client) *KeySet {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &KeySet{
		url:          url,
		httpClient:   httpClient,
		ttl:          defaultKeySetTTL,
		fetchTimeout: defaultKeySetFetchTimeout,
		now:          time.Now,
		keys:         map[string]*rsa.PublicKey{},
	}
}

// Get returns the public key for the given kid. A kid missing from the
// cached set forces a re-fetch even inside the TTL, so provider key rotation
// is picked up on the first verification failure.
func (s *KeySet) Get(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if kid == "" {
		return nil, errors.New("kid is required")
	}

	if key := s.lookup(kid); key != nil {
		return key, nil
	}

	return s.refreshAndGet(ctx, kid)
}

func (s *KeySet) lookup(kid string) *rsa.PublicKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now().After(s.expiresAt) {
		return nil
	}
	return s.keys[kid]
}

func (s *KeySet) refreshAndGet(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	// One refresh at a time; latecomers re-check the cache filled by the leader.
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if key := s.lookup(kid); key != nil {
		return key, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	keys, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.keys = keys
	s.expiresAt = s.now().Add(s.ttl)
	s.mu.Unlock()

	if key := keys[kid]; key != nil {
		return key, nil
	}
	return nil, errors.New("jwks key not found")
}

func (s *KeySet) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("jwks fetch failed")
	}

	var payload jwksResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	keys := make(map[string]*rsa.PublicKey, len(payload.Keys))
	for _, key := range payload.Keys {
		if key.Kty != "RSA" || key.Kid == "" {
			continue
		}
		pub, err := jwkToRSAPublicKey(key)
		if err != nil {
			continue
		}
		keys[key.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, errors.New("jwks contains no usable keys")
	}
	return keys, nil
}

func jwkToRSAPublicKey(key jwkKey) (*rsa.PublicKey, error) {
	if key.N == "" || key.E == "" {
		return nil, errors.New("missing rsa params")
	}
	nBytes, err := base64.RawURLEncoding.DecodeString(key.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(key.E)
	if err != nil {
		return nil, err
	}
	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes).Int64()
	if e <= 0 || e > int64(^uint32(0)) {
		return nil, errors.New("invalid rsa exponent")
	}
	return &rsa.PublicKey{
		N: n,
		E: int(e),
	}, nil
}
