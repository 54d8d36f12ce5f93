package oidc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://tenant.logto.app/oidc"

type fakeProvider struct {
	server  *httptest.Server
	keys    map[string]*rsa.PrivateKey
	fetches atomic.Int32
}

func newFakeProvider(t *testing.T, kids ...string) *fakeProvider {
	t.Helper()

	p := &fakeProvider{keys: map[string]*rsa.PrivateKey{}}
	for _, kid := range kids {
		p.addKey(t, kid)
	}

	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.fetches.Add(1)
		var keys []map[string]string
		for kid, priv := range p.keys {
			keys = append(keys, map[string]string{
				"kty": "RSA",
				"kid": kid,
				"alg": "RS256",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(priv.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(priv.E)).Bytes()),
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"keys": keys})
	}))
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) addKey(t *testing.T, kid string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	p.keys[kid] = priv
}

func (p *fakeProvider) sign(t *testing.T, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(p.keys[kid])
	require.NoError(t, err)
	return signed
}

func (p *fakeProvider) verifier() *Verifier {
	return NewVerifier(testIssuer, NewKeySet(p.server.URL, p.server.Client()))
}

func accessTokenClaims(audience string) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":   testIssuer,
		"aud":   audience,
		"sub":   "user-42",
		"scope": "read:documents create:documents",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
}

func TestVerifyAccessToken(t *testing.T) {
	provider := newFakeProvider(t, "key-1")
	v := provider.verifier()

	raw := provider.sign(t, "key-1", accessTokenClaims("https://api.example.com"))

	claims, err := v.VerifyAccessToken(context.Background(), raw, "https://api.example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, []string{"read:documents", "create:documents"}, claims.Scopes)
}

func TestVerifyAccessTokenRejections(t *testing.T) {
	provider := newFakeProvider(t, "key-1")
	v := provider.verifier()

	t.Run("wrong audience", func(t *testing.T) {
		raw := provider.sign(t, "key-1", accessTokenClaims("https://other.example.com"))
		_, err := v.VerifyAccessToken(context.Background(), raw, "https://api.example.com")
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := accessTokenClaims("https://api.example.com")
		claims["iss"] = "https://evil.example.com/oidc"
		raw := provider.sign(t, "key-1", claims)
		_, err := v.VerifyAccessToken(context.Background(), raw, "https://api.example.com")
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		claims := accessTokenClaims("https://api.example.com")
		claims["exp"] = time.Now().Add(-time.Minute).Unix()
		raw := provider.sign(t, "key-1", claims)
		_, err := v.VerifyAccessToken(context.Background(), raw, "https://api.example.com")
		assert.Error(t, err)
	})

	t.Run("hmac signed", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessTokenClaims("https://api.example.com"))
		token.Header["kid"] = "key-1"
		raw, err := token.SignedString([]byte("shared-secret"))
		require.NoError(t, err)
		_, err = v.VerifyAccessToken(context.Background(), raw, "https://api.example.com")
		assert.Error(t, err)
	})

	t.Run("signed by unknown key", func(t *testing.T) {
		stranger, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		token := jwt.NewWithClaims(jwt.SigningMethodRS256, accessTokenClaims("https://api.example.com"))
		token.Header["kid"] = "key-1"
		raw, err := token.SignedString(stranger)
		require.NoError(t, err)
		_, err = v.VerifyAccessToken(context.Background(), raw, "https://api.example.com")
		assert.Error(t, err)
	})
}

func TestVerifyOrganizationToken(t *testing.T) {
	provider := newFakeProvider(t, "key-1")
	v := provider.verifier()

	raw := provider.sign(t, "key-1", accessTokenClaims("urn:logto:organization:org-7"))

	claims, err := v.VerifyOrganizationToken(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, "org-7", claims.OrganizationID)
	assert.Equal(t, []string{"read:documents", "create:documents"}, claims.Scopes)
}

func TestVerifyOrganizationTokenRejectsResourceAudience(t *testing.T) {
	provider := newFakeProvider(t, "key-1")
	v := provider.verifier()

	raw := provider.sign(t, "key-1", accessTokenClaims("https://api.example.com"))

	_, err := v.VerifyOrganizationToken(context.Background(), raw)
	assert.ErrorContains(t, err, "not an organization")
}

func TestKeySetCachesWithinTTL(t *testing.T) {
	provider := newFakeProvider(t, "key-1")
	v := provider.verifier()

	raw := provider.sign(t, "key-1", accessTokenClaims("https://api.example.com"))
	for i := 0; i < 3; i++ {
		_, err := v.VerifyAccessToken(context.Background(), raw, "https://api.example.com")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), provider.fetches.Load())
}

func TestKeySetRefetchesOnUnknownKid(t *testing.T) {
	provider := newFakeProvider(t, "key-1")
	v := provider.verifier()

	raw := provider.sign(t, "key-1", accessTokenClaims("https://api.example.com"))
	_, err := v.VerifyAccessToken(context.Background(), raw, "https://api.example.com")
	require.NoError(t, err)

	// Rotate: provider starts signing with a new key the cache has not seen.
	provider.addKey(t, "key-2")
	rotated := provider.sign(t, "key-2", accessTokenClaims("https://api.example.com"))

	_, err = v.VerifyAccessToken(context.Background(), rotated, "https://api.example.com")
	require.NoError(t, err)
	assert.Equal(t, int32(2), provider.fetches.Load())
}

func TestKeySetUnknownKidStaysAnError(t *testing.T) {
	provider := newFakeProvider(t, "key-1")
	keys := NewKeySet(provider.server.URL, provider.server.Client())

	_, err := keys.Get(context.Background(), "ghost-kid")
	assert.Error(t, err)

	_, err = keys.Get(context.Background(), "")
	assert.Error(t, err)
}
