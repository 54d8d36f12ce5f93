package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/model"
)

var (
	testUser = &model.User{
		ID:       "user-1",
		Email:    "user@acme.test",
		Role:     model.RoleMember,
		TenantID: "tenant-1",
	}
	testTenant = &model.Tenant{
		ID:   "tenant-1",
		Slug: "acme",
		Name: "Acme Corp",
		Plan: model.PlanFree,
	}
)

func TestGenerateAndValidateToken(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "secret", ExpirationHours: 1})

	token, err := j.GenerateToken(testUser, testTenant)
	require.NoError(t, err)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user@acme.test", claims.Email)
	assert.Equal(t, "member", claims.Role)
	assert.Equal(t, "tenant-1", claims.TenantID)
	assert.Equal(t, "acme", claims.TenantSlug)
	assert.Equal(t, "Acme Corp", claims.TenantName)
	assert.Equal(t, "free", claims.TenantPlan)
	assert.Equal(t, "user-1", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestExpirationDefaultsTo24Hours(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "secret"})

	token, err := j.GenerateToken(testUser, testTenant)
	require.NoError(t, err)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateTokenRejections(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "secret", ExpirationHours: 1})

	t.Run("wrong key", func(t *testing.T) {
		other := NewJWTUtil(&JWTConfig{SigningKey: "different", ExpirationHours: 1})
		token, err := other.GenerateToken(testUser, testTenant)
		require.NoError(t, err)
		_, err = j.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		claims := UserClaims{
			UserID: "user-1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = j.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("alg none", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, UserClaims{UserID: "user-1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = j.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := j.ValidateToken("not-a-jwt")
		assert.Error(t, err)
	})
}

func TestNilConfig(t *testing.T) {
	j := NewJWTUtil(nil)

	_, err := j.GenerateToken(testUser, testTenant)
	assert.Error(t, err)

	_, err = j.ValidateToken("anything")
	assert.Error(t, err)
}
