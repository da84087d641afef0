package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahatati/mahatati/internal/auth"
)

const (
	testIssuer   = "https://mahatati.supabase.co/auth/v1"
	testAudience = "authenticated"
)

func newTestService(key string) *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: key,
		Issuer:     testIssuer,
		Audience:   testAudience,
	})
}

func TestJWTService_GenerateAndVerify(t *testing.T) {
	svc := newTestService("test-secret-key-for-testing-only")

	principal := auth.Principal{
		UserID: "8d6f0e2a-1c3b-4e55-9a77-2f1c0b1d9e10",
		Email:  "owner@example.com",
		Role:   auth.RoleAdmin,
	}

	token, expiresAt, err := svc.GenerateAccessToken(principal)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, principal.UserID, got.UserID)
	assert.Equal(t, principal.Email, got.Email)
	assert.True(t, got.IsAdmin())

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, principal.UserID, claims.Subject)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.Equal(t, "admin", claims.AppMetadata.Role)
}

func TestJWTService_MissingRoleDefaultsToOwner(t *testing.T) {
	svc := newTestService("test-key")

	token, _, err := svc.GenerateAccessToken(auth.Principal{UserID: "user-1"})
	require.NoError(t, err)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleOwner, got.Role)
	assert.False(t, got.IsAdmin())
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := newTestService("test-secret-key-for-testing-only")

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestJWTService_WrongSigningKey(t *testing.T) {
	token, _, err := newTestService("key-one").GenerateAccessToken(auth.Principal{UserID: "user-1"})
	require.NoError(t, err)

	_, err = newTestService("key-two").Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestJWTService_WrongIssuer(t *testing.T) {
	svc1 := auth.NewJWTService(auth.JWTConfig{SigningKey: "test-key", Issuer: "issuer-one", Audience: testAudience})
	token, _, err := svc1.GenerateAccessToken(auth.Principal{UserID: "user-1"})
	require.NoError(t, err)

	svc2 := auth.NewJWTService(auth.JWTConfig{SigningKey: "test-key", Issuer: "issuer-two", Audience: testAudience})
	_, err = svc2.Verify(token)
	assert.Error(t, err)
}

func TestJWTService_WrongAudience(t *testing.T) {
	svc1 := auth.NewJWTService(auth.JWTConfig{SigningKey: "test-key", Issuer: testIssuer, Audience: "audience-one"})
	token, _, err := svc1.GenerateAccessToken(auth.Principal{UserID: "user-1"})
	require.NoError(t, err)

	svc2 := auth.NewJWTService(auth.JWTConfig{SigningKey: "test-key", Issuer: testIssuer, Audience: "audience-two"})
	_, err = svc2.Verify(token)
	assert.Error(t, err)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	key := "test-key"
	now := time.Now()

	claims := auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{testAudience},
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-1 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)

	_, err = newTestService(key).Verify(token)
	assert.ErrorIs(t, err, auth.ErrAccessTokenExpired)
}

func TestJWTService_MissingExpiry(t *testing.T) {
	key := "test-key"

	claims := auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   testIssuer,
			Subject:  "user-1",
			Audience: jwt.ClaimStrings{testAudience},
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)

	_, err = newTestService(key).Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, auth.RoleAdmin, auth.ParseRole("admin"))
	assert.Equal(t, auth.RoleAdmin, auth.ParseRole(" ADMIN "))
	assert.Equal(t, auth.RoleOwner, auth.ParseRole("owner"))
	assert.Equal(t, auth.RoleOwner, auth.ParseRole(""))
	assert.Equal(t, auth.RoleOwner, auth.ParseRole("superuser"))
}

func TestPrincipal_IsAdminNil(t *testing.T) {
	var p *auth.Principal
	assert.False(t, p.IsAdmin())
}
