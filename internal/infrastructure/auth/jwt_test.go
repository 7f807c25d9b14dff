package auth

import (
	"context"
	"testing"
	"time"

	"github.com/astralisone/platform/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars-long",
		RefreshSecret:          "test-refresh-secret-also-32-chars-long",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "astralis-test",
	})
}

func testInput() GenerateTokenInput {
	return GenerateTokenInput{
		OrgID:  uuid.New(),
		UserID: uuid.New(),
		Email:  "dana@acme.dev",
		Role:   "admin",
	}
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := testJWTService()
	input := testInput()

	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, input.OrgID.String(), claims.OrgID)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, "dana@acme.dev", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_TokenTypeMismatch(t *testing.T) {
	svc := testJWTService()
	pair, err := svc.GenerateTokenPair(testInput())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.Error(t, err)

	_, err = svc.ValidateRefreshToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestJWTService_RejectsTamperedToken(t *testing.T) {
	svc := testJWTService()
	pair, err := svc.GenerateTokenPair(testInput())
	require.NoError(t, err)

	tampered := pair.AccessToken[:len(pair.AccessToken)-4] + "xxxx"
	_, err = svc.ValidateAccessToken(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars-long",
		AccessTokenExpiration:  -time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "astralis-test",
	})
	pair, err := svc.GenerateTokenPair(testInput())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_RefreshSecretFallsBackToSecret(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{
		Secret:                 "only-one-secret-configured-32-chars!",
		AccessTokenExpiration:  time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "astralis-test",
	})
	pair, err := svc.GenerateTokenPair(testInput())
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(pair.RefreshToken)
	assert.NoError(t, err)
}

func TestJWTService_RefreshTokenPair(t *testing.T) {
	svc := testJWTService()
	input := testInput()
	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)

	newPair, err := svc.RefreshTokenPair(pair.RefreshToken, input.Email, "member")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(newPair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, input.OrgID.String(), claims.OrgID)
	assert.Equal(t, "member", claims.Role)
}

func TestJWTService_RefreshWithAccessTokenFails(t *testing.T) {
	svc := testJWTService()
	pair, err := svc.GenerateTokenPair(testInput())
	require.NoError(t, err)

	_, err = svc.RefreshTokenPair(pair.AccessToken, "x@y.dev", "member")
	assert.Error(t, err)
}

func TestClaims_GetRemainingTTL(t *testing.T) {
	svc := testJWTService()
	pair, err := svc.GenerateTokenPair(testInput())
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	ttl := claims.GetRemainingTTL()
	assert.Greater(t, ttl, 14*time.Minute)
	assert.LessOrEqual(t, ttl, 15*time.Minute)
}

func TestInMemoryTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	bl := NewInMemoryTokenBlacklist()

	blacklisted, err := bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, blacklisted)

	require.NoError(t, bl.AddToBlacklist(ctx, "jti-1", time.Minute))
	blacklisted, err = bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, blacklisted)

	// zero TTL is a no-op
	require.NoError(t, bl.AddToBlacklist(ctx, "jti-2", 0))
	blacklisted, err = bl.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, blacklisted)
}

func TestInMemoryTokenBlacklist_UserInvalidation(t *testing.T) {
	ctx := context.Background()
	bl := NewInMemoryTokenBlacklist()
	userID := uuid.New().String()

	issuedBefore := time.Now().Add(-time.Minute)
	require.NoError(t, bl.InvalidateUserTokens(ctx, userID, time.Hour))

	invalidated, err := bl.IsUserTokenInvalidated(ctx, userID, issuedBefore)
	require.NoError(t, err)
	assert.True(t, invalidated)

	issuedAfter := time.Now().Add(time.Minute)
	invalidated, err = bl.IsUserTokenInvalidated(ctx, userID, issuedAfter)
	require.NoError(t, err)
	assert.False(t, invalidated)

	// other users unaffected
	invalidated, err = bl.IsUserTokenInvalidated(ctx, uuid.New().String(), issuedBefore)
	require.NoError(t, err)
	assert.False(t, invalidated)
}
