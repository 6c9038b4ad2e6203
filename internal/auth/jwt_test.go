package auth

import (
	"testing"
	"time"

	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-characters-long"

func testUser() *models.User {
	return &models.User{
		ID:    42,
		Phone: "+14155550123",
		Role:  models.RoleBuyer,
	}
}

func TestGeneratePair_ReturnsBothTokens(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, 24*time.Hour)

	pair, err := svc.GeneratePair(testUser())

	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, int64(3600), pair.ExpiresIn)
}

func TestValidateAccessToken_RoundTrip(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, 24*time.Hour)
	pair, err := svc.GeneratePair(testUser())
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)

	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "+14155550123", claims.Phone)
	assert.Equal(t, models.RoleBuyer, claims.Role)
}

func TestValidateAccessToken_RejectsRefreshToken(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, 24*time.Hour)
	pair, err := svc.GeneratePair(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRefreshToken_RejectsAccessToken(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, 24*time.Hour)
	pair, err := svc.GeneratePair(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(pair.AccessToken)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRefreshToken_RoundTrip(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, 24*time.Hour)
	pair, err := svc.GeneratePair(testUser())
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)

	refreshClaims, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, refreshClaims.UserID)
}

func TestValidateAccessToken_ExpiredToken(t *testing.T) {
	svc := NewTokenService(testSecret, -time.Minute, 24*time.Hour)
	pair, err := svc.GeneratePair(testUser())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)

	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, 24*time.Hour)
	pair, err := svc.GeneratePair(testUser())
	require.NoError(t, err)

	other := NewTokenService("a-completely-different-32-char-secret!!", time.Hour, 24*time.Hour)
	_, err = other.ValidateAccessToken(pair.AccessToken)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour, 24*time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"empty string", ""},
		{"not a jwt", "not-a-token"},
		{"truncated jwt", "eyJhbGciOiJIUzI1NiJ9.eyJz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
