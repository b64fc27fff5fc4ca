package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing"

func TestGenerateTokenPair(t *testing.T) {
	tests := []struct {
		name   string
		userID uint
		email  string
		role   string
	}{
		{name: "regular user", userID: 1, email: "u1@example.com", role: "user"},
		{name: "staff user", userID: 2, email: "staff@example.com", role: "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := GenerateTokenPair(tt.userID, tt.email, tt.role, testSecret, 15*time.Minute, 7*24*time.Hour)
			require.NoError(t, err)
			require.NotNil(t, tokens)
			assert.NotEmpty(t, tokens.AccessToken)
			assert.NotEqual(t, tokens.AccessToken, tokens.RefreshToken)
			assert.Equal(t, int64(900), tokens.ExpiresIn)

			access, err := ValidateToken(tokens.AccessToken, testSecret)
			require.NoError(t, err)
			assert.Equal(t, TokenTypeAccess, access.TokenType)

			refresh, err := ValidateToken(tokens.RefreshToken, testSecret)
			require.NoError(t, err)
			assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
		})
	}
}

func TestValidateToken(t *testing.T) {
	tokens, err := GenerateTokenPair(123, "owner@example.com", "user", testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{name: "valid", token: tokens.AccessToken, secret: testSecret},
		{name: "wrong secret", token: tokens.AccessToken, secret: "wrong-secret", wantErr: ErrInvalidToken},
		{name: "garbage", token: "invalid.token.format", secret: testSecret, wantErr: ErrInvalidToken},
		{name: "empty", token: "", secret: testSecret, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint(123), claims.UserID)
			assert.Equal(t, "owner@example.com", claims.Email)
			assert.Equal(t, "user", claims.Role)
			assert.NotEmpty(t, claims.ID)
		})
	}
}

func TestValidateToken_Expired(t *testing.T) {
	tokens, err := GenerateTokenPair(1, "u@example.com", "user", testSecret, time.Nanosecond, time.Nanosecond)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestClaims_RemainingLifetime(t *testing.T) {
	tokens, err := GenerateTokenPair(1, "u@example.com", "user", testSecret, time.Hour, time.Hour)
	require.NoError(t, err)
	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	require.NoError(t, err)

	remaining := claims.RemainingLifetime(time.Now())
	assert.True(t, remaining > 59*time.Minute && remaining <= time.Hour)
	assert.Zero(t, claims.RemainingLifetime(time.Now().Add(2*time.Hour)))
}
