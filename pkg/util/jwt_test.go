package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing"

func TestGenerateAdminToken(t *testing.T) {
	token, err := GenerateAdminToken("ops", testSecret, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "ops", claims.Subject)
}

func TestGenerateToken_EmptySecret(t *testing.T) {
	_, err := GenerateToken("ops", RoleAdmin, "", time.Hour)
	assert.Error(t, err)
}

func TestValidateToken(t *testing.T) {
	valid, err := GenerateToken("ops", "viewer", testSecret, time.Hour)
	require.NoError(t, err)

	noneSigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, JWTClaims{Role: RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{
			name:   "Valid token",
			token:  valid,
			secret: testSecret,
		},
		{
			name:    "Wrong secret",
			token:   valid,
			secret:  "another-secret",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "Malformed token",
			token:   "not.a.token",
			secret:  testSecret,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "Unsigned token",
			token:   noneSigned,
			secret:  testSecret,
			wantErr: ErrInvalidToken,
		},
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
			assert.Equal(t, "viewer", claims.Role)
		})
	}
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateAdminToken("ops", testSecret, -time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
