package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizplanner/internal/config"
	"bizplanner/internal/model"
)

func newAuth(ttl time.Duration) *AuthService {
	return NewAuthService(config.AuthConfig{
		Username:  "admin",
		Password:  "password123",
		JWTSecret: "test-secret",
		TokenTTL:  ttl,
	})
}

func TestLoginAndValidate(t *testing.T) {
	auth := newAuth(time.Hour)

	resp, err := auth.Login("admin", "password123")
	require.NoError(t, err)
	assert.Regexp(t, `^user_[0-9a-f]{8}$`, resp.UserID)

	claims, err := auth.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, claims.UserID)
	assert.Equal(t, "admin", claims.Username)
	require.NotNil(t, claims.ExpiresAt)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	_, err := newAuth(time.Hour).Login("admin", "nope")
	assert.Equal(t, ErrInvalidCredentials, err)
}

func TestValidateRejectsForeignAndExpiredTokens(t *testing.T) {
	auth := newAuth(time.Hour)

	other := newAuth(time.Hour)
	other.jwtSecret = []byte("another-secret")
	resp, err := other.Login("admin", "password123")
	require.NoError(t, err)
	_, err = auth.ValidateToken(resp.Token)
	assert.Equal(t, ErrInvalidToken, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &model.UserClaims{
		UserID: "user_1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = auth.ValidateToken(signed)
	assert.Equal(t, ErrInvalidToken, err)

	_, err = auth.ValidateToken("garbage")
	assert.Equal(t, ErrInvalidToken, err)
}
