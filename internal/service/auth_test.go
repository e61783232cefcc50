package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func validClaims() *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID:    "user-1",
		TokenID:   "tok-1",
		TokenType: TokenTypeAccess,
	}
}

func TestValidateToken(t *testing.T) {
	svc := NewAuthService(testSecret)

	claims, err := svc.ValidateToken(signToken(t, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestValidateTokenRejectsWrongType(t *testing.T) {
	svc := NewAuthService(testSecret)

	claims := validClaims()
	claims.TokenType = "refresh"
	_, err := svc.ValidateToken(signToken(t, claims))
	assert.Error(t, err)
}

func TestValidateTokenRejectsMissingUserID(t *testing.T) {
	svc := NewAuthService(testSecret)

	claims := validClaims()
	claims.UserID = ""
	_, err := svc.ValidateToken(signToken(t, claims))
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewAuthService(testSecret)

	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	_, err := svc.ValidateToken(signToken(t, claims))
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := NewAuthService("other-secret")

	_, err := svc.ValidateToken(signToken(t, validClaims()))
	assert.Error(t, err)
}
