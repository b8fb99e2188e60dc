package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOperatorTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := CreateOperatorToken(secret, "ops@example.com", "admin", time.Minute)
	require.NoError(t, err)

	claims, err := ValidateOperatorToken(secret, token)
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, "ops@example.com", claims.Subject)
}

func TestOperatorTokenRejectsWrongSecret(t *testing.T) {
	token, err := CreateOperatorToken([]byte("one"), "ops", "admin", time.Minute)
	require.NoError(t, err)

	_, err = ValidateOperatorToken([]byte("two"), token)
	require.Error(t, err)
}

func TestOperatorTokenRejectsExpired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := CreateOperatorToken(secret, "ops", "admin", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateOperatorToken(secret, token)
	require.Error(t, err)
}

func TestCreateOperatorTokenRequiresSecret(t *testing.T) {
	_, err := CreateOperatorToken(nil, "ops", "admin", time.Minute)
	require.Error(t, err)
}
