package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	Init("unit-test-secret-0123456789abcdef", 5)

	token, err := GenerateAccessToken("U1001", "model")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "U1001", claims.UserID)
	assert.Equal(t, "model", claims.Role)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	Init("secret-a-0123456789abcdef0123456", 5)
	token, err := GenerateAccessToken("U1001", "client")
	require.NoError(t, err)

	Init("secret-b-0123456789abcdef0123456", 5)
	_, err = ParseToken(token)
	assert.Error(t, err)
}
