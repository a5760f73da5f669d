package security

import (
	"context"
	"testing"
	"time"

	"geodir/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initJWTForTest(exp time.Duration) {
	config.AppConfig = &config.Config{JWTKey: []byte("test-secret"), JWTExp: exp}
	InitJWT()
}

func TestTokenRoundTrip(t *testing.T) {
	initJWTForTest(time.Hour)

	token, err := GenerateToken("user-42")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwtauth.VerifyToken(TokenAuth, token)
	require.NoError(t, err)
	claims, err := parsed.AsMap(context.Background())
	require.NoError(t, err)

	userID, err := GetUserIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	initJWTForTest(-1 * time.Minute)

	token, err := GenerateToken("user-42")
	require.NoError(t, err)

	_, err = jwtauth.VerifyToken(TokenAuth, token)
	assert.Error(t, err)
}

func TestTamperedTokenIsRejected(t *testing.T) {
	initJWTForTest(time.Hour)
	token, err := GenerateToken("user-42")
	require.NoError(t, err)

	// Re-key the verifier: the old signature must no longer verify.
	config.AppConfig.JWTKey = []byte("a-different-secret")
	InitJWT()

	_, err = jwtauth.VerifyToken(TokenAuth, token)
	assert.Error(t, err)
}

func TestMissingSubjectClaim(t *testing.T) {
	_, err := GetUserIDFromClaims(map[string]interface{}{"exp": 123})
	assert.Error(t, err)
}
