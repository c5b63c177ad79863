package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestVerifyRoundTrip(t *testing.T) {
	token, err := IssueToken(testSecret, 42, "instructor", time.Hour)
	require.NoError(t, err)

	v := NewJWTVerifier(testSecret)
	identity, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, 42, identity.UserID)
	assert.Equal(t, "instructor", identity.Role)
}

func TestVerifyNoToken(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	_, err := v.Verify("")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestVerifyMissingSecret(t *testing.T) {
	v := NewJWTVerifier("")
	_, err := v.Verify("anything")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := IssueToken("other-secret", 7, "student", time.Hour)
	require.NoError(t, err)

	v := NewJWTVerifier(testSecret)
	_, err = v.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
	assert.Contains(t, err.Error(), "signature")
}

func TestVerifyExpiredToken(t *testing.T) {
	token, err := IssueToken(testSecret, 7, "student", -time.Minute)
	require.NoError(t, err)

	v := NewJWTVerifier(testSecret)
	_, err = v.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
	assert.Contains(t, err.Error(), "expired")
}

func TestVerifyGarbageToken(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	_, err := v.Verify("not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
	assert.Contains(t, err.Error(), "malformed")
}

func TestTokenFromRequestPriority(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=from-query", nil)
	r.Header.Set("Authorization", "Bearer from-header")
	r.Header.Set("Cookie", CookieName+"=from-cookie")
	assert.Equal(t, "from-cookie", TokenFromRequest(r))

	r = httptest.NewRequest("GET", "/ws?token=from-query", nil)
	r.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", TokenFromRequest(r))

	r = httptest.NewRequest("GET", "/ws?token=from-query", nil)
	assert.Equal(t, "from-query", TokenFromRequest(r))

	r = httptest.NewRequest("GET", "/ws", nil)
	assert.Equal(t, "", TokenFromRequest(r))
}

func TestTokenFromRequestIgnoresNonBearerHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Basic abc123")
	assert.Equal(t, "", TokenFromRequest(r))
}
