package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseDeviceToken(t *testing.T) {
	key := "test-secret-key"

	token, err := IssueDeviceToken(key, "android-1", "U1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseDeviceToken(key, token)
	require.NoError(t, err)
	assert.Equal(t, "android-1", claims.AndroidID)
	assert.Equal(t, "U1", claims.UserBarcode)
	assert.NotEmpty(t, claims.ID)

	// Should be within a few seconds.
	assert.WithinDuration(t, time.Now().Add(TokenExpiry), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenIDsAreUnique(t *testing.T) {
	a, _ := IssueDeviceToken("k", "android-1", "U1")
	b, _ := IssueDeviceToken("k", "android-1", "U1")

	ca, err := ParseDeviceToken("k", a)
	require.NoError(t, err)
	cb, err := ParseDeviceToken("k", b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestParseDeviceTokenRejects(t *testing.T) {
	good, _ := IssueDeviceToken("secret1", "android-1", "U1")

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, DeviceClaims{
		AndroidID: "android-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("secret1"))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, DeviceClaims{
		AndroidID: "android-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]struct{ key, token string }{
		"wrong key": {"secret2", good},
		"garbage":   {"secret1", "not-a-token"},
		"expired":   {"secret1", expired},
		"alg none":  {"secret1", none},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDeviceToken(tt.key, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
