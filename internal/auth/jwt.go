package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DeviceClaims identify a paired scanner handset and the user it belongs to.
type DeviceClaims struct {
	AndroidID   string `json:"android_id"`
	UserBarcode string `json:"user_barcode"`
	jwt.RegisteredClaims
}

// TokenExpiry is how long a device token stays valid.
const TokenExpiry = 30 * 24 * time.Hour

// ErrInvalidToken is returned for tokens that fail to parse or verify.
var ErrInvalidToken = errors.New("invalid device token")

// IssueDeviceToken signs a token for a registered device.
func IssueDeviceToken(key, androidID, userBarcode string) (string, error) {
	jti, err := newTokenID()
	if err != nil {
		return "", fmt.Errorf("generating token id: %w", err)
	}

	now := time.Now()
	claims := DeviceClaims{
		AndroidID:   androidID,
		UserBarcode: userBarcode,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   androidID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ParseDeviceToken verifies a device token and returns its claims.
func ParseDeviceToken(key, token string) (*DeviceClaims, error) {
	claims := &DeviceClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(key), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.AndroidID == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing device claims", ErrInvalidToken)
	}
	return claims, nil
}

func newTokenID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
