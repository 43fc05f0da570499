// Package auth checks the credentials scanner handsets present: the shared
// site secret, or a device token issued in exchange for it.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// SharedSecret is the site-wide secret every handset is configured with. The
// secret file holds either the secret itself or a bcrypt hash of it.
type SharedSecret struct {
	value  []byte
	hashed bool
}

// NewSharedSecret wraps a secret or bcrypt hash.
func NewSharedSecret(s string) (*SharedSecret, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("shared secret is empty")
	}
	_, err := bcrypt.Cost([]byte(s))
	return &SharedSecret{value: []byte(s), hashed: err == nil}, nil
}

// LoadSharedSecret reads the secret file.
func LoadSharedSecret(path string) (*SharedSecret, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading secret file: %w", err)
	}
	return NewSharedSecret(string(data))
}

// Matches reports whether candidate is the shared secret.
func (s *SharedSecret) Matches(candidate string) bool {
	if candidate == "" {
		return false
	}
	if s.hashed {
		return bcrypt.CompareHashAndPassword(s.value, []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare(s.value, []byte(candidate)) == 1
}

// HashSecret returns a bcrypt hash suitable for the secret file.
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing secret: %w", err)
	}
	return string(hash), nil
}
