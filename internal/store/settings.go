package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const tokenSecretKey = "token_secret"

// GetTokenSecret returns the key device tokens are signed with, creating a
// random one on first use.
func GetTokenSecret(ctx context.Context, db *sqlx.DB) (string, error) {
	return settingOrCreate(ctx, db, tokenSecretKey, func() (string, error) {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		return hex.EncodeToString(buf), nil
	})
}

// settingOrCreate reads a setting, storing the generated value if none is
// set. Concurrent callers all see whichever value was inserted first.
func settingOrCreate(ctx context.Context, q sqlx.ExtContext, key string, generate func() (string, error)) (string, error) {
	candidate, err := generate()
	if err != nil {
		return "", fmt.Errorf("generating %s: %w", key, err)
	}

	if _, err := q.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`,
		key, candidate,
	); err != nil {
		return "", fmt.Errorf("storing %s: %w", key, err)
	}

	var value string
	if err := sqlx.GetContext(ctx, q, &value, `SELECT value FROM settings WHERE key = ?`, key); err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}
	return value, nil
}

// RevokeToken records a device token id as logged out until expiresAt.
// Revocations that have already expired are pruned in the same transaction.
func RevokeToken(ctx context.Context, db *sqlx.DB, jti string, expiresAt time.Time) error {
	return WithTx(ctx, db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM revoked_tokens WHERE expires_at_unix < ?`, time.Now().Unix(),
		); err != nil {
			return fmt.Errorf("pruning revoked tokens: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO revoked_tokens (jti, expires_at_unix) VALUES (?, ?)
			 ON CONFLICT(jti) DO UPDATE SET expires_at_unix = max(expires_at_unix, excluded.expires_at_unix)`,
			jti, expiresAt.Unix(),
		); err != nil {
			return fmt.Errorf("revoking token: %w", err)
		}
		return nil
	})
}

// IsTokenRevoked reports whether a device token id has been logged out.
func IsTokenRevoked(ctx context.Context, q sqlx.QueryerContext, jti string) (bool, error) {
	var revoked bool
	if err := sqlx.GetContext(ctx, q, &revoked,
		`SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti,
	); err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return revoked, nil
}
