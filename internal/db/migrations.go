package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: ledger lookups scan checkouts per item and per user, newest first.
	`CREATE INDEX IF NOT EXISTS idx_toolshed_checkouts_item
	     ON toolshed_checkouts(item_id, unix_time DESC, checkout_id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_toolshed_checkouts_user
	     ON toolshed_checkouts(user_id)`,

	// Migration 2: presence reduction partitions by user.
	`CREATE INDEX IF NOT EXISTS idx_user_presence_events_user
	     ON user_presence_events(user_id, unix_time DESC, seq DESC)`,
}

// Migrate ensures the schema and runs the migrations.
func Migrate(db *sqlx.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
