package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS items (
    barcode_id   TEXT PRIMARY KEY,
    short_id     TEXT NOT NULL DEFAULT '',
    name         TEXT NOT NULL DEFAULT '',
    picture_path TEXT NOT NULL DEFAULT '',
    description  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS users (
    barcode_id           TEXT PRIMARY KEY,
    name                 TEXT NOT NULL DEFAULT '',
    company              TEXT NOT NULL DEFAULT '',
    picture_path         TEXT NOT NULL DEFAULT '',
    user_type            TEXT NOT NULL DEFAULT '',
    description          TEXT NOT NULL DEFAULT '',
    initial_checkin_info TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS containment_edges (
    kind      TEXT NOT NULL CHECK (kind IN ('container', 'vehicle', 'location')),
    item_id   TEXT NOT NULL REFERENCES items(barcode_id),
    holder_id TEXT NOT NULL REFERENCES items(barcode_id),
    PRIMARY KEY (kind, item_id)
);

CREATE INDEX IF NOT EXISTS idx_containment_edges_holder
    ON containment_edges(kind, holder_id);

CREATE TABLE IF NOT EXISTS toolshed_checkouts (
    checkout_id            INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id                TEXT NOT NULL REFERENCES items(barcode_id),
    user_id                TEXT NOT NULL REFERENCES users(barcode_id),
    unix_time              INTEGER NOT NULL,
    override_justification TEXT
);

CREATE TABLE IF NOT EXISTS toolshed_checkins (
    checkin_id             INTEGER PRIMARY KEY AUTOINCREMENT,
    checkout_id            INTEGER NOT NULL UNIQUE REFERENCES toolshed_checkouts(checkout_id),
    item_id                TEXT NOT NULL,
    user_id                TEXT NOT NULL,
    unix_time              INTEGER NOT NULL,
    override_justification TEXT,
    description            TEXT
);

CREATE TABLE IF NOT EXISTS toolshed_holders (
    item_id     TEXT PRIMARY KEY REFERENCES items(barcode_id),
    checkout_id INTEGER NOT NULL REFERENCES toolshed_checkouts(checkout_id),
    user_id     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_presence_events (
    seq       INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id   TEXT NOT NULL REFERENCES users(barcode_id),
    kind      TEXT NOT NULL CHECK (kind IN ('CHECKIN', 'CHECKOUT')),
    unix_time INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS inventory_events (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    start_unix_time    INTEGER NOT NULL,
    complete_unix_time INTEGER,
    notes              TEXT
);

CREATE TABLE IF NOT EXISTS inventoried_items (
    inventory_id INTEGER NOT NULL REFERENCES inventory_events(id),
    item_id      TEXT NOT NULL,
    status       TEXT NOT NULL CHECK (status IN ('GOOD', 'MISSING', 'WRONG_LOCATION', 'NEW_ITEM', 'DAMAGED', 'OTHER')),
    notes        TEXT,
    PRIMARY KEY (inventory_id, item_id)
);

CREATE TABLE IF NOT EXISTS registered_devices (
    android_id TEXT PRIMARY KEY,
    barcode_id TEXT REFERENCES users(barcode_id)
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti             TEXT PRIMARY KEY,
    expires_at_unix INTEGER NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
