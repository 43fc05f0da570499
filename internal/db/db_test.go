package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	got := dsn("inventory.sqlite3")
	assert.Contains(t, got, "inventory.sqlite3?")
	assert.Contains(t, got, "_txlock=immediate")
	assert.Contains(t, got, "_pragma=foreign_keys%281%29")

	got = dsn("file:x.db?mode=rwc")
	assert.Contains(t, got, "file:x.db?mode=rwc&")
}

func TestMigrateIsIdempotent(t *testing.T) {
	database := NewTestDB(t)

	require.NoError(t, Migrate(database))
	require.NoError(t, Migrate(database))

	var fk int
	require.NoError(t, database.Get(&fk, `PRAGMA foreign_keys`))
	assert.Equal(t, 1, fk)
}
