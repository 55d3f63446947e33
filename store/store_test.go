package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

// testDB opens a fresh in-memory database with the real migrations applied.
// A single connection keeps every query on the same in-memory instance.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db, "file://../db/migrations"))
	t.Cleanup(func() { db.Close() })
	return db
}
