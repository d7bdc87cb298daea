package testing

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/teranos/replaydash/db"
)

// CreateTestDB creates a migrated SQLite export database in t's temp dir.
// A file is used rather than :memory: because every pooled connection to
// :memory: gets its own empty database.
// Automatically registers cleanup via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.OpenWithMigrations(filepath.Join(t.TempDir(), "export.db"), nil)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
	})

	return conn
}
