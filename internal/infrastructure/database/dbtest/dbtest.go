// Package dbtest opens throwaway sqlite stores for tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/eslsoft/jamdict/internal/infrastructure/database"
)

// RequireSQLite skips the test when the cgo sqlite driver cannot open a database.
func RequireSQLite(t testing.TB) {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	if err != nil {
		t.Skipf("sqlite driver not available: %v", err)
		return
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		t.Skipf("skipping sqlite-dependent tests: %v", err)
	}
}

// DSN returns a sqlite DSN for a new file inside a test temp dir.
func DSN(t testing.TB, name string) string {
	t.Helper()
	return "file:" + filepath.Join(t.TempDir(), name) + "?_fk=1&cache=shared"
}

// Open creates a migrated sqlite store that is closed when the test ends.
func Open(t testing.TB) *database.DB {
	t.Helper()
	RequireSQLite(t)
	ctx := context.Background()
	db, err := database.Open(ctx, "sqlite3", DSN(t, "jamdict.db"), database.WithCreate())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate store: %v", err)
	}
	return db
}
