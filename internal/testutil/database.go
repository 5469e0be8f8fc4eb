package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/coral-mesh/eosprofile/internal/duckdb"
)

// NewTestDuckDB opens a DuckDB database in a temporary directory and returns
// it with its path. The database is closed when the test completes.
func NewTestDuckDB(t *testing.T) (*sql.DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.duckdb")
	db, err := duckdb.OpenDB(path)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return db, path
}
