package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	duckdbDriver "github.com/marcboeker/go-duckdb"
)

const pingTimeout = 5 * time.Second

// OpenDB opens the DuckDB database at dsn. An empty dsn or ":memory:" opens
// a private in-memory database.
func OpenDB(dsn string) (*sql.DB, error) {
	if dsn == ":memory:" {
		dsn = ""
	}

	connector, err := duckdbDriver.NewConnector(dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %q: %w", dsn, err)
	}

	db := sql.OpenDB(connector)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb %q: %w", dsn, err)
	}

	return db, nil
}
