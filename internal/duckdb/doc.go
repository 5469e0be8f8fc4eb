// Package duckdb wraps the DuckDB driver for the profile export store.
//
// Table maps a struct with `duckdb` tags onto a table and writes rows with
// INSERT ... ON CONFLICT, so importing the same capture twice is harmless:
//
//	type Session struct {
//	    ID    string `duckdb:"session_id,pk"`
//	    AppID string `duckdb:"app_id"`
//	}
//
//	sessions := duckdb.NewTable[Session](db, "profile_sessions")
//	err := sessions.BatchUpsert(ctx, []*Session{...})
//
// Write conflicts from concurrent importers are retried with backoff.
package duckdb
