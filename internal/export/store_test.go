package export

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/eosprofile/internal/capture"
	"github.com/coral-mesh/eosprofile/internal/duckdb"
	"github.com/coral-mesh/eosprofile/internal/stats"
	"github.com/coral-mesh/eosprofile/internal/testutil"
)

func writeCapture(t *testing.T, meta capture.Meta, records []capture.Record) (string, *capture.File) {
	t.Helper()

	path := testutil.WriteCapture(t, "app.db", meta, records)
	f, err := capture.Open(path, nil)
	require.NoError(t, err)
	return path, f
}

func newTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()

	db, _ := testutil.NewTestDuckDB(t)
	store, err := NewStore(testutil.NewTestContext(t), db, testutil.NewTestLogger(t))
	require.NoError(t, err)
	return store, db
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM "+table).Scan(&n))
	return n
}

var testRecords = []capture.Record{
	{
		Name:     "/loop",
		Function: "main.main",
		File:     "main.go",
		Line:     4,
		Samples:  []stats.Sample{{Start: 9_000, End: stats.Open}},
	},
	{
		Name:     "/loop/inner",
		Function: "main.loop",
		File:     "main.go",
		Line:     9,
		Samples: []stats.Sample{
			{Start: 2_000, End: 2_300},
			{Start: 3_000, End: 3_100},
			{Start: 4_000, End: 4_200},
		},
	},
}

func TestStore_Import(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	store, _ := newTestStore(t)

	meta := capture.Meta{
		AppID:       "com.example.Demo",
		StartTime:   1_700_000_000,
		ProfileTime: 10_000,
		SessionID:   "6f1c1a52-9a55-4d2b-9d1c-8f0d5f3b7f10",
	}
	path, f := writeCapture(t, meta, testRecords)

	res, err := store.Import(ctx, path, f)
	require.NoError(t, err)
	assert.Equal(t, Result{SessionID: meta.SessionID, Probes: 2, Samples: 4}, res)

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "com.example.Demo", sessions[0].AppID)
	assert.Equal(t, path, sessions[0].CaptureFile)
	assert.Equal(t, capture.Version, sessions[0].Version)
	assert.Equal(t, int64(1_700_000_000), sessions[0].StartTime.Unix())
	assert.Equal(t, int64(10_000), sessions[0].ProfileTime)

	probes, err := store.Probes(ctx, meta.SessionID)
	require.NoError(t, err)
	require.Len(t, probes, 2)

	outer := probes[0]
	assert.Equal(t, "/loop", outer.Name)
	assert.Equal(t, int64(0), outer.Samples)
	assert.Equal(t, int64(1), outer.OpenSamples)
	assert.Empty(t, outer.Durations)

	inner := probes[1]
	assert.Equal(t, "/loop/inner", inner.Name)
	assert.Equal(t, "main.loop", inner.Function)
	assert.Equal(t, int64(9), inner.Line)
	assert.Equal(t, int64(3), inner.Samples)
	assert.Equal(t, int64(600), inner.Total)
	assert.Equal(t, int64(100), inner.Min)
	assert.Equal(t, int64(300), inner.Max)
	assert.InDelta(t, 200.0, inner.Average, 1e-9)
	assert.Equal(t, duckdb.Int64List{100, 200, 300}, inner.Durations)

	samples, err := store.Samples(ctx, meta.SessionID, "/loop")
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, stats.Open, samples[0].End)
}

func TestStore_ImportIsIdempotent(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	store, db := newTestStore(t)

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return first }

	path, f := writeCapture(t, capture.Meta{AppID: "a", SessionID: "s-1"}, testRecords)
	_, err := store.Import(ctx, path, f)
	require.NoError(t, err)

	store.now = func() time.Time { return first.Add(time.Hour) }
	_, err = store.Import(ctx, path, f)
	require.NoError(t, err)

	assert.Equal(t, 1, countRows(t, db, SessionsTable))
	assert.Equal(t, 2, countRows(t, db, ProbesTable))
	assert.Equal(t, 4, countRows(t, db, SamplesTable))

	// imported_at keeps the first import.
	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.True(t, first.Equal(sessions[0].ImportedAt), sessions[0].ImportedAt)
}

func TestStore_ImportSeparatesSessions(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	store, db := newTestStore(t)

	for _, id := range []string{"s-1", "s-2"} {
		path, f := writeCapture(t, capture.Meta{AppID: "a", SessionID: id}, testRecords)
		_, err := store.Import(ctx, path, f)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, countRows(t, db, SessionsTable))
	assert.Equal(t, 4, countRows(t, db, ProbesTable))
}

func TestSessionID(t *testing.T) {
	assert.Equal(t, "given", SessionID(capture.Meta{SessionID: "given"}))

	meta := capture.Meta{AppID: "a", StartTime: 1, ProfileTime: 2}
	derived := SessionID(meta)
	assert.Len(t, derived, 36)
	assert.Equal(t, derived, SessionID(meta))
	assert.NotEqual(t, derived, SessionID(capture.Meta{AppID: "b", StartTime: 1, ProfileTime: 2}))
}

func TestNewStore_ReopensExistingSchema(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	_, db := newTestStore(t)

	_, err := NewStore(ctx, db, testutil.NewTestLogger(t))
	assert.NoError(t, err)
}
