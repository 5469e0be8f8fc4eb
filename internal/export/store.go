// Package export loads probe captures into a DuckDB database for SQL
// analysis across sessions.
//
// Three tables are maintained:
//
//	profile_sessions  one row per capture, keyed by session_id
//	profile_probes    per-probe statistics, keyed by (session_id, name)
//	profile_samples   raw samples, keyed by (session_id, probe, idx)
//
// Rows are upserted, so importing a capture twice leaves one copy.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coral-mesh/eosprofile/internal/capture"
	"github.com/coral-mesh/eosprofile/internal/duckdb"
	cerrors "github.com/coral-mesh/eosprofile/internal/errors"
	"github.com/coral-mesh/eosprofile/internal/retry"
	"github.com/coral-mesh/eosprofile/internal/stats"
)

// Table names.
const (
	SessionsTable = "profile_sessions"
	ProbesTable   = "profile_probes"
	SamplesTable  = "profile_samples"
)

const schema = `
	CREATE TABLE IF NOT EXISTS profile_sessions (
		session_id      TEXT      PRIMARY KEY,
		app_id          TEXT      NOT NULL,
		capture_file    TEXT      NOT NULL,
		version         INTEGER   NOT NULL,
		start_time      TIMESTAMP NOT NULL,
		profile_time_us BIGINT    NOT NULL,
		imported_at     TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS profile_probes (
		session_id   TEXT     NOT NULL,
		name         TEXT     NOT NULL,
		func_name    TEXT     NOT NULL,
		source_file  TEXT     NOT NULL,
		line         BIGINT   NOT NULL,
		samples      BIGINT   NOT NULL,   -- Closed samples only
		open_samples BIGINT   NOT NULL,
		total_us     BIGINT   NOT NULL,
		min_us       BIGINT   NOT NULL,
		max_us       BIGINT   NOT NULL,
		avg_us       DOUBLE   NOT NULL,
		sigma_us     DOUBLE   NOT NULL,
		durations_us BIGINT[] NOT NULL,   -- Sorted closed durations
		PRIMARY KEY (session_id, name)
	);

	CREATE TABLE IF NOT EXISTS profile_samples (
		session_id TEXT   NOT NULL,
		probe      TEXT   NOT NULL,
		idx        BIGINT NOT NULL,
		start_us   BIGINT NOT NULL,
		end_us     BIGINT NOT NULL,      -- -1 while the sample was open
		PRIMARY KEY (session_id, probe, idx)
	);
`

// Session is a row of profile_sessions.
type Session struct {
	SessionID   string    `duckdb:"session_id,pk"`
	AppID       string    `duckdb:"app_id"`
	CaptureFile string    `duckdb:"capture_file"`
	Version     int32     `duckdb:"version"`
	StartTime   time.Time `duckdb:"start_time"`
	ProfileTime int64     `duckdb:"profile_time_us"`
	ImportedAt  time.Time `duckdb:"imported_at,immutable"`
}

// Probe is a row of profile_probes.
type Probe struct {
	SessionID   string           `duckdb:"session_id,pk"`
	Name        string           `duckdb:"name,pk"`
	Function    string           `duckdb:"func_name"`
	File        string           `duckdb:"source_file"`
	Line        int64            `duckdb:"line"`
	Samples     int64            `duckdb:"samples"`
	OpenSamples int64            `duckdb:"open_samples"`
	Total       int64            `duckdb:"total_us"`
	Min         int64            `duckdb:"min_us"`
	Max         int64            `duckdb:"max_us"`
	Average     float64          `duckdb:"avg_us"`
	Sigma       float64          `duckdb:"sigma_us"`
	Durations   duckdb.Int64List `duckdb:"durations_us"`
}

// Sample is a row of profile_samples.
type Sample struct {
	SessionID string `duckdb:"session_id,pk"`
	Probe     string `duckdb:"probe,pk"`
	Index     int64  `duckdb:"idx,pk"`
	Start     int64  `duckdb:"start_us"`
	End       int64  `duckdb:"end_us"`
}

// Result describes one imported capture.
type Result struct {
	SessionID string
	Probes    int
	Samples   int
}

// Store writes captures into a DuckDB database.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// NewStore creates the export tables if needed.
func NewStore(ctx context.Context, db *sql.DB, logger zerolog.Logger) (*Store, error) {
	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "export").Logger(),
		now:    time.Now,
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create export schema: %w", err)
	}

	return s, nil
}

// SessionID returns the id a capture is stored under. Captures written
// without a session id get a stable id derived from their metadata, so
// re-importing them stays idempotent.
func SessionID(meta capture.Meta) string {
	if meta.SessionID != "" {
		return meta.SessionID
	}
	name := fmt.Sprintf("%s:%d:%d", meta.AppID, meta.StartTime, meta.ProfileTime)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

type rows struct {
	session *Session
	probes  []*Probe
	samples []*Sample
}

func buildRows(source string, meta capture.Meta, records []capture.Record, importedAt time.Time) rows {
	id := SessionID(meta)

	out := rows{
		session: &Session{
			SessionID:   id,
			AppID:       meta.AppID,
			CaptureFile: source,
			Version:     meta.Version,
			StartTime:   time.Unix(meta.StartTime, 0).UTC(),
			ProfileTime: meta.ProfileTime,
			ImportedAt:  importedAt.UTC(),
		},
		probes: make([]*Probe, 0, len(records)),
	}

	for _, rec := range records {
		summary := stats.Summarize(rec.Samples)

		durations := make(duckdb.Int64List, 0, summary.Count)
		for i, sample := range rec.Samples {
			out.samples = append(out.samples, &Sample{
				SessionID: id,
				Probe:     rec.Name,
				Index:     int64(i),
				Start:     sample.Start,
				End:       sample.End,
			})
			if sample.Closed() {
				durations = append(durations, sample.Duration())
			}
		}
		slices.Sort(durations)

		out.probes = append(out.probes, &Probe{
			SessionID:   id,
			Name:        rec.Name,
			Function:    rec.Function,
			File:        rec.File,
			Line:        int64(rec.Line),
			Samples:     int64(summary.Count),
			OpenSamples: int64(len(rec.Samples) - summary.Count),
			Total:       summary.Total,
			Min:         summary.Min,
			Max:         summary.Max,
			Average:     summary.Average,
			Sigma:       summary.Sigma,
			Durations:   durations,
		})
	}

	return out
}

// Import loads one capture file. source is recorded as the capture path.
func (s *Store) Import(ctx context.Context, source string, f *capture.File) (Result, error) {
	records, err := f.Probes()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read probes from %s: %w", source, err)
	}

	r := buildRows(source, f.Meta(), records, s.now())

	err = retry.Do(ctx, retry.WriteConflict, func() error {
		return s.write(ctx, r)
	}, duckdb.IsTransactionConflict)
	if err != nil {
		return Result{}, fmt.Errorf("failed to import %s: %w", source, err)
	}

	s.logger.Info().
		Str("session_id", r.session.SessionID).
		Str("file", source).
		Int("probes", len(r.probes)).
		Int("samples", len(r.samples)).
		Msg("Capture imported")

	return Result{
		SessionID: r.session.SessionID,
		Probes:    len(r.probes),
		Samples:   len(r.samples),
	}, nil
}

func (s *Store) write(ctx context.Context, r rows) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer cerrors.DeferRollback(s.logger, tx)

	sessions := duckdb.NewTable[Session](tx, SessionsTable).WithLogger(s.logger)
	if err := sessions.BatchUpsert(ctx, []*Session{r.session}); err != nil {
		return err
	}
	if err := duckdb.NewTable[Probe](tx, ProbesTable).WithLogger(s.logger).BatchUpsert(ctx, r.probes); err != nil {
		return err
	}
	if err := duckdb.NewTable[Sample](tx, SamplesTable).WithLogger(s.logger).BatchUpsert(ctx, r.samples); err != nil {
		return err
	}

	return tx.Commit()
}

// Sessions lists the imported sessions ordered by id.
func (s *Store) Sessions(ctx context.Context) ([]*Session, error) {
	return duckdb.NewTable[Session](s.db, SessionsTable).List(ctx, nil)
}

// Probes lists the probes of one session ordered by name.
func (s *Store) Probes(ctx context.Context, sessionID string) ([]*Probe, error) {
	return duckdb.NewTable[Probe](s.db, ProbesTable).List(ctx, map[string]any{"session_id": sessionID})
}

// Samples lists the raw samples of one probe ordered by index.
func (s *Store) Samples(ctx context.Context, sessionID, probe string) ([]*Sample, error) {
	return duckdb.NewTable[Sample](s.db, SamplesTable).List(ctx, map[string]any{
		"session_id": sessionID,
		"probe":      probe,
	})
}
