// Package export implements 'eos-profile export'.
package export

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/coral-mesh/eosprofile/internal/cli/helpers"
	"github.com/coral-mesh/eosprofile/internal/duckdb"
	cerrors "github.com/coral-mesh/eosprofile/internal/errors"
	"github.com/coral-mesh/eosprofile/internal/export"
)

var supportedFormats = []helpers.OutputFormat{helpers.FormatTable, helpers.FormatJSON, helpers.FormatCSV}

// Row is one imported capture as printed by the command.
type Row struct {
	SessionID string `header:"SESSION" json:"sessionId"`
	AppID     string `header:"APPLICATION" json:"appId"`
	File      string `header:"FILE" json:"file"`
	Probes    int    `header:"PROBES" json:"probes"`
	Samples   string `header:"SAMPLES" json:"samples"`
}

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	var (
		dbPath    string
		format    string
		keepGoing bool
	)

	cmd := &cobra.Command{
		Use:   "export --db PATH FILE...",
		Short: "Load capture files into a DuckDB database",
		Long: `Load capture files into a DuckDB database for SQL analysis.

The database holds the tables profile_sessions, profile_probes and
profile_samples. Sessions are keyed by the capture's session id, so
importing the same capture again updates the existing rows.

Examples:
  eos-profile export --db profiles.duckdb ~/.cache/com.endlessm.Sdk.Profile/*.db
  duckdb profiles.duckdb "SELECT name, avg_us FROM profile_probes ORDER BY avg_us DESC"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := helpers.RuntimeFrom(cmd)
			if err := helpers.ValidateFormat(format, supportedFormats); err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = rt.Config.Export.Database
			}
			if dbPath == "" {
				return fmt.Errorf("--db is required (or set export.database in %s)", rt.ConfigPath)
			}

			db, err := duckdb.OpenDB(dbPath)
			if err != nil {
				return err
			}
			defer cerrors.DeferClose(rt.Logger, db, "failed to close database")

			ctx := cmd.Context()
			store, err := export.NewStore(ctx, db, rt.Logger)
			if err != nil {
				return err
			}

			p := rt.Printer(cmd)
			rows := make([]Row, 0, len(args))
			failed := 0
			for _, path := range args {
				row, err := importFile(cmd, rt, store, path)
				if err != nil {
					if !keepGoing {
						return err
					}
					p.Error("%v", err)
					failed++
					continue
				}
				rows = append(rows, row)
			}

			formatter, err := helpers.NewFormatter(helpers.OutputFormat(format))
			if err != nil {
				return err
			}
			if err := formatter.Format(rows, cmd.OutOrStdout()); err != nil {
				return err
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d captures could not be exported", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "DuckDB database file (created if missing)")
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "Continue with the remaining files when one fails")
	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, supportedFormats)

	return cmd
}

func importFile(cmd *cobra.Command, rt *helpers.Runtime, store *export.Store, path string) (Row, error) {
	f, err := rt.LoadCapture(path)
	if err != nil {
		return Row{}, fmt.Errorf("unable to load '%s': %w", path, err)
	}

	source := path
	if abs, err := filepath.Abs(path); err == nil {
		source = abs
	}

	res, err := store.Import(cmd.Context(), source, f)
	if err != nil {
		return Row{}, err
	}

	return Row{
		SessionID: res.SessionID,
		AppID:     f.Meta().AppID,
		File:      path,
		Probes:    res.Probes,
		Samples:   humanize.Comma(int64(res.Samples)),
	}, nil
}
