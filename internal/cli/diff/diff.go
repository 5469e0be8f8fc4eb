// Package diff implements 'eos-profile diff'.
package diff

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/eosprofile/internal/capture"
	"github.com/coral-mesh/eosprofile/internal/cli/helpers"
	"github.com/coral-mesh/eosprofile/internal/stats"
)

var supportedFormats = []helpers.OutputFormat{helpers.FormatPlain, helpers.FormatJSON}

// Result is one probe compared across captures.
type Result struct {
	ProbeName string    `json:"probeName"`
	// Averages holds one average per capture containing the probe, in the
	// order the captures were given.
	Averages  []float64 `json:"averageResults"`
	// Files names the capture of each average.
	Files     []string  `json:"-"`
}

// Max returns the largest average.
func (r Result) Max() float64 {
	if len(r.Averages) == 0 {
		return 0
	}
	return slices.Max(r.Averages)
}

// NewDiffCmd creates the diff command.
func NewDiffCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "diff [--format plain|json] [--output FILE|-] FILE FILE...",
		Short: "Compare probe averages across capture files",
		Long: `Compare the average duration of each probe across capture files.

Every average is tagged relative to the largest average of the probe:
  [=]  equal to the largest
  [~]  within 5% of the largest
  [-]  below the largest

Examples:
  eos-profile diff before.db after.db
  eos-profile diff --format json --output diff.json run-1.db run-2.db run-3.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := helpers.RuntimeFrom(cmd)
			if !cmd.Flags().Changed("format") {
				format = rt.Config.Output.DiffFormat
			}
			if err := helpers.ValidateFormat(format, supportedFormats); err != nil {
				return fmt.Errorf("invalid output format: %w", err)
			}
			if len(args) < 2 {
				return fmt.Errorf("not enough files to compare")
			}

			files := make([]*capture.File, len(args))
			for i, path := range args {
				f, err := rt.LoadCapture(path)
				if err != nil {
					return fmt.Errorf("unable to load '%s': %w", path, err)
				}
				files[i] = f
			}

			results, err := Compare(args, files)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if helpers.OutputFormat(format) == helpers.FormatJSON {
				if err := (&helpers.JSONFormatter{}).Format(results, &buf); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
			} else {
				WritePlain(&buf, results)
			}

			return helpers.WriteOutput(cmd.OutOrStdout(), output, buf.Bytes())
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatPlain, supportedFormats)
	helpers.AddOutputFlag(cmd, &output)

	return cmd
}

// Compare computes the average of every probe in every file. Results are
// sorted by probe name.
func Compare(names []string, files []*capture.File) ([]Result, error) {
	byProbe := make(map[string]*Result)

	for i, f := range files {
		err := f.ForEach(func(rec capture.Record) bool {
			r, ok := byProbe[rec.Name]
			if !ok {
				r = &Result{ProbeName: rec.Name}
				byProbe[rec.Name] = r
			}

			sum := stats.Summarize(rec.Samples)
			var avg float64
			if sum.Count > 0 {
				avg = float64(sum.Total) / float64(sum.Count)
			}
			r.Averages = append(r.Averages, avg)
			r.Files = append(r.Files, names[i])
			return true
		})
		if err != nil {
			return nil, fmt.Errorf("unable to read '%s': %w", names[i], err)
		}
	}

	results := make([]Result, 0, len(byProbe))
	for _, r := range byProbe {
		results = append(results, *r)
	}
	slices.SortFunc(results, func(a, b Result) int {
		return strings.Compare(a.ProbeName, b.ProbeName)
	})
	return results, nil
}

// WritePlain renders results as text, one probe per block.
func WritePlain(buf *bytes.Buffer, results []Result) {
	for _, r := range results {
		reference := r.Max()

		fmt.Fprintf(buf, "Probe: %s\n  ┕━ • avg: ", r.ProbeName)
		for i, avg := range r.Averages {
			if i > 0 {
				buf.WriteString(", ")
			}
			v, unit := stats.Scale(avg)
			fmt.Fprintf(buf, "%.02f %s%s", v, unit, stats.Compare(avg, reference).Marker())
		}
		buf.WriteByte('\n')
	}
}
