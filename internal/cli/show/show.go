// Package show implements 'eos-profile show'.
package show

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/coral-mesh/eosprofile/internal/capture"
	"github.com/coral-mesh/eosprofile/internal/cli/helpers"
	"github.com/coral-mesh/eosprofile/internal/stats"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show FILE [FILE...]",
		Short: "Print the probes recorded in capture files",
		Long: `Print the metadata and per-probe statistics of capture files.

For every probe the call site that created it is shown, followed by the
number of completed samples, their total, average, minimum and maximum
duration and the standard deviation. Samples that were never stopped are
skipped.

Examples:
  eos-profile show ~/.cache/com.endlessm.Sdk.Profile/demo-4242.db`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := helpers.RuntimeFrom(cmd)
			p := rt.Printer(cmd)

			for _, path := range args {
				if err := showFile(rt, p, path, time.Now()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func showFile(rt *helpers.Runtime, p *helpers.Printer, path string, now time.Time) error {
	p.Info("Loading profiling data from '%s'", path)

	f, err := rt.LoadCapture(path)
	if err != nil {
		return fmt.Errorf("unable to load '%s': %w", path, err)
	}

	meta := f.Meta()
	p.Info("Application: %s", meta.AppID)
	profileTime, unit := stats.ScaleInt(meta.ProfileTime)
	p.Info("Profile time: %d %s", profileTime, unit)
	if meta.StartTime > 0 {
		started := time.Unix(meta.StartTime, 0)
		p.Info("Started: %s (%s)", started.Format(time.DateTime), humanize.RelTime(started, now, "ago", "from now"))
	}
	if meta.SessionID != "" {
		p.Info("Session: %s", meta.SessionID)
	}

	if len(f.ProbeNames()) == 0 {
		p.Warning("No probes recorded in '%s'", path)
		return nil
	}

	return f.ForEach(func(rec capture.Record) bool {
		p.Probe(rec.Name)
		p.Plain(" `- %s at %s:%d", rec.Function, rec.File, rec.Line)
		if len(rec.Samples) > 0 {
			p.Plain(" `- %s", summaryMessage(stats.Summarize(rec.Samples)))
		}
		return true
	})
}

// summaryMessage renders the statistics line of a probe.
func summaryMessage(sum stats.Summary) string {
	switch {
	case sum.HasDistribution():
		total, totalUnit := stats.ScaleInt(sum.Total)
		avg, avgUnit := stats.Scale(sum.Average)
		lo, loUnit := stats.ScaleInt(sum.Min)
		hi, hiUnit := stats.ScaleInt(sum.Max)

		msg := fmt.Sprintf("%d samples: total time: %d %s, avg: %.6g %s, min: %d %s, max: %d %s",
			sum.Count, total, totalUnit, avg, avgUnit, lo, loUnit, hi, hiUnit)
		if sum.Sigma != 0 {
			msg += fmt.Sprintf(", σ: %.6g", sum.Sigma)
		}
		return msg
	case sum.Count == 1:
		total, unit := stats.ScaleInt(sum.Total)
		return fmt.Sprintf("1 sample: total time: %d %s", total, unit)
	default:
		return "Not enough valid samples found"
	}
}
