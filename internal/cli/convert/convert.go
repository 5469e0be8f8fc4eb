// Package convert implements 'eos-profile convert'.
package convert

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/eosprofile/internal/capture"
	"github.com/coral-mesh/eosprofile/internal/cli/helpers"
	"github.com/coral-mesh/eosprofile/internal/constants"
	"github.com/coral-mesh/eosprofile/internal/safe"
	"github.com/coral-mesh/eosprofile/internal/stats"
)

var supportedFormats = []helpers.OutputFormat{helpers.FormatJSON}

// Document is the JSON form of a capture.
type Document struct {
	Meta   Meta    `json:"meta"`
	Probes []Probe `json:"probes"`
}

// Meta is the JSON form of the capture metadata.
type Meta struct {
	Version     int32  `json:"version"`
	AppID       string `json:"appId"`
	ProfileTime int64  `json:"profileTime"`
	// StartTime is local time formatted as "2006-01-02 15:04:05".
	StartTime   string `json:"startTime"`
	SessionID   string `json:"sessionId,omitempty"`
}

// Probe is the JSON form of one probe.
type Probe struct {
	Name     string  `json:"name"`
	File     string  `json:"file"`
	Line     uint32  `json:"line"`
	Function string  `json:"function"`
	Samples  Samples `json:"samples"`
}

// Samples holds the statistics of a probe. Durations are in microseconds.
// RawSamples are the sorted closed durations without the fastest and the
// slowest one, and null when no sample was closed.
type Samples struct {
	NumSamples int      `json:"numSamples"`
	RawSamples []int64  `json:"rawSamples"`
	Sigma      *float64 `json:"sigma,omitempty"`
	TotalTime  int64    `json:"totalTime"`
	MinSample  *float64 `json:"minSample,omitempty"`
	MaxSample  *float64 `json:"maxSample,omitempty"`
	Average    *float64 `json:"average,omitempty"`
}

// NewConvertCmd creates the convert command.
func NewConvertCmd() *cobra.Command {
	var (
		format string
		pretty bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "convert [--format json] [--pretty] [--output FILE] FILE",
		Short: "Convert a capture file to another format",
		Long: `Convert a capture file to JSON for processing by other tools.

Durations are reported in microseconds. Without --output the document is
printed on the standard output.

Examples:
  eos-profile convert --pretty demo-4242.db
  eos-profile convert --output demo.json demo-4242.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, supportedFormats); err != nil {
				return fmt.Errorf("unknown format '%s'; please, use 'json'", format)
			}

			rt := helpers.RuntimeFrom(cmd)
			f, err := rt.LoadCapture(args[0])
			if err != nil {
				return fmt.Errorf("unable to load '%s': %w", args[0], err)
			}

			doc, err := BuildDocument(f, time.Local)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := (&helpers.JSONFormatter{Pretty: pretty}).Format(doc, &buf); err != nil {
				return fmt.Errorf("failed to encode JSON: %w", err)
			}

			if helpers.IsStdout(output) {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := safe.WriteFileAtomic(output, buf.Bytes(), &safe.Options{DestPerm: constants.OutputFilePerm}); err != nil {
				return fmt.Errorf("unable to write to '%s': %w", output, err)
			}
			rt.Logger.Info().Str("file", output).Msg("Capture converted")
			return nil
		},
	}

	helpers.AddFormatFlag(cmd, &format, constants.DefaultConvertFormat, supportedFormats)
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Enable pretty-printing the output")
	cmd.Flags().StringVar(&output, "output", "", "The output file")

	return cmd
}

// BuildDocument converts a capture. Start times are rendered in loc.
func BuildDocument(f *capture.File, loc *time.Location) (*Document, error) {
	meta := f.Meta()
	doc := &Document{
		Meta: Meta{
			Version:     meta.Version,
			AppID:       meta.AppID,
			ProfileTime: meta.ProfileTime,
			StartTime:   time.Unix(meta.StartTime, 0).In(loc).Format(time.DateTime),
			SessionID:   meta.SessionID,
		},
		Probes: []Probe{},
	}

	err := f.ForEach(func(rec capture.Record) bool {
		doc.Probes = append(doc.Probes, Probe{
			Name:     rec.Name,
			File:     rec.File,
			Line:     rec.Line,
			Function: rec.Function,
			Samples:  buildSamples(stats.Summarize(rec.Samples)),
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func buildSamples(sum stats.Summary) Samples {
	out := Samples{
		NumSamples: sum.Count,
		TotalTime:  sum.Total,
	}
	if sum.Count == 0 {
		return out
	}

	out.RawSamples = sum.Trimmed
	if out.RawSamples == nil {
		out.RawSamples = []int64{}
	}
	if sum.Sigma != 0 && !math.IsNaN(sum.Sigma) {
		out.Sigma = ptr(sum.Sigma)
	}
	if sum.HasDistribution() {
		out.MinSample = ptr(float64(sum.Min))
		out.MaxSample = ptr(float64(sum.Max))
		out.Average = ptr(sum.Average)
	}
	return out
}

func ptr(v float64) *float64 {
	return &v
}
