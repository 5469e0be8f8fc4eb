package testutil

import (
	"path/filepath"
	"testing"

	"github.com/coral-mesh/eosprofile/internal/capture"
	"github.com/coral-mesh/eosprofile/internal/stats"
)

// WriteCapture writes a capture file named name in a temporary directory and
// returns its path.
func WriteCapture(t *testing.T, name string, meta capture.Meta, records []capture.Record) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := capture.Write(path, meta, records); err != nil {
		t.Fatalf("failed to write capture: %v", err)
	}
	return path
}

// Closed builds closed samples with the given durations, one per millisecond.
func Closed(durations ...int64) []stats.Sample {
	samples := make([]stats.Sample, len(durations))
	for i, d := range durations {
		start := int64(i) * 1_000
		samples[i] = stats.Sample{Start: start, End: start + d}
	}
	return samples
}
