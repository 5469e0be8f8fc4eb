package show

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/eosprofile/internal/capture"
	"github.com/coral-mesh/eosprofile/internal/cli/helpers"
	"github.com/coral-mesh/eosprofile/internal/config"
	"github.com/coral-mesh/eosprofile/internal/stats"
	"github.com/coral-mesh/eosprofile/internal/testutil"
)

func TestSummaryMessage(t *testing.T) {
	tests := []struct {
		name    string
		samples []stats.Sample
		want    string
	}{
		{
			name: "no samples",
			want: "Not enough valid samples found",
		},
		{
			name:    "only open samples",
			samples: []stats.Sample{{Start: 1, End: stats.Open}},
			want:    "Not enough valid samples found",
		},
		{
			name:    "single sample",
			samples: testutil.Closed(2_500),
			want:    "1 sample: total time: 2 ms",
		},
		{
			name:    "zero sigma is omitted",
			samples: testutil.Closed(100, 100),
			want:    "2 samples: total time: 200 µs, avg: 100 µs, min: 100 µs, max: 100 µs",
		},
		{
			name:    "with sigma",
			samples: testutil.Closed(400, 100, 300, 200),
			want:    "4 samples: total time: 1 ms, avg: 250 µs, min: 100 µs, max: 400 µs, σ: 40.8248",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, summaryMessage(stats.Summarize(tt.samples)))
		})
	}
}

func TestShowFile(t *testing.T) {
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	path := testutil.WriteCapture(t, "app.db", capture.Meta{
		AppID:       "com.example.App",
		StartTime:   started.Unix(),
		ProfileTime: 1_500,
	}, []capture.Record{
		{Name: "/open", Function: "main.wait", File: "wait.go", Line: 2, Samples: []stats.Sample{{Start: 1, End: stats.Open}}},
		{Name: "/never", Function: "main.never", File: "never.go", Line: 5},
	})

	var out, errOut bytes.Buffer
	rt := &helpers.Runtime{Config: config.Default(), Logger: testutil.NewTestLogger(t)}
	p := helpers.NewPrinter(&out, &errOut, config.ColorNever)

	require.NoError(t, showFile(rt, p, path, started.Add(2*time.Hour)))
	assert.Empty(t, errOut.String())
	assert.Equal(t,
		"INFO: Loading profiling data from '"+path+"'\n"+
			"INFO: Application: com.example.App\n"+
			"INFO: Profile time: 1 ms\n"+
			"INFO: Started: 2024-03-01 12:00:00 (2 hours ago)\n"+
			"PROBE: /never\n"+
			" `- main.never at never.go:5\n"+
			"PROBE: /open\n"+
			" `- main.wait at wait.go:2\n"+
			" `- Not enough valid samples found\n",
		out.String())
}
