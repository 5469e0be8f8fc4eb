package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/eosprofile/internal/capture"
	"github.com/coral-mesh/eosprofile/internal/stats"
	"github.com/coral-mesh/eosprofile/internal/testutil"
)

func TestBuildDocument(t *testing.T) {
	path := testutil.WriteCapture(t, "app.db", capture.Meta{
		AppID:       "com.example.App",
		StartTime:   1_700_000_000,
		ProfileTime: 42,
	}, []capture.Record{
		{Name: "/z", Function: "main.z", File: "z.go", Line: 1, Samples: testutil.Closed(400, 100, 300, 200)},
		{Name: "/a", Function: "main.a", File: "a.go", Line: 9},
	})

	f, err := capture.Open(path, nil)
	require.NoError(t, err)

	doc, err := BuildDocument(f, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, Meta{
		Version:     capture.Version,
		AppID:       "com.example.App",
		ProfileTime: 42,
		StartTime:   "2023-11-14 22:13:20",
	}, doc.Meta)

	require.Len(t, doc.Probes, 2)
	assert.Equal(t, "/a", doc.Probes[0].Name)
	assert.Equal(t, Samples{}, doc.Probes[0].Samples)

	z := doc.Probes[1].Samples
	assert.Equal(t, 4, z.NumSamples)
	assert.Equal(t, int64(1000), z.TotalTime)
	assert.Equal(t, []int64{200, 300}, z.RawSamples)
	require.NotNil(t, z.Sigma)
	assert.InDelta(t, 40.8248, *z.Sigma, 1e-4)
	assert.Equal(t, 100.0, *z.MinSample)
	assert.Equal(t, 400.0, *z.MaxSample)
	assert.Equal(t, 250.0, *z.Average)
}

func TestBuildSamples(t *testing.T) {
	tests := []struct {
		name    string
		samples []stats.Sample
		want    Samples
	}{
		{
			name:    "open samples only",
			samples: []stats.Sample{{Start: 3, End: stats.Open}},
			want:    Samples{},
		},
		{
			name:    "single sample has an empty raw list",
			samples: testutil.Closed(7),
			want:    Samples{NumSamples: 1, TotalTime: 7, RawSamples: []int64{}},
		},
		{
			name:    "two samples",
			samples: testutil.Closed(10, 30),
			want: Samples{
				NumSamples: 2,
				TotalTime:  40,
				RawSamples: []int64{},
				MinSample:  ptr(10),
				MaxSample:  ptr(30),
				Average:    ptr(20),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildSamples(stats.Summarize(tt.samples)))
		})
	}
}
