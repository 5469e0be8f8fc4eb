package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplesOf(durations ...int64) []Sample {
	out := make([]Sample, 0, len(durations))
	var start int64 = 100
	for _, d := range durations {
		out = append(out, Sample{Start: start, End: start + d})
		start += 1000
	}
	return out
}

func TestScale(t *testing.T) {
	tests := []struct {
		usec      float64
		wantValue float64
		wantUnit  string
	}{
		{500, 500, "µs"},
		{999, 999, "µs"},
		{1000, 1, "ms"},
		{1500, 1.5, "ms"},
		{999_999, 999.999, "ms"},
		{2_000_000, 2.0, "s"},
		{0, 0, "µs"},
	}

	for _, tt := range tests {
		v, unit := Scale(tt.usec)
		assert.InDelta(t, tt.wantValue, v, 1e-9, "value for %v", tt.usec)
		assert.Equal(t, tt.wantUnit, unit, "unit for %v", tt.usec)
	}
}

func TestScaleInt(t *testing.T) {
	v, unit := ScaleInt(1500)
	assert.Equal(t, int64(1), v)
	assert.Equal(t, "ms", unit)

	v, unit = ScaleInt(2_500_000)
	assert.Equal(t, int64(2), v)
	assert.Equal(t, "s", unit)
}

func TestSummarize_NoValidSamples(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		sum := Summarize(nil)
		assert.Equal(t, 0, sum.Count)
		assert.False(t, sum.HasDistribution())
		assert.Zero(t, sum.Total)
		assert.False(t, math.IsNaN(sum.Sigma))
	})

	t.Run("only open samples", func(t *testing.T) {
		sum := Summarize([]Sample{{Start: 10, End: Open}, {Start: 20, End: Open}})
		assert.Equal(t, 0, sum.Count)
		assert.Zero(t, sum.Average)
		assert.Nil(t, sum.Trimmed)
	})
}

func TestSummarize_SingleSample(t *testing.T) {
	sum := Summarize([]Sample{{Start: 10, End: 40}, {Start: 50, End: Open}})

	assert.Equal(t, 1, sum.Count)
	assert.Equal(t, int64(30), sum.Total)
	assert.False(t, sum.HasDistribution())
	assert.Zero(t, sum.Average)
	assert.Zero(t, sum.Min)
	assert.Zero(t, sum.Max)
	assert.Zero(t, sum.Sigma)
}

func TestSummarize_TwoSamples(t *testing.T) {
	sum := Summarize(samplesOf(10, 30))

	require.Equal(t, 2, sum.Count)
	assert.Equal(t, int64(40), sum.Total)
	assert.Equal(t, int64(10), sum.Min)
	assert.Equal(t, int64(30), sum.Max)
	assert.InDelta(t, 20.0, sum.Average, 1e-9)
	assert.Empty(t, sum.Trimmed)
	assert.Zero(t, sum.Sigma)
}

func TestSummarize_TrimsOutliers(t *testing.T) {
	// Unsorted on purpose; open samples interleaved.
	samples := samplesOf(50, 10, 1000, 20, 30)
	samples = append(samples, Sample{Start: 7, End: Open})

	sum := Summarize(samples)

	require.Equal(t, 5, sum.Count)
	assert.Equal(t, int64(1110), sum.Total)
	assert.Equal(t, int64(10), sum.Min)
	assert.Equal(t, int64(1000), sum.Max)
	assert.InDelta(t, 222.0, sum.Average, 1e-9)
	assert.Equal(t, []int64{20, 30, 50}, sum.Trimmed)

	// Squared deviations over the trimmed set, divided by Count-1.
	var squares float64
	for _, d := range []float64{20, 30, 50} {
		squares += (d - 222.0) * (d - 222.0)
	}
	assert.InDelta(t, math.Sqrt(squares/4), sum.Sigma, 1e-9)
}

func TestSummarize_DoesNotReorderInput(t *testing.T) {
	samples := samplesOf(30, 10, 20)
	orig := append([]Sample(nil), samples...)

	Summarize(samples)

	assert.Equal(t, orig, samples)
}

func TestSummarize_AverageBetweenMinAndMax(t *testing.T) {
	inputs := [][]int64{
		{1, 1},
		{5, 1, 9, 3},
		{100, 200, 300, 400, 500, 600},
		{7, 7, 7, 7, 7000000},
	}

	for _, durations := range inputs {
		sum := Summarize(samplesOf(durations...))
		require.True(t, sum.HasDistribution())
		assert.LessOrEqual(t, float64(sum.Min), sum.Average+1e-9)
		assert.GreaterOrEqual(t, float64(sum.Max), sum.Average-1e-9)
	}
}

func TestSortByDuration(t *testing.T) {
	samples := []Sample{
		{Start: 0, End: 50},
		{Start: 10, End: Open},
		{Start: 5, End: 10},
		{Start: 20, End: 40},
	}

	SortByDuration(samples)

	assert.Equal(t, []Sample{
		{Start: 10, End: Open},
		{Start: 5, End: 10},
		{Start: 20, End: 40},
		{Start: 0, End: 50},
	}, samples)
}

func TestSample_Closed(t *testing.T) {
	assert.True(t, Sample{Start: 0, End: 0}.Closed())
	assert.True(t, Sample{Start: 3, End: 9}.Closed())
	assert.False(t, Sample{Start: 3, End: Open}.Closed())
	assert.False(t, Sample{Start: 9, End: 3}.Closed())
}
