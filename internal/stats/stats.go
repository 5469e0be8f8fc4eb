// Package stats summarizes probe timing samples.
//
// The same functions back the live console summary printed by pkg/profile
// and the offline views of the eos-profile tool, so both report identical
// numbers for identical samples.
package stats

import (
	"math"
	"sort"
)

// Open is the End value of a sample that was never stopped.
const Open int64 = -1

// Sample is one measured interval in monotonic microseconds.
type Sample struct {
	Start int64
	End   int64
}

// Duration returns End - Start. It is negative for open samples.
func (s Sample) Duration() int64 {
	return s.End - s.Start
}

// Closed reports whether the sample has a usable end time.
func (s Sample) Closed() bool {
	return s.End >= 0 && s.End >= s.Start
}

// SortByDuration sorts samples in place by ascending duration.
func SortByDuration(samples []Sample) {
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Duration() < samples[j].Duration()
	})
}

// Summary holds the statistics computed over the closed samples of a probe.
type Summary struct {
	// Count is the number of closed samples.
	Count int
	// Total is the sum of closed sample durations.
	Total int64
	Min   int64
	Max   int64

	Average float64
	// Sigma is the standard deviation over Trimmed.
	Sigma float64

	// Trimmed holds the sorted durations without the fastest and the
	// slowest closed sample.
	Trimmed []int64
}

// HasDistribution reports whether average, min, max and sigma are meaningful.
func (s Summary) HasDistribution() bool {
	return s.Count > 1
}

// Summarize sorts a copy of samples by duration and computes the summary.
//
// Open samples are skipped. The deviation sums over the trimmed set but
// divides by Count-1, where Count includes the two trimmed outliers.
func Summarize(samples []Sample) Summary {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	SortByDuration(sorted)

	valid := make([]int64, 0, len(sorted))
	for _, sample := range sorted {
		if !sample.Closed() {
			continue
		}
		valid = append(valid, sample.Duration())
	}

	var sum Summary
	sum.Count = len(valid)
	if sum.Count == 0 {
		return sum
	}

	sum.Min = math.MaxInt64
	for _, d := range valid {
		if d < sum.Min {
			sum.Min = d
		}
		if d > sum.Max {
			sum.Max = d
		}
		sum.Total += d
	}

	if sum.Count == 1 {
		sum.Min, sum.Max = 0, 0
		return sum
	}

	sum.Average = float64(sum.Total) / float64(sum.Count)

	sum.Trimmed = make([]int64, 0, sum.Count-2)
	var squares float64
	for _, d := range valid[1 : sum.Count-1] {
		deviation := float64(d) - sum.Average
		squares += deviation * deviation
		sum.Trimmed = append(sum.Trimmed, d)
	}
	sum.Sigma = math.Sqrt(squares / float64(sum.Count-1))

	return sum
}

const (
	usecPerSec  = 1_000_000
	usecPerMsec = 1_000
)

// Scale converts a duration in microseconds to the largest unit that keeps
// the value at or above one, returning the scaled value and the unit.
func Scale(usec float64) (float64, string) {
	switch {
	case usec >= usecPerSec:
		return usec / usecPerSec, "s"
	case usec >= usecPerMsec:
		return usec / usecPerMsec, "ms"
	default:
		return usec, "µs"
	}
}

// ScaleInt is Scale truncated to an integer, as used for totals, min and max.
func ScaleInt(usec int64) (int64, string) {
	v, unit := Scale(float64(usec))
	return int64(v), unit
}
