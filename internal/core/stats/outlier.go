// Package stats computes the advisory duration threshold used to flag
// implausibly long entries when the clock is stopped.
package stats

import "math"

const (
	// minSamples is the sample count above which the threshold is
	// derived from the data instead of the fixed fallback.
	minSamples = 10

	// fallbackThresholdMinutes is used when too few durations exist
	// for the statistics to be meaningful.
	fallbackThresholdMinutes = 60.0
)

// Threshold returns the warning threshold, in minutes, for the given
// sample of entry durations. With more than minSamples samples it is
// mean + 2 standard deviations (population stddev); otherwise the fixed
// fallback. The threshold is advisory only and never blocks a stop.
func Threshold(samples []float64) float64 {
	if len(samples) <= minSamples {
		return fallbackThresholdMinutes
	}

	mean := 0.0
	for _, s := range samples {
		mean += s
	}
	mean /= float64(len(samples))

	variance := 0.0
	for _, s := range samples {
		d := s - mean
		variance += d * d
	}
	variance /= float64(len(samples))

	return mean + 2*math.Sqrt(variance)
}
