// Package util
//
// This file provides the statistics the engines report through GetInfo:
// summary statistics over a set of values (used for shard and bucket
// occupancy) and a sampled value size histogram.
package util

import (
	"math"

	gometrics "github.com/rcrowley/go-metrics"
)

// ----------------------------------------------------------------------------
// Helper functions
// ----------------------------------------------------------------------------

type Stats struct {
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	MinMaxRatio  float64 `json:"min_max_ratio"`
}

// NewStats computes the standard deviation, minimum, and maximum values
// from an array of float64 values.
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	// initialize min and max with the first value
	min := values[0]
	max := values[0]

	// calculate sum for mean
	var sum float64
	for _, v := range values {
		sum += v

		// update min and max while iterating
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	// calculate mean
	mean := sum / float64(len(values))

	// calculate sum of squared differences from mean
	var sumSquaredDiffs float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiffs += diff * diff
	}

	// calculate standard deviation (population formula)
	stdDev := math.Sqrt(sumSquaredDiffs / float64(len(values)))

	// calculate min/max ratio
	var minMaxRatio float64 = 1.0
	if max > 0 {
		minMaxRatio = min / max
	}

	return Stats{
		StdDeviation: stdDev,
		Min:          min,
		Max:          max,
		Mean:         mean,
		MinMaxRatio:  minMaxRatio,
	}
}

type DistributionStats struct {
	Stats
	DistributionQuality float64 `json:"distribution_quality"`
}

// NewDistributionStats computes quality metrics for value distribution
func NewDistributionStats(shardSizes []float64) DistributionStats {
	// get statistics
	stats := NewStats(shardSizes)

	// calculate coefficient of variation
	var cv float64
	if stats.Mean > 0 {
		cv = stats.StdDeviation / stats.Mean
	}

	// distribution quality combines CV and min/max ratio
	// -> lower CV and higher min/max ratio indicate better distribution
	distributionQuality := (1.0-math.Min(1.0, cv))*0.5 + stats.MinMaxRatio*0.5

	return DistributionStats{
		Stats:               stats,
		DistributionQuality: distributionQuality,
	}
}

// ----------------------------------------------------------------------------
// SizeHistogram
// ----------------------------------------------------------------------------

// sizeReservoir is the number of samples a SizeHistogram keeps
const sizeReservoir = 1028

// SizeHistogram estimates the distribution of value sizes from a uniform
// reservoir sample.
//
// Thread-safe: This type is safe for concurrent use
type SizeHistogram struct {
	h gometrics.Histogram
}

// SizeSummary is the JSON friendly view of a SizeHistogram
type SizeSummary struct {
	Samples int64   `json:"samples"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	P90     float64 `json:"p90"`
	P99     float64 `json:"p99"`
	Max     int64   `json:"max"`
}

// NewSizeHistogram creates an empty histogram
func NewSizeHistogram() *SizeHistogram {
	return &SizeHistogram{h: gometrics.NewHistogram(gometrics.NewUniformSample(sizeReservoir))}
}

// AddSample records one value size
func (s *SizeHistogram) AddSample(size int) {
	s.h.Update(int64(size))
}

// GetCount returns the number of recorded samples
func (s *SizeHistogram) GetCount() int64 {
	return s.h.Count()
}

// Summary returns mean and percentile estimates of the recorded sizes
func (s *SizeHistogram) Summary() SizeSummary {
	snap := s.h.Snapshot()
	ps := snap.Percentiles([]float64{0.5, 0.9, 0.99})
	return SizeSummary{
		Samples: snap.Count(),
		Mean:    snap.Mean(),
		Median:  ps[0],
		P90:     ps[1],
		P99:     ps[2],
		Max:     snap.Max(),
	}
}

// EstimateTotal extrapolates the mean sample size to n values
func (s *SizeHistogram) EstimateTotal(n int) int {
	if s.h.Count() == 0 {
		return 0
	}
	return int(s.h.Mean() * float64(n))
}
