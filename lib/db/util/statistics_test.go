package util

import (
	"math"
	"testing"
)

func TestNewStats(t *testing.T) {
	s := NewStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if s.Mean != 5 || s.StdDeviation != 2 || s.Min != 2 || s.Max != 9 {
		t.Errorf("Unexpected stats %+v", s)
	}
	if empty := NewStats(nil); empty != (Stats{}) {
		t.Errorf("Empty input should give zero stats, got %+v", empty)
	}
}

func TestDistributionQuality(t *testing.T) {
	even := NewDistributionStats([]float64{10, 10, 10, 10})
	if even.DistributionQuality != 1 {
		t.Errorf("Even distribution should have quality 1, got %f", even.DistributionQuality)
	}
	skewed := NewDistributionStats([]float64{0, 0, 0, 40})
	if skewed.DistributionQuality >= even.DistributionQuality {
		t.Errorf("Skewed distribution should score lower, got %f", skewed.DistributionQuality)
	}
}

func TestSizeHistogram(t *testing.T) {
	h := NewSizeHistogram()
	for i := 1; i <= 100; i++ {
		h.AddSample(i)
	}

	s := h.Summary()
	if s.Samples != 100 || s.Max != 100 {
		t.Errorf("Unexpected summary %+v", s)
	}
	if math.Abs(s.Mean-50.5) > 0.001 {
		t.Errorf("Expected mean 50.5, got %f", s.Mean)
	}
	if s.Median < 45 || s.Median > 56 {
		t.Errorf("Median estimate out of range: %f", s.Median)
	}
	if got := h.EstimateTotal(10); got != 505 {
		t.Errorf("Expected total estimate 505, got %d", got)
	}
	if NewSizeHistogram().EstimateTotal(10) != 0 {
		t.Errorf("Empty histogram should estimate 0")
	}
}

func TestHashStringSeeds(t *testing.T) {
	if HashString("key", 1) != HashString("key", 1) {
		t.Errorf("HashString must be deterministic")
	}
	if HashString("key", 1) == HashString("key", 2) {
		t.Errorf("Different seeds should give different hashes")
	}
	if NextPowerOfTwo(5) != 8 || NextPowerOfTwo(0) != 1 || NextPowerOfTwo(16) != 16 {
		t.Errorf("NextPowerOfTwo is wrong")
	}
}
