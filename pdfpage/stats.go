package pdfpage

import (
	"math"
	"sort"
)

// Quantile returns the q-quantile (0..1) of an ascending sample using linear
// interpolation between adjacent ranks. An empty sample yields 0; q outside
// [0, 1] (or NaN) is clamped.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	switch {
	case math.IsNaN(q) || q < 0:
		q = 0
	case q > 1:
		q = 1
	}
	pos := float64(len(sorted)-1) * q
	base := int(math.Floor(pos))
	rest := pos - float64(base)
	if base+1 < len(sorted) {
		return sorted[base] + rest*(sorted[base+1]-sorted[base])
	}
	return sorted[base]
}

// Median returns the 50th percentile of nums without modifying it.
func Median(nums []float64) float64 {
	return Quantile(sortedCopy(nums), 0.5)
}

// Percentile returns the p-th percentile (0..100) of nums without modifying it.
func Percentile(nums []float64, p float64) float64 {
	return Quantile(sortedCopy(nums), p/100)
}

func sortedCopy(nums []float64) []float64 {
	v := make([]float64, len(nums))
	copy(v, nums)
	sort.Float64s(v)
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
