// Package stats holds the small set of descriptive statistics used by the
// analysis pipeline. Every function takes only defined observations and
// reports through its bool result whether the statistic exists for that
// sample size, so callers never see NaN.
package stats

import (
	"math"
	"sort"
)

// Sum returns the sum of xs (0 for an empty slice)
func Sum(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum
}

// Mean returns the arithmetic mean. Undefined for an empty sample.
func Mean(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	return Sum(xs) / float64(len(xs)), true
}

// spreadTolerance is the relative size below which a spread is rounding
// error. A constant sample such as repeated 0.1 leaves deviations of about
// 1e-17 after the mean is taken.
const spreadTolerance = 1e-12

// negligible reports whether spread is rounding noise relative to the largest
// magnitude in xs
func negligible(spread float64, xs []float64) bool {
	var scale float64
	for _, x := range xs {
		scale = math.Max(scale, math.Abs(x))
	}
	return spread <= spreadTolerance*scale
}

// StdDev returns the sample (n-1) standard deviation. Undefined below 2 points.
// A spread that is only rounding noise is reported as exactly 0.
func StdDev(xs []float64) (float64, bool) {
	n := len(xs)
	if n < 2 {
		return 0, false
	}
	mean, _ := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(n-1))
	if negligible(sd, xs) {
		return 0, true
	}
	return sd, true
}

// Skewness returns the Fisher-Pearson coefficient g1 = m3 / m2^(3/2), where
// m2 and m3 are the population (divide by n) central moments. No small-sample
// bias correction is applied. Undefined below 3 points or when the sample is
// constant up to rounding.
func Skewness(xs []float64) (float64, bool) {
	n := len(xs)
	if n < 3 {
		return 0, false
	}
	mean, _ := Mean(xs)
	var m2, m3 float64
	for _, x := range xs {
		d := x - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= float64(n)
	m3 /= float64(n)
	if negligible(math.Sqrt(m2), xs) {
		return 0, false
	}
	return m3 / math.Pow(m2, 1.5), true
}

// Quantile returns the p-quantile (0 <= p <= 1) by linear interpolation
// between order statistics (Hyndman-Fan type 7). xs is not modified.
func Quantile(xs []float64, p float64) (float64, bool) {
	n := len(xs)
	if n == 0 || p < 0 || p > 1 || math.IsNaN(p) {
		return 0, false
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	return quantileSorted(sorted, p), true
}

// Quartiles returns Q1 and Q3 with a single sort
func Quartiles(xs []float64) (q1, q3 float64, ok bool) {
	if len(xs) == 0 {
		return 0, 0, false
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	return quantileSorted(sorted, 0.25), quantileSorted(sorted, 0.75), true
}

func quantileSorted(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// ZScore standardizes x against mean and sd. Undefined when sd is not positive.
func ZScore(x, mean, sd float64) (float64, bool) {
	if sd <= 0 || math.IsNaN(sd) {
		return 0, false
	}
	return (x - mean) / sd, true
}

// AnnualizationFactor returns sqrt(periods) for scaling a per-bar standard deviation
func AnnualizationFactor(periods float64) float64 {
	if periods <= 0 {
		return 0
	}
	return math.Sqrt(periods)
}
