// Package stats holds the statistical primitives used by the fatigue engine.
// Every function returns a neutral value instead of NaN/Inf on degenerate
// input, so callers never have to guard the results themselves.
package stats

import (
	"math"

	mstats "github.com/montanaflynn/stats"
)

// Epsilon below which a denominator is treated as zero.
const Epsilon = 1e-9

type Summary struct {
	N        int     `json:"n"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Variance float64 `json:"variance"`
	StdDev   float64 `json:"stdDev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	P25      float64 `json:"p25"`
	P75      float64 `json:"p75"`
}

// Describe computes a summary of xs. Non-finite values are ignored.
func Describe(xs []float64) Summary {
	data := Finite(xs)
	if len(data) == 0 {
		return Summary{}
	}
	return Summary{
		N:        len(data),
		Mean:     Mean(data),
		Median:   Median(data),
		Variance: Variance(data),
		StdDev:   StdDev(data),
		Min:      orZero(mstats.Min(data)),
		Max:      orZero(mstats.Max(data)),
		P25:      Percentile(data, 25),
		P75:      Percentile(data, 75),
	}
}

func Mean(xs []float64) float64 {
	return orZero(mstats.Mean(xs))
}

func Median(xs []float64) float64 {
	return orZero(mstats.Median(xs))
}

// Variance is the sample (n-1) variance; 0 for fewer than two values.
func Variance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return orZero(mstats.SampleVariance(xs))
}

// StdDev is the sample standard deviation; 0 for fewer than two values.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return orZero(mstats.StandardDeviationSample(xs))
}

// Percentile returns the p-th percentile (0 < p <= 100).
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	if p <= 0 {
		return orZero(mstats.Min(xs))
	}
	if p > 100 {
		p = 100
	}
	return orZero(mstats.Percentile(xs, p))
}

// Finite returns a copy of xs without NaN and ±Inf values.
func Finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if IsFinite(x) {
			out = append(out, x)
		}
	}
	return out
}

func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// SafeDiv returns num/den, or def when den is ~0 or the result is not finite.
func SafeDiv(num, den, def float64) float64 {
	if math.Abs(den) < Epsilon {
		return def
	}
	r := num / den
	if !IsFinite(r) {
		return def
	}
	return r
}

// Clamp limits v to [lo, hi]; non-finite values collapse to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp100 limits a score to [0, 100].
func Clamp100(v float64) float64 {
	return Clamp(v, 0, 100)
}

func orZero(v float64, err error) float64 {
	if err != nil || !IsFinite(v) {
		return 0
	}
	return v
}
