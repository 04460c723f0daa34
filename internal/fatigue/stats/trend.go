package stats

import (
	"gonum.org/v1/gonum/stat"
)

type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendFlat       TrendDirection = "flat"
)

// flatSlope is the per-step slope under which a trend counts as flat.
const flatSlope = 0.05

type Trend struct {
	Slope     float64        `json:"slope"`
	Intercept float64        `json:"intercept"`
	RSquared  float64        `json:"rSquared"`
	Direction TrendDirection `json:"direction"`
}

// EMA returns the exponential moving average of xs with smoothing factor
// alpha in (0, 1]. The first value seeds the average.
func EMA(xs []float64, alpha float64) []float64 {
	if len(xs) == 0 {
		return nil
	}
	alpha = Clamp(alpha, Epsilon, 1)

	out := make([]float64, len(xs))
	out[0] = xs[0]
	for i := 1; i < len(xs); i++ {
		out[i] = alpha*xs[i] + (1-alpha)*out[i-1]
	}
	return out
}

// LinearTrend fits y = intercept + slope·i by least squares over the series
// index. Fewer than three points, or a constant series, yields a flat trend.
func LinearTrend(ys []float64) Trend {
	data := Finite(ys)
	if len(data) < 3 {
		return Trend{Direction: TrendFlat, Intercept: Mean(data)}
	}

	xs := make([]float64, len(data))
	for i := range xs {
		xs[i] = float64(i)
	}

	intercept, slope := stat.LinearRegression(xs, data, nil, false)
	if !IsFinite(slope) || !IsFinite(intercept) {
		return Trend{Direction: TrendFlat, Intercept: Mean(data)}
	}

	var r2 float64
	if Variance(data) > Epsilon {
		r2 = stat.RSquared(xs, data, nil, intercept, slope)
		if !IsFinite(r2) {
			r2 = 0
		}
	}

	dir := TrendFlat
	switch {
	case slope > flatSlope:
		dir = TrendIncreasing
	case slope < -flatSlope:
		dir = TrendDecreasing
	}

	return Trend{
		Slope:     slope,
		Intercept: intercept,
		RSquared:  r2,
		Direction: dir,
	}
}
