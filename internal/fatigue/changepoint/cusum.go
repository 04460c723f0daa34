// Package changepoint finds abrupt shifts in a session's effort or velocity
// series with a CUSUM control chart.
package changepoint

import (
	"math"

	"github.com/2beens/gymfatigue/internal/fatigue/stats"
)

const (
	MinSeriesLength = 4
	// DefaultThresholdSD is the CUSUM divergence, in standard deviations,
	// that makes a split worth testing.
	DefaultThresholdSD = 1.5
	DefaultMinEffect   = 0.5
	maxConfidence      = 0.95
	// criticalWindow is how many trailing observations count as "just now".
	criticalWindow = 2
)

type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
)

// Metric says which way a series moves when the lifter tires.
type Metric string

const (
	MetricRPE      Metric = "rpe"
	MetricVelocity Metric = "velocity"
)

func (m Metric) fatigueDirection() Direction {
	if m == MetricVelocity {
		return DirectionDecrease
	}
	return DirectionIncrease
}

type ChangePoint struct {
	// Index is the first observation of the new regime.
	Index      int       `json:"index"`
	Magnitude  float64   `json:"magnitude"`
	Direction  Direction `json:"direction"`
	EffectSize float64   `json:"effectSize"`
	Confidence float64   `json:"confidence"`
}

type Analysis struct {
	Metric       Metric        `json:"metric"`
	ChangePoints []ChangePoint `json:"changePoints"`
	Trend        stats.Trend   `json:"trend"`
	// Critical is set when a fatigue-direction change point landed on one of
	// the last two observations.
	Critical      bool         `json:"critical"`
	CriticalPoint *ChangePoint `json:"criticalPoint,omitempty"`
}

type Detector struct {
	thresholdSD float64
	minEffect   float64
}

func NewDetector() *Detector {
	return &Detector{
		thresholdSD: DefaultThresholdSD,
		minEffect:   DefaultMinEffect,
	}
}

// Detect scans series and returns every reported change point in order.
// Series shorter than four points, or with no spread, have none.
func (d *Detector) Detect(series []float64) []ChangePoint {
	xs := stats.Finite(series)
	points := make([]ChangePoint, 0)
	if len(xs) < MinSeriesLength {
		return points
	}

	mean := stats.Mean(xs)
	sd := stats.StdDev(xs)
	if sd < stats.Epsilon {
		return points
	}
	h := d.thresholdSD * sd

	var cusum, lo, hi float64
	loIdx, hiIdx := -1, -1
	segStart := 0
	for i, x := range xs {
		cusum += x - mean

		split, dir := -1, Direction("")
		switch {
		case cusum-lo > h:
			split, dir = loIdx+1, DirectionIncrease
		case hi-cusum > h:
			split, dir = hiIdx+1, DirectionDecrease
		}

		if split > segStart && split <= i {
			before, after := xs[segStart:split], xs[split:i+1]
			effect := stats.CohensD(before, after, sd)
			if (dir == DirectionIncrease && effect > d.minEffect) ||
				(dir == DirectionDecrease && -effect > d.minEffect) {
				points = append(points, ChangePoint{
					Index:      split,
					Magnitude:  math.Abs(stats.Mean(after) - stats.Mean(before)),
					Direction:  dir,
					EffectSize: math.Abs(effect),
					Confidence: math.Min(maxConfidence, 1-math.Exp(-math.Abs(effect))),
				})
				segStart = split
				cusum, lo, hi = 0, 0, 0
				loIdx, hiIdx = i, i
				continue
			}
		}

		if cusum < lo {
			lo, loIdx = cusum, i
		}
		if cusum > hi {
			hi, hiIdx = cusum, i
		}
	}
	return points
}

// Analyze detects change points and the linear trend of series, and marks
// the result critical when a fatigue-direction shift is in the last two
// observations.
func (d *Detector) Analyze(series []float64, metric Metric) Analysis {
	points := d.Detect(series)
	a := Analysis{
		Metric:       metric,
		ChangePoints: points,
		Trend:        stats.LinearTrend(series),
	}

	n := len(stats.Finite(series))
	want := metric.fatigueDirection()
	for i := len(points) - 1; i >= 0; i-- {
		cp := points[i]
		if cp.Direction == want && cp.Index >= n-criticalWindow {
			a.Critical = true
			a.CriticalPoint = &cp
			break
		}
	}
	return a
}
