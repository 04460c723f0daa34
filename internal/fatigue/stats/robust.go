package stats

import (
	"math"

	mstats "github.com/montanaflynn/stats"
)

const (
	// madScale converts a MAD into a normal-consistent z (Iglewicz & Hoaglin).
	madScale = 0.6745
	// meanADScale is used when MAD is zero.
	meanADScale = 1.253314
)

// ModifiedZScores returns the robust z-score of each value:
// 0.6745·(x − median) / MAD. When MAD is zero (more than half the values are
// identical) the mean absolute deviation form is used instead. If both are
// zero every score is 0.
func ModifiedZScores(xs []float64) []float64 {
	scores := make([]float64, len(xs))
	if len(xs) == 0 {
		return scores
	}

	median := Median(xs)
	mad := orZero(mstats.MedianAbsoluteDeviation(xs))
	if mad > Epsilon {
		for i, x := range xs {
			scores[i] = madScale * (x - median) / mad
		}
		return scores
	}

	var sumAbs float64
	for _, x := range xs {
		sumAbs += math.Abs(x - median)
	}
	meanAD := sumAbs / float64(len(xs))
	if meanAD < Epsilon {
		return scores
	}
	for i, x := range xs {
		scores[i] = (x - median) / (meanADScale * meanAD)
	}
	return scores
}

// CohensD is the standardized mean difference between b and a using the
// pooled standard deviation. fallbackSD is used when the pooled SD is ~0
// (e.g. each group is constant); with no usable SD the result is 0.
func CohensD(a, b []float64, fallbackSD float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	diff := Mean(b) - Mean(a)

	na, nb := float64(len(a)), float64(len(b))
	var pooled float64
	if dof := na + nb - 2; dof > 0 {
		pooled = math.Sqrt(((na-1)*Variance(a) + (nb-1)*Variance(b)) / dof)
	}
	if pooled < Epsilon {
		pooled = fallbackSD
	}
	return SafeDiv(diff, pooled, 0)
}
