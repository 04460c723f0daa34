package stats_test

import (
	"math"
	"testing"

	"github.com/2beens/gymfatigue/internal/fatigue/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	s := stats.Describe([]float64{2, 4, 4, 4, 5, 5, 7, 9, math.NaN()})
	assert.Equal(t, 8, s.N)
	assert.InDelta(t, 5.0, s.Mean, 1e-9)
	assert.InDelta(t, 4.5, s.Median, 1e-9)
	assert.InDelta(t, 32.0/7.0, s.Variance, 1e-9)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
}

func TestDescribe_Empty(t *testing.T) {
	assert.Equal(t, stats.Summary{}, stats.Describe(nil))
	assert.Equal(t, 0.0, stats.Variance([]float64{3}))
	assert.Equal(t, 0.0, stats.StdDev(nil))
}

func TestSafeDivAndClamp(t *testing.T) {
	assert.Equal(t, 7.0, stats.SafeDiv(1, 0, 7))
	assert.Equal(t, 0.5, stats.SafeDiv(1, 2, 7))
	assert.Equal(t, 0.0, stats.Clamp(math.NaN(), 0, 1))
	assert.Equal(t, 100.0, stats.Clamp100(250))
	assert.Equal(t, 0.0, stats.Clamp100(-3))
}

func TestModifiedZScores(t *testing.T) {
	scores := stats.ModifiedZScores([]float64{7, 7.5, 8, 7, 8.5, 7.5, 1})
	require.Len(t, scores, 7)
	assert.Greater(t, math.Abs(scores[6]), 3.5)
	for _, s := range scores[:6] {
		assert.Less(t, math.Abs(s), 3.5)
	}
}

func TestModifiedZScores_ZeroMADFallsBack(t *testing.T) {
	scores := stats.ModifiedZScores([]float64{7, 7, 7, 7, 9.5})
	assert.Equal(t, 0.0, scores[0])
	assert.InDelta(t, 2.5/(1.253314*0.5), scores[4], 1e-6)

	constant := stats.ModifiedZScores([]float64{5, 5, 5})
	assert.Equal(t, []float64{0, 0, 0}, constant)
}

func TestCohensD(t *testing.T) {
	d := stats.CohensD([]float64{1, 2, 3}, []float64{4, 5, 6}, 0)
	assert.InDelta(t, 3.0, d, 1e-9)

	// constant groups use the fallback SD
	d = stats.CohensD([]float64{7, 7, 7}, []float64{9.5, 9.5}, 2.5)
	assert.InDelta(t, 1.0, d, 1e-9)
	assert.Equal(t, 0.0, stats.CohensD([]float64{7, 7}, []float64{9, 9}, 0))
}

func TestUpdateMean(t *testing.T) {
	prior := stats.Normal{Mean: 0, Variance: 1}
	post := stats.UpdateMean(prior, []float64{2, 2, 2, 2}, 1)
	// prior precision 1, data precision 4
	assert.InDelta(t, 8.0/5.0, post.Mean, 1e-9)
	assert.InDelta(t, 0.2, post.Variance, 1e-9)
	assert.InDelta(t, post.Mean-1.959964*math.Sqrt(0.2), post.Lower, 1e-4)
	assert.Equal(t, 4, post.N)

	noData := stats.UpdateMean(prior, nil, 1)
	assert.Equal(t, 0.0, noData.Mean)
	assert.Equal(t, 1.0, noData.Variance)

	flatPrior := stats.UpdateMean(stats.Normal{}, []float64{3, 5}, 2)
	assert.InDelta(t, 4.0, flatPrior.Mean, 1e-9)
	assert.InDelta(t, 1.0, flatPrior.Variance, 1e-9)
}

func TestPrecisionWeighted(t *testing.T) {
	merged := stats.PrecisionWeighted(stats.Normal{Mean: 0, Variance: 1}, stats.Normal{Mean: 10, Variance: 1})
	assert.InDelta(t, 5.0, merged.Mean, 1e-9)
	assert.InDelta(t, 0.5, merged.Variance, 1e-9)
}

func TestEMA(t *testing.T) {
	assert.Nil(t, stats.EMA(nil, 0.5))
	out := stats.EMA([]float64{10, 20, 20}, 0.5)
	assert.Equal(t, []float64{10, 15, 17.5}, out)
}

func TestLinearTrend(t *testing.T) {
	tr := stats.LinearTrend([]float64{6, 6.5, 7, 7.5, 8})
	assert.InDelta(t, 0.5, tr.Slope, 1e-9)
	assert.InDelta(t, 6.0, tr.Intercept, 1e-9)
	assert.InDelta(t, 1.0, tr.RSquared, 1e-9)
	assert.Equal(t, stats.TrendIncreasing, tr.Direction)

	flat := stats.LinearTrend([]float64{7, 7, 7, 7})
	assert.Equal(t, stats.TrendFlat, flat.Direction)
	assert.Equal(t, 0.0, flat.RSquared)

	short := stats.LinearTrend([]float64{1, 9})
	assert.Equal(t, stats.TrendFlat, short.Direction)
}
