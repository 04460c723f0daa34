package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// CredibleZ95 is the two-sided 95% normal quantile.
var CredibleZ95 = distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.975)

// Normal is a normal belief about an unknown mean.
type Normal struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
}

type Posterior struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	N        int     `json:"n"`
}

// UpdateMean performs a conjugate normal update of prior with observations
// whose individual variance is obsVariance. With no observations, or a
// degenerate prior, the prior (or the plain sample mean) is returned.
func UpdateMean(prior Normal, observations []float64, obsVariance float64) Posterior {
	obs := Finite(observations)
	n := len(obs)

	if n == 0 {
		return newPosterior(prior.Mean, prior.Variance, 0)
	}
	if obsVariance < Epsilon {
		obsVariance = Epsilon
	}

	sampleMean := Mean(obs)
	if prior.Variance < Epsilon || !IsFinite(prior.Variance) {
		return newPosterior(sampleMean, obsVariance/float64(n), n)
	}

	priorPrecision := 1 / prior.Variance
	dataPrecision := float64(n) / obsVariance
	postPrecision := priorPrecision + dataPrecision

	mean := (prior.Mean*priorPrecision + sampleMean*dataPrecision) / postPrecision
	return newPosterior(mean, 1/postPrecision, n)
}

// PrecisionWeighted merges two estimates by inverse-variance weighting.
func PrecisionWeighted(a, b Normal) Normal {
	va, vb := math.Max(a.Variance, Epsilon), math.Max(b.Variance, Epsilon)
	pa, pb := 1/va, 1/vb
	return Normal{
		Mean:     (a.Mean*pa + b.Mean*pb) / (pa + pb),
		Variance: 1 / (pa + pb),
	}
}

func newPosterior(mean, variance float64, n int) Posterior {
	if !IsFinite(variance) || variance < 0 {
		variance = 0
	}
	half := CredibleZ95 * math.Sqrt(variance)
	return Posterior{
		Mean:     mean,
		Variance: variance,
		Lower:    mean - half,
		Upper:    mean + half,
		N:        n,
	}
}
