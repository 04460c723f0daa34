// Package rpecal tells a lifter whether their effort ratings run
// systematically above or below the prescribed targets.
package rpecal

import (
	"fmt"
	"math"
	"time"

	"github.com/2beens/gymfatigue/internal/fatigue/stats"
	"github.com/2beens/gymfatigue/internal/fatigue/workout"
)

const (
	adjustBias          = 1.5
	adjustConfidence    = 0.65
	confidenceK         = 5.0
	weightPctPerPoint   = 4.0
	maxWeightDecreasePc = -15.0
	maxWeightIncreasePc = 10.0

	// session-only fallback
	fallbackMinSets        = 3
	fallbackBias           = 2.0
	fallbackBaseConfidence = 0.35
	fallbackPerSet         = 0.07
	fallbackMaxConfidence  = 0.7

	// minDeviationVariance keeps intervals honest when every deviation is
	// identical.
	minDeviationVariance = 0.25
)

type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
	DirectionNone     Direction = "none"
)

// Profile is the persisted per-user, per-exercise bias prior.
type Profile struct {
	UserID      string    `json:"userId"`
	ExerciseID  string    `json:"exerciseId"`
	BiasMean    float64   `json:"biasMean"`
	BiasSD      float64   `json:"biasSd"`
	SampleSize  int       `json:"sampleSize"`
	LastUpdated time.Time `json:"lastUpdated"`

	// LastSessionID is the session merged in last.
	LastSessionID string `json:"lastSessionId,omitempty"`
}

type Calibration struct {
	ExerciseID      string    `json:"exerciseId,omitempty"`
	SetsAnalyzed    int       `json:"setsAnalyzed"`
	SessionBias     float64   `json:"sessionBias"`
	PosteriorBias   float64   `json:"posteriorBias"`
	Lower           float64   `json:"lower"`
	Upper           float64   `json:"upper"`
	Confidence      float64   `json:"confidence"`
	NeedsAdjustment bool      `json:"needsAdjustment"`
	Direction       Direction `json:"direction"`
	// WeightChangePct is the suggested change to working weight, in percent.
	WeightChangePct float64  `json:"weightChangePct"`
	UsedHistory     bool     `json:"usedHistory"`
	Reasoning       []string `json:"reasoning"`
}

// Deviations returns actual − target RPE for every completed set of
// exerciseID (all exercises when empty) that has both ratings.
func Deviations(sets []workout.Set, exerciseID string) []float64 {
	out := make([]float64, 0, len(sets))
	for _, s := range sets {
		if !s.Completed || !s.HasRPE() || !s.HasTarget() {
			continue
		}
		if exerciseID != "" && s.ExerciseID != exerciseID {
			continue
		}
		out = append(out, s.ActualRPE-s.TargetRPE)
	}
	return stats.Finite(out)
}

// Analyze compares the session's ratings with their targets. With a prior
// profile the two are merged; without one a stricter session-only rule is
// used. No usable sets yields a neutral result.
func Analyze(sets []workout.Set, exerciseID string, profile *Profile) Calibration {
	devs := Deviations(sets, exerciseID)
	if len(devs) == 0 {
		return neutral(exerciseID)
	}
	if profile != nil && profile.SampleSize > 0 {
		return withHistory(devs, exerciseID, profile)
	}
	return sessionOnly(devs, exerciseID)
}

func withHistory(devs []float64, exerciseID string, p *Profile) Calibration {
	n := len(devs)
	mean, variance, total := merge(p.BiasMean, p.BiasSD*p.BiasSD, p.SampleSize, stats.Mean(devs), stats.Variance(devs), n)
	half := stats.CredibleZ95 * math.Sqrt(math.Max(variance, minDeviationVariance)/float64(total))
	confidence := float64(total) / (float64(total) + confidenceK)

	c := Calibration{
		ExerciseID:    exerciseID,
		SetsAnalyzed:  n,
		SessionBias:   stats.Mean(devs),
		PosteriorBias: mean,
		Lower:         mean - half,
		Upper:         mean + half,
		Confidence:    confidence,
		UsedHistory:   true,
		Direction:     DirectionNone,
	}
	c.Reasoning = append(c.Reasoning,
		fmt.Sprintf("This session: RPE %s target by %.1f on average over %d sets.", aboveBelow(c.SessionBias), math.Abs(c.SessionBias), n),
		fmt.Sprintf("History: %d sets with average bias %+.1f.", p.SampleSize, p.BiasMean),
	)
	if math.Abs(mean) > adjustBias && confidence > adjustConfidence {
		c.adjust()
	}
	return c
}

func sessionOnly(devs []float64, exerciseID string) Calibration {
	n := len(devs)
	mean := stats.Mean(devs)
	half := stats.CredibleZ95 * math.Sqrt(math.Max(stats.Variance(devs), minDeviationVariance)/float64(n))

	c := Calibration{
		ExerciseID:    exerciseID,
		SetsAnalyzed:  n,
		SessionBias:   mean,
		PosteriorBias: mean,
		Lower:         mean - half,
		Upper:         mean + half,
		Confidence:    math.Min(fallbackMaxConfidence, fallbackBaseConfidence+fallbackPerSet*float64(n)),
		Direction:     DirectionNone,
	}
	c.Reasoning = append(c.Reasoning,
		fmt.Sprintf("No calibration history; RPE %s target by %.1f on average over %d sets.", aboveBelow(mean), math.Abs(mean), n))

	if n < fallbackMinSets {
		c.Reasoning = append(c.Reasoning, fmt.Sprintf("Need at least %d rated sets before suggesting a change.", fallbackMinSets))
		return c
	}
	if !sameSign(devs) {
		c.Reasoning = append(c.Reasoning, "Deviations point in both directions.")
		return c
	}
	if math.Abs(mean) < fallbackBias {
		return c
	}
	c.adjust()
	return c
}

func (c *Calibration) adjust() {
	c.NeedsAdjustment = true
	c.Direction = DirectionIncrease
	if c.PosteriorBias > 0 {
		c.Direction = DirectionDecrease
	}
	c.WeightChangePct = stats.Clamp(-c.PosteriorBias*weightPctPerPoint*c.Confidence, maxWeightDecreasePc, maxWeightIncreasePc)
	c.Reasoning = append(c.Reasoning, fmt.Sprintf("Suggest %s weight by %.1f%%.", c.Direction, math.Abs(c.WeightChangePct)))
}

// UpdateProfile merges the session's deviations into the profile and
// returns the result. The sample size never shrinks.
func UpdateProfile(p *Profile, userID, exerciseID string, sets []workout.Set, now time.Time) Profile {
	var out Profile
	if p != nil {
		out = *p
	}
	out.UserID = userID
	out.ExerciseID = exerciseID

	devs := Deviations(sets, exerciseID)
	if len(devs) == 0 {
		return out
	}
	mean, variance, total := merge(out.BiasMean, out.BiasSD*out.BiasSD, out.SampleSize, stats.Mean(devs), stats.Variance(devs), len(devs))
	out.BiasMean = mean
	out.BiasSD = math.Sqrt(math.Max(variance, 0))
	out.SampleSize = total
	out.LastUpdated = now
	return out
}

// merge combines two samples given as (mean, sample variance, n) into one.
func merge(meanA, varA float64, nA int, meanB, varB float64, nB int) (mean, variance float64, n int) {
	n = nA + nB
	if nA <= 0 {
		return meanB, varB, nB
	}
	if nB <= 0 {
		return meanA, varA, nA
	}
	fa, fb, fn := float64(nA), float64(nB), float64(n)
	mean = (fa*meanA + fb*meanB) / fn
	if n < 2 {
		return mean, 0, n
	}
	delta := meanB - meanA
	ss := (fa-1)*varA + (fb-1)*varB + delta*delta*fa*fb/fn
	variance = stats.SafeDiv(ss, fn-1, 0)
	return mean, variance, n
}

func sameSign(xs []float64) bool {
	pos, neg := 0, 0
	for _, x := range xs {
		switch {
		case x > 0:
			pos++
		case x < 0:
			neg++
		default:
			return false
		}
	}
	return pos == 0 || neg == 0
}

func aboveBelow(bias float64) string {
	if bias < 0 {
		return "below"
	}
	return "above"
}

func neutral(exerciseID string) Calibration {
	return Calibration{
		ExerciseID: exerciseID,
		Direction:  DirectionNone,
		Reasoning:  []string{},
	}
}
