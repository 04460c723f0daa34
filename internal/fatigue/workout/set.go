package workout

import (
	"math"
	"time"
)

const kgToLb = 2.20462

type WeightUnit string

const (
	UnitLb WeightUnit = "lb"
	UnitKg WeightUnit = "kg"
)

// Set is a single completed-set observation, as logged by the client app.
// The engine never mutates a Set; it always works on copies.
type Set struct {
	ExerciseID     string        `json:"exerciseId"`
	ExerciseName   string        `json:"exerciseName,omitempty"`
	Completed      bool          `json:"completed"`
	ActualReps     int           `json:"actualReps"`
	ActualWeight   float64       `json:"actualWeight"`
	WeightUnit     WeightUnit    `json:"weightUnit"`
	ActualRPE      float64       `json:"actualRpe"`
	TargetRPE      float64       `json:"targetRpe"`
	RIR            *int          `json:"rir,omitempty"`
	ReachedFailure bool          `json:"reachedFailure"`
	FormBreakdown  bool          `json:"formBreakdown"`
	Duration       time.Duration `json:"duration"`
	Timestamp      time.Time     `json:"timestamp"`
	SetIndex       int           `json:"setIndex"`
}

// WeightLb returns the set weight as lb-equivalent. It is only used to
// normalize load, not for display.
func (s Set) WeightLb() float64 {
	if s.WeightUnit == UnitKg {
		return s.ActualWeight * kgToLb
	}
	return s.ActualWeight
}

// HasRPE reports whether an effort rating was recorded for the set.
func (s Set) HasRPE() bool {
	return s.ActualRPE > 0 && !math.IsNaN(s.ActualRPE)
}

// HasTarget reports whether a prescribed effort rating exists.
func (s Set) HasTarget() bool {
	return s.TargetRPE > 0 && !math.IsNaN(s.TargetRPE)
}

// EffectiveRPE returns the recorded RPE, or one derived from reps in reserve
// (RPE = 10 - RIR). ok is false when neither is available.
func (s Set) EffectiveRPE() (rpe float64, ok bool) {
	if s.HasRPE() {
		return s.ActualRPE, true
	}
	if s.RIR != nil && *s.RIR >= 0 {
		rpe = 10 - float64(*s.RIR)
		if rpe < 1 {
			rpe = 1
		}
		return rpe, true
	}
	return 0, false
}

// Overshoot is how far the actual RPE landed above the prescribed one.
// Zero when either rating is missing or the set was easier than planned.
func (s Set) Overshoot() float64 {
	if !s.HasRPE() || !s.HasTarget() {
		return 0
	}
	if d := s.ActualRPE - s.TargetRPE; d > 0 {
		return d
	}
	return 0
}

// SecondsPerRep is the average rep duration, or 0 if timing was not logged.
func (s Set) SecondsPerRep() float64 {
	if s.Duration <= 0 || s.ActualReps <= 0 {
		return 0
	}
	return s.Duration.Seconds() / float64(s.ActualReps)
}

// CompletedOnly filters out sets that were not completed.
func CompletedOnly(sets []Set) []Set {
	out := make([]Set, 0, len(sets))
	for _, s := range sets {
		if s.Completed {
			out = append(out, s)
		}
	}
	return out
}

// RPESeries returns the recorded effort ratings in order, skipping sets
// without one.
func RPESeries(sets []Set) []float64 {
	series := make([]float64, 0, len(sets))
	for _, s := range sets {
		if s.HasRPE() {
			series = append(series, s.ActualRPE)
		}
	}
	return series
}

// VelocityProxy returns reps per second for each timed set. Falling values
// mean the lifter is slowing down.
func VelocityProxy(sets []Set) []float64 {
	series := make([]float64, 0, len(sets))
	for _, s := range sets {
		if spr := s.SecondsPerRep(); spr > 0 {
			series = append(series, 1/spr)
		}
	}
	return series
}
