// Package cleaning filters logged sets before any fatigue computation.
package cleaning

import (
	"fmt"
	"math"

	"github.com/2beens/gymfatigue/internal/fatigue/stats"
	"github.com/2beens/gymfatigue/internal/fatigue/workout"
)

// Limits applied by the pipeline. Sets outside them never reach a fatigue
// computation.
const (
	MaxReps            = 100
	MaxWeightLb        = 1500
	MaxRIR             = 20
	OutlierZ           = 3.5
	OutlierMaxFraction = 0.30

	MaximalRPE        = 10
	MaximalRPEMaxReps = 15
	FailureMinRPE     = 6
	FailureMaxRIR     = 5
)

const (
	// minOutlierSample is the fewest ratings the outlier stage will judge.
	minOutlierSample = 5

	excellentRemovedFrc = 0.10
	goodRemovedFrc      = 0.25
)

type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityPoor      Quality = "poor"
)

type Stage string

const (
	StageImpossible    Stage = "impossible"
	StageOutlier       Stage = "outlier"
	StageContradictory Stage = "contradictory"
)

// Removal explains why one set was dropped.
type Removal struct {
	Stage    Stage  `json:"stage"`
	SetIndex int    `json:"setIndex"`
	Exercise string `json:"exercise"`
	Reason   string `json:"reason"`
}

type Report struct {
	Input                int       `json:"input"`
	Kept                 int       `json:"kept"`
	RemovedImpossible    int       `json:"removedImpossible"`
	RemovedOutliers      int       `json:"removedOutliers"`
	RemovedContradictory int       `json:"removedContradictory"`
	OutlierStageSkipped  bool      `json:"outlierStageSkipped"`
	Quality              Quality   `json:"quality"`
	Removals             []Removal `json:"removals,omitempty"`
}

func (r Report) Removed() int {
	return r.RemovedImpossible + r.RemovedOutliers + r.RemovedContradictory
}

// Pipeline runs the three cleaning stages, always in the same order.
type Pipeline struct{}

func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Clean returns the surviving sets (input order preserved) and a report.
// Nothing is ever surfaced as an error: bad records are dropped and counted.
// Cleaning an already cleaned slice removes nothing.
func (p *Pipeline) Clean(sets []workout.Set) ([]workout.Set, Report) {
	report := Report{Input: len(sets)}

	kept, impossible := p.dropImpossible(sets)
	// contradictory records are per-set facts; they must not skew the
	// rating median and MAD the outlier stage scores against
	kept, contradictory := p.dropContradictory(kept)
	kept, outliers, skipped := p.dropOutliers(kept)

	report.RemovedImpossible = len(impossible)
	report.RemovedOutliers = len(outliers)
	report.RemovedContradictory = len(contradictory)
	report.OutlierStageSkipped = skipped
	report.Removals = append(report.Removals, impossible...)
	report.Removals = append(report.Removals, outliers...)
	report.Removals = append(report.Removals, contradictory...)

	report.Kept = len(kept)
	report.Quality = qualityTier(report.Removed(), report.Input)
	return kept, report
}

func (p *Pipeline) dropImpossible(sets []workout.Set) ([]workout.Set, []Removal) {
	kept := make([]workout.Set, 0, len(sets))
	var removed []Removal
	for _, s := range sets {
		if reason := impossibleReason(s); reason != "" {
			removed = append(removed, removal(StageImpossible, s, reason))
			continue
		}
		kept = append(kept, s)
	}
	return kept, removed
}

func impossibleReason(s workout.Set) string {
	switch {
	case s.ActualReps < 0 || s.ActualReps > MaxReps:
		return fmt.Sprintf("reps %d out of range", s.ActualReps)
	case !stats.IsFinite(s.ActualWeight) || s.ActualWeight < 0 || s.WeightLb() > MaxWeightLb:
		return fmt.Sprintf("weight %.1f%s out of range", s.ActualWeight, s.WeightUnit)
	case !stats.IsFinite(s.ActualRPE) || s.ActualRPE < 0 || s.ActualRPE > 10:
		return fmt.Sprintf("rpe %.1f out of range", s.ActualRPE)
	case s.ActualRPE > 0 && s.ActualRPE < 1:
		return fmt.Sprintf("rpe %.1f below scale", s.ActualRPE)
	case !stats.IsFinite(s.TargetRPE) || s.TargetRPE < 0 || s.TargetRPE > 10:
		return fmt.Sprintf("target rpe %.1f out of range", s.TargetRPE)
	case s.RIR != nil && (*s.RIR < 0 || *s.RIR > MaxRIR):
		return fmt.Sprintf("rir %d out of range", *s.RIR)
	case s.Duration < 0:
		return "negative duration"
	}
	return ""
}

// dropOutliers removes effort ratings with |modified z| > 3.5, rescoring the
// survivors until nothing more is flagged. If that would remove 30% or more
// of the rated sets the sample itself is suspect and the stage is skipped.
func (p *Pipeline) dropOutliers(sets []workout.Set) ([]workout.Set, []Removal, bool) {
	rated := countRated(sets)
	kept := sets
	var removed []Removal
	for {
		next, flagged := flagOutliers(kept)
		if len(flagged) == 0 {
			break
		}
		removed = append(removed, flagged...)
		if float64(len(removed)) >= OutlierMaxFraction*float64(rated) {
			return sets, nil, true
		}
		kept = next
	}
	return kept, removed, false
}

// flagOutliers scores one pass over the rated sets.
func flagOutliers(sets []workout.Set) ([]workout.Set, []Removal) {
	var ratedIdx []int
	var ratings []float64
	for i, s := range sets {
		if s.HasRPE() {
			ratedIdx = append(ratedIdx, i)
			ratings = append(ratings, s.ActualRPE)
		}
	}
	if len(ratings) < minOutlierSample {
		return sets, nil
	}

	scores := stats.ModifiedZScores(ratings)
	flagged := make(map[int]float64)
	for j, z := range scores {
		if math.Abs(z) > OutlierZ {
			flagged[ratedIdx[j]] = z
		}
	}
	if len(flagged) == 0 {
		return sets, nil
	}

	kept := make([]workout.Set, 0, len(sets)-len(flagged))
	removed := make([]Removal, 0, len(flagged))
	for i, s := range sets {
		if z, ok := flagged[i]; ok {
			removed = append(removed,
				removal(StageOutlier, s, fmt.Sprintf("rpe %.1f has modified z %.2f", s.ActualRPE, z)))
			continue
		}
		kept = append(kept, s)
	}
	return kept, removed
}

func countRated(sets []workout.Set) int {
	n := 0
	for _, s := range sets {
		if s.HasRPE() {
			n++
		}
	}
	return n
}

func (p *Pipeline) dropContradictory(sets []workout.Set) ([]workout.Set, []Removal) {
	kept := make([]workout.Set, 0, len(sets))
	var removed []Removal
	for _, s := range sets {
		if reason := contradictionReason(s); reason != "" {
			removed = append(removed, removal(StageContradictory, s, reason))
			continue
		}
		kept = append(kept, s)
	}
	return kept, removed
}

func contradictionReason(s workout.Set) string {
	switch {
	case s.ActualRPE >= MaximalRPE && s.ActualReps > MaximalRPEMaxReps:
		return fmt.Sprintf("maximal rpe with %d reps looks like an entry error", s.ActualReps)
	case s.ReachedFailure && s.HasRPE() && s.ActualRPE < FailureMinRPE:
		return fmt.Sprintf("failure reported at rpe %.1f", s.ActualRPE)
	case s.ReachedFailure && s.RIR != nil && *s.RIR >= FailureMaxRIR:
		return fmt.Sprintf("failure reported with %d reps in reserve", *s.RIR)
	}
	return ""
}

func qualityTier(removed, input int) Quality {
	frac := stats.SafeDiv(float64(removed), float64(input), 0)
	switch {
	case frac < excellentRemovedFrc:
		return QualityExcellent
	case frac < goodRemovedFrc:
		return QualityGood
	default:
		return QualityPoor
	}
}

func removal(stage Stage, s workout.Set, reason string) Removal {
	return Removal{
		Stage:    stage,
		SetIndex: s.SetIndex,
		Exercise: s.ExerciseID,
		Reason:   reason,
	}
}
