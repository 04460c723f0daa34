package fatigue

import (
	"fmt"
	"math"
	"sort"

	"github.com/2beens/gymfatigue/internal/fatigue/changepoint"
	"github.com/2beens/gymfatigue/internal/fatigue/cleaning"
	"github.com/2beens/gymfatigue/internal/fatigue/hierarchical"
	"github.com/2beens/gymfatigue/internal/fatigue/interference"
	"github.com/2beens/gymfatigue/internal/fatigue/stats"
	"github.com/2beens/gymfatigue/internal/fatigue/workout"
)

type Action string

const (
	ActionContinue     Action = "continue"
	ActionReduceLoad   Action = "reduce_load"
	ActionReduceVolume Action = "reduce_volume"
	ActionStop         Action = "stop"
)

const (
	baseConfidence   = 0.5
	perSetConfidence = 0.05
	maxConfidence    = 0.9
	// modelWeight is the largest share a fully confident personal model
	// gets when blended with the interference score.
	modelWeight     = 0.5
	maxReasonedSets = 3
)

// Alert is the basic, interference-based assessment for the next exercise.
type Alert struct {
	UpcomingExerciseID string                         `json:"upcomingExerciseId"`
	TargetMuscle       workout.Muscle                 `json:"targetMuscle"`
	HasFatigue         bool                           `json:"hasFatigue"`
	Fatigue            float64                        `json:"fatigue"`
	Tier               interference.Tier              `json:"tier"`
	Action             Action                         `json:"action"`
	LoadReductionPct   float64                        `json:"loadReductionPct"`
	Confidence         float64                        `json:"confidence"`
	Contributing       []interference.ContributingSet `json:"contributing"`
	Reasoning          []string                       `json:"reasoning"`
	CriticalMoment     bool                           `json:"criticalMoment"`
	RPEChangePoints    changepoint.Analysis           `json:"rpeChangePoints"`
	VelocityChanges    changepoint.Analysis           `json:"velocityChanges"`
	DataQuality        cleaning.Report                `json:"dataQuality"`
}

// EnhancedAssessment is the basic alert, adjusted by the user's
// personalization model when one could be used.
type EnhancedAssessment struct {
	Alert
	UsingHierarchicalModel bool                     `json:"usingHierarchicalModel"`
	InterferenceFatigue    float64                  `json:"interferenceFatigue,omitempty"`
	Prediction             *hierarchical.Prediction `json:"prediction,omitempty"`
	UserResistance         float64                  `json:"userResistance,omitempty"`
	UserRecoveryRate       float64                  `json:"userRecoveryRate,omitempty"`
	ModelConfidence        float64                  `json:"modelConfidence,omitempty"`
	ModelConverged         bool                     `json:"modelConverged,omitempty"`
}

func (e *Engine) assess(upcomingExerciseID string, sets []workout.Set, report cleaning.Report) Alert {
	muscle := e.catalog.Lookup(upcomingExerciseID, "").Muscle
	if len(sets) == 0 {
		return neutralAlert(upcomingExerciseID, muscle, report)
	}

	score := e.aggregator.Score(muscle, sets)
	rpe := e.changePoints.Analyze(workout.RPESeries(sets), changepoint.MetricRPE)
	velocity := e.changePoints.Analyze(workout.VelocityProxy(sets), changepoint.MetricVelocity)

	a := Alert{
		UpcomingExerciseID: upcomingExerciseID,
		TargetMuscle:       muscle,
		Contributing:       score.Contributing,
		CriticalMoment:     rpe.Critical || velocity.Critical,
		RPEChangePoints:    rpe,
		VelocityChanges:    velocity,
		DataQuality:        report,
		Confidence:         setConfidence(len(sets), report.Quality),
	}
	a.applyFatigue(score.Fatigue)

	a.Reasoning = append(a.Reasoning, fmt.Sprintf("%s fatigue is %.0f/100 (%s) after %d sets.",
		muscle, score.Fatigue, score.Tier, len(sets)))
	for _, c := range topContributors(score.Contributing) {
		a.Reasoning = append(a.Reasoning, fmt.Sprintf("Set %d of %s added %.1f (interference %.2f from %s).",
			c.SetIndex+1, c.ExerciseID, c.Contribution, c.Interference, c.Source))
	}
	if a.CriticalMoment {
		a.Reasoning = append(a.Reasoning, criticalReason(rpe, velocity))
	}
	if report.Removed() > 0 {
		a.Reasoning = append(a.Reasoning, fmt.Sprintf("%d of %d sets were ignored as unreliable.", report.Removed(), report.Input))
	}
	return a
}

func (e *Engine) enhance(
	result EnhancedAssessment,
	model *hierarchical.Model,
	upcomingExerciseID string,
	sets []workout.Set,
) EnhancedAssessment {
	updated, sess := model.Replay(sets)
	pred := updated.Predict(upcomingExerciseID, sess)

	w := modelWeight * stats.Clamp(model.Confidence, 0, 1)
	interferenceFatigue := result.Fatigue
	combined := stats.Clamp100((1-w)*interferenceFatigue + w*pred.Fatigue)

	result.UsingHierarchicalModel = true
	result.InterferenceFatigue = interferenceFatigue
	result.Prediction = &pred
	result.UserResistance = model.Resistance
	result.UserRecoveryRate = model.RecoveryRate
	result.ModelConfidence = model.Confidence
	result.ModelConverged = model.Converged

	if len(sets) == 0 {
		return result
	}

	result.applyFatigue(combined)
	result.Confidence = math.Min(maxConfidence, result.Confidence+(1-result.Confidence)*w)
	result.Reasoning = append(result.Reasoning,
		fmt.Sprintf("Personal model predicts %.0f/100 (95%% interval %.0f-%.0f) for the next set; blended score %.0f.",
			pred.Fatigue, pred.Lower, pred.Upper, combined))
	return result
}

// applyFatigue sets the score, tier and action, honouring a critical moment.
func (a *Alert) applyFatigue(fatigue float64) {
	a.Fatigue = stats.Clamp100(fatigue)
	a.Tier = interference.TierFor(a.Fatigue)
	a.HasFatigue = a.Tier != interference.TierNone || a.CriticalMoment
	a.LoadReductionPct = a.Tier.SuggestedLoadReduction()
	a.Action = actionFor(a.Tier)
	if a.CriticalMoment {
		a.Action = ActionStop
	}
}

func actionFor(tier interference.Tier) Action {
	switch tier {
	case interference.TierMild, interference.TierModerate:
		return ActionReduceLoad
	case interference.TierHigh:
		return ActionReduceVolume
	case interference.TierSevere:
		return ActionStop
	default:
		return ActionContinue
	}
}

func setConfidence(n int, quality cleaning.Quality) float64 {
	c := math.Min(maxConfidence, baseConfidence+perSetConfidence*float64(n))
	switch quality {
	case cleaning.QualityGood:
		c *= 0.9
	case cleaning.QualityPoor:
		c *= 0.7
	}
	return c
}

func topContributors(cs []interference.ContributingSet) []interference.ContributingSet {
	top := make([]interference.ContributingSet, len(cs))
	copy(top, cs)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Contribution > top[j].Contribution
	})
	if len(top) > maxReasonedSets {
		top = top[:maxReasonedSets]
	}
	return top
}

func criticalReason(rpe, velocity changepoint.Analysis) string {
	if rpe.Critical && rpe.CriticalPoint != nil {
		return fmt.Sprintf("RPE jumped by %.1f at set %d: sudden fatigue spike, stop this exercise.",
			rpe.CriticalPoint.Magnitude, rpe.CriticalPoint.Index+1)
	}
	if velocity.CriticalPoint != nil {
		return fmt.Sprintf("Rep speed dropped sharply at set %d: sudden fatigue spike, stop this exercise.",
			velocity.CriticalPoint.Index+1)
	}
	return "Sudden fatigue spike detected, stop this exercise."
}

func neutralAlert(upcomingExerciseID string, muscle workout.Muscle, report cleaning.Report) Alert {
	return Alert{
		UpcomingExerciseID: upcomingExerciseID,
		TargetMuscle:       muscle,
		Tier:               interference.TierNone,
		Action:             ActionContinue,
		Contributing:       []interference.ContributingSet{},
		Reasoning:          []string{},
		RPEChangePoints:    changepoint.Analysis{Metric: changepoint.MetricRPE, ChangePoints: []changepoint.ChangePoint{}},
		VelocityChanges:    changepoint.Analysis{Metric: changepoint.MetricVelocity, ChangePoints: []changepoint.ChangePoint{}},
		DataQuality:        report,
	}
}
