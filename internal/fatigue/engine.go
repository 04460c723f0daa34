// Package fatigue is the orchestrator of the fatigue engine. It composes the
// data-quality pipeline, the interference model, change-point detection and
// the personalization model into the assessments the service exposes.
//
// Everything here is pure: no I/O, no goroutines, no shared mutable state.
// Callers materialize history before calling in.
package fatigue

import (
	"github.com/2beens/gymfatigue/internal/fatigue/changepoint"
	"github.com/2beens/gymfatigue/internal/fatigue/cleaning"
	"github.com/2beens/gymfatigue/internal/fatigue/hierarchical"
	"github.com/2beens/gymfatigue/internal/fatigue/interference"
	"github.com/2beens/gymfatigue/internal/fatigue/rpecal"
	"github.com/2beens/gymfatigue/internal/fatigue/sequential"
	"github.com/2beens/gymfatigue/internal/fatigue/workload"
	"github.com/2beens/gymfatigue/internal/fatigue/workout"

	log "github.com/sirupsen/logrus"
)

type Cleaner interface {
	Clean(sets []workout.Set) ([]workout.Set, cleaning.Report)
}

type ChangePointDetector interface {
	Analyze(series []float64, metric changepoint.Metric) changepoint.Analysis
}

type Personalizer interface {
	Build(userID string, history []workout.Workout) *hierarchical.Model
}

// EngineParams selects the optional sub-models. Nil fields fall back to
// no-op implementations, so a zero EngineParams gives the plain
// interference-only engine.
type EngineParams struct {
	Cleaner      Cleaner
	ChangePoints ChangePointDetector
	Personalizer Personalizer
	Graph        *interference.Graph
	Catalog      *workout.Catalog
}

type Engine struct {
	cleaner      Cleaner
	changePoints ChangePointDetector
	personalizer Personalizer
	aggregator   *interference.Aggregator
	catalog      *workout.Catalog
}

func NewEngine(params EngineParams) *Engine {
	e := &Engine{
		cleaner:      params.Cleaner,
		changePoints: params.ChangePoints,
		personalizer: params.Personalizer,
		aggregator:   interference.NewAggregator(params.Graph, params.Catalog),
	}
	e.catalog = e.aggregator.Catalog()

	if e.cleaner == nil {
		e.cleaner = passthroughCleaner{}
	}
	if e.changePoints == nil {
		e.changePoints = noChangePoints{}
	}
	if e.personalizer == nil {
		e.personalizer = populationPersonalizer{}
	}
	return e
}

// NewDefaultEngine wires every sub-model with its standard implementation.
func NewDefaultEngine() *Engine {
	return NewEngine(EngineParams{
		Cleaner:      cleaning.NewPipeline(),
		ChangePoints: changepoint.NewDetector(),
		Personalizer: HierarchicalPersonalizer{},
	})
}

// AssessFatigue scores the muscle trained by the upcoming exercise from the
// sets completed so far in the session. No history is needed.
func (e *Engine) AssessFatigue(upcomingExerciseID string, completedSets []workout.Set) Alert {
	sets, report := e.CleanSession(completedSets)
	return e.assess(upcomingExerciseID, sets, report)
}

// AssessFatigueEnhanced adds the user's hierarchical model to the basic
// assessment. The model is only used with at least 3 historical workouts
// and 30 historical sets; otherwise the result equals AssessFatigue.
func (e *Engine) AssessFatigueEnhanced(
	upcomingExerciseID string,
	completedSets []workout.Set,
	userID string,
	history []workout.Workout,
) EnhancedAssessment {
	sets, report := e.CleanSession(completedSets)
	basic := e.assess(upcomingExerciseID, sets, report)
	result := EnhancedAssessment{Alert: basic}

	history = e.CleanHistory(history)
	if len(history) < hierarchical.MinWorkouts || workout.TotalSets(history) < hierarchical.MinSets {
		log.Debugf("fatigue: user [%s] has %d workouts / %d sets, using basic assessment",
			userID, len(history), workout.TotalSets(history))
		return result
	}

	model := e.personalizer.Build(userID, history)
	if model == nil || model.PopulationDefaults {
		log.Debugf("fatigue: no personal model for user [%s], using basic assessment", userID)
		return result
	}
	return e.enhance(result, model, upcomingExerciseID, sets)
}

// AssessWithModel is AssessFatigueEnhanced for callers that cache the built
// model for the duration of a session. A nil or population model yields the
// basic assessment.
func (e *Engine) AssessWithModel(
	upcomingExerciseID string,
	completedSets []workout.Set,
	model *hierarchical.Model,
) EnhancedAssessment {
	sets, report := e.CleanSession(completedSets)
	result := EnhancedAssessment{Alert: e.assess(upcomingExerciseID, sets, report)}
	if model == nil || model.PopulationDefaults || model.TotalSamples < hierarchical.MinSets {
		return result
	}
	return e.enhance(result, model, upcomingExerciseID, sets)
}

// BuildModel builds the personalization model through the configured
// personalizer, from the cleaned history.
func (e *Engine) BuildModel(userID string, history []workout.Workout) *hierarchical.Model {
	history = e.CleanHistory(history)
	if len(history) < hierarchical.MinWorkouts {
		return hierarchical.PopulationModel(userID)
	}
	m := e.personalizer.Build(userID, history)
	if m == nil {
		return hierarchical.PopulationModel(userID)
	}
	return m
}

// AnalyzeRPECalibration cleans sets and compares actual against prescribed
// RPE, merging with profile when one exists.
func (e *Engine) AnalyzeRPECalibration(sets []workout.Set, exerciseID string, profile *rpecal.Profile) rpecal.Calibration {
	cleaned, _ := e.cleaner.Clean(sets)
	return rpecal.Analyze(cleaned, exerciseID, profile)
}

// CalculateACWR reports workload health from daily loads.
func (e *Engine) CalculateACWR(loads []workload.DailyLoad) workload.Metrics {
	return workload.CalculateACWR(loads)
}

// DailyLoads sums the cleaned load of history per calendar day.
func (e *Engine) DailyLoads(history []workout.Workout) []workload.DailyLoad {
	return workload.DailyLoads(e.CleanHistory(history))
}

// MuscleLoads splits the load of already cleaned sets by primary muscle.
func (e *Engine) MuscleLoads(cleaned []workout.Set) map[workout.Muscle]float64 {
	return workload.MuscleLoads(cleaned, e.catalog)
}

// CleanSession keeps the completed sets of one session that pass the
// data-quality pipeline. The session is cleaned as one sample.
func (e *Engine) CleanSession(sets []workout.Set) ([]workout.Set, cleaning.Report) {
	return e.cleaner.Clean(workout.CompletedOnly(sets))
}

// CleanHistory runs each workout through the pipeline as its own sample.
// Exercises and workouts left without sets are dropped.
func (e *Engine) CleanHistory(history []workout.Workout) []workout.Workout {
	out := make([]workout.Workout, 0, len(history))
	for _, w := range history {
		kept, _ := e.cleaner.Clean(w.AllSets())
		if len(kept) == 0 {
			continue
		}

		cleaned := workout.Workout{ID: w.ID, Date: w.Date}
		k := 0
		for _, ex := range w.Exercises {
			exLog := workout.ExerciseLog{ExerciseID: ex.ExerciseID, Name: ex.Name}
			for _, set := range ex.Sets {
				// kept is an ordered subsequence of AllSets
				if k < len(kept) && kept[k] == set {
					exLog.Sets = append(exLog.Sets, set)
					k++
				}
			}
			if len(exLog.Sets) > 0 {
				cleaned.Exercises = append(cleaned.Exercises, exLog)
			}
		}
		out = append(out, cleaned)
	}
	return out
}

// ObserveSet feeds one set into a session accumulator. Sets the cleaner
// rejects leave the belief unchanged.
func (e *Engine) ObserveSet(est *sequential.Estimator, s workout.Set) (sequential.Estimate, error) {
	if est.State() == sequential.StateClosed {
		return sequential.Estimate{}, sequential.ErrSessionClosed
	}
	kept, _ := e.cleaner.Clean([]workout.Set{s})
	if len(kept) == 0 {
		return est.Current(), nil
	}
	return est.Update(kept[0])
}

// MuscleFor resolves the primary muscle of an exercise.
func (e *Engine) MuscleFor(exerciseID string) workout.Muscle {
	return e.catalog.Lookup(exerciseID, "").Muscle
}

// Catalog is the exercise catalog the engine classifies with.
func (e *Engine) Catalog() *workout.Catalog {
	return e.catalog
}

type passthroughCleaner struct{}

func (passthroughCleaner) Clean(sets []workout.Set) ([]workout.Set, cleaning.Report) {
	out := make([]workout.Set, len(sets))
	copy(out, sets)
	return out, cleaning.Report{
		Input:   len(sets),
		Kept:    len(sets),
		Quality: cleaning.QualityExcellent,
	}
}

type noChangePoints struct{}

func (noChangePoints) Analyze(_ []float64, metric changepoint.Metric) changepoint.Analysis {
	return changepoint.Analysis{
		Metric:       metric,
		ChangePoints: []changepoint.ChangePoint{},
	}
}

type populationPersonalizer struct{}

func (populationPersonalizer) Build(userID string, _ []workout.Workout) *hierarchical.Model {
	return hierarchical.PopulationModel(userID)
}

// HierarchicalPersonalizer builds the empirical-Bayes model from history.
type HierarchicalPersonalizer struct{}

func (HierarchicalPersonalizer) Build(userID string, history []workout.Workout) *hierarchical.Model {
	return hierarchical.Build(userID, history)
}
