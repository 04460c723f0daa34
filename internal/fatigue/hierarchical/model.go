// Package hierarchical personalizes fatigue predictions with a three-level
// empirical-Bayes model: user, exercise and session.
package hierarchical

import (
	"math"
	"sort"

	"github.com/2beens/gymfatigue/internal/fatigue/stats"
	"github.com/2beens/gymfatigue/internal/fatigue/workout"
)

const (
	// MinWorkouts is the history needed before population defaults are left.
	MinWorkouts = 3
	// MinSets is the history the orchestrator requires to use the model.
	MinSets = 30

	PopulationRate       = 0.15
	PopulationResistance = 50.0
	PopulationRecovery   = 1.0
	// ShrinkageK is the sample size at which an exercise estimate is
	// weighted equally with the population mean.
	ShrinkageK = 10.0

	minExerciseSets     = 3
	defaultRateVariance = 0.01
	convergedSamples    = 30
	confidenceK         = 20.0
	maxConfidence       = 0.95
	minRecovery         = 0.5
	maxRecovery         = 1.5
	recoveryWindowDays  = 7.0
	recoveryBaseDays    = 2.0
	resistanceScale     = 200.0
)

// ExerciseFactor is the exercise-level estimate of per-set fatigue
// accumulation (RPE points / 10 gained per set).
type ExerciseFactor struct {
	ExerciseID string  `json:"exerciseId"`
	RawRate    float64 `json:"rawRate"`
	Rate       float64 `json:"rate"`
	Variance   float64 `json:"variance"`
	SampleSize int     `json:"sampleSize"`
	// Observations and M2 carry the running (Welford) variance of observed
	// set-to-set rates.
	Observations int     `json:"observations"`
	M2           float64 `json:"m2"`
}

// Model is the per-user personalization model. Build is pure; Update
// mutates and must only be called by the user's single writer.
type Model struct {
	UserID       string                    `json:"userId"`
	Resistance   float64                   `json:"resistance"`
	RecoveryRate float64                   `json:"recoveryRate"`
	Exercises    map[string]ExerciseFactor `json:"exercises"`
	TotalSamples int                       `json:"totalSamples"`
	Confidence   float64                   `json:"confidence"`
	Converged    bool                      `json:"converged"`
	// PopulationDefaults is set when history was too short to personalize.
	PopulationDefaults bool `json:"populationDefaults"`
}

// Shrink pulls a raw exercise rate toward the population mean with weight
// n/(n+10) on the raw value.
func Shrink(raw float64, n int) float64 {
	if n <= 0 || !stats.IsFinite(raw) {
		return PopulationRate
	}
	w := float64(n) / (float64(n) + ShrinkageK)
	return w*raw + (1-w)*PopulationRate
}

func PopulationModel(userID string) *Model {
	return &Model{
		UserID:             userID,
		Resistance:         PopulationResistance,
		RecoveryRate:       PopulationRecovery,
		Exercises:          make(map[string]ExerciseFactor),
		PopulationDefaults: true,
	}
}

// Build fits the model from a user's full workout history.
func Build(userID string, history []workout.Workout) *Model {
	if len(history) < MinWorkouts {
		return PopulationModel(userID)
	}
	sorted := workout.SortByDate(history)

	m := &Model{
		UserID:       userID,
		Resistance:   fatigueResistance(sorted),
		RecoveryRate: recoveryRate(sorted),
		Exercises:    exerciseFactors(sorted),
	}
	for _, w := range sorted {
		m.TotalSamples += len(workout.CompletedOnly(w.AllSets()))
	}
	m.refreshConfidence()
	return m
}

func (m *Model) Clone() *Model {
	c := *m
	c.Exercises = make(map[string]ExerciseFactor, len(m.Exercises))
	for k, v := range m.Exercises {
		c.Exercises[k] = v
	}
	return &c
}

// Factor returns the exercise estimate, or the population prior if the
// exercise has never been seen.
func (m *Model) Factor(exerciseID string) ExerciseFactor {
	if f, ok := m.Exercises[exerciseID]; ok {
		return f
	}
	return ExerciseFactor{
		ExerciseID: exerciseID,
		RawRate:    PopulationRate,
		Rate:       PopulationRate,
		Variance:   defaultRateVariance,
	}
}

// ExerciseIDs lists the exercises with their own factor, sorted.
func (m *Model) ExerciseIDs() []string {
	ids := make([]string, 0, len(m.Exercises))
	for id := range m.Exercises {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Model) refreshConfidence() {
	n := float64(m.TotalSamples)
	m.Confidence = math.Min(maxConfidence, n/(n+confidenceK))
	if m.TotalSamples >= convergedSamples {
		m.Converged = true
	}
}

// fatigueResistance scores how well reps and RPE hold across sets of one
// exercise within a workout: no drop-off is 100, a 50% drop-off is 0.
func fatigueResistance(history []workout.Workout) float64 {
	var dropoffs []float64
	for _, w := range history {
		for _, ex := range w.Exercises {
			sets := orderedCompleted(ex.Sets)
			if len(sets) < 2 {
				continue
			}
			first, last := sets[0], sets[len(sets)-1]
			if first.ActualReps <= 0 {
				continue
			}

			drop := math.Max(0, float64(first.ActualReps-last.ActualReps)/float64(first.ActualReps))
			if first.HasRPE() && last.HasRPE() {
				rise := math.Max(0, (last.ActualRPE-first.ActualRPE)/10)
				drop = (drop + rise) / 2
			}
			dropoffs = append(dropoffs, drop)
		}
	}
	if len(dropoffs) == 0 {
		return PopulationResistance
	}
	return stats.Clamp(100-resistanceScale*stats.Mean(dropoffs), 0, 100)
}

// recoveryRate compares average reps on an exercise between two workouts at
// most a week apart, normalized so that matching performance two days later
// is exactly the population baseline.
func recoveryRate(history []workout.Workout) float64 {
	var rates []float64
	for i := 1; i < len(history); i++ {
		prev, cur := history[i-1], history[i]
		days := cur.Date.Sub(prev.Date).Hours() / 24
		if days <= 0 || days > recoveryWindowDays {
			continue
		}

		prevReps := meanRepsByExercise(prev)
		curReps := meanRepsByExercise(cur)
		for _, id := range sortedKeys(curReps) {
			reps := curReps[id]
			before, ok := prevReps[id]
			if !ok || before <= 0 {
				continue
			}
			ratio := reps / before
			rates = append(rates, ratio*math.Sqrt(recoveryBaseDays/days))
		}
	}
	if len(rates) == 0 {
		return PopulationRecovery
	}
	return stats.Clamp(stats.Mean(stats.Finite(rates)), minRecovery, maxRecovery)
}

func exerciseFactors(history []workout.Workout) map[string]ExerciseFactor {
	type acc struct {
		sets  int
		rates []float64
	}
	byExercise := make(map[string]*acc)

	for _, w := range history {
		for _, ex := range w.Exercises {
			sets := orderedCompleted(ex.Sets)
			id := exerciseKey(ex)
			a, ok := byExercise[id]
			if !ok {
				a = &acc{}
				byExercise[id] = a
			}
			a.sets += len(sets)
			for i := 1; i < len(sets); i++ {
				if sets[i-1].HasRPE() && sets[i].HasRPE() {
					a.rates = append(a.rates, (sets[i].ActualRPE-sets[i-1].ActualRPE)/10)
				}
			}
		}
	}

	factors := make(map[string]ExerciseFactor)
	for id, a := range byExercise {
		if a.sets < minExerciseSets {
			continue
		}

		raw := PopulationRate
		variance := defaultRateVariance
		var m2 float64
		if len(a.rates) > 0 {
			raw = stats.Mean(a.rates)
			m2 = stats.Variance(a.rates) * float64(len(a.rates)-1)
		}
		if v := stats.Variance(a.rates); v > stats.Epsilon {
			variance = v
		}

		factors[id] = ExerciseFactor{
			ExerciseID:   id,
			RawRate:      raw,
			Rate:         Shrink(raw, a.sets),
			Variance:     variance,
			SampleSize:   a.sets,
			Observations: len(a.rates),
			M2:           m2,
		}
	}
	return factors
}

func meanRepsByExercise(w workout.Workout) map[string]float64 {
	out := make(map[string]float64)
	for _, ex := range w.Exercises {
		sets := orderedCompleted(ex.Sets)
		if len(sets) == 0 {
			continue
		}
		var total float64
		for _, s := range sets {
			total += float64(s.ActualReps)
		}
		out[exerciseKey(ex)] = total / float64(len(sets))
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orderedCompleted(sets []workout.Set) []workout.Set {
	out := workout.CompletedOnly(sets)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SetIndex < out[j].SetIndex
	})
	return out
}

func exerciseKey(ex workout.ExerciseLog) string {
	if ex.ExerciseID != "" {
		return ex.ExerciseID
	}
	for _, s := range ex.Sets {
		if s.ExerciseID != "" {
			return s.ExerciseID
		}
	}
	return ex.Name
}
