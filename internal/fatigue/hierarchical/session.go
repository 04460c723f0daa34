package hierarchical

import (
	"math"
	"sort"

	"github.com/2beens/gymfatigue/internal/fatigue/stats"
	"github.com/2beens/gymfatigue/internal/fatigue/workout"
)

const (
	// sessionCarryover is the share of fatigue from other exercises in the
	// same session that carries into the next set.
	sessionCarryover = 0.3
	minRateObserved  = -1.0
	maxRateObserved  = 1.0
)

// Session is the session level of the model: a running fatigue total fed
// one completed set at a time.
type Session struct {
	sets    map[string]int
	fatigue map[string]float64
	lastRPE map[string]float64
}

func NewSession() *Session {
	return &Session{
		sets:    make(map[string]int),
		fatigue: make(map[string]float64),
		lastRPE: make(map[string]float64),
	}
}

// SetsCompleted returns the completed sets of exerciseID so far.
func (s *Session) SetsCompleted(exerciseID string) int {
	return s.sets[exerciseID]
}

// Total is the running fatigue total across all exercises.
func (s *Session) Total() float64 {
	return sumFatigue(s.fatigue, func(string) bool { return true })
}

// carryover is the fatigue built up by every exercise except exerciseID.
func (s *Session) carryover(exerciseID string) float64 {
	return sumFatigue(s.fatigue, func(id string) bool { return id != exerciseID })
}

type Prediction struct {
	ExerciseID    string  `json:"exerciseId"`
	Fatigue       float64 `json:"fatigue"`
	Lower         float64 `json:"lower"`
	Upper         float64 `json:"upper"`
	Rate          float64 `json:"rate"`
	SetsCompleted int     `json:"setsCompleted"`
	SessionFactor float64 `json:"sessionFactor"`
	Confidence    float64 `json:"confidence"`
}

// Predict estimates fatigue (0–100) for the next set of exerciseID:
// (rate × sets done + session factor), scaled down by the user's
// resistance, with a 95% prediction interval.
func (m *Model) Predict(exerciseID string, sess *Session) Prediction {
	if sess == nil {
		sess = NewSession()
	}
	f := m.Factor(exerciseID)
	n := sess.SetsCompleted(exerciseID)
	sessionFactor := sessionCarryover * sess.carryover(exerciseID)
	resistance := 1 - stats.Clamp(m.Resistance, 0, 100)/resistanceScale

	raw := (f.Rate*float64(n) + sessionFactor) * resistance
	fatigue := stats.Clamp100(raw * 100)

	sd := math.Sqrt(math.Max(f.Variance, 0))*math.Sqrt(math.Max(float64(n), 1)) + (1-m.Confidence)*0.2
	half := stats.CredibleZ95 * sd * 100

	return Prediction{
		ExerciseID:    exerciseID,
		Fatigue:       fatigue,
		Lower:         stats.Clamp100(fatigue - half),
		Upper:         stats.Clamp100(fatigue + half),
		Rate:          f.Rate,
		SetsCompleted: n,
		SessionFactor: sessionFactor,
		Confidence:    m.Confidence,
	}
}

// Update folds one completed set into the session level and, when the set
// follows a rated set of the same exercise, merges the observed rate into
// the exercise level. Sample sizes only ever grow.
func (m *Model) Update(sess *Session, s workout.Set) {
	if !s.Completed || sess == nil {
		return
	}
	if m.Exercises == nil {
		m.Exercises = make(map[string]ExerciseFactor)
	}

	id := s.ExerciseID
	f := m.Factor(id)

	if prev, ok := sess.lastRPE[id]; ok && s.HasRPE() {
		observed := stats.Clamp((s.ActualRPE-prev)/10, minRateObserved, maxRateObserved)
		f = mergeObservation(f, observed)
	}
	f.SampleSize++
	m.Exercises[id] = f

	m.TotalSamples++
	m.refreshConfidence()

	sess.sets[id]++
	sess.fatigue[id] += math.Max(f.Rate, 0)
	if s.HasRPE() {
		sess.lastRPE[id] = s.ActualRPE
	}
}

// Replay returns a copy of m updated with every set in order, together with
// the session state they produced. m itself is left untouched.
func (m *Model) Replay(sets []workout.Set) (*Model, *Session) {
	c := m.Clone()
	sess := NewSession()
	for _, s := range sets {
		c.Update(sess, s)
	}
	return c, sess
}

func mergeObservation(f ExerciseFactor, observed float64) ExerciseFactor {
	variance := math.Max(f.Variance, stats.Epsilon)
	prior := stats.Normal{
		Mean:     f.Rate,
		Variance: variance / math.Max(float64(f.SampleSize), 1),
	}
	merged := stats.PrecisionWeighted(prior, stats.Normal{Mean: observed, Variance: variance})
	f.Rate = merged.Mean

	// Welford
	f.Observations++
	if f.Observations == 1 {
		f.RawRate = observed
		f.M2 = 0
	} else {
		delta := observed - f.RawRate
		f.RawRate += delta / float64(f.Observations)
		f.M2 += delta * (observed - f.RawRate)
	}
	if f.Observations > 1 {
		if v := f.M2 / float64(f.Observations-1); v > stats.Epsilon {
			f.Variance = v
		}
	}
	return f
}

// sumFatigue adds the selected entries in key order so the result does not
// depend on map iteration.
func sumFatigue(m map[string]float64, include func(string) bool) float64 {
	keys := make([]string, 0, len(m))
	for k := range m {
		if include(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var total float64
	for _, k := range keys {
		total += m[k]
	}
	return total
}
