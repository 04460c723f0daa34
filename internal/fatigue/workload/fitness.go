// Package workload tracks multi-week training load: a two-compartment
// fitness–fatigue model per muscle group and the acute:chronic workload ratio.
package workload

import (
	"errors"
	"math"
	"time"

	"github.com/2beens/gymfatigue/internal/fatigue/stats"
	"github.com/2beens/gymfatigue/internal/fatigue/workout"
)

var ErrOutOfOrderSession = errors.New("session is older than the last trained session")

const (
	DefaultTauFitness = 7.0
	DefaultTauFatigue = 2.0
	DefaultK1         = 1.0
	DefaultK2         = 2.0

	// performanceBase and performanceScale map fitness − fatigue onto 0–100:
	// a net of 0 is 50, ±20 reaches the ends of the scale.
	performanceBase  = 50.0
	performanceScale = 2.5

	confidenceK   = 5.0
	maxConfidence = 0.95
)

// FitnessFatigue is the persisted two-compartment model for one user and
// muscle group.
type FitnessFatigue struct {
	UserID      string         `json:"userId"`
	Muscle      workout.Muscle `json:"muscle"`
	TauFitness  float64        `json:"tauFitness"`
	TauFatigue  float64        `json:"tauFatigue"`
	K1          float64        `json:"k1"`
	K2          float64        `json:"k2"`
	Fitness     float64        `json:"fitness"`
	Fatigue     float64        `json:"fatigue"`
	LastTrained time.Time      `json:"lastTrained"`
	Sessions    int            `json:"sessions"`
	Confidence  float64        `json:"confidence"`

	// LastSessionID is the session whose load was applied last.
	LastSessionID string `json:"lastSessionId,omitempty"`
}

func NewFitnessFatigue(userID string, muscle workout.Muscle) *FitnessFatigue {
	return &FitnessFatigue{
		UserID:     userID,
		Muscle:     muscle,
		TauFitness: DefaultTauFitness,
		TauFatigue: DefaultTauFatigue,
		K1:         DefaultK1,
		K2:         DefaultK2,
	}
}

// Apply records one training session. The existing state is decayed to
// date first and only then receives the new load. Sessions dated before the
// last trained one are rejected; the model is never updated retroactively.
func (m *FitnessFatigue) Apply(date time.Time, load float64) error {
	if !m.LastTrained.IsZero() && date.Before(m.LastTrained) {
		return ErrOutOfOrderSession
	}
	if !stats.IsFinite(load) || load < 0 {
		load = 0
	}

	m.Fitness, m.Fatigue = m.At(date)
	m.Fitness += m.K1 * load
	m.Fatigue += m.K2 * load
	m.LastTrained = date
	m.Sessions++
	n := float64(m.Sessions)
	m.Confidence = math.Min(maxConfidence, n/(n+confidenceK))
	return nil
}

// At returns fitness and fatigue decayed to t without changing the model.
func (m *FitnessFatigue) At(t time.Time) (fitness, fatigue float64) {
	if m.LastTrained.IsZero() || !t.After(m.LastTrained) {
		return m.Fitness, m.Fatigue
	}
	days := t.Sub(m.LastTrained).Hours() / 24
	return m.Fitness * decay(days, m.TauFitness), m.Fatigue * decay(days, m.TauFatigue)
}

// Performance is the 0–100 readiness at t: clamp(50 + 2.5·(fitness − fatigue)).
func (m *FitnessFatigue) Performance(t time.Time) float64 {
	fitness, fatigue := m.At(t)
	return PerformanceScore(fitness - fatigue)
}

func PerformanceScore(net float64) float64 {
	if !stats.IsFinite(net) {
		return performanceBase
	}
	return stats.Clamp100(performanceBase + performanceScale*net)
}

func decay(days, tau float64) float64 {
	if tau <= stats.Epsilon {
		return 0
	}
	return math.Exp(-days / tau)
}
