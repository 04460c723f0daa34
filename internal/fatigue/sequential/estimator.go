// Package sequential keeps a per-session Beta belief about fatigue and
// updates it after every completed set.
package sequential

import (
	"errors"
	"math"

	"github.com/2beens/gymfatigue/internal/fatigue/stats"
	"github.com/2beens/gymfatigue/internal/fatigue/workout"

	"gonum.org/v1/gonum/stat/distuv"
)

var ErrSessionClosed = errors.New("session closed")

const (
	// DefaultPriorFatigue is the starting belief for a fresh session.
	DefaultPriorFatigue = 20.0
	priorStrength       = 2.0
	minShape            = 0.01

	evidenceThreshold = 0.3
	evidenceWeight    = 4.0

	formBreakdownEvidence  = 0.5
	failureEvidence        = 0.4
	unknownFailureEvidence = 0.2
	overshootPerPoint      = 0.15
	// moderateTargetRPE is the highest prescription at which failure was
	// not part of the plan.
	moderateTargetRPE = 8.0

	stopPosterior    = 70.0
	stopConfidence   = 0.7
	reducePosterior  = 50.0
	reduceConfidence = 0.6
)

type State string

const (
	StateFresh    State = "fresh"
	StateUpdating State = "updating"
	StateClosed   State = "closed"
)

type Action string

const (
	ActionContinue   Action = "continue"
	ActionReduceLoad Action = "reduce_load"
	ActionStop       Action = "stop"
)

// Estimate is the belief after one set.
type Estimate struct {
	SetIndex   int     `json:"setIndex"`
	Evidence   float64 `json:"evidence"`
	Alpha      float64 `json:"alpha"`
	Beta       float64 `json:"beta"`
	Posterior  float64 `json:"posterior"`
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Confidence float64 `json:"confidence"`
	Action     Action  `json:"action"`
}

// Estimator is the accumulator for one session. It is owned by the caller,
// never shared between sessions and never persisted; a restarted process has
// to Replay the session's sets. Not safe for concurrent use.
type Estimator struct {
	alpha     float64
	beta      float64
	state     State
	estimates []Estimate
}

// New starts a session belief centred on priorFatigue (0–100).
func New(priorFatigue float64) *Estimator {
	p := stats.Clamp(priorFatigue, 0, 100) / 100
	return &Estimator{
		alpha: math.Max(p*priorStrength, minShape),
		beta:  math.Max((1-p)*priorStrength, minShape),
		state: StateFresh,
	}
}

// Replay folds sets into a fresh estimator.
func Replay(priorFatigue float64, sets []workout.Set) *Estimator {
	e := New(priorFatigue)
	for _, s := range sets {
		// a fresh estimator is never closed
		_, _ = e.Update(s)
	}
	return e
}

func (e *Estimator) State() State {
	return e.state
}

// Update adds the evidence of one set. Sets that were not completed leave
// the belief unchanged and return the current estimate.
func (e *Estimator) Update(s workout.Set) (Estimate, error) {
	if e.state == StateClosed {
		return Estimate{}, ErrSessionClosed
	}
	if !s.Completed {
		return e.Current(), nil
	}

	ev := Evidence(s)
	if ev > evidenceThreshold {
		e.alpha += ev * evidenceWeight
	} else {
		e.beta += (1 - ev) * evidenceWeight
	}
	e.state = StateUpdating

	est := e.estimate(s.SetIndex, ev)
	e.estimates = append(e.estimates, est)
	return est, nil
}

// Current returns the belief without adding evidence.
func (e *Estimator) Current() Estimate {
	if len(e.estimates) > 0 {
		return e.estimates[len(e.estimates)-1]
	}
	return e.estimate(-1, 0)
}

// Estimates returns one estimate per completed set, oldest first.
func (e *Estimator) Estimates() []Estimate {
	out := make([]Estimate, len(e.estimates))
	copy(out, e.estimates)
	return out
}

// End closes the session; later updates fail with ErrSessionClosed.
func (e *Estimator) End() {
	e.state = StateClosed
}

// Evidence scores how strongly a set signals fatigue, in [0, 1].
func Evidence(s workout.Set) float64 {
	var ev float64
	if s.FormBreakdown {
		ev += formBreakdownEvidence
	}
	if s.ReachedFailure {
		switch {
		case !s.HasTarget():
			ev += unknownFailureEvidence
		case s.TargetRPE <= moderateTargetRPE:
			ev += failureEvidence
		}
	}
	ev += s.Overshoot() * overshootPerPoint
	return stats.Clamp(ev, 0, 1)
}

func (e *Estimator) estimate(setIndex int, evidence float64) Estimate {
	dist := distuv.Beta{Alpha: e.alpha, Beta: e.beta}
	mean := dist.Mean()
	sd := math.Sqrt(dist.Variance())
	if !stats.IsFinite(mean) || !stats.IsFinite(sd) {
		mean, sd = 0, 0
	}

	posterior := stats.Clamp100(mean * 100)
	half := stats.CredibleZ95 * sd * 100
	lower := stats.Clamp100(posterior - half)
	upper := stats.Clamp100(posterior + half)
	confidence := stats.Clamp(1-(upper-lower)/100, 0, 1)

	return Estimate{
		SetIndex:   setIndex,
		Evidence:   evidence,
		Alpha:      e.alpha,
		Beta:       e.beta,
		Posterior:  posterior,
		Lower:      lower,
		Upper:      upper,
		Confidence: confidence,
		Action:     Recommend(posterior, confidence),
	}
}

func Recommend(posterior, confidence float64) Action {
	switch {
	case posterior >= stopPosterior && confidence > stopConfidence:
		return ActionStop
	case posterior >= reducePosterior && confidence > reduceConfidence:
		return ActionReduceLoad
	default:
		return ActionContinue
	}
}
