package assessment

import (
	"errors"
	"sync"
	"time"

	"github.com/2beens/gymfatigue/internal/fatigue"
	"github.com/2beens/gymfatigue/internal/fatigue/sequential"
	"github.com/2beens/gymfatigue/internal/fatigue/workout"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

var ErrSessionNotFound = errors.New("session not found")

// session is one live workout. Its estimator is never shared with another
// session and never persisted.
type session struct {
	mutex     sync.Mutex
	id        string
	userID    string
	startedAt time.Time
	estimator *sequential.Estimator
	sets      []workout.Set
}

// SessionSummary is what is left of a session once it ended.
type SessionSummary struct {
	SessionID string                `json:"sessionId"`
	UserID    string                `json:"userId"`
	StartedAt time.Time             `json:"startedAt"`
	EndedAt   time.Time             `json:"endedAt"`
	Sets      []workout.Set         `json:"-"`
	SetCount  int                   `json:"setCount"`
	Estimates []sequential.Estimate `json:"estimates"`
	Final     sequential.Estimate   `json:"final"`
}

// SessionRegistry holds the sequential accumulators of live sessions. A
// session that sees no activity for the TTL is evicted and cannot be
// resumed; the client starts a new one.
type SessionRegistry struct {
	engine       *fatigue.Engine
	sessions     *gocache.Cache
	priorFatigue float64
	now          func() time.Time
}

type NewSessionRegistryParams struct {
	Engine          *fatigue.Engine
	TTL             time.Duration
	CleanupInterval time.Duration
	PriorFatigue    float64
}

func NewSessionRegistry(params NewSessionRegistryParams) *SessionRegistry {
	prior := params.PriorFatigue
	if prior <= 0 {
		prior = sequential.DefaultPriorFatigue
	}
	sessions := gocache.New(params.TTL, params.CleanupInterval)
	sessions.OnEvicted(func(id string, _ interface{}) {
		log.Debugf("session [%s] evicted", id)
	})
	return &SessionRegistry{
		engine:       params.Engine,
		sessions:     sessions,
		priorFatigue: prior,
		now:          time.Now,
	}
}

// Start opens a session for userID. A non-positive priorFatigue uses the
// registry default.
func (r *SessionRegistry) Start(userID string, priorFatigue float64) string {
	if priorFatigue <= 0 {
		priorFatigue = r.priorFatigue
	}
	s := &session{
		id:        uuid.NewString(),
		userID:    userID,
		startedAt: r.now(),
		estimator: sequential.New(priorFatigue),
	}
	r.sessions.SetDefault(s.id, s)
	log.Debugf("session [%s] started for [%s], prior %.1f", s.id, userID, priorFatigue)
	return s.id
}

// Observe feeds a set into the session and refreshes its TTL. The raw set is
// kept even when the cleaner rejects it on its own: at the end the session
// is cleaned again as one sample.
func (r *SessionRegistry) Observe(userID, sessionID string, set workout.Set) (sequential.Estimate, error) {
	s, err := r.get(userID, sessionID)
	if err != nil {
		return sequential.Estimate{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	estimate, err := r.engine.ObserveSet(s.estimator, set)
	if err != nil {
		return sequential.Estimate{}, err
	}
	s.sets = append(s.sets, set)
	r.sessions.SetDefault(s.id, s)
	return estimate, nil
}

// Sets returns a copy of the sets observed so far.
func (r *SessionRegistry) Sets(userID, sessionID string) ([]workout.Set, error) {
	s, err := r.get(userID, sessionID)
	if err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]workout.Set(nil), s.sets...), nil
}

// End hands the session to commit and closes it once commit succeeds.
// commit runs with the session locked, so no set can slip in. When commit
// fails the session stays open and End can be retried.
func (r *SessionRegistry) End(userID, sessionID string, commit func(*SessionSummary) error) (*SessionSummary, error) {
	s, err := r.get(userID, sessionID)
	if err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.estimator.State() == sequential.StateClosed {
		return nil, ErrSessionNotFound
	}

	summary := &SessionSummary{
		SessionID: s.id,
		UserID:    s.userID,
		StartedAt: s.startedAt,
		EndedAt:   r.now(),
		Sets:      append([]workout.Set(nil), s.sets...),
		SetCount:  len(s.sets),
		Estimates: s.estimator.Estimates(),
		Final:     s.estimator.Current(),
	}
	if commit != nil {
		if err := commit(summary); err != nil {
			r.sessions.SetDefault(s.id, s)
			return nil, err
		}
	}

	s.estimator.End()
	r.sessions.Delete(sessionID)
	return summary, nil
}

func (r *SessionRegistry) Active() int {
	return r.sessions.ItemCount()
}

func (r *SessionRegistry) get(userID, sessionID string) (*session, error) {
	v, found := r.sessions.Get(sessionID)
	if !found {
		return nil, ErrSessionNotFound
	}
	s, ok := v.(*session)
	if !ok || s.userID != userID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Has reports whether userID owns a live session with the given id.
func (r *SessionRegistry) Has(userID, sessionID string) bool {
	_, err := r.get(userID, sessionID)
	return err == nil
}
