package assessment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/2beens/gymfatigue/internal/fatigue"
	"github.com/2beens/gymfatigue/internal/fatigue/hierarchical"
	"github.com/2beens/gymfatigue/internal/fatigue/rpecal"
	"github.com/2beens/gymfatigue/internal/fatigue/sequential"
	"github.com/2beens/gymfatigue/internal/fatigue/workload"
	"github.com/2beens/gymfatigue/internal/fatigue/workout"
	"github.com/2beens/gymfatigue/internal/gymstats/exercises"
	"github.com/2beens/gymfatigue/internal/telemetry/metrics"
	"github.com/2beens/gymfatigue/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

//go:generate mockgen -source=$GOFILE -destination=assessment_mocks_test.go -package=assessment_test

type setsRepo interface {
	Add(ctx context.Context, set exercises.LoggedSet) (*exercises.LoggedSet, error)
	ListAll(ctx context.Context, params exercises.SetParams) ([]exercises.LoggedSet, error)
}

type historyLoader interface {
	History(ctx context.Context, userID string, from, to time.Time) ([]workout.Workout, error)
}

type profileStore interface {
	GetRPEProfile(ctx context.Context, userID, exerciseID string) (*rpecal.Profile, error)
	SaveRPEProfile(ctx context.Context, profile rpecal.Profile) error
	GetFitnessFatigue(ctx context.Context, userID string, muscle workout.Muscle) (*workload.FitnessFatigue, error)
	SaveFitnessFatigue(ctx context.Context, state *workload.FitnessFatigue) error
}

var ErrInvalidSet = errors.New("invalid set")

const (
	acwrWindow       = 28 * 24 * time.Hour
	stateLoadWorkers = 4
)

type AssessRequest struct {
	UserID             string        `json:"-"`
	SessionID          string        `json:"sessionId,omitempty"`
	UpcomingExerciseID string        `json:"upcomingExerciseId"`
	CompletedSets      []workout.Set `json:"completedSets,omitempty"`
}

type RPECalibrationRequest struct {
	UserID     string        `json:"-"`
	SessionID  string        `json:"sessionId,omitempty"`
	ExerciseID string        `json:"exerciseId"`
	Sets       []workout.Set `json:"sets,omitempty"`
}

type LogSetRequest struct {
	UserID    string      `json:"-"`
	SessionID string      `json:"-"`
	Set       workout.Set `json:"set"`
}

type LogSetResponse struct {
	Set      *exercises.LoggedSet `json:"set"`
	Estimate sequential.Estimate  `json:"estimate"`
}

type MuscleReadiness struct {
	Muscle      workout.Muscle `json:"muscle"`
	Fitness     float64        `json:"fitness"`
	Fatigue     float64        `json:"fatigue"`
	Performance float64        `json:"performance"`
	Confidence  float64        `json:"confidence"`
	LastTrained time.Time      `json:"lastTrained"`
}

type WorkloadReport struct {
	UserID    string            `json:"userId"`
	ACWR      workload.Metrics  `json:"acwr"`
	Readiness []MuscleReadiness `json:"readiness"`
}

type EndSessionResponse struct {
	SessionSummary
	Readiness       []MuscleReadiness `json:"readiness"`
	UpdatedProfiles []rpecal.Profile  `json:"updatedProfiles"`
}

// Service runs the fatigue engine against a user's stored data. Engine
// calls are pure; everything stateful (set log, profiles, model cache, live
// sessions) is handled here.
type Service struct {
	engine        *fatigue.Engine
	sets          setsRepo
	history       historyLoader
	profiles      profileStore
	sessions      *SessionRegistry
	models        *ModelCache
	metrics       *metrics.Manager
	historyWindow time.Duration
	now           func() time.Time

	rebuilds  singleflight.Group
	userLocks sync.Map
}

type NewServiceParams struct {
	Engine        *fatigue.Engine
	SetsRepo      setsRepo
	History       historyLoader
	Profiles      profileStore
	Sessions      *SessionRegistry
	Models        *ModelCache
	Metrics       *metrics.Manager
	HistoryWindow time.Duration
}

func NewService(params NewServiceParams) *Service {
	window := params.HistoryWindow
	if window <= 0 {
		window = 90 * 24 * time.Hour
	}
	return &Service{
		engine:        params.Engine,
		sets:          params.SetsRepo,
		history:       params.History,
		profiles:      params.Profiles,
		sessions:      params.Sessions,
		models:        params.Models,
		metrics:       params.Metrics,
		historyWindow: window,
		now:           time.Now,
	}
}

// AssessFatigue scores the upcoming exercise from the sets in the request or,
// when none are given, from the sets logged in the session so far.
func (s *Service) AssessFatigue(ctx context.Context, req AssessRequest) (_ *fatigue.Alert, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.assessment.assessFatigue")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", req.UserID))
	span.SetAttributes(attribute.String("upcoming", req.UpcomingExerciseID))

	sets, err := s.requestSets(ctx, req.UserID, req.SessionID, req.CompletedSets)
	if err != nil {
		return nil, err
	}

	alert := s.engine.AssessFatigue(req.UpcomingExerciseID, sets)
	s.countAssessment("basic", alert)
	return &alert, nil
}

// AssessFatigueEnhanced is AssessFatigue blended with the user's
// personalization model, built from the stored history and cached.
func (s *Service) AssessFatigueEnhanced(ctx context.Context, req AssessRequest) (_ *fatigue.EnhancedAssessment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.assessment.assessFatigueEnhanced")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", req.UserID))
	span.SetAttributes(attribute.String("upcoming", req.UpcomingExerciseID))

	var (
		sets  []workout.Set
		model *hierarchical.Model
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sets, err = s.requestSets(gctx, req.UserID, req.SessionID, req.CompletedSets)
		return err
	})
	g.Go(func() error {
		var err error
		model, err = s.Model(gctx, req.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := s.engine.AssessWithModel(req.UpcomingExerciseID, sets, model)
	kind := "basic"
	if result.UsingHierarchicalModel {
		kind = "enhanced"
	}
	s.countAssessment(kind, result.Alert)
	span.SetAttributes(attribute.Bool("hierarchical", result.UsingHierarchicalModel))
	return &result, nil
}

// Model returns the user's personalization model, built from the full stored
// history and cached. Concurrent misses for the same user share one rebuild.
func (s *Service) Model(ctx context.Context, userID string) (*hierarchical.Model, error) {
	if model, ok := s.models.Get(userID); ok {
		s.metrics.CounterModelCache.WithLabelValues("hit").Inc()
		return model, nil
	}
	s.metrics.CounterModelCache.WithLabelValues("miss").Inc()

	v, err, shared := s.rebuilds.Do(userID, func() (interface{}, error) {
		start := time.Now()
		history, err := s.history.History(ctx, userID, time.Time{}, s.now())
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}

		model := s.engine.BuildModel(userID, history)
		s.metrics.HistModelBuildDuration.Observe(time.Since(start).Seconds())
		if err := s.models.Set(model); err != nil {
			log.Errorf("cache model for [%s]: %s", userID, err)
		}
		return model, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Tracef("model rebuild for [%s] shared", userID)
	}
	return v.(*hierarchical.Model).Clone(), nil
}

// AnalyzeRPECalibration compares actual against prescribed RPE for one
// exercise. It only reads the stored profile; profiles are updated when a
// session ends.
func (s *Service) AnalyzeRPECalibration(ctx context.Context, req RPECalibrationRequest) (_ *rpecal.Calibration, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.assessment.analyzeRPECalibration")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", req.UserID))
	span.SetAttributes(attribute.String("exercise_id", req.ExerciseID))

	if req.ExerciseID == "" {
		return nil, fmt.Errorf("%w: exercise id empty", ErrInvalidSet)
	}

	var (
		sets    []workout.Set
		profile *rpecal.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sets, err = s.requestSets(gctx, req.UserID, req.SessionID, req.Sets)
		return err
	})
	g.Go(func() error {
		var err error
		profile, err = s.profiles.GetRPEProfile(gctx, req.UserID, req.ExerciseID)
		if err != nil {
			return fmt.Errorf("get rpe profile: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	calibration := s.engine.AnalyzeRPECalibration(sets, req.ExerciseID, profile)
	return &calibration, nil
}

// Workload reports the user's acute:chronic workload ratio and per-muscle
// fitness-fatigue readiness as of now.
func (s *Service) Workload(ctx context.Context, userID string) (_ *WorkloadReport, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.assessment.workload")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", userID))

	now := s.now()
	window := s.historyWindow
	if window < acwrWindow {
		window = acwrWindow
	}

	var (
		history []workout.Workout
		states  = make([]*workload.FitnessFatigue, len(workout.Muscles))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(stateLoadWorkers)
	g.Go(func() error {
		var err error
		history, err = s.history.History(gctx, userID, now.Add(-window), now)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		return nil
	})
	for i, muscle := range workout.Muscles {
		g.Go(func() error {
			state, err := s.profiles.GetFitnessFatigue(gctx, userID, muscle)
			if err != nil {
				return fmt.Errorf("get fitness-fatigue [%s]: %w", muscle, err)
			}
			states[i] = state
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &WorkloadReport{
		UserID:    userID,
		ACWR:      s.engine.CalculateACWR(s.engine.DailyLoads(history)),
		Readiness: []MuscleReadiness{},
	}
	for _, state := range states {
		if state != nil {
			report.Readiness = append(report.Readiness, readiness(state, now))
		}
	}
	return report, nil
}

// StartSession opens a live session. A non-positive prior uses the
// configured default.
func (s *Service) StartSession(userID string, priorFatigue float64) string {
	id := s.sessions.Start(userID, priorFatigue)
	s.metrics.GaugeActiveSessions.Set(float64(s.sessions.Active()))
	return id
}

// LogSet persists a set and, for a live session, folds it into the
// session's running fatigue estimate.
func (s *Service) LogSet(ctx context.Context, req LogSetRequest) (_ *LogSetResponse, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.assessment.logSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", req.UserID))
	span.SetAttributes(attribute.String("session_id", req.SessionID))

	if req.Set.ExerciseID == "" {
		return nil, fmt.Errorf("%w: exercise id empty", ErrInvalidSet)
	}
	if req.Set.ActualReps < 0 || req.Set.ActualWeight < 0 {
		return nil, fmt.Errorf("%w: negative reps or weight", ErrInvalidSet)
	}
	if req.SessionID != "" && !s.sessions.Has(req.UserID, req.SessionID) {
		return nil, ErrSessionNotFound
	}
	if req.Set.Timestamp.IsZero() {
		req.Set.Timestamp = s.now()
	}

	logged, err := s.sets.Add(ctx, exercises.LoggedSet{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		CreatedAt: req.Set.Timestamp,
		Set:       req.Set,
	})
	if err != nil {
		return nil, fmt.Errorf("add set: %w", err)
	}
	s.metrics.CounterLoggedSets.Inc()

	resp := &LogSetResponse{Set: logged}
	if req.SessionID == "" {
		return resp, nil
	}

	resp.Estimate, err = s.sessions.Observe(req.UserID, req.SessionID, req.Set)
	if err != nil {
		return nil, fmt.Errorf("observe set: %w", err)
	}
	return resp, nil
}

// EndSession rolls the cleaned sets of a live session into the per-muscle
// fitness-fatigue state and the RPE calibration profiles, then closes it.
// If persisting fails the session stays open; a retry skips the states that
// already carry this session. Updates for one user are serialized.
func (s *Service) EndSession(ctx context.Context, userID, sessionID string) (_ *EndSessionResponse, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.assessment.endSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", userID))
	span.SetAttributes(attribute.String("session_id", sessionID))

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	resp := &EndSessionResponse{}
	summary, err := s.sessions.End(userID, sessionID, func(summary *SessionSummary) error {
		resp.Readiness = []MuscleReadiness{}
		resp.UpdatedProfiles = []rpecal.Profile{}

		cleaned, report := s.engine.CleanSession(summary.Sets)
		if removed := report.Removed(); removed > 0 {
			log.Debugf("session [%s]: %d of %d sets rejected before persisting", sessionID, removed, report.Input)
		}
		if err := s.persistLoads(ctx, summary, cleaned, resp); err != nil {
			return err
		}
		return s.persistRPEProfiles(ctx, summary, cleaned, resp)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.GaugeActiveSessions.Set(float64(s.sessions.Active()))
	resp.SessionSummary = *summary

	s.models.Invalidate(userID)
	log.Debugf("session [%s] ended for [%s]: %d sets, %d muscles", sessionID, userID, summary.SetCount, len(resp.Readiness))
	return resp, nil
}

func (s *Service) persistLoads(ctx context.Context, summary *SessionSummary, cleaned []workout.Set, resp *EndSessionResponse) error {
	loads := s.engine.MuscleLoads(cleaned)
	muscles := make([]workout.Muscle, 0, len(loads))
	for m := range loads {
		muscles = append(muscles, m)
	}
	sort.Slice(muscles, func(i, j int) bool { return muscles[i] < muscles[j] })

	for _, muscle := range muscles {
		state, err := s.profiles.GetFitnessFatigue(ctx, summary.UserID, muscle)
		if err != nil {
			return fmt.Errorf("get fitness-fatigue [%s]: %w", muscle, err)
		}
		if state == nil {
			state = workload.NewFitnessFatigue(summary.UserID, muscle)
		}
		if state.LastSessionID == summary.SessionID {
			resp.Readiness = append(resp.Readiness, readiness(state, summary.EndedAt))
			continue
		}
		if err := state.Apply(summary.StartedAt, loads[muscle]); err != nil {
			if errors.Is(err, workload.ErrOutOfOrderSession) {
				log.Warnf("session [%s] for [%s] predates last %s session, skipped", summary.SessionID, summary.UserID, muscle)
				continue
			}
			return err
		}
		state.LastSessionID = summary.SessionID
		if err := s.profiles.SaveFitnessFatigue(ctx, state); err != nil {
			return fmt.Errorf("save fitness-fatigue [%s]: %w", muscle, err)
		}
		resp.Readiness = append(resp.Readiness, readiness(state, summary.EndedAt))
	}
	return nil
}

func (s *Service) persistRPEProfiles(ctx context.Context, summary *SessionSummary, cleaned []workout.Set, resp *EndSessionResponse) error {
	for _, exerciseID := range exerciseIDs(cleaned) {
		profile, err := s.profiles.GetRPEProfile(ctx, summary.UserID, exerciseID)
		if err != nil {
			return fmt.Errorf("get rpe profile [%s]: %w", exerciseID, err)
		}
		if profile != nil && profile.LastSessionID == summary.SessionID {
			resp.UpdatedProfiles = append(resp.UpdatedProfiles, *profile)
			continue
		}
		prevSamples := 0
		if profile != nil {
			prevSamples = profile.SampleSize
		}
		updated := rpecal.UpdateProfile(profile, summary.UserID, exerciseID, cleaned, summary.EndedAt)
		if updated.SampleSize == prevSamples {
			continue
		}
		updated.LastSessionID = summary.SessionID
		if err := s.profiles.SaveRPEProfile(ctx, updated); err != nil {
			return fmt.Errorf("save rpe profile [%s]: %w", exerciseID, err)
		}
		resp.UpdatedProfiles = append(resp.UpdatedProfiles, updated)
	}
	return nil
}

// requestSets prefers explicit sets, then the live session, then the sets
// persisted for the session (after a restart or eviction).
func (s *Service) requestSets(ctx context.Context, userID, sessionID string, sets []workout.Set) ([]workout.Set, error) {
	if len(sets) > 0 || sessionID == "" {
		return sets, nil
	}
	if live, err := s.sessions.Sets(userID, sessionID); err == nil {
		return live, nil
	}

	logged, err := s.sets.ListAll(ctx, exercises.SetParams{
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("list session sets: %w", err)
	}
	out := make([]workout.Set, len(logged))
	for i, l := range logged {
		out[i] = l.Set
	}
	return out, nil
}

func (s *Service) countAssessment(kind string, alert fatigue.Alert) {
	s.metrics.CounterAssessments.WithLabelValues(kind, string(alert.Tier)).Inc()
	if alert.CriticalMoment {
		s.metrics.CounterCriticalMoments.Inc()
	}
}

func (s *Service) userLock(userID string) *sync.Mutex {
	l, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return l.(*sync.Mutex)
}

func readiness(state *workload.FitnessFatigue, at time.Time) MuscleReadiness {
	fitness, fatigue := state.At(at)
	return MuscleReadiness{
		Muscle:      state.Muscle,
		Fitness:     fitness,
		Fatigue:     fatigue,
		Performance: state.Performance(at),
		Confidence:  state.Confidence,
		LastTrained: state.LastTrained,
	}
}

func exerciseIDs(sets []workout.Set) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, set := range sets {
		if set.ExerciseID != "" && !seen[set.ExerciseID] {
			seen[set.ExerciseID] = true
			ids = append(ids, set.ExerciseID)
		}
	}
	return ids
}
