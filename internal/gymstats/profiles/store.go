package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/gymfatigue/internal/fatigue/rpecal"
	"github.com/2beens/gymfatigue/internal/fatigue/workload"
	"github.com/2beens/gymfatigue/internal/fatigue/workout"
	"github.com/2beens/gymfatigue/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
)

const (
	rpeProfileKeyPrefix     = "rpecal"
	fitnessFatigueKeyPrefix = "ffm"
)

// Store keeps the per-user learned state that outlives a session: RPE
// calibration profiles per exercise and fitness-fatigue state per muscle.
// Values are stored as JSON without expiry.
type Store struct {
	redisClient *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{
		redisClient: redisClient,
	}
}

func RPEProfileKey(userID, exerciseID string) string {
	return fmt.Sprintf("%s::%s::%s", rpeProfileKeyPrefix, userID, exerciseID)
}

func FitnessFatigueKey(userID string, muscle workout.Muscle) string {
	return fmt.Sprintf("%s::%s::%s", fitnessFatigueKeyPrefix, userID, muscle)
}

// GetRPEProfile returns nil, nil when the user has no profile for the exercise.
func (s *Store) GetRPEProfile(ctx context.Context, userID, exerciseID string) (_ *rpecal.Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.profiles.getRPEProfile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", userID))
	span.SetAttributes(attribute.String("exercise_id", exerciseID))

	var profile rpecal.Profile
	found, err := s.get(ctx, RPEProfileKey(userID, exerciseID), &profile)
	if err != nil || !found {
		return nil, err
	}
	return &profile, nil
}

func (s *Store) SaveRPEProfile(ctx context.Context, profile rpecal.Profile) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.profiles.saveRPEProfile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", profile.UserID))
	span.SetAttributes(attribute.Int("sample_size", profile.SampleSize))

	if profile.UserID == "" || profile.ExerciseID == "" {
		return errors.New("rpe profile needs user and exercise id")
	}
	return s.set(ctx, RPEProfileKey(profile.UserID, profile.ExerciseID), profile)
}

// GetFitnessFatigue returns nil, nil when the muscle was never trained.
func (s *Store) GetFitnessFatigue(ctx context.Context, userID string, muscle workout.Muscle) (_ *workload.FitnessFatigue, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.profiles.getFitnessFatigue")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", userID))
	span.SetAttributes(attribute.String("muscle", string(muscle)))

	var state workload.FitnessFatigue
	found, err := s.get(ctx, FitnessFatigueKey(userID, muscle), &state)
	if err != nil || !found {
		return nil, err
	}
	return &state, nil
}

func (s *Store) SaveFitnessFatigue(ctx context.Context, state *workload.FitnessFatigue) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.profiles.saveFitnessFatigue")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if state == nil || state.UserID == "" || state.Muscle == "" {
		return errors.New("fitness-fatigue state needs user and muscle")
	}
	span.SetAttributes(attribute.String("user_id", state.UserID))
	span.SetAttributes(attribute.String("muscle", string(state.Muscle)))
	return s.set(ctx, FitnessFatigueKey(state.UserID, state.Muscle), state)
}

func (s *Store) get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.redisClient.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get [%s]: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("unmarshal [%s]: %w", key, err)
	}
	return true, nil
}

func (s *Store) set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal [%s]: %w", key, err)
	}
	if err := s.redisClient.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set [%s]: %w", key, err)
	}
	return nil
}
