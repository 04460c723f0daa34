package exercises

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/2beens/gymfatigue/internal/fatigue/workout"
	"github.com/2beens/gymfatigue/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=exercises_mocks_test.go -package=exercises_test

type setsRepo interface {
	Add(ctx context.Context, set LoggedSet) (*LoggedSet, error)
	Delete(ctx context.Context, userID string, id int) error
	ListAll(ctx context.Context, params SetParams) ([]LoggedSet, error)
}

// HistoryBuilder turns the flat set log into dated workouts the engine can
// learn from: one workout per user and calendar day (UTC).
type HistoryBuilder struct {
	repo setsRepo
}

func NewHistoryBuilder(repo setsRepo) *HistoryBuilder {
	return &HistoryBuilder{
		repo: repo,
	}
}

// History returns the user's workouts logged in [from, to], oldest first.
func (b *HistoryBuilder) History(ctx context.Context, userID string, from, to time.Time) (_ []workout.Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "history.exercises.build")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", userID))

	params := SetParams{
		UserID: userID,
		To:     &to,
	}
	// a zero from reads the whole history
	if !from.IsZero() {
		params.From = &from
	}
	sets, err := b.repo.ListAll(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}

	history := GroupWorkouts(sets)
	span.SetAttributes(attribute.Int("workouts", len(history)))
	return history, nil
}

// SessionSets returns the sets logged for one session, in order.
func (b *HistoryBuilder) SessionSets(ctx context.Context, userID, sessionID string) ([]workout.Set, error) {
	logged, err := b.repo.ListAll(ctx, SetParams{
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("list session sets: %w", err)
	}
	sets := make([]workout.Set, len(logged))
	for i, s := range logged {
		sets[i] = s.Set
	}
	return sets, nil
}

// GroupWorkouts groups logged sets by day. Within a day, exercises keep the
// order they were first trained in.
func GroupWorkouts(sets []LoggedSet) []workout.Workout {
	day2sets := make(map[time.Time][]LoggedSet)
	for _, s := range sets {
		day := s.CreatedAt.UTC().Truncate(24 * time.Hour)
		day2sets[day] = append(day2sets[day], s)
	}

	days := make([]time.Time, 0, len(day2sets))
	for day := range day2sets {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	history := make([]workout.Workout, 0, len(days))
	for _, day := range days {
		daySets := day2sets[day]
		sort.SliceStable(daySets, func(i, j int) bool {
			return daySets[i].CreatedAt.Before(daySets[j].CreatedAt)
		})

		w := workout.Workout{
			ID:   day.Format("2006-01-02"),
			Date: day,
		}
		position := make(map[string]int)
		for _, s := range daySets {
			idx, ok := position[s.ExerciseID]
			if !ok {
				idx = len(w.Exercises)
				position[s.ExerciseID] = idx
				w.Exercises = append(w.Exercises, workout.ExerciseLog{
					ExerciseID: s.ExerciseID,
					Name:       s.ExerciseName,
				})
			}
			w.Exercises[idx].Sets = append(w.Exercises[idx].Sets, s.Set)
		}
		history = append(history, w)
	}
	return history
}
