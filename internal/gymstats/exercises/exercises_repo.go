package exercises

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/gymfatigue/internal/fatigue/workout"
	"github.com/2beens/gymfatigue/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrSetNotFound = errors.New("set not found")

const setColumns = `id, user_id, session_id, exercise_id, exercise_name, set_index, completed,
	reps, weight, weight_unit, rpe, target_rpe, rir, reached_failure, form_breakdown,
	duration_ms, created_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, set LoggedSet) (_ *LoggedSet, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", set.UserID))
	span.SetAttributes(attribute.String("exercise_id", set.ExerciseID))

	if set.CreatedAt.IsZero() {
		set.CreatedAt = set.Timestamp
	}
	if set.WeightUnit == "" {
		set.WeightUnit = workout.UnitLb
	}

	var rir *int32
	if set.RIR != nil {
		v := int32(*set.RIR)
		rir = &v
	}

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO exercise_set
				(user_id, session_id, exercise_id, exercise_name, set_index, completed,
				 reps, weight, weight_unit, rpe, target_rpe, rir, reached_failure, form_breakdown,
				 duration_ms, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			RETURNING id;`,
		set.UserID, set.SessionID, set.ExerciseID, set.ExerciseName, set.SetIndex, set.Completed,
		set.ActualReps, set.ActualWeight, string(set.WeightUnit), set.ActualRPE, set.TargetRPE, rir,
		set.ReachedFailure, set.FormBreakdown, set.Duration.Milliseconds(), set.CreatedAt,
	).Scan(&set.ID)
	if err != nil {
		return nil, fmt.Errorf("insert set: %w", err)
	}

	span.SetAttributes(attribute.Int("set.id", set.ID))
	return &set, nil
}

func (r *Repo) Delete(ctx context.Context, userID string, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM exercise_set WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSetNotFound
	}
	return nil
}

// ListAll returns the user's logged sets matching params, oldest first.
func (r *Repo) ListAll(ctx context.Context, params SetParams) (_ []LoggedSet, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.listall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", params.UserID))
	span.SetAttributes(attribute.String("exercise_id", params.ExerciseID))
	span.SetAttributes(attribute.String("session_id", params.SessionID))
	if params.From != nil {
		span.SetAttributes(attribute.String("from", params.From.String()))
	}
	if params.To != nil {
		span.SetAttributes(attribute.String("to", params.To.String()))
	}

	if params.UserID == "" {
		return nil, errors.New("user id is required")
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT `+setColumns+`
			FROM exercise_set
			WHERE user_id = $1
				AND ($2::text = '' OR exercise_id = $2)
				AND ($3::text = '' OR session_id = $3)
				AND ($4::timestamptz IS NULL OR created_at >= $4)
				AND ($5::timestamptz IS NULL OR created_at <= $5)
			ORDER BY created_at ASC, set_index ASC, id ASC;`,
		params.UserID, params.ExerciseID, params.SessionID, params.From, params.To,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	sets, err := rows2sets(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2sets: %w", err)
	}
	span.SetAttributes(attribute.Int("count", len(sets)))
	return sets, nil
}

func rows2sets(rows pgx.Rows) ([]LoggedSet, error) {
	var sets []LoggedSet
	for rows.Next() {
		var (
			s          LoggedSet
			weightUnit string
			rir        *int32
			durationMs int64
		)
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.SessionID, &s.ExerciseID, &s.ExerciseName, &s.SetIndex, &s.Completed,
			&s.ActualReps, &s.ActualWeight, &weightUnit, &s.ActualRPE, &s.TargetRPE, &rir,
			&s.ReachedFailure, &s.FormBreakdown, &durationMs, &s.CreatedAt,
		); err != nil {
			return nil, err
		}

		s.WeightUnit = workout.WeightUnit(weightUnit)
		if rir != nil {
			v := int(*rir)
			s.RIR = &v
		}
		s.Duration = time.Duration(durationMs) * time.Millisecond
		s.Timestamp = s.CreatedAt
		sets = append(sets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sets, nil
}
