package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/2beens/gymfatigue/internal/fatigue"
	"github.com/2beens/gymfatigue/internal/fatigue/rpecal"
	"github.com/2beens/gymfatigue/internal/fatigue/workout"
	"github.com/2beens/gymfatigue/internal/gymstats/assessment"
)

// mockSchemaRepo implements SchemaRepo for service tests.
type mockSchemaRepo struct {
	schema *SetLogSchema
	err    error
}

func (m *mockSchemaRepo) SetLogSchema(ctx context.Context) (*SetLogSchema, error) {
	return m.schema, m.err
}

// mockFatigueService implements fatigueService and records which path ran.
type mockFatigueService struct {
	basicCalls    int
	enhancedCalls int
	err           error
}

func (m *mockFatigueService) AssessFatigue(ctx context.Context, req assessment.AssessRequest) (*fatigue.Alert, error) {
	m.basicCalls++
	if m.err != nil {
		return nil, m.err
	}
	return &fatigue.Alert{UpcomingExerciseID: req.UpcomingExerciseID}, nil
}

func (m *mockFatigueService) AssessFatigueEnhanced(ctx context.Context, req assessment.AssessRequest) (*fatigue.EnhancedAssessment, error) {
	m.enhancedCalls++
	if m.err != nil {
		return nil, m.err
	}
	return &fatigue.EnhancedAssessment{Alert: fatigue.Alert{UpcomingExerciseID: req.UpcomingExerciseID}}, nil
}

func (m *mockFatigueService) AnalyzeRPECalibration(ctx context.Context, req assessment.RPECalibrationRequest) (*rpecal.Calibration, error) {
	return &rpecal.Calibration{ExerciseID: req.ExerciseID}, m.err
}

func (m *mockFatigueService) Workload(ctx context.Context, userID string) (*assessment.WorkloadReport, error) {
	return &assessment.WorkloadReport{UserID: userID}, m.err
}

type mockHistoryLoader struct {
	workouts []workout.Workout
	err      error
}

func (m *mockHistoryLoader) History(ctx context.Context, userID string, from, to time.Time) ([]workout.Workout, error) {
	return m.workouts, m.err
}

func TestContextService_GetSchema(t *testing.T) {
	t.Run("formats_columns", func(t *testing.T) {
		repo := &mockSchemaRepo{
			schema: &SetLogSchema{
				Table: "exercise_set",
				Columns: []SchemaColumn{
					{Name: "id", DataType: "integer", Default: "nextval('exercise_set_id_seq'::regclass)"},
					{Name: "reps", DataType: "integer"},
					{Name: "rpe", DataType: "double precision", Default: "0"},
					{Name: "rir", DataType: "integer", Nullable: true},
				},
				Indexes: []SchemaIndex{
					{Name: "ix_exercise_set_user_created_at", Definition: "CREATE INDEX ix_exercise_set_user_created_at ON public.exercise_set USING btree (user_id, created_at)"},
				},
				EstimatedRows: 1200,
			},
		}
		svc := NewContextService(repo, &mockFatigueService{}, &mockHistoryLoader{})
		got, err := svc.GetSchema(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{
			"# Set Log DB Schema",
			"Tables: exercise_set (schema: public), about 1200 rows.",
			"## exercise_set",
			"| id | integer | NO | nextval('exercise_set_id_seq'::regclass) | - |",
			"| reps | integer | NO | - | reps done; outside 0-100 the set is dropped as impossible |",
			"rpe 10 with more than 15 reps is dropped as contradictory",
			"| rir | integer | YES | - | reps in reserve 0-20; read as rpe 10-rir when rpe is 0 |",
			"## Indexes",
			"- ix_exercise_set_user_created_at: `CREATE INDEX",
			"more than 3.5 modified z-scores",
			"unless 30% or more",
		} {
			if !strings.Contains(got, want) {
				t.Fatalf("schema missing %q:\n%s", want, got)
			}
		}
		if strings.HasSuffix(got, "\n\n") {
			t.Fatalf("schema should end with a single newline")
		}
	})

	t.Run("no_indexes", func(t *testing.T) {
		repo := &mockSchemaRepo{
			schema: &SetLogSchema{
				Table:   "exercise_set",
				Columns: []SchemaColumn{{Name: "weight", DataType: "double precision"}},
			},
		}
		svc := NewContextService(repo, &mockFatigueService{}, &mockHistoryLoader{})
		got, err := svc.GetSchema(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(got, "## Indexes") {
			t.Fatalf("unexpected index section:\n%s", got)
		}
		if !strings.Contains(got, "above 1500 lb-equivalent") {
			t.Fatalf("weight note missing:\n%s", got)
		}
	})

	t.Run("no_tables", func(t *testing.T) {
		svc := NewContextService(&mockSchemaRepo{}, &mockFatigueService{}, &mockHistoryLoader{})
		got, err := svc.GetSchema(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(got, "No set log tables found in the database.") {
			t.Fatalf("unexpected schema: %q", got)
		}
	})

	t.Run("repo_error", func(t *testing.T) {
		svc := NewContextService(&mockSchemaRepo{err: errors.New("timeout")}, &mockFatigueService{}, &mockHistoryLoader{})
		if _, err := svc.GetSchema(context.Background()); err == nil || err.Error() != "timeout" {
			t.Fatalf("expected timeout error, got %v", err)
		}
	})
}

func TestContextService_AssessFatigue(t *testing.T) {
	fatigueSvc := &mockFatigueService{}
	svc := NewContextService(&mockSchemaRepo{}, fatigueSvc, &mockHistoryLoader{})
	req := assessment.AssessRequest{UserID: "u1", UpcomingExerciseID: "squat"}

	basic, err := svc.AssessFatigue(context.Background(), req, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := basic.(*fatigue.Alert); !ok {
		t.Fatalf("basic result is %T", basic)
	}

	enhanced, err := svc.AssessFatigue(context.Background(), req, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := enhanced.(*fatigue.EnhancedAssessment); !ok {
		t.Fatalf("enhanced result is %T", enhanced)
	}

	if fatigueSvc.basicCalls != 1 || fatigueSvc.enhancedCalls != 1 {
		t.Fatalf("calls basic=%d enhanced=%d", fatigueSvc.basicCalls, fatigueSvc.enhancedCalls)
	}
}

func TestContextService_Delegates(t *testing.T) {
	history := &mockHistoryLoader{workouts: []workout.Workout{{ID: "2026-06-01"}}}
	svc := NewContextService(&mockSchemaRepo{}, &mockFatigueService{}, history)
	ctx := context.Background()

	cal, err := svc.AnalyzeRPECalibration(ctx, assessment.RPECalibrationRequest{UserID: "u1", ExerciseID: "deadlift"})
	if err != nil || cal.ExerciseID != "deadlift" {
		t.Fatalf("calibration = %+v, err %v", cal, err)
	}

	report, err := svc.Workload(ctx, "u1")
	if err != nil || report.UserID != "u1" {
		t.Fatalf("workload = %+v, err %v", report, err)
	}

	workouts, err := svc.History(ctx, "u1", time.Now().AddDate(0, 0, -7), time.Now())
	if err != nil || len(workouts) != 1 {
		t.Fatalf("history = %+v, err %v", workouts, err)
	}

	history.err = errors.New("db gone")
	if _, err := svc.History(ctx, "u1", time.Now(), time.Now()); err == nil {
		t.Fatalf("expected history error")
	}
}
