package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/gymfatigue/internal/fatigue"
	"github.com/2beens/gymfatigue/internal/fatigue/cleaning"
	"github.com/2beens/gymfatigue/internal/fatigue/rpecal"
	"github.com/2beens/gymfatigue/internal/fatigue/workout"
	"github.com/2beens/gymfatigue/internal/gymstats/assessment"
)

// fatigueService is the part of assessment.Service the tools expose.
type fatigueService interface {
	AssessFatigue(ctx context.Context, req assessment.AssessRequest) (*fatigue.Alert, error)
	AssessFatigueEnhanced(ctx context.Context, req assessment.AssessRequest) (*fatigue.EnhancedAssessment, error)
	AnalyzeRPECalibration(ctx context.Context, req assessment.RPECalibrationRequest) (*rpecal.Calibration, error)
	Workload(ctx context.Context, userID string) (*assessment.WorkloadReport, error)
}

type historyLoader interface {
	History(ctx context.Context, userID string, from, to time.Time) ([]workout.Workout, error)
}

// contextService is what Handler needs; ContextService implements it.
type contextService interface {
	GetSchema(ctx context.Context) (string, error)
	AssessFatigue(ctx context.Context, req assessment.AssessRequest, enhanced bool) (any, error)
	AnalyzeRPECalibration(ctx context.Context, req assessment.RPECalibrationRequest) (*rpecal.Calibration, error)
	Workload(ctx context.Context, userID string) (*assessment.WorkloadReport, error)
	History(ctx context.Context, userID string, from, to time.Time) ([]workout.Workout, error)
}

// ContextService backs the MCP tools with the fatigue service and the set log.
type ContextService struct {
	schema  SchemaRepo
	fatigue fatigueService
	history historyLoader
}

func NewContextService(schemaRepo SchemaRepo, fatigueSvc fatigueService, history historyLoader) *ContextService {
	return &ContextService{
		schema:  schemaRepo,
		fatigue: fatigueSvc,
		history: history,
	}
}

// GetSchema returns the set log table layout as markdown, each column
// annotated with how the fatigue engine reads it.
func (s *ContextService) GetSchema(ctx context.Context) (string, error) {
	schema, err := s.schema.SetLogSchema(ctx)
	if err != nil {
		return "", err
	}
	return formatSetLogSchema(schema), nil
}

// columnNote explains how the engine reads a set log column.
func columnNote(column string) string {
	switch column {
	case "session_id":
		return "live session the set was logged in; empty when logged outside a session"
	case "exercise_id":
		return "catalog id; resolves the primary muscle for interference"
	case "set_index":
		return "order within the exercise"
	case "completed":
		return "only completed sets count toward fatigue and load"
	case "reps":
		return fmt.Sprintf("reps done; outside 0-%d the set is dropped as impossible", cleaning.MaxReps)
	case "weight":
		return fmt.Sprintf("load in weight_unit; above %d lb-equivalent the set is dropped as impossible", cleaning.MaxWeightLb)
	case "weight_unit":
		return "lb or kg; kg is converted to lb for load"
	case "rpe":
		return fmt.Sprintf("effort 1-10, 0 = not rated; rpe %d with more than %d reps is dropped as contradictory",
			cleaning.MaximalRPE, cleaning.MaximalRPEMaxReps)
	case "target_rpe":
		return "prescribed effort, 0 = none; actual minus target drives RPE calibration"
	case "rir":
		return fmt.Sprintf("reps in reserve 0-%d; read as rpe 10-rir when rpe is 0", cleaning.MaxRIR)
	case "reached_failure":
		return fmt.Sprintf("failure below rpe %d or with %d+ reps in reserve is dropped as contradictory",
			cleaning.FailureMinRPE, cleaning.FailureMaxRIR)
	case "form_breakdown":
		return "strong evidence for the in-session fatigue estimate"
	case "duration_ms":
		return "set duration; seconds per rep is the velocity proxy"
	case "created_at":
		return "set time; history groups sets into workouts by UTC day"
	}
	return "-"
}

func formatSetLogSchema(schema *SetLogSchema) string {
	if schema == nil || len(schema.Columns) == 0 {
		return "# Set Log DB Schema\n\nNo set log tables found in the database.\n"
	}

	var b strings.Builder
	b.WriteString("# Set Log DB Schema\n\n")
	fmt.Fprintf(&b, "Tables: %s (schema: public), about %d rows.\n\n", schema.Table, schema.EstimatedRows)

	fmt.Fprintf(&b, "## %s\n\n", schema.Table)
	b.WriteString("| Column | Type | Nullable | Default | Meaning |\n|--------|------|----------|---------|---------|\n")
	for _, c := range schema.Columns {
		nullable := "NO"
		if c.Nullable {
			nullable = "YES"
		}
		def := c.Default
		if def == "" {
			def = "-"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", c.Name, c.DataType, nullable, def, columnNote(c.Name))
	}

	if len(schema.Indexes) > 0 {
		b.WriteString("\n## Indexes\n\n")
		for _, idx := range schema.Indexes {
			fmt.Fprintf(&b, "- %s: `%s`\n", idx.Name, idx.Definition)
		}
	}

	fmt.Fprintf(&b, "\nRatings more than %.1f modified z-scores from the session median are dropped as outliers, "+
		"unless %.0f%% or more of the session's ratings would go.\n",
		cleaning.OutlierZ, cleaning.OutlierMaxFraction*100)

	return b.String()
}

// AssessFatigue runs the basic or the personalized assessment.
func (s *ContextService) AssessFatigue(ctx context.Context, req assessment.AssessRequest, enhanced bool) (any, error) {
	if enhanced {
		return s.fatigue.AssessFatigueEnhanced(ctx, req)
	}
	return s.fatigue.AssessFatigue(ctx, req)
}

func (s *ContextService) AnalyzeRPECalibration(ctx context.Context, req assessment.RPECalibrationRequest) (*rpecal.Calibration, error) {
	return s.fatigue.AnalyzeRPECalibration(ctx, req)
}

func (s *ContextService) Workload(ctx context.Context, userID string) (*assessment.WorkloadReport, error) {
	return s.fatigue.Workload(ctx, userID)
}

func (s *ContextService) History(ctx context.Context, userID string, from, to time.Time) ([]workout.Workout, error) {
	return s.history.History(ctx, userID, from, to)
}
