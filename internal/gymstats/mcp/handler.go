package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/2beens/gymfatigue/internal/fatigue/workout"
	"github.com/2beens/gymfatigue/internal/gymstats/assessment"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultHistoryDays = 30

// Handler handles MCP tool requests and responses: parses input, calls the service, formats MCP result.
type Handler struct {
	service contextService
	now     func() time.Time
}

func NewHandler(service contextService) *Handler {
	return &Handler{
		service: service,
		now:     time.Now,
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: " + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}
}

// GetSetLogSchemaTool returns the MCP tool handler for get_set_log_schema.
func (h *Handler) GetSetLogSchemaTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		text, err := h.service.GetSchema(ctx)
		if err != nil {
			return errorResult("Error fetching schema: " + err.Error()), nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil, nil
	}
}

// SetInput is a logged set as tools accept it.
type SetInput struct {
	ExerciseID     string  `json:"exercise_id" jsonschema:"Exercise id (e.g. bench_press)"`
	ExerciseName   string  `json:"exercise_name,omitempty" jsonschema:"Display name, used when the id is unknown"`
	Completed      bool    `json:"completed" jsonschema:"Whether the set was completed"`
	Reps           int     `json:"reps" jsonschema:"Reps performed"`
	Weight         float64 `json:"weight" jsonschema:"Weight lifted"`
	WeightUnit     string  `json:"weight_unit,omitempty" jsonschema:"lb or kg, default lb"`
	RPE            float64 `json:"rpe,omitempty" jsonschema:"Actual RPE (1-10)"`
	TargetRPE      float64 `json:"target_rpe,omitempty" jsonschema:"Prescribed RPE (1-10)"`
	RIR            *int    `json:"rir,omitempty" jsonschema:"Reps in reserve, used when rpe is missing"`
	ReachedFailure bool    `json:"reached_failure,omitempty" jsonschema:"Set ended at muscular failure"`
	FormBreakdown  bool    `json:"form_breakdown,omitempty" jsonschema:"Technique broke down during the set"`
	SetIndex       int     `json:"set_index" jsonschema:"Position of the set in the session, from 0"`
}

func toSets(in []SetInput) []workout.Set {
	if len(in) == 0 {
		return nil
	}
	sets := make([]workout.Set, len(in))
	for i, s := range in {
		unit := workout.UnitLb
		if s.WeightUnit == string(workout.UnitKg) {
			unit = workout.UnitKg
		}
		sets[i] = workout.Set{
			ExerciseID:     s.ExerciseID,
			ExerciseName:   s.ExerciseName,
			Completed:      s.Completed,
			ActualReps:     s.Reps,
			ActualWeight:   s.Weight,
			WeightUnit:     unit,
			ActualRPE:      s.RPE,
			TargetRPE:      s.TargetRPE,
			RIR:            s.RIR,
			ReachedFailure: s.ReachedFailure,
			FormBreakdown:  s.FormBreakdown,
			SetIndex:       s.SetIndex,
		}
	}
	return sets
}

// AssessFatigueInput is the input for assess_fatigue.
type AssessFatigueInput struct {
	UserID             string     `json:"user_id" jsonschema:"Lifter id"`
	UpcomingExerciseID string     `json:"upcoming_exercise_id" jsonschema:"Exercise about to be performed (e.g. overhead_press)"`
	SessionID          string     `json:"session_id,omitempty" jsonschema:"Live or logged session to read completed sets from"`
	CompletedSets      []SetInput `json:"completed_sets,omitempty" jsonschema:"Sets completed so far in the session; overrides session_id"`
	Enhanced           bool       `json:"enhanced,omitempty" jsonschema:"Blend in the lifter's personalization model built from history"`
}

// AssessFatigueTool returns the MCP tool handler for assess_fatigue.
func (h *Handler) AssessFatigueTool() func(context.Context, *mcp.CallToolRequest, AssessFatigueInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in AssessFatigueInput) (*mcp.CallToolResult, any, error) {
		if in.UserID == "" || in.UpcomingExerciseID == "" {
			return errorResult("user_id and upcoming_exercise_id are required"), nil, nil
		}
		result, err := h.service.AssessFatigue(ctx, assessment.AssessRequest{
			UserID:             in.UserID,
			SessionID:          in.SessionID,
			UpcomingExerciseID: in.UpcomingExerciseID,
			CompletedSets:      toSets(in.CompletedSets),
		}, in.Enhanced)
		if err != nil {
			return errorResult("Error assessing fatigue: " + err.Error()), nil, nil
		}
		return jsonResult(result), nil, nil
	}
}

// RPECalibrationInput is the input for analyze_rpe_calibration.
type RPECalibrationInput struct {
	UserID     string     `json:"user_id" jsonschema:"Lifter id"`
	ExerciseID string     `json:"exercise_id" jsonschema:"Exercise to calibrate (e.g. squat)"`
	SessionID  string     `json:"session_id,omitempty" jsonschema:"Session to read sets from"`
	Sets       []SetInput `json:"sets,omitempty" jsonschema:"Sets with actual and target RPE; overrides session_id"`
}

// AnalyzeRPECalibrationTool returns the MCP tool handler for analyze_rpe_calibration.
func (h *Handler) AnalyzeRPECalibrationTool() func(context.Context, *mcp.CallToolRequest, RPECalibrationInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in RPECalibrationInput) (*mcp.CallToolResult, any, error) {
		if in.UserID == "" || in.ExerciseID == "" {
			return errorResult("user_id and exercise_id are required"), nil, nil
		}
		calibration, err := h.service.AnalyzeRPECalibration(ctx, assessment.RPECalibrationRequest{
			UserID:     in.UserID,
			SessionID:  in.SessionID,
			ExerciseID: in.ExerciseID,
			Sets:       toSets(in.Sets),
		})
		if err != nil {
			return errorResult("Error analyzing RPE calibration: " + err.Error()), nil, nil
		}
		return jsonResult(calibration), nil, nil
	}
}

// WorkloadInput is the input for get_workload.
type WorkloadInput struct {
	UserID string `json:"user_id" jsonschema:"Lifter id"`
}

// GetWorkloadTool returns the MCP tool handler for get_workload.
func (h *Handler) GetWorkloadTool() func(context.Context, *mcp.CallToolRequest, WorkloadInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in WorkloadInput) (*mcp.CallToolResult, any, error) {
		if in.UserID == "" {
			return errorResult("user_id is required"), nil, nil
		}
		report, err := h.service.Workload(ctx, in.UserID)
		if err != nil {
			return errorResult("Error computing workload: " + err.Error()), nil, nil
		}
		return jsonResult(report), nil, nil
	}
}

// HistoryInput is the input for get_workout_history.
type HistoryInput struct {
	UserID   string `json:"user_id" jsonschema:"Lifter id"`
	FromDate string `json:"from_date,omitempty" jsonschema:"Start date (YYYY-MM-DD), default 30 days ago"`
	ToDate   string `json:"to_date,omitempty" jsonschema:"End date (YYYY-MM-DD), default today"`
}

// GetWorkoutHistoryTool returns the MCP tool handler for get_workout_history.
func (h *Handler) GetWorkoutHistoryTool() func(context.Context, *mcp.CallToolRequest, HistoryInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in HistoryInput) (*mcp.CallToolResult, any, error) {
		if in.UserID == "" {
			return errorResult("user_id is required"), nil, nil
		}

		to := h.now()
		if in.ToDate != "" {
			parsed, err := time.Parse("2006-01-02", in.ToDate)
			if err != nil {
				return errorResult("Invalid to_date: use YYYY-MM-DD"), nil, nil
			}
			to = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, 999999999, parsed.Location())
		}
		from := to.AddDate(0, 0, -defaultHistoryDays)
		if in.FromDate != "" {
			parsed, err := time.Parse("2006-01-02", in.FromDate)
			if err != nil {
				return errorResult("Invalid from_date: use YYYY-MM-DD"), nil, nil
			}
			from = parsed
		}

		history, err := h.service.History(ctx, in.UserID, from, to)
		if err != nil {
			return errorResult("Error loading history: " + err.Error()), nil, nil
		}
		return jsonResult(history), nil, nil
	}
}
