package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds an MCP server with the fatigue tools: set log schema,
// fatigue assessment, RPE calibration, workload and workout history.
// Used both by the stdio binary and by the backend at /mcp.
func NewServer(service contextService) *mcp.Server {
	h := NewHandler(service)
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "gymfatigue",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_set_log_schema",
		Description: "Returns the DB schema of the set log (exercise_set): columns, types, defaults, indexes, approximate size, and how the fatigue engine reads each column (units, valid ranges, what gets dropped as impossible or contradictory). Use when you need to know what a logged set contains.",
	}, h.GetSetLogSchemaTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "assess_fatigue",
		Description: "Scores fatigue (0-100) of the muscle trained by the upcoming exercise from the sets completed so far, with a tier, a recommended action and a load reduction. Args: user_id, upcoming_exercise_id; either completed_sets or session_id. Set enhanced=true to personalize with the lifter's history.",
	}, h.AssessFatigueTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "analyze_rpe_calibration",
		Description: "Compares the lifter's actual RPE against the prescribed RPE for one exercise and suggests a weight change. Args: user_id, exercise_id; either sets or session_id.",
	}, h.AnalyzeRPECalibrationTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_workload",
		Description: "Returns the acute:chronic workload ratio with its risk band, monotony and strain, plus per-muscle fitness-fatigue readiness (0-100). Arg: user_id.",
	}, h.GetWorkloadTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_workout_history",
		Description: "Returns the lifter's logged sets grouped into daily workouts. Args: user_id; optional from_date, to_date (YYYY-MM-DD).",
	}, h.GetWorkoutHistoryTool())

	return s
}
