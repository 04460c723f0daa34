package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/2beens/gymfatigue/internal/fatigue"
	"github.com/2beens/gymfatigue/internal/fatigue/rpecal"
	"github.com/2beens/gymfatigue/internal/fatigue/workout"
	"github.com/2beens/gymfatigue/internal/gymstats/assessment"
	"github.com/2beens/gymfatigue/internal/gymstats/exercises"
	"github.com/2beens/gymfatigue/internal/middleware"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) doRequest(
	ctx context.Context,
	method, path, userID string,
	body any,
	expectedStatus int,
	dst any,
) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reader)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(middleware.UserIDHeader, userID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)
	require.Equal(s.T(), expectedStatus, resp.StatusCode, "%s %s: %s", method, path, respBytes)

	if dst != nil {
		require.NoError(s.T(), json.Unmarshal(respBytes, dst))
	}
}

func benchSet(index int, rpe float64, ts time.Time) workout.Set {
	return workout.Set{
		ExerciseID:   "bench_press",
		Completed:    true,
		ActualReps:   8 - index,
		ActualWeight: 185,
		WeightUnit:   workout.UnitLb,
		ActualRPE:    rpe,
		TargetRPE:    7,
		Duration:     40 * time.Second,
		Timestamp:    ts,
		SetIndex:     index,
	}
}

func (s *IntegrationTestSuite) TestSetLog() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	userID := gofakeit.UUID()

	var added exercises.LoggedSet
	s.doRequest(ctx, "POST", "/sets", userID, exercises.LoggedSet{
		Set: benchSet(0, 7.5, time.Now().Add(-time.Hour)),
	}, http.StatusCreated, &added)
	s.Positive(added.ID)
	s.Equal(userID, added.UserID)
	s.Equal(1, s.countSets(userID))

	var list exercises.ListResponse
	s.doRequest(ctx, "GET", "/sets?exercise_id=bench_press", userID, nil, http.StatusOK, &list)
	s.Require().Equal(1, list.Total)
	s.Equal(185.0, list.Sets[0].ActualWeight)
	s.Equal(40*time.Second, list.Sets[0].Duration)

	s.doRequest(ctx, "GET", "/sets?exercise_id=squat", userID, nil, http.StatusOK, &list)
	s.Equal(0, list.Total)

	// other users see nothing
	s.doRequest(ctx, "GET", "/sets", gofakeit.UUID(), nil, http.StatusOK, &list)
	s.Equal(0, list.Total)

	var history []workout.Workout
	s.doRequest(ctx, "GET", "/history?days=7", userID, nil, http.StatusOK, &history)
	s.Require().Len(history, 1)
	s.Equal(1, history[0].SetCount())

	var deleted exercises.DeleteSetResponse
	s.doRequest(ctx, "DELETE", fmt.Sprintf("/sets/%d", added.ID), userID, nil, http.StatusOK, &deleted)
	s.Equal(added.ID, deleted.DeletedID)
	s.doRequest(ctx, "DELETE", fmt.Sprintf("/sets/%d", added.ID), userID, nil, http.StatusNotFound, nil)
	s.Equal(0, s.countSets(userID))
}

func (s *IntegrationTestSuite) TestSessionFlow() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	userID := gofakeit.UUID()

	// four weeks of bench every other day
	now := time.Now()
	historical := 0
	for day := 28; day >= 2; day -= 2 {
		for i := 0; i < 3; i++ {
			ts := now.AddDate(0, 0, -day).Add(time.Duration(i) * 3 * time.Minute)
			s.doRequest(ctx, "POST", "/sets", userID, exercises.LoggedSet{
				Set: benchSet(i, 7+float64(i)*0.5, ts),
			}, http.StatusCreated, nil)
			historical++
		}
	}

	var started assessment.StartSessionResponse
	s.doRequest(ctx, "POST", "/fatigue/sessions", userID, assessment.StartSessionRequest{}, http.StatusCreated, &started)
	s.Require().NotEmpty(started.SessionID)
	sessionPath := "/fatigue/sessions/" + started.SessionID

	for i, rpe := range []float64{8, 8.5, 9.5, 10} {
		var logged assessment.LogSetResponse
		s.doRequest(ctx, "POST", sessionPath+"/sets", userID, assessment.LogSetRequest{
			Set: benchSet(i, rpe, time.Now()),
		}, http.StatusCreated, &logged)
		s.Require().NotNil(logged.Set)
		s.Equal(started.SessionID, logged.Set.SessionID)
		s.Equal(i, logged.Estimate.SetIndex)
	}
	s.Equal(historical+4, s.countSets(userID))

	// another lifter cannot use the session
	s.doRequest(ctx, "POST", sessionPath+"/sets", gofakeit.UUID(), assessment.LogSetRequest{
		Set: benchSet(4, 8, time.Now()),
	}, http.StatusNotFound, nil)

	var alert fatigue.Alert
	s.doRequest(ctx, "POST", "/fatigue/assess", userID, assessment.AssessRequest{
		SessionID:          started.SessionID,
		UpcomingExerciseID: "overhead_press",
	}, http.StatusOK, &alert)
	s.Equal("overhead_press", alert.UpcomingExerciseID)
	s.Equal(workout.MuscleShoulders, alert.TargetMuscle)
	s.GreaterOrEqual(alert.Fatigue, 0.0)
	s.LessOrEqual(alert.Fatigue, 100.0)

	var enhanced fatigue.EnhancedAssessment
	s.doRequest(ctx, "POST", "/fatigue/assess/enhanced", userID, assessment.AssessRequest{
		SessionID:          started.SessionID,
		UpcomingExerciseID: "incline_bench_press",
	}, http.StatusOK, &enhanced)
	s.Equal(workout.MuscleChest, enhanced.TargetMuscle)

	var calibration rpecal.Calibration
	s.doRequest(ctx, "POST", "/fatigue/rpe-calibration", userID, assessment.RPECalibrationRequest{
		SessionID:  started.SessionID,
		ExerciseID: "bench_press",
	}, http.StatusOK, &calibration)
	s.Equal("bench_press", calibration.ExerciseID)

	var ended assessment.EndSessionResponse
	s.doRequest(ctx, "POST", sessionPath+"/end", userID, nil, http.StatusOK, &ended)
	s.Equal(4, ended.SetCount)
	s.Require().NotEmpty(ended.Readiness)

	s.doRequest(ctx, "POST", sessionPath+"/end", userID, nil, http.StatusNotFound, nil)

	var report assessment.WorkloadReport
	s.doRequest(ctx, "GET", "/fatigue/workload", userID, nil, http.StatusOK, &report)
	s.Equal(userID, report.UserID)
	muscles := make([]workout.Muscle, 0, len(report.Readiness))
	for _, r := range report.Readiness {
		muscles = append(muscles, r.Muscle)
	}
	assert.Contains(s.T(), muscles, workout.MuscleChest)
}

func (s *IntegrationTestSuite) TestRequestValidation() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.doRequest(ctx, "GET", "/sets", "", nil, http.StatusBadRequest, nil)
	s.doRequest(ctx, "POST", "/fatigue/assess", gofakeit.UUID(), assessment.AssessRequest{}, http.StatusBadRequest, nil)
	s.doRequest(ctx, "POST", "/fatigue/sessions/missing/end", gofakeit.UUID(), nil, http.StatusNotFound, nil)
	s.doRequest(ctx, "POST", "/fatigue/sessions", gofakeit.UUID(), assessment.StartSessionRequest{PriorFatigue: 150}, http.StatusBadRequest, nil)
}
