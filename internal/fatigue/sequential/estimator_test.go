package sequential_test

import (
	"testing"

	"github.com/2beens/gymfatigue/internal/fatigue/sequential"
	"github.com/2beens/gymfatigue/internal/fatigue/workout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cleanSet(idx int) workout.Set {
	return workout.Set{
		ExerciseID: "squat",
		Completed:  true,
		ActualReps: 5,
		ActualRPE:  7,
		TargetRPE:  7,
		SetIndex:   idx,
	}
}

func grindingSet(idx int) workout.Set {
	s := cleanSet(idx)
	s.FormBreakdown = true
	s.ReachedFailure = true
	return s
}

func TestEvidence(t *testing.T) {
	assert.Equal(t, 0.0, sequential.Evidence(cleanSet(0)))

	s := cleanSet(0)
	s.FormBreakdown = true
	assert.InDelta(t, 0.5, sequential.Evidence(s), 1e-9)

	s = cleanSet(0)
	s.ReachedFailure = true
	assert.InDelta(t, 0.4, sequential.Evidence(s), 1e-9)

	// failure was the plan at target 9.5
	s.TargetRPE = 9.5
	s.ActualRPE = 9.5
	assert.Equal(t, 0.0, sequential.Evidence(s))

	s = cleanSet(0)
	s.ActualRPE = 9
	assert.InDelta(t, 0.3, sequential.Evidence(s), 1e-9)

	assert.Equal(t, 1.0, sequential.Evidence(func() workout.Set {
		g := grindingSet(0)
		g.ActualRPE = 10
		return g
	}()))
}

func TestEstimator_Fresh(t *testing.T) {
	e := sequential.New(sequential.DefaultPriorFatigue)
	assert.Equal(t, sequential.StateFresh, e.State())

	cur := e.Current()
	assert.InDelta(t, 20.0, cur.Posterior, 1e-9)
	assert.Equal(t, sequential.ActionContinue, cur.Action)
	assert.Empty(t, e.Estimates())
}

func TestEstimator_CleanSetsContinue(t *testing.T) {
	e := sequential.New(sequential.DefaultPriorFatigue)
	for i := 0; i < 5; i++ {
		est, err := e.Update(cleanSet(i))
		require.NoError(t, err)
		assert.Equal(t, sequential.ActionContinue, est.Action)
	}
	assert.Equal(t, sequential.StateUpdating, e.State())
	assert.Len(t, e.Estimates(), 5)
	assert.Less(t, e.Current().Posterior, 10.0)
}

func TestEstimator_GrindingSetsStop(t *testing.T) {
	e := sequential.Replay(sequential.DefaultPriorFatigue, []workout.Set{
		grindingSet(0), grindingSet(1), grindingSet(2), grindingSet(3), grindingSet(4),
	})
	cur := e.Current()
	assert.Greater(t, cur.Posterior, 85.0)
	assert.Greater(t, cur.Confidence, 0.7)
	assert.Equal(t, sequential.ActionStop, cur.Action)
	assert.LessOrEqual(t, cur.Lower, cur.Posterior)
	assert.GreaterOrEqual(t, cur.Upper, cur.Posterior)
}

func TestEstimator_PosteriorMonotoneInEvidence(t *testing.T) {
	var prev float64
	for overshoot := 0.0; overshoot <= 3.0; overshoot += 0.5 {
		s := cleanSet(0)
		s.ActualRPE = s.TargetRPE + overshoot
		if s.ActualRPE > 10 {
			s.ActualRPE = 10
		}
		e := sequential.New(30)
		est, err := e.Update(s)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, est.Posterior, prev, "overshoot %v", overshoot)
		prev = est.Posterior
	}
}

func TestEstimator_IntervalShrinksWithRepeatedPattern(t *testing.T) {
	for _, mk := range []func(int) workout.Set{cleanSet, grindingSet} {
		e := sequential.New(sequential.DefaultPriorFatigue)
		width := 101.0
		for i := 0; i < 8; i++ {
			est, err := e.Update(mk(i))
			require.NoError(t, err)
			w := est.Upper - est.Lower
			assert.LessOrEqual(t, w, width, "set %d", i)
			width = w
		}
	}
}

func TestEstimator_IncompleteSetIgnored(t *testing.T) {
	e := sequential.New(sequential.DefaultPriorFatigue)
	s := grindingSet(0)
	s.Completed = false
	est, err := e.Update(s)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, est.Posterior, 1e-9)
	assert.Empty(t, e.Estimates())
}

func TestEstimator_ClosedRejectsUpdates(t *testing.T) {
	e := sequential.New(sequential.DefaultPriorFatigue)
	_, err := e.Update(cleanSet(0))
	require.NoError(t, err)

	e.End()
	assert.Equal(t, sequential.StateClosed, e.State())
	_, err = e.Update(cleanSet(1))
	assert.ErrorIs(t, err, sequential.ErrSessionClosed)
}

func TestEstimator_SessionsAreIndependent(t *testing.T) {
	a := sequential.New(sequential.DefaultPriorFatigue)
	b := sequential.New(sequential.DefaultPriorFatigue)
	_, _ = a.Update(grindingSet(0))
	assert.InDelta(t, 20.0, b.Current().Posterior, 1e-9)
}

func TestRecommend(t *testing.T) {
	assert.Equal(t, sequential.ActionStop, sequential.Recommend(75, 0.8))
	assert.Equal(t, sequential.ActionReduceLoad, sequential.Recommend(75, 0.65))
	assert.Equal(t, sequential.ActionReduceLoad, sequential.Recommend(55, 0.7))
	assert.Equal(t, sequential.ActionContinue, sequential.Recommend(55, 0.5))
	assert.Equal(t, sequential.ActionContinue, sequential.Recommend(40, 0.99))
}
