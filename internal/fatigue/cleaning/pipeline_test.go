package cleaning_test

import (
	"testing"

	"github.com/2beens/gymfatigue/internal/fatigue/cleaning"
	"github.com/2beens/gymfatigue/internal/fatigue/workout"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func set(idx, reps int, weight, rpe float64) workout.Set {
	return workout.Set{
		ExerciseID:   "bench_press",
		Completed:    true,
		ActualReps:   reps,
		ActualWeight: weight,
		WeightUnit:   workout.UnitLb,
		ActualRPE:    rpe,
		TargetRPE:    8,
		SetIndex:     idx,
	}
}

func TestPipeline_DropsImpossible(t *testing.T) {
	rir := -2
	sets := []workout.Set{
		set(0, 8, 185, 8),
		set(1, -1, 185, 8),
		set(2, 8, -5, 8),
		set(3, 8, 185, 11),
		set(4, 500, 185, 8),
	}
	bad := set(5, 8, 185, 8)
	bad.RIR = &rir
	sets = append(sets, bad)

	kept, report := cleaning.NewPipeline().Clean(sets)
	require.Len(t, kept, 1)
	assert.Equal(t, 0, kept[0].SetIndex)
	assert.Equal(t, 5, report.RemovedImpossible)
	assert.Equal(t, cleaning.QualityPoor, report.Quality)
	assert.Len(t, report.Removals, 5)
}

func TestPipeline_MaximalRPEWithHighRepsIsContradictory(t *testing.T) {
	s := set(0, 20, 95, 10)
	s.ReachedFailure = true

	kept, report := cleaning.NewPipeline().Clean([]workout.Set{s})
	assert.Empty(t, kept)
	assert.Equal(t, 1, report.RemovedContradictory)
	assert.Equal(t, 0, report.RemovedImpossible)
	require.Len(t, report.Removals, 1)
	assert.Equal(t, cleaning.StageContradictory, report.Removals[0].Stage)
}

func TestPipeline_FailureAtLowRPEIsContradictory(t *testing.T) {
	s := set(0, 8, 135, 4)
	s.ReachedFailure = true
	ok := set(1, 8, 135, 9)
	ok.ReachedFailure = true

	kept, report := cleaning.NewPipeline().Clean([]workout.Set{s, ok})
	require.Len(t, kept, 1)
	assert.Equal(t, 1, kept[0].SetIndex)
	assert.Equal(t, 1, report.RemovedContradictory)
}

func TestPipeline_RemovesOutlier(t *testing.T) {
	sets := []workout.Set{
		set(0, 8, 185, 7),
		set(1, 8, 185, 7.5),
		set(2, 8, 185, 8),
		set(3, 8, 185, 7),
		set(4, 8, 185, 8.5),
		set(5, 8, 185, 7.5),
		set(6, 8, 185, 1),
	}
	kept, report := cleaning.NewPipeline().Clean(sets)
	assert.Len(t, kept, 6)
	assert.Equal(t, 1, report.RemovedOutliers)
	assert.False(t, report.OutlierStageSkipped)
	assert.Equal(t, cleaning.QualityGood, report.Quality)
}

func TestPipeline_SkipsOutlierStageWhenTooManyFlagged(t *testing.T) {
	sets := []workout.Set{
		set(0, 8, 185, 7),
		set(1, 8, 185, 7.5),
		set(2, 8, 185, 7),
		set(3, 8, 185, 7.5),
		set(4, 8, 185, 7),
		set(5, 8, 185, 1),
		set(6, 8, 185, 1),
		set(7, 8, 185, 1.5),
	}
	kept, report := cleaning.NewPipeline().Clean(sets)
	assert.Len(t, kept, 8)
	assert.True(t, report.OutlierStageSkipped)
	assert.Equal(t, 0, report.RemovedOutliers)
	assert.Equal(t, cleaning.QualityExcellent, report.Quality)
}

func TestPipeline_KeepsSpikeThatIsNotAnOutlier(t *testing.T) {
	sets := []workout.Set{
		set(0, 8, 185, 7),
		set(1, 8, 185, 7),
		set(2, 8, 185, 7),
		set(3, 8, 185, 9.5),
		set(4, 8, 185, 9.5),
	}
	kept, report := cleaning.NewPipeline().Clean(sets)
	assert.Len(t, kept, 5)
	assert.Equal(t, 0, report.Removed())
}

func TestPipeline_Empty(t *testing.T) {
	kept, report := cleaning.NewPipeline().Clean(nil)
	assert.Empty(t, kept)
	assert.Equal(t, 0, report.Input)
	assert.Equal(t, cleaning.QualityExcellent, report.Quality)
}

func TestPipeline_IdempotentOnRandomSessions(t *testing.T) {
	faker := gofakeit.New(42)
	p := cleaning.NewPipeline()

	for round := 0; round < 100; round++ {
		n := faker.IntRange(1, 4)
		sets := make([]workout.Set, n)
		for i := range sets {
			sets[i] = set(i,
				faker.IntRange(-2, 25),
				faker.Float64Range(-10, 400),
				float64(faker.IntRange(6, 22))/2,
			)
			sets[i].ReachedFailure = faker.Bool()
		}

		once, _ := p.Clean(sets)
		twice, report := p.Clean(once)
		assert.Equal(t, once, twice, "round %d", round)
		assert.Equal(t, 0, report.Removed(), "round %d", round)
	}
}

func TestPipeline_IdempotentAfterOutlierRemoval(t *testing.T) {
	sets := []workout.Set{
		set(0, 8, 185, 7),
		set(1, 8, 185, 7.5),
		set(2, 8, 185, 8),
		set(3, 8, 185, 7),
		set(4, 8, 185, 8.5),
		set(5, 8, 185, 7.5),
		set(6, 8, 185, 1),
		set(7, 20, 95, 10),
		set(8, -3, 95, 8),
	}
	p := cleaning.NewPipeline()
	once, first := p.Clean(sets)
	require.Equal(t, 3, first.Removed())

	twice, second := p.Clean(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, 0, second.Removed())
	assert.Equal(t, cleaning.QualityExcellent, second.Quality)
}

func TestPipeline_IdempotentOnLongRandomSessions(t *testing.T) {
	faker := gofakeit.New(7)
	p := cleaning.NewPipeline()

	for round := 0; round < 2000; round++ {
		n := faker.IntRange(5, 14)
		sets := make([]workout.Set, n)
		for i := range sets {
			sets[i] = set(i,
				faker.IntRange(1, 20),
				faker.Float64Range(45, 315),
				float64(faker.IntRange(2, 20))/2,
			)
			sets[i].ReachedFailure = faker.IntRange(0, 9) == 0
		}

		once, first := p.Clean(sets)
		twice, second := p.Clean(once)
		require.Equal(t, once, twice, "round %d", round)
		require.Equal(t, 0, second.Removed(), "round %d: %+v", round, second.Removals)
		require.Equal(t, first.Kept, second.Input, "round %d", round)
	}
}

func TestPipeline_OutlierStageRescoresSurvivors(t *testing.T) {
	ratings := []float64{9, 9, 8, 8, 4, 4, 8, 6, 2, 8.5, 5.5, 2, 2.5}
	sets := make([]workout.Set, len(ratings))
	for i, r := range ratings {
		sets[i] = set(i, 8, 185, r)
	}

	p := cleaning.NewPipeline()
	once, _ := p.Clean(sets)
	twice, report := p.Clean(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, 0, report.Removed())
}

func TestPipeline_ReportsStagesInOrder(t *testing.T) {
	sets := []workout.Set{
		set(0, 20, 95, 10),
		set(1, 8, 185, 7),
		set(2, 8, 185, 7.5),
		set(3, 8, 185, 8),
		set(4, 8, 185, 7),
		set(5, 8, 185, 8.5),
		set(6, 8, 185, 7.5),
		set(7, 8, 185, 1),
		set(8, -3, 95, 8),
	}
	_, report := cleaning.NewPipeline().Clean(sets)
	require.Len(t, report.Removals, 3)
	assert.Equal(t, cleaning.StageImpossible, report.Removals[0].Stage)
	assert.Equal(t, 8, report.Removals[0].SetIndex)
	assert.Equal(t, cleaning.StageOutlier, report.Removals[1].Stage)
	assert.Equal(t, 7, report.Removals[1].SetIndex)
	assert.Equal(t, cleaning.StageContradictory, report.Removals[2].Stage)
	assert.Equal(t, 0, report.Removals[2].SetIndex)
}
