package workout

import (
	"sort"
	"time"
)

// ExerciseLog holds the sets of one exercise inside a workout.
type ExerciseLog struct {
	ExerciseID string `json:"exerciseId"`
	Name       string `json:"name,omitempty"`
	Sets       []Set  `json:"sets"`
}

// Workout is one dated training session from a user's history.
type Workout struct {
	ID        string        `json:"id"`
	Date      time.Time     `json:"date"`
	Exercises []ExerciseLog `json:"exercises"`
}

func (w Workout) SetCount() int {
	n := 0
	for _, ex := range w.Exercises {
		n += len(ex.Sets)
	}
	return n
}

// AllSets flattens the workout into its sets, exercise by exercise.
func (w Workout) AllSets() []Set {
	sets := make([]Set, 0, w.SetCount())
	for _, ex := range w.Exercises {
		sets = append(sets, ex.Sets...)
	}
	return sets
}

// TotalSets counts sets across all workouts.
func TotalSets(history []Workout) int {
	n := 0
	for _, w := range history {
		n += w.SetCount()
	}
	return n
}

// SortByDate returns a copy of history ordered oldest first. Ties keep
// their input order.
func SortByDate(history []Workout) []Workout {
	sorted := make([]Workout, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}
