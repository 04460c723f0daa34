package workload

import (
	"sort"
	"time"

	"github.com/2beens/gymfatigue/internal/fatigue/workout"
)

const (
	defaultLoadRPE    = 7.0
	failureMultiplier = 1.2
	// loadScale keeps typical session loads in the tens.
	loadScale = 1000.0
	dayLayout = "2006-01-02"
)

// DailyLoad is the summed training load of one calendar day.
type DailyLoad struct {
	Date time.Time `json:"date"`
	Load float64   `json:"load"`
}

// SetLoad is reps × lb-weight × (RPE/10) × failure multiplier, scaled down
// by 1000. Sets without a rating count at RPE 7.
func SetLoad(s workout.Set) float64 {
	if !s.Completed || s.ActualReps <= 0 {
		return 0
	}
	rpe := defaultLoadRPE
	if r, ok := s.EffectiveRPE(); ok {
		rpe = r
	}
	load := float64(s.ActualReps) * s.WeightLb() * (rpe / 10)
	if s.ReachedFailure {
		load *= failureMultiplier
	}
	if load < 0 {
		return 0
	}
	return load / loadScale
}

func SessionLoad(sets []workout.Set) float64 {
	var total float64
	for _, s := range sets {
		total += SetLoad(s)
	}
	return total
}

// MuscleLoads splits a session's load by each set's primary muscle.
func MuscleLoads(sets []workout.Set, catalog *workout.Catalog) map[workout.Muscle]float64 {
	if catalog == nil {
		catalog = workout.DefaultCatalog()
	}
	out := make(map[workout.Muscle]float64)
	for _, s := range sets {
		if l := SetLoad(s); l > 0 {
			out[catalog.MuscleFor(s)] += l
		}
	}
	return out
}

// DailyLoads sums workout loads per calendar day, oldest first.
func DailyLoads(history []workout.Workout) []DailyLoad {
	byDay := make(map[string]*DailyLoad)
	for _, w := range history {
		day := truncateDay(w.Date)
		key := day.Format(dayLayout)
		dl, ok := byDay[key]
		if !ok {
			dl = &DailyLoad{Date: day}
			byDay[key] = dl
		}
		dl.Load += SessionLoad(w.AllSets())
	}

	out := make([]DailyLoad, 0, len(byDay))
	for _, dl := range byDay {
		out = append(out, *dl)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
