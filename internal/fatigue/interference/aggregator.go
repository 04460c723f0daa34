package interference

import (
	"sort"

	"github.com/2beens/gymfatigue/internal/fatigue/stats"
	"github.com/2beens/gymfatigue/internal/fatigue/workout"
)

const (
	referenceReps   = 8.0
	referenceLoadLb = 150.0
	// contributionScale maps one reference set (RPE 10, 8 reps, 150 lb, direct)
	// to 15 fatigue points.
	contributionScale = 15.0
	minIntensity      = 0.3
	defaultIntensity  = 0.7
	minLoadFactor     = 0.25
	maxLoadFactor     = 3.0

	formBreakdownMultiplier = 1.5
	failureMultiplier       = 1.4
	tempoMultiplier         = 1.2
	compoundTempoSecPerRep  = 5.0
	isolationTempoSecPerRep = 4.0

	// overshootBonusPerPoint is added per RPE point above target.
	overshootBonusPerPoint = 2.0
	// MaterialContribution is the smallest contribution listed as a reason.
	MaterialContribution = 0.5
	MaxFatigue           = 100.0
)

// ContributingSet explains how much one completed set added to a score.
type ContributingSet struct {
	ExerciseID   string         `json:"exerciseId"`
	SetIndex     int            `json:"setIndex"`
	Source       workout.Muscle `json:"source"`
	Interference float64        `json:"interference"`
	Contribution float64        `json:"contribution"`
}

// MuscleScore is a 0–100 fatigue level for one muscle group, recomputed on
// every call and never persisted.
type MuscleScore struct {
	Muscle       workout.Muscle    `json:"muscle"`
	Fatigue      float64           `json:"fatigue"`
	Tier         Tier              `json:"tier"`
	Contributing []ContributingSet `json:"contributing"`
}

type Aggregator struct {
	graph   *Graph
	catalog *workout.Catalog
}

func NewAggregator(graph *Graph, catalog *workout.Catalog) *Aggregator {
	if graph == nil {
		graph = DefaultGraph()
	}
	if catalog == nil {
		catalog = workout.DefaultCatalog()
	}
	return &Aggregator{
		graph:   graph,
		catalog: catalog,
	}
}

func (a *Aggregator) Graph() *Graph {
	return a.graph
}

func (a *Aggregator) Catalog() *workout.Catalog {
	return a.catalog
}

// Contribution returns the fatigue one set adds to target, plus the
// interference weight used. Sets that were not completed contribute nothing.
func (a *Aggregator) Contribution(s workout.Set, target workout.Muscle) (contribution, weight float64) {
	if !s.Completed {
		return 0, 0
	}

	info := a.catalog.Lookup(s.ExerciseID, s.ExerciseName)
	weight = a.graph.Weight(info.Muscle, target)

	intensity := defaultIntensity
	if rpe, ok := s.EffectiveRPE(); ok {
		intensity = stats.Clamp(rpe/10, minIntensity, 1)
	}
	volume := float64(max(s.ActualReps, 0)) / referenceReps
	load := stats.Clamp(s.WeightLb()/referenceLoadLb, minLoadFactor, maxLoadFactor)

	modifiers := 1.0
	if s.FormBreakdown {
		modifiers *= formBreakdownMultiplier
	}
	if s.ReachedFailure {
		modifiers *= failureMultiplier
	}
	if spr := s.SecondsPerRep(); spr > tempoThreshold(info.Kind) {
		modifiers *= tempoMultiplier
	}

	contribution = contributionScale * intensity * volume * load * weight * modifiers
	contribution += overshootBonusPerPoint * s.Overshoot() * weight
	if !stats.IsFinite(contribution) || contribution < 0 {
		contribution = 0
	}
	return contribution, weight
}

// Score sums the contributions of sets toward target, capped at 100.
// Every set counts toward the total; only material ones are listed.
func (a *Aggregator) Score(target workout.Muscle, sets []workout.Set) MuscleScore {
	var total float64
	contributing := make([]ContributingSet, 0)
	for _, s := range sets {
		c, w := a.Contribution(s, target)
		total += c
		if c < MaterialContribution {
			continue
		}
		contributing = append(contributing, ContributingSet{
			ExerciseID:   s.ExerciseID,
			SetIndex:     s.SetIndex,
			Source:       a.catalog.MuscleFor(s),
			Interference: w,
			Contribution: c,
		})
	}

	fatigue := stats.Clamp(total, 0, MaxFatigue)
	return MuscleScore{
		Muscle:       target,
		Fatigue:      fatigue,
		Tier:         TierFor(fatigue),
		Contributing: contributing,
	}
}

// ScoreAll scores every muscle in the graph, most fatigued first.
func (a *Aggregator) ScoreAll(sets []workout.Set) []MuscleScore {
	muscles := a.graph.Muscles()
	scores := make([]MuscleScore, 0, len(muscles))
	for _, m := range muscles {
		scores = append(scores, a.Score(m, sets))
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Fatigue > scores[j].Fatigue
	})
	return scores
}

func tempoThreshold(kind workout.MovementKind) float64 {
	if kind == workout.KindIsolation {
		return isolationTempoSecPerRep
	}
	return compoundTempoSecPerRep
}
