// Package interference models how fatigue in one muscle group carries over
// to another, and aggregates a session's sets into per-muscle fatigue.
package interference

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/2beens/gymfatigue/internal/fatigue/workout"

	"gopkg.in/yaml.v3"
)

const (
	SameChainWeight = 0.5
	SystemicWeight  = 0.15
)

type Chain string

const (
	ChainPressing  Chain = "pressing"
	ChainPulling   Chain = "pulling"
	ChainLowerBody Chain = "lower_body"
)

type matrixFile struct {
	Chains  map[Chain][]workout.Muscle                        `yaml:"chains"`
	Weights map[workout.Muscle]map[workout.Muscle]float64 `yaml:"weights"`
}

// Graph is a static directed weighted graph over muscle groups. It is
// immutable once built and shared process-wide.
type Graph struct {
	edges  map[workout.Muscle]map[workout.Muscle]float64
	chains map[workout.Muscle]Chain
}

//go:embed matrix.yaml
var matrixYAML []byte

var defaultGraph = MustParseGraph(matrixYAML)

func DefaultGraph() *Graph {
	return defaultGraph
}

func ParseGraph(raw []byte) (*Graph, error) {
	var f matrixFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("unmarshal interference matrix: %w", err)
	}

	g := &Graph{
		edges:  make(map[workout.Muscle]map[workout.Muscle]float64, len(f.Weights)),
		chains: make(map[workout.Muscle]Chain),
	}
	for chain, muscles := range f.Chains {
		for _, m := range muscles {
			if prev, ok := g.chains[m]; ok && prev != chain {
				return nil, fmt.Errorf("muscle %s in two chains: %s, %s", m, prev, chain)
			}
			g.chains[m] = chain
		}
	}
	for src, targets := range f.Weights {
		g.edges[src] = make(map[workout.Muscle]float64, len(targets))
		for dst, w := range targets {
			if w < 0 || w > 1 {
				return nil, fmt.Errorf("weight %s -> %s out of [0,1]: %v", src, dst, w)
			}
			g.edges[src][dst] = w
		}
	}
	return g, nil
}

func MustParseGraph(raw []byte) *Graph {
	g, err := ParseGraph(raw)
	if err != nil {
		panic(err)
	}
	return g
}

// Weight returns how much of a set's fatigue on source lands on target.
// Lookup order: identity (1.0), explicit table, same kinetic chain (0.5),
// systemic default (0.15).
func (g *Graph) Weight(source, target workout.Muscle) float64 {
	if source == target && source != workout.MuscleUnknown {
		return 1
	}
	if targets, ok := g.edges[source]; ok {
		if w, ok := targets[target]; ok {
			return w
		}
	}
	if c, ok := g.chains[source]; ok && c == g.chains[target] {
		return SameChainWeight
	}
	return SystemicWeight
}

// ChainOf reports the kinetic chain of m, if it belongs to one.
func (g *Graph) ChainOf(m workout.Muscle) (Chain, bool) {
	c, ok := g.chains[m]
	return c, ok
}

// Muscles lists every muscle the graph knows about.
func (g *Graph) Muscles() []workout.Muscle {
	seen := make(map[workout.Muscle]bool)
	var out []workout.Muscle
	add := func(m workout.Muscle) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	for m := range g.chains {
		add(m)
	}
	for src, targets := range g.edges {
		add(src)
		for dst := range targets {
			add(dst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
