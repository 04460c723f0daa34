package workout

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Muscle is a muscle-group key, e.g. "chest" or "quads".
type Muscle string

const (
	MuscleChest     Muscle = "chest"
	MuscleShoulders Muscle = "shoulders"
	MuscleTriceps   Muscle = "triceps"
	MuscleUpperBack Muscle = "upper_back"
	MuscleBiceps    Muscle = "biceps"
	MuscleForearms  Muscle = "forearms"
	MuscleTraps     Muscle = "traps"
	MuscleQuads     Muscle = "quads"
	MuscleHamstring Muscle = "hamstrings"
	MuscleGlutes    Muscle = "glutes"
	MuscleCalves    Muscle = "calves"
	MuscleLowerBack Muscle = "lower_back"
	MuscleCore      Muscle = "core"
	MuscleUnknown   Muscle = "unknown"
)

// Muscles lists every trainable muscle group, in display order.
var Muscles = []Muscle{
	MuscleChest, MuscleShoulders, MuscleTriceps, MuscleUpperBack, MuscleBiceps, MuscleForearms,
	MuscleTraps, MuscleQuads, MuscleHamstring, MuscleGlutes, MuscleCalves, MuscleLowerBack, MuscleCore,
}

type MovementKind string

const (
	KindCompound  MovementKind = "compound"
	KindIsolation MovementKind = "isolation"
)

// ExerciseInfo describes how an exercise is classified.
type ExerciseInfo struct {
	Muscle Muscle       `yaml:"muscle"`
	Kind   MovementKind `yaml:"kind"`
}

type synonymRule struct {
	Keyword string `yaml:"keyword"`
	Muscle  Muscle `yaml:"muscle"`
}

type catalogFile struct {
	Exercises map[string]ExerciseInfo `yaml:"exercises"`
	Synonyms  []synonymRule           `yaml:"synonyms"`
}

// Catalog resolves exercise identifiers to muscle groups. It is read-only
// after construction and safe for concurrent use.
type Catalog struct {
	exercises map[string]ExerciseInfo
	synonyms  []synonymRule
}

var isolationHints = []string{"raise", "curl", "fly", "extension", "pushdown", "kickback"}

//go:embed catalog.yaml
var catalogYAML []byte

var defaultCatalog = MustParseCatalog(catalogYAML)

// DefaultCatalog returns the process-wide built-in exercise catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}

	c := &Catalog{
		exercises: make(map[string]ExerciseInfo, len(f.Exercises)),
		synonyms:  f.Synonyms,
	}
	for id, info := range f.Exercises {
		if info.Muscle == "" {
			return nil, fmt.Errorf("exercise %s: empty muscle", id)
		}
		if info.Kind == "" {
			info.Kind = KindCompound
		}
		c.exercises[normalizeID(id)] = info
	}
	for i, rule := range c.synonyms {
		if rule.Keyword == "" || rule.Muscle == "" {
			return nil, fmt.Errorf("synonym rule %d incomplete", i)
		}
	}
	return c, nil
}

func MustParseCatalog(raw []byte) *Catalog {
	c, err := ParseCatalog(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup classifies an exercise by id, falling back to the exercise name.
// Unknown exercises resolve to MuscleUnknown / compound.
func (c *Catalog) Lookup(exerciseID, exerciseName string) ExerciseInfo {
	if info, ok := c.exercises[normalizeID(exerciseID)]; ok {
		return info
	}
	if exerciseName != "" {
		if info, ok := c.exercises[normalizeID(exerciseName)]; ok {
			return info
		}
	}

	kind := KindCompound
	for _, text := range []string{exerciseID, exerciseName} {
		if text == "" {
			continue
		}
		if m, ok := c.matchSynonym(text); ok {
			lower := normalizeWords(text)
			for _, hint := range isolationHints {
				if strings.Contains(lower, hint) {
					kind = KindIsolation
					break
				}
			}
			return ExerciseInfo{Muscle: m, Kind: kind}
		}
	}
	return ExerciseInfo{Muscle: MuscleUnknown, Kind: kind}
}

// MuscleFor is a shorthand for Lookup(...).Muscle.
func (c *Catalog) MuscleFor(s Set) Muscle {
	return c.Lookup(s.ExerciseID, s.ExerciseName).Muscle
}

func (c *Catalog) matchSynonym(text string) (Muscle, bool) {
	words := strings.Fields(normalizeWords(text))
	for _, rule := range c.synonyms {
		if containsPhrase(words, strings.Fields(rule.Keyword)) {
			return rule.Muscle, true
		}
	}
	return "", false
}

// containsPhrase reports whether phrase occurs as consecutive words, each
// phrase word matching as a prefix of the corresponding word.
func containsPhrase(words, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(words) {
		return false
	}
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, p := range phrase {
			if !strings.HasPrefix(words[i+j], p) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func normalizeWords(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer("_", " ", "-", " ", ".", " ", "/", " ").Replace(s)
}

func normalizeID(s string) string {
	return strings.Join(strings.Fields(normalizeWords(s)), "_")
}
