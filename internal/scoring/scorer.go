package scoring

import (
	"fmt"
	"math"

	pkgerrors "github.com/vietcv/skillpath/internal/pkg/errors"
	"github.com/vietcv/skillpath/internal/pathfind"
	"github.com/vietcv/skillpath/internal/types"
)

// DefaultWeights is the documented fusion default: structure and semantics
// dominate, the penalty only breaks ties.
var DefaultWeights = types.ScoreWeights{Structural: 0.5, Semantic: 0.4, Penalty: 0.1}

const weightEpsilon = 1e-9

// ValidateWeights rejects fusion coefficients that break the design
// intent: no negative weights, structural+semantic must carry the score,
// and the penalty weight may not outweigh them.
func ValidateWeights(w types.ScoreWeights) error {
	if w.Structural < 0 || w.Semantic < 0 || w.Penalty < 0 {
		return fmt.Errorf("scoring: negative weight: %w", pkgerrors.ErrInvalidConfiguration)
	}
	if w.Structural+w.Semantic <= 0 {
		return fmt.Errorf("scoring: w1+w2 must be positive: %w", pkgerrors.ErrInvalidConfiguration)
	}
	if w.Penalty > w.Structural+w.Semantic {
		return fmt.Errorf("scoring: penalty weight outweighs w1+w2: %w", pkgerrors.ErrInvalidConfiguration)
	}
	if w.Structural+w.Semantic+w.Penalty > 1+weightEpsilon {
		return fmt.Errorf("scoring: weights sum above 1: %w", pkgerrors.ErrInvalidConfiguration)
	}
	return nil
}

// Config bounds one scoring run.
type Config struct {
	Weights    types.ScoreWeights
	MaxHops    int
	LevelScale float64
}

func (c Config) withDefaults() Config {
	if c.Weights == (types.ScoreWeights{}) {
		c.Weights = DefaultWeights
	}
	if c.MaxHops <= 0 {
		c.MaxHops = 3
	}
	if c.LevelScale <= 0 {
		c.LevelScale = 5
	}
	return c
}

// Input carries the read-only request context the scorer needs. All of it
// comes from the snapshot and the request; the scorer itself talks to no
// store.
type Input struct {
	Steps []pathfind.Step
	// GapVectors maps a gap skill id to the embedding of its specific
	// requirement (not the generic skill node).
	GapVectors map[string][]float32
	// UnitsByCourse maps a course id to its semantic units.
	UnitsByCourse map[string][]types.SemanticUnit
	// ExpectedDifficulty maps a gap skill id to its expected course
	// difficulty; absent entries mean no deviation penalty.
	ExpectedDifficulty map[string]int
}

// ScoreSteps computes the per-course hybrid score of every step and the
// additive path aggregate. The aggregate is a plain sum over the
// deduplicated steps: broad multi-course coverage is allowed to outscore a
// single narrow course, so no path-level normalization is applied.
//
// The hop term is the step's own chain-relative hop, not its position in
// the slice: a direct course stays hop zero even when merged behind
// another skill's chain.
func ScoreSteps(cfg Config, in Input) ([]types.ScoreBreakdown, float64) {
	cfg = cfg.withDefaults()
	out := make([]types.ScoreBreakdown, 0, len(in.Steps))
	total := 0.0
	for _, step := range in.Steps {
		bd := scoreStep(cfg, in, step.Hop, step)
		total += bd.Total
		out = append(out, bd)
	}
	return out, total
}

func scoreStep(cfg Config, in Input, hop int, step pathfind.Step) types.ScoreBreakdown {
	structural := 0.0
	for _, target := range step.Targets {
		if w := step.Course.TeachWeight(target); w > structural {
			structural = w
		}
	}
	structural = clamp01(structural)

	semantic := 0.0
	units := in.UnitsByCourse[step.Course.ID]
	for _, target := range step.Targets {
		want := in.GapVectors[target]
		if len(want) == 0 {
			continue
		}
		for _, u := range units {
			if s := clamp01(Cosine(u.Vector, want)); s > semantic {
				semantic = s
			}
		}
	}

	hopNorm := float64(hop) / float64(cfg.MaxHops)
	if hopNorm > 1 {
		hopNorm = 1
	}
	dev := 0.0
	for _, target := range step.Targets {
		expected, ok := in.ExpectedDifficulty[target]
		if !ok {
			continue
		}
		d := math.Abs(float64(step.Course.Difficulty-expected)) / cfg.LevelScale
		if d > dev {
			dev = d
		}
	}
	if dev > 1 {
		dev = 1
	}
	penalty := (hopNorm + dev) / 2

	w := cfg.Weights
	return types.ScoreBreakdown{
		Structural: structural,
		Semantic:   semantic,
		Penalty:    penalty,
		Total:      w.Structural*structural + w.Semantic*semantic - w.Penalty*penalty,
	}
}

// Cosine is the cosine similarity of two vectors. Mismatched or empty
// vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
