package services

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	pkgerrors "github.com/vietcv/skillpath/internal/pkg/errors"
	"github.com/vietcv/skillpath/internal/platform/envutil"
	"github.com/vietcv/skillpath/internal/scoring"
	"github.com/vietcv/skillpath/internal/types"
)

// Params are the engine defaults. Callers may override weights and bounds
// per request; whatever the merge produces is validated before any graph
// work starts.
type Params struct {
	Weights       types.ScoreWeights `yaml:"weights"`
	MaxHops       int                `yaml:"max_hops"`
	TopK          int                `yaml:"top_k"`
	TimeBudget    time.Duration      `yaml:"time_budget"`
	LevelScale    float64            `yaml:"level_scale"`
	MaxCandidates int                `yaml:"max_candidates"`
	MaxConcurrent int                `yaml:"max_concurrent"`
}

func DefaultParams() Params {
	return Params{
		Weights:       scoring.DefaultWeights,
		MaxHops:       3,
		TopK:          10,
		TimeBudget:    2 * time.Second,
		LevelScale:    5,
		MaxCandidates: 5,
		MaxConcurrent: 8,
	}
}

// LoadParams reads the optional YAML file at ENGINE_CONFIG_PATH, then
// applies ENGINE_* env overrides on top of the defaults.
func LoadParams() (Params, error) {
	p := DefaultParams()

	if path := envutil.Str("ENGINE_CONFIG_PATH", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return p, fmt.Errorf("params: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &p); err != nil {
			return p, fmt.Errorf("params: parse %s: %w", path, err)
		}
	}

	p.Weights.Structural = envutil.Float("ENGINE_WEIGHT_STRUCTURAL", p.Weights.Structural)
	p.Weights.Semantic = envutil.Float("ENGINE_WEIGHT_SEMANTIC", p.Weights.Semantic)
	p.Weights.Penalty = envutil.Float("ENGINE_WEIGHT_PENALTY", p.Weights.Penalty)
	p.MaxHops = envutil.Int("ENGINE_MAX_HOPS", p.MaxHops)
	p.TopK = envutil.Int("ENGINE_TOP_K", p.TopK)
	p.TimeBudget = envutil.Dur("ENGINE_TIME_BUDGET", p.TimeBudget)

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Merge layers request overrides over the defaults.
func (p Params) Merge(req types.RecommendRequest) Params {
	out := p
	if req.Weights != nil {
		out.Weights = *req.Weights
	}
	if req.MaxHops > 0 {
		out.MaxHops = req.MaxHops
	}
	if req.TopK > 0 {
		out.TopK = req.TopK
	}
	if req.TimeBudgetMS > 0 {
		out.TimeBudget = time.Duration(req.TimeBudgetMS) * time.Millisecond
	}
	return out
}

func (p Params) Validate() error {
	if err := scoring.ValidateWeights(p.Weights); err != nil {
		return err
	}
	if p.MaxHops < 1 {
		return fmt.Errorf("params: max_hops must be at least 1: %w", pkgerrors.ErrInvalidConfiguration)
	}
	if p.TopK < 1 {
		return fmt.Errorf("params: top_k must be at least 1: %w", pkgerrors.ErrInvalidConfiguration)
	}
	if p.TimeBudget <= 0 {
		return fmt.Errorf("params: time_budget must be positive: %w", pkgerrors.ErrInvalidConfiguration)
	}
	if p.LevelScale <= 0 {
		return fmt.Errorf("params: level_scale must be positive: %w", pkgerrors.ErrInvalidConfiguration)
	}
	return nil
}
