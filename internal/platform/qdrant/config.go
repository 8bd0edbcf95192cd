package qdrant

import (
	"fmt"
	"net/url"

	pkgerrors "github.com/vietcv/skillpath/internal/pkg/errors"
	"github.com/vietcv/skillpath/internal/platform/envutil"
)

type Config struct {
	URL             string
	SkillCollection string
	UnitCollection  string
	VectorDim       int
}

// ConfigFromEnv reads QDRANT_* variables. An empty URL means the vector
// store is disabled; callers decide whether that is acceptable.
func ConfigFromEnv() Config {
	return Config{
		URL:             envutil.Str("QDRANT_URL", ""),
		SkillCollection: envutil.Str("QDRANT_SKILL_COLLECTION", "esco_skills"),
		UnitCollection:  envutil.Str("QDRANT_UNIT_COLLECTION", "semantic_units"),
		VectorDim:       envutil.Int("QDRANT_VECTOR_DIM", 0),
	}
}

func ValidateConfig(cfg Config) error {
	if cfg.URL == "" {
		return fmt.Errorf("qdrant: QDRANT_URL is required: %w", pkgerrors.ErrInvalidConfiguration)
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("qdrant: invalid QDRANT_URL %q: %w", cfg.URL, pkgerrors.ErrInvalidConfiguration)
	}
	if cfg.SkillCollection == "" || cfg.UnitCollection == "" {
		return fmt.Errorf("qdrant: collection names are required: %w", pkgerrors.ErrInvalidConfiguration)
	}
	if cfg.VectorDim < 0 {
		return fmt.Errorf("qdrant: negative vector dim: %w", pkgerrors.ErrInvalidConfiguration)
	}
	return nil
}
