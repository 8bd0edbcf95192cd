package types

// RecommendRequest is the caller-facing request body. Target skills can be
// given as taxonomy ids, free-text names (resolved through entity search
// before the engine runs), or both.
type RecommendRequest struct {
	TargetSkillIDs   []string `json:"target_skill_ids,omitempty"`
	TargetSkillNames []string `json:"target_skill_names,omitempty"`
	HeldSkillIDs     []string `json:"held_skill_ids,omitempty"`
	CurrentLevel     int      `json:"current_level"`

	// Optional per-request overrides; zero values fall back to the
	// service defaults loaded at startup.
	Weights      *ScoreWeights `json:"weights,omitempty"`
	MaxHops      int           `json:"max_hops,omitempty"`
	TopK         int           `json:"top_k,omitempty"`
	TimeBudgetMS int           `json:"time_budget_ms,omitempty"`
}

// ScoreWeights are the three fusion coefficients of the hybrid score.
type ScoreWeights struct {
	Structural float64 `json:"w1" yaml:"w1"`
	Semantic   float64 `json:"w2" yaml:"w2"`
	Penalty    float64 `json:"w3" yaml:"w3"`
}

// SkillSearchRequest is the body of the vector search endpoint.
type SkillSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}
