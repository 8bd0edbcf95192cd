package types

// TeachesEdge is a weighted TEACHES relation from a course to a skill. The
// weight is the learned structural trust score, already scaled to [0,1].
type TeachesEdge struct {
	SkillID string  `json:"skill_id"`
	Weight  float64 `json:"weight"`
}

// Course is a leaf value of the course graph snapshot; the engine never
// mutates one.
type Course struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Category      string        `json:"category,omitempty"`
	Difficulty    int           `json:"difficulty"`
	DurationHours float64       `json:"duration_hours"`
	Teaches       []TeachesEdge `json:"teaches"`
	Requires      []string      `json:"requires,omitempty"`
}

// TeachWeight returns the TEACHES weight toward skillID, or 0 when the
// course does not teach it.
func (c *Course) TeachWeight(skillID string) float64 {
	for _, e := range c.Teaches {
		if e.SkillID == skillID {
			return e.Weight
		}
	}
	return 0
}

// SemanticUnit is one embedded content granule of a course, linked to the
// skill its TEACHES edge targets.
type SemanticUnit struct {
	ID       string    `json:"id"`
	CourseID string    `json:"course_id"`
	SkillID  string    `json:"skill_id"`
	Vector   []float32 `json:"-"`
}
