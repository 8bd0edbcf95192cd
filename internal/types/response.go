package types

// ScoreBreakdown enumerates the hybrid score terms of one recommended
// course, for downstream explanation generation.
type ScoreBreakdown struct {
	Structural float64 `json:"structural"`
	Semantic   float64 `json:"semantic"`
	Penalty    float64 `json:"penalty"`
	Total      float64 `json:"total"`
}

// RecommendedCourse is one ordered step of the returned learning path.
type RecommendedCourse struct {
	CourseID     string         `json:"course_id"`
	Title        string         `json:"title"`
	Category     string         `json:"category,omitempty"`
	TargetSkills []string       `json:"target_skills"`
	Hop          int            `json:"hop"`
	Score        ScoreBreakdown `json:"score"`
}

// UnreachableSkill reports a gap skill no chain could satisfy within the
// request bounds. It is payload, not an error.
type UnreachableSkill struct {
	SkillID string `json:"skill_id"`
	Reason  string `json:"reason"`
}

// SkillRef echoes a resolved skill back to the caller.
type SkillRef struct {
	SkillID string `json:"skill_id"`
	Label   string `json:"label,omitempty"`
}

// RecommendResponse is the terminal artifact of one recommendation request.
type RecommendResponse struct {
	RequestedSkills []SkillRef          `json:"requested_skills"`
	Gap             []string            `json:"gap"`
	Courses         []RecommendedCourse `json:"recommended_courses"`
	LearningPath    []string            `json:"learning_path"`
	Unreachable     []UnreachableSkill  `json:"unreachable,omitempty"`
	UnknownSkills   []string            `json:"unknown_skills,omitempty"`
	PathScore       float64             `json:"path_score"`
}

// SkillSearchResult is one hit of name or vector skill search.
type SkillSearchResult struct {
	SkillID string  `json:"skill_id"`
	Label   string  `json:"label"`
	Descr   string  `json:"description,omitempty"`
	Score   float64 `json:"score"`
}

// CourseDetail is the by-id course view, with weighted taught skills and
// prerequisite skills.
type CourseDetail struct {
	CourseID      string        `json:"course_id"`
	Title         string        `json:"title"`
	Category      string        `json:"category,omitempty"`
	Difficulty    int           `json:"difficulty"`
	DurationHours float64       `json:"duration_hours"`
	Teaches       []TeachesEdge `json:"taught_skills"`
	Requires      []string      `json:"required_skills"`
}
