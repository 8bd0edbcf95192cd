package ranking

import (
	"math"
	"sort"
	"strings"

	"github.com/vietcv/skillpath/internal/pathfind"
	"github.com/vietcv/skillpath/internal/types"
)

// Scores land here after float summation, so two semantically equal sums
// can differ in the last bit. Ties within this tolerance fall through to
// the next rung of the ladder.
const scoreEpsilon = 1e-9

// ScoredChain is one candidate chain with its hybrid score attached.
type ScoredChain struct {
	Chain      pathfind.Chain
	Breakdowns []types.ScoreBreakdown
	Aggregate  float64
}

func (s ScoredChain) structuralSum() float64 {
	total := 0.0
	for _, b := range s.Breakdowns {
		total += b.Structural
	}
	return total
}

func (s ScoredChain) seq() string {
	parts := make([]string, 0, len(s.Chain.Steps))
	for _, step := range s.Chain.Steps {
		parts = append(parts, step.Course.ID)
	}
	return strings.Join(parts, "\x1f")
}

// Sort orders candidates by aggregate score descending with the
// deterministic tie-break ladder: higher structural sum, fewer courses,
// lexicographic course id sequence.
func Sort(chains []ScoredChain) {
	sort.SliceStable(chains, func(i, j int) bool {
		a, b := chains[i], chains[j]
		if math.Abs(a.Aggregate-b.Aggregate) > scoreEpsilon {
			return a.Aggregate > b.Aggregate
		}
		as, bs := a.structuralSum(), b.structuralSum()
		if math.Abs(as-bs) > scoreEpsilon {
			return as > bs
		}
		if len(a.Chain.Steps) != len(b.Chain.Steps) {
			return len(a.Chain.Steps) < len(b.Chain.Steps)
		}
		return a.seq() < b.seq()
	})
}

// Best returns the winning candidate, assuming at least one.
func Best(chains []ScoredChain) ScoredChain {
	Sort(chains)
	return chains[0]
}

// Emit materializes the final ordered result: the merged path truncated to
// topK courses, each with its enumerated score breakdown, plus the ordered
// course ids and the additive aggregate of what is returned. Course order
// is the prerequisite order of the merged path; ranking decided which
// chains got merged, it never reorders steps inside a path.
func Emit(steps []pathfind.Step, breakdowns []types.ScoreBreakdown, topK int) ([]types.RecommendedCourse, []string, float64) {
	n := len(steps)
	if topK > 0 && topK < n {
		n = topK
	}
	courses := make([]types.RecommendedCourse, 0, n)
	ids := make([]string, 0, n)
	total := 0.0
	for i := 0; i < n; i++ {
		step := steps[i]
		bd := types.ScoreBreakdown{}
		if i < len(breakdowns) {
			bd = breakdowns[i]
		}
		courses = append(courses, types.RecommendedCourse{
			CourseID:     step.Course.ID,
			Title:        step.Course.Title,
			Category:     step.Course.Category,
			TargetSkills: append([]string(nil), step.Targets...),
			Hop:          step.Hop,
			Score:        bd,
		})
		ids = append(ids, step.Course.ID)
		total += bd.Total
	}
	return courses, ids, total
}
