package pathfind

import (
	"container/heap"
	"context"
	"math"
	"sort"
	"strings"

	"github.com/vietcv/skillpath/internal/types"
)

// Graph is the read-only course graph view the finder searches. The
// snapshot satisfies it; tests use in-memory fakes.
type Graph interface {
	CoursesTeaching(skillID string) []*types.Course
	Course(courseID string) (*types.Course, bool)
}

// Unreachability reasons surfaced in the response payload.
const (
	ReasonNoCourse  = "no course in the graph teaches this skill"
	ReasonHopBound  = "no prerequisite chain found within the hop bound"
	ReasonBudget    = "search abandoned: request time budget exhausted"
	ReasonCancelled = "search abandoned: request cancelled"
)

// Options bound one per-skill search.
type Options struct {
	MaxHops       int
	MaxCandidates int     // chains collected per gap skill for final ranking
	UserLevel     int     // learner's stated current difficulty level
	LevelScale    float64 // divisor normalizing difficulty deviation into [0,1]
}

func (o Options) withDefaults() Options {
	if o.MaxHops <= 0 {
		o.MaxHops = 3
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = 5
	}
	if o.LevelScale <= 0 {
		o.LevelScale = 5
	}
	return o
}

// Step is one course traversal of a chain together with the skills the
// step is meant to satisfy. Hop is the step's distance from the start of
// its own chain; merging chains into one path never changes it.
type Step struct {
	Course  *types.Course
	Targets []string
	Hop     int
}

// Chain is a prerequisite-ordered course sequence reaching one gap skill.
type Chain struct {
	Skill    string
	Steps    []Step
	Cost     float64
	Duration float64
}

// Outcome is the per-gap-skill search result. Reason is empty when at
// least one chain was found.
type Outcome struct {
	Skill  string
	Chains []Chain
	Reason string
}

// edgeCost is the admissible cost the search minimizes: mean of the
// structural distrust of the course's best TEACHES edge and its normalized
// difficulty deviation from the learner's level. The richer hybrid score is
// applied afterwards over whole chains, never here.
func edgeCost(c *types.Course, opts Options) float64 {
	best := 0.0
	for _, e := range c.Teaches {
		if e.Weight > best {
			best = e.Weight
		}
	}
	if best > 1 {
		best = 1
	}
	dev := math.Abs(float64(c.Difficulty-opts.UserLevel)) / opts.LevelScale
	if dev > 1 {
		dev = 1
	}
	return ((1 - best) + dev) / 2
}

type searchState struct {
	achieved map[string]struct{}
	courses  []*types.Course
	cost     float64
	duration float64
	key      string
	seq      string // joined course ids, deterministic tie-break
}

type stateQueue []*searchState

func (q stateQueue) Len() int { return len(q) }
func (q stateQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	if len(q[i].courses) != len(q[j].courses) {
		return len(q[i].courses) < len(q[j].courses)
	}
	if q[i].duration != q[j].duration {
		return q[i].duration < q[j].duration
	}
	return q[i].seq < q[j].seq
}
func (q stateQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *stateQueue) Push(x any)   { *q = append(*q, x.(*searchState)) }
func (q *stateQueue) Pop() any {
	old := *q
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return s
}

// FindChains searches for minimal-cost course chains from the held skill
// set to gapSkill. It returns a bounded candidate set ordered by search
// cost; final ordering among candidates belongs to the hybrid scorer. The
// search respects ctx: on cancellation it returns whatever chains it
// already found.
func FindChains(ctx context.Context, g Graph, gapSkill string, held map[string]struct{}, opts Options) Outcome {
	opts = opts.withDefaults()
	out := Outcome{Skill: gapSkill}

	pool := relevantCourses(g, gapSkill, opts.MaxHops)
	if len(pool) == 0 {
		out.Reason = ReasonNoCourse
		return out
	}

	// A course that teaches the gap skill and has no unmet prerequisite is
	// always a candidate chain on its own, whatever the cost ordering says.
	seen := make(map[string]struct{})
	for _, c := range pool {
		if c.TeachWeight(gapSkill) <= 0 {
			continue
		}
		if !requiresMet(c, held) {
			continue
		}
		out.Chains = append(out.Chains, buildChain(gapSkill, []*types.Course{c}, held, edgeCost(c, opts)))
		seen[c.ID] = struct{}{}
		if len(out.Chains) >= opts.MaxCandidates {
			sortChains(out.Chains)
			return out
		}
	}

	start := &searchState{achieved: held}
	visited := map[string]float64{"": 0}
	q := &stateQueue{start}
	heap.Init(q)

	for q.Len() > 0 {
		if err := ctx.Err(); err != nil {
			if len(out.Chains) == 0 {
				out.Reason = budgetReason(err)
			}
			sortChains(out.Chains)
			return out
		}
		st := heap.Pop(q).(*searchState)
		if best, ok := visited[st.key]; ok && st.cost > best {
			continue
		}
		if _, done := st.achieved[gapSkill]; done {
			if len(st.courses) == 0 {
				// Gap resolution guarantees the start state never holds
				// the target; guard anyway.
				continue
			}
			last := st.courses[len(st.courses)-1]
			if _, dup := seen[last.ID]; !(len(st.courses) == 1 && dup) {
				out.Chains = append(out.Chains, buildChain(gapSkill, st.courses, held, st.cost))
				if len(out.Chains) >= opts.MaxCandidates {
					break
				}
			}
			continue
		}
		if len(st.courses) >= opts.MaxHops {
			continue
		}
		for _, c := range pool {
			if usedCourse(st.courses, c.ID) {
				continue
			}
			if !requiresMet(c, st.achieved) {
				continue
			}
			if !teachesAnythingNew(c, st.achieved) {
				continue
			}
			next := expand(st, c, edgeCost(c, opts))
			if best, ok := visited[next.key]; ok && next.cost >= best {
				continue
			}
			visited[next.key] = next.cost
			heap.Push(q, next)
		}
	}

	if len(out.Chains) == 0 {
		out.Reason = ReasonHopBound
	}
	sortChains(out.Chains)
	return out
}

func budgetReason(err error) string {
	if err == context.DeadlineExceeded {
		return ReasonBudget
	}
	return ReasonCancelled
}

// relevantCourses walks REQUIRES edges backwards from the target skill so
// the forward search never touches unrelated parts of the graph. The walk
// is bounded by the hop limit.
func relevantCourses(g Graph, gapSkill string, maxHops int) []*types.Course {
	byID := make(map[string]*types.Course)
	frontier := []string{gapSkill}
	seenSkill := map[string]struct{}{gapSkill: {}}

	for depth := 0; depth < maxHops && len(frontier) > 0; depth++ {
		var next []string
		for _, sk := range frontier {
			for _, c := range g.CoursesTeaching(sk) {
				if c == nil || c.ID == "" {
					continue
				}
				if _, ok := byID[c.ID]; ok {
					continue
				}
				byID[c.ID] = c
				for _, req := range c.Requires {
					if _, ok := seenSkill[req]; ok {
						continue
					}
					seenSkill[req] = struct{}{}
					next = append(next, req)
				}
			}
		}
		frontier = next
	}

	out := make([]*types.Course, 0, len(byID))
	for _, c := range byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func requiresMet(c *types.Course, achieved map[string]struct{}) bool {
	for _, req := range c.Requires {
		if _, ok := achieved[req]; !ok {
			return false
		}
	}
	return true
}

func teachesAnythingNew(c *types.Course, achieved map[string]struct{}) bool {
	for _, e := range c.Teaches {
		if _, ok := achieved[e.SkillID]; !ok {
			return true
		}
	}
	return false
}

func usedCourse(courses []*types.Course, id string) bool {
	for _, c := range courses {
		if c.ID == id {
			return true
		}
	}
	return false
}

func expand(st *searchState, c *types.Course, cost float64) *searchState {
	achieved := make(map[string]struct{}, len(st.achieved)+len(c.Teaches))
	for s := range st.achieved {
		achieved[s] = struct{}{}
	}
	for _, e := range c.Teaches {
		achieved[e.SkillID] = struct{}{}
	}
	courses := make([]*types.Course, 0, len(st.courses)+1)
	courses = append(courses, st.courses...)
	courses = append(courses, c)

	keyParts := make([]string, 0, len(achieved))
	for s := range achieved {
		keyParts = append(keyParts, s)
	}
	sort.Strings(keyParts)

	seqParts := make([]string, 0, len(courses))
	for _, cc := range courses {
		seqParts = append(seqParts, cc.ID)
	}

	return &searchState{
		achieved: achieved,
		courses:  courses,
		cost:     st.cost + cost,
		duration: st.duration + c.DurationHours,
		key:      strings.Join(keyParts, "\x1f"),
		seq:      strings.Join(seqParts, "\x1f"),
	}
}

// buildChain annotates each step with the skills it exists to satisfy: the
// gap skill itself, plus any prerequisite of a later step first provided by
// this course.
func buildChain(gapSkill string, courses []*types.Course, held map[string]struct{}, cost float64) Chain {
	ch := Chain{Skill: gapSkill, Cost: cost}
	needed := make(map[string]struct{})
	needed[gapSkill] = struct{}{}
	for _, c := range courses {
		for _, req := range c.Requires {
			if _, has := held[req]; !has {
				needed[req] = struct{}{}
			}
		}
	}
	provided := make(map[string]struct{})
	for hop, c := range courses {
		var targets []string
		for _, e := range c.Teaches {
			if _, want := needed[e.SkillID]; !want {
				continue
			}
			if _, already := provided[e.SkillID]; already {
				continue
			}
			provided[e.SkillID] = struct{}{}
			targets = append(targets, e.SkillID)
		}
		sort.Strings(targets)
		ch.Steps = append(ch.Steps, Step{Course: c, Targets: targets, Hop: hop})
		ch.Duration += c.DurationHours
	}
	return ch
}

func sortChains(chains []Chain) {
	sort.Slice(chains, func(i, j int) bool {
		a, b := chains[i], chains[j]
		if a.Cost != b.Cost {
			return a.Cost < b.Cost
		}
		if len(a.Steps) != len(b.Steps) {
			return len(a.Steps) < len(b.Steps)
		}
		if a.Duration != b.Duration {
			return a.Duration < b.Duration
		}
		return chainSeq(a) < chainSeq(b)
	})
}

func chainSeq(c Chain) string {
	parts := make([]string, 0, len(c.Steps))
	for _, s := range c.Steps {
		parts = append(parts, s.Course.ID)
	}
	return strings.Join(parts, "\x1f")
}

// MergeChains combines the best chain of every gap skill into one path,
// deduplicating by course id while keeping the earliest required position.
// A deduplicated course keeps the smallest chain-relative hop any chain
// reached it at. Chains are consumed in sorted gap-skill order so the
// merge is deterministic.
func MergeChains(chains []Chain) []Step {
	ordered := make([]Chain, len(chains))
	copy(ordered, chains)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Skill < ordered[j].Skill })

	var merged []Step
	pos := make(map[string]int)
	for _, ch := range ordered {
		for _, step := range ch.Steps {
			if at, ok := pos[step.Course.ID]; ok {
				merged[at].Targets = unionSorted(merged[at].Targets, step.Targets)
				if step.Hop < merged[at].Hop {
					merged[at].Hop = step.Hop
				}
				continue
			}
			pos[step.Course.ID] = len(merged)
			merged = append(merged, Step{
				Course:  step.Course,
				Targets: append([]string(nil), step.Targets...),
				Hop:     step.Hop,
			})
		}
	}
	return merged
}

func unionSorted(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
