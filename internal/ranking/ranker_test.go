package ranking

import (
	"testing"

	"github.com/vietcv/skillpath/internal/pathfind"
	"github.com/vietcv/skillpath/internal/types"
)

func chain(skill string, courseIDs ...string) pathfind.Chain {
	ch := pathfind.Chain{Skill: skill}
	for _, id := range courseIDs {
		ch.Steps = append(ch.Steps, pathfind.Step{Course: &types.Course{ID: id, Title: id}})
	}
	return ch
}

func TestSort_ByAggregateDescending(t *testing.T) {
	chains := []ScoredChain{
		{Chain: chain("s", "low"), Aggregate: 0.2},
		{Chain: chain("s", "high"), Aggregate: 0.8},
		{Chain: chain("s", "mid"), Aggregate: 0.5},
	}
	Sort(chains)
	if chains[0].Aggregate != 0.8 || chains[2].Aggregate != 0.2 {
		t.Fatalf("unexpected order: %+v", chains)
	}
}

func TestSort_TieBreakLadder(t *testing.T) {
	// Equal aggregate: higher structural sum wins.
	chains := []ScoredChain{
		{Chain: chain("s", "a"), Aggregate: 0.5, Breakdowns: []types.ScoreBreakdown{{Structural: 0.3}}},
		{Chain: chain("s", "b"), Aggregate: 0.5, Breakdowns: []types.ScoreBreakdown{{Structural: 0.9}}},
	}
	if Best(chains).Chain.Steps[0].Course.ID != "b" {
		t.Fatalf("higher structural sum must win")
	}

	// Equal aggregate and structural sum: fewer courses win. The sums
	// 0.4+0.2 and 0.6 differ in the last float bit, so this also pins
	// down the tolerance in the comparison.
	chains = []ScoredChain{
		{Chain: chain("s", "x", "y"), Aggregate: 0.5, Breakdowns: []types.ScoreBreakdown{{Structural: 0.4}, {Structural: 0.2}}},
		{Chain: chain("s", "z"), Aggregate: 0.5, Breakdowns: []types.ScoreBreakdown{{Structural: 0.6}}},
	}
	if got := Best(chains).Chain.Steps[0].Course.ID; got != "z" {
		t.Fatalf("fewer courses must win, got %q", got)
	}

	// Full tie: lexicographic course id.
	chains = []ScoredChain{
		{Chain: chain("s", "bbb"), Aggregate: 0.5},
		{Chain: chain("s", "aaa"), Aggregate: 0.5},
	}
	if got := Best(chains).Chain.Steps[0].Course.ID; got != "aaa" {
		t.Fatalf("lexicographic tie-break failed, got %q", got)
	}
}

func TestEmit_TopKAndAggregate(t *testing.T) {
	steps := []pathfind.Step{
		{Course: &types.Course{ID: "a", Title: "A"}, Targets: []string{"s1"}, Hop: 0},
		{Course: &types.Course{ID: "b", Title: "B"}, Targets: []string{"s2"}, Hop: 1},
		{Course: &types.Course{ID: "c", Title: "C"}, Targets: []string{"s3"}, Hop: 2},
	}
	breakdowns := []types.ScoreBreakdown{{Total: 0.5}, {Total: 0.3}, {Total: 0.2}}

	courses, ids, total := Emit(steps, breakdowns, 2)
	if len(courses) != 2 || len(ids) != 2 {
		t.Fatalf("topK must truncate, got %d courses", len(courses))
	}
	if ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("emit must preserve prerequisite order, got %v", ids)
	}
	if total != 0.8 {
		t.Fatalf("aggregate must sum emitted courses, got %v", total)
	}
	if courses[0].Hop != 0 || courses[1].Hop != 1 {
		t.Fatalf("hop indices wrong: %+v", courses)
	}
}

func TestEmit_ZeroTopKReturnsAll(t *testing.T) {
	steps := []pathfind.Step{
		{Course: &types.Course{ID: "a"}},
		{Course: &types.Course{ID: "b"}},
	}
	courses, _, _ := Emit(steps, nil, 0)
	if len(courses) != 2 {
		t.Fatalf("topK=0 must return all steps, got %d", len(courses))
	}
}
