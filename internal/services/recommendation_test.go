package services

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	pkgerrors "github.com/vietcv/skillpath/internal/pkg/errors"
	"github.com/vietcv/skillpath/internal/pathfind"
	"github.com/vietcv/skillpath/internal/platform/logger"
	"github.com/vietcv/skillpath/internal/snapshot"
	"github.com/vietcv/skillpath/internal/types"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		out[i] = f.vectors[in]
	}
	return out, nil
}

type fakeResolver struct {
	byName map[string]string
}

func (f *fakeResolver) ResolveNames(_ context.Context, names []string) (map[string]string, []string, error) {
	resolved := make(map[string]string)
	var misses []string
	for _, n := range names {
		if id, ok := f.byName[n]; ok {
			resolved[n] = id
			continue
		}
		misses = append(misses, n)
	}
	return resolved, misses, nil
}

// testSnapshot builds a three-skill graph: spring is narrower than java,
// the spring course requires java, and sql has no course at all. The
// spring course's semantic unit sits at cosine 0.9 from the spring
// requirement vector.
func testSnapshot() *snapshot.Snapshot {
	skills := []*types.Skill{
		{ID: "esco:java", Label: "Java", Level: 2, Narrower: []string{"esco:spring"}},
		{ID: "esco:spring", Label: "Spring Boot", Level: 3, Broader: []string{"esco:java"}},
		{ID: "esco:sql", Label: "SQL", Level: 2},
	}
	courses := []*types.Course{
		{
			ID: "course:java-core", Title: "Java Core", Difficulty: 2, DurationHours: 20,
			Teaches: []types.TeachesEdge{{SkillID: "esco:java", Weight: 0.9}},
		},
		{
			ID: "course:spring-boot", Title: "Spring Boot in Practice", Difficulty: 3, DurationHours: 15,
			Teaches:  []types.TeachesEdge{{SkillID: "esco:spring", Weight: 0.8}},
			Requires: []string{"esco:java"},
		},
	}
	units := []types.SemanticUnit{
		{ID: "u1", CourseID: "course:spring-boot", SkillID: "esco:spring", Vector: []float32{1, 0}},
		{ID: "u2", CourseID: "course:java-core", SkillID: "esco:java", Vector: []float32{1, 0}},
	}
	vectors := map[string][]float32{
		"esco:spring": {0.9, float32(math.Sqrt(1 - 0.81))},
		"esco:java":   {1, 0},
	}
	return snapshot.New(skills, courses, units, vectors)
}

func newTestService(t *testing.T, snap *snapshot.Snapshot, embedder Embedder, names NameResolver) RecommendationService {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	holder := &snapshot.Holder{}
	if snap != nil {
		holder.Swap(snap)
	}
	return NewRecommendationService(log, holder, DefaultParams(), embedder, names, nil)
}

func TestRecommendDirectCourse(t *testing.T) {
	svc := newTestService(t, testSnapshot(), nil, nil)

	resp, err := svc.Recommend(context.Background(), types.RecommendRequest{
		TargetSkillIDs: []string{"esco:spring"},
		HeldSkillIDs:   []string{"esco:java"},
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !reflect.DeepEqual(resp.Gap, []string{"esco:spring"}) {
		t.Fatalf("gap = %v, want [esco:spring]", resp.Gap)
	}
	if len(resp.Courses) != 1 || resp.Courses[0].CourseID != "course:spring-boot" {
		t.Fatalf("courses = %+v, want the spring course alone", resp.Courses)
	}
	got := resp.Courses[0].Score
	if math.Abs(got.Total-0.76) > 1e-6 {
		t.Fatalf("score total = %v, want 0.76 (0.5*0.8 + 0.4*0.9 - 0.1*0)", got.Total)
	}
	if got.Penalty != 0 {
		t.Fatalf("penalty = %v, want 0 for a direct, level-matched course", got.Penalty)
	}
	if len(resp.Unreachable) != 0 {
		t.Fatalf("unreachable = %v, want none", resp.Unreachable)
	}
	if !reflect.DeepEqual(resp.LearningPath, []string{"course:spring-boot"}) {
		t.Fatalf("learning path = %v", resp.LearningPath)
	}
}

func TestRecommendPrerequisiteOrdering(t *testing.T) {
	svc := newTestService(t, testSnapshot(), nil, nil)

	resp, err := svc.Recommend(context.Background(), types.RecommendRequest{
		TargetSkillIDs: []string{"esco:spring"},
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	want := []string{"course:java-core", "course:spring-boot"}
	if !reflect.DeepEqual(resp.LearningPath, want) {
		t.Fatalf("learning path = %v, want %v", resp.LearningPath, want)
	}
	if resp.Courses[0].Hop != 0 || resp.Courses[1].Hop != 1 {
		t.Fatalf("hops = %d,%d, want 0,1", resp.Courses[0].Hop, resp.Courses[1].Hop)
	}
}

// A direct course that lands late in the merged path because another
// skill's chain was merged first must keep the hop it had inside its
// own chain, not pick up a penalty from its merged position.
func TestRecommendMergedDirectCourseKeepsHop(t *testing.T) {
	skills := []*types.Skill{
		{ID: "esco:java", Label: "Java", Level: 2, Narrower: []string{"esco:spring"}},
		{ID: "esco:spring", Label: "Spring Boot", Level: 3, Broader: []string{"esco:java"}},
		{ID: "esco:testing", Label: "Software Testing", Level: 2},
	}
	courses := []*types.Course{
		{
			ID: "course:java-core", Title: "Java Core", Difficulty: 2, DurationHours: 20,
			Teaches: []types.TeachesEdge{{SkillID: "esco:java", Weight: 0.9}},
		},
		{
			ID: "course:spring-boot", Title: "Spring Boot in Practice", Difficulty: 3, DurationHours: 15,
			Teaches:  []types.TeachesEdge{{SkillID: "esco:spring", Weight: 0.8}},
			Requires: []string{"esco:java"},
		},
		{
			ID: "course:testing-101", Title: "Testing Fundamentals", Difficulty: 2, DurationHours: 10,
			Teaches: []types.TeachesEdge{{SkillID: "esco:testing", Weight: 0.9}},
		},
	}
	svc := newTestService(t, snapshot.New(skills, courses, nil, nil), nil, nil)

	resp, err := svc.Recommend(context.Background(), types.RecommendRequest{
		TargetSkillIDs: []string{"esco:spring", "esco:testing"},
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	want := []string{"course:java-core", "course:spring-boot", "course:testing-101"}
	if !reflect.DeepEqual(resp.LearningPath, want) {
		t.Fatalf("learning path = %v, want %v", resp.LearningPath, want)
	}
	var testing101 *types.RecommendedCourse
	for i := range resp.Courses {
		if resp.Courses[i].CourseID == "course:testing-101" {
			testing101 = &resp.Courses[i]
		}
	}
	if testing101 == nil {
		t.Fatalf("courses = %+v, missing the direct testing course", resp.Courses)
	}
	if testing101.Hop != 0 {
		t.Fatalf("hop = %d, want 0 for a course that is first in its own chain", testing101.Hop)
	}
	if testing101.Score.Penalty != 0 {
		t.Fatalf("penalty = %v, want 0 for a direct, level-matched course", testing101.Score.Penalty)
	}
}

func TestRecommendUnreachableSkill(t *testing.T) {
	svc := newTestService(t, testSnapshot(), nil, nil)

	resp, err := svc.Recommend(context.Background(), types.RecommendRequest{
		TargetSkillIDs: []string{"esco:sql"},
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(resp.Unreachable) != 1 || resp.Unreachable[0].SkillID != "esco:sql" {
		t.Fatalf("unreachable = %+v, want esco:sql", resp.Unreachable)
	}
	if resp.Unreachable[0].Reason != pathfind.ReasonNoCourse {
		t.Fatalf("reason = %q, want %q", resp.Unreachable[0].Reason, pathfind.ReasonNoCourse)
	}
	if resp.Courses == nil || len(resp.Courses) != 0 {
		t.Fatalf("courses = %#v, want an empty, non-nil slice", resp.Courses)
	}
	if resp.LearningPath == nil || len(resp.LearningPath) != 0 {
		t.Fatalf("learning path = %#v, want an empty, non-nil slice", resp.LearningPath)
	}
}

func TestRecommendClosedGap(t *testing.T) {
	svc := newTestService(t, testSnapshot(), nil, nil)

	resp, err := svc.Recommend(context.Background(), types.RecommendRequest{
		TargetSkillIDs: []string{"esco:java"},
		HeldSkillIDs:   []string{"esco:java"},
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(resp.Gap) != 0 || len(resp.Courses) != 0 || resp.PathScore != 0 {
		t.Fatalf("closed gap should yield an empty plan, got %+v", resp)
	}
}

func TestRecommendUnknownTarget(t *testing.T) {
	svc := newTestService(t, testSnapshot(), nil, nil)

	resp, err := svc.Recommend(context.Background(), types.RecommendRequest{
		TargetSkillIDs: []string{"esco:nope"},
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !reflect.DeepEqual(resp.UnknownSkills, []string{"esco:nope"}) {
		t.Fatalf("unknown = %v, want [esco:nope]", resp.UnknownSkills)
	}
}

func TestRecommendTargetNames(t *testing.T) {
	resolver := &fakeResolver{byName: map[string]string{"Spring Boot": "esco:spring"}}
	svc := newTestService(t, testSnapshot(), nil, resolver)

	resp, err := svc.Recommend(context.Background(), types.RecommendRequest{
		TargetSkillNames: []string{"Spring Boot", "Underwater Basket Weaving"},
		HeldSkillIDs:     []string{"esco:java"},
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !reflect.DeepEqual(resp.Gap, []string{"esco:spring"}) {
		t.Fatalf("gap = %v, want the resolved spring id", resp.Gap)
	}
	if !reflect.DeepEqual(resp.UnknownSkills, []string{"Underwater Basket Weaving"}) {
		t.Fatalf("unknown = %v", resp.UnknownSkills)
	}
}

func TestRecommendNamesWithoutResolver(t *testing.T) {
	svc := newTestService(t, testSnapshot(), nil, nil)

	resp, err := svc.Recommend(context.Background(), types.RecommendRequest{
		TargetSkillNames: []string{"Spring Boot"},
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !reflect.DeepEqual(resp.UnknownSkills, []string{"Spring Boot"}) {
		t.Fatalf("unknown = %v, want the unresolvable name", resp.UnknownSkills)
	}
}

func TestRecommendNoTargets(t *testing.T) {
	svc := newTestService(t, testSnapshot(), nil, nil)

	_, err := svc.Recommend(context.Background(), types.RecommendRequest{})
	if !errors.Is(err, pkgerrors.ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
	}
}

func TestRecommendInvalidWeights(t *testing.T) {
	svc := newTestService(t, testSnapshot(), nil, nil)

	_, err := svc.Recommend(context.Background(), types.RecommendRequest{
		TargetSkillIDs: []string{"esco:spring"},
		Weights:        &types.ScoreWeights{Structural: 0.9, Semantic: 0.9, Penalty: 0.9},
	})
	if !errors.Is(err, pkgerrors.ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
	}
}

func TestRecommendNoSnapshot(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)

	_, err := svc.Recommend(context.Background(), types.RecommendRequest{
		TargetSkillIDs: []string{"esco:spring"},
	})
	if !errors.Is(err, pkgerrors.ErrServiceUnavailable) {
		t.Fatalf("err = %v, want ErrServiceUnavailable", err)
	}
}

func TestRecommendEmbedderFallback(t *testing.T) {
	snap := testSnapshot()
	delete(snap.SkillVectors, "esco:spring")
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"Spring Boot": {0.9, float32(math.Sqrt(1 - 0.81))},
	}}
	svc := newTestService(t, snap, embedder, nil)

	resp, err := svc.Recommend(context.Background(), types.RecommendRequest{
		TargetSkillIDs: []string{"esco:spring"},
		HeldSkillIDs:   []string{"esco:java"},
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if embedder.calls != 1 {
		t.Fatalf("embedder calls = %d, want 1", embedder.calls)
	}
	if math.Abs(resp.Courses[0].Score.Semantic-0.9) > 1e-6 {
		t.Fatalf("semantic = %v, want 0.9 via the embedded fallback vector", resp.Courses[0].Score.Semantic)
	}
}

func TestRecommendEmbedderFailureDegrades(t *testing.T) {
	snap := testSnapshot()
	delete(snap.SkillVectors, "esco:spring")
	embedder := &fakeEmbedder{err: errors.New("backend down")}
	svc := newTestService(t, snap, embedder, nil)

	resp, err := svc.Recommend(context.Background(), types.RecommendRequest{
		TargetSkillIDs: []string{"esco:spring"},
		HeldSkillIDs:   []string{"esco:java"},
	})
	if err != nil {
		t.Fatalf("Recommend should degrade, not fail: %v", err)
	}
	if resp.Courses[0].Score.Semantic != 0 {
		t.Fatalf("semantic = %v, want 0 with no requirement vector", resp.Courses[0].Score.Semantic)
	}
}

func TestRecommendDeterministic(t *testing.T) {
	svc := newTestService(t, testSnapshot(), nil, nil)
	req := types.RecommendRequest{
		TargetSkillIDs: []string{"esco:spring", "esco:sql"},
	}

	first, err := svc.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := svc.Recommend(context.Background(), req)
		if err != nil {
			t.Fatalf("Recommend: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d diverged:\nfirst: %+v\nagain: %+v", i, first, again)
		}
	}
}

func TestRecommendExhaustedBudget(t *testing.T) {
	svc := newTestService(t, testSnapshot(), nil, nil)

	resp, err := svc.Recommend(context.Background(), types.RecommendRequest{
		TargetSkillIDs: []string{"esco:spring"},
		TimeBudgetMS:   1,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	// With a 1ms budget the search either finishes or reports the skill
	// as abandoned; either way the call itself succeeds.
	if len(resp.Courses) == 0 && len(resp.Unreachable) == 0 {
		t.Fatalf("expected either a plan or an unreachable report, got %+v", resp)
	}
}

func TestCoursesTeaching(t *testing.T) {
	svc := newTestService(t, testSnapshot(), nil, nil)

	out, err := svc.CoursesTeaching(context.Background(), "esco:spring", 10)
	if err != nil {
		t.Fatalf("CoursesTeaching: %v", err)
	}
	if len(out) != 1 || out[0].CourseID != "course:spring-boot" {
		t.Fatalf("out = %+v", out)
	}

	if _, err := svc.CoursesTeaching(context.Background(), "esco:nope", 10); !errors.Is(err, pkgerrors.ErrUnknownSkill) {
		t.Fatalf("err = %v, want ErrUnknownSkill", err)
	}
}

func TestCourseDetail(t *testing.T) {
	svc := newTestService(t, testSnapshot(), nil, nil)

	got, err := svc.CourseDetail(context.Background(), "course:spring-boot")
	if err != nil {
		t.Fatalf("CourseDetail: %v", err)
	}
	if got.Title != "Spring Boot in Practice" || len(got.Requires) != 1 {
		t.Fatalf("detail = %+v", got)
	}

	if _, err := svc.CourseDetail(context.Background(), "course:nope"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestParamsMergeAndValidate(t *testing.T) {
	p := DefaultParams()
	merged := p.Merge(types.RecommendRequest{
		MaxHops:      5,
		TopK:         3,
		TimeBudgetMS: 250,
	})
	if merged.MaxHops != 5 || merged.TopK != 3 || merged.TimeBudget != 250*time.Millisecond {
		t.Fatalf("merged = %+v", merged)
	}
	if merged.Weights != p.Weights {
		t.Fatalf("merge must not touch weights the request leaves unset")
	}
	if err := merged.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
