package services

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/vietcv/skillpath/internal/clients/redis"
	"github.com/vietcv/skillpath/internal/gap"
	"github.com/vietcv/skillpath/internal/pathfind"
	pkgerrors "github.com/vietcv/skillpath/internal/pkg/errors"
	"github.com/vietcv/skillpath/internal/platform/logger"
	"github.com/vietcv/skillpath/internal/ranking"
	"github.com/vietcv/skillpath/internal/scoring"
	"github.com/vietcv/skillpath/internal/snapshot"
	"github.com/vietcv/skillpath/internal/types"
)

var tracer = otel.Tracer("skillpath/engine")

// Embedder supplies vectors for gap requirements lacking a precomputed
// one. Optional: a nil embedder degrades the semantic term to zero for
// those skills.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// NameResolver maps free-text skill names to taxonomy identifiers.
// Names with no match come back in the second slice. Optional: with a
// nil resolver every requested name is reported unknown.
type NameResolver interface {
	ResolveNames(ctx context.Context, names []string) (map[string]string, []string, error)
}

// RecommendationService runs the gap → path → score → rank pipeline over
// the current snapshot.
type RecommendationService interface {
	Recommend(ctx context.Context, req types.RecommendRequest) (*types.RecommendResponse, error)
	CoursesTeaching(ctx context.Context, skillID string, limit int) ([]types.CourseDetail, error)
	CourseDetail(ctx context.Context, courseID string) (*types.CourseDetail, error)
}

type recommendationService struct {
	log      *logger.Logger
	holder   *snapshot.Holder
	defaults Params
	embedder Embedder
	names    NameResolver
	cache    *redis.Cache
}

func NewRecommendationService(log *logger.Logger, holder *snapshot.Holder, defaults Params, embedder Embedder, names NameResolver, cache *redis.Cache) RecommendationService {
	return &recommendationService{
		log:      log.With("service", "RecommendationService"),
		holder:   holder,
		defaults: defaults,
		embedder: embedder,
		names:    names,
		cache:    cache,
	}
}

func (s *recommendationService) Recommend(ctx context.Context, req types.RecommendRequest) (*types.RecommendResponse, error) {
	ctx, span := tracer.Start(ctx, "recommend")
	defer span.End()

	params := s.defaults.Merge(req)
	if err := params.Validate(); err != nil {
		return nil, err
	}
	snap, err := s.holder.Current()
	if err != nil {
		return nil, err
	}

	targetIDs := req.TargetSkillIDs
	var unresolvedNames []string
	if len(req.TargetSkillNames) > 0 {
		if s.names == nil {
			unresolvedNames = req.TargetSkillNames
		} else {
			resolved, misses, err := s.names.ResolveNames(ctx, req.TargetSkillNames)
			if err != nil {
				return nil, fmt.Errorf("resolving target skill names: %w", err)
			}
			for _, id := range resolved {
				targetIDs = append(targetIDs, id)
			}
			unresolvedNames = misses
		}
	}
	target := dedupe(targetIDs)
	if len(target) == 0 && len(unresolvedNames) == 0 {
		return nil, fmt.Errorf("no target skills supplied: %w", pkgerrors.ErrInvalidConfiguration)
	}

	resp := &types.RecommendResponse{
		RequestedSkills: s.skillRefs(snap, target),
	}

	gapRes := gap.Resolve(snap.Taxonomy, target, req.HeldSkillIDs)
	resp.Gap = gapRes.Missing
	resp.UnknownSkills = dedupe(append(gapRes.Unknown, unresolvedNames...))
	span.SetAttributes(
		attribute.Int("gap.size", len(gapRes.Missing)),
		attribute.String("snapshot.version", snap.Version),
	)
	if len(gapRes.Missing) == 0 {
		resp.Courses = []types.RecommendedCourse{}
		resp.LearningPath = []string{}
		return resp, nil
	}

	held := make(map[string]struct{}, len(req.HeldSkillIDs))
	for _, h := range req.HeldSkillIDs {
		held[h] = struct{}{}
	}

	outcomes := s.findChains(ctx, snap, gapRes.Missing, held, params, req.CurrentLevel)

	gapVectors := s.gapVectors(ctx, snap, gapRes.Missing)
	expected := expectedDifficulty(snap, gapRes.Missing)

	var bestChains []pathfind.Chain
	for _, outcome := range outcomes {
		if outcome.Reason != "" {
			resp.Unreachable = append(resp.Unreachable, types.UnreachableSkill{
				SkillID: outcome.Skill,
				Reason:  outcome.Reason,
			})
			continue
		}
		best := s.rankCandidates(snap, outcome, params, gapVectors, expected)
		bestChains = append(bestChains, best.Chain)
	}

	merged := pathfind.MergeChains(bestChains)
	breakdowns, _ := scoring.ScoreSteps(scoring.Config{
		Weights:    params.Weights,
		MaxHops:    params.MaxHops,
		LevelScale: params.LevelScale,
	}, scoring.Input{
		Steps:              merged,
		GapVectors:         gapVectors,
		UnitsByCourse:      snap.UnitsByCourse,
		ExpectedDifficulty: expected,
	})

	courses, path, total := ranking.Emit(merged, breakdowns, params.TopK)
	resp.Courses = courses
	resp.LearningPath = path
	resp.PathScore = total
	return resp, nil
}

// findChains searches per gap skill concurrently. Each search carries the
// request context, so an expired budget abandons remaining skills while
// finished outcomes survive. Results keep gap order for determinism.
func (s *recommendationService) findChains(ctx context.Context, snap *snapshot.Snapshot, gapSkills []string, held map[string]struct{}, params Params, userLevel int) []pathfind.Outcome {
	ctx, span := tracer.Start(ctx, "pathfind")
	defer span.End()

	searchCtx, cancel := context.WithTimeout(ctx, params.TimeBudget)
	defer cancel()

	outcomes := make([]pathfind.Outcome, len(gapSkills))
	g, gctx := errgroup.WithContext(searchCtx)
	g.SetLimit(params.MaxConcurrent)
	for i, skill := range gapSkills {
		g.Go(func() error {
			outcomes[i] = pathfind.FindChains(gctx, snap, skill, held, pathfind.Options{
				MaxHops:       params.MaxHops,
				MaxCandidates: params.MaxCandidates,
				UserLevel:     userLevel,
				LevelScale:    params.LevelScale,
			})
			return nil
		})
	}
	// Workers never return errors; unreachability is data in the outcome.
	_ = g.Wait()
	return outcomes
}

// rankCandidates scores every candidate chain of one gap skill and lets
// the hybrid score pick the winner; the search cost only bounded the
// candidate set.
func (s *recommendationService) rankCandidates(snap *snapshot.Snapshot, outcome pathfind.Outcome, params Params, gapVectors map[string][]float32, expected map[string]int) ranking.ScoredChain {
	cfg := scoring.Config{
		Weights:    params.Weights,
		MaxHops:    params.MaxHops,
		LevelScale: params.LevelScale,
	}
	scored := make([]ranking.ScoredChain, 0, len(outcome.Chains))
	for _, ch := range outcome.Chains {
		breakdowns, aggregate := scoring.ScoreSteps(cfg, scoring.Input{
			Steps:              ch.Steps,
			GapVectors:         gapVectors,
			UnitsByCourse:      snap.UnitsByCourse,
			ExpectedDifficulty: expected,
		})
		scored = append(scored, ranking.ScoredChain{
			Chain:      ch,
			Breakdowns: breakdowns,
			Aggregate:  aggregate,
		})
	}
	return ranking.Best(scored)
}

// gapVectors resolves the requirement embedding of every gap skill:
// precomputed snapshot vectors first, then the cache, then the embedder.
// Freshly embedded vectors are cached so a missing precomputed vector
// costs one backend round trip, not one per request.
func (s *recommendationService) gapVectors(ctx context.Context, snap *snapshot.Snapshot, gapSkills []string) map[string][]float32 {
	out := make(map[string][]float32, len(gapSkills))
	var missing []string
	for _, id := range gapSkills {
		if vec, ok := snap.SkillVectors[id]; ok && len(vec) > 0 {
			out[id] = vec
			continue
		}
		var cached []float32
		if s.cache.GetJSON(ctx, embedCacheKey(id), &cached) && len(cached) > 0 {
			out[id] = cached
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 || s.embedder == nil {
		return out
	}

	texts := make([]string, 0, len(missing))
	for _, id := range missing {
		label := id
		if sk, err := snap.Taxonomy.Skill(id); err == nil && sk.Label != "" {
			label = sk.Label
		}
		texts = append(texts, label)
	}
	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		s.log.Warn("gap requirement embedding failed, semantic term degrades to zero", "error", err)
		return out
	}
	for i, id := range missing {
		if i < len(vecs) && len(vecs[i]) > 0 {
			out[id] = vecs[i]
			s.cache.SetJSON(ctx, embedCacheKey(id), vecs[i])
		}
	}
	return out
}

func embedCacheKey(skillID string) string {
	return "embed:skill:" + skillID
}

func expectedDifficulty(snap *snapshot.Snapshot, gapSkills []string) map[string]int {
	out := make(map[string]int, len(gapSkills))
	for _, id := range gapSkills {
		if sk, err := snap.Taxonomy.Skill(id); err == nil {
			out[id] = sk.Level
		}
	}
	return out
}

func (s *recommendationService) skillRefs(snap *snapshot.Snapshot, ids []string) []types.SkillRef {
	refs := make([]types.SkillRef, 0, len(ids))
	for _, id := range ids {
		ref := types.SkillRef{SkillID: id}
		if sk, err := snap.Taxonomy.Skill(id); err == nil {
			ref.Label = sk.Label
		}
		refs = append(refs, ref)
	}
	return refs
}

func (s *recommendationService) CoursesTeaching(ctx context.Context, skillID string, limit int) ([]types.CourseDetail, error) {
	snap, err := s.holder.Current()
	if err != nil {
		return nil, err
	}
	if !snap.Taxonomy.Has(skillID) {
		return nil, fmt.Errorf("skill %q: %w", skillID, pkgerrors.ErrUnknownSkill)
	}
	courses := snap.CoursesTeaching(skillID)
	if limit <= 0 || limit > len(courses) {
		limit = len(courses)
	}
	out := make([]types.CourseDetail, 0, limit)
	for _, c := range courses[:limit] {
		out = append(out, courseDetail(c))
	}
	return out, nil
}

func (s *recommendationService) CourseDetail(ctx context.Context, courseID string) (*types.CourseDetail, error) {
	snap, err := s.holder.Current()
	if err != nil {
		return nil, err
	}
	c, ok := snap.Course(courseID)
	if !ok {
		return nil, fmt.Errorf("course %q: %w", courseID, pkgerrors.ErrNotFound)
	}
	detail := courseDetail(c)
	return &detail, nil
}

func courseDetail(c *types.Course) types.CourseDetail {
	return types.CourseDetail{
		CourseID:      c.ID,
		Title:         c.Title,
		Category:      c.Category,
		Difficulty:    c.Difficulty,
		DurationHours: c.DurationHours,
		Teaches:       c.Teaches,
		Requires:      c.Requires,
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
