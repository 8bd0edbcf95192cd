package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/vietcv/skillpath/internal/clients/redis"
	pkgerrors "github.com/vietcv/skillpath/internal/pkg/errors"
	"github.com/vietcv/skillpath/internal/platform/logger"
	"github.com/vietcv/skillpath/internal/platform/qdrant"
	"github.com/vietcv/skillpath/internal/repos"
	"github.com/vietcv/skillpath/internal/types"
)

// VectorSearcher is the similarity-search slice of the vector store used
// by skill search.
type VectorSearcher interface {
	Search(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]qdrant.Match, error)
}

// SkillSearchService resolves free-text skill queries to taxonomy skills,
// by label match or by embedding similarity.
type SkillSearchService interface {
	SearchByName(ctx context.Context, query string, limit int) ([]types.SkillSearchResult, error)
	SearchByVector(ctx context.Context, query string, limit int) ([]types.SkillSearchResult, error)
	ResolveNames(ctx context.Context, names []string) (map[string]string, []string, error)
}

type skillSearchService struct {
	log       *logger.Logger
	meta      repos.SkillMetaRepo
	cache     *redis.Cache
	vectors   VectorSearcher
	embedder  Embedder
	skillColl string
}

func NewSkillSearchService(log *logger.Logger, meta repos.SkillMetaRepo, cache *redis.Cache, vectors VectorSearcher, embedder Embedder, skillCollection string) SkillSearchService {
	return &skillSearchService{
		log:       log.With("service", "SkillSearchService"),
		meta:      meta,
		cache:     cache,
		vectors:   vectors,
		embedder:  embedder,
		skillColl: skillCollection,
	}
}

func (s *skillSearchService) SearchByName(ctx context.Context, query string, limit int) ([]types.SkillSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []types.SkillSearchResult{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	key := fmt.Sprintf("skillsearch:name:%s:%d", strings.ToLower(query), limit)
	var cached []types.SkillSearchResult
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	rows, err := s.meta.SearchByName(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]types.SkillSearchResult, 0, len(rows))
	for i, row := range rows {
		out = append(out, types.SkillSearchResult{
			SkillID: row.SkillID,
			Label:   row.PreferredLabel,
			Descr:   row.Description,
			// Rank-derived score; label search has no native similarity.
			Score: 1 - float64(i)/float64(limit),
		})
	}
	s.cache.SetJSON(ctx, key, out)
	return out, nil
}

func (s *skillSearchService) SearchByVector(ctx context.Context, query string, limit int) ([]types.SkillSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []types.SkillSearchResult{}, nil
	}
	if s.embedder == nil || s.vectors == nil {
		return nil, fmt.Errorf("vector skill search not configured: %w", pkgerrors.ErrServiceUnavailable)
	}
	if limit <= 0 {
		limit = 10
	}

	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("embedding query: empty vector")
	}

	matches, err := s.vectors.Search(ctx, s.skillColl, vecs[0], limit, nil)
	if err != nil {
		return nil, err
	}

	out := make([]types.SkillSearchResult, 0, len(matches))
	for _, m := range matches {
		res := types.SkillSearchResult{SkillID: m.ID, Score: m.Score}
		if label, ok := m.Payload["preferred_label"].(string); ok {
			res.Label = label
		}
		if descr, ok := m.Payload["description"].(string); ok {
			res.Descr = descr
		}
		out = append(out, res)
	}
	return out, nil
}

// ResolveNames maps each name to its best label match. A name whose top
// hit does not contain it (case-insensitively) is treated as unresolved
// rather than silently mapped to a stranger skill.
func (s *skillSearchService) ResolveNames(ctx context.Context, names []string) (map[string]string, []string, error) {
	resolved := make(map[string]string, len(names))
	var misses []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		hits, err := s.SearchByName(ctx, name, 1)
		if err != nil {
			return nil, nil, err
		}
		if len(hits) == 0 || !labelMatches(hits[0], name) {
			misses = append(misses, name)
			continue
		}
		resolved[name] = hits[0].SkillID
	}
	return resolved, misses, nil
}

func labelMatches(hit types.SkillSearchResult, name string) bool {
	needle := strings.ToLower(name)
	return strings.Contains(strings.ToLower(hit.Label), needle) ||
		strings.Contains(strings.ToLower(hit.Descr), needle)
}
