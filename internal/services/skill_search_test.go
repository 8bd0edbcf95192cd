package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	pkgerrors "github.com/vietcv/skillpath/internal/pkg/errors"
	"github.com/vietcv/skillpath/internal/platform/logger"
	"github.com/vietcv/skillpath/internal/platform/qdrant"
	"github.com/vietcv/skillpath/internal/types"
)

type fakeMetaRepo struct {
	rows map[string][]*types.SkillMeta
	err  error
}

func (f *fakeMetaRepo) SearchByName(_ context.Context, query string, _ int) ([]*types.SkillMeta, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[query], nil
}

func (f *fakeMetaRepo) GetByIDs(_ context.Context, _ []string) ([]*types.SkillMeta, error) {
	return nil, nil
}

type fakeSearcher struct {
	matches []qdrant.Match
	gotColl string
	gotTopK int
}

func (f *fakeSearcher) Search(_ context.Context, collection string, _ []float32, topK int, _ map[string]any) ([]qdrant.Match, error) {
	f.gotColl = collection
	f.gotTopK = topK
	return f.matches, nil
}

func newSearchService(t *testing.T, meta *fakeMetaRepo, searcher VectorSearcher, embedder Embedder) SkillSearchService {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewSkillSearchService(log, meta, nil, searcher, embedder, "skill_requirements")
}

func TestSearchByName(t *testing.T) {
	meta := &fakeMetaRepo{rows: map[string][]*types.SkillMeta{
		"spring": {
			{SkillID: "esco:spring", PreferredLabel: "Spring Boot", Description: "Java web framework"},
			{SkillID: "esco:java", PreferredLabel: "Java", Description: "spring is built on it"},
		},
	}}
	svc := newSearchService(t, meta, nil, nil)

	out, err := svc.SearchByName(context.Background(), "spring", 10)
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(out) != 2 || out[0].SkillID != "esco:spring" {
		t.Fatalf("out = %+v", out)
	}
	if out[0].Score <= out[1].Score {
		t.Fatalf("rank-derived scores must decrease: %v then %v", out[0].Score, out[1].Score)
	}
}

func TestSearchByNameEmptyQuery(t *testing.T) {
	svc := newSearchService(t, &fakeMetaRepo{}, nil, nil)

	out, err := svc.SearchByName(context.Background(), "   ", 10)
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("out = %+v, want empty", out)
	}
}

func TestSearchByVector(t *testing.T) {
	searcher := &fakeSearcher{matches: []qdrant.Match{
		{ID: "esco:spring", Score: 0.93, Payload: map[string]any{"preferred_label": "Spring Boot"}},
		{ID: "esco:java", Score: 0.71, Payload: map[string]any{"preferred_label": "Java"}},
	}}
	embedder := &fakeEmbedder{vectors: map[string][]float32{"spring web": {1, 0}}}
	svc := newSearchService(t, &fakeMetaRepo{}, searcher, embedder)

	out, err := svc.SearchByVector(context.Background(), "spring web", 5)
	if err != nil {
		t.Fatalf("SearchByVector: %v", err)
	}
	if searcher.gotColl != "skill_requirements" || searcher.gotTopK != 5 {
		t.Fatalf("search hit collection %q topK %d", searcher.gotColl, searcher.gotTopK)
	}
	want := []types.SkillSearchResult{
		{SkillID: "esco:spring", Label: "Spring Boot", Score: 0.93},
		{SkillID: "esco:java", Label: "Java", Score: 0.71},
	}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("out = %+v, want %+v", out, want)
	}
}

func TestSearchByVectorUnconfigured(t *testing.T) {
	svc := newSearchService(t, &fakeMetaRepo{}, nil, nil)

	_, err := svc.SearchByVector(context.Background(), "spring", 5)
	if !errors.Is(err, pkgerrors.ErrServiceUnavailable) {
		t.Fatalf("err = %v, want ErrServiceUnavailable", err)
	}
}

func TestResolveNames(t *testing.T) {
	meta := &fakeMetaRepo{rows: map[string][]*types.SkillMeta{
		"Spring Boot": {{SkillID: "esco:spring", PreferredLabel: "Spring Boot"}},
		// Top hit that does not actually mention the query must not
		// resolve the name.
		"Cooking": {{SkillID: "esco:java", PreferredLabel: "Java"}},
	}}
	svc := newSearchService(t, meta, nil, nil)

	resolved, misses, err := svc.ResolveNames(context.Background(), []string{"Spring Boot", "Cooking", "Welding"})
	if err != nil {
		t.Fatalf("ResolveNames: %v", err)
	}
	if !reflect.DeepEqual(resolved, map[string]string{"Spring Boot": "esco:spring"}) {
		t.Fatalf("resolved = %v", resolved)
	}
	if !reflect.DeepEqual(misses, []string{"Cooking", "Welding"}) {
		t.Fatalf("misses = %v", misses)
	}
}
