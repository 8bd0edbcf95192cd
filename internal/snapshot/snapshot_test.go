package snapshot

import (
	"errors"
	"testing"

	pkgerrors "github.com/vietcv/skillpath/internal/pkg/errors"
	"github.com/vietcv/skillpath/internal/types"
)

func TestHolder_UnavailableBeforeFirstLoad(t *testing.T) {
	var h Holder
	if _, err := h.Current(); !errors.Is(err, pkgerrors.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestHolder_SwapPublishes(t *testing.T) {
	var h Holder
	s1 := New(nil, nil, nil, nil)
	h.Swap(s1)

	got, err := h.Current()
	if err != nil || got != s1 {
		t.Fatalf("expected swapped snapshot, got %v %v", got, err)
	}

	s2 := New(nil, nil, nil, nil)
	h.Swap(s2)
	got, _ = h.Current()
	if got != s2 {
		t.Fatalf("swap must replace the published snapshot")
	}
	if s1.Version == s2.Version {
		t.Fatalf("snapshots must carry distinct versions")
	}
}

func TestSnapshot_CoursesTeachingOrderedByWeight(t *testing.T) {
	courses := []*types.Course{
		{ID: "weak", Teaches: []types.TeachesEdge{{SkillID: "go", Weight: 0.2}}},
		{ID: "strong", Teaches: []types.TeachesEdge{{SkillID: "go", Weight: 0.9}}},
		{ID: "other", Teaches: []types.TeachesEdge{{SkillID: "rust", Weight: 0.5}}},
	}
	s := New(nil, courses, nil, nil)

	got := s.CoursesTeaching("go")
	if len(got) != 2 || got[0].ID != "strong" || got[1].ID != "weak" {
		t.Fatalf("expected weight-descending order, got %+v", got)
	}
	if list := s.CoursesTeaching("unknown"); len(list) != 0 {
		t.Fatalf("unknown skill must return no courses")
	}
}

func TestSnapshot_UnitsIndexedByCourse(t *testing.T) {
	units := []types.SemanticUnit{
		{ID: "u1", CourseID: "c1", SkillID: "go"},
		{ID: "u2", CourseID: "c1", SkillID: "go"},
		{ID: "u3", CourseID: "c2", SkillID: "rust"},
	}
	s := New(nil, nil, units, nil)
	if len(s.UnitsByCourse["c1"]) != 2 || len(s.UnitsByCourse["c2"]) != 1 {
		t.Fatalf("units misindexed: %+v", s.UnitsByCourse)
	}
}
