package snapshot

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/vietcv/skillpath/internal/pkg/errors"
	"github.com/vietcv/skillpath/internal/taxonomy"
	"github.com/vietcv/skillpath/internal/types"
)

// Snapshot is one immutable view of the taxonomy, the course graph and the
// embedding vectors. Requests pin the snapshot they started with; a refresh
// swaps the holder's pointer and never touches a live snapshot.
type Snapshot struct {
	Taxonomy      *taxonomy.Index
	Courses       map[string]*types.Course
	UnitsByCourse map[string][]types.SemanticUnit
	// SkillVectors carries the precomputed requirement embedding per skill.
	SkillVectors map[string][]float32

	Version  string
	LoadedAt time.Time

	coursesBySkill map[string][]*types.Course
}

// New indexes the loaded records into a snapshot.
func New(skills []*types.Skill, courses []*types.Course, units []types.SemanticUnit, skillVectors map[string][]float32) *Snapshot {
	s := &Snapshot{
		Taxonomy:       taxonomy.NewIndex(skills),
		Courses:        make(map[string]*types.Course, len(courses)),
		UnitsByCourse:  make(map[string][]types.SemanticUnit),
		SkillVectors:   skillVectors,
		Version:        uuid.NewString(),
		LoadedAt:       time.Now().UTC(),
		coursesBySkill: make(map[string][]*types.Course),
	}
	if s.SkillVectors == nil {
		s.SkillVectors = map[string][]float32{}
	}
	for _, c := range courses {
		if c == nil || c.ID == "" {
			continue
		}
		if _, dup := s.Courses[c.ID]; dup {
			continue
		}
		s.Courses[c.ID] = c
		for _, e := range c.Teaches {
			s.coursesBySkill[e.SkillID] = append(s.coursesBySkill[e.SkillID], c)
		}
	}
	for skillID := range s.coursesBySkill {
		list := s.coursesBySkill[skillID]
		sort.Slice(list, func(i, j int) bool {
			wi, wj := list[i].TeachWeight(skillID), list[j].TeachWeight(skillID)
			if wi != wj {
				return wi > wj
			}
			return list[i].ID < list[j].ID
		})
	}
	for _, u := range units {
		if u.CourseID == "" {
			continue
		}
		s.UnitsByCourse[u.CourseID] = append(s.UnitsByCourse[u.CourseID], u)
	}
	return s
}

// CoursesTeaching returns the courses with a TEACHES edge toward skillID,
// best edge weight first. The returned slice is shared; callers must not
// mutate it.
func (s *Snapshot) CoursesTeaching(skillID string) []*types.Course {
	return s.coursesBySkill[skillID]
}

// Course looks a course up by id.
func (s *Snapshot) Course(courseID string) (*types.Course, bool) {
	c, ok := s.Courses[courseID]
	return c, ok
}

// Holder publishes the current snapshot. Swap is atomic, so in-flight
// requests keep the snapshot reference they already read.
type Holder struct {
	ptr atomic.Pointer[Snapshot]
}

// Current returns the live snapshot, or ErrServiceUnavailable before the
// first successful load.
func (h *Holder) Current() (*Snapshot, error) {
	s := h.ptr.Load()
	if s == nil {
		return nil, fmt.Errorf("snapshot: no graph loaded yet: %w", pkgerrors.ErrServiceUnavailable)
	}
	return s, nil
}

// Swap publishes a new snapshot.
func (h *Holder) Swap(s *Snapshot) {
	h.ptr.Store(s)
}
