package taxonomy

import (
	"fmt"
	"sort"

	pkgerrors "github.com/vietcv/skillpath/internal/pkg/errors"
	"github.com/vietcv/skillpath/internal/types"
)

// Index answers BROADER/NARROWER relation queries over one taxonomy
// snapshot. The ancestor closure is computed once at build time, so request
// handling is pure lookup. A skill can have multiple parents, so the
// relation is a general DAG, never assumed to be a tree.
type Index struct {
	skills    map[string]*types.Skill
	ancestors map[string]map[string]struct{}
}

// NewIndex builds the relation index for a snapshot. Skills with nil
// entries or duplicate ids keep the first occurrence.
func NewIndex(skills []*types.Skill) *Index {
	ix := &Index{
		skills:    make(map[string]*types.Skill, len(skills)),
		ancestors: make(map[string]map[string]struct{}, len(skills)),
	}
	for _, s := range skills {
		if s == nil || s.ID == "" {
			continue
		}
		if _, ok := ix.skills[s.ID]; ok {
			continue
		}
		ix.skills[s.ID] = s
	}
	for id := range ix.skills {
		ix.closure(id, make(map[string]struct{}))
	}
	return ix
}

// closure memoizes the transitive BROADER set of id. The visiting set
// guards against cycles in malformed input; a cyclic parent contributes
// whatever has been resolved so far instead of recursing forever.
func (ix *Index) closure(id string, visiting map[string]struct{}) map[string]struct{} {
	if anc, ok := ix.ancestors[id]; ok {
		return anc
	}
	if _, busy := visiting[id]; busy {
		return nil
	}
	visiting[id] = struct{}{}
	defer delete(visiting, id)

	s := ix.skills[id]
	anc := make(map[string]struct{})
	if s != nil {
		for _, parent := range s.Broader {
			if _, known := ix.skills[parent]; !known {
				continue
			}
			anc[parent] = struct{}{}
			for grand := range ix.closure(parent, visiting) {
				anc[grand] = struct{}{}
			}
		}
	}
	ix.ancestors[id] = anc
	return anc
}

// Skill returns the snapshot record for id.
func (ix *Index) Skill(id string) (*types.Skill, error) {
	s, ok := ix.skills[id]
	if !ok {
		return nil, fmt.Errorf("taxonomy: %q: %w", id, pkgerrors.ErrUnknownSkill)
	}
	return s, nil
}

// Has reports whether id exists in the snapshot.
func (ix *Index) Has(id string) bool {
	_, ok := ix.skills[id]
	return ok
}

// Len is the number of indexed skills.
func (ix *Index) Len() int {
	return len(ix.skills)
}

// Ancestors returns the transitive BROADER set of id, sorted for
// deterministic output.
func (ix *Index) Ancestors(id string) ([]string, error) {
	anc, ok := ix.ancestors[id]
	if !ok {
		return nil, fmt.Errorf("taxonomy: %q: %w", id, pkgerrors.ErrUnknownSkill)
	}
	out := make([]string, 0, len(anc))
	for a := range anc {
		out = append(out, a)
	}
	sort.Strings(out)
	return out, nil
}

// IsAncestor reports whether ancestor is transitively BROADER than id.
func (ix *Index) IsAncestor(id, ancestor string) (bool, error) {
	anc, ok := ix.ancestors[id]
	if !ok {
		return false, fmt.Errorf("taxonomy: %q: %w", id, pkgerrors.ErrUnknownSkill)
	}
	if _, ok := ix.skills[ancestor]; !ok {
		return false, fmt.Errorf("taxonomy: %q: %w", ancestor, pkgerrors.ErrUnknownSkill)
	}
	_, yes := anc[ancestor]
	return yes, nil
}

// Covered expands a held profile into every skill it certifies: each
// known held id plus its transitive BROADER closure. Coverage is
// directional, so holding a NARROWER descendant certifies the ancestor,
// never the reverse. Held ids unknown to the snapshot contribute nothing.
// The expansion runs once per request; each coverage question afterwards
// is a single lookup against the returned set.
func (ix *Index) Covered(held []string) map[string]struct{} {
	out := make(map[string]struct{}, len(held))
	for _, h := range held {
		anc, ok := ix.ancestors[h]
		if !ok {
			continue
		}
		out[h] = struct{}{}
		for a := range anc {
			out[a] = struct{}{}
		}
	}
	return out
}
