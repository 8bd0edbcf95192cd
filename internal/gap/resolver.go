package gap

import (
	"sort"

	"github.com/vietcv/skillpath/internal/taxonomy"
)

// Result is the taxonomy-aware set difference between a target profile and
// a held profile.
type Result struct {
	// Missing lists target skills not covered by the held set, sorted.
	Missing []string
	// Unknown lists target ids absent from the taxonomy snapshot. They are
	// always part of Missing; the taxonomy may lag content ingestion, so an
	// unknown target is a gap, never an error.
	Unknown []string
}

// Resolve computes the skill gap. A target skill is covered only when the
// user holds the exact id or a NARROWER descendant of it; holding a BROADER
// ancestor does not certify the specific sub-skill. The held profile is
// expanded into its covered set once up front, so each target costs one
// lookup instead of a scan over the held set.
func Resolve(ix *taxonomy.Index, target, held []string) Result {
	covered := ix.Covered(held)

	var res Result
	seen := make(map[string]struct{}, len(target))
	for _, want := range target {
		if want == "" {
			continue
		}
		if _, dup := seen[want]; dup {
			continue
		}
		seen[want] = struct{}{}

		if !ix.Has(want) {
			res.Missing = append(res.Missing, want)
			res.Unknown = append(res.Unknown, want)
			continue
		}
		if _, ok := covered[want]; ok {
			continue
		}
		res.Missing = append(res.Missing, want)
	}
	sort.Strings(res.Missing)
	sort.Strings(res.Unknown)
	return res
}
