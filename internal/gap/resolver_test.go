package gap

import (
	"testing"

	"github.com/vietcv/skillpath/internal/taxonomy"
	"github.com/vietcv/skillpath/internal/types"
)

func testIndex() *taxonomy.Index {
	return taxonomy.NewIndex([]*types.Skill{
		{ID: "it", Label: "information technology"},
		{ID: "java", Label: "Java", Broader: []string{"it"}},
		{ID: "spring", Label: "Java Spring Boot", Broader: []string{"java"}},
		{ID: "python", Label: "Python", Broader: []string{"it"}},
	})
}

func TestResolve_GapIsSubsetOfTarget(t *testing.T) {
	ix := testIndex()
	target := []string{"java", "spring", "python"}

	res := Resolve(ix, target, []string{"python"})
	allowed := map[string]bool{"java": true, "spring": true, "python": true}
	for _, m := range res.Missing {
		if !allowed[m] {
			t.Fatalf("gap contains %q which is not in target", m)
		}
	}
}

func TestResolve_TargetEqualsHeldIsEmpty(t *testing.T) {
	ix := testIndex()
	target := []string{"java", "spring"}

	res := Resolve(ix, target, target)
	if len(res.Missing) != 0 {
		t.Fatalf("gap(target, target) must be empty, got %v", res.Missing)
	}
}

func TestResolve_BroaderDoesNotCover(t *testing.T) {
	ix := testIndex()

	res := Resolve(ix, []string{"spring"}, []string{"java"})
	if len(res.Missing) != 1 || res.Missing[0] != "spring" {
		t.Fatalf("holding broader java must not cover spring, got %v", res.Missing)
	}
}

func TestResolve_NarrowerCovers(t *testing.T) {
	ix := testIndex()

	res := Resolve(ix, []string{"java"}, []string{"spring"})
	if len(res.Missing) != 0 {
		t.Fatalf("holding narrower spring must cover java, got %v", res.Missing)
	}
}

func TestResolve_EmptyTarget(t *testing.T) {
	ix := testIndex()

	res := Resolve(ix, nil, []string{"java"})
	if len(res.Missing) != 0 || len(res.Unknown) != 0 {
		t.Fatalf("empty target must produce empty gap, got %+v", res)
	}
}

func TestResolve_UnknownTargetIsAlwaysGap(t *testing.T) {
	ix := testIndex()

	res := Resolve(ix, []string{"kubernetes"}, []string{"kubernetes"})
	if len(res.Missing) != 1 || res.Missing[0] != "kubernetes" {
		t.Fatalf("unknown target must stay in gap, got %v", res.Missing)
	}
	if len(res.Unknown) != 1 || res.Unknown[0] != "kubernetes" {
		t.Fatalf("unknown target must be reported, got %v", res.Unknown)
	}
}

func TestResolve_DeterministicOrder(t *testing.T) {
	ix := testIndex()

	a := Resolve(ix, []string{"spring", "python", "java"}, nil)
	b := Resolve(ix, []string{"java", "spring", "python"}, nil)
	if len(a.Missing) != len(b.Missing) {
		t.Fatalf("length mismatch: %v vs %v", a.Missing, b.Missing)
	}
	for i := range a.Missing {
		if a.Missing[i] != b.Missing[i] {
			t.Fatalf("order differs: %v vs %v", a.Missing, b.Missing)
		}
	}
}
