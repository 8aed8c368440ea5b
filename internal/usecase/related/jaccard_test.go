package related

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"testing"
)

// referenceJaccard is the literal set formulation: uniq(sort(A ∪ B)).take(k) ∩ A ∩ B.
func referenceJaccard(a, b []string, k int) float64 {
	union := make(map[string]struct{})
	for _, x := range a {
		union[x] = struct{}{}
	}
	for _, x := range b {
		union[x] = struct{}{}
	}
	combined := make([]string, 0, len(union))
	for x := range union {
		combined = append(combined, x)
	}
	sort.Strings(combined)
	if len(combined) > k {
		combined = combined[:k]
	}

	inA := make(map[string]bool, len(a))
	for _, x := range a {
		inA[x] = true
	}
	inB := make(map[string]bool, len(b))
	for _, x := range b {
		inB[x] = true
	}
	overlap := 0
	for _, x := range combined {
		if inA[x] && inB[x] {
			overlap++
		}
	}
	return float64(overlap) / float64(k)
}

func TestFastJaccard_Identical(t *testing.T) {
	a := []string{"a", "b", "c", "d"}
	if got := fastJaccard(a, a, 4); got != 1.0 {
		t.Errorf("fastJaccard(a, a) = %v, want 1", got)
	}
}

func TestFastJaccard_Disjoint(t *testing.T) {
	if got := fastJaccard([]string{"a", "b"}, []string{"c", "d"}, 2); got != 0 {
		t.Errorf("fastJaccard(disjoint) = %v, want 0", got)
	}
}

func TestFastJaccard_Empty(t *testing.T) {
	if got := fastJaccard(nil, nil, 625); got != 0 {
		t.Errorf("fastJaccard(empty) = %v, want 0", got)
	}
	if got := fastJaccard([]string{"a"}, []string{"a"}, 0); got != 0 {
		t.Errorf("fastJaccard(k=0) = %v, want 0", got)
	}
}

func TestFastJaccard_BiasedLowForSmallSamples(t *testing.T) {
	a := []string{"a", "b"}
	got := fastJaccard(a, a, 10)
	if got != 0.2 {
		t.Errorf("fastJaccard(small self) = %v, want 0.2", got)
	}
}

func TestFastJaccard_MatchesReference(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for trial := 0; trial < 200; trial++ {
		k := 1 + rng.IntN(40)
		universe := 1 + rng.IntN(120)

		pick := func() []string {
			set := make(map[string]struct{})
			for i := 0; i < universe; i++ {
				if rng.IntN(2) == 0 {
					set[fmt.Sprintf("%04d", i)] = struct{}{}
				}
			}
			ids := make([]string, 0, len(set))
			for id := range set {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			if len(ids) > k {
				ids = ids[:k]
			}
			return ids
		}

		a, b := pick(), pick()
		want := referenceJaccard(a, b, k)
		if got := fastJaccard(a, b, k); got != want {
			t.Fatalf("trial %d: fastJaccard = %v, reference = %v (k=%d, a=%v, b=%v)", trial, got, want, k, a, b)
		}
	}
}

func TestJaccard_ZeroUnion(t *testing.T) {
	if got := jaccard(0, 0); got != 0 {
		t.Errorf("jaccard(0, 0) = %v, want 0", got)
	}
	if got := jaccard(3, -1); got != 0 {
		t.Errorf("jaccard(3, -1) = %v, want 0", got)
	}
}

func TestJaccard_ClampsStaleCounts(t *testing.T) {
	// A stale post count can make the union smaller than the intersection.
	if got := jaccard(5, 4); got != 1 {
		t.Errorf("jaccard(5, 4) = %v, want 1", got)
	}
}
