// Package sample holds the sorted post-id samples used for MinHash comparison.
package sample

import (
	"context"
	"sort"

	"github.com/kailas-cloud/reltag/internal/domain/tagsearch"
)

// Producer computes the sample for a key on a cache miss.
type Producer func(ctx context.Context, key Key) (Set, error)

// Key identifies a cached sample: one search at one sample size under one scope.
type Key struct {
	Search tagsearch.Search
	Size   int
	Scope  tagsearch.Scope
}

// Set is a sorted, deduplicated list of post ids bounded by the sample size.
type Set struct {
	ids []string
}

// New sorts, deduplicates and truncates ids into a Set of at most size elements.
// The input slice is not modified.
func New(ids []string, size int) Set {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	out := sorted[:0]
	for i, id := range sorted {
		if i > 0 && id == sorted[i-1] {
			continue
		}
		out = append(out, id)
	}
	if size >= 0 && len(out) > size {
		out = out[:size]
	}
	return Set{ids: out}
}

// IDs returns the sorted post ids. Callers must not modify the slice.
func (s Set) IDs() []string { return s.ids }

// Len returns the number of ids.
func (s Set) Len() int { return len(s.ids) }
