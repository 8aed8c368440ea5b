package related

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/reltag/internal/domain/post"
	domrel "github.com/kailas-cloud/reltag/internal/domain/related"
	"github.com/kailas-cloud/reltag/internal/domain/tag"
	"github.com/kailas-cloud/reltag/internal/domain/tagsearch"
)

// Frequencies maps a tag name to its occurrence count within a post set.
type Frequencies map[string]int

// FrequencyCounter counts tag occurrences over materialized posts or sampled ids.
type FrequencyCounter struct {
	corpus  Corpus
	sampler *Sampler
}

// NewFrequencyCounter creates a frequency counter.
func NewFrequencyCounter(corpus Corpus, sampler *Sampler) *FrequencyCounter {
	return &FrequencyCounter{corpus: corpus, sampler: sampler}
}

// FromPosts counts every tag on every post once.
func (f *FrequencyCounter) FromPosts(posts []post.Post) Frequencies {
	counts := make(Frequencies)
	for i := range posts {
		for _, t := range posts[i].Tags() {
			counts[t]++
		}
	}
	return counts
}

// ForSearch samples sampleSize posts matching search and aggregates their tags in the corpus.
// The result is ordered by descending count, then ascending name, and truncated to limit.
func (f *FrequencyCounter) ForSearch(
	ctx context.Context,
	scope tagsearch.Scope,
	search tagsearch.Search,
	sampleSize, limit int,
	categories ...tag.Category,
) ([]domrel.TagCount, error) {
	s, err := f.sampler.Sample(ctx, scope, search, sampleSize)
	if err != nil {
		return nil, err
	}
	if s.Len() == 0 {
		return nil, nil
	}

	counts, err := f.corpus.AggregateTagCounts(ctx, s.IDs(), categories, limit)
	if err != nil {
		return nil, fmt.Errorf("aggregate tag counts: %w", err)
	}

	domrel.SortTagCounts(counts)
	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts, nil
}

// Rank orders frequencies by descending count, then ascending name, truncated to limit.
func Rank(freqs Frequencies, limit int) []domrel.TagCount {
	out := make([]domrel.TagCount, 0, len(freqs))
	for name, c := range freqs {
		out = append(out, domrel.TagCount{Name: name, Count: c})
	}
	domrel.SortTagCounts(out)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
