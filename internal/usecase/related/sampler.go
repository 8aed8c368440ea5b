package related

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/reltag/internal/domain/sample"
	"github.com/kailas-cloud/reltag/internal/domain/tagsearch"
)

// Sampler draws md5-ordered post samples through the sample cache.
type Sampler struct {
	corpus Corpus
	cache  SampleCache
}

// NewSampler creates a sampler.
func NewSampler(corpus Corpus, cache SampleCache) *Sampler {
	return &Sampler{corpus: corpus, cache: cache}
}

// Sample returns up to size post ids matching search.
func (s *Sampler) Sample(
	ctx context.Context, scope tagsearch.Scope, search tagsearch.Search, size int,
) (sample.Set, error) {
	samples, err := s.SampleBatch(ctx, scope, []tagsearch.Search{search}, size)
	if err != nil {
		return sample.Set{}, err
	}
	return samples[search], nil
}

// SampleBatch returns a sample for every search with a single cache round trip.
func (s *Sampler) SampleBatch(
	ctx context.Context, scope tagsearch.Scope, searches []tagsearch.Search, size int,
) (map[tagsearch.Search]sample.Set, error) {
	keys := make([]sample.Key, 0, len(searches))
	seen := make(map[tagsearch.Search]struct{}, len(searches))
	for _, search := range searches {
		if _, ok := seen[search]; ok {
			continue
		}
		seen[search] = struct{}{}
		keys = append(keys, sample.Key{Search: search, Size: size, Scope: scope})
	}

	got, err := s.cache.GetOrComputeBatch(ctx, keys, s.produce)
	if err != nil {
		return nil, fmt.Errorf("sample posts: %w", err)
	}

	out := make(map[tagsearch.Search]sample.Set, len(got))
	for k, v := range got {
		out[k.Search] = v
	}
	return out, nil
}

func (s *Sampler) produce(ctx context.Context, key sample.Key) (sample.Set, error) {
	ids, err := s.corpus.Sample(ctx, key.Scope, key.Search, key.Size)
	if err != nil {
		return sample.Set{}, fmt.Errorf("sample %q: %w", key.Search, err)
	}
	return sample.New(ids, key.Size), nil
}
