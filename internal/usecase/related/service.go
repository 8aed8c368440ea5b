package related

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reltag/internal/domain"
	domrel "github.com/kailas-cloud/reltag/internal/domain/related"
	"github.com/kailas-cloud/reltag/internal/domain/tagsearch"
	logpkg "github.com/kailas-cloud/reltag/internal/logger"
	"github.com/kailas-cloud/reltag/internal/metrics"
)

// Service computes related tags for tag searches.
type Service struct {
	corpus  Corpus
	sampler *Sampler
	freq    *FrequencyCounter
}

// New creates a related-tag service over a corpus and a sample cache.
func New(corpus Corpus, cache SampleCache) *Service {
	sampler := NewSampler(corpus, cache)
	return &Service{
		corpus:  corpus,
		sampler: sampler,
		freq:    NewFrequencyCounter(corpus, sampler),
	}
}

// SimilarTags returns the tags most similar to the request search by Jaccard index,
// ordered by descending score then ascending name and truncated to the request's top N.
//
// Searches matching at most SampleSize posts are scored exactly. Larger searches are
// scored with MinHash over cached samples, which caps the cost regardless of corpus size.
func (s *Service) SimilarTags(ctx context.Context, req domrel.Request) (domrel.Result, error) {
	start := time.Now()
	res := domrel.Result{Search: req.Search()}

	count, err := s.corpus.Count(ctx, req.Scope(), req.Search())
	if err != nil {
		observe("similar", "none", start, err)
		return res, fmt.Errorf("count posts: %w", err)
	}

	res.Strategy = domrel.SelectStrategy(count, req.SampleSize())

	var tags []domrel.Similarity
	switch res.Strategy {
	case domrel.StrategyExact:
		tags, err = s.exactSimilarities(ctx, req, count)
	case domrel.StrategyMinHash:
		tags, err = s.minHashSimilarities(ctx, req)
	default:
		err = fmt.Errorf("unsupported strategy: %s", res.Strategy)
	}
	observe("similar", res.Strategy.String(), start, err)
	if err != nil {
		return res, err
	}

	metrics.RelatedCandidates.Observe(float64(len(tags)))

	domrel.SortSimilarities(tags)
	if len(tags) > req.TopN() {
		tags = tags[:req.TopN()]
	}
	res.Tags = tags

	logpkg.FromContext(ctx).Debug("Similar tags computed",
		zap.String("search", req.Search().String()),
		zap.String("strategy", res.Strategy.String()),
		zap.Int("post_count", count),
		zap.Int("results", len(tags)),
		zap.Duration("duration", time.Since(start)),
	)

	return res, nil
}

// exactSimilarities scores every tag seen on the matching posts:
// J = i / (|P| + post_count(t) - i).
func (s *Service) exactSimilarities(
	ctx context.Context, req domrel.Request, count int,
) ([]domrel.Similarity, error) {
	if count == 0 {
		return nil, nil
	}

	posts, err := s.corpus.Match(ctx, req.Scope(), req.Search())
	if err != nil {
		return nil, fmt.Errorf("match posts: %w", err)
	}
	if len(posts) == 0 {
		return nil, nil
	}

	freqs := s.freq.FromPosts(posts)
	names := make([]string, 0, len(freqs))
	for name := range freqs {
		names = append(names, name)
	}

	postCounts, err := s.corpus.TagPostCounts(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("tag post counts: %w", err)
	}

	size := len(posts)
	out := make([]domrel.Similarity, 0, len(freqs))
	for name, intersection := range freqs {
		union := size + postCounts[name] - intersection
		out = append(out, domrel.Similarity{Tag: name, Score: jaccard(intersection, union)})
	}
	return out, nil
}

// minHashSimilarities takes the top N most frequent tags in the reference sample as
// candidates and compares each candidate's cached sample against the reference sample.
func (s *Service) minHashSimilarities(ctx context.Context, req domrel.Request) ([]domrel.Similarity, error) {
	k := req.SampleSize()

	candidates, err := s.freq.ForSearch(ctx, req.Scope(), req.Search(), k, req.TopN())
	if err != nil {
		return nil, fmt.Errorf("frequent tags: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	searches := make([]tagsearch.Search, 0, len(candidates)+1)
	searches = append(searches, req.Search())
	for _, c := range candidates {
		searches = append(searches, tagsearch.Search(c.Name))
	}

	samples, err := s.sampler.SampleBatch(ctx, req.Scope(), searches, k)
	if err != nil {
		return nil, err
	}

	ref := samples[req.Search()].IDs()
	out := make([]domrel.Similarity, 0, len(candidates))
	for _, c := range candidates {
		other := samples[tagsearch.Search(c.Name)].IDs()
		out = append(out, domrel.Similarity{Tag: c.Name, Score: fastJaccard(ref, other, k)})
	}
	return out, nil
}

// FrequentTags returns the most frequent tags within a sample of the search,
// optionally restricted to tag categories.
func (s *Service) FrequentTags(ctx context.Context, req domrel.FrequentRequest) ([]domrel.TagCount, error) {
	start := time.Now()

	counts, err := s.freq.ForSearch(
		ctx, req.Scope(), req.Search(), req.SampleSize(), req.Limit(), req.Categories()...,
	)
	observe("frequent", "sample", start, err)
	if err != nil {
		return nil, fmt.Errorf("frequent tags: %w", err)
	}
	return counts, nil
}

// JaccardSimilarity computes the exact Jaccard index of two tag searches from an
// intersection count and the two corpus-wide tag post counts. It issues an
// intersection query per call and is meant for spot checks, not ranking.
func (s *Service) JaccardSimilarity(
	ctx context.Context, scope tagsearch.Scope, a, b string,
) (float64, error) {
	start := time.Now()
	score, err := s.jaccardSimilarity(ctx, scope, a, b)
	observe("jaccard", domrel.StrategyExact.String(), start, err)
	return score, err
}

func (s *Service) jaccardSimilarity(
	ctx context.Context, scope tagsearch.Scope, a, b string,
) (float64, error) {
	for _, name := range []string{a, b} {
		if !tagsearch.IsTagName(name) {
			return 0, fmt.Errorf("%w: %q is not a single tag", domain.ErrInvalidRequest, name)
		}
	}

	intersection, err := s.corpus.Count(ctx, scope, tagsearch.Join(tagsearch.Search(a), tagsearch.Search(b)))
	if err != nil {
		return 0, fmt.Errorf("count intersection: %w", err)
	}

	counts, err := s.corpus.TagPostCounts(ctx, []string{a, b})
	if err != nil {
		return 0, fmt.Errorf("tag post counts: %w", err)
	}

	return jaccard(intersection, counts[a]+counts[b]-intersection), nil
}

// CountPosts returns the number of posts matching a search.
func (s *Service) CountPosts(ctx context.Context, scope tagsearch.Scope, search tagsearch.Search) (int, error) {
	n, err := s.corpus.Count(ctx, scope, search)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

func observe(operation, strategy string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RelatedRequestsTotal.WithLabelValues(operation, strategy, status).Inc()
	metrics.RelatedRequestDuration.WithLabelValues(operation, strategy).Observe(time.Since(start).Seconds())
}
