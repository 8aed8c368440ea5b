package related

import (
	"fmt"

	"github.com/kailas-cloud/reltag/internal/domain"
	"github.com/kailas-cloud/reltag/internal/domain/tag"
	"github.com/kailas-cloud/reltag/internal/domain/tagsearch"
)

// Request limits.
const (
	DefaultTopN          = 50
	MaxTopN              = 1000
	DefaultSampleSize    = 625
	MaxSampleSize        = 10000
	DefaultFrequentLimit = 25
	MaxFrequentLimit     = 1000
)

// Request is a validated similar-tags query.
type Request struct {
	search     tagsearch.Search
	topN       int
	sampleSize int
	scope      tagsearch.Scope
}

// NewRequest validates and normalizes similar-tags parameters.
// Zero topN or sampleSize selects the default; topN is capped at MaxTopN.
func NewRequest(search tagsearch.Search, topN, sampleSize int, scope tagsearch.Scope) (Request, error) {
	if topN < 0 {
		return Request{}, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidRequest)
	}
	if topN == 0 {
		topN = DefaultTopN
	}
	if topN > MaxTopN {
		topN = MaxTopN
	}
	sampleSize, err := normalizeSampleSize(sampleSize)
	if err != nil {
		return Request{}, err
	}

	return Request{search: search, topN: topN, sampleSize: sampleSize, scope: scope}, nil
}

// Search returns the reference search.
func (r *Request) Search() tagsearch.Search { return r.search }

// TopN returns the maximum number of similar tags.
func (r *Request) TopN() int { return r.topN }

// SampleSize returns the per-search sample size.
func (r *Request) SampleSize() int { return r.sampleSize }

// Scope returns the viewer scope.
func (r *Request) Scope() tagsearch.Scope { return r.scope }

// FrequentRequest is a validated frequent-tags query.
type FrequentRequest struct {
	search     tagsearch.Search
	categories []tag.Category
	limit      int
	sampleSize int
	scope      tagsearch.Scope
}

// NewFrequentRequest validates and normalizes frequent-tags parameters.
// An empty categories list means no category constraint.
func NewFrequentRequest(
	search tagsearch.Search,
	categories []tag.Category,
	limit, sampleSize int,
	scope tagsearch.Scope,
) (FrequentRequest, error) {
	if limit < 0 {
		return FrequentRequest{}, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidRequest)
	}
	if limit == 0 {
		limit = DefaultFrequentLimit
	}
	if limit > MaxFrequentLimit {
		limit = MaxFrequentLimit
	}
	sampleSize, err := normalizeSampleSize(sampleSize)
	if err != nil {
		return FrequentRequest{}, err
	}

	return FrequentRequest{
		search:     search,
		categories: categories,
		limit:      limit,
		sampleSize: sampleSize,
		scope:      scope,
	}, nil
}

// Search returns the reference search.
func (r *FrequentRequest) Search() tagsearch.Search { return r.search }

// Categories returns the category constraint.
func (r *FrequentRequest) Categories() []tag.Category { return r.categories }

// Limit returns the maximum number of tags.
func (r *FrequentRequest) Limit() int { return r.limit }

// SampleSize returns the sample size.
func (r *FrequentRequest) SampleSize() int { return r.sampleSize }

// Scope returns the viewer scope.
func (r *FrequentRequest) Scope() tagsearch.Scope { return r.scope }

func normalizeSampleSize(n int) (int, error) {
	switch {
	case n == 0:
		return DefaultSampleSize, nil
	case n < 0:
		return 0, fmt.Errorf("%w: sample_size must be positive", domain.ErrInvalidRequest)
	case n > MaxSampleSize:
		return 0, fmt.Errorf("%w: sample_size must be at most %d", domain.ErrInvalidRequest, MaxSampleSize)
	}
	return n, nil
}
