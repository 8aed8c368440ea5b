package related

import (
	"context"

	"github.com/kailas-cloud/reltag/internal/domain/post"
	domrel "github.com/kailas-cloud/reltag/internal/domain/related"
	"github.com/kailas-cloud/reltag/internal/domain/sample"
	"github.com/kailas-cloud/reltag/internal/domain/tag"
	"github.com/kailas-cloud/reltag/internal/domain/tagsearch"
)

// Corpus is the read-only post corpus the engine queries.
// Implementations bound every call with their own timeout and report failures
// as domain.ErrCorpusUnavailable and malformed searches as domain.ErrInvalidSearch.
type Corpus interface {
	// Count returns the number of posts matching search.
	Count(ctx context.Context, scope tagsearch.Scope, search tagsearch.Search) (int, error)

	// Match materializes every post matching search. Only used below the sample-size threshold.
	Match(ctx context.Context, scope tagsearch.Scope, search tagsearch.Search) ([]post.Post, error)

	// Sample returns up to size post ids matching search, ordered by md5.
	Sample(ctx context.Context, scope tagsearch.Scope, search tagsearch.Search, size int) ([]string, error)

	// TagPostCounts returns the corpus-wide post count for each tag name; unknown tags count 0.
	TagPostCounts(ctx context.Context, names []string) (map[string]int, error)

	// AggregateTagCounts counts tags over the given posts, descending by count then ascending
	// by name, truncated to limit. A non-empty categories list restricts the tags counted.
	AggregateTagCounts(
		ctx context.Context, ids []string, categories []tag.Category, limit int,
	) ([]domrel.TagCount, error)
}

// SampleCache is an expiring batched cache of post samples.
// produce is called synchronously for every missing key; concurrent misses on the
// same key may both produce.
type SampleCache interface {
	GetOrComputeBatch(ctx context.Context, keys []sample.Key, produce sample.Producer) (map[sample.Key]sample.Set, error)
}
