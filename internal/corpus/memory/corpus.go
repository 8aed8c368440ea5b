// Package memory implements an in-process post corpus.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kailas-cloud/reltag/internal/domain"
	"github.com/kailas-cloud/reltag/internal/domain/post"
	domrel "github.com/kailas-cloud/reltag/internal/domain/related"
	"github.com/kailas-cloud/reltag/internal/domain/tag"
	"github.com/kailas-cloud/reltag/internal/domain/tagsearch"
)

// Corpus is a thread-safe in-memory corpus. Posts are kept ordered by md5.
type Corpus struct {
	mu         sync.RWMutex
	posts      []post.Post
	index      map[string]int
	tagCounts  map[string]int
	categories map[string]tag.Category
}

// New creates a corpus holding posts.
func New(posts ...post.Post) *Corpus {
	c := &Corpus{
		index:      make(map[string]int),
		tagCounts:  make(map[string]int),
		categories: make(map[string]tag.Category),
	}
	c.Add(posts...)
	return c
}

// Add inserts posts, replacing any post with the same md5.
func (c *Corpus) Add(posts ...post.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range posts {
		if i, ok := c.index[p.ID()]; ok {
			c.adjustCounts(c.posts[i].Tags(), -1)
			c.posts[i] = p
			c.adjustCounts(p.Tags(), 1)
			continue
		}
		c.posts = append(c.posts, p)
		c.index[p.ID()] = len(c.posts) - 1
		c.adjustCounts(p.Tags(), 1)
	}

	sort.Slice(c.posts, func(i, j int) bool { return c.posts[i].ID() < c.posts[j].ID() })
	for i := range c.posts {
		c.index[c.posts[i].ID()] = i
	}
}

// SetCategory assigns a category to a tag (tags default to general).
func (c *Corpus) SetCategory(name string, cat tag.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories[name] = cat
}

// Len returns the number of posts.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.posts)
}

// Ping always succeeds.
func (c *Corpus) Ping(_ context.Context) error { return nil }

func (c *Corpus) adjustCounts(tags []string, delta int) {
	for _, t := range tags {
		c.tagCounts[t] += delta
		if c.tagCounts[t] <= 0 {
			delete(c.tagCounts, t)
		}
	}
}

// Count returns the number of posts matching search.
func (c *Corpus) Count(ctx context.Context, scope tagsearch.Scope, search tagsearch.Search) (int, error) {
	n := 0
	err := c.each(ctx, scope, search, func(_ *post.Post) bool {
		n++
		return true
	})
	return n, err
}

// Match returns every post matching search in md5 order.
func (c *Corpus) Match(ctx context.Context, scope tagsearch.Scope, search tagsearch.Search) ([]post.Post, error) {
	var out []post.Post
	err := c.each(ctx, scope, search, func(p *post.Post) bool {
		out = append(out, *p)
		return true
	})
	return out, err
}

// Sample returns the size smallest md5s among posts matching search.
func (c *Corpus) Sample(
	ctx context.Context, scope tagsearch.Scope, search tagsearch.Search, size int,
) ([]string, error) {
	if size <= 0 {
		return nil, nil
	}
	out := make([]string, 0, size)
	err := c.each(ctx, scope, search, func(p *post.Post) bool {
		out = append(out, p.ID())
		return len(out) < size
	})
	return out, err
}

// TagPostCounts returns the corpus-wide post count per tag.
func (c *Corpus) TagPostCounts(ctx context.Context, names []string) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCorpusUnavailable, err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]int, len(names))
	for _, n := range names {
		out[n] = c.tagCounts[n]
	}
	return out, nil
}

// AggregateTagCounts counts tags across the posts with the given md5s.
func (c *Corpus) AggregateTagCounts(
	ctx context.Context, ids []string, categories []tag.Category, limit int,
) ([]domrel.TagCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCorpusUnavailable, err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	allowed := make(map[tag.Category]bool, len(categories))
	for _, cat := range categories {
		allowed[cat] = true
	}

	counts := make(map[string]int)
	for _, id := range ids {
		i, ok := c.index[id]
		if !ok {
			continue
		}
		for _, t := range c.posts[i].Tags() {
			if len(allowed) > 0 && !allowed[c.categories[t]] {
				continue
			}
			counts[t]++
		}
	}

	out := make([]domrel.TagCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, domrel.TagCount{Name: name, Count: n})
	}
	domrel.SortTagCounts(out)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// each calls fn for every matching post in md5 order until fn returns false.
func (c *Corpus) each(
	ctx context.Context, scope tagsearch.Scope, search tagsearch.Search, fn func(p *post.Post) bool,
) error {
	q, err := tagsearch.Parse(search)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCorpusUnavailable, err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := range c.posts {
		p := &c.posts[i]
		if !q.Matches(p.Tags(), p.Rating(), scope) {
			continue
		}
		if !fn(p) {
			break
		}
	}
	return nil
}
