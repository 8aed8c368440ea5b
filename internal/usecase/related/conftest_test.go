package related

import (
	"context"
	"crypto/md5" //nolint:gosec // test fixture ids
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/kailas-cloud/reltag/internal/corpus/memory"
	"github.com/kailas-cloud/reltag/internal/domain"
	"github.com/kailas-cloud/reltag/internal/domain/post"
	"github.com/kailas-cloud/reltag/internal/domain/sample"
	"github.com/kailas-cloud/reltag/internal/domain/tagsearch"
)

// --- Mocks ---

// mockCorpus wraps a real in-memory corpus with call counters and fault injection.
type mockCorpus struct {
	Corpus

	mu              sync.Mutex
	countCalls      int
	matchCalls      int
	sampleCalls     int
	failSampleAfter int // fail every Sample call after this many; 0 = never
	countErr        error
}

func (m *mockCorpus) Count(ctx context.Context, scope tagsearch.Scope, search tagsearch.Search) (int, error) {
	m.mu.Lock()
	m.countCalls++
	err := m.countErr
	m.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return m.Corpus.Count(ctx, scope, search)
}

func (m *mockCorpus) Match(
	ctx context.Context, scope tagsearch.Scope, search tagsearch.Search,
) ([]post.Post, error) {
	m.mu.Lock()
	m.matchCalls++
	m.mu.Unlock()
	return m.Corpus.Match(ctx, scope, search)
}

func (m *mockCorpus) Sample(
	ctx context.Context, scope tagsearch.Scope, search tagsearch.Search, size int,
) ([]string, error) {
	m.mu.Lock()
	m.sampleCalls++
	fail := m.failSampleAfter > 0 && m.sampleCalls > m.failSampleAfter
	m.mu.Unlock()
	if fail {
		return nil, fmt.Errorf("%w: sample called again", domain.ErrCorpusUnavailable)
	}
	return m.Corpus.Sample(ctx, scope, search, size)
}

// mockCache is an in-memory SampleCache that records every batch.
type mockCache struct {
	mu      sync.Mutex
	entries map[sample.Key]sample.Set
	batches [][]sample.Key
	hits    int
	misses  int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[sample.Key]sample.Set)}
}

func (m *mockCache) GetOrComputeBatch(
	ctx context.Context, keys []sample.Key, produce sample.Producer,
) (map[sample.Key]sample.Set, error) {
	m.mu.Lock()
	m.batches = append(m.batches, keys)
	m.mu.Unlock()

	out := make(map[sample.Key]sample.Set, len(keys))
	for _, k := range keys {
		m.mu.Lock()
		v, ok := m.entries[k]
		if ok {
			m.hits++
		} else {
			m.misses++
		}
		m.mu.Unlock()
		if ok {
			out[k] = v
			continue
		}

		v, err := produce(ctx, k)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.entries[k] = v
		m.mu.Unlock()
		out[k] = v
	}
	return out, nil
}

// --- Fixtures ---

func md5Of(s string) string {
	h := md5.Sum([]byte(s)) //nolint:gosec // test fixture ids
	return hex.EncodeToString(h[:])
}

func mustPost(t *testing.T, name string, tags ...string) post.Post {
	t.Helper()
	p, err := post.New(md5Of(name), tags, "s")
	if err != nil {
		t.Fatalf("post.New: %v", err)
	}
	return p
}

// newTestService wires a Service over an instrumented memory corpus and a mock cache.
func newTestService(t *testing.T, posts ...post.Post) (*Service, *mockCorpus, *mockCache) {
	t.Helper()
	mc := &mockCorpus{Corpus: memory.New(posts...)}
	cache := newMockCache()
	return New(mc, cache), mc, cache
}

// pairCorpus builds n posts keyed by md5(seed, i). Posts [0, aEnd) carry "a",
// posts [bStart, bEnd) carry "b" and every post carries "filler".
func pairCorpus(seed, n, aEnd, bStart, bEnd int) *memory.Corpus {
	posts := make([]post.Post, n)
	for i := range posts {
		tags := []string{"filler"}
		if i < aEnd {
			tags = append(tags, "a")
		}
		if i >= bStart && i < bEnd {
			tags = append(tags, "b")
		}
		posts[i] = post.Reconstruct(md5Of(fmt.Sprintf("%d:%d", seed, i)), tags, "s")
	}
	return memory.New(posts...)
}

var errBoom = errors.New("boom")
