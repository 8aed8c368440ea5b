package samplecache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reltag/internal/db"
	"github.com/kailas-cloud/reltag/internal/domain/sample"
)

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	mu         sync.Mutex
	data       map[string][]byte
	mgetCalls  int
	setCalls   int
	lastTTL    time.Duration
	mgetFn     func(ctx context.Context, keys []string) ([][]byte, error)
	setMultiFn func(ctx context.Context, items []db.Item, ttl time.Duration) error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: make(map[string][]byte)}
}

func (m *mockKVStore) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	m.mu.Lock()
	m.mgetCalls++
	m.mu.Unlock()
	if m.mgetFn != nil {
		return m.mgetFn(ctx, keys)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}

func (m *mockKVStore) SetMultiWithTTL(ctx context.Context, items []db.Item, ttl time.Duration) error {
	m.mu.Lock()
	m.setCalls++
	m.lastTTL = ttl
	m.mu.Unlock()
	if m.setMultiFn != nil {
		return m.setMultiFn(ctx, items, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		m.data[it.Key] = it.Value
	}
	return nil
}

// countingProducer returns a fixed sample per key and counts invocations.
type countingProducer struct {
	mu    sync.Mutex
	calls map[sample.Key]int
	ids   map[sample.Key][]string
	err   error
}

func newCountingProducer() *countingProducer {
	return &countingProducer{calls: make(map[sample.Key]int), ids: make(map[sample.Key][]string)}
}

func (p *countingProducer) produce(_ context.Context, k sample.Key) (sample.Set, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[k]++
	if p.err != nil {
		return sample.Set{}, p.err
	}
	return sample.New(p.ids[k], k.Size), nil
}

func (p *countingProducer) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}

func newTestCache(t *testing.T) (*Cache, *mockKVStore, *prometheus.CounterVec) {
	t.Helper()
	ms := newMockKVStore()
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_sample_cache_total",
		Help: "test",
	}, []string{"result"})
	return New(ms, counter, zap.NewNop()), ms, counter
}
