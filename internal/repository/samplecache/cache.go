// Package samplecache stores MinHash post samples in a key-value store.
package samplecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reltag/internal/db"
	"github.com/kailas-cloud/reltag/internal/domain"
	"github.com/kailas-cloud/reltag/internal/domain/sample"
)

// DefaultTTL is how long a sample stays cached.
const DefaultTTL = 24 * time.Hour

// store is the consumer interface for the sample cache (ISP).
type store interface {
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	SetMultiWithTTL(ctx context.Context, items []db.Item, ttl time.Duration) error
}

// Cache implements related.SampleCache over a key-value store.
type Cache struct {
	store      store
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a sample cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{
		store:      s,
		prefix:     domain.KeyPrefix,
		ttl:        DefaultTTL,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// WithTTL overrides the entry lifetime. Non-positive values are ignored.
func (c *Cache) WithTTL(ttl time.Duration) *Cache {
	if ttl > 0 {
		c.ttl = ttl
	}
	return c
}

// WithPrefix overrides the key prefix.
func (c *Cache) WithPrefix(prefix string) *Cache {
	if prefix != "" {
		c.prefix = prefix
	}
	return c
}

// GetOrCompute returns the cached sample for key or computes and stores it.
func (c *Cache) GetOrCompute(ctx context.Context, key sample.Key, produce sample.Producer) (sample.Set, error) {
	got, err := c.GetOrComputeBatch(ctx, []sample.Key{key}, produce)
	if err != nil {
		return sample.Set{}, err
	}
	return got[key], nil
}

// GetOrComputeBatch reads every key in one round trip, runs produce for each
// miss in order, then writes the new entries back in one pipelined round trip.
func (c *Cache) GetOrComputeBatch(
	ctx context.Context, keys []sample.Key, produce sample.Producer,
) (map[sample.Key]sample.Set, error) {
	out := make(map[sample.Key]sample.Set, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	storeKeys := make([]string, len(keys))
	for i, k := range keys {
		storeKeys[i] = c.cacheKey(k)
	}

	values, err := c.store.MGet(ctx, storeKeys)
	if err != nil {
		c.logger.Warn("Failed to read cached samples", zap.Int("keys", len(keys)), zap.Error(err))
		values = nil
	}

	var pending []db.Item
	for i, k := range keys {
		if _, done := out[k]; done {
			continue
		}
		if i < len(values) {
			if set, ok := c.decode(storeKeys[i], values[i], k.Size); ok {
				c.incCache("hit")
				out[k] = set
				continue
			}
		}
		c.incCache("miss")

		set, err := produce(ctx, k)
		if err != nil {
			return nil, err
		}
		out[k] = set

		data, err := json.Marshal(set.IDs())
		if err != nil {
			c.logger.Warn("Failed to encode sample", zap.String("key", storeKeys[i]), zap.Error(err))
			continue
		}
		pending = append(pending, db.Item{Key: storeKeys[i], Value: data})
	}

	if len(pending) > 0 {
		if err := c.store.SetMultiWithTTL(ctx, pending, c.ttl); err != nil {
			c.logger.Warn("Failed to cache samples", zap.Int("keys", len(pending)), zap.Error(err))
		}
	}
	return out, nil
}

func (c *Cache) decode(storeKey string, data []byte, size int) (sample.Set, bool) {
	if data == nil {
		return sample.Set{}, false
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		c.logger.Warn("Failed to parse cached sample", zap.String("key", storeKey), zap.Error(err))
		return sample.Set{}, false
	}
	return sample.New(ids, size), true
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey renders <prefix>minhash:<size>:[safe:]<sha256(search)>.
func (c *Cache) cacheKey(k sample.Key) string {
	h := sha256.Sum256([]byte(k.Search.String()))
	key := c.prefix + "minhash:" + strconv.Itoa(k.Size) + ":"
	if k.Scope.SafeMode {
		key += "safe:"
	}
	return key + hex.EncodeToString(h[:])
}
