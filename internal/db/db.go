package db

import (
	"context"
	"time"
)

// Store is the cache database facade. Consumers depend on the narrow sub-interfaces.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Item is a single key+value pair for pipelined writes.
type Item struct {
	Key   string
	Value []byte
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// MGet returns values in key order. Missing keys yield nil entries.
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetMultiWithTTL(ctx context.Context, items []Item, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}
