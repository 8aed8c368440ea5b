// Package memory is a process-local db.Store for single-node deployments and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/reltag/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type entry struct {
	value     []byte
	expiresAt time.Time // zero = never
}

// DefaultSweepInterval is how often writes sweep expired entries.
const DefaultSweepInterval = time.Minute

// Store keeps values in a map guarded by a RWMutex. Expired entries are
// dropped lazily on read, by a write once per sweep interval, and by Sweep.
type Store struct {
	mu            sync.RWMutex
	entries       map[string]entry
	now           func() time.Time
	sweepInterval time.Duration
	nextSweep     time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		entries:       make(map[string]entry),
		now:           time.Now,
		sweepInterval: DefaultSweepInterval,
	}
}

// WithClock overrides the time source (tests).
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// WithSweepInterval sets how often writes sweep expired entries.
// A non-positive interval sweeps on every write.
func (s *Store) WithSweepInterval(d time.Duration) *Store {
	s.sweepInterval = d
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	v, ok := s.lookup(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

// MGet returns values in key order. Missing or expired keys yield nil entries.
func (s *Store) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpMGet, Err: err}
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if v, ok := s.lookup(k); ok {
			out[i] = v
		}
	}
	return out, nil
}

// SetWithTTL stores a copy of value. A non-positive ttl never expires.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.SetMultiWithTTL(ctx, []db.Item{{Key: key, Value: value}}, ttl)
}

// SetMultiWithTTL stores every item under one lock.
func (s *Store) SetMultiWithTTL(ctx context.Context, items []db.Item, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	now := s.now()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !now.Before(s.nextSweep) {
		s.sweepLocked(now)
		s.nextSweep = now.Add(s.sweepInterval)
	}
	for _, it := range items {
		s.entries[it.Key] = entry{value: append([]byte(nil), it.Value...), expiresAt: expiresAt}
	}
	return nil
}

// Del removes a key.
func (s *Store) Del(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Sweep drops every expired entry and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

// Run sweeps on every tick until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store) sweepLocked(now time.Time) int {
	n := 0
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) lookup(key string) ([]byte, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || e.expired(s.now()) {
		return nil, false
	}
	return append([]byte(nil), e.value...), true
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}
