package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/reltag/internal/db"
)

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.b().Get().Key(key).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// MGet fetches several keys in one round trip. Missing keys yield nil entries.
func (s *Store) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmd := s.b().Mget().Key(keys...).Build()
	msgs, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpMGet, Err: err}
	}

	out := make([][]byte, len(keys))
	for i := range msgs {
		if i >= len(out) {
			break
		}
		if msgs[i].IsNil() {
			continue
		}
		data, err := msgs[i].AsBytes()
		if err != nil {
			return nil, &db.Error{Op: db.OpMGet, Err: err}
		}
		out[i] = data
	}
	return out, nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(ttl).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// SetMultiWithTTL pipelines SET EX for every item in one round trip.
func (s *Store) SetMultiWithTTL(ctx context.Context, items []db.Item, ttl time.Duration) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, 0, len(items))
	for _, it := range items {
		cmds = append(cmds, s.b().Set().Key(it.Key).Value(rueidis.BinaryString(it.Value)).Ex(ttl).Build())
	}

	for _, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpSet, Err: err}
		}
	}
	return nil
}

// Del removes a key. Deleting a missing key is not an error.
func (s *Store) Del(ctx context.Context, key string) error {
	cmd := s.b().Del().Key(key).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}
