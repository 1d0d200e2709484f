package cache

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// ExpMirror keeps the experience mirror in a Redis hash so every API
// instance sees the same optimistic values.
type ExpMirror struct {
	rdb *redis.Client
	key string
}

// NewExpMirror returns a mirror stored under ExpMirrorKey.
func NewExpMirror(rdb *redis.Client) *ExpMirror {
	return &ExpMirror{rdb: rdb, key: ExpMirrorKey}
}

// Adjust applies delta with HINCRBY.
func (m *ExpMirror) Adjust(ctx context.Context, userID string, delta int64) (int64, error) {
	return m.rdb.HIncrBy(ctx, m.key, userID, delta).Result()
}

// Seed stores value with HSETNX.
func (m *ExpMirror) Seed(ctx context.Context, userID string, value int64) (bool, error) {
	return m.rdb.HSetNX(ctx, m.key, userID, value).Result()
}

// Value reads the mirrored value.
func (m *ExpMirror) Value(ctx context.Context, userID string) (int64, bool, error) {
	s, err := m.rdb.HGet(ctx, m.key, userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// Forget drops userID from the mirror so the next read reseeds it.
func (m *ExpMirror) Forget(ctx context.Context, userID string) error {
	return m.rdb.HDel(ctx, m.key, userID).Err()
}
