package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces session keys in a shared Redis.
const DefaultKeyPrefix = "recipekit:session:"

// Store keeps session values in Redis so several client processes can share
// one login. It satisfies session.Store.
type Store struct {
	rdb   redis.UniversalClient
	keyNS string
	ttl   time.Duration
}

// NewStore creates a Redis-backed store. ttl <= 0 stores without expiry.
func NewStore(rdb redis.UniversalClient, keyPrefix string, ttl time.Duration) *Store {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Store{rdb: rdb, keyNS: keyPrefix, ttl: ttl}
}

func (s *Store) key(k string) string { return s.keyNS + k }

func (s *Store) Read(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *Store) Write(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, s.key(key), value, s.ttl).Err()
}

func (s *Store) Remove(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.key(key)).Err()
}
