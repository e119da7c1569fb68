package redislimiter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces limiter keys.
const DefaultKeyPrefix = "recipekit:rl:"

// Limit defines window and max count for a bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// Limiter is a Redis-backed sliding window limiter using ZSETs, shared by
// every auth server replica pointing at the same Redis.
type Limiter struct {
	rdb     redis.UniversalClient
	prefix  string
	limits  map[string]Limit
	timeout time.Duration
}

func New(rdb redis.UniversalClient, limits map[string]Limit) *Limiter {
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &Limiter{rdb: rdb, prefix: DefaultKeyPrefix, limits: limits, timeout: time.Second}
}

func (l *Limiter) get(bucket string) Limit {
	if v, ok := l.limits[bucket]; ok {
		return v
	}
	if v, ok := l.limits["default"]; ok {
		return v
	}
	return Limit{Limit: 100, Window: time.Minute}
}

// AllowNamed records the attempt, then rolls it back if it pushed the count
// over the bucket's limit.
func (l *Limiter) AllowNamed(bucket, key string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, fmt.Errorf("bucket and key required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	lim := l.get(bucket)
	now := time.Now().UnixMilli()
	start := now - lim.Window.Milliseconds()
	limitKey := l.prefix + key + ":" + bucket
	member := strconv.FormatInt(now, 10) + "-" + uuid.NewString()

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, limitKey, "-inf", strconv.FormatInt(start, 10))
	pipe.ZAdd(ctx, limitKey, redis.Z{Score: float64(now), Member: member})
	countCmd := pipe.ZCard(ctx, limitKey)
	pipe.Expire(ctx, limitKey, lim.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	if countCmd.Val() > int64(lim.Limit) {
		l.rdb.ZRem(ctx, limitKey, member)
		return false, nil
	}
	return true, nil
}
