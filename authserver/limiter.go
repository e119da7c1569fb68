package authserver

import (
	"context"
	"time"

	"github.com/PaulFidika/recipekit/adapters/ginutil"
	memorylimiter "github.com/PaulFidika/recipekit/ratelimit/memory"
	redislimiter "github.com/PaulFidika/recipekit/ratelimit/redis"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// NewLimiter returns a Redis-backed limiter when redisURL is set and
// reachable, otherwise the in-memory one. The returned stop func releases the
// Redis client or the sweeper goroutine.
func NewLimiter(ctx context.Context, redisURL string, log logrus.FieldLogger) (ginutil.RateLimiter, func()) {
	limits := ginutil.DefaultLimits()
	if redisURL != "" {
		rl, stop, err := newRedisLimiter(ctx, redisURL, limits)
		if err == nil {
			log.Info("rate limiting via redis")
			return rl, stop
		}
		log.WithError(err).Warn("redis rate limiter unavailable, falling back to memory")
	}

	ml := make(map[string]memorylimiter.Limit, len(limits))
	for k, v := range limits {
		ml[k] = memorylimiter.Limit{Limit: v.Limit, Window: v.Window}
	}
	lim := memorylimiter.New(ml)
	sweepCtx, cancel := context.WithCancel(context.Background())
	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-t.C:
				lim.Sweep()
			}
		}
	}()
	return lim, cancel
}

func newRedisLimiter(ctx context.Context, redisURL string, limits map[string]ginutil.Limit) (ginutil.RateLimiter, func(), error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, err
	}
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	rl := make(map[string]redislimiter.Limit, len(limits))
	for k, v := range limits {
		rl[k] = redislimiter.Limit{Limit: v.Limit, Window: v.Window}
	}
	return redislimiter.New(rdb, rl), func() { _ = rdb.Close() }, nil
}
