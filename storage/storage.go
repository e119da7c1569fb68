// Package storage selects the durable backend behind a session.Cache.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PaulFidika/recipekit/session"
	filestore "github.com/PaulFidika/recipekit/storage/file"
	memorystore "github.com/PaulFidika/recipekit/storage/memory"
	redisstore "github.com/PaulFidika/recipekit/storage/redis"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Options configures Open.
type Options struct {
	Backend   string
	Path      string        // file backend
	RedisURL  string        // redis backend
	KeyPrefix string        // redis backend
	TTL       time.Duration // memory and redis backends; 0 = no expiry
	Logger    logrus.FieldLogger
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var nopCloser = closerFunc(func() error { return nil })

// Open builds the store named by opts.Backend. An unreachable Redis degrades
// to an in-memory store with a warning. The closer releases backend resources.
func Open(ctx context.Context, opts Options) (session.Store, io.Closer, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendNone:
		return session.NopStore{}, nopCloser, nil
	case BackendMemory:
		s := memorystore.NewStore(opts.TTL)
		return s, s, nil
	case "", BackendFile:
		s, err := filestore.NewStore(opts.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser, nil
	case BackendRedis:
		ro, err := redis.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(ro)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			log.WithError(err).Warn("storage: redis unreachable, falling back to memory")
			s := memorystore.NewStore(opts.TTL)
			return s, s, nil
		}
		return redisstore.NewStore(rdb, opts.KeyPrefix, opts.TTL), rdb, nil
	default:
		return nil, nil, fmt.Errorf("storage: unknown backend %q", opts.Backend)
	}
}
