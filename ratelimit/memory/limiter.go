package memorylimiter

import (
	"fmt"
	"sync"
	"time"
)

// Limit defines window and max count for a bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

type bucketState struct {
	bucket string
	// timestamps holds request times in Unix ms, newest last.
	timestamps []int64
}

// Limiter is an in-memory sliding-window rate limiter.
// It is the single-node fallback when Redis is unavailable.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]Limit
	buckets map[string]*bucketState
	now     func() time.Time
}

// New constructs a new in-memory limiter with the provided per-bucket limits.
func New(limits map[string]Limit) *Limiter {
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &Limiter{
		limits:  limits,
		buckets: make(map[string]*bucketState),
		now:     time.Now,
	}
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

// AllowNamed records one attempt for key in bucket and reports whether it is
// within the bucket's window. Denied attempts are not recorded, and buckets
// whose window emptied are dropped.
func (l *Limiter) AllowNamed(bucket, key string) (bool, error) {
	if l == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, fmt.Errorf("bucket and key required")
	}

	lim := l.get(bucket)
	limitKey := key + ":" + bucket

	l.mu.Lock()
	defer l.mu.Unlock()

	nowMs := l.now().UnixMilli()
	windowStart := nowMs - lim.Window.Milliseconds()

	b, ok := l.buckets[limitKey]
	if !ok {
		b = &bucketState{bucket: bucket}
		l.buckets[limitKey] = b
	}

	ts := b.timestamps
	pruneIdx := 0
	for pruneIdx < len(ts) && ts[pruneIdx] <= windowStart {
		pruneIdx++
	}
	ts = ts[pruneIdx:]

	if len(ts) >= lim.Limit {
		b.timestamps = ts
		return false, nil
	}
	b.timestamps = append(ts, nowMs)
	return true, nil
}

// Len reports how many key/bucket pairs are tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Sweep drops buckets with no attempts left inside their window.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	nowMs := l.now().UnixMilli()
	for k, b := range l.buckets {
		lim := l.get(b.bucket)
		if n := len(b.timestamps); n == 0 || b.timestamps[n-1] <= nowMs-lim.Window.Milliseconds() {
			delete(l.buckets, k)
		}
	}
}
