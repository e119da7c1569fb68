package memorystore

import (
	"context"
	"sync"
	"time"
)

// Store is an in-memory key/value store with optional TTL.
// It lives as long as the process and satisfies session.Store.
type Store struct {
	mu     sync.Mutex
	ttl    time.Duration
	data   map[string]item
	closed chan struct{}
	once   sync.Once
}

type item struct {
	v   string
	exp time.Time
}

// NewStore creates a new in-memory store. If ttl <= 0, entries never expire;
// otherwise a background goroutine cleans up expired entries every minute.
func NewStore(ttl time.Duration) *Store {
	s := &Store{ttl: ttl, data: make(map[string]item), closed: make(chan struct{})}
	if ttl > 0 {
		go s.cleanupLoop()
	}
	return s
}

func (s *Store) Read(ctx context.Context, key string) (string, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.data[key]
	if !ok {
		return "", false, nil
	}
	if s.expired(it, time.Now()) {
		delete(s.data, key)
		return "", false, nil
	}
	return it.v, true, nil
}

func (s *Store) Write(ctx context.Context, key, value string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	it := item{v: value}
	if s.ttl > 0 {
		it.exp = time.Now().Add(s.ttl)
	}
	s.data[key] = it
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func (s *Store) expired(it item, now time.Time) bool {
	return !it.exp.IsZero() && now.After(it.exp)
}

// cleanupLoop runs in the background and removes expired entries every minute.
func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.closed:
			return
		}
	}
}

// cleanup removes all expired entries from the store.
func (s *Store) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, v := range s.data {
		if s.expired(v, now) {
			delete(s.data, k)
		}
	}
}

// Close stops the background cleanup goroutine. Safe to call more than once.
func (s *Store) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}
