// Package session holds the client-side credential and the identity derived from it.
//
// A Cache is the single source of truth for one client instance. Construct it
// once and hand the same pointer to every consumer (the GraphQL client, the
// auth client, UI code). Durable persistence goes through a Store; use
// NopStore where no durable storage is reachable and the cache degrades to
// process-lifetime memory.
package session

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// StorageKey is the durable storage key holding the raw token.
const StorageKey = "token"

// Cache holds the current bearer token and its derived identity.
type Cache struct {
	mu       sync.RWMutex
	store    Store
	log      logrus.FieldLogger
	token    string
	identity *Identity

	resolveRehydratedID bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for swallowed storage and decode failures.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRehydratedIDResolution makes Init resolve the identity exactly like
// SetToken does, including the namespaced user id. Without it, a rehydrated
// identity only carries the payload's own fields with email defaulting to sub.
func WithRehydratedIDResolution() Option {
	return func(c *Cache) { c.resolveRehydratedID = true }
}

// New returns an empty cache backed by store. A nil store behaves like NopStore.
func New(store Store, opts ...Option) *Cache {
	if store == nil {
		store = NopStore{}
	}
	c := &Cache{store: store, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken stores token, persists it, and derives the identity from its payload.
// It never fails: an undecodable payload leaves the identity set to supplied
// (or to none), and storage errors are only logged.
func (c *Cache) SetToken(ctx context.Context, token string, supplied *Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
	if err := c.store.Write(ctx, StorageKey, token); err != nil {
		c.log.WithError(err).Warn("session: persist token failed")
	}

	claims, err := Decode(token)
	if err != nil {
		c.log.WithError(err).Debug("session: token payload not decodable")
		if supplied == nil {
			c.identity = nil
			return
		}
		ident := supplied.clone()
		c.identity = &ident
		return
	}
	ident := IdentityFromClaims(claims)
	if supplied != nil {
		ident = ident.overlay(*supplied)
	}
	c.identity = &ident
}

// Token returns the current token. When memory is empty it falls back to the
// store and caches what it finds; the boolean is false when there is no token.
func (c *Cache) Token(ctx context.Context) (string, bool) {
	c.mu.RLock()
	tok := c.token
	c.mu.RUnlock()
	if tok != "" {
		return tok, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, true
	}
	stored, ok, err := c.store.Read(ctx, StorageKey)
	if err != nil {
		c.log.WithError(err).Warn("session: read token failed")
		return "", false
	}
	if !ok {
		return "", false
	}
	c.token = stored
	return stored, stored != ""
}

// Identity returns the identity derived by the last SetToken or Init.
// It never consults the store.
func (c *Cache) Identity() (Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.identity == nil {
		return Identity{}, false
	}
	return c.identity.clone(), true
}

// Clear drops the token and identity and removes the stored token. Clearing an
// empty cache is a no-op.
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.identity = nil
	if err := c.store.Remove(ctx, StorageKey); err != nil {
		c.log.WithError(err).Warn("session: remove token failed")
	}
}

// LoggedIn reports whether a token is available. Like Token, it may hydrate
// memory from the store.
func (c *Cache) LoggedIn(ctx context.Context) bool {
	_, ok := c.Token(ctx)
	return ok
}

// Init rehydrates the cache from the store at startup. Supplied identity fields
// are never available here. The error is always nil.
func (c *Cache) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored, ok, err := c.store.Read(ctx, StorageKey)
	if err != nil {
		c.log.WithError(err).Warn("session: read token failed")
		return nil
	}
	if !ok || stored == "" {
		return nil
	}
	c.token = stored

	claims, err := Decode(stored)
	if err != nil {
		c.log.WithError(err).Debug("session: stored token payload not decodable")
		c.identity = nil
		return nil
	}
	var ident Identity
	if c.resolveRehydratedID {
		ident = IdentityFromClaims(claims)
	} else {
		ident = rehydratedIdentity(claims)
	}
	c.identity = &ident
	c.log.WithFields(logrus.Fields{"user_id": ident.ID, "email": ident.Email}).Debug("session: rehydrated")
	return nil
}
