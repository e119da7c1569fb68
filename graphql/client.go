// Package graphql is a small GraphQL-over-HTTP client for the Hasura endpoint.
// Requests pass through a chain of Links that attach the admin secret and the
// session's bearer token.
package graphql

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

const (
	defaultUserAgent = "recipekit/0.1"
	defaultCacheSize = 256
	maxErrorBody     = 4 << 10
)

// Config wires the endpoint, authentication and caching for a Client.
type Config struct {
	Endpoint    string
	HTTPClient  *http.Client
	AdminSecret string
	Tokens      TokenSource
	// Links run after the admin secret and bearer links.
	Links     []Link
	UserAgent string
	Retry     *RetryConfig
	// CacheSize bounds the CacheFirst response cache; negative disables it.
	CacheSize int
	Logger    logrus.FieldLogger
}

// Client executes queries and mutations.
type Client struct {
	endpoint   string
	httpClient *http.Client
	links      linkChain
	tokens     TokenSource
	userAgent  string
	retry      RetryConfig
	cache      *lru.Cache[string, []byte]
	log        logrus.FieldLogger
}

// NewClient validates the configuration and returns a ready-to-use Client.
func NewClient(cfg Config) (*Client, error) {
	endpoint, err := normalizeEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	retry := defaultRetryConfig()
	if cfg.Retry != nil {
		retry = cfg.Retry.normalized()
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	links := linkChain{AdminSecretLink(cfg.AdminSecret), BearerLink(cfg.Tokens)}
	links = append(links, cfg.Links...)

	c := &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
		links:      links,
		tokens:     cfg.Tokens,
		userAgent:  ua,
		retry:      retry,
		log:        log,
	}
	size := cfg.CacheSize
	if size == 0 {
		size = defaultCacheSize
	}
	if size > 0 {
		cache, err := lru.New[string, []byte](size)
		if err != nil {
			return nil, fmt.Errorf("graphql: response cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

func normalizeEndpoint(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("graphql: endpoint required")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("graphql: invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("graphql: endpoint must be http or https")
	}
	if u.Host == "" {
		return "", errors.New("graphql: endpoint missing host")
	}
	return u.String(), nil
}

// Endpoint returns the normalized endpoint URL.
func (c *Client) Endpoint() string { return c.endpoint }

// FetchPolicy decides whether a query may be answered from the response cache.
type FetchPolicy int

const (
	// NetworkOnly always hits the server; the result still refreshes the cache.
	NetworkOnly FetchPolicy = iota
	// CacheFirst answers from the cache when an identical query was seen.
	CacheFirst
)

type queryOptions struct {
	policy FetchPolicy
}

// QueryOption configures a single Query call.
type QueryOption func(*queryOptions)

// WithFetchPolicy overrides the default NetworkOnly policy.
func WithFetchPolicy(p FetchPolicy) QueryOption {
	return func(o *queryOptions) { o.policy = p }
}

// Request is the JSON body of a GraphQL POST.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors Errors          `json:"errors"`
}

// Query runs a read operation and decodes its data into out.
func (c *Client) Query(ctx context.Context, doc string, vars map[string]any, out any, opts ...QueryOption) error {
	o := queryOptions{policy: NetworkOnly}
	for _, opt := range opts {
		opt(&o)
	}
	req := Request{Query: doc, OperationName: OperationName(doc), Variables: vars}

	key := ""
	if c.cache != nil {
		key = c.cacheKey(ctx, req)
		if o.policy == CacheFirst {
			if data, ok := c.cache.Get(key); ok {
				c.log.WithField("operation", req.OperationName).Debug("graphql: cache hit")
				return decodeData(data, out)
			}
		}
	}

	attempt := 0
	data, err := backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		data, err := c.do(ctx, req)
		if err != nil && !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return data, err
	}, c.retry.options(func(err error, next time.Duration) {
		c.log.WithFields(logrus.Fields{
			"operation": req.OperationName,
			"attempt":   attempt,
			"backoff":   next,
		}).WithError(err).Warn("graphql: query failed, retrying")
	})...)
	if err != nil {
		return unwrapPermanent(err)
	}
	if c.cache != nil {
		c.cache.Add(key, data)
	}
	return decodeData(data, out)
}

// Mutate runs a write operation and decodes its data into out. It is never
// retried, and a successful mutation purges the response cache.
func (c *Client) Mutate(ctx context.Context, doc string, vars map[string]any, out any) error {
	req := Request{Query: doc, OperationName: OperationName(doc), Variables: vars}
	data, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	c.PurgeCache()
	return decodeData(data, out)
}

// PurgeCache drops every cached query result.
func (c *Client) PurgeCache() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

func (c *Client) do(ctx context.Context, gqlReq Request) ([]byte, error) {
	body, err := json.Marshal(gqlReq)
	if err != nil {
		return nil, fmt.Errorf("graphql: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	c.links.Apply(ctx, req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	fields := logrus.Fields{
		"operation":   gqlReq.OperationName,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, TransportError{Op: "send " + gqlReq.OperationName, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()
	fields["status"] = resp.StatusCode
	c.log.WithFields(fields).Debug("graphql: request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, HTTPError{Status: resp.StatusCode, Body: string(b)}
	}
	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, TransportError{Op: "decode " + gqlReq.OperationName, Cause: err}
	}
	if len(out.Errors) > 0 {
		return nil, out.Errors
	}
	return out.Data, nil
}

func decodeData(data []byte, out any) error {
	if out == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("graphql: decode data: %w", err)
	}
	return nil
}

// cacheKey covers the credential so one user's results never answer another's.
func (c *Client) cacheKey(ctx context.Context, req Request) string {
	h := sha256.New()
	_ = json.NewEncoder(h).Encode(req)
	if c.tokens != nil {
		if tok, ok := c.tokens.Token(ctx); ok {
			h.Write([]byte(tok))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

var reOperationName = regexp.MustCompile(`^\s*(?:query|mutation|subscription)\s+([_A-Za-z][_0-9A-Za-z]*)`)

// OperationName extracts the name of the first operation in doc.
func OperationName(doc string) string {
	m := reOperationName.FindStringSubmatch(doc)
	if m == nil {
		return ""
	}
	return m[1]
}
