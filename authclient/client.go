// Package authclient talks to the recipe auth service and feeds the issued
// tokens into a session cache.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaulFidika/recipekit/session"
	memorystore "github.com/PaulFidika/recipekit/storage/memory"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// RefreshTokenKey is the durable storage key for the refresh token.
const RefreshTokenKey = "refresh_token"

var (
	ErrNoRefreshToken = errors.New("authclient: no refresh token")
	ErrMissingFields  = errors.New("authclient: missing required fields")
)

// APIError is a non-2xx answer from the auth service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("authclient: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("authclient: %d %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the auth service.
func IsUnauthorized(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusUnauthorized
}

// Result is a successful signup, login or refresh.
type Result struct {
	Token        string `json:"token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
}

// BearerToken returns whichever of token/access_token the service sent.
func (r Result) BearerToken() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Session    *session.Cache
	// Store keeps the refresh token; nil keeps it in memory only.
	Store  session.Store
	Logger logrus.FieldLogger
}

type Client struct {
	base    string
	http    *http.Client
	sess    *session.Cache
	store   session.Store
	log     logrus.FieldLogger
	refresh singleflight.Group
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("authclient: invalid base url %q", cfg.BaseURL)
	}
	if cfg.Session == nil {
		return nil, errors.New("authclient: session required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	var store session.Store = memorystore.NewStore(0)
	if cfg.Store != nil {
		store = cfg.Store
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{base: base, http: hc, sess: cfg.Session, store: store, log: log}, nil
}

func (c *Client) Signup(ctx context.Context, name, email, password string) (Result, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return Result{}, ErrMissingFields
	}
	res, err := c.post(ctx, "/signup", map[string]string{"name": name, "email": email, "password": password})
	if err != nil {
		return Result{}, err
	}
	c.accept(ctx, res)
	return res, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (Result, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Result{}, ErrMissingFields
	}
	res, err := c.post(ctx, "/login", map[string]string{"email": email, "password": password})
	if err != nil {
		return Result{}, err
	}
	c.accept(ctx, res)
	return res, nil
}

// Refresh exchanges a refresh token for a new access token. An empty
// refreshToken uses the stored one. Concurrent calls for the same refresh
// token share one request.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		rt, ok, err := c.store.Read(ctx, RefreshTokenKey)
		if err != nil {
			return "", fmt.Errorf("authclient: read refresh token: %w", err)
		}
		if !ok || rt == "" {
			return "", ErrNoRefreshToken
		}
		refreshToken = rt
	}
	v, err, shared := c.refresh.Do(refreshToken, func() (any, error) {
		res, err := c.post(ctx, "/refresh", map[string]string{"refresh_token": refreshToken})
		if err != nil {
			return "", err
		}
		token := res.BearerToken()
		if token == "" {
			return "", errors.New("authclient: refresh returned no token")
		}
		c.sess.SetToken(ctx, token, c.carriedIdentity())
		return token, nil
	})
	if shared {
		c.log.Debug("authclient: joined in-flight refresh")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// carriedIdentity keeps the fields a refreshed token cannot restore, the
// display name supplied at login.
func (c *Client) carriedIdentity() *session.Identity {
	prev, ok := c.sess.Identity()
	if !ok || prev.Name == "" {
		return nil
	}
	return &session.Identity{Name: prev.Name}
}

// Logout revokes the stored refresh token on the server, best effort, then
// forgets the access and refresh tokens locally whatever the server said.
func (c *Client) Logout(ctx context.Context) {
	rt, ok, err := c.store.Read(ctx, RefreshTokenKey)
	if err != nil {
		c.log.WithError(err).Warn("authclient: read refresh token failed")
	}
	if ok && rt != "" {
		if err := c.send(ctx, "/logout", map[string]string{"refresh_token": rt}, nil); err != nil {
			c.log.WithError(err).Warn("authclient: server logout failed")
		}
	}
	c.sess.Clear(ctx)
	if err := c.store.Remove(ctx, RefreshTokenKey); err != nil {
		c.log.WithError(err).Warn("authclient: remove refresh token failed")
	}
}

func (c *Client) accept(ctx context.Context, res Result) {
	c.sess.SetToken(ctx, res.BearerToken(), &session.Identity{ID: res.UserID, Email: res.Email, Name: res.Name})
	if res.RefreshToken == "" {
		return
	}
	if err := c.store.Write(ctx, RefreshTokenKey, res.RefreshToken); err != nil {
		c.log.WithError(err).Warn("authclient: persist refresh token failed")
	}
}

// post sends body and expects a token-bearing Result back.
func (c *Client) post(ctx context.Context, path string, body any) (Result, error) {
	var res Result
	if err := c.send(ctx, path, body, &res); err != nil {
		return Result{}, err
	}
	if res.BearerToken() == "" {
		return Result{}, fmt.Errorf("authclient: %s response carried no token", path)
	}
	return res, nil
}

// send POSTs body as JSON with the current bearer token attached, and decodes
// a 2xx answer into out when out is non-nil.
func (c *Client) send(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if tok, ok := c.sess.Token(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("authclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("authclient: read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("authclient: decode %s response: %w", path, err)
		}
	}
	c.log.WithField("path", path).Debug("authclient: ok")
	return nil
}

// errorMessage accepts {"error": "..."} bodies and plain text.
func errorMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
