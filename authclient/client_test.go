package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PaulFidika/recipekit/session"
	memorystore "github.com/PaulFidika/recipekit/storage/memory"
	authtest "github.com/PaulFidika/recipekit/testing"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, baseURL string) (*Client, *session.Cache, *memorystore.Store) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := memorystore.NewStore(0)
	t.Cleanup(func() { _ = store.Close() })
	sess := session.New(store, session.WithLogger(logger))
	c, err := New(Config{BaseURL: baseURL, Session: sess, Store: store, Logger: logger})
	require.NoError(t, err)
	return c, sess, store
}

func TestSignup_PopulatesSession(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	c, sess, store := newClient(t, issuer.URL())
	ctx := context.Background()

	res, err := c.Signup(ctx, "Selam", "selam@example.com", "injera-lover")
	require.NoError(t, err)
	assert.NotEmpty(t, res.RefreshToken)

	tok, ok := sess.Token(ctx)
	require.True(t, ok)
	assert.Equal(t, res.Token, tok)

	claims, err := issuer.Signer().Verify(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, res.UserID, claims["sub"])

	ident, ok := sess.Identity()
	require.True(t, ok)
	assert.Equal(t, res.UserID, ident.ID)
	assert.Equal(t, "selam@example.com", ident.Email)
	assert.Equal(t, "Selam", ident.Name)
	_, hasNS := ident.Claim(session.NamespacedClaimsKey)
	assert.True(t, hasNS)

	rt, ok, err := store.Read(ctx, RefreshTokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, res.RefreshToken, rt)
}

func TestSignup_Duplicate(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	issuer.AddUser("Selam", "selam@example.com", "pw")
	c, sess, _ := newClient(t, issuer.URL())

	_, err := c.Signup(context.Background(), "Selam", "selam@example.com", "pw")
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusBadRequest, ae.Status)
	assert.Equal(t, "User already exists", ae.Message)
	assert.False(t, sess.LoggedIn(context.Background()))
}

func TestSignup_MissingFields(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	c, _, _ := newClient(t, issuer.URL())
	_, err := c.Signup(context.Background(), " ", "a@b.c", "pw")
	assert.ErrorIs(t, err, ErrMissingFields)
	assert.Equal(t, 0, issuer.Requests())
}

func TestLogin(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	id := issuer.AddUser("Dawit", "dawit@example.com", "berbere")
	c, sess, _ := newClient(t, issuer.URL())
	ctx := context.Background()

	_, err := c.Login(ctx, "dawit@example.com", "wrong")
	assert.True(t, IsUnauthorized(err))
	assert.False(t, sess.LoggedIn(ctx))

	res, err := c.Login(ctx, " dawit@example.com ", "berbere")
	require.NoError(t, err)
	assert.Equal(t, id, res.UserID)
	ident, ok := sess.Identity()
	require.True(t, ok)
	assert.Equal(t, id, ident.ID)
	assert.Equal(t, "Dawit", ident.Name)
}

func TestRefresh_UsesStoredToken(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	id := issuer.AddUser("Dawit", "dawit@example.com", "berbere")
	c, sess, _ := newClient(t, issuer.URL())
	ctx := context.Background()

	_, err := c.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrNoRefreshToken)

	first, err := c.Login(ctx, "dawit@example.com", "berbere")
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond) // iat has second resolution
	tok, err := c.Refresh(ctx, "")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, tok)

	current, _ := sess.Token(ctx)
	assert.Equal(t, tok, current)
	ident, ok := sess.Identity()
	require.True(t, ok)
	assert.Equal(t, id, ident.ID, "identity now derived from the token claims")
	assert.Equal(t, "dawit@example.com", ident.Email)
	assert.Equal(t, "Dawit", ident.Name, "display name survives refresh")
}

func TestRefresh_InvalidToken(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	c, _, _ := newClient(t, issuer.URL())
	_, err := c.Refresh(context.Background(), "not-a-refresh-token")
	assert.True(t, IsUnauthorized(err))
}

func TestRefresh_CollapsesConcurrentCalls(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	token := issuer.CreateToken("u-1", "u1@example.com")

	var calls int32
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": token})
	}))
	defer srv.Close()

	c, _, _ := newClient(t, srv.URL)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := c.Refresh(ctx, "rt-1")
			assert.NoError(t, err)
			results[i] = tok
		}(i)
	}
	<-entered
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, token, r)
	}
}

func TestLogout(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	issuer.AddUser("Dawit", "dawit@example.com", "berbere")
	c, sess, store := newClient(t, issuer.URL())
	ctx := context.Background()

	res, err := c.Login(ctx, "dawit@example.com", "berbere")
	require.NoError(t, err)
	c.Logout(ctx)
	assert.Equal(t, []string{res.RefreshToken}, issuer.Revoked())

	assert.False(t, sess.LoggedIn(ctx))
	_, ok := sess.Identity()
	assert.False(t, ok)
	_, ok, _ = store.Read(ctx, RefreshTokenKey)
	assert.False(t, ok)
	_, ok, _ = store.Read(ctx, session.StorageKey)
	assert.False(t, ok)
}

func TestPlainTextErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "email already registered", http.StatusConflict)
	}))
	defer srv.Close()
	c, _, _ := newClient(t, srv.URL)
	_, err := c.Signup(context.Background(), "a", "a@b.c", "pw")
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusConflict, ae.Status)
	assert.Equal(t, "email already registered", ae.Message)
}

func TestNew_Validation(t *testing.T) {
	sess := session.New(nil)
	for _, u := range []string{"", "localhost:8081", "ftp://x"} {
		_, err := New(Config{BaseURL: u, Session: sess})
		assert.Error(t, err, u)
	}
	_, err := New(Config{BaseURL: "http://localhost:8081"})
	assert.Error(t, err)
	c, err := New(Config{BaseURL: "http://localhost:8081/", Session: sess})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8081", c.base)
}

func TestRefresh_KeepsNameWithAccessTokenOnlyResponse(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	login := issuer.CreateToken("u-1", "selam@example.com")
	refreshed := issuer.CreateTokenWithClaims("u-1", "selam@example.com", map[string]any{"jti": "refreshed"})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			_ = json.NewEncoder(w).Encode(map[string]string{
				"token": login, "refresh_token": "rt-1", "user_id": "u-1", "email": "selam@example.com", "name": "Selam",
			})
		case "/refresh":
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": refreshed})
		}
	}))
	defer srv.Close()

	c, sess, _ := newClient(t, srv.URL)
	ctx := context.Background()
	_, err := c.Login(ctx, "selam@example.com", "injera-lover")
	require.NoError(t, err)
	_, err = c.Refresh(ctx, "")
	require.NoError(t, err)

	tok, _ := sess.Token(ctx)
	assert.Equal(t, refreshed, tok)
	ident, ok := sess.Identity()
	require.True(t, ok)
	assert.Equal(t, "Selam", ident.Name)
	assert.Equal(t, "u-1", ident.ID)
}

func TestLogout_ServerFailureStillClearsLocally(t *testing.T) {
	var logouts int32
	var bearer atomic.Value
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	token := issuer.CreateToken("u-1", "a@b.c")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			_ = json.NewEncoder(w).Encode(map[string]string{"token": token, "refresh_token": "rt-1", "user_id": "u-1"})
		case "/logout":
			atomic.AddInt32(&logouts, 1)
			bearer.Store(r.Header.Get("Authorization"))
			http.Error(w, "db down", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c, sess, store := newClient(t, srv.URL)
	ctx := context.Background()
	_, err := c.Login(ctx, "a@b.c", "pw")
	require.NoError(t, err)
	c.Logout(ctx)

	assert.Equal(t, int32(1), atomic.LoadInt32(&logouts))
	assert.Equal(t, "Bearer "+token, bearer.Load())
	assert.False(t, sess.LoggedIn(ctx))
	_, ok, _ := store.Read(ctx, RefreshTokenKey)
	assert.False(t, ok)
}

func TestLogout_WithoutRefreshTokenSkipsServer(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	c, _, _ := newClient(t, issuer.URL())
	c.Logout(context.Background())
	assert.Equal(t, 0, issuer.Requests())
}

func TestRefreshTokenKeptInMemoryWithoutStore(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	issuer.AddUser("Dawit", "dawit@example.com", "berbere")
	logger, _ := test.NewNullLogger()
	c, err := New(Config{BaseURL: issuer.URL(), Session: session.New(nil), Logger: logger})
	require.NoError(t, err)
	ctx := context.Background()

	res, err := c.Login(ctx, "dawit@example.com", "berbere")
	require.NoError(t, err)
	c.Logout(ctx)
	assert.Equal(t, []string{res.RefreshToken}, issuer.Revoked())
}
