package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/PaulFidika/recipekit/graphql"
	authtest "github.com/PaulFidika/recipekit/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hasuraCall struct {
	op     string
	vars   map[string]any
	bearer string
}

// fakeHasura answers the operations the CLI tests use. Operations named in
// rejectOnce fail their first call with an invalid-jwt error.
func fakeHasura(t *testing.T, rejectOnce ...string) (*httptest.Server, func() []hasuraCall) {
	t.Helper()
	var (
		mu     sync.Mutex
		calls  []hasuraCall
		reject = map[string]bool{}
	)
	for _, op := range rejectOnce {
		reject[op] = true
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphql.Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		calls = append(calls, hasuraCall{op: req.OperationName, vars: req.Variables, bearer: r.Header.Get("Authorization")})
		rejected := reject[req.OperationName]
		delete(reject, req.OperationName)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if rejected {
			_, _ = w.Write([]byte(`{"errors":[{"message":"Could not verify JWT: JWTExpired","extensions":{"code":"invalid-jwt","path":"$"}}]}`))
			return
		}
		switch req.OperationName {
		case "ToggleLike":
			_, _ = w.Write([]byte(`{"data":{"insert_recipe_likes_one":{"id":"9b1f4c1e-2a3d-4e5f-8a9b-0c1d2e3f4a5b"}}}`))
		case "GetCategories":
			_, _ = w.Write([]byte(`{"data":{"categories":[{"id":"3f2c1b0a-9e8d-4c7b-a6f5-e4d3c2b1a090","name":"Breakfast"}]}}`))
		default:
			_, _ = w.Write([]byte(`{"errors":[{"message":"unexpected operation"}]}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, func() []hasuraCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]hasuraCall(nil), calls...)
	}
}

func setupEnv(t *testing.T, authURL, gqlURL string) {
	t.Helper()
	t.Setenv("RECIPEKIT_AUTH_URL", authURL)
	t.Setenv("RECIPEKIT_GRAPHQL_ENDPOINT", gqlURL)
	t.Setenv("RECIPEKIT_STORAGE", "file")
	t.Setenv("RECIPEKIT_STORAGE_PATH", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("RECIPEKIT_ADMIN_SECRET", "")
	t.Setenv(passwordEnv, "")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestSignupPersistsSessionAcrossRuns(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	gql, calls := fakeHasura(t)
	setupEnv(t, issuer.URL(), gql.URL)

	out, err := run(t, "injera-lover\n", "signup", "--name", "Selam", "--email", "selam@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "signed in as Selam")

	out, err = run(t, "", "whoami", "--json")
	require.NoError(t, err)
	var ident struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ident))
	assert.NotEmpty(t, ident.ID)
	assert.Equal(t, "selam@example.com", ident.Email)

	out, err = run(t, "", "like", "0d6a2b35-3d1c-4b7e-8e1f-5c3b2a1d0e9f")
	require.NoError(t, err)
	assert.Equal(t, "liked\n", out)

	got := calls()
	require.Len(t, got, 1)
	assert.Equal(t, "ToggleLike", got[0].op)
	assert.Equal(t, ident.ID, got[0].vars["userId"])
	assert.True(t, strings.HasPrefix(got[0].bearer, "Bearer "))

	_, err = run(t, "", "logout")
	require.NoError(t, err)
	_, err = run(t, "", "whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestLoginWrongPassword(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	issuer.AddUser("Dawit", "dawit@example.com", "berbere-spice")
	setupEnv(t, issuer.URL(), "http://localhost:8080/v1/graphql")

	_, err := run(t, "", "login", "--email", "dawit@example.com", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password")

	out, err := run(t, "", "login", "--email", "dawit@example.com", "--password", "berbere-spice")
	require.NoError(t, err)
	assert.Contains(t, out, "signed in as")
}

func TestActionsRequireLogin(t *testing.T) {
	gql, calls := fakeHasura(t)
	setupEnv(t, "http://localhost:8081", gql.URL)

	_, err := run(t, "", "bookmark", "0d6a2b35-3d1c-4b7e-8e1f-5c3b2a1d0e9f")
	assert.ErrorIs(t, err, errNotLoggedIn)
	_, err = run(t, "", "like", "not-a-uuid")
	assert.ErrorContains(t, err, "invalid recipe id")
	assert.Empty(t, calls())
}

func TestCategories(t *testing.T) {
	gql, _ := fakeHasura(t)
	setupEnv(t, "http://localhost:8081", gql.URL)

	out, err := run(t, "", "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "Breakfast")
}

func TestExpiredTokenRefreshesAndRetriesOnce(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	gql, calls := fakeHasura(t, "ToggleLike")
	setupEnv(t, issuer.URL(), gql.URL)

	_, err := run(t, "injera-lover\n", "signup", "--name", "Selam", "--email", "selam@example.com")
	require.NoError(t, err)
	require.Equal(t, 1, issuer.Requests())

	out, err := run(t, "", "like", "0d6a2b35-3d1c-4b7e-8e1f-5c3b2a1d0e9f")
	require.NoError(t, err)
	assert.Equal(t, "liked\n", out)
	assert.Equal(t, 2, issuer.Requests(), "one refresh")

	got := calls()
	require.Len(t, got, 2)
	assert.Equal(t, "ToggleLike", got[1].op)
	assert.True(t, strings.HasPrefix(got[1].bearer, "Bearer "))
}

func TestRefreshFailureSurfacesOriginalError(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	gql, calls := fakeHasura(t, "GetCategories")
	setupEnv(t, issuer.URL(), gql.URL)

	_, err := run(t, "", "categories")
	require.Error(t, err)
	assert.True(t, graphql.IsCode(err, codeInvalidJWT))
	assert.Len(t, calls(), 1)
	assert.Equal(t, 0, issuer.Requests(), "no refresh token stored")
}
