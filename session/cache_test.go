package session

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	authtest "github.com/PaulFidika/recipekit/testing"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	data     map[string]string
	reads    int
	readErr  error
	writeErr error
}

func newMapStore() *mapStore { return &mapStore{data: map[string]string{}} }

func (s *mapStore) Read(_ context.Context, key string) (string, bool, error) {
	s.reads++
	if s.readErr != nil {
		return "", false, s.readErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *mapStore) Write(_ context.Context, key, value string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.data[key] = value
	return nil
}

func (s *mapStore) Remove(_ context.Context, key string) error {
	delete(s.data, key)
	return nil
}

func quietLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

func TestSetToken_DecodesEmail(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	c := New(store, WithLogger(quietLogger()))

	token := authtest.UnsignedToken(map[string]any{"sub": "u-1", "email": "cook@example.com"})
	c.SetToken(ctx, token, nil)

	got, ok := c.Token(ctx)
	require.True(t, ok)
	assert.Equal(t, token, got)
	assert.Equal(t, token, store.data[StorageKey])

	ident, ok := c.Identity()
	require.True(t, ok)
	assert.Equal(t, "u-1", ident.ID)
	assert.Equal(t, "cook@example.com", ident.Email)
	assert.Equal(t, "", ident.Name)
}

func TestSetToken_EmailFallsBackToSubject(t *testing.T) {
	c := New(nil, WithLogger(quietLogger()))
	c.SetToken(context.Background(), authtest.UnsignedToken(map[string]any{"sub": "u-2"}), nil)

	ident, ok := c.Identity()
	require.True(t, ok)
	assert.Equal(t, "u-2", ident.Email)
}

func TestSetToken_NamespacedUserIDWins(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()

	c := New(newMapStore(), WithLogger(quietLogger()))
	token := issuer.CreateTokenWithClaims("sub-id", "a@example.com", map[string]any{
		NamespacedClaimsKey: map[string]any{NamespacedUserIDKey: "hasura-id"},
	})
	c.SetToken(context.Background(), token, nil)

	ident, ok := c.Identity()
	require.True(t, ok)
	assert.Equal(t, "hasura-id", ident.ID)
	assert.NotEqual(t, "sub-id", ident.ID)
}

func TestSetToken_EmptyNamespacedIDKeepsSubject(t *testing.T) {
	c := New(nil, WithLogger(quietLogger()))
	c.SetToken(context.Background(), authtest.UnsignedToken(map[string]any{
		"sub":               "u-3",
		NamespacedClaimsKey: map[string]any{NamespacedUserIDKey: ""},
	}), nil)

	ident, _ := c.Identity()
	assert.Equal(t, "u-3", ident.ID)
}

func TestSetToken_PassThroughClaims(t *testing.T) {
	c := New(nil, WithLogger(quietLogger()))
	c.SetToken(context.Background(), authtest.UnsignedToken(map[string]any{
		"sub":   "u-4",
		"roles": []string{"user"},
		"name":  "From Token",
	}), nil)

	ident, _ := c.Identity()
	assert.Equal(t, "From Token", ident.Name)
	roles, ok := ident.Claim("roles")
	require.True(t, ok)
	assert.Equal(t, []any{"user"}, roles)
	sub, _ := ident.Claim("sub")
	assert.Equal(t, "u-4", sub)
}

func TestSetToken_SuppliedFieldsWin(t *testing.T) {
	c := New(nil, WithLogger(quietLogger()))
	c.SetToken(context.Background(), authtest.UnsignedToken(map[string]any{
		"sub":  "u-5",
		"name": "Token Name",
	}), &Identity{Name: "X", Claims: map[string]any{"avatar": "a.png"}})

	ident, ok := c.Identity()
	require.True(t, ok)
	assert.Equal(t, "X", ident.Name)
	assert.Equal(t, "u-5", ident.ID)
	avatar, _ := ident.Claim("avatar")
	assert.Equal(t, "a.png", avatar)
}

func TestSetToken_EmptySuppliedFieldsKeepDecoded(t *testing.T) {
	c := New(nil, WithLogger(quietLogger()))
	c.SetToken(context.Background(), authtest.UnsignedToken(map[string]any{
		"sub":   "u-6",
		"email": "tok@example.com",
		"name":  "Token Name",
	}), &Identity{ID: "", Email: "", Name: ""})

	ident, ok := c.Identity()
	require.True(t, ok)
	assert.Equal(t, "u-6", ident.ID)
	assert.Equal(t, "tok@example.com", ident.Email)
	assert.Equal(t, "Token Name", ident.Name)
}

func TestSetToken_MalformedTokens(t *testing.T) {
	cases := map[string]string{
		"single segment": "not-a-jwt",
		"bad base64":     authtest.RawToken("!!!*"),
		"bad json":       authtest.RawToken(base64.RawURLEncoding.EncodeToString([]byte("{nope"))),
		"json null":      authtest.RawToken(base64.RawURLEncoding.EncodeToString([]byte("null"))),
		"json array":     authtest.RawToken(base64.RawURLEncoding.EncodeToString([]byte("[1,2]"))),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := New(newMapStore(), WithLogger(quietLogger()))
			c.SetToken(ctx, token, nil)

			got, ok := c.Token(ctx)
			require.True(t, ok)
			assert.Equal(t, token, got)
			_, ok = c.Identity()
			assert.False(t, ok)
			assert.True(t, c.LoggedIn(ctx))
		})
	}
}

func TestSetToken_MalformedFallsBackToSupplied(t *testing.T) {
	c := New(nil, WithLogger(quietLogger()))
	supplied := &Identity{ID: "u-6", Email: "s@example.com", Name: "Sup"}
	c.SetToken(context.Background(), "garbage", supplied)

	ident, ok := c.Identity()
	require.True(t, ok)
	assert.Equal(t, *supplied, ident)
	assert.Nil(t, ident.Claims)
}

func TestSetToken_ReplacesPreviousIdentity(t *testing.T) {
	ctx := context.Background()
	c := New(nil, WithLogger(quietLogger()))
	c.SetToken(ctx, authtest.UnsignedToken(map[string]any{"sub": "first"}), nil)
	c.SetToken(ctx, "garbage", nil)

	_, ok := c.Identity()
	assert.False(t, ok)
}

func TestDecode_AcceptsVariants(t *testing.T) {
	payload := []byte(`{"sub":"u-7","note":"??>"}`)
	variants := map[string]string{
		"base64url raw":    base64.RawURLEncoding.EncodeToString(payload),
		"base64url padded": base64.URLEncoding.EncodeToString(payload),
		"std padded":       base64.StdEncoding.EncodeToString(payload),
		"std raw":          base64.RawStdEncoding.EncodeToString(payload),
	}
	for name, seg := range variants {
		t.Run(name, func(t *testing.T) {
			claims, err := Decode(authtest.RawToken(seg))
			require.NoError(t, err)
			assert.Equal(t, "u-7", claims["sub"])
		})
	}

	claims, err := Decode("eyJhbGciOiJub25lIn0." + base64.RawURLEncoding.EncodeToString(payload))
	require.NoError(t, err, "two segments are enough")
	assert.Equal(t, "u-7", claims["sub"])
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode("abc")
	assert.ErrorIs(t, err, ErrMalformedToken)

	_, err = Decode(authtest.RawToken("%%%"))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestToken_LazyHydration(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	store.data[StorageKey] = "stored-token"
	c := New(store, WithLogger(quietLogger()))

	got, ok := c.Token(ctx)
	require.True(t, ok)
	assert.Equal(t, "stored-token", got)
	assert.Equal(t, 1, store.reads)

	// Memory is now authoritative; out-of-band store changes are not observed.
	store.data[StorageKey] = "other"
	got, _ = c.Token(ctx)
	assert.Equal(t, "stored-token", got)
	assert.Equal(t, 1, store.reads)

	_, ok = c.Identity()
	assert.False(t, ok, "lazy hydration does not derive an identity")
}

func TestToken_EmptyStore(t *testing.T) {
	ctx := context.Background()
	c := New(newMapStore(), WithLogger(quietLogger()))
	got, ok := c.Token(ctx)
	assert.False(t, ok)
	assert.Equal(t, "", got)
	assert.False(t, c.LoggedIn(ctx))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	c := New(store, WithLogger(quietLogger()))
	c.SetToken(ctx, authtest.UnsignedToken(map[string]any{"sub": "u-8"}), nil)

	c.Clear(ctx)
	_, ok := c.Token(ctx)
	assert.False(t, ok)
	assert.False(t, c.LoggedIn(ctx))
	_, ok = c.Identity()
	assert.False(t, ok)
	_, stored := store.data[StorageKey]
	assert.False(t, stored)
}

func TestClear_Idempotent(t *testing.T) {
	ctx := context.Background()
	once := New(newMapStore(), WithLogger(quietLogger()))
	twice := New(newMapStore(), WithLogger(quietLogger()))
	for _, c := range []*Cache{once, twice} {
		c.SetToken(ctx, authtest.UnsignedToken(map[string]any{"sub": "u-9"}), nil)
	}
	once.Clear(ctx)
	twice.Clear(ctx)
	twice.Clear(ctx)

	a, aok := once.Token(ctx)
	b, bok := twice.Token(ctx)
	assert.Equal(t, a, b)
	assert.Equal(t, aok, bok)
	_, ia := once.Identity()
	_, ib := twice.Identity()
	assert.Equal(t, ia, ib)
}

func TestNopStore_MemoryOnly(t *testing.T) {
	ctx := context.Background()
	c := New(NopStore{}, WithLogger(quietLogger()))
	token := authtest.UnsignedToken(map[string]any{"sub": "u-10"})

	c.SetToken(ctx, token, nil)
	got, ok := c.Token(ctx)
	require.True(t, ok)
	assert.Equal(t, token, got)

	c.Clear(ctx)
	assert.False(t, c.LoggedIn(ctx))
	require.NoError(t, c.Init(ctx))
	assert.False(t, c.LoggedIn(ctx))
}

func TestStoreErrorsAreSwallowed(t *testing.T) {
	ctx := context.Background()
	logger, hook := test.NewNullLogger()
	store := newMapStore()
	store.writeErr = errors.New("disk full")
	c := New(store, WithLogger(logger))

	c.SetToken(ctx, "t.e.st", nil)
	got, ok := c.Token(ctx)
	require.True(t, ok)
	assert.Equal(t, "t.e.st", got)
	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, logrus.WarnLevel, hook.AllEntries()[0].Level)

	store.readErr = errors.New("io")
	fresh := New(store, WithLogger(logger))
	_, ok = fresh.Token(ctx)
	assert.False(t, ok)
	assert.NoError(t, fresh.Init(ctx))
}

func TestInit_Rehydrates(t *testing.T) {
	ctx := context.Background()
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	token := issuer.CreateTokenWithClaims("sub-id", "r@example.com", map[string]any{
		NamespacedClaimsKey: map[string]any{NamespacedUserIDKey: "hasura-id"},
	})

	direct := New(newMapStore(), WithLogger(quietLogger()))
	direct.SetToken(ctx, token, nil)

	store := newMapStore()
	store.data[StorageKey] = token
	booted := New(store, WithLogger(quietLogger()))
	require.NoError(t, booted.Init(ctx))

	a, _ := direct.Token(ctx)
	b, ok := booted.Token(ctx)
	require.True(t, ok)
	assert.Equal(t, a, b)

	ident, ok := booted.Identity()
	require.True(t, ok)
	assert.Equal(t, "r@example.com", ident.Email)
	// The boot path does not resolve the namespaced user id.
	assert.Equal(t, "", ident.ID)

	directIdent, _ := direct.Identity()
	assert.Equal(t, "hasura-id", directIdent.ID)
}

func TestInit_EmailDefaultsToSubject(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	store.data[StorageKey] = authtest.UnsignedToken(map[string]any{"sub": "u-11"})
	c := New(store, WithLogger(quietLogger()))
	require.NoError(t, c.Init(ctx))

	ident, ok := c.Identity()
	require.True(t, ok)
	assert.Equal(t, "u-11", ident.Email)
}

func TestInit_WithRehydratedIDResolution(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	store.data[StorageKey] = authtest.UnsignedToken(map[string]any{
		"sub":               "sub-id",
		NamespacedClaimsKey: map[string]any{NamespacedUserIDKey: "hasura-id"},
	})
	c := New(store, WithLogger(quietLogger()), WithRehydratedIDResolution())
	require.NoError(t, c.Init(ctx))

	ident, _ := c.Identity()
	assert.Equal(t, "hasura-id", ident.ID)
}

func TestInit_MalformedStoredToken(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	store.data[StorageKey] = "garbage"
	c := New(store, WithLogger(quietLogger()))
	require.NoError(t, c.Init(ctx))

	got, ok := c.Token(ctx)
	require.True(t, ok)
	assert.Equal(t, "garbage", got)
	_, ok = c.Identity()
	assert.False(t, ok)
}

func TestIdentity_ReturnsCopy(t *testing.T) {
	c := New(nil, WithLogger(quietLogger()))
	c.SetToken(context.Background(), authtest.UnsignedToken(map[string]any{"sub": "u-12"}), nil)

	ident, _ := c.Identity()
	ident.Claims["sub"] = "mutated"
	again, _ := c.Identity()
	assert.Equal(t, "u-12", again.Claims["sub"])
}
