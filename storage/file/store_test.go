package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	s, err := NewStore(path)
	require.NoError(t, err)
	_, ok, err := s.Read(ctx, "token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Write(ctx, "token", "abc.def.ghi"))

	reopened, err := NewStore(path)
	require.NoError(t, err)
	v, ok, err := reopened.Read(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_RemoveKeepsOtherKeys(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "token", "t"))
	require.NoError(t, s.Write(ctx, "theme", "dark"))
	require.NoError(t, s.Remove(ctx, "token"))
	require.NoError(t, s.Remove(ctx, "token"))

	_, ok, _ := s.Read(ctx, "token")
	assert.False(t, ok)
	v, ok, _ := s.Read(ctx, "theme")
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := NewStore(path)
	require.NoError(t, err)
	_, _, err = s.Read(context.Background(), "token")
	assert.Error(t, err)
}

func TestStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	s, err := NewStore(path)
	require.NoError(t, err)
	_, ok, err := s.Read(context.Background(), "token")
	require.NoError(t, err)
	assert.False(t, ok)
}
