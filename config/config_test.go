package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClient_Defaults(t *testing.T) {
	c, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/v1/graphql", c.GraphQLEndpoint)
	assert.Equal(t, "http://localhost:8081", c.AuthURL)
	assert.Equal(t, "file", c.Storage)
	assert.Empty(t, c.AdminSecret)
}

func TestLoadClient_Overrides(t *testing.T) {
	t.Setenv("RECIPEKIT_STORAGE", " Redis ")
	t.Setenv("RECIPEKIT_REDIS_URL", "redis://localhost:6379/2")
	t.Setenv("RECIPEKIT_SESSION_TTL", "90m")
	c, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "redis", c.Storage)
	assert.Equal(t, "redis://localhost:6379/2", c.RedisURL)
	assert.Equal(t, 90*time.Minute, c.SessionTTL)
}

func TestLoadServer(t *testing.T) {
	_, err := LoadServer()
	require.Error(t, err, "secret is required")

	t.Setenv("AUTH_JWT_SECRET", "1234567890123456789012345678901234567890")
	t.Setenv("CORS_ORIGINS", "http://a.local,http://b.local")
	t.Setenv("PORT", "9000")
	s, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, ":9000", s.Addr())
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, s.CORSOrigins)
	assert.Equal(t, 24*time.Hour, s.AccessTokenTTL)
	assert.Equal(t, 30*24*time.Hour, s.RefreshTokenTTL)
}

func TestLoadServer_BadValues(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "x")
	t.Setenv("PORT", "not-a-port")
	_, err := LoadServer()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")

	t.Setenv("PORT", "8081")
	t.Setenv("ACCESS_TOKEN_TTL", "-1h")
	_, err = LoadServer()
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("RECIPEKIT_ADMIN_SECRET=from-dotenv\nRECIPEKIT_AUTH_URL=http://dotenv.local\n"), 0o600))
	t.Setenv("RECIPEKIT_AUTH_URL", "http://already.set")
	t.Setenv("RECIPEKIT_ADMIN_SECRET", "")
	require.NoError(t, os.Unsetenv("RECIPEKIT_ADMIN_SECRET"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	c, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", c.AdminSecret)
	assert.Equal(t, "http://already.set", c.AuthURL, "existing env wins")
}

func TestLogger(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, Logger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, Logger("bogus").GetLevel())
}
