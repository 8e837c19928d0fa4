package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("SERVER_ADDRESS", "chat.example:443")
	t.Setenv("RECONCILE_INTERVAL", "1m")
	t.Setenv("ONLINE_CHECK_INTERVAL", "5s")
	t.Setenv("LOG_LEVEL", "debug")

	c := &Config{}
	c.LoadDefaults()
	parseEnv(c)

	assert.Equal(t, "chat.example:443", c.ServerEndpointAddr)
	assert.Equal(t, time.Minute, c.ReconcileInterval)
	assert.Equal(t, 5*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "gophchat.db", c.DatabasePath)
}

func TestParseEnv_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CLIENT_DB_PATH=/tmp/chat.db\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("CLIENT_DB_PATH") })

	c := &Config{}
	parseEnv(c)

	assert.Equal(t, "/tmp/chat.db", c.DatabasePath)
}

func TestParseEnv_BadDurationPanics(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RECONCILE_INTERVAL", "often")

	c := &Config{}
	assert.Panics(t, func() { parseEnv(c) })
}
