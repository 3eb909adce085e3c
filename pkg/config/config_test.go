package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "bbb:webhooks", cfg.Store.KeyPrefix)
	assert.Equal(t, "localhost:6379", cfg.Store.Redis.Address)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
logging:
  level: DEBUG
  format: json
  output: stderr
store:
  backend: badger
  key_prefix: "test:webhooks"
  badger:
    path: /tmp/test-mappings
server:
  listen_address: "127.0.0.1:4005"
  shutdown_timeout: 30s
metrics:
  enabled: true
  port: 9191
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "badger", cfg.Store.Backend)
	assert.Equal(t, "test:webhooks", cfg.Store.KeyPrefix)
	assert.Equal(t, "/tmp/test-mappings", cfg.Store.Badger.Path)
	assert.Equal(t, "127.0.0.1:4005", cfg.Server.ListenAddress)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9191, cfg.Metrics.Port)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
store:
  backend: cassandra
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_RejectsInvalidLogLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
logging:
  level: VERBOSE
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate_PostgresBackendRequiresConnection(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Store.Backend = "postgres"

	err := Validate(cfg)
	require.Error(t, err)

	cfg.Store.Postgres.Host = "localhost"
	cfg.Store.Postgres.Port = 5432
	cfg.Store.Postgres.Database = "webhooks"
	cfg.Store.Postgres.User = "relay"
	require.NoError(t, Validate(cfg))
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	original := GetDefaultConfig()
	original.Store.Backend = "memory"
	require.NoError(t, SaveConfig(original, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", loaded.Store.Backend)
	assert.Equal(t, original.Store.KeyPrefix, loaded.Store.KeyPrefix)
}
