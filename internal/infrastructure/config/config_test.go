package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Engine.CacheTTL)
	assert.Equal(t, 128, cfg.Engine.CacheMaxEntries)
	assert.Equal(t, 100*time.Millisecond, cfg.Engine.HotWindow)
	assert.Equal(t, "memory", cfg.Journal.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
engine:
  cache_ttl: 10s
  cache_max_entries: 64
  hot_window: 50ms
journal:
  backend: sqlite
  dsn: /tmp/journal.db
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Engine.CacheTTL)
	assert.Equal(t, 64, cfg.Engine.CacheMaxEntries)
	assert.Equal(t, 50*time.Millisecond, cfg.Engine.HotWindow)
	assert.Equal(t, "sqlite", cfg.Journal.Backend)
	assert.Equal(t, "/tmp/journal.db", cfg.Journal.DSN)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FRAMEGRAPH_CACHE_TTL", "5s")
	t.Setenv("FRAMEGRAPH_JOURNAL_BACKEND", "memory")
	t.Setenv("FRAMEGRAPH_JOURNAL_MAX_RECORDS", "32")
	t.Setenv("FRAMEGRAPH_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Engine.CacheTTL)
	assert.Equal(t, 32, cfg.Journal.MaxRecords)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "engine: [not a map"))
		assert.Error(t, err)
	})

	t.Run("unknown journal backend", func(t *testing.T) {
		_, err := Load(writeConfig(t, "journal:\n  backend: redis\n"))
		assert.Error(t, err)
	})

	t.Run("sqlite without dsn", func(t *testing.T) {
		_, err := Load(writeConfig(t, "journal:\n  backend: sqlite\n"))
		assert.Error(t, err)
	})

	t.Run("bad log level", func(t *testing.T) {
		_, err := Load(writeConfig(t, "logging:\n  level: loud\n"))
		assert.Error(t, err)
	})
}
