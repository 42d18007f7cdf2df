package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `logging:
  level: DEBUG
  file: /var/log/logvault/service.log
writer:
  source: line-3
  retry_attempts: 3
metrics:
  address: ":9102"
  sinks:
    - type: "prometheus"
sentry:
  environment: plant
categories:
  - category: Production
    enabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Logging.MaxSizeMB)
	assert.Equal(t, "line-3", cfg.Writer.Source)
	assert.Equal(t, 3, cfg.Writer.RetryAttempts)
	assert.Equal(t, 20*time.Millisecond, cfg.Writer.RetryInitial())
	assert.Equal(t, 200*time.Millisecond, cfg.Writer.RetryMax())
	assert.Equal(t, ":9102", cfg.Metrics.Address)
	require.Len(t, cfg.Metrics.Sinks, 1)
	assert.Equal(t, "prometheus", cfg.Metrics.Sinks[0].Type)
	assert.Equal(t, "plant", cfg.Sentry.Environment)
	assert.Equal(t, "file", cfg.Catalog.Provider.Type)
	assert.Equal(t, path, cfg.Catalog.Provider.Conf["path"])
}

func TestLoadJSONWithExplicitCatalog(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "catalog": {"provider": {"type": "sqlite", "conf": {"dsn": "categories.db"}}, "watch": true}
}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Catalog.Provider.Type)
	assert.Equal(t, "categories.db", cfg.Catalog.Provider.Conf["dsn"])
	assert.True(t, cfg.Catalog.Watch)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Writer.RetryAttempts)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yaml", "logging:\n  level: info\n")
	t.Setenv("LV_LOGGING__LEVEL", "warn")
	t.Setenv("LV_WRITER__SOURCE", "from-env")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "from-env", cfg.Writer.Source)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]struct {
		name string
		data string
	}{
		"unknown level":     {"c.yaml", "logging:\n  level: loud\n"},
		"too many attempts": {"c.yaml", "writer:\n  retry_attempts: 50\n"},
		"inverted backoff":  {"c.yaml", "writer:\n  retry_initial_ms: 500\n  retry_max_ms: 100\n"},
		"unsupported ext":   {"c.toml", "logging = 1\n"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, c.name, c.data))
			assert.Error(t, err)
		})
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
