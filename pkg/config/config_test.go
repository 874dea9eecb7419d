package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://export.arxiv.org/api/query", cfg.Arxiv.BaseURL)
	assert.Equal(t, "submittedDate", cfg.Arxiv.SortBy)
	assert.Equal(t, "descending", cfg.Arxiv.SortOrder)
	assert.Equal(t, 500, cfg.Arxiv.PageSize)
	assert.Equal(t, 2000, cfg.Arxiv.MaxResults)
	assert.Equal(t, 3*time.Second, cfg.RateLimit.RequestDelay)
	assert.Equal(t, 3, cfg.RateLimit.MaxRetries)
	assert.Equal(t, "arxiv_papers.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 10, cfg.Collect.SummaryInterval)
	assert.False(t, cfg.Collect.RetryInterrupted)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base URL", func(c *Config) { c.Arxiv.BaseURL = "" }},
		{"zero timeout", func(c *Config) { c.Arxiv.RequestTimeout = 0 }},
		{"zero page size", func(c *Config) { c.Arxiv.PageSize = 0 }},
		{"zero max results", func(c *Config) { c.Arxiv.MaxResults = 0 }},
		{"page size above max results", func(c *Config) {
			c.Arxiv.PageSize = 100
			c.Arxiv.MaxResults = 50
		}},
		{"negative request delay", func(c *Config) { c.RateLimit.RequestDelay = -time.Second }},
		{"negative max retries", func(c *Config) { c.RateLimit.MaxRetries = -1 }},
		{"empty database path", func(c *Config) { c.Storage.DatabasePath = "" }},
		{"zero summary interval", func(c *Config) { c.Collect.SummaryInterval = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ARXIVCOLLECTOR_BASE_URL", "http://localhost:9999/api/query")
	t.Setenv("ARXIVCOLLECTOR_DATABASE", "/tmp/papers.db")
	t.Setenv("ARXIVCOLLECTOR_REQUEST_DELAY", "5s")
	t.Setenv("ARXIVCOLLECTOR_MAX_RETRIES", "7")
	t.Setenv("ARXIVCOLLECTOR_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "http://localhost:9999/api/query", cfg.Arxiv.BaseURL)
	assert.Equal(t, "/tmp/papers.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 5*time.Second, cfg.RateLimit.RequestDelay)
	assert.Equal(t, 7, cfg.RateLimit.MaxRetries)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidDuration(t *testing.T) {
	t.Setenv("ARXIVCOLLECTOR_REQUEST_DELAY", "not-a-duration")

	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromEnv())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
arxiv:
  page_size: 100
  max_results: 1000
rate_limit:
  request_delay: 10s
storage:
  database_path: custom.db
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, 100, cfg.Arxiv.PageSize)
	assert.Equal(t, 1000, cfg.Arxiv.MaxResults)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.RequestDelay)
	assert.Equal(t, "custom.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Untouched values keep their defaults
	assert.Equal(t, "http://export.arxiv.org/api/query", cfg.Arxiv.BaseURL)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile("/no/such/config.yaml"))
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"database":          "flagged.db",
		"request-delay":     time.Second,
		"request-timeout":   10 * time.Second,
		"page-size":         50,
		"max-results":       200,
		"retry-interrupted": true,
		"log-level":         "debug",
	})

	assert.Equal(t, "flagged.db", cfg.Storage.DatabasePath)
	assert.Equal(t, time.Second, cfg.RateLimit.RequestDelay)
	assert.Equal(t, 10*time.Second, cfg.Arxiv.RequestTimeout)
	assert.Equal(t, 50, cfg.Arxiv.PageSize)
	assert.Equal(t, 200, cfg.Arxiv.MaxResults)
	assert.True(t, cfg.Collect.RetryInterrupted)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("ARXIVCOLLECTOR_DATABASE", "env.db")

	cfg, err := Load("", map[string]interface{}{"database": "flag.db"})
	require.NoError(t, err)

	assert.Equal(t, "flag.db", cfg.Storage.DatabasePath)
}
