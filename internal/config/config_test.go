package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/edgarvault/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "edgarvault.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultUserAgent, cfg.EDGAR.UserAgent)
	assert.Equal(t, config.DefaultStagingDir, cfg.EDGAR.StagingDir)
	assert.InDelta(t, config.DefaultRateLimit, cfg.EDGAR.RateLimit, 0.001)
	assert.Equal(t, config.DefaultEDGARTimeout, cfg.EDGAR.Timeout)
	assert.False(t, cfg.EDGAR.IncludeAmends)
	assert.Equal(t, config.DefaultDatasetURL, cfg.Dataset.URL)
	assert.Equal(t, "cik-lookup", cfg.Dataset.Format)
	assert.Equal(t, config.DefaultDatasetTTL, cfg.Dataset.CacheTTL)
	assert.Equal(t, 5, cfg.Search.Limit)
	assert.Equal(t, 1000, cfg.Search.CacheSize)
	assert.Equal(t, "minio", cfg.Storage.Backend)
	assert.Equal(t, "10-k", cfg.Storage.Bucket)
	assert.Equal(t, "10-k", cfg.Storage.Category)
	assert.True(t, cfg.Storage.Secure)
	assert.Equal(t, "signed", cfg.Storage.URLMode)
	assert.Equal(t, 7*24*time.Hour, cfg.Storage.SignedURLTTL)
	assert.Equal(t, "auto", cfg.Pipeline.LookupMode)
	assert.Equal(t, "keep", cfg.Pipeline.Retention)
	assert.Equal(t, 1993, cfg.Pipeline.MinYear)
	assert.Equal(t, 2022, cfg.Pipeline.MaxYear)
	assert.Equal(t, []string{"sec-document", "sec-header"}, cfg.Pipeline.RemoveElements)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
edgar:
  user_agent: "Research Desk research@example.org"
  rate_limit: 4
  include_amends: true
dataset:
  url: ""
  path: ./company_tickers.json
  format: tickers
storage:
  backend: gcs
  bucket: filings
  url_mode: static
  signed_url_ttl: 12h
pipeline:
  lookup_mode: identifier
  retention: delete
  max_year: 2024
  remove_elements: [sec-header]
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Research Desk research@example.org", cfg.EDGAR.UserAgent)
	assert.InDelta(t, 4.0, cfg.EDGAR.RateLimit, 0.001)
	assert.True(t, cfg.EDGAR.IncludeAmends)
	assert.Equal(t, "tickers", cfg.Dataset.Format)
	assert.Equal(t, "./company_tickers.json", cfg.Dataset.Path)
	assert.Equal(t, "gcs", cfg.Storage.Backend)
	assert.Equal(t, "static", cfg.Storage.URLMode)
	assert.Equal(t, 12*time.Hour, cfg.Storage.SignedURLTTL)
	assert.Equal(t, "identifier", cfg.Pipeline.LookupMode)
	assert.Equal(t, "delete", cfg.Pipeline.Retention)
	assert.Equal(t, 2024, cfg.Pipeline.MaxYear)
	assert.Equal(t, []string{"sec-header"}, cfg.Pipeline.RemoveElements)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("EDGARVAULT_STORAGE_ENDPOINT", "minio.internal:9000")
	t.Setenv("EDGARVAULT_STORAGE_SECURE", "false")
	t.Setenv("EDGARVAULT_PIPELINE_RETENTION", "delete")
	t.Setenv("EDGARVAULT_DATASET_CACHE_TTL", "2h")

	cfg, err := config.LoadConfig(writeConfig(t, "storage:\n  endpoint: ignored:1\n"))
	require.NoError(t, err)

	assert.Equal(t, "minio.internal:9000", cfg.Storage.Endpoint)
	assert.False(t, cfg.Storage.Secure)
	assert.Equal(t, "delete", cfg.Pipeline.Retention)
	assert.Equal(t, 2*time.Hour, cfg.Dataset.CacheTTL)
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"bad retention", "pipeline:\n  retention: archive\n", config.ErrFieldValidation},
		{"bad url mode", "storage:\n  url_mode: cdn\n", config.ErrFieldValidation},
		{"rate above sec ceiling", "edgar:\n  rate_limit: 50\n", config.ErrFieldValidation},
		{"empty user agent", "edgar:\n  user_agent: \"\"\n", config.ErrFieldValidation},
		{"no dataset", "dataset:\n  url: \"\"\n  path: \"\"\n", config.ErrNoDatasetSource},
		{"year range", "pipeline:\n  min_year: 2010\n  max_year: 2000\n", config.ErrYearRange},
		{"ttl too long", "storage:\n  signed_url_ttl: 200h\n", config.ErrSignedURLTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadConfig_ExplicitMissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, config.DefaultDatasetURL, cfg.Dataset.URL)
}
