package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ALPHA_VANTAGE_API_KEY", "ALPHA_VANTAGE_BASE_URL", "REQUEST_DELAY", "STOCK_SYMBOLS",
		"DATABASE_DRIVER", "SQLITE_PATH", "DATABASE_URL", "SERVER_ADDR", "CRON_DAILY",
		"REPORT_DIR", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "HTTPS_PROXY",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.DataSource.Timeout)
	assert.Equal(t, 1, cfg.DataSource.MaxConcurrency)
	assert.Equal(t, "compact", cfg.DataSource.OutputSize)
	assert.Equal(t, DefaultSymbols, cfg.Symbols)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
data_source:
  api_key: from-file
  request_delay: 2s
  max_concurrency: 2
symbols: [msft, " aapl ", MSFT]
database:
  sqlite_path: /tmp/x.db
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("ALPHA_VANTAGE_API_KEY", "from-env")
	t.Setenv("SERVER_ADDR", ":9999")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.DataSource.APIKey, "env overrides the file key")
	assert.Equal(t, 2*time.Second, cfg.DataSource.RequestDelay)
	assert.Equal(t, 2, cfg.DataSource.MaxConcurrency)
	assert.Equal(t, []string{"MSFT", "AAPL"}, cfg.Symbols)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "/tmp/x.db", cfg.DSN())
}

func TestLoad_BadDelayEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("REQUEST_DELAY", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "REQUEST_DELAY", cerr.Field)
}

func TestValidateSource(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing api key", func(c *Config) { c.DataSource.APIKey = "" }, "data_source.api_key"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"postgres without url", func(c *Config) { c.Database.Driver = "postgres" }, "database.postgres_url"},
		{"negative delay", func(c *Config) { c.DataSource.RequestDelay = -time.Second }, "data_source.request_delay"},
		{"empty universe", func(c *Config) { c.Symbols = nil }, "symbols"},
		{"valid", func(c *Config) {}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
			require.NoError(t, err)
			cfg.DataSource.APIKey = "key"
			tt.mutate(cfg)

			err = cfg.ValidateSource()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}
