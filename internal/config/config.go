package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"StockPulse/internal/model"
)

// DefaultSymbols is the tracked universe when none is configured.
var DefaultSymbols = []string{"IBM", "AAPL", "GOOG", "MSFT", "NVDA"}

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		BaseURL        string        `yaml:"base_url"`
		APIKey         string        `yaml:"api_key"`
		OutputSize     string        `yaml:"output_size"`
		Timeout        time.Duration `yaml:"timeout"`
		MaxConcurrency int           `yaml:"max_concurrency"`
		RequestDelay   time.Duration `yaml:"request_delay"`
	} `yaml:"data_source"`
	Symbols  []string `yaml:"symbols"`
	Database struct {
		Driver      string `yaml:"driver"`
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresURL string `yaml:"postgres_url"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Schedule struct {
		DailyCron  string        `yaml:"daily_cron"`
		RunTimeout time.Duration `yaml:"run_timeout"`
	} `yaml:"schedule"`
	Report struct {
		Dir       string `yaml:"dir"`
		StateFile string `yaml:"state_file"`
	} `yaml:"report"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// ConfigError reports a missing or invalid setting. It is fatal and raised
// before any network activity.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// .env never overrides variables already present in the environment.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.Symbols = model.NormalizeSymbols(cfg.Symbols)

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("REQUEST_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigError{Field: "REQUEST_DELAY", Reason: fmt.Sprintf("is not a duration: %v", err)}
		}
		c.DataSource.RequestDelay = d
	}
	if v := os.Getenv("STOCK_SYMBOLS"); v != "" {
		c.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.PostgresURL = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		c.Schedule.DailyCron = v
	}
	if v := os.Getenv("REPORT_DIR"); v != "" {
		c.Report.Dir = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.BaseURL == "" {
		c.DataSource.BaseURL = "https://www.alphavantage.co/query"
	}
	if c.DataSource.OutputSize == "" {
		c.DataSource.OutputSize = "compact"
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30 * time.Second
	}
	if c.DataSource.MaxConcurrency == 0 {
		c.DataSource.MaxConcurrency = 1
	}
	// Without spacing the free tier answers with a "Note" instead of data.
	if c.DataSource.RequestDelay == 0 {
		c.DataSource.RequestDelay = 15 * time.Second
	}
	if len(c.Symbols) == 0 {
		c.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/market_data.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 30 22 * * 1-5"
	}
	if c.Report.Dir == "" {
		c.Report.Dir = "reports"
	}
	if c.Report.StateFile == "" {
		c.Report.StateFile = "data/last_run.json"
	}
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.Database.Driver == "postgres" {
		return c.Database.PostgresURL
	}
	return c.Database.SQLitePath
}

// TelegramEnabled reports whether both bot token and chat ID are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return &ConfigError{Field: "database.sqlite_path", Reason: "is required"}
		}
	case "postgres":
		if c.Database.PostgresURL == "" {
			return &ConfigError{Field: "database.postgres_url", Reason: "is required for the postgres driver"}
		}
	default:
		return &ConfigError{Field: "database.driver", Reason: fmt.Sprintf("must be sqlite or postgres, got %q", c.Database.Driver)}
	}
	if c.DataSource.RequestDelay < 0 {
		return &ConfigError{Field: "data_source.request_delay", Reason: "must not be negative"}
	}
	return nil
}

// ValidateSource checks the settings needed before fetching anything.
func (c *Config) ValidateSource() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DataSource.APIKey == "" {
		return &ConfigError{Field: "data_source.api_key", Reason: "is required (set ALPHA_VANTAGE_API_KEY)"}
	}
	if c.DataSource.MaxConcurrency < 1 {
		return &ConfigError{Field: "data_source.max_concurrency", Reason: "must be at least 1"}
	}
	if len(c.Symbols) == 0 {
		return &ConfigError{Field: "symbols", Reason: "must not be empty"}
	}
	return nil
}
