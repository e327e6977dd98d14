package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the entire application configuration
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Assets   AssetsConfig   `mapstructure:"assets"`
	Sync     SyncConfig     `mapstructure:"sync"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
}

// APIConfig contains remote catalog API configuration
type APIConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	PageLimit       int    `mapstructure:"page_limit"`
	RequestInterval string `mapstructure:"request_interval"`
}

// AssetsConfig contains asset cache settings
type AssetsConfig struct {
	MaxEntries      int    `mapstructure:"max_entries"`
	DownloadTimeout string `mapstructure:"download_timeout"`
}

// SyncConfig contains synchronization settings
type SyncConfig struct {
	Interval string `mapstructure:"interval"`
}

// HTTPConfig contains HTTP server configuration
type HTTPConfig struct {
	BindAddr      string `mapstructure:"bind_addr"`
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`
	ReadTimeout   string `mapstructure:"read_timeout"`
	WriteTimeout  string `mapstructure:"write_timeout"`
	IdleTimeout   string `mapstructure:"idle_timeout"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// Load loads configuration from the specified file path
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// Set defaults
	viper.SetDefault("api.base_url", "https://civitai.com/api/v1")
	viper.SetDefault("api.page_limit", 100)
	viper.SetDefault("api.request_interval", "500ms")
	viper.SetDefault("assets.max_entries", 100)
	viper.SetDefault("assets.download_timeout", "30s")
	viper.SetDefault("sync.interval", "1h")
	viper.SetDefault("http.bind_addr", "0.0.0.0:8080")
	viper.SetDefault("http.admin_username", "admin")
	viper.SetDefault("http.admin_password", "")
	viper.SetDefault("http.read_timeout", "30s")
	viper.SetDefault("http.write_timeout", "30s")
	viper.SetDefault("http.idle_timeout", "60s")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("database.path", "cocktail.db")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate API config
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.PageLimit < 1 || c.API.PageLimit > 200 {
		return fmt.Errorf("api.page_limit must be between 1 and 200")
	}
	if _, err := time.ParseDuration(c.API.RequestInterval); err != nil {
		return fmt.Errorf("invalid api.request_interval: %w", err)
	}

	// Validate assets config
	if c.Assets.MaxEntries <= 0 {
		return fmt.Errorf("assets.max_entries must be positive")
	}
	if _, err := time.ParseDuration(c.Assets.DownloadTimeout); err != nil {
		return fmt.Errorf("invalid assets.download_timeout: %w", err)
	}

	// Validate sync interval
	if _, err := time.ParseDuration(c.Sync.Interval); err != nil {
		return fmt.Errorf("invalid sync.interval: %w", err)
	}

	// Validate HTTP timeouts
	if _, err := time.ParseDuration(c.HTTP.ReadTimeout); err != nil {
		return fmt.Errorf("invalid http.read_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.HTTP.WriteTimeout); err != nil {
		return fmt.Errorf("invalid http.write_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.HTTP.IdleTimeout); err != nil {
		return fmt.Errorf("invalid http.idle_timeout: %w", err)
	}

	// Validate database config
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// Validate logging config
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
		// Valid formats
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}

	return nil
}

// GetRequestInterval returns the request interval as time.Duration
func (c *APIConfig) GetRequestInterval() time.Duration {
	d, _ := time.ParseDuration(c.RequestInterval)
	if d == 0 {
		return 500 * time.Millisecond
	}
	return d
}

// GetDownloadTimeout returns the asset download timeout as time.Duration
func (c *AssetsConfig) GetDownloadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.DownloadTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetInterval returns the sync interval as time.Duration
func (c *SyncConfig) GetInterval() time.Duration {
	d, _ := time.ParseDuration(c.Interval)
	if d == 0 {
		return time.Hour
	}
	return d
}

// GetReadTimeout returns the read timeout as time.Duration
func (c *HTTPConfig) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ReadTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetWriteTimeout returns the write timeout as time.Duration
func (c *HTTPConfig) GetWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.WriteTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetIdleTimeout returns the idle timeout as time.Duration
func (c *HTTPConfig) GetIdleTimeout() time.Duration {
	d, _ := time.ParseDuration(c.IdleTimeout)
	if d == 0 {
		return 60 * time.Second
	}
	return d
}
