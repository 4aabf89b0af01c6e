package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	defaultPollInterval = 2 * time.Second
	defaultPollTimeout  = 30 * time.Minute
	defaultDisplayLimit = 4
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Polling  PollingConfig  `toml:"polling"`
	History  HistoryConfig  `toml:"history"`
	Content  ContentConfig  `toml:"content"`
	Database DatabaseConfig `toml:"database"`
	Sandbox  SandboxConfig  `toml:"sandbox"`
}

// ServerConfig contains the Katello/Foreman API connection settings.
type ServerConfig struct {
	URL            string  `toml:"url"`
	OrganizationID int     `toml:"organization_id"`
	Username       string  `toml:"username"`
	Password       string  `toml:"password"`
	Token          string  `toml:"token"`
	RateLimit      float64 `toml:"rate_limit"`
}

// PollingConfig controls how task status is polled.
type PollingConfig struct {
	Interval    string `toml:"interval"`
	Timeout     string `toml:"timeout"`
	MaxFailures int    `toml:"max_failures"`
}

// HistoryConfig controls the manifest history feed.
type HistoryConfig struct {
	DisplayLimit int `toml:"display_limit"`
}

// ContentConfig describes the content source of the server.
type ContentConfig struct {
	Disconnected bool `toml:"disconnected"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SandboxConfig contains settings for the local API simulation.
type SandboxConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	PollsToComplete int    `toml:"polls_to_complete"`
	MaxUploadBytes  int64  `toml:"max_upload_bytes"`
}

// PollInterval parses [PollingConfig.Interval], falling back to two seconds.
func (c PollingConfig) PollInterval() time.Duration {
	return parseDuration(c.Interval, defaultPollInterval)
}

// PollTimeout parses [PollingConfig.Timeout], falling back to thirty minutes.
func (c PollingConfig) PollTimeout() time.Duration {
	return parseDuration(c.Timeout, defaultPollTimeout)
}

// Limit returns the number of history entries to display.
func (c HistoryConfig) Limit() int {
	if c.DisplayLimit <= 0 {
		return defaultDisplayLimit
	}
	return c.DisplayLimit
}

// Validate checks the settings required to talk to the API.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("%w: server.url is required", ErrInvalidConfig)
	}
	if c.Server.OrganizationID <= 0 {
		return fmt.Errorf("%w: server.organization_id must be positive", ErrInvalidConfig)
	}
	if c.Server.Token == "" && c.Server.Username == "" {
		return fmt.Errorf("%w: server.token or server.username must be set", ErrMissingCredentials)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
