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

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API          APIConfig          `toml:"api"`
	Stream       StreamConfig       `toml:"stream"`
	Cache        CacheConfig        `toml:"cache"`
	Connectivity ConnectivityConfig `toml:"connectivity"`
}

// APIConfig contains picking backend HTTP settings.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the configured request timeout, defaulting to 10s.
func (a APIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// StreamConfig contains scale weight-stream settings.
type StreamConfig struct {
	BaseURL              string `toml:"base_url"`
	MaxReconnectAttempts int    `toml:"max_reconnect_attempts"`
	BackoffBaseMs        int    `toml:"backoff_base_ms"`
	BackoffCapMs         int    `toml:"backoff_cap_ms"`
	LatencyBudgetMs      int    `toml:"latency_budget_ms"`
	ReadTimeoutSeconds   int    `toml:"read_timeout_seconds"`
}

// CacheConfig contains the offline run cache settings.
type CacheConfig struct {
	Path         string `toml:"path"`
	Capacity     int    `toml:"capacity"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ConnectivityConfig contains network reachability probe settings.
type ConnectivityConfig struct {
	ProbeURL        string `toml:"probe_url"`
	IntervalSeconds int    `toml:"interval_seconds"`
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
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidConfig)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
