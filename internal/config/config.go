package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Generation GenerationConfig `yaml:"generation"`
}

type ServerConfig struct {
	HTTPPort    int `yaml:"http_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	Secret   string `yaml:"secret"`
	TokenTTL int    `yaml:"token_ttl"` // minutes
}

type RateLimitConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Requests      int64  `yaml:"requests"`
	WindowSeconds int    `yaml:"window_seconds"`
	RedisAddr     string `yaml:"redis_addr"` // empty: in-memory counter store
}

type GenerationConfig struct {
	MaxBatch int `yaml:"max_batch"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:    4580,
			MetricsPort: 9190,
		},
		Database: DatabaseConfig{
			Path: "./data/reelgrid.db",
		},
		Auth: AuthConfig{
			TokenTTL: 720, // 12 hours
		},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			Requests:      60,
			WindowSeconds: 60,
		},
		Generation: GenerationConfig{
			MaxBatch: 50,
		},
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// TokenTTLDuration returns the configured token lifetime.
func (c *Config) TokenTTLDuration() time.Duration {
	return time.Duration(c.Auth.TokenTTL) * time.Minute
}

// RateLimitWindow returns the configured rate-limit window.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

// EnsureDirectories creates required directories
func (c *Config) EnsureDirectories() error {
	return os.MkdirAll(filepath.Dir(c.Database.Path), 0755)
}
