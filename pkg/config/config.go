// Package config loads the collector's tuning configuration from an
// optional YAML file and API credentials from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default tuning values, matching the public API's documented limits.
const (
	DefaultBaseURL      = "https://api.petfinder.com/v2"
	DefaultDataDir      = "data"
	DefaultRequestDelay = 2 * time.Second
	DefaultMaxAttempts  = 3
	DefaultPageLimit    = 100
	DefaultSort         = "recent"
	DefaultLogLevel     = "info"
)

// RetryConfig tunes the request retry schedule. Delay strings use Go
// duration syntax ("10s", "500ms").
type RetryConfig struct {
	MaxAttempts      int    `yaml:"max_attempts"`
	RateLimitStepStr string `yaml:"rate_limit_step"`
	TransientStepStr string `yaml:"transient_step"`

	// Parsed durations, populated by Load.
	RateLimitStep time.Duration `yaml:"-"`
	TransientStep time.Duration `yaml:"-"`
}

// Config holds the collector tuning configuration.
type Config struct {
	BaseURL         string `yaml:"base_url"`
	DataDir         string `yaml:"data_dir"`
	RequestDelayStr string `yaml:"request_delay"`
	PageLimit       int    `yaml:"page_limit"`
	Sort            string `yaml:"sort"`
	LogLevel        string `yaml:"log_level"`

	Retry RetryConfig `yaml:"retry"`

	// Parsed duration, populated by Load.
	RequestDelay time.Duration `yaml:"-"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		DataDir:      DefaultDataDir,
		RequestDelay: DefaultRequestDelay,
		PageLimit:    DefaultPageLimit,
		Sort:         DefaultSort,
		LogLevel:     DefaultLogLevel,
		Retry: RetryConfig{
			MaxAttempts:   DefaultMaxAttempts,
			RateLimitStep: 10 * time.Second,
			TransientStep: 5 * time.Second,
		},
	}
}

// Load reads a YAML config file, applying defaults for anything left unset.
// An empty path returns Default without touching the filesystem.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	if cfg.RequestDelay, err = parseDuration(cfg.RequestDelayStr, DefaultRequestDelay); err != nil {
		return Config{}, fmt.Errorf("request_delay: %w", err)
	}
	if cfg.Retry.RateLimitStep, err = parseDuration(cfg.Retry.RateLimitStepStr, 10*time.Second); err != nil {
		return Config{}, fmt.Errorf("retry.rate_limit_step: %w", err)
	}
	if cfg.Retry.TransientStep, err = parseDuration(cfg.Retry.TransientStepStr, 5*time.Second); err != nil {
		return Config{}, fmt.Errorf("retry.transient_step: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.PageLimit <= 0 {
		return fmt.Errorf("page_limit must be positive, got %d", c.PageLimit)
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be positive, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseDuration(s)
}

// Credentials holds the API key pair.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Environment variables carrying the API key pair.
const (
	EnvAPIKey    = "PETFINDER_API_KEY"
	EnvSecretKey = "PETFINDER_SECRET_KEY"
)

// LoadCredentials reads the key pair from the environment, merging in a
// .env file when one exists in the working directory.
func LoadCredentials() (Credentials, error) {
	// Missing .env is fine; real environment variables take precedence.
	_ = godotenv.Load()

	creds := Credentials{
		ClientID:     os.Getenv(EnvAPIKey),
		ClientSecret: os.Getenv(EnvSecretKey),
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return Credentials{}, fmt.Errorf("%s and %s must be set (environment or .env file)", EnvAPIKey, EnvSecretKey)
	}
	return creds, nil
}
