
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCatalogBaseURL   = "https://www.sciencebase.gov/catalog"
	DefaultDirectoryBaseURL = "https://www.sciencebase.gov/directory"
	DefaultCatalogID        = "5e8de96182cee42d134687cc"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Annotator AnnotatorConfig `yaml:"annotator"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	UserAgent    string        `yaml:"user_agent"`
	// RateLimit is requests per second across all workers; 0 disables pacing.
	RateLimit float64     `yaml:"rate_limit"`
	RateBurst int         `yaml:"rate_burst"`
	Retry     RetryConfig `yaml:"retry"`
}

// RetryConfig is off unless Enabled is set, so fetch results stay reproducible by default.
type RetryConfig struct {
	Enabled         bool          `yaml:"enabled"`
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
}

type AnnotatorConfig struct {
	Workers int  `yaml:"workers"`
	Dedupe  bool `yaml:"dedupe"`
}

type CatalogConfig struct {
	BaseURL          string `yaml:"base_url"`
	DirectoryURL     string `yaml:"directory_url"`
	DefaultCatalogID string `yaml:"default_catalog_id"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	applyDefaults(c)
	return c
}

// LoadFromFile reads a YAML config. An empty filename yields Default().
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", filename, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses YAML after expanding ${VAR} references from the environment.
func LoadFromBytes(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = 20 * time.Second
	}
	if c.HTTP.DialTimeout == 0 {
		c.HTTP.DialTimeout = 5 * time.Second
	}
	if c.HTTP.MaxBodyBytes == 0 {
		c.HTTP.MaxBodyBytes = 5 * 1024 * 1024
	}
	if c.HTTP.RateBurst == 0 {
		c.HTTP.RateBurst = 1
	}
	if c.HTTP.Retry.MaxAttempts == 0 {
		c.HTTP.Retry.MaxAttempts = 3
	}
	if c.HTTP.Retry.InitialInterval == 0 {
		c.HTTP.Retry.InitialInterval = 500 * time.Millisecond
	}
	if c.Annotator.Workers == 0 {
		c.Annotator.Workers = 1
	}
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = DefaultCatalogBaseURL
	}
	if c.Catalog.DirectoryURL == "" {
		c.Catalog.DirectoryURL = DefaultDirectoryBaseURL
	}
	if c.Catalog.DefaultCatalogID == "" {
		c.Catalog.DefaultCatalogID = DefaultCatalogID
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Timeout < 0 || c.HTTP.DialTimeout < 0 {
		errs = append(errs, errors.New("http timeouts must be positive"))
	}
	if c.HTTP.MaxBodyBytes < 0 {
		errs = append(errs, errors.New("http.max_body_bytes must be positive"))
	}
	if c.HTTP.RateLimit < 0 {
		errs = append(errs, errors.New("http.rate_limit must not be negative"))
	}
	if c.HTTP.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("http.retry.max_attempts must be at least 1"))
	}
	if c.Annotator.Workers < 1 {
		errs = append(errs, fmt.Errorf("annotator.workers must be at least 1, got %d", c.Annotator.Workers))
	}
	return errors.Join(errs...)
}
