// Package config loads optional file-based settings for the extractor.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/NERVsystems/osmextract/pkg/overpass"
)

// Config holds settings that rarely change between runs. Every field has a
// working default; a config file only needs the keys it overrides.
type Config struct {
	// Endpoint is the Overpass API interpreter URL.
	Endpoint string `yaml:"endpoint"`

	// UserAgent identifies the client to OSM service operators.
	UserAgent string `yaml:"user_agent"`

	// Timeout is the server-side Overpass query timeout in seconds.
	Timeout int `yaml:"timeout"`

	// RateLimit caps outgoing Overpass requests per second.
	RateLimit float64 `yaml:"rate_limit"`

	// RateBurst is the rate limiter burst size.
	RateBurst int `yaml:"rate_burst"`

	// CacheSize is the LRU response cache capacity; 0 disables caching.
	CacheSize int `yaml:"cache_size"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Endpoint:  overpass.DefaultEndpoint,
		UserAgent: overpass.DefaultUserAgent,
		Timeout:   overpass.DefaultTimeout,
		RateLimit: 1.0,
		RateBurst: 1,
		CacheSize: overpass.DefaultCacheSize,
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", c.Timeout)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be positive, got %f", c.RateLimit)
	}
	if c.RateBurst <= 0 {
		return fmt.Errorf("rate_burst must be positive, got %d", c.RateBurst)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize)
	}
	return nil
}
