// Package config provides configuration loading and validation for the
// analyzer. Values come from a JSON file, environment variables, or CLI
// flags, merged in that order of increasing precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config represents the analyzer configuration that can be loaded from a
// JSON file or the environment. All fields are optional; missing values use
// defaults or must be provided via CLI flags.
type Config struct {
	// Behavior
	APIKey     string `json:"api_key,omitempty"`     // Gemini API key
	UseBrowser bool   `json:"use_browser,omitempty"` // Use headless browser for SPA sites
	Verbose    bool   `json:"verbose,omitempty"`     // Print detailed debug information

	// Server
	Port               int    `json:"port,omitempty"`                  // HTTP listen port
	DatabaseURL        string `json:"database_url,omitempty"`          // PostgreSQL connection URL for job persistence
	RateLimitPerMinute int    `json:"rate_limit_per_minute,omitempty"` // Per-client default limit per minute, 0 keeps limiter defaults

	// Result cache
	CacheTTLMinutes int `json:"cache_ttl_minutes,omitempty"` // Cached result lifetime, 0 means no expiry
	CacheMaxEntries int `json:"cache_max_entries,omitempty"` // Cache size bound, 0 means unbounded

	// Provider pacing
	PacerBurst int     `json:"pacer_burst,omitempty"` // Model call burst capacity
	PacerRate  float64 `json:"pacer_rate,omitempty"`  // Model calls per second refill rate
}

// Defaults returns the built-in configuration defaults.
func Defaults() Config {
	return Config{
		Port:            8000,
		CacheTTLMinutes: 60,
		CacheMaxEntries: 256,
		PacerBurst:      2,
		PacerRate:       0.5,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads configuration from environment variables. Unset variables
// leave the zero value so the result can be merged with file values and
// defaults.
func FromEnv() Config {
	cfg := Config{
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		UseBrowser:  envBool("USE_BROWSER"),
		Verbose:     envBool("VERBOSE"),
	}
	cfg.Port = envInt("PORT")
	cfg.RateLimitPerMinute = envInt("RATE_LIMIT_PER_MINUTE")
	cfg.CacheTTLMinutes = envInt("CACHE_TTL_MINUTES")
	cfg.CacheMaxEntries = envInt("CACHE_MAX_ENTRIES")
	cfg.PacerBurst = envInt("PACER_BURST")
	cfg.PacerRate = envFloat("PACER_RATE")
	return cfg
}

func envBool(name string) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	return err == nil && v
}

func envInt(name string) int {
	v, err := strconv.Atoi(os.Getenv(name))
	if err != nil {
		return 0
	}
	return v
}

func envFloat(name string) float64 {
	v, err := strconv.ParseFloat(os.Getenv(name), 64)
	if err != nil {
		return 0
	}
	return v
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("config error: 'rate_limit_per_minute' must be non-negative")
	}
	if c.CacheTTLMinutes < 0 {
		return fmt.Errorf("config error: 'cache_ttl_minutes' must be non-negative")
	}
	if c.CacheMaxEntries < 0 {
		return fmt.Errorf("config error: 'cache_max_entries' must be non-negative")
	}
	if c.PacerBurst < 0 {
		return fmt.Errorf("config error: 'pacer_burst' must be non-negative")
	}
	if c.PacerRate < 0 {
		return fmt.Errorf("config error: 'pacer_rate' must be non-negative")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags and environment variables.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Numeric fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.RateLimitPerMinute == 0 {
		result.RateLimitPerMinute = defaults.RateLimitPerMinute
	}
	if result.CacheTTLMinutes == 0 {
		result.CacheTTLMinutes = defaults.CacheTTLMinutes
	}
	if result.CacheMaxEntries == 0 {
		result.CacheMaxEntries = defaults.CacheMaxEntries
	}
	if result.PacerBurst == 0 {
		result.PacerBurst = defaults.PacerBurst
	}
	if result.PacerRate == 0 {
		result.PacerRate = defaults.PacerRate
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
