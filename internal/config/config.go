// Package config provides configuration loading and validation for relaydns.
//
// Configuration lives in a JSON file; Load reads it and Validate normalizes
// missing values to defaults. Command-line flags in cmd/relaydns may
// override individual fields after loading.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// EnvConfigPath names the environment variable consulted when no config
// path is passed on the command line.
const EnvConfigPath = "RELAYDNS_CONFIG"

// Config is the top-level configuration.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Upstream  UpstreamConfig  `json:"upstream"`
	Logging   LoggingConfig   `json:"logging"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	API       APIConfig       `json:"api"`
	QueryLog  QueryLogConfig  `json:"query_log"`
}

// ServerConfig contains the UDP front end settings.
type ServerConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	MaxConcurrency int    `json:"max_concurrency"`
	ReusePort      bool   `json:"reuse_port"`
}

// UpstreamConfig names the single upstream hop queries are relayed to.
type UpstreamConfig struct {
	Address string `json:"address"` // HOST or HOST:PORT; port defaults to 53
	Timeout string `json:"timeout"` // per-exchange timeout, e.g. "3s"
}

// TimeoutDuration parses the upstream timeout, falling back to the default
// when unset. Validate has already rejected unparseable values.
func (u UpstreamConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(u.Timeout)
	if err != nil || d <= 0 {
		return 3 * time.Second
	}
	return d
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level            string            `json:"level"`
	Structured       bool              `json:"structured"`
	StructuredFormat string            `json:"structured_format"`
	IncludePID       bool              `json:"include_pid"`
	ExtraFields      map[string]string `json:"extra_fields"`
}

// RateLimitConfig contains pre-parse admission control settings.
type RateLimitConfig struct {
	Enabled      bool    `json:"enabled"`
	GlobalQPS    float64 `json:"global_qps"`
	GlobalBurst  int     `json:"global_burst"`
	IPQPS        float64 `json:"ip_qps"`
	IPBurst      int     `json:"ip_burst"`
	MaxIPEntries int     `json:"max_ip_entries"`
}

// APIConfig contains the management REST API settings.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
	APIKey  string `json:"api_key"`
}

// QueryLogConfig contains the sqlite query log settings.
type QueryLogConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	_ = cfg.Validate()
	return cfg
}

// ResolveConfigPath picks the config path: explicit flag first, then the
// RELAYDNS_CONFIG environment variable, then empty (defaults only).
func ResolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(EnvConfigPath)
}

// Load reads and validates a JSON config file. An empty path yields the
// defaults; a missing or unreadable file is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := &Config{}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates and normalizes the configuration in place.
func (cfg *Config) Validate() error {
	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5353
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return errors.New("server.port must be 1..65535")
	}
	if cfg.Server.MaxConcurrency <= 0 {
		cfg.Server.MaxConcurrency = 256
	}

	// Upstream defaults
	if cfg.Upstream.Address == "" {
		cfg.Upstream.Address = "8.8.8.8"
	}
	if cfg.Upstream.Timeout == "" {
		cfg.Upstream.Timeout = "3s"
	}
	if d, err := time.ParseDuration(cfg.Upstream.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("upstream.timeout %q is not a positive duration", cfg.Upstream.Timeout)
	}

	// Normalize logging
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.StructuredFormat == "" {
		cfg.Logging.StructuredFormat = "json"
	}
	if cfg.Logging.ExtraFields == nil {
		cfg.Logging.ExtraFields = map[string]string{}
	}

	// Rate limit defaults
	if cfg.RateLimit.GlobalQPS <= 0 {
		cfg.RateLimit.GlobalQPS = 5000
	}
	if cfg.RateLimit.GlobalBurst <= 0 {
		cfg.RateLimit.GlobalBurst = 10000
	}
	if cfg.RateLimit.IPQPS <= 0 {
		cfg.RateLimit.IPQPS = 100
	}
	if cfg.RateLimit.IPBurst <= 0 {
		cfg.RateLimit.IPBurst = 200
	}
	if cfg.RateLimit.MaxIPEntries <= 0 {
		cfg.RateLimit.MaxIPEntries = 10000
	}

	// Management API
	if cfg.API.Host == "" {
		cfg.API.Host = "127.0.0.1"
	}
	if cfg.API.Enabled {
		if cfg.API.Port <= 0 || cfg.API.Port > 65535 {
			return errors.New("api.port must be 1..65535")
		}
	}

	// Query log
	if cfg.QueryLog.Enabled && cfg.QueryLog.Path == "" {
		cfg.QueryLog.Path = "relaydns-querylog.db"
	}

	return nil
}
