package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Engine    EngineConfig
	Catalog   CatalogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string        `envconfig:"PORT" default:"8000"`
	Host        string        `envconfig:"HOST" default:"0.0.0.0"`
	Gzip        bool          `envconfig:"SERVER_GZIP" default:"true"`
	MaxSessions int           `envconfig:"SERVER_MAX_SESSIONS" default:"1000"`
	SessionTTL  time.Duration `envconfig:"SERVER_SESSION_TTL" default:"1h"`
	Tracing     bool          `envconfig:"SERVER_TRACING" default:"false"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// EngineConfig holds snippet execution configuration.
type EngineConfig struct {
	MaxEntries       int           `envconfig:"ENGINE_MAX_ENTRIES" default:"100"`
	Timeout          time.Duration `envconfig:"ENGINE_TIMEOUT" default:"0s"`
	PoolSize         int           `envconfig:"ENGINE_POOL_SIZE" default:"4"`
	MaxCallStackSize int           `envconfig:"ENGINE_MAX_CALL_STACK" default:"4096"`
	MaxTimers        int           `envconfig:"ENGINE_MAX_TIMERS" default:"256"`
	EchoResult       bool          `envconfig:"ENGINE_ECHO_RESULT" default:"false"`
	Hints            bool          `envconfig:"ENGINE_HINTS" default:"true"`
	MaxSourceBytes   int           `envconfig:"ENGINE_MAX_SOURCE_BYTES" default:"262144"`
}

// CatalogConfig holds snippet catalog configuration.
type CatalogConfig struct {
	Dir     string `envconfig:"CATALOG_DIR" default:""`
	Pattern string `envconfig:"CATALOG_PATTERN" default:"**/*.{yaml,yml,toml,json}"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			Host:        "0.0.0.0",
			Gzip:        true,
			MaxSessions: 1000,
			SessionTTL:  time.Hour,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Engine: EngineConfig{
			MaxEntries:       100,
			Timeout:          0,
			PoolSize:         4,
			MaxCallStackSize: 4096,
			MaxTimers:        256,
			EchoResult:       false,
			Hints:            true,
			MaxSourceBytes:   256 * 1024,
		},
		Catalog: CatalogConfig{
			Pattern: "**/*.{yaml,yml,toml,json}",
		},
	}
}
