// Package config defines service configuration and how it is loaded.
package config

import (
	"context"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recording workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// RefreshIntervalMS is the period between full ranking rebuilds.
	RefreshIntervalMS int `koanf:"refresh_interval_ms"`

	// MaxPageLimit caps GET /rankings/{kind}?limit.
	MaxPageLimit int `koanf:"max_page_limit"`

	// Store selects the attribution backend: memory, postgres or redis.
	Store string `koanf:"store"`

	PostgresDSN    string `koanf:"postgres_dsn"`
	RedisAddr      string `koanf:"redis_addr"`
	RedisDB        int    `koanf:"redis_db"`
	RedisKeyPrefix string `koanf:"redis_key_prefix"`

	// RetentionDays bounds how long the memory store keeps timestamped
	// entries for windowed rankings and how long event IDs are remembered by
	// the memory and redis stores.
	RetentionDays int `koanf:"retention_days"`
}

// New creates a Config populated with defaults. Context is accepted first
// to follow the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		EventQueueSize:    100_000,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeSize:        500_000,
		RefreshIntervalMS: 5000,
		MaxPageLimit:      100,
		Store:             "memory",
		RedisKeyPrefix:    "standings",
		RetentionDays:     366,
	}
}

// RefreshInterval returns RefreshIntervalMS as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMS) * time.Millisecond
}

// Retention returns RetentionDays as a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}
