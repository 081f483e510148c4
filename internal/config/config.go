// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers an optional YAML file and env vars on top.
// - External errors are wrapped via this package's sentinel kinds.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ShardCount sets the number of bet-store shards.
	ShardCount int `koanf:"shard_count"`

	// BoardCapacity bounds how many stakes each offer retains (1..64).
	BoardCapacity int `koanf:"board_capacity"`

	// ShardQueueSize bounds each shard's pending-task queue.
	ShardQueueSize int `koanf:"shard_queue_size"`

	// DefaultTopN is the result size of /highstakes without a limit param.
	DefaultTopN int `koanf:"default_top_n"`

	// MaxTopLimit caps the limit query param on /highstakes.
	MaxTopLimit int `koanf:"max_top_limit"`

	// SessionTTLSeconds sets how long an issued session stays valid.
	SessionTTLSeconds int `koanf:"session_ttl_seconds"`

	// SessionCleanupSeconds sets the expired-session reap interval.
	SessionCleanupSeconds int `koanf:"session_cleanup_seconds"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":8080",
		ShardCount:            runtime.NumCPU(),
		BoardCapacity:         20,
		ShardQueueSize:        65536,
		DefaultTopN:           20,
		MaxTopLimit:           64,
		SessionTTLSeconds:     600,
		SessionCleanupSeconds: 60,
	}
}
