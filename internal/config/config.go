// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults come from New; Load layers an optional YAML file and env vars
//   on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"github.com/sociometry/pulse/internal/adapters/mq/worker"
	"github.com/sociometry/pulse/internal/domain/anomaly"
	"github.com/sociometry/pulse/internal/domain/fatigue"
)

// Backend names for the pluggable adapters.
const (
	QueueMemory = "memory"
	QueueRedis  = "redis"

	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of job workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueBackend selects the job queue implementation: memory or redis.
	QueueBackend string `koanf:"queue_backend"`

	// QueueCapacity bounds the in-memory job queue.
	QueueCapacity int `koanf:"queue_capacity"`

	// RedisAddr and RedisKey configure the redis queue backend.
	RedisAddr string `koanf:"redis_addr"`
	RedisKey  string `koanf:"redis_key"`

	// StoreBackend selects the fatigue store: memory, sqlite or postgres.
	StoreBackend string `koanf:"store_backend"`

	// StoreDSN is the database DSN for the sqlite/postgres backends.
	StoreDSN string `koanf:"store_dsn"`

	// MaxAttempts caps job retries; BackoffBaseMS doubles per attempt up
	// to BackoffMaxMS.
	MaxAttempts   int `koanf:"max_attempts"`
	BackoffBaseMS int `koanf:"backoff_base_ms"`
	BackoffMaxMS  int `koanf:"backoff_max_ms"`

	// JobTimeoutMS is the per-job wall-clock budget.
	JobTimeoutMS int `koanf:"job_timeout_ms"`

	// ClockSkewMS is the tolerated future drift on record timestamps.
	ClockSkewMS int `koanf:"clock_skew_ms"`

	// AnomalyThreshold is the z-score magnitude above which readings are
	// flagged.
	AnomalyThreshold float64 `koanf:"anomaly_threshold"`

	// FatigueLookbackDays and FatigueThreshold tune creative-fatigue
	// detection.
	FatigueLookbackDays int     `koanf:"fatigue_lookback_days"`
	FatigueThreshold    float64 `koanf:"fatigue_threshold"`

	// DedupeSize bounds the job-id deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// JournalSize bounds the in-memory job journal.
	JournalSize int `koanf:"journal_size"`

	// RetentionDays is how long fatigue records are kept;
	// RetentionSchedule is the cron spec of the sweep.
	RetentionDays     int    `koanf:"retention_days"`
	RetentionSchedule string `koanf:"retention_schedule"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		WorkerCount:         worker.DefaultWorkerCount,
		QueueBackend:        QueueMemory,
		QueueCapacity:       10_000,
		RedisAddr:           "localhost:6379",
		RedisKey:            "pulse:jobs",
		StoreBackend:        StoreMemory,
		StoreDSN:            "file:pulse.db",
		MaxAttempts:         worker.DefaultMaxAttempts,
		BackoffBaseMS:       2_000,
		BackoffMaxMS:        120_000,
		JobTimeoutMS:        300_000,
		ClockSkewMS:         300_000,
		AnomalyThreshold:    anomaly.DefaultThreshold,
		FatigueLookbackDays: fatigue.DefaultLookbackDays,
		FatigueThreshold:    fatigue.DefaultThreshold,
		DedupeSize:          100_000,
		JournalSize:         10_000,
		RetentionDays:       90,
		RetentionSchedule:   "0 3 * * *",
	}
}
