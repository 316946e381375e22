// Package config loads and validates module configuration from env and an
// optional .env file using Viper.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

// Config holds audit trail configuration loaded from the environment.
type Config struct {
	// MongoURI is the MongoDB connection string. Empty when the embedded
	// in-memory store is used instead.
	MongoURI string `mapstructure:"AUDIT_MONGO_URI"`
	// Database is the MongoDB database name.
	Database string `mapstructure:"AUDIT_MONGO_DATABASE"`
	// Collection is the audit event collection name.
	Collection string `mapstructure:"AUDIT_MONGO_COLLECTION"`

	// RedisAddr enables the Redis analytics cache when set (host:port).
	RedisAddr string `mapstructure:"AUDIT_REDIS_ADDR"`
	// RedisPassword is the optional Redis password.
	RedisPassword string `mapstructure:"AUDIT_REDIS_PASSWORD"`
	// RedisDB is the Redis database index.
	RedisDB int `mapstructure:"AUDIT_REDIS_DB"`
	// CacheTTL is the TTL for cached analytics results.
	CacheTTL time.Duration `mapstructure:"AUDIT_CACHE_TTL"`

	// QueueSize bounds the async ingestion queue. When full, the oldest
	// pending event is dropped and the drop is logged.
	QueueSize int `mapstructure:"AUDIT_QUEUE_SIZE"`
	// RetryMaxAttempts bounds persistence retries per event.
	RetryMaxAttempts int `mapstructure:"AUDIT_RETRY_MAX_ATTEMPTS"`
	// RetryInitialInterval is the first backoff interval.
	RetryInitialInterval time.Duration `mapstructure:"AUDIT_RETRY_INITIAL_INTERVAL"`

	// ExportMaxRows is the hard export row cap.
	ExportMaxRows int `mapstructure:"AUDIT_EXPORT_MAX_ROWS"`
	// ExportBatchSize is the seek batch size used while streaming exports.
	ExportBatchSize int `mapstructure:"AUDIT_EXPORT_BATCH_SIZE"`

	// RetentionDays is the default age threshold for the sweeper.
	RetentionDays int `mapstructure:"AUDIT_RETENTION_DAYS"`
	// SweepInterval is the period of the background sweeper.
	SweepInterval time.Duration `mapstructure:"AUDIT_SWEEP_INTERVAL"`
	// SweepBatchSize bounds each deletion batch so a sweep never holds a
	// store-wide lock during ingestion or queries.
	SweepBatchSize int `mapstructure:"AUDIT_SWEEP_BATCH_SIZE"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment via Viper. Missing .env is ignored. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore missing .env (e.g. in CI)

	v.AutomaticEnv()

	v.SetDefault("AUDIT_MONGO_URI", "")
	v.SetDefault("AUDIT_MONGO_DATABASE", "audit")
	v.SetDefault("AUDIT_MONGO_COLLECTION", "audit_events")
	v.SetDefault("AUDIT_REDIS_ADDR", "")
	v.SetDefault("AUDIT_REDIS_PASSWORD", "")
	v.SetDefault("AUDIT_REDIS_DB", 0)
	v.SetDefault("AUDIT_CACHE_TTL", types.DefaultCacheTTL)
	v.SetDefault("AUDIT_QUEUE_SIZE", 1024)
	v.SetDefault("AUDIT_RETRY_MAX_ATTEMPTS", 3)
	v.SetDefault("AUDIT_RETRY_INITIAL_INTERVAL", 100*time.Millisecond)
	v.SetDefault("AUDIT_EXPORT_MAX_ROWS", 10000)
	v.SetDefault("AUDIT_EXPORT_BATCH_SIZE", 2000)
	v.SetDefault("AUDIT_RETENTION_DAYS", 90)
	v.SetDefault("AUDIT_SWEEP_INTERVAL", 24*time.Hour)
	v.SetDefault("AUDIT_SWEEP_BATCH_SIZE", 1000)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and fills safe minimums.
func (c *Config) Validate() error {
	if c.Database == "" {
		return types.NewValidationError("AUDIT_MONGO_DATABASE", "must not be empty")
	}
	if c.Collection == "" {
		return types.NewValidationError("AUDIT_MONGO_COLLECTION", "must not be empty")
	}
	if c.QueueSize < 1 {
		return types.NewValidationError("AUDIT_QUEUE_SIZE", "must be at least 1")
	}
	if c.RetryMaxAttempts < 0 {
		return types.NewValidationError("AUDIT_RETRY_MAX_ATTEMPTS", "must not be negative")
	}
	if c.ExportMaxRows < 1 {
		return types.NewValidationError("AUDIT_EXPORT_MAX_ROWS", "must be at least 1")
	}
	if c.ExportBatchSize < 1 || c.ExportBatchSize > c.ExportMaxRows {
		c.ExportBatchSize = c.ExportMaxRows
	}
	if c.SweepBatchSize < 1 {
		return types.NewValidationError("AUDIT_SWEEP_BATCH_SIZE", "must be at least 1")
	}
	if c.RetentionDays < 1 {
		return types.NewValidationError("AUDIT_RETENTION_DAYS", "must be at least 1")
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = types.DefaultCacheTTL
	}
	if c.RetryInitialInterval <= 0 {
		c.RetryInitialInterval = 100 * time.Millisecond
	}
	return nil
}
