// Package config provides configuration management for the IT library catalog.
// Configuration can be loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backend names.
const (
	BackendMemory     = "memory"
	BackendFilesystem = "filesystem"
	BackendBolt       = "bolt"
	BackendSQLite     = "sqlite"
	BackendPostgres   = "postgres"
	BackendS3         = "s3"
	BackendSnapshot   = "snapshot"
)

// Config represents the complete application configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Lock    LockConfig    `mapstructure:"lock"`
	Adapter AdapterConfig `mapstructure:"adapter"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Users   UsersConfig   `mapstructure:"users"`
	Session SessionConfig `mapstructure:"session"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// StorageConfig selects and configures the durable document backend.
type StorageConfig struct {
	// Backend is one of memory, filesystem, bolt, sqlite, postgres, s3, snapshot.
	Backend string `mapstructure:"backend"`

	// DocumentPrefix is prepended to every document name ("itlibrary_users").
	DocumentPrefix string `mapstructure:"document_prefix"`

	// Dir is the root directory for the filesystem backend.
	Dir string `mapstructure:"dir"`

	Bolt     BoltConfig     `mapstructure:"bolt"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	S3       S3Config       `mapstructure:"s3"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
}

// BoltConfig holds bbolt settings.
type BoltConfig struct {
	Path        string        `mapstructure:"path"`
	Bucket      string        `mapstructure:"bucket"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

// SQLiteConfig holds SQLite settings.
type SQLiteConfig struct {
	Path            string `mapstructure:"path"`             // Path to SQLite database file
	JournalMode     string `mapstructure:"journal_mode"`     // WAL, DELETE, TRUNCATE, etc.
	BusyTimeout     int    `mapstructure:"busy_timeout"`     // Milliseconds to wait for locks
	SynchronousMode string `mapstructure:"synchronous_mode"` // NORMAL, FULL, OFF
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the PostgreSQL connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// S3Config holds S3 backend settings.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PathStyle       bool   `mapstructure:"path_style"`
}

// SnapshotConfig holds settings for the read-only fetched JSON snapshot source.
// Writes go to the Local backend, layered over the snapshot.
type SnapshotConfig struct {
	// BaseURL is where "<name>.json" documents are fetched from.
	BaseURL string `mapstructure:"base_url"`

	// Local is the writable backend layered over the snapshot (memory, filesystem, bolt).
	Local string `mapstructure:"local"`
}

// CacheConfig controls the best-effort document mirror.
type CacheConfig struct {
	// Backend is none, memory or redis.
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// Addr returns the Redis address in host:port format.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LockConfig controls how read-modify-write operations are serialized.
type LockConfig struct {
	// Backend is memory, redis or noop.
	Backend    string        `mapstructure:"backend"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// AdapterConfig holds persistence adapter settings.
type AdapterConfig struct {
	// IOTimeout bounds every single backend call.
	IOTimeout time.Duration `mapstructure:"io_timeout"`
}

// CatalogConfig holds consistency rules that are a product decision.
type CatalogConfig struct {
	// AllowOrphanResources keeps resources whose subject does not exist.
	// Set it to false to reject them with a not-found error.
	AllowOrphanResources bool `mapstructure:"allow_orphan_resources"`
}

// UsersConfig holds account registration rules.
type UsersConfig struct {
	// ValidateStage rejects stages other than "admin" or a positive year.
	ValidateStage bool `mapstructure:"validate_stage"`
}

// SessionConfig controls the session pointer document.
type SessionConfig struct {
	// Persist mirrors the logged-in user to the current_user document.
	Persist bool `mapstructure:"persist"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled determines if metrics collection is active.
	Enabled bool `mapstructure:"enabled"`

	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// Load reads configuration from the specified file and environment variables.
// Environment variables take precedence over file values.
// Environment variables are prefixed with ITLIBRARY_ and use _ as separator.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Environment variable configuration
	v.SetEnvPrefix("ITLIBRARY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file configuration
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/itlibrary")
	}

	// Read config file (optional - environment variables can be used instead)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Storage defaults
	v.SetDefault("storage.backend", BackendBolt)
	v.SetDefault("storage.document_prefix", "itlibrary_")
	v.SetDefault("storage.dir", "./data/documents")
	v.SetDefault("storage.bolt.path", "./data/itlibrary.db")
	v.SetDefault("storage.bolt.bucket", "documents")
	v.SetDefault("storage.bolt.open_timeout", 2*time.Second)
	v.SetDefault("storage.sqlite.path", "./data/itlibrary.sqlite")
	v.SetDefault("storage.sqlite.journal_mode", "WAL")
	v.SetDefault("storage.sqlite.busy_timeout", 5000)
	v.SetDefault("storage.sqlite.synchronous_mode", "NORMAL")
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", 5432)
	v.SetDefault("storage.postgres.user", "itlibrary")
	v.SetDefault("storage.postgres.password", "")
	v.SetDefault("storage.postgres.database", "itlibrary")
	v.SetDefault("storage.postgres.ssl_mode", "prefer")
	v.SetDefault("storage.postgres.max_conns", 4)
	v.SetDefault("storage.postgres.min_conns", 1)
	v.SetDefault("storage.postgres.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("storage.postgres.conn_max_idle_time", 5*time.Minute)
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.prefix", "documents/")
	v.SetDefault("storage.s3.path_style", false)
	v.SetDefault("storage.snapshot.base_url", "")
	v.SetDefault("storage.snapshot.local", BackendMemory)

	// Cache defaults
	v.SetDefault("cache.backend", "none")
	v.SetDefault("cache.ttl", 24*time.Hour)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)

	// Lock defaults
	v.SetDefault("lock.backend", "memory")
	v.SetDefault("lock.ttl", 30*time.Second)
	v.SetDefault("lock.max_retries", 50)
	v.SetDefault("lock.retry_delay", 100*time.Millisecond)

	// Adapter defaults
	v.SetDefault("adapter.io_timeout", 5*time.Second)

	// Catalog defaults
	v.SetDefault("catalog.allow_orphan_resources", true)

	// Users defaults
	v.SetDefault("users.validate_stage", false)

	// Session defaults
	v.SetDefault("session.persist", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "itlibrary")
}

// Validate checks the configuration for required values and valid ranges.
func (c *Config) Validate() error {
	validBackends := map[string]bool{
		BackendMemory: true, BackendFilesystem: true, BackendBolt: true,
		BackendSQLite: true, BackendPostgres: true, BackendS3: true, BackendSnapshot: true,
	}
	if !validBackends[c.Storage.Backend] {
		return fmt.Errorf("storage.backend must be one of: memory, filesystem, bolt, sqlite, postgres, s3, snapshot")
	}

	switch c.Storage.Backend {
	case BackendFilesystem:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required for filesystem backend")
		}
	case BackendBolt:
		if c.Storage.Bolt.Path == "" {
			return fmt.Errorf("storage.bolt.path is required for bolt backend")
		}
	case BackendSQLite:
		if c.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path is required for sqlite backend")
		}
	case BackendPostgres:
		if c.Storage.Postgres.Host == "" {
			return fmt.Errorf("storage.postgres.host is required for postgres backend")
		}
		if c.Storage.Postgres.Database == "" {
			return fmt.Errorf("storage.postgres.database is required for postgres backend")
		}
	case BackendS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for s3 backend")
		}
	case BackendSnapshot:
		if c.Storage.Snapshot.BaseURL == "" {
			return fmt.Errorf("storage.snapshot.base_url is required for snapshot backend")
		}
		validLocal := map[string]bool{BackendMemory: true, BackendFilesystem: true, BackendBolt: true, BackendSQLite: true}
		if !validLocal[c.Storage.Snapshot.Local] {
			return fmt.Errorf("storage.snapshot.local must be one of: memory, filesystem, bolt, sqlite")
		}
	}

	validCaches := map[string]bool{"none": true, "memory": true, "redis": true}
	if !validCaches[c.Cache.Backend] {
		return fmt.Errorf("cache.backend must be one of: none, memory, redis")
	}

	validLocks := map[string]bool{"memory": true, "redis": true, "noop": true}
	if !validLocks[c.Lock.Backend] {
		return fmt.Errorf("lock.backend must be one of: memory, redis, noop")
	}
	if c.Lock.TTL <= 0 {
		return fmt.Errorf("lock.ttl must be positive")
	}

	if c.Adapter.IOTimeout <= 0 {
		return fmt.Errorf("adapter.io_timeout must be positive")
	}

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error, fatal, panic")
	}

	return nil
}

// MustLoad loads configuration or panics on error.
// Useful for main function initialization.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
