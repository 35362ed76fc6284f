// Package config provides configuration management for levelgate.
// It handles loading and validating configuration from YAML/JSON files and environment variables.
package config

import "time"

// AppConfig represents the complete application configuration
type AppConfig struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Store     StoreConfig     `koanf:"store"`
	Session   SessionConfig   `koanf:"session"`
	Audit     AuditConfig     `koanf:"audit"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ListenAddr     string        `koanf:"listen_addr"`
	CertFile       string        `koanf:"cert_file"`
	KeyFile        string        `koanf:"key_file"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	RedactMode string `koanf:"redact_mode"` // "production", "development" or "debug"
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// StoreConfig holds user directory and audit log database configuration
type StoreConfig struct {
	Type       string `koanf:"type"` // "postgres" or "sqlite"
	DSN        string `koanf:"dsn"`
	SQLitePath string `koanf:"sqlite_path"`
}

// SessionConfig holds the Redis-backed session principal lookup configuration
type SessionConfig struct {
	Enabled       bool   `koanf:"enabled"`
	CookieName    string `koanf:"cookie_name"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	KeyPrefix     string `koanf:"key_prefix"`
}

// AuditConfig holds request audit configuration
type AuditConfig struct {
	Enabled                bool   `koanf:"enabled"`
	Sink                   string `koanf:"sink"` // "store" or "s3"
	MaxBodyBytes           int64  `koanf:"max_body_bytes"`
	S3BucketName           string `koanf:"s3_bucket_name"`
	S3Region               string `koanf:"s3_region"`
	S3Endpoint             string `koanf:"s3_endpoint"` // Custom S3 endpoint (e.g., for MinIO)
	S3AccessKey            string `koanf:"s3_access_key"`
	S3SecretKey            string `koanf:"s3_secret_key"`
	S3Prefix               string `koanf:"s3_prefix"`
	S3ServerSideEncryption string `koanf:"s3_server_side_encryption"`
}

// RateLimitConfig bounds credential-bearing API traffic
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}
