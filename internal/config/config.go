package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"   validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"       validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	HSTS            bool          `mapstructure:"hsts"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig holds the shared API key. Exactly one of APIKey or APIKeyHash
// is expected; the hash is a bcrypt digest produced by cmd/hash-generator.
type AuthConfig struct {
	APIKey     string `mapstructure:"api_key"      validate:"required_without=APIKeyHash"`
	APIKeyHash string `mapstructure:"api_key_hash" validate:"required_without=APIKey"`
}

// RateLimitConfig controls per-client request throttling on the API.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests" validate:"gt=0"`
	Window   time.Duration `mapstructure:"window"   validate:"gt=0"`
	Backend  string        `mapstructure:"backend"  validate:"oneof=memory redis"`
}

// RedisConfig points at the shared redis instance. An empty URL disables
// every redis-backed component.
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// CacheConfig tunes the read cache in front of the task store.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// CacheEnabled reports whether the redis read cache should be used.
func (c *Config) CacheEnabled() bool {
	return c.Redis.URL != "" && c.Cache.TTL > 0
}
