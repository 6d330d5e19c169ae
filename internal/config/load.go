package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// TASKBOARD_SERVER_PORT or TASKBOARD_AUTH_API_KEY.
const EnvPrefix = "TASKBOARD"

var defaults = map[string]any{
	"server.port":             8080,
	"server.log_level":        "info",
	"server.hsts":             false,
	"server.shutdown_timeout": "10s",
	"rate_limit.enabled":      true,
	"rate_limit.requests":     100,
	"rate_limit.window":       "60s",
	"rate_limit.backend":      "memory",
	"cache.ttl":               "30s",
}

// Keys without defaults still need binding so Unmarshal sees them in the env.
var boundKeys = []string{
	"database.url",
	"auth.api_key",
	"auth.api_key_hash",
	"redis.url",
}

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables take precedence over the file.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path. An empty path searches
// the working directory for config.yaml and tolerates its absence.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range boundKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags and the cross-section rules tags cannot express.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.Backend == "redis" && cfg.Redis.URL == "" {
		return errors.New("config validation failed: rate_limit.backend=redis requires redis.url")
	}
	return nil
}
