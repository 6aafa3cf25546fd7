// Package config handles application configuration.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration (Environment
// section). Every variable shares Prefix (default "IAM").
type Config struct {
	Prefix string

	Host        string
	Port        int
	TLSCertFile string
	TLSKeyFile  string

	SessionTTL time.Duration

	// Backend selects the storage.Store implementation: "memory" or
	// "postgres".
	Backend     string
	DatabaseURL string

	// ReplayBackend selects the authn.ReplayCache implementation:
	// "memory", "redis", or "none".
	ReplayBackend string
	RedisAddr     string
	RedisPassword string
	ReplayWindow  time.Duration

	LogLevel  string
	LogFormat string // "json" or "text"
}

// Load reads configuration from environment variables. When prefix is
// empty it is taken from IAM_HEADER_PREFIX, and defaults to "IAM" when
// that is unset too.
func Load(prefix string) *Config {
	if prefix == "" {
		prefix = getEnv("IAM_HEADER_PREFIX", "IAM")
	}
	get := func(suffix, def string) string { return getEnv(prefix+"_"+suffix, def) }
	getInt := func(suffix string, def int) int { return getEnvInt(prefix+"_"+suffix, def) }
	getDur := func(suffix string, def time.Duration) time.Duration { return getEnvDuration(prefix+"_"+suffix, def) }

	return &Config{
		Prefix: prefix,

		Host:        get("HOST", "localhost"),
		Port:        getInt("PORT", 8443),
		TLSCertFile: get("TLS_CERT", ""),
		TLSKeyFile:  get("TLS_KEY", ""),

		SessionTTL: getDur("SESSION_TTL", time.Hour),

		Backend:     get("STORAGE_BACKEND", "memory"),
		DatabaseURL: get("DATABASE_URL", ""),

		ReplayBackend: get("REPLAY_BACKEND", "memory"),
		RedisAddr:     get("REDIS_ADDR", "localhost:6379"),
		RedisPassword: get("REDIS_PASSWORD", ""),
		ReplayWindow:  getDur("REPLAY_WINDOW", 5*time.Minute),

		LogLevel:  get("LOG_LEVEL", "info"),
		LogFormat: get("LOG_FORMAT", "json"),
	}
}

// TLSEnabled reports whether both halves of a TLS keypair were configured.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// Addr is the listen address derived from Host and Port.
func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
