// Package config loads service configuration from environment variables,
// applies defaults and validates everything at startup.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Parse    ParseConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"5m"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds settings for the optional run store.
// When URL is empty, parse runs are not stored.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. DATABASE_URL and DB_URL are both accepted.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// ParseConfig holds upload parsing settings.
type ParseConfig struct {
	// MaxFileSize is the largest accepted upload in bytes (default: 100MB)
	MaxFileSize int64 `env:"PARSE_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the number of parses allowed to run at once (default: 5)
	MaxConcurrent int `env:"PARSE_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a request waits for a parse slot (default: 30s)
	MaxWaitTime time.Duration `env:"PARSE_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single parse (default: 5m)
	Timeout time.Duration `env:"PARSE_TIMEOUT" default:"5m"`

	// MaxResponseRecords caps records echoed back by the API; 0 means all.
	MaxResponseRecords int `env:"PARSE_MAX_RESPONSE_RECORDS" default:"0"`
}

// RateLimitConfig holds per-IP request throttling settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP / X-Forwarded-For headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key checks on /api routes.
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
