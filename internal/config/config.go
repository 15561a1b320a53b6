// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the server configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// MinServiceRoleKeyLength is the minimum accepted length of the elevated store credential.
const MinServiceRoleKeyLength = 32

// knownWeakKeys contains example keys that must never reach production.
var knownWeakKeys = []string{
	"change-me-to-a-32-byte-service-key",
	"REPLACE_WITH_YOUR_OWN_SERVICE_ROLE_KEY",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBDriver   string `env:"SERRANITO_DB_DRIVER" envDefault:"sqlite"`
	DBURL      string `env:"SERRANITO_DB_URL" envDefault:"./data/serranito.db"`
	ServerHost string `env:"SERRANITO_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"SERRANITO_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"SERRANITO_ENV" envDefault:"development"`
	LogLevel   string `env:"SERRANITO_LOG_LEVEL" envDefault:"info"`

	// Elevated credential for privileged writes. Optional at load time: when
	// it is missing the admin endpoints answer 500 instead of refusing to boot.
	ServiceRoleKey string `env:"SERRANITO_SERVICE_ROLE_KEY"`
	IdentityHeader string `env:"SERRANITO_IDENTITY_HEADER" envDefault:"X-User-Email"`

	// Cache configuration
	RedisURL     string `env:"SERRANITO_REDIS_URL"`                              // Optional Redis URL for the post-list cache
	CachePrefix  string `env:"SERRANITO_CACHE_PREFIX" envDefault:"serranito:"`   // Redis key prefix
	CacheTTL     int    `env:"SERRANITO_CACHE_TTL" envDefault:"300"`             // Post-list TTL in seconds
	CacheMaxSize int    `env:"SERRANITO_CACHE_MAX_SIZE" envDefault:"1000"`       // Max memory cache entries

	// CacheRequireShared must be set when more than one replica runs: the
	// memory cache is per process and is never used then.
	CacheRequireShared bool `env:"SERRANITO_CACHE_REQUIRE_SHARED" envDefault:"false"`

	// TrustProxy takes the client IP from X-Real-IP/X-Forwarded-For. Only
	// enable it behind a proxy that overwrites those headers.
	TrustProxy bool `env:"SERRANITO_TRUST_PROXY" envDefault:"false"`

	LoginRateLimit float64 `env:"SERRANITO_LOGIN_RPS" envDefault:"0.5"`
	LoginBurst     int     `env:"SERRANITO_LOGIN_BURST" envDefault:"5"`

	EventRetentionDays int    `env:"SERRANITO_EVENT_RETENTION_DAYS" envDefault:"90"`
	RetentionSchedule  string `env:"SERRANITO_RETENTION_SCHEDULE" envDefault:"@daily"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// HasServiceRoleKey reports whether privileged writes can be attempted at all.
func (c Config) HasServiceRoleKey() bool {
	return c.ServiceRoleKey != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	switch cfg.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("SERRANITO_DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, cfg.DBDriver)
	}

	if strings.TrimSpace(cfg.IdentityHeader) == "" {
		return nil, fmt.Errorf("SERRANITO_IDENTITY_HEADER must not be empty")
	}
	cfg.IdentityHeader = http.CanonicalHeaderKey(strings.TrimSpace(cfg.IdentityHeader))

	if cfg.EventRetentionDays < 1 {
		return nil, fmt.Errorf("SERRANITO_EVENT_RETENTION_DAYS must be positive, got %d", cfg.EventRetentionDays)
	}

	if !cfg.HasServiceRoleKey() {
		slog.Warn("SERRANITO_SERVICE_ROLE_KEY is not set; admin endpoints will report a server misconfiguration")
		return cfg, nil
	}

	if len(cfg.ServiceRoleKey) < MinServiceRoleKeyLength {
		return nil, fmt.Errorf("SERRANITO_SERVICE_ROLE_KEY must be at least %d bytes long, got %d bytes; "+
			"generate one with: openssl rand -base64 32",
			MinServiceRoleKeyLength, len(cfg.ServiceRoleKey))
	}

	for _, weak := range knownWeakKeys {
		if cfg.ServiceRoleKey == weak {
			return nil, fmt.Errorf("SERRANITO_SERVICE_ROLE_KEY is a known example value and must not be used")
		}
	}

	return cfg, nil
}
