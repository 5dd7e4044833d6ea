// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

// Package config loads Runit configuration from defaults, an optional YAML
// file and environment variables.
package config

import (
	"net"
	"strconv"
	"time"
)

// DefaultBackendURL is used when NEXT_PUBLIC_API_URL is not set.
const DefaultBackendURL = "http://localhost:8080"

// DefaultCORSOrigin is the only cross-origin caller allowed by default.
const DefaultCORSOrigin = "http://localhost:3000"

// Config is the complete application configuration.
type Config struct {
	Backend   BackendConfig   `koanf:"backend"`
	Server    ServerConfig    `koanf:"server"`
	Session   SessionConfig   `koanf:"session"`
	Security  SecurityConfig  `koanf:"security"`
	Dashboard DashboardConfig `koanf:"dashboard"`
	Audit     AuditConfig     `koanf:"audit"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// BackendConfig configures the external REST API client.
type BackendConfig struct {
	URL            string        `koanf:"url"`
	Timeout        time.Duration `koanf:"timeout"`
	CircuitBreaker bool          `koanf:"circuit_breaker"` // off by default: failures surface as-is
	BreakerFailure int           `koanf:"breaker_failures"`
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SessionConfig configures browser session storage.
type SessionConfig struct {
	Store           string        `koanf:"store"` // memory or badger
	StorePath       string        `koanf:"store_path"`
	CookieName      string        `koanf:"cookie_name"`
	CookieSecure    bool          `koanf:"cookie_secure"`
	TTL             time.Duration `koanf:"ttl"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// SecurityConfig holds route guard, CORS and rate limit settings.
type SecurityConfig struct {
	ProtectedPaths  []string      `koanf:"protected_paths"`
	AuthPages       []string      `koanf:"auth_pages"`
	SignInPath      string        `koanf:"signin_path"`
	HomePath        string        `koanf:"home_path"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_requests"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	AuthRateLimit   int           `koanf:"auth_rate_limit"`
}

// DashboardConfig holds admin screen and analytics behavior.
type DashboardConfig struct {
	SearchDebounce      time.Duration `koanf:"search_debounce"`
	DeleteConfirmTTL    time.Duration `koanf:"delete_confirm_ttl"`
	AnalyticsWindowDays int           `koanf:"analytics_window_days"`
	WSMessagesPerSecond float64       `koanf:"ws_messages_per_second"`
	WSBurst             int           `koanf:"ws_burst"`
}

// AuditConfig configures the audit trail of sign-ins, denials and
// dashboard changes.
type AuditConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Store           string        `koanf:"store"` // memory or badger
	StorePath       string        `koanf:"store_path"`
	Capacity        int           `koanf:"capacity"`
	RetentionDays   int           `koanf:"retention_days"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	LogToStdout     bool          `koanf:"log_to_stdout"`
}

// Retention returns RetentionDays as a duration.
func (a AuditConfig) Retention() time.Duration {
	return time.Duration(a.RetentionDays) * 24 * time.Hour
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
