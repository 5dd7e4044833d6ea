// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateDashboard(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateBackend() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil {
		return fmt.Errorf("NEXT_PUBLIC_API_URL is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("NEXT_PUBLIC_API_URL must use http or https, got %q", c.Backend.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("NEXT_PUBLIC_API_URL must include a host, got %q", c.Backend.URL)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}
	if c.Backend.CircuitBreaker && c.Backend.BreakerFailure < 1 {
		return fmt.Errorf("BACKEND_BREAKER_FAILURES must be at least 1 when the circuit breaker is enabled")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateSession() error {
	switch c.Session.Store {
	case "memory":
	case "badger":
		if c.Session.StorePath == "" {
			return fmt.Errorf("SESSION_STORE_PATH is required when SESSION_STORE=badger")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be memory or badger, got %q", c.Session.Store)
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	for _, p := range append(append([]string{}, c.Security.ProtectedPaths...), c.Security.AuthPages...) {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("guarded path %q must start with /", p)
		}
	}
	// Responses carry the session cookie, and browsers refuse credentialed
	// responses with a wildcard origin.
	for _, o := range c.Security.CORSOrigins {
		if strings.TrimSpace(o) == "*" {
			return fmt.Errorf("CORS_ORIGINS must list origins instead of %q", o)
		}
	}
	if c.Security.RateLimitReqs < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative")
	}
	if c.Security.RateLimitReqs > 0 && c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateDashboard() error {
	if c.Dashboard.SearchDebounce < 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE must not be negative")
	}
	if c.Dashboard.DeleteConfirmTTL <= 0 {
		return fmt.Errorf("DELETE_CONFIRM_TTL must be positive")
	}
	if c.Dashboard.AnalyticsWindowDays < 1 || c.Dashboard.AnalyticsWindowDays > 366 {
		return fmt.Errorf("ANALYTICS_WINDOW_DAYS must be between 1 and 366, got %d", c.Dashboard.AnalyticsWindowDays)
	}
	return nil
}

func (c *Config) validateAudit() error {
	if !c.Audit.Enabled {
		return nil
	}
	switch c.Audit.Store {
	case "memory":
		if c.Audit.Capacity < 1 {
			return fmt.Errorf("AUDIT_CAPACITY must be positive, got %d", c.Audit.Capacity)
		}
	case "badger":
		if c.Audit.StorePath == "" {
			return fmt.Errorf("AUDIT_STORE_PATH is required for the badger audit store")
		}
	default:
		return fmt.Errorf("AUDIT_STORE must be memory or badger, got %q", c.Audit.Store)
	}
	if c.Audit.RetentionDays < 0 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must not be negative")
	}
	if c.Audit.CleanupInterval <= 0 {
		return fmt.Errorf("AUDIT_CLEANUP_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
