// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/runit/config.yaml",
}

// DefaultEnvFiles are loaded into the process environment before the
// environment layer is read. Variables already set are never overwritten.
var DefaultEnvFiles = []string{".env.local", ".env"}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default returns the built-in configuration, the lowest layer of Load.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:            DefaultBackendURL,
			Timeout:        30 * time.Second,
			CircuitBreaker: false,
			BreakerFailure: 5,
			BreakerTimeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    45 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Session: SessionConfig{
			Store:           "memory",
			StorePath:       "/data/sessions",
			CookieName:      "runit_sid",
			CookieSecure:    false,
			TTL:             7 * 24 * time.Hour,
			CleanupInterval: 15 * time.Minute,
		},
		Security: SecurityConfig{
			ProtectedPaths:  []string{"/dashboard", "/home", "/perfil", "/configuracoes"},
			AuthPages:       []string{"/signin", "/signup"},
			SignInPath:      "/signin",
			HomePath:        "/dashboard",
			CORSOrigins:     []string{DefaultCORSOrigin},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			AuthRateLimit:   10,
		},
		Dashboard: DashboardConfig{
			SearchDebounce:      300 * time.Millisecond,
			DeleteConfirmTTL:    10 * time.Second,
			AnalyticsWindowDays: 30,
			WSMessagesPerSecond: 20,
			WSBurst:             40,
		},
		Audit: AuditConfig{
			Enabled:         true,
			Store:           "memory",
			StorePath:       "/data/audit",
			Capacity:        10000,
			RetentionDays:   90,
			CleanupInterval: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration with the following precedence:
//  1. Defaults
//  2. Optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables, including those from .env files
func Load() (*Config, error) {
	if err := loadEnvFiles(DefaultEnvFiles); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Backend.URL = strings.TrimRight(cfg.Backend.URL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// BackendURLFromEnv reports whether the backend URL was set explicitly.
// An unset URL silently targets localhost, so callers log a warning.
func BackendURLFromEnv() bool {
	_, public := os.LookupEnv("NEXT_PUBLIC_API_URL")
	_, own := os.LookupEnv("RUNIT_API_URL")
	return public || own
}

func loadEnvFiles(paths []string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.protected_paths",
	"security.auth_pages",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	// NEXT_PUBLIC_API_URL is kept for deployments that share the
	// frontend's environment file.
	"next_public_api_url":      "backend.url",
	"runit_api_url":            "backend.url",
	"backend_timeout":          "backend.timeout",
	"backend_circuit_breaker":  "backend.circuit_breaker",
	"backend_breaker_failures": "backend.breaker_failures",
	"backend_breaker_timeout":  "backend.breaker_timeout",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"session_store":            "session.store",
	"session_store_path":       "session.store_path",
	"session_cookie_name":      "session.cookie_name",
	"session_cookie_secure":    "session.cookie_secure",
	"session_ttl":              "session.ttl",
	"session_cleanup_interval": "session.cleanup_interval",

	"protected_paths":     "security.protected_paths",
	"auth_pages":          "security.auth_pages",
	"signin_path":         "security.signin_path",
	"home_path":           "security.home_path",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"auth_rate_limit":     "security.auth_rate_limit",

	"search_debounce":        "dashboard.search_debounce",
	"delete_confirm_ttl":     "dashboard.delete_confirm_ttl",
	"analytics_window_days":  "dashboard.analytics_window_days",
	"ws_messages_per_second": "dashboard.ws_messages_per_second",
	"ws_burst":               "dashboard.ws_burst",

	"audit_enabled":          "audit.enabled",
	"audit_store":            "audit.store",
	"audit_store_path":       "audit.store_path",
	"audit_capacity":         "audit.capacity",
	"audit_retention_days":   "audit.retention_days",
	"audit_cleanup_interval": "audit.cleanup_interval",
	"audit_log_to_stdout":    "audit.log_to_stdout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
