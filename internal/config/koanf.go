// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/geocampaign/config.yaml",
	"/etc/geocampaign/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8642,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Storage: StorageConfig{
			Path:          "/data/geocampaign",
			InMemory:      false,
			SyncWrites:    true, // queued reports must survive process death
			GCInterval:    10 * time.Minute,
			GCRatio:       0.5,
			QueueEntryTTL: 0,
			DrainLimit:    1000,
		},
		Backend: BackendConfig{
			URL:                "",
			DeviceID:           "",
			Timeout:            30 * time.Second,
			RateLimit:          2,
			RateBurst:          1,
			BreakerMaxFailures: 5,
			BreakerTimeout:     60 * time.Second,
			BreakerInterval:    2 * time.Minute,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2,
		},
		Reporting: ReportingConfig{
			SyncInterval:        5 * time.Minute,
			RegistrationEnabled: true,
		},
		Geofence: GeofenceConfig{
			DeliveryTimeZone:   "Local",
			CheckStatusCache:   true,
			DuplicateCacheSize: 10000,
			DuplicateCacheTTL:  24 * time.Hour,
		},
		Monitor: MonitorConfig{
			Capacity:       100,
			PackageName:    "com.google.android.gms",
			RecoverOnStart: true,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{},
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML file
//  3. Environment variables: explicit mapping table, highest priority
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
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

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

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

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored so unrelated environment does not leak in.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Storage
	"storage_path":     "storage.path",
	"wal_path":         "storage.path",
	"storage_inmemory": "storage.in_memory",
	"wal_sync_writes":  "storage.sync_writes",
	"wal_gc_interval":  "storage.gc_interval",
	"wal_gc_ratio":     "storage.gc_ratio",
	"wal_entry_ttl":    "storage.queue_entry_ttl",
	"wal_drain_limit":  "storage.drain_limit",

	// Backend
	"backend_url":                  "backend.url",
	"device_id":                    "backend.device_id",
	"backend_timeout":              "backend.timeout",
	"backend_rate_limit":           "backend.rate_limit",
	"backend_rate_burst":           "backend.rate_burst",
	"backend_breaker_max_failures": "backend.breaker_max_failures",
	"backend_breaker_timeout":      "backend.breaker_timeout",
	"backend_breaker_interval":     "backend.breaker_interval",

	// Retry
	"retry_max_attempts":  "retry.max_attempts",
	"retry_initial_delay": "retry.initial_delay",
	"retry_max_delay":     "retry.max_delay",
	"retry_multiplier":    "retry.multiplier",

	// Reporting
	"sync_interval":        "reporting.sync_interval",
	"registration_enabled": "reporting.registration_enabled",

	// Geofence
	"delivery_time_zone":   "geofence.delivery_time_zone",
	"check_status_cache":   "geofence.check_status_cache",
	"duplicate_cache_size": "geofence.duplicate_cache_size",
	"duplicate_cache_ttl":  "geofence.duplicate_cache_ttl",

	// Monitor
	"monitor_capacity":         "monitor.capacity",
	"monitor_package_name":     "monitor.package_name",
	"monitor_recover_on_start": "monitor.recover_on_start",

	// Security
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - BACKEND_URL -> backend.url
//   - WAL_PATH -> storage.path
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
