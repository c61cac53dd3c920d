// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package config

import (
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Storage   StorageConfig   `koanf:"storage"`
	Backend   BackendConfig   `koanf:"backend"`
	Retry     RetryConfig     `koanf:"retry"`
	Reporting ReportingConfig `koanf:"reporting"`
	Geofence  GeofenceConfig  `koanf:"geofence"`
	Monitor   MonitorConfig   `koanf:"monitor"`
	Security  SecurityConfig  `koanf:"security"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`          // read/write timeout
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"` // graceful shutdown budget
	Environment     string        `koanf:"environment"`      // development or production
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// StorageConfig holds the badger settings shared by the queue, the state
// store and the message store. All three live in one database.
type StorageConfig struct {
	Path       string        `koanf:"path"`
	InMemory   bool          `koanf:"in_memory"` // tests and ephemeral runs
	SyncWrites bool          `koanf:"sync_writes"`
	GCInterval time.Duration `koanf:"gc_interval"` // value log GC cadence
	GCRatio    float64       `koanf:"gc_ratio"`

	// QueueEntryTTL drops queued reports that could not be delivered for this
	// long. 0 keeps them until delivered.
	QueueEntryTTL time.Duration `koanf:"queue_entry_ttl"`

	// DrainLimit caps the reports submitted by one synchronization so the
	// drain stays within a single badger transaction. The periodic sync loop
	// picks up the remainder. 0 submits the whole queue.
	DrainLimit int `koanf:"drain_limit"`
}

// BackendConfig describes the campaign backend that receives event reports.
type BackendConfig struct {
	URL      string        `koanf:"url"`
	DeviceID string        `koanf:"device_id"`
	Timeout  time.Duration `koanf:"timeout"`

	// Client-side submission limiter (golang.org/x/time/rate).
	RateLimit float64 `koanf:"rate_limit"` // batches per second
	RateBurst int     `koanf:"rate_burst"`

	// Circuit breaker (sony/gobreaker).
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
	BreakerInterval    time.Duration `koanf:"breaker_interval"`
}

// RetryConfig is the retry policy wrapped around one batch submission.
type RetryConfig struct {
	MaxAttempts  int           `koanf:"max_attempts"`
	InitialDelay time.Duration `koanf:"initial_delay"`
	MaxDelay     time.Duration `koanf:"max_delay"`
	Multiplier   float64       `koanf:"multiplier"`
}

// ReportingConfig controls the reporting pipeline.
type ReportingConfig struct {
	// SyncInterval is how often queued reports are retried in the background.
	SyncInterval time.Duration `koanf:"sync_interval"`

	// RegistrationEnabled seeds the push registration flag on first start.
	RegistrationEnabled bool `koanf:"registration_enabled"`
}

// GeofenceConfig holds trigger resolution policy.
type GeofenceConfig struct {
	// DeliveryTimeZone is the IANA zone delivery windows are evaluated in.
	// "Local" uses the process zone.
	DeliveryTimeZone string `koanf:"delivery_time_zone"`

	// CheckStatusCache skips campaigns already known to be finished or
	// suspended at resolution time.
	CheckStatusCache bool `koanf:"check_status_cache"`

	DuplicateCacheSize int           `koanf:"duplicate_cache_size"`
	DuplicateCacheTTL  time.Duration `koanf:"duplicate_cache_ttl"`
}

// MonitorConfig describes the host proximity-monitoring capability.
type MonitorConfig struct {
	Capacity int `koanf:"capacity"`

	// PackageName identifies the capability in data-cleared system events.
	PackageName string `koanf:"package_name"`

	// RecoverOnStart runs a full recovery when the service starts.
	RecoverOnStart bool `koanf:"recover_on_start"`
}

// SecurityConfig holds HTTP edge protections.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// Location resolves DeliveryTimeZone. Validate guarantees it loads.
func (g GeofenceConfig) Location() *time.Location {
	if g.DeliveryTimeZone == "" || g.DeliveryTimeZone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(g.DeliveryTimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load loads configuration with defaults, optional YAML file and environment overrides.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
