// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Backend.URL = "https://campaigns.example.com"
	cfg.Backend.DeviceID = "device-1"
	return cfg
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"backend path", func(c *Config) { c.Backend.URL = "https://x.example.com/api" }, "BACKEND_URL"},
		{"backend scheme", func(c *Config) { c.Backend.URL = "ftp://x.example.com" }, "BACKEND_URL"},
		{"missing device", func(c *Config) { c.Backend.DeviceID = "" }, "DEVICE_ID"},
		{"in memory needs no path", func(c *Config) { c.Storage.Path = ""; c.Storage.InMemory = true }, ""},
		{"missing path", func(c *Config) { c.Storage.Path = "" }, "WAL_PATH"},
		{"negative drain limit", func(c *Config) { c.Storage.DrainLimit = -1 }, "WAL_DRAIN_LIMIT"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "RETRY_MAX_ATTEMPTS"},
		{"delay inverted", func(c *Config) { c.Retry.MaxDelay = time.Millisecond }, "RETRY_INITIAL_DELAY"},
		{"bad zone", func(c *Config) { c.Geofence.DeliveryTimeZone = "Mars/Olympus" }, "DELIVERY_TIME_ZONE"},
		{"zero capacity", func(c *Config) { c.Monitor.Capacity = 0 }, "MONITOR_CAPACITY"},
		{"rate limit disabled skips bounds", func(c *Config) { c.Security.RateLimitDisabled = true; c.Security.RateLimitReqs = 0 }, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
