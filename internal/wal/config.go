// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package wal

import (
	"fmt"
	"time"

	"github.com/tomtom215/geocampaign/internal/config"
)

// Config holds queue and BadgerDB settings.
type Config struct {
	// Path is the directory where BadgerDB stores its files. Ignored when InMemory.
	Path string

	// InMemory keeps everything in memory. Only for tests and ephemeral runs:
	// queued reports do not survive a restart.
	InMemory bool

	// SyncWrites forces fsync after every write.
	SyncWrites bool

	// EntryTTL drops queued reports older than this during compaction. 0 disables.
	EntryTTL time.Duration

	// DrainLimit caps how many entries one Drain removes. 0 means no cap.
	DrainLimit int

	// CompactInterval is the time between compaction and GC runs.
	CompactInterval time.Duration

	// GCRatio is the value log GC discard ratio.
	GCRatio float64

	// CloseTimeout bounds how long Close waits for BadgerDB.
	CloseTimeout time.Duration

	MemTableSize     int64
	ValueLogFileSize int64
	NumCompactors    int
	Compression      bool
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Path:             "/data/geocampaign",
		SyncWrites:       true,
		EntryTTL:         0,
		DrainLimit:       1000,
		CompactInterval:  10 * time.Minute,
		GCRatio:          0.5,
		CloseTimeout:     30 * time.Second,
		MemTableSize:     16 << 20,
		ValueLogFileSize: 64 << 20,
		NumCompactors:    2,
		Compression:      true,
	}
}

// FromStorageConfig maps the application storage section onto a queue Config.
func FromStorageConfig(sc config.StorageConfig) Config {
	cfg := DefaultConfig()
	cfg.Path = sc.Path
	cfg.InMemory = sc.InMemory
	cfg.SyncWrites = sc.SyncWrites
	cfg.EntryTTL = sc.QueueEntryTTL
	cfg.DrainLimit = sc.DrainLimit
	if sc.GCInterval > 0 {
		cfg.CompactInterval = sc.GCInterval
	}
	if sc.GCRatio > 0 {
		cfg.GCRatio = sc.GCRatio
	}
	return cfg
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.CompactInterval < time.Second {
		return fmt.Errorf("compact interval must be at least 1s")
	}
	if c.GCRatio <= 0 || c.GCRatio >= 1 {
		return fmt.Errorf("gc ratio must be between 0 and 1")
	}
	if c.DrainLimit < 0 {
		return fmt.Errorf("drain limit must not be negative")
	}
	if c.NumCompactors < 2 {
		return fmt.Errorf("num compactors must be at least 2")
	}
	if c.MemTableSize < 1<<20 {
		return fmt.Errorf("memtable size must be at least 1MB")
	}
	return nil
}
