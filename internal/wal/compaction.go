// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package wal

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/geocampaign/internal/logging"
)

// Compactor periodically drops queue entries older than EntryTTL, runs
// BadgerDB value log GC and refreshes the queue gauges.
type Compactor struct {
	wal    *BadgerWAL
	config Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool

	lastRun     time.Time
	lastExpired int64
}

// NewCompactor creates a new compaction manager.
func NewCompactor(wal *BadgerWAL) *Compactor {
	return &Compactor{
		wal:    wal,
		config: wal.GetConfig(),
	}
}

// Start begins the background compaction loop.
func (c *Compactor) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.running = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run()

	logging.Info().Dur("interval", c.config.CompactInterval).Msg("Queue compactor started")
	return nil
}

// Stop gracefully stops the compaction loop.
func (c *Compactor) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.cancel()
	c.running = false
	c.mu.Unlock()

	c.wg.Wait()
	logging.Info().Msg("Queue compactor stopped")
}

// IsRunning returns whether the compactor is active.
func (c *Compactor) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Compactor) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CompactInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.compact()
		}
	}
}

func (c *Compactor) compact() {
	start := time.Now()

	expired, err := c.deleteExpiredEntries()
	if err != nil {
		logging.Error().Err(err).Msg("Queue compaction failed to delete expired entries")
	}

	if err := c.wal.RunGC(); err != nil {
		logging.Error().Err(err).Msg("Queue compaction GC error")
	}

	c.wal.mu.Lock()
	c.wal.lastCompaction = time.Now()
	c.wal.mu.Unlock()

	c.mu.Lock()
	c.lastRun = time.Now()
	c.lastExpired = expired
	c.mu.Unlock()

	stats := c.wal.Stats()
	RecordQueueCompaction(time.Since(start).Seconds())

	if expired > 0 {
		logging.Warn().
			Int64("expired", expired).
			Int64("pending", stats.PendingCount).
			Dur("ttl", c.config.EntryTTL).
			Msg("Queue compaction dropped undelivered reports past their TTL")
	}
}

// deleteExpiredEntries removes entries created before now - EntryTTL.
func (c *Compactor) deleteExpiredEntries() (int64, error) {
	if c.config.EntryTTL <= 0 {
		return 0, nil
	}
	if err := c.wal.checkOpen(); err != nil {
		return 0, err
	}

	var count int64
	cutoff := time.Now().Add(-c.config.EntryTTL)

	err := c.wal.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		var expired [][]byte
		prefix := []byte(prefixQueued)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var entry Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				continue
			}
			if entry.CreatedAt.Before(cutoff) {
				expired = append(expired, item.KeyCopy(nil))
			}
		}

		for _, key := range expired {
			if err := txn.Delete(key); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if count > 0 && err == nil {
		RecordQueueExpired(count)
	}
	return count, err
}

// RunNow triggers an immediate compaction run.
func (c *Compactor) RunNow() {
	c.compact()
}

// CompactorStats contains statistics about compaction.
type CompactorStats struct {
	LastRun     time.Time
	LastExpired int64
}

// GetStats returns compaction statistics.
func (c *Compactor) GetStats() CompactorStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CompactorStats{LastRun: c.lastRun, LastExpired: c.lastExpired}
}
