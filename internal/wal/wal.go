// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package wal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/geocampaign/internal/logging"
	"github.com/tomtom215/geocampaign/internal/models"
)

// Queue is the durable set of reports that have not been delivered yet.
//
// Drain removes entries in the same transaction that reads them, so two
// concurrent synchronizations never submit the same entry. A failed
// submission hands the drained entries back through Restore.
type Queue interface {
	// Enqueue persists reports in one transaction.
	Enqueue(ctx context.Context, reports ...models.GeoReport) error

	// Drain atomically reads and removes pending entries.
	Drain(ctx context.Context) ([]*Entry, error)

	// Restore puts drained entries back, recording the failure.
	Restore(ctx context.Context, entries []*Entry, cause error) error

	// Pending returns a snapshot of queued entries without removing them.
	Pending(ctx context.Context) ([]*Entry, error)

	// Clear removes every queued entry and returns how many were removed.
	Clear(ctx context.Context) (int, error)

	Stats() Stats
	Close() error
}

// Entry is one queued report plus delivery bookkeeping.
type Entry struct {
	ID            string           `json:"id"`
	Report        models.GeoReport `json:"report"`
	CreatedAt     time.Time        `json:"created_at"`
	Attempts      int              `json:"attempts"`
	LastAttemptAt time.Time        `json:"last_attempt_at,omitempty"`
	LastError     string           `json:"last_error,omitempty"`
}

// key orders entries by creation time so a capped Drain takes the oldest first.
func (e *Entry) key() []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixQueued, e.CreatedAt.UnixNano(), e.ID))
}

// Reports extracts the reports of entries, in order.
func Reports(entries []*Entry) []models.GeoReport {
	out := make([]models.GeoReport, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Report)
	}
	return out
}

// Stats contains queue metrics for monitoring.
type Stats struct {
	PendingCount   int64
	TotalEnqueued  int64
	TotalDrained   int64
	TotalRestored  int64
	LastCompaction time.Time
	DBSizeBytes    int64
}

// BadgerWAL implements Queue on BadgerDB. The same database is shared with
// the state store and the message store through DB.
type BadgerWAL struct {
	db     *badger.DB
	config Config

	totalEnqueued atomic.Int64
	totalDrained  atomic.Int64
	totalRestored atomic.Int64

	mu             sync.RWMutex
	closed         bool
	lastCompaction time.Time
}

const prefixQueued = "queue:"

// Errors
var (
	// ErrWALClosed is returned when the queue is closed.
	ErrWALClosed = errors.New("queue is closed")

	// ErrNoReports is returned when Enqueue is called without reports.
	ErrNoReports = errors.New("no reports to enqueue")
)

func badgerOptions(cfg *Config) badger.Options {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.MemTableSize > 0 {
		opts.MemTableSize = cfg.MemTableSize
	}
	if cfg.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	if cfg.NumCompactors >= 2 {
		opts.NumCompactors = cfg.NumCompactors
	}
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	opts.Logger = nil
	return opts
}

// Open validates cfg and opens (or creates) the database.
func Open(cfg *Config) (*BadgerWAL, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid queue config: %w", err)
	}

	db, err := badger.Open(badgerOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("Event queue opened")

	return &BadgerWAL{db: db, config: *cfg, lastCompaction: time.Now()}, nil
}

// OpenForTesting opens an in-memory queue without validation.
func OpenForTesting() (*BadgerWAL, error) {
	cfg := DefaultConfig()
	cfg.InMemory = true
	cfg.SyncWrites = false
	cfg.Compression = false

	db, err := badger.Open(badgerOptions(&cfg))
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	return &BadgerWAL{db: db, config: cfg, lastCompaction: time.Now()}, nil
}

func (w *BadgerWAL) checkOpen() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrWALClosed
	}
	return nil
}

// Enqueue persists reports in a single transaction.
func (w *BadgerWAL) Enqueue(_ context.Context, reports ...models.GeoReport) error {
	start := time.Now()
	defer func() {
		RecordQueueWriteLatency(time.Since(start).Seconds())
	}()

	if err := w.checkOpen(); err != nil {
		return err
	}
	if len(reports) == 0 {
		return ErrNoReports
	}

	now := time.Now().UTC()
	err := w.db.Update(func(txn *badger.Txn) error {
		for i := range reports {
			entry := &Entry{
				ID:        uuid.New().String(),
				Report:    reports[i],
				CreatedAt: now,
			}
			data, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("marshal entry: %w", err)
			}
			if err := txn.Set(entry.key(), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		RecordQueueWriteFailure()
		return fmt.Errorf("write to BadgerDB: %w", err)
	}

	w.totalEnqueued.Add(int64(len(reports)))
	RecordQueueEnqueued(len(reports))
	return nil
}

// Drain reads and deletes up to DrainLimit entries in one transaction.
func (w *BadgerWAL) Drain(ctx context.Context) ([]*Entry, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}

	var entries []*Entry
	err := w.db.Update(func(txn *badger.Txn) error {
		entries = entries[:0]
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		var keys [][]byte
		prefix := []byte(prefixQueued)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if w.config.DrainLimit > 0 && len(keys) >= w.config.DrainLimit {
				break
			}

			item := it.Item()
			keys = append(keys, item.KeyCopy(nil))

			var entry Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				// Undecodable entries are dropped rather than blocking the queue forever.
				logging.Warn().Err(err).Str("key", string(item.Key())).Msg("Dropping undecodable queue entry")
				continue
			}
			entries = append(entries, &entry)
		}

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("delete entry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("drain queue: %w", err)
	}

	w.totalDrained.Add(int64(len(entries)))
	RecordQueueDrained(len(entries))
	return entries, nil
}

// Restore re-inserts drained entries under their original keys.
func (w *BadgerWAL) Restore(_ context.Context, entries []*Entry, cause error) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	lastError := ""
	if cause != nil {
		lastError = cause.Error()
	}
	now := time.Now().UTC()

	err := w.db.Update(func(txn *badger.Txn) error {
		for _, entry := range entries {
			restored := *entry
			restored.Attempts++
			restored.LastAttemptAt = now
			restored.LastError = lastError

			data, err := json.Marshal(&restored)
			if err != nil {
				return fmt.Errorf("marshal entry: %w", err)
			}
			if err := txn.Set(restored.key(), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		RecordQueueWriteFailure()
		return fmt.Errorf("restore entries: %w", err)
	}

	w.totalRestored.Add(int64(len(entries)))
	RecordQueueRestored(len(entries))
	return nil
}

// Pending returns a consistent snapshot of queued entries.
func (w *BadgerWAL) Pending(ctx context.Context) ([]*Entry, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}

	var entries []*Entry
	err := w.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixQueued)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var entry Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				logging.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("Queue failed to unmarshal entry")
				continue
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate queue: %w", err)
	}
	return entries, nil
}

// Clear removes every queued entry.
func (w *BadgerWAL) Clear(_ context.Context) (int, error) {
	if err := w.checkOpen(); err != nil {
		return 0, err
	}
	n, err := w.countPrefix()
	if err != nil {
		return 0, err
	}
	if err := w.db.DropPrefix([]byte(prefixQueued)); err != nil {
		return 0, fmt.Errorf("drop queue: %w", err)
	}
	UpdateQueuePendingEntries(0)
	return int(n), nil
}

func (w *BadgerWAL) countPrefix() (int64, error) {
	var count int64
	err := w.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixQueued)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Stats returns current queue statistics and refreshes the gauges.
func (w *BadgerWAL) Stats() Stats {
	w.mu.RLock()
	closed := w.closed
	lastCompaction := w.lastCompaction
	w.mu.RUnlock()

	if closed {
		return Stats{}
	}

	pending, err := w.countPrefix()
	if err != nil {
		logging.Warn().Err(err).Msg("Queue stats failed to count entries")
	}
	lsm, vlog := w.db.Size()

	UpdateQueuePendingEntries(pending)
	UpdateQueueDBSize(lsm + vlog)

	return Stats{
		PendingCount:   pending,
		TotalEnqueued:  w.totalEnqueued.Load(),
		TotalDrained:   w.totalDrained.Load(),
		TotalRestored:  w.totalRestored.Load(),
		LastCompaction: lastCompaction,
		DBSizeBytes:    lsm + vlog,
	}
}

// DB returns the underlying BadgerDB instance for the state and message
// stores. Callers must not close it; use Close on the queue.
func (w *BadgerWAL) DB() *badger.DB {
	return w.db
}

// GetConfig returns the queue configuration.
func (w *BadgerWAL) GetConfig() Config {
	return w.config
}

// RunGC runs value log GC until nothing is left to rewrite.
func (w *BadgerWAL) RunGC() error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if w.config.InMemory {
		return nil
	}

	start := time.Now()
	defer func() {
		RecordQueueGCLatency(time.Since(start).Seconds())
	}()

	for {
		err := w.db.RunValueLogGC(w.config.GCRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Close shuts down BadgerDB, giving up after CloseTimeout.
func (w *BadgerWAL) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	timeout := w.config.CloseTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	w.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- w.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		logging.Info().Msg("Event queue closed")
		return nil
	case <-time.After(timeout):
		logging.Warn().Dur("timeout", timeout).Msg("BadgerDB close timed out")
		return fmt.Errorf("badgerdb close timeout after %v", timeout)
	}
}
