// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

// Package messagestore persists received and synthesized push messages.
package messagestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/geocampaign/internal/logging"
	"github.com/tomtom215/geocampaign/internal/models"
)

// Key prefixes. Signaling messages and the messages synthesized from
// delivered reports live in separate namespaces so resolution never sees
// the latter.
const (
	PrefixSignaling = "message:"
	PrefixInbox     = "inbox:"
)

// ErrMessageNotFound is returned by Get for unknown ids.
var ErrMessageNotFound = errors.New("message not found")

// Store is the message storage used by trigger resolution and recovery.
type Store interface {
	// FindAll returns every stored message, oldest first.
	FindAll(ctx context.Context) ([]*models.Message, error)

	// Save inserts or replaces messages by id.
	Save(ctx context.Context, msgs ...*models.Message) error
}

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	prefix string
	now    func() time.Time
}

// NewBadgerStore creates the signaling message store on db.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return NewBadgerStoreWithPrefix(db, PrefixSignaling)
}

// NewBadgerStoreWithPrefix creates a store keeping its records under prefix.
func NewBadgerStoreWithPrefix(db *badger.DB, prefix string) *BadgerStore {
	return &BadgerStore{db: db, prefix: prefix, now: time.Now}
}

func (s *BadgerStore) messageKey(id string) []byte {
	return []byte(s.prefix + id)
}

// Save stores msgs in one transaction. A zero ReceivedAt is set to now.
func (s *BadgerStore) Save(_ context.Context, msgs ...*models.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	now := s.now().UTC()

	err := s.db.Update(func(txn *badger.Txn) error {
		for _, msg := range msgs {
			if msg == nil || msg.MessageID == "" {
				return fmt.Errorf("message without id")
			}
			if msg.ReceivedAt.IsZero() {
				msg.ReceivedAt = now
			}
			data, err := json.Marshal(msg)
			if err != nil {
				return fmt.Errorf("marshal message %s: %w", msg.MessageID, err)
			}
			if err := txn.Set(s.messageKey(msg.MessageID), data); err != nil {
				return fmt.Errorf("set message %s: %w", msg.MessageID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save messages: %w", err)
	}
	return nil
}

// Get returns one message.
func (s *BadgerStore) Get(_ context.Context, id string) (*models.Message, error) {
	var msg models.Message
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.messageKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrMessageNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &msg)
		})
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// FindAll returns every stored message ordered by ReceivedAt then id.
// Undecodable records are logged and skipped.
func (s *BadgerStore) FindAll(ctx context.Context) ([]*models.Message, error) {
	var msgs []*models.Message
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(s.prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var msg models.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &msg)
			}); err != nil {
				logging.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("Skipping undecodable stored message")
				continue
			}
			msgs = append(msgs, &msg)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].ReceivedAt.Equal(msgs[j].ReceivedAt) {
			return msgs[i].MessageID < msgs[j].MessageID
		}
		return msgs[i].ReceivedAt.Before(msgs[j].ReceivedAt)
	})
	return msgs, nil
}

// Count returns the number of stored messages.
func (s *BadgerStore) Count(_ context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(s.prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Clear removes every stored message.
func (s *BadgerStore) Clear(_ context.Context) error {
	if err := s.db.DropPrefix([]byte(s.prefix)); err != nil {
		return fmt.Errorf("drop messages: %w", err)
	}
	return nil
}
