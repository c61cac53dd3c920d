// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package cache

import (
	"sync"
	"time"
)

const (
	defaultCapacity = 10000
	defaultTTL      = 24 * time.Hour
)

type node struct {
	key       string
	addedAt   time.Time
	expiresAt time.Time
	prev      *node
	next      *node
}

// DuplicateSuppressor remembers recently seen message ids.
type DuplicateSuppressor struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration
	now      func() time.Time

	items map[string]*node

	// head.next is the most recently used entry, tail.prev the least.
	head *node
	tail *node

	hits   int64
	misses int64
}

// NewDuplicateSuppressor creates a suppressor. Non-positive arguments fall
// back to 10000 entries and a 24h TTL.
func NewDuplicateSuppressor(capacity int, ttl time.Duration) *DuplicateSuppressor {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	s := &DuplicateSuppressor{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*node, capacity),
		head:     &node{},
		tail:     &node{},
	}
	s.head.next = s.tail
	s.tail.prev = s.head
	return s
}

// Add records ids. Existing ids get a fresh TTL.
func (s *DuplicateSuppressor) Add(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, id := range ids {
		if id == "" {
			continue
		}
		s.put(id, now)
	}
}

// Contains reports whether id was recorded and has not expired. It does not
// change recency.
func (s *DuplicateSuppressor) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[id]
	return ok && !s.now().After(n.expiresAt)
}

// IsDuplicate reports whether id was already recorded. An id seen for the
// first time is recorded and false is returned.
func (s *DuplicateSuppressor) IsDuplicate(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if n, ok := s.items[id]; ok {
		if !now.After(n.expiresAt) {
			s.moveToFront(n)
			s.hits++
			return true
		}
		s.remove(n)
	}

	s.put(id, now)
	s.misses++
	return false
}

// Remove forgets id. It returns false when id was not present.
func (s *DuplicateSuppressor) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.items[id]; ok {
		s.remove(n)
		return true
	}
	return false
}

// Len returns the number of recorded ids, including expired ones not yet swept.
func (s *DuplicateSuppressor) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Clear forgets every id.
func (s *DuplicateSuppressor) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]*node, s.capacity)
	s.head.next = s.tail
	s.tail.prev = s.head
}

// CleanupExpired removes expired ids and returns how many were removed.
func (s *DuplicateSuppressor) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for n := s.tail.prev; n != s.head; {
		prev := n.prev
		if now.After(n.expiresAt) {
			s.remove(n)
			removed++
		}
		n = prev
	}
	return removed
}

// Stats returns hit and miss counts of IsDuplicate plus the current size.
func (s *DuplicateSuppressor) Stats() (hits, misses int64, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses, len(s.items)
}

// put must be called with the lock held.
func (s *DuplicateSuppressor) put(id string, now time.Time) {
	if n, ok := s.items[id]; ok {
		n.addedAt = now
		n.expiresAt = now.Add(s.ttl)
		s.moveToFront(n)
		return
	}

	n := &node{key: id, addedAt: now, expiresAt: now.Add(s.ttl)}
	s.pushFront(n)
	s.items[id] = n

	for len(s.items) > s.capacity {
		oldest := s.tail.prev
		if oldest == s.head {
			break
		}
		s.remove(oldest)
	}
}

func (s *DuplicateSuppressor) pushFront(n *node) {
	n.prev = s.head
	n.next = s.head.next
	s.head.next.prev = n
	s.head.next = n
}

func (s *DuplicateSuppressor) moveToFront(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
	s.pushFront(n)
}

func (s *DuplicateSuppressor) remove(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
	delete(s.items, n.key)
}
