// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package audit

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/vestigium/internal/config"
	"github.com/tomtom215/vestigium/internal/fault"
)

// Store persists audit events. Implementations are safe for concurrent
// use.
type Store interface {
	Save(ctx context.Context, event *Event) error

	// Query returns matching events, newest first.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)
	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// Delete removes events older than the cutoff, returning how many.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)

	Close() error
}

// Open builds the configured backend: DuckDB when a path is set, an
// in-memory ring otherwise.
func Open(cfg config.AuditConfig) (Store, error) {
	if cfg.Path == "" {
		return NewMemoryStore(0), nil
	}
	return OpenDuckDBStore(cfg.Path)
}

// memoryStoreDefaultCap bounds the in-memory ring.
const memoryStoreDefaultCap = 10000

// MemoryStore keeps events in a bounded in-memory ring. When the ring
// fills, the oldest tenth is discarded.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
	maxLen int
}

// NewMemoryStore creates the in-memory backend.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = memoryStoreDefaultCap
	}
	return &MemoryStore{
		events: make([]Event, 0, maxLen),
		maxLen: maxLen,
	}
}

// Save appends the event, evicting the oldest tenth when full.
func (s *MemoryStore) Save(_ context.Context, event *Event) error {
	if event == nil {
		return fault.New(fault.KindValidation, "audit event required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) >= s.maxLen {
		drop := s.maxLen / 10
		if drop < 1 {
			drop = 1
		}
		s.events = s.events[drop:]
	}
	s.events = append(s.events, *event)
	return nil
}

// Query walks the ring newest-first applying the filter and paging.
func (s *MemoryStore) Query(_ context.Context, filter QueryFilter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.limit()
	skipped := 0
	results := make([]Event, 0, limit)

	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if !filter.matches(&e) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		results = append(results, e)
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// Count returns how many events match the filter, ignoring paging.
func (s *MemoryStore) Count(_ context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for i := range s.events {
		if filter.matches(&s.events[i]) {
			n++
		}
	}
	return n, nil
}

// Delete removes events older than the cutoff.
func (s *MemoryStore) Delete(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var removed int64
	for _, e := range s.events {
		if e.Timestamp.Before(olderThan) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return removed, nil
}

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close() error { return nil }
