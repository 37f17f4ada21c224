// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package store persists investigations and reports.
//
// Two backends implement the same interface: an in-memory map for tests
// and ephemeral deployments, and BadgerDB for durable single-node
// operation. After an investigation reaches a terminal state the store is
// its source of truth; the API reads records from here, not from the
// coordinator.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vestigium/internal/config"
	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/models"
)

// ListFilter narrows and pages ListInvestigations.
type ListFilter struct {
	// Status filters to one state when non-empty.
	Status models.InvestigationStatus

	// Limit caps returned records; zero means the default page size.
	Limit  int
	Offset int
}

// DefaultPageSize applies when a list request carries no limit.
const DefaultPageSize = 50

// Store persists investigations and their reports. Implementations are
// safe for concurrent use. Lookups for absent records return a
// fault.KindNotFound error.
type Store interface {
	SaveInvestigation(ctx context.Context, inv *models.Investigation) error
	GetInvestigation(ctx context.Context, id string) (*models.Investigation, error)
	ListInvestigations(ctx context.Context, filter ListFilter) ([]*models.Investigation, int, error)

	// DeleteInvestigation removes the record and its report.
	DeleteInvestigation(ctx context.Context, id string) error

	SaveReport(ctx context.Context, rpt *models.Report) error
	GetReport(ctx context.Context, investigationID string) (*models.Report, error)

	// Expire deletes investigations whose retention window ended before
	// now, returning how many were removed.
	Expire(ctx context.Context, now time.Time) (int, error)

	Close() error
}

// Open builds the configured backend.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "badger":
		return OpenBadgerStore(cfg.Path)
	default:
		return nil, fault.Newf(fault.KindValidation, "unknown store backend %q", cfg.Backend)
	}
}

// MemoryStore keeps everything in maps. Records are copied on the way in
// and out so callers never share memory with the store.
type MemoryStore struct {
	mu             sync.RWMutex
	investigations map[string][]byte
	reports        map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		investigations: make(map[string][]byte),
		reports:        make(map[string][]byte),
	}
}

// SaveInvestigation upserts the record.
func (s *MemoryStore) SaveInvestigation(_ context.Context, inv *models.Investigation) error {
	if inv == nil || inv.ID == "" {
		return fault.New(fault.KindValidation, "investigation id required")
	}
	raw, err := json.Marshal(inv)
	if err != nil {
		return fault.Wrap(fault.KindInternal, "encode investigation", err)
	}

	s.mu.Lock()
	s.investigations[inv.ID] = raw
	s.mu.Unlock()
	return nil
}

// GetInvestigation returns a copy of the record.
func (s *MemoryStore) GetInvestigation(_ context.Context, id string) (*models.Investigation, error) {
	s.mu.RLock()
	raw, ok := s.investigations[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fault.Newf(fault.KindNotFound, "investigation %s", id)
	}

	var inv models.Investigation
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, fault.Wrap(fault.KindInternal, "decode investigation", err)
	}
	return &inv, nil
}

// ListInvestigations returns a page sorted by creation time, newest
// first, plus the total match count before paging.
func (s *MemoryStore) ListInvestigations(_ context.Context, filter ListFilter) ([]*models.Investigation, int, error) {
	s.mu.RLock()
	all := make([]*models.Investigation, 0, len(s.investigations))
	for _, raw := range s.investigations {
		var inv models.Investigation
		if err := json.Unmarshal(raw, &inv); err != nil {
			s.mu.RUnlock()
			return nil, 0, fault.Wrap(fault.KindInternal, "decode investigation", err)
		}
		all = append(all, &inv)
	}
	s.mu.RUnlock()

	return pageInvestigations(all, filter)
}

// DeleteInvestigation removes the record and its report. Deleting an
// absent record is a not_found error.
func (s *MemoryStore) DeleteInvestigation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.investigations[id]; !ok {
		return fault.Newf(fault.KindNotFound, "investigation %s", id)
	}
	delete(s.investigations, id)
	delete(s.reports, id)
	return nil
}

// SaveReport upserts the report keyed by investigation.
func (s *MemoryStore) SaveReport(_ context.Context, rpt *models.Report) error {
	if rpt == nil || rpt.InvestigationID == "" {
		return fault.New(fault.KindValidation, "report investigation id required")
	}
	raw, err := json.Marshal(rpt)
	if err != nil {
		return fault.Wrap(fault.KindInternal, "encode report", err)
	}

	s.mu.Lock()
	s.reports[rpt.InvestigationID] = raw
	s.mu.Unlock()
	return nil
}

// GetReport returns a copy of the report.
func (s *MemoryStore) GetReport(_ context.Context, investigationID string) (*models.Report, error) {
	s.mu.RLock()
	raw, ok := s.reports[investigationID]
	s.mu.RUnlock()
	if !ok {
		return nil, fault.Newf(fault.KindNotFound, "report for investigation %s", investigationID)
	}

	var rpt models.Report
	if err := json.Unmarshal(raw, &rpt); err != nil {
		return nil, fault.Wrap(fault.KindInternal, "decode report", err)
	}
	return &rpt, nil
}

// Expire removes investigations past their retention window.
func (s *MemoryStore) Expire(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.expiredIDs(ctx, now)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	for _, id := range expired {
		delete(s.investigations, id)
		delete(s.reports, id)
	}
	s.mu.Unlock()
	return len(expired), nil
}

func (s *MemoryStore) expiredIDs(ctx context.Context, now time.Time) ([]string, error) {
	all, _, err := s.ListInvestigations(ctx, ListFilter{Limit: -1})
	if err != nil {
		return nil, err
	}
	var expired []string
	for _, inv := range all {
		if !inv.RetainUntil.IsZero() && inv.RetainUntil.Before(now) {
			expired = append(expired, inv.ID)
		}
	}
	return expired, nil
}

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close() error { return nil }

// pageInvestigations applies the shared filter/sort/page behavior. A
// negative limit disables paging (internal callers only).
func pageInvestigations(all []*models.Investigation, filter ListFilter) ([]*models.Investigation, int, error) {
	if filter.Status != "" {
		kept := all[:0]
		for _, inv := range all {
			if inv.Status == filter.Status {
				kept = append(kept, inv)
			}
		}
		all = kept
	}

	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	total := len(all)
	if filter.Limit < 0 {
		return all, total, nil
	}

	offset := filter.Offset
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]

	limit := filter.Limit
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}
