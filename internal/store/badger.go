// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package store

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/models"
)

// Key prefixes. Investigations and reports share one keyspace; the
// prefix keeps iteration cheap for list and expiry scans.
const (
	invKeyPrefix = "inv:"
	rptKeyPrefix = "rpt:"
)

// BadgerStore is the durable single-node backend. Records are stored as
// JSON values under prefixed keys; reads iterate the investigation
// prefix and reuse the same in-memory sort/page path as MemoryStore.
type BadgerStore struct {
	db  *badger.DB
	log zerolog.Logger
}

// OpenBadgerStore opens (or creates) the database at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	if path == "" {
		return nil, fault.New(fault.KindValidation, "badger store path required")
	}

	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "open badger store", err)
	}

	s := &BadgerStore{db: db, log: logging.WithComponent("store")}
	s.log.Info().Str("path", path).Msg("badger store opened")
	return s, nil
}

// SaveInvestigation upserts the record.
func (s *BadgerStore) SaveInvestigation(_ context.Context, inv *models.Investigation) error {
	if inv == nil || inv.ID == "" {
		return fault.New(fault.KindValidation, "investigation id required")
	}
	raw, err := json.Marshal(inv)
	if err != nil {
		return fault.Wrap(fault.KindInternal, "encode investigation", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(invKeyPrefix+inv.ID), raw)
	})
	if err != nil {
		return fault.Wrap(fault.KindInternal, "write investigation", err)
	}
	return nil
}

// GetInvestigation returns the stored record.
func (s *BadgerStore) GetInvestigation(_ context.Context, id string) (*models.Investigation, error) {
	var inv models.Investigation
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(invKeyPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &inv)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fault.Newf(fault.KindNotFound, "investigation %s", id)
	}
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "read investigation", err)
	}
	return &inv, nil
}

// ListInvestigations scans the investigation prefix and returns a page
// sorted by creation time, newest first, plus the total match count.
func (s *BadgerStore) ListInvestigations(_ context.Context, filter ListFilter) ([]*models.Investigation, int, error) {
	var all []*models.Investigation

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(invKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var inv models.Investigation
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &inv)
			})
			if err != nil {
				return err
			}
			all = append(all, &inv)
		}
		return nil
	})
	if err != nil {
		return nil, 0, fault.Wrap(fault.KindInternal, "scan investigations", err)
	}

	return pageInvestigations(all, filter)
}

// DeleteInvestigation removes the record and its report. Deleting an
// absent record is a not_found error.
func (s *BadgerStore) DeleteInvestigation(_ context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(invKeyPrefix + id)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(invKeyPrefix + id)); err != nil {
			return err
		}
		err := txn.Delete([]byte(rptKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fault.Newf(fault.KindNotFound, "investigation %s", id)
	}
	if err != nil {
		return fault.Wrap(fault.KindInternal, "delete investigation", err)
	}
	return nil
}

// SaveReport upserts the report keyed by investigation.
func (s *BadgerStore) SaveReport(_ context.Context, rpt *models.Report) error {
	if rpt == nil || rpt.InvestigationID == "" {
		return fault.New(fault.KindValidation, "report investigation id required")
	}
	raw, err := json.Marshal(rpt)
	if err != nil {
		return fault.Wrap(fault.KindInternal, "encode report", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(rptKeyPrefix+rpt.InvestigationID), raw)
	})
	if err != nil {
		return fault.Wrap(fault.KindInternal, "write report", err)
	}
	return nil
}

// GetReport returns the stored report.
func (s *BadgerStore) GetReport(_ context.Context, investigationID string) (*models.Report, error) {
	var rpt models.Report
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(rptKeyPrefix + investigationID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rpt)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fault.Newf(fault.KindNotFound, "report for investigation %s", investigationID)
	}
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "read report", err)
	}
	return &rpt, nil
}

// Expire removes investigations past their retention window and runs a
// value-log GC pass afterwards when anything was deleted.
func (s *BadgerStore) Expire(ctx context.Context, now time.Time) (int, error) {
	all, _, err := s.ListInvestigations(ctx, ListFilter{Limit: -1})
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, inv := range all {
		if inv.RetainUntil.IsZero() || !inv.RetainUntil.Before(now) {
			continue
		}
		if err := s.DeleteInvestigation(ctx, inv.ID); err != nil {
			if fault.KindOf(err) == fault.KindNotFound {
				continue
			}
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		// ErrNoRewrite just means there was nothing worth reclaiming.
		if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
			s.log.Warn().Err(err).Msg("value log gc failed")
		}
		s.log.Info().Int("removed", removed).Msg("expired investigations removed")
	}
	return removed, nil
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fault.Wrap(fault.KindInternal, "close badger store", err)
	}
	return nil
}
