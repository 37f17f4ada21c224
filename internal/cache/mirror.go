// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package cache

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/metrics"
	"github.com/tomtom215/vestigium/internal/models"
)

const mirrorKeyPrefix = "rc:"

// badgerMirror persists cache entries to BadgerDB so warm results survive
// a restart. Badger's native entry TTL keeps the mirror's expiry in step
// with the memory layer.
//
// The mirror is strictly best-effort: every failure is counted, logged
// at debug, and swallowed. Callers always get memory-layer semantics.
type badgerMirror struct {
	db *badger.DB
}

func newBadgerMirror(db *badger.DB) *badgerMirror {
	return &badgerMirror{db: db}
}

// get loads a mirrored entry. A missing key, an expired entry, or any
// read failure all report a miss.
func (m *badgerMirror) get(fingerprint string) ([]models.RawResult, bool) {
	var results []models.RawResult

	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(mirrorKeyPrefix + fingerprint))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &results)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			metrics.CacheMirrorErrors.Inc()
			logging.Debug().Err(err).Msg("cache mirror read failed")
		}
		return nil, false
	}

	return results, true
}

// put writes a mirrored entry with the given TTL.
func (m *badgerMirror) put(fingerprint string, results []models.RawResult, ttl time.Duration) {
	data, err := json.Marshal(results)
	if err != nil {
		metrics.CacheMirrorErrors.Inc()
		logging.Debug().Err(err).Msg("cache mirror marshal failed")
		return
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(mirrorKeyPrefix+fingerprint), data).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		metrics.CacheMirrorErrors.Inc()
		logging.Debug().Err(err).Msg("cache mirror write failed")
	}
}

// remove deletes a mirrored entry.
func (m *badgerMirror) remove(fingerprint string) {
	err := m.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(mirrorKeyPrefix + fingerprint))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		metrics.CacheMirrorErrors.Inc()
		logging.Debug().Err(err).Msg("cache mirror delete failed")
	}
}
