// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package cache provides the shared query result cache.
//
// Results are keyed by fingerprint (source + normalized value + sorted
// parameters) and shared across concurrent investigations. The cache has
// two layers: a capped in-memory LRU with TTL, and an optional BadgerDB
// mirror that warms the memory layer across restarts. Mirror failures
// degrade the cache to memory-only without surfacing errors.
//
// Concurrent fetches for the same fingerprint are coalesced with
// singleflight so an upstream source sees one request, not N.
package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/metrics"
	"github.com/tomtom215/vestigium/internal/models"
)

// FetchFunc executes the underlying query on a miss.
type FetchFunc func(ctx context.Context) ([]models.RawResult, error)

// Config holds result cache settings.
type Config struct {
	TTL             time.Duration
	MaxEntries      int
	JanitorInterval time.Duration
}

// ResultCache is the two-layer result cache with request coalescing.
type ResultCache struct {
	memory *lru
	mirror *badgerMirror
	group  singleflight.Group

	ttl             time.Duration
	janitorInterval time.Duration

	stopJanitor chan struct{}
}

// New creates a result cache. db may be nil, which disables the mirror.
func New(cfg Config, db *badger.DB) *ResultCache {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.JanitorInterval <= 0 {
		cfg.JanitorInterval = 5 * time.Minute
	}

	c := &ResultCache{
		memory:          newLRU(cfg.MaxEntries, cfg.TTL),
		ttl:             cfg.TTL,
		janitorInterval: cfg.JanitorInterval,
		stopJanitor:     make(chan struct{}),
	}
	if db != nil {
		c.mirror = newBadgerMirror(db)
	}
	return c
}

// GetOrFetch returns cached results for the query, or runs fetch exactly
// once per fingerprint across concurrent callers. Fetched results are
// stored with ttl (zero means the cache default); fetch errors are
// returned to every coalesced caller and nothing is cached.
func (c *ResultCache) GetOrFetch(ctx context.Context, q *models.Query, ttl time.Duration, fetch FetchFunc) ([]models.RawResult, error) {
	fingerprint := Fingerprint(q)

	if results, ok := c.lookup(fingerprint); ok {
		metrics.CacheHits.Inc()
		return results, nil
	}
	metrics.CacheMisses.Inc()

	v, err, shared := c.group.Do(fingerprint, func() (interface{}, error) {
		// Another caller may have populated the entry between the miss
		// and this closure running.
		if results, ok := c.lookup(fingerprint); ok {
			return results, nil
		}

		results, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.store(fingerprint, results, ttl)
		return results, nil
	})
	if shared {
		metrics.CacheCoalesced.Inc()
	}
	if err != nil {
		return nil, err
	}

	return v.([]models.RawResult), nil
}

// Get returns cached results without fetching.
func (c *ResultCache) Get(q *models.Query) ([]models.RawResult, bool) {
	results, ok := c.lookup(Fingerprint(q))
	if ok {
		metrics.CacheHits.Inc()
	} else {
		metrics.CacheMisses.Inc()
	}
	return results, ok
}

// Put stores results for the query directly. Used by the fetch stage for
// results obtained outside GetOrFetch, such as retried partial batches.
func (c *ResultCache) Put(q *models.Query, results []models.RawResult, ttl time.Duration) {
	c.store(Fingerprint(q), results, ttl)
}

// Invalidate drops the entry for the query from both layers.
func (c *ResultCache) Invalidate(q *models.Query) {
	fingerprint := Fingerprint(q)
	c.memory.remove(fingerprint)
	if c.mirror != nil {
		c.mirror.remove(fingerprint)
	}
	metrics.CacheEntries.Set(float64(c.memory.len()))
}

// lookup checks the memory layer, then the mirror. A mirror hit warms
// the memory layer with the remaining default TTL.
func (c *ResultCache) lookup(fingerprint string) ([]models.RawResult, bool) {
	if results, ok := c.memory.get(fingerprint); ok {
		return results, true
	}

	if c.mirror != nil {
		if results, ok := c.mirror.get(fingerprint); ok {
			c.memory.add(fingerprint, results, 0)
			metrics.CacheEntries.Set(float64(c.memory.len()))
			return results, true
		}
	}

	return nil, false
}

func (c *ResultCache) store(fingerprint string, results []models.RawResult, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.memory.add(fingerprint, results, ttl)
	if c.mirror != nil {
		c.mirror.put(fingerprint, results, ttl)
	}
	metrics.CacheEntries.Set(float64(c.memory.len()))
}

// Len returns the number of entries in the memory layer.
func (c *ResultCache) Len() int {
	return c.memory.len()
}

// Stats returns memory-layer hit/miss/eviction counters and size.
func (c *ResultCache) Stats() (hits, misses, evictions int64, size int) {
	return c.memory.stats()
}

// StartJanitor sweeps expired entries periodically until ctx is done or
// Stop is called. Run it in its own goroutine.
func (c *ResultCache) StartJanitor(ctx context.Context) {
	ticker := time.NewTicker(c.janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopJanitor:
			return
		case <-ticker.C:
			removed := c.memory.cleanupExpired()
			if removed > 0 {
				metrics.CacheEntries.Set(float64(c.memory.len()))
				logging.Debug().Int("removed", removed).Msg("swept expired cache entries")
			}
		}
	}
}

// Stop terminates the janitor.
func (c *ResultCache) Stop() {
	close(c.stopJanitor)
}
