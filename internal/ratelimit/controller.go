// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package ratelimit enforces per-source request budgets.
//
// Each source gets a token bucket sized from its declared hourly budget with
// per-minute smoothing, so a connector's allowance cannot be burned in the
// first seconds of an hour. When a source reports upstream rate limiting
// (HTTP 429), the controller opens an exponential backoff window during
// which acquisitions block (Acquire) or fail fast (TryAcquire). A successful
// request after backoff resets the exponent.
//
// The controller is a process-wide singleton constructed at startup and
// handed to the fetch scheduler; buckets are lock-protected individually,
// never globally.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/metrics"
)

// Config holds backoff window parameters and the default budget.
type Config struct {
	// DefaultPerHour applies to sources that register without a budget.
	DefaultPerHour int

	// Backoff window: base doubles per consecutive 429 up to the cap,
	// with +/- JitterFrac applied to every window.
	BackoffBase   time.Duration
	BackoffFactor float64
	BackoffCap    time.Duration
	JitterFrac    float64

	// IdleEviction removes buckets untouched for this long. Zero disables.
	IdleEviction time.Duration
}

// DefaultConfig returns production defaults: 120/hour, 1s base backoff,
// factor 2, 300s cap, 20% jitter.
func DefaultConfig() Config {
	return Config{
		DefaultPerHour: 120,
		BackoffBase:    time.Second,
		BackoffFactor:  2.0,
		BackoffCap:     300 * time.Second,
		JitterFrac:     0.2,
		IdleEviction:   2 * time.Hour,
	}
}

// bucket is the per-source state. The limiter provides hourly pacing and
// FIFO fairness (rate.Limiter.Wait queues waiters in arrival order); the
// backoff fields track the 429 penalty window.
type bucket struct {
	mu sync.Mutex

	limiter *rate.Limiter
	perHour int

	// backoffUntil is the end of the current penalty window, zero when
	// the source is healthy.
	backoffUntil time.Time

	// exponent counts consecutive rate-limit responses.
	exponent int

	lastUsed time.Time
}

// Controller enforces budgets across all registered sources.
type Controller struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	cfg     Config

	// now and jitter are test seams.
	now    func() time.Time
	jitter func() float64
}

// NewController creates a controller with the given configuration.
func NewController(cfg Config) *Controller {
	if cfg.DefaultPerHour <= 0 {
		cfg.DefaultPerHour = 120
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = 2.0
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = 300 * time.Second
	}

	return &Controller{
		buckets: make(map[string]*bucket),
		cfg:     cfg,
		now:     time.Now,
		jitter:  rand.Float64,
	}
}

// Register declares a source's hourly budget. Re-registering replaces the
// budget but preserves any active backoff window.
func (c *Controller) Register(source string, perHour int) {
	if perHour <= 0 {
		perHour = c.cfg.DefaultPerHour
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.buckets[source]; ok {
		b.mu.Lock()
		b.perHour = perHour
		b.limiter.SetLimit(hourlyLimit(perHour))
		b.limiter.SetBurst(burstFor(perHour))
		b.mu.Unlock()
		return
	}

	c.buckets[source] = &bucket{
		limiter:  rate.NewLimiter(hourlyLimit(perHour), burstFor(perHour)),
		perHour:  perHour,
		lastUsed: c.now(),
	}
}

// hourlyLimit spreads an hourly budget evenly across the hour.
func hourlyLimit(perHour int) rate.Limit {
	return rate.Limit(float64(perHour) / 3600.0)
}

// burstFor sizes the burst for per-minute smoothing: at most one minute of
// budget can be consumed at once.
func burstFor(perHour int) int {
	burst := perHour / 60
	if burst < 1 {
		burst = 1
	}
	return burst
}

// get returns the bucket for source, creating one with the default budget
// if the source never registered.
func (c *Controller) get(source string) *bucket {
	c.mu.RLock()
	b, ok := c.buckets[source]
	c.mu.RUnlock()
	if ok {
		return b
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok = c.buckets[source]; ok {
		return b
	}
	b = &bucket{
		limiter:  rate.NewLimiter(hourlyLimit(c.cfg.DefaultPerHour), burstFor(c.cfg.DefaultPerHour)),
		perHour:  c.cfg.DefaultPerHour,
		lastUsed: c.now(),
	}
	c.buckets[source] = b
	return b
}

// Acquire blocks until a token for source is available or ctx is done.
// It first waits out any backoff window, then waits on the token bucket.
// Waiters are served FIFO within one source.
func (c *Controller) Acquire(ctx context.Context, source string) error {
	b := c.get(source)
	start := c.now()

	// Wait out the backoff window, re-checking after sleeping because a
	// concurrent 429 may have extended it.
	for {
		b.mu.Lock()
		b.lastUsed = c.now()
		wait := b.backoffUntil.Sub(c.now())
		b.mu.Unlock()

		if wait <= 0 {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fault.Wrap(fault.KindTimeout, "rate limit wait cancelled", ctx.Err()).WithSource(source)
		case <-timer.C:
		}
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return fault.Wrap(fault.KindTimeout, "rate limit wait cancelled", ctx.Err()).WithSource(source)
	}

	metrics.RateLimitAcquisitions.WithLabelValues(source).Inc()
	metrics.RateLimitWaitDuration.WithLabelValues(source).Observe(c.now().Sub(start).Seconds())
	return nil
}

// TryAcquire takes a token without blocking. It fails fast with
// rate_limited when the source is in backoff or the bucket is empty.
func (c *Controller) TryAcquire(source string) error {
	b := c.get(source)

	b.mu.Lock()
	b.lastUsed = c.now()
	inBackoff := c.now().Before(b.backoffUntil)
	b.mu.Unlock()

	if inBackoff {
		return fault.New(fault.KindRateLimited, "source in backoff window").WithSource(source)
	}
	if !b.limiter.Allow() {
		return fault.New(fault.KindRateLimited, "hourly budget exhausted").WithSource(source)
	}

	metrics.RateLimitAcquisitions.WithLabelValues(source).Inc()
	return nil
}

// ReportRateLimited opens (or extends) the backoff window for source after
// an upstream 429. Consecutive reports grow the window exponentially:
// base * factor^n, capped, with +/- jitter.
func (c *Controller) ReportRateLimited(source string) time.Duration {
	b := c.get(source)

	b.mu.Lock()
	defer b.mu.Unlock()

	window := float64(c.cfg.BackoffBase)
	for i := 0; i < b.exponent; i++ {
		window *= c.cfg.BackoffFactor
		if window >= float64(c.cfg.BackoffCap) {
			window = float64(c.cfg.BackoffCap)
			break
		}
	}

	// Jitter: +/- JitterFrac of the window.
	if c.cfg.JitterFrac > 0 {
		spread := window * c.cfg.JitterFrac
		window = window - spread + 2*spread*c.jitter()
	}

	d := time.Duration(window)
	b.backoffUntil = c.now().Add(d)
	b.exponent++

	metrics.RateLimitBackoffs.WithLabelValues(source).Inc()
	logging.Warn().
		Str("source", source).
		Dur("backoff", d).
		Int("consecutive", b.exponent).
		Msg("rate limited by upstream, backoff window opened")

	return d
}

// ReportSuccess resets the backoff exponent after a request that succeeded
// outside any backoff window.
func (c *Controller) ReportSuccess(source string) {
	b := c.get(source)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.exponent > 0 && !c.now().Before(b.backoffUntil) {
		b.exponent = 0
		b.backoffUntil = time.Time{}
	}
}

// InBackoff reports whether source currently has an open backoff window.
func (c *Controller) InBackoff(source string) bool {
	b := c.get(source)
	b.mu.Lock()
	defer b.mu.Unlock()
	return c.now().Before(b.backoffUntil)
}

// Budget returns the registered hourly budget for source.
func (c *Controller) Budget(source string) int {
	b := c.get(source)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.perHour
}

// EvictIdle removes buckets unused for longer than the idle eviction
// window. Returns the number removed. The supervisor runs this
// periodically; sources in active use are never evicted.
func (c *Controller) EvictIdle() int {
	if c.cfg.IdleEviction <= 0 {
		return 0
	}

	cutoff := c.now().Add(-c.cfg.IdleEviction)
	removed := 0

	c.mu.Lock()
	defer c.mu.Unlock()
	for source, b := range c.buckets {
		b.mu.Lock()
		idle := b.lastUsed.Before(cutoff) && !c.now().Before(b.backoffUntil)
		b.mu.Unlock()
		if idle {
			delete(c.buckets, source)
			removed++
		}
	}

	if removed > 0 {
		logging.Debug().Int("removed", removed).Msg("evicted idle rate limit buckets")
	}
	return removed
}
