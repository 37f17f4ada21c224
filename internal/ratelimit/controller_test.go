// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/vestigium/internal/fault"
)

func testConfig() Config {
	return Config{
		DefaultPerHour: 3600, // one token per second, burst 60
		BackoffBase:    time.Second,
		BackoffFactor:  2.0,
		BackoffCap:     300 * time.Second,
		JitterFrac:     0, // deterministic windows in tests
	}
}

func TestTryAcquireWithinBurst(t *testing.T) {
	c := NewController(testConfig())
	c.Register("src", 3600)

	// Burst is perHour/60 = 60 tokens available immediately.
	for i := 0; i < 60; i++ {
		if err := c.TryAcquire("src"); err != nil {
			t.Fatalf("acquisition %d within burst failed: %v", i, err)
		}
	}

	err := c.TryAcquire("src")
	if err == nil {
		t.Fatal("expected rate_limited after burst exhausted")
	}
	if fault.KindOf(err) != fault.KindRateLimited {
		t.Errorf("expected rate_limited kind, got %s", fault.KindOf(err))
	}
}

func TestTryAcquireSmallBudgetBurstOne(t *testing.T) {
	c := NewController(testConfig())
	c.Register("slow", 30) // under 60/hour still gets burst 1

	if err := c.TryAcquire("slow"); err != nil {
		t.Fatalf("first acquisition failed: %v", err)
	}
	if err := c.TryAcquire("slow"); err == nil {
		t.Fatal("expected second immediate acquisition to fail")
	}
}

func TestUnregisteredSourceGetsDefaultBudget(t *testing.T) {
	c := NewController(testConfig())
	if err := c.TryAcquire("never-registered"); err != nil {
		t.Fatalf("expected default bucket acquisition to succeed: %v", err)
	}
	if got := c.Budget("never-registered"); got != 3600 {
		t.Errorf("expected default budget 3600, got %d", got)
	}
}

func TestBackoffWindowGrowsAndResets(t *testing.T) {
	c := NewController(testConfig())
	c.Register("src", 3600)

	now := time.Now()
	c.now = func() time.Time { return now }

	d1 := c.ReportRateLimited("src")
	if d1 != time.Second {
		t.Errorf("first window: expected 1s, got %s", d1)
	}
	d2 := c.ReportRateLimited("src")
	if d2 != 2*time.Second {
		t.Errorf("second window: expected 2s, got %s", d2)
	}
	d3 := c.ReportRateLimited("src")
	if d3 != 4*time.Second {
		t.Errorf("third window: expected 4s, got %s", d3)
	}

	if !c.InBackoff("src") {
		t.Error("expected source in backoff")
	}

	// TryAcquire fails fast during the window.
	if err := c.TryAcquire("src"); fault.KindOf(err) != fault.KindRateLimited {
		t.Errorf("expected rate_limited during backoff, got %v", err)
	}

	// Advance past the window; a success resets the exponent.
	now = now.Add(10 * time.Second)
	if c.InBackoff("src") {
		t.Error("expected backoff window expired")
	}
	c.ReportSuccess("src")

	if d := c.ReportRateLimited("src"); d != time.Second {
		t.Errorf("expected window reset to 1s after success, got %s", d)
	}
}

func TestBackoffWindowCapped(t *testing.T) {
	cfg := testConfig()
	cfg.BackoffCap = 8 * time.Second
	c := NewController(cfg)

	now := time.Now()
	c.now = func() time.Time { return now }

	var last time.Duration
	for i := 0; i < 10; i++ {
		last = c.ReportRateLimited("src")
	}
	if last != 8*time.Second {
		t.Errorf("expected capped window 8s, got %s", last)
	}
}

func TestAcquireHonorsContext(t *testing.T) {
	c := NewController(testConfig())
	c.Register("src", 3600)
	c.ReportRateLimited("src") // 1s window

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Acquire(ctx, "src")
	if err == nil {
		t.Fatal("expected acquire to fail when context expires during backoff")
	}
	if fault.KindOf(err) != fault.KindTimeout {
		t.Errorf("expected timeout kind, got %s", fault.KindOf(err))
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped DeadlineExceeded, got %v", err)
	}
}

func TestAcquireConcurrentSafety(t *testing.T) {
	c := NewController(testConfig())
	c.Register("src", 3600)

	var wg sync.WaitGroup
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Acquire(ctx, "src")
		}()
	}
	wg.Wait()
}

func TestEvictIdle(t *testing.T) {
	cfg := testConfig()
	cfg.IdleEviction = time.Hour
	c := NewController(cfg)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Register("old", 100)
	c.Register("fresh", 100)

	now = now.Add(2 * time.Hour)
	_ = c.TryAcquire("fresh") // touch

	removed := c.EvictIdle()
	if removed != 1 {
		t.Errorf("expected 1 bucket evicted, got %d", removed)
	}

	c.mu.RLock()
	_, oldExists := c.buckets["old"]
	_, freshExists := c.buckets["fresh"]
	c.mu.RUnlock()

	if oldExists {
		t.Error("expected idle bucket removed")
	}
	if !freshExists {
		t.Error("expected fresh bucket retained")
	}
}
