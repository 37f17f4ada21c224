// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package fetch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"

	"github.com/tomtom215/vestigium/internal/cache"
	"github.com/tomtom215/vestigium/internal/connector"
	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/metrics"
	"github.com/tomtom215/vestigium/internal/models"
	"github.com/tomtom215/vestigium/internal/ratelimit"
)

type stubConnector struct {
	name   string
	search func(ctx context.Context, q *models.Query) ([]models.RawResult, error)
	calls  atomic.Int64
}

func (s *stubConnector) Name() string            { return s.name }
func (s *stubConnector) Type() models.SourceType { return models.SourceTypeSearchEngine }
func (s *stubConnector) SupportedKinds() []models.QueryKind {
	return []models.QueryKind{models.QueryKindPersonName}
}
func (s *stubConnector) RateLimitPerHour() int                        { return 1000000 }
func (s *stubConnector) BaseConfidence() float64                      { return 0.5 }
func (s *stubConnector) ValidateCredentials(ctx context.Context) error { return nil }

func (s *stubConnector) Search(ctx context.Context, q *models.Query) ([]models.RawResult, error) {
	s.calls.Add(1)
	return s.search(ctx, q)
}

func newHarness(t *testing.T, stubs ...*stubConnector) *Scheduler {
	t.Helper()

	registry := connector.NewRegistry()
	limiter := ratelimit.NewController(ratelimit.Config{
		DefaultPerHour: 1000000,
		BackoffBase:    time.Millisecond,
		BackoffFactor:  2,
		BackoffCap:     5 * time.Millisecond,
	})
	for _, s := range stubs {
		if err := registry.Register(s); err != nil {
			t.Fatalf("register %s: %v", s.name, err)
		}
		limiter.Register(s.name, s.RateLimitPerHour())
	}

	sched := New(registry, cache.New(cache.Config{MaxEntries: 100}, nil), limiter, Config{})
	sched.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return sched
}

func query(id, source string, priority int) *models.Query {
	return &models.Query{
		ID:              id,
		InvestigationID: "inv-1",
		Kind:            models.QueryKindPersonName,
		Value:           "alice doe",
		Source:          source,
		Priority:        priority,
	}
}

func okResult(q *models.Query) []models.RawResult {
	return []models.RawResult{{ID: "r-" + q.ID, QueryID: q.ID, Source: q.Source}}
}

func TestExecuteSuccess(t *testing.T) {
	stub := &stubConnector{name: "webindex", search: func(_ context.Context, q *models.Query) ([]models.RawResult, error) {
		return okResult(q), nil
	}}
	sched := newHarness(t, stub)

	outcomes := sched.Execute(context.Background(), []*models.Query{query("q1", "webindex", 50)}, nil)
	if len(outcomes) != 1 {
		t.Fatalf("outcomes = %d", len(outcomes))
	}
	o := outcomes[0]
	if o.Failed() || o.Attempts != 1 || o.Cached || len(o.Results) != 1 {
		t.Errorf("outcome = %+v, want clean single-attempt success", o)
	}
}

func TestCacheHitSkipsConnector(t *testing.T) {
	stub := &stubConnector{name: "webindex", search: func(_ context.Context, q *models.Query) ([]models.RawResult, error) {
		return okResult(q), nil
	}}
	sched := newHarness(t, stub)

	q := query("q1", "webindex", 50)
	sched.cache.Put(q, okResult(q), time.Minute)

	outcomes := sched.Execute(context.Background(), []*models.Query{q}, nil)
	if !outcomes[0].Cached || outcomes[0].Attempts != 0 {
		t.Errorf("outcome = %+v, want cache hit with zero attempts", outcomes[0])
	}
	if stub.calls.Load() != 0 {
		t.Errorf("connector called %d times on a cache hit", stub.calls.Load())
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m io_prometheus_client.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestColdQueryCountsOneCacheMiss(t *testing.T) {
	stub := &stubConnector{name: "webindex", search: func(_ context.Context, q *models.Query) ([]models.RawResult, error) {
		return okResult(q), nil
	}}
	sched := newHarness(t, stub)

	before := counterValue(t, metrics.CacheMisses)
	outcomes := sched.Execute(context.Background(), []*models.Query{query("q1", "webindex", 50)}, nil)
	if outcomes[0].Failed() || outcomes[0].Cached {
		t.Fatalf("outcome = %+v, want a fresh fetch", outcomes[0])
	}

	after := counterValue(t, metrics.CacheMisses)
	if after != before+1 {
		t.Errorf("cache misses %f -> %f, want exactly one per cold query", before, after)
	}
}

func TestTransientFailureRetriedThenSucceeds(t *testing.T) {
	var failures atomic.Int64
	stub := &stubConnector{name: "webindex", search: func(_ context.Context, q *models.Query) ([]models.RawResult, error) {
		if failures.Add(1) <= 2 {
			return nil, fault.New(fault.KindUpstreamUnavailable, "upstream flapping")
		}
		return okResult(q), nil
	}}
	sched := newHarness(t, stub)

	outcomes := sched.Execute(context.Background(), []*models.Query{query("q1", "webindex", 50)}, nil)
	o := outcomes[0]
	if o.Failed() {
		t.Fatalf("want eventual success, got %v", o.Err)
	}
	if o.Attempts != 3 {
		t.Errorf("attempts = %d, want 3 (two transient failures then success)", o.Attempts)
	}
}

func TestTransientFailureExhaustsAttempts(t *testing.T) {
	stub := &stubConnector{name: "webindex", search: func(_ context.Context, q *models.Query) ([]models.RawResult, error) {
		return nil, fault.New(fault.KindTimeout, "upstream slow")
	}}
	sched := newHarness(t, stub)

	outcomes := sched.Execute(context.Background(), []*models.Query{query("q1", "webindex", 50)}, nil)
	o := outcomes[0]
	if !o.Failed() || fault.KindOf(o.Err) != fault.KindTimeout {
		t.Fatalf("outcome = %+v, want terminal timeout", o)
	}
	if o.Attempts != 3 {
		t.Errorf("attempts = %d, want exactly the retry budget", o.Attempts)
	}
}

func TestNonTransientNeverRetried(t *testing.T) {
	stub := &stubConnector{name: "breachdir", search: func(_ context.Context, q *models.Query) ([]models.RawResult, error) {
		return nil, fault.New(fault.KindCredentialsInvalid, "bad api key")
	}}
	sched := newHarness(t, stub)

	outcomes := sched.Execute(context.Background(), []*models.Query{query("q1", "breachdir", 50)}, nil)
	o := outcomes[0]
	if fault.KindOf(o.Err) != fault.KindCredentialsInvalid {
		t.Fatalf("kind = %v, want credentials_invalid", fault.KindOf(o.Err))
	}
	if stub.calls.Load() != 1 {
		t.Errorf("connector called %d times, non-transient failures must not retry", stub.calls.Load())
	}
}

func TestRateLimitedDefersWithoutConsumingAttempts(t *testing.T) {
	stub := &stubConnector{name: "socialdir", search: func(_ context.Context, q *models.Query) ([]models.RawResult, error) {
		return nil, fault.New(fault.KindRateLimited, "429 from upstream")
	}}
	sched := newHarness(t, stub)

	outcomes := sched.Execute(context.Background(), []*models.Query{query("q1", "socialdir", 50)}, nil)
	o := outcomes[0]
	if fault.KindOf(o.Err) != fault.KindRateLimited {
		t.Fatalf("kind = %v, want rate_limited after deferral cap", fault.KindOf(o.Err))
	}
	// Initial call plus one per allowed deferral.
	if got := stub.calls.Load(); got != rateLimitDeferCap+1 {
		t.Errorf("connector calls = %d, want %d", got, rateLimitDeferCap+1)
	}
}

func TestCancelledContextDropsQueries(t *testing.T) {
	stub := &stubConnector{name: "webindex", search: func(_ context.Context, q *models.Query) ([]models.RawResult, error) {
		return okResult(q), nil
	}}
	sched := newHarness(t, stub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := sched.Execute(ctx, []*models.Query{
		query("q1", "webindex", 50),
		query("q2", "webindex", 40),
	}, nil)
	for _, o := range outcomes {
		if !o.Failed() {
			t.Errorf("outcome %s = %+v, want dropped with error", o.Query.ID, o)
		}
	}
	if stub.calls.Load() != 0 {
		t.Errorf("connector called %d times after cancellation", stub.calls.Load())
	}
}

func TestProgressCallbackPerQuery(t *testing.T) {
	stub := &stubConnector{name: "webindex", search: func(_ context.Context, q *models.Query) ([]models.RawResult, error) {
		return okResult(q), nil
	}}
	sched := newHarness(t, stub)

	var seen atomic.Int64
	queries := []*models.Query{
		query("q1", "webindex", 50),
		query("q2", "webindex", 50),
		query("q3", "webindex", 50),
	}
	sched.Execute(context.Background(), queries, func(Outcome) { seen.Add(1) })
	if seen.Load() != 3 {
		t.Errorf("progress callbacks = %d, want one per query", seen.Load())
	}
}

func TestScheduleOrdersByPriorityThenRoundRobin(t *testing.T) {
	queries := []*models.Query{
		query("a1", "whois", 80),
		query("a2", "whois", 80),
		query("b1", "socialdir", 80),
		query("low", "whois", 20),
		query("high", "breachdir", 95),
	}

	ordered := schedule(queries)

	if ordered[0].ID != "high" {
		t.Errorf("first = %s, want the priority-95 query", ordered[0].ID)
	}
	if ordered[len(ordered)-1].ID != "low" {
		t.Errorf("last = %s, want the priority-20 query", ordered[len(ordered)-1].ID)
	}
	// Within the 80 band, sources interleave: whois, socialdir, whois.
	band := []string{ordered[1].Source, ordered[2].Source, ordered[3].Source}
	if band[0] != "whois" || band[1] != "socialdir" || band[2] != "whois" {
		t.Errorf("band order = %v, want round-robin across sources", band)
	}
}

func TestBackoffRespectsCapAndJitter(t *testing.T) {
	sched := &Scheduler{cfg: Config{
		BackoffBase:       500 * time.Millisecond,
		BackoffFactor:     2,
		BackoffCap:        30 * time.Second,
		BackoffJitterFrac: 0.2,
	}.withDefaults()}

	for attempt := 1; attempt <= 10; attempt++ {
		d := sched.backoff(attempt)
		if d > time.Duration(float64(30*time.Second)*1.2) {
			t.Errorf("backoff(%d) = %v, exceeds cap with jitter", attempt, d)
		}
		if d < time.Duration(float64(500*time.Millisecond)*0.8) {
			t.Errorf("backoff(%d) = %v, below jittered base", attempt, d)
		}
	}
}
