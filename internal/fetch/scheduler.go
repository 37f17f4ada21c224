// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package fetch executes a planned query set against the connector fleet.
//
// The scheduler drains the plan in priority order, round-robining across
// connectors within a priority band so one slow source cannot starve the
// rest. Every query flows cache -> rate limiter -> breaker-wrapped
// connector, with bounded retries for transient failures. All workers
// run in an errgroup scoped to the investigation's context; cancellation
// drops queued queries and signals in-flight ones.
package fetch

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/vestigium/internal/cache"
	"github.com/tomtom215/vestigium/internal/connector"
	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/metrics"
	"github.com/tomtom215/vestigium/internal/models"
	"github.com/tomtom215/vestigium/internal/ratelimit"
)

// Retry and concurrency defaults.
const (
	DefaultMaxConcurrent = 16
	DefaultQueryTimeout  = 30 * time.Second

	defaultRetryAttempts = 3
	defaultBackoffBase   = 500 * time.Millisecond
	defaultBackoffFactor = 2.0
	defaultBackoffCap    = 30 * time.Second
	defaultJitterFrac    = 0.2

	// rateLimitDeferCap bounds how many times one query yields to the
	// rate limiter's backoff window before giving up. Deferrals do not
	// consume retry attempts.
	rateLimitDeferCap = 3
)

// Config bounds the scheduler. Zero values take the defaults above.
type Config struct {
	MaxConcurrent int
	QueryTimeout  time.Duration
	CacheTTL      time.Duration

	RetryMaxAttempts  int
	BackoffBase       time.Duration
	BackoffFactor     float64
	BackoffCap        time.Duration
	BackoffJitterFrac float64
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = DefaultQueryTimeout
	}
	if c.RetryMaxAttempts <= 0 {
		c.RetryMaxAttempts = defaultRetryAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = defaultBackoffBase
	}
	if c.BackoffFactor <= 1 {
		c.BackoffFactor = defaultBackoffFactor
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = defaultBackoffCap
	}
	if c.BackoffJitterFrac <= 0 {
		c.BackoffJitterFrac = defaultJitterFrac
	}
	return c
}

// Outcome is the per-query execution record.
type Outcome struct {
	Query   *models.Query      `json:"query"`
	Results []models.RawResult `json:"results,omitempty"`

	// Attempts counts connector calls made for this query. A cache hit is
	// zero attempts; retried-then-success is > 1.
	Attempts int  `json:"attempts"`
	Cached   bool `json:"cached"`

	// Err is the terminal classified failure, nil on success. Cancelled
	// queries that never started carry a timeout-kind error.
	Err error `json:"-"`

	Duration time.Duration `json:"duration"`
}

// Failed reports whether the query ended in a terminal failure.
func (o *Outcome) Failed() bool { return o.Err != nil }

// ProgressFunc observes each completed query. Called from worker
// goroutines, serialized by the scheduler.
type ProgressFunc func(Outcome)

// Scheduler executes plans. One scheduler serves all investigations; the
// per-investigation bound comes from the errgroup limit inside Execute.
type Scheduler struct {
	registry *connector.Registry
	cache    *cache.ResultCache
	limiter  *ratelimit.Controller
	cfg      Config
	log      zerolog.Logger

	// sleep is swapped in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a scheduler over the shared singletons.
func New(registry *connector.Registry, resultCache *cache.ResultCache, limiter *ratelimit.Controller, cfg Config) *Scheduler {
	return &Scheduler{
		registry: registry,
		cache:    resultCache,
		limiter:  limiter,
		cfg:      cfg.withDefaults(),
		log:      logging.WithComponent("fetch"),
		sleep:    sleepCtx,
	}
}

// Execute runs the plan to completion or cancellation and returns one
// outcome per query, in scheduling order. onProgress may be nil.
func (s *Scheduler) Execute(ctx context.Context, queries []*models.Query, onProgress ProgressFunc) []Outcome {
	ordered := schedule(queries)
	outcomes := make([]Outcome, len(ordered))

	var mu sync.Mutex
	report := func(idx int, o Outcome) {
		outcomes[idx] = o
		if onProgress != nil {
			mu.Lock()
			onProgress(o)
			mu.Unlock()
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrent)

	for idx, q := range ordered {
		idx, q := idx, q
		if gctx.Err() != nil {
			// Queued behind a cancellation: record the drop, don't start.
			report(idx, Outcome{Query: q, Err: cancelErr(gctx, q)})
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				report(idx, Outcome{Query: q, Err: cancelErr(gctx, q)})
				return nil
			}
			report(idx, s.runQuery(gctx, q))
			return nil
		})
	}

	_ = g.Wait() // workers never return errors; failures live in outcomes
	return outcomes
}

// runQuery executes one query through cache, rate limiter, and connector.
func (s *Scheduler) runQuery(ctx context.Context, q *models.Query) Outcome {
	start := time.Now()
	out := Outcome{Query: q}

	results, err := s.cache.GetOrFetch(ctx, q, s.cfg.CacheTTL, func(fctx context.Context) ([]models.RawResult, error) {
		return s.fetchWithRetry(fctx, q, &out.Attempts)
	})
	out.Duration = time.Since(start)

	if err != nil {
		out.Err = err
		kind := fault.KindOf(err)
		metrics.RecordQuery(q.Source, "failed", out.Duration)
		metrics.RecordQueryError(q.Source, string(kind))
		s.log.Warn().
			Str("investigation_id", q.InvestigationID).
			Str("query_id", q.ID).
			Str("source", q.Source).
			Str("kind", string(kind)).
			Int("attempts", out.Attempts).
			Err(err).
			Msg("query failed")
		return out
	}

	out.Results = results
	// Zero attempts means the connector never ran: the result came from
	// the cache or a coalesced in-flight fetch.
	out.Cached = out.Attempts == 0
	outcome := "success"
	if out.Attempts > 1 {
		outcome = "retried"
	}
	metrics.RecordQuery(q.Source, outcome, out.Duration)
	return out
}

// fetchWithRetry calls the connector with the retry policy: transient
// kinds back off and retry; rate limiting defers to the controller's
// window without consuming an attempt; everything else is terminal.
func (s *Scheduler) fetchWithRetry(ctx context.Context, q *models.Query, attempts *int) ([]models.RawResult, error) {
	conn, err := s.registry.Get(q.Source)
	if err != nil {
		return nil, err
	}

	deferrals := 0
	for attempt := 1; ; attempt++ {
		if err := s.limiter.Acquire(ctx, q.Source); err != nil {
			return nil, err
		}

		qctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
		results, err := conn.Search(qctx, q)
		cancel()
		*attempts = attempt

		if err == nil {
			s.limiter.ReportSuccess(q.Source)
			return results, nil
		}

		kind := fault.KindOf(err)
		switch {
		case kind == fault.KindRateLimited:
			window := s.limiter.ReportRateLimited(q.Source)
			deferrals++
			if deferrals > rateLimitDeferCap {
				return nil, err
			}
			// The next Acquire blocks through the backoff window; this
			// attempt is not consumed.
			attempt--
			s.log.Debug().
				Str("source", q.Source).
				Dur("window", window).
				Msg("rate limited upstream, deferring")

		case fault.IsTransient(kind) && attempt < s.cfg.RetryMaxAttempts:
			delay := s.backoff(attempt)
			s.log.Debug().
				Str("source", q.Source).
				Str("query_id", q.ID).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("transient failure, retrying")
			if serr := s.sleep(ctx, delay); serr != nil {
				return nil, serr
			}

		default:
			return nil, err
		}
	}
}

// backoff computes the delay before retry n (1-based): base * factor^(n-1),
// capped, with symmetric jitter.
func (s *Scheduler) backoff(attempt int) time.Duration {
	d := float64(s.cfg.BackoffBase)
	for i := 1; i < attempt; i++ {
		d *= s.cfg.BackoffFactor
		if d >= float64(s.cfg.BackoffCap) {
			d = float64(s.cfg.BackoffCap)
			break
		}
	}
	jitter := 1 + s.cfg.BackoffJitterFrac*(2*rand.Float64()-1)
	return time.Duration(d * jitter)
}

// schedule orders the plan: stable priority descending, then round-robin
// across sources within each equal-priority band.
func schedule(queries []*models.Query) []*models.Query {
	sorted := make([]*models.Query, len(queries))
	copy(sorted, queries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	out := make([]*models.Query, 0, len(sorted))
	for lo := 0; lo < len(sorted); {
		hi := lo
		for hi < len(sorted) && sorted[hi].Priority == sorted[lo].Priority {
			hi++
		}
		out = append(out, roundRobin(sorted[lo:hi])...)
		lo = hi
	}
	return out
}

// roundRobin interleaves a band by source, preserving per-source order.
func roundRobin(band []*models.Query) []*models.Query {
	if len(band) < 3 {
		return band
	}

	bySource := make(map[string][]*models.Query)
	var sources []string
	for _, q := range band {
		if _, seen := bySource[q.Source]; !seen {
			sources = append(sources, q.Source)
		}
		bySource[q.Source] = append(bySource[q.Source], q)
	}

	out := make([]*models.Query, 0, len(band))
	for len(out) < len(band) {
		for _, src := range sources {
			if queue := bySource[src]; len(queue) > 0 {
				out = append(out, queue[0])
				bySource[src] = queue[1:]
			}
		}
	}
	return out
}

func cancelErr(ctx context.Context, q *models.Query) error {
	err := ctx.Err()
	return fault.Wrap(fault.Classify(err), "query dropped before execution", err).
		WithSource(q.Source).WithQuery(q.ID)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
