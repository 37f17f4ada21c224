// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package metrics provides Prometheus instrumentation for the pipeline:
//   - Investigation lifecycle (active count, completions by disposition)
//   - Query execution (per connector, per outcome, latency)
//   - Result cache efficiency (hits, misses, coalesced waits, evictions)
//   - Rate limiting (acquisitions, waits, backoff windows)
//   - Circuit breaker state per connector
//   - Progress stream delivery (clients, drops)
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Investigation Metrics
	InvestigationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vestigium_investigations_active",
			Help: "Current number of running investigations",
		},
	)

	InvestigationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vestigium_investigations_total",
			Help: "Total investigations by terminal disposition",
		},
		[]string{"disposition"}, // "completed", "partial", "failed", "cancelled"
	)

	InvestigationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vestigium_investigation_duration_seconds",
			Help:    "Wall-clock duration of investigations in seconds",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 1800, 3600, 7200},
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vestigium_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"}, // "planning", "fetching", "parsing", "resolving", "reporting"
	)

	// Query Metrics
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vestigium_queries_total",
			Help: "Total queries executed by connector and outcome",
		},
		[]string{"source", "outcome"}, // outcome: "success", "retried", "failed"
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vestigium_query_duration_seconds",
			Help:    "Connector query duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)

	QueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vestigium_query_errors_total",
			Help: "Total query errors by connector and error kind",
		},
		[]string{"source", "kind"},
	)

	QueriesBlocked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vestigium_queries_blocked_total",
			Help: "Total queries rejected by the blocked pattern security pass",
		},
	)

	// Result Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vestigium_cache_hits_total",
			Help: "Total result cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vestigium_cache_misses_total",
			Help: "Total result cache misses",
		},
	)

	CacheCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vestigium_cache_coalesced_total",
			Help: "Total callers that waited on an in-flight fetch for the same fingerprint",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vestigium_cache_evictions_total",
			Help: "Total LRU evictions from the result cache",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vestigium_cache_entries",
			Help: "Current number of result cache entries",
		},
	)

	CacheMirrorErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vestigium_cache_mirror_errors_total",
			Help: "Total KV mirror failures (cache degraded to memory-only)",
		},
	)

	// Rate Limit Metrics
	RateLimitAcquisitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vestigium_ratelimit_acquisitions_total",
			Help: "Total successful rate limit token acquisitions by source",
		},
		[]string{"source"},
	)

	RateLimitWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vestigium_ratelimit_wait_seconds",
			Help:    "Time spent waiting for a rate limit token",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"source"},
	)

	RateLimitBackoffs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vestigium_ratelimit_backoffs_total",
			Help: "Total backoff windows opened after upstream rate limiting",
		},
		[]string{"source"},
	)

	// Circuit Breaker Metrics
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vestigium_breaker_state",
			Help: "Circuit breaker state per connector (0=closed, 1=half-open, 2=open)",
		},
		[]string{"source"},
	)

	BreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vestigium_breaker_trips_total",
			Help: "Total circuit breaker trips per connector",
		},
		[]string{"source"},
	)

	// Entity Pipeline Metrics
	CandidatesExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vestigium_candidates_extracted_total",
			Help: "Total entity candidates extracted by type",
		},
		[]string{"entity_type"},
	)

	EntitiesResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vestigium_entities_resolved_total",
			Help: "Total resolved entities by verification status",
		},
		[]string{"status"},
	)

	AmbiguousPairs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vestigium_ambiguous_pairs_total",
			Help: "Total candidate pairs scored in the ambiguous band and left unmerged",
		},
	)

	UnsafeContentFlagged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vestigium_unsafe_content_total",
			Help: "Total raw results flagged by content security checks",
		},
		[]string{"flag"},
	)

	// Progress Stream Metrics
	ProgressClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vestigium_progress_clients",
			Help: "Current number of connected progress subscribers",
		},
	)

	ProgressEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vestigium_progress_events_dropped_total",
			Help: "Total non-critical progress events dropped under backpressure",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vestigium_api_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vestigium_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordQuery records one completed query with its outcome and duration.
func RecordQuery(source, outcome string, duration time.Duration) {
	QueriesTotal.WithLabelValues(source, outcome).Inc()
	QueryDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordQueryError records one classified query failure.
func RecordQueryError(source, kind string) {
	QueryErrors.WithLabelValues(source, kind).Inc()
}

// RecordInvestigationDone records a terminal investigation with its
// disposition and total runtime.
func RecordInvestigationDone(disposition string, duration time.Duration) {
	InvestigationsTotal.WithLabelValues(disposition).Inc()
	InvestigationDuration.Observe(duration.Seconds())
}

// RecordStage records one pipeline stage duration.
func RecordStage(stage string, duration time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// SetBreakerState updates the breaker gauge: 0 closed, 1 half-open, 2 open.
func SetBreakerState(source string, state int) {
	BreakerState.WithLabelValues(source).Set(float64(state))
}
