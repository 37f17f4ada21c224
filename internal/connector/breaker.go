// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package connector

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/metrics"
	"github.com/tomtom215/vestigium/internal/models"
)

// BreakerConnector wraps a Connector with a circuit breaker so a failing
// upstream sheds load instead of burning the rate budget on timeouts.
//
// Breaker configuration: opens at >= 60% failures over at least 10 requests
// in a 1 minute window; half-open after 2 minutes with 3 probe requests.
// An open breaker surfaces upstream_unavailable without an upstream call.
//
// The breaker uses real time for its interval and timeout accounting. Tests
// exercise the wrapped connector directly or drive the breaker with enough
// failures to trip it.
type BreakerConnector struct {
	Connector
	cb *gobreaker.CircuitBreaker[[]models.RawResult]
}

// WithBreaker wraps c in a circuit breaker named after the connector.
func WithBreaker(c Connector) *BreakerConnector {
	name := c.Name()
	metrics.SetBreakerState(name, 0)

	cb := gobreaker.NewCircuitBreaker[[]models.RawResult](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("connector", name).
				Str("from", breakerStateString(from)).
				Str("to", breakerStateString(to)).
				Msg("circuit breaker state transition")

			metrics.SetBreakerState(name, breakerStateInt(to))
			if to == gobreaker.StateOpen {
				metrics.BreakerTrips.WithLabelValues(name).Inc()
			}
		},

		// Rate limiting and bad credentials are not upstream health
		// signals; counting them would trip the breaker on our own
		// budget exhaustion.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			switch fault.KindOf(err) {
			case fault.KindRateLimited, fault.KindCredentialsInvalid, fault.KindNotFound:
				return true
			default:
				return false
			}
		},
	})

	return &BreakerConnector{Connector: c, cb: cb}
}

// Search executes the wrapped connector's Search under breaker protection.
func (b *BreakerConnector) Search(ctx context.Context, q *models.Query) ([]models.RawResult, error) {
	results, err := b.cb.Execute(func() ([]models.RawResult, error) {
		return b.Connector.Search(ctx, q)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fault.Wrap(fault.KindUpstreamUnavailable, "circuit breaker open", err).
				WithSource(b.Name()).WithQuery(q.ID)
		}
		return nil, err
	}
	return results, nil
}

// State returns the breaker state string for the connector status endpoint.
func (b *BreakerConnector) State() string {
	return breakerStateString(b.cb.State())
}

func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func breakerStateInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
