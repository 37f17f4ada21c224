// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/logging"
)

// HTTPServer matches *http.Server's lifecycle.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPService adapts the blocking ListenAndServe pattern to suture's
// context-aware Serve.
type HTTPService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPService wraps the server.
func NewHTTPService(server HTTPServer, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fault.Wrap(fault.KindInternal, "http server failed", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fault.Wrap(fault.KindInternal, "http server shutdown", err)
		}
		return ctx.Err()
	}
}

func (s *HTTPService) String() string { return "http-server" }

// Runner is a component whose Run blocks until its context ends. The
// event bus satisfies it.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerService supervises a blocking Run loop.
type RunnerService struct {
	name   string
	runner Runner
}

// NewRunnerService wraps the runner under the given service name.
func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{name: name, runner: runner}
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	return s.runner.Run(ctx)
}

func (s *RunnerService) String() string { return s.name }

// TickFunc does one maintenance pass. Errors are logged, not fatal;
// the next tick retries.
type TickFunc func(ctx context.Context) error

// TickerService runs a maintenance function on a fixed interval.
// Retention sweeps, audit pruning, and limiter eviction all run this
// way.
type TickerService struct {
	name     string
	interval time.Duration
	tick     TickFunc
	log      zerolog.Logger
}

// NewTickerService builds the loop.
func NewTickerService(name string, interval time.Duration, tick TickFunc) *TickerService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &TickerService{
		name:     name,
		interval: interval,
		tick:     tick,
		log:      logging.WithComponent(name),
	}
}

// Serve implements suture.Service.
func (s *TickerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				s.log.Error().Err(err).Msg("maintenance pass failed")
			}
		}
	}
}

func (s *TickerService) String() string { return s.name }
