// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	_ "github.com/tomtom215/vestigium/docs" // Import generated swagger docs
	"github.com/tomtom215/vestigium/internal/api"
	"github.com/tomtom215/vestigium/internal/audit"
	"github.com/tomtom215/vestigium/internal/auth"
	"github.com/tomtom215/vestigium/internal/authz"
	"github.com/tomtom215/vestigium/internal/cache"
	"github.com/tomtom215/vestigium/internal/config"
	"github.com/tomtom215/vestigium/internal/connector"
	"github.com/tomtom215/vestigium/internal/discovery"
	"github.com/tomtom215/vestigium/internal/events"
	"github.com/tomtom215/vestigium/internal/fetch"
	"github.com/tomtom215/vestigium/internal/investigation"
	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/ratelimit"
	"github.com/tomtom215/vestigium/internal/store"
	"github.com/tomtom215/vestigium/internal/supervisor"
	"github.com/tomtom215/vestigium/internal/websocket"
)

func main() {
	// === LOAD CONFIGURATION ===

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Starting Vestigium")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === INVESTIGATION STORE ===

	st, err := store.Open(cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to open investigation store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close investigation store")
		}
	}()

	// === AUDIT TRAIL ===

	var auditDB audit.Store
	if cfg.Audit.Enabled {
		auditDB, err = audit.Open(cfg.Audit)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Audit.Path).Msg("Failed to open audit store")
		}
		defer func() {
			if err := auditDB.Close(); err != nil {
				logging.Error().Err(err).Msg("Failed to close audit store")
			}
		}()
		logging.Info().Str("path", cfg.Audit.Path).Msg("Audit trail enabled")
	}

	// The logger always exists so callers never nil-check; with auditing
	// disabled it writes to a small in-memory ring that nothing reads.
	backingStore := auditDB
	if backingStore == nil {
		backingStore = audit.NewMemoryStore(0)
	}
	auditLog := audit.NewLogger(backingStore, cfg.Audit)
	defer auditLog.Close()

	// === RESULT CACHE ===

	var mirrorDB *badger.DB
	if cfg.Cache.MirrorEnabled {
		opts := badger.DefaultOptions(cfg.Cache.MirrorPath).WithLogger(nil)
		mirrorDB, err = badger.Open(opts)
		if err != nil {
			// Mirror is an optimization; degrade to memory-only.
			logging.Error().Err(err).Str("path", cfg.Cache.MirrorPath).Msg("Failed to open cache mirror, continuing without")
			mirrorDB = nil
		} else {
			defer func() {
				if err := mirrorDB.Close(); err != nil {
					logging.Error().Err(err).Msg("Failed to close cache mirror")
				}
			}()
		}
	}
	resultCache := cache.New(cache.Config{
		TTL:             cfg.Cache.TTL,
		MaxEntries:      cfg.Cache.MaxEntries,
		JanitorInterval: cfg.Cache.JanitorInterval,
	}, mirrorDB)

	// === RATE LIMITER AND CONNECTORS ===

	limiter := ratelimit.NewController(ratelimit.Config{
		DefaultPerHour: cfg.RateLimit.DefaultPerHour,
		BackoffBase:    cfg.RateLimit.BackoffBase,
		BackoffFactor:  cfg.RateLimit.BackoffFactor,
		BackoffCap:     cfg.RateLimit.BackoffCap,
		JitterFrac:     cfg.RateLimit.BackoffJitterFrac,
		IdleEviction:   cfg.RateLimit.IdleEviction,
	})

	registry, err := connector.BuildRegistry(cfg.Connectors)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build connector registry")
	}
	if len(registry.All()) == 0 {
		logging.Fatal().Msg("No connectors enabled, nothing to investigate with")
	}
	for _, c := range registry.All() {
		limiter.Register(c.Name(), c.RateLimitPerHour())
		logging.Info().
			Str("connector", c.Name()).
			Int("rate_limit_per_hour", c.RateLimitPerHour()).
			Msg("Connector registered")
	}

	// === PIPELINE ===

	scheduler := fetch.New(registry, resultCache, limiter, fetch.Config{
		MaxConcurrent:     cfg.Pipeline.MaxConcurrentQueries,
		QueryTimeout:      cfg.Pipeline.QueryTimeout,
		CacheTTL:          cfg.Cache.TTL,
		RetryMaxAttempts:  cfg.Pipeline.RetryMaxAttempts,
		BackoffBase:       cfg.Pipeline.BackoffBase,
		BackoffFactor:     cfg.Pipeline.BackoffFactor,
		BackoffCap:        cfg.Pipeline.BackoffCap,
		BackoffJitterFrac: cfg.Pipeline.BackoffJitterFrac,
	})

	securityPass, err := discovery.NewSecurityPass(cfg.Security.BlockedPatterns)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid blocked query patterns")
	}

	bus, err := events.New(cfg.Events)
	if err != nil {
		logging.Fatal().Err(err).Str("transport", cfg.Events.Transport).Msg("Failed to create event bus")
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close event bus")
		}
	}()

	manager := investigation.NewManager(cfg.Pipeline, st, registry, scheduler, securityPass, bus)
	defer manager.Close()

	// Lifecycle events land in the audit trail regardless of who is
	// watching the progress stream.
	bus.AddHandler("audit-lifecycle", investigation.TopicLifecycle, auditLog.LifecycleHandler)

	// === AUTH AND RBAC ===

	authService, err := auth.NewService(cfg.Security, auditLog)
	if err != nil {
		logging.Fatal().Err(err).Str("mode", cfg.Security.AuthMode).Msg("Failed to initialize authentication")
	}

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}

	// === HTTP SERVER ===

	streamer := websocket.NewStreamer(manager, originChecker(cfg.Security.CORSOrigins))

	router := api.NewRouter(api.Deps{
		Config:   *cfg,
		Manager:  manager,
		Registry: registry,
		Limiter:  limiter,
		Auth:     authService,
		Enforcer: enforcer,
		Audit:    auditLog,
		AuditDB:  auditDB,
		Streamer: streamer,
		Ready:    bus.Running,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// === SUPERVISOR TREE ===

	slogLogger := logging.NewSlogLogger()
	tree := supervisor.NewTree(slogLogger, supervisor.DefaultTreeConfig())

	tree.AddMessagingService(supervisor.NewRunnerService("event-bus", bus))

	tree.AddPipelineService(supervisor.NewRunnerService("cache-janitor", janitor{resultCache}))
	tree.AddPipelineService(supervisor.NewTickerService("retention-sweep", cfg.Store.GCInterval, func(ctx context.Context) error {
		removed, err := st.Expire(ctx, time.Now())
		if removed > 0 {
			logging.Info().Int("removed", removed).Msg("Expired investigations removed")
		}
		return err
	}))
	if cfg.Audit.Enabled {
		tree.AddPipelineService(supervisor.NewTickerService("audit-prune", 6*time.Hour, func(ctx context.Context) error {
			_, err := auditLog.Prune(ctx)
			return err
		}))
	}
	if cfg.RateLimit.IdleEviction > 0 {
		tree.AddPipelineService(supervisor.NewTickerService("limiter-eviction", cfg.RateLimit.IdleEviction, func(context.Context) error {
			limiter.EvictIdle()
			return nil
		}))
	}

	tree.AddAPIService(supervisor.NewHTTPService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Vestigium stopped gracefully")
}

// originChecker builds the WebSocket origin check from the CORS
// allowlist. Requests without an Origin header (curl, service-to-service)
// pass; browsers must match the allowlist.
func originChecker(origins []string) func(r *http.Request) bool {
	allowAll := false
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

// janitor adapts the cache sweep loop to the supervisor's Runner shape.
type janitor struct {
	cache *cache.ResultCache
}

func (j janitor) Run(ctx context.Context) error {
	j.cache.StartJanitor(ctx)
	return ctx.Err()
}
