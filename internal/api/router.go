// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package api exposes the investigation pipeline over HTTP.
//
// Routes are grouped by concern: unauthenticated health probes and
// metrics, the rate-limited login endpoint, and the authenticated
// /api/v1 surface where every request flows through request-ID
// logging, the general rate tier, authentication, and role
// enforcement before reaching a handler. Responses use one envelope
// for success and failure; error codes come from the fault taxonomy.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/vestigium/internal/audit"
	"github.com/tomtom215/vestigium/internal/auth"
	"github.com/tomtom215/vestigium/internal/authz"
	"github.com/tomtom215/vestigium/internal/config"
	"github.com/tomtom215/vestigium/internal/connector"
	"github.com/tomtom215/vestigium/internal/investigation"
	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/ratelimit"
	"github.com/tomtom215/vestigium/internal/websocket"
)

// Router wires handlers to their dependencies.
type Router struct {
	cfg      config.Config
	manager  *investigation.Manager
	registry *connector.Registry
	limiter  *ratelimit.Controller
	auth     *auth.Service
	enforcer *authz.Enforcer
	audit    *audit.Logger
	auditDB  audit.Store
	streamer *websocket.Streamer
	sec      *logging.SecurityLogger

	// ready reports whether the service can accept work; readyz
	// answers 503 until it returns true.
	ready func() bool
}

// Deps carries the router's collaborators. Audit fields may be nil.
type Deps struct {
	Config   config.Config
	Manager  *investigation.Manager
	Registry *connector.Registry
	Limiter  *ratelimit.Controller
	Auth     *auth.Service
	Enforcer *authz.Enforcer
	Audit    *audit.Logger
	AuditDB  audit.Store
	Streamer *websocket.Streamer
	Ready    func() bool
}

// NewRouter builds the router.
func NewRouter(deps Deps) *Router {
	ready := deps.Ready
	if ready == nil {
		ready = func() bool { return true }
	}
	return &Router{
		cfg:      deps.Config,
		manager:  deps.Manager,
		registry: deps.Registry,
		limiter:  deps.Limiter,
		auth:     deps.Auth,
		enforcer: deps.Enforcer,
		audit:    deps.Audit,
		auditDB:  deps.AuditDB,
		streamer: deps.Streamer,
		sec:      logging.NewSecurityLogger(),
		ready:    ready,
	}
}

// Handler assembles the full route tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(rt.cfg.Security.CORSOrigins))

	// Probes and observability, no auth.
	r.Group(func(r chi.Router) {
		r.Use(RateLimitHealth())
		r.Get("/healthz", rt.HealthLive)
		r.Get("/readyz", rt.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
	))

	// Login sits outside the auth middleware with its own strict tier.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(SecurityHeaders())
		r.With(RateLimitLogin()).Post("/login", rt.Login)
	})

	// Authenticated surface.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimit(rt.cfg.Security))
		r.Use(SecurityHeaders())
		r.Use(Metrics())
		r.Use(rt.auth.Middleware)
		r.Use(authz.Middleware(rt.enforcer, rt.audit))

		r.Route("/investigations", func(r chi.Router) {
			r.Post("/", rt.SubmitInvestigation)
			r.Get("/", rt.ListInvestigations)
			r.Get("/{id}", rt.GetInvestigation)
			r.Get("/{id}/report", rt.GetReport)
			r.Get("/{id}/progress", rt.Progress)
			r.Post("/{id}/cancel", rt.CancelInvestigation)
			r.Delete("/{id}", rt.DeleteInvestigation)
		})

		r.Get("/connectors", rt.ListConnectors)
		r.Get("/audit/events", rt.AuditEvents)
	})

	return r
}
