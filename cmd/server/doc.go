// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

/*
Package main is the entry point for the Vestigium server.

Vestigium runs passive OSINT investigations: it takes a seed of known
identifiers (names, emails, usernames, domains, ...), fans queries out
across public source connectors, and resolves the results into an
entity graph with a confidence-scored report.

# Application Architecture

The server implements a layered architecture with Suture v4 process
supervision:

	RootSupervisor ("vestigium")
	├── PipelineSupervisor ("pipeline-layer")
	│   ├── cache janitor
	│   ├── retention sweep (store)
	│   ├── audit prune
	│   └── limiter eviction
	├── MessagingSupervisor ("messaging-layer")
	│   └── event bus (Watermill; gochannel or NATS JetStream)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (REST API + WebSocket progress streams)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Investigation store: BadgerDB (durable) or in-memory
 3. Audit trail: DuckDB-backed append-only event log
 4. Result cache: in-memory LRU with optional BadgerDB mirror
 5. Rate limiter and source connector registry
 6. Fetch scheduler, seed security screening, event bus
 7. Investigation manager (the pipeline orchestrator)
 8. Authentication (JWT, Basic, OIDC, or none) and Casbin RBAC
 9. HTTP server: REST API with Swagger documentation

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest
priority wins):
  - Environment variables (HTTP_PORT, AUTH_MODE, STORE_BACKEND, ...)
  - Config file (config.yaml, or CONFIG_PATH)
  - Built-in defaults

For JWT authentication (default):
  - JWT_SECRET: 32+ character secret for token signing
  - ADMIN_USERNAME: Admin username
  - ADMIN_PASSWORD: Admin password (8+ characters)

# Build Tags

Optional build tags enable additional functionality:

	go build -tags "nats" ./cmd/server  # Enable the NATS event transport

Without the tag the bus runs on the in-process gochannel transport and
rejects a "nats" transport setting at startup.

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:
  - Stops accepting new connections
  - Waits for in-flight requests to complete (10s timeout)
  - Cancels running investigations and flushes the audit trail
  - Closes the store, cache mirror, and event bus

# Example Usage

Development, no auth, everything in memory:

	export AUTH_MODE=none
	export STORE_BACKEND=memory
	export AUDIT_ENABLED=false
	./vestigium

Production with JWT:

	export ENVIRONMENT=production
	export JWT_SECRET=$(openssl rand -base64 32)
	export ADMIN_USERNAME=admin
	export ADMIN_PASSWORD=secure-password
	./vestigium
*/
package main
