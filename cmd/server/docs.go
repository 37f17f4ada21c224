// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package main provides the Vestigium HTTP server
//
// Vestigium runs passive OSINT investigations over public sources and
// resolves the findings into a confidence-scored entity report.
//
// @title Vestigium API
// @version 1.0
// @description Passive OSINT investigation pipeline: submit a seed of known identifiers, follow progress in real time, and retrieve a confidence-scored digital footprint report.
// @description
// @description ## Investigation Lifecycle
// @description
// @description pending → running → completed | partial | failed | cancelled
// @description
// @description Submit a seed via `POST /api/v1/investigations`, poll `GET /api/v1/investigations/{id}` or stream `GET /api/v1/investigations/{id}/progress` (WebSocket), then fetch `GET /api/v1/investigations/{id}/report` as JSON, Markdown, or HTML.
// @description
// @description ## Authentication
// @description
// @description Four modes: `jwt` (default), `basic`, `oidc` token introspection, and `none` for development. In JWT mode obtain a token via `/api/v1/auth/login`; it is accepted as a Bearer header or the `vestigium_session` cookie.
// @description
// @description ## Roles
// @description
// @description - **viewer**: read investigations, reports, and connector status
// @description - **analyst**: viewer plus submit and cancel investigations
// @description - **admin**: analyst plus delete investigations and read the audit trail
// @description
// @description ## Rate Limiting
// @description
// @description Default: 100 requests per minute per IP. Login is limited to 5 attempts per 5 minutes per IP.
// @description
// @description ## Error Responses
// @description
// @description All error responses follow this format:
// @description ```json
// @description {
// @description   "status": "error",
// @description   "data": null,
// @description   "error": {
// @description     "code": "ERROR_CODE",
// @description     "message": "Human-readable error message",
// @description     "details": {}
// @description   },
// @description   "metadata": {
// @description     "timestamp": "2026-08-25T12:34:56Z"
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/vestigium/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:9407
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT as "Bearer {token}". Obtain via /api/v1/auth/login; also accepted as the vestigium_session HTTP-only cookie.
//
// @tag.name Auth
// @tag.description Login and session management
//
// @tag.name Investigations
// @tag.description Submit, inspect, cancel, and delete investigations and retrieve reports
//
// @tag.name Connectors
// @tag.description Source connector status: breaker state, budgets, and health
//
// @tag.name Audit
// @tag.description Append-only audit trail queries (admin only)
//
// @tag.name Health
// @tag.description Liveness and readiness probes
package main
