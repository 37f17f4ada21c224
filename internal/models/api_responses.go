// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints, for both success and error payloads.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"investigation_id": "…", "status": "fetching"},
//	  "metadata": {
//	    "timestamp": "2026-08-24T12:00:00Z",
//	    "query_time_ms": 12
//	  }
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "NOT_READY",
//	    "message": "report not available until investigation completes"
//	  },
//	  "metadata": {"timestamp": "2026-08-24T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is the structured error payload. Code values come from
// fault.Code and stay stable for client branching.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SubmitAccepted is the 202 payload for a newly created investigation.
type SubmitAccepted struct {
	InvestigationID     string    `json:"investigation_id"`
	Status              string    `json:"status"`
	EstimatedCompletion time.Time `json:"estimated_completion"`
}

// ConnectorStatus is the registry listing entry for one connector.
type ConnectorStatus struct {
	Name             string     `json:"name"`
	Type             SourceType `json:"type"`
	Kinds            []QueryKind `json:"supported_kinds"`
	RateLimitPerHour int        `json:"rate_limit_per_hour"`
	BaseConfidence   float64    `json:"base_confidence"`
	BreakerState     string     `json:"breaker_state"`
	Healthy          bool       `json:"healthy"`
}
