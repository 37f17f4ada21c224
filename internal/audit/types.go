// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package audit records who did what to which investigation.
//
// OSINT tooling cuts both ways; the audit trail is what separates an
// accountable deployment from an anonymous one. Every submission,
// cancellation, deletion, rejected seed, and report access lands here,
// with the acting principal and request origin attached. Events buffer
// through an async writer into either an in-memory ring or a DuckDB
// file, and age out after the configured retention window.
package audit

import (
	"time"

	"github.com/goccy/go-json"
)

// EventType categorizes audit events.
type EventType string

// Audit event catalog.
const (
	// Investigation lifecycle.
	EventInvestigationSubmitted EventType = "investigation.submitted"
	EventInvestigationCancelled EventType = "investigation.cancelled"
	EventInvestigationCompleted EventType = "investigation.completed"
	EventInvestigationDeleted   EventType = "investigation.deleted"

	// Security screening.
	EventSeedRejected EventType = "seed.rejected"

	// Report access.
	EventReportGenerated EventType = "report.generated"
	EventReportAccessed  EventType = "report.accessed"

	// Authentication and authorization.
	EventAuthSuccess EventType = "auth.success"
	EventAuthFailure EventType = "auth.failure"
	EventAuthzDenied EventType = "authz.denied"
)

// Severity grades an audit event.
type Severity string

// Severities.
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Outcome records whether the audited action succeeded.
type Outcome string

// Outcomes.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Actor is the principal that performed the action.
type Actor struct {
	// ID is the subject identifier from the auth layer; "system" for
	// actions the pipeline takes on its own.
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`

	// Roles held at the time of the action.
	Roles []string `json:"roles,omitempty"`

	// AuthMethod that authenticated the actor (jwt, basic, oidc, none).
	AuthMethod string `json:"auth_method,omitempty"`
}

// Target is the resource acted on, usually an investigation.
type Target struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Source is where the request came from.
type Source struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent,omitempty"`
}

// Event is one audit record.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Severity  Severity  `json:"severity"`
	Outcome   Outcome   `json:"outcome"`

	Actor  Actor   `json:"actor"`
	Target *Target `json:"target,omitempty"`
	Source Source  `json:"source"`

	// Action is the short verb phrase; Description carries detail.
	Action      string `json:"action"`
	Description string `json:"description"`

	// Metadata holds event-specific structured detail.
	Metadata json.RawMessage `json:"metadata,omitempty"`

	// RequestID ties the event to its HTTP request log lines.
	RequestID string `json:"request_id,omitempty"`
}

// QueryFilter narrows audit queries. Zero values match everything.
type QueryFilter struct {
	Types    []EventType `json:"types,omitempty"`
	Outcomes []Outcome   `json:"outcomes,omitempty"`

	ActorID  string `json:"actor_id,omitempty"`
	TargetID string `json:"target_id,omitempty"`

	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Limit caps results; zero means DefaultQueryLimit.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// DefaultQueryLimit applies when a query carries no limit.
const DefaultQueryLimit = 100

func (f QueryFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultQueryLimit
	}
	return f.Limit
}

// matches reports whether the event passes every filter criterion.
func (f *QueryFilter) matches(e *Event) bool {
	if len(f.Types) > 0 && !containsType(f.Types, e.Type) {
		return false
	}
	if len(f.Outcomes) > 0 && !containsOutcome(f.Outcomes, e.Outcome) {
		return false
	}
	if f.ActorID != "" && e.Actor.ID != f.ActorID {
		return false
	}
	if f.TargetID != "" && (e.Target == nil || e.Target.ID != f.TargetID) {
		return false
	}
	if f.StartTime != nil && e.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && e.Timestamp.After(*f.EndTime) {
		return false
	}
	return true
}

func containsType(list []EventType, t EventType) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}

func containsOutcome(list []Outcome, o Outcome) bool {
	for _, v := range list {
		if v == o {
			return true
		}
	}
	return false
}
