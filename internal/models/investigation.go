// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package models

import "time"

// InvestigationStatus is the coordinator state machine position.
type InvestigationStatus string

// Investigation statuses. The pipeline moves created -> planning ->
// fetching <-> parsing <-> resolving -> reporting -> completed; failed and
// cancelled are terminal from any non-terminal state.
const (
	StatusCreated   InvestigationStatus = "created"
	StatusPlanning  InvestigationStatus = "planning"
	StatusFetching  InvestigationStatus = "fetching"
	StatusParsing   InvestigationStatus = "parsing"
	StatusResolving InvestigationStatus = "resolving"
	StatusReporting InvestigationStatus = "reporting"
	StatusCompleted InvestigationStatus = "completed"
	StatusFailed    InvestigationStatus = "failed"
	StatusCancelled InvestigationStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are possible.
func (s InvestigationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Progress is a point-in-time snapshot of pipeline advancement.
type Progress struct {
	// Percent is the weighted completion estimate, 0-100.
	Percent float64 `json:"percent"`

	QueriesPlanned   int `json:"queries_planned"`
	QueriesExecuted  int `json:"queries_executed"`
	QueriesFailed    int `json:"queries_failed"`
	CandidatesFound  int `json:"candidates_found"`
	EntitiesResolved int `json:"entities_resolved"`

	CurrentStage InvestigationStatus `json:"current_stage"`
}

// InvestigationError records one non-fatal failure. Per-query failures
// accumulate here without aborting the investigation.
type InvestigationError struct {
	Kind       string    `json:"kind"`
	Source     string    `json:"source,omitempty"`
	QueryID    string    `json:"query_id,omitempty"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Investigation is the persistent record of one investigation. The
// coordinator owns it until a terminal state; afterwards the store is the
// source of truth.
type Investigation struct {
	ID     string              `json:"id"`
	Seed   Seed                `json:"seed"`
	Status InvestigationStatus `json:"status"`

	Progress Progress             `json:"progress"`
	Errors   []InvestigationError `json:"errors,omitempty"`

	// Partial is set when the investigation completed with less than its
	// full plan: deadline expiry or cancellation with results in hand.
	Partial bool `json:"partial,omitempty"`

	// ReportID references the stored report once reporting finishes.
	ReportID string `json:"report_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Deadline is the hard wall-clock bound for this investigation.
	Deadline time.Time `json:"deadline"`

	// RetainUntil is when stored results become eligible for deletion.
	RetainUntil time.Time `json:"retain_until"`
}

// ProgressEventType labels events on the progress stream.
type ProgressEventType string

// Progress event types. StageTransition and Completion are critical: the
// stream never drops them under backpressure.
const (
	EventStatusUpdate    ProgressEventType = "status_update"
	EventNewEntity       ProgressEventType = "new_entity"
	EventStageTransition ProgressEventType = "stage_transition"
	EventError           ProgressEventType = "error"
	EventCompletion      ProgressEventType = "completion"
)

// Critical reports whether this event type survives backpressure drops.
func (t ProgressEventType) Critical() bool {
	return t == EventStageTransition || t == EventCompletion
}

// ProgressEvent is one event on an investigation's progress stream.
type ProgressEvent struct {
	Type            ProgressEventType `json:"type"`
	InvestigationID string            `json:"investigation_id"`
	Timestamp       time.Time         `json:"timestamp"`

	// Dropped counts non-critical events discarded since the previous
	// delivered event, so subscribers can detect gaps.
	Dropped int `json:"dropped,omitempty"`

	// Data is the event payload: a Progress snapshot for status updates,
	// entity summary for new_entity, error detail for error events.
	Data interface{} `json:"data,omitempty"`
}
