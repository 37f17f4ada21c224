// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package models

import "time"

// TimelineEventType labels life and digital-activity events.
type TimelineEventType string

// Timeline event types, grouped by family.
const (
	// Life events.
	EventBirth          TimelineEventType = "birth"
	EventEducationStart TimelineEventType = "education_start"
	EventEducationEnd   TimelineEventType = "education_end"
	EventGraduation     TimelineEventType = "graduation"
	EventJobStart       TimelineEventType = "job_start"
	EventJobEnd         TimelineEventType = "job_end"
	EventPromotion      TimelineEventType = "promotion"
	EventMarriage       TimelineEventType = "marriage"
	EventRelocation     TimelineEventType = "relocation"

	// Digital events.
	EventAccountCreated   TimelineEventType = "account_created"
	EventDomainRegistered TimelineEventType = "domain_registered"
	EventPost             TimelineEventType = "post"
	EventBreachExposure   TimelineEventType = "breach_exposure"

	// Public-record events.
	EventLegalRecord  TimelineEventType = "legal_record"
	EventMediaMention TimelineEventType = "media_mention"
	EventOther        TimelineEventType = "other"
)

// DatePrecision states how exact an event's date is. Ordering matters:
// more precise events sort ahead of vaguer ones on the same date.
type DatePrecision int

// Date precisions, most precise first.
const (
	PrecisionDay DatePrecision = iota
	PrecisionMonth
	PrecisionYear
	PrecisionDecade
	PrecisionApproximate
	PrecisionUnknown
)

// String returns the wire name of the precision.
func (p DatePrecision) String() string {
	switch p {
	case PrecisionDay:
		return "day"
	case PrecisionMonth:
		return "month"
	case PrecisionYear:
		return "year"
	case PrecisionDecade:
		return "decade"
	case PrecisionApproximate:
		return "approximate"
	default:
		return "unknown"
	}
}

// TimelineEvent is one dated fact about a resolved entity.
type TimelineEvent struct {
	ID       string            `json:"id"`
	EntityID string            `json:"entity_id"`
	Type     TimelineEventType `json:"type"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	Date      time.Time     `json:"date"`
	Precision DatePrecision `json:"precision"`

	// Confidence 0-1. Merging duplicate events combines confidences as
	// 1 - prod(1 - c_i).
	Confidence float64 `json:"confidence"`

	// Sources lists every origin that reported this event. Merges union
	// the source sets.
	Sources []string `json:"sources"`
}
