// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package connector defines the source connector interface and the built-in
// adapters for public OSINT sources.
//
// An adapter translates one source's native query dialect and response
// format into RawResults. Adapters never parse content into entities (the
// parse stage does that) and never retain seed identifiers beyond request
// construction. All failures come back as *fault.Error so the scheduler can
// route on the kind.
package connector

import (
	"context"

	"github.com/tomtom215/vestigium/internal/models"
)

// Connector is one queryable OSINT source.
type Connector interface {
	// Name is the unique registry key, e.g. "whois".
	Name() string

	// Type categorizes the class of source.
	Type() models.SourceType

	// SupportedKinds lists the query kinds this source can answer. The
	// planner only routes supported kinds here.
	SupportedKinds() []models.QueryKind

	// RateLimitPerHour is the declared request budget, enforced by the
	// rate-limit controller.
	RateLimitPerHour() int

	// BaseConfidence is the trust weight of this source, 0-1. Registries
	// and certificate logs score high; search engine snippets score lower.
	BaseConfidence() float64

	// Search executes one query. It honors ctx deadline and cancellation
	// and returns classified errors; an empty result set is not an error.
	Search(ctx context.Context, q *models.Query) ([]models.RawResult, error)

	// ValidateCredentials checks configured credentials against the source.
	// Keyless sources return nil without a network call.
	ValidateCredentials(ctx context.Context) error
}
