// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package models

import "time"

// QueryKind identifies what dimension of the seed a query searches on.
type QueryKind string

// Query kinds. Composite kinds combine two seed dimensions to sharpen
// ambiguous names.
const (
	QueryKindPersonName   QueryKind = "person_name"
	QueryKindUsername     QueryKind = "username"
	QueryKindEmail        QueryKind = "email"
	QueryKindPhone        QueryKind = "phone"
	QueryKindDomain       QueryKind = "domain"
	QueryKindCompany      QueryKind = "company"
	QueryKindLocation     QueryKind = "location"
	QueryKindNameLocation QueryKind = "name_location"
	QueryKindNameEmployer QueryKind = "name_employer"
)

// SourceType categorizes connectors by the class of source they reach.
type SourceType string

// Source types.
const (
	SourceTypeDomainRegistry   SourceType = "domain_registry"
	SourceTypeCertTransparency SourceType = "cert_transparency"
	SourceTypeSearchEngine     SourceType = "search_engine"
	SourceTypeCodeRepository   SourceType = "code_repository"
	SourceTypeBreachDatabase   SourceType = "breach_database"
	SourceTypeArchive          SourceType = "archive"
	SourceTypeCorporateReg     SourceType = "corporate_registry"
	SourceTypeSocialDirectory  SourceType = "social_directory"
)

// Query is one planned unit of work: a normalized search term routed to a
// single connector. Queries are immutable once planned; retries reuse the
// same Query value.
type Query struct {
	ID              string    `json:"id"`
	InvestigationID string    `json:"investigation_id"`
	Kind            QueryKind `json:"kind"`

	// Value is the normalized search term.
	Value string `json:"value"`

	// Source is the connector name this query is routed to.
	Source string `json:"source"`

	// Parameters are connector-specific options. Keys are sorted when the
	// query is fingerprinted, so parameter order never splits the cache.
	Parameters map[string]string `json:"parameters,omitempty"`

	// Priority orders scheduling, 0-100, higher first.
	Priority int `json:"priority"`

	// Depth is the discovery round that produced this query. Seed-derived
	// queries are depth 1; expansion queries increment.
	Depth int `json:"depth"`

	CreatedAt time.Time `json:"created_at"`
}
