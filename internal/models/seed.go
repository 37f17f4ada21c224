// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package models

// Seed cardinality limits. Submissions exceeding these are rejected at
// validation, before any query is planned.
const (
	MaxSeedUsernames = 20
	MaxSeedEmails    = 10
	MaxSeedPhones    = 5
	MaxSeedDomains   = 10
)

// Default seed constraint values.
const (
	DefaultSearchDepth   = 3
	DefaultRetentionDays = 90

	MinSearchDepth = 1
	MaxSearchDepth = 10

	MinRetentionDays = 1
	MaxRetentionDays = 365
)

// Default confidence thresholds (0-100 scale).
const (
	DefaultEntityConfidence = 70.0
	DefaultSourceConfidence = 60.0
)

// Seed describes the investigation subject. FullName is the only required
// identifier; every other field narrows or widens the discovery plan.
type Seed struct {
	// FullName is the subject's name as known. Required.
	FullName string `json:"full_name" koanf:"full_name" validate:"required,min=2,max=200"`

	// Aliases are alternate names the subject is known by.
	Aliases []string `json:"aliases,omitempty" validate:"max=10,dive,min=2,max=200"`

	// Usernames are known handles on any platform.
	Usernames []string `json:"usernames,omitempty" validate:"max=20,dive,min=1,max=100"`

	// Emails are known addresses.
	Emails []string `json:"emails,omitempty" validate:"max=10,dive,email"`

	// Phones are known numbers in E.164 format.
	Phones []string `json:"phones,omitempty" validate:"max=5,dive,e164"`

	// KnownDomains are domains associated with the subject.
	KnownDomains []string `json:"known_domains,omitempty" validate:"max=10,dive,fqdn"`

	// Employers are current or past organizations.
	Employers []string `json:"employers,omitempty" validate:"max=10,dive,min=1,max=200"`

	// GeographicHints bias phone-region inference and location queries.
	// Values are city or country names, most relevant first.
	GeographicHints []string `json:"geographic_hints,omitempty" validate:"max=10,dive,min=2,max=100"`

	// DateOfBirth in YYYY-MM-DD form, if known. Used only for matching.
	DateOfBirth string `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`

	Constraints SeedConstraints `json:"constraints"`
	Thresholds  SeedThresholds  `json:"thresholds"`
}

// SeedConstraints bound the scope and lifetime of an investigation.
//
// ExcludeSensitiveAttributes and ExcludeMinors are not user choices: they
// are forced on during validation regardless of the submitted values.
type SeedConstraints struct {
	ExcludeSensitiveAttributes bool `json:"exclude_sensitive_attributes"`
	ExcludeMinors              bool `json:"exclude_minors"`

	// MaxSearchDepth caps discovery expansion rounds (1-10, default 3).
	MaxSearchDepth int `json:"max_search_depth" validate:"omitempty,min=1,max=10"`

	// RetentionDays is how long results persist after completion (1-365, default 90).
	RetentionDays int `json:"retention_days" validate:"omitempty,min=1,max=365"`
}

// SeedThresholds tune resolution and source filtering (0-100 scale).
type SeedThresholds struct {
	// MinimumEntityConfidence is the merge threshold for entity resolution.
	MinimumEntityConfidence float64 `json:"minimum_entity_confidence" validate:"omitempty,min=0,max=100"`

	// MinimumSourceConfidence filters out low-trust connectors entirely.
	MinimumSourceConfidence float64 `json:"minimum_source_confidence" validate:"omitempty,min=0,max=100"`
}

// ApplyDefaults fills zero-valued constraint and threshold fields and forces
// the non-negotiable protections on. Call after validation, before planning.
func (s *Seed) ApplyDefaults() {
	s.Constraints.ExcludeSensitiveAttributes = true
	s.Constraints.ExcludeMinors = true

	if s.Constraints.MaxSearchDepth == 0 {
		s.Constraints.MaxSearchDepth = DefaultSearchDepth
	}
	if s.Constraints.RetentionDays == 0 {
		s.Constraints.RetentionDays = DefaultRetentionDays
	}
	if s.Thresholds.MinimumEntityConfidence == 0 {
		s.Thresholds.MinimumEntityConfidence = DefaultEntityConfidence
	}
	if s.Thresholds.MinimumSourceConfidence == 0 {
		s.Thresholds.MinimumSourceConfidence = DefaultSourceConfidence
	}
}

// IdentifierCount returns how many distinct seed identifiers were provided.
// Planners use this for priority weighting; one-identifier seeds produce
// narrow plans.
func (s *Seed) IdentifierCount() int {
	count := 0
	if s.FullName != "" {
		count++
	}
	count += len(s.Aliases)
	count += len(s.Usernames)
	count += len(s.Emails)
	count += len(s.Phones)
	count += len(s.KnownDomains)
	count += len(s.Employers)
	return count
}
