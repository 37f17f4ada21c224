// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package models

import "time"

// EntityType classifies extracted entities.
type EntityType string

// Entity types.
const (
	EntityPerson        EntityType = "person"
	EntityEmailAddress  EntityType = "email_address"
	EntityPhoneNumber   EntityType = "phone_number"
	EntityUsername      EntityType = "username"
	EntityDomain        EntityType = "domain"
	EntityOrganization  EntityType = "organization"
	EntityLocation      EntityType = "location"
	EntitySocialProfile EntityType = "social_profile"
	EntityBreachRecord  EntityType = "breach_record"
	EntityDocument      EntityType = "document"
)

// Attribute keys. Attributes are a closed vocabulary: extractors and
// normalizers only write these keys, so downstream comparison logic can
// trust them.
const (
	AttrFullName    = "full_name"
	AttrFirstName   = "first_name"
	AttrLastName    = "last_name"
	AttrEmail       = "email"
	AttrPhone       = "phone"
	AttrUsername    = "username"
	AttrPlatform    = "platform"
	AttrProfileURL  = "profile_url"
	AttrDomain      = "domain"
	AttrURL         = "url"
	AttrCompany     = "company"
	AttrEmployer    = "employer"
	AttrJobTitle    = "job_title"
	AttrCity        = "city"
	AttrRegion      = "region"
	AttrCountry     = "country"
	AttrDateOfBirth = "date_of_birth"
	AttrBio         = "bio"
	AttrRegistrar   = "registrar"
	AttrRegistrant  = "registrant"
	AttrCreatedDate = "created_date"
	AttrExpiresDate = "expires_date"
	AttrNameServers = "name_servers"
	AttrBreachName  = "breach_name"
	AttrBreachDate  = "breach_date"
	AttrDataClasses = "data_classes"
	AttrTitle       = "title"
	AttrSnippet     = "snippet"
)

// Candidate is an entity occurrence extracted from one raw result. Multiple
// candidates for the same real-world entity are expected; resolution merges
// them later.
type Candidate struct {
	ID          string     `json:"id"`
	RawResultID string     `json:"raw_result_id"`
	Source      string     `json:"source"`
	Type        EntityType `json:"type"`

	// Attributes hold extracted values keyed by the Attr* constants.
	Attributes map[string]string `json:"attributes"`

	// ExtractionConfidence is how sure the parser is that this is a real
	// entity of this type, 0-1. Structured fields score high; heuristic
	// text extraction scores low.
	ExtractionConfidence float64 `json:"extraction_confidence"`

	// Context is a short redacted snippet around the extraction site.
	Context string `json:"context,omitempty"`

	ExtractedAt time.Time `json:"extracted_at"`
}

// NormalizedEntity is a candidate with canonical attribute forms and
// precomputed comparison keys. Normalization is idempotent: normalizing
// a NormalizedEntity's output again yields the same keys.
type NormalizedEntity struct {
	Candidate

	// Canonical holds normalized attribute values (lowercased emails with
	// provider aliases folded, E.164 phones, stripped usernames). Keys
	// mirror Attributes.
	Canonical map[string]string `json:"canonical"`

	// CompareKeys are blocking and matching keys: deliverable_key, e164,
	// last7, canonical_username, name_key, phonetic codes. Only entities
	// sharing at least one key are ever compared pairwise.
	CompareKeys map[string]string `json:"compare_keys"`

	// UsernameVariants are generated handle forms (joined, underscored,
	// first-initial) used for cross-platform matching.
	UsernameVariants []string `json:"username_variants,omitempty"`

	// Quality scores normalization completeness and consistency, 0-1.
	Quality float64 `json:"quality"`
}

// VerificationStatus grades a resolved entity by cluster confidence.
type VerificationStatus string

// Verification statuses.
const (
	VerificationVerified VerificationStatus = "verified" // >= 90
	VerificationProbable VerificationStatus = "probable" // 75-89
	VerificationPossible VerificationStatus = "possible" // 60-74
	VerificationUnlikely VerificationStatus = "unlikely" // < 60
)

// VerificationStatusFor maps a confidence score to its status band.
func VerificationStatusFor(confidence float64) VerificationStatus {
	switch {
	case confidence >= 90:
		return VerificationVerified
	case confidence >= 75:
		return VerificationProbable
	case confidence >= 60:
		return VerificationPossible
	default:
		return VerificationUnlikely
	}
}

// DisputedValue records an attribute value that lost a merge conflict,
// with enough provenance to audit the decision.
type DisputedValue struct {
	Value            string    `json:"value"`
	Source           string    `json:"source"`
	SourceConfidence float64   `json:"source_confidence"`
	ObservedAt       time.Time `json:"observed_at"`
}

// SourceRef ties a resolved entity back to the evidence supporting it.
type SourceRef struct {
	CandidateID string    `json:"candidate_id"`
	Source      string    `json:"source"`
	URL         string    `json:"url,omitempty"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// ResolvedEntity is the merge of one or more normalized entities judged to
// be the same real-world entity.
type ResolvedEntity struct {
	ID   string     `json:"id"`
	Type EntityType `json:"type"`

	// Attributes hold the winning value per key after conflict resolution.
	Attributes map[string]string `json:"attributes"`

	// Disputed holds losing values per attribute key. An empty map means
	// every merge was conflict-free.
	Disputed map[string][]DisputedValue `json:"disputed_attributes,omitempty"`

	// Confidence is the cluster confidence, 0-100: the weakest pairwise
	// match score that held the cluster together.
	Confidence float64 `json:"confidence"`

	Verification VerificationStatus `json:"verification_status"`

	// Sources lists every candidate merged into this entity.
	Sources []SourceRef `json:"sources"`

	// MergedFrom counts the candidates merged in.
	MergedFrom int `json:"merged_from"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
