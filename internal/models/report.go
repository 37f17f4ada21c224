// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package models

import "time"

// RiskLevel grades overall exposure.
type RiskLevel string

// Risk levels by overall score: LOW < 30 <= MEDIUM < 50 <= HIGH < 70 <= CRITICAL.
const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskLevelFor maps an overall score to its level band.
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score >= 70:
		return RiskCritical
	case score >= 50:
		return RiskHigh
	case score >= 30:
		return RiskMedium
	default:
		return RiskLow
	}
}

// RiskAssessment holds the composite risk scores, all 0-100.
// Overall = 0.35*Privacy + 0.30*Security + 0.20*IdentityTheft + 0.15*Misc.
type RiskAssessment struct {
	Overall       float64   `json:"overall"`
	Level         RiskLevel `json:"level"`
	Privacy       float64   `json:"privacy_exposure"`
	Security      float64   `json:"security_risk"`
	IdentityTheft float64   `json:"identity_theft_risk"`
	Misc          float64   `json:"misc_risk"`

	// Factors names the signals that drove each sub-score, for the report.
	Factors []string `json:"factors,omitempty"`
}

// Recommendation is one remediation step in the report.
type Recommendation struct {
	// Priority: 1 is most urgent.
	Priority int    `json:"priority"`
	Category string `json:"category"`
	Action   string `json:"action"`

	// ImpactEstimate is the expected overall-score reduction if applied.
	ImpactEstimate float64 `json:"impact_estimate"`

	// Effort: low, medium, high.
	Effort string `json:"effort"`
}

// ExposureCategory summarizes findings in one exposure class.
type ExposureCategory struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Sources  int     `json:"sources"`
	Risk     float64 `json:"risk"`
	Examples []string `json:"examples,omitempty"`
}

// IdentityGroup buckets resolved entities by verification status.
type IdentityGroup struct {
	Status   VerificationStatus `json:"status"`
	Entities []ResolvedEntity   `json:"entities"`
}

// Finding is one detailed report item tying an observation to evidence.
type Finding struct {
	Title      string      `json:"title"`
	EntityID   string      `json:"entity_id,omitempty"`
	Severity   RiskLevel   `json:"severity"`
	Detail     string      `json:"detail"`
	Evidence   []SourceRef `json:"evidence,omitempty"`
}

// SourceReference documents one upstream document used in the report.
type SourceReference struct {
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	ContentHash string    `json:"content_hash"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// ActivityBucket is one interval on the activity histogram.
type ActivityBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// GraphSummary carries entity-graph statistics into the report.
type GraphSummary struct {
	Nodes       int     `json:"nodes"`
	Edges       int     `json:"edges"`
	Components  int     `json:"components"`
	Density     float64 `json:"density"`
	// Central lists the highest-PageRank entity IDs, most central first.
	Central []string `json:"central,omitempty"`
	// GraphML is the serialized graph for external visualization tools.
	GraphML string `json:"graphml,omitempty"`
}

// Report is the deterministic final artifact of an investigation: the same
// resolved graph, timeline, and seed always produce the same report.
type Report struct {
	InvestigationID string    `json:"investigation_id"`
	GeneratedAt     time.Time `json:"generated_at"`

	// Partial mirrors the investigation flag: this report was built from
	// incomplete results.
	Partial bool `json:"partial,omitempty"`

	ExecutiveSummary string `json:"executive_summary"`

	IdentityInventory []IdentityGroup    `json:"identity_inventory"`
	ExposureAnalysis  []ExposureCategory `json:"exposure_analysis"`
	Timeline          []TimelineEvent    `json:"activity_timeline"`
	ActivityBuckets   []ActivityBucket   `json:"activity_buckets,omitempty"`
	Risk              RiskAssessment     `json:"risk_assessment"`
	Recommendations   []Recommendation   `json:"remediation_recommendations"`
	Findings          []Finding          `json:"detailed_findings"`
	Sources           []SourceReference  `json:"source_references"`
	Graph             GraphSummary       `json:"graph"`

	// Errors carried over from the investigation record.
	Errors []InvestigationError `json:"errors,omitempty"`
}
