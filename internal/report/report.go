// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package report assembles the final investigation artifact.
//
// Assembly is deterministic: every section sorts its contents, and the
// generation timestamp comes from the caller, so the same resolved
// entities, timeline, and graph always produce a byte-identical report.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/graph"
	"github.com/tomtom215/vestigium/internal/models"
	"github.com/tomtom215/vestigium/internal/risk"
)

// Input carries everything the builder needs. Timeline events must
// already be merged and sorted (the timeline builder's Events output).
type Input struct {
	Investigation *models.Investigation
	Entities      []models.ResolvedEntity
	Events        []models.TimelineEvent
	Graph         *graph.Graph
	Sources       []models.SourceReference

	// GeneratedAt stamps the report; the coordinator passes a fixed time
	// so regeneration is reproducible.
	GeneratedAt time.Time
}

// Build assembles the report.
func Build(in Input) (*models.Report, error) {
	if in.Investigation == nil {
		return nil, fault.New(fault.KindValidation, "report: investigation required")
	}

	g := in.Graph
	if g == nil {
		g = graph.New()
	}

	assessment := risk.Score(risk.Input{
		Entities: in.Entities,
		Events:   in.Events,
		Graph:    g.Stats(),
		AsOf:     in.GeneratedAt,
	})

	exposure := exposureAnalysis(in.Entities)

	r := &models.Report{
		InvestigationID:   in.Investigation.ID,
		GeneratedAt:       in.GeneratedAt,
		Partial:           in.Investigation.Partial,
		IdentityInventory: identityInventory(in.Entities),
		ExposureAnalysis:  exposure,
		Timeline:          in.Events,
		ActivityBuckets:   activityBuckets(in.Events),
		Risk:              assessment,
		Recommendations:   recommendations(assessment, exposure),
		Findings:          findings(in.Entities, g),
		Sources:           sortedSources(in.Sources),
		Graph:             graphSummary(g),
		Errors:            in.Investigation.Errors,
	}
	r.ExecutiveSummary = executiveSummary(in.Investigation, r)
	return r, nil
}

// identityInventory groups entities by verification status, strongest
// band first, entities within a band by confidence descending.
func identityInventory(entities []models.ResolvedEntity) []models.IdentityGroup {
	order := []models.VerificationStatus{
		models.VerificationVerified,
		models.VerificationProbable,
		models.VerificationPossible,
		models.VerificationUnlikely,
	}

	byStatus := make(map[models.VerificationStatus][]models.ResolvedEntity)
	for _, e := range entities {
		byStatus[e.Verification] = append(byStatus[e.Verification], e)
	}

	var groups []models.IdentityGroup
	for _, status := range order {
		members := byStatus[status]
		if len(members) == 0 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].Confidence != members[j].Confidence {
				return members[i].Confidence > members[j].Confidence
			}
			return members[i].ID < members[j].ID
		})
		groups = append(groups, models.IdentityGroup{Status: status, Entities: members})
	}
	return groups
}

// exposureClass maps an entity to the exposure category it counts
// toward, with a short example string.
func exposureClass(e models.ResolvedEntity) (category, example string) {
	switch e.Type {
	case models.EntityEmailAddress:
		return "email_addresses", e.Attributes[models.AttrEmail]
	case models.EntityPhoneNumber:
		return "phone_numbers", e.Attributes[models.AttrPhone]
	case models.EntityUsername:
		return "usernames", e.Attributes[models.AttrUsername]
	case models.EntitySocialProfile:
		return "social_profiles", e.Attributes[models.AttrProfileURL]
	case models.EntityDomain:
		return "domains", e.Attributes[models.AttrDomain]
	case models.EntityBreachRecord:
		return "breach_records", e.Attributes[models.AttrBreachName]
	case models.EntityLocation:
		return "locations", e.Attributes[models.AttrCity]
	case models.EntityDocument:
		return "documents", e.Attributes[models.AttrTitle]
	default:
		return "", ""
	}
}

const exposureExampleCap = 3

// exposureAnalysis counts exposed items per category. Category risk is
// min(100, 20*count) scaled up 10% per corroborating source, capped at
// 100: five independently-sourced emails are worse than five from one
// index.
func exposureAnalysis(entities []models.ResolvedEntity) []models.ExposureCategory {
	type bucket struct {
		count    int
		sources  map[string]struct{}
		examples []string
	}
	buckets := make(map[string]*bucket)

	for _, e := range entities {
		category, example := exposureClass(e)
		if category == "" {
			continue
		}
		b := buckets[category]
		if b == nil {
			b = &bucket{sources: make(map[string]struct{})}
			buckets[category] = b
		}
		b.count++
		for _, ref := range e.Sources {
			b.sources[ref.Source] = struct{}{}
		}
		if example != "" {
			b.examples = append(b.examples, example)
		}
	}

	categories := make([]string, 0, len(buckets))
	for c := range buckets {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	out := make([]models.ExposureCategory, 0, len(categories))
	for _, c := range categories {
		b := buckets[c]
		base := float64(20 * b.count)
		if base > 100 {
			base = 100
		}
		score := base * (1 + 0.1*float64(len(b.sources)))
		if score > 100 {
			score = 100
		}

		sort.Strings(b.examples)
		examples := b.examples
		if len(examples) > exposureExampleCap {
			examples = examples[:exposureExampleCap]
		}

		out = append(out, models.ExposureCategory{
			Category: c,
			Count:    b.count,
			Sources:  len(b.sources),
			Risk:     score,
			Examples: examples,
		})
	}
	return out
}

// activityBuckets builds a month histogram across all timeline events.
func activityBuckets(events []models.TimelineEvent) []models.ActivityBucket {
	counts := make(map[string]int)
	for _, e := range events {
		counts[e.Date.Format("2006-01")]++
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	out := make([]models.ActivityBucket, 0, len(labels))
	for _, label := range labels {
		out = append(out, models.ActivityBucket{Label: label, Count: counts[label]})
	}
	return out
}

// recommendation rules, keyed by trigger. Impact estimates are the
// expected overall-score reduction if the action is completed.
func recommendations(a models.RiskAssessment, exposure []models.ExposureCategory) []models.Recommendation {
	var recs []models.Recommendation

	byCategory := make(map[string]models.ExposureCategory, len(exposure))
	for _, c := range exposure {
		byCategory[c.Category] = c
	}

	if c, ok := byCategory["breach_records"]; ok && c.Count > 0 {
		recs = append(recs, models.Recommendation{
			Priority: 1,
			Category: "security",
			Action:   "Rotate passwords on every account tied to breached email addresses and enable multi-factor authentication.",
			// Credential exposure dominates the security sub-score.
			ImpactEstimate: 0.30 * 0.3 * 70,
			Effort:         "low",
		})
	}
	if a.Privacy >= 50 {
		recs = append(recs, models.Recommendation{
			Priority:       2,
			Category:       "privacy",
			Action:         "Request removal of personal contact details from data-broker and people-search sites.",
			ImpactEstimate: 0.35 * 20,
			Effort:         "medium",
		})
	}
	if c, ok := byCategory["social_profiles"]; ok && c.Count >= 3 {
		recs = append(recs, models.Recommendation{
			Priority:       3,
			Category:       "privacy",
			Action:         "Audit social profiles for public personal details and tighten visibility settings; deactivate unused accounts.",
			ImpactEstimate: 0.35 * 10,
			Effort:         "medium",
		})
	}
	if a.IdentityTheft >= 50 {
		recs = append(recs, models.Recommendation{
			Priority:       4,
			Category:       "identity",
			Action:         "Place a credit freeze or fraud alert with the major credit bureaus.",
			ImpactEstimate: 0.20 * 25,
			Effort:         "low",
		})
	}
	if c, ok := byCategory["usernames"]; ok && c.Count >= 2 {
		recs = append(recs, models.Recommendation{
			Priority:       5,
			Category:       "privacy",
			Action:         "Stop reusing the same handle across platforms; shared usernames link otherwise separate accounts.",
			ImpactEstimate: 0.15 * 10,
			Effort:         "high",
		})
	}

	for i := range recs {
		recs[i].ImpactEstimate = float64(int(recs[i].ImpactEstimate*10+0.5)) / 10
	}
	return recs
}

const centralEntityCap = 5

// findings turns structured observations into report items: breach
// records, contested attribute values, and graph hubs.
func findings(entities []models.ResolvedEntity, g *graph.Graph) []models.Finding {
	var out []models.Finding

	for _, e := range entities {
		if e.Type == models.EntityBreachRecord {
			name := e.Attributes[models.AttrBreachName]
			if name == "" {
				name = "unnamed breach"
			}
			severity := models.RiskHigh
			if !strings.Contains(strings.ToLower(e.Attributes[models.AttrDataClasses]), "password") {
				severity = models.RiskMedium
			}
			out = append(out, models.Finding{
				Title:    fmt.Sprintf("Present in data breach %q", name),
				EntityID: e.ID,
				Severity: severity,
				Detail:   fmt.Sprintf("Exposed data classes: %s.", orUnknown(e.Attributes[models.AttrDataClasses])),
				Evidence: e.Sources,
			})
		}

		if len(e.Disputed) > 0 {
			keys := make([]string, 0, len(e.Disputed))
			for k := range e.Disputed {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			out = append(out, models.Finding{
				Title:    "Conflicting attribute values across sources",
				EntityID: e.ID,
				Severity: models.RiskLow,
				Detail:   fmt.Sprintf("Sources disagreed on: %s. The highest-confidence value was kept; alternatives are retained as disputed.", strings.Join(keys, ", ")),
				Evidence: e.Sources,
			})
		}
	}

	for _, id := range g.TopCentral(1) {
		if n, ok := g.Node(id); ok && g.NodeCount() >= 5 {
			out = append(out, models.Finding{
				Title:    "Highly connected entity",
				EntityID: id,
				Severity: models.RiskMedium,
				Detail:   fmt.Sprintf("%q is the most central node in the discovered network; it links otherwise separate parts of the footprint.", n.Label),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out
}

func graphSummary(g *graph.Graph) models.GraphSummary {
	stats := g.Stats()
	summary := models.GraphSummary{
		Nodes:      stats.Nodes,
		Edges:      stats.Edges,
		Components: stats.Components,
		Density:    stats.Density,
		Central:    g.TopCentral(centralEntityCap),
	}
	if gml, err := g.GraphML(); err == nil {
		summary.GraphML = gml
	}
	return summary
}

func sortedSources(sources []models.SourceReference) []models.SourceReference {
	out := make([]models.SourceReference, len(sources))
	copy(out, sources)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].URL < out[j].URL
	})
	return out
}

// executiveSummary writes the lead paragraph from the assembled report.
// Pure string assembly over already-deterministic sections.
func executiveSummary(inv *models.Investigation, r *models.Report) string {
	var b strings.Builder

	total := 0
	verified := 0
	for _, group := range r.IdentityInventory {
		total += len(group.Entities)
		if group.Status == models.VerificationVerified {
			verified = len(group.Entities)
		}
	}

	fmt.Fprintf(&b, "Investigation %s resolved %d distinct entities (%d verified) across %d sources.",
		inv.ID, total, verified, len(r.Sources))
	fmt.Fprintf(&b, " Overall risk is %s (%.1f/100): privacy %.1f, security %.1f, identity theft %.1f.",
		r.Risk.Level, r.Risk.Overall, r.Risk.Privacy, r.Risk.Security, r.Risk.IdentityTheft)

	if n := categoryCount(r.ExposureAnalysis, "breach_records"); n > 0 {
		fmt.Fprintf(&b, " The subject appears in %d data breach(es).", n)
	}
	if len(r.Recommendations) > 0 {
		fmt.Fprintf(&b, " %d remediation step(s) are recommended; see below.", len(r.Recommendations))
	}
	if r.Partial {
		b.WriteString(" This report is partial: some sources did not complete before the investigation deadline.")
	}
	return b.String()
}

func categoryCount(exposure []models.ExposureCategory, category string) int {
	for _, c := range exposure {
		if c.Category == category {
			return c.Count
		}
	}
	return 0
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
