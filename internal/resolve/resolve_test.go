// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package resolve

import (
	"testing"
	"time"

	"github.com/tomtom215/vestigium/internal/graph"
	"github.com/tomtom215/vestigium/internal/models"
	"github.com/tomtom215/vestigium/internal/normalize"
)

var (
	sourceConf = map[string]float64{
		"whois":     0.9,
		"socialdir": 0.6,
		"webindex":  0.5,
	}
	extractedAt = time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
)

func normalized(t *testing.T, candidates ...models.Candidate) []models.NormalizedEntity {
	t.Helper()
	n := normalize.New("us", sourceConf)
	out := make([]models.NormalizedEntity, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, n.Normalize(c))
	}
	return out
}

func candidate(id, source, raw string, typ models.EntityType, attrs map[string]string) models.Candidate {
	return models.Candidate{
		ID:                   id,
		RawResultID:          raw,
		Source:               source,
		Type:                 typ,
		Attributes:           attrs,
		ExtractionConfidence: 0.9,
		ExtractedAt:          extractedAt,
	}
}

func newResolver() *Resolver {
	return New(Config{SourceConfidence: sourceConf})
}

func aliasPair(t *testing.T) []models.NormalizedEntity {
	return normalized(t,
		candidate("c1", "whois", "raw-1", models.EntityPerson, map[string]string{
			models.AttrFullName: "Alice Doe",
			models.AttrEmail:    "alice.doe@gmail.com",
		}),
		candidate("c2", "socialdir", "raw-2", models.EntityPerson, map[string]string{
			models.AttrFullName: "Alice Doe",
			models.AttrEmail:    "alicedoe+news@googlemail.com",
		}),
	)
}

func TestResolveMergesAliasedEmails(t *testing.T) {
	res := newResolver().Resolve(aliasPair(t))

	if len(res.Entities) != 1 {
		t.Fatalf("entities = %d, want 1 merged", len(res.Entities))
	}
	e := res.Entities[0]
	if e.MergedFrom != 2 || len(e.Sources) != 2 {
		t.Errorf("merged entity = %+v, want both candidates absorbed", e)
	}
	// Identical names (100) and alias-equivalent emails (90): the weakest
	// link is 95, which lands in the verified band.
	if e.Verification != models.VerificationVerified {
		t.Errorf("verification = %s (confidence %g), want verified", e.Verification, e.Confidence)
	}
	if res.ByCandidate["c1"] != e.ID || res.ByCandidate["c2"] != e.ID {
		t.Error("candidate mapping must point at the merged entity")
	}
}

func TestResolveConflictPrefersSourceConfidence(t *testing.T) {
	res := newResolver().Resolve(aliasPair(t))

	e := res.Entities[0]
	// whois (0.9) outranks socialdir (0.6), so its email value wins.
	if got := e.Attributes[models.AttrEmail]; got != "alice.doe@gmail.com" {
		t.Errorf("winning email = %q, want the whois value", got)
	}
	losers := e.Disputed[models.AttrEmail]
	if len(losers) != 1 || losers[0].Source != "socialdir" {
		t.Errorf("disputed = %+v, want the socialdir value recorded", losers)
	}
}

func TestResolveOrderIndependent(t *testing.T) {
	forward := aliasPair(t)
	reversed := []models.NormalizedEntity{forward[1], forward[0]}

	a := newResolver().Resolve(forward)
	b := newResolver().Resolve(reversed)

	if len(a.Entities) != 1 || len(b.Entities) != 1 {
		t.Fatalf("entities = %d/%d, want 1/1", len(a.Entities), len(b.Entities))
	}
	if a.Entities[0].ID != b.Entities[0].ID {
		t.Errorf("entity ID depends on input order: %s vs %s", a.Entities[0].ID, b.Entities[0].ID)
	}
	if a.Entities[0].Attributes[models.AttrEmail] != b.Entities[0].Attributes[models.AttrEmail] {
		t.Error("conflict winner depends on input order")
	}
}

func TestResolveAmbiguousBandNotMerged(t *testing.T) {
	// Phonetically matching names with one agreeing and one conflicting
	// biographical signal score between 60 and the merge threshold.
	in := normalized(t,
		candidate("c3", "webindex", "raw-3", models.EntityPerson, map[string]string{
			models.AttrFullName:    "Jon Smith",
			models.AttrCity:        "Berlin",
			models.AttrDateOfBirth: "1990-01-01",
		}),
		candidate("c4", "socialdir", "raw-4", models.EntityPerson, map[string]string{
			models.AttrFullName:    "John Smyth",
			models.AttrCity:        "Berlin",
			models.AttrDateOfBirth: "1985-05-05",
		}),
	)

	res := newResolver().Resolve(in)
	if len(res.Entities) != 2 {
		t.Fatalf("entities = %d, want 2 unmerged", len(res.Entities))
	}
	if len(res.Ambiguous) != 1 {
		t.Fatalf("ambiguous = %+v, want exactly one annotated pair", res.Ambiguous)
	}
	pair := res.Ambiguous[0]
	if pair.Score < 60 || pair.Score >= DefaultThreshold {
		t.Errorf("ambiguous score = %g, want in [60, %g)", pair.Score, DefaultThreshold)
	}
	if pair.CandidateA != "c3" || pair.CandidateB != "c4" {
		t.Errorf("pair = %+v, want c3/c4 in sorted order", pair)
	}
}

func TestResolveUnrelatedNeverCompared(t *testing.T) {
	in := normalized(t,
		candidate("c5", "whois", "raw-5", models.EntityPerson, map[string]string{
			models.AttrFullName: "Carol Jones",
		}),
		candidate("c6", "whois", "raw-6", models.EntityDomain, map[string]string{
			models.AttrDomain: "example.org",
		}),
	)

	res := newResolver().Resolve(in)
	if len(res.Entities) != 2 {
		t.Errorf("entities = %d, want 2: no shared block, no comparison", len(res.Entities))
	}
	if len(res.Ambiguous) != 0 {
		t.Errorf("ambiguous = %+v, want none", res.Ambiguous)
	}
}

func TestResolveSingletonConfidence(t *testing.T) {
	in := normalized(t, candidate("c7", "webindex", "raw-7", models.EntityUsername, map[string]string{
		models.AttrUsername: "adoe",
	}))
	in[0].ExtractionConfidence = 0.65

	res := newResolver().Resolve(in)
	if len(res.Entities) != 1 {
		t.Fatalf("entities = %d", len(res.Entities))
	}
	e := res.Entities[0]
	if e.Confidence != 65 || e.Verification != models.VerificationPossible {
		t.Errorf("singleton confidence = %g/%s, want 0.65 extraction scaled to 65 / possible", e.Confidence, e.Verification)
	}
}

func TestResolveProjectsGraphFromCoMentions(t *testing.T) {
	in := normalized(t,
		candidate("c8", "whois", "raw-8", models.EntityPerson, map[string]string{
			models.AttrFullName: "Carol Jones",
		}),
		candidate("c9", "whois", "raw-8", models.EntityDomain, map[string]string{
			models.AttrDomain:      "example.org",
			models.AttrCreatedDate: "2015-03-10",
		}),
	)

	res := newResolver().Resolve(in)
	if len(res.Entities) != 2 {
		t.Fatalf("entities = %d, want 2", len(res.Entities))
	}

	g := res.Graph
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Fatalf("graph = %d nodes %d edges, want 2/1", g.NodeCount(), g.EdgeCount())
	}
	edge := g.Edges()[0]
	if edge.Relationship != graph.RelRegistered {
		t.Errorf("relationship = %s, want registered for person-domain co-mention", edge.Relationship)
	}

	var domainID string
	for _, e := range res.Entities {
		if e.Type == models.EntityDomain {
			domainID = e.ID
		}
	}
	events := res.Timeline.ForEntity(domainID)
	if len(events) != 1 || events[0].Type != models.EventDomainRegistered {
		t.Fatalf("timeline = %+v, want one domain_registered event", events)
	}
	if events[0].Date.Year() != 2015 {
		t.Errorf("event date = %v, want 2015-03-10", events[0].Date)
	}
}

func TestResolvePersonTypeWinsCluster(t *testing.T) {
	in := normalized(t,
		candidate("c10", "socialdir", "raw-10", models.EntitySocialProfile, map[string]string{
			models.AttrUsername: "carolj",
			models.AttrFullName: "Carol Jones",
		}),
		candidate("c11", "webindex", "raw-11", models.EntityPerson, map[string]string{
			models.AttrFullName: "Carol Jones",
			models.AttrUsername: "carolj",
		}),
	)

	res := newResolver().Resolve(in)
	if len(res.Entities) != 1 {
		t.Fatalf("entities = %d, want merged", len(res.Entities))
	}
	if res.Entities[0].Type != models.EntityPerson {
		t.Errorf("type = %s, want person to win the cluster", res.Entities[0].Type)
	}
}
