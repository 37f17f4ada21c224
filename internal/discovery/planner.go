// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package discovery plans queries from a seed.
//
// Planning is deterministic: the same seed against the same registry yields
// the same query plan in the same order. Each planner instance is owned by
// one investigation and carries that investigation's dedupe state across
// expansion rounds, so a follow-up round never replans a query the first
// round already issued.
package discovery

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/vestigium/internal/connector"
	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/models"
)

// DefaultPlanCap bounds total planned queries per investigation.
const DefaultPlanCap = 200

// Discovered carries identifiers surfaced during resolution that the seed
// did not contain; they drive the next expansion round.
type Discovered struct {
	Usernames []string
	Emails    []string
	Domains   []string
}

// Planner builds query plans for one investigation.
type Planner struct {
	investigationID string
	registry        *connector.Registry
	security        *SecurityPass

	planCap       int
	minSourceConf float64

	// seen holds dedupe keys for every query planned so far, across all
	// expansion rounds.
	seen map[string]struct{}

	planned  int
	rejected int
}

// NewPlanner creates a planner for one investigation. minSourceConf filters
// out connectors whose base confidence falls below the seed's threshold
// (0-100 scale).
func NewPlanner(investigationID string, registry *connector.Registry, security *SecurityPass, planCap int, minSourceConf float64) *Planner {
	if planCap <= 0 {
		planCap = DefaultPlanCap
	}
	return &Planner{
		investigationID: investigationID,
		registry:        registry,
		security:        security,
		planCap:         planCap,
		minSourceConf:   minSourceConf,
		seen:            make(map[string]struct{}),
	}
}

// Plan builds the initial query plan from the seed: template instantiation,
// connector routing, security screening, dedupe, priority ordering.
func (p *Planner) Plan(seed *models.Seed) []models.Query {
	queries := p.route(termsFromSeed(seed), 1)

	logging.Info().
		Str("investigation_id", p.investigationID).
		Int("queries", len(queries)).
		Int("rejected", p.rejected).
		Int("identifiers", seed.IdentifierCount()).
		Msg("initial plan built")

	return queries
}

// Expand builds a follow-up round from newly discovered identifiers. depth
// is the round the new queries belong to; queries already planned in any
// round are silently skipped.
func (p *Planner) Expand(depth int, d Discovered) []models.Query {
	queries := p.route(termsFromDiscovered(d), depth)

	if len(queries) > 0 {
		logging.Info().
			Str("investigation_id", p.investigationID).
			Int("depth", depth).
			Int("queries", len(queries)).
			Msg("expansion round planned")
	}

	return queries
}

// Planned returns the total number of queries planned so far.
func (p *Planner) Planned() int {
	return p.planned
}

// route fans terms out to supporting connectors, applying the security
// pass, source confidence filter, dedupe set, and plan cap.
func (p *Planner) route(terms []seedTerm, depth int) []models.Query {
	var queries []models.Query

	for _, term := range terms {
		if err := p.security.Check(term.value); err != nil {
			p.rejected++
			continue
		}

		for _, c := range p.registry.ForKind(term.kind) {
			if c.BaseConfidence()*100 < p.minSourceConf {
				continue
			}
			if p.planned >= p.planCap {
				logging.Warn().
					Str("investigation_id", p.investigationID).
					Int("cap", p.planCap).
					Msg("plan cap reached, dropping remaining queries")
				return p.order(queries)
			}

			key := dedupeKey(term.kind, term.value, c.Name(), term.params)
			if _, dup := p.seen[key]; dup {
				continue
			}
			p.seen[key] = struct{}{}

			queries = append(queries, models.Query{
				ID:              uuid.New().String(),
				InvestigationID: p.investigationID,
				Kind:            term.kind,
				Value:           term.value,
				Source:          c.Name(),
				Parameters:      term.params,
				Priority:        priority(term.weight, c.BaseConfidence()),
				Depth:           depth,
				CreatedAt:       time.Now().UTC(),
			})
			p.planned++
		}
	}

	return p.order(queries)
}

// order sorts the plan: priority descending, then kind, value, and source
// so equal-priority queries keep a stable deterministic order.
func (p *Planner) order(queries []models.Query) []models.Query {
	sort.SliceStable(queries, func(i, j int) bool {
		a, b := &queries[i], &queries[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Value != b.Value {
			return a.Value < b.Value
		}
		return a.Source < b.Source
	})
	return queries
}

// priority combines the kind's uniqueness weight with the connector's
// trust: 70% identifier weight, 30% source confidence, clamped to 0-100.
func priority(kindWeight int, baseConfidence float64) int {
	pr := int(float64(kindWeight)*0.7 + baseConfidence*100*0.3)
	if pr < 0 {
		return 0
	}
	if pr > 100 {
		return 100
	}
	return pr
}

// dedupeKey identifies a query for dedupe purposes: first 16 hex chars of
// SHA-256 over kind, lowercased value, connector, and sorted params.
func dedupeKey(kind models.QueryKind, value, source string, params map[string]string) string {
	var b strings.Builder
	b.WriteString(string(kind))
	b.WriteByte(0)
	b.WriteString(strings.ToLower(value))
	b.WriteByte(0)
	b.WriteString(source)

	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteByte(0)
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(params[k])
		}
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}
