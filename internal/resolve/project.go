// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package resolve

import (
	"sort"
	"time"

	"github.com/tomtom215/vestigium/internal/graph"
	"github.com/tomtom215/vestigium/internal/models"
	"github.com/tomtom215/vestigium/internal/timeline"
)

// coMentionStrength is the relationship strength assigned to one
// co-mention of two entities in the same raw result. Repeated co-mentions
// compound through the graph's strength merge.
const coMentionStrength = 0.6

// projectGraph builds the entity graph: one node per resolved entity,
// typed edges from co-mention of two entities in the same raw result.
func (r *Resolver) projectGraph(entities []models.ResolvedEntity, ordered []models.NormalizedEntity, byCandidate map[string]string) *graph.Graph {
	g := graph.New()

	byID := make(map[string]*models.ResolvedEntity, len(entities))
	for i := range entities {
		e := &entities[i]
		byID[e.ID] = e
		g.AddNode(e.ID, e.Type, labelOf(e), e.Confidence/100, sourceNames(e)...)
	}

	// Raw result -> resolved entities mentioned in it, deduplicated.
	mentions := make(map[string][]string)
	for _, c := range ordered {
		resolved, ok := byCandidate[c.ID]
		if !ok || c.RawResultID == "" {
			continue
		}
		mentions[c.RawResultID] = appendUnique(mentions[c.RawResultID], resolved)
	}

	rawIDs := make([]string, 0, len(mentions))
	for id := range mentions {
		rawIDs = append(rawIDs, id)
	}
	sort.Strings(rawIDs)

	for _, rawID := range rawIDs {
		ids := mentions[rawID]
		sort.Strings(ids)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := byID[ids[i]], byID[ids[j]]
				src, dst, rel := orient(a, b)
				conf := a.Confidence / 100
				if b.Confidence < a.Confidence {
					conf = b.Confidence / 100
				}
				g.AddEdge(src.ID, dst.ID, rel, graph.EdgeDirect, coMentionStrength, conf, "co-mention:"+rawID)
			}
		}
	}
	return g
}

// orient picks edge direction and relationship for a co-mentioned pair.
// A person points at their assets; same-type pairs default to co_occurs.
func orient(a, b *models.ResolvedEntity) (src, dst *models.ResolvedEntity, rel graph.RelationshipType) {
	if b.Type == models.EntityPerson && a.Type != models.EntityPerson {
		a, b = b, a
	}
	if a.Type == models.EntityPerson {
		switch b.Type {
		case models.EntityPerson:
			return a, b, graph.RelKnows
		case models.EntityDomain:
			return a, b, graph.RelRegistered
		case models.EntityOrganization:
			return a, b, graph.RelWorksWith
		case models.EntityLocation:
			return a, b, graph.RelLocatedAt
		case models.EntityEmailAddress, models.EntityPhoneNumber,
			models.EntityUsername, models.EntitySocialProfile:
			return a, b, graph.RelOwns
		}
	}
	return a, b, graph.RelCoOccurs
}

// projectTimeline derives dated events from resolved attributes: births,
// breach exposures, domain registrations.
func (r *Resolver) projectTimeline(entities []models.ResolvedEntity) *timeline.Builder {
	tb := timeline.NewBuilder()

	for i := range entities {
		e := &entities[i]
		conf := e.Confidence / 100
		sources := sourceNames(e)

		if date, precision, ok := parseAttrDate(e.Attributes[models.AttrDateOfBirth]); ok {
			tb.Add(models.TimelineEvent{
				EntityID:   e.ID,
				Type:       models.EventBirth,
				Title:      "Born",
				Date:       date,
				Precision:  precision,
				Confidence: conf,
				Sources:    sources,
			})
		}

		if e.Type == models.EntityBreachRecord || e.Attributes[models.AttrBreachDate] != "" {
			if date, precision, ok := parseAttrDate(e.Attributes[models.AttrBreachDate]); ok {
				title := "Exposed in data breach"
				if name := e.Attributes[models.AttrBreachName]; name != "" {
					title = "Exposed in breach " + name
				}
				tb.Add(models.TimelineEvent{
					EntityID:   e.ID,
					Type:       models.EventBreachExposure,
					Title:      title,
					Date:       date,
					Precision:  precision,
					Confidence: conf,
					Sources:    sources,
				})
			}
		}

		if domain := e.Attributes[models.AttrDomain]; domain != "" {
			if date, precision, ok := parseAttrDate(e.Attributes[models.AttrCreatedDate]); ok {
				tb.Add(models.TimelineEvent{
					EntityID:   e.ID,
					Type:       models.EventDomainRegistered,
					Title:      "Registered " + domain,
					Date:       date,
					Precision:  precision,
					Confidence: conf,
					Sources:    sources,
				})
			}
		}
	}
	return tb
}

// parseAttrDate reads the date formats normalization leaves in
// attributes, mapping each layout to its precision.
func parseAttrDate(raw string) (time.Time, models.DatePrecision, bool) {
	if raw == "" {
		return time.Time{}, models.PrecisionUnknown, false
	}
	layouts := []struct {
		layout    string
		precision models.DatePrecision
	}{
		{"2006-01-02", models.PrecisionDay},
		{time.RFC3339, models.PrecisionDay},
		{"2006-01", models.PrecisionMonth},
		{"2006", models.PrecisionYear},
	}
	for _, l := range layouts {
		if t, err := time.Parse(l.layout, raw); err == nil {
			return t.UTC().Truncate(24 * time.Hour), l.precision, true
		}
	}
	if extracted := timeline.ExtractDates(raw); len(extracted) > 0 {
		return extracted[0].Date, extracted[0].Precision, true
	}
	return time.Time{}, models.PrecisionUnknown, false
}

// labelOf picks the display label for a graph node.
func labelOf(e *models.ResolvedEntity) string {
	for _, key := range []string{
		models.AttrFullName, models.AttrEmail, models.AttrUsername,
		models.AttrDomain, models.AttrPhone, models.AttrBreachName,
		models.AttrCompany, models.AttrCity, models.AttrTitle,
	} {
		if v := e.Attributes[key]; v != "" {
			return v
		}
	}
	return e.ID
}

func sourceNames(e *models.ResolvedEntity) []string {
	set := make(map[string]struct{}, len(e.Sources))
	for _, ref := range e.Sources {
		if ref.Source != "" {
			set[ref.Source] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
