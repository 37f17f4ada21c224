// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package timeline assembles dated events per resolved entity.
//
// Storage order is irrelevant; every read sorts by (date, precision,
// confidence). Duplicate events reported by independent sources merge,
// with confidence combining as 1 - prod(1 - c_i) so corroboration raises
// certainty without ever reaching past 1.
package timeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/vestigium/internal/models"
)

// Builder accumulates timeline events for one investigation. Not safe for
// concurrent use; the resolver owns it.
type Builder struct {
	events []models.TimelineEvent

	// byKey indexes events by their merge key.
	byKey map[string]int
}

// NewBuilder creates an empty timeline.
func NewBuilder() *Builder {
	return &Builder{byKey: make(map[string]int)}
}

// Add records an event. Events with the same (entity, type, date,
// normalized title) merge, where dates compare at the coarser of the two
// precisions so a year-only report and its day-precise refinement count
// as one event. Merging combines confidence as 1-prod(1-c_i), unions
// sources, and keeps the more precise date. Returns the event ID.
func (b *Builder) Add(e models.TimelineEvent) string {
	if e.Confidence < 0 {
		e.Confidence = 0
	}
	if e.Confidence > 1 {
		e.Confidence = 1
	}

	key := coarseKey(e)
	if idx, ok := b.byKey[key]; ok {
		if sameDate(b.events[idx], e) {
			return b.mergeInto(idx, e)
		}
		// Same title and year but genuinely different dates: a second
		// event, keyed by its exact date.
		key += "|" + e.Date.Format("2006-01-02")
		if idx, ok := b.byKey[key]; ok && sameDate(b.events[idx], e) {
			return b.mergeInto(idx, e)
		}
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Sources = unionSorted(nil, e.Sources)
	b.byKey[key] = len(b.events)
	b.events = append(b.events, e)
	return e.ID
}

func (b *Builder) mergeInto(idx int, e models.TimelineEvent) string {
	existing := &b.events[idx]
	existing.Confidence = 1 - (1-existing.Confidence)*(1-e.Confidence)
	existing.Sources = unionSorted(existing.Sources, e.Sources)
	if e.Precision < existing.Precision {
		existing.Precision = e.Precision
		existing.Date = e.Date
	}
	if existing.Description == "" {
		existing.Description = e.Description
	}
	return existing.ID
}

// coarseKey buckets an event at year granularity; sameDate then decides
// whether a bucket hit is truly the same event.
func coarseKey(e models.TimelineEvent) string {
	return e.EntityID + "|" + string(e.Type) + "|" + e.Date.Format("2006") + "|" + normalizeTitle(e.Title)
}

// sameDate compares two events' dates at the coarser of their precisions.
func sameDate(a, b models.TimelineEvent) bool {
	p := a.Precision
	if b.Precision > p {
		p = b.Precision
	}
	switch {
	case p >= models.PrecisionYear:
		return a.Date.Year() == b.Date.Year()
	case p == models.PrecisionMonth:
		return a.Date.Year() == b.Date.Year() && a.Date.Month() == b.Date.Month()
	default:
		return a.Date.Equal(b.Date)
	}
}

func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// Events returns all events sorted by (date asc, precision asc, confidence
// desc): on the same date the more precise, better-attested event leads.
func (b *Builder) Events() []models.TimelineEvent {
	out := make([]models.TimelineEvent, len(b.events))
	copy(out, b.events)
	sortEvents(out)
	return out
}

// ForEntity returns the sorted events attached to one entity.
func (b *Builder) ForEntity(entityID string) []models.TimelineEvent {
	var out []models.TimelineEvent
	for _, e := range b.events {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out
}

// Len returns the number of distinct events.
func (b *Builder) Len() int { return len(b.events) }

func sortEvents(events []models.TimelineEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		if events[i].Precision != events[j].Precision {
			return events[i].Precision < events[j].Precision
		}
		if events[i].Confidence != events[j].Confidence {
			return events[i].Confidence > events[j].Confidence
		}
		return events[i].ID < events[j].ID
	})
}

// milestoneKinds maps event types to the canonical milestone they stand
// for. The first (earliest) event of each kind is the milestone.
var milestoneKinds = map[models.TimelineEventType]string{
	models.EventBirth:            "birth",
	models.EventGraduation:       "graduation",
	models.EventEducationEnd:     "graduation",
	models.EventJobStart:         "first_job",
	models.EventMarriage:         "marriage",
	models.EventRelocation:       "relocation",
	models.EventDomainRegistered: "first_domain",
	models.EventAccountCreated:   "first_account",
	models.EventBreachExposure:   "first_breach",
}

// Milestones returns the earliest event per canonical milestone kind for
// an entity, keyed by kind.
func (b *Builder) Milestones(entityID string) map[string]models.TimelineEvent {
	out := make(map[string]models.TimelineEvent)
	for _, e := range b.ForEntity(entityID) {
		kind, ok := milestoneKinds[e.Type]
		if !ok {
			continue
		}
		if _, seen := out[kind]; !seen {
			out[kind] = e
		}
	}
	return out
}

// Age estimation priors: typical age at education start and first job,
// used when no birth event exists.
const (
	educationStartAgePrior = 18
	firstJobAgePrior       = 22
)

// EstimatedAge estimates the entity's age at asOf. A birth event gives
// the direct answer; otherwise education-start or first-job events with
// declared priors. Returns false when nothing supports an estimate.
func (b *Builder) EstimatedAge(entityID string, asOf time.Time) (int, bool) {
	events := b.ForEntity(entityID)

	for _, e := range events {
		if e.Type == models.EventBirth {
			return yearsBetween(e.Date, asOf), true
		}
	}
	for _, e := range events {
		if e.Type == models.EventEducationStart {
			return yearsBetween(e.Date, asOf) + educationStartAgePrior, true
		}
	}
	for _, e := range events {
		if e.Type == models.EventJobStart {
			return yearsBetween(e.Date, asOf) + firstJobAgePrior, true
		}
	}
	return 0, false
}

func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	if to.YearDay() < from.YearDay() {
		years--
	}
	if years < 0 {
		years = 0
	}
	return years
}

// Bucket granularities for activity histograms.
const (
	BucketDay   = "day"
	BucketWeek  = "week"
	BucketMonth = "month"
	BucketYear  = "year"
)

// ActivityBuckets counts an entity's events per interval, sorted by label
// ascending. Labels: 2006-01-02, 2006-W02, 2006-01, 2006.
func (b *Builder) ActivityBuckets(entityID, bucket string) []models.ActivityBucket {
	counts := make(map[string]int)
	for _, e := range b.ForEntity(entityID) {
		counts[bucketLabel(e.Date, bucket)]++
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

// MostActivePeriods returns the topN fullest buckets, descending by count,
// ties broken by label for determinism.
func (b *Builder) MostActivePeriods(entityID, bucket string, topN int) []models.ActivityBucket {
	buckets := b.ActivityBuckets(entityID, bucket)
	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Label < buckets[j].Label
	})
	if topN > 0 && topN < len(buckets) {
		buckets = buckets[:topN]
	}
	return buckets
}

func bucketLabel(date time.Time, bucket string) string {
	switch bucket {
	case BucketDay:
		return date.Format("2006-01-02")
	case BucketWeek:
		year, week := date.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case BucketYear:
		return date.Format("2006")
	default:
		return date.Format("2006-01")
	}
}

func unionSorted(existing, add []string) []string {
	set := make(map[string]struct{}, len(existing)+len(add))
	for _, s := range existing {
		set[s] = struct{}{}
	}
	for _, s := range add {
		if s != "" {
			set[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
