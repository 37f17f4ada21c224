// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package normalize canonicalizes entity candidates and derives the
// comparison keys the matcher and resolver block on.
//
// Normalization is idempotent: feeding a normalized entity's canonical
// values back through produces identical keys. It is also pure per
// candidate; the only cross-candidate input is the default phone region
// inferred from the seed's geographic hints.
package normalize

import (
	"github.com/tomtom215/vestigium/internal/models"
)

// Normalizer canonicalizes candidates for one investigation.
type Normalizer struct {
	// defaultRegion (alpha-2) resolves national phone forms. Empty means
	// only international forms convert.
	defaultRegion string

	// sourceConf maps connector name to base confidence 0-1; it feeds the
	// quality score. Unknown sources default to 0.5.
	sourceConf map[string]float64
}

// New creates a normalizer. defaultRegion comes from the seed's geographic
// hints (first hint that resolves to a country); sourceConf from the
// connector registry.
func New(defaultRegion string, sourceConf map[string]float64) *Normalizer {
	return &Normalizer{
		defaultRegion: canonicalCountry(defaultRegion),
		sourceConf:    sourceConf,
	}
}

// RegionFromHints picks the default phone region from geographic hints:
// the first hint that resolves to an alpha-2 country code wins.
func RegionFromHints(hints []string) string {
	for _, h := range hints {
		_, _, country := splitLocation(h)
		if country == "" {
			country = h
		}
		if code := canonicalCountry(country); len(code) == 2 {
			return code
		}
	}
	return ""
}

// Normalize canonicalizes one candidate: per-type canonical attribute
// forms, comparison keys, username variants, and the quality score.
func (n *Normalizer) Normalize(c models.Candidate) models.NormalizedEntity {
	e := models.NormalizedEntity{
		Candidate:   c,
		Canonical:   make(map[string]string, len(c.Attributes)),
		CompareKeys: make(map[string]string),
	}

	for key, value := range c.Attributes {
		if value == "" {
			continue
		}
		switch key {
		case models.AttrEmail:
			n.normalizeEmail(&e, value)
		case models.AttrPhone:
			n.normalizePhone(&e, value)
		case models.AttrUsername:
			n.normalizeUsername(&e, value)
		case models.AttrFullName:
			n.normalizeName(&e, value)
		case models.AttrDomain:
			n.normalizeDomain(&e, value)
		case models.AttrCity:
			e.Canonical[key] = canonicalCity(value)
		case models.AttrCountry:
			e.Canonical[key] = canonicalCountry(value)
		case models.AttrRegion:
			e.Canonical[key] = lower(value)
		default:
			e.Canonical[key] = value
		}
	}

	e.Quality = n.quality(&e)
	return e
}

func (n *Normalizer) normalizeEmail(e *models.NormalizedEntity, value string) {
	canonical := canonicalEmail(value)
	if canonical == "" {
		return
	}
	e.Canonical[models.AttrEmail] = canonical
	if key := deliverableKey(canonical); key != "" {
		e.CompareKeys[models.KeyDeliverableEmail] = key
	}
}

func (n *Normalizer) normalizePhone(e *models.NormalizedEntity, value string) {
	if e164 := toE164(value, n.defaultRegion); e164 != "" {
		e.Canonical[models.AttrPhone] = e164
		e.CompareKeys[models.KeyE164] = e164
	}
	// The partial key survives even when the full E.164 form cannot be
	// derived; it is what links numbers written with and without country
	// context.
	if partial := last7(value); partial != "" {
		e.CompareKeys[models.KeyLast7] = partial
	}
}

func (n *Normalizer) normalizeUsername(e *models.NormalizedEntity, value string) {
	canonical := canonicalUsername(value)
	if canonical == "" {
		return
	}
	e.Canonical[models.AttrUsername] = canonical
	e.CompareKeys[models.KeyCanonicalUser] = canonical
	e.UsernameVariants = usernameVariants(value)
}

func (n *Normalizer) normalizeName(e *models.NormalizedEntity, value string) {
	canonical := canonicalName(value)
	if canonical == "" {
		return
	}
	e.Canonical[models.AttrFullName] = canonical
	if key := nameKey(value); key != "" {
		e.CompareKeys[models.KeyNameKey] = key
	}
	if code := namePhonetic(value); code != "" {
		e.CompareKeys[models.KeyNamePhonetic] = code
	}
}

func (n *Normalizer) normalizeDomain(e *models.NormalizedEntity, value string) {
	canonical := canonicalDomain(value)
	if canonical == "" {
		return
	}
	e.Canonical[models.AttrDomain] = canonical
	e.CompareKeys[models.KeyDomain] = canonical
}

// Attributes each entity type is expected to carry. Completeness is the
// fraction present; types outside the table score on attribute count.
var expectedAttrs = map[models.EntityType][]string{
	models.EntityPerson:        {models.AttrFullName, models.AttrEmail, models.AttrCity},
	models.EntityEmailAddress:  {models.AttrEmail},
	models.EntityPhoneNumber:   {models.AttrPhone},
	models.EntityUsername:      {models.AttrUsername},
	models.EntityDomain:        {models.AttrDomain},
	models.EntitySocialProfile: {models.AttrUsername, models.AttrPlatform, models.AttrProfileURL},
	models.EntityOrganization:  {models.AttrCompany},
	models.EntityLocation:      {models.AttrCity},
	models.EntityBreachRecord:  {models.AttrBreachName, models.AttrEmail},
}

// quality scores completeness x consistency x source confidence, 0-1.
func (n *Normalizer) quality(e *models.NormalizedEntity) float64 {
	completeness := n.completeness(e)
	consistency := n.consistency(e)

	conf, ok := n.sourceConf[e.Source]
	if !ok {
		conf = 0.5
	}

	return completeness * consistency * conf
}

func (n *Normalizer) completeness(e *models.NormalizedEntity) float64 {
	expected, ok := expectedAttrs[e.Type]
	if !ok {
		if len(e.Canonical) == 0 {
			return 0
		}
		return 1
	}

	present := 0
	for _, key := range expected {
		if e.Canonical[key] != "" {
			present++
		}
	}
	if present == 0 {
		return 0
	}
	return float64(present) / float64(len(expected))
}

// consistency penalizes attributes that failed canonicalization (present
// raw but unparseable) and phone numbers whose country disagrees with the
// investigation's region hint.
func (n *Normalizer) consistency(e *models.NormalizedEntity) float64 {
	score := 1.0

	for _, key := range []string{models.AttrEmail, models.AttrDomain} {
		if e.Attributes[key] != "" && e.Canonical[key] == "" {
			score *= 0.5
		}
	}
	if e.Attributes[models.AttrPhone] != "" && e.CompareKeys[models.KeyE164] == "" {
		score *= 0.7
	}

	if n.defaultRegion != "" {
		if e164 := e.CompareKeys[models.KeyE164]; e164 != "" {
			if cc := callingCodes[n.defaultRegion]; cc != "" && !hasCallingCode(e164, cc) {
				score *= 0.9
			}
		}
	}

	return score
}

func hasCallingCode(e164, cc string) bool {
	return len(e164) > len(cc) && e164[1:1+len(cc)] == cc
}

func lower(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b[i] = c
	}
	return string(b)
}
