// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package parse

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/models"
)

// structuredKeys maps JSON field names to the entity attribute they carry.
// A key hit yields a structured candidate; unmatched string values fall
// through to the regex extractors.
var structuredKeys = map[string]struct {
	entityType models.EntityType
	attr       string
}{
	"email":         {models.EntityEmailAddress, models.AttrEmail},
	"email_address": {models.EntityEmailAddress, models.AttrEmail},
	"phone":         {models.EntityPhoneNumber, models.AttrPhone},
	"phone_number":  {models.EntityPhoneNumber, models.AttrPhone},
	"username":      {models.EntityUsername, models.AttrUsername},
	"login":         {models.EntityUsername, models.AttrUsername},
	"handle":        {models.EntityUsername, models.AttrUsername},
	"screen_name":   {models.EntityUsername, models.AttrUsername},
	"domain":        {models.EntityDomain, models.AttrDomain},
	"ldhname":       {models.EntityDomain, models.AttrDomain},
	"name_value":    {models.EntityDomain, models.AttrDomain},
	"full_name":     {models.EntityPerson, models.AttrFullName},
	"display_name":  {models.EntityPerson, models.AttrFullName},
	"company":       {models.EntityOrganization, models.AttrCompany},
	"organization":  {models.EntityOrganization, models.AttrCompany},
	"employer":      {models.EntityOrganization, models.AttrCompany},
	"location":      {models.EntityLocation, models.AttrCity},
	"city":          {models.EntityLocation, models.AttrCity},
}

// Breach record keys get their own entity type: the record, not its
// fields, is the finding.
var breachKeys = map[string]string{
	"name":        models.AttrBreachName,
	"title":       models.AttrBreachName,
	"breachdate":  models.AttrBreachDate,
	"breach_date": models.AttrBreachDate,
	"dataclasses": models.AttrDataClasses,
}

// parseJSON unmarshals into a generic structure and walks it. Key names
// identify structured fields; free-text values still pass through the
// regex extractors so snippets and descriptions are not lost.
func (p *Parser) parseJSON(r *models.RawResult) []models.Candidate {
	var root interface{}
	if err := json.Unmarshal(r.Content, &root); err != nil {
		logging.Warn().
			Str("result_id", r.ID).
			Str("source", r.Source).
			Err(err).
			Msg("json parse failed, no candidates extracted")
		return nil
	}

	w := &jsonWalker{parser: p, result: r, breach: r.Metadata["record_type"] == "breach_list"}
	w.walk(root, "")

	// One pass of free-text extraction over accumulated string values
	// that no structured key claimed.
	if w.freeText.Len() > 0 {
		w.candidates = append(w.candidates, p.extractText(r, w.freeText.String(), confRegex)...)
	}

	return w.candidates
}

type jsonWalker struct {
	parser     *Parser
	result     *models.RawResult
	breach     bool
	candidates []models.Candidate
	freeText   strings.Builder
}

func (w *jsonWalker) walk(node interface{}, key string) {
	switch v := node.(type) {
	case map[string]interface{}:
		if w.breach {
			if c, ok := w.breachRecord(v); ok {
				w.candidates = append(w.candidates, c)
			}
		}
		for k, child := range v {
			w.walk(child, strings.ToLower(k))
		}

	case []interface{}:
		for _, child := range v {
			w.walk(child, key)
		}

	case string:
		if v == "" {
			return
		}
		if hint, ok := structuredKeys[key]; ok {
			value := v
			if hint.attr == models.AttrEmail || hint.attr == models.AttrDomain {
				value = strings.ToLower(v)
			}
			w.candidates = append(w.candidates, newCandidate(w.result,
				hint.entityType,
				map[string]string{hint.attr: value},
				confStructured, key+": "+v))
			return
		}
		// Unclaimed strings accumulate for one free-text pass.
		w.freeText.WriteString(v)
		w.freeText.WriteByte('\n')
	}
}

// breachRecord assembles a breach_record candidate when the object carries
// breach-shaped keys.
func (w *jsonWalker) breachRecord(obj map[string]interface{}) (models.Candidate, bool) {
	attrs := make(map[string]string)
	for k, v := range obj {
		attr, ok := breachKeys[strings.ToLower(k)]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			attrs[attr] = val
		case []interface{}:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				if s, ok := item.(string); ok {
					parts = append(parts, s)
				}
			}
			attrs[attr] = strings.Join(parts, ",")
		}
	}

	if attrs[models.AttrBreachName] == "" {
		return models.Candidate{}, false
	}
	return newCandidate(w.result, models.EntityBreachRecord, attrs, confStructured,
		"breach: "+attrs[models.AttrBreachName]), true
}
