// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package normalize

import (
	"reflect"
	"testing"

	"github.com/tomtom215/vestigium/internal/models"
)

func candidate(t models.EntityType, attrs map[string]string) models.Candidate {
	return models.Candidate{
		ID:         "c1",
		Source:     "whois",
		Type:       t,
		Attributes: attrs,
	}
}

func TestNormalizeEmailAliasFolding(t *testing.T) {
	n := New("US", map[string]float64{"whois": 0.9})

	tests := []struct {
		raw  string
		key  string
	}{
		{"Jane.Doe+news@GMail.com", "janedoe@gmail.com"},
		{"jane.doe@googlemail.com", "janedoe@gmail.com"},
		{"jane.doe@hotmail.com", "jane.doe@outlook.com"},
		{"j.d@example.com", "j.d@example.com"}, // dots significant outside gmail
	}
	for _, tt := range tests {
		e := n.Normalize(candidate(models.EntityEmailAddress, map[string]string{models.AttrEmail: tt.raw}))
		if got := e.CompareKeys[models.KeyDeliverableEmail]; got != tt.key {
			t.Errorf("deliverable key of %q = %q, want %q", tt.raw, got, tt.key)
		}
	}
}

func TestNormalizePhoneNationalForm(t *testing.T) {
	n := New("US", nil)
	e := n.Normalize(candidate(models.EntityPhoneNumber, map[string]string{models.AttrPhone: "(415) 555-0123"}))

	if got := e.CompareKeys[models.KeyE164]; got != "+14155550123" {
		t.Errorf("e164 = %q, want +14155550123", got)
	}
	if got := e.CompareKeys[models.KeyLast7]; got != "5550123" {
		t.Errorf("last7 = %q, want 5550123", got)
	}
}

func TestNormalizePhoneWithoutRegionKeepsPartialKey(t *testing.T) {
	n := New("", nil)
	e := n.Normalize(candidate(models.EntityPhoneNumber, map[string]string{models.AttrPhone: "415 555 0123"}))

	if _, ok := e.CompareKeys[models.KeyE164]; ok {
		t.Error("national form without region must not produce an e164 key")
	}
	if got := e.CompareKeys[models.KeyLast7]; got != "5550123" {
		t.Errorf("last7 = %q, want 5550123", got)
	}
}

func TestNormalizeUsernameVariants(t *testing.T) {
	n := New("US", nil)
	e := n.Normalize(candidate(models.EntityUsername, map[string]string{models.AttrUsername: "@Jane_Doe"}))

	if got := e.CompareKeys[models.KeyCanonicalUser]; got != "janedoe" {
		t.Errorf("canonical username = %q, want janedoe", got)
	}

	want := map[string]bool{"janedoe": true, "jane_doe": true, "jdoe": true}
	found := 0
	for _, v := range e.UsernameVariants {
		if want[v] {
			found++
		}
	}
	if found != len(want) {
		t.Errorf("variants %v missing expected forms", e.UsernameVariants)
	}
}

func TestNormalizeNameKeysOrderIndependent(t *testing.T) {
	n := New("US", nil)
	a := n.Normalize(candidate(models.EntityPerson, map[string]string{models.AttrFullName: "Jane Doe"}))
	b := n.Normalize(candidate(models.EntityPerson, map[string]string{models.AttrFullName: "Doe, Jane"}))

	if a.CompareKeys[models.KeyNameKey] == "" ||
		a.CompareKeys[models.KeyNameKey] != b.CompareKeys[models.KeyNameKey] {
		t.Errorf("name keys differ: %q vs %q",
			a.CompareKeys[models.KeyNameKey], b.CompareKeys[models.KeyNameKey])
	}
	if a.CompareKeys[models.KeyNamePhonetic] == "" {
		t.Error("expected a phonetic code")
	}
}

func TestNormalizeAccentedName(t *testing.T) {
	n := New("US", nil)
	e := n.Normalize(candidate(models.EntityPerson, map[string]string{models.AttrFullName: "José García"}))

	if got := e.Canonical[models.AttrFullName]; got != "jose garcia" {
		t.Errorf("canonical name = %q, want %q", got, "jose garcia")
	}
}

func TestNormalizeDomainIDN(t *testing.T) {
	n := New("US", nil)
	e := n.Normalize(candidate(models.EntityDomain, map[string]string{models.AttrDomain: "München.DE."}))

	if got := e.CompareKeys[models.KeyDomain]; got != "xn--mnchen-3ya.de" {
		t.Errorf("domain key = %q, want punycode form", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := New("US", map[string]float64{"whois": 0.9})
	first := n.Normalize(candidate(models.EntityPerson, map[string]string{
		models.AttrFullName: "José García-López",
		models.AttrEmail:    "Jose.Garcia+osint@GoogleMail.com",
		models.AttrPhone:    "(415) 555-0123",
	}))

	// Feed the canonical output back through as a new candidate.
	again := n.Normalize(candidate(models.EntityPerson, first.Canonical))

	if !reflect.DeepEqual(first.CompareKeys, again.CompareKeys) {
		t.Errorf("compare keys changed on renormalization:\nfirst %v\nagain %v",
			first.CompareKeys, again.CompareKeys)
	}
	if !reflect.DeepEqual(first.Canonical, again.Canonical) {
		t.Errorf("canonical forms changed on renormalization:\nfirst %v\nagain %v",
			first.Canonical, again.Canonical)
	}
}

func TestQualityRange(t *testing.T) {
	n := New("US", map[string]float64{"whois": 0.9})

	full := n.Normalize(candidate(models.EntityEmailAddress, map[string]string{models.AttrEmail: "a@b.co"}))
	if full.Quality <= 0 || full.Quality > 1 {
		t.Errorf("quality out of range: %g", full.Quality)
	}

	empty := n.Normalize(candidate(models.EntityEmailAddress, map[string]string{models.AttrEmail: "not-an-email"}))
	if empty.Quality >= full.Quality {
		t.Errorf("unparseable email quality %g should be below parseable %g", empty.Quality, full.Quality)
	}
}

func TestQualityUnknownSourceDefaults(t *testing.T) {
	n := New("US", nil)
	e := n.Normalize(candidate(models.EntityEmailAddress, map[string]string{models.AttrEmail: "a@b.co"}))
	if e.Quality != 0.5 {
		t.Errorf("unknown source quality = %g, want 0.5 (completeness 1 x consistency 1 x default 0.5)", e.Quality)
	}
}

func TestRegionFromHints(t *testing.T) {
	tests := []struct {
		hints []string
		want  string
	}{
		{[]string{"San Francisco, USA"}, "US"},
		{[]string{"Berlin", "Germany"}, "DE"},
		{[]string{"Atlantis"}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := RegionFromHints(tt.hints); got != tt.want {
			t.Errorf("RegionFromHints(%v) = %q, want %q", tt.hints, got, tt.want)
		}
	}
}
