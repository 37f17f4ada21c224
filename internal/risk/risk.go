// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package risk computes the multi-factor risk assessment over an
// investigation's resolved entities, timeline, and graph.
//
// Scoring is deterministic: the only time input is the explicit asOf
// reference (breach recency), supplied by the caller. The same inputs
// always produce the same assessment.
package risk

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/vestigium/internal/graph"
	"github.com/tomtom215/vestigium/internal/models"
)

// Overall score weights.
const (
	weightPrivacy  = 0.35
	weightSecurity = 0.30
	weightIdentity = 0.20
	weightMisc     = 0.15
)

// Input is everything the scorer looks at.
type Input struct {
	Entities []models.ResolvedEntity
	Events   []models.TimelineEvent
	Graph    graph.Statistics

	// AsOf anchors recency calculations, normally the investigation
	// start time.
	AsOf time.Time
}

// Score computes the composite assessment.
func Score(in Input) models.RiskAssessment {
	counts := tally(in)

	privacy, privacyFactors := privacyExposure(counts)
	security, securityFactors := securityRisk(counts, in.AsOf)
	identity, identityFactors := identityTheftRisk(counts)
	misc, miscFactors := miscRisk(counts, in.Graph)

	overall := weightPrivacy*privacy + weightSecurity*security +
		weightIdentity*identity + weightMisc*misc

	a := models.RiskAssessment{
		Overall:       round1(overall),
		Level:         models.RiskLevelFor(overall),
		Privacy:       round1(privacy),
		Security:      round1(security),
		IdentityTheft: round1(identity),
		Misc:          round1(misc),
	}
	a.Factors = append(a.Factors, privacyFactors...)
	a.Factors = append(a.Factors, securityFactors...)
	a.Factors = append(a.Factors, identityFactors...)
	a.Factors = append(a.Factors, miscFactors...)
	sort.Strings(a.Factors)
	return a
}

// tallied exposure signals, extracted once.
type tallied struct {
	emails    int
	phones    int
	usernames int
	profiles  int
	domains   int
	locations int

	employers int
	jobTitles int

	dob       bool
	fullNames int

	breaches           []time.Time // breach dates, zero time when unknown
	credentialExposure bool        // a breach leaked passwords
	contactExposure    bool        // a breach leaked emails/phones

	posts     int
	mediaHits int
	documents int
}

func tally(in Input) tallied {
	var t tallied

	for _, e := range in.Entities {
		switch e.Type {
		case models.EntityEmailAddress:
			t.emails++
		case models.EntityPhoneNumber:
			t.phones++
		case models.EntityUsername:
			t.usernames++
		case models.EntitySocialProfile:
			t.profiles++
		case models.EntityDomain:
			t.domains++
		case models.EntityLocation:
			t.locations++
		case models.EntityDocument:
			t.documents++
		case models.EntityBreachRecord:
			t.tallyBreach(e)
		}

		attrs := e.Attributes
		if attrs[models.AttrEmail] != "" && e.Type != models.EntityEmailAddress {
			t.emails++
		}
		if attrs[models.AttrPhone] != "" && e.Type != models.EntityPhoneNumber {
			t.phones++
		}
		if attrs[models.AttrEmployer] != "" || attrs[models.AttrCompany] != "" {
			t.employers++
		}
		if attrs[models.AttrJobTitle] != "" {
			t.jobTitles++
		}
		if attrs[models.AttrDateOfBirth] != "" {
			t.dob = true
		}
		if attrs[models.AttrFullName] != "" {
			t.fullNames++
		}
	}

	for _, ev := range in.Events {
		switch ev.Type {
		case models.EventPost:
			t.posts++
		case models.EventMediaMention:
			t.mediaHits++
		case models.EventBreachExposure:
			// Counted from entities; the event adds recency when the
			// entity lacked a date.
		}
	}

	return t
}

func (t *tallied) tallyBreach(e models.ResolvedEntity) {
	var when time.Time
	if raw := e.Attributes[models.AttrBreachDate]; raw != "" {
		for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
			if parsed, err := time.Parse(layout, raw); err == nil {
				when = parsed
				break
			}
		}
	}
	t.breaches = append(t.breaches, when)

	classes := strings.ToLower(e.Attributes[models.AttrDataClasses])
	if strings.Contains(classes, "password") || strings.Contains(classes, "credential") {
		t.credentialExposure = true
	}
	if strings.Contains(classes, "email") || strings.Contains(classes, "phone") {
		t.contactExposure = true
	}
}

// Privacy exposure class weights.
const (
	classContact      = 0.30
	classProfessional = 0.25
	classIdentity     = 0.20
	classBehavioral   = 0.15
	classNetwork      = 0.10
)

// privacyExposure scores how much of the subject's private surface is
// publicly discoverable. Each class saturates independently, then the
// class weights combine.
func privacyExposure(t tallied) (float64, []string) {
	var factors []string

	contact := saturate(float64(t.emails)*25 + float64(t.phones)*35)
	if contact > 0 {
		factors = append(factors, fmt.Sprintf("privacy: %d email(s), %d phone(s) exposed", t.emails, t.phones))
	}

	professional := saturate(float64(t.employers)*30 + float64(t.jobTitles)*20)
	identity := saturate(float64(boolToInt(t.dob))*50 + float64(min(t.fullNames, 3))*15 + float64(t.locations)*20)
	if t.dob {
		factors = append(factors, "privacy: date of birth discoverable")
	}

	behavioral := saturate(float64(t.posts)*5 + float64(t.mediaHits)*10)
	network := saturate(float64(t.profiles)*20 + float64(t.usernames)*10)
	if t.profiles >= 3 {
		factors = append(factors, fmt.Sprintf("privacy: %d linked social profiles", t.profiles))
	}

	score := classContact*contact + classProfessional*professional +
		classIdentity*identity + classBehavioral*behavioral + classNetwork*network
	return score, factors
}

// securityRisk scores breach exposure (count x recency), credential
// signals, and infrastructure exposure.
func securityRisk(t tallied, asOf time.Time) (float64, []string) {
	var factors []string

	breachScore := 0.0
	recent := 0
	for _, when := range t.breaches {
		breachScore += 15
		if !when.IsZero() && asOf.Sub(when) < 2*365*24*time.Hour {
			breachScore += 10
			recent++
		}
	}
	breachScore = saturate(breachScore)
	if len(t.breaches) > 0 {
		factors = append(factors, fmt.Sprintf("security: present in %d breach(es), %d recent", len(t.breaches), recent))
	}

	credScore := 0.0
	if t.credentialExposure {
		credScore = 70
		factors = append(factors, "security: leaked credentials in breach data")
	}

	infraScore := saturate(float64(t.domains) * 15)

	score := 0.5*breachScore + 0.3*credScore + 0.2*infraScore
	return score, factors
}

// identityTheftRisk scores how much material an impersonator has to work
// with: PII, address data, credentials.
func identityTheftRisk(t tallied) (float64, []string) {
	var factors []string

	pii := 0.0
	if t.dob {
		pii += 35
	}
	if t.fullNames > 0 {
		pii += 15
	}
	pii = saturate(pii + float64(min(t.locations, 2))*15)

	address := saturate(float64(t.locations) * 30)

	creds := 0.0
	if t.credentialExposure {
		creds = 80
		factors = append(factors, "identity: exposed credentials enable account takeover")
	} else if t.contactExposure {
		creds = 30
	}

	score := 0.4*pii + 0.25*address + 0.35*creds
	if score >= 50 {
		factors = append(factors, "identity: sufficient public PII for impersonation attempts")
	}
	return score, factors
}

// miscRisk covers residual exposure: document trails, archived content,
// and how interconnected the discovered footprint is.
func miscRisk(t tallied, g graph.Statistics) (float64, []string) {
	var factors []string

	docScore := saturate(float64(t.documents)*20 + float64(t.mediaHits)*10)

	// A dense graph means individually harmless facts cross-reference
	// into a profile.
	linkScore := 0.0
	if g.Nodes > 0 {
		linkScore = saturate(g.Density*100 + g.MeanDegree*10)
	}
	if g.Nodes >= 10 && g.Density > 0.2 {
		factors = append(factors, "misc: highly interconnected public footprint")
	}

	score := 0.5*docScore + 0.5*linkScore
	return score, factors
}

func saturate(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
