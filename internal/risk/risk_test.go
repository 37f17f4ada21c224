// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package risk

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/vestigium/internal/models"
)

var asOf = time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)

func entity(typ models.EntityType, attrs map[string]string) models.ResolvedEntity {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return models.ResolvedEntity{Type: typ, Attributes: attrs}
}

func TestScoreEmpty(t *testing.T) {
	a := Score(Input{AsOf: asOf})
	if a.Overall != 0 || a.Level != models.RiskLow {
		t.Errorf("empty input = %+v, want zero LOW", a)
	}
	if len(a.Factors) != 0 {
		t.Errorf("empty input produced factors: %v", a.Factors)
	}
}

func TestBreachWithCredentialsDrivesSecurity(t *testing.T) {
	a := Score(Input{
		AsOf: asOf,
		Entities: []models.ResolvedEntity{
			entity(models.EntityBreachRecord, map[string]string{
				models.AttrBreachName:  "MegaLeak",
				models.AttrBreachDate:  "2025-11-01",
				models.AttrDataClasses: "emails,passwords",
			}),
		},
	})

	if a.Security < 30 {
		t.Errorf("security = %g, want elevated for recent credential breach", a.Security)
	}
	if a.IdentityTheft < 25 {
		t.Errorf("identity theft = %g, want elevated with leaked credentials", a.IdentityTheft)
	}
	if !hasFactor(a.Factors, "leaked credentials") {
		t.Errorf("missing credential factor in %v", a.Factors)
	}
}

func TestRecentBreachOutscoresOld(t *testing.T) {
	breach := func(date string) Input {
		return Input{
			AsOf: asOf,
			Entities: []models.ResolvedEntity{
				entity(models.EntityBreachRecord, map[string]string{
					models.AttrBreachDate: date,
				}),
			},
		}
	}

	recent := Score(breach("2025-06-01"))
	old := Score(breach("2014-06-01"))
	if recent.Security <= old.Security {
		t.Errorf("recent breach %g must outscore old breach %g", recent.Security, old.Security)
	}
}

func TestContactExposureSaturates(t *testing.T) {
	var entities []models.ResolvedEntity
	for i := 0; i < 20; i++ {
		entities = append(entities, entity(models.EntityEmailAddress, nil))
	}

	a := Score(Input{AsOf: asOf, Entities: entities})
	if a.Privacy > 100 {
		t.Errorf("privacy = %g, must never exceed 100", a.Privacy)
	}
	// Contact class is saturated; with 30% class weight the floor is 30.
	if a.Privacy < 30 {
		t.Errorf("privacy = %g, want saturated contact class to contribute 30", a.Privacy)
	}
}

func TestDateOfBirthRaisesPrivacyAndIdentity(t *testing.T) {
	without := Score(Input{AsOf: asOf, Entities: []models.ResolvedEntity{
		entity(models.EntityPerson, map[string]string{models.AttrFullName: "Alice Doe"}),
	}})
	with := Score(Input{AsOf: asOf, Entities: []models.ResolvedEntity{
		entity(models.EntityPerson, map[string]string{
			models.AttrFullName:    "Alice Doe",
			models.AttrDateOfBirth: "1990-04-02",
		}),
	}})

	if with.Privacy <= without.Privacy {
		t.Errorf("privacy %g -> %g, date of birth must raise it", without.Privacy, with.Privacy)
	}
	if with.IdentityTheft <= without.IdentityTheft {
		t.Errorf("identity theft %g -> %g, date of birth must raise it", without.IdentityTheft, with.IdentityTheft)
	}
	if !hasFactor(with.Factors, "date of birth") {
		t.Errorf("missing date-of-birth factor in %v", with.Factors)
	}
}

func TestOverallIsWeightedCombination(t *testing.T) {
	a := Score(Input{
		AsOf: asOf,
		Entities: []models.ResolvedEntity{
			entity(models.EntityEmailAddress, nil),
			entity(models.EntityPhoneNumber, nil),
			entity(models.EntityBreachRecord, map[string]string{
				models.AttrBreachDate:  "2025-01-15",
				models.AttrDataClasses: "passwords",
			}),
			entity(models.EntityPerson, map[string]string{
				models.AttrFullName:    "Alice Doe",
				models.AttrDateOfBirth: "1990-04-02",
				models.AttrEmployer:    "Acme Corp",
			}),
		},
	})

	want := 0.35*a.Privacy + 0.30*a.Security + 0.20*a.IdentityTheft + 0.15*a.Misc
	if math.Abs(a.Overall-want) > 0.2 { // sub-scores are rounded to 0.1
		t.Errorf("overall = %g, want weighted combination ~%g", a.Overall, want)
	}
	if a.Level != models.RiskLevelFor(a.Overall) {
		t.Errorf("level = %s, inconsistent with overall %g", a.Level, a.Overall)
	}
}

func TestScoreDeterministic(t *testing.T) {
	in := Input{
		AsOf: asOf,
		Entities: []models.ResolvedEntity{
			entity(models.EntityBreachRecord, map[string]string{
				models.AttrBreachDate:  "2025-01-15",
				models.AttrDataClasses: "emails,passwords",
			}),
			entity(models.EntitySocialProfile, map[string]string{models.AttrUsername: "adoe"}),
			entity(models.EntitySocialProfile, map[string]string{models.AttrUsername: "alice.doe"}),
			entity(models.EntitySocialProfile, map[string]string{models.AttrUsername: "alicedoe90"}),
		},
		Events: []models.TimelineEvent{
			{Type: models.EventPost, Date: asOf.AddDate(-1, 0, 0)},
		},
	}

	first := Score(in)
	second := Score(in)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same input produced different assessments:\n%+v\n%+v", first, second)
	}
	if !hasFactor(first.Factors, "linked social profiles") {
		t.Errorf("missing profile factor in %v", first.Factors)
	}
}

func hasFactor(factors []string, substr string) bool {
	for _, f := range factors {
		if strings.Contains(f, substr) {
			return true
		}
	}
	return false
}
