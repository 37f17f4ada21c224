// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package discovery

import (
	"strings"

	"github.com/tomtom215/vestigium/internal/models"
)

// seedTerm is one query template instantiation before connector routing:
// a kind, the search value, and the kind's base priority weight.
type seedTerm struct {
	kind   models.QueryKind
	value  string
	weight int
	params map[string]string
}

// Kind weights reflect identifier uniqueness: an email or phone number
// pins one person; a bare name matches thousands.
var kindWeights = map[models.QueryKind]int{
	models.QueryKindEmail:        90,
	models.QueryKindPhone:        85,
	models.QueryKindUsername:     80,
	models.QueryKindDomain:       75,
	models.QueryKindNameEmployer: 70,
	models.QueryKindNameLocation: 65,
	models.QueryKindCompany:      50,
	models.QueryKindPersonName:   40,
	models.QueryKindLocation:     30,
}

// termsFromSeed instantiates every applicable template in a fixed field
// order, so the same seed always yields the same term sequence.
func termsFromSeed(seed *models.Seed) []seedTerm {
	var terms []seedTerm

	add := func(kind models.QueryKind, value string, params map[string]string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		terms = append(terms, seedTerm{
			kind:   kind,
			value:  value,
			weight: kindWeights[kind],
			params: params,
		})
	}

	names := append([]string{seed.FullName}, seed.Aliases...)
	for _, name := range names {
		add(models.QueryKindPersonName, name, nil)

		// Composite templates sharpen ambiguous names with a second
		// dimension; they get a uniqueness bonus via kind weight.
		for _, hint := range seed.GeographicHints {
			add(models.QueryKindNameLocation, name+" "+hint, map[string]string{"location": hint})
		}
		for _, employer := range seed.Employers {
			add(models.QueryKindNameEmployer, name+" "+employer, map[string]string{"employer": employer})
		}
	}

	for _, username := range seed.Usernames {
		add(models.QueryKindUsername, username, nil)
	}
	for _, email := range seed.Emails {
		add(models.QueryKindEmail, email, nil)
	}
	for _, phone := range seed.Phones {
		add(models.QueryKindPhone, phone, nil)
	}
	for _, domain := range seed.KnownDomains {
		add(models.QueryKindDomain, domain, nil)
	}
	for _, employer := range seed.Employers {
		add(models.QueryKindCompany, employer, nil)
	}

	return terms
}

// termsFromDiscovered instantiates expansion templates from identifiers
// surfaced during resolution that were not in the seed.
func termsFromDiscovered(d Discovered) []seedTerm {
	var terms []seedTerm

	add := func(kind models.QueryKind, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		terms = append(terms, seedTerm{kind: kind, value: value, weight: kindWeights[kind]})
	}

	for _, username := range d.Usernames {
		add(models.QueryKindUsername, username)
	}
	for _, email := range d.Emails {
		add(models.QueryKindEmail, email)
	}
	for _, domain := range d.Domains {
		add(models.QueryKindDomain, domain)
	}

	return terms
}
