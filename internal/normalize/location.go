// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package normalize

import "strings"

// countryAliases folds common country spellings to ISO 3166-1 alpha-2.
// Deliberately compact: sources outside this table keep their lowercased
// form, which still compares consistently within one investigation.
var countryAliases = map[string]string{
	"united states": "US", "usa": "US", "us": "US", "united states of america": "US", "america": "US",
	"united kingdom": "GB", "uk": "GB", "great britain": "GB", "england": "GB", "scotland": "GB", "wales": "GB",
	"germany": "DE", "deutschland": "DE",
	"france":  "FR",
	"spain":   "ES", "españa": "ES", "espana": "ES",
	"italy": "IT", "italia": "IT",
	"netherlands": "NL", "holland": "NL", "the netherlands": "NL",
	"belgium": "BE", "switzerland": "CH", "austria": "AT",
	"ireland": "IE", "portugal": "PT",
	"sweden": "SE", "norway": "NO", "denmark": "DK", "finland": "FI",
	"poland": "PL", "czech republic": "CZ", "czechia": "CZ", "ukraine": "UA",
	"australia": "AU", "new zealand": "NZ",
	"japan": "JP", "south korea": "KR", "korea": "KR", "china": "CN",
	"india": "IN", "singapore": "SG",
	"brazil": "BR", "brasil": "BR", "mexico": "MX", "méxico": "MX", "argentina": "AR",
	"south africa": "ZA", "nigeria": "NG", "israel": "IL",
	"united arab emirates": "AE", "uae": "AE",
	"canada": "CA",
}

// cityAliases folds well-known city abbreviations and nicknames.
var cityAliases = map[string]string{
	"nyc":           "new york",
	"new york city": "new york",
	"sf":            "san francisco",
	"la":            "los angeles",
	"dc":            "washington",
	"washington dc": "washington",
	"philly":        "philadelphia",
	"vegas":         "las vegas",
}

// canonicalCountry resolves a country string to alpha-2 where the alias
// table knows it, otherwise returns the lowercased input.
func canonicalCountry(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return ""
	}
	if code, ok := countryAliases[v]; ok {
		return code
	}
	if len(v) == 2 {
		return strings.ToUpper(v)
	}
	return v
}

// canonicalCity lowercases and folds known aliases. A trailing
// ", region" or ", country" segment is split off by the caller.
func canonicalCity(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	if folded, ok := cityAliases[v]; ok {
		return folded
	}
	return v
}

// splitLocation breaks a free-form "city, region, country" string into
// its parts. Missing parts come back empty.
func splitLocation(raw string) (city, region, country string) {
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	switch len(parts) {
	case 1:
		// A bare value could be a city or a country; the alias table
		// decides.
		if _, ok := countryAliases[strings.ToLower(parts[0])]; ok {
			return "", "", parts[0]
		}
		return parts[0], "", ""
	case 2:
		return parts[0], "", parts[1]
	default:
		return parts[0], parts[1], strings.Join(parts[2:], " ")
	}
}
