// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package normalize

import "strings"

// callingCodes maps ISO 3166-1 alpha-2 regions to their calling code.
// Compact on purpose: covers the regions seed geographic hints actually
// name; unknown regions fall back to partial (last-7) matching only.
var callingCodes = map[string]string{
	"US": "1", "CA": "1",
	"GB": "44", "IE": "353",
	"DE": "49", "FR": "33", "ES": "34", "IT": "39", "PT": "351",
	"NL": "31", "BE": "32", "CH": "41", "AT": "43",
	"SE": "46", "NO": "47", "DK": "45", "FI": "358",
	"PL": "48", "CZ": "420", "UA": "380",
	"AU": "61", "NZ": "64",
	"JP": "81", "KR": "82", "CN": "86", "IN": "91", "SG": "65",
	"BR": "55", "MX": "52", "AR": "54",
	"ZA": "27", "NG": "234", "IL": "972", "AE": "971",
}

// nanpRegions share calling code 1 and have no trunk prefix to strip.
var nanpRegions = map[string]bool{"US": true, "CA": true}

// toE164 converts a raw phone to E.164. The default region resolves
// national forms; without it only international forms convert. Returns
// "" when the number cannot be expressed.
func toE164(raw, defaultRegion string) string {
	digits, hadPlus := phoneDigits(raw)
	if len(digits) == 0 {
		return ""
	}

	// International prefix 00 is equivalent to +.
	if !hadPlus && strings.HasPrefix(digits, "00") {
		digits = digits[2:]
		hadPlus = true
	}

	if hadPlus {
		if len(digits) < 8 || len(digits) > 15 || digits[0] == '0' {
			return ""
		}
		return "+" + digits
	}

	cc, ok := callingCodes[strings.ToUpper(defaultRegion)]
	if !ok {
		return ""
	}

	if nanpRegions[strings.ToUpper(defaultRegion)] {
		// 11 digits with the country code spelled out, or a bare 10.
		if len(digits) == 11 && strings.HasPrefix(digits, "1") {
			return "+" + digits
		}
		if len(digits) == 10 {
			return "+1" + digits
		}
		return ""
	}

	// Most other plans write national numbers with a trunk 0.
	digits = strings.TrimPrefix(digits, "0")
	if len(digits) < 6 {
		return ""
	}
	if len(digits) > 15-len(cc) {
		// Too long for a national number: salvageable only if the
		// country code is already spelled out.
		if strings.HasPrefix(digits, cc) && len(digits) <= 15 {
			return "+" + digits
		}
		return ""
	}
	return "+" + cc + digits
}

// last7 returns the last seven digits of a phone, the partial key used
// when country context is missing or wrong.
func last7(raw string) string {
	digits, _ := phoneDigits(raw)
	if len(digits) < 7 {
		return ""
	}
	return digits[len(digits)-7:]
}

func phoneDigits(raw string) (digits string, hadPlus bool) {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '+' && b.Len() == 0:
			hadPlus = true
		}
	}
	return b.String(), hadPlus
}
