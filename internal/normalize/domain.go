// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package normalize

import (
	"strings"

	"golang.org/x/net/idna"
)

// canonicalDomain lowercases, strips the FQDN trailing dot and any
// wildcard or scheme prefix, and IDN-normalizes to ASCII (punycode), so
// münchen.de and xn--mnchen-3ya.de key identically. Returns "" for
// values idna rejects outright.
func canonicalDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "*.")
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimSuffix(d, ".")
	if d == "" || !strings.Contains(d, ".") {
		return ""
	}

	ascii, err := idna.Lookup.ToASCII(d)
	if err != nil {
		return ""
	}
	return ascii
}
