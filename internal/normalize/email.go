// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package normalize

import "strings"

// Provider aliases that deliver to the same mailbox namespace.
var providerAliases = map[string]string{
	"googlemail.com": "gmail.com",
	"live.com":       "outlook.com",
	"hotmail.com":    "outlook.com",
	"msn.com":        "outlook.com",
}

// Providers that ignore dots in the local part.
var dotInsensitive = map[string]bool{
	"gmail.com": true,
}

// canonicalEmail lowercases and trims an address. Returns "" when the
// input is not a plausible address.
func canonicalEmail(raw string) string {
	addr := strings.ToLower(strings.TrimSpace(raw))
	at := strings.LastIndexByte(addr, '@')
	if at <= 0 || at == len(addr)-1 || !strings.Contains(addr[at+1:], ".") {
		return ""
	}
	return addr
}

// deliverableKey folds provider aliasing so that addresses reaching the
// same mailbox compare equal: plus-tags stripped, dots stripped on
// dot-insensitive providers, alias domains folded. Idempotent.
func deliverableKey(canonical string) string {
	if canonical == "" {
		return ""
	}
	at := strings.LastIndexByte(canonical, '@')
	local, domain := canonical[:at], canonical[at+1:]

	if folded, ok := providerAliases[domain]; ok {
		domain = folded
	}
	if plus := strings.IndexByte(local, '+'); plus > 0 {
		local = local[:plus]
	}
	if dotInsensitive[domain] {
		local = strings.ReplaceAll(local, ".", "")
	}
	if local == "" {
		return ""
	}
	return local + "@" + domain
}
