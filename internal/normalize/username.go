// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package normalize

import (
	"sort"
	"strings"
)

// canonicalUsername lowercases a handle and strips separator characters,
// so jane_doe, jane.doe and Jane-Doe all key to janedoe.
func canonicalUsername(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "@")))
	var b strings.Builder
	for _, r := range raw {
		if isUserSeparator(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// usernameVariants generates the handle forms people reuse across
// platforms: each separator style over the original segments, plus a
// first-initial form when the handle has multiple segments. Sorted and
// deduplicated; the canonical form is always included.
func usernameVariants(raw string) []string {
	raw = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "@")))
	if raw == "" {
		return nil
	}

	parts := strings.FieldsFunc(raw, isUserSeparator)
	if len(parts) == 0 {
		return nil
	}

	set := map[string]struct{}{
		strings.Join(parts, ""):  {},
		strings.Join(parts, "_"): {},
		strings.Join(parts, "-"): {},
		strings.Join(parts, "."): {},
	}
	if len(parts) > 1 {
		initial := append([]string{parts[0][:1]}, parts[1:]...)
		set[strings.Join(initial, "")] = struct{}{}
		set[strings.Join(initial, "_")] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func isUserSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || r == ' '
}
