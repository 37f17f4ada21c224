// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package normalize

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/tomtom215/vestigium/internal/match"
)

// canonicalName lowercases, strips accents (NFD decomposition, combining
// marks removed), and collapses punctuation to single spaces. "José
// García-López" becomes "jose garcia lopez".
func canonicalName(raw string) string {
	return strings.Join(nameTokens(raw), " ")
}

// nameKey is the order-independent comparison key: tokens sorted
// alphabetically, so "Doe, Jane" and "Jane Doe" key identically.
func nameKey(raw string) string {
	tokens := nameTokens(raw)
	if len(tokens) == 0 {
		return ""
	}
	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

// namePhonetic codes the final token, usually the surname, as
// Soundex|Metaphone. The surname survives transliteration better than
// given names, which makes it the useful blocking key.
func namePhonetic(raw string) string {
	tokens := nameTokens(raw)
	if len(tokens) == 0 {
		return ""
	}
	surname := tokens[len(tokens)-1]
	sx := match.Soundex(surname)
	mp := match.Metaphone(surname)
	if sx == "" && mp == "" {
		return ""
	}
	return sx + "|" + mp
}

// nameTokens lowercases, strips accents, and splits on whitespace and
// punctuation. Single-character particles like initials survive.
func nameTokens(raw string) []string {
	decomposed := norm.NFD.String(strings.ToLower(strings.TrimSpace(raw)))

	var b strings.Builder
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// Combining mark from the decomposition: dropped.
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}
