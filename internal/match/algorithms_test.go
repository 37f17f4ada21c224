// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package match

import (
	"math"
	"testing"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
		{"résumé", "resume", 2},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestLevenshteinRatio(t *testing.T) {
	if got := LevenshteinRatio("same", "same"); got != 1 {
		t.Errorf("identical strings ratio = %g, want 1", got)
	}
	if got := LevenshteinRatio("abcd", "wxyz"); got != 0 {
		t.Errorf("disjoint strings ratio = %g, want 0", got)
	}
	got := LevenshteinRatio("jonathan", "johnathan")
	if got <= 0.8 || got >= 1 {
		t.Errorf("near-identical names ratio = %g, want in (0.8, 1)", got)
	}
}

func TestJaroWinkler(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"MARTHA", "MARHTA", 0.961},
		{"DIXON", "DICKSONX", 0.813},
		{"JELLYFISH", "SMELLYFISH", 0.896},
		{"same", "same", 1},
		{"abc", "xyz", 0},
		{"", "", 1},
	}
	for _, tt := range tests {
		if got := JaroWinkler(tt.a, tt.b); math.Abs(got-tt.want) > 0.005 {
			t.Errorf("JaroWinkler(%q, %q) = %.3f, want %.3f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSoundex(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Robert", "R163"},
		{"Rupert", "R163"},
		{"Ashcraft", "A261"},
		{"Tymczak", "T522"},
		{"Pfister", "P236"},
		{"Lee", "L000"},
		{"", ""},
		{"123", ""},
	}
	for _, tt := range tests {
		if got := Soundex(tt.in); got != tt.want {
			t.Errorf("Soundex(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMetaphoneFoldsSpellingVariants(t *testing.T) {
	pairs := [][2]string{
		{"Smith", "Smyth"},
		{"Philip", "Filip"},
		{"Catherine", "Katherine"},
	}
	for _, p := range pairs {
		if Metaphone(p[0]) != Metaphone(p[1]) {
			t.Errorf("Metaphone(%q)=%q and Metaphone(%q)=%q should fold together",
				p[0], Metaphone(p[0]), p[1], Metaphone(p[1]))
		}
	}

	if Metaphone("Smith") == Metaphone("Jones") {
		t.Error("unrelated surnames must not collide")
	}
	if Metaphone("") != "" {
		t.Error("empty input yields empty code")
	}
}

func TestTokenSetJaccard(t *testing.T) {
	if got := tokenSetJaccard([]string{"jane", "doe"}, []string{"doe", "jane"}); got != 1 {
		t.Errorf("order-independent sets = %g, want 1", got)
	}
	if got := tokenSetJaccard([]string{"jane", "doe"}, []string{"jane", "smith"}); math.Abs(got-1.0/3) > 1e-9 {
		t.Errorf("partial overlap = %g, want 1/3", got)
	}
	if got := tokenSetJaccard(nil, []string{"x"}); got != 0 {
		t.Errorf("empty vs non-empty = %g, want 0", got)
	}
}
