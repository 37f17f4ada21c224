// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package logging

import (
	"strings"
	"testing"
)

func TestRedact_Email(t *testing.T) {
	got := Redact("contact john.doe+tag@example.co.uk for details")
	if strings.Contains(got, "john.doe") {
		t.Errorf("Expected email redacted, got %q", got)
	}
	if !strings.Contains(got, RedactedEmail) {
		t.Errorf("Expected %s placeholder, got %q", RedactedEmail, got)
	}
}

func TestRedact_SSN(t *testing.T) {
	got := Redact("ssn: 123-45-6789 on file")
	if strings.Contains(got, "123-45-6789") {
		t.Errorf("Expected SSN redacted, got %q", got)
	}
	if !strings.Contains(got, RedactedSSN) {
		t.Errorf("Expected %s placeholder, got %q", RedactedSSN, got)
	}
}

func TestRedact_CreditCard(t *testing.T) {
	for _, card := range []string{"4111 1111 1111 1111", "4111-1111-1111-1111", "4111111111111111"} {
		got := Redact("card " + card + " expired")
		if !strings.Contains(got, RedactedCreditCard) {
			t.Errorf("Expected card %q redacted, got %q", card, got)
		}
	}
}

func TestRedact_Phone(t *testing.T) {
	for _, phone := range []string{"+1 555 123 4567", "(555) 123-4567", "555.123.4567"} {
		got := Redact("call " + phone + " now")
		if !strings.Contains(got, RedactedPhone) {
			t.Errorf("Expected phone %q redacted, got %q", phone, got)
		}
		if strings.Contains(got, "4567") {
			t.Errorf("Expected digits gone for %q, got %q", phone, got)
		}
	}
}

func TestRedact_PlainTextUntouched(t *testing.T) {
	in := "registrant appears in two public registries"
	if got := Redact(in); got != in {
		t.Errorf("Expected plain text unchanged, got %q", got)
	}
}

func TestRedact_Empty(t *testing.T) {
	if got := Redact(""); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
}

func TestRedactAndTruncate(t *testing.T) {
	long := strings.Repeat("x", 500) + " a@b.io"
	got := RedactAndTruncate(long, 100)
	if len(got) > 103 {
		t.Errorf("Expected truncation to ~100 chars, got %d", len(got))
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"short", "***"},
		{"eyJhbGciOiJSUzI1NiIs", "eyJh...1NiIs"[:4] + "..." + "NiIs"},
	}

	for _, tt := range tests {
		got := SanitizeToken(tt.input)
		if tt.input == "" && got != "" {
			t.Errorf("SanitizeToken(%q) = %q", tt.input, got)
		}
		if len(tt.input) > 0 && len(tt.input) <= 12 && got != "***" {
			t.Errorf("SanitizeToken(%q) = %q, want ***", tt.input, got)
		}
		if len(tt.input) > 12 && !strings.Contains(got, "...") {
			t.Errorf("SanitizeToken(%q) = %q, want masked form", tt.input, got)
		}
	}
}

func TestSanitizeEmail(t *testing.T) {
	got := SanitizeEmail("john.doe@example.com")
	if got != "jo***@example.com" {
		t.Errorf("SanitizeEmail = %q, want jo***@example.com", got)
	}

	if got := SanitizeEmail("a@b.io"); got != "***@b.io" {
		t.Errorf("SanitizeEmail short local = %q, want ***@b.io", got)
	}

	if got := SanitizeEmail("not-an-email"); got != "***" {
		t.Errorf("SanitizeEmail invalid = %q, want ***", got)
	}
}

func TestSanitizeError_HidesSecrets(t *testing.T) {
	got := SanitizeError("invalid password for account")
	if got != "authentication error" {
		t.Errorf("Expected generic message, got %q", got)
	}

	got = SanitizeError("connection refused")
	if got != "connection refused" {
		t.Errorf("Expected passthrough, got %q", got)
	}
}

func TestSanitizeUsername(t *testing.T) {
	if got := SanitizeUsername("johndoe"); got != "jo***" {
		t.Errorf("SanitizeUsername = %q, want jo***", got)
	}
	if got := SanitizeUsername("jd"); got != "***" {
		t.Errorf("SanitizeUsername short = %q, want ***", got)
	}
}
