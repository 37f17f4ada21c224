// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package logging

import (
	"regexp"
	"strings"
)

// Redaction placeholders. Fetched content and subject attributes are passed
// through Redact before they appear in any log line or stored error message.
const (
	RedactedEmail      = "[REDACTED_EMAIL]"
	RedactedPhone      = "[REDACTED_PHONE]"
	RedactedSSN        = "[REDACTED_SSN]"
	RedactedCreditCard = "[REDACTED_CREDIT_CARD]"
)

var (
	redactEmailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// SSN and credit card shapes must be replaced before the phone pattern,
	// which would otherwise consume their digit groups.
	redactSSNRe        = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	redactCreditCardRe = regexp.MustCompile(`\b(?:\d[ \-]?){13,16}\b`)
	redactPhoneRe      = regexp.MustCompile(`(\+?\d{1,3}[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}\b`)
)

// Redact replaces email addresses, phone numbers, SSN-shaped and credit-card-
// shaped substrings with fixed placeholders. The output is safe to log and to
// persist in error messages.
func Redact(s string) string {
	if s == "" {
		return s
	}
	s = redactEmailRe.ReplaceAllString(s, RedactedEmail)
	s = redactSSNRe.ReplaceAllString(s, RedactedSSN)
	s = redactCreditCardRe.ReplaceAllString(s, RedactedCreditCard)
	s = redactPhoneRe.ReplaceAllString(s, RedactedPhone)
	return s
}

// RedactAndTruncate redacts s and truncates the result to maxLen runes.
// Used for logging snippets of fetched content.
func RedactAndTruncate(s string, maxLen int) string {
	return truncateString(Redact(s), maxLen)
}

// SanitizeToken masks a token, showing only first and last 4 characters.
// Example: "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..." -> "eyJh...kpXV"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeUsername masks a username, keeping first 2 characters.
// Example: "johndoe" -> "jo***"
func SanitizeUsername(username string) string {
	if username == "" {
		return ""
	}
	if len(username) <= 2 {
		return "***"
	}
	return username[:2] + "***"
}

// SanitizeEmail masks an email address while keeping the domain.
// Example: "john.doe@example.com" -> "jo***@example.com"
func SanitizeEmail(email string) string {
	if email == "" {
		return ""
	}

	atIndex := strings.Index(email, "@")
	if atIndex <= 0 {
		return "***"
	}

	localPart := email[:atIndex]
	domain := email[atIndex:]

	if len(localPart) <= 2 {
		return "***" + domain
	}
	return localPart[:2] + "***" + domain
}

// SanitizeError removes potentially sensitive information from error messages.
func SanitizeError(err string) string {
	sensitivePatterns := []string{
		"password",
		"secret",
		"token",
		"key",
		"bearer",
		"authorization",
		"cookie",
	}

	lowerErr := strings.ToLower(err)
	for _, pattern := range sensitivePatterns {
		if strings.Contains(lowerErr, pattern) {
			return "authentication error"
		}
	}

	return truncateString(Redact(err), 200)
}

// truncateString truncates a string to a maximum length.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
