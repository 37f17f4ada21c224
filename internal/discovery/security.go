// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package discovery

import (
	"regexp"

	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/metrics"
)

// Built-in blocked query patterns. A planned query matching any of these is
// rejected with security_rejected before the scheduler ever sees it. The
// set is additive: configuration can extend it, never shrink it.
var builtinBlockedPatterns = []string{
	// Credential-dumping search operators.
	`(?i)\b(password|passwd|pwd)\s*(dump|list|leak)`,
	`(?i)filetype:\s*(sql|env|pem|key)`,
	`(?i)intext:\s*("password"|"api_key"|"secret")`,

	// SQL fragments.
	`(?i)\bunion\s+select\b`,
	`(?i)\b(drop|truncate)\s+table\b`,
	`(?i)'\s*or\s+'?1'?\s*=\s*'?1`,

	// Script and XSS schemes.
	`(?i)<script[\s>]`,
	`(?i)javascript\s*:`,
	`(?i)on(load|error|click)\s*=`,

	// Raw SSN and credit card shapes. These are never legitimate search
	// terms for this pipeline. The card pattern requires 16 digits so
	// E.164 phone numbers (at most 15) stay searchable.
	`\b\d{3}-\d{2}-\d{4}\b`,
	`\b\d{4}[ -]\d{4}[ -]\d{4}[ -]\d{4}\b`,
	`\b\d{16}\b`,

	// Auth endpoint probes.
	`(?i)/(wp-login|wp-admin|admin/login|\.git/|\.env)\b`,
}

// SecurityPass screens planned query strings against the blocked pattern
// set. One instance is compiled at startup and shared by every planner.
type SecurityPass struct {
	patterns []*regexp.Regexp
}

// NewSecurityPass compiles the built-in patterns plus any configured
// extras. Configured patterns were already validated at config load; a
// compile failure here is a programming error.
func NewSecurityPass(extra []string) (*SecurityPass, error) {
	all := make([]string, 0, len(builtinBlockedPatterns)+len(extra))
	all = append(all, builtinBlockedPatterns...)
	all = append(all, extra...)

	compiled := make([]*regexp.Regexp, 0, len(all))
	for _, p := range all {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, "compile blocked pattern", err)
		}
		compiled = append(compiled, re)
	}

	return &SecurityPass{patterns: compiled}, nil
}

// Check rejects values matching a blocked pattern. The offending value is
// never logged verbatim; only its length and the pattern index appear.
func (s *SecurityPass) Check(value string) error {
	for i, re := range s.patterns {
		if re.MatchString(value) {
			metrics.QueriesBlocked.Inc()
			logging.Warn().
				Int("pattern_index", i).
				Int("value_len", len(value)).
				Msg("query blocked by security pass")
			return fault.New(fault.KindSecurityRejected, "query matches blocked pattern")
		}
	}
	return nil
}
