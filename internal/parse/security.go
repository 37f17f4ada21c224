// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package parse

import (
	"regexp"

	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/metrics"
	"github.com/tomtom215/vestigium/internal/models"
)

const redactedSpan = "[REDACTED_UNSAFE]"

// Hostile content patterns. A match flags the result and redacts the
// matched span; the rest of the document is still parsed.
var unsafePatterns = []struct {
	flag models.SecurityFlag
	re   *regexp.Regexp
}{
	{models.FlagSQLInjection, regexp.MustCompile(`(?i)(union\s+select\b|'\s*or\s+'?1'?\s*=\s*'?1|;\s*(?:drop|truncate)\s+table\b)`)},
	{models.FlagXSS, regexp.MustCompile(`(?i)(<script[\s>][^<]*|javascript\s*:\S*|\bon(?:load|error|click)\s*=\s*["'][^"']*["'])`)},
	{models.FlagCommandInjection, regexp.MustCompile("(?i)(;\\s*(?:rm|curl|wget|nc|bash|sh)\\s+-|\\$\\([^)]*\\)|`[^`]+`)")},
	{models.FlagPathTraversal, regexp.MustCompile(`(?:\.\./){2,}`)},
}

// screen detects hostile patterns in the content, flags the result, and
// redacts the offending spans in place. Flagged results continue through
// the pipeline; dropping them would let an adversary hide real identifiers
// behind a single injected string.
func screen(r *models.RawResult) {
	content := string(r.Content)
	modified := false

	for _, p := range unsafePatterns {
		if !p.re.MatchString(content) {
			continue
		}
		content = p.re.ReplaceAllString(content, redactedSpan)
		modified = true
		r.SecurityFlags = append(r.SecurityFlags, p.flag)

		metrics.UnsafeContentFlagged.WithLabelValues(string(p.flag)).Inc()
		logging.Warn().
			Str("result_id", r.ID).
			Str("source", r.Source).
			Str("flag", string(p.flag)).
			Msg("hostile content flagged and redacted")
	}

	if modified {
		r.SetContent([]byte(content))
	}
}
