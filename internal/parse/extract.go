// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package parse

import (
	"regexp"
	"strings"

	"github.com/tomtom215/vestigium/internal/models"
)

// Identifier extraction patterns.
var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// E.164 first, then common national forms.
	phoneE164Re     = regexp.MustCompile(`\+[1-9]\d{7,14}\b`)
	phoneNationalRe = regexp.MustCompile(`\(?\b\d{3}\)?[ .-]\d{3}[ .-]\d{4}\b`)

	urlRe = regexp.MustCompile(`https?://[^\s"'<>]+`)

	// @handle mentions and profile path segments on known platforms.
	handleRe      = regexp.MustCompile(`(?:^|[\s(])@([A-Za-z][A-Za-z0-9_.]{2,29})\b`)
	profilePathRe = regexp.MustCompile(`(?i)(?:github\.com|gitlab\.com|twitter\.com|x\.com|instagram\.com|mastodon\.social)/(@?[A-Za-z0-9][A-Za-z0-9_.-]{1,38})\b|(?i)linkedin\.com/in/([A-Za-z0-9-]{3,60})\b`)

	domainRe = regexp.MustCompile(`\b(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+(?:com|org|net|io|dev|co|me|info|biz|edu|gov|[a-z]{2})\b`)

	// Heuristic textual extraction: capitalized sequences near anchor
	// words. The anchors match any case; the captured value must be
	// capitalized, which is the whole heuristic.
	personAnchorRe   = regexp.MustCompile(`(?i:name|author|by|contact|owner)\s*[:\-]?\s+([A-Z][a-z]+(?: [A-Z][a-z]+){1,3})`)
	orgAnchorRe      = regexp.MustCompile(`(?i:company|employer|organization|organisation|works? at)\s*[:\-]?\s+([A-Z][A-Za-z0-9&.' ]{2,60}?)(?:[,.\n]|$)`)
	locationAnchorRe = regexp.MustCompile(`(?i:location|based in|lives in|city|address)\s*[:\-]?\s+([A-Z][A-Za-z ]{2,40}?(?:, [A-Z][A-Za-z ]{1,40})?)(?:[.\n]|$)`)
)

// extractText runs every regex extractor over free text. confidence is the
// tier for direct identifier hits; heuristic person/org/location always
// score confHeuristic.
func (p *Parser) extractText(r *models.RawResult, text string, confidence float64) []models.Candidate {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []models.Candidate
	seen := make(map[string]struct{})

	add := func(t models.EntityType, attrs map[string]string, conf float64, match string) {
		key := string(t) + "\x00" + dedupeValue(attrs)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, newCandidate(r, t, attrs, conf, contextAround(text, match)))
	}

	for _, m := range emailRe.FindAllString(text, -1) {
		add(models.EntityEmailAddress, map[string]string{models.AttrEmail: strings.ToLower(m)}, confidence, m)
	}

	for _, m := range phoneE164Re.FindAllString(text, -1) {
		add(models.EntityPhoneNumber, map[string]string{models.AttrPhone: m}, confidence, m)
	}
	for _, m := range phoneNationalRe.FindAllString(text, -1) {
		add(models.EntityPhoneNumber, map[string]string{models.AttrPhone: m}, confidence-10, m)
	}

	for _, m := range profilePathRe.FindAllStringSubmatch(text, -1) {
		handle := m[1]
		if handle == "" {
			handle = m[2]
		}
		handle = strings.TrimPrefix(handle, "@")
		if isReservedPath(handle) {
			continue
		}
		add(models.EntitySocialProfile, map[string]string{
			models.AttrUsername:   handle,
			models.AttrProfileURL: m[0],
		}, confidence, m[0])
	}
	for _, m := range handleRe.FindAllStringSubmatch(text, -1) {
		add(models.EntityUsername, map[string]string{models.AttrUsername: m[1]}, confidence-10, m[0])
	}

	lower := strings.ToLower(text)
	for _, m := range domainRe.FindAllString(lower, -1) {
		// Skip bare domains that are part of an extracted email.
		if strings.Contains(text, "@"+m) {
			continue
		}
		add(models.EntityDomain, map[string]string{models.AttrDomain: m}, confidence-15, m)
	}

	for _, m := range personAnchorRe.FindAllStringSubmatch(text, -1) {
		add(models.EntityPerson, map[string]string{models.AttrFullName: m[1]}, confHeuristic, m[0])
	}
	for _, m := range orgAnchorRe.FindAllStringSubmatch(text, -1) {
		add(models.EntityOrganization, map[string]string{models.AttrCompany: strings.TrimSpace(m[1])}, confHeuristic, m[0])
	}
	for _, m := range locationAnchorRe.FindAllStringSubmatch(text, -1) {
		add(models.EntityLocation, map[string]string{models.AttrCity: strings.TrimSpace(m[1])}, confHeuristic, m[0])
	}

	return out
}

// dedupeValue canonicalizes a candidate's attributes for within-document
// dedupe.
func dedupeValue(attrs map[string]string) string {
	for _, key := range []string{
		models.AttrEmail, models.AttrPhone, models.AttrUsername,
		models.AttrDomain, models.AttrFullName, models.AttrCompany, models.AttrCity,
	} {
		if v, ok := attrs[key]; ok {
			return strings.ToLower(v)
		}
	}
	return ""
}

// contextAround returns a short window of text centered on the first
// occurrence of match.
func contextAround(text, match string) string {
	idx := strings.Index(text, match)
	if idx < 0 {
		return match
	}
	start := idx - 40
	if start < 0 {
		start = 0
	}
	end := idx + len(match) + 40
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}

// isReservedPath filters platform path segments that are site chrome, not
// user handles.
func isReservedPath(segment string) bool {
	switch strings.ToLower(segment) {
	case "login", "signup", "about", "search", "explore", "settings",
		"help", "home", "features", "pricing", "terms", "privacy":
		return true
	default:
		return false
	}
}
