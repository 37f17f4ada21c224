// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package parse extracts entity candidates from raw results.
//
// Parsing never fails the pipeline: a malformed document yields zero
// candidates and a Warn log. Hostile content (injection payloads, script
// schemes) is flagged and redacted in place, then parsed normally —
// flagged results still carry legitimate extractable identifiers.
package parse

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/metrics"
	"github.com/tomtom215/vestigium/internal/models"
)

// Extraction confidence tiers, 0-1. Structured fields identify
// themselves; regex hits on free text are probable; heuristic guesses
// are weak.
const (
	confStructured = 0.90
	confRegex      = 0.75
	confHeuristic  = 0.40
)

// Parser turns raw results into entity candidates.
type Parser struct{}

// New creates a parser.
func New() *Parser {
	return &Parser{}
}

// Parse extracts candidates from one raw result, dispatching on media
// type. It mutates r only to add security flags and redact hostile spans.
func (p *Parser) Parse(r *models.RawResult) []models.Candidate {
	screen(r)

	var candidates []models.Candidate
	switch r.MediaType {
	case models.MediaTypeHTML:
		candidates = p.parseHTML(r)
	case models.MediaTypeJSON:
		candidates = p.parseJSON(r)
	case models.MediaTypeXML:
		candidates = p.parseXML(r)
	case models.MediaTypeText:
		candidates = p.extractText(r, string(r.Content), confRegex)
	default:
		logging.Warn().
			Str("result_id", r.ID).
			Str("media_type", r.MediaType).
			Msg("unsupported media type, no candidates extracted")
		return nil
	}

	for _, c := range candidates {
		metrics.CandidatesExtracted.WithLabelValues(string(c.Type)).Inc()
	}
	return candidates
}

// newCandidate assembles a candidate with provenance and a redacted
// context snippet.
func newCandidate(r *models.RawResult, t models.EntityType, attrs map[string]string, confidence float64, context string) models.Candidate {
	return models.Candidate{
		ID:                   uuid.New().String(),
		RawResultID:          r.ID,
		Source:               r.Source,
		Type:                 t,
		Attributes:           attrs,
		ExtractionConfidence: confidence,
		Context:              logging.RedactAndTruncate(context, 120),
		ExtractedAt:          time.Now().UTC(),
	}
}
