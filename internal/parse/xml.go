// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package parse

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/models"
)

// parseXML walks the token stream collecting character data, with element
// names as structured-key hints, then runs the text extractors. Feeds and
// sitemaps from archive sources arrive this way.
func (p *Parser) parseXML(r *models.RawResult) []models.Candidate {
	var (
		candidates []models.Candidate
		freeText   strings.Builder
		current    string
	)

	d := xml.NewDecoder(bytes.NewReader(r.Content))
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logging.Warn().
				Str("result_id", r.ID).
				Str("source", r.Source).
				Err(err).
				Msg("xml parse failed, extracting from partial document")
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			current = strings.ToLower(t.Name.Local)

		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			if hint, ok := structuredKeys[current]; ok {
				value := text
				if hint.attr == models.AttrEmail || hint.attr == models.AttrDomain {
					value = strings.ToLower(text)
				}
				candidates = append(candidates, newCandidate(r,
					hint.entityType,
					map[string]string{hint.attr: value},
					confStructured, current+": "+text))
				continue
			}
			freeText.WriteString(text)
			freeText.WriteByte('\n')

		case xml.EndElement:
			current = ""
		}
	}

	if freeText.Len() > 0 {
		candidates = append(candidates, p.extractText(r, freeText.String(), confRegex)...)
	}
	return candidates
}
