// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package parse

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/models"
)

// parseHTML tokenizes the document, extracts mailto and profile links from
// anchors, then runs the text extractors over the visible text. A
// tokenizer failure falls back to regex over the raw bytes.
func (p *Parser) parseHTML(r *models.RawResult) []models.Candidate {
	var (
		visible    strings.Builder
		candidates []models.Candidate
		skipDepth  int
	)

	z := html.NewTokenizer(bytes.NewReader(r.Content))
loop:
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF ends cleanly; anything else means a truncated or
			// malformed document. The visible text gathered so far is
			// still worth extracting from.
			break loop

		case html.StartTagToken:
			t := z.Token()
			switch t.Data {
			case "script", "style", "noscript":
				skipDepth++
			case "a":
				for _, attr := range t.Attr {
					if attr.Key != "href" {
						continue
					}
					if email, ok := strings.CutPrefix(attr.Val, "mailto:"); ok {
						email = strings.SplitN(email, "?", 2)[0]
						if emailRe.MatchString(email) {
							candidates = append(candidates, newCandidate(r,
								models.EntityEmailAddress,
								map[string]string{models.AttrEmail: strings.ToLower(email)},
								confStructured, attr.Val))
						}
					}
				}
			}

		case html.EndTagToken:
			t := z.Token()
			if skipDepth > 0 && (t.Data == "script" || t.Data == "style" || t.Data == "noscript") {
				skipDepth--
			}

		case html.TextToken:
			if skipDepth == 0 {
				visible.Write(z.Text())
				visible.WriteByte(' ')
			}
		}
	}

	text := visible.String()
	if strings.TrimSpace(text) == "" {
		logging.Warn().Str("result_id", r.ID).Msg("html document yielded no visible text")
		text = string(r.Content)
	}

	candidates = append(candidates, p.extractText(r, text, confRegex)...)
	return candidates
}
