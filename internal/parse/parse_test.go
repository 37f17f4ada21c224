// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package parse

import (
	"strings"
	"testing"

	"github.com/tomtom215/vestigium/internal/models"
)

func rawResult(mediaType, content string, meta map[string]string) *models.RawResult {
	r := &models.RawResult{
		ID:        "r-1",
		QueryID:   "q-1",
		Source:    "webindex",
		MediaType: mediaType,
		Metadata:  meta,
	}
	r.SetContent([]byte(content))
	return r
}

func findByType(cs []models.Candidate, t models.EntityType) []models.Candidate {
	var out []models.Candidate
	for _, c := range cs {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

func TestParseTextExtractsIdentifiers(t *testing.T) {
	text := `Contact: Jane Doe
Reach her at jane.doe@example.com or +14155550123.
Profile: https://github.com/jdoe42 and @janedoe on the fediverse.
Company: Acme Widgets, site at janedoe.com`

	p := New()
	candidates := p.Parse(rawResult(models.MediaTypeText, text, nil))

	if len(findByType(candidates, models.EntityEmailAddress)) != 1 {
		t.Error("expected one email candidate")
	}
	if len(findByType(candidates, models.EntityPhoneNumber)) != 1 {
		t.Error("expected one phone candidate")
	}
	if len(findByType(candidates, models.EntitySocialProfile)) != 1 {
		t.Error("expected one social profile candidate")
	}
	if len(findByType(candidates, models.EntityUsername)) < 1 {
		t.Error("expected a username candidate from the @handle")
	}

	emails := findByType(candidates, models.EntityEmailAddress)
	if emails[0].Attributes[models.AttrEmail] != "jane.doe@example.com" {
		t.Errorf("unexpected email %q", emails[0].Attributes[models.AttrEmail])
	}

	// Heuristic extraction finds the anchored person name at low confidence.
	persons := findByType(candidates, models.EntityPerson)
	if len(persons) == 0 {
		t.Fatal("expected a heuristic person candidate")
	}
	if persons[0].ExtractionConfidence != confHeuristic {
		t.Errorf("heuristic extraction must score %g, got %g", confHeuristic, persons[0].ExtractionConfidence)
	}
}

func TestParseTextDedupesWithinDocument(t *testing.T) {
	text := "jane@example.com appears twice: jane@example.com"
	candidates := New().Parse(rawResult(models.MediaTypeText, text, nil))

	if got := len(findByType(candidates, models.EntityEmailAddress)); got != 1 {
		t.Errorf("expected 1 deduped email candidate, got %d", got)
	}
}

func TestParseHTML(t *testing.T) {
	doc := `<html><head><script>var x = "script@hidden.com";</script></head>
<body>
<p>Author: John Smith</p>
<a href="mailto:john@example.org?subject=hi">mail me</a>
<p>handle @jsmith on most platforms</p>
</body></html>`

	candidates := New().Parse(rawResult(models.MediaTypeHTML, doc, nil))

	emails := findByType(candidates, models.EntityEmailAddress)
	if len(emails) != 1 {
		t.Fatalf("expected 1 email (script content skipped), got %d", len(emails))
	}
	if emails[0].Attributes[models.AttrEmail] != "john@example.org" {
		t.Errorf("unexpected email %q", emails[0].Attributes[models.AttrEmail])
	}
	if emails[0].ExtractionConfidence != confStructured {
		t.Errorf("mailto link must score structured confidence, got %g", emails[0].ExtractionConfidence)
	}

	if len(findByType(candidates, models.EntityPerson)) == 0 {
		t.Error("expected person candidate from visible text")
	}
}

func TestParseJSONStructuredKeys(t *testing.T) {
	doc := `{"items":[{"login":"jdoe42","email":"Jane@Example.COM","company":"Acme","bio":"reach me at jane.alt@other.net"}]}`

	candidates := New().Parse(rawResult(models.MediaTypeJSON, doc, nil))

	usernames := findByType(candidates, models.EntityUsername)
	if len(usernames) != 1 || usernames[0].Attributes[models.AttrUsername] != "jdoe42" {
		t.Errorf("expected structured username jdoe42, got %+v", usernames)
	}
	if usernames[0].ExtractionConfidence != confStructured {
		t.Errorf("structured field must score %g", confStructured)
	}

	emails := findByType(candidates, models.EntityEmailAddress)
	if len(emails) != 2 {
		t.Fatalf("expected structured + free-text emails, got %d", len(emails))
	}
	for _, e := range emails {
		if e.Attributes[models.AttrEmail] == "jane@example.com" && e.ExtractionConfidence != confStructured {
			t.Error("structured email must keep structured confidence")
		}
	}

	if len(findByType(candidates, models.EntityOrganization)) != 1 {
		t.Error("expected organization candidate")
	}
}

func TestParseJSONBreachRecords(t *testing.T) {
	doc := `[{"Name":"ExampleBreach","Title":"Example Breach","BreachDate":"2019-03-01","DataClasses":["Email addresses","Passwords"]}]`

	candidates := New().Parse(rawResult(models.MediaTypeJSON, doc, map[string]string{"record_type": "breach_list"}))

	breaches := findByType(candidates, models.EntityBreachRecord)
	if len(breaches) != 1 {
		t.Fatalf("expected 1 breach record, got %d", len(breaches))
	}
	b := breaches[0]
	if b.Attributes[models.AttrBreachDate] != "2019-03-01" {
		t.Errorf("unexpected breach date %q", b.Attributes[models.AttrBreachDate])
	}
	if !strings.Contains(b.Attributes[models.AttrDataClasses], "Passwords") {
		t.Errorf("expected data classes captured, got %q", b.Attributes[models.AttrDataClasses])
	}
}

func TestParseJSONMalformedYieldsNothing(t *testing.T) {
	candidates := New().Parse(rawResult(models.MediaTypeJSON, `{"broken":`, nil))
	if len(candidates) != 0 {
		t.Errorf("malformed json must yield zero candidates, got %d", len(candidates))
	}
}

func TestParseXML(t *testing.T) {
	doc := `<?xml version="1.0"?>
<feed>
  <entry>
    <email>sam@example.net</email>
    <username>samdev</username>
    <summary>posted from samsite.dev</summary>
  </entry>
</feed>`

	candidates := New().Parse(rawResult(models.MediaTypeXML, doc, nil))

	if len(findByType(candidates, models.EntityEmailAddress)) != 1 {
		t.Error("expected structured email from element")
	}
	if len(findByType(candidates, models.EntityUsername)) != 1 {
		t.Error("expected structured username from element")
	}
	if len(findByType(candidates, models.EntityDomain)) == 0 {
		t.Error("expected domain from free text")
	}
}

func TestParseUnknownMediaType(t *testing.T) {
	candidates := New().Parse(rawResult("application/pdf", "%PDF-1.4", nil))
	if candidates != nil {
		t.Errorf("unsupported media type must yield nil, got %d candidates", len(candidates))
	}
}

func TestScreenFlagsAndRedacts(t *testing.T) {
	tests := []struct {
		name    string
		content string
		flag    models.SecurityFlag
	}{
		{"sql injection", "id=1 UNION SELECT password FROM users", models.FlagSQLInjection},
		{"xss", `<img onerror="steal()" src=x>`, models.FlagXSS},
		{"path traversal", "GET ../../../../etc/passwd", models.FlagPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rawResult(models.MediaTypeText, tt.content+" contact: safe@example.com", nil)
			candidates := New().Parse(r)

			found := false
			for _, f := range r.SecurityFlags {
				if f == tt.flag {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected flag %s, got %v", tt.flag, r.SecurityFlags)
			}
			if !strings.Contains(string(r.Content), redactedSpan) {
				t.Error("expected hostile span redacted in content")
			}

			// The legitimate identifier survives redaction.
			if len(findByType(candidates, models.EntityEmailAddress)) != 1 {
				t.Error("expected extraction to continue after redaction")
			}
		})
	}
}

func TestScreenKeepsHashConsistent(t *testing.T) {
	r := rawResult(models.MediaTypeText, "x UNION SELECT y", nil)
	New().Parse(r)

	if r.ContentHash != models.HashContent(r.Content) {
		t.Error("content hash must track redacted content")
	}
}

func TestExtractionConfidenceTiersAreUnitScale(t *testing.T) {
	tiers := map[string]float64{
		"structured": confStructured,
		"regex":      confRegex,
		"heuristic":  confHeuristic,
	}
	for name, conf := range tiers {
		if conf <= 0 || conf > 1 {
			t.Errorf("%s tier = %g, want within (0,1]", name, conf)
		}
	}
}
