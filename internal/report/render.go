// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package report

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/models"
)

// Output formats.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Render serializes a report in the requested format.
func Render(r *models.Report, format string) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return RenderJSON(r)
	case FormatMarkdown, "md":
		return RenderMarkdown(r)
	case FormatHTML:
		return RenderHTML(r)
	default:
		return nil, fault.Newf(fault.KindValidation, "unknown report format %q", format)
	}
}

// RenderJSON emits the canonical machine-readable form.
func RenderJSON(r *models.Report) ([]byte, error) {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "marshal report", err)
	}
	return out, nil
}

var templateFuncs = map[string]interface{}{
	"score": func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"pct":   func(v float64) string { return fmt.Sprintf("%.0f%%", v) },
	"date":  func(r models.TimelineEvent) string { return formatEventDate(r) },
	"join":  strings.Join,
	"title": func(s string) string {
		words := strings.Fields(strings.ReplaceAll(s, "_", " "))
		for i, w := range words {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
		return strings.Join(words, " ")
	},
}

func formatEventDate(e models.TimelineEvent) string {
	switch e.Precision {
	case models.PrecisionDay:
		return e.Date.Format("2006-01-02")
	case models.PrecisionMonth:
		return e.Date.Format("2006-01")
	case models.PrecisionApproximate:
		return "~" + e.Date.Format("2006")
	default:
		return e.Date.Format("2006")
	}
}

const markdownTemplate = `# Digital Footprint Report

**Investigation:** {{.InvestigationID}}
**Generated:** {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}
{{- if .Partial}}
**Note:** partial results; some sources did not complete.
{{- end}}

## Executive Summary

{{.ExecutiveSummary}}

## Risk Assessment

| Dimension | Score |
|---|---|
| **Overall ({{.Risk.Level}})** | {{score .Risk.Overall}} |
| Privacy exposure | {{score .Risk.Privacy}} |
| Security risk | {{score .Risk.Security}} |
| Identity theft risk | {{score .Risk.IdentityTheft}} |
| Miscellaneous | {{score .Risk.Misc}} |
{{- if .Risk.Factors}}

Contributing factors:
{{- range .Risk.Factors}}
- {{.}}
{{- end}}
{{- end}}

## Identity Inventory
{{range .IdentityInventory}}
### {{title (printf "%s" .Status)}} ({{len .Entities}})
{{range .Entities}}
- **{{.Type}}** (confidence {{score .Confidence}}, {{.MergedFrom}} source record(s))
{{- end}}
{{end}}
## Exposure Analysis

| Category | Count | Sources | Risk |
|---|---|---|---|
{{- range .ExposureAnalysis}}
| {{title .Category}} | {{.Count}} | {{.Sources}} | {{score .Risk}} |
{{- end}}

## Activity Timeline
{{range .Timeline}}
- {{date .}} — **{{.Title}}**{{if .Sources}} ({{join .Sources ", "}}){{end}}
{{- end}}

## Recommendations
{{range .Recommendations}}
{{.Priority}}. **[{{.Category}}]** {{.Action}} _(effort: {{.Effort}})_
{{- end}}

## Detailed Findings
{{range .Findings}}
### {{.Title}} ({{.Severity}})

{{.Detail}}
{{end}}
## Sources
{{range .Sources}}
- {{.Source}}: {{.URL}} (retrieved {{.RetrievedAt.Format "2006-01-02"}})
{{- end}}
{{- if .Errors}}

## Collection Errors
{{range .Errors}}
- {{.Kind}}{{if .Source}} ({{.Source}}){{end}}: {{.Message}}
{{- end}}
{{- end}}
`

var markdownTmpl = texttemplate.Must(
	texttemplate.New("report.md").Funcs(templateFuncs).Parse(markdownTemplate))

// RenderMarkdown emits the human-readable text form.
func RenderMarkdown(r *models.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdownTmpl.Execute(&buf, r); err != nil {
		return nil, fault.Wrap(fault.KindInternal, "render markdown report", err)
	}
	return buf.Bytes(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Digital Footprint Report {{.InvestigationID}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; color: #1a1a2e; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #cbd5e1; padding: 0.4rem 0.8rem; text-align: left; }
.risk-LOW { color: #15803d; } .risk-MEDIUM { color: #b45309; }
.risk-HIGH { color: #c2410c; } .risk-CRITICAL { color: #b91c1c; }
.meta { color: #64748b; font-size: 0.9rem; }
</style>
</head>
<body>
<h1>Digital Footprint Report</h1>
<p class="meta">Investigation {{.InvestigationID}} &middot; generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}{{if .Partial}} &middot; partial results{{end}}</p>

<h2>Executive Summary</h2>
<p>{{.ExecutiveSummary}}</p>

<h2>Risk Assessment</h2>
<table>
<tr><th>Dimension</th><th>Score</th></tr>
<tr><td>Overall <span class="risk-{{.Risk.Level}}">{{.Risk.Level}}</span></td><td>{{score .Risk.Overall}}</td></tr>
<tr><td>Privacy exposure</td><td>{{score .Risk.Privacy}}</td></tr>
<tr><td>Security risk</td><td>{{score .Risk.Security}}</td></tr>
<tr><td>Identity theft risk</td><td>{{score .Risk.IdentityTheft}}</td></tr>
<tr><td>Miscellaneous</td><td>{{score .Risk.Misc}}</td></tr>
</table>
{{if .Risk.Factors}}<ul>{{range .Risk.Factors}}<li>{{.}}</li>{{end}}</ul>{{end}}

<h2>Identity Inventory</h2>
{{range .IdentityInventory}}
<h3>{{title (printf "%s" .Status)}} ({{len .Entities}})</h3>
<ul>
{{- range .Entities}}
<li><strong>{{.Type}}</strong> &mdash; confidence {{score .Confidence}}, {{.MergedFrom}} source record(s)</li>
{{- end}}
</ul>
{{end}}

<h2>Exposure Analysis</h2>
<table>
<tr><th>Category</th><th>Count</th><th>Sources</th><th>Risk</th></tr>
{{- range .ExposureAnalysis}}
<tr><td>{{title .Category}}</td><td>{{.Count}}</td><td>{{.Sources}}</td><td>{{score .Risk}}</td></tr>
{{- end}}
</table>

<h2>Activity Timeline</h2>
<ul>
{{- range .Timeline}}
<li>{{date .}} &mdash; {{.Title}}{{if .Sources}} <span class="meta">({{join .Sources ", "}})</span>{{end}}</li>
{{- end}}
</ul>

<h2>Recommendations</h2>
<ol>
{{- range .Recommendations}}
<li><strong>[{{.Category}}]</strong> {{.Action}} <span class="meta">effort: {{.Effort}}</span></li>
{{- end}}
</ol>

<h2>Detailed Findings</h2>
{{range .Findings}}
<h3>{{.Title}} <span class="risk-{{.Severity}}">{{.Severity}}</span></h3>
<p>{{.Detail}}</p>
{{end}}

<h2>Sources</h2>
<ul>
{{- range .Sources}}
<li>{{.Source}}: <a href="{{.URL}}">{{.URL}}</a> <span class="meta">retrieved {{.RetrievedAt.Format "2006-01-02"}}</span></li>
{{- end}}
</ul>
{{if .Errors}}
<h2>Collection Errors</h2>
<ul>
{{- range .Errors}}
<li>{{.Kind}}{{if .Source}} ({{.Source}}){{end}}: {{.Message}}</li>
{{- end}}
</ul>
{{end}}
</body>
</html>
`

var htmlTmpl = htmltemplate.Must(
	htmltemplate.New("report.html").Funcs(templateFuncs).Parse(htmlTemplate))

// RenderHTML emits a self-contained page; entity values pass through
// html/template's contextual escaping.
func RenderHTML(r *models.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, r); err != nil {
		return nil, fault.Wrap(fault.KindInternal, "render html report", err)
	}
	return buf.Bytes(), nil
}
