// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package connector

import (
	"context"
	"net/url"

	"github.com/tomtom215/vestigium/internal/config"
	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/models"
)

// WebIndex queries a self-hosted metasearch instance (SearXNG JSON API).
// It is the broadest and least trusted source: snippets and result URLs
// only, parsed heuristically downstream.
type WebIndex struct {
	cfg    config.ConnectorConfig
	client *httpClient
}

// NewWebIndex creates the web index adapter. A base URL is required; there
// is no public default endpoint.
func NewWebIndex(cfg config.ConnectorConfig) *WebIndex {
	return &WebIndex{cfg: cfg, client: newHTTPClient(cfg.Timeout)}
}

func (w *WebIndex) Name() string            { return "webindex" }
func (w *WebIndex) Type() models.SourceType { return models.SourceTypeSearchEngine }
func (w *WebIndex) BaseConfidence() float64 { return 0.50 }
func (w *WebIndex) RateLimitPerHour() int   { return budget(w.cfg.RateLimitPerHour, 200) }

func (w *WebIndex) SupportedKinds() []models.QueryKind {
	return []models.QueryKind{
		models.QueryKindPersonName,
		models.QueryKindUsername,
		models.QueryKindEmail,
		models.QueryKindCompany,
		models.QueryKindNameLocation,
		models.QueryKindNameEmployer,
	}
}

// Search runs one metasearch query and returns the JSON result page.
func (w *WebIndex) Search(ctx context.Context, q *models.Query) ([]models.RawResult, error) {
	if w.cfg.BaseURL == "" {
		return nil, fault.New(fault.KindCredentialsInvalid, "webindex base_url not configured").
			WithSource(w.Name()).WithQuery(q.ID)
	}

	params := url.Values{}
	params.Set("q", q.Value)
	params.Set("format", "json")
	if page, ok := q.Parameters["page"]; ok {
		params.Set("pageno", page)
	}
	if site, ok := q.Parameters["site"]; ok {
		params.Set("q", "site:"+site+" "+q.Value)
	}
	endpoint := base(w.cfg.BaseURL, "") + "/search?" + params.Encode()

	fr, err := w.client.get(ctx, endpoint, nil)
	if err != nil {
		return wrapSearchErr(err, w.Name(), q)
	}

	return []models.RawResult{
		newRawResult(q, w.Name(), endpoint, fr, map[string]string{
			"record_type": "search_results",
			"query_kind":  string(q.Kind),
		}),
	}, nil
}

// ValidateCredentials verifies the configured instance is reachable.
func (w *WebIndex) ValidateCredentials(ctx context.Context) error {
	if w.cfg.BaseURL == "" {
		return fault.New(fault.KindCredentialsInvalid, "webindex base_url not configured").
			WithSource(w.Name())
	}
	_, err := w.client.get(ctx, base(w.cfg.BaseURL, "")+"/healthz", nil)
	if err != nil && fault.KindOf(err) == fault.KindNotFound {
		// Older instances have no health endpoint; reachable is enough.
		return nil
	}
	return err
}
