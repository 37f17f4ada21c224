// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package connector

import (
	"context"
	"net/url"

	"github.com/tomtom215/vestigium/internal/config"
	"github.com/tomtom215/vestigium/internal/models"
)

const corpRegistryDefaultBase = "https://api.opencorporates.com/v0.4"

// CorpRegistry queries an aggregated corporate registry: company records
// and officer listings. Officer entries link person names to organizations
// with registry-grade confidence.
type CorpRegistry struct {
	cfg    config.ConnectorConfig
	client *httpClient
}

// NewCorpRegistry creates the corporate registry adapter.
func NewCorpRegistry(cfg config.ConnectorConfig) *CorpRegistry {
	return &CorpRegistry{cfg: cfg, client: newHTTPClient(cfg.Timeout)}
}

func (c *CorpRegistry) Name() string            { return "corpregistry" }
func (c *CorpRegistry) Type() models.SourceType { return models.SourceTypeCorporateReg }
func (c *CorpRegistry) BaseConfidence() float64 { return 0.90 }
func (c *CorpRegistry) RateLimitPerHour() int   { return budget(c.cfg.RateLimitPerHour, 50) }

func (c *CorpRegistry) SupportedKinds() []models.QueryKind {
	return []models.QueryKind{
		models.QueryKindCompany,
		models.QueryKindPersonName,
	}
}

// Search searches companies for company queries and officers for person
// name queries.
func (c *CorpRegistry) Search(ctx context.Context, q *models.Query) ([]models.RawResult, error) {
	path := "/companies/search"
	recordType := "company_search"
	if q.Kind == models.QueryKindPersonName {
		path = "/officers/search"
		recordType = "officer_search"
	}

	params := url.Values{}
	params.Set("q", q.Value)
	params.Set("per_page", "20")
	if c.cfg.APIKey != "" {
		params.Set("api_token", c.cfg.APIKey)
	}
	if jurisdiction, ok := q.Parameters["jurisdiction"]; ok {
		params.Set("jurisdiction_code", jurisdiction)
	}
	endpoint := base(c.cfg.BaseURL, corpRegistryDefaultBase) + path + "?" + params.Encode()

	fr, err := c.client.get(ctx, endpoint, nil)
	if err != nil {
		return wrapSearchErr(err, c.Name(), q)
	}

	return []models.RawResult{
		newRawResult(q, c.Name(), endpoint, fr, map[string]string{
			"record_type": recordType,
			"query_kind":  string(q.Kind),
		}),
	}, nil
}

// ValidateCredentials checks the token. A missing token is valid at the
// public access tier.
func (c *CorpRegistry) ValidateCredentials(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return nil
	}
	endpoint := base(c.cfg.BaseURL, corpRegistryDefaultBase) +
		"/account_status?api_token=" + url.QueryEscape(c.cfg.APIKey)
	_, err := c.client.get(ctx, endpoint, nil)
	return err
}
