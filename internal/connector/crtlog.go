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

const crtLogDefaultBase = "https://crt.sh"

// CrtLog queries certificate transparency logs. Issued certificates reveal
// subdomains and historical hostnames for a domain, which the parser turns
// into domain candidates.
type CrtLog struct {
	cfg    config.ConnectorConfig
	client *httpClient
}

// NewCrtLog creates the certificate transparency adapter.
func NewCrtLog(cfg config.ConnectorConfig) *CrtLog {
	return &CrtLog{cfg: cfg, client: newHTTPClient(cfg.Timeout)}
}

func (c *CrtLog) Name() string            { return "crtlog" }
func (c *CrtLog) Type() models.SourceType { return models.SourceTypeCertTransparency }
func (c *CrtLog) BaseConfidence() float64 { return 0.95 }
func (c *CrtLog) RateLimitPerHour() int   { return budget(c.cfg.RateLimitPerHour, 60) }

func (c *CrtLog) SupportedKinds() []models.QueryKind {
	return []models.QueryKind{models.QueryKindDomain}
}

// Search lists certificates covering the domain and its subdomains.
func (c *CrtLog) Search(ctx context.Context, q *models.Query) ([]models.RawResult, error) {
	params := url.Values{}
	params.Set("q", "%."+q.Value)
	params.Set("output", "json")
	if limit, ok := q.Parameters["limit"]; ok {
		params.Set("limit", limit)
	}
	endpoint := base(c.cfg.BaseURL, crtLogDefaultBase) + "/?" + params.Encode()

	fr, err := c.client.get(ctx, endpoint, nil)
	if err != nil {
		return wrapSearchErr(err, c.Name(), q)
	}

	return []models.RawResult{
		newRawResult(q, c.Name(), endpoint, fr, map[string]string{
			"record_type": "ct_entries",
			"domain":      q.Value,
		}),
	}, nil
}

// ValidateCredentials is a no-op: CT logs are public.
func (c *CrtLog) ValidateCredentials(ctx context.Context) error {
	return nil
}
