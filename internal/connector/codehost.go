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

const codeHostDefaultBase = "https://api.github.com"

// CodeHost queries a code hosting platform's user search. Commit emails and
// profile pages tie usernames to names, employers, and locations.
type CodeHost struct {
	cfg    config.ConnectorConfig
	client *httpClient
}

// NewCodeHost creates the code host adapter.
func NewCodeHost(cfg config.ConnectorConfig) *CodeHost {
	return &CodeHost{cfg: cfg, client: newHTTPClient(cfg.Timeout)}
}

func (c *CodeHost) Name() string            { return "codehost" }
func (c *CodeHost) Type() models.SourceType { return models.SourceTypeCodeRepository }
func (c *CodeHost) BaseConfidence() float64 { return 0.85 }
func (c *CodeHost) RateLimitPerHour() int   { return budget(c.cfg.RateLimitPerHour, 60) }

func (c *CodeHost) SupportedKinds() []models.QueryKind {
	return []models.QueryKind{
		models.QueryKindUsername,
		models.QueryKindEmail,
	}
}

func (c *CodeHost) headers() map[string]string {
	h := map[string]string{"Accept": "application/vnd.github+json"}
	if c.cfg.APIKey != "" {
		h["Authorization"] = "Bearer " + c.cfg.APIKey
	}
	return h
}

// Search runs a user search. Email queries use the "in:email" qualifier so
// only profiles that publish the address match.
func (c *CodeHost) Search(ctx context.Context, q *models.Query) ([]models.RawResult, error) {
	term := q.Value
	if q.Kind == models.QueryKindEmail {
		term = q.Value + " in:email"
	}

	params := url.Values{}
	params.Set("q", term)
	params.Set("per_page", "20")
	endpoint := base(c.cfg.BaseURL, codeHostDefaultBase) + "/search/users?" + params.Encode()

	fr, err := c.client.get(ctx, endpoint, c.headers())
	if err != nil {
		return wrapSearchErr(err, c.Name(), q)
	}

	return []models.RawResult{
		newRawResult(q, c.Name(), endpoint, fr, map[string]string{
			"record_type": "user_search",
			"query_kind":  string(q.Kind),
		}),
	}, nil
}

// ValidateCredentials checks the token against the authenticated-user
// endpoint. A missing token is valid: the API allows keyless access at a
// lower rate.
func (c *CodeHost) ValidateCredentials(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return nil
	}
	_, err := c.client.get(ctx, base(c.cfg.BaseURL, codeHostDefaultBase)+"/user", c.headers())
	return err
}
