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

// BreachDir queries a breach notification directory (HIBP-compatible API)
// for breaches containing an identifier. Breach records feed the security
// risk sub-score directly.
type BreachDir struct {
	cfg    config.ConnectorConfig
	client *httpClient
}

// NewBreachDir creates the breach directory adapter. The API requires a key.
func NewBreachDir(cfg config.ConnectorConfig) *BreachDir {
	return &BreachDir{cfg: cfg, client: newHTTPClient(cfg.Timeout)}
}

func (b *BreachDir) Name() string            { return "breachdir" }
func (b *BreachDir) Type() models.SourceType { return models.SourceTypeBreachDatabase }
func (b *BreachDir) BaseConfidence() float64 { return 0.80 }
func (b *BreachDir) RateLimitPerHour() int   { return budget(b.cfg.RateLimitPerHour, 40) }

func (b *BreachDir) SupportedKinds() []models.QueryKind {
	return []models.QueryKind{
		models.QueryKindEmail,
		models.QueryKindDomain,
	}
}

func (b *BreachDir) headers() map[string]string {
	return map[string]string{"hibp-api-key": b.cfg.APIKey}
}

// Search lists breaches for an email account, or breaches scoped to a
// domain for domain queries.
func (b *BreachDir) Search(ctx context.Context, q *models.Query) ([]models.RawResult, error) {
	if b.cfg.APIKey == "" {
		return nil, fault.New(fault.KindCredentialsInvalid, "breachdir api_key not configured").
			WithSource(b.Name()).WithQuery(q.ID)
	}

	var endpoint string
	switch q.Kind {
	case models.QueryKindEmail:
		endpoint = base(b.cfg.BaseURL, "https://haveibeenpwned.com/api/v3") +
			"/breachedaccount/" + url.PathEscape(q.Value) + "?truncateResponse=false"
	case models.QueryKindDomain:
		endpoint = base(b.cfg.BaseURL, "https://haveibeenpwned.com/api/v3") +
			"/breaches?domain=" + url.QueryEscape(q.Value)
	default:
		return nil, fault.Newf(fault.KindInternal, "unsupported query kind %s", q.Kind).
			WithSource(b.Name()).WithQuery(q.ID)
	}

	fr, err := b.client.get(ctx, endpoint, b.headers())
	if err != nil {
		// 404 means no breaches, which is a clean empty answer.
		if fault.KindOf(err) == fault.KindNotFound {
			return nil, nil
		}
		return wrapSearchErr(err, b.Name(), q)
	}

	return []models.RawResult{
		newRawResult(q, b.Name(), endpoint, fr, map[string]string{
			"record_type": "breach_list",
			"query_kind":  string(q.Kind),
		}),
	}, nil
}

// ValidateCredentials exercises the key against the subscription endpoint.
func (b *BreachDir) ValidateCredentials(ctx context.Context) error {
	if b.cfg.APIKey == "" {
		return fault.New(fault.KindCredentialsInvalid, "breachdir api_key not configured").
			WithSource(b.Name())
	}
	_, err := b.client.get(ctx,
		base(b.cfg.BaseURL, "https://haveibeenpwned.com/api/v3")+"/subscription/status",
		b.headers())
	return err
}
