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

const whoisDefaultBase = "https://rdap.org"

// Whois queries RDAP registration data for domains: registrar, registrant
// contacts, name servers, creation and expiry dates.
type Whois struct {
	cfg    config.ConnectorConfig
	client *httpClient
}

// NewWhois creates the whois adapter.
func NewWhois(cfg config.ConnectorConfig) *Whois {
	return &Whois{cfg: cfg, client: newHTTPClient(cfg.Timeout)}
}

func (w *Whois) Name() string            { return "whois" }
func (w *Whois) Type() models.SourceType { return models.SourceTypeDomainRegistry }
func (w *Whois) BaseConfidence() float64 { return 0.90 }
func (w *Whois) RateLimitPerHour() int   { return budget(w.cfg.RateLimitPerHour, 120) }

func (w *Whois) SupportedKinds() []models.QueryKind {
	return []models.QueryKind{models.QueryKindDomain}
}

// Search looks up one domain's RDAP record.
func (w *Whois) Search(ctx context.Context, q *models.Query) ([]models.RawResult, error) {
	endpoint := base(w.cfg.BaseURL, whoisDefaultBase) + "/domain/" + url.PathEscape(q.Value)

	fr, err := w.client.get(ctx, endpoint, nil)
	if err != nil {
		return wrapSearchErr(err, w.Name(), q)
	}

	return []models.RawResult{
		newRawResult(q, w.Name(), endpoint, fr, map[string]string{
			"record_type": "rdap_domain",
			"domain":      q.Value,
		}),
	}, nil
}

// ValidateCredentials is a no-op: RDAP is keyless.
func (w *Whois) ValidateCredentials(ctx context.Context) error {
	return nil
}
