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

const waybackDefaultBase = "https://web.archive.org"

// WaybackArc queries the web archive's CDX index. Capture timestamps give
// the timeline first-seen/last-seen anchors for a domain.
type WaybackArc struct {
	cfg    config.ConnectorConfig
	client *httpClient
}

// NewWaybackArc creates the archive adapter.
func NewWaybackArc(cfg config.ConnectorConfig) *WaybackArc {
	return &WaybackArc{cfg: cfg, client: newHTTPClient(cfg.Timeout)}
}

func (a *WaybackArc) Name() string            { return "waybackarc" }
func (a *WaybackArc) Type() models.SourceType { return models.SourceTypeArchive }
func (a *WaybackArc) BaseConfidence() float64 { return 0.70 }
func (a *WaybackArc) RateLimitPerHour() int   { return budget(a.cfg.RateLimitPerHour, 100) }

func (a *WaybackArc) SupportedKinds() []models.QueryKind {
	return []models.QueryKind{models.QueryKindDomain}
}

// Search lists archived captures for the domain, newest first.
func (a *WaybackArc) Search(ctx context.Context, q *models.Query) ([]models.RawResult, error) {
	params := url.Values{}
	params.Set("url", q.Value)
	params.Set("matchType", "domain")
	params.Set("output", "json")
	params.Set("limit", "-50")
	params.Set("fl", "timestamp,original,mimetype,statuscode")
	endpoint := base(a.cfg.BaseURL, waybackDefaultBase) + "/cdx/search/cdx?" + params.Encode()

	fr, err := a.client.get(ctx, endpoint, nil)
	if err != nil {
		return wrapSearchErr(err, a.Name(), q)
	}

	return []models.RawResult{
		newRawResult(q, a.Name(), endpoint, fr, map[string]string{
			"record_type": "cdx_captures",
			"domain":      q.Value,
		}),
	}, nil
}

// ValidateCredentials is a no-op: the CDX API is public.
func (a *WaybackArc) ValidateCredentials(ctx context.Context) error {
	return nil
}
