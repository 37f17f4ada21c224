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

// SocialDir queries a self-hosted profile directory aggregator (a
// Sherlock-style service exposing per-platform handle existence checks and
// public profile metadata over JSON).
type SocialDir struct {
	cfg    config.ConnectorConfig
	client *httpClient
}

// NewSocialDir creates the social directory adapter. A base URL is
// required; the aggregator is self-hosted.
func NewSocialDir(cfg config.ConnectorConfig) *SocialDir {
	return &SocialDir{cfg: cfg, client: newHTTPClient(cfg.Timeout)}
}

func (s *SocialDir) Name() string            { return "socialdir" }
func (s *SocialDir) Type() models.SourceType { return models.SourceTypeSocialDirectory }
func (s *SocialDir) BaseConfidence() float64 { return 0.60 }
func (s *SocialDir) RateLimitPerHour() int   { return budget(s.cfg.RateLimitPerHour, 150) }

func (s *SocialDir) SupportedKinds() []models.QueryKind {
	return []models.QueryKind{
		models.QueryKindUsername,
		models.QueryKindPersonName,
		models.QueryKindEmail,
	}
}

// Search looks a handle or name up across the directory's platforms.
func (s *SocialDir) Search(ctx context.Context, q *models.Query) ([]models.RawResult, error) {
	if s.cfg.BaseURL == "" {
		return nil, fault.New(fault.KindCredentialsInvalid, "socialdir base_url not configured").
			WithSource(s.Name()).WithQuery(q.ID)
	}

	params := url.Values{}
	params.Set("q", q.Value)
	params.Set("kind", string(q.Kind))
	if platform, ok := q.Parameters["platform"]; ok {
		params.Set("platform", platform)
	}
	endpoint := base(s.cfg.BaseURL, "") + "/api/lookup?" + params.Encode()

	headers := map[string]string{}
	if s.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + s.cfg.APIKey
	}

	fr, err := s.client.get(ctx, endpoint, headers)
	if err != nil {
		return wrapSearchErr(err, s.Name(), q)
	}

	return []models.RawResult{
		newRawResult(q, s.Name(), endpoint, fr, map[string]string{
			"record_type": "profile_lookup",
			"query_kind":  string(q.Kind),
		}),
	}, nil
}

// ValidateCredentials verifies the directory is reachable and the token,
// if any, is accepted.
func (s *SocialDir) ValidateCredentials(ctx context.Context) error {
	if s.cfg.BaseURL == "" {
		return fault.New(fault.KindCredentialsInvalid, "socialdir base_url not configured").
			WithSource(s.Name())
	}
	headers := map[string]string{}
	if s.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + s.cfg.APIKey
	}
	_, err := s.client.get(ctx, base(s.cfg.BaseURL, "")+"/api/status", headers)
	return err
}
