// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package connector

import (
	"context"
	"time"

	"github.com/tomtom215/vestigium/internal/config"
	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/models"
)

// BuildRegistry constructs the registry from configuration: every enabled
// adapter, each wrapped in its circuit breaker.
func BuildRegistry(cfg config.ConnectorsConfig) (*Registry, error) {
	registry := NewRegistry()

	adapters := []struct {
		cfg  config.ConnectorConfig
		make func(config.ConnectorConfig) Connector
	}{
		{cfg.Whois, func(c config.ConnectorConfig) Connector { return NewWhois(c) }},
		{cfg.CertLog, func(c config.ConnectorConfig) Connector { return NewCrtLog(c) }},
		{cfg.WebIndex, func(c config.ConnectorConfig) Connector { return NewWebIndex(c) }},
		{cfg.CodeHost, func(c config.ConnectorConfig) Connector { return NewCodeHost(c) }},
		{cfg.BreachDir, func(c config.ConnectorConfig) Connector { return NewBreachDir(c) }},
		{cfg.Wayback, func(c config.ConnectorConfig) Connector { return NewWaybackArc(c) }},
		{cfg.CorpRegistry, func(c config.ConnectorConfig) Connector { return NewCorpRegistry(c) }},
		{cfg.SocialDir, func(c config.ConnectorConfig) Connector { return NewSocialDir(c) }},
	}

	for _, a := range adapters {
		if !a.cfg.Enabled {
			continue
		}
		if err := registry.Register(WithBreaker(a.make(a.cfg))); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// Status describes one connector for the status endpoint.
type Status struct {
	Name             string            `json:"name"`
	Type             models.SourceType `json:"type"`
	SupportedKinds   []models.QueryKind `json:"supported_kinds"`
	RateLimitPerHour int               `json:"rate_limit_per_hour"`
	BaseConfidence   float64           `json:"base_confidence"`
	BreakerState     string            `json:"breaker_state"`
	CredentialsOK    bool              `json:"credentials_ok"`
}

// Statuses reports every registered connector's health. Credential checks
// run with a short deadline so a dead upstream cannot stall the endpoint.
func (r *Registry) Statuses(ctx context.Context) []Status {
	connectors := r.All()
	statuses := make([]Status, 0, len(connectors))

	for _, c := range connectors {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		credErr := c.ValidateCredentials(checkCtx)
		cancel()
		if credErr != nil {
			logging.Debug().Str("connector", c.Name()).Err(credErr).Msg("credential check failed")
		}

		state := "closed"
		if bc, ok := c.(*BreakerConnector); ok {
			state = bc.State()
		}

		statuses = append(statuses, Status{
			Name:             c.Name(),
			Type:             c.Type(),
			SupportedKinds:   c.SupportedKinds(),
			RateLimitPerHour: c.RateLimitPerHour(),
			BaseConfidence:   c.BaseConfidence(),
			BreakerState:     state,
			CredentialsOK:    credErr == nil,
		})
	}

	return statuses
}
