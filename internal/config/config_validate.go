// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package config

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Validation errors.
var (
	ErrInvalidPort        = errors.New("server port must be between 1 and 65535")
	ErrCacheCapRequired   = errors.New("cache max_entries must be positive; the size cap is mandatory")
	ErrInvalidDuration    = errors.New("pipeline max_duration outside allowed range")
	ErrInvalidAuthMode    = errors.New("auth_mode must be one of: jwt, basic, oidc, none")
	ErrJWTSecretRequired  = errors.New("jwt_secret is required when auth_mode is jwt in production")
	ErrAdminCredsRequired = errors.New("admin credentials are required when auth_mode is basic")
	ErrInvalidTransport   = errors.New("events transport must be one of: channel, nats")
	ErrInvalidStore       = errors.New("store backend must be one of: memory, badger")
	ErrInvalidPattern     = errors.New("blocked pattern is not a valid regular expression")
)

// Validate checks the configuration for consistency. It is called after
// loading, before any component is constructed, so a bad configuration
// fails the process at startup rather than mid-investigation.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: got %d", ErrInvalidPort, c.Server.Port)
	}

	if err := c.validatePipeline(); err != nil {
		return err
	}

	if c.Cache.MaxEntries <= 0 {
		return ErrCacheCapRequired
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", c.Cache.TTL)
	}

	if c.RateLimit.DefaultPerHour <= 0 {
		return fmt.Errorf("rate_limit default_per_hour must be positive, got %d", c.RateLimit.DefaultPerHour)
	}

	switch c.Store.Backend {
	case "memory", "badger":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidStore, c.Store.Backend)
	}
	if c.Store.Backend == "badger" && c.Store.Path == "" {
		return errors.New("store path is required for the badger backend")
	}

	switch c.Events.Transport {
	case "channel", "nats":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidTransport, c.Events.Transport)
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return nil
}

func (c *Config) validatePipeline() error {
	p := &c.Pipeline

	if p.MaxConcurrentQueries <= 0 {
		return fmt.Errorf("pipeline max_concurrent_queries must be positive, got %d", p.MaxConcurrentQueries)
	}
	if p.MaxActiveInvestigations <= 0 {
		return fmt.Errorf("pipeline max_active_investigations must be positive, got %d", p.MaxActiveInvestigations)
	}
	if p.QueryTimeout <= 0 {
		return fmt.Errorf("pipeline query_timeout must be positive, got %s", p.QueryTimeout)
	}
	if p.MaxDuration < p.MinDuration || p.MaxDuration > p.MaxDurationLimit {
		return fmt.Errorf("%w: %s not in [%s, %s]", ErrInvalidDuration, p.MaxDuration, p.MinDuration, p.MaxDurationLimit)
	}
	if p.PlanCap <= 0 {
		return fmt.Errorf("pipeline plan_cap must be positive, got %d", p.PlanCap)
	}
	if p.RetryMaxAttempts < 1 {
		return fmt.Errorf("pipeline retry_max_attempts must be at least 1, got %d", p.RetryMaxAttempts)
	}
	if p.BackoffFactor < 1 {
		return fmt.Errorf("pipeline backoff_factor must be at least 1, got %g", p.BackoffFactor)
	}
	if p.BackoffJitterFrac < 0 || p.BackoffJitterFrac > 1 {
		return fmt.Errorf("pipeline backoff_jitter_frac must be in [0, 1], got %g", p.BackoffJitterFrac)
	}
	if p.EntityConfidenceThreshold < 0 || p.EntityConfidenceThreshold > 100 {
		return fmt.Errorf("pipeline entity_confidence_threshold must be in [0, 100], got %g", p.EntityConfidenceThreshold)
	}
	if p.SourceConfidenceThreshold < 0 || p.SourceConfidenceThreshold > 100 {
		return fmt.Errorf("pipeline source_confidence_threshold must be in [0, 100], got %g", p.SourceConfidenceThreshold)
	}
	if p.ProgressBufferSize <= 0 {
		return fmt.Errorf("pipeline progress_buffer_size must be positive, got %d", p.ProgressBufferSize)
	}

	return nil
}

func (c *Config) validateSecurity() error {
	s := &c.Security

	switch s.AuthMode {
	case "jwt":
		if c.IsProduction() && s.JWTSecret == "" {
			return ErrJWTSecretRequired
		}
		if s.JWTSecret != "" && len(s.JWTSecret) < 32 {
			return errors.New("jwt_secret must be at least 32 characters")
		}
	case "basic":
		if s.AdminUsername == "" || s.AdminPassword == "" {
			return ErrAdminCredsRequired
		}
	case "oidc":
		if s.OIDCIssuerURL == "" || s.OIDCClientID == "" {
			return errors.New("oidc_issuer_url and oidc_client_id are required when auth_mode is oidc")
		}
	case "none":
		// Explicitly unauthenticated. Permitted in development only.
		if c.IsProduction() {
			return errors.New("auth_mode none is not permitted in production")
		}
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidAuthMode, s.AuthMode)
	}

	if !s.RateLimitDisabled {
		if s.RateLimitReqs <= 0 {
			return fmt.Errorf("security rate_limit_reqs must be positive, got %d", s.RateLimitReqs)
		}
		if s.RateLimitWindow < time.Second {
			return fmt.Errorf("security rate_limit_window must be at least 1s, got %s", s.RateLimitWindow)
		}
	}

	// Configured blocked patterns must compile; a typo here would silently
	// disable a security control.
	for _, pattern := range s.BlockedPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
		}
	}

	return nil
}

// IsProduction reports whether the server runs with production hardening.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
