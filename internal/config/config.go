// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package config defines the application configuration tree and its layered
// loading (defaults, YAML file, environment variables) via Koanf v2.
package config

import "time"

// Config is the root configuration for the Vestigium binary.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Pipeline   PipelineConfig   `koanf:"pipeline"`
	Cache      CacheConfig      `koanf:"cache"`
	RateLimit  RateLimitConfig  `koanf:"rate_limit"`
	Connectors ConnectorsConfig `koanf:"connectors"`
	Store      StoreConfig      `koanf:"store"`
	Events     EventsConfig     `koanf:"events"`
	Audit      AuditConfig      `koanf:"audit"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// Environment selects production hardening checks: development | production.
	Environment string `koanf:"environment"`
}

// PipelineConfig bounds the investigation pipeline.
type PipelineConfig struct {
	// MaxConcurrentQueries is the per-investigation fetch fan-out cap.
	MaxConcurrentQueries int `koanf:"max_concurrent_queries"`

	// MaxActiveInvestigations caps simultaneously running investigations.
	MaxActiveInvestigations int `koanf:"max_active_investigations"`

	// QueryTimeout is the default per-query deadline. Connectors may
	// declare a shorter one.
	QueryTimeout time.Duration `koanf:"query_timeout"`

	// MaxDuration is the default per-investigation wall-clock bound.
	// Seeds may override within MinDuration..MaxDurationLimit.
	MaxDuration      time.Duration `koanf:"max_duration"`
	MinDuration      time.Duration `koanf:"min_duration"`
	MaxDurationLimit time.Duration `koanf:"max_duration_limit"`

	// PlanCap bounds the total number of queries a single investigation
	// may plan across all expansion rounds.
	PlanCap int `koanf:"plan_cap"`

	// Retry policy for transient connector failures.
	RetryMaxAttempts  int           `koanf:"retry_max_attempts"`
	BackoffBase       time.Duration `koanf:"backoff_base"`
	BackoffFactor     float64       `koanf:"backoff_factor"`
	BackoffCap        time.Duration `koanf:"backoff_cap"`
	BackoffJitterFrac float64       `koanf:"backoff_jitter_frac"`

	// Resolution thresholds (0-100), overridable per seed.
	EntityConfidenceThreshold float64 `koanf:"entity_confidence_threshold"`
	SourceConfidenceThreshold float64 `koanf:"source_confidence_threshold"`

	// ProgressBufferSize is the bounded progress channel capacity.
	ProgressBufferSize int `koanf:"progress_buffer_size"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	// TTL is the default result lifetime. Connectors may override.
	TTL time.Duration `koanf:"ttl"`

	// MaxEntries is the mandatory LRU size cap.
	MaxEntries int `koanf:"max_entries"`

	// MirrorEnabled turns on the BadgerDB mirror. Mirror failures degrade
	// to memory-only; they never surface to callers.
	MirrorEnabled bool   `koanf:"mirror_enabled"`
	MirrorPath    string `koanf:"mirror_path"`

	// JanitorInterval is how often expired entries are swept.
	JanitorInterval time.Duration `koanf:"janitor_interval"`
}

// RateLimitConfig holds per-source rate limiting settings.
type RateLimitConfig struct {
	// DefaultPerHour applies to connectors that do not declare a budget.
	DefaultPerHour int `koanf:"default_per_hour"`

	// Backoff window parameters applied after a 429 from a source.
	BackoffBase       time.Duration `koanf:"backoff_base"`
	BackoffFactor     float64       `koanf:"backoff_factor"`
	BackoffCap        time.Duration `koanf:"backoff_cap"`
	BackoffJitterFrac float64       `koanf:"backoff_jitter_frac"`

	// IdleEviction removes buckets unused for this long.
	IdleEviction time.Duration `koanf:"idle_eviction"`
}

// ConnectorConfig configures one source connector adapter.
type ConnectorConfig struct {
	Enabled bool   `koanf:"enabled"`
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`

	// RateLimitPerHour overrides the adapter's declared budget when > 0.
	RateLimitPerHour int `koanf:"rate_limit_per_hour"`

	// CacheTTL overrides the default result cache TTL when > 0.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// Timeout overrides the pipeline query timeout when > 0.
	Timeout time.Duration `koanf:"timeout"`
}

// ConnectorsConfig enumerates the built-in adapters. Each can be disabled or
// pointed at a different base URL (useful for tests and self-hosted mirrors).
type ConnectorsConfig struct {
	Whois        ConnectorConfig `koanf:"whois"`
	CertLog      ConnectorConfig `koanf:"certlog"`
	WebIndex     ConnectorConfig `koanf:"webindex"`
	CodeHost     ConnectorConfig `koanf:"codehost"`
	BreachDir    ConnectorConfig `koanf:"breachdir"`
	Wayback      ConnectorConfig `koanf:"wayback"`
	CorpRegistry ConnectorConfig `koanf:"corpregistry"`
	SocialDir    ConnectorConfig `koanf:"socialdir"`
}

// StoreConfig selects the investigation store backend.
type StoreConfig struct {
	// Backend: memory | badger.
	Backend string `koanf:"backend"`

	// Path is the BadgerDB directory for the badger backend.
	Path string `koanf:"path"`

	// GCInterval is how often retention GC runs.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// EventsConfig configures the internal event bus.
type EventsConfig struct {
	// Transport: channel (in-process Watermill gochannel) | nats.
	Transport string `koanf:"transport"`

	// NATS settings, used when Transport is "nats".
	NATSURL        string        `koanf:"nats_url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	RetryCount     int           `koanf:"retry_count"`
	RetryInterval  time.Duration `koanf:"retry_interval"`
	PoisonTopic    string        `koanf:"poison_topic"`
	CloseTimeout   time.Duration `koanf:"close_timeout"`
}

// AuditConfig configures the DuckDB-backed audit trail.
type AuditConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`

	// FlushInterval batches audit writes.
	FlushInterval time.Duration `koanf:"flush_interval"`

	// RetentionDays prunes audit events older than this.
	RetentionDays int `koanf:"retention_days"`
}

// SecurityConfig holds auth and request hardening settings.
type SecurityConfig struct {
	// AuthMode: jwt | basic | oidc | none.
	AuthMode string `koanf:"auth_mode"`

	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`

	AdminUsername string `koanf:"admin_username"`
	AdminPassword string `koanf:"admin_password"`

	// OIDC introspection settings, used when AuthMode is "oidc".
	OIDCIssuerURL    string `koanf:"oidc_issuer_url"`
	OIDCClientID     string `koanf:"oidc_client_id"`
	OIDCClientSecret string `koanf:"oidc_client_secret"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	CORSOrigins []string `koanf:"cors_origins"`

	// BlockedPatterns extends the built-in blocked query pattern set.
	// Values are regular expressions matched against planned query strings.
	BlockedPatterns []string `koanf:"blocked_patterns"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
