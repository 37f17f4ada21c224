// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vestigium/config.yaml",
	"/etc/vestigium/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        9407,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Pipeline: PipelineConfig{
			MaxConcurrentQueries:    16,
			MaxActiveInvestigations: 8,
			QueryTimeout:            30 * time.Second,
			MaxDuration:             120 * time.Minute,
			MinDuration:             1 * time.Minute,
			MaxDurationLimit:        360 * time.Minute,
			PlanCap:                 200,
			RetryMaxAttempts:        3,
			BackoffBase:             500 * time.Millisecond,
			BackoffFactor:           2.0,
			BackoffCap:              30 * time.Second,
			BackoffJitterFrac:       0.2,
			EntityConfidenceThreshold: 70,
			SourceConfidenceThreshold: 60,
			ProgressBufferSize:        64,
		},
		Cache: CacheConfig{
			TTL:             time.Hour,
			MaxEntries:      10000,
			MirrorEnabled:   false,
			MirrorPath:      "/data/cache",
			JanitorInterval: 5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			DefaultPerHour:    120,
			BackoffBase:       1 * time.Second,
			BackoffFactor:     2.0,
			BackoffCap:        300 * time.Second,
			BackoffJitterFrac: 0.2,
			IdleEviction:      2 * time.Hour,
		},
		Connectors: ConnectorsConfig{
			// Adapters default to enabled with their published endpoints;
			// API-keyed sources stay disabled until a key is configured.
			Whois:        ConnectorConfig{Enabled: true},
			CertLog:      ConnectorConfig{Enabled: true, BaseURL: "https://crt.sh"},
			WebIndex:     ConnectorConfig{Enabled: false},
			CodeHost:     ConnectorConfig{Enabled: true, BaseURL: "https://api.github.com"},
			BreachDir:    ConnectorConfig{Enabled: false, BaseURL: "https://haveibeenpwned.com/api/v3"},
			Wayback:      ConnectorConfig{Enabled: true, BaseURL: "https://archive.org/wayback"},
			CorpRegistry: ConnectorConfig{Enabled: false, BaseURL: "https://api.opencorporates.com/v0.4"},
			SocialDir:    ConnectorConfig{Enabled: true},
		},
		Store: StoreConfig{
			Backend:    "badger",
			Path:       "/data/investigations",
			GCInterval: time.Hour,
		},
		Events: EventsConfig{
			Transport:      "channel",
			NATSURL:        "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats/jetstream",
			RetryCount:     3,
			RetryInterval:  100 * time.Millisecond,
			PoisonTopic:    "investigation.poison",
			CloseTimeout:   30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:       true,
			Path:          "/data/vestigium-audit.duckdb",
			FlushInterval: 5 * time.Second,
			RetentionDays: 90,
		},
		Security: SecurityConfig{
			AuthMode:        "jwt",
			JWTSecret:       "",
			SessionTimeout:  24 * time.Hour,
			AdminUsername:   "",
			AdminPassword:   "",
			RateLimitReqs:   100,
			RateLimitWindow: 1 * time.Minute,
			CORSOrigins:     []string{"*"},
			BlockedPatterns: nil,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence: ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.blocked_patterns",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - CACHE_TTL -> cache.ttl
//   - WHOIS_ENABLED -> connectors.whois.enabled
//   - MAX_CONCURRENT_QUERIES -> pipeline.max_concurrent_queries
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// Pipeline mappings
		"max_concurrent_queries":      "pipeline.max_concurrent_queries",
		"max_active_investigations":   "pipeline.max_active_investigations",
		"query_timeout":               "pipeline.query_timeout",
		"max_investigation_duration":  "pipeline.max_duration",
		"plan_cap":                    "pipeline.plan_cap",
		"retry_max_attempts":          "pipeline.retry_max_attempts",
		"backoff_base":                "pipeline.backoff_base",
		"backoff_factor":              "pipeline.backoff_factor",
		"backoff_cap":                 "pipeline.backoff_cap",
		"backoff_jitter_frac":         "pipeline.backoff_jitter_frac",
		"entity_confidence_threshold": "pipeline.entity_confidence_threshold",
		"source_confidence_threshold": "pipeline.source_confidence_threshold",

		// Cache mappings
		"cache_ttl":              "cache.ttl",
		"cache_max_entries":      "cache.max_entries",
		"cache_mirror_enabled":   "cache.mirror_enabled",
		"cache_mirror_path":      "cache.mirror_path",
		"cache_janitor_interval": "cache.janitor_interval",

		// Rate limit mappings
		"rate_limit_default_per_hour": "rate_limit.default_per_hour",
		"rate_limit_backoff_base":     "rate_limit.backoff_base",
		"rate_limit_backoff_cap":      "rate_limit.backoff_cap",

		// Connector mappings
		"whois_enabled":           "connectors.whois.enabled",
		"whois_base_url":          "connectors.whois.base_url",
		"certlog_enabled":         "connectors.certlog.enabled",
		"certlog_base_url":        "connectors.certlog.base_url",
		"webindex_enabled":        "connectors.webindex.enabled",
		"webindex_base_url":       "connectors.webindex.base_url",
		"webindex_api_key":        "connectors.webindex.api_key",
		"codehost_enabled":        "connectors.codehost.enabled",
		"codehost_base_url":       "connectors.codehost.base_url",
		"codehost_api_key":        "connectors.codehost.api_key",
		"breachdir_enabled":       "connectors.breachdir.enabled",
		"breachdir_base_url":      "connectors.breachdir.base_url",
		"breachdir_api_key":       "connectors.breachdir.api_key",
		"wayback_enabled":         "connectors.wayback.enabled",
		"wayback_base_url":        "connectors.wayback.base_url",
		"corpregistry_enabled":    "connectors.corpregistry.enabled",
		"corpregistry_base_url":   "connectors.corpregistry.base_url",
		"corpregistry_api_key":    "connectors.corpregistry.api_key",
		"socialdir_enabled":       "connectors.socialdir.enabled",
		"socialdir_base_url":      "connectors.socialdir.base_url",

		// Store mappings
		"store_backend":     "store.backend",
		"store_path":        "store.path",
		"store_gc_interval": "store.gc_interval",

		// Events mappings
		"events_transport":     "events.transport",
		"nats_url":             "events.nats_url",
		"nats_embedded":        "events.embedded_server",
		"nats_store_dir":       "events.store_dir",
		"events_retry_count":   "events.retry_count",
		"events_poison_topic":  "events.poison_topic",
		"events_close_timeout": "events.close_timeout",

		// Audit mappings
		"audit_enabled":        "audit.enabled",
		"audit_path":           "audit.path",
		"audit_flush_interval": "audit.flush_interval",
		"audit_retention_days": "audit.retention_days",

		// Security mappings
		"auth_mode":           "security.auth_mode",
		"jwt_secret":          "security.jwt_secret",
		"session_timeout":     "security.session_timeout",
		"admin_username":      "security.admin_username",
		"admin_password":      "security.admin_password",
		"oidc_issuer_url":     "security.oidc_issuer_url",
		"oidc_client_id":      "security.oidc_client_id",
		"oidc_client_secret":  "security.oidc_client_secret",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",
		"blocked_patterns":    "security.blocked_patterns",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}
