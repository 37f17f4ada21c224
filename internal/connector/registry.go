// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package connector

import (
	"sort"
	"sync"

	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/models"
)

// Registry holds the configured connectors keyed by name. It is built once
// at startup by the composition root and handed to the planner and
// scheduler; there is no package-level instance.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{connectors: make(map[string]Connector)}
}

// Register adds a connector. Registering the same name twice is an error;
// adapters are constructed exactly once at startup.
func (r *Registry) Register(c Connector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.connectors[name]; exists {
		return fault.Newf(fault.KindInternal, "connector %q already registered", name)
	}

	r.connectors[name] = c
	logging.Info().
		Str("connector", name).
		Str("type", string(c.Type())).
		Int("rate_limit_per_hour", c.RateLimitPerHour()).
		Msg("connector registered")
	return nil
}

// Get returns the connector for name.
func (r *Registry) Get(name string) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.connectors[name]
	if !exists {
		return nil, fault.Newf(fault.KindNotFound, "unknown connector %q", name)
	}
	return c, nil
}

// All returns every registered connector, sorted by name for deterministic
// iteration.
func (r *Registry) All() []Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Connector, 0, len(r.connectors))
	for _, c := range r.connectors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// ForKind returns the connectors that support the given query kind, sorted
// by name. The planner uses this for routing.
func (r *Registry) ForKind(kind models.QueryKind) []Connector {
	var out []Connector
	for _, c := range r.All() {
		for _, k := range c.SupportedKinds() {
			if k == kind {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Len returns the number of registered connectors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connectors)
}
