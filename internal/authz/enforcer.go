// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package authz decides what an authenticated subject may do.
//
// Authorization is role-based through a Casbin enforcer with an
// embedded model and policy. Three roles form a strict hierarchy:
// viewer reads investigations and reports, analyst additionally
// submits and cancels them, admin additionally deletes them and reads
// the audit trail. Decisions are cached briefly; the policy never
// changes at runtime, only the subject's roles do.
package authz

import (
	_ "embed"
	"strings"
	"sync"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tomtom215/vestigium/internal/auth"
	"github.com/tomtom215/vestigium/internal/fault"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// decisionTTL bounds how long a cached allow/deny is trusted.
const decisionTTL = 5 * time.Minute

// Enforcer answers allow/deny for subject, resource, and action.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer

	mu    sync.RWMutex
	cache map[string]decision
}

type decision struct {
	allowed   bool
	expiresAt time.Time
}

// NewEnforcer loads the embedded model and policy.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "load authorization model", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "create enforcer", err)
	}
	if err := loadPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}

	return &Enforcer{
		enforcer: enforcer,
		cache:    make(map[string]decision),
	}, nil
}

// loadPolicy parses the embedded CSV into the enforcer.
func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		var err error
		switch {
		case parts[0] == "p" && len(parts) == 4:
			_, err = enforcer.AddPolicy(parts[1], parts[2], parts[3])
		case parts[0] == "g" && len(parts) == 3:
			_, err = enforcer.AddGroupingPolicy(parts[1], parts[2])
		default:
			return fault.Newf(fault.KindInternal, "malformed policy line %q", line)
		}
		if err != nil {
			return fault.Wrap(fault.KindInternal, "load policy", err)
		}
	}
	return nil
}

// Allowed reports whether any of the subject's roles permits the
// action on the resource.
func (e *Enforcer) Allowed(subject *auth.Subject, resource, action string) (bool, error) {
	if subject == nil {
		return false, nil
	}

	for _, role := range subject.Roles {
		key := role + ":" + resource + ":" + action

		e.mu.RLock()
		d, ok := e.cache[key]
		e.mu.RUnlock()
		if ok && time.Now().Before(d.expiresAt) {
			if d.allowed {
				return true, nil
			}
			continue
		}

		allowed, err := e.enforcer.Enforce(role, resource, action)
		if err != nil {
			return false, fault.Wrap(fault.KindInternal, "enforce", err)
		}

		e.mu.Lock()
		e.cache[key] = decision{allowed: allowed, expiresAt: time.Now().Add(decisionTTL)}
		e.mu.Unlock()

		if allowed {
			return true, nil
		}
	}
	return false, nil
}

// Require returns an unauthorized fault when the subject may not
// perform the action.
func (e *Enforcer) Require(subject *auth.Subject, resource, action string) error {
	allowed, err := e.Allowed(subject, resource, action)
	if err != nil {
		return err
	}
	if !allowed {
		name := "anonymous"
		if subject != nil {
			name = subject.Name
		}
		return fault.Newf(fault.KindUnauthorized, "%s may not %s %s", name, action, resource)
	}
	return nil
}
