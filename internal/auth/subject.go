// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package auth authenticates API requests.
//
// Four modes, selected by security.auth_mode: "jwt" validates HS256
// bearer tokens minted by the login endpoint, "basic" checks HTTP Basic
// credentials against the configured admin account, "oidc" introspects
// bearer tokens against an external identity provider, and "none"
// admits everyone as an anonymous admin. Whatever the mode, a
// successful request carries a Subject in its context for the
// authorization layer and the audit trail.
package auth

import (
	"context"
)

// Auth modes.
const (
	ModeNone  = "none"
	ModeBasic = "basic"
	ModeJWT   = "jwt"
	ModeOIDC  = "oidc"
)

// Subject is the authenticated principal attached to a request.
type Subject struct {
	// ID uniquely identifies the principal: the username for jwt and
	// basic, the token subject for oidc.
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`

	// AuthMethod records which mode admitted the subject.
	AuthMethod string `json:"auth_method"`
}

// HasRole reports whether the subject holds the role directly. Role
// inheritance is the authorization layer's business.
func (s *Subject) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Anonymous is the subject used when authentication is disabled.
func Anonymous() *Subject {
	return &Subject{
		ID:         "anonymous",
		Name:       "anonymous",
		Roles:      []string{"admin"},
		AuthMethod: ModeNone,
	}
}

type contextKey struct{}

// ContextWithSubject attaches the subject to the request context.
func ContextWithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// SubjectFromContext returns the subject set by the middleware, or nil.
func SubjectFromContext(ctx context.Context) *Subject {
	s, _ := ctx.Value(contextKey{}).(*Subject)
	return s
}
