// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package auth

import (
	"context"
	"sync"

	"github.com/zitadel/oidc/v3/pkg/client/rs"
	"github.com/zitadel/oidc/v3/pkg/oidc"

	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/logging"
)

// defaultOIDCRoles apply when the token carries no roles claim.
var defaultOIDCRoles = []string{"viewer"}

// OIDCIntrospector validates bearer tokens by introspecting them
// against the identity provider (RFC 7662) using client credentials.
//
// Discovery runs lazily on first use so the service can start while the
// IdP is still coming up; the resource server is cached once built.
type OIDCIntrospector struct {
	issuer       string
	clientID     string
	clientSecret string

	mu sync.Mutex
	rs rs.ResourceServer
}

// NewOIDCIntrospector validates the configuration; it does not contact
// the issuer.
func NewOIDCIntrospector(issuer, clientID, clientSecret string) (*OIDCIntrospector, error) {
	if issuer == "" || clientID == "" || clientSecret == "" {
		return nil, fault.New(fault.KindValidation, "oidc mode requires issuer url, client id, and client secret")
	}
	return &OIDCIntrospector{
		issuer:       issuer,
		clientID:     clientID,
		clientSecret: clientSecret,
	}, nil
}

func (o *OIDCIntrospector) resourceServer(ctx context.Context) (rs.ResourceServer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.rs != nil {
		return o.rs, nil
	}

	server, err := rs.NewResourceServerClientCredentials(ctx, o.issuer, o.clientID, o.clientSecret)
	if err != nil {
		return nil, fault.Wrap(fault.KindUpstreamUnavailable, "oidc discovery", err)
	}
	o.rs = server
	logger := logging.WithComponent("auth")
	logger.Info().Str("issuer", o.issuer).Msg("oidc provider discovered")
	return server, nil
}

// Introspect validates the token and maps the response to a subject.
func (o *OIDCIntrospector) Introspect(ctx context.Context, token string) (*Subject, error) {
	server, err := o.resourceServer(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := rs.Introspect[*oidc.IntrospectionResponse](ctx, server, token)
	if err != nil {
		return nil, fault.Wrap(fault.KindUpstreamUnavailable, "token introspection", err)
	}
	if !resp.Active {
		return nil, fault.New(fault.KindUnauthorized, "token is not active")
	}

	return &Subject{
		ID:         resp.Subject,
		Name:       subjectName(resp),
		Roles:      rolesFromClaims(resp.Claims),
		AuthMethod: ModeOIDC,
	}, nil
}

func subjectName(resp *oidc.IntrospectionResponse) string {
	for _, name := range []string{resp.PreferredUsername, resp.Username, resp.Name, resp.Subject} {
		if name != "" {
			return name
		}
	}
	return "unknown"
}

// rolesFromClaims reads the "roles" claim, tolerating both string
// arrays and space-joined strings. Providers disagree on the shape.
func rolesFromClaims(claims map[string]any) []string {
	raw, ok := claims["roles"]
	if !ok {
		return defaultOIDCRoles
	}

	switch v := raw.(type) {
	case []any:
		var roles []string
		for _, r := range v {
			if s, ok := r.(string); ok && s != "" {
				roles = append(roles, s)
			}
		}
		if len(roles) > 0 {
			return roles
		}
	case []string:
		if len(v) > 0 {
			return v
		}
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return defaultOIDCRoles
}
