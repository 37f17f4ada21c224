// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/vestigium/internal/audit"
	"github.com/tomtom215/vestigium/internal/config"
	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/models"
)

// SessionCookie carries the JWT for browser clients that cannot set an
// Authorization header on websocket upgrades.
const SessionCookie = "vestigium_session"

// adminRoles are granted to the configured admin account.
var adminRoles = []string{"admin"}

// Service dispatches authentication by the configured mode and exposes
// the login flow for jwt mode.
type Service struct {
	mode  string
	jwt   *JWTManager
	basic *BasicManager
	oidc  *OIDCIntrospector

	audit *audit.Logger
	log   zerolog.Logger
	sec   *logging.SecurityLogger
}

// NewService wires the managers the configured mode needs. The audit
// logger may be nil.
func NewService(cfg config.SecurityConfig, auditLog *audit.Logger) (*Service, error) {
	s := &Service{
		mode:  cfg.AuthMode,
		audit: auditLog,
		log:   logging.WithComponent("auth"),
		sec:   logging.NewSecurityLogger(),
	}

	switch cfg.AuthMode {
	case ModeNone, "":
		s.mode = ModeNone

	case ModeBasic:
		basic, err := NewBasicManager(cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			return nil, err
		}
		s.basic = basic

	case ModeJWT:
		jwtMgr, err := NewJWTManager(cfg.JWTSecret, cfg.SessionTimeout)
		if err != nil {
			return nil, err
		}
		// Login checks credentials against the admin account.
		basic, err := NewBasicManager(cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			return nil, err
		}
		s.jwt = jwtMgr
		s.basic = basic

	case ModeOIDC:
		oidcMgr, err := NewOIDCIntrospector(cfg.OIDCIssuerURL, cfg.OIDCClientID, cfg.OIDCClientSecret)
		if err != nil {
			return nil, err
		}
		s.oidc = oidcMgr

	default:
		return nil, fault.Newf(fault.KindValidation, "unknown auth mode %q", cfg.AuthMode)
	}

	s.log.Info().Str("mode", s.mode).Msg("authentication configured")
	return s, nil
}

// Mode returns the active auth mode.
func (s *Service) Mode() string {
	return s.mode
}

// Login verifies admin credentials and issues a session token. Only
// meaningful in jwt mode.
func (s *Service) Login(username, password string) (string, *Subject, error) {
	if s.mode != ModeJWT {
		return "", nil, fault.Newf(fault.KindValidation, "login is not available in %s mode", s.mode)
	}
	if err := s.basic.Verify(username, password); err != nil {
		return "", nil, err
	}

	token, err := s.jwt.Issue(username, adminRoles)
	if err != nil {
		return "", nil, err
	}
	return token, &Subject{
		ID:         username,
		Name:       username,
		Roles:      adminRoles,
		AuthMethod: ModeJWT,
	}, nil
}

// SessionTimeout returns the token lifetime for cookie expiry; zero
// outside jwt mode.
func (s *Service) SessionTimeout() time.Duration {
	if s.jwt == nil {
		return 0
	}
	return s.jwt.Timeout()
}

// Authenticate resolves the request to a subject per the active mode.
func (s *Service) Authenticate(r *http.Request) (*Subject, error) {
	switch s.mode {
	case ModeNone:
		return Anonymous(), nil

	case ModeBasic:
		username, err := s.basic.VerifyHeader(r.Header.Get("Authorization"))
		if err != nil {
			return nil, err
		}
		return &Subject{ID: username, Name: username, Roles: adminRoles, AuthMethod: ModeBasic}, nil

	case ModeJWT:
		token := extractToken(r)
		if token == "" {
			return nil, fault.New(fault.KindUnauthorized, "missing bearer token")
		}
		claims, err := s.jwt.Validate(token)
		if err != nil {
			return nil, err
		}
		return &Subject{ID: claims.Username, Name: claims.Username, Roles: claims.Roles, AuthMethod: ModeJWT}, nil

	case ModeOIDC:
		token := extractToken(r)
		if token == "" {
			return nil, fault.New(fault.KindUnauthorized, "missing bearer token")
		}
		return s.oidc.Introspect(r.Context(), token)

	default:
		return nil, fault.Newf(fault.KindInternal, "unhandled auth mode %q", s.mode)
	}
}

// Middleware enforces authentication and attaches the subject to the
// request context. Failures answer 401 with the standard envelope.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := s.Authenticate(r)
		if err != nil {
			s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("authentication failed")
			s.sec.LogEvent(&logging.SecurityEvent{
				Event:     "auth_failed",
				Provider:  s.mode,
				IPAddress: r.RemoteAddr,
				UserAgent: r.UserAgent(),
				Success:   false,
				Error:     err.Error(),
			})
			if s.audit != nil {
				s.audit.LogAuthFailure(r.Context(), "unknown", audit.SourceFromRequest(r), string(fault.KindOf(err)))
			}
			writeUnauthorized(w, s.mode, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), subject)))
	})
}

// extractToken pulls the bearer token from the Authorization header,
// falling back to the session cookie.
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// writeUnauthorized answers 401. Upstream IdP failures surface as 502
// so clients can tell "bad token" from "provider down".
func writeUnauthorized(w http.ResponseWriter, mode string, err error) {
	status := http.StatusUnauthorized
	kind := fault.KindOf(err)
	if kind == fault.KindUpstreamUnavailable {
		status = http.StatusBadGateway
	}
	if mode == ModeBasic {
		w.Header().Set("WWW-Authenticate", `Basic realm="vestigium"`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    "AUTHENTICATION_ERROR",
			Message: "authentication required",
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}
