// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package authz

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vestigium/internal/audit"
	"github.com/tomtom215/vestigium/internal/auth"
	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/models"
)

// Middleware enforces the policy against the request path and method.
// It expects the auth middleware to have run first; a request without a
// subject is denied. The audit logger may be nil.
func Middleware(enforcer *Enforcer, auditLog *audit.Logger) func(http.Handler) http.Handler {
	log := logging.WithComponent("authz")
	sec := logging.NewSecurityLogger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := auth.SubjectFromContext(r.Context())

			allowed, err := enforcer.Allowed(subject, r.URL.Path, r.Method)
			if err != nil {
				log.Error().Err(err).Msg("authorization check failed")
				writeDenied(w, http.StatusInternalServerError, fault.Code(fault.KindInternal), "authorization check failed")
				return
			}
			if !allowed {
				name := "anonymous"
				if subject != nil {
					name = subject.Name
				}
				log.Warn().
					Str("subject", name).
					Str("resource", r.URL.Path).
					Str("action", r.Method).
					Msg("access denied")
				sec.LogAccessDenied(name, r.URL.Path, r.Method, r.RemoteAddr)
				if auditLog != nil {
					auditLog.LogAuthzDenied(r.Context(), actorFor(subject), audit.SourceFromRequest(r), r.URL.Path, r.Method)
				}
				writeDenied(w, http.StatusForbidden, fault.Code(fault.KindUnauthorized), "insufficient role for this operation")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func actorFor(subject *auth.Subject) audit.Actor {
	if subject == nil {
		return audit.Actor{ID: "anonymous", Name: "anonymous"}
	}
	return audit.Actor{
		ID:         subject.ID,
		Name:       subject.Name,
		Roles:      subject.Roles,
		AuthMethod: subject.AuthMethod,
	}
}

func writeDenied(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Status:   "error",
		Error:    &models.APIError{Code: code, Message: message},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}
