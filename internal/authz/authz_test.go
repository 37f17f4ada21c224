// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/vestigium/internal/auth"
	"github.com/tomtom215/vestigium/internal/fault"
)

func subjectWith(roles ...string) *auth.Subject {
	return &auth.Subject{ID: "u-1", Name: "u-1", Roles: roles, AuthMethod: auth.ModeJWT}
}

func TestRoleHierarchy(t *testing.T) {
	e, err := NewEnforcer()
	if err != nil {
		t.Fatalf("new enforcer: %v", err)
	}

	tests := []struct {
		name     string
		roles    []string
		resource string
		action   string
		want     bool
	}{
		{"viewer reads list", []string{"viewer"}, "/api/v1/investigations", http.MethodGet, true},
		{"viewer reads report", []string{"viewer"}, "/api/v1/investigations/abc/report", http.MethodGet, true},
		{"viewer reads connectors", []string{"viewer"}, "/api/v1/connectors", http.MethodGet, true},
		{"viewer cannot submit", []string{"viewer"}, "/api/v1/investigations", http.MethodPost, false},
		{"viewer cannot delete", []string{"viewer"}, "/api/v1/investigations/abc", http.MethodDelete, false},
		{"viewer cannot read audit", []string{"viewer"}, "/api/v1/audit/events", http.MethodGet, false},

		{"analyst submits", []string{"analyst"}, "/api/v1/investigations", http.MethodPost, true},
		{"analyst cancels", []string{"analyst"}, "/api/v1/investigations/abc/cancel", http.MethodPost, true},
		{"analyst inherits read", []string{"analyst"}, "/api/v1/investigations/abc", http.MethodGet, true},
		{"analyst cannot delete", []string{"analyst"}, "/api/v1/investigations/abc", http.MethodDelete, false},
		{"analyst cannot read audit", []string{"analyst"}, "/api/v1/audit/events", http.MethodGet, false},

		{"admin deletes", []string{"admin"}, "/api/v1/investigations/abc", http.MethodDelete, true},
		{"admin reads audit", []string{"admin"}, "/api/v1/audit/events", http.MethodGet, true},
		{"admin inherits submit", []string{"admin"}, "/api/v1/investigations", http.MethodPost, true},
		{"admin inherits read", []string{"admin"}, "/api/v1/investigations", http.MethodGet, true},

		{"unknown role denied", []string{"ghost"}, "/api/v1/investigations", http.MethodGet, false},
		{"no roles denied", nil, "/api/v1/investigations", http.MethodGet, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Allowed(subjectWith(tt.roles...), tt.resource, tt.action)
			if err != nil {
				t.Fatalf("allowed: %v", err)
			}
			if got != tt.want {
				t.Errorf("allowed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNilSubjectDenied(t *testing.T) {
	e, _ := NewEnforcer()

	allowed, err := e.Allowed(nil, "/api/v1/investigations", http.MethodGet)
	if err != nil {
		t.Fatalf("allowed: %v", err)
	}
	if allowed {
		t.Error("nil subject allowed")
	}
}

func TestRequireReturnsUnauthorized(t *testing.T) {
	e, _ := NewEnforcer()

	err := e.Require(subjectWith("viewer"), "/api/v1/investigations/abc", http.MethodDelete)
	if err == nil {
		t.Fatal("expected denial")
	}
	if fault.KindOf(err) != fault.KindUnauthorized {
		t.Errorf("kind = %v, want unauthorized", fault.KindOf(err))
	}

	if err := e.Require(subjectWith("admin"), "/api/v1/investigations/abc", http.MethodDelete); err != nil {
		t.Errorf("admin denied: %v", err)
	}
}

func TestCachedDecisionsStayCorrect(t *testing.T) {
	e, _ := NewEnforcer()
	subject := subjectWith("viewer")

	// Same check twice: second hits the cache, answer must not flip.
	for i := 0; i < 2; i++ {
		allowed, err := e.Allowed(subject, "/api/v1/investigations", http.MethodGet)
		if err != nil || !allowed {
			t.Fatalf("pass %d: allowed=%v err=%v", i, allowed, err)
		}
		denied, err := e.Allowed(subject, "/api/v1/audit/events", http.MethodGet)
		if err != nil || denied {
			t.Fatalf("pass %d: denied check allowed=%v err=%v", i, denied, err)
		}
	}
}

func TestMiddlewareDeniesWithEnvelope(t *testing.T) {
	e, _ := NewEnforcer()
	mw := Middleware(e, nil)

	reached := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	// Viewer tries to delete.
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/investigations/abc", nil)
	req = req.WithContext(auth.ContextWithSubject(req.Context(), subjectWith("viewer")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if reached {
		t.Error("handler reached despite denial")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}

	// Admin passes through.
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/investigations/abc", nil)
	req = req.WithContext(auth.ContextWithSubject(req.Context(), subjectWith("admin")))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !reached {
		t.Error("admin request blocked")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
