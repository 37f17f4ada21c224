// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package auth

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/vestigium/internal/config"
	"github.com/tomtom215/vestigium/internal/fault"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func jwtConfig() config.SecurityConfig {
	return config.SecurityConfig{
		AuthMode:       ModeJWT,
		JWTSecret:      testSecret,
		SessionTimeout: time.Hour,
		AdminUsername:  "admin",
		AdminPassword:  "correct horse battery",
	}
}

func TestJWTIssueAndValidate(t *testing.T) {
	m, err := NewJWTManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, err := m.Issue("alice", []string{"analyst"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("username = %q", claims.Username)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "analyst" {
		t.Errorf("roles = %v", claims.Roles)
	}
}

func TestJWTRejectsTampering(t *testing.T) {
	m, _ := NewJWTManager(testSecret, time.Hour)
	other, _ := NewJWTManager(strings.Repeat("x", 32), time.Hour)

	token, _ := other.Issue("mallory", []string{"admin"})
	if _, err := m.Validate(token); err == nil {
		t.Fatal("token signed with a different secret validated")
	}

	token, _ = m.Issue("alice", nil)
	if _, err := m.Validate(token + "x"); err == nil {
		t.Fatal("mangled token validated")
	}
}

func TestJWTExpiry(t *testing.T) {
	m, _ := NewJWTManager(testSecret, time.Millisecond)
	token, _ := m.Issue("alice", nil)
	time.Sleep(10 * time.Millisecond)

	_, err := m.Validate(token)
	if err == nil {
		t.Fatal("expired token validated")
	}
	if fault.KindOf(err) != fault.KindUnauthorized {
		t.Errorf("kind = %v, want unauthorized", fault.KindOf(err))
	}
}

func TestJWTRejectsShortSecret(t *testing.T) {
	if _, err := NewJWTManager("short", time.Hour); err == nil {
		t.Fatal("short secret accepted")
	}
}

func TestBasicManagerVerify(t *testing.T) {
	m, err := NewBasicManager("admin", "correct horse battery")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{"valid", "admin", "correct horse battery", false},
		{"wrong password", "admin", "hunter2hunter2", true},
		{"wrong username", "root", "correct horse battery", true},
		{"both wrong", "root", "toor1234", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Verify(tt.username, tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBasicManagerRejectsWeakConfig(t *testing.T) {
	if _, err := NewBasicManager("", "longenough"); err == nil {
		t.Error("empty username accepted")
	}
	if _, err := NewBasicManager("admin", "short"); err == nil {
		t.Error("short password accepted")
	}
}

func TestBasicVerifyHeader(t *testing.T) {
	m, _ := NewBasicManager("admin", "correct horse battery")

	good := "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:correct horse battery"))
	username, err := m.VerifyHeader(good)
	if err != nil {
		t.Fatalf("valid header rejected: %v", err)
	}
	if username != "admin" {
		t.Errorf("username = %q", username)
	}

	for _, header := range []string{
		"",
		"Bearer abc",
		"Basic !!!notbase64",
		"Basic " + base64.StdEncoding.EncodeToString([]byte("no-separator")),
	} {
		if _, err := m.VerifyHeader(header); err == nil {
			t.Errorf("header %q accepted", header)
		}
	}
}

func TestServiceLoginAndMiddleware(t *testing.T) {
	svc, err := NewService(jwtConfig(), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	token, subject, err := svc.Login("admin", "correct horse battery")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !subject.HasRole("admin") {
		t.Errorf("login subject roles = %v", subject.Roles)
	}

	var got *Subject
	handler := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SubjectFromContext(r.Context())
	}))

	// Bearer header.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/investigations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got == nil || got.ID != "admin" || got.AuthMethod != ModeJWT {
		t.Errorf("subject = %+v", got)
	}

	// Session cookie fallback.
	got = nil
	req = httptest.NewRequest(http.MethodGet, "/api/v1/investigations", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || got == nil {
		t.Fatalf("cookie auth failed: status = %d", rec.Code)
	}
}

func TestServiceMiddlewareRejectsMissingToken(t *testing.T) {
	svc, _ := NewService(jwtConfig(), nil)

	handler := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without credentials")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/investigations", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}

func TestServiceLoginWrongPassword(t *testing.T) {
	svc, _ := NewService(jwtConfig(), nil)

	if _, _, err := svc.Login("admin", "not the password"); err == nil {
		t.Fatal("wrong password accepted")
	}
}

func TestServiceNoneModeAdmitsAnonymousAdmin(t *testing.T) {
	svc, err := NewService(config.SecurityConfig{AuthMode: ModeNone}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	var got *Subject
	handler := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SubjectFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || !got.HasRole("admin") || got.AuthMethod != ModeNone {
		t.Errorf("subject = %+v", got)
	}
}

func TestServiceBasicMode(t *testing.T) {
	svc, err := NewService(config.SecurityConfig{
		AuthMode:      ModeBasic,
		AdminUsername: "admin",
		AdminPassword: "correct horse battery",
	}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("admin", "correct horse battery")
	subject, err := svc.Authenticate(req)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if subject.ID != "admin" || subject.AuthMethod != ModeBasic {
		t.Errorf("subject = %+v", subject)
	}

	// Challenge header on failure.
	handler := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate challenge")
	}
}

func TestServiceRejectsUnknownMode(t *testing.T) {
	_, err := NewService(config.SecurityConfig{AuthMode: "ldap"}, nil)
	if err == nil {
		t.Fatal("unknown mode accepted")
	}
	if fault.KindOf(err) != fault.KindValidation {
		t.Errorf("kind = %v, want validation", fault.KindOf(err))
	}
}
