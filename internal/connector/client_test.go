// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package connector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/models"
)

func TestHTTPClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); !strings.HasPrefix(got, "vestigium/") {
			t.Errorf("unexpected user agent %q", got)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newHTTPClient(5 * time.Second)
	fr, err := c.get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fr.mediaType != models.MediaTypeJSON {
		t.Errorf("expected json media type, got %s", fr.mediaType)
	}
	if string(fr.body) != `{"ok":true}` {
		t.Errorf("unexpected body %q", fr.body)
	}
	if fr.truncated {
		t.Error("expected body not truncated")
	}
}

func TestHTTPClientStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		kind   fault.Kind
	}{
		{http.StatusTooManyRequests, fault.KindRateLimited},
		{http.StatusUnauthorized, fault.KindCredentialsInvalid},
		{http.StatusForbidden, fault.KindCredentialsInvalid},
		{http.StatusNotFound, fault.KindNotFound},
		{http.StatusInternalServerError, fault.KindUpstreamUnavailable},
		{http.StatusBadGateway, fault.KindUpstreamUnavailable},
		{http.StatusBadRequest, fault.KindMalformedResponse},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		c := newHTTPClient(5 * time.Second)
		_, err := c.get(context.Background(), srv.URL, nil)
		srv.Close()

		if err == nil {
			t.Errorf("status %d: expected error", tt.status)
			continue
		}
		if got := fault.KindOf(err); got != tt.kind {
			t.Errorf("status %d: expected kind %s, got %s", tt.status, tt.kind, got)
		}
	}
}

func TestHTTPClientTruncatesOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	c := newHTTPClient(5 * time.Second)
	c.maxBody = 1024

	fr, err := c.get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !fr.truncated {
		t.Error("expected truncation flag")
	}
	if len(fr.body) != 1024 {
		t.Errorf("expected body capped at 1024, got %d", len(fr.body))
	}
}

func TestHTTPClientHonorsContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := newHTTPClient(5 * time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.get(ctx, srv.URL, nil)
	if fault.KindOf(err) != fault.KindTimeout {
		t.Errorf("expected timeout kind, got %v", err)
	}
}

func TestNormalizeMediaType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"text/html; charset=utf-8", models.MediaTypeHTML},
		{"application/xhtml+xml", models.MediaTypeHTML},
		{"application/json", models.MediaTypeJSON},
		{"application/rdap+json", models.MediaTypeJSON},
		{"application/xml", models.MediaTypeXML},
		{"text/xml", models.MediaTypeXML},
		{"application/atom+xml", models.MediaTypeXML},
		{"text/plain", models.MediaTypeText},
		{"text/csv", models.MediaTypeText},
		{"", models.MediaTypeText},
		{"application/pdf", "application/pdf"},
	}

	for _, tt := range tests {
		if got := normalizeMediaType(tt.in); got != tt.want {
			t.Errorf("normalizeMediaType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewRawResultHashesContent(t *testing.T) {
	q := &models.Query{ID: "q-1"}
	fr := &fetchResult{body: []byte("payload"), mediaType: models.MediaTypeText}

	r := newRawResult(q, "whois", "https://example.test", fr, nil)

	if r.ContentHash != models.HashContent([]byte("payload")) {
		t.Error("content hash must match content")
	}
	if r.QueryID != "q-1" || r.Source != "whois" {
		t.Error("result must carry query and source identity")
	}
	if r.ID == "" {
		t.Error("result must get an ID")
	}
}

func TestNewRawResultFlagsOversized(t *testing.T) {
	q := &models.Query{ID: "q-1"}
	fr := &fetchResult{body: []byte("partial"), mediaType: models.MediaTypeText, truncated: true}

	r := newRawResult(q, "whois", "https://example.test", fr, nil)

	if !r.Truncated {
		t.Error("expected truncated flag")
	}
	found := false
	for _, f := range r.SecurityFlags {
		if f == models.FlagOversized {
			found = true
		}
	}
	if !found {
		t.Error("expected oversized security flag")
	}
}
