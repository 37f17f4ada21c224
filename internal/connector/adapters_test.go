// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package connector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/vestigium/internal/config"
	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/models"
)

func jsonServer(t *testing.T, wantPath string, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wantPath != "" && r.URL.Path != wantPath {
			t.Errorf("unexpected path %s, want %s", r.URL.Path, wantPath)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestWhoisSearch(t *testing.T) {
	srv := jsonServer(t, "/domain/example.com", `{"objectClassName":"domain","ldhName":"example.com"}`)
	defer srv.Close()

	w := NewWhois(config.ConnectorConfig{BaseURL: srv.URL})
	q := &models.Query{ID: "q-1", Kind: models.QueryKindDomain, Value: "example.com"}

	results, err := w.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	r := results[0]
	if r.Source != "whois" {
		t.Errorf("expected source whois, got %s", r.Source)
	}
	if r.MediaType != models.MediaTypeJSON {
		t.Errorf("expected json media type, got %s", r.MediaType)
	}
	if r.Metadata["record_type"] != "rdap_domain" {
		t.Errorf("expected rdap_domain hint, got %s", r.Metadata["record_type"])
	}
}

func TestCrtLogSearchQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name_value":"www.example.com"}]`))
	}))
	defer srv.Close()

	c := NewCrtLog(config.ConnectorConfig{BaseURL: srv.URL})
	q := &models.Query{ID: "q-1", Kind: models.QueryKindDomain, Value: "example.com"}

	if _, err := c.Search(context.Background(), q); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != "%.example.com" {
		t.Errorf("expected wildcard query, got %q", gotQuery)
	}
}

func TestWebIndexRequiresBaseURL(t *testing.T) {
	w := NewWebIndex(config.ConnectorConfig{})
	q := &models.Query{ID: "q-1", Kind: models.QueryKindPersonName, Value: "Jane Doe"}

	_, err := w.Search(context.Background(), q)
	if fault.KindOf(err) != fault.KindCredentialsInvalid {
		t.Errorf("expected credentials_invalid, got %v", err)
	}
}

func TestCodeHostEmailQualifier(t *testing.T) {
	var gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_count":0,"items":[]}`))
	}))
	defer srv.Close()

	c := NewCodeHost(config.ConnectorConfig{BaseURL: srv.URL, APIKey: "tok"})
	q := &models.Query{ID: "q-1", Kind: models.QueryKindEmail, Value: "jane@example.com"}

	if _, err := c.Search(context.Background(), q); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != "jane@example.com in:email" {
		t.Errorf("expected in:email qualifier, got %q", gotQuery)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}
}

func TestBreachDirNoKeyFailsFast(t *testing.T) {
	b := NewBreachDir(config.ConnectorConfig{})
	q := &models.Query{ID: "q-1", Kind: models.QueryKindEmail, Value: "jane@example.com"}

	_, err := b.Search(context.Background(), q)
	if fault.KindOf(err) != fault.KindCredentialsInvalid {
		t.Errorf("expected credentials_invalid, got %v", err)
	}
}

func TestBreachDirNotFoundMeansClean(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	b := NewBreachDir(config.ConnectorConfig{BaseURL: srv.URL, APIKey: "key"})
	q := &models.Query{ID: "q-1", Kind: models.QueryKindEmail, Value: "clean@example.com"}

	results, err := b.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("expected clean empty answer, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestWaybackSearchParameters(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{
			"url":       r.URL.Query().Get("url"),
			"matchType": r.URL.Query().Get("matchType"),
			"output":    r.URL.Query().Get("output"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[["timestamp","original"],["20200101000000","http://example.com/"]]`))
	}))
	defer srv.Close()

	a := NewWaybackArc(config.ConnectorConfig{BaseURL: srv.URL})
	q := &models.Query{ID: "q-1", Kind: models.QueryKindDomain, Value: "example.com"}

	if _, err := a.Search(context.Background(), q); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got["url"] != "example.com" || got["matchType"] != "domain" || got["output"] != "json" {
		t.Errorf("unexpected cdx parameters: %v", got)
	}
}

func TestCorpRegistryRoutesByKind(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":{}}`))
	}))
	defer srv.Close()

	c := NewCorpRegistry(config.ConnectorConfig{BaseURL: srv.URL})

	if _, err := c.Search(context.Background(), &models.Query{ID: "q-1", Kind: models.QueryKindCompany, Value: "Acme"}); err != nil {
		t.Fatalf("company Search: %v", err)
	}
	if gotPath != "/companies/search" {
		t.Errorf("company query hit %s", gotPath)
	}

	if _, err := c.Search(context.Background(), &models.Query{ID: "q-2", Kind: models.QueryKindPersonName, Value: "Jane Doe"}); err != nil {
		t.Fatalf("officer Search: %v", err)
	}
	if gotPath != "/officers/search" {
		t.Errorf("person query hit %s", gotPath)
	}
}

func TestSocialDirSearch(t *testing.T) {
	srv := jsonServer(t, "/api/lookup", `{"profiles":[{"platform":"forum","username":"jdoe"}]}`)
	defer srv.Close()

	s := NewSocialDir(config.ConnectorConfig{BaseURL: srv.URL})
	q := &models.Query{ID: "q-1", Kind: models.QueryKindUsername, Value: "jdoe"}

	results, err := s.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Metadata["record_type"] != "profile_lookup" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	failing := &fakeConnector{
		name: "flaky",
		err:  fault.New(fault.KindUpstreamUnavailable, "down"),
	}
	bc := WithBreaker(failing)
	q := &models.Query{ID: "q-1"}

	// Drive enough failures to trip: >= 10 requests at >= 60% failure.
	for i := 0; i < 12; i++ {
		_, _ = bc.Search(context.Background(), q)
	}

	if bc.State() != "open" {
		t.Fatalf("expected open breaker, got %s", bc.State())
	}

	_, err := bc.Search(context.Background(), q)
	if fault.KindOf(err) != fault.KindUpstreamUnavailable {
		t.Errorf("expected upstream_unavailable from open breaker, got %v", err)
	}
}

func TestBreakerIgnoresRateLimiting(t *testing.T) {
	limited := &fakeConnector{
		name: "budgeted",
		err:  fault.New(fault.KindRateLimited, "429"),
	}
	bc := WithBreaker(limited)
	q := &models.Query{ID: "q-1"}

	for i := 0; i < 20; i++ {
		_, _ = bc.Search(context.Background(), q)
	}

	if bc.State() != "closed" {
		t.Errorf("rate limiting must not trip the breaker, state %s", bc.State())
	}
}
