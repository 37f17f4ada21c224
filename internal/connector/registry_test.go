// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package connector

import (
	"context"
	"testing"

	"github.com/tomtom215/vestigium/internal/config"
	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/models"
)

// fakeConnector is a minimal in-memory connector for registry tests.
type fakeConnector struct {
	name    string
	kinds   []models.QueryKind
	results []models.RawResult
	err     error
}

func (f *fakeConnector) Name() string                       { return f.name }
func (f *fakeConnector) Type() models.SourceType            { return models.SourceTypeSearchEngine }
func (f *fakeConnector) SupportedKinds() []models.QueryKind { return f.kinds }
func (f *fakeConnector) RateLimitPerHour() int              { return 100 }
func (f *fakeConnector) BaseConfidence() float64            { return 0.5 }

func (f *fakeConnector) Search(ctx context.Context, q *models.Query) ([]models.RawResult, error) {
	return f.results, f.err
}

func (f *fakeConnector) ValidateCredentials(ctx context.Context) error { return nil }

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	c := &fakeConnector{name: "alpha"}

	if err := r.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := r.Get("alpha")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name() != "alpha" {
		t.Errorf("expected alpha, got %s", got.Name())
	}
}

func TestRegistryDuplicateRejected(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeConnector{name: "alpha"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register(&fakeConnector{name: "alpha"}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	if fault.KindOf(err) != fault.KindNotFound {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestRegistryAllSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		if err := r.Register(&fakeConnector{name: name}); err != nil {
			t.Fatalf("Register %s: %v", name, err)
		}
	}

	all := r.All()
	want := []string{"alpha", "bravo", "charlie"}
	for i, c := range all {
		if c.Name() != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], c.Name())
		}
	}
}

func TestRegistryForKind(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&fakeConnector{name: "domains", kinds: []models.QueryKind{models.QueryKindDomain}})
	_ = r.Register(&fakeConnector{name: "people", kinds: []models.QueryKind{models.QueryKindPersonName, models.QueryKindUsername}})

	matches := r.ForKind(models.QueryKindUsername)
	if len(matches) != 1 || matches[0].Name() != "people" {
		t.Errorf("expected [people], got %d matches", len(matches))
	}

	if got := r.ForKind(models.QueryKindPhone); len(got) != 0 {
		t.Errorf("expected no phone connectors, got %d", len(got))
	}
}

func TestBuildRegistryHonorsEnabledFlags(t *testing.T) {
	cfg := config.ConnectorsConfig{
		Whois:   config.ConnectorConfig{Enabled: true},
		CertLog: config.ConnectorConfig{Enabled: true},
		// Everything else disabled.
	}

	r, err := BuildRegistry(cfg)
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 connectors, got %d", r.Len())
	}
	if _, err := r.Get("whois"); err != nil {
		t.Errorf("expected whois registered: %v", err)
	}
	if _, err := r.Get("webindex"); err == nil {
		t.Error("expected webindex absent")
	}
}

func TestBuildRegistryWrapsEveryConnectorInBreaker(t *testing.T) {
	cfg := config.ConnectorsConfig{
		Whois:        config.ConnectorConfig{Enabled: true},
		CertLog:      config.ConnectorConfig{Enabled: true},
		WebIndex:     config.ConnectorConfig{Enabled: true},
		CodeHost:     config.ConnectorConfig{Enabled: true},
		BreachDir:    config.ConnectorConfig{Enabled: true},
		Wayback:      config.ConnectorConfig{Enabled: true},
		CorpRegistry: config.ConnectorConfig{Enabled: true},
		SocialDir:    config.ConnectorConfig{Enabled: true},
	}

	r, err := BuildRegistry(cfg)
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}

	for _, c := range r.All() {
		bc, ok := c.(*BreakerConnector)
		if !ok {
			t.Errorf("connector %s is not breaker-wrapped", c.Name())
			continue
		}
		if bc.State() != "closed" {
			t.Errorf("connector %s: fresh breaker state = %s, want closed", c.Name(), bc.State())
		}
	}
}
