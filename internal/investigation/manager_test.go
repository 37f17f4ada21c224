// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package investigation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/vestigium/internal/cache"
	"github.com/tomtom215/vestigium/internal/config"
	"github.com/tomtom215/vestigium/internal/connector"
	"github.com/tomtom215/vestigium/internal/discovery"
	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/fetch"
	"github.com/tomtom215/vestigium/internal/models"
	"github.com/tomtom215/vestigium/internal/ratelimit"
	"github.com/tomtom215/vestigium/internal/store"
)

// stubConnector answers every supported kind with one JSON profile
// document the parser can extract structured candidates from.
type stubConnector struct {
	name   string
	kinds  []models.QueryKind
	search func(ctx context.Context, q *models.Query) ([]models.RawResult, error)
}

func (s *stubConnector) Name() string                                  { return s.name }
func (s *stubConnector) Type() models.SourceType                       { return models.SourceTypeSocialDirectory }
func (s *stubConnector) SupportedKinds() []models.QueryKind            { return s.kinds }
func (s *stubConnector) RateLimitPerHour() int                         { return 1000000 }
func (s *stubConnector) BaseConfidence() float64                       { return 0.8 }
func (s *stubConnector) ValidateCredentials(ctx context.Context) error { return nil }

func (s *stubConnector) Search(ctx context.Context, q *models.Query) ([]models.RawResult, error) {
	return s.search(ctx, q)
}

func profileResult(q *models.Query) []models.RawResult {
	r := models.RawResult{
		ID:          "r-" + q.ID,
		QueryID:     q.ID,
		Source:      q.Source,
		URL:         "https://profiles.example/alicedoe",
		MediaType:   models.MediaTypeJSON,
		RetrievedAt: time.Now().UTC(),
	}
	r.SetContent([]byte(`{"username": "alicedoe", "email": "alice.doe@example.com", "full_name": "Alice Doe"}`))
	return []models.RawResult{r}
}

func newTestManager(t *testing.T, cfg config.PipelineConfig, stubs ...*stubConnector) *Manager {
	t.Helper()

	registry := connector.NewRegistry()
	limiter := ratelimit.NewController(ratelimit.Config{
		DefaultPerHour: 1000000,
		BackoffBase:    time.Millisecond,
		BackoffFactor:  2,
		BackoffCap:     5 * time.Millisecond,
	})
	for _, s := range stubs {
		if err := registry.Register(s); err != nil {
			t.Fatalf("register %s: %v", s.name, err)
		}
		limiter.Register(s.name, s.RateLimitPerHour())
	}

	security, err := discovery.NewSecurityPass(nil)
	if err != nil {
		t.Fatalf("security pass: %v", err)
	}

	sched := fetch.New(registry, cache.New(cache.Config{MaxEntries: 100}, nil), limiter, fetch.Config{
		QueryTimeout: 5 * time.Second,
	})

	m := NewManager(cfg, store.NewMemoryStore(), registry, sched, security, nil)
	t.Cleanup(m.Close)
	return m
}

func testSeed() models.Seed {
	return models.Seed{
		FullName:  "Alice Doe",
		Usernames: []string{"adoe"},
		Constraints: models.SeedConstraints{
			MaxSearchDepth: 2,
		},
	}
}

func waitTerminal(t *testing.T, m *Manager, id string) *models.Investigation {
	t.Helper()

	deadline := time.After(10 * time.Second)
	for {
		inv, err := m.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if inv.Status.IsTerminal() {
			return inv
		}
		select {
		case <-deadline:
			t.Fatalf("investigation %s stuck in %s", id, inv.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSubmitRunsToCompletion(t *testing.T) {
	stub := &stubConnector{
		name:  "socialdir",
		kinds: []models.QueryKind{models.QueryKindPersonName, models.QueryKindUsername},
		search: func(_ context.Context, q *models.Query) ([]models.RawResult, error) {
			return profileResult(q), nil
		},
	}
	m := newTestManager(t, config.PipelineConfig{}, stub)

	inv, err := m.Submit(context.Background(), testSeed())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if inv.Status != models.StatusCreated || inv.Deadline.IsZero() {
		t.Errorf("accepted investigation = %+v", inv)
	}

	final := waitTerminal(t, m, inv.ID)
	if final.Status != models.StatusCompleted {
		t.Fatalf("status = %s, errors = %v", final.Status, final.Errors)
	}
	if final.Partial {
		t.Error("clean run must not be partial")
	}
	if final.Progress.QueriesExecuted == 0 || final.Progress.EntitiesResolved == 0 {
		t.Errorf("progress = %+v, want executed queries and resolved entities", final.Progress)
	}
	if final.Progress.Percent != 100 {
		t.Errorf("percent = %v, want 100", final.Progress.Percent)
	}
	if final.CompletedAt == nil || final.RetainUntil.IsZero() {
		t.Error("terminal record must carry completion and retention times")
	}

	rpt, err := m.Report(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if rpt.InvestigationID != inv.ID || rpt.ExecutiveSummary == "" {
		t.Errorf("report = %+v", rpt)
	}
	if len(rpt.Sources) == 0 {
		t.Error("report must reference its upstream sources")
	}
}

func TestSubmitValidatesSeed(t *testing.T) {
	m := newTestManager(t, config.PipelineConfig{})

	_, err := m.Submit(context.Background(), models.Seed{FullName: "x"})
	if fault.KindOf(err) != fault.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSubmitScreensSeed(t *testing.T) {
	m := newTestManager(t, config.PipelineConfig{})

	seed := testSeed()
	seed.Aliases = []string{"example.com/wp-login"}
	_, err := m.Submit(context.Background(), seed)
	if fault.KindOf(err) != fault.KindSecurityRejected {
		t.Errorf("expected security_rejected, got %v", err)
	}
}

func TestSubmitEnforcesActiveCap(t *testing.T) {
	gate := make(chan struct{})
	stub := &stubConnector{
		name:  "socialdir",
		kinds: []models.QueryKind{models.QueryKindPersonName, models.QueryKindUsername},
		search: func(ctx context.Context, q *models.Query) ([]models.RawResult, error) {
			select {
			case <-gate:
				return profileResult(q), nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
	m := newTestManager(t, config.PipelineConfig{MaxActiveInvestigations: 1}, stub)

	first, err := m.Submit(context.Background(), testSeed())
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	_, err = m.Submit(context.Background(), testSeed())
	if fault.KindOf(err) != fault.KindNotReady {
		t.Fatalf("expected not_ready at capacity, got %v", err)
	}

	close(gate)
	waitTerminal(t, m, first.ID)

	// Capacity frees up once the first investigation finishes.
	second, err := m.Submit(context.Background(), testSeed())
	if err != nil {
		t.Fatalf("submit after drain: %v", err)
	}
	waitTerminal(t, m, second.ID)
}

func TestCancelProducesCancelledState(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	stub := &stubConnector{
		name:  "socialdir",
		kinds: []models.QueryKind{models.QueryKindPersonName, models.QueryKindUsername},
		search: func(ctx context.Context, q *models.Query) ([]models.RawResult, error) {
			once.Do(func() { close(started) })
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	m := newTestManager(t, config.PipelineConfig{}, stub)

	inv, err := m.Submit(context.Background(), testSeed())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("fetch never started")
	}

	if err := m.Cancel(context.Background(), inv.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	final := waitTerminal(t, m, inv.ID)
	if final.Status != models.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", final.Status)
	}

	if err := m.Cancel(context.Background(), inv.ID); fault.KindOf(err) != fault.KindValidation {
		t.Errorf("cancelling a terminal investigation should be a validation error, got %v", err)
	}
}

func TestCancelUnknownInvestigation(t *testing.T) {
	m := newTestManager(t, config.PipelineConfig{})

	if err := m.Cancel(context.Background(), "missing"); fault.KindOf(err) != fault.KindNotFound {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestDeadlineCompletesPartial(t *testing.T) {
	stub := &stubConnector{
		name:  "socialdir",
		kinds: []models.QueryKind{models.QueryKindPersonName, models.QueryKindUsername},
		search: func(ctx context.Context, q *models.Query) ([]models.RawResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	m := newTestManager(t, config.PipelineConfig{MaxDuration: 100 * time.Millisecond}, stub)

	inv, err := m.Submit(context.Background(), testSeed())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	final := waitTerminal(t, m, inv.ID)
	if final.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want completed after deadline", final.Status)
	}
	if !final.Partial {
		t.Error("deadline expiry must mark the record partial")
	}

	var sawTimeout bool
	for _, e := range final.Errors {
		if e.Kind == string(fault.KindTimeout) {
			sawTimeout = true
		}
	}
	if !sawTimeout {
		t.Errorf("errors = %v, want a timeout entry", final.Errors)
	}

	// A partial report still exists.
	if _, err := m.Report(context.Background(), inv.ID); err != nil {
		t.Errorf("partial report missing: %v", err)
	}
}

func TestDeleteRefusesRunning(t *testing.T) {
	gate := make(chan struct{})
	stub := &stubConnector{
		name:  "socialdir",
		kinds: []models.QueryKind{models.QueryKindPersonName, models.QueryKindUsername},
		search: func(ctx context.Context, q *models.Query) ([]models.RawResult, error) {
			select {
			case <-gate:
				return nil, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
	m := newTestManager(t, config.PipelineConfig{}, stub)

	inv, err := m.Submit(context.Background(), testSeed())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := m.Delete(context.Background(), inv.ID); fault.KindOf(err) != fault.KindValidation {
		t.Errorf("deleting a running investigation should fail validation, got %v", err)
	}

	close(gate)
	waitTerminal(t, m, inv.ID)

	if err := m.Delete(context.Background(), inv.ID); err != nil {
		t.Errorf("delete after completion: %v", err)
	}
	if _, err := m.Get(context.Background(), inv.ID); fault.KindOf(err) != fault.KindNotFound {
		t.Errorf("record survived deletion: %v", err)
	}
}

func TestSubscribeDeliversSnapshotAndCompletion(t *testing.T) {
	subscribed := make(chan struct{})
	stub := &stubConnector{
		name:  "socialdir",
		kinds: []models.QueryKind{models.QueryKindPersonName, models.QueryKindUsername},
		search: func(ctx context.Context, q *models.Query) ([]models.RawResult, error) {
			// Hold the pipeline until the subscriber is attached so the
			// completion event cannot slip past it.
			select {
			case <-subscribed:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return profileResult(q), nil
		},
	}
	m := newTestManager(t, config.PipelineConfig{}, stub)

	inv, err := m.Submit(context.Background(), testSeed())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	events, cancel, err := m.Subscribe(inv.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	close(subscribed)

	var first *models.ProgressEvent
	var sawCompletion bool
	deadline := time.After(10 * time.Second)
	for !sawCompletion {
		select {
		case evt := <-events:
			if first == nil {
				first = &evt
			}
			if evt.Type == models.EventCompletion {
				sawCompletion = true
			}
		case <-deadline:
			t.Fatal("never saw the completion event")
		}
	}

	if first.Type != models.EventStatusUpdate {
		t.Errorf("first event = %s, want the status snapshot", first.Type)
	}
}

func TestResolutionProceedsWhileFetchesInFlight(t *testing.T) {
	subscribed := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	stub := &stubConnector{
		name:  "socialdir",
		kinds: []models.QueryKind{models.QueryKindPersonName, models.QueryKindUsername},
		search: func(ctx context.Context, q *models.Query) ([]models.RawResult, error) {
			select {
			case <-subscribed:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if atomic.AddInt32(&calls, 1) == 1 {
				return profileResult(q), nil
			}
			// Every later query stalls until the test lets go.
			select {
			case <-release:
				return nil, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
	m := newTestManager(t, config.PipelineConfig{}, stub)

	inv, err := m.Submit(context.Background(), testSeed())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	events, cancel, err := m.Subscribe(inv.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	close(subscribed)

	// With other queries still blocked, the first result must already
	// have been parsed and folded into the entity set.
	var sawResolved bool
	deadline := time.After(10 * time.Second)
	for !sawResolved {
		select {
		case evt := <-events:
			p, ok := evt.Data.(models.Progress)
			if ok && p.EntitiesResolved > 0 && p.CandidatesFound > 0 {
				sawResolved = true
			}
		case <-deadline:
			t.Fatal("no resolution observed while fetches were in flight")
		}
	}

	cur, err := m.Get(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cur.Status.IsTerminal() {
		t.Fatal("investigation terminated before blocked queries finished")
	}

	close(release)
	final := waitTerminal(t, m, inv.ID)
	if final.Status != models.StatusCompleted {
		t.Fatalf("status = %s, errors = %v", final.Status, final.Errors)
	}
	if final.Progress.QueriesExecuted < 2 {
		t.Fatalf("executed = %d, want at least one query besides the blocked ones", final.Progress.QueriesExecuted)
	}
}

func TestProgressPercentWeightsQueriesAndEntities(t *testing.T) {
	m := newTestManager(t, config.PipelineConfig{})
	c := m.newCoordinator(&models.Investigation{ID: "inv-pct", Seed: testSeed()})

	// Half the plan executed, one of the two seed identifiers resolved.
	c.inv.Progress.QueriesPlanned = 10
	c.inv.Progress.QueriesExecuted = 5
	c.inv.Progress.EntitiesResolved = 1
	c.updatePercent()
	if got := c.inv.Progress.Percent; got != 50 {
		t.Errorf("percent = %v, want 50", got)
	}

	// The estimate never regresses when the next round grows the plan.
	c.inv.Progress.QueriesPlanned = 40
	c.updatePercent()
	if got := c.inv.Progress.Percent; got != 50 {
		t.Errorf("percent after replan = %v, want 50", got)
	}

	// Everything done: the estimate still stays below 100 until the
	// investigation terminates.
	c.inv.Progress.QueriesExecuted = 40
	c.inv.Progress.EntitiesResolved = 5
	c.updatePercent()
	if got := c.inv.Progress.Percent; got != 99 {
		t.Errorf("percent at plan completion = %v, want 99", got)
	}
}

func TestSubscribeUnknownInvestigation(t *testing.T) {
	m := newTestManager(t, config.PipelineConfig{})

	_, _, err := m.Subscribe("missing")
	if fault.KindOf(err) != fault.KindNotFound {
		t.Errorf("expected not_found, got %v", err)
	}
}
