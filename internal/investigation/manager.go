// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package investigation coordinates the pipeline end to end.
//
// The Manager accepts seeds, enforces the active-investigation cap, and
// launches one coordinator goroutine per accepted investigation. Each
// coordinator walks the state machine (planning, fetching, parsing,
// resolving, reporting), persisting the record on every transition, so
// the store always reflects the latest observable state. Progress fans
// out to bounded per-subscriber streams; slow consumers lose status
// updates but never stage transitions or the completion event.
package investigation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/vestigium/internal/config"
	"github.com/tomtom215/vestigium/internal/connector"
	"github.com/tomtom215/vestigium/internal/discovery"
	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/fetch"
	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/metrics"
	"github.com/tomtom215/vestigium/internal/models"
	"github.com/tomtom215/vestigium/internal/store"
	"github.com/tomtom215/vestigium/internal/validation"
)

// Manager defaults.
const (
	DefaultMaxActive   = 8
	DefaultMaxDuration = 120 * time.Minute
)

// TopicLifecycle is the event bus topic carrying critical investigation
// events (stage transitions and completions).
const TopicLifecycle = "investigation.lifecycle"

// Publisher forwards investigation events beyond the in-process progress
// streams. The events bus implements it; a nil publisher disables
// forwarding.
type Publisher interface {
	Publish(ctx context.Context, topic string, event interface{}) error
}

// running pairs an active coordinator with its cancel func.
type running struct {
	coord  *coordinator
	cancel context.CancelFunc
}

// Manager owns the investigation lifecycle.
type Manager struct {
	cfg      config.PipelineConfig
	store    store.Store
	registry *connector.Registry
	sched    *fetch.Scheduler
	security *discovery.SecurityPass
	bus      Publisher
	log      zerolog.Logger
	sec      *logging.SecurityLogger

	baseCtx context.Context
	stop    context.CancelFunc

	mu     sync.Mutex
	active map[string]*running
	subs   map[string]map[*subscription]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewManager wires the manager over the shared singletons. bus may be nil.
func NewManager(cfg config.PipelineConfig, st store.Store, registry *connector.Registry, sched *fetch.Scheduler, security *discovery.SecurityPass, bus Publisher) *Manager {
	if cfg.MaxActiveInvestigations <= 0 {
		cfg.MaxActiveInvestigations = DefaultMaxActive
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = DefaultMaxDuration
	}

	baseCtx, stop := context.WithCancel(context.Background())
	return &Manager{
		cfg:      cfg,
		store:    st,
		registry: registry,
		sched:    sched,
		security: security,
		bus:      bus,
		log:      logging.WithComponent("investigation"),
		sec:      logging.NewSecurityLogger(),
		baseCtx:  baseCtx,
		stop:     stop,
		active:   make(map[string]*running),
		subs:     make(map[string]map[*subscription]struct{}),
	}
}

// Submit validates and screens a seed, creates the investigation record,
// and starts its coordinator. Returns not_ready when the active cap is
// reached; callers retry later.
func (m *Manager) Submit(ctx context.Context, seed models.Seed) (*models.Investigation, error) {
	if verr := validation.ValidateStruct(&seed); verr != nil {
		return nil, fault.Wrap(fault.KindValidation, "invalid seed", verr)
	}
	seed.ApplyDefaults()
	if err := m.screenSeed(&seed); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	inv := &models.Investigation{
		ID:        uuid.New().String(),
		Seed:      seed,
		Status:    models.StatusCreated,
		Progress:  models.Progress{CurrentStage: models.StatusCreated},
		CreatedAt: now,
		Deadline:  now.Add(m.maxDuration()),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, fault.New(fault.KindNotReady, "manager is shutting down")
	}
	if len(m.active) >= m.cfg.MaxActiveInvestigations {
		m.mu.Unlock()
		return nil, fault.Newf(fault.KindNotReady, "investigation capacity reached (%d active)", m.cfg.MaxActiveInvestigations)
	}

	coord := m.newCoordinator(inv)
	runCtx, cancel := context.WithCancel(m.baseCtx)
	m.active[inv.ID] = &running{coord: coord, cancel: cancel}
	m.wg.Add(1)
	m.mu.Unlock()

	if err := m.store.SaveInvestigation(ctx, inv); err != nil {
		m.release(inv.ID)
		m.wg.Done()
		cancel()
		return nil, err
	}

	go func() {
		defer m.wg.Done()
		defer cancel()
		coord.run(runCtx)
	}()

	m.log.Info().
		Str("investigation_id", inv.ID).
		Int("identifiers", seed.IdentifierCount()).
		Int("depth", seed.Constraints.MaxSearchDepth).
		Time("deadline", inv.Deadline).
		Msg("investigation accepted")
	return inv, nil
}

// Get returns the latest persisted record.
func (m *Manager) Get(ctx context.Context, id string) (*models.Investigation, error) {
	return m.store.GetInvestigation(ctx, id)
}

// List pages persisted records, newest first.
func (m *Manager) List(ctx context.Context, filter store.ListFilter) ([]*models.Investigation, int, error) {
	return m.store.ListInvestigations(ctx, filter)
}

// Report returns the stored report for a completed investigation.
func (m *Manager) Report(ctx context.Context, id string) (*models.Report, error) {
	inv, err := m.store.GetInvestigation(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.ReportID == "" {
		return nil, fault.Newf(fault.KindNotReady, "investigation %s has no report yet", id)
	}
	return m.store.GetReport(ctx, id)
}

// Cancel stops a running investigation; its coordinator finishes with
// status cancelled and a partial report when results exist. Cancelling a
// terminal investigation is a validation error.
func (m *Manager) Cancel(ctx context.Context, id string) error {
	m.mu.Lock()
	r, ok := m.active[id]
	m.mu.Unlock()
	if ok {
		r.coord.cancelRequested.Store(true)
		r.cancel()
		m.log.Info().Str("investigation_id", id).Msg("cancellation requested")
		return nil
	}

	inv, err := m.store.GetInvestigation(ctx, id)
	if err != nil {
		return err
	}
	if inv.Status.IsTerminal() {
		return fault.Newf(fault.KindValidation, "investigation %s is already %s", id, inv.Status)
	}

	// Not in the active set but not terminal either: a record orphaned by
	// an unclean shutdown. Mark it cancelled directly.
	now := time.Now().UTC()
	inv.Status = models.StatusCancelled
	inv.Progress.CurrentStage = models.StatusCancelled
	inv.CompletedAt = &now
	return m.store.SaveInvestigation(ctx, inv)
}

// Delete removes a terminal investigation and its report. Running
// investigations must be cancelled first.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	_, isActive := m.active[id]
	m.mu.Unlock()
	if isActive {
		return fault.Newf(fault.KindValidation, "investigation %s is running; cancel it first", id)
	}
	return m.store.DeleteInvestigation(ctx, id)
}

// ActiveCount returns how many investigations are currently running.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// Close stops accepting work, cancels running investigations, and waits
// for their coordinators to reach a terminal state.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	for _, r := range m.active {
		r.coord.cancelRequested.Store(true)
	}
	m.mu.Unlock()

	m.stop()
	m.wg.Wait()

	m.mu.Lock()
	for _, set := range m.subs {
		for sub := range set {
			sub.close()
		}
	}
	m.subs = make(map[string]map[*subscription]struct{})
	m.mu.Unlock()
}

// investigationDone is called by a coordinator after persisting its
// terminal state.
func (m *Manager) investigationDone(inv *models.Investigation, elapsed time.Duration) {
	m.release(inv.ID)
	metrics.RecordInvestigationDone(string(inv.Status), elapsed)
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	delete(m.active, id)
	m.mu.Unlock()
}

// publishLifecycle forwards critical events to the event bus.
func (m *Manager) publishLifecycle(evt models.ProgressEvent) {
	if m.bus == nil || !evt.Type.Critical() {
		return
	}
	if err := m.bus.Publish(m.baseCtx, TopicLifecycle, evt); err != nil {
		m.log.Warn().Err(err).Str("topic", TopicLifecycle).Msg("lifecycle publish failed")
	}
}

// screenSeed rejects submissions whose identifiers match a blocked
// pattern before anything is planned or persisted.
func (m *Manager) screenSeed(seed *models.Seed) error {
	fields := []struct {
		name   string
		values []string
	}{
		{"full_name", []string{seed.FullName}},
		{"aliases", seed.Aliases},
		{"usernames", seed.Usernames},
		{"emails", seed.Emails},
		{"known_domains", seed.KnownDomains},
		{"employers", seed.Employers},
	}

	for _, f := range fields {
		for _, v := range f.values {
			if err := m.security.Check(v); err != nil {
				m.sec.LogSeedRejected("", err.Error(), f.name)
				return fault.Wrap(fault.KindSecurityRejected, "seed rejected", err)
			}
		}
	}
	return nil
}

func (m *Manager) maxDuration() time.Duration {
	d := m.cfg.MaxDuration
	if m.cfg.MinDuration > 0 && d < m.cfg.MinDuration {
		d = m.cfg.MinDuration
	}
	if m.cfg.MaxDurationLimit > 0 && d > m.cfg.MaxDurationLimit {
		d = m.cfg.MaxDurationLimit
	}
	return d
}
