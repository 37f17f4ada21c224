// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package audit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/vestigium/internal/config"
	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/models"
)

// Logger defaults.
const (
	defaultBufferSize    = 1000
	defaultRetentionDays = 90
	writeTimeout         = 5 * time.Second
)

// SystemActor marks actions the pipeline takes without a user behind
// them (completions, retention sweeps).
var SystemActor = Actor{ID: "system", Name: "system"}

// Logger buffers events through an async writer so audit persistence
// never sits on a request path. A full buffer drops the event and logs
// the loss; blocking the API on the audit trail is the worse failure.
type Logger struct {
	cfg    config.AuditConfig
	store  Store
	events chan *Event
	stop   chan struct{}
	done   chan struct{}
	log    zerolog.Logger
}

// NewLogger starts the async writer over the store.
func NewLogger(store Store, cfg config.AuditConfig) *Logger {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = defaultRetentionDays
	}

	l := &Logger{
		cfg:    cfg,
		store:  store,
		events: make(chan *Event, defaultBufferSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		log:    logging.WithComponent("audit"),
	}
	go l.writer()
	return l
}

// Log queues one event. Safe to call from request handlers.
func (l *Logger) Log(ctx context.Context, event *Event) {
	if !l.cfg.Enabled {
		return
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = logging.RequestIDFromContext(ctx)
	}

	select {
	case l.events <- event:
	default:
		l.log.Warn().
			Str("type", string(event.Type)).
			Msg("audit buffer full, event dropped")
	}
}

// writer drains the buffer into the store.
func (l *Logger) writer() {
	defer close(l.done)

	for {
		select {
		case event := <-l.events:
			l.write(event)
		case <-l.stop:
			for {
				select {
				case event := <-l.events:
					l.write(event)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) write(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		l.log.Error().Err(err).Str("type", string(event.Type)).Msg("audit save failed")
	}
}

// Prune deletes events past the retention window, returning how many.
func (l *Logger) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -l.cfg.RetentionDays)
	removed, err := l.store.Delete(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		l.log.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("audit retention pruned")
	}
	return removed, nil
}

// Close drains the buffer and stops the writer. The store is closed by
// its owner.
func (l *Logger) Close() {
	close(l.stop)
	<-l.done
}

// SourceFromRequest extracts the request origin.
func SourceFromRequest(r *http.Request) Source {
	if r == nil {
		return Source{}
	}
	return Source{
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
}

// LogInvestigationSubmitted records an accepted submission.
func (l *Logger) LogInvestigationSubmitted(ctx context.Context, actor Actor, source Source, investigationID string, identifierCount int) {
	meta, _ := json.Marshal(map[string]int{"identifier_count": identifierCount})
	l.Log(ctx, &Event{
		Type:        EventInvestigationSubmitted,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Target:      &Target{ID: investigationID, Type: "investigation"},
		Source:      source,
		Action:      "submit investigation",
		Description: fmt.Sprintf("investigation %s accepted with %d seed identifiers", investigationID, identifierCount),
		Metadata:    meta,
	})
}

// LogSeedRejected records a submission blocked by the security pass.
func (l *Logger) LogSeedRejected(ctx context.Context, actor Actor, source Source, reason string) {
	l.Log(ctx, &Event{
		Type:        EventSeedRejected,
		Severity:    SeverityWarning,
		Outcome:     OutcomeFailure,
		Actor:       actor,
		Source:      source,
		Action:      "submit investigation",
		Description: "seed rejected by security screening: " + reason,
	})
}

// LogInvestigationCancelled records a cancellation request.
func (l *Logger) LogInvestigationCancelled(ctx context.Context, actor Actor, source Source, investigationID string) {
	l.Log(ctx, &Event{
		Type:        EventInvestigationCancelled,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Target:      &Target{ID: investigationID, Type: "investigation"},
		Source:      source,
		Action:      "cancel investigation",
		Description: fmt.Sprintf("investigation %s cancelled", investigationID),
	})
}

// LogInvestigationDeleted records an admin deletion.
func (l *Logger) LogInvestigationDeleted(ctx context.Context, actor Actor, source Source, investigationID string) {
	l.Log(ctx, &Event{
		Type:        EventInvestigationDeleted,
		Severity:    SeverityWarning,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Target:      &Target{ID: investigationID, Type: "investigation"},
		Source:      source,
		Action:      "delete investigation",
		Description: fmt.Sprintf("investigation %s and its report deleted", investigationID),
	})
}

// LogReportAccessed records a report download.
func (l *Logger) LogReportAccessed(ctx context.Context, actor Actor, source Source, investigationID, format string) {
	meta, _ := json.Marshal(map[string]string{"format": format})
	l.Log(ctx, &Event{
		Type:        EventReportAccessed,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Target:      &Target{ID: investigationID, Type: "report"},
		Source:      source,
		Action:      "access report",
		Description: fmt.Sprintf("report for investigation %s retrieved as %s", investigationID, format),
		Metadata:    meta,
	})
}

// LogAuthSuccess records a successful authentication.
func (l *Logger) LogAuthSuccess(ctx context.Context, actor Actor, source Source) {
	l.Log(ctx, &Event{
		Type:        EventAuthSuccess,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Source:      source,
		Action:      "authenticate",
		Description: fmt.Sprintf("authentication succeeded for %s via %s", actor.Name, actor.AuthMethod),
	})
}

// LogAuthFailure records a failed authentication attempt.
func (l *Logger) LogAuthFailure(ctx context.Context, name string, source Source, reason string) {
	l.Log(ctx, &Event{
		Type:        EventAuthFailure,
		Severity:    SeverityWarning,
		Outcome:     OutcomeFailure,
		Actor:       Actor{ID: name, Name: name},
		Source:      source,
		Action:      "authenticate",
		Description: "authentication failed: " + reason,
	})
}

// LogAuthzDenied records an authorization denial.
func (l *Logger) LogAuthzDenied(ctx context.Context, actor Actor, source Source, resource, action string) {
	l.Log(ctx, &Event{
		Type:        EventAuthzDenied,
		Severity:    SeverityWarning,
		Outcome:     OutcomeFailure,
		Actor:       actor,
		Source:      source,
		Action:      action,
		Description: fmt.Sprintf("access to %s denied for %s", resource, actor.Name),
	})
}

// LifecycleHandler consumes investigation lifecycle events off the bus
// and records completions. Wire it with events.Bus.AddHandler.
func (l *Logger) LifecycleHandler(ctx context.Context, payload []byte) error {
	var evt models.ProgressEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return err
	}
	if evt.Type != models.EventCompletion {
		return nil
	}

	meta, _ := json.Marshal(evt.Data)
	l.Log(ctx, &Event{
		Type:        EventInvestigationCompleted,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       SystemActor,
		Target:      &Target{ID: evt.InvestigationID, Type: "investigation"},
		Source:      Source{IPAddress: "internal"},
		Action:      "complete investigation",
		Description: fmt.Sprintf("investigation %s reached a terminal state", evt.InvestigationID),
		Metadata:    meta,
	})
	return nil
}
