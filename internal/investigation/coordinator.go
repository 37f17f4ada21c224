// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package investigation

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/vestigium/internal/discovery"
	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/fetch"
	"github.com/tomtom215/vestigium/internal/match"
	"github.com/tomtom215/vestigium/internal/metrics"
	"github.com/tomtom215/vestigium/internal/models"
	"github.com/tomtom215/vestigium/internal/normalize"
	"github.com/tomtom215/vestigium/internal/parse"
	"github.com/tomtom215/vestigium/internal/report"
	"github.com/tomtom215/vestigium/internal/resolve"
)

// Round tuning: how many fetch outcomes may queue ahead of the
// coordinator before the scheduler blocks, and how many fresh
// candidates trigger a mid-round resolution pass.
const (
	outcomeBuffer = 16
	resolveBatch  = 16
)

// Progress weighting between query completion and entity resolution.
const (
	queryProgressWeight  = 0.7
	entityProgressWeight = 0.3
)

// coordinator drives one investigation through the pipeline. It is the
// single writer of its investigation record; every state transition is
// persisted before the next stage starts.
type coordinator struct {
	inv *models.Investigation
	m   *Manager

	planner    *discovery.Planner
	parser     *parse.Parser
	normalizer *normalize.Normalizer
	resolver   *resolve.Resolver

	// Accumulated across rounds.
	candidates []models.NormalizedEntity
	sources    []models.SourceReference
	seenSource map[string]struct{}
	seenEntity map[string]struct{}

	// Candidate count at the last resolution pass; anything beyond it
	// has not been folded into the entity set yet.
	resolvedThrough int

	lastResolve resolve.Result

	cancelRequested atomic.Bool

	log zerolog.Logger
}

func (m *Manager) newCoordinator(inv *models.Investigation) *coordinator {
	sourceConf := make(map[string]float64)
	for _, c := range m.registry.All() {
		sourceConf[c.Name()] = c.BaseConfidence()
	}

	region := normalize.RegionFromHints(inv.Seed.GeographicHints)

	return &coordinator{
		inv:     inv,
		m:       m,
		planner: discovery.NewPlanner(inv.ID, m.registry, m.security, m.cfg.PlanCap, inv.Seed.Thresholds.MinimumSourceConfidence),
		parser:  parse.New(),
		normalizer: normalize.New(region, sourceConf),
		resolver: resolve.New(resolve.Config{
			Matcher:          match.New(match.DefaultWeights()),
			Threshold:        inv.Seed.Thresholds.MinimumEntityConfidence,
			SourceConfidence: sourceConf,
		}),
		seenSource: make(map[string]struct{}),
		seenEntity: make(map[string]struct{}),
		log:        m.log.With().Str("investigation_id", inv.ID).Logger(),
	}
}

// run executes the pipeline to a terminal state. ctx is the manager's
// base context plus this investigation's cancel func; the wall-clock
// deadline is layered on top here.
func (c *coordinator) run(ctx context.Context) {
	started := time.Now().UTC()
	c.inv.StartedAt = &started

	runCtx, cancel := context.WithDeadline(ctx, c.inv.Deadline)
	defer cancel()

	metrics.InvestigationsActive.Inc()
	defer metrics.InvestigationsActive.Dec()

	queries := c.plan()

	maxDepth := c.inv.Seed.Constraints.MaxSearchDepth
	for depth := 1; depth <= maxDepth; depth++ {
		if len(queries) == 0 || c.interrupted(runCtx) {
			break
		}

		c.fetchRound(runCtx, queries)
		if c.interrupted(runCtx) {
			break
		}

		c.resolvePass()
		if c.interrupted(runCtx) || depth == maxDepth {
			break
		}

		queries = c.planner.Expand(depth+1, c.discovered())
	}

	c.finish(runCtx, time.Since(started))
}

// plan runs the discovery stage and returns the initial query set.
func (c *coordinator) plan() []models.Query {
	stageStart := c.setStage(models.StatusPlanning)

	queries := c.planner.Plan(&c.inv.Seed)
	c.inv.Progress.QueriesPlanned = c.planner.Planned()
	c.persist()

	metrics.RecordStage(string(models.StatusPlanning), time.Since(stageStart))
	return queries
}

// fetchRound executes one round of queries with fetching, parsing, and
// resolving overlapped. The scheduler streams outcomes into a bounded
// channel; the coordinator drains it, parsing and normalizing each
// result as it lands, and folds candidates into the entity set whenever
// a batch accumulates or the fetch side goes quiet. All record mutation
// stays on the coordinator goroutine.
func (c *coordinator) fetchRound(ctx context.Context, queries []models.Query) {
	roundStart := c.setStage(models.StatusFetching)
	c.inv.Progress.QueriesPlanned = c.planner.Planned()

	plan := make([]*models.Query, len(queries))
	for i := range queries {
		plan[i] = &queries[i]
	}

	outcomes := make(chan fetch.Outcome, outcomeBuffer)
	go func() {
		defer close(outcomes)
		c.m.sched.Execute(ctx, plan, func(o fetch.Outcome) {
			outcomes <- o
		})
	}()

	var parseElapsed, resolveElapsed time.Duration
	parsing := false
	for {
		var (
			o    fetch.Outcome
			more bool
		)
		select {
		case o, more = <-outcomes:
		default:
			// The fetch side is busy or waiting on rate limits; use
			// the lull to fold gathered candidates into the entity set.
			if len(c.candidates) > c.resolvedThrough {
				start := time.Now()
				c.resolveEntities()
				resolveElapsed += time.Since(start)
				c.persist()
				c.emit(models.EventStatusUpdate, c.inv.Progress)
			}
			o, more = <-outcomes
		}
		if !more {
			break
		}

		c.inv.Progress.QueriesExecuted++
		if o.Failed() {
			c.inv.Progress.QueriesFailed++
			c.recordError(o)
		}

		if len(o.Results) > 0 && !parsing {
			c.setStage(models.StatusParsing)
			parsing = true
		}

		start := time.Now()
		for i := range o.Results {
			c.ingest(&o.Results[i])
		}
		parseElapsed += time.Since(start)
		c.inv.Progress.CandidatesFound = len(c.candidates)

		if len(c.candidates)-c.resolvedThrough >= resolveBatch {
			start = time.Now()
			c.resolveEntities()
			resolveElapsed += time.Since(start)
		}

		c.updatePercent()
		c.emit(models.EventStatusUpdate, c.inv.Progress)
	}

	c.persist()
	metrics.RecordStage(string(models.StatusFetching), time.Since(roundStart))
	if parseElapsed > 0 {
		metrics.RecordStage(string(models.StatusParsing), parseElapsed)
	}
	if resolveElapsed > 0 {
		metrics.RecordStage(string(models.StatusResolving), resolveElapsed)
	}
}

// ingest parses one raw result and normalizes its candidates.
func (c *coordinator) ingest(r *models.RawResult) {
	for _, cand := range c.parser.Parse(r) {
		c.candidates = append(c.candidates, c.normalizer.Normalize(cand))
	}

	key := r.Source + ":" + r.ContentHash
	if _, dup := c.seenSource[key]; dup || r.ContentHash == "" {
		return
	}
	c.seenSource[key] = struct{}{}
	c.sources = append(c.sources, models.SourceReference{
		Source:      r.Source,
		URL:         r.URL,
		ContentHash: r.ContentHash,
		RetrievedAt: r.RetrievedAt,
	})
}

// resolvePass closes a round: one final resolution over everything
// gathered, with the stage transition and metric around it.
func (c *coordinator) resolvePass() {
	stageStart := c.setStage(models.StatusResolving)
	c.resolveEntities()
	c.persist()
	metrics.RecordStage(string(models.StatusResolving), time.Since(stageStart))
}

// resolveEntities reruns resolution over every candidate collected so
// far and emits new_entity events for clusters that did not exist
// before. Called both mid-round and at round close.
func (c *coordinator) resolveEntities() {
	c.lastResolve = c.resolver.Resolve(c.candidates)
	c.inv.Progress.EntitiesResolved = len(c.lastResolve.Entities)
	c.resolvedThrough = len(c.candidates)

	for _, e := range c.lastResolve.Entities {
		if _, known := c.seenEntity[e.ID]; known {
			continue
		}
		c.seenEntity[e.ID] = struct{}{}
		c.emit(models.EventNewEntity, map[string]interface{}{
			"entity_id":  e.ID,
			"type":       string(e.Type),
			"confidence": e.Confidence,
		})
	}

	c.updatePercent()
}

// discovered extracts identifiers from the latest resolution pass that
// the seed did not already contain. The planner's dedupe state keeps
// repeats from replanning.
func (c *coordinator) discovered() discovery.Discovered {
	known := make(map[string]struct{})
	for _, v := range c.inv.Seed.Usernames {
		known[strings.ToLower(v)] = struct{}{}
	}
	for _, v := range c.inv.Seed.Emails {
		known[strings.ToLower(v)] = struct{}{}
	}
	for _, v := range c.inv.Seed.KnownDomains {
		known[strings.ToLower(v)] = struct{}{}
	}

	var d discovery.Discovered
	add := func(list *[]string, value string) {
		v := strings.ToLower(strings.TrimSpace(value))
		if v == "" {
			return
		}
		if _, dup := known[v]; dup {
			return
		}
		known[v] = struct{}{}
		*list = append(*list, v)
	}

	for _, e := range c.lastResolve.Entities {
		add(&d.Usernames, e.Attributes[models.AttrUsername])
		add(&d.Emails, e.Attributes[models.AttrEmail])
		add(&d.Domains, e.Attributes[models.AttrDomain])
	}
	return d
}

// finish reaches a terminal state: cancelled when the manager asked for
// it, completed otherwise. Deadline expiry marks the record partial and
// still produces a report from whatever was gathered.
func (c *coordinator) finish(runCtx context.Context, elapsed time.Duration) {
	cancelled := c.cancelRequested.Load()
	deadlineHit := !cancelled && runCtx.Err() != nil

	if deadlineHit {
		c.inv.Partial = true
		c.inv.Errors = append(c.inv.Errors, models.InvestigationError{
			Kind:       string(fault.KindTimeout),
			Message:    "investigation deadline reached before the plan completed",
			OccurredAt: time.Now().UTC(),
		})
	}
	if cancelled {
		c.inv.Partial = len(c.candidates) > 0
	}

	if err := c.buildReport(); err != nil {
		c.log.Error().Err(err).Msg("report generation failed")
		c.inv.Errors = append(c.inv.Errors, models.InvestigationError{
			Kind:       string(fault.KindOf(err)),
			Message:    err.Error(),
			OccurredAt: time.Now().UTC(),
		})
		if !cancelled {
			c.terminate(models.StatusFailed, elapsed)
			return
		}
	}

	if cancelled {
		c.terminate(models.StatusCancelled, elapsed)
		return
	}
	c.terminate(models.StatusCompleted, elapsed)
}

// buildReport assembles and stores the final artifact.
func (c *coordinator) buildReport() error {
	c.setStage(models.StatusReporting)

	var events []models.TimelineEvent
	if c.lastResolve.Timeline != nil {
		events = c.lastResolve.Timeline.Events()
	}

	rpt, err := report.Build(report.Input{
		Investigation: c.inv,
		Entities:      c.lastResolve.Entities,
		Events:        events,
		Graph:         c.lastResolve.Graph,
		Sources:       c.sources,
		GeneratedAt:   time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	// Store writes outlive the run context: a deadline-expired
	// investigation still persists its partial report.
	if err := c.m.store.SaveReport(context.Background(), rpt); err != nil {
		return err
	}
	c.inv.ReportID = c.inv.ID
	return nil
}

// terminate persists the terminal state and emits the completion event.
func (c *coordinator) terminate(status models.InvestigationStatus, elapsed time.Duration) {
	now := time.Now().UTC()
	c.inv.Status = status
	c.inv.Progress.CurrentStage = status
	if status == models.StatusCompleted {
		c.inv.Progress.Percent = 100
	}
	c.inv.CompletedAt = &now

	retention := c.inv.Seed.Constraints.RetentionDays
	if retention <= 0 {
		retention = models.DefaultRetentionDays
	}
	c.inv.RetainUntil = now.Add(time.Duration(retention) * 24 * time.Hour)

	c.persist()
	c.emit(models.EventCompletion, map[string]interface{}{
		"status":  string(status),
		"partial": c.inv.Partial,
		"summary": c.inv.Progress,
	})
	c.m.investigationDone(c.inv, elapsed)

	c.log.Info().
		Str("status", string(status)).
		Bool("partial", c.inv.Partial).
		Int("queries", c.inv.Progress.QueriesExecuted).
		Int("entities", c.inv.Progress.EntitiesResolved).
		Dur("elapsed", elapsed).
		Msg("investigation finished")
}

// setStage transitions the state machine, persists, and emits the
// critical stage_transition event. Returns the stage start time.
func (c *coordinator) setStage(status models.InvestigationStatus) time.Time {
	c.inv.Status = status
	c.inv.Progress.CurrentStage = status
	c.persist()
	c.emit(models.EventStageTransition, map[string]interface{}{
		"stage":    string(status),
		"progress": c.inv.Progress,
	})
	return time.Now()
}

// recordError appends a non-fatal per-query failure and emits an error
// event. Failures never abort the investigation by themselves.
func (c *coordinator) recordError(o fetch.Outcome) {
	invErr := models.InvestigationError{
		Kind:       string(fault.KindOf(o.Err)),
		Source:     o.Query.Source,
		QueryID:    o.Query.ID,
		Message:    o.Err.Error(),
		OccurredAt: time.Now().UTC(),
	}
	c.inv.Errors = append(c.inv.Errors, invErr)
	c.emit(models.EventError, invErr)
}

// interrupted reports whether the run context ended (cancel or deadline).
func (c *coordinator) interrupted(ctx context.Context) bool {
	return ctx.Err() != nil || c.cancelRequested.Load()
}

// persist writes the current record. Persistence failures are logged and
// swallowed; losing a snapshot must not kill a running investigation.
func (c *coordinator) persist() {
	if err := c.m.store.SaveInvestigation(context.Background(), c.inv); err != nil {
		c.log.Error().Err(err).Msg("persist investigation failed")
	}
}

// emit publishes one progress event to subscribers and the event bus.
func (c *coordinator) emit(t models.ProgressEventType, data interface{}) {
	evt := models.ProgressEvent{
		Type:            t,
		InvestigationID: c.inv.ID,
		Timestamp:       time.Now().UTC(),
		Data:            data,
	}
	c.m.publish(evt)
	c.m.publishLifecycle(evt)
}

// updatePercent recomputes the progress estimate as a weighted blend of
// queries executed against the plan and entities resolved against the
// seed's identifier count. The estimate only moves forward and stays
// below 100 until the investigation terminates.
func (c *coordinator) updatePercent() {
	p := &c.inv.Progress

	var queryFrac float64
	if p.QueriesPlanned > 0 {
		queryFrac = float64(p.QueriesExecuted) / float64(p.QueriesPlanned)
		if queryFrac > 1 {
			queryFrac = 1
		}
	}

	expected := c.inv.Seed.IdentifierCount()
	if expected < 1 {
		expected = 1
	}
	entityFrac := float64(p.EntitiesResolved) / float64(expected)
	if entityFrac > 1 {
		entityFrac = 1
	}

	pct := 100 * (queryProgressWeight*queryFrac + entityProgressWeight*entityFrac)
	if pct > 99 {
		pct = 99
	}
	if pct > p.Percent {
		p.Percent = pct
	}
}
