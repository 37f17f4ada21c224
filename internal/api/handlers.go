// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/vestigium/internal/audit"
	"github.com/tomtom215/vestigium/internal/auth"
	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/models"
	"github.com/tomtom215/vestigium/internal/report"
	"github.com/tomtom215/vestigium/internal/store"
)

// actorFromRequest maps the authenticated subject to an audit actor.
func actorFromRequest(r *http.Request) audit.Actor {
	subject := auth.SubjectFromContext(r.Context())
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

// loginRequest is the login payload.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse carries the issued token.
type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login authenticates admin credentials and issues a session token.
//
// @Summary Log in
// @Description Verifies credentials and returns a JWT, also set as an HTTP-only cookie. Only available when auth mode is jwt.
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse "Malformed body or wrong auth mode"
// @Failure 403 {object} models.APIResponse "Invalid credentials"
// @Router /auth/login [post]
func (rt *Router) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondErr(w, err)
		return
	}

	token, subject, err := rt.auth.Login(req.Username, req.Password)
	if err != nil {
		rt.sec.LogLoginFailure(req.Username, rt.auth.Mode(), r.RemoteAddr, r.UserAgent(), string(fault.KindOf(err)))
		if rt.audit != nil && fault.KindOf(err) == fault.KindUnauthorized {
			rt.audit.LogAuthFailure(r.Context(), req.Username, audit.SourceFromRequest(r), "invalid credentials")
		}
		respondErr(w, err)
		return
	}

	expires := time.Now().Add(rt.auth.SessionTimeout())
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   rt.cfg.Server.Environment == "production",
	})

	rt.sec.LogLoginSuccess(subject.ID, subject.Name, subject.AuthMethod, r.RemoteAddr, r.UserAgent())
	if rt.audit != nil {
		rt.audit.LogAuthSuccess(r.Context(), audit.Actor{
			ID:         subject.ID,
			Name:       subject.Name,
			Roles:      subject.Roles,
			AuthMethod: subject.AuthMethod,
		}, audit.SourceFromRequest(r))
	}

	respond(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires}, start)
}

// SubmitInvestigation accepts a seed and starts an investigation.
//
// @Summary Submit an investigation
// @Description Validates and screens the seed, then starts the pipeline. Returns 202 with the investigation ID; progress streams over the websocket endpoint.
// @Tags Investigations
// @Accept json
// @Produce json
// @Success 202 {object} models.APIResponse{data=models.SubmitAccepted}
// @Failure 400 {object} models.APIResponse "Seed validation failed"
// @Failure 403 {object} models.APIResponse "Seed rejected by security screening"
// @Failure 409 {object} models.APIResponse "Too many active investigations"
// @Router /investigations [post]
func (rt *Router) SubmitInvestigation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var seed models.Seed
	if err := decodeBody(r, &seed); err != nil {
		respondErr(w, err)
		return
	}

	inv, err := rt.manager.Submit(r.Context(), seed)
	if err != nil {
		if rt.audit != nil && fault.KindOf(err) == fault.KindSecurityRejected {
			rt.audit.LogSeedRejected(r.Context(), actorFromRequest(r), audit.SourceFromRequest(r), err.Error())
		}
		respondErr(w, err)
		return
	}

	if rt.audit != nil {
		rt.audit.LogInvestigationSubmitted(r.Context(), actorFromRequest(r), audit.SourceFromRequest(r), inv.ID, seed.IdentifierCount())
	}

	respond(w, http.StatusAccepted, models.SubmitAccepted{
		InvestigationID:     inv.ID,
		Status:              string(inv.Status),
		EstimatedCompletion: inv.Deadline,
	}, start)
}

// investigationList is the list payload.
type investigationList struct {
	Investigations []*models.Investigation `json:"investigations"`
	Total          int                     `json:"total"`
	Limit          int                     `json:"limit"`
	Offset         int                     `json:"offset"`
}

// ListInvestigations pages through stored investigations, newest first.
//
// @Summary List investigations
// @Tags Investigations
// @Produce json
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} models.APIResponse
// @Router /investigations [get]
func (rt *Router) ListInvestigations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	filter := store.ListFilter{
		Status: models.InvestigationStatus(r.URL.Query().Get("status")),
		Limit:  intParam(r, "limit", 0),
		Offset: intParam(r, "offset", 0),
	}

	investigations, total, err := rt.manager.List(r.Context(), filter)
	if err != nil {
		respondErr(w, err)
		return
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = store.DefaultPageSize
	}
	respond(w, http.StatusOK, investigationList{
		Investigations: investigations,
		Total:          total,
		Limit:          limit,
		Offset:         filter.Offset,
	}, start)
}

// GetInvestigation returns one investigation with progress and errors.
//
// @Summary Get an investigation
// @Tags Investigations
// @Produce json
// @Param id path string true "Investigation ID"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /investigations/{id} [get]
func (rt *Router) GetInvestigation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	inv, err := rt.manager.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, inv, start)
}

// GetReport returns the finished report as json, markdown, or html.
//
// @Summary Get an investigation report
// @Description Available once the investigation reaches a terminal state. Cancelled and deadline-expired investigations produce partial reports.
// @Tags Investigations
// @Produce json
// @Param id path string true "Investigation ID"
// @Param format query string false "json | markdown | html" default(json)
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse "Report not ready"
// @Router /investigations/{id}/report [get]
func (rt *Router) GetReport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")

	rpt, err := rt.manager.Report(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	if rt.audit != nil {
		rt.audit.LogReportAccessed(r.Context(), actorFromRequest(r), audit.SourceFromRequest(r), id, format)
	}

	switch format {
	case "json":
		respond(w, http.StatusOK, rpt, start)
	case "markdown", "html":
		rendered, err := report.Render(rpt, format)
		if err != nil {
			respondErr(w, err)
			return
		}
		if format == "markdown" {
			w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		} else {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(rendered)
	default:
		respondErr(w, fault.Newf(fault.KindValidation, "unknown report format %q", format))
	}
}

// Progress upgrades to a websocket and streams progress events.
//
// @Summary Stream investigation progress
// @Description Websocket endpoint. Sends a status snapshot, then progress events until completion.
// @Tags Investigations
// @Param id path string true "Investigation ID"
// @Router /investigations/{id}/progress [get]
func (rt *Router) Progress(w http.ResponseWriter, r *http.Request) {
	if err := rt.streamer.Serve(w, r, chi.URLParam(r, "id")); err != nil {
		respondErr(w, err)
	}
}

// CancelInvestigation requests cancellation of a running investigation.
//
// @Summary Cancel an investigation
// @Description The investigation finishes its current operation, then produces a partial report from whatever was collected.
// @Tags Investigations
// @Produce json
// @Param id path string true "Investigation ID"
// @Success 202 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse "Already terminal"
// @Failure 404 {object} models.APIResponse
// @Router /investigations/{id}/cancel [post]
func (rt *Router) CancelInvestigation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")

	if err := rt.manager.Cancel(r.Context(), id); err != nil {
		respondErr(w, err)
		return
	}

	if rt.audit != nil {
		rt.audit.LogInvestigationCancelled(r.Context(), actorFromRequest(r), audit.SourceFromRequest(r), id)
	}
	respond(w, http.StatusAccepted, map[string]string{
		"investigation_id": id,
		"status":           "cancelling",
	}, start)
}

// DeleteInvestigation removes an investigation and its report.
//
// @Summary Delete an investigation
// @Description Admin only. Running investigations must be cancelled first.
// @Tags Investigations
// @Produce json
// @Param id path string true "Investigation ID"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse "Still running"
// @Failure 404 {object} models.APIResponse
// @Router /investigations/{id} [delete]
func (rt *Router) DeleteInvestigation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")

	if err := rt.manager.Delete(r.Context(), id); err != nil {
		respondErr(w, err)
		return
	}

	if rt.audit != nil {
		rt.audit.LogInvestigationDeleted(r.Context(), actorFromRequest(r), audit.SourceFromRequest(r), id)
	}
	respond(w, http.StatusOK, map[string]string{"investigation_id": id, "status": "deleted"}, start)
}

// ListConnectors reports the registered sources with breaker and rate
// budget state.
//
// @Summary List connectors
// @Tags Connectors
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /connectors [get]
func (rt *Router) ListConnectors(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	statuses := make([]models.ConnectorStatus, 0, rt.registry.Len())
	for _, c := range rt.registry.All() {
		state := "closed"
		if b, ok := c.(interface{ State() string }); ok {
			state = b.State()
		}
		healthy := state != "open"
		if rt.limiter != nil && rt.limiter.InBackoff(c.Name()) {
			healthy = false
		}

		statuses = append(statuses, models.ConnectorStatus{
			Name:             c.Name(),
			Type:             c.Type(),
			Kinds:            c.SupportedKinds(),
			RateLimitPerHour: c.RateLimitPerHour(),
			BaseConfidence:   c.BaseConfidence(),
			BreakerState:     state,
			Healthy:          healthy,
		})
	}
	respond(w, http.StatusOK, map[string]interface{}{"connectors": statuses}, start)
}

// AuditEvents queries the audit trail.
//
// @Summary Query audit events
// @Description Admin only. Filters combine with AND; events return newest first.
// @Tags Audit
// @Produce json
// @Param type query string false "Event type"
// @Param outcome query string false "success | failure"
// @Param actor_id query string false "Actor ID"
// @Param target_id query string false "Target ID"
// @Param limit query int false "Page size" default(100)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} models.APIResponse
// @Router /audit/events [get]
func (rt *Router) AuditEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if rt.auditDB == nil {
		respondErr(w, fault.New(fault.KindNotReady, "audit trail is not enabled"))
		return
	}

	q := r.URL.Query()
	filter := audit.QueryFilter{
		ActorID:  q.Get("actor_id"),
		TargetID: q.Get("target_id"),
		Limit:    intParam(r, "limit", 0),
		Offset:   intParam(r, "offset", 0),
	}
	if t := q.Get("type"); t != "" {
		filter.Types = []audit.EventType{audit.EventType(t)}
	}
	if o := q.Get("outcome"); o != "" {
		filter.Outcomes = []audit.Outcome{audit.Outcome(o)}
	}
	if ts, err := timeParam(r, "start_time"); err != nil {
		respondErr(w, err)
		return
	} else if ts != nil {
		filter.StartTime = ts
	}
	if ts, err := timeParam(r, "end_time"); err != nil {
		respondErr(w, err)
		return
	} else if ts != nil {
		filter.EndTime = ts
	}

	events, err := rt.auditDB.Query(r.Context(), filter)
	if err != nil {
		respondErr(w, err)
		return
	}
	total, err := rt.auditDB.Count(r.Context(), filter)
	if err != nil {
		respondErr(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  total,
	}, start)
}

// HealthLive answers as long as the process serves requests.
//
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /healthz [get]
func (rt *Router) HealthLive(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "alive"}, time.Now())
}

// HealthReady answers 200 once the service can accept investigations.
//
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Router /readyz [get]
func (rt *Router) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !rt.ready() {
		writeError(w, http.StatusServiceUnavailable, &models.APIError{
			Code:    fault.Code(fault.KindNotReady),
			Message: "service is starting",
		})
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"status":                "ready",
		"active_investigations": rt.manager.ActiveCount(),
		"connectors":            rt.registry.Len(),
	}, time.Now())
}

// intParam parses a non-negative integer query parameter.
func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// timeParam parses an RFC 3339 query parameter.
func timeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fault.Newf(fault.KindValidation, "%s must be RFC 3339", name)
	}
	return &ts, nil
}
