// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package audit

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb driver
	"github.com/goccy/go-json"

	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/logging"
)

// DuckDBStore is the durable audit backend. One writer at a time; the
// async logger serializes writes, so no mutex is needed here beyond what
// database/sql provides.
type DuckDBStore struct {
	db *sql.DB
}

// OpenDuckDBStore opens (or creates) the audit database and ensures the
// schema exists.
func OpenDuckDBStore(path string) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "open audit database", err)
	}

	s := &DuckDBStore{db: db}
	if err := s.createTable(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger := logging.WithComponent("audit")
	logger.Info().Str("path", path).Msg("audit store opened")
	return s, nil
}

func (s *DuckDBStore) createTable(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS audit_events (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			type TEXT NOT NULL,
			severity TEXT NOT NULL,
			outcome TEXT NOT NULL,

			actor_id TEXT NOT NULL,
			actor_name TEXT,
			actor_roles JSON,
			actor_auth_method TEXT,

			target_id TEXT,
			target_type TEXT,

			source_ip TEXT NOT NULL,
			source_user_agent TEXT,

			action TEXT NOT NULL,
			description TEXT NOT NULL,
			metadata JSON,
			request_id TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_audit_type ON audit_events(type);
		CREATE INDEX IF NOT EXISTS idx_audit_actor_id ON audit_events(actor_id);
		CREATE INDEX IF NOT EXISTS idx_audit_target_id ON audit_events(target_id);
	`

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fault.Wrap(fault.KindInternal, "create audit schema", err)
		}
	}
	return nil
}

// Save inserts one event.
func (s *DuckDBStore) Save(ctx context.Context, event *Event) error {
	if event == nil {
		return fault.New(fault.KindValidation, "audit event required")
	}

	var roles interface{}
	if len(event.Actor.Roles) > 0 {
		raw, err := json.Marshal(event.Actor.Roles)
		if err != nil {
			return fault.Wrap(fault.KindInternal, "encode actor roles", err)
		}
		roles = string(raw)
	}

	var targetID, targetType interface{}
	if event.Target != nil {
		targetID = event.Target.ID
		targetType = event.Target.Type
	}

	var metadata interface{}
	if len(event.Metadata) > 0 {
		metadata = string(event.Metadata)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, timestamp, type, severity, outcome,
			actor_id, actor_name, actor_roles, actor_auth_method,
			target_id, target_type,
			source_ip, source_user_agent,
			action, description, metadata, request_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp, string(event.Type), string(event.Severity), string(event.Outcome),
		event.Actor.ID, event.Actor.Name, roles, event.Actor.AuthMethod,
		targetID, targetType,
		event.Source.IPAddress, event.Source.UserAgent,
		event.Action, event.Description, metadata, event.RequestID,
	)
	if err != nil {
		return fault.Wrap(fault.KindInternal, "save audit event", err)
	}
	return nil
}

// Query returns matching events, newest first.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	where, args := buildWhere(filter)

	query := "SELECT id, timestamp, type, severity, outcome, actor_id, actor_name, actor_roles, actor_auth_method, target_id, target_type, source_ip, source_user_agent, action, description, metadata, request_id FROM audit_events" +
		where + " ORDER BY timestamp DESC LIMIT ? OFFSET ?"
	args = append(args, filter.limit(), filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "query audit events", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Wrap(fault.KindInternal, "iterate audit events", err)
	}
	return events, nil
}

// Count returns how many events match the filter, ignoring paging.
func (s *DuckDBStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	where, args := buildWhere(filter)

	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_events"+where, args...).Scan(&n)
	if err != nil {
		return 0, fault.Wrap(fault.KindInternal, "count audit events", err)
	}
	return n, nil
}

// Delete removes events older than the cutoff.
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM audit_events WHERE timestamp < ?", olderThan)
	if err != nil {
		return 0, fault.Wrap(fault.KindInternal, "delete audit events", err)
	}
	removed, _ := res.RowsAffected()
	return removed, nil
}

// Close closes the database.
func (s *DuckDBStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fault.Wrap(fault.KindInternal, "close audit database", err)
	}
	return nil
}

// buildWhere translates the filter into a WHERE clause with placeholders.
func buildWhere(filter QueryFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if len(filter.Types) > 0 {
		ph := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			ph[i] = "?"
			args = append(args, string(t))
		}
		conds = append(conds, "type IN ("+strings.Join(ph, ",")+")")
	}
	if len(filter.Outcomes) > 0 {
		ph := make([]string, len(filter.Outcomes))
		for i, o := range filter.Outcomes {
			ph[i] = "?"
			args = append(args, string(o))
		}
		conds = append(conds, "outcome IN ("+strings.Join(ph, ",")+")")
	}
	if filter.ActorID != "" {
		conds = append(conds, "actor_id = ?")
		args = append(args, filter.ActorID)
	}
	if filter.TargetID != "" {
		conds = append(conds, "target_id = ?")
		args = append(args, filter.TargetID)
	}
	if filter.StartTime != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, *filter.StartTime)
	}
	if filter.EndTime != nil {
		conds = append(conds, "timestamp <= ?")
		args = append(args, *filter.EndTime)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanEvent(rows *sql.Rows) (Event, error) {
	var e Event
	var eventType, severity, outcome string
	var actorName, actorRoles, authMethod sql.NullString
	var targetID, targetType sql.NullString
	var userAgent, metadata, requestID sql.NullString

	err := rows.Scan(
		&e.ID, &e.Timestamp, &eventType, &severity, &outcome,
		&e.Actor.ID, &actorName, &actorRoles, &authMethod,
		&targetID, &targetType,
		&e.Source.IPAddress, &userAgent,
		&e.Action, &e.Description, &metadata, &requestID,
	)
	if err != nil {
		return Event{}, fault.Wrap(fault.KindInternal, "scan audit event", err)
	}

	e.Type = EventType(eventType)
	e.Severity = Severity(severity)
	e.Outcome = Outcome(outcome)
	e.Actor.Name = actorName.String
	e.Actor.AuthMethod = authMethod.String
	if actorRoles.Valid && actorRoles.String != "" {
		_ = json.Unmarshal([]byte(actorRoles.String), &e.Actor.Roles)
	}
	if targetID.Valid {
		e.Target = &Target{ID: targetID.String, Type: targetType.String}
	}
	e.Source.UserAgent = userAgent.String
	if metadata.Valid && metadata.String != "" {
		e.Metadata = json.RawMessage(metadata.String)
	}
	e.RequestID = requestID.String
	return e, nil
}
