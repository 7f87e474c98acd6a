// Package postgres implements agentkit.TraceSink using PostgreSQL.
//
// Sink accepts an externally-owned *pgxpool.Pool via constructor
// injection. The caller creates and closes the pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tool-agent/agentkit"
)

// Sink implements agentkit.TraceSink backed by PostgreSQL.
type Sink struct {
	pool *pgxpool.Pool
}

var _ agentkit.TraceSink = (*Sink)(nil)

// New creates a Sink using an existing pgxpool.Pool.
// The caller owns the pool and is responsible for closing it.
func New(pool *pgxpool.Pool) *Sink {
	return &Sink{pool: pool}
}

// Init creates the trace table and its indexes. Safe to call multiple
// times: every statement is idempotent.
func (s *Sink) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS traces (
			kernel_id TEXT PRIMARY KEY,
			agent_name TEXT NOT NULL,
			workflow TEXT NOT NULL,
			step_count INTEGER NOT NULL,
			status TEXT NOT NULL,
			started_at BIGINT NOT NULL,
			ended_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS traces_workflow_idx ON traces(agent_name, workflow)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: init: %w", err)
		}
	}
	return nil
}

// RecordSession persists a completed, errored, or cancelled kernel session.
// A session with no kernel id (a run that never stepped, because it
// finished or failed on the very first Next) is not rejected: it is
// stored under the agent/workflow/start-time key traceKey builds, and
// ListSessions reports that key as its KernelID.
func (s *Sink) RecordSession(ctx context.Context, rec agentkit.TraceRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO traces (kernel_id, agent_name, workflow, step_count, status, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (kernel_id) DO UPDATE SET
		   step_count = EXCLUDED.step_count,
		   status = EXCLUDED.status,
		   ended_at = EXCLUDED.ended_at`,
		traceKey(rec), rec.AgentName, rec.Workflow, rec.StepCount, rec.Status, rec.StartedAt, rec.EndedAt)
	if err != nil {
		return fmt.Errorf("postgres: record session: %w", err)
	}
	return nil
}

// ListSessions returns recorded sessions for an agent/workflow pair,
// most recently started first.
func (s *Sink) ListSessions(ctx context.Context, agentName, workflow string, limit int) ([]agentkit.TraceRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT kernel_id, agent_name, workflow, step_count, status, started_at, ended_at
		 FROM traces WHERE agent_name = $1 AND workflow = $2
		 ORDER BY started_at DESC LIMIT $3`,
		agentName, workflow, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sessions: %w", err)
	}
	defer rows.Close()
	return scanTraces(rows)
}

// Close is a no-op. The caller owns the pool and manages its lifecycle.
func (s *Sink) Close() error {
	return nil
}

func scanTraces(rows pgx.Rows) ([]agentkit.TraceRecord, error) {
	var recs []agentkit.TraceRecord
	for rows.Next() {
		var r agentkit.TraceRecord
		if err := rows.Scan(&r.KernelID, &r.AgentName, &r.Workflow, &r.StepCount, &r.Status, &r.StartedAt, &r.EndedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan trace: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// traceKey returns the primary key used to store rec. A kernel-less
// record (non-stepwise run, or a run that errored on its first step)
// has no KernelID, so it's keyed by agent/workflow/start time instead to
// avoid colliding every such record onto the same empty-string row.
func traceKey(rec agentkit.TraceRecord) string {
	if rec.KernelID != "" {
		return rec.KernelID
	}
	return fmt.Sprintf("%s/%s/%d", rec.AgentName, rec.Workflow, rec.StartedAt)
}
