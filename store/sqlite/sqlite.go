// Package sqlite implements agentkit.TraceSink using pure-Go SQLite.
// Zero CGO required.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/tool-agent/agentkit"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// SinkOption configures a SQLite Sink.
type SinkOption func(*Sink)

// WithLogger sets a structured logger for the sink.
// When set, the sink emits debug logs for New, Init, RecordSession and
// Close, including timing and key parameters; ListSessions does not log.
// If not set, no logs are emitted.
func WithLogger(l *slog.Logger) SinkOption {
	return func(s *Sink) { s.logger = l }
}

// Sink implements agentkit.TraceSink backed by a local SQLite file.
type Sink struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ agentkit.TraceSink = (*Sink)(nil)

// nopLogger is a logger that discards all output.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// New creates a Sink using a local SQLite file at dbPath.
// It opens a single shared connection pool with SetMaxOpenConns(1) so that
// all goroutines serialize through one connection, eliminating SQLITE_BUSY
// errors caused by concurrent writers opening independent connections.
func New(dbPath string, opts ...SinkOption) *Sink {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		// sql.Open only fails when the driver is not registered; with the
		// blank import above that never happens.
		panic(fmt.Sprintf("sqlite: open driver: %v", err))
	}
	db.SetMaxOpenConns(1)
	s := &Sink{db: db, logger: nopLogger}
	for _, o := range opts {
		o(s)
	}
	s.logger.Debug("sqlite: trace sink opened", "path", dbPath)
	return s
}

// Init creates the trace table.
func (s *Sink) Init(ctx context.Context) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS traces (
		kernel_id TEXT PRIMARY KEY,
		agent_name TEXT NOT NULL,
		workflow TEXT NOT NULL,
		step_count INTEGER NOT NULL,
		status TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("sqlite: create traces table: %w", err)
	}
	_, _ = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_traces_workflow ON traces(agent_name, workflow)`)
	s.logger.Debug("sqlite: init completed", "duration", time.Since(start))
	return nil
}

// RecordSession persists a completed, errored, or cancelled kernel session.
// A session with no kernel id (a run that never stepped, because it
// finished or failed on the very first Next) is not rejected: it is
// stored under the agent/workflow/start-time key traceKey builds, and
// ListSessions reports that key as its KernelID.
func (s *Sink) RecordSession(ctx context.Context, rec agentkit.TraceRecord) error {
	start := time.Now()
	s.logger.Debug("sqlite: record session", "kernel_id", rec.KernelID, "agent", rec.AgentName, "workflow", rec.Workflow, "status", rec.Status)

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO traces (kernel_id, agent_name, workflow, step_count, status, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		traceKey(rec), rec.AgentName, rec.Workflow, rec.StepCount, rec.Status, rec.StartedAt, rec.EndedAt,
	)
	if err != nil {
		s.logger.Error("sqlite: record session failed", "kernel_id", rec.KernelID, "error", err, "duration", time.Since(start))
		return fmt.Errorf("sqlite: record session: %w", err)
	}
	s.logger.Debug("sqlite: record session ok", "kernel_id", rec.KernelID, "duration", time.Since(start))
	return nil
}

// ListSessions returns recorded sessions for an agent/workflow pair,
// most recently started first.
func (s *Sink) ListSessions(ctx context.Context, agentName, workflow string, limit int) ([]agentkit.TraceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kernel_id, agent_name, workflow, step_count, status, started_at, ended_at
		 FROM traces WHERE agent_name = ? AND workflow = ?
		 ORDER BY started_at DESC LIMIT ?`,
		agentName, workflow, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list sessions: %w", err)
	}
	defer rows.Close()

	var recs []agentkit.TraceRecord
	for rows.Next() {
		var r agentkit.TraceRecord
		if err := rows.Scan(&r.KernelID, &r.AgentName, &r.Workflow, &r.StepCount, &r.Status, &r.StartedAt, &r.EndedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan trace: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// Close closes the underlying database connection.
func (s *Sink) Close() error {
	s.logger.Debug("sqlite: closing trace sink")
	err := s.db.Close()
	if err != nil {
		s.logger.Error("sqlite: close failed", "error", err)
	}
	return err
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
