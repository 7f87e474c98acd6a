package agentkit

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Interpreter is the isolation boundary a StepwiseExecutor drives. It
// resolves an agent by name rather than accepting a live *Agent value,
// because an isolated implementation (see package sandbox) may run the
// session in a separate process or container and can't carry a Go value
// across that boundary — only names and JSON-able arguments.
type Interpreter interface {
	StartSession(ctx context.Context, agentName, workflowName string, args []any) (InterpreterSession, Result, bool, error)

	// RunTool invokes a single tool to completion. No session is
	// created: tools are single-shot and never suspend.
	RunTool(ctx context.Context, agentName, toolName string, args []any) (Result, error)
}

// InterpreterSession is one running workflow's resumable handle.
type InterpreterSession interface {
	// Continue advances the session by one step, returning the next
	// Result and whether more output follows.
	Continue(ctx context.Context) (Result, bool, error)
	// Cancel stops the session. Cooperative: any step already in
	// flight finishes, but no further steps run.
	Cancel(ctx context.Context) error
}

// inProcessInterpreter runs workflows directly in this process against a
// fixed agent registry, with no isolation boundary. It's the default;
// package sandbox provides subprocess and container isolation instead.
type inProcessInterpreter struct {
	agents map[string]*Agent
}

// NewInProcessInterpreter builds an Interpreter that dispatches directly
// to the given agents, keyed by name, with no isolation boundary.
func NewInProcessInterpreter(agents map[string]*Agent) Interpreter {
	return &inProcessInterpreter{agents: agents}
}

func (in *inProcessInterpreter) StartSession(ctx context.Context, agentName, workflowName string, args []any) (InterpreterSession, Result, bool, error) {
	a, ok := in.agents[agentName]
	if !ok {
		return nil, Result{}, false, fmt.Errorf("unknown agent %q", agentName)
	}
	it, err := a.Run(ctx, workflowName, args...)
	if err != nil {
		return nil, Result{}, false, err
	}
	res, more := it.Next(ctx)
	return &inProcessSession{it: it}, res, more, nil
}

func (in *inProcessInterpreter) RunTool(ctx context.Context, agentName, toolName string, args []any) (Result, error) {
	a, ok := in.agents[agentName]
	if !ok {
		return Result{}, fmt.Errorf("unknown agent %q", agentName)
	}
	return a.CallTool(ctx, toolName, args...)
}

type inProcessSession struct{ it *StepIterator }

func (s *inProcessSession) Continue(ctx context.Context) (Result, bool, error) {
	res, more := s.it.Next(ctx)
	return res, more, nil
}

func (s *inProcessSession) Cancel(ctx context.Context) error { return nil }

// TraceRecord summarizes one completed, errored, cancelled, or expired
// kernel session, for observability. It is never reloaded into a live session —
// recording a trace is an ambient logging concern, not durable kernel
// state.
type TraceRecord struct {
	KernelID  string
	AgentName string
	Workflow  string
	StepCount int
	Status    string // "completed", "error", "cancelled", "expired"
	StartedAt int64
	EndedAt   int64
}

// TraceSink persists TraceRecords. See store/sqlite and store/postgres
// for concrete implementations.
type TraceSink interface {
	RecordSession(ctx context.Context, rec TraceRecord) error
}

// Metrics receives live counters and durations as kernel sessions finish.
// Unlike TraceSink, which persists a record per session for later
// querying, Metrics is for streaming aggregates (counters, histograms) to
// a monitoring backend. The telemetry package provides an OTEL-backed
// implementation.
type Metrics interface {
	RecordKernelFinish(ctx context.Context, agentName, workflow, status string, steps int, duration time.Duration)
}

type kernelEntry struct {
	id        string
	agentName string
	workflow  string
	args      []any
	session   InterpreterSession
	steps     int
	startedAt time.Time
	lastUsed  time.Time
}

// ExecutorOption configures a StepwiseExecutor.
type ExecutorOption func(*StepwiseExecutor)

// WithKernelTTL sets how long an idle kernel session survives before
// background cleanup evicts it. Default 30 minutes.
func WithKernelTTL(d time.Duration) ExecutorOption {
	return func(e *StepwiseExecutor) { e.ttl = d }
}

// WithTraceSink attaches a TraceSink that records every session's
// terminal outcome.
func WithTraceSink(sink TraceSink) ExecutorOption {
	return func(e *StepwiseExecutor) { e.traceSink = sink }
}

// WithMetrics attaches a Metrics sink that records live counters and
// durations as kernel sessions finish.
func WithMetrics(m Metrics) ExecutorOption {
	return func(e *StepwiseExecutor) { e.metrics = m }
}

// WithExecutorLogger sets the structured logger used for kernel
// lifecycle diagnostics.
func WithExecutorLogger(l *slog.Logger) ExecutorOption {
	return func(e *StepwiseExecutor) { e.logger = l }
}

// StepwiseExecutor runs workflows one step at a time over an Interpreter,
// tracking suspended runs as kernel sessions addressable by a kernel id.
// All exported methods are safe for concurrent use.
type StepwiseExecutor struct {
	interp Interpreter

	mu       sync.Mutex
	sessions map[string]*kernelEntry
	counter  int

	ttl       time.Duration
	traceSink TraceSink
	metrics   Metrics
	logger    *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewStepwiseExecutor creates an executor driving interp, with a
// background goroutine evicting idle kernel sessions past their TTL.
// Callers must call Close when done to stop that goroutine.
func NewStepwiseExecutor(interp Interpreter, opts ...ExecutorOption) *StepwiseExecutor {
	e := &StepwiseExecutor{
		interp:   interp,
		sessions: make(map[string]*kernelEntry),
		ttl:      30 * time.Minute,
		logger:   slog.Default(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	go e.runCleanup(e.ttl / 2)
	return e
}

// Close stops the background eviction goroutine. Active kernel sessions
// are left as-is; cancel them explicitly first if that's wanted.
func (e *StepwiseExecutor) Close() {
	close(e.stopCh)
	<-e.doneCh
}

// Start begins a workflow run. When stepByStep is false, the run drains
// to completion and Start returns ("", finalResult, nil) with no kernel
// created. When stepByStep is true and the run has more than one step,
// Start returns the first Result along with a kernel id for Continue;
// if the run happens to finish after its first step, the kernel id is
// still empty, since there's nothing left to resume.
func (e *StepwiseExecutor) Start(ctx context.Context, agentName, workflowName string, args []any, stepByStep bool) (string, Result, error) {
	sess, res, more, err := e.interp.StartSession(ctx, agentName, workflowName, args)
	if err != nil {
		return "", Result{}, err
	}
	if res.IsErr() {
		return "", res, nil
	}

	if !stepByStep {
		final := res
		for more {
			final, more, err = sess.Continue(ctx)
			if err != nil {
				return "", Result{}, err
			}
			if final.IsErr() {
				return "", final, nil
			}
		}
		return "", final, nil
	}

	if !more {
		return "", res, nil
	}

	id := e.newKernelID()
	e.mu.Lock()
	e.sessions[id] = &kernelEntry{
		id: id, agentName: agentName, workflow: workflowName, args: args,
		session: sess, steps: 1, startedAt: time.Now(), lastUsed: time.Now(),
	}
	e.mu.Unlock()
	e.logger.Debug("kernel started", "kernel_id", id, "agent", agentName, "workflow", workflowName)
	return id, res, nil
}

// ExecuteTool runs a single tool to completion through the interpreter.
// Tool execution never allocates a kernel: the tool's Result is
// unwrapped to its value or error and returned directly.
func (e *StepwiseExecutor) ExecuteTool(ctx context.Context, agentName, toolName string, args []any) (any, error) {
	res, err := e.interp.RunTool(ctx, agentName, toolName, args)
	if err != nil {
		return nil, err
	}
	return res.TryUnwrap()
}

// Continue advances kernelID's session by one step. agentName, workflow,
// and args must exactly match the call that started the kernel — a
// mismatch returns *ParameterMismatchError, matching the check a
// resumable kernel session makes against its own recorded call signature.
// A terminal Result (error or no further steps) removes the kernel.
func (e *StepwiseExecutor) Continue(ctx context.Context, kernelID, agentName, workflowName string, args []any) (string, Result, error) {
	e.mu.Lock()
	entry, ok := e.sessions[kernelID]
	e.mu.Unlock()
	if !ok {
		return "", Result{}, &KernelNotFoundError{KernelID: kernelID}
	}
	if entry.agentName != agentName || entry.workflow != workflowName || !reflect.DeepEqual(entry.args, args) {
		return "", Result{}, &ParameterMismatchError{KernelID: kernelID}
	}

	res, more, err := entry.session.Continue(ctx)
	if err != nil {
		e.finish(entry, "error")
		return "", Result{}, err
	}
	entry.steps++

	if res.IsErr() {
		e.finish(entry, "error")
		return "", res, nil
	}
	if !more {
		e.finish(entry, "completed")
		return "", res, nil
	}

	e.mu.Lock()
	entry.lastUsed = time.Now()
	e.mu.Unlock()
	return kernelID, res, nil
}

// Cancel stops kernelID's session. The first call for a given kernel id
// succeeds; later calls (the kernel already having been removed) return
// *KernelNotFoundError — cancellation is cooperative and idempotent, but
// only the first caller is told so. The underlying interpreter is left
// running, ready for the next session.
func (e *StepwiseExecutor) Cancel(ctx context.Context, kernelID string) error {
	e.mu.Lock()
	entry, ok := e.sessions[kernelID]
	if ok {
		delete(e.sessions, kernelID)
	}
	e.mu.Unlock()
	if !ok {
		return &KernelNotFoundError{KernelID: kernelID}
	}
	e.finish(entry, "cancelled")
	return entry.session.Cancel(ctx)
}

func (e *StepwiseExecutor) finish(entry *kernelEntry, status string) {
	e.mu.Lock()
	delete(e.sessions, entry.id)
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.RecordKernelFinish(context.Background(), entry.agentName, entry.workflow, status, entry.steps, time.Since(entry.startedAt))
	}

	if e.traceSink == nil {
		return
	}
	rec := TraceRecord{
		KernelID: entry.id, AgentName: entry.agentName, Workflow: entry.workflow,
		StepCount: entry.steps, Status: status,
		StartedAt: entry.startedAt.Unix(), EndedAt: NowUnix(),
	}
	if err := e.traceSink.RecordSession(context.Background(), rec); err != nil {
		e.logger.Warn("trace record failed", "kernel_id", entry.id, "error", err)
	}
}

// newKernelID generates a kernel id in the form "k" + 2-digit counter +
// 3 random lowercase letters, wrapping the counter at 100. Collisions
// against the active session set are resolved by drawing a fresh random
// suffix — the format is kept narrow deliberately, so callers exercise
// the collision path in tests rather than assuming it can't happen.
func (e *StepwiseExecutor) newKernelID() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	for {
		id := fmt.Sprintf("k%02d%s", e.counter, randomLetters(3))
		e.counter = (e.counter + 1) % 100
		if _, exists := e.sessions[id]; !exists {
			return id
		}
	}
}

func randomLetters(n int) string {
	buf := make([]byte, n)
	rand.Read(buf)
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = 'a' + b%26
	}
	return string(out)
}

func (e *StepwiseExecutor) runCleanup(interval time.Duration) {
	defer close(e.doneCh)
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.evictExpired()
		case <-e.stopCh:
			return
		}
	}
}

func (e *StepwiseExecutor) evictExpired() {
	e.mu.Lock()
	var expired []*kernelEntry
	for id, entry := range e.sessions {
		if time.Since(entry.lastUsed) > e.ttl {
			expired = append(expired, entry)
			delete(e.sessions, id)
		}
	}
	e.mu.Unlock()

	for _, entry := range expired {
		_ = entry.session.Cancel(context.Background())
		e.logger.Info("kernel evicted (TTL)", "kernel_id", entry.id)
		if e.metrics != nil {
			e.metrics.RecordKernelFinish(context.Background(), entry.agentName, entry.workflow, "expired", entry.steps, time.Since(entry.startedAt))
		}
		if e.traceSink != nil {
			rec := TraceRecord{
				KernelID: entry.id, AgentName: entry.agentName, Workflow: entry.workflow,
				StepCount: entry.steps, Status: "expired",
				StartedAt: entry.startedAt.Unix(), EndedAt: NowUnix(),
			}
			_ = e.traceSink.RecordSession(context.Background(), rec)
		}
	}
}

// ActiveKernels returns the ids of currently suspended kernel sessions.
func (e *StepwiseExecutor) ActiveKernels() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	return ids
}
