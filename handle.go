package agentkit

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// RunState represents the execution state of a spawned workflow run.
type RunState int32

const (
	RunPending RunState = iota
	RunRunning
	RunCompleted
	RunFailed
	RunCancelled
)

func (s RunState) String() string {
	switch s {
	case RunPending:
		return "pending"
	case RunRunning:
		return "running"
	case RunCompleted:
		return "completed"
	case RunFailed:
		return "failed"
	case RunCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the state is final.
func (s RunState) IsTerminal() bool {
	return s == RunCompleted || s == RunFailed || s == RunCancelled
}

// SpawnOption configures a Spawn call.
type SpawnOption func(*spawnConfig)

type spawnConfig struct {
	logger *slog.Logger
}

// SpawnLogger sets the structured logger used for run lifecycle events.
func SpawnLogger(l *slog.Logger) SpawnOption {
	return func(c *spawnConfig) { c.logger = l }
}

// RunHandle tracks a workflow run drained to completion in the
// background. It layers a non-stepwise, fire-and-forget convenience over
// Agent.RunToCompletion for callers that don't need the kernel-session
// resumability StepwiseExecutor provides. All methods are safe for
// concurrent use.
type RunHandle struct {
	id     string
	agent  *Agent
	state  atomic.Int32
	value  any
	err    error
	done   chan struct{}
	cancel context.CancelFunc
}

// Spawn launches agent.RunToCompletion(ctx, workflow, args...) in a
// background goroutine and returns immediately with a handle for
// tracking, awaiting, or cancelling it. The run receives a child of the
// parent ctx, but workflow steps do not check it: cancelling ctx (or
// calling Cancel) does not stop a run already under way, and the run
// ends as RunCancelled only if it also returns an error.
func Spawn(ctx context.Context, agent *Agent, workflow string, args []any, opts ...SpawnOption) *RunHandle {
	var cfg spawnConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	logger := cfg.logger

	ctx, cancel := context.WithCancel(ctx)
	h := &RunHandle{id: NewID(), agent: agent, done: make(chan struct{}), cancel: cancel}
	h.state.Store(int32(RunPending))

	logger.Info("workflow run spawned", "agent", agent.Name, "workflow", workflow, "handle_id", h.id)

	go func() {
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				logger.Error("spawned run panic", "handle_id", h.id, "panic", fmt.Sprintf("%v", p))
				h.err = fmt.Errorf("run panic: %v", p)
				h.state.Store(int32(RunFailed))
				close(h.done)
			}
		}()

		h.state.Store(int32(RunRunning))
		value, err := agent.RunToCompletion(ctx, workflow, args...)
		h.value, h.err = value, err

		switch {
		case ctx.Err() != nil && err != nil:
			h.state.Store(int32(RunCancelled))
			logger.Info("spawned run cancelled", "handle_id", h.id)
		case err != nil:
			h.state.Store(int32(RunFailed))
			logger.Error("spawned run failed", "handle_id", h.id, "error", err)
		default:
			h.state.Store(int32(RunCompleted))
			logger.Info("spawned run completed", "handle_id", h.id)
		}
		close(h.done)
	}()

	return h
}

// ID returns the handle's unique identifier.
func (h *RunHandle) ID() string { return h.id }

// State returns the current run state. If the state is terminal, State
// waits for Done to close first, so Result is guaranteed valid afterward.
func (h *RunHandle) State() RunState {
	s := RunState(h.state.Load())
	if s.IsTerminal() {
		<-h.done
	}
	return s
}

// Done returns a channel closed when the run finishes in any terminal state.
func (h *RunHandle) Done() <-chan struct{} { return h.done }

// Await blocks until the run completes or ctx is cancelled.
func (h *RunHandle) Await(ctx context.Context) (any, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the run's value and error. Meaningful only after Done
// is closed; returns (nil, nil) before that.
func (h *RunHandle) Result() (any, error) {
	select {
	case <-h.done:
		return h.value, h.err
	default:
		return nil, nil
	}
}

// Cancel requests cancellation. Non-blocking.
func (h *RunHandle) Cancel() { h.cancel() }
