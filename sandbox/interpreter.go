package sandbox

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tool-agent/agentkit"
)

// WorkerInterpreter drives workflow execution through a Transport
// (subprocess or container), speaking the start/continue/cancel
// JSON-line protocol RunWorker implements on the other side. It
// satisfies agentkit.Interpreter.
type WorkerInterpreter struct {
	newTransport func() (Transport, error)
	stepTimeout  time.Duration
	maxOutput    int
}

// InterpreterOption configures a WorkerInterpreter.
type InterpreterOption func(*WorkerInterpreter)

// WithStepTimeout bounds how long each step waits for the worker's
// reply. On timeout the session's transport is torn down and the step
// fails. Default 30 seconds.
func WithStepTimeout(d time.Duration) InterpreterOption {
	return func(w *WorkerInterpreter) { w.stepTimeout = d }
}

// WithMaxOutput caps the size of a single result line read from the
// worker. A step whose serialized Result exceeds it fails the session.
// Default 1 MiB.
func WithMaxOutput(n int) InterpreterOption {
	return func(w *WorkerInterpreter) { w.maxOutput = n }
}

// NewWorkerInterpreter builds a WorkerInterpreter that starts a fresh
// Transport, via newTransport, for each session.
func NewWorkerInterpreter(newTransport func() (Transport, error), opts ...InterpreterOption) *WorkerInterpreter {
	w := &WorkerInterpreter{
		newTransport: newTransport,
		stepTimeout:  30 * time.Second,
		maxOutput:    1 << 20,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *WorkerInterpreter) StartSession(ctx context.Context, agentName, workflowName string, args []any) (agentkit.InterpreterSession, agentkit.Result, bool, error) {
	t, err := w.newTransport()
	if err != nil {
		return nil, agentkit.Result{}, false, err
	}
	stdin, stdout, err := t.Start(ctx)
	if err != nil {
		return nil, agentkit.Result{}, false, err
	}

	sess := &workerSession{transport: t, stdin: stdin, scanner: bufio.NewScanner(stdout), timeout: w.stepTimeout}
	sess.scanner.Buffer(make([]byte, min(64<<10, w.maxOutput)), w.maxOutput)

	if err := sess.send(startMsg{Agent: agentName, Name: workflowName, Args: args}); err != nil {
		t.Close()
		return nil, agentkit.Result{}, false, err
	}

	res, more, err := sess.readResult(ctx)
	if err != nil {
		t.Close()
		return nil, agentkit.Result{}, false, err
	}
	return sess, res, more, nil
}

// RunTool runs a single tool to completion in a fresh worker, tearing
// the worker down once the one result line is read.
func (w *WorkerInterpreter) RunTool(ctx context.Context, agentName, toolName string, args []any) (agentkit.Result, error) {
	t, err := w.newTransport()
	if err != nil {
		return agentkit.Result{}, err
	}
	defer t.Close()

	stdin, stdout, err := t.Start(ctx)
	if err != nil {
		return agentkit.Result{}, err
	}

	sess := &workerSession{transport: t, stdin: stdin, scanner: bufio.NewScanner(stdout), timeout: w.stepTimeout}
	sess.scanner.Buffer(make([]byte, min(64<<10, w.maxOutput)), w.maxOutput)

	if err := sess.send(startMsg{Agent: agentName, Kind: "tool", Name: toolName, Args: args}); err != nil {
		return agentkit.Result{}, err
	}
	res, _, err := sess.readResult(ctx)
	return res, err
}

type workerSession struct {
	transport Transport
	stdin     io.WriteCloser
	scanner   *bufio.Scanner
	timeout   time.Duration
}

func (s *workerSession) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.stdin, "%s\n", data)
	return err
}

// readResult waits for the worker's next line, bounded by the session's
// step timeout. On timeout (or ctx cancellation) the transport is torn
// down — closing it is also what unblocks the pending read.
func (s *workerSession) readResult(ctx context.Context) (agentkit.Result, bool, error) {
	scanned := make(chan bool, 1)
	go func() { scanned <- s.scanner.Scan() }()

	select {
	case ok := <-scanned:
		if !ok {
			return agentkit.Result{}, false, fmt.Errorf("sandbox: worker closed unexpectedly")
		}
	case <-time.After(s.timeout):
		s.transport.Close()
		return agentkit.Result{}, false, fmt.Errorf("sandbox: no reply within %s, worker torn down", s.timeout)
	case <-ctx.Done():
		s.transport.Close()
		return agentkit.Result{}, false, ctx.Err()
	}

	var msg resultMsg
	if err := json.Unmarshal(s.scanner.Bytes(), &msg); err != nil {
		return agentkit.Result{}, false, err
	}
	if msg.Type == "error" {
		return agentkit.Result{}, false, fmt.Errorf("sandbox worker: %s", strings.Join(msg.Errs, "; "))
	}
	return decodeResult(msg), msg.More, nil
}

// decodeResult rebuilds a Result from the wire form. A combined Result's
// original interleaving of values and errors across its operands isn't
// preserved across the wire — only the flattened value and error lists
// are — which is enough to report a workflow's final outcome but not to
// reconstruct the exact operand-by-operand shape Combine produced.
func decodeResult(msg resultMsg) agentkit.Result {
	if len(msg.Errs) == 1 {
		return agentkit.Err(fmt.Errorf("%s", msg.Errs[0]))
	}
	if len(msg.Errs) > 1 {
		parts := make([]agentkit.Result, len(msg.Errs))
		for i, e := range msg.Errs {
			parts[i] = agentkit.Err(fmt.Errorf("%s", e))
		}
		return agentkit.Combine(parts...)
	}
	switch len(msg.Values) {
	case 0:
		return agentkit.Ok(nil)
	case 1:
		return agentkit.Ok(msg.Values[0])
	default:
		parts := make([]agentkit.Result, len(msg.Values))
		for i, v := range msg.Values {
			parts[i] = agentkit.Ok(v)
		}
		return agentkit.Combine(parts...)
	}
}

func (s *workerSession) Continue(ctx context.Context) (agentkit.Result, bool, error) {
	if err := s.send(commandMsg{Cmd: "continue"}); err != nil {
		return agentkit.Result{}, false, err
	}
	return s.readResult(ctx)
}

func (s *workerSession) Cancel(ctx context.Context) error {
	_ = s.send(commandMsg{Cmd: "cancel"})
	return s.transport.Close()
}
