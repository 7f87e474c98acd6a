package sandbox

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/tool-agent/agentkit/internal/fixtures"
)

func init() {
	Register("calculator", fixtures.Calculator)
}

func TestRunWorker_DrainsAllSteps(t *testing.T) {
	in := strings.NewReader(`{"agent":"calculator","name":"compute","args":[3,4]}` + "\n" +
		`{"cmd":"continue"}` + "\n" +
		`{"cmd":"continue"}` + "\n")
	var out bytes.Buffer

	if err := RunWorker(in, &out); err != nil {
		t.Fatalf("RunWorker: %v", err)
	}

	var msgs []resultMsg
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var m resultMsg
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.Fatalf("decode line %q: %v", scanner.Text(), err)
		}
		msgs = append(msgs, m)
	}

	if len(msgs) != 3 {
		t.Fatalf("expected 3 result lines (sum, product, combined return), got %d: %+v", len(msgs), msgs)
	}
	if len(msgs[0].Values) != 1 || msgs[0].Values[0] != float64(7) {
		t.Errorf("expected sum 7, got %v", msgs[0].Values)
	}
	if len(msgs[1].Values) != 1 || msgs[1].Values[0] != float64(12) {
		t.Errorf("expected product 12, got %v", msgs[1].Values)
	}
	if len(msgs[2].Values) != 2 || msgs[2].Values[0] != float64(7) || msgs[2].Values[1] != float64(12) {
		t.Errorf("expected combined return [7, 12], got %v", msgs[2].Values)
	}
	if !msgs[0].More || !msgs[1].More || msgs[2].More {
		t.Errorf("expected More true, true, false, got %v, %v, %v", msgs[0].More, msgs[1].More, msgs[2].More)
	}
}

func TestRunWorker_UnknownAgent(t *testing.T) {
	in := strings.NewReader(`{"agent":"nope","name":"compute","args":[]}` + "\n")
	var out bytes.Buffer

	if err := RunWorker(in, &out); err != nil {
		t.Fatalf("RunWorker: %v", err)
	}

	var m resultMsg
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Type != "error" {
		t.Errorf("expected protocol error, got %+v", m)
	}
}

func TestRunWorker_CancelStopsEarly(t *testing.T) {
	in := strings.NewReader(`{"agent":"calculator","name":"compute","args":[1,2]}` + "\n" +
		`{"cmd":"cancel"}` + "\n")
	var out bytes.Buffer

	if err := RunWorker(in, &out); err != nil {
		t.Fatalf("RunWorker: %v", err)
	}

	lines := bytes.Count(out.Bytes(), []byte("\n"))
	if lines != 1 {
		t.Fatalf("expected exactly 1 result line before cancel, got %d", lines)
	}
}

func TestRunWorker_DivideByZeroPropagatesAsErr(t *testing.T) {
	in := strings.NewReader(`{"agent":"calculator","name":"divideUnsafe","args":[5,0]}` + "\n")
	var out bytes.Buffer

	if err := RunWorker(in, &out); err != nil {
		t.Fatalf("RunWorker: %v", err)
	}

	var m resultMsg
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Type != "result" || len(m.Errs) == 0 {
		t.Fatalf("expected an err Result carried in a result message, got %+v", m)
	}
}

// loopbackTransport runs RunWorker in-process over pipes, so the full
// interpreter/worker protocol is exercised without spawning anything.
type loopbackTransport struct{}

func (t *loopbackTransport) Start(ctx context.Context) (io.WriteCloser, io.Reader, error) {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	go func() {
		defer outW.Close()
		RunWorker(inR, outW)
	}()
	return inW, outR, nil
}

func (t *loopbackTransport) Close() error { return nil }

func TestWorkerInterpreterLoopback(t *testing.T) {
	wi := NewWorkerInterpreter(func() (Transport, error) { return &loopbackTransport{}, nil })

	ctx := context.Background()
	sess, res, more, err := wi.StartSession(ctx, "calculator", "compute", []any{3, 4})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if !more || res.Value() != float64(7) {
		t.Fatalf("first step = (%v, %v), want (Ok(7), true)", res, more)
	}

	res, more, err = sess.Continue(ctx)
	if err != nil || !more || res.Value() != float64(12) {
		t.Fatalf("second step = (%v, %v, %v), want (Ok(12), true, nil)", res, more, err)
	}

	res, more, err = sess.Continue(ctx)
	if err != nil || more {
		t.Fatalf("terminal step = (%v, %v, %v), want more=false", res, more, err)
	}
	vals := res.Values()
	if len(vals) != 2 || vals[0] != float64(7) || vals[1] != float64(12) {
		t.Errorf("terminal combined values = %v, want [7 12]", vals)
	}
}

// stalledTransport never produces output, so every read waits forever.
type stalledTransport struct {
	out    *io.PipeReader
	outEnd *io.PipeWriter
	closed bool
}

func newStalledTransport() *stalledTransport {
	r, w := io.Pipe()
	return &stalledTransport{out: r, outEnd: w}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func (t *stalledTransport) Start(ctx context.Context) (io.WriteCloser, io.Reader, error) {
	return nopWriteCloser{io.Discard}, t.out, nil
}

func (t *stalledTransport) Close() error {
	t.closed = true
	return t.outEnd.Close()
}

func TestWorkerInterpreterStepTimeoutTearsDownTransport(t *testing.T) {
	tr := newStalledTransport()
	wi := NewWorkerInterpreter(func() (Transport, error) { return tr, nil },
		WithStepTimeout(50*time.Millisecond))

	_, _, _, err := wi.StartSession(context.Background(), "calculator", "compute", []any{1, 2})
	if err == nil || !strings.Contains(err.Error(), "no reply") {
		t.Fatalf("expected a step-timeout error, got %v", err)
	}
	if !tr.closed {
		t.Errorf("a timed-out step should tear the transport down")
	}
}

func TestRunWorker_ToolKindIsSingleShot(t *testing.T) {
	in := strings.NewReader(`{"agent":"calculator","kind":"tool","name":"add","args":[2,3]}` + "\n")
	var out bytes.Buffer

	if err := RunWorker(in, &out); err != nil {
		t.Fatalf("RunWorker: %v", err)
	}

	var m resultMsg
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.More {
		t.Errorf("a tool run must not offer continuations")
	}
	if len(m.Values) != 1 || m.Values[0] != float64(5) {
		t.Errorf("expected add(2, 3) = 5, got %v", m.Values)
	}
}

func TestWorkerInterpreterRunToolLoopback(t *testing.T) {
	wi := NewWorkerInterpreter(func() (Transport, error) { return &loopbackTransport{}, nil })
	res, err := wi.RunTool(context.Background(), "calculator", "multiply", []any{6, 7})
	if err != nil {
		t.Fatalf("RunTool: %v", err)
	}
	if res.Value() != float64(42) {
		t.Errorf("RunTool(multiply, 6, 7) = %v, want 42", res.Value())
	}
}
