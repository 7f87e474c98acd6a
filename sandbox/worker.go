package sandbox

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tool-agent/agentkit"
)

// EnvVar is the environment variable a Transport sets to select worker
// mode when re-launching the binary. A main() that calls RunMain checks
// for it before doing anything else.
const EnvVar = "AGENTKIT_SANDBOX_WORKER"

// RunMain is the worker-process entrypoint. Call it unconditionally near
// the top of main() in any binary that also calls Register; it is a
// no-op returning false unless EnvVar is set, in which case it drives
// the worker loop against stdin/stdout and does not return.
func RunMain() bool {
	if os.Getenv(EnvVar) == "" {
		return false
	}
	if err := RunWorker(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "sandbox worker:", err)
		os.Exit(1)
	}
	os.Exit(0)
	return true
}

// RunWorker reads one startMsg from r, then alternates between stepping
// the resolved agent's workflow and reading a commandMsg from r, writing
// one resultMsg to w per step, until the workflow is exhausted, fails,
// or the peer sends "cancel" or closes its end.
func RunWorker(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)

	if !scanner.Scan() {
		return fmt.Errorf("sandbox: no start message")
	}
	var start startMsg
	if err := json.Unmarshal(scanner.Bytes(), &start); err != nil {
		return fmt.Errorf("sandbox: decode start message: %w", err)
	}

	agent, ok := lookup(start.Agent)
	if !ok {
		writeMsg(w, resultMsg{Type: "error", Errs: []string{fmt.Sprintf("unknown agent %q", start.Agent)}})
		return nil
	}

	ctx := context.Background()

	if start.Kind == "tool" {
		res, err := agent.CallTool(ctx, start.Name, start.Args...)
		if err != nil {
			writeMsg(w, resultMsg{Type: "error", Errs: []string{err.Error()}})
			return nil
		}
		writeStepResult(w, res, false)
		return nil
	}

	it, err := agent.Run(ctx, start.Name, start.Args...)
	if err != nil {
		writeMsg(w, resultMsg{Type: "error", Errs: []string{err.Error()}})
		return nil
	}

	for {
		res, more := it.Next(ctx)
		writeStepResult(w, res, more)
		if !more {
			return nil
		}

		if !scanner.Scan() {
			return nil
		}
		var cmd commandMsg
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			continue
		}
		if cmd.Cmd == "cancel" {
			return nil
		}
	}
}

func writeStepResult(w io.Writer, res agentkit.Result, more bool) {
	msg := resultMsg{Type: "result", More: more}
	if res.IsErr() {
		for _, e := range res.Errors() {
			msg.Errs = append(msg.Errs, e.Error())
		}
	} else {
		msg.Values = res.Values()
	}
	writeMsg(w, msg)
}

func writeMsg(w io.Writer, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "%s\n", data)
}
