// Command agentkit-worker is the subprocess entrypoint sandbox.New's
// "subprocess" mode re-execs. It registers the agents this deployment
// serves, then calls sandbox.RunMain to drop into worker mode when
// re-launched with AGENTKIT_SANDBOX_WORKER set. If RunMain returns
// false (the binary was launched directly, not re-exec'd), it falls
// through and drives a single agent/workflow from the command line
// instead, so the same binary doubles as both the worker and a
// standalone runner.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/tool-agent/agentkit"
	"github.com/tool-agent/agentkit/internal/config"
	"github.com/tool-agent/agentkit/internal/fixtures"
	"github.com/tool-agent/agentkit/sandbox"
	"github.com/tool-agent/agentkit/store/sqlite"
	"github.com/tool-agent/agentkit/telemetry"
)

func init() {
	sandbox.Register("calculator", fixtures.Calculator)
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmsgprefix)
	log.SetPrefix("[agentkit-worker] ")

	if sandbox.RunMain() {
		return
	}

	cfgPath := flag.String("config", "", "path to agentkit.toml")
	agentName := flag.String("agent", "calculator", "registered agent to run")
	workflow := flag.String("workflow", "compute", "workflow to start")
	argA := flag.Int("a", 2, "first workflow argument")
	argB := flag.Int("b", 3, "second workflow argument")
	flag.Parse()

	cfg := config.Load(*cfgPath)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var inst *telemetry.Instruments
	if cfg.Telemetry.Enabled {
		var shutdown func(context.Context) error
		var err error
		inst, shutdown, err = telemetry.Init(ctx)
		if err != nil {
			log.Fatalf("telemetry init: %v", err)
		}
		defer shutdown(ctx)
	}

	run(ctx, cfg, *agentName, *workflow, []any{*argA, *argB}, inst)
}

func run(ctx context.Context, cfg config.Config, agentName, workflow string, args []any, inst *telemetry.Instruments) {
	agents := map[string]*agentkit.Agent{agentName: fixtures.Calculator()}
	interp, err := sandbox.New(cfg.Sandbox.Mode, cfg.Sandbox.Image, agents,
		sandbox.WithStepTimeout(time.Duration(cfg.Sandbox.TimeoutSecs)*time.Second),
		sandbox.WithMaxOutput(cfg.Sandbox.MaxOutput))
	if err != nil {
		log.Fatalf("sandbox: %v", err)
	}

	opts := []agentkit.ExecutorOption{
		agentkit.WithKernelTTL(cfg.Executor.KernelTTL()),
	}
	if inst != nil {
		opts = append(opts, agentkit.WithMetrics(inst))
	}
	if cfg.Trace.Driver == "sqlite" {
		sink := sqlite.New(cfg.Trace.DSN, sqlite.WithLogger(slog.Default()))
		if err := sink.Init(ctx); err != nil {
			log.Fatalf("trace sink init: %v", err)
		}
		defer sink.Close()
		opts = append(opts, agentkit.WithTraceSink(sink))
	}

	exec := agentkit.NewStepwiseExecutor(interp, opts...)
	defer exec.Close()

	kernelID, res, err := exec.Start(ctx, agentName, workflow, args, true)
	if err != nil {
		log.Fatalf("start: %v", err)
	}
	for kernelID != "" {
		kernelID, res, err = exec.Continue(ctx, kernelID, agentName, workflow, args)
		if err != nil {
			log.Fatalf("continue: %v", err)
		}
	}

	v, err := res.TryUnwrap()
	if err != nil {
		log.Fatalf("workflow failed: %v", err)
	}
	fmt.Println(v)
}
