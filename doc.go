// Package agentkit builds tool-using agents whose workflows are recorded as
// an explicit dataflow graph instead of free-form imperative code.
//
// An Agent registers Tools (plain Go functions wrapped to speak the Result
// algebra) and Workflows (built with a Builder that records each tool call
// and combine expression as an ordered step). Because the builder records
// the dependency structure directly, the workflow's graph — the thing
// ToJSON/GraphFromJSON round-trip as wire data — is a structural projection
// of that step list, not something recovered by parsing source text.
//
// Quick start:
//
//	a := agentkit.NewAgent("calc")
//	a.MustTool("add", "adds two ints", func(x, y int) int { return x + y },
//		agentkit.Param{Name: "a", Type: "int"}, agentkit.Param{Name: "b", Type: "int"})
//	a.MustTool("double", "doubles an int", func(x int) int { return x * 2 },
//		agentkit.Param{Name: "x", Type: "int"})
//	a.MustWorkflow("calc", "adds then doubles", func(b *agentkit.Builder) {
//		sum := b.Call("sum", "add", agentkit.Lit(2), agentkit.Lit(3))
//		b.ReturnCall("double", sum)
//	})
//
//	it, _ := a.Run(ctx, "calc")
//	for {
//		res, more := it.Next(ctx)
//		if !more {
//			break
//		}
//		_ = res
//	}
//
// Core interfaces: Tool, Result, Builder, Graph, StepIterator,
// StepwiseExecutor. Included implementations: an in-process interpreter
// and a subprocess-isolated interpreter (package sandbox), OTEL-backed
// tracing (package telemetry), and execution-trace stores backed by
// SQLite or Postgres (packages store/sqlite and store/postgres).
package agentkit
