package agentkit

import (
	"encoding/json"
	"testing"
)

func TestGraphJSONRoundTrip(t *testing.T) {
	steps := []Step{
		{kind: stepToolCall, varName: "sum", tool: "add", args: []Arg{Lit(1), Lit(2)}},
		{kind: stepReturn, retShape: returnPlain, retArg: Var("sum")},
	}
	g := graphFromSteps(steps, nil)

	data, err := g.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	g2, err := GraphFromJSON(data)
	if err != nil {
		t.Fatalf("GraphFromJSON: %v", err)
	}
	if len(g2.Nodes) != len(g.Nodes) || g2.Nodes[0].Type != g.Nodes[0].Type {
		t.Errorf("round-tripped graph mismatch: %+v vs %+v", g2.Nodes, g.Nodes)
	}
}

func TestWorkflowGraphUnknownWorkflow(t *testing.T) {
	a := NewAgent("empty")
	_, err := a.WorkflowGraph("nope")
	if _, ok := err.(*UnknownWorkflowError); !ok {
		t.Fatalf("expected *UnknownWorkflowError, got %T", err)
	}
}

func TestExportJSONIncludesToolsAndGraphs(t *testing.T) {
	a := NewAgent("exporter")
	a.MustTool("add", "adds two numbers", func(x, y int) int { return x + y },
		Param{Name: "a", Type: "int"}, Param{Name: "b", Type: "int"})
	a.MustWorkflow("wf", "adds", func(b *Builder) {
		sum := b.Call("sum", "add", Lit(1), Lit(2))
		b.Return(sum)
	})

	data, err := a.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	var parsed exportedAgent
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	if _, ok := parsed.Tools["add"]; !ok {
		t.Errorf("export missing tool add: %+v", parsed.Tools)
	}
	wf, ok := parsed.Workflows["wf"]
	if !ok || wf.Graph == nil || len(wf.Graph.Nodes) != 1 {
		t.Errorf("export missing workflow graph: %+v", parsed.Workflows)
	}
}
