package agentkit

import "testing"

func TestArgString(t *testing.T) {
	if Lit(42).String() != "42" {
		t.Errorf("Lit(42).String() = %q", Lit(42).String())
	}
	if Var("x").String() != "x" {
		t.Errorf("Var(\"x\").String() = %q", Var("x").String())
	}
}

func TestBuilderCallBindsVariable(t *testing.T) {
	b := newBuilder(NewAgent("t"), "wf")
	out := b.Call("sum", "add", Lit(1), Lit(2))
	if out.String() != "sum" || !out.isVar {
		t.Errorf("Call should return a Var referencing the bound name, got %+v", out)
	}
	if len(b.steps) != 1 || b.steps[0].kind != stepToolCall {
		t.Fatalf("expected one stepToolCall, got %+v", b.steps)
	}
	if !b.bound["sum"] {
		t.Errorf("expected \"sum\" to be marked bound")
	}
}

func TestBuilderCombine(t *testing.T) {
	b := newBuilder(NewAgent("t"), "wf")
	sum := b.Call("sum", "add", Lit(1), Lit(2))
	prod := b.Call("prod", "multiply", Lit(1), Lit(2))
	out := b.Combine("both", sum, prod)
	if out.String() != "both" {
		t.Errorf("Combine should return a Var referencing the bound name")
	}
	if len(b.steps) != 3 || b.steps[2].kind != stepCombine {
		t.Fatalf("expected a trailing stepCombine, got %+v", b.steps)
	}
}

func TestBuilderHelperInvisibleToToolName(t *testing.T) {
	b := newBuilder(NewAgent("t"), "wf")
	b.Helper(func(v Vars) {})
	if b.steps[0].toolName() != "" {
		t.Errorf("a helper step should never report a tool name")
	}
}

func TestStepToolNameCoversToolCallAndReturnCall(t *testing.T) {
	call := Step{kind: stepToolCall, tool: "add"}
	if call.toolName() != "add" {
		t.Errorf("stepToolCall.toolName() = %q, want add", call.toolName())
	}
	ret := Step{kind: stepReturn, retShape: returnCall, tool: "add"}
	if ret.toolName() != "add" {
		t.Errorf("returnCall.toolName() = %q, want add", ret.toolName())
	}
	plain := Step{kind: stepReturn, retShape: returnPlain}
	if plain.toolName() != "" {
		t.Errorf("returnPlain.toolName() should be empty, got %q", plain.toolName())
	}
}

func TestAgentWorkflowBuildsGraph(t *testing.T) {
	a := NewAgent("graphy")
	a.MustTool("add", "adds", func(x, y int) int { return x + y },
		Param{Name: "a", Type: "int"}, Param{Name: "b", Type: "int"})
	err := a.Workflow("wf", "doc", func(b *Builder) {
		sum := b.Call("sum", "add", Lit(1), Lit(2))
		b.Return(sum)
	})
	if err != nil {
		t.Fatalf("Workflow: %v", err)
	}
	g, err := a.WorkflowGraph("wf")
	if err != nil {
		t.Fatalf("WorkflowGraph: %v", err)
	}
	if len(g.Nodes) != 1 || g.Nodes[0].Type != "add" {
		t.Errorf("expected a single add node, got %+v", g.Nodes)
	}
	for i, p := range g.Nodes[0].Inputs {
		if p.Type != "int" {
			t.Errorf("input port %d should carry the declared param type, got %+v", i, p)
		}
	}
}
