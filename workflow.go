package agentkit

import "fmt"

// Arg is one argument to a tool call or combine expression: either a
// literal value or a reference to the output of an earlier step. This
// makes the literal/variable distinction an explicit flag set at
// construction time, rather than something recovered later by sniffing
// quote characters around a serialized name.
type Arg struct {
	isVar bool
	name  string // set when isVar
	lit   any    // set when !isVar
}

// Lit wraps a literal argument value.
func Lit(v any) Arg { return Arg{lit: v} }

// Var references the output of an earlier step by the variable name
// that step was bound to.
func Var(name string) Arg { return Arg{isVar: true, name: name} }

func (a Arg) String() string {
	if a.isVar {
		return a.name
	}
	return fmt.Sprintf("%v", a.lit)
}

// stepKind distinguishes the four step shapes a Builder can record.
type stepKind int

const (
	stepToolCall stepKind = iota // x = self.tool(args...)
	stepCombine                  // x = a | b
	stepHelper                   // an ordinary statement; doesn't yield, invisible to the graph
	stepReturn                   // return <arg> | return self.tool(args...) | return a | b
)

// returnShape distinguishes the three forms a return step can take,
// which determines whether it yields and whether the graph records it.
type returnShape int

const (
	returnPlain returnShape = iota // return <var-or-literal>; no extra yield
	returnCall                     // return self.tool(args...); yields once, then the tool
	// runs again to produce the actual return value — a faithfully
	// preserved quirk of the AST transform this builder replaces.
	returnCombine // return a | b; not wrapped with yield, per spec's chosen
	// resolution of the return-vs-combine asymmetry.
)

// Step is one recorded unit of a workflow body.
type Step struct {
	kind stepKind

	varName string // bound variable name, for stepToolCall/stepCombine
	tool    string // tool name, for stepToolCall and returnCall
	args    []Arg  // call arguments, for stepToolCall and returnCall

	left, right Arg // for stepCombine / returnCombine

	helper func(Vars)

	retShape returnShape
	retArg   Arg // for returnPlain
}

func (s Step) toolName() string {
	if s.kind == stepToolCall || (s.kind == stepReturn && s.retShape == returnCall) {
		return s.tool
	}
	return ""
}

// Vars is the live variable bindings available to a Helper step,
// keyed by the names earlier steps were bound to.
type Vars map[string]Result

// Builder records a workflow body as an ordered step list. Each Call and
// Combine call yields one Result at execution time; Return marks the
// workflow's terminal value.
type Builder struct {
	agent *Agent
	name  string
	steps []Step
	bound map[string]bool
}

func newBuilder(a *Agent, name string) *Builder {
	return &Builder{agent: a, name: name, bound: make(map[string]bool)}
}

// Call records `varName = self.tool(args...)` and returns an Arg
// referencing varName, so later steps can depend on this call's output.
func (b *Builder) Call(varName, tool string, args ...Arg) Arg {
	b.steps = append(b.steps, Step{kind: stepToolCall, varName: varName, tool: tool, args: args})
	b.bound[varName] = true
	return Var(varName)
}

// Combine records `varName = left | right` and returns an Arg referencing
// varName.
func (b *Builder) Combine(varName string, left, right Arg) Arg {
	b.steps = append(b.steps, Step{kind: stepCombine, varName: varName, left: left, right: right})
	b.bound[varName] = true
	return Var(varName)
}

// Helper records an ordinary, non-yielding statement: an arbitrary
// closure over the current variable bindings. Helper steps do not yield
// and, like combine steps, are invisible to the workflow graph, which
// records only tool calls.
func (b *Builder) Helper(fn func(Vars)) {
	b.steps = append(b.steps, Step{kind: stepHelper, helper: fn})
}

// Return records a terminal `return <arg>` with no additional yield.
func (b *Builder) Return(arg Arg) {
	b.steps = append(b.steps, Step{kind: stepReturn, retShape: returnPlain, retArg: arg})
}

// ReturnCall records a terminal `return self.tool(args...)`. This yields
// the call's Result once, the same as Call, and then — matching the
// original transform's behavior — invokes the tool a second time to
// produce the actual return value.
func (b *Builder) ReturnCall(tool string, args ...Arg) {
	b.steps = append(b.steps, Step{kind: stepReturn, retShape: returnCall, tool: tool, args: args})
}

// ReturnCombine records a terminal `return left | right`. Per spec, a
// combine expression in return position is not wrapped with an extra
// yield (unlike a combine assignment, which always yields).
func (b *Builder) ReturnCombine(left, right Arg) {
	b.steps = append(b.steps, Step{kind: stepReturn, retShape: returnCombine, left: left, right: right})
}

// WorkflowDef is a registered workflow: its name, doc, and step list.
type WorkflowDef struct {
	Name  string
	Doc   string
	Steps []Step
}

// Graph derives the workflow's dataflow graph from its step list. See
// graph.go for the Node/Port/Edge shapes and the derivation rules.
// Port types are left empty here, since a WorkflowDef doesn't know its
// owning agent's tool descriptors; Agent.WorkflowGraph fills them in.
func (w *WorkflowDef) Graph() *Graph {
	return graphFromSteps(w.Steps, nil)
}
