package agentkit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Agent holds a named set of tools and workflows built from them. Unlike
// a dynamic-language agent that discovers tools and workflows by scanning
// decorated methods at runtime, an Agent here is built by explicit
// registration — the Go analogue, since Go has neither decorators nor
// runtime parameter-name reflection.
type Agent struct {
	Name string

	mu        sync.RWMutex
	tools     map[string]*Tool
	workflows map[string]*WorkflowDef

	logger      *slog.Logger
	tracer      Tracer
	toolMetrics ToolMetrics
}

// AgentOption configures an Agent at construction time.
type AgentOption func(*Agent)

// WithLogger sets the structured logger used for registration and
// execution diagnostics. Defaults to slog.Default().
func WithLogger(l *slog.Logger) AgentOption {
	return func(a *Agent) { a.logger = l }
}

// WithTracer sets the Tracer used to emit spans for tool calls, whether
// made directly or as workflow steps; combine and helper steps get no
// span. Defaults to no tracing.
func WithTracer(t Tracer) AgentOption {
	return func(a *Agent) { a.tracer = t }
}

// WithToolMetrics sets the ToolMetrics sink that records a counter
// increment for every tool call this agent makes. Defaults to no
// metrics.
func WithToolMetrics(m ToolMetrics) AgentOption {
	return func(a *Agent) { a.toolMetrics = m }
}

// NewAgent creates an empty Agent ready for Tool/Workflow registration.
func NewAgent(name string, opts ...AgentOption) *Agent {
	a := &Agent{
		Name:      name,
		tools:     make(map[string]*Tool),
		workflows: make(map[string]*WorkflowDef),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Tool registers a tool under name. fn is wrapped per the tool-call
// algebra (see Tool.Call). Returns an error if name is already
// registered or fn isn't a function.
func (a *Agent) Tool(name, doc string, fn any, params ...Param) error {
	t, err := NewTool(name, doc, fn, params...)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	a.tools[name] = t
	a.logger.Debug("tool registered", "agent", a.Name, "tool", name)
	return nil
}

// MustTool calls Tool and panics on error. Intended for package-init-time
// registration where a misconfigured tool is a programmer error.
func (a *Agent) MustTool(name, doc string, fn any, params ...Param) {
	if err := a.Tool(name, doc, fn, params...); err != nil {
		panic(err)
	}
}

// Workflow builds a workflow named name by running build against a fresh
// Builder, then registers the resulting WorkflowDef. Returns an error if
// name is already registered, the builder recorded no steps, or any step
// references an unregistered tool.
func (a *Agent) Workflow(name, doc string, build func(*Builder)) error {
	b := newBuilder(a, name)
	build(b)
	if len(b.steps) == 0 {
		return fmt.Errorf("workflow %q: build function recorded no steps", name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.workflows[name]; exists {
		return fmt.Errorf("workflow %q already registered", name)
	}
	var missing []string
	for _, s := range b.steps {
		toolName := s.toolName()
		if toolName == "" {
			continue
		}
		if _, ok := a.tools[toolName]; !ok {
			missing = append(missing, toolName)
		}
	}
	if len(missing) > 0 {
		return &DeserializationError{Workflow: name, Missing: dedupe(missing)}
	}

	a.workflows[name] = &WorkflowDef{Name: name, Doc: doc, Steps: b.steps}
	a.logger.Debug("workflow registered", "agent", a.Name, "workflow", name, "steps", len(b.steps))
	return nil
}

// MustWorkflow calls Workflow and panics on error.
func (a *Agent) MustWorkflow(name, doc string, build func(*Builder)) {
	if err := a.Workflow(name, doc, build); err != nil {
		panic(err)
	}
}

// tool looks up a registered tool by name.
func (a *Agent) tool(name string) (*Tool, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	t, ok := a.tools[name]
	return t, ok
}

// graphLocked derives wf's graph with input-port types filled in from
// the agent's tool descriptors. Callers must hold a.mu.
func (a *Agent) graphLocked(wf *WorkflowDef) *Graph {
	return graphFromSteps(wf.Steps, func(tool string) []Param {
		if t, ok := a.tools[tool]; ok {
			return t.Params
		}
		return nil
	})
}

// workflow looks up a registered workflow by name.
func (a *Agent) workflow(name string) (*WorkflowDef, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	w, ok := a.workflows[name]
	return w, ok
}

// ToolNames returns registered tool names, sorted.
func (a *Agent) ToolNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.tools))
	for n := range a.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// WorkflowNames returns registered workflow names, sorted.
func (a *Agent) WorkflowNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.workflows))
	for n := range a.workflows {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CallTool invokes a registered tool directly, outside any workflow,
// with the same tracing and metrics treatment a workflow step gets.
// Arguments may be plain values or Results, per Tool.Call.
func (a *Agent) CallTool(ctx context.Context, name string, args ...any) (Result, error) {
	t, ok := a.tool(name)
	if !ok {
		return Result{}, &UnknownToolError{Name: name}
	}

	var span Span
	if a.tracer != nil {
		ctx, span = a.tracer.Start(ctx, "tool."+name, StringAttr("agent", a.Name))
		defer span.End()
	}

	res := t.Call(args...)

	if span != nil && res.IsErr() {
		span.Error(firstErr(res))
	}
	if a.toolMetrics != nil {
		a.toolMetrics.RecordToolCall(ctx, a.Name, name, res.IsOk())
	}
	return res, nil
}

// Run starts the named workflow and returns a StepIterator over it. The
// iterator yields one Result per tool call and per combine expression,
// per the step-wise execution contract; see StepIterator.Next.
func (a *Agent) Run(ctx context.Context, workflowName string, args ...any) (*StepIterator, error) {
	wf, ok := a.workflow(workflowName)
	if !ok {
		return nil, &UnknownWorkflowError{Name: workflowName}
	}
	return newStepIterator(a, wf, args), nil
}

// RunToCompletion drains a workflow's entire Result stream and returns
// only the final (post-Return) value, matching the non-stepwise execution
// mode. The first err Result encountered anywhere in the stream stops the
// drain and is returned as the error.
func (a *Agent) RunToCompletion(ctx context.Context, workflowName string, args ...any) (any, error) {
	it, err := a.Run(ctx, workflowName, args...)
	if err != nil {
		return nil, err
	}
	var last Result
	for {
		res, more := it.Next(ctx)
		if res.IsErr() {
			return nil, fmt.Errorf("workflow %q: %w", workflowName, firstErr(res))
		}
		last = res
		if !more {
			break
		}
	}
	v, _ := last.TryUnwrap()
	return v, nil
}

func firstErr(r Result) error {
	errs := r.Errors()
	if len(errs) == 0 {
		return fmt.Errorf("unknown error")
	}
	return errs[0]
}

// Describe renders a human-readable summary of the agent's tools and
// workflows: each tool's name and first doc line, and each workflow's
// graph as "type -> type" edges with the terminal node marked [return].
func (a *Agent) Describe() string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "agent %q\n", a.Name)

	fmt.Fprintln(&b, "tools:")
	for _, name := range sortedKeys(a.tools) {
		fmt.Fprintf(&b, "  %s: %s\n", name, firstLine(a.tools[name].Doc))
	}

	fmt.Fprintln(&b, "workflows:")
	for _, name := range sortedKeys(a.workflows) {
		wf := a.workflows[name]
		fmt.Fprintf(&b, "  %s: %s\n", name, firstLine(wf.Doc))
		g := a.graphLocked(wf)
		for i, n := range g.Nodes {
			mark := ""
			if i == len(g.Nodes)-1 {
				mark = " [return]"
			}
			fmt.Fprintf(&b, "    node %s (%s)%s\n", n.ID, n.Type, mark)
		}
		for _, e := range g.Edges {
			src := g.nodeByPort(e.Source)
			dst := g.nodeByPort(e.Target)
			if src != nil && dst != nil {
				fmt.Fprintf(&b, "    %s -> %s\n", src.Type, dst.Type)
			}
		}
	}
	return b.String()
}

// Summary returns a compact {tool -> doc, workflow -> doc} map, the Go
// analogue of the first-line metadata an external registry would record
// about this agent (name, tool list, workflow list) without any
// persistence of its own.
func (a *Agent) Summary() map[string]map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	tools := make(map[string]string, len(a.tools))
	for n, t := range a.tools {
		tools[n] = firstLine(t.Doc)
	}
	workflows := make(map[string]string, len(a.workflows))
	for n, w := range a.workflows {
		workflows[n] = firstLine(w.Doc)
	}
	return map[string]map[string]string{"tools": tools, "workflows": workflows}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dedupe(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
