package agentkit

import "sort"

// UpdateWorkflowFromGraph rebuilds workflowName's step list from g and
// replaces the registered workflow in place. It is the inverse of
// WorkflowGraph: round-tripping through ToJSON/GraphFromJSON and back
// through UpdateWorkflowFromGraph reproduces the same tool calls in the
// same dependency order. The graph holds only tool-call nodes, so
// combine and helper steps are not rebuilt, and the rebuilt workflow
// returns the last-ordered node's output (see stepsFromGraph); a
// workflow that returned anything else, such as a ReturnCombine, comes
// back with a different terminal value.
//
// Returns *DeserializationError if g references a tool type the agent
// doesn't have, *CycleError if g's edges form a cycle, or
// *UnknownWorkflowError if workflowName was never registered.
func (a *Agent) UpdateWorkflowFromGraph(workflowName string, g *Graph) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	existing, ok := a.workflows[workflowName]
	if !ok {
		return &UnknownWorkflowError{Name: workflowName}
	}

	var missing []string
	for _, n := range g.Nodes {
		if _, ok := a.tools[n.Type]; !ok {
			missing = append(missing, n.Type)
		}
	}
	if len(missing) > 0 {
		return &DeserializationError{Workflow: workflowName, Missing: dedupe(missing)}
	}

	if bad := detectCycle(g); len(bad) > 0 {
		return &CycleError{Nodes: bad}
	}

	steps, err := stepsFromGraph(g)
	if err != nil {
		return err
	}

	a.workflows[workflowName] = &WorkflowDef{Name: workflowName, Doc: existing.Doc, Steps: steps}
	a.logger.Debug("workflow updated from graph", "agent", a.Name, "workflow", workflowName, "steps", len(steps))
	return nil
}

// stepsFromGraph topologically orders g's nodes by their edges (ties
// broken by original node order, for determinism) and emits one
// tool-call step per node, in dependency order, followed by a terminal
// Return step referencing the last-ordered node's output — unless that
// node is itself a return-shaped call (no output ports), in which case
// it's emitted directly as a ReturnCall step.
func stepsFromGraph(g *Graph) ([]Step, error) {
	order := topoOrder(g)

	steps := make([]Step, 0, len(order)+1)
	var lastVar string
	for i, n := range order {
		args := make([]Arg, len(n.Inputs))
		for j, p := range n.Inputs {
			if p.Literal {
				args[j] = Lit(p.Value)
			} else {
				args[j] = Var(p.Name)
			}
		}

		isTerminal := i == len(order)-1
		if isTerminal && len(n.Outputs) == 0 {
			steps = append(steps, Step{kind: stepReturn, retShape: returnCall, tool: n.Type, args: args})
			return steps, nil
		}

		varName := n.ID
		if len(n.Outputs) > 0 {
			varName = n.Outputs[0].Name
		}
		steps = append(steps, Step{kind: stepToolCall, varName: varName, tool: n.Type, args: args})
		lastVar = varName
	}
	if lastVar != "" {
		steps = append(steps, Step{kind: stepReturn, retShape: returnPlain, retArg: Var(lastVar)})
	}
	return steps, nil
}

// topoOrder performs a stable Kahn's-algorithm sort of g.Nodes. The
// caller is expected to have already checked for cycles.
func topoOrder(g *Graph) []Node {
	indexOf := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		indexOf[n.ID] = i
	}
	inDegree := make(map[string]int, len(g.Nodes))
	adj := make(map[string][]string)
	for _, n := range g.Nodes {
		inDegree[n.ID] = 0
	}
	for _, e := range g.Edges {
		src := g.nodeByPort(e.Source)
		dst := g.nodeByPort(e.Target)
		if src == nil || dst == nil || src.ID == dst.ID {
			continue
		}
		adj[src.ID] = append(adj[src.ID], dst.ID)
		inDegree[dst.ID]++
	}

	var ready []string
	for _, n := range g.Nodes {
		if inDegree[n.ID] == 0 {
			ready = append(ready, n.ID)
		}
	}

	var order []Node
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return indexOf[ready[i]] < indexOf[ready[j]] })
		id := ready[0]
		ready = ready[1:]
		order = append(order, g.Nodes[indexOf[id]])
		for _, next := range adj[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}
	return order
}
