package agentkit

import "fmt"

// Port is one named input or output slot on a Node. Literal is carried
// explicitly rather than inferred from surrounding quote characters in a
// serialized name — an explicit flag resolves the literal-vs-identifier
// ambiguity a string-based heuristic runs into with bare numeric literals.
type Port struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Literal bool   `json:"literal"`
	Value   any    `json:"value,omitempty"`
}

// Position is a node's synthetic layout coordinate. The graph carries no
// real layout engine — nodes are laid out left to right in step order.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Node is one tool call in a workflow graph. Only tool-call steps (Call
// and ReturnCall) produce nodes — combine expressions and helper
// statements are not tool calls and are invisible to the graph, matching
// the dependency analysis this graph format is derived from.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"` // tool name
	Inputs   []Port   `json:"inputs"`
	Outputs  []Port   `json:"outputs"`
	Position Position `json:"position"`
}

// Edge links one node's output port to another node's input port.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"` // output port id
	Target string `json:"target"` // input port id
}

// Graph is the dataflow graph extracted from a workflow's step list.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

func (g *Graph) nodeByPort(portID string) *Node {
	for i := range g.Nodes {
		for _, p := range g.Nodes[i].Outputs {
			if p.ID == portID {
				return &g.Nodes[i]
			}
		}
		for _, p := range g.Nodes[i].Inputs {
			if p.ID == portID {
				return &g.Nodes[i]
			}
		}
	}
	return nil
}

// graphFromSteps walks a step list in order, emitting one node per
// tool-call step (Call or ReturnCall) and wiring edges wherever an input
// argument references a variable an earlier node's output was bound to.
// params supplies a tool's declared parameters so input ports carry their
// type names; nil leaves port types empty.
func graphFromSteps(steps []Step, params func(tool string) []Param) *Graph {
	g := &Graph{}
	outputPort := make(map[string]string) // var name -> output port id

	addNode := func(tool string, args []Arg, varName string) {
		idx := len(g.Nodes)
		node := Node{
			ID:       fmt.Sprintf("n%d", idx),
			Type:     tool,
			Position: Position{X: idx * 150, Y: 100},
		}
		var declared []Param
		if params != nil {
			declared = params(tool)
		}
		for i, a := range args {
			portID := fmt.Sprintf("%s.in%d", node.ID, i)
			port := Port{ID: portID, Name: a.String(), Literal: !a.isVar}
			if i < len(declared) {
				port.Type = declared[i].Type
			}
			if !a.isVar {
				port.Value = a.lit
			}
			node.Inputs = append(node.Inputs, port)
			if a.isVar {
				if srcPort, ok := outputPort[a.name]; ok {
					g.Edges = append(g.Edges, Edge{
						ID:     fmt.Sprintf("e%d", len(g.Edges)),
						Source: srcPort,
						Target: portID,
					})
				}
			}
		}
		if varName != "" {
			outPort := fmt.Sprintf("%s.out", node.ID)
			node.Outputs = append(node.Outputs, Port{ID: outPort, Name: varName})
			outputPort[varName] = outPort
		}
		g.Nodes = append(g.Nodes, node)
	}

	for _, s := range steps {
		switch {
		case s.kind == stepToolCall:
			addNode(s.tool, s.args, s.varName)
		case s.kind == stepReturn && s.retShape == returnCall:
			addNode(s.tool, s.args, "")
		}
	}
	return g
}

// detectCycle reports whether the graph's edges contain a dependency
// cycle, using Kahn's algorithm: nodes whose in-degree never reaches zero
// are part of (or depend on) a cycle.
func detectCycle(g *Graph) []string {
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

	var queue []string
	for id, d := range inDegree {
		if d == 0 {
			queue = append(queue, id)
		}
	}
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range adj[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if visited == len(g.Nodes) {
		return nil
	}
	var remaining []string
	for id, d := range inDegree {
		if d > 0 {
			remaining = append(remaining, id)
		}
	}
	return remaining
}

// findUnreachable returns node ids whose output no other node consumes
// and that aren't the graph's terminal (last) node — candidates a
// caller should warn about, since their results are computed but never
// consumed.
func findUnreachable(g *Graph) []string {
	if len(g.Nodes) == 0 {
		return nil
	}
	consumed := make(map[string]bool)
	for _, e := range g.Edges {
		if src := g.nodeByPort(e.Source); src != nil {
			consumed[src.ID] = true
		}
	}
	terminal := g.Nodes[len(g.Nodes)-1].ID
	var unreached []string
	for _, n := range g.Nodes {
		if n.ID == terminal || consumed[n.ID] {
			continue
		}
		unreached = append(unreached, n.ID)
	}
	return unreached
}
