package agentkit

import (
	"encoding/json"
	"os"
)

// ToJSON serializes the graph to the {nodes, edges} wire format.
func (g *Graph) ToJSON() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// GraphFromJSON deserializes the {nodes, edges} wire format into a Graph.
// It performs no validation against any agent's tool set — that happens
// in Agent.UpdateWorkflowFromGraph.
func GraphFromJSON(data []byte) (*Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// WorkflowGraph returns the dataflow graph for a registered workflow,
// with each input port carrying its declared parameter type name.
func (a *Agent) WorkflowGraph(name string) (*Graph, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	wf, ok := a.workflows[name]
	if !ok {
		return nil, &UnknownWorkflowError{Name: name}
	}
	return a.graphLocked(wf), nil
}

// exportedTool and exportedWorkflow mirror the shape of an external
// agent-metadata export: enough to register or display the agent
// elsewhere without shipping any persistence of its own.
type exportedTool struct {
	Description string            `json:"description"`
	Parameters  map[string]string `json:"parameters"`
}

type exportedWorkflow struct {
	Doc   string `json:"doc"`
	Graph *Graph `json:"graph"`
}

type exportedAgent struct {
	Tools     map[string]exportedTool     `json:"tools"`
	Workflows map[string]exportedWorkflow `json:"workflows"`
}

// ExportJSON renders the agent's full tool and workflow metadata —
// including each workflow's graph — as a single JSON document, for
// handoff to an external registry or UI.
func (a *Agent) ExportJSON() ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := exportedAgent{
		Tools:     make(map[string]exportedTool, len(a.tools)),
		Workflows: make(map[string]exportedWorkflow, len(a.workflows)),
	}
	for name, t := range a.tools {
		params := make(map[string]string, len(t.Params))
		for _, p := range t.Params {
			params[p.Name] = p.Type
		}
		out.Tools[name] = exportedTool{Description: t.Doc, Parameters: params}
	}
	for name, w := range a.workflows {
		out.Workflows[name] = exportedWorkflow{Doc: w.Doc, Graph: a.graphLocked(w)}
	}
	return json.MarshalIndent(out, "", "  ")
}

// ExportJSONFile writes ExportJSON's report to path.
func (a *Agent) ExportJSONFile(path string) error {
	data, err := a.ExportJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
