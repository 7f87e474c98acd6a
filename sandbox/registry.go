// Package sandbox provides isolated execution boundaries for
// agentkit workflows: a subprocess transport (the same binary re-exec'd
// in worker mode) and a container transport (Docker), both speaking the
// same start/continue/cancel JSON-line protocol a local in-process
// interpreter skips entirely.
package sandbox

import "github.com/tool-agent/agentkit"

// AgentFactory builds a fresh *agentkit.Agent. A worker process can't
// receive a live Go value across a process or container boundary, so
// each side resolves an agent by name against a statically compiled
// registry instead of dynamically importing a module path — Go has no
// runtime equivalent of importlib.
type AgentFactory func() *agentkit.Agent

var registry = map[string]AgentFactory{}

// Register adds name to the worker-side agent registry. Call it from an
// init() in the same binary that calls RunMain, so a worker subprocess
// (which re-execs that binary) can resolve agentName from the protocol's
// start message.
func Register(name string, factory AgentFactory) {
	registry[name] = factory
}

func lookup(name string) (*agentkit.Agent, bool) {
	f, ok := registry[name]
	if !ok {
		return nil, false
	}
	return f(), true
}
