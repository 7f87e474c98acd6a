package sandbox

import (
	"fmt"
	"os"

	"github.com/tool-agent/agentkit"
)

// New builds an agentkit.Interpreter from a sandbox mode name
// ("inprocess", "subprocess", "container"). agents backs "inprocess"
// directly; "subprocess" and "container" instead dispatch by name
// against whatever the worker binary registered via Register. opts
// apply only to the worker-backed modes.
func New(mode, image string, agents map[string]*agentkit.Agent, opts ...InterpreterOption) (agentkit.Interpreter, error) {
	switch mode {
	case "", "inprocess":
		return agentkit.NewInProcessInterpreter(agents), nil
	case "subprocess":
		bin, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("sandbox: resolve self path: %w", err)
		}
		return NewWorkerInterpreter(func() (Transport, error) {
			return NewSubprocessTransport(bin), nil
		}, opts...), nil
	case "container":
		if image == "" {
			return nil, fmt.Errorf("sandbox: container mode requires an image")
		}
		return NewWorkerInterpreter(func() (Transport, error) {
			return NewContainerTransport(image)
		}, opts...), nil
	default:
		return nil, fmt.Errorf("sandbox: unknown mode %q", mode)
	}
}
