// Package fixtures builds small example agents shared by package tests.
// It is not part of agentkit's public surface.
package fixtures

import (
	"fmt"

	"github.com/tool-agent/agentkit"
)

// Calculator builds an agent with "add", "multiply" and "divide" tools
// and three workflows: "compute" ((a+b) combined with (a*b), returned as
// the combine of both — the worked scenario new tests are checked
// against), "doubleAdd" and "divideUnsafe".
func Calculator() *agentkit.Agent {
	a := agentkit.NewAgent("calculator")

	a.MustTool("add", "add returns a + b.", func(x, y int) int { return x + y },
		agentkit.Param{Name: "a", Type: "int"}, agentkit.Param{Name: "b", Type: "int"})

	a.MustTool("multiply", "multiply returns a * b.", func(x, y int) int { return x * y },
		agentkit.Param{Name: "a", Type: "int"}, agentkit.Param{Name: "b", Type: "int"})

	a.MustTool("divide", "divide returns a / b, or an error if b is zero.", func(x, y int) (int, error) {
		if y == 0 {
			return 0, fmt.Errorf("divide by zero")
		}
		return x / y, nil
	}, agentkit.Param{Name: "a", Type: "int"}, agentkit.Param{Name: "b", Type: "int"})

	a.MustWorkflow("compute", "compute combines a+b with a*b.", func(b *agentkit.Builder) {
		sum := b.Call("sum", "add", agentkit.Var("arg0"), agentkit.Var("arg1"))
		product := b.Call("product", "multiply", agentkit.Var("arg0"), agentkit.Var("arg1"))
		b.ReturnCombine(sum, product)
	})

	a.MustWorkflow("doubleAdd", "doubleAdd calls add, then doubles the result via the same tool.", func(b *agentkit.Builder) {
		b.Call("sum", "add", agentkit.Var("arg0"), agentkit.Var("arg1"))
		b.ReturnCall("add", agentkit.Var("sum"), agentkit.Var("sum"))
	})

	a.MustWorkflow("divideUnsafe", "divideUnsafe divides a by b with no guard against zero.", func(b *agentkit.Builder) {
		b.Call("quotient", "divide", agentkit.Var("arg0"), agentkit.Var("arg1"))
		b.Return(agentkit.Var("quotient"))
	})

	return a
}
