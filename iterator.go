package agentkit

import (
	"context"
	"fmt"
)

// StepIterator is a lazy, finite, non-restartable sequence of Results
// over one workflow run. Next yields once per tool call and once per
// combine expression; a plain or combine-expression return produces no
// additional yield and instead sets the value retrievable via Result
// once the sequence is exhausted.
type StepIterator struct {
	agent *Agent
	def   *WorkflowDef
	vars  map[string]Result

	idx               int
	done              bool
	final             Result
	pendingReturnCall *Step
}

func newStepIterator(a *Agent, def *WorkflowDef, args []any) *StepIterator {
	vars := make(map[string]Result, len(def.Steps))
	for i, v := range args {
		vars[argName(i)] = Ok(v)
	}
	return &StepIterator{agent: a, def: def, vars: vars}
}

func argName(i int) string {
	return fmt.Sprintf("arg%d", i)
}

// Next advances the sequence by one yield point and reports whether more
// output follows. When it returns false, the sequence is exhausted and
// Result holds the workflow's terminal value (or its terminal error).
// Calling Next again after it has returned false is safe: it keeps
// returning the terminal Result with no side effects — the sequence does
// not restart.
func (it *StepIterator) Next(ctx context.Context) (Result, bool) {
	if it.done {
		return it.final, false
	}

	if it.pendingReturnCall != nil {
		step := it.pendingReturnCall
		it.pendingReturnCall = nil
		it.final = it.callTool(ctx, step.tool, step.args)
		it.done = true
		return it.final, false
	}

	for it.idx < len(it.def.Steps) {
		step := it.def.Steps[it.idx]
		it.idx++

		switch step.kind {
		case stepHelper:
			step.helper(it.vars)
			continue

		case stepToolCall:
			res := it.callTool(ctx, step.tool, step.args)
			it.vars[step.varName] = res
			if res.IsErr() {
				it.done = true
				it.final = res
				return it.final, false
			}
			return res, true

		case stepCombine:
			res := it.resolve(step.left).Combine(it.resolve(step.right))
			it.vars[step.varName] = res
			if res.IsErr() {
				it.done = true
				it.final = res
				return it.final, false
			}
			return res, true

		case stepReturn:
			switch step.retShape {
			case returnPlain:
				it.final = it.resolve(step.retArg)
				it.done = true
				return it.final, false

			case returnCombine:
				it.final = it.resolve(step.left).Combine(it.resolve(step.right))
				it.done = true
				return it.final, false

			case returnCall:
				res := it.callTool(ctx, step.tool, step.args)
				if res.IsErr() {
					it.done = true
					it.final = res
					return it.final, false
				}
				it.pendingReturnCall = &step
				return res, true
			}
		}
	}

	it.done = true
	return it.final, false
}

// Result returns the workflow's terminal value. Only meaningful once
// Next has returned false.
func (it *StepIterator) Result() Result { return it.final }

// Done reports whether the sequence is exhausted.
func (it *StepIterator) Done() bool { return it.done }

func (it *StepIterator) resolve(a Arg) Result {
	if !a.isVar {
		return Ok(a.lit)
	}
	v, ok := it.vars[a.name]
	if !ok {
		return Err(&UnknownVariableError{Name: a.name})
	}
	return v
}

func (it *StepIterator) callTool(ctx context.Context, tool string, args []Arg) Result {
	callArgs := make([]any, len(args))
	for i, a := range args {
		if a.isVar {
			v, ok := it.vars[a.name]
			if !ok {
				return Err(&UnknownVariableError{Name: a.name})
			}
			callArgs[i] = v
		} else {
			callArgs[i] = a.lit
		}
	}

	res, err := it.agent.CallTool(ctx, tool, callArgs...)
	if err != nil {
		return Err(err)
	}
	return res
}
