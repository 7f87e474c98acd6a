package sandbox

// startMsg is the first line a worker reads: which agent member to run
// and with what arguments. Kind "tool" runs a single tool to completion
// (one resultMsg, no continuations); empty or "workflow" starts a
// step-wise workflow session.
type startMsg struct {
	Agent string `json:"agent"`
	Kind  string `json:"kind,omitempty"`
	Name  string `json:"name"`
	Args  []any  `json:"args"`
}

// commandMsg is sent after each result to request the next step or stop
// the session.
type commandMsg struct {
	Cmd string `json:"cmd"` // "continue" or "cancel"
}

// resultMsg is one line of worker output: either a step Result — Values
// holding its accumulated values (one element unless it's a combined
// Result) or Errs holding its accumulated error messages, never both —
// or a protocol-level failure (Type "error", Errs set) that ends the
// session without a Result to report.
type resultMsg struct {
	Type   string   `json:"type"` // "result" or "error"
	Values []any    `json:"values,omitempty"`
	Errs   []string `json:"errs,omitempty"`
	More   bool     `json:"more"`
}
