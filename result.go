package agentkit

import "fmt"

// Result carries the outcome of a tool call: exactly one of a success
// value or an error, or — after Combine — an accumulated set of either.
//
// At most one of (value, combinedValues) and at most one of (err,
// combinedErrors) carries payload at a time; Combine is what moves a
// Result from the single-value shape into the combined shape.
type Result struct {
	value any
	err   error

	combinedValues []any
	combinedErrors []error
}

// Ok wraps a successful value.
func Ok(v any) Result { return Result{value: v} }

// Err wraps a failure.
func Err(err error) Result { return Result{err: err} }

// Errf wraps a failure built from a format string, like fmt.Errorf.
func Errf(format string, a ...any) Result { return Result{err: fmt.Errorf(format, a...)} }

// IsOk reports whether the Result carries no error, single or combined.
func (r Result) IsOk() bool { return r.err == nil && len(r.combinedErrors) == 0 }

// IsErr reports whether the Result carries an error, single or combined.
func (r Result) IsErr() bool { return !r.IsOk() }

// Combine merges r and other into a new Result that accumulates both
// sides' values and errors. It is associative: combining three Results
// two different ways produces Results with the same combinedValues and
// combinedErrors, in call order.
func (r Result) Combine(other Result) Result {
	var values []any
	var errs []error

	if len(r.combinedValues) > 0 || len(r.combinedErrors) > 0 {
		values = append(values, r.combinedValues...)
		errs = append(errs, r.combinedErrors...)
	} else if r.err == nil {
		values = append(values, r.value)
	} else {
		errs = append(errs, r.err)
	}

	if len(other.combinedValues) > 0 || len(other.combinedErrors) > 0 {
		values = append(values, other.combinedValues...)
		errs = append(errs, other.combinedErrors...)
	} else if other.err == nil {
		values = append(values, other.value)
	} else {
		errs = append(errs, other.err)
	}

	out := Result{}
	if len(values) > 0 {
		out.combinedValues = values
	}
	if len(errs) > 0 {
		out.combinedErrors = errs
	}
	return out
}

// Combine is the free-function form, useful when chaining without a
// receiver in hand, e.g. agentkit.Combine(a, b, c).
func Combine(results ...Result) Result {
	if len(results) == 0 {
		return Result{}
	}
	out := results[0]
	for _, r := range results[1:] {
		out = out.Combine(r)
	}
	return out
}

// multiError aggregates the errors carried by a combined Result.
type multiError struct {
	errs []error
}

func (m *multiError) Error() string {
	msg := "multiple errors:"
	for _, e := range m.errs {
		msg += " " + e.Error() + ";"
	}
	return msg
}

func (m *multiError) Unwrap() []error { return m.errs }

// Unwrap returns the carried value on success. On failure it panics: with
// the single error if the Result is a plain error Result, or with an
// aggregate error if the Result accumulated multiple errors via Combine.
// Callers that want an idiomatic (value, error) pair should use TryUnwrap.
func (r Result) Unwrap() any {
	v, err := r.TryUnwrap()
	if err != nil {
		panic(err)
	}
	return v
}

// TryUnwrap is the non-panicking form of Unwrap: it returns the carried
// value and a nil error on success, or a zero value and the carried
// (possibly aggregated) error on failure. A combined, all-ok Result
// returns its values as a []any.
func (r Result) TryUnwrap() (any, error) {
	if len(r.combinedErrors) > 0 {
		return nil, &multiError{errs: r.combinedErrors}
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.combinedValues != nil {
		return r.combinedValues, nil
	}
	return r.value, nil
}

// Error returns the carried single error, or nil if the Result is ok or
// holds a combined error set (use Errors for that).
func (r Result) Error() error { return r.err }

// Errors returns the full list of accumulated errors, whether the
// Result is a plain error Result (length 1) or a combined one.
func (r Result) Errors() []error {
	if len(r.combinedErrors) > 0 {
		return r.combinedErrors
	}
	if r.err != nil {
		return []error{r.err}
	}
	return nil
}

// Value returns the carried single value, ignoring any error.
func (r Result) Value() any { return r.value }

// Values returns the accumulated values of a combined Result, or a
// single-element slice for a plain value Result.
func (r Result) Values() []any {
	if r.combinedValues != nil {
		return r.combinedValues
	}
	return []any{r.value}
}
