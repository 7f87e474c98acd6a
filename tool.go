package agentkit

import (
	"fmt"
	"reflect"
)

// Param describes one positional parameter of a registered tool. Go
// doesn't retain parameter names at runtime, so names are supplied by the
// caller at registration time rather than recovered by reflection.
type Param struct {
	Name string
	Type string
}

// Tool wraps a raw Go function so that it speaks the Result algebra: any
// argument that is itself a Result is unwrapped before the call (or, if
// it's an error Result, short-circuits the call entirely), and the raw
// return value or panic is captured into a Result rather than propagated.
type Tool struct {
	Name   string
	Doc    string
	Params []Param

	fn       reflect.Value
	fnType   reflect.Type
	variadic bool
}

// NewTool wraps fn. fn may be any function value; params should describe
// its positional arguments in order (names are cosmetic — used by
// ExportJSON, while types fill the input ports of Agent.WorkflowGraph —
// but the count must match fn's arity unless fn is variadic).
func NewTool(name, doc string, fn any, params ...Param) (*Tool, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("tool %q: fn must be a function, got %s", name, v.Kind())
	}
	t := v.Type()
	variadic := t.IsVariadic()
	if !variadic && len(params) != t.NumIn() {
		return nil, fmt.Errorf("tool %q: %d params declared but fn takes %d arguments", name, len(params), t.NumIn())
	}
	return &Tool{
		Name:     name,
		Doc:      doc,
		Params:   params,
		fn:       v,
		fnType:   t,
		variadic: variadic,
	}, nil
}

// Call invokes the tool with args, each of which may be a plain value or
// a Result. Any err Result among args short-circuits the call and is
// returned as-is, without invoking the underlying function — per the
// tool wrapper's argument-short-circuit rule, the FIRST err Result
// encountered in argument order wins. A panic raised by the underlying
// function is recovered and reported as an err Result instead of
// propagating.
func (t *Tool) Call(args ...any) (result Result) {
	defer func() {
		if p := recover(); p != nil {
			result = Errf("tool %q panicked: %v", t.Name, p)
		}
	}()

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		v := a
		if r, ok := a.(Result); ok {
			if r.IsErr() {
				return r
			}
			v, _ = r.TryUnwrap()
		}
		in[i] = coerce(v, t.paramType(i))
	}

	out := t.fn.Call(in)
	return wrapReturn(out)
}

// paramType returns the declared type for positional argument i, handling
// variadic trailing parameters.
func (t *Tool) paramType(i int) reflect.Type {
	n := t.fnType.NumIn()
	if t.variadic && i >= n-1 {
		return t.fnType.In(n - 1).Elem()
	}
	if i < n {
		return t.fnType.In(i)
	}
	return nil
}

// coerce adapts v to the target type when v is untyped-literal-ish
// (e.g. an int literal destined for a float64 parameter). Falls back to
// passing v through unchanged if it already satisfies target, or isn't
// assignable at all (the Call will panic, which is caught above).
func coerce(v any, target reflect.Type) reflect.Value {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		if target == nil {
			return reflect.ValueOf(v)
		}
		return reflect.Zero(target)
	}
	if target == nil || rv.Type() == target {
		return rv
	}
	if rv.Type().ConvertibleTo(target) {
		switch target.Kind() {
		case reflect.Float32, reflect.Float64,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.String:
			return rv.Convert(target)
		}
	}
	return rv
}

// errorType is the reflect.Type of the built-in error interface.
var errorType = reflect.TypeOf((*error)(nil)).Elem()

// wrapReturn converts a Go function's raw return values into a Result.
// If the last return value implements error and is non-nil, the Result
// is an error Result. Otherwise all non-error return values become the
// Result's value: zero values map to nil, one value maps directly, more
// than one maps to a []any.
func wrapReturn(out []reflect.Value) Result {
	n := len(out)
	if n > 0 && out[n-1].Type().Implements(errorType) {
		if !out[n-1].IsNil() {
			return Err(out[n-1].Interface().(error))
		}
		out = out[:n-1]
	}
	switch len(out) {
	case 0:
		return Ok(nil)
	case 1:
		return Ok(out[0].Interface())
	default:
		vals := make([]any, len(out))
		for i, o := range out {
			vals[i] = o.Interface()
		}
		return Ok(vals)
	}
}
