package agentkit

import (
	"errors"
	"testing"
)

func TestOkErr(t *testing.T) {
	ok := Ok(42)
	if !ok.IsOk() || ok.IsErr() {
		t.Fatalf("Ok(42) should be ok")
	}
	if ok.Value() != 42 {
		t.Errorf("Value() = %v, want 42", ok.Value())
	}

	errRes := Err(errors.New("boom"))
	if errRes.IsOk() || !errRes.IsErr() {
		t.Fatalf("Err should be an error result")
	}
	if errRes.Error().Error() != "boom" {
		t.Errorf("Error() = %v, want boom", errRes.Error())
	}
}

func TestErrf(t *testing.T) {
	r := Errf("bad input: %d", 7)
	if !r.IsErr() {
		t.Fatalf("Errf should produce an error result")
	}
	if r.Error().Error() != "bad input: 7" {
		t.Errorf("Error() = %q", r.Error())
	}
}

func TestCombineAccumulatesValues(t *testing.T) {
	r := Ok(1).Combine(Ok(2)).Combine(Ok(3))
	if !r.IsOk() {
		t.Fatalf("combining all-ok results should stay ok")
	}
	vals := r.Values()
	if len(vals) != 3 || vals[0] != 1 || vals[1] != 2 || vals[2] != 3 {
		t.Errorf("Values() = %v, want [1 2 3]", vals)
	}
}

func TestCombineAccumulatesErrors(t *testing.T) {
	e1 := errors.New("e1")
	e2 := errors.New("e2")
	r := Err(e1).Combine(Err(e2))
	if !r.IsErr() {
		t.Fatalf("combining errors should be an error result")
	}
	errs := r.Errors()
	if len(errs) != 2 || errs[0] != e1 || errs[1] != e2 {
		t.Errorf("Errors() = %v, want [e1 e2]", errs)
	}
}

func TestCombineMixedValuesAndErrors(t *testing.T) {
	r := Ok(1).Combine(Err(errors.New("fail"))).Combine(Ok(2))
	if !r.IsErr() {
		t.Fatalf("a combine with any error should be an error result")
	}
	if len(r.Errors()) != 1 {
		t.Errorf("Errors() = %v, want exactly 1", r.Errors())
	}
}

func TestCombineIsAssociative(t *testing.T) {
	a, b, c := Ok(1), Ok(2), Ok(3)
	left := a.Combine(b).Combine(c)
	right := a.Combine(b.Combine(c))
	if !equalAny(left.Values(), right.Values()) {
		t.Errorf("Combine should be associative: left=%v right=%v", left.Values(), right.Values())
	}
}

func equalAny(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCombineFreeFunction(t *testing.T) {
	r := Combine(Ok(1), Ok(2), Ok(3))
	if len(r.Values()) != 3 {
		t.Errorf("Combine(...) = %v, want 3 values", r.Values())
	}
	if len(Combine().Values()) != 1 {
		t.Errorf("Combine() with no args should not panic")
	}
}

func TestUnwrapPanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("Unwrap should panic on an error result")
		}
	}()
	Err(errors.New("boom")).Unwrap()
}

func TestUnwrapReturnsValue(t *testing.T) {
	v := Ok("hello").Unwrap()
	if v != "hello" {
		t.Errorf("Unwrap() = %v, want hello", v)
	}
}

func TestTryUnwrap(t *testing.T) {
	v, err := Ok(5).TryUnwrap()
	if err != nil || v != 5 {
		t.Fatalf("TryUnwrap() = (%v, %v), want (5, nil)", v, err)
	}

	_, err = Err(errors.New("fail")).TryUnwrap()
	if err == nil || err.Error() != "fail" {
		t.Errorf("TryUnwrap() error = %v, want fail", err)
	}
}

func TestTryUnwrapCombinedErrors(t *testing.T) {
	r := Err(errors.New("e1")).Combine(Err(errors.New("e2")))
	_, err := r.TryUnwrap()
	if err == nil {
		t.Fatalf("expected an aggregated error")
	}
	var m *multiError
	if !errors.As(err, &m) {
		t.Fatalf("expected *multiError, got %T", err)
	}
	if len(m.Unwrap()) != 2 {
		t.Errorf("multiError.Unwrap() = %v, want 2 errors", m.Unwrap())
	}
}

func TestTryUnwrapCombinedValues(t *testing.T) {
	r := Ok(1).Combine(Ok(2))
	v, err := r.TryUnwrap()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vals, ok := v.([]any)
	if !ok || len(vals) != 2 {
		t.Fatalf("TryUnwrap() = %v, want []any{1, 2}", v)
	}
}
