package agentkit

import (
	"errors"
	"testing"
)

func TestNewToolArityMismatch(t *testing.T) {
	_, err := NewTool("add", "adds two numbers", func(a, b int) int { return a + b },
		Param{Name: "a", Type: "int"})
	if err == nil {
		t.Fatalf("expected arity mismatch error")
	}
}

func TestNewToolRejectsNonFunc(t *testing.T) {
	_, err := NewTool("bad", "not a function", 42)
	if err == nil {
		t.Fatalf("expected error for non-function fn")
	}
}

func TestToolCallPlainValues(t *testing.T) {
	tool, err := NewTool("add", "adds two numbers", func(a, b int) int { return a + b },
		Param{Name: "a", Type: "int"}, Param{Name: "b", Type: "int"})
	if err != nil {
		t.Fatalf("NewTool: %v", err)
	}
	res := tool.Call(2, 3)
	if res.IsErr() {
		t.Fatalf("unexpected error: %v", res.Error())
	}
	if res.Value() != 5 {
		t.Errorf("Call(2, 3) = %v, want 5", res.Value())
	}
}

func TestToolCallUnwrapsResultArgs(t *testing.T) {
	tool, _ := NewTool("add", "adds two numbers", func(a, b int) int { return a + b },
		Param{Name: "a", Type: "int"}, Param{Name: "b", Type: "int"})
	res := tool.Call(Ok(2), Ok(3))
	if res.IsErr() || res.Value() != 5 {
		t.Errorf("Call(Ok(2), Ok(3)) = %v", res)
	}
}

func TestToolCallShortCircuitsOnErrArg(t *testing.T) {
	tool, _ := NewTool("add", "adds two numbers", func(a, b int) int { return a + b },
		Param{Name: "a", Type: "int"}, Param{Name: "b", Type: "int"})
	boom := errors.New("boom")
	res := tool.Call(Ok(2), Err(boom))
	if !res.IsErr() || res.Error() != boom {
		t.Fatalf("expected the err Result to short-circuit the call, got %v", res)
	}
}

func TestToolCallShortCircuitsOnFirstErrInArgOrder(t *testing.T) {
	tool, _ := NewTool("add3", "adds three numbers", func(a, b, c int) int { return a + b + c },
		Param{Name: "a", Type: "int"}, Param{Name: "b", Type: "int"}, Param{Name: "c", Type: "int"})
	first := errors.New("first")
	second := errors.New("second")
	res := tool.Call(Err(first), Err(second), 1)
	if res.Error() != first {
		t.Errorf("expected the first err Result in argument order, got %v", res.Error())
	}
}

func TestToolCallRecoversPanics(t *testing.T) {
	tool, _ := NewTool("div", "divides", func(a, b int) int { return a / b },
		Param{Name: "a", Type: "int"}, Param{Name: "b", Type: "int"})
	res := tool.Call(1, 0)
	if !res.IsErr() {
		t.Fatalf("expected a division-by-zero panic to become an err Result")
	}
}

func TestToolCallMapsTrailingErrorReturn(t *testing.T) {
	tool, _ := NewTool("parse", "parses", func(ok bool) (int, error) {
		if !ok {
			return 0, errors.New("parse failed")
		}
		return 1, nil
	}, Param{Name: "ok", Type: "bool"})

	res := tool.Call(true)
	if res.IsErr() || res.Value() != 1 {
		t.Errorf("Call(true) = %v", res)
	}

	res = tool.Call(false)
	if !res.IsErr() || res.Error().Error() != "parse failed" {
		t.Errorf("Call(false) = %v", res)
	}
}

func TestToolCallMultipleReturnValues(t *testing.T) {
	tool, _ := NewTool("divmod", "divides with remainder", func(a, b int) (int, int) { return a / b, a % b },
		Param{Name: "a", Type: "int"}, Param{Name: "b", Type: "int"})
	res := tool.Call(7, 2)
	vals, ok := res.Value().([]any)
	if !ok || len(vals) != 2 || vals[0] != 3 || vals[1] != 1 {
		t.Errorf("Call(7, 2) = %v, want [3 1]", res.Value())
	}
}

func TestToolCallVariadic(t *testing.T) {
	tool, err := NewTool("sum", "sums any number of ints", func(nums ...int) int {
		total := 0
		for _, n := range nums {
			total += n
		}
		return total
	})
	if err != nil {
		t.Fatalf("NewTool: %v", err)
	}
	res := tool.Call(1, 2, 3, 4)
	if res.Value() != 10 {
		t.Errorf("Call(1,2,3,4) = %v, want 10", res.Value())
	}
}

func TestToolCallCoercesNumericTypes(t *testing.T) {
	tool, _ := NewTool("scale", "scales a float", func(x float64) float64 { return x * 2 },
		Param{Name: "x", Type: "float64"})
	res := tool.Call(3)
	if res.Value() != float64(6) {
		t.Errorf("Call(3) = %v, want 6.0", res.Value())
	}
}
