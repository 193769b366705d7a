package csyn

import (
	"fmt"
	"reflect"
)

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func applyInfix(op string, l, r any) (any, error) {
	switch op {
	case "&&":
		lb, lok := l.(bool)
		rb, rok := r.(bool)
		if !lok || !rok {
			return nil, fmt.Errorf("&& requires bool operands, got %T/%T", l, r)
		}
		return lb && rb, nil
	case "||":
		lb, lok := l.(bool)
		rb, rok := r.(bool)
		if !lok || !rok {
			return nil, fmt.Errorf("|| requires bool operands, got %T/%T", l, r)
		}
		return lb || rb, nil
	case "==":
		return valuesEqual(l, r), nil
	case "!=":
		return !valuesEqual(l, r), nil
	}

	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if !lok || !rok {
		return nil, fmt.Errorf("operator %q requires numeric operands, got %T/%T", op, l, r)
	}

	_, lInt := l.(int64)
	_, rInt := r.(int64)
	bothInt := lInt && rInt

	switch op {
	case "+":
		if bothInt {
			return l.(int64) + r.(int64), nil
		}
		return lf + rf, nil
	case "-":
		if bothInt {
			return l.(int64) - r.(int64), nil
		}
		return lf - rf, nil
	case "*":
		if bothInt {
			return l.(int64) * r.(int64), nil
		}
		return lf * rf, nil
	case "/":
		if bothInt {
			return l.(int64) / r.(int64), nil
		}
		return lf / rf, nil
	case "%":
		if bothInt {
			return l.(int64) % r.(int64), nil
		}
		return nil, fmt.Errorf("%% requires int operands")
	case "<":
		return lf < rf, nil
	case "<=":
		return lf <= rf, nil
	case ">":
		return lf > rf, nil
	case ">=":
		return lf >= rf, nil
	default:
		return nil, fmt.Errorf("unknown infix operator %q", op)
	}
}

func applyPrefix(op string, v any) (any, error) {
	switch op {
	case "!":
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("! requires bool operand, got %T", v)
		}
		return !b, nil
	case "neg":
		f, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("neg requires numeric operand, got %T", v)
		}
		if i, ok := v.(int64); ok {
			return -i, nil
		}
		return -f, nil
	default:
		return nil, fmt.Errorf("unknown prefix operator %q", op)
	}
}

// applyBuiltin dispatches the small set of ordinary-call function names a
// lowered node body may reference (anything outside the closed
// binary/unary operator symbol set).
func applyBuiltin(name string, args []any) (any, error) {
	switch name {
	case "min":
		if len(args) != 2 {
			return nil, fmt.Errorf("min expects 2 args")
		}
		a, _ := asFloat(args[0])
		b, _ := asFloat(args[1])
		if a < b {
			return args[0], nil
		}
		return args[1], nil
	case "max":
		if len(args) != 2 {
			return nil, fmt.Errorf("max expects 2 args")
		}
		a, _ := asFloat(args[0])
		b, _ := asFloat(args[1])
		if a > b {
			return args[0], nil
		}
		return args[1], nil
	case "abs":
		if len(args) != 1 {
			return nil, fmt.Errorf("abs expects 1 arg")
		}
		a, ok := asFloat(args[0])
		if !ok {
			return nil, fmt.Errorf("abs expects numeric arg")
		}
		if a < 0 {
			return -a, nil
		}
		return a, nil
	case "some":
		if len(args) != 1 {
			return nil, fmt.Errorf("some expects 1 arg")
		}
		return Some(args[0]), nil
	case "none":
		return None, nil
	default:
		return nil, fmt.Errorf("unknown function %q", name)
	}
}

// valuesEqual compares two runtime values for equality, using structural
// comparison so map/slice-backed record and option values (which aren't
// comparable with ==) can still be compared. The tracked-cell is_new
// computation in internal/ssyn uses the same reflect.DeepEqual comparison.
func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
