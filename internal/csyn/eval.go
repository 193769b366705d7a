package csyn

import (
	"fmt"

	"github.com/rakunlabs/srl/internal/lir"
)

// env is the evaluation environment for one Step invocation: the
// component's own state (for memory reads and sub-component dispatch),
// the input parameter record, and the locally-computed flow values
// accumulated so far in topological order.
type env struct {
	self   *componentImpl
	input  map[string]any
	locals map[string]any
}

func (e *env) fork() *env {
	locals := make(map[string]any, len(e.locals))
	for k, v := range e.locals {
		locals[k] = v
	}
	return &env{self: e.self, input: e.input, locals: locals}
}

// closureFn is the runtime value a lir.Closure evaluates to.
type closureFn func(args []any) (any, error)

func evalExpr(e lir.Expr, ev *env) (any, error) {
	switch x := e.(type) {
	case lir.Literal:
		return x.Value, nil

	case lir.Ident:
		v, ok := ev.locals[x.Name]
		if !ok {
			return nil, fmt.Errorf("unbound identifier %q", x.Name)
		}
		return v, nil

	case lir.FieldAccess:
		return evalFieldAccess(x, ev)

	case lir.MethodCall:
		return evalMethodCall(x, ev)

	case lir.Closure:
		params := x.Params
		body := x.Body
		outer := ev
		var fn closureFn
		fn = func(args []any) (any, error) {
			inner := outer.fork()
			for i, p := range params {
				if i < len(args) {
					inner.locals[p.Name] = args[i]
				}
			}
			return evalExpr(body, inner)
		}
		return fn, nil

	case lir.Block:
		cur := ev.fork()
		for _, s := range x.Stmts {
			switch st := s.(type) {
			case lir.Let:
				v, err := evalExpr(st.Value, cur)
				if err != nil {
					return nil, err
				}
				cur.locals[st.Name] = v
			case lir.Assign:
				v, err := evalExpr(st.Value, cur)
				if err != nil {
					return nil, err
				}
				cur.self.pending[st.Field] = v
			default:
				return nil, fmt.Errorf("unsupported lir statement %T", s)
			}
		}
		return evalExpr(x.Result, cur)

	case lir.Match:
		return evalMatch(x, ev)

	case lir.IfThenElse:
		c, err := evalExpr(x.Cond, ev)
		if err != nil {
			return nil, err
		}
		cond, ok := c.(bool)
		if !ok {
			return nil, fmt.Errorf("if condition is not bool: %T", c)
		}
		if cond {
			return evalExpr(x.Then, ev)
		}
		return evalExpr(x.Else, ev)

	case lir.RecordConstruct:
		out := make(map[string]any, len(x.Fields))
		for name, fe := range x.Fields {
			v, err := evalExpr(fe, ev)
			if err != nil {
				return nil, err
			}
			out[name] = v
		}
		return out, nil

	case lir.InfixOp:
		l, err := evalExpr(x.Left, ev)
		if err != nil {
			return nil, err
		}
		r, err := evalExpr(x.Right, ev)
		if err != nil {
			return nil, err
		}
		return applyInfix(x.Op, l, r)

	case lir.PrefixOp:
		o, err := evalExpr(x.Operand, ev)
		if err != nil {
			return nil, err
		}
		return applyPrefix(x.Op, o)

	case lir.Call:
		args := make([]any, 0, len(x.Args))
		for _, a := range x.Args {
			v, err := evalExpr(a, ev)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		if fn, ok := ev.locals[x.Fn].(closureFn); ok {
			return fn(args)
		}
		return applyBuiltin(x.Fn, args)

	default:
		return nil, fmt.Errorf("csyn: unsupported lir expression %T", e)
	}
}

func evalFieldAccess(x lir.FieldAccess, ev *env) (any, error) {
	switch x.Base.(type) {
	case lir.SelfRef:
		if v, ok := ev.self.memories[x.Field]; ok {
			return v, nil
		}
		if _, ok := ev.self.subs[x.Field]; ok {
			return nil, fmt.Errorf("field %q names a sub-component; only valid as a method-call receiver", x.Field)
		}
		return nil, fmt.Errorf("unknown self field %q", x.Field)
	case lir.InputRef:
		v, ok := ev.input[x.Field]
		if !ok {
			return nil, fmt.Errorf("unknown input field %q", x.Field)
		}
		return v, nil
	default:
		base, err := evalExpr(x.Base, ev)
		if err != nil {
			return nil, err
		}
		m, ok := base.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field access %q on non-record value %T", x.Field, base)
		}
		v, ok := m[x.Field]
		if !ok {
			return nil, fmt.Errorf("record has no field %q", x.Field)
		}
		return v, nil
	}
}

// evalMethodCall realizes the self.<instance>.step(<input>) call form:
// Receiver must be FieldAccess{SelfRef, instanceName}.
func evalMethodCall(x lir.MethodCall, ev *env) (any, error) {
	fa, ok := x.Receiver.(lir.FieldAccess)
	if !ok {
		return nil, fmt.Errorf("method call receiver is not a field access")
	}
	if _, ok := fa.Base.(lir.SelfRef); !ok {
		return nil, fmt.Errorf("method call receiver must be self.<instance>")
	}
	sub, ok := ev.self.subs[fa.Field]
	if !ok {
		return nil, fmt.Errorf("unknown sub-component instance %q", fa.Field)
	}
	if x.Method != "step" {
		return nil, fmt.Errorf("unsupported method %q", x.Method)
	}
	if len(x.Args) != 1 {
		return nil, fmt.Errorf("step call expects exactly one input-record argument")
	}
	argVal, err := evalExpr(x.Args[0], ev)
	if err != nil {
		return nil, err
	}
	argRec, ok := argVal.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("step call argument is not a record: %T", argVal)
	}
	return sub.Step(argRec)
}

func evalMatch(x lir.Match, ev *env) (any, error) {
	scrut, err := evalExpr(x.Scrutinee, ev)
	if err != nil {
		return nil, err
	}
	for _, arm := range x.Arms {
		bindings := map[string]any{}
		if !matchPattern(arm.Pattern, scrut, bindings) {
			continue
		}
		inner := ev.fork()
		for k, v := range bindings {
			inner.locals[k] = v
		}
		if arm.Guard != nil {
			g, err := evalExpr(arm.Guard, inner)
			if err != nil {
				return nil, err
			}
			if ok, _ := g.(bool); !ok {
				continue
			}
		}
		return evalExpr(arm.Body, inner)
	}
	// Exhaustiveness is enforced upstream: reaching here means a match
	// arm's exhaustiveness assumption was violated.
	return nil, fmt.Errorf("no match arm matched scrutinee %#v", scrut)
}
