package mir

import (
	"fmt"

	"github.com/rakunlabs/srl/internal/diag"
	"github.com/rakunlabs/srl/internal/ir"
)

// Lower transforms one NR node into MIR. Errors here are fatal for the
// current node and short-circuit to the error collector: on the first
// fatal error, Lower returns (nil, err) without attempting to lower the
// node's remaining equations.
func Lower(n ir.Node, col *diag.Collector) (*Node, error) {
	instances := make(map[string]ir.Instance, len(n.Instances))
	for _, inst := range n.Instances {
		instances[inst.Name] = inst
	}

	out := &Node{
		Name:         n.Name,
		InputType:    n.InputType,
		InputFields:  n.InputFields,
		OutputFields: n.OutputFields,
		Instances:    n.Instances,
	}

	for _, m := range n.Memories {
		initExpr, err := lowerExpr(m.Init, instances, col)
		if err != nil {
			return nil, fmt.Errorf("node %q: memory %q init: %w", n.Name, m.Name, err)
		}
		out.Memories = append(out.Memories, Memory{Name: m.Name, Type: m.Type, Init: initExpr})
	}

	for _, eq := range n.Derived {
		e, err := lowerExpr(eq.Expr, instances, col)
		if err != nil {
			return nil, fmt.Errorf("node %q: deriving %q: %w", n.Name, eq.Flow, err)
		}
		out.Derived = append(out.Derived, DerivedEq{Flow: eq.Flow, Expr: e})
	}

	for _, eq := range n.Next {
		e, err := lowerExpr(eq.Expr, instances, col)
		if err != nil {
			return nil, fmt.Errorf("node %q: next(%q): %w", n.Name, eq.Memory, err)
		}
		out.Next = append(out.Next, MemoryNextEq{Memory: eq.Memory, Expr: e})
	}

	return out, nil
}

// lowerExpr recursively lowers one NR expression into MIR, dispatching
// per NR node kind.
func lowerExpr(e ir.Expr, instances map[string]ir.Instance, col *diag.Collector) (Expr, error) {
	switch x := e.(type) {
	case ir.ConstExpr:
		return Const{Value: x.Value, Type: x.Type}, nil

	case ir.VarExpr:
		switch x.Kind {
		case ir.VarMemory:
			return MemoryAccess{ID: x.Name, Type: x.Type}, nil
		case ir.VarInput:
			return InputAccess{ID: x.Name, Type: x.Type}, nil
		default:
			return Local{Name: x.Name, Type: x.Type}, nil
		}

	case ir.NodeCallExpr:
		inst, ok := instances[x.Instance]
		if !ok {
			return nil, fmt.Errorf("node-call references unknown instance %q", x.Instance)
		}
		arg, err := lowerExpr(x.Arg, instances, col)
		if err != nil {
			return nil, err
		}
		return NodeCall{
			Instance: inst.Name,
			Arg:      arg,
			Type:     x.Type,
		}, nil

	case ir.LambdaExpr:
		if capturesInstance(x.Body, instances) {
			return nil, fmt.Errorf("lambda captures sub-node instance; must be hoisted by the frontend")
		}
		body, err := lowerExpr(x.Body, instances, col)
		if err != nil {
			return nil, err
		}
		return Lambda{Params: x.Params, Body: body, ResultType: x.ResultType}, nil

	case ir.MatchExpr:
		scrut, err := lowerExpr(x.Scrutinee, instances, col)
		if err != nil {
			return nil, err
		}
		arms := make([]MatchArm, 0, len(x.Arms))
		for _, arm := range x.Arms {
			var guard Expr
			if arm.Guard != nil {
				guard, err = lowerExpr(arm.Guard, instances, col)
				if err != nil {
					return nil, err
				}
			}
			body, err := lowerExpr(arm.Body, instances, col)
			if err != nil {
				return nil, err
			}
			arms = append(arms, MatchArm{Pattern: arm.Pattern, Guard: guard, Body: body})
		}
		return Match{Scrutinee: scrut, ScrutineeType: x.ScrutineeType, Arms: arms, Type: x.Type}, nil

	case ir.StructLitExpr:
		fields := make(map[string]Expr, len(x.Fields))
		for name, fe := range x.Fields {
			le, err := lowerExpr(fe, instances, col)
			if err != nil {
				return nil, err
			}
			fields[name] = le
		}
		return StructLit{TypeName: x.TypeName, Fields: fields, FieldOrder: x.FieldOrder}, nil

	case ir.TupleLitExpr:
		elems := make([]Expr, 0, len(x.Elems))
		for _, el := range x.Elems {
			le, err := lowerExpr(el, instances, col)
			if err != nil {
				return nil, err
			}
			elems = append(elems, le)
		}
		return TupleLit{Elems: elems}, nil

	case ir.FieldAccessExpr:
		base, err := lowerExpr(x.Base, instances, col)
		if err != nil {
			return nil, err
		}
		return FieldAccess{Base: base, Field: x.Field, Type: x.Type}, nil

	case ir.BinOpExpr:
		l, err := lowerExpr(x.Left, instances, col)
		if err != nil {
			return nil, err
		}
		r, err := lowerExpr(x.Right, instances, col)
		if err != nil {
			return nil, err
		}
		return BinOp{Op: x.Op, Left: l, Right: r, Type: x.Type}, nil

	case ir.UnOpExpr:
		o, err := lowerExpr(x.Operand, instances, col)
		if err != nil {
			return nil, err
		}
		return UnOp{Op: x.Op, Operand: o, Type: x.Type}, nil

	case ir.CallExpr:
		args := make([]Expr, 0, len(x.Args))
		for _, a := range x.Args {
			la, err := lowerExpr(a, instances, col)
			if err != nil {
				return nil, err
			}
			args = append(args, la)
		}
		return Call{Fn: x.Fn, Args: args, Type: x.Type}, nil

	default:
		return nil, fmt.Errorf("mir: unsupported NR expression %T", e)
	}
}

// capturesInstance reports whether e references any sub-node instance
// (directly, as a NodeCallExpr). It does not need to recurse into further
// lambdas: those are rejected independently when they themselves are
// lowered.
func capturesInstance(e ir.Expr, instances map[string]ir.Instance) bool {
	found := false
	var walk func(ir.Expr)
	walk = func(e ir.Expr) {
		if found || e == nil {
			return
		}
		switch x := e.(type) {
		case ir.NodeCallExpr:
			if _, ok := instances[x.Instance]; ok {
				found = true
			}
			walk(x.Arg)
		case ir.BinOpExpr:
			walk(x.Left)
			walk(x.Right)
		case ir.UnOpExpr:
			walk(x.Operand)
		case ir.FieldAccessExpr:
			walk(x.Base)
		case ir.CallExpr:
			for _, a := range x.Args {
				walk(a)
			}
		case ir.TupleLitExpr:
			for _, a := range x.Elems {
				walk(a)
			}
		case ir.StructLitExpr:
			for _, a := range x.Fields {
				walk(a)
			}
		case ir.MatchExpr:
			walk(x.Scrutinee)
			for _, arm := range x.Arms {
				walk(arm.Guard)
				walk(arm.Body)
			}
		}
	}
	walk(e)
	return found
}
