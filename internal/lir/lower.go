package lir

import (
	"fmt"

	"github.com/rakunlabs/srl/internal/diag"
	"github.com/rakunlabs/srl/internal/ir"
	"github.com/rakunlabs/srl/internal/mir"
)

// Node is a Low-IR node, ready for CSyn.
type Node struct {
	Name string

	InputType    ir.Type
	InputFields  []string
	OutputFields []string

	Memories  []Memory
	Instances []ir.Instance

	Derived []DerivedEq
	Next    []MemoryNextEq
}

// Memory is a lowered memory cell: Init is a LIR expression rather than
// ir.Memory's NR expression, so CSyn can evaluate it with the same
// evaluator it uses for every other equation.
type Memory struct {
	Name string
	Type ir.Type
	Init Expr
}

type DerivedEq struct {
	Flow string
	Expr Expr
}

type MemoryNextEq struct {
	Memory string
	Expr   Expr
}

// Lower lowers one MIR node into LIR. loc is used for any pattern
// diagnostics raised along the way.
func Lower(n *mir.Node, loc diag.Location, col *diag.Collector) (*Node, error) {
	out := &Node{
		Name:         n.Name,
		InputType:    n.InputType,
		InputFields:  n.InputFields,
		OutputFields: n.OutputFields,
		Instances:    n.Instances,
	}

	for _, m := range n.Memories {
		initExpr, err := LowerExpr(m.Init, loc, col)
		if err != nil {
			return nil, fmt.Errorf("node %q: memory %q init: %w", n.Name, m.Name, err)
		}
		out.Memories = append(out.Memories, Memory{Name: m.Name, Type: m.Type, Init: initExpr})
	}

	for _, eq := range n.Derived {
		e, err := LowerExpr(eq.Expr, loc, col)
		if err != nil {
			return nil, fmt.Errorf("node %q: deriving %q: %w", n.Name, eq.Flow, err)
		}
		out.Derived = append(out.Derived, DerivedEq{Flow: eq.Flow, Expr: e})
	}
	for _, eq := range n.Next {
		e, err := LowerExpr(eq.Expr, loc, col)
		if err != nil {
			return nil, fmt.Errorf("node %q: next(%q): %w", n.Name, eq.Memory, err)
		}
		out.Next = append(out.Next, MemoryNextEq{Memory: eq.Memory, Expr: e})
	}

	return out, nil
}

// LowerExpr lowers one MIR expression into LIR, dispatching per MIR node
// kind.
func LowerExpr(e mir.Expr, loc diag.Location, col *diag.Collector) (Expr, error) {
	switch x := e.(type) {
	case mir.Const:
		return Literal{Value: x.Value, Type: x.Type}, nil

	case mir.MemoryAccess:
		return FieldAccess{Base: SelfRef{}, Field: x.ID, Type: x.Type}, nil

	case mir.InputAccess:
		return FieldAccess{Base: InputRef{}, Field: x.ID, Type: x.Type}, nil

	case mir.Local:
		return Ident{Name: x.Name, Type: x.Type}, nil

	case mir.NodeCall:
		arg, err := LowerExpr(x.Arg, loc, col)
		if err != nil {
			return nil, err
		}
		return MethodCall{
			Receiver: FieldAccess{Base: SelfRef{}, Field: x.Instance, Type: x.InputType},
			Method:   "step",
			Args:     []Expr{arg},
			Type:     x.Type,
		}, nil

	case mir.Lambda:
		body, err := LowerExpr(x.Body, loc, col)
		if err != nil {
			return nil, err
		}
		return Closure{Params: x.Params, Body: body, ResultType: x.ResultType}, nil

	case mir.Match:
		scrut, err := LowerExpr(x.Scrutinee, loc, col)
		if err != nil {
			return nil, err
		}
		arms := make([]MatchArm, 0, len(x.Arms))
		for _, arm := range x.Arms {
			pat, err := LowerPattern(arm.Pattern, x.ScrutineeType, loc, col)
			if err != nil {
				return nil, err
			}
			var guard Expr
			if arm.Guard != nil {
				guard, err = LowerExpr(arm.Guard, loc, col)
				if err != nil {
					return nil, err
				}
			}
			body, err := LowerExpr(arm.Body, loc, col)
			if err != nil {
				return nil, err
			}
			arms = append(arms, MatchArm{Pattern: pat, Guard: guard, Body: body})
		}
		return Match{Scrutinee: scrut, Arms: arms, Type: x.Type}, nil

	case mir.StructLit:
		fields := make(map[string]Expr, len(x.Fields))
		for name, fe := range x.Fields {
			le, err := LowerExpr(fe, loc, col)
			if err != nil {
				return nil, err
			}
			fields[name] = le
		}
		return RecordConstruct{TypeName: x.TypeName, Fields: fields, FieldOrder: x.FieldOrder}, nil

	case mir.TupleLit:
		// A tuple literal with no LIR-level tuple-construct primitive is
		// represented as an anonymous record with positional field names,
		// since LIR only knows record construction.
		fields := make(map[string]Expr, len(x.Elems))
		order := make([]string, len(x.Elems))
		for i, el := range x.Elems {
			le, err := LowerExpr(el, loc, col)
			if err != nil {
				return nil, err
			}
			name := fmt.Sprintf("_%d", i)
			fields[name] = le
			order[i] = name
		}
		return RecordConstruct{TypeName: "", Fields: fields, FieldOrder: order}, nil

	case mir.FieldAccess:
		base, err := LowerExpr(x.Base, loc, col)
		if err != nil {
			return nil, err
		}
		return FieldAccess{Base: base, Field: x.Field, Type: x.Type}, nil

	case mir.BinOp:
		l, err := LowerExpr(x.Left, loc, col)
		if err != nil {
			return nil, err
		}
		r, err := LowerExpr(x.Right, loc, col)
		if err != nil {
			return nil, err
		}
		if ir.IsBinaryOp(x.Op) {
			return InfixOp{Op: x.Op, Left: l, Right: r, Type: x.Type}, nil
		}
		return Call{Fn: x.Op, Args: []Expr{l, r}, Type: x.Type}, nil

	case mir.UnOp:
		o, err := LowerExpr(x.Operand, loc, col)
		if err != nil {
			return nil, err
		}
		if ir.IsUnaryOp(x.Op) {
			return PrefixOp{Op: x.Op, Operand: o, Type: x.Type}, nil
		}
		return Call{Fn: x.Op, Args: []Expr{o}, Type: x.Type}, nil

	case mir.Call:
		args := make([]Expr, 0, len(x.Args))
		for _, a := range x.Args {
			la, err := LowerExpr(a, loc, col)
			if err != nil {
				return nil, err
			}
			args = append(args, la)
		}
		return Call{Fn: x.Fn, Args: args, Type: x.Type}, nil

	default:
		return nil, fmt.Errorf("lir: unsupported MIR expression %T", e)
	}
}

// LowerPattern lowers one NR/MIR pattern into LIR, validating struct-field
// coverage and option-pattern compatibility along the way. scrutineeType
// is the type of the value being matched.
func LowerPattern(p ir.Pattern, scrutineeType ir.Type, loc diag.Location, col *diag.Collector) (Pattern, error) {
	switch x := p.(type) {
	case ir.ConstPattern:
		return ConstPattern{Value: x.Value}, nil

	case ir.IdentPattern:
		return IdentPattern{Name: x.Name, Type: x.Type}, nil

	case ir.WildcardPattern:
		return WildcardPattern{}, nil

	case ir.EnumPattern:
		fields := make([]Pattern, 0, len(x.Fields))
		for _, f := range x.Fields {
			lf, err := LowerPattern(f, ir.Type{}, loc, col)
			if err != nil {
				return nil, err
			}
			fields = append(fields, lf)
		}
		return EnumPattern{TypeName: x.TypeName, Variant: x.Variant, Fields: fields}, nil

	case ir.StructPattern:
		declared := scrutineeType.Fields
		if declared == nil {
			declared = map[string]ir.Type{}
		}
		for name := range declared {
			if _, ok := x.Fields[name]; !ok {
				col.MissingField(loc, x.TypeName, name)
			}
		}
		for name := range x.Fields {
			if _, ok := declared[name]; !ok {
				col.UnknownField(loc, x.TypeName, name)
			}
		}
		if col.HasErrors() {
			return nil, fmt.Errorf("struct pattern %q: field coverage diagnostics", x.TypeName)
		}
		fields := make(map[string]Pattern, len(x.Fields))
		for name, fp := range x.Fields {
			lf, err := LowerPattern(fp, declared[name], loc, col)
			if err != nil {
				return nil, err
			}
			fields[name] = lf
		}
		return StructPattern{TypeName: x.TypeName, Fields: fields}, nil

	case ir.TuplePattern:
		var elemTypes []ir.Type
		if scrutineeType.Elems != nil {
			elemTypes = scrutineeType.Elems
		}
		elems := make([]Pattern, 0, len(x.Elems))
		for i, el := range x.Elems {
			var et ir.Type
			if i < len(elemTypes) {
				et = elemTypes[i]
			}
			le, err := LowerPattern(el, et, loc, col)
			if err != nil {
				return nil, err
			}
			elems = append(elems, le)
		}
		return TuplePattern{Elems: elems}, nil

	case ir.OptionSomePattern:
		if scrutineeType.Kind != ir.KindOption {
			col.IncompatiblePattern(loc, "option pattern against non-option scrutinee")
			return nil, fmt.Errorf("option pattern against non-option scrutinee of kind %s", scrutineeType.Kind)
		}
		var inner ir.Type
		if scrutineeType.Elem != nil {
			inner = *scrutineeType.Elem
		}
		innerPat, err := LowerPattern(x.Inner, inner, loc, col)
		if err != nil {
			return nil, err
		}
		return OptionTagPattern{Tag: "Some", Inner: innerPat}, nil

	case ir.OptionNonePattern:
		if scrutineeType.Kind != ir.KindOption {
			col.IncompatiblePattern(loc, "option pattern against non-option scrutinee")
			return nil, fmt.Errorf("option pattern against non-option scrutinee of kind %s", scrutineeType.Kind)
		}
		// option-None collapses to the wildcard in LIR: the value carried
		// by None is never bound.
		return WildcardPattern{}, nil

	default:
		return nil, fmt.Errorf("lir: unsupported pattern %T", p)
	}
}
