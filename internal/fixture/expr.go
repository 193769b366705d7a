package fixture

import "github.com/rakunlabs/srl/internal/ir"

// Expr is a tagged union over every ir.Expr shape: exactly one field is
// set per node, selected by which YAML key is present. yaml.v3 leaves
// unmentioned pointer/slice/map fields nil, so no custom unmarshaling is
// needed to discriminate.
type Expr struct {
	Const     *ConstLit     `yaml:"const,omitempty"`
	Var       *VarLit       `yaml:"var,omitempty"`
	NodeCall  *NodeCallLit  `yaml:"node_call,omitempty"`
	Match     *MatchLit     `yaml:"match,omitempty"`
	StructLit *StructLitLit `yaml:"struct_lit,omitempty"`
	TupleLit  []Expr        `yaml:"tuple_lit,omitempty"`
	Field     *FieldLit     `yaml:"field,omitempty"`
	BinOp     *BinOpLit     `yaml:"bin_op,omitempty"`
	UnOp      *UnOpLit      `yaml:"un_op,omitempty"`
	Call      *CallLit      `yaml:"call,omitempty"`
}

type ConstLit struct {
	Value any  `yaml:"value"`
	Type  Type `yaml:"type"`
}

type VarLit struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // local | memory | input
	Type Type   `yaml:"type"`
}

type NodeCallLit struct {
	Instance string `yaml:"instance"`
	Arg      Expr   `yaml:"arg"`
	Type     Type   `yaml:"type"`
}

type FieldLit struct {
	Base  Expr   `yaml:"base"`
	Field string `yaml:"field"`
	Type  Type   `yaml:"type"`
}

type BinOpLit struct {
	Op    string `yaml:"op"`
	Left  Expr   `yaml:"left"`
	Right Expr   `yaml:"right"`
	Type  Type   `yaml:"type"`
}

type UnOpLit struct {
	Op      string `yaml:"op"`
	Operand Expr   `yaml:"operand"`
	Type    Type   `yaml:"type"`
}

type CallLit struct {
	Fn   string `yaml:"fn"`
	Args []Expr `yaml:"args"`
	Type Type   `yaml:"type"`
}

type StructLitLit struct {
	TypeName   string          `yaml:"type_name"`
	Fields     map[string]Expr `yaml:"fields"`
	FieldOrder []string        `yaml:"field_order"`
}

type MatchLit struct {
	Scrutinee     Expr          `yaml:"scrutinee"`
	ScrutineeType Type          `yaml:"scrutinee_type"`
	Arms          []MatchArmLit `yaml:"arms"`
	Type          Type          `yaml:"type"`
}

type MatchArmLit struct {
	Pattern Pattern `yaml:"pattern"`
	Guard   *Expr   `yaml:"guard,omitempty"`
	Body    Expr    `yaml:"body"`
}

var varKinds = map[string]ir.VarKind{
	"local":  ir.VarLocal,
	"memory": ir.VarMemory,
	"input":  ir.VarInput,
}

// toIR converts one fixture Expr node into its ir.Expr counterpart.
// Exactly one of e's fields must be set.
func (e Expr) toIR() (ir.Expr, error) {
	switch {
	case e.Const != nil:
		t, err := e.Const.Type.toIR()
		if err != nil {
			return nil, err
		}
		return ir.ConstExpr{Value: normalizeScalar(e.Const.Value), Type: t}, nil

	case e.Var != nil:
		t, err := e.Var.Type.toIR()
		if err != nil {
			return nil, err
		}
		kind, ok := varKinds[e.Var.Kind]
		if !ok {
			return nil, fixtureErrf("var %q: unknown kind %q", e.Var.Name, e.Var.Kind)
		}
		return ir.VarExpr{Name: e.Var.Name, Kind: kind, Type: t}, nil

	case e.NodeCall != nil:
		arg, err := e.NodeCall.Arg.toIR()
		if err != nil {
			return nil, err
		}
		t, err := e.NodeCall.Type.toIR()
		if err != nil {
			return nil, err
		}
		return ir.NodeCallExpr{Instance: e.NodeCall.Instance, Arg: arg, Type: t}, nil

	case e.Match != nil:
		scrut, err := e.Match.Scrutinee.toIR()
		if err != nil {
			return nil, err
		}
		scrutType, err := e.Match.ScrutineeType.toIR()
		if err != nil {
			return nil, err
		}
		t, err := e.Match.Type.toIR()
		if err != nil {
			return nil, err
		}
		arms := make([]ir.MatchArm, 0, len(e.Match.Arms))
		for _, a := range e.Match.Arms {
			pat, err := a.Pattern.toIR()
			if err != nil {
				return nil, err
			}
			var guard ir.Expr
			if a.Guard != nil {
				guard, err = a.Guard.toIR()
				if err != nil {
					return nil, err
				}
			}
			body, err := a.Body.toIR()
			if err != nil {
				return nil, err
			}
			arms = append(arms, ir.MatchArm{Pattern: pat, Guard: guard, Body: body})
		}
		return ir.MatchExpr{Scrutinee: scrut, ScrutineeType: scrutType, Arms: arms, Type: t}, nil

	case e.StructLit != nil:
		fields := make(map[string]ir.Expr, len(e.StructLit.Fields))
		for name, fe := range e.StructLit.Fields {
			ie, err := fe.toIR()
			if err != nil {
				return nil, err
			}
			fields[name] = ie
		}
		return ir.StructLitExpr{TypeName: e.StructLit.TypeName, Fields: fields, FieldOrder: e.StructLit.FieldOrder}, nil

	case e.TupleLit != nil:
		elems := make([]ir.Expr, 0, len(e.TupleLit))
		for _, el := range e.TupleLit {
			ie, err := el.toIR()
			if err != nil {
				return nil, err
			}
			elems = append(elems, ie)
		}
		return ir.TupleLitExpr{Elems: elems}, nil

	case e.Field != nil:
		base, err := e.Field.Base.toIR()
		if err != nil {
			return nil, err
		}
		t, err := e.Field.Type.toIR()
		if err != nil {
			return nil, err
		}
		return ir.FieldAccessExpr{Base: base, Field: e.Field.Field, Type: t}, nil

	case e.BinOp != nil:
		l, err := e.BinOp.Left.toIR()
		if err != nil {
			return nil, err
		}
		r, err := e.BinOp.Right.toIR()
		if err != nil {
			return nil, err
		}
		t, err := e.BinOp.Type.toIR()
		if err != nil {
			return nil, err
		}
		return ir.BinOpExpr{Op: e.BinOp.Op, Left: l, Right: r, Type: t}, nil

	case e.UnOp != nil:
		o, err := e.UnOp.Operand.toIR()
		if err != nil {
			return nil, err
		}
		t, err := e.UnOp.Type.toIR()
		if err != nil {
			return nil, err
		}
		return ir.UnOpExpr{Op: e.UnOp.Op, Operand: o, Type: t}, nil

	case e.Call != nil:
		args := make([]ir.Expr, 0, len(e.Call.Args))
		for _, a := range e.Call.Args {
			ia, err := a.toIR()
			if err != nil {
				return nil, err
			}
			args = append(args, ia)
		}
		t, err := e.Call.Type.toIR()
		if err != nil {
			return nil, err
		}
		return ir.CallExpr{Fn: e.Call.Fn, Args: args, Type: t}, nil

	default:
		return nil, fixtureErrf("expression node has no recognized shape")
	}
}

// normalizeScalar coerces yaml.v3's default decode of a bare integer
// literal (Go int) to the int64 representation ir.Type.Zero() and every
// evaluator in this repository standardizes on.
func normalizeScalar(v any) any {
	if n, ok := v.(int); ok {
		return int64(n)
	}
	return v
}
