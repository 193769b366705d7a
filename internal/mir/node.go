package mir

import "github.com/rakunlabs/srl/internal/ir"

// Node is a Mid-IR node: same shape as ir.Node, with every equation's
// expression lowered to the MIR vocabulary.
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

// Memory mirrors ir.Memory with its initializer lowered to MIR.
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
