package ir

// FlowSourceKind classifies a service input flow's origin: external signal
// or internal timer.
type FlowSourceKind int

const (
	SourceSignal FlowSourceKind = iota
	SourceTimer
)

// Memory is a node-owned retained cell: named, typed, with an explicit
// initial value.
type Memory struct {
	Name string
	Type Type
	Init Expr
}

// Instance is a named, owned sub-component contributed by instantiating a
// sub-node. The instantiation graph across all Nodes must be a DAG — no
// recursion.
type Instance struct {
	Name string
	Node string // referenced Node.Name
}

// DerivedEq defines a derived flow: every derived flow has exactly one
// defining equation.
type DerivedEq struct {
	Flow string
	Expr Expr
}

// MemoryNextEq defines the next-step value of a memory cell. Reads of the
// same memory elsewhere in the node's equations observe the *previous*
// step's value.
type MemoryNextEq struct {
	Memory string
	Expr   Expr
}

// Node is a reusable synchronous unit: an input record type, an ordered
// output tuple, owned memory cells, and zero or more sub-node instances.
type Node struct {
	Name string

	InputType    Type
	InputFields  []string // declared order of InputType's fields
	OutputFields []string // declared order of the output tuple; each must
	// name a derived flow (possibly an Instance's field via FieldAccess)

	Memories  []Memory
	Instances []Instance
	Derived   []DerivedEq
	Next      []MemoryNextEq
}

// Service wraps a root Node with I/O bindings and timing constraints.
type Service struct {
	Name string
	Root string // referenced Node.Name

	Inputs  []ServiceFlow
	Outputs []OutputFlow // output flows, in declared order

	Delay   Duration
	Timeout Duration
}

// ServiceFlow is one input flow of a Service, with its source kind.
type ServiceFlow struct {
	Name   string
	Type   Type
	Source FlowSourceKind
}

// OutputFlow is one output flow of a Service: a name and its declared
// type, used to default-initialize its tracked cell at service start.
type OutputFlow struct {
	Name string
	Type Type
}

// Duration is a plain nanosecond count; internal/config is responsible for
// parsing human-authored strings ("10ms") into this type via
// github.com/xhit/go-str2duration/v2, keeping ir dependency-free.
type Duration int64
