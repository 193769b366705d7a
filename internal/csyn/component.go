// Package csyn implements Component Synthesis: for each SRL node, it builds
// an init() constructor and a step(input) -> output operator carrying the
// node's memory. Because target emission is an external collaborator,
// synthesis here produces directly executable Go values rather than
// generated source: a Component closes over its own memory and owned
// sub-components the same way a generated init/step pair would.
package csyn

import (
	"fmt"

	"github.com/rakunlabs/srl/internal/lir"
)

// Component is the CSyn artifact of a node: Step is total in (self, input),
// mutates only owned memory, and is pure w.r.t. the outside world.
type Component interface {
	Step(input map[string]any) (map[string]any, error)
}

// Registry resolves a Node name to its Low IR definition, used to build
// sub-components for each declared Instance. Node instantiation is
// assumed to be a DAG: Factory.Init builds sub-components recursively and
// does not check for an instantiation cycle.
type Registry struct {
	nodes map[string]*lir.Node
}

func NewRegistry() *Registry { return &Registry{nodes: map[string]*lir.Node{}} }

func (r *Registry) Add(n *lir.Node) { r.nodes[n.Name] = n }

func (r *Registry) Get(name string) (*lir.Node, bool) {
	n, ok := r.nodes[name]
	return n, ok
}

// Factory builds fresh Component instances for one node, i.e. the node's
// init() constructor.
type Factory struct {
	node    *lir.Node
	reg     *Registry
	order   []string // topological order of Derived flow names
}

// Build synthesizes a Factory for n, validating that its equation
// dependency graph is acyclic; an unsatisfiable dependency aborts
// synthesis for the affected node.
func Build(n *lir.Node, reg *Registry) (*Factory, error) {
	order, err := topoSortFlows(n)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", n.Name, err)
	}
	return &Factory{node: n, reg: reg, order: order}, nil
}

// Init deterministically constructs a fresh Component: default-initializes
// each memory from its declared initial value, and constructs each
// sub-component via its own Init().
func (f *Factory) Init() (Component, error) {
	c := &componentImpl{
		node:     f.node,
		order:    f.order,
		memories: map[string]any{},
		subs:     map[string]Component{},
		pending:  map[string]any{},
	}

	for _, m := range f.node.Memories {
		v, err := evalExpr(m.Init, &env{self: c, input: nil, locals: map[string]any{}})
		if err != nil {
			return nil, fmt.Errorf("node %q: memory %q init: %w", f.node.Name, m.Name, err)
		}
		c.memories[m.Name] = v
	}

	for _, inst := range f.node.Instances {
		subNode, ok := f.reg.Get(inst.Node)
		if !ok {
			return nil, fmt.Errorf("node %q: instance %q references unknown node %q", f.node.Name, inst.Name, inst.Node)
		}
		subFactory, err := Build(subNode, f.reg)
		if err != nil {
			return nil, err
		}
		sub, err := subFactory.Init()
		if err != nil {
			return nil, err
		}
		c.subs[inst.Name] = sub
	}

	return c, nil
}

// componentImpl is the concrete Component: a record holding memory cells
// plus owned sub-component states.
type componentImpl struct {
	node  *lir.Node
	order []string

	memories map[string]any
	subs     map[string]Component

	// pending holds memory writes staged by lir.Assign statements until
	// the step completes; Step commits them in one pass at the syntactic
	// end, after which pending is cleared.
	pending map[string]any
}

// Step binds input fields, evaluates the node's equations in a topological
// order over current-step dependencies, writes new memory values exactly
// once per cell at the syntactic end of the step, and returns the output
// tuple in declared order. Two successive Step calls with identical (self,
// input) produce identical outputs and post-states.
func (c *componentImpl) Step(input map[string]any) (map[string]any, error) {
	ev := &env{self: c, input: input, locals: map[string]any{}}

	derivedByName := make(map[string]lir.Expr, len(c.node.Derived))
	for _, eq := range c.node.Derived {
		derivedByName[eq.Flow] = eq.Expr
	}

	for _, name := range c.order {
		expr, ok := derivedByName[name]
		if !ok {
			continue
		}
		v, err := evalExpr(expr, ev)
		if err != nil {
			return nil, fmt.Errorf("node %q: evaluating %q: %w", c.node.Name, name, err)
		}
		ev.locals[name] = v
	}

	nextMemories := make(map[string]any, len(c.node.Next))
	for _, eq := range c.node.Next {
		v, err := evalExpr(eq.Expr, ev)
		if err != nil {
			return nil, fmt.Errorf("node %q: next(%q): %w", c.node.Name, eq.Memory, err)
		}
		nextMemories[eq.Memory] = v
	}

	output := make(map[string]any, len(c.node.OutputFields))
	for _, name := range c.node.OutputFields {
		if v, ok := ev.locals[name]; ok {
			output[name] = v
			continue
		}
		if v, ok := c.memories[name]; ok {
			output[name] = v
			continue
		}
		return nil, fmt.Errorf("node %q: output %q has no defining equation", c.node.Name, name)
	}

	// Commit memory writes exactly once, at the syntactic end of the step.
	for name, v := range nextMemories {
		c.memories[name] = v
	}
	for name, v := range c.pending {
		c.memories[name] = v
	}
	c.pending = map[string]any{}

	return output, nil
}
