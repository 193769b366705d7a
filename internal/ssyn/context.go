// Package ssyn implements Service Synthesis, the hardest kernel in the
// pipeline: for each declared service it builds the context type, input
// store, and state machine that dispatch external signals and timer
// firings into the root component's step, with input coalescing,
// per-signal change detection, and output suppression on no-change.
package ssyn

import "reflect"

// Cell is one tracked flow slot in a Context: a current value and an
// is_new flag.
type Cell struct {
	value any
	isNew bool
}

// Get returns the cell's current value.
func (c *Cell) Get() any { return c.value }

// Set updates the cell and sets is_new when v differs from the old value.
// A Set that leaves the value unchanged does not clear a flag raised
// earlier since the last Reset. Values are compared structurally
// (reflect.DeepEqual) since record- and option-shaped flow values aren't
// comparable with ==.
func (c *Cell) Set(v any) {
	changed := !reflect.DeepEqual(c.value, v)
	c.value = v
	if changed {
		c.isNew = true
	}
}

// IsNew reports whether any Set since the last Reset changed the value.
func (c *Cell) IsNew() bool { return c.isNew }

// Reset clears is_new only; the value is retained.
func (c *Cell) Reset() { c.isNew = false }

// Context is the per-step tracked-cell record: one cell per flow in scope
// of the node's step environment. Cells are tracked for every declared
// input and output flow — the flows an external observer can see change —
// which is sufficient to implement idempotence, no-duplicate-output,
// timeout liveness, and delay safety without also tracking the node's
// internal derived flows, since csyn.Component.Step is a pure, idempotent
// function of (self, input): re-running it with unchanged inputs
// reproduces the same outputs and the same memory, so gating the whole
// Update Sequence on "any tracked input changed" is an
// observably-equivalent collapse of a finer per-statement conditional
// scheme.
type Context struct {
	cells map[string]*Cell
}

// NewContext default-initializes one cell per flow name with the given
// default value.
func NewContext(defaults map[string]any) *Context {
	ctx := &Context{cells: make(map[string]*Cell, len(defaults))}
	for name, v := range defaults {
		ctx.cells[name] = &Cell{value: v}
	}
	return ctx
}

func (ctx *Context) Cell(name string) *Cell { return ctx.cells[name] }

// Reset clears every tracked cell's is_new flag.
func (ctx *Context) Reset() {
	for _, c := range ctx.cells {
		c.Reset()
	}
}
