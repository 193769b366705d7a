package rtasm

import (
	"fmt"

	"github.com/rakunlabs/srl/internal/csyn"
	"github.com/rakunlabs/srl/internal/diag"
	"github.com/rakunlabs/srl/internal/ir"
	"github.com/rakunlabs/srl/internal/lir"
	"github.com/rakunlabs/srl/internal/mir"
	"github.com/rakunlabs/srl/internal/ssyn"
)

// Program is the input Compile lowers and Assemble deploys: every node's
// NR definition plus the service declarations that bind them.
type Program struct {
	Nodes    []ir.Node
	Services []ir.Service
}

// Compile runs the full NR → MIR → LIR pipeline over every node in p,
// collecting diagnostics into col. It returns a csyn.Registry ready for
// Build/Init, or a non-nil error once col has collected any diagnostic.
func Compile(p Program, col *diag.Collector) (*csyn.Registry, error) {
	reg := csyn.NewRegistry()
	loc := diag.Location{File: "program"}

	for _, n := range p.Nodes {
		mirNode, err := mir.Lower(n, col)
		if err != nil {
			col.Add(diag.Diagnostic{Kind: diag.UnsatisfiableDependency, Message: err.Error(), Location: loc})
			continue
		}
		lirNode, err := lir.Lower(mirNode, loc, col)
		if err != nil {
			col.Add(diag.Diagnostic{Kind: diag.UnsatisfiableDependency, Message: err.Error(), Location: loc})
			continue
		}
		reg.Add(lirNode)
	}

	if col.HasErrors() {
		return nil, col.Err()
	}
	return reg, nil
}

// Assemble builds a Runtime from a compiled Registry and the program's
// service declarations: each declared Service gets a fresh root Component
// and an ssyn.Service wrapping it, registered under the service's
// declared input flow names.
func Assemble(reg *csyn.Registry, services []ir.Service, sink OutputSink) (*Runtime, error) {
	rt := New(sink)

	for _, svc := range services {
		rootNode, ok := reg.Get(svc.Root)
		if !ok {
			return nil, fmt.Errorf("rtasm: service %q: root node %q not found", svc.Name, svc.Root)
		}
		factory, err := csyn.Build(rootNode, reg)
		if err != nil {
			return nil, fmt.Errorf("rtasm: service %q: %w", svc.Name, err)
		}
		component, err := factory.Init()
		if err != nil {
			return nil, fmt.Errorf("rtasm: service %q: init: %w", svc.Name, err)
		}

		ssvc := ssyn.NewService(svc.Name, component, svc, svc.Inputs, rt.Sender(svc.Name))

		var inputNames []string
		for _, f := range svc.Inputs {
			inputNames = append(inputNames, f.Name)
		}
		rt.AddService(svc.Name, ssvc, inputNames)
	}

	return rt, nil
}
