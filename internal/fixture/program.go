package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rakunlabs/srl/internal/config"
	"github.com/rakunlabs/srl/internal/ir"
)

func fixtureErrf(format string, args ...any) error {
	return fmt.Errorf("fixture: "+format, args...)
}

// File is the top-level shape of one service-fixture YAML document: the
// node graph a service deploys, plus the service's I/O bindings and
// timing parameters.
type File struct {
	Nodes   []NodeLit   `yaml:"nodes"`
	Service ServiceLit `yaml:"service"`
}

type NodeLit struct {
	Name string `yaml:"name"`

	InputType    Type     `yaml:"input_type"`
	InputFields  []string `yaml:"input_fields"`
	OutputFields []string `yaml:"output_fields"`

	Memories  []MemoryLit   `yaml:"memories"`
	Instances []InstanceLit `yaml:"instances"`
	Derived   []DerivedLit  `yaml:"derived"`
	Next      []NextLit     `yaml:"next"`
}

type MemoryLit struct {
	Name string `yaml:"name"`
	Type Type   `yaml:"type"`
	Init Expr   `yaml:"init"`
}

type InstanceLit struct {
	Name string `yaml:"name"`
	Node string `yaml:"node"`
}

type DerivedLit struct {
	Flow string `yaml:"flow"`
	Expr Expr   `yaml:"expr"`
}

type NextLit struct {
	Memory string `yaml:"memory"`
	Expr   Expr   `yaml:"expr"`
}

type ServiceLit struct {
	Name string `yaml:"name"`
	Root string `yaml:"root"`

	Inputs  []ServiceFlowLit `yaml:"inputs"`
	Outputs []ServiceFlowLit `yaml:"outputs"`

	Delay   string `yaml:"delay"`
	Timeout string `yaml:"timeout"`
}

// ServiceFlowLit is shared by inputs and outputs; Source is ignored for
// outputs (a source kind is only meaningful for an input flow).
type ServiceFlowLit struct {
	Name   string `yaml:"name"`
	Type   Type   `yaml:"type"`
	Source string `yaml:"source,omitempty"` // signal | timer
}

var sourceKinds = map[string]ir.FlowSourceKind{
	"signal": ir.SourceSignal,
	"timer":  ir.SourceTimer,
	"":       ir.SourceSignal,
}

// Load reads one service-fixture YAML file and returns its node graph and
// service declaration, ready for rtasm.Compile/Assemble.
func Load(path string) ([]ir.Node, ir.Service, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ir.Service{}, fmt.Errorf("fixture: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, ir.Service{}, fmt.Errorf("fixture: parse %s: %w", path, err)
	}

	nodes := make([]ir.Node, 0, len(f.Nodes))
	for _, n := range f.Nodes {
		node, err := n.toIR()
		if err != nil {
			return nil, ir.Service{}, fmt.Errorf("fixture: node %q: %w", n.Name, err)
		}
		nodes = append(nodes, node)
	}

	svc, err := f.Service.toIR()
	if err != nil {
		return nil, ir.Service{}, fmt.Errorf("fixture: service %q: %w", f.Service.Name, err)
	}

	return nodes, svc, nil
}

func (n NodeLit) toIR() (ir.Node, error) {
	inputType, err := n.InputType.toIR()
	if err != nil {
		return ir.Node{}, err
	}

	out := ir.Node{
		Name:         n.Name,
		InputType:    inputType,
		InputFields:  n.InputFields,
		OutputFields: n.OutputFields,
	}

	for _, m := range n.Memories {
		t, err := m.Type.toIR()
		if err != nil {
			return ir.Node{}, err
		}
		init, err := m.Init.toIR()
		if err != nil {
			return ir.Node{}, fmt.Errorf("memory %q: %w", m.Name, err)
		}
		out.Memories = append(out.Memories, ir.Memory{Name: m.Name, Type: t, Init: init})
	}

	for _, i := range n.Instances {
		out.Instances = append(out.Instances, ir.Instance{Name: i.Name, Node: i.Node})
	}

	for _, d := range n.Derived {
		e, err := d.Expr.toIR()
		if err != nil {
			return ir.Node{}, fmt.Errorf("derived %q: %w", d.Flow, err)
		}
		out.Derived = append(out.Derived, ir.DerivedEq{Flow: d.Flow, Expr: e})
	}

	for _, nx := range n.Next {
		e, err := nx.Expr.toIR()
		if err != nil {
			return ir.Node{}, fmt.Errorf("next(%q): %w", nx.Memory, err)
		}
		out.Next = append(out.Next, ir.MemoryNextEq{Memory: nx.Memory, Expr: e})
	}

	return out, nil
}

func (s ServiceLit) toIR() (ir.Service, error) {
	delay, err := config.ParseDuration(s.Delay)
	if err != nil {
		return ir.Service{}, err
	}
	timeout, err := config.ParseDuration(s.Timeout)
	if err != nil {
		return ir.Service{}, err
	}

	out := ir.Service{
		Name:    s.Name,
		Root:    s.Root,
		Delay:   ir.Duration(delay),
		Timeout: ir.Duration(timeout),
	}

	for _, f := range s.Inputs {
		t, err := f.Type.toIR()
		if err != nil {
			return ir.Service{}, err
		}
		kind, ok := sourceKinds[f.Source]
		if !ok {
			return ir.Service{}, fixtureErrf("input %q: unknown source %q", f.Name, f.Source)
		}
		out.Inputs = append(out.Inputs, ir.ServiceFlow{Name: f.Name, Type: t, Source: kind})
	}

	for _, f := range s.Outputs {
		t, err := f.Type.toIR()
		if err != nil {
			return ir.Service{}, err
		}
		out.Outputs = append(out.Outputs, ir.OutputFlow{Name: f.Name, Type: t})
	}

	return out, nil
}
