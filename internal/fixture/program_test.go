package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rakunlabs/srl/internal/ir"
)

// counterFixtureYAML declares one node ("counter") with an int memory cell
// default-initialized to 0, a derived output reading it, and a next()
// equation incrementing it by an input field — plus a service exposing
// that node as its root with one signal input and one output flow.
const counterFixtureYAML = `
nodes:
  - name: counter
    input_type:
      kind: struct
      name: CounterInput
      fields:
        step: {kind: int}
    input_fields: [step]
    output_fields: [value]
    memories:
      - name: count
        type: {kind: int}
        init:
          const: {value: 0, type: {kind: int}}
    derived:
      - flow: value
        expr:
          var: {name: count, kind: memory, type: {kind: int}}
    next:
      - memory: count
        expr:
          bin_op:
            op: "+"
            left:
              var: {name: count, kind: memory, type: {kind: int}}
            right:
              var: {name: step, kind: input, type: {kind: int}}
            type: {kind: int}
service:
  name: counter_service
  root: counter
  delay: "10ms"
  timeout: "500ms"
  inputs:
    - name: step
      type: {kind: int}
      source: signal
  outputs:
    - name: value
      type: {kind: int}
`

func writeFixture(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadParsesNodeAndService(t *testing.T) {
	path := writeFixture(t, counterFixtureYAML)

	nodes, svc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(nodes) != 1 || nodes[0].Name != "counter" {
		t.Fatalf("nodes = %+v, want one node named counter", nodes)
	}
	node := nodes[0]
	if len(node.Memories) != 1 || node.Memories[0].Name != "count" {
		t.Fatalf("node.Memories = %+v, want one memory cell named count", node.Memories)
	}
	if init, ok := node.Memories[0].Init.(ir.ConstExpr); !ok || init.Value != int64(0) {
		t.Errorf("memory init = %#v, want ConstExpr{Value: int64(0)}", node.Memories[0].Init)
	}
	if len(node.Derived) != 1 || node.Derived[0].Flow != "value" {
		t.Fatalf("node.Derived = %+v, want one equation for value", node.Derived)
	}
	if len(node.Next) != 1 || node.Next[0].Memory != "count" {
		t.Fatalf("node.Next = %+v, want one next(count) equation", node.Next)
	}

	if svc.Name != "counter_service" || svc.Root != "counter" {
		t.Fatalf("svc = %+v, want name=counter_service root=counter", svc)
	}
	if len(svc.Inputs) != 1 || svc.Inputs[0].Source != ir.SourceSignal {
		t.Fatalf("svc.Inputs = %+v, want one signal-sourced input", svc.Inputs)
	}
	if len(svc.Outputs) != 1 || svc.Outputs[0].Name != "value" {
		t.Fatalf("svc.Outputs = %+v, want one output named value", svc.Outputs)
	}
}

func TestLoadRejectsUnknownSourceKind(t *testing.T) {
	path := writeFixture(t, `
nodes:
  - name: n
    input_type: {kind: struct}
service:
  name: s
  root: n
  delay: "1ms"
  timeout: "1ms"
  inputs:
    - name: x
      type: {kind: int}
      source: bogus
`)

	if _, _, err := Load(path); err == nil {
		t.Fatal("Load with an unknown input source kind must fail")
	}
}

func TestLoadRejectsUnknownTypeKind(t *testing.T) {
	path := writeFixture(t, `
nodes:
  - name: n
    memories:
      - name: m
        type: {kind: not_a_real_kind}
        init:
          const: {value: 0, type: {kind: not_a_real_kind}}
service:
  name: s
  root: n
  delay: "1ms"
  timeout: "1ms"
`)

	if _, _, err := Load(path); err == nil {
		t.Fatal("Load with an unrecognized type kind must fail")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
		t.Fatal("Load of a nonexistent path must fail")
	}
}
