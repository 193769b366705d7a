// Package fixture loads NR-level programs (nodes, services) from YAML.
// It stands in for an external lexer/parser/type-checker: a real frontend
// would hand the compiler internal/ir values already built; these YAML
// fixtures encode exactly those same shapes so the rest of the pipeline
// (mir, lir, csyn, ssyn, rtasm) never has to know the difference.
package fixture

import "github.com/rakunlabs/srl/internal/ir"

// Type mirrors ir.Type with yaml tags.
type Type struct {
	Kind       string          `yaml:"kind"`
	Name       string          `yaml:"name,omitempty"`
	Fields     map[string]Type `yaml:"fields,omitempty"`
	FieldOrder []string        `yaml:"field_order,omitempty"`
	Variants   []string        `yaml:"variants,omitempty"`
	Elems      []Type          `yaml:"elems,omitempty"`
	Elem       *Type           `yaml:"elem,omitempty"`
}

var typeKinds = map[string]ir.Kind{
	"bool":   ir.KindBool,
	"int":    ir.KindInt,
	"float":  ir.KindFloat,
	"string": ir.KindString,
	"struct": ir.KindStruct,
	"enum":   ir.KindEnum,
	"tuple":  ir.KindTuple,
	"option": ir.KindOption,
}

func (t Type) toIR() (ir.Type, error) {
	kind, ok := typeKinds[t.Kind]
	if !ok {
		return ir.Type{}, fixtureErrf("unknown type kind %q", t.Kind)
	}
	out := ir.Type{Kind: kind, Name: t.Name, FieldOrder: t.FieldOrder, Variants: t.Variants}

	if len(t.Fields) > 0 {
		out.Fields = make(map[string]ir.Type, len(t.Fields))
		for name, ft := range t.Fields {
			irft, err := ft.toIR()
			if err != nil {
				return ir.Type{}, err
			}
			out.Fields[name] = irft
		}
	}

	for _, e := range t.Elems {
		ie, err := e.toIR()
		if err != nil {
			return ir.Type{}, err
		}
		out.Elems = append(out.Elems, ie)
	}

	if t.Elem != nil {
		ie, err := t.Elem.toIR()
		if err != nil {
			return ir.Type{}, err
		}
		out.Elem = &ie
	}

	return out, nil
}
