package fixture

import "github.com/rakunlabs/srl/internal/ir"

// Pattern is a tagged union over every ir.Pattern shape.
type Pattern struct {
	Const      *ConstPatternLit  `yaml:"const,omitempty"`
	Ident      *IdentPatternLit  `yaml:"ident,omitempty"`
	Wildcard   *struct{}         `yaml:"wildcard,omitempty"`
	Enum       *EnumPatternLit   `yaml:"enum,omitempty"`
	Struct     *StructPatternLit `yaml:"struct,omitempty"`
	Tuple      []Pattern         `yaml:"tuple,omitempty"`
	OptionSome *Pattern          `yaml:"option_some,omitempty"`
	OptionNone *struct{}         `yaml:"option_none,omitempty"`
}

type ConstPatternLit struct {
	Value any `yaml:"value"`
}

type IdentPatternLit struct {
	Name string `yaml:"name"`
	Type Type   `yaml:"type"`
}

type EnumPatternLit struct {
	TypeName string    `yaml:"type_name"`
	Variant  string    `yaml:"variant"`
	Fields   []Pattern `yaml:"fields"`
}

type StructPatternLit struct {
	TypeName string             `yaml:"type_name"`
	Fields   map[string]Pattern `yaml:"fields"`
}

func (p Pattern) toIR() (ir.Pattern, error) {
	switch {
	case p.Const != nil:
		return ir.ConstPattern{Value: normalizeScalar(p.Const.Value)}, nil

	case p.Ident != nil:
		t, err := p.Ident.Type.toIR()
		if err != nil {
			return nil, err
		}
		return ir.IdentPattern{Name: p.Ident.Name, Type: t}, nil

	case p.Wildcard != nil:
		return ir.WildcardPattern{}, nil

	case p.Enum != nil:
		fields := make([]ir.Pattern, 0, len(p.Enum.Fields))
		for _, f := range p.Enum.Fields {
			ip, err := f.toIR()
			if err != nil {
				return nil, err
			}
			fields = append(fields, ip)
		}
		return ir.EnumPattern{TypeName: p.Enum.TypeName, Variant: p.Enum.Variant, Fields: fields}, nil

	case p.Struct != nil:
		fields := make(map[string]ir.Pattern, len(p.Struct.Fields))
		for name, f := range p.Struct.Fields {
			ip, err := f.toIR()
			if err != nil {
				return nil, err
			}
			fields[name] = ip
		}
		return ir.StructPattern{TypeName: p.Struct.TypeName, Fields: fields}, nil

	case p.Tuple != nil:
		elems := make([]ir.Pattern, 0, len(p.Tuple))
		for _, e := range p.Tuple {
			ip, err := e.toIR()
			if err != nil {
				return nil, err
			}
			elems = append(elems, ip)
		}
		return ir.TuplePattern{Elems: elems}, nil

	case p.OptionSome != nil:
		inner, err := p.OptionSome.toIR()
		if err != nil {
			return nil, err
		}
		return ir.OptionSomePattern{Inner: inner}, nil

	case p.OptionNone != nil:
		return ir.OptionNonePattern{}, nil

	default:
		return nil, fixtureErrf("pattern node has no recognized shape")
	}
}
