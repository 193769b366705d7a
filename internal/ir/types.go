// Package ir defines the typed data model shared by every lowering stage:
// flows, types, patterns, nodes, and the event/service vocabulary. It
// stands in for the output of an external lexer/parser/type-checker: a
// real frontend would produce these same shapes with identifiers already
// resolved.
package ir

// Kind enumerates the scalar and compound type shapes a Flow can carry.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
	KindStruct
	KindEnum
	KindTuple
	KindOption
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindTuple:
		return "tuple"
	case KindOption:
		return "option"
	default:
		return "unknown"
	}
}

// Type is the typing attached to every flow and expression. Struct/enum
// types carry their own name so diagnostics can refer to it; the declared
// field order is kept in FieldOrder alongside the Fields map, and Equal
// ignores it.
type Type struct {
	Kind Kind

	Name string // struct/enum name, empty for scalars/tuples/options

	Fields     map[string]Type // struct: field name -> type
	FieldOrder []string        // struct: declared field order

	Variants []string // enum: variant names in declaration order

	Elems []Type // tuple: element types in order

	Elem *Type // option: wrapped type
}

// Zero returns the default ("initial") value for a scalar Type. Struct,
// enum, tuple and option defaults are the caller's responsibility (built
// from per-field/per-element defaults by the owning Node's memory
// declaration), since their zero value isn't representable generically.
func (t Type) Zero() any {
	switch t.Kind {
	case KindBool:
		return false
	case KindInt:
		return int64(0)
	case KindFloat:
		return float64(0)
	case KindString:
		return ""
	default:
		return nil
	}
}

// Equal reports whether two types have identical shape: structs by name
// and field types, enums by name only, tuples element-wise, options by
// wrapped type.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindStruct:
		if t.Name != other.Name || len(t.Fields) != len(other.Fields) {
			return false
		}
		for name, ft := range t.Fields {
			oft, ok := other.Fields[name]
			if !ok || !ft.Equal(oft) {
				return false
			}
		}
		return true
	case KindEnum:
		return t.Name == other.Name
	case KindTuple:
		if len(t.Elems) != len(other.Elems) {
			return false
		}
		for i := range t.Elems {
			if !t.Elems[i].Equal(other.Elems[i]) {
				return false
			}
		}
		return true
	case KindOption:
		if t.Elem == nil || other.Elem == nil {
			return t.Elem == other.Elem
		}
		return t.Elem.Equal(*other.Elem)
	default:
		return true
	}
}
