package csyn

import (
	"strconv"

	"github.com/rakunlabs/srl/internal/lir"
)

// matchPattern attempts to match val against pat, recording identifier
// bindings into bindings on success. Exhaustiveness of the enclosing match
// is an upstream lowering assumption, not checked here.
func matchPattern(pat lir.Pattern, val any, bindings map[string]any) bool {
	switch p := pat.(type) {
	case lir.WildcardPattern:
		return true

	case lir.IdentPattern:
		bindings[p.Name] = val
		return true

	case lir.ConstPattern:
		return valuesEqual(p.Value, val)

	case lir.StructPattern:
		rec, ok := val.(map[string]any)
		if !ok {
			return false
		}
		for name, sub := range p.Fields {
			fv, ok := rec[name]
			if !ok {
				return false
			}
			if !matchPattern(sub, fv, bindings) {
				return false
			}
		}
		return true

	case lir.TuplePattern:
		rec, ok := val.(map[string]any)
		if !ok {
			return false
		}
		for i, sub := range p.Elems {
			fv, ok := rec[tupleFieldName(i)]
			if !ok {
				return false
			}
			if !matchPattern(sub, fv, bindings) {
				return false
			}
		}
		return true

	case lir.EnumPattern:
		ev, ok := val.(EnumValue)
		if !ok || ev.Variant != p.Variant {
			return false
		}
		if len(p.Fields) > len(ev.Fields) {
			return false
		}
		for i, sub := range p.Fields {
			if !matchPattern(sub, ev.Fields[i], bindings) {
				return false
			}
		}
		return true

	case lir.OptionTagPattern:
		ov, ok := val.(OptionValue)
		if !ok || !ov.Present {
			return false
		}
		return matchPattern(p.Inner, ov.Value, bindings)

	default:
		return false
	}
}

func tupleFieldName(i int) string {
	return "_" + strconv.Itoa(i)
}
