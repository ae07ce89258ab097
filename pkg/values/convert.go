package values

import "fmt"

// FromAny converts a plain Go value (as produced by YAML or JSON decoding)
// into a Value. Supported inputs: nil, bool, all integer widths, float32/64,
// string, []any, map[string]any, and nested combinations thereof.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Int(int64(x)), nil
	case uint64:
		return Int(int64(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case string:
		return Str(x), nil
	case []any:
		elems := make([]Value, len(x))
		for i, e := range x {
			ev, err := FromAny(e)
			if err != nil {
				return Null(), err
			}
			elems[i] = ev
		}
		return ListOf(elems...), nil
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, e := range x {
			ev, err := FromAny(e)
			if err != nil {
				return Null(), err
			}
			m[k] = ev
		}
		return MapOf(m), nil
	default:
		return Null(), fmt.Errorf("values: cannot convert %T", v)
	}
}

// ToAny converts a Value back to a plain Go value for serialization. Node and
// relationship references become their identifiers.
func (v Value) ToAny() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.ToAny()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.mp))
		for k, e := range v.mp {
			out[k] = e.ToAny()
		}
		return out
	case KindNode:
		return v.node.ID
	case KindRelationship:
		return v.rel.ID
	default:
		return nil
	}
}
