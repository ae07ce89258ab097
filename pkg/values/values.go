// Package values defines the tagged value model that flows through the
// execution engine: every cell of every row is a Value.
//
// A Value is one of Null, Bool, Int (64-bit), Float (64-bit), String, List,
// Map, Node reference, or Relationship reference. Equality and ordering are
// type-directed: comparing values of incompatible types is an error, with the
// single exception that integers and floats compare numerically.
//
// Example:
//
//	a := values.Int(42)
//	b := values.Float(42.0)
//	cmp, err := values.Compare(a, b) // 0, nil (numeric comparison)
//
//	lst := values.ListOf(values.Str("x"), values.Int(1))
//	_, err = values.Compare(lst, a) // values.ErrIncomparable
package values

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrIncomparable is returned when two values cannot be ordered relative to
// each other (e.g. a list against an integer, or two maps).
var ErrIncomparable = errors.New("values: incomparable types")

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindNode
	KindRelationship
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindNode:
		return "node"
	case KindRelationship:
		return "relationship"
	default:
		return "unknown"
	}
}

// NodeRef is a reference to a graph node by identifier.
type NodeRef struct {
	ID int64
}

// RelationshipRef is a reference to a graph relationship, carrying its
// endpoints and type so the engine can group by endpoints without a graph
// lookup.
type RelationshipRef struct {
	ID     int64
	Source int64
	Target int64
	Type   string
}

// Value is a tagged union. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	mp   map[string]Value
	node NodeRef
	rel  RelationshipRef
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps a 64-bit integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a 64-bit float.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Str wraps a string.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// ListOf wraps the given elements as a list value.
func ListOf(elems ...Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: KindList, list: cp}
}

// MapOf wraps a map. The input is copied.
func MapOf(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMap, mp: cp}
}

// NodeVal wraps a node reference.
func NodeVal(ref NodeRef) Value { return Value{kind: KindNode, node: ref} }

// RelVal wraps a relationship reference.
func RelVal(ref RelationshipRef) Value { return Value{kind: KindRelationship, rel: ref} }

// Kind reports the variant this value holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload, ok=false for other kinds.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer payload, ok=false for other kinds.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float payload, ok=false for other kinds.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsString returns the string payload, ok=false for other kinds.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsList returns the list payload (shared, treat as read-only).
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// AsMap returns the map payload (shared, treat as read-only).
func (v Value) AsMap() (map[string]Value, bool) { return v.mp, v.kind == KindMap }

// AsNode returns the node reference payload.
func (v Value) AsNode() (NodeRef, bool) { return v.node, v.kind == KindNode }

// AsRelationship returns the relationship reference payload.
func (v Value) AsRelationship() (RelationshipRef, bool) { return v.rel, v.kind == KindRelationship }

// Numeric returns the value as float64 when it is an int or a float.
func (v Value) Numeric() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Equal reports structural equality. Nulls are equal to nulls, lists and maps
// compare element-wise, node/relationship references compare by identifier.
// Values of different kinds are never equal: an int and a float with the same
// numeric value are structurally distinct. Compare treats them numerically,
// Equal does not, so that Equal stays coherent with Key and Hash.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.mp) != len(b.mp) {
			return false
		}
		for k, av := range a.mp {
			bv, ok := b.mp[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case KindNode:
		return a.node.ID == b.node.ID
	case KindRelationship:
		return a.rel.ID == b.rel.ID
	default:
		return false
	}
}

// Compare orders two values. It returns a negative, zero, or positive result
// like strings.Compare. Nulls order after every non-null value so that null
// sorts last in ascending order. Integers and floats compare numerically.
// Booleans order false < true, lists element-wise then by length,
// node/relationship references by identifier. Maps and mixed non-numeric
// kinds return ErrIncomparable.
func Compare(a, b Value) (int, error) {
	if a.kind == KindNull || b.kind == KindNull {
		switch {
		case a.kind == b.kind:
			return 0, nil
		case a.kind == KindNull:
			return 1, nil
		default:
			return -1, nil
		}
	}
	if af, ok := a.Numeric(); ok {
		if bf, ok := b.Numeric(); ok {
			switch {
			case af < bf:
				return -1, nil
			case af > bf:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if a.kind != b.kind {
		return 0, fmt.Errorf("%w: %s and %s", ErrIncomparable, a.kind, b.kind)
	}
	switch a.kind {
	case KindBool:
		switch {
		case a.b == b.b:
			return 0, nil
		case !a.b:
			return -1, nil
		default:
			return 1, nil
		}
	case KindString:
		return strings.Compare(a.s, b.s), nil
	case KindList:
		n := len(a.list)
		if len(b.list) < n {
			n = len(b.list)
		}
		for i := 0; i < n; i++ {
			c, err := Compare(a.list[i], b.list[i])
			if err != nil || c != 0 {
				return c, err
			}
		}
		return len(a.list) - len(b.list), nil
	case KindNode:
		return compareInt64(a.node.ID, b.node.ID), nil
	case KindRelationship:
		return compareInt64(a.rel.ID, b.rel.ID), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrIncomparable, a.kind)
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Key returns a canonical encoding of the value, injective with respect to
// Equal: two values have the same key iff they are structurally equal. Used
// for grouping, distinct, and as the serialized half of construction keys.
func (v Value) Key() string {
	var sb strings.Builder
	v.writeKey(&sb)
	return sb.String()
}

func (v Value) writeKey(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("z")
	case KindBool:
		if v.b {
			sb.WriteString("b1")
		} else {
			sb.WriteString("b0")
		}
	case KindInt:
		sb.WriteString("i")
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		sb.WriteString("f")
		sb.WriteString(strconv.FormatUint(math.Float64bits(v.f), 16))
	case KindString:
		sb.WriteString("s")
		sb.WriteString(strconv.Itoa(len(v.s)))
		sb.WriteString(":")
		sb.WriteString(v.s)
	case KindList:
		sb.WriteString("l")
		sb.WriteString(strconv.Itoa(len(v.list)))
		sb.WriteString("[")
		for _, e := range v.list {
			e.writeKey(sb)
		}
		sb.WriteString("]")
	case KindMap:
		keys := make([]string, 0, len(v.mp))
		for k := range v.mp {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("m")
		sb.WriteString(strconv.Itoa(len(keys)))
		sb.WriteString("{")
		for _, k := range keys {
			sb.WriteString(strconv.Itoa(len(k)))
			sb.WriteString(":")
			sb.WriteString(k)
			sb.WriteString("=")
			v.mp[k].writeKey(sb)
		}
		sb.WriteString("}")
	case KindNode:
		sb.WriteString("n")
		sb.WriteString(strconv.FormatInt(v.node.ID, 10))
	case KindRelationship:
		sb.WriteString("r")
		sb.WriteString(strconv.FormatInt(v.rel.ID, 10))
	}
}

// Hash returns a 64-bit hash of the canonical encoding, used to bucket join
// keys. Equal values always hash equal; unequal values may collide, which is
// why join probing re-checks true equality per candidate.
func (v Value) Hash() uint64 {
	return xxhash.Sum64String(v.Key())
}

// String renders the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.mp))
		for k := range v.mp {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.mp[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindNode:
		return fmt.Sprintf("(#%d)", v.node.ID)
	case KindRelationship:
		return fmt.Sprintf("[#%d:%s %d->%d]", v.rel.ID, v.rel.Type, v.rel.Source, v.rel.Target)
	default:
		return "?"
	}
}
