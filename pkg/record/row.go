// Package record defines the tabular intermediate representation the engine
// evaluates queries over: Row, an immutable mapping from field name to value,
// and Header, the schema metadata describing which fields exist and where
// they came from.
package record

import (
	"sort"
	"strconv"
	"strings"

	"github.com/orneryd/vegvisir/pkg/values"
)

// Row is an immutable record of named values. Every mutating operation
// returns a new Row; the receiver is never modified, so Rows can be shared
// freely between tables and goroutines. The zero Row is empty and usable.
type Row struct {
	fields map[string]values.Value
}

// NewRow builds a row from the given fields. The map is copied.
func NewRow(fields map[string]values.Value) Row {
	cp := make(map[string]values.Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Row{fields: cp}
}

// Get returns the value bound to the field name.
func (r Row) Get(name string) (values.Value, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Len returns the number of fields.
func (r Row) Len() int { return len(r.fields) }

// Fields returns the field names in sorted order.
func (r Row) Fields() []string {
	out := make([]string, 0, len(r.fields))
	for k := range r.fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// With returns a copy of the row with the field bound to v, overwriting any
// existing binding.
func (r Row) With(name string, v values.Value) Row {
	cp := make(map[string]values.Value, len(r.fields)+1)
	for k, old := range r.fields {
		cp[k] = old
	}
	cp[name] = v
	return Row{fields: cp}
}

// Project returns a copy keeping only the named fields. Names absent from
// the row are dropped silently.
func (r Row) Project(names ...string) Row {
	cp := make(map[string]values.Value, len(names))
	for _, n := range names {
		if v, ok := r.fields[n]; ok {
			cp[n] = v
		}
	}
	return Row{fields: cp}
}

// Drop returns a copy without the named fields.
func (r Row) Drop(names ...string) Row {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	cp := make(map[string]values.Value, len(r.fields))
	for k, v := range r.fields {
		if _, gone := drop[k]; !gone {
			cp[k] = v
		}
	}
	return Row{fields: cp}
}

// Merge returns the union of two rows. Fields of other win on overlap.
func (r Row) Merge(other Row) Row {
	cp := make(map[string]values.Value, len(r.fields)+len(other.fields))
	for k, v := range r.fields {
		cp[k] = v
	}
	for k, v := range other.fields {
		cp[k] = v
	}
	return Row{fields: cp}
}

// Equal reports structural equality: same field set, structurally equal
// values.
func (r Row) Equal(other Row) bool {
	if len(r.fields) != len(other.fields) {
		return false
	}
	for k, v := range r.fields {
		ov, ok := other.fields[k]
		if !ok || !values.Equal(v, ov) {
			return false
		}
	}
	return true
}

// Key returns a canonical encoding of the whole row, injective with respect
// to Equal. Fields are encoded in sorted order.
func (r Row) Key() string {
	names := r.Fields()
	var sb strings.Builder
	for _, n := range names {
		sb.WriteString(strconv.Itoa(len(n)))
		sb.WriteString(":")
		sb.WriteString(n)
		sb.WriteString("=")
		sb.WriteString(r.fields[n].Key())
		sb.WriteString(";")
	}
	return sb.String()
}
