package record

import "github.com/orneryd/vegvisir/pkg/values"

// Column describes one physical field of a table: the logical variable it
// belongs to, the physical field name rows use, and the declared value kind.
// Property columns use the "variable.property" field-name encoding, e.g.
// variable "n", field "n.age".
type Column struct {
	Variable string
	Field    string
	Type     values.Kind
}

// Header is read-only schema metadata for a table. The engine consumes
// headers produced by the planner; it never infers them from data.
type Header struct {
	cols    []Column
	byField map[string]int
}

// NewHeader builds a header from columns. Later duplicates of a field name
// shadow earlier ones.
func NewHeader(cols ...Column) *Header {
	h := &Header{
		cols:    make([]Column, len(cols)),
		byField: make(map[string]int, len(cols)),
	}
	copy(h.cols, cols)
	for i, c := range h.cols {
		h.byField[c.Field] = i
	}
	return h
}

// Columns returns the columns in declaration order.
func (h *Header) Columns() []Column {
	out := make([]Column, len(h.cols))
	copy(out, h.cols)
	return out
}

// Fields returns the physical field names in declaration order.
func (h *Header) Fields() []string {
	out := make([]string, len(h.cols))
	for i, c := range h.cols {
		out[i] = c.Field
	}
	return out
}

// Has reports whether the header declares the field.
func (h *Header) Has(field string) bool {
	_, ok := h.byField[field]
	return ok
}

// Column returns the column declaring the field.
func (h *Header) Column(field string) (Column, bool) {
	i, ok := h.byField[field]
	if !ok {
		return Column{}, false
	}
	return h.cols[i], true
}

// ForVariable returns every column belonging to the variable, in declaration
// order.
func (h *Header) ForVariable(variable string) []Column {
	var out []Column
	for _, c := range h.cols {
		if c.Variable == variable {
			out = append(out, c)
		}
	}
	return out
}

// With returns a new header with the column appended (or replaced, when the
// field already exists).
func (h *Header) With(c Column) *Header {
	cols := h.Columns()
	if i, ok := h.byField[c.Field]; ok {
		cols[i] = c
		return NewHeader(cols...)
	}
	return NewHeader(append(cols, c)...)
}

// Merge returns a header containing this header's columns followed by the
// other's. Overlapping field names keep the other's declaration.
func (h *Header) Merge(other *Header) *Header {
	var cols []Column
	for _, c := range h.cols {
		if !other.Has(c.Field) {
			cols = append(cols, c)
		}
	}
	return NewHeader(append(cols, other.Columns()...)...)
}

// Project returns a header keeping only the named fields, in the given
// order. Unknown names are dropped silently.
func (h *Header) Project(fields ...string) *Header {
	var cols []Column
	for _, f := range fields {
		if c, ok := h.Column(f); ok {
			cols = append(cols, c)
		}
	}
	return NewHeader(cols...)
}
