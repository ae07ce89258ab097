package record

import (
	"testing"

	"github.com/orneryd/vegvisir/pkg/values"
)

func TestRowCopyOnWrite(t *testing.T) {
	r1 := NewRow(map[string]values.Value{"a": values.Int(1)})
	r2 := r1.With("a", values.Int(2)).With("b", values.Str("x"))

	if v, _ := r1.Get("a"); !values.Equal(v, values.Int(1)) {
		t.Errorf("original row mutated: a = %s", v)
	}
	if _, ok := r1.Get("b"); ok {
		t.Error("original row gained a field")
	}
	if v, _ := r2.Get("a"); !values.Equal(v, values.Int(2)) {
		t.Errorf("With did not overwrite: a = %s", v)
	}
	if r2.Len() != 2 {
		t.Errorf("expected 2 fields, got %d", r2.Len())
	}
}

func TestRowProjectDropMerge(t *testing.T) {
	r := NewRow(map[string]values.Value{
		"a": values.Int(1),
		"b": values.Int(2),
		"c": values.Int(3),
	})

	p := r.Project("a", "c", "missing")
	if p.Len() != 2 {
		t.Errorf("project: expected 2 fields, got %d", p.Len())
	}

	d := r.Drop("b")
	if _, ok := d.Get("b"); ok {
		t.Error("drop left the field behind")
	}
	if d.Len() != 2 {
		t.Errorf("drop: expected 2 fields, got %d", d.Len())
	}

	m := r.Merge(NewRow(map[string]values.Value{"a": values.Int(9), "d": values.Int(4)}))
	if v, _ := m.Get("a"); !values.Equal(v, values.Int(9)) {
		t.Errorf("merge: other side should win, a = %s", v)
	}
	if m.Len() != 4 {
		t.Errorf("merge: expected 4 fields, got %d", m.Len())
	}
}

func TestRowEqualAndKey(t *testing.T) {
	a := NewRow(map[string]values.Value{"x": values.Int(1), "y": values.Str("s")})
	b := NewRow(map[string]values.Value{"y": values.Str("s"), "x": values.Int(1)})
	c := NewRow(map[string]values.Value{"x": values.Int(1)})

	if !a.Equal(b) {
		t.Error("field insertion order must not affect equality")
	}
	if a.Key() != b.Key() {
		t.Error("equal rows must share a key")
	}
	if a.Equal(c) || a.Key() == c.Key() {
		t.Error("different rows must differ in key")
	}

	var zero Row
	if zero.Len() != 0 || zero.Key() != "" {
		t.Error("zero row must be empty and usable")
	}
}

func TestHeader(t *testing.T) {
	h := NewHeader(
		Column{Variable: "n", Field: "n", Type: values.KindNode},
		Column{Variable: "n", Field: "n.age", Type: values.KindInt},
		Column{Variable: "m", Field: "m", Type: values.KindNode},
	)

	if !h.Has("n.age") || h.Has("n.name") {
		t.Error("Has lookup wrong")
	}
	if cols := h.ForVariable("n"); len(cols) != 2 {
		t.Errorf("expected 2 columns for n, got %d", len(cols))
	}
	if got := h.Project("m", "n").Fields(); len(got) != 2 || got[0] != "m" || got[1] != "n" {
		t.Errorf("project order wrong: %v", got)
	}

	merged := h.Merge(NewHeader(Column{Variable: "r", Field: "r", Type: values.KindRelationship}))
	if len(merged.Fields()) != 4 {
		t.Errorf("merge: expected 4 columns, got %d", len(merged.Fields()))
	}

	replaced := h.With(Column{Variable: "n", Field: "n.age", Type: values.KindFloat})
	if len(replaced.Fields()) != 3 {
		t.Errorf("With on existing field must replace, got %d columns", len(replaced.Fields()))
	}
	c, _ := replaced.Column("n.age")
	if c.Type != values.KindFloat {
		t.Errorf("replacement type lost: %s", c.Type)
	}
}
