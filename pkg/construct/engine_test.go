package construct

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orneryd/vegvisir/pkg/expr"
	"github.com/orneryd/vegvisir/pkg/graph"
	"github.com/orneryd/vegvisir/pkg/record"
	"github.com/orneryd/vegvisir/pkg/table"
	"github.com/orneryd/vegvisir/pkg/values"
)

func lit(v values.Value) expr.Expr { return expr.Literal{Value: v} }

func groupBy(fields ...string) expr.Expr {
	els := make([]values.Value, len(fields))
	for i, f := range fields {
		els[i] = values.Str(f)
	}
	return lit(values.ListOf(els...))
}

// carsFixture is the matched table of a query over cars: per-row model and
// price columns, no graph entities.
func carsFixture() (*table.Table, *record.Header) {
	h := record.NewHeader(
		col("p", "p.model", values.KindString),
		col("p", "p.price", values.KindInt),
	)
	tbl := table.New(
		record.NewRow(map[string]values.Value{"p.model": values.Str("BMW"), "p.price": values.Int(10)}),
		record.NewRow(map[string]values.Value{"p.model": values.Str("BMW"), "p.price": values.Int(20)}),
		record.NewRow(map[string]values.Value{"p.model": values.Str("VW"), "p.price": values.Int(30)}),
	)
	return tbl, h
}

func col(variable, field string, kind values.Kind) record.Column {
	return record.Column{Variable: variable, Field: field, Type: kind}
}

func TestBuildGroupedNodes(t *testing.T) {
	tbl, h := carsFixture()
	d := &Descriptor{
		GraphName: "out",
		Nodes: []NodeSpec{{
			Name:    "m",
			Labels:  []string{"Model"},
			GroupBy: groupBy("p.model"),
			Items: []PropertyItem{
				{Key: "name", Value: expr.Property{Variable: "p", Key: "model"}},
			},
		}},
	}

	g, err := Build(d, tbl, h, nil, NewAllocator())
	require.NoError(t, err)
	require.Equal(t, 2, g.NodeCount(), "two distinct models, two nodes")
	for _, n := range g.Nodes() {
		require.True(t, n.HasLabel("Model"))
		require.Contains(t, []string{"BMW", "VW"}, mustString(t, n.Properties["name"]))
	}
}

func TestBuildUngroupedNodesAreFreshPerRow(t *testing.T) {
	h := record.NewHeader(col("x", "x", values.KindInt))
	tbl := table.New(
		record.NewRow(map[string]values.Value{"x": values.Int(1)}),
		record.NewRow(map[string]values.Value{"x": values.Int(1)}),
		record.NewRow(map[string]values.Value{"x": values.Int(1)}),
	)
	d := &Descriptor{GraphName: "out", Nodes: []NodeSpec{{Name: "n", Labels: []string{"Copy"}}}}

	g, err := Build(d, tbl, h, nil, NewAllocator())
	require.NoError(t, err)
	require.Equal(t, 3, g.NodeCount(), "identical rows still get one node each")
}

func TestBuildAggregateProperties(t *testing.T) {
	tbl, h := carsFixture()
	d := &Descriptor{
		GraphName: "out",
		Nodes: []NodeSpec{{
			Name:    "m",
			GroupBy: groupBy("p.model"),
			Items: []PropertyItem{
				{Key: "name", Value: expr.Property{Variable: "p", Key: "model"}},
				{Key: "top", Value: expr.Aggregate{Fn: expr.AggMax, Inner: expr.Property{Variable: "p", Key: "price"}}},
				{Key: "n", Value: lit(values.Str("count(*)"))},
				{Key: "prices", Value: lit(values.Str("collect(distinct p.price)"))},
			},
		}},
	}

	g, err := Build(d, tbl, h, nil, NewAllocator())
	require.NoError(t, err)

	byName := map[string]map[string]values.Value{}
	for _, n := range g.Nodes() {
		byName[mustString(t, n.Properties["name"])] = n.Properties
	}
	bmw := byName["BMW"]
	require.True(t, values.Equal(bmw["top"], values.Int(20)), "got %s", bmw["top"])
	require.True(t, values.Equal(bmw["n"], values.Int(2)))
	lst, ok := bmw["prices"].AsList()
	require.True(t, ok)
	require.Len(t, lst, 2)

	vw := byName["VW"]
	require.True(t, values.Equal(vw["top"], values.Int(30)))
	require.True(t, values.Equal(vw["n"], values.Int(1)))
}

func TestBuildDesignatorStrings(t *testing.T) {
	tbl, h := carsFixture()

	// A plain string that merely starts with an aggregate name stays a string.
	d := &Descriptor{GraphName: "out", Nodes: []NodeSpec{{
		Name:    "m",
		GroupBy: groupBy("p.model"),
		Items:   []PropertyItem{{Key: "note", Value: lit(values.Str("count me in"))}},
	}}}
	g, err := Build(d, tbl, h, nil, NewAllocator())
	require.NoError(t, err)
	require.Equal(t, "count me in", mustString(t, g.Nodes()[0].Properties["note"]))

	// A recognized function with an operand the engine cannot compute fails.
	d.Nodes[0].Items = []PropertyItem{{Key: "bad", Value: lit(values.Str("sum(a + b)"))}}
	_, err = Build(d, tbl, h, nil, NewAllocator())
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestBuildGroupingErrors(t *testing.T) {
	tbl, h := carsFixture()

	t.Run("UnknownColumn", func(t *testing.T) {
		d := &Descriptor{GraphName: "out", Nodes: []NodeSpec{{Name: "m", GroupBy: groupBy("p.ghost")}}}
		_, err := Build(d, tbl, h, nil, NewAllocator())
		require.ErrorIs(t, err, ErrInvalidGroupingVariable)
	})

	t.Run("NonListGroupBy", func(t *testing.T) {
		d := &Descriptor{GraphName: "out", Nodes: []NodeSpec{{Name: "m", GroupBy: lit(values.Int(7))}}}
		_, err := Build(d, tbl, h, nil, NewAllocator())
		require.ErrorIs(t, err, ErrInvalidGroupingValue)
	})

	t.Run("NonStringElement", func(t *testing.T) {
		d := &Descriptor{GraphName: "out", Nodes: []NodeSpec{{
			Name: "m", GroupBy: lit(values.ListOf(values.Int(1))),
		}}}
		_, err := Build(d, tbl, h, nil, NewAllocator())
		require.ErrorIs(t, err, ErrInvalidGroupingValue)
	})
}

func sourceGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New("src")
	require.NoError(t, g.AddNode(&graph.Node{ID: 1, Labels: []string{"Person"},
		Properties: map[string]values.Value{"name": values.Str("Alice")}}))
	require.NoError(t, g.AddNode(&graph.Node{ID: 2, Labels: []string{"Person"},
		Properties: map[string]values.Value{"name": values.Str("Bob")}}))
	return g
}

func TestBuildBaseClone(t *testing.T) {
	src := sourceGraph(t)
	h := record.NewHeader(col("p", "p", values.KindNode))
	tbl := table.New(
		record.NewRow(map[string]values.Value{"p": values.NodeVal(values.NodeRef{ID: 1})}),
		record.NewRow(map[string]values.Value{"p": values.NodeVal(values.NodeRef{ID: 1})}),
		record.NewRow(map[string]values.Value{"p": values.NodeVal(values.NodeRef{ID: 2})}),
	)
	d := &Descriptor{GraphName: "out", Nodes: []NodeSpec{{
		Name:   "c",
		Base:   "p",
		Labels: []string{"Clone"},
		Items:  []PropertyItem{{Key: "copied", Value: lit(values.Bool(true))}},
	}}}

	g, err := Build(d, tbl, h, src, NewAllocator())
	require.NoError(t, err)
	require.Equal(t, 2, g.NodeCount(), "base grouping: one clone per distinct base node")

	for _, n := range g.Nodes() {
		require.Greater(t, n.ID, src.MaxID(), "clones get new identifiers")
		require.True(t, n.HasLabel("Person"), "labels inherited from base")
		require.True(t, n.HasLabel("Clone"), "spec labels added")
		require.True(t, values.Equal(n.Properties["copied"], values.Bool(true)))
		require.Contains(t, []string{"Alice", "Bob"}, mustString(t, n.Properties["name"]))
	}
}

func TestBuildRelationshipsEndpointGrouping(t *testing.T) {
	src := sourceGraph(t)
	h := record.NewHeader(
		col("a", "a", values.KindNode),
		col("b", "b", values.KindNode),
	)
	alice := values.NodeVal(values.NodeRef{ID: 1})
	bob := values.NodeVal(values.NodeRef{ID: 2})
	tbl := table.New(
		record.NewRow(map[string]values.Value{"a": alice, "b": bob}),
		record.NewRow(map[string]values.Value{"a": bob, "b": alice}),
		record.NewRow(map[string]values.Value{"a": alice, "b": bob}),
	)
	d := &Descriptor{GraphName: "out", Relationships: []RelationshipSpec{{
		Name:   "r",
		Type:   "LIKES",
		Source: "a",
		Target: "b",
	}}}

	g, err := Build(d, tbl, h, src, NewAllocator())
	require.NoError(t, err)
	// Rows 1 and 3 share an endpoint pair, so two relationships come out, and
	// the matched endpoint nodes are copied into the output graph.
	require.Equal(t, 2, g.RelationshipCount())
	require.Equal(t, 2, g.NodeCount())
	n, err := g.Node(1)
	require.NoError(t, err)
	require.Equal(t, "Alice", mustString(t, n.Properties["name"]))
}

func TestBuildRelationshipBetweenConstructedNodes(t *testing.T) {
	tbl, h := carsFixture()
	d := &Descriptor{
		GraphName: "out",
		Nodes: []NodeSpec{
			{Name: "m", Labels: []string{"Model"}, GroupBy: groupBy("p.model")},
			{Name: "c", Labels: []string{"Car"}},
		},
		Relationships: []RelationshipSpec{{
			Name:   "r",
			Type:   "MODEL_OF",
			Source: "m",
			Target: "c",
		}},
	}

	g, err := Build(d, tbl, h, nil, NewAllocator())
	require.NoError(t, err)
	// 2 model nodes, 3 ungrouped car nodes, one edge per distinct pair.
	require.Equal(t, 5, g.NodeCount())
	require.Equal(t, 3, g.RelationshipCount())
	for _, r := range g.Relationships() {
		require.Equal(t, "MODEL_OF", r.Type)
	}
}

func TestBuildIdentifiersAcrossPasses(t *testing.T) {
	tbl, h := carsFixture()
	d := &Descriptor{GraphName: "out", Nodes: []NodeSpec{{Name: "m", GroupBy: groupBy("p.model")}}}
	alloc := NewAllocator()

	first, err := Build(d, tbl, h, nil, alloc)
	require.NoError(t, err)
	second, err := Build(d, tbl, h, nil, alloc)
	require.NoError(t, err)

	seen := map[int64]bool{}
	for _, n := range first.Nodes() {
		seen[n.ID] = true
	}
	for _, n := range second.Nodes() {
		require.False(t, seen[n.ID], "identifier %d reused across passes", n.ID)
	}
}

func TestBuildSeedsAboveSourceIDs(t *testing.T) {
	src := sourceGraph(t)
	h := record.NewHeader(col("x", "x", values.KindInt))
	tbl := table.New(record.NewRow(map[string]values.Value{"x": values.Int(1)}))
	d := &Descriptor{GraphName: "out", Nodes: []NodeSpec{{Name: "n"}}}

	g, err := Build(d, tbl, h, src, NewAllocator())
	require.NoError(t, err)
	for _, n := range g.Nodes() {
		require.Greater(t, n.ID, src.MaxID())
	}
}

func mustString(t *testing.T, v values.Value) string {
	t.Helper()
	s, ok := v.AsString()
	require.True(t, ok, "expected string, got %s", v)
	return s
}
