package table

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orneryd/vegvisir/pkg/expr"
	"github.com/orneryd/vegvisir/pkg/values"
)

func agg(field string, fn expr.AggFn, inner expr.Expr, distinct bool) Aggregation {
	return Aggregation{Field: field, Agg: expr.Aggregate{Fn: fn, Inner: inner, Distinct: distinct}}
}

func TestGroupMaxAge(t *testing.T) {
	tbl := New(
		row(map[string]values.Value{"n.age": values.Int(10)}),
		row(map[string]values.Value{"n.age": values.Int(12)}),
		row(map[string]values.Value{"n.age": values.Int(14)}),
	)
	out, err := tbl.Group(nil, []Aggregation{agg("max_age", expr.AggMax, prop("n", "age"), false)})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	v, _ := out.Row(0).Get("max_age")
	require.True(t, values.Equal(v, values.Int(14)), "got %s", v)
}

func TestGroupCollectByModel(t *testing.T) {
	cars := New(
		row(map[string]values.Value{"model": values.Str("BMW"), "price": values.Int(10)}),
		row(map[string]values.Value{"model": values.Str("BMW"), "price": values.Int(20)}),
		row(map[string]values.Value{"model": values.Str("VW"), "price": values.Int(30)}),
		row(map[string]values.Value{"model": values.Str("VW"), "price": values.Int(10)}),
	)
	out, err := cars.Group(
		[]GroupKey{{Field: "model", Expr: expr.Variable{Name: "model"}}},
		[]Aggregation{agg("prices", expr.AggCollect, expr.Variable{Name: "price"}, false)},
	)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	byModel := map[string][]values.Value{}
	for _, r := range out.Rows() {
		m, _ := r.Get("model")
		p, _ := r.Get("prices")
		lst, ok := p.AsList()
		require.True(t, ok)
		s, _ := m.AsString()
		byModel[s] = lst
	}
	// Collect preserves row-encounter order per group.
	require.Len(t, byModel["BMW"], 2)
	require.True(t, values.Equal(byModel["BMW"][0], values.Int(10)))
	require.True(t, values.Equal(byModel["BMW"][1], values.Int(20)))
	require.Len(t, byModel["VW"], 2)
	require.True(t, values.Equal(byModel["VW"][0], values.Int(30)))
	require.True(t, values.Equal(byModel["VW"][1], values.Int(10)))
}

func TestGroupDeterminism(t *testing.T) {
	tbl := New(
		row(map[string]values.Value{"g": values.Int(1), "v": values.Int(1)}),
		row(map[string]values.Value{"g": values.Int(2), "v": values.Int(2)}),
		row(map[string]values.Value{"g": values.Int(1), "v": values.Int(3)}),
	)
	key := []GroupKey{{Field: "g", Expr: expr.Variable{Name: "g"}}}

	first, err := tbl.Group(key, nil)
	require.NoError(t, err)
	require.Equal(t, 2, first.Len(), "row count must equal distinct key values")

	second, err := tbl.Group(key, nil)
	require.NoError(t, err)
	require.Equal(t, first.Len(), second.Len())
	for i := range first.Rows() {
		require.True(t, first.Row(i).Equal(second.Row(i)), "grouping must be deterministic")
	}
}

func TestAggregates(t *testing.T) {
	tbl := New(
		row(map[string]values.Value{"x": values.Int(1)}),
		row(map[string]values.Value{"x": values.Int(1)}),
		row(map[string]values.Value{"x": values.Int(2)}),
		row(map[string]values.Value{"x": values.Null()}),
	)
	x := expr.Variable{Name: "x"}

	t.Run("CountSkipsNulls", func(t *testing.T) {
		out, err := tbl.Group(nil, []Aggregation{agg("c", expr.AggCount, x, false)})
		require.NoError(t, err)
		v, _ := out.Row(0).Get("c")
		require.True(t, values.Equal(v, values.Int(3)), "got %s", v)
	})

	t.Run("CountDistinct", func(t *testing.T) {
		out, err := tbl.Group(nil, []Aggregation{agg("c", expr.AggCount, x, true)})
		require.NoError(t, err)
		v, _ := out.Row(0).Get("c")
		require.True(t, values.Equal(v, values.Int(2)), "got %s", v)
	})

	t.Run("CountStarKeepsNulls", func(t *testing.T) {
		out, err := tbl.Group(nil, []Aggregation{{Field: "c", Agg: expr.Aggregate{Fn: expr.AggCountStar}}})
		require.NoError(t, err)
		v, _ := out.Row(0).Get("c")
		require.True(t, values.Equal(v, values.Int(4)), "got %s", v)
	})

	t.Run("Sum", func(t *testing.T) {
		out, err := tbl.Group(nil, []Aggregation{agg("s", expr.AggSum, x, false)})
		require.NoError(t, err)
		v, _ := out.Row(0).Get("s")
		require.True(t, values.Equal(v, values.Int(4)), "got %s", v)
	})

	t.Run("SumOfAllNullIsZero", func(t *testing.T) {
		nulls := New(row(map[string]values.Value{"x": values.Null()}))
		out, err := nulls.Group(nil, []Aggregation{agg("s", expr.AggSum, x, false)})
		require.NoError(t, err)
		v, _ := out.Row(0).Get("s")
		require.True(t, values.Equal(v, values.Int(0)), "got %s", v)
	})

	t.Run("SumFloatPromotion", func(t *testing.T) {
		mixed := New(
			row(map[string]values.Value{"x": values.Int(1)}),
			row(map[string]values.Value{"x": values.Float(0.5)}),
		)
		out, err := mixed.Group(nil, []Aggregation{agg("s", expr.AggSum, x, false)})
		require.NoError(t, err)
		v, _ := out.Row(0).Get("s")
		require.True(t, values.Equal(v, values.Float(1.5)), "got %s", v)
	})

	t.Run("MinMaxExcludeNulls", func(t *testing.T) {
		out, err := tbl.Group(nil, []Aggregation{
			agg("lo", expr.AggMin, x, false),
			agg("hi", expr.AggMax, x, false),
		})
		require.NoError(t, err)
		lo, _ := out.Row(0).Get("lo")
		hi, _ := out.Row(0).Get("hi")
		require.True(t, values.Equal(lo, values.Int(1)), "got %s", lo)
		require.True(t, values.Equal(hi, values.Int(2)), "got %s", hi)
	})

	t.Run("MinOfAllNullFails", func(t *testing.T) {
		nulls := New(row(map[string]values.Value{"x": values.Null()}))
		_, err := nulls.Group(nil, []Aggregation{agg("m", expr.AggMin, x, false)})
		require.ErrorIs(t, err, expr.ErrEvaluation)
	})

	t.Run("CollectDistinct", func(t *testing.T) {
		out, err := tbl.Group(nil, []Aggregation{agg("l", expr.AggCollect, x, true)})
		require.NoError(t, err)
		v, _ := out.Row(0).Get("l")
		lst, _ := v.AsList()
		require.Len(t, lst, 2)
	})

	t.Run("UnknownAggregator", func(t *testing.T) {
		_, err := tbl.Group(nil, []Aggregation{agg("a", expr.AggFn("avg"), x, false)})
		require.ErrorIs(t, err, ErrUnsupported)
	})
}

func TestGroupEmptyInput(t *testing.T) {
	// Global aggregation over an empty table still yields one row.
	out, err := Empty().Group(nil, []Aggregation{{Field: "c", Agg: expr.Aggregate{Fn: expr.AggCountStar}}})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	v, _ := out.Row(0).Get("c")
	require.True(t, values.Equal(v, values.Int(0)))

	// Keyed grouping over an empty table yields no rows.
	keyed, err := Empty().Group([]GroupKey{{Field: "g", Expr: expr.Variable{Name: "g"}}}, nil)
	require.NoError(t, err)
	require.Equal(t, 0, keyed.Len())
}

func TestGroupKeyEvaluationError(t *testing.T) {
	tbl := New(row(map[string]values.Value{"a": values.Int(1)}))
	_, err := tbl.Group([]GroupKey{{Field: "g", Expr: expr.Variable{Name: "missing"}}}, nil)
	if !errors.Is(err, expr.ErrEvaluation) {
		t.Errorf("expected ErrEvaluation, got %v", err)
	}
}
