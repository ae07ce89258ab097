package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/orneryd/vegvisir/pkg/expr"
	"github.com/orneryd/vegvisir/pkg/record"
	"github.com/orneryd/vegvisir/pkg/values"
)

// GroupKey is one grouping expression and the output field its evaluated
// value is bound to.
type GroupKey struct {
	Field string
	Expr  expr.Expr
}

// Aggregation is one aggregate output: the field to bind and the aggregate
// marker describing the computation.
type Aggregation struct {
	Field string
	Agg   expr.Aggregate
}

type partition struct {
	keyRow record.Row
	rows   []record.Row
}

// Group partitions rows by the tuple of evaluated key expressions and
// computes each aggregation per partition. Partitioning uses structural
// tuple equality (canonical value encodings), never raw hash codes. The
// result has one row per distinct key tuple, carrying the key fields merged
// with the aggregate outputs; partitions appear in first-encounter order.
//
// With no keys the whole table forms a single partition, even when empty, so
// a global count over an empty table yields one row with count 0.
//
// Aggregate semantics (null policy documented per the open question in the
// engine's design notes):
//
//   - count(x):   number of non-null values, deduplicated first if distinct
//   - count(*):   partition row count
//   - sum(x):     numeric sum excluding nulls; 0 for an empty or all-null
//     partition; integer unless a float participates
//   - min/max(x): extremum excluding nulls; an empty or all-null partition
//     is an evaluation error
//   - collect(x): non-null values in encounter order, deduplicated if
//     distinct
//
// Unknown aggregator kinds fail with ErrUnsupported.
func (t *Table) Group(keys []GroupKey, aggs []Aggregation) (*Table, error) {
	parts := make(map[string]*partition)
	var order []string

	for _, r := range t.rows {
		var sb strings.Builder
		keyFields := make(map[string]values.Value, len(keys))
		for _, k := range keys {
			v, err := expr.Evaluate(k.Expr, r)
			if err != nil {
				return nil, fmt.Errorf("group key %q: %w", k.Field, err)
			}
			keyFields[k.Field] = v
			enc := v.Key()
			sb.WriteString(strconv.Itoa(len(enc)))
			sb.WriteString(":")
			sb.WriteString(enc)
		}
		pk := sb.String()
		p, ok := parts[pk]
		if !ok {
			p = &partition{keyRow: record.NewRow(keyFields)}
			parts[pk] = p
			order = append(order, pk)
		}
		p.rows = append(p.rows, r)
	}

	// Global aggregation always produces one row.
	if len(keys) == 0 && len(order) == 0 {
		parts[""] = &partition{keyRow: record.NewRow(nil)}
		order = append(order, "")
	}

	out := make([]record.Row, 0, len(order))
	for _, pk := range order {
		p := parts[pk]
		row := p.keyRow
		for _, a := range aggs {
			v, err := computeAggregate(a.Agg, p.rows)
			if err != nil {
				return nil, fmt.Errorf("aggregate %q: %w", a.Field, err)
			}
			row = row.With(a.Field, v)
		}
		out = append(out, row)
	}
	return &Table{rows: out}, nil
}

// computeAggregate evaluates one aggregate over the rows of a partition.
func computeAggregate(agg expr.Aggregate, rows []record.Row) (values.Value, error) {
	if agg.Fn == expr.AggCountStar {
		return values.Int(int64(len(rows))), nil
	}
	if agg.Inner == nil {
		// count with no operand behaves as count(*); every other kind
		// needs one.
		if agg.Fn == expr.AggCount {
			return values.Int(int64(len(rows))), nil
		}
		return values.Null(), fmt.Errorf("%w: aggregator %s without operand", ErrUnsupported, agg.Fn)
	}

	// Evaluate the operand per row, dropping nulls; dedupe when distinct.
	var vals []values.Value
	seen := make(map[string]struct{})
	for _, r := range rows {
		v, err := expr.Evaluate(agg.Inner, r)
		if err != nil {
			return values.Null(), err
		}
		if v.IsNull() {
			continue
		}
		if agg.Distinct {
			k := v.Key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
		}
		vals = append(vals, v)
	}

	switch agg.Fn {
	case expr.AggCount:
		return values.Int(int64(len(vals))), nil

	case expr.AggSum:
		var sumI int64
		var sumF float64
		isFloat := false
		for _, v := range vals {
			if i, ok := v.AsInt(); ok {
				sumI += i
				continue
			}
			f, ok := v.AsFloat()
			if !ok {
				return values.Null(), fmt.Errorf("%w: sum over %s", expr.ErrEvaluation, v.Kind())
			}
			isFloat = true
			sumF += f
		}
		if isFloat {
			return values.Float(sumF + float64(sumI)), nil
		}
		return values.Int(sumI), nil

	case expr.AggMin, expr.AggMax:
		if len(vals) == 0 {
			return values.Null(), fmt.Errorf("%w: %s of empty or all-null group", expr.ErrEvaluation, agg.Fn)
		}
		best := vals[0]
		for _, v := range vals[1:] {
			c, err := values.Compare(v, best)
			if err != nil {
				return values.Null(), fmt.Errorf("%w: %v", expr.ErrEvaluation, err)
			}
			if (agg.Fn == expr.AggMin && c < 0) || (agg.Fn == expr.AggMax && c > 0) {
				best = v
			}
		}
		return best, nil

	case expr.AggCollect:
		return values.ListOf(vals...), nil

	default:
		return values.Null(), fmt.Errorf("%w: aggregator %q", ErrUnsupported, agg.Fn)
	}
}
