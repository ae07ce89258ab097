package table

import (
	"fmt"
	"sort"

	"github.com/orneryd/vegvisir/pkg/expr"
	"github.com/orneryd/vegvisir/pkg/record"
	"github.com/orneryd/vegvisir/pkg/values"
)

// Select keeps only the named fields in every row. Rows missing a field keep
// their remaining fields; nothing is dropped at the row level.
func (t *Table) Select(fields ...string) *Table {
	rows := make([]record.Row, len(t.rows))
	for i, r := range t.rows {
		rows[i] = r.Project(fields...)
	}
	return &Table{rows: rows}
}

// Drop removes the named fields from every row.
func (t *Table) Drop(fields ...string) *Table {
	rows := make([]record.Row, len(t.rows))
	for i, r := range t.rows {
		rows[i] = r.Drop(fields...)
	}
	return &Table{rows: rows}
}

// Project evaluates e against every row and binds the result to field,
// overwriting an existing binding. An evaluation failure aborts.
func (t *Table) Project(e expr.Expr, field string) (*Table, error) {
	rows := make([]record.Row, len(t.rows))
	for i, r := range t.rows {
		v, err := expr.Evaluate(e, r)
		if err != nil {
			return nil, fmt.Errorf("project %q: %w", field, err)
		}
		rows[i] = r.With(field, v)
	}
	return &Table{rows: rows}, nil
}

// Filter keeps rows where the predicate evaluates to boolean true. False,
// null, non-boolean results, and evaluation failures all drop the row;
// Filter never fails.
func (t *Table) Filter(e expr.Expr) *Table {
	var rows []record.Row
	for _, r := range t.rows {
		if expr.EvaluatePredicate(e, r) {
			rows = append(rows, r)
		}
	}
	return &Table{rows: rows}
}

// Distinct projects rows onto the given fields (all fields when none are
// given) and removes structural duplicates, keeping first-encounter order.
func (t *Table) Distinct(fields ...string) *Table {
	seen := make(map[string]struct{}, len(t.rows))
	var rows []record.Row
	for _, r := range t.rows {
		if len(fields) > 0 {
			r = r.Project(fields...)
		}
		k := r.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, r)
	}
	return &Table{rows: rows}
}

// SortItem is one ORDER BY key: an expression and a direction.
type SortItem struct {
	Expr       expr.Expr
	Descending bool
}

// OrderBy sorts rows by the given keys. The sort is stable, so rows with
// equal keys keep their input order and later items only break ties among
// equal earlier keys. Nulls order last in ascending direction (first in
// descending). Sorting incomparable values, or a key expression failing to
// evaluate, aborts with an error.
func (t *Table) OrderBy(items []SortItem) (*Table, error) {
	if len(items) == 0 {
		return New(t.rows...), nil
	}

	// Evaluate every key up front so evaluation errors surface before the
	// sort starts.
	keys := make([][]values.Value, len(t.rows))
	for i, r := range t.rows {
		keys[i] = make([]values.Value, len(items))
		for j, it := range items {
			v, err := expr.Evaluate(it.Expr, r)
			if err != nil {
				return nil, fmt.Errorf("orderBy key %d: %w", j, err)
			}
			keys[i][j] = v
		}
	}

	idx := make([]int, len(t.rows))
	for i := range idx {
		idx[i] = i
	}
	var sortErr error
	sort.SliceStable(idx, func(a, b int) bool {
		if sortErr != nil {
			return false
		}
		for j, it := range items {
			c, err := values.Compare(keys[idx[a]][j], keys[idx[b]][j])
			if err != nil {
				sortErr = fmt.Errorf("orderBy key %d: %w", j, err)
				return false
			}
			if c == 0 {
				continue
			}
			if it.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	if sortErr != nil {
		return nil, sortErr
	}

	rows := make([]record.Row, len(t.rows))
	for i, j := range idx {
		rows[i] = t.rows[j]
	}
	return &Table{rows: rows}, nil
}

// Limit returns at most n rows starting at offset skip.
func (t *Table) Limit(skip, n int) *Table {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(t.rows) {
		return Empty()
	}
	rest := t.rows[skip:]
	if n >= 0 && n < len(rest) {
		rest = rest[:n]
	}
	return New(rest...)
}
