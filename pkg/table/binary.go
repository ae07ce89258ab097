package table

import (
	"fmt"

	"github.com/orneryd/vegvisir/pkg/expr"
	"github.com/orneryd/vegvisir/pkg/record"
	"github.com/orneryd/vegvisir/pkg/values"
)

// CartesianProduct merges every row of t with every row of other.
// Precondition: the field sets are disjoint; on overlap the right side wins.
func (t *Table) CartesianProduct(other *Table) *Table {
	rows := make([]record.Row, 0, len(t.rows)*len(other.rows))
	for _, l := range t.rows {
		for _, r := range other.rows {
			rows = append(rows, l.Merge(r))
		}
	}
	return &Table{rows: rows}
}

// UnionAll concatenates two tables without deduplicating. The operands must
// share the same field set.
func (t *Table) UnionAll(other *Table) (*Table, error) {
	if len(t.rows) > 0 && len(other.rows) > 0 {
		lf := t.rows[0].Fields()
		rf := other.rows[0].Fields()
		if len(lf) != len(rf) {
			return nil, fmt.Errorf("%w: unionAll over %d and %d fields", ErrSchemaMismatch, len(lf), len(rf))
		}
		for i := range lf {
			if lf[i] != rf[i] {
				return nil, fmt.Errorf("%w: unionAll field %q vs %q", ErrSchemaMismatch, lf[i], rf[i])
			}
		}
	}
	rows := make([]record.Row, 0, len(t.rows)+len(other.rows))
	rows = append(rows, t.rows...)
	rows = append(rows, other.rows...)
	return &Table{rows: rows}, nil
}

// buildEntry keeps the true key next to the hashed row so probes can re-check
// structural equality: bucketing by hash code alone would silently merge
// colliding keys.
type buildEntry struct {
	key values.Value
	row record.Row
}

// buildIndex hashes every row of tbl by its evaluated key into buckets.
// Rows with a null key never match anything and are left out.
func buildIndex(tbl *Table, key expr.Expr) (map[uint64][]buildEntry, error) {
	idx := make(map[uint64][]buildEntry, tbl.Len())
	for _, r := range tbl.rows {
		kv, err := expr.Evaluate(key, r)
		if err != nil {
			return nil, fmt.Errorf("join key: %w", err)
		}
		if kv.IsNull() {
			continue
		}
		h := kv.Hash()
		idx[h] = append(idx[h], buildEntry{key: kv, row: r})
	}
	return idx, nil
}

// InnerJoin hash-joins two tables on a single key pair. The build side is
// the smaller input by row count; inner join is symmetric, so swapping sides
// just swaps the key expressions. Exactly one key per side is supported;
// multi-key joins fail with ErrUnsupported.
func (t *Table) InnerJoin(right *Table, leftKeys, rightKeys []expr.Expr) (*Table, error) {
	lk, rk, err := singleKey(leftKeys, rightKeys)
	if err != nil {
		return nil, err
	}
	build, probe := t, right
	buildKey, probeKey := lk, rk
	if right.Len() < t.Len() {
		build, probe = right, t
		buildKey, probeKey = rk, lk
	}
	idx, err := buildIndex(build, buildKey)
	if err != nil {
		return nil, err
	}

	var rows []record.Row
	for _, pr := range probe.rows {
		kv, err := expr.Evaluate(probeKey, pr)
		if err != nil {
			return nil, fmt.Errorf("join key: %w", err)
		}
		if kv.IsNull() {
			continue
		}
		for _, e := range idx[kv.Hash()] {
			// Hash buckets may hold colliding keys; only true equality
			// emits a row.
			if values.Equal(e.key, kv) {
				rows = append(rows, e.row.Merge(pr))
			}
		}
	}
	return &Table{rows: rows}, nil
}

// RightOuterJoin hash-joins two tables, preserving every right-side row.
// The build side is fixed to the left operand (the side that need not be
// preserved); right rows without a match are emitted alone, with no left
// fields. Multi-key joins fail with ErrUnsupported.
func (t *Table) RightOuterJoin(right *Table, leftKeys, rightKeys []expr.Expr) (*Table, error) {
	lk, rk, err := singleKey(leftKeys, rightKeys)
	if err != nil {
		return nil, err
	}
	idx, err := buildIndex(t, lk)
	if err != nil {
		return nil, err
	}

	var rows []record.Row
	for _, pr := range right.rows {
		kv, err := expr.Evaluate(rk, pr)
		if err != nil {
			return nil, fmt.Errorf("join key: %w", err)
		}
		matched := false
		if !kv.IsNull() {
			for _, e := range idx[kv.Hash()] {
				if values.Equal(e.key, kv) {
					rows = append(rows, e.row.Merge(pr))
					matched = true
				}
			}
		}
		if !matched {
			rows = append(rows, pr)
		}
	}
	return &Table{rows: rows}, nil
}

// LeftOuterJoin preserves every left-side row. Implemented by swapping the
// operand roles and delegating to RightOuterJoin.
func (t *Table) LeftOuterJoin(right *Table, leftKeys, rightKeys []expr.Expr) (*Table, error) {
	return right.RightOuterJoin(t, rightKeys, leftKeys)
}

func singleKey(leftKeys, rightKeys []expr.Expr) (expr.Expr, expr.Expr, error) {
	if len(leftKeys) != 1 || len(rightKeys) != 1 {
		return nil, nil, fmt.Errorf("%w: joins support exactly one key pair, got %d/%d",
			ErrUnsupported, len(leftKeys), len(rightKeys))
	}
	return leftKeys[0], rightKeys[0], nil
}
