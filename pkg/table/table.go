// Package table implements the engine's row-set type and the relational
// operations over it: projection and filtering, grouping with aggregation,
// stable multi-key ordering, and the set/join operators.
//
// A Table is a multiset of rows: duplicates are legal and meaningful (e.g.
// for grouped cardinality). Tables never mutate in place; every operation
// returns a new Table, so sharing a Table between readers is always safe.
package table

import (
	"errors"

	"github.com/orneryd/vegvisir/pkg/record"
)

var (
	// ErrUnsupported marks operation shapes the engine refuses rather than
	// approximates: multi-key joins, unknown aggregator kinds.
	ErrUnsupported = errors.New("table: unsupported operation")

	// ErrSchemaMismatch is returned by unionAll when the operands' field
	// sets differ.
	ErrSchemaMismatch = errors.New("table: schema mismatch")
)

// Table is an immutable multiset of rows.
type Table struct {
	rows []record.Row
}

// New builds a table from the given rows.
func New(rows ...record.Row) *Table {
	cp := make([]record.Row, len(rows))
	copy(cp, rows)
	return &Table{rows: cp}
}

// Empty returns a table with no rows.
func Empty() *Table { return &Table{} }

// Rows returns a copy of the row slice, preserving order.
func (t *Table) Rows() []record.Row {
	cp := make([]record.Row, len(t.rows))
	copy(cp, t.rows)
	return cp
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns the i-th row.
func (t *Table) Row(i int) record.Row { return t.rows[i] }
