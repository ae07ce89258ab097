// Package construct materializes new graph data from a matched pattern: it
// consumes the final match table and a construction descriptor produced by
// the planner, allocates identifiers keyed by group membership, and emits
// the node and relationship sets of a new working graph.
package construct

import (
	"errors"

	"github.com/orneryd/vegvisir/pkg/expr"
)

var (
	// ErrInvalidGroupingVariable is returned when a groupby entry or an
	// endpoint does not resolve to a column of the match table.
	ErrInvalidGroupingVariable = errors.New("construct: invalid grouping variable")

	// ErrInvalidGroupingValue is returned when a groupby expression yields
	// anything other than a list of variable / variable.property names.
	ErrInvalidGroupingValue = errors.New("construct: wrong type for groupby, expected list")

	// ErrUnsupported marks property-value shapes the engine refuses rather
	// than silently mis-evaluates.
	ErrUnsupported = errors.New("construct: unsupported property expression")

	// ErrNotImplemented marks construction combinations that are
	// intentionally unfinished and must fail loudly.
	ErrNotImplemented = errors.New("construct: not implemented")
)

// PropertyItem assigns one property on a constructed entity. Variable names
// the entity the assignment targets (an empty Variable applies to the
// enclosing spec). The value expression may be an expr.Aggregate marker or a
// string literal naming an aggregate designator, in which case the value is
// computed over the entity's group instead of per row.
type PropertyItem struct {
	Variable string
	Key      string
	Value    expr.Expr
}

// NodeSpec describes one node entity to construct.
//
// Base optionally names a matched node column to clone: the constructed node
// inherits the base node's labels and properties (overridden by Labels and
// Items), and the base identifier becomes an implicit grouping key, so each
// distinct base node yields exactly one clone.
//
// GroupBy optionally holds the explicit grouping-key expression; it must
// evaluate to a list of bare variable names or variable.property strings,
// each resolving to a column of the match table.
//
// A spec with neither Base nor GroupBy is ungrouped: it constructs one fresh
// node per match row, never deduplicated.
type NodeSpec struct {
	Name    string
	Base    string
	Labels  []string
	GroupBy expr.Expr
	Items   []PropertyItem
}

// RelationshipSpec describes one relationship entity to construct. Source
// and Target name either node entities constructed in the same pass or
// matched node columns. The source and target identifiers are always
// implicit grouping keys, since relationships are inherently grouped by
// their endpoints; Base and GroupBy add further keys exactly as for nodes.
type RelationshipSpec struct {
	Name    string
	Base    string
	Type    string
	Source  string
	Target  string
	GroupBy expr.Expr
	Items   []PropertyItem
}

// Descriptor enumerates the entities one CONSTRUCT clause materializes.
// It is produced by the planner and consumed exactly once by Build.
type Descriptor struct {
	GraphName     string
	Nodes         []NodeSpec
	Relationships []RelationshipSpec
}
