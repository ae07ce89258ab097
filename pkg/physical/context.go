// Package physical defines the physical operator tree the planner hands to
// the engine, and the runtime context threaded through its execution. Leaf
// operators produce tables from graphs; unary and binary operators transform
// tables using the evaluator and the table primitives; ConstructGraph
// consumes the final table to materialize new graph data.
package physical

import (
	"context"

	"go.uber.org/zap"

	"github.com/orneryd/vegvisir/pkg/construct"
	"github.com/orneryd/vegvisir/pkg/graph"
	"github.com/orneryd/vegvisir/pkg/record"
	"github.com/orneryd/vegvisir/pkg/table"
	"github.com/orneryd/vegvisir/pkg/values"
)

// Context is per-query execution state: the graph catalog, query parameters,
// the identifier allocator for construction passes, and a logger. It is
// created once per query, threaded read-only through every operator call,
// and carries no per-row mutable state, so it is freely shareable between
// concurrent readers. The allocator it holds is internally synchronized.
type Context struct {
	Catalog *graph.Catalog
	Params  map[string]values.Value
	Alloc   *construct.Allocator
	Logger  *zap.Logger
}

// NewContext creates a runtime context over a catalog, with a fresh
// allocator and a no-op logger.
func NewContext(catalog *graph.Catalog) *Context {
	return &Context{
		Catalog: catalog,
		Params:  make(map[string]values.Value),
		Alloc:   construct.NewAllocator(),
		Logger:  zap.NewNop(),
	}
}

// Result is what every operator execution produces: the output table, its
// header, and the working graph the table was computed over.
type Result struct {
	Table     *table.Table
	Header    *record.Header
	Graph     *graph.Graph
	GraphName string
}

// Operator is one node of the physical plan.
type Operator interface {
	// Execute runs the operator and its children.
	Execute(ctx context.Context, rc *Context) (*Result, error)
	// Header declares the operator's output schema. Pass-through operators
	// return their left child's header unchanged.
	Header() *record.Header
}
