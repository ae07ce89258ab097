package physical

import (
	"context"

	"go.uber.org/zap"

	"github.com/orneryd/vegvisir/pkg/construct"
	"github.com/orneryd/vegvisir/pkg/record"
)

// ConstructGraph consumes its child's match table and materializes the
// descriptor's entities into a new working graph, registered in the
// catalog under its name. The match table passes through unchanged so
// downstream operators can still project over it.
type ConstructGraph struct {
	Child      Operator
	Descriptor *construct.Descriptor
}

func (o *ConstructGraph) Header() *record.Header { return o.Child.Header() }

func (o *ConstructGraph) Execute(ctx context.Context, rc *Context) (*Result, error) {
	res, err := o.Child.Execute(ctx, rc)
	if err != nil {
		return nil, err
	}
	g, err := construct.Build(o.Descriptor, res.Table, res.Header, res.Graph, rc.Alloc)
	if err != nil {
		return nil, err
	}
	rc.Catalog.Register(g)
	rc.Logger.Debug("construct graph",
		zap.String("graph", g.Name()),
		zap.Int("nodes", g.NodeCount()),
		zap.Int("relationships", g.RelationshipCount()))
	return &Result{Table: res.Table, Header: res.Header, Graph: g, GraphName: g.Name()}, nil
}
