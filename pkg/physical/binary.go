package physical

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/orneryd/vegvisir/pkg/expr"
	"github.com/orneryd/vegvisir/pkg/record"
	"github.com/orneryd/vegvisir/pkg/table"
)

// executeBoth runs a binary operator's children, left first. The spec
// leaves the order unspecified; sequential left-then-right keeps execution
// deterministic.
func executeBoth(ctx context.Context, rc *Context, left, right Operator) (*Result, *Result, error) {
	lres, err := left.Execute(ctx, rc)
	if err != nil {
		return nil, nil, err
	}
	rres, err := right.Execute(ctx, rc)
	if err != nil {
		return nil, nil, err
	}
	return lres, rres, nil
}

// JoinKind selects the join variant.
type JoinKind uint8

const (
	JoinInner JoinKind = iota
	JoinLeftOuter
	JoinRightOuter
)

func (k JoinKind) String() string {
	switch k {
	case JoinInner:
		return "inner"
	case JoinLeftOuter:
		return "left-outer"
	case JoinRightOuter:
		return "right-outer"
	default:
		return "unknown"
	}
}

// Join hash-joins its children on one key pair per side. Multi-key joins
// fail with table.ErrUnsupported.
type Join struct {
	Left, Right Operator
	Kind        JoinKind
	LeftKeys    []expr.Expr
	RightKeys   []expr.Expr
}

// Header merges the children's headers, right side winning on overlap.
func (o *Join) Header() *record.Header { return o.Left.Header().Merge(o.Right.Header()) }

func (o *Join) Execute(ctx context.Context, rc *Context) (*Result, error) {
	lres, rres, err := executeBoth(ctx, rc, o.Left, o.Right)
	if err != nil {
		return nil, err
	}
	var t *table.Table
	switch o.Kind {
	case JoinInner:
		t, err = lres.Table.InnerJoin(rres.Table, o.LeftKeys, o.RightKeys)
	case JoinLeftOuter:
		t, err = lres.Table.LeftOuterJoin(rres.Table, o.LeftKeys, o.RightKeys)
	case JoinRightOuter:
		t, err = lres.Table.RightOuterJoin(rres.Table, o.LeftKeys, o.RightKeys)
	default:
		return nil, fmt.Errorf("%w: join kind %d", table.ErrUnsupported, o.Kind)
	}
	if err != nil {
		return nil, err
	}
	rc.Logger.Debug("join",
		zap.Stringer("kind", o.Kind),
		zap.Int("left", lres.Table.Len()),
		zap.Int("right", rres.Table.Len()),
		zap.Int("out", t.Len()))
	return &Result{Table: t, Header: o.Header(), Graph: lres.Graph, GraphName: lres.GraphName}, nil
}

// CartesianProduct cross-merges its children. Precondition: disjoint field
// sets.
type CartesianProduct struct {
	Left, Right Operator
}

func (o *CartesianProduct) Header() *record.Header { return o.Left.Header().Merge(o.Right.Header()) }

func (o *CartesianProduct) Execute(ctx context.Context, rc *Context) (*Result, error) {
	lres, rres, err := executeBoth(ctx, rc, o.Left, o.Right)
	if err != nil {
		return nil, err
	}
	t := lres.Table.CartesianProduct(rres.Table)
	return &Result{Table: t, Header: o.Header(), Graph: lres.Graph, GraphName: lres.GraphName}, nil
}

// UnionAll concatenates its children without deduplicating. It is a
// pass-through operator: the output header is the left child's, inherited
// unchanged. Field names and types are never altered.
type UnionAll struct {
	Left, Right Operator
}

func (o *UnionAll) Header() *record.Header { return o.Left.Header() }

func (o *UnionAll) Execute(ctx context.Context, rc *Context) (*Result, error) {
	lres, rres, err := executeBoth(ctx, rc, o.Left, o.Right)
	if err != nil {
		return nil, err
	}
	t, err := lres.Table.UnionAll(rres.Table)
	if err != nil {
		return nil, err
	}
	return &Result{Table: t, Header: lres.Header, Graph: lres.Graph, GraphName: lres.GraphName}, nil
}
