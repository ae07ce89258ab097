package physical

import (
	"context"

	"github.com/orneryd/vegvisir/pkg/expr"
	"github.com/orneryd/vegvisir/pkg/record"
	"github.com/orneryd/vegvisir/pkg/table"
)

// Select keeps only the named fields.
type Select struct {
	Child  Operator
	Fields []string
}

func (o *Select) Header() *record.Header { return o.Child.Header().Project(o.Fields...) }

func (o *Select) Execute(ctx context.Context, rc *Context) (*Result, error) {
	res, err := o.Child.Execute(ctx, rc)
	if err != nil {
		return nil, err
	}
	res.Table = res.Table.Select(o.Fields...)
	res.Header = o.Header()
	return res, nil
}

// Project evaluates Expr per row and binds it to Field.
type Project struct {
	Child Operator
	Expr  expr.Expr
	Field string
}

func (o *Project) Header() *record.Header {
	return o.Child.Header().With(record.Column{Variable: o.Field, Field: o.Field})
}

func (o *Project) Execute(ctx context.Context, rc *Context) (*Result, error) {
	res, err := o.Child.Execute(ctx, rc)
	if err != nil {
		return nil, err
	}
	t, err := res.Table.Project(o.Expr, o.Field)
	if err != nil {
		return nil, err
	}
	res.Table = t
	res.Header = o.Header()
	return res, nil
}

// Filter keeps rows whose predicate evaluates to true.
type Filter struct {
	Child     Operator
	Predicate expr.Expr
}

func (o *Filter) Header() *record.Header { return o.Child.Header() }

func (o *Filter) Execute(ctx context.Context, rc *Context) (*Result, error) {
	res, err := o.Child.Execute(ctx, rc)
	if err != nil {
		return nil, err
	}
	res.Table = res.Table.Filter(o.Predicate)
	return res, nil
}

// Distinct deduplicates rows, optionally projecting onto Fields first.
type Distinct struct {
	Child  Operator
	Fields []string
}

func (o *Distinct) Header() *record.Header {
	if len(o.Fields) == 0 {
		return o.Child.Header()
	}
	return o.Child.Header().Project(o.Fields...)
}

func (o *Distinct) Execute(ctx context.Context, rc *Context) (*Result, error) {
	res, err := o.Child.Execute(ctx, rc)
	if err != nil {
		return nil, err
	}
	res.Table = res.Table.Distinct(o.Fields...)
	res.Header = o.Header()
	return res, nil
}

// GroupBy partitions by Keys and computes Aggregations per partition.
type GroupBy struct {
	Child        Operator
	Keys         []table.GroupKey
	Aggregations []table.Aggregation
}

func (o *GroupBy) Header() *record.Header {
	var cols []record.Column
	for _, k := range o.Keys {
		cols = append(cols, record.Column{Variable: k.Field, Field: k.Field})
	}
	for _, a := range o.Aggregations {
		cols = append(cols, record.Column{Variable: a.Field, Field: a.Field})
	}
	return record.NewHeader(cols...)
}

func (o *GroupBy) Execute(ctx context.Context, rc *Context) (*Result, error) {
	res, err := o.Child.Execute(ctx, rc)
	if err != nil {
		return nil, err
	}
	t, err := res.Table.Group(o.Keys, o.Aggregations)
	if err != nil {
		return nil, err
	}
	res.Table = t
	res.Header = o.Header()
	return res, nil
}

// OrderBy sorts rows by the given items; stable, so ties keep input order.
type OrderBy struct {
	Child Operator
	Items []table.SortItem
}

func (o *OrderBy) Header() *record.Header { return o.Child.Header() }

func (o *OrderBy) Execute(ctx context.Context, rc *Context) (*Result, error) {
	res, err := o.Child.Execute(ctx, rc)
	if err != nil {
		return nil, err
	}
	t, err := res.Table.OrderBy(o.Items)
	if err != nil {
		return nil, err
	}
	res.Table = t
	return res, nil
}

// Limit keeps at most Count rows after dropping Skip. Count < 0 means no
// limit.
type Limit struct {
	Child Operator
	Skip  int
	Count int
}

func (o *Limit) Header() *record.Header { return o.Child.Header() }

func (o *Limit) Execute(ctx context.Context, rc *Context) (*Result, error) {
	res, err := o.Child.Execute(ctx, rc)
	if err != nil {
		return nil, err
	}
	res.Table = res.Table.Limit(o.Skip, o.Count)
	return res, nil
}
