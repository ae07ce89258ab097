package plan

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/orneryd/vegvisir/pkg/construct"
	"github.com/orneryd/vegvisir/pkg/expr"
	"github.com/orneryd/vegvisir/pkg/physical"
	"github.com/orneryd/vegvisir/pkg/table"
	"github.com/orneryd/vegvisir/pkg/values"
)

// ErrInvalidPlan is the root of every plan decoding/compilation failure.
var ErrInvalidPlan = errors.New("plan: invalid plan")

// Load reads and decodes a plan file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plan: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("plan: decode %s: %w", path, err)
	}
	return &f, nil
}

// Compile turns the pipeline into a physical operator tree over the named
// source graph. The first step must be a scan; each later step wraps the
// previous operator.
func (f *File) Compile(graphName string) (physical.Operator, error) {
	if len(f.Pipeline) == 0 {
		return nil, fmt.Errorf("%w: empty pipeline", ErrInvalidPlan)
	}

	var op physical.Operator
	for i, step := range f.Pipeline {
		next, err := step.compile(graphName, op)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", ErrInvalidPlan, i+1, err)
		}
		op = next
	}
	return op, nil
}

func (s *Step) compile(graphName string, child physical.Operator) (physical.Operator, error) {
	switch {
	case s.Scan != nil:
		if child != nil {
			return nil, fmt.Errorf("scan must be the first step")
		}
		return &physical.NodeScan{
			Graph:      graphName,
			Variable:   s.Scan.Variable,
			Labels:     s.Scan.Labels,
			Properties: s.Scan.Properties,
		}, nil

	case s.ScanRels != nil:
		if child != nil {
			return nil, fmt.Errorf("scan_rels must be the first step")
		}
		return &physical.RelationshipScan{
			Graph:      graphName,
			Variable:   s.ScanRels.Variable,
			SourceVar:  s.ScanRels.Source,
			TargetVar:  s.ScanRels.Target,
			Type:       s.ScanRels.Type,
			Properties: s.ScanRels.Properties,
		}, nil
	}

	if child == nil {
		return nil, fmt.Errorf("pipeline must start with a scan")
	}

	switch {
	case s.Filter != nil:
		e, err := s.Filter.Compile()
		if err != nil {
			return nil, err
		}
		return &physical.Filter{Child: child, Predicate: e}, nil

	case s.Project != nil:
		e, err := s.Project.Expr.Compile()
		if err != nil {
			return nil, err
		}
		return &physical.Project{Child: child, Expr: e, Field: s.Project.Field}, nil

	case len(s.Select) > 0:
		return &physical.Select{Child: child, Fields: s.Select}, nil

	case s.Distinct != nil:
		return &physical.Distinct{Child: child, Fields: s.Distinct}, nil

	case len(s.OrderBy) > 0:
		items := make([]table.SortItem, len(s.OrderBy))
		for i, it := range s.OrderBy {
			e, err := it.Expr.Compile()
			if err != nil {
				return nil, err
			}
			items[i] = table.SortItem{Expr: e, Descending: it.Desc}
		}
		return &physical.OrderBy{Child: child, Items: items}, nil

	case s.Group != nil:
		keys := make([]table.GroupKey, len(s.Group.Keys))
		for i, k := range s.Group.Keys {
			e, err := k.Expr.Compile()
			if err != nil {
				return nil, err
			}
			keys[i] = table.GroupKey{Field: k.Field, Expr: e}
		}
		aggs := make([]table.Aggregation, len(s.Group.Aggregates))
		for i, a := range s.Group.Aggregates {
			agg, err := a.compile()
			if err != nil {
				return nil, err
			}
			aggs[i] = agg
		}
		return &physical.GroupBy{Child: child, Keys: keys, Aggregations: aggs}, nil

	case s.Limit != nil:
		return &physical.Limit{Child: child, Skip: s.Limit.Skip, Count: s.Limit.Count}, nil

	case s.Construct != nil:
		d, err := s.Construct.compile()
		if err != nil {
			return nil, err
		}
		return &physical.ConstructGraph{Child: child, Descriptor: d}, nil

	default:
		return nil, fmt.Errorf("empty step")
	}
}

func (a *AggItem) compile() (table.Aggregation, error) {
	fn := expr.AggFn(strings.ToLower(a.Fn))
	switch fn {
	case expr.AggCount, expr.AggCountStar, expr.AggSum, expr.AggMin, expr.AggMax, expr.AggCollect:
	default:
		return table.Aggregation{}, fmt.Errorf("unknown aggregate %q", a.Fn)
	}
	var inner expr.Expr
	if a.Expr != nil {
		var err error
		inner, err = a.Expr.Compile()
		if err != nil {
			return table.Aggregation{}, err
		}
	}
	return table.Aggregation{
		Field: a.Field,
		Agg:   expr.Aggregate{Fn: fn, Inner: inner, Distinct: a.Distinct},
	}, nil
}

func (c *ConstructStep) compile() (*construct.Descriptor, error) {
	d := &construct.Descriptor{GraphName: c.Graph}
	for _, n := range c.Nodes {
		items, err := compileItems(n.Name, n.Properties)
		if err != nil {
			return nil, err
		}
		d.Nodes = append(d.Nodes, construct.NodeSpec{
			Name:    n.Name,
			Base:    n.Base,
			Labels:  n.Labels,
			GroupBy: groupByExpr(n.GroupBy),
			Items:   items,
		})
	}
	for _, r := range c.Relationships {
		items, err := compileItems(r.Name, r.Properties)
		if err != nil {
			return nil, err
		}
		d.Relationships = append(d.Relationships, construct.RelationshipSpec{
			Name:    r.Name,
			Base:    r.Base,
			Type:    r.Type,
			Source:  r.Source,
			Target:  r.Target,
			GroupBy: groupByExpr(r.GroupBy),
			Items:   items,
		})
	}
	return d, nil
}

// groupByExpr encodes a group_by name list as the list-literal expression
// the construction engine decodes.
func groupByExpr(names []string) expr.Expr {
	if len(names) == 0 {
		return nil
	}
	elems := make([]values.Value, len(names))
	for i, n := range names {
		elems[i] = values.Str(n)
	}
	return expr.Literal{Value: values.ListOf(elems...)}
}

func compileItems(entity string, props map[string]ExprNode) ([]construct.PropertyItem, error) {
	var items []construct.PropertyItem
	for key, node := range props {
		e, err := node.Compile()
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", key, err)
		}
		items = append(items, construct.PropertyItem{Variable: entity, Key: key, Value: e})
	}
	return items, nil
}

// Compile turns a structural expression node into an expression tree.
func (n *ExprNode) Compile() (expr.Expr, error) {
	switch {
	case n.Lit != nil:
		v, err := values.FromAny(*n.Lit)
		if err != nil {
			return nil, err
		}
		return expr.Literal{Value: v}, nil

	case n.Var != "":
		return expr.Variable{Name: n.Var}, nil

	case n.Prop != "":
		dot := strings.IndexByte(n.Prop, '.')
		if dot <= 0 || dot == len(n.Prop)-1 {
			return nil, fmt.Errorf("prop %q is not variable.property", n.Prop)
		}
		return expr.Property{Variable: n.Prop[:dot], Key: n.Prop[dot+1:]}, nil

	case n.List != nil:
		elems := make([]expr.Expr, len(n.List))
		for i := range n.List {
			e, err := n.List[i].Compile()
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return expr.List{Elements: elems}, nil

	case n.Not != nil:
		e, err := n.Not.Compile()
		if err != nil {
			return nil, err
		}
		return expr.Not{Operand: e}, nil

	case len(n.And) > 0:
		return n.foldConnective(n.And, true)

	case len(n.Or) > 0:
		return n.foldConnective(n.Or, false)

	case n.Op != "":
		if n.Left == nil || n.Right == nil {
			return nil, fmt.Errorf("operator %q needs left and right", n.Op)
		}
		l, err := n.Left.Compile()
		if err != nil {
			return nil, err
		}
		r, err := n.Right.Compile()
		if err != nil {
			return nil, err
		}
		if cmp, ok := cmpOps[n.Op]; ok {
			return expr.Comparison{Op: cmp, Left: l, Right: r}, nil
		}
		if ar, ok := arithOps[n.Op]; ok {
			return expr.Arithmetic{Op: ar, Left: l, Right: r}, nil
		}
		return nil, fmt.Errorf("unknown operator %q", n.Op)

	default:
		return nil, fmt.Errorf("empty expression node")
	}
}

var cmpOps = map[string]expr.CmpOp{
	"=": expr.CmpEq, "==": expr.CmpEq,
	"<>": expr.CmpNeq, "!=": expr.CmpNeq,
	"<": expr.CmpLt, "<=": expr.CmpLte,
	">": expr.CmpGt, ">=": expr.CmpGte,
}

var arithOps = map[string]expr.ArithOp{
	"+": expr.OpAdd, "-": expr.OpSub, "*": expr.OpMul, "/": expr.OpDiv, "%": expr.OpMod,
}

func (n *ExprNode) foldConnective(operands []ExprNode, isAnd bool) (expr.Expr, error) {
	if len(operands) < 2 {
		return nil, fmt.Errorf("connective needs at least two operands")
	}
	acc, err := operands[0].Compile()
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(operands); i++ {
		e, err := operands[i].Compile()
		if err != nil {
			return nil, err
		}
		if isAnd {
			acc = expr.And{Left: acc, Right: e}
		} else {
			acc = expr.Or{Left: acc, Right: e}
		}
	}
	return acc, nil
}
