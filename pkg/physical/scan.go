package physical

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/orneryd/vegvisir/pkg/graph"
	"github.com/orneryd/vegvisir/pkg/record"
	"github.com/orneryd/vegvisir/pkg/table"
	"github.com/orneryd/vegvisir/pkg/values"
)

// NodeScan is a leaf operator producing one row per node of the named graph,
// optionally restricted by labels. Each row binds Variable to a node
// reference and, per the Properties list, "Variable.prop" columns to the
// node's property values (null when the node lacks the property).
type NodeScan struct {
	Graph      string
	Variable   string
	Labels     []string
	Properties []string
}

// Header declares the node column followed by one column per property.
func (s *NodeScan) Header() *record.Header {
	cols := []record.Column{{Variable: s.Variable, Field: s.Variable, Type: values.KindNode}}
	for _, p := range s.Properties {
		cols = append(cols, record.Column{Variable: s.Variable, Field: s.Variable + "." + p})
	}
	return record.NewHeader(cols...)
}

// Execute scans the graph.
func (s *NodeScan) Execute(ctx context.Context, rc *Context) (*Result, error) {
	g, err := rc.Catalog.Get(s.Graph)
	if err != nil {
		return nil, err
	}

	var nodes []*graph.Node
	if len(s.Labels) > 0 {
		nodes = g.NodesByLabel(s.Labels[0])
	} else {
		nodes = g.Nodes()
	}

	var rows []record.Row
	for _, n := range nodes {
		if !hasAllLabels(n, s.Labels) {
			continue
		}
		fields := map[string]values.Value{s.Variable: values.NodeVal(n.Ref())}
		for _, p := range s.Properties {
			v, ok := n.Properties[p]
			if !ok {
				v = values.Null()
			}
			fields[s.Variable+"."+p] = v
		}
		rows = append(rows, record.NewRow(fields))
	}

	rc.Logger.Debug("node scan",
		zap.String("graph", s.Graph),
		zap.String("variable", s.Variable),
		zap.Strings("labels", s.Labels),
		zap.Int("rows", len(rows)))
	return &Result{Table: table.New(rows...), Header: s.Header(), Graph: g, GraphName: g.Name()}, nil
}

func hasAllLabels(n *graph.Node, labels []string) bool {
	for _, l := range labels {
		if !n.HasLabel(l) {
			return false
		}
	}
	return true
}

// RelationshipScan is a leaf operator producing one row per relationship of
// the named graph, optionally restricted by type. Each row binds Variable to
// the relationship reference, SourceVar and TargetVar to its endpoint node
// references, and "Variable.prop" columns per the Properties list.
type RelationshipScan struct {
	Graph      string
	Variable   string
	SourceVar  string
	TargetVar  string
	Type       string
	Properties []string
}

// Header declares the relationship, source, and target columns followed by
// one column per property.
func (s *RelationshipScan) Header() *record.Header {
	cols := []record.Column{
		{Variable: s.Variable, Field: s.Variable, Type: values.KindRelationship},
		{Variable: s.SourceVar, Field: s.SourceVar, Type: values.KindNode},
		{Variable: s.TargetVar, Field: s.TargetVar, Type: values.KindNode},
	}
	for _, p := range s.Properties {
		cols = append(cols, record.Column{Variable: s.Variable, Field: s.Variable + "." + p})
	}
	return record.NewHeader(cols...)
}

// Execute scans the graph.
func (s *RelationshipScan) Execute(ctx context.Context, rc *Context) (*Result, error) {
	if s.SourceVar == "" || s.TargetVar == "" {
		return nil, fmt.Errorf("relationship scan %q: source and target variables are required", s.Variable)
	}
	g, err := rc.Catalog.Get(s.Graph)
	if err != nil {
		return nil, err
	}

	var rows []record.Row
	for _, r := range g.Relationships() {
		if s.Type != "" && r.Type != s.Type {
			continue
		}
		fields := map[string]values.Value{
			s.Variable:  values.RelVal(r.Ref()),
			s.SourceVar: values.NodeVal(values.NodeRef{ID: r.Source}),
			s.TargetVar: values.NodeVal(values.NodeRef{ID: r.Target}),
		}
		for _, p := range s.Properties {
			v, ok := r.Properties[p]
			if !ok {
				v = values.Null()
			}
			fields[s.Variable+"."+p] = v
		}
		rows = append(rows, record.NewRow(fields))
	}

	rc.Logger.Debug("relationship scan",
		zap.String("graph", s.Graph),
		zap.String("variable", s.Variable),
		zap.String("type", s.Type),
		zap.Int("rows", len(rows)))
	return &Result{Table: table.New(rows...), Header: s.Header(), Graph: g, GraphName: g.Name()}, nil
}
