// Package graph provides the in-memory property-graph store the engine
// reads matched patterns from and materializes constructed patterns into.
//
// The model is a labeled property graph: nodes carry a label set and a
// property map, relationships carry a type, endpoints, and a property map.
// Identifiers are 64-bit integers, unique within one graph instance and
// never reused.
//
// Example:
//
//	g := graph.New("social")
//	g.AddNode(&graph.Node{ID: 1, Labels: []string{"Person"},
//		Properties: map[string]values.Value{"name": values.Str("Alice")}})
//	g.AddNode(&graph.Node{ID: 2, Labels: []string{"Person"}})
//	g.AddRelationship(&graph.Relationship{ID: 10, Source: 1, Target: 2, Type: "KNOWS"})
package graph

import (
	"errors"

	"github.com/orneryd/vegvisir/pkg/values"
)

// Common errors
var (
	ErrNotFound            = errors.New("graph: not found")
	ErrAlreadyExists       = errors.New("graph: already exists")
	ErrInvalidData         = errors.New("graph: invalid data")
	ErrInvalidRelationship = errors.New("graph: invalid relationship: source or target node not found")
)

// Node is a graph vertex: identifier, label set, properties.
type Node struct {
	ID         int64
	Labels     []string
	Properties map[string]values.Value
}

// Ref returns the node as a value-model reference.
func (n *Node) Ref() values.NodeRef { return values.NodeRef{ID: n.ID} }

// HasLabel reports whether the node carries the label.
func (n *Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Relationship is a directed, typed edge between two nodes.
type Relationship struct {
	ID         int64
	Source     int64
	Target     int64
	Type       string
	Properties map[string]values.Value
}

// Ref returns the relationship as a value-model reference.
func (r *Relationship) Ref() values.RelationshipRef {
	return values.RelationshipRef{ID: r.ID, Source: r.Source, Target: r.Target, Type: r.Type}
}

func copyProperties(props map[string]values.Value) map[string]values.Value {
	if props == nil {
		return nil
	}
	cp := make(map[string]values.Value, len(props))
	for k, v := range props {
		cp[k] = v
	}
	return cp
}

func copyNode(n *Node) *Node {
	return &Node{
		ID:         n.ID,
		Labels:     append([]string(nil), n.Labels...),
		Properties: copyProperties(n.Properties),
	}
}

func copyRelationship(r *Relationship) *Relationship {
	return &Relationship{
		ID:         r.ID,
		Source:     r.Source,
		Target:     r.Target,
		Type:       r.Type,
		Properties: copyProperties(r.Properties),
	}
}
