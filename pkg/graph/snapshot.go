package graph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/orneryd/vegvisir/pkg/values"
)

// Snapshot is the YAML-serializable form of a graph, used by the CLI to load
// source graphs and dump constructed ones.
type Snapshot struct {
	Name          string               `yaml:"name"`
	Nodes         []NodeSnapshot       `yaml:"nodes"`
	Relationships []RelationshipSnapshot `yaml:"relationships,omitempty"`
}

// NodeSnapshot is one node in a snapshot file.
type NodeSnapshot struct {
	ID         int64          `yaml:"id"`
	Labels     []string       `yaml:"labels,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// RelationshipSnapshot is one relationship in a snapshot file.
type RelationshipSnapshot struct {
	ID         int64          `yaml:"id"`
	Source     int64          `yaml:"source"`
	Target     int64          `yaml:"target"`
	Type       string         `yaml:"type"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// LoadSnapshot reads a YAML snapshot file into a new graph. Nodes are added
// before relationships so endpoint validation holds regardless of file
// order.
func LoadSnapshot(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("graph: read snapshot: %w", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("graph: decode snapshot: %w", err)
	}
	return FromSnapshot(&snap)
}

// FromSnapshot builds a graph from a decoded snapshot.
func FromSnapshot(snap *Snapshot) (*Graph, error) {
	g := New(snap.Name)
	for _, ns := range snap.Nodes {
		props, err := decodeProperties(ns.Properties)
		if err != nil {
			return nil, fmt.Errorf("graph: node %d: %w", ns.ID, err)
		}
		if err := g.AddNode(&Node{ID: ns.ID, Labels: ns.Labels, Properties: props}); err != nil {
			return nil, fmt.Errorf("graph: node %d: %w", ns.ID, err)
		}
	}
	for _, rs := range snap.Relationships {
		props, err := decodeProperties(rs.Properties)
		if err != nil {
			return nil, fmt.Errorf("graph: relationship %d: %w", rs.ID, err)
		}
		rel := &Relationship{ID: rs.ID, Source: rs.Source, Target: rs.Target, Type: rs.Type, Properties: props}
		if err := g.AddRelationship(rel); err != nil {
			return nil, fmt.Errorf("graph: relationship %d: %w", rs.ID, err)
		}
	}
	return g, nil
}

// ToSnapshot converts the graph to its serializable form.
func (g *Graph) ToSnapshot() *Snapshot {
	snap := &Snapshot{Name: g.Name()}
	for _, n := range g.Nodes() {
		snap.Nodes = append(snap.Nodes, NodeSnapshot{
			ID:         n.ID,
			Labels:     n.Labels,
			Properties: encodeProperties(n.Properties),
		})
	}
	for _, r := range g.Relationships() {
		snap.Relationships = append(snap.Relationships, RelationshipSnapshot{
			ID:         r.ID,
			Source:     r.Source,
			Target:     r.Target,
			Type:       r.Type,
			Properties: encodeProperties(r.Properties),
		})
	}
	return snap
}

func decodeProperties(raw map[string]any) (map[string]values.Value, error) {
	if raw == nil {
		return nil, nil
	}
	props := make(map[string]values.Value, len(raw))
	for k, v := range raw {
		val, err := values.FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		props[k] = val
	}
	return props, nil
}

func encodeProperties(props map[string]values.Value) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v.ToAny()
	}
	return out
}
