package graph

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Graph is a thread-safe in-memory property graph. Stored nodes and
// relationships are deep-copied on the way in and out to prevent external
// mutation, and label/adjacency indexes are kept for the scan operators.
type Graph struct {
	mu   sync.RWMutex
	name string

	nodes map[int64]*Node
	rels  map[int64]*Relationship

	nodesByLabel map[string]map[int64]struct{}
	outgoing     map[int64]map[int64]struct{}
	incoming     map[int64]map[int64]struct{}
}

// New creates an empty graph. An empty name gets a generated one so every
// working graph is addressable in a catalog.
func New(name string) *Graph {
	if name == "" {
		name = "graph-" + uuid.NewString()
	}
	return &Graph{
		name:         name,
		nodes:        make(map[int64]*Node),
		rels:         make(map[int64]*Relationship),
		nodesByLabel: make(map[string]map[int64]struct{}),
		outgoing:     make(map[int64]map[int64]struct{}),
		incoming:     make(map[int64]map[int64]struct{}),
	}
}

// Name returns the graph's name.
func (g *Graph) Name() string { return g.name }

// AddNode stores a node.
func (g *Graph) AddNode(n *Node) error {
	if n == nil {
		return ErrInvalidData
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[n.ID]; exists {
		return ErrAlreadyExists
	}
	stored := copyNode(n)
	g.nodes[n.ID] = stored
	for _, label := range stored.Labels {
		if g.nodesByLabel[label] == nil {
			g.nodesByLabel[label] = make(map[int64]struct{})
		}
		g.nodesByLabel[label][n.ID] = struct{}{}
	}
	return nil
}

// AddRelationship stores a relationship. Both endpoints must already exist.
func (g *Graph) AddRelationship(r *Relationship) error {
	if r == nil {
		return ErrInvalidData
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.rels[r.ID]; exists {
		return ErrAlreadyExists
	}
	if _, ok := g.nodes[r.Source]; !ok {
		return ErrInvalidRelationship
	}
	if _, ok := g.nodes[r.Target]; !ok {
		return ErrInvalidRelationship
	}
	g.rels[r.ID] = copyRelationship(r)
	if g.outgoing[r.Source] == nil {
		g.outgoing[r.Source] = make(map[int64]struct{})
	}
	g.outgoing[r.Source][r.ID] = struct{}{}
	if g.incoming[r.Target] == nil {
		g.incoming[r.Target] = make(map[int64]struct{})
	}
	g.incoming[r.Target][r.ID] = struct{}{}
	return nil
}

// Node retrieves a node by identifier.
func (g *Graph) Node(id int64) (*Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyNode(n), nil
}

// Relationship retrieves a relationship by identifier.
func (g *Graph) Relationship(id int64) (*Relationship, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rels[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRelationship(r), nil
}

// Nodes returns every node, sorted by identifier for deterministic output.
func (g *Graph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, copyNode(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NodesByLabel returns every node carrying the label, sorted by identifier.
func (g *Graph) NodesByLabel(label string) []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := g.nodesByLabel[label]
	out := make([]*Node, 0, len(ids))
	for id := range ids {
		out = append(out, copyNode(g.nodes[id]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Relationships returns every relationship, sorted by identifier.
func (g *Graph) Relationships() []*Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Relationship, 0, len(g.rels))
	for _, r := range g.rels {
		out = append(out, copyRelationship(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// RelationshipCount returns the number of relationships.
func (g *Graph) RelationshipCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rels)
}

// MaxID returns the highest identifier in use across nodes and
// relationships, 0 for an empty graph. Identifier allocators are seeded
// above this so constructed entities never collide with existing ones.
func (g *Graph) MaxID() int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var max int64
	for id := range g.nodes {
		if id > max {
			max = id
		}
	}
	for id := range g.rels {
		if id > max {
			max = id
		}
	}
	return max
}
