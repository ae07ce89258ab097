package graph

import (
	"fmt"
	"sort"
	"sync"
)

// Catalog is a thread-safe registry of named graphs. The session layer binds
// source graphs into it before execution and construction results get
// registered under their working-graph names.
type Catalog struct {
	mu     sync.RWMutex
	graphs map[string]*Graph
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{graphs: make(map[string]*Graph)}
}

// Register stores a graph under its name, replacing any previous binding.
func (c *Catalog) Register(g *Graph) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.graphs[g.Name()] = g
}

// Get returns the graph bound to name.
func (c *Catalog) Get(name string) (*Graph, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.graphs[name]
	if !ok {
		return nil, fmt.Errorf("%w: graph %q", ErrNotFound, name)
	}
	return g, nil
}

// Names returns the registered graph names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.graphs))
	for name := range c.graphs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
