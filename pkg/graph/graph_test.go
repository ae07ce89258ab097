package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orneryd/vegvisir/pkg/values"
)

func sample(t *testing.T) *Graph {
	t.Helper()
	g := New("social")
	require.NoError(t, g.AddNode(&Node{ID: 1, Labels: []string{"Person"},
		Properties: map[string]values.Value{"name": values.Str("Alice")}}))
	require.NoError(t, g.AddNode(&Node{ID: 2, Labels: []string{"Person", "Admin"}}))
	require.NoError(t, g.AddNode(&Node{ID: 3, Labels: []string{"City"}}))
	require.NoError(t, g.AddRelationship(&Relationship{ID: 10, Source: 1, Target: 2, Type: "KNOWS"}))
	require.NoError(t, g.AddRelationship(&Relationship{ID: 11, Source: 1, Target: 3, Type: "LIVES_IN",
		Properties: map[string]values.Value{"since": values.Int(2019)}}))
	return g
}

func TestGraphAddAndGet(t *testing.T) {
	g := sample(t)

	n, err := g.Node(1)
	require.NoError(t, err)
	require.True(t, n.HasLabel("Person"))
	require.True(t, values.Equal(n.Properties["name"], values.Str("Alice")))

	r, err := g.Relationship(11)
	require.NoError(t, err)
	require.Equal(t, int64(1), r.Source)
	require.Equal(t, int64(3), r.Target)
	require.Equal(t, "LIVES_IN", r.Type)

	_, err = g.Node(99)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = g.Relationship(99)
	require.ErrorIs(t, err, ErrNotFound)

	require.Equal(t, 3, g.NodeCount())
	require.Equal(t, 2, g.RelationshipCount())
}

func TestGraphDuplicatesAndInvalidEndpoints(t *testing.T) {
	g := sample(t)

	require.ErrorIs(t, g.AddNode(&Node{ID: 1}), ErrAlreadyExists)
	require.ErrorIs(t, g.AddRelationship(&Relationship{ID: 10, Source: 1, Target: 2}), ErrAlreadyExists)
	require.ErrorIs(t, g.AddRelationship(&Relationship{ID: 12, Source: 1, Target: 99}), ErrInvalidRelationship)
	require.ErrorIs(t, g.AddRelationship(&Relationship{ID: 12, Source: 99, Target: 1}), ErrInvalidRelationship)
	require.ErrorIs(t, g.AddNode(nil), ErrInvalidData)
}

func TestGraphIsolation(t *testing.T) {
	g := sample(t)

	// Mutating a returned node must not leak into the store.
	n, err := g.Node(1)
	require.NoError(t, err)
	n.Properties["name"] = values.Str("Mallory")
	n.Labels[0] = "Robot"

	again, err := g.Node(1)
	require.NoError(t, err)
	require.True(t, values.Equal(again.Properties["name"], values.Str("Alice")))
	require.Equal(t, "Person", again.Labels[0])
}

func TestGraphNodesByLabel(t *testing.T) {
	g := sample(t)

	people := g.NodesByLabel("Person")
	require.Len(t, people, 2)
	require.Equal(t, int64(1), people[0].ID, "sorted by identifier")
	require.Equal(t, int64(2), people[1].ID)

	require.Len(t, g.NodesByLabel("Admin"), 1)
	require.Empty(t, g.NodesByLabel("Ghost"))
}

func TestGraphMaxID(t *testing.T) {
	require.Equal(t, int64(0), New("empty").MaxID())

	g := sample(t)
	require.Equal(t, int64(11), g.MaxID(), "relationship ids count too")
}

func TestGraphGeneratedName(t *testing.T) {
	a, b := New(""), New("")
	require.NotEmpty(t, a.Name())
	require.NotEqual(t, a.Name(), b.Name())
}

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	c.Register(New("alpha"))
	c.Register(New("beta"))

	g, err := c.Get("alpha")
	require.NoError(t, err)
	require.Equal(t, "alpha", g.Name())

	_, err = c.Get("missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.Equal(t, []string{"alpha", "beta"}, c.Names())

	// Re-registering under the same name replaces the binding.
	repl := New("alpha")
	require.NoError(t, repl.AddNode(&Node{ID: 1}))
	c.Register(repl)
	g, err = c.Get("alpha")
	require.NoError(t, err)
	require.Equal(t, 1, g.NodeCount())
}

func TestSnapshotRoundTrip(t *testing.T) {
	g := sample(t)

	restored, err := FromSnapshot(g.ToSnapshot())
	require.NoError(t, err)
	require.Equal(t, g.Name(), restored.Name())
	require.Equal(t, g.NodeCount(), restored.NodeCount())
	require.Equal(t, g.RelationshipCount(), restored.RelationshipCount())

	n, err := restored.Node(1)
	require.NoError(t, err)
	require.True(t, values.Equal(n.Properties["name"], values.Str("Alice")))
	r, err := restored.Relationship(11)
	require.NoError(t, err)
	require.True(t, values.Equal(r.Properties["since"], values.Int(2019)))
}

func TestLoadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.yaml")
	doc := `name: tiny
nodes:
  - id: 1
    labels: [Person]
    properties:
      name: Alice
      age: 30
  - id: 2
relationships:
  - id: 5
    source: 2
    target: 1
    type: KNOWS
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	g, err := LoadSnapshot(path)
	require.NoError(t, err)
	require.Equal(t, "tiny", g.Name())
	require.Equal(t, 2, g.NodeCount())
	require.Equal(t, 1, g.RelationshipCount())

	n, err := g.Node(1)
	require.NoError(t, err)
	require.True(t, values.Equal(n.Properties["age"], values.Int(30)))

	_, err = LoadSnapshot(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadSnapshotBadEndpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.yaml")
	doc := `name: broken
nodes:
  - id: 1
relationships:
  - id: 5
    source: 1
    target: 42
    type: KNOWS
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	_, err := LoadSnapshot(path)
	require.ErrorIs(t, err, ErrInvalidRelationship)
}
