package store_test

import (
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telatin/Koverage/internal/store"
)

func TestStoreVertices(t *testing.T) {
	t.Parallel()

	s := store.New[int]()
	require.NoError(t, s.AddVertex("a", 1, graph.VertexProperties{}))
	assert.ErrorIs(t, s.AddVertex("a", 2, graph.VertexProperties{}), graph.ErrVertexAlreadyExists)

	v, _, err := s.Vertex("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, _, err = s.Vertex("missing")
	assert.ErrorIs(t, err, graph.ErrVertexNotFound)
}

func TestStorePredecessors(t *testing.T) {
	t.Parallel()

	s := store.New[int]()
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, s.AddVertex(name, 0, graph.VertexProperties{}))
	}
	require.NoError(t, s.AddEdge("a", "c", graph.Edge[string]{Source: "a", Target: "c"}))
	require.NoError(t, s.AddEdge("b", "c", graph.Edge[string]{Source: "b", Target: "c"}))

	assert.Equal(t, []string{"a", "b"}, s.Predecessors("c"))
	assert.Equal(t, []string{"c"}, s.Successors("a"))
	assert.Empty(t, s.Predecessors("a"))
}

func TestStoreRemoveVertexWithEdges(t *testing.T) {
	t.Parallel()

	s := store.New[int]()
	require.NoError(t, s.AddVertex("a", 0, graph.VertexProperties{}))
	require.NoError(t, s.AddVertex("b", 0, graph.VertexProperties{}))
	require.NoError(t, s.AddEdge("a", "b", graph.Edge[string]{Source: "a", Target: "b"}))

	assert.ErrorIs(t, s.RemoveVertex("a"), graph.ErrVertexHasEdges)

	require.NoError(t, s.RemoveEdge("a", "b"))
	assert.NoError(t, s.RemoveVertex("a"))
}
