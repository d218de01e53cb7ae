// SPDX-License-Identifier: MIT

package bfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridflow/bfs"
	"github.com/katalvlaran/gridflow/core"
)

// mustGraph builds a multigraph from (from, to) pairs and returns the IDs.
func mustGraph(t *testing.T, opts []core.GraphOption, pairs ...[2]string) (*core.Graph, []string) {
	t.Helper()
	g := core.NewGraph(append([]core.GraphOption{core.WithMultiEdges(), core.WithLoops()}, opts...)...)
	ids := make([]string, len(pairs))
	for i, p := range pairs {
		id, err := g.AddEdge(p[0], p[1])
		require.NoError(t, err)
		ids[i] = id
	}

	return g, ids
}

func TestBFS_TreeOnMultigraph(t *testing.T) {
	g, ids := mustGraph(t, nil,
		[2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"A", "C"},
		[2]string{"C", "D"}, [2]string{"D", "C"}, [2]string{"D", "D"})

	res, err := bfs.BFS(g, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, res.Order)
	assert.Equal(t, map[string]int{"A": 0, "B": 1, "C": 1, "D": 2}, res.Depth)
	assert.Equal(t, map[string]string{"B": "A", "C": "A", "D": "C"}, res.Parent)
	// C is reached over A–C, not B–C; D over the first parallel edge.
	assert.Equal(t, map[string]string{"B": ids[0], "C": ids[2], "D": ids[3]}, res.Via)
}

func TestBFS_Directed(t *testing.T) {
	g, _ := mustGraph(t, []core.GraphOption{core.WithDirected(true)},
		[2]string{"A", "B"}, [2]string{"C", "B"})

	res, err := bfs.BFS(g, "A")
	require.NoError(t, err)
	assert.True(t, res.Reached("B"))
	assert.False(t, res.Reached("C"), "C→B cannot be walked backwards")
}

func TestBFS_Errors(t *testing.T) {
	_, err := bfs.BFS(nil, "A")
	assert.ErrorIs(t, err, bfs.ErrGraphNil)

	g, _ := mustGraph(t, nil, [2]string{"A", "B"})
	_, err = bfs.BFS(g, "Z")
	assert.ErrorIs(t, err, bfs.ErrStartVertexNotFound)
}

func TestBFS_IsolatedStart(t *testing.T) {
	g := core.NewGraph()
	require.NoError(t, g.AddVertex("solo"))

	res, err := bfs.BFS(g, "solo")
	require.NoError(t, err)
	assert.Equal(t, []string{"solo"}, res.Order)
	assert.Empty(t, res.Parent)
}
