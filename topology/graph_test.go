// SPDX-License-Identifier: MIT

package topology_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridflow/frame"
	"github.com/katalvlaran/gridflow/network"
	"github.com/katalvlaran/gridflow/topology"
)

// triangle: A→B, B→C, A→C lines plus a link C→D and a parallel link C→D.
func triangle() *network.Network {
	return &network.Network{
		Buses: []network.Bus{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}},
		Lines: []network.Line{
			{Name: "l1", Bus0: "A", Bus1: "B"},
			{Name: "l2", Bus0: "B", Bus1: "C"},
			{Name: "l3", Bus0: "A", Bus1: "C"},
		},
		Links: []network.Link{
			{Name: "k1", Bus0: "C", Bus1: "D"},
			{Name: "k2", Bus0: "D", Bus1: "C"},
		},
	}
}

func TestIncidence_SignConvention(t *testing.T) {
	g, err := topology.New(triangle())
	require.NoError(t, err)

	k := g.Incidence()
	assert.Equal(t, []string{"A", "B", "C", "D"}, k.Rows().Labels())
	assert.Equal(t, []string{"Line:l1", "Line:l2", "Line:l3", "Link:k1", "Link:k2"}, k.Cols().Labels())
	assert.Equal(t, 1.0, k.Get("A", "Line:l1"))
	assert.Equal(t, -1.0, k.Get("B", "Line:l1"))
	assert.Equal(t, 0.0, k.Get("C", "Line:l1"))
	assert.Equal(t, -1.0, k.Get("C", "Link:k2"))

	// Every column sums to zero.
	for _, s := range k.ColSums().Values() {
		assert.Equal(t, 0.0, s)
	}
}

func TestNew_ComponentSubset(t *testing.T) {
	g, err := topology.New(triangle(), topology.Link)
	require.NoError(t, err)
	assert.Equal(t, []string{"Link:k1", "Link:k2"}, g.BranchIndex().Labels())

	_, err = topology.New(triangle(), topology.Component("Transformer"))
	assert.ErrorIs(t, err, topology.ErrTopology)
}

func TestNew_UnknownBus(t *testing.T) {
	n := triangle()
	n.Lines = append(n.Lines, network.Line{Name: "bad", Bus0: "A", Bus1: "Z"})

	_, err := topology.New(n)
	require.ErrorIs(t, err, topology.ErrTopology)

	var te *topology.TopologyError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "Z", te.Bus)
	assert.Equal(t, topology.BranchKey{Component: topology.Line, Name: "bad"}, te.Branch)
	assert.Contains(t, err.Error(), "Line:bad")
}

func TestEndpoints(t *testing.T) {
	g, err := topology.New(triangle())
	require.NoError(t, err)

	b0, b1, err := g.Endpoints(topology.BranchKey{Component: topology.Link, Name: "k2"})
	require.NoError(t, err)
	assert.Equal(t, "D", b0)
	assert.Equal(t, "C", b1)

	_, _, err = g.Endpoints(topology.BranchKey{Component: topology.Line, Name: "k2"})
	assert.ErrorIs(t, err, topology.ErrUnknownKey)
}

func TestActive_RederivesIncidence(t *testing.T) {
	g, err := topology.New(triangle())
	require.NoError(t, err)

	act := g.Active(func(k topology.BranchKey) bool { return k.Component == topology.Line })
	assert.Equal(t, g.Buses().Labels(), act.Buses().Labels())
	k := act.Incidence()
	assert.Equal(t, 3, k.Cols().Len())
	assert.Equal(t, 0.0, k.RowSums().Get("D"))
}

func TestCycles_KirchhoffOrientation(t *testing.T) {
	g, err := topology.New(triangle())
	require.NoError(t, err)

	c := g.Cycles()
	// One mesh in the triangle and one between the parallel links.
	require.Equal(t, 2, c.Rows().Len())

	// C·Kᵀ = 0: every cycle is closed.
	ck, err := frame.Mul(c, g.Incidence().T())
	require.NoError(t, err)
	ck.Each(func(_, _ string, v float64) { assert.Equal(t, 0.0, v) })

	assert.Equal(t, 1.0, c.Get("0", "Line:l2"))
	assert.Equal(t, -1.0, c.Get("0", "Line:l3"))
	assert.Equal(t, 1.0, c.Get("0", "Line:l1"))
	assert.Equal(t, 0.0, c.Get("0", "Link:k1"))

	assert.Equal(t, 1.0, c.Get("1", "Link:k2"))
	assert.Equal(t, 1.0, c.Get("1", "Link:k1"))
}

func TestCycles_TreeHasNone(t *testing.T) {
	g, err := topology.New(triangle(), topology.Line)
	require.NoError(t, err)
	tree := g.Active(func(k topology.BranchKey) bool { return k.Name != "l3" })
	assert.Equal(t, 0, tree.Cycles().Rows().Len())
}

func TestParallelLines_KeepIdentity(t *testing.T) {
	n := &network.Network{
		Buses: []network.Bus{{Name: "A"}, {Name: "B"}},
		Lines: []network.Line{
			{Name: "north", Bus0: "A", Bus1: "B"},
			{Name: "south", Bus0: "A", Bus1: "B"},
			{Name: "loop", Bus0: "B", Bus1: "B"},
		},
	}
	g, err := topology.New(n)
	require.NoError(t, err)

	k := g.Incidence()
	assert.Equal(t, []string{"Line:north", "Line:south", "Line:loop"}, k.Cols().Labels())
	assert.Equal(t, 1.0, k.Get("A", "Line:south"))
	assert.Equal(t, -1.0, k.Get("B", "Line:south"))
	assert.Equal(t, 0.0, k.Get("B", "Line:loop"))

	c := g.Cycles()
	require.Equal(t, 2, c.Rows().Len())
	// south closes against north, traversed backwards.
	assert.Equal(t, 1.0, c.Get("0", "Line:south"))
	assert.Equal(t, -1.0, c.Get("0", "Line:north"))
	assert.Equal(t, 1.0, c.Get("1", "Line:loop"))
	assert.Equal(t, 0.0, c.Get("1", "Line:north"))
}

func TestCycles_Forest(t *testing.T) {
	n := triangle()
	n.Buses = append(n.Buses, network.Bus{Name: "E"}, network.Bus{Name: "F"})
	n.Lines = append(n.Lines, network.Line{Name: "ef", Bus0: "E", Bus1: "F"}, network.Line{Name: "fe", Bus0: "F", Bus1: "E"})

	g, err := topology.New(n)
	require.NoError(t, err)
	c := g.Cycles()
	require.Equal(t, 3, c.Rows().Len())
	assert.Equal(t, 1.0, c.Get("1", "Line:fe"))
	assert.Equal(t, 1.0, c.Get("1", "Line:ef"))

	ck, err := frame.Mul(c, g.Incidence().T())
	require.NoError(t, err)
	ck.Each(func(_, _ string, v float64) { assert.Equal(t, 0.0, v) })
}

func TestParseBranchKey(t *testing.T) {
	k, err := topology.ParseBranchKey("Link:a:b")
	require.NoError(t, err)
	assert.Equal(t, topology.BranchKey{Component: topology.Link, Name: "a:b"}, k)
	assert.Equal(t, "Link:a:b", k.String())

	_, err = topology.ParseBranchKey("Bus:x")
	assert.ErrorIs(t, err, topology.ErrUnknownKey)
}
