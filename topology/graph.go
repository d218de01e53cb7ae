// SPDX-License-Identifier: MIT

package topology

import (
	"fmt"

	"github.com/katalvlaran/gridflow/core"
	"github.com/katalvlaran/gridflow/frame"
	"github.com/katalvlaran/gridflow/matrix"
	"github.com/katalvlaran/gridflow/network"
)

// Graph is the bus/branch multigraph of a network, stored as an
// undirected core.Graph with loops and parallel edges. Every branch is one
// core edge oriented bus0→bus1; branchOf maps edge IDs back to branches.
//
// Buses keep the network's table order; branches are ordered by the
// component list given to New, then by table order within a component.
type Graph struct {
	buses    frame.Index
	keys     frame.Index
	branches []Branch
	byKey    map[BranchKey]int

	g        *core.Graph
	edges    []*core.Edge   // branch position → edge
	branchOf map[string]int // edge ID → branch position
}

// New builds the graph of n over the given branch components
// (DefaultComponents when none are given). A branch whose bus0 or bus1 is
// not a bus of n fails with *TopologyError.
// Complexity: O(V + E).
func New(n *network.Network, components ...Component) (*Graph, error) {
	if len(components) == 0 {
		components = DefaultComponents
	}
	buses, err := frame.NewIndex(n.BusNames()...)
	if err != nil {
		return nil, &TopologyError{Reason: fmt.Sprintf("bus table: %v", err)}
	}

	var branches []Branch
	for _, c := range components {
		switch c {
		case Line:
			for _, l := range n.Lines {
				branches = append(branches, Branch{Key: BranchKey{Line, l.Name}, Bus0: l.Bus0, Bus1: l.Bus1})
			}
		case Link:
			for _, l := range n.Links {
				branches = append(branches, Branch{Key: BranchKey{Link, l.Name}, Bus0: l.Bus0, Bus1: l.Bus1})
			}
		default:
			return nil, &TopologyError{Reason: fmt.Sprintf("unknown branch component %q", c)}
		}
	}
	for _, b := range branches {
		for _, bus := range []string{b.Bus0, b.Bus1} {
			if !buses.Has(bus) {
				return nil, &TopologyError{Branch: b.Key, Bus: bus, Reason: "references unknown bus"}
			}
		}
	}

	return build(buses, branches)
}

// build indexes branches and loads them into a core graph; endpoints are
// already validated.
func build(buses frame.Index, branches []Branch) (*Graph, error) {
	g := core.NewGraph(core.WithMultiEdges(), core.WithLoops())
	for _, bus := range buses.Labels() {
		if err := g.AddVertex(bus); err != nil {
			return nil, &TopologyError{Bus: bus, Reason: err.Error()}
		}
	}
	labels := make([]string, len(branches))
	byKey := make(map[BranchKey]int, len(branches))
	edges := make([]*core.Edge, len(branches))
	branchOf := make(map[string]int, len(branches))
	for i, b := range branches {
		labels[i] = b.Key.String()
		byKey[b.Key] = i
		id, err := g.AddEdge(b.Bus0, b.Bus1)
		if err != nil {
			return nil, &TopologyError{Branch: b.Key, Reason: err.Error()}
		}
		edges[i], _ = g.GetEdge(id) // just added
		branchOf[id] = i
	}
	keys, err := frame.NewIndex(labels...)
	if err != nil {
		return nil, &TopologyError{Reason: fmt.Sprintf("branch table: %v", err)}
	}

	return &Graph{buses: buses, keys: keys, branches: branches, byKey: byKey, g: g, edges: edges, branchOf: branchOf}, nil
}

// Buses returns the bus index (incidence rows).
func (g *Graph) Buses() frame.Index { return g.buses }

// BranchIndex returns the branch index (incidence columns), labels in
// BranchKey.String form.
func (g *Graph) BranchIndex() frame.Index { return g.keys }

// Branches returns a copy of the branch list in column order.
func (g *Graph) Branches() []Branch { return append([]Branch(nil), g.branches...) }

// Keys returns the branch keys in column order.
func (g *Graph) Keys() []BranchKey {
	out := make([]BranchKey, len(g.branches))
	for i, b := range g.branches {
		out[i] = b.Key
	}

	return out
}

// Endpoints returns (bus0, bus1) of the branch.
// Errors: ErrUnknownKey.
func (g *Graph) Endpoints(key BranchKey) (string, string, error) {
	i, ok := g.byKey[key]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	return g.branches[i].Bus0, g.branches[i].Bus1, nil
}

// Incidence returns K (buses × branches): +1 where a branch leaves its bus0,
// -1 where it enters its bus1. A self-loop nets to a zero column.
// K is rebuilt on every call.
func (g *Graph) Incidence() *frame.Frame {
	_, d, err := matrix.BuildDenseIncidence(g.buses.Labels(), g.edges)
	if err != nil {
		// Unreachable: build admits only edges between indexed buses.
		panic(fmt.Sprintf("topology: incidence: %v", err))
	}
	k, _ := frame.FromDense(g.buses, g.keys, d) // shape follows the indices

	return k
}

// Active returns the subgraph over the same buses holding only branches
// for which keep returns true.
func (g *Graph) Active(keep func(BranchKey) bool) *Graph {
	var kept []Branch
	for _, b := range g.branches {
		if keep(b.Key) {
			kept = append(kept, b)
		}
	}
	out, _ := build(g.buses, kept) // subset of validated, unique branches

	return out
}
