// SPDX-License-Identifier: MIT

package topology

import (
	"github.com/katalvlaran/gridflow/bfs"
	"github.com/katalvlaran/gridflow/frame"
)

// forest is a breadth-first spanning forest: for every non-root bus the
// tree branch leading to its parent.
type forest struct {
	parent   map[string]string
	via      map[string]int // bus → position of tree branch to parent
	depth    map[string]int
	treeEdge []bool
}

// spanningForest grows a BFS tree from every unreached bus in bus order.
// Neighbors are explored in branch order, so the forest is deterministic.
func (g *Graph) spanningForest() *forest {
	n := g.buses.Len()
	f := &forest{
		parent:   make(map[string]string, n),
		via:      make(map[string]int, n),
		depth:    make(map[string]int, n),
		treeEdge: make([]bool, len(g.branches)),
	}
	for _, root := range g.buses.Labels() {
		if _, seen := f.depth[root]; seen {
			continue
		}
		res, err := bfs.BFS(g.g, root)
		if err != nil {
			// Unreachable: roots come from the graph's own bus index.
			panic("topology: spanning forest: " + err.Error())
		}
		for bus, d := range res.Depth {
			f.depth[bus] = d
		}
		for bus, parent := range res.Parent {
			b := g.branchOf[res.Via[bus]]
			f.parent[bus] = parent
			f.via[bus] = b
			f.treeEdge[b] = true
		}
	}

	return f
}

// Cycles returns the fundamental cycle basis C (cycles × branches) of the
// BFS spanning forest. Each non-tree branch closes one cycle, oriented so
// that branch is traversed bus0→bus1; C[c, b] is +1 when b is traversed
// bus0→bus1, -1 when traversed backwards, 0 when not in the cycle.
// Parallel branches and self-loops each close their own cycle.
// Rows are labeled "0".."k-1" in branch order of the closing branch.
func (g *Graph) Cycles() *frame.Frame {
	f := g.spanningForest()
	var rows [][]float64
	for i, b := range g.branches {
		if f.treeEdge[i] {
			continue
		}
		row := make([]float64, len(g.branches))
		row[i] = 1
		// Return from bus1 to bus0 through the tree: climb both ends to
		// their common ancestor.
		u, v := b.Bus1, b.Bus0
		for u != v {
			if f.depth[u] >= f.depth[v] {
				// u climbs: traversed u → parent(u).
				e := f.via[u]
				row[e] += orientation(g.branches[e], u)
				u = f.parent[u]
			} else {
				// v climbs; on the return path this edge runs parent(v) → v.
				e := f.via[v]
				row[e] += orientation(g.branches[e], f.parent[v])
				v = f.parent[v]
			}
		}
		rows = append(rows, row)
	}

	c, _ := frame.FromRows(frame.RangeIndex(len(rows)), g.keys, rows) // shape built above

	return c
}

// orientation is +1 if walking b away from bus follows bus0→bus1.
func orientation(b Branch, from string) float64 {
	if b.Bus0 == from {
		return 1
	}

	return -1
}
