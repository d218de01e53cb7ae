// SPDX-License-Identifier: MIT

// Package bfs runs breadth-first search over a core.Graph.
//
// Besides depth and parent, the search records the edge every vertex was
// first reached by, so spanning trees stay exact on multigraphs where two
// parallel edges join the same pair of vertices.
package bfs

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/gridflow/core"
)

// Sentinel errors for BFS execution.
var (
	// ErrGraphNil is returned if a nil graph pointer is passed.
	ErrGraphNil = errors.New("bfs: graph is nil")

	// ErrStartVertexNotFound is returned when the start ID is absent.
	ErrStartVertexNotFound = errors.New("bfs: start vertex not found")

	// ErrNeighbors is returned when fetching neighbors from the graph fails.
	ErrNeighbors = errors.New("bfs: neighbor iteration error")
)

// Result holds the outcome of a traversal:
//   - Order: vertices in visit sequence.
//   - Depth: distance in edges from the start.
//   - Parent: predecessor in the BFS tree (absent for the start).
//   - Via: ID of the tree edge joining a vertex to its parent.
type Result struct {
	Order  []string
	Depth  map[string]int
	Parent map[string]string
	Via    map[string]string
}

// Reached reports whether id was visited.
func (r *Result) Reached(id string) bool {
	_, ok := r.Depth[id]

	return ok
}

// queueItem pairs a vertex ID with its BFS depth.
type queueItem struct {
	id    string
	depth int
}

// walker encapsulates mutable BFS state.
type walker struct {
	graph *core.Graph
	queue []queueItem
	res   *Result
}

// BFS explores g from start. Neighbors are taken edge by edge in the
// graph's insertion order, so the tree is deterministic; the first edge
// reaching a vertex becomes its tree edge.
// Errors: ErrGraphNil, ErrStartVertexNotFound, ErrNeighbors.
// Complexity: O(V + E).
func BFS(g *core.Graph, start string) (*Result, error) {
	if g == nil {
		return nil, ErrGraphNil
	}
	if !g.HasVertex(start) {
		return nil, fmt.Errorf("%w: %q", ErrStartVertexNotFound, start)
	}
	n := g.VertexCount()
	w := &walker{
		graph: g,
		queue: make([]queueItem, 0, n),
		res: &Result{
			Order:  make([]string, 0, n),
			Depth:  make(map[string]int, n),
			Parent: make(map[string]string, n),
			Via:    make(map[string]string, n),
		},
	}
	w.enqueue(start, 0, nil)

	return w.res, w.loop()
}

// enqueue marks id visited at depth d, records how it was reached and adds
// it to the queue.
func (w *walker) enqueue(id string, d int, via *core.Edge) {
	w.res.Depth[id] = d
	if via != nil {
		w.res.Parent[id] = via.Other(id)
		w.res.Via[id] = via.ID
	}
	w.queue = append(w.queue, queueItem{id: id, depth: d})
}

func (w *walker) loop() error {
	for len(w.queue) > 0 {
		item := w.queue[0]
		w.queue = w.queue[1:]
		w.res.Order = append(w.res.Order, item.id)

		edges, err := w.graph.Neighbors(item.id)
		if err != nil {
			return fmt.Errorf("%w: neighbors of %q: %v", ErrNeighbors, item.id, err)
		}
		for _, e := range edges {
			nbr := e.Other(item.id)
			if !w.res.Reached(nbr) {
				w.enqueue(nbr, item.depth+1, e)
			}
		}
	}

	return nil
}
