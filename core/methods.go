// SPDX-License-Identifier: MIT

package core

import "strconv"

// edgeIDPrefix keeps edge IDs human readable ("e1", "e2", ...).
const edgeIDPrefix = 'e'

// AddVertex adds id if it is not present yet. Adding an existing vertex
// is a no-op.
// Errors: ErrEmptyVertexID.
// Complexity: O(1) amortized.
func (g *Graph) AddVertex(id string) error {
	if id == "" {
		return ErrEmptyVertexID
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addVertexLocked(id)

	return nil
}

func (g *Graph) addVertexLocked(id string) {
	if _, ok := g.vertices[id]; ok {
		return
	}
	g.vertices[id] = struct{}{}
	g.order = append(g.order, id)
}

// HasVertex reports whether id is a vertex of g.
func (g *Graph) HasVertex(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.vertices[id]

	return ok
}

// Vertices returns the vertex IDs in insertion order.
func (g *Graph) Vertices() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return append([]string(nil), g.order...)
}

// VertexCount returns the number of vertices.
func (g *Graph) VertexCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.order)
}

// AddEdge connects from and to, adding missing endpoints, and returns the
// new edge's ID.
//
// Steps:
//  1. Validate IDs and the loop policy.
//  2. Under the write lock, ensure endpoints and check the multi-edge policy
//     (an undirected edge clashes with either orientation).
//  3. Assign the next ID and record the edge as traversable from `from`
//     and, unless directed or a loop, from `to`.
//
// Errors: ErrEmptyVertexID, ErrLoopNotAllowed, ErrMultiEdgeNotAllowed.
// Complexity: O(1) amortized with multi-edges, O(deg(from)) otherwise.
func (g *Graph) AddEdge(from, to string) (string, error) {
	if from == "" || to == "" {
		return "", ErrEmptyVertexID
	}
	if from == to && !g.allowLoops {
		return "", ErrLoopNotAllowed
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.addVertexLocked(from)
	g.addVertexLocked(to)
	if !g.allowMulti {
		for _, e := range g.incident[from] {
			if e.To == to || (!e.Directed && e.From == to) {
				return "", ErrMultiEdgeNotAllowed
			}
		}
	}

	g.nextEdgeID++
	e := &Edge{
		ID:       string(strconv.AppendUint([]byte{edgeIDPrefix}, g.nextEdgeID, 10)),
		From:     from,
		To:       to,
		Directed: g.directed,
	}
	g.edges[e.ID] = e
	g.edgeOrder = append(g.edgeOrder, e)
	g.incident[from] = append(g.incident[from], e)
	if !e.Directed && from != to {
		g.incident[to] = append(g.incident[to], e)
	}

	return e.ID, nil
}

// GetEdge returns the edge with the given ID.
// Errors: ErrEdgeNotFound.
func (g *Graph) GetEdge(id string) (*Edge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.edges[id]
	if !ok {
		return nil, ErrEdgeNotFound
	}

	return e, nil
}

// Edges returns all edges in insertion (ID) order.
func (g *Graph) Edges() []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return append([]*Edge(nil), g.edgeOrder...)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.edgeOrder)
}

// Neighbors returns the edges traversable from id in insertion order.
// Parallel edges are listed individually; a loop appears once.
// Errors: ErrVertexNotFound.
func (g *Graph) Neighbors(id string) ([]*Edge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.vertices[id]; !ok {
		return nil, ErrVertexNotFound
	}

	return append([]*Edge(nil), g.incident[id]...), nil
}

// NeighborIDs returns the distinct vertices reachable from id over one
// edge, in order of first appearance in Neighbors.
// Errors: ErrVertexNotFound.
func (g *Graph) NeighborIDs(id string) ([]string, error) {
	edges, err := g.Neighbors(id)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(edges))
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		nbr := e.Other(id)
		if _, dup := seen[nbr]; dup {
			continue
		}
		seen[nbr] = struct{}{}
		out = append(out, nbr)
	}

	return out, nil
}
