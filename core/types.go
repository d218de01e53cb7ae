// SPDX-License-Identifier: MIT

// Package core defines the Graph, Edge and option types behind network
// topology: string-identified vertices joined by edges with generated IDs,
// optionally directed, with parallel edges and self-loops on request.
//
// Vertices and edges keep insertion order, so every traversal built on a
// Graph is deterministic. Edge IDs are "e1", "e2", ... in insertion order.
// All methods are safe for concurrent use.
//
// Errors:
//
//	ErrEmptyVertexID       - vertex ID is the empty string.
//	ErrVertexNotFound      - requested vertex does not exist.
//	ErrEdgeNotFound        - requested edge does not exist.
//	ErrLoopNotAllowed      - self-loop when loops are disabled.
//	ErrMultiEdgeNotAllowed - parallel edge when multi-edges are disabled.
package core

import (
	"errors"
	"sync"
)

// Sentinel errors for core graph operations.
var (
	// ErrEmptyVertexID indicates that the provided vertex ID is empty.
	ErrEmptyVertexID = errors.New("core: vertex ID is empty")

	// ErrVertexNotFound indicates an operation referenced a non-existent vertex.
	ErrVertexNotFound = errors.New("core: vertex not found")

	// ErrEdgeNotFound indicates an operation referenced a non-existent edge.
	ErrEdgeNotFound = errors.New("core: edge not found")

	// ErrLoopNotAllowed indicates a self-loop was attempted when loops are disabled.
	ErrLoopNotAllowed = errors.New("core: self-loop not allowed")

	// ErrMultiEdgeNotAllowed indicates a parallel edge was attempted when multi-edges are disabled.
	ErrMultiEdgeNotAllowed = errors.New("core: multi-edges not allowed")
)

// Edge connects From to To. Directed edges are only traversed From→To;
// undirected edges keep From/To as their reference orientation.
// Edges are read-only once returned by a Graph.
type Edge struct {
	// ID uniquely identifies this edge in the Graph.
	ID string

	// From is the source vertex ID.
	From string

	// To is the destination vertex ID.
	To string

	// Directed indicates this edge is one-way.
	Directed bool
}

// Other returns the endpoint of e opposite to id (id itself for a loop).
func (e *Edge) Other(id string) string {
	if e.From == id {
		return e.To
	}

	return e.From
}

// GraphOption configures behavior of a Graph before creation.
type GraphOption func(g *Graph)

// WithDirected sets the directedness of all new edges.
func WithDirected(directed bool) GraphOption {
	return func(g *Graph) { g.directed = directed }
}

// WithMultiEdges permits parallel edges between the same vertices.
func WithMultiEdges() GraphOption {
	return func(g *Graph) { g.allowMulti = true }
}

// WithLoops permits self-loops (edges from a vertex to itself).
func WithLoops() GraphOption {
	return func(g *Graph) { g.allowLoops = true }
}

// Graph is an in-memory graph with ordered vertices and edges.
// mu guards every field below the flags.
type Graph struct {
	mu sync.RWMutex

	directed   bool
	allowMulti bool
	allowLoops bool

	nextEdgeID uint64
	order      []string            // vertex IDs in insertion order
	vertices   map[string]struct{} // vertex ID set
	edges      map[string]*Edge    // edge ID → Edge
	edgeOrder  []*Edge             // edges in insertion order

	// incident[v] lists the edges traversable from v in insertion order:
	// outgoing edges when directed, every incident edge otherwise.
	incident map[string][]*Edge
}

// NewGraph creates an empty Graph. By default, the graph is undirected
// and rejects loops and parallel edges.
// Complexity: O(1).
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		vertices: make(map[string]struct{}),
		edges:    make(map[string]*Edge),
		incident: make(map[string][]*Edge),
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}
