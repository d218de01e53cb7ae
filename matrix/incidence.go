// SPDX-License-Identifier: MIT
// Package matrix - dense incidence builder over core edges.
//
// Sign convention: column j of the incidence carries +1 at the row of
// edge j's From vertex and -1 at its To vertex, so K·f gives the net
// outflow of every vertex for edge flows f measured From→To. A self-loop
// nets to an all-zero column. Undirected edges use their From/To
// reference orientation; parallel edges keep one column each.
//
// Complexity:
//   - BuildDenseIncidence: O(|V| + |E|) to index, O(|V|·|E|) to zero-fill.

package matrix

import (
	"fmt"

	"github.com/katalvlaran/gridflow/core"
)

const (
	fromMark = 1.0  // leaving end
	toMark   = -1.0 // entering end
)

// BuildDenseIncidence returns the |V|×|E| incidence of edges over vertices
// and the vertex → row mapping. Rows follow vertices, columns follow edges.
//
// Errors:
//   - ErrNilMatrix when an edge is nil.
//   - ErrUnknownVertex when an endpoint is not in vertices.
func BuildDenseIncidence(vertices []string, edges []*core.Edge) (map[string]int, *Dense, error) {
	idx := make(map[string]int, len(vertices))
	for i, v := range vertices {
		idx[v] = i
	}
	m := zeros(len(vertices), len(edges))
	n := len(edges)
	for j, e := range edges {
		if e == nil {
			return nil, nil, fmt.Errorf("BuildDenseIncidence: edge %d: %w", j, ErrNilMatrix)
		}
		from, ok := idx[e.From]
		if !ok {
			return nil, nil, fmt.Errorf("BuildDenseIncidence: edge %s from %q: %w", e.ID, e.From, ErrUnknownVertex)
		}
		to, ok := idx[e.To]
		if !ok {
			return nil, nil, fmt.Errorf("BuildDenseIncidence: edge %s to %q: %w", e.ID, e.To, ErrUnknownVertex)
		}
		m.data[from*n+j] += fromMark
		m.data[to*n+j] += toMark
	}

	return idx, m, nil
}
