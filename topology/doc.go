// SPDX-License-Identifier: MIT

// Package topology adapts a network.Network into the graph view used by the
// allocation methods: buses are vertices, branches (lines and links) are
// directed multi-edges bus0→bus1 identified by a compound BranchKey.
//
// The Graph G = (V,E) exposes:
//
//   - Incidence(): the buses × branches matrix K with +1 at bus0 and -1 at
//     bus1, labeled so every downstream product keeps bus/branch identity.
//   - Endpoints(key): the (bus0, bus1) pair of a branch.
//   - Active(keep): the subgraph over the same buses with only the branches
//     keep accepts (e.g. links that carry flow in one snapshot).
//   - Cycles(): a fundamental cycle basis (cycles × branches) derived from a
//     deterministic breadth-first spanning forest.
//
// Components:
//
//	Line : passive branch, impedance from reactance (or resistance on DC).
//	Link : controllable branch, effective impedance synthesized per snapshot.
//
// Errors:
//
//	ErrTopology     - base sentinel for every TopologyError.
//	ErrUnknownKey   - lookup of a branch that is not in the graph.
//
// Storage is a core.Graph multigraph (one edge per branch, edge IDs mapped
// back to BranchKey); the spanning forest comes from bfs and the incidence
// from matrix.BuildDenseIncidence.
//
// A Graph is immutable after New and safe for concurrent readers.
package topology
