// SPDX-License-Identifier: MIT

// Package gridflow allocates the branch flows of a solved power network to
// the buses that cause them.
//
// Given topology, per-snapshot dispatch and branch flows, gridflow answers
// "who uses which line, and how much": peer-to-peer (source, sink) volumes,
// or per-branch shares of every bus.
//
//	A ──ab── B
//	 \      /
//	  ac  bc
//	    \ /
//	     C
//
// Packages, bottom-up:
//
//	matrix/      - dense kernels: products, LU inverse, Jacobi eigen, SVD pinv/null space, incidence
//	core/        - multigraph with stable edge IDs
//	bfs/         - breadth-first search recording parent edges
//	frame/       - labeled matrices and vectors on top of matrix
//	network/     - buses, branches, one-bus components, time series; case files
//	topology/    - incidence matrix, endpoints, active subgraph, cycle basis
//	admittance/  - impedance (link omega), admittance, PTDF, Ybus, Zbus
//	injection/   - cached net injection, production, demand, self-consumption
//	allocation/  - average/marginal participation, virtual injection pattern,
//	               optimal flow shares, Z-bus, transit, orchestration
//	cmd/gridflow - command line front end
//
// Quick start:
//
//	n, _ := network.Load("case.yaml")
//	res, err := allocation.FlowAllocation(ctx, n, nil,
//		allocation.AverageParticipation{PerBus: true},
//		allocation.WithParallel(0))
//
//	go install github.com/katalvlaran/gridflow/cmd/gridflow@latest
package gridflow
