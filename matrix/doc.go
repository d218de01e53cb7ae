// SPDX-License-Identifier: MIT

// Package matrix provides the dense numeric kernels under gridflow's labeled
// algebra: row-major storage, element access with explicit errors, the
// classic kernels (Add, Sub, Mul, Transpose, Scale, Hadamard, MatVec),
// LU-based inversion with partial pivoting, a Jacobi symmetric eigensolver
// and SVD-backed pseudo-inverse and null space.
//
// Matrices here are small (one row or column per bus or branch), so every
// routine is dense and single-threaded. Loop orders are fixed, which keeps
// results bit-identical between runs.
//
// Errors are package sentinels (see errors.go) wrapped with an operation tag:
//
//	inv, err := matrix.Inverse(a)
//	if errors.Is(err, matrix.ErrSingular) {
//		inv, err = matrix.Pinv(a)
//	}
package matrix
