// SPDX-License-Identifier: MIT

// Package matrix: dense linear algebra kernels.
//
// All kernels:
//   - validate inputs with validators.go and wrap failures with their op tag,
//   - allocate a fresh result and never mutate operands,
//   - iterate in fixed i→k→j / i→j orders for reproducible floating-point sums.
package matrix

import (
	"fmt"
	"math"
	"sort"
)

const (
	opAdd       = "Add"
	opSub       = "Sub"
	opMul       = "Mul"
	opTranspose = "Transpose"
	opScale     = "Scale"
	opHadamard  = "Hadamard"
	opMatVec    = "MatVec"
	opEigen     = "Eigen"
	opInverse   = "Inverse"
	opSolve     = "Solve"
)

// matrixErrorf wraps an error with an operation tag, preserving the sentinel.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

func binarySameShape(a, b *Dense, tag string) error {
	if err := ValidateNotNil(a); err != nil {
		return matrixErrorf(tag, err)
	}
	if err := ValidateNotNil(b); err != nil {
		return matrixErrorf(tag, err)
	}
	if err := ValidateSameShape(a, b); err != nil {
		return matrixErrorf(tag, err)
	}

	return nil
}

func addSub(a, b *Dense, sign float64, tag string) (*Dense, error) {
	if err := binarySameShape(a, b, tag); err != nil {
		return nil, err
	}
	out := zeros(a.r, a.c)
	for k := range out.data {
		out.data[k] = a.data[k] + sign*b.data[k]
	}

	return out, nil
}

// Add returns a + b.
// Errors: ErrNilMatrix, ErrDimensionMismatch.
func Add(a, b *Dense) (*Dense, error) { return addSub(a, b, +1, opAdd) }

// Sub returns a - b.
// Errors: ErrNilMatrix, ErrDimensionMismatch.
func Sub(a, b *Dense) (*Dense, error) { return addSub(a, b, -1, opSub) }

// Hadamard returns the element-wise product a ∘ b.
func Hadamard(a, b *Dense) (*Dense, error) {
	if err := binarySameShape(a, b, opHadamard); err != nil {
		return nil, err
	}
	out := zeros(a.r, a.c)
	for k := range out.data {
		out.data[k] = a.data[k] * b.data[k]
	}

	return out, nil
}

// Mul returns the matrix product a·b.
//
// Implementation:
//   - i→k→j loop order: a[i,k] is loaded once per row and broadcast over
//     the contiguous row k of b; zero a[i,k] entries are skipped, which
//     pays off on incidence-shaped operands.
//
// Errors: ErrNilMatrix, ErrDimensionMismatch (a.Cols != b.Rows).
//
// Complexity: Time O(r*n*c), Space O(r*c).
func Mul(a, b *Dense) (*Dense, error) {
	if err := ValidateNotNil(a); err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	if err := ValidateNotNil(b); err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	if a.c != b.r {
		return nil, matrixErrorf(opMul, ErrDimensionMismatch)
	}
	r, n, c := a.r, a.c, b.c
	out := zeros(r, c)
	for i := 0; i < r; i++ {
		rowOut := out.data[i*c : (i+1)*c]
		for k := 0; k < n; k++ {
			aik := a.data[i*n+k]
			if aik == 0 {
				continue
			}
			rowB := b.data[k*c : (k+1)*c]
			for j := 0; j < c; j++ {
				rowOut[j] += aik * rowB[j]
			}
		}
	}

	return out, nil
}

// Transpose returns mᵀ.
func Transpose(m *Dense) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opTranspose, err)
	}
	out := zeros(m.c, m.r)
	for i := 0; i < m.r; i++ {
		for j := 0; j < m.c; j++ {
			out.data[j*m.r+i] = m.data[i*m.c+j]
		}
	}

	return out, nil
}

// Scale returns alpha·m.
func Scale(m *Dense, alpha float64) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opScale, err)
	}
	out := zeros(m.r, m.c)
	for k, v := range m.data {
		out.data[k] = alpha * v
	}

	return out, nil
}

// MatVec returns y = m·x.
// Errors: ErrNilMatrix, ErrDimensionMismatch (len(x) != Cols).
func MatVec(m *Dense, x []float64) ([]float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	if err := ValidateVecLen(x, m.c); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	y := make([]float64, m.r)
	for i := 0; i < m.r; i++ {
		var sum float64
		row := m.data[i*m.c : (i+1)*m.c]
		for j, v := range row {
			sum += v * x[j]
		}
		y[i] = sum
	}

	return y, nil
}

// luFactor performs in-place Doolittle elimination with partial pivoting on
// a copy of m. It returns the packed LU factors and the row permutation.
// A pivot column whose largest magnitude is exactly zero yields ErrSingular.
func luFactor(m *Dense) (*Dense, []int, error) {
	n := m.r
	lu := m.Clone()
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	d := lu.data
	for k := 0; k < n; k++ {
		// Partial pivoting: largest |a[i,k]| for i >= k, first index on ties.
		p, best := k, math.Abs(d[k*n+k])
		for i := k + 1; i < n; i++ {
			if v := math.Abs(d[i*n+k]); v > best {
				p, best = i, v
			}
		}
		if best == 0 {
			return nil, nil, ErrSingular
		}
		if p != k {
			for j := 0; j < n; j++ {
				d[k*n+j], d[p*n+j] = d[p*n+j], d[k*n+j]
			}
			perm[k], perm[p] = perm[p], perm[k]
		}
		pivot := d[k*n+k]
		for i := k + 1; i < n; i++ {
			f := d[i*n+k] / pivot
			d[i*n+k] = f
			if f == 0 {
				continue
			}
			for j := k + 1; j < n; j++ {
				d[i*n+j] -= f * d[k*n+j]
			}
		}
	}

	return lu, perm, nil
}

// luSolve solves (PA)x = Pb for one right-hand side using packed factors.
func luSolve(lu *Dense, perm []int, b, x []float64) {
	n := lu.r
	d := lu.data
	for i := 0; i < n; i++ {
		sum := b[perm[i]]
		for k := 0; k < i; k++ {
			sum -= d[i*n+k] * x[k]
		}
		x[i] = sum
	}
	for i := n - 1; i >= 0; i-- {
		sum := x[i]
		for k := i + 1; k < n; k++ {
			sum -= d[i*n+k] * x[k]
		}
		x[i] = sum / d[i*n+i]
	}
}

// Inverse computes m⁻¹ via LU factorization with partial pivoting.
//
// Implementation:
//   - Stage 1: ValidateNotNil, ValidateSquare; factor PA = LU.
//   - Stage 2: solve against each canonical basis column e_j and write the
//     solution into column j of the result.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrSingular (exactly zero pivot column).
//
// Complexity: Time O(n³), Space O(n²).
//
// Notes:
//   - Near-singular input is not an error; callers that need robustness
//     against rank deficiency should use Pinv.
func Inverse(m *Dense) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opInverse, err)
	}
	if err := ValidateSquare(m); err != nil {
		return nil, matrixErrorf(opInverse, err)
	}
	n := m.r
	lu, perm, err := luFactor(m)
	if err != nil {
		return nil, matrixErrorf(opInverse, err)
	}
	out := zeros(n, n)
	e := make([]float64, n)
	x := make([]float64, n)
	for col := 0; col < n; col++ {
		for i := range e {
			e[i] = 0
		}
		e[col] = 1
		luSolve(lu, perm, e, x)
		for i := 0; i < n; i++ {
			out.data[i*n+col] = x[i]
		}
	}

	return out, nil
}

// Solve returns x with m·x = b.
func Solve(m *Dense, b []float64) ([]float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opSolve, err)
	}
	if err := ValidateSquare(m); err != nil {
		return nil, matrixErrorf(opSolve, err)
	}
	if err := ValidateVecLen(b, m.r); err != nil {
		return nil, matrixErrorf(opSolve, err)
	}
	lu, perm, err := luFactor(m)
	if err != nil {
		return nil, matrixErrorf(opSolve, err)
	}
	x := make([]float64, m.r)
	luSolve(lu, perm, b, x)

	return x, nil
}

// Eigen computes the eigenpairs of a symmetric matrix with cyclic-pivot
// Jacobi rotations.
//
// Implementation:
//   - Stage 1: ValidateSymmetric(m, eps); copy m into A; Q = I.
//   - Stage 2: repeatedly pick the largest off-diagonal |A[p,q]|, rotate it to
//     zero and accumulate the rotation into Q.
//   - Stage 3: eigenvalues are diag(A), eigenvectors the columns of Q; both
//     are reordered by descending eigenvalue (stable on ties).
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrAsymmetry, ErrEigenFailed (no convergence).
//
// Complexity: O(n²) per rotation, O(sweeps·n⁴) worst case.
func Eigen(m *Dense, opts ...Option) ([]float64, *Dense, error) {
	o := NewOptions(opts...)
	if err := ValidateSymmetric(m, o.eps); err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}
	n := m.r
	a := m.Clone()
	q := zeros(n, n)
	for i := 0; i < n; i++ {
		q.data[i*n+i] = 1
	}
	ad, qd := a.data, q.data
	maxIter := o.maxSweeps * n * n

	converged := n < 2
	for iter := 0; iter < maxIter && !converged; iter++ {
		var p, r int
		maxOff := 0.0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if off := math.Abs(ad[i*n+j]); off > maxOff {
					maxOff, p, r = off, i, j
				}
			}
		}
		if maxOff <= o.eps {
			converged = true
			break
		}
		app, arr, apr := ad[p*n+p], ad[r*n+r], ad[p*n+r]
		theta := (arr - app) / (2 * apr)
		t := math.Copysign(1/(math.Abs(theta)+math.Hypot(theta, 1)), theta)
		c := 1 / math.Sqrt(t*t+1)
		s := t * c
		for i := 0; i < n; i++ {
			if i == p || i == r {
				continue
			}
			aip, air := ad[i*n+p], ad[i*n+r]
			nip, nir := c*aip-s*air, s*aip+c*air
			ad[i*n+p], ad[p*n+i] = nip, nip
			ad[i*n+r], ad[r*n+i] = nir, nir
		}
		ad[p*n+p] = c*c*app - 2*c*s*apr + s*s*arr
		ad[r*n+r] = s*s*app + 2*c*s*apr + c*c*arr
		ad[p*n+r], ad[r*n+p] = 0, 0
		for i := 0; i < n; i++ {
			qip, qir := qd[i*n+p], qd[i*n+r]
			qd[i*n+p] = c*qip - s*qir
			qd[i*n+r] = s*qip + c*qir
		}
	}
	if !converged {
		return nil, nil, matrixErrorf(opEigen, ErrEigenFailed)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool { return ad[order[x]*n+order[x]] > ad[order[y]*n+order[y]] })
	vals := make([]float64, n)
	vecs := zeros(n, n)
	for k, src := range order {
		vals[k] = ad[src*n+src]
		for i := 0; i < n; i++ {
			vecs.data[i*n+k] = qd[i*n+src]
		}
	}

	return vals, vecs, nil
}
