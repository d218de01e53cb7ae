// SPDX-License-Identifier: MIT

// Package matrix: SVD-backed factorizations (pseudo-inverse, null space).
//
// The decomposition itself is delegated to gonum's LAPACK-backed mat.SVD;
// this file only moves data between the flat row-major buffer and
// gonum's mat.Dense and applies the singular value cutoffs.
package matrix

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	opPinv = "Pinv"
	opNull = "NullSpace"
)

func toGonum(m *Dense) *mat.Dense {
	return mat.NewDense(m.r, m.c, append([]float64(nil), m.data...))
}

func fromGonum(g mat.Matrix) *Dense {
	r, c := g.Dims()
	out := zeros(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.data[i*c+j] = g.At(i, j)
		}
	}

	return out
}

// Pinv returns the Moore–Penrose pseudo-inverse of m (shape c×r).
//
// Implementation:
//   - Stage 1: thin SVD m = U·Σ·Vᵀ.
//   - Stage 2: invert singular values above rcond·σ_max, zero the rest.
//   - Stage 3: assemble V·Σ⁺·Uᵀ.
//
// Behavior highlights:
//   - Rank-deficient inputs (e.g. a weighted Laplacian K·diag(y)·Kᵀ) are the
//     normal case and are not an error.
//   - An empty input returns the empty transpose.
//
// Errors: ErrNilMatrix, ErrSVDFailed.
//
// Complexity: O(min(r,c)·r·c).
func Pinv(m *Dense, opts ...Option) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opPinv, err)
	}
	if m.Empty() {
		return zeros(m.c, m.r), nil
	}
	o := NewOptions(opts...)

	var svd mat.SVD
	if ok := svd.Factorize(toGonum(m), mat.SVDThin); !ok {
		return nil, matrixErrorf(opPinv, ErrSVDFailed)
	}
	sigma := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	cut := 0.0
	if len(sigma) > 0 {
		cut = o.rcond * sigma[0]
	}
	k := len(sigma)
	out := zeros(m.c, m.r)
	// pinv[i,j] = Σ_s v[i,s] * (1/σ_s) * u[j,s]
	for s := 0; s < k; s++ {
		if sigma[s] <= cut || sigma[s] == 0 {
			continue
		}
		inv := 1 / sigma[s]
		for i := 0; i < m.c; i++ {
			vis := v.At(i, s) * inv
			if vis == 0 {
				continue
			}
			row := out.data[i*m.r : (i+1)*m.r]
			for j := 0; j < m.r; j++ {
				row[j] += vis * u.At(j, s)
			}
		}
	}

	return out, nil
}

// NullSpace returns an orthonormal basis of ker(m) as the columns of a
// c×k matrix, k = c - rank(m).
//
// Rank is decided with the relative cutoff rcond·σ_max; the default rcond is
// max(r, c)·machine epsilon. The basis is columns rank..c-1 of V, in order.
//
// An empty input returns an empty c×0 basis.
func NullSpace(m *Dense, opts ...Option) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opNull, err)
	}
	if m.Empty() {
		return zeros(m.c, 0), nil
	}
	o := NewOptions(opts...)
	rcond := o.nullRcond
	if rcond == 0 {
		rcond = float64(max(m.r, m.c)) * epsilon64
	}

	var svd mat.SVD
	if ok := svd.Factorize(toGonum(m), mat.SVDFull); !ok {
		return nil, matrixErrorf(opNull, ErrSVDFailed)
	}
	sigma := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	tol := 0.0
	if len(sigma) > 0 {
		tol = rcond * sigma[0]
	}
	rank := 0
	for _, s := range sigma {
		if s > tol {
			rank++
		}
	}
	k := m.c - rank
	out := zeros(m.c, k)
	for col := 0; col < k; col++ {
		src := rank + col
		for i := 0; i < m.c; i++ {
			out.data[i*k+col] = v.At(i, src)
		}
	}

	return out, nil
}

// epsilon64 is the float64 machine epsilon (2^-52).
var epsilon64 = math.Nextafter(1, 2) - 1
