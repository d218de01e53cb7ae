// SPDX-License-Identifier: MIT

package frame

import (
	"github.com/katalvlaran/gridflow/matrix"
)

// alignTo returns f's payload permuted so its rows follow rows and its
// columns follow cols. Label sets must agree exactly.
func (f *Frame) alignTo(op string, rows, cols Index) (*matrix.Dense, error) {
	rp, err := rows.permutation(f.rows)
	if err != nil {
		return nil, frameErrorf(op, err)
	}
	cp, err := cols.permutation(f.cols)
	if err != nil {
		return nil, frameErrorf(op, err)
	}
	if rp == nil && cp == nil {
		return f.data, nil
	}
	if rp == nil {
		rp = identityPerm(rows.Len())
	}
	if cp == nil {
		cp = identityPerm(cols.Len())
	}
	d, err := f.data.Induced(rp, cp)
	if err != nil {
		return nil, frameErrorf(op, err)
	}

	return d, nil
}

func identityPerm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}

	return p
}

// Mul returns the labeled product a·b. a's columns and b's rows must hold
// the same label set; b is permuted to a's column order when needed.
// The result is labeled (a.rows × b.cols).
func Mul(a, b *Frame) (*Frame, error) {
	bd, err := b.alignTo("Mul", a.cols, b.cols)
	if err != nil {
		return nil, err
	}
	d, err := matrix.Mul(a.data, bd)
	if err != nil {
		return nil, frameErrorf("Mul", err)
	}

	return wrap(a.rows, b.cols, d), nil
}

// MulChain multiplies left to right: fs[0]·fs[1]·…·fs[n-1].
func MulChain(fs ...*Frame) (*Frame, error) {
	if len(fs) == 0 {
		return nil, frameErrorf("MulChain", matrix.ErrNilMatrix)
	}
	out := fs[0]
	for _, f := range fs[1:] {
		var err error
		if out, err = Mul(out, f); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Add returns a + b aligned on both axes; result uses a's label order.
func Add(a, b *Frame) (*Frame, error) {
	bd, err := b.alignTo("Add", a.rows, a.cols)
	if err != nil {
		return nil, err
	}
	d, err := matrix.Add(a.data, bd)
	if err != nil {
		return nil, frameErrorf("Add", err)
	}

	return wrap(a.rows, a.cols, d), nil
}

// Sub returns a - b aligned on both axes; result uses a's label order.
func Sub(a, b *Frame) (*Frame, error) {
	bd, err := b.alignTo("Sub", a.rows, a.cols)
	if err != nil {
		return nil, err
	}
	d, err := matrix.Sub(a.data, bd)
	if err != nil {
		return nil, frameErrorf("Sub", err)
	}

	return wrap(a.rows, a.cols, d), nil
}

// MatVec returns f·v, v aligned to f's columns, labeled by f's rows.
func (f *Frame) MatVec(v *Vector) (*Vector, error) {
	vd, err := f.alignedVector("MatVec", f.cols, v)
	if err != nil {
		return nil, err
	}
	y, err := matrix.MatVec(f.data, vd)
	if err != nil {
		return nil, frameErrorf("MatVec", err)
	}

	return &Vector{index: f.rows, data: y}, nil
}

func (f *Frame) alignedVector(op string, ix Index, v *Vector) ([]float64, error) {
	tmp := Vector{index: ix}

	return tmp.aligned(op, v)
}

// ScaleRows returns diag(v)·f: row r is multiplied by v[r].
func (f *Frame) ScaleRows(v *Vector) (*Frame, error) {
	vd, err := f.alignedVector("ScaleRows", f.rows, v)
	if err != nil {
		return nil, err
	}

	return wrap(f.rows, f.cols, f.data.Apply(func(i, _ int, x float64) float64 {
		return vd[i] * x
	})), nil
}

// ScaleCols returns f·diag(v): column c is multiplied by v[c].
func (f *Frame) ScaleCols(v *Vector) (*Frame, error) {
	vd, err := f.alignedVector("ScaleCols", f.cols, v)
	if err != nil {
		return nil, err
	}

	return wrap(f.rows, f.cols, f.data.Apply(func(_, j int, x float64) float64 {
		return vd[j] * x
	})), nil
}

// DivCols returns f·diag(1/v). Zero divisors produce NaN/Inf; chain Finite.
func (f *Frame) DivCols(v *Vector) (*Frame, error) {
	vd, err := f.alignedVector("DivCols", f.cols, v)
	if err != nil {
		return nil, err
	}

	return wrap(f.rows, f.cols, f.data.Apply(func(_, j int, x float64) float64 {
		return x / vd[j]
	})), nil
}

// AddRowVector returns f with v[r] added to every element of row r.
func (f *Frame) AddRowVector(v *Vector) (*Frame, error) {
	vd, err := f.alignedVector("AddRowVector", f.rows, v)
	if err != nil {
		return nil, err
	}

	return wrap(f.rows, f.cols, f.data.Apply(func(i, _ int, x float64) float64 {
		return x + vd[i]
	})), nil
}

// Diag builds the square diagonal frame of v, labeled (v × v).
func Diag(v *Vector) *Frame {
	out := New(v.index, v.index)
	n := v.Len()
	raw := out.data.Raw()
	for i, x := range v.data {
		raw[i*n+i] = x
	}

	return out
}

// Diagonal extracts the diagonal of a square frame as a vector labeled by
// its rows. Rectangular input fails with matrix.ErrNonSquare; a square
// frame whose row and column labels differ fails with ErrLabelMismatch.
func (f *Frame) Diagonal() (*Vector, error) {
	if f.rows.Len() != f.cols.Len() {
		return nil, frameErrorf("Diagonal", matrix.ErrNonSquare)
	}
	if !f.rows.Equal(f.cols) {
		return nil, frameErrorf("Diagonal", ErrLabelMismatch)
	}
	n := f.rows.Len()
	out := ZeroVector(f.rows)
	raw := f.data.Raw()
	for i := 0; i < n; i++ {
		out.data[i] = raw[i*n+i]
	}

	return out, nil
}

// Outer returns a·bᵀ labeled (a × b).
func Outer(a, b *Vector) *Frame {
	out := New(a.index, b.index)
	n := b.Len()
	raw := out.data.Raw()
	for i, x := range a.data {
		for j, y := range b.data {
			raw[i*n+j] = x * y
		}
	}

	return out
}

// Inverse returns f⁻¹ labeled (f.cols × f.rows).
// Errors: matrix.ErrNonSquare, matrix.ErrSingular.
func Inverse(f *Frame) (*Frame, error) {
	d, err := matrix.Inverse(f.data)
	if err != nil {
		return nil, frameErrorf("Inverse", err)
	}

	return wrap(f.cols, f.rows, d), nil
}

// Pinv returns the Moore–Penrose pseudo-inverse labeled (f.cols × f.rows).
func Pinv(f *Frame, opts ...matrix.Option) (*Frame, error) {
	d, err := matrix.Pinv(f.data, opts...)
	if err != nil {
		return nil, frameErrorf("Pinv", err)
	}

	return wrap(f.cols, f.rows, d), nil
}

// Null returns a kernel basis labeled (f.cols × "0".."k-1").
// An empty frame yields an empty basis.
func Null(f *Frame, opts ...matrix.Option) (*Frame, error) {
	d, err := matrix.NullSpace(f.data, opts...)
	if err != nil {
		return nil, frameErrorf("Null", err)
	}

	return wrap(f.cols, RangeIndex(d.Cols()), d), nil
}

// EigSym decomposes a symmetric frame. Eigenvalues are sorted in descending
// order and labeled "0".."n-1"; eigenvector k is column "k" of the returned
// frame, whose rows keep f's row labels.
func EigSym(f *Frame, opts ...matrix.Option) (*Vector, *Frame, error) {
	vals, vecs, err := matrix.Eigen(f.data, opts...)
	if err != nil {
		return nil, nil, frameErrorf("EigSym", err)
	}
	ix := RangeIndex(len(vals))

	return &Vector{index: ix, data: vals}, wrap(f.rows, ix, vecs), nil
}

// Identity returns the identity frame on ix.
func Identity(ix Index) *Frame {
	return Diag(ZeroVector(ix).Map(func(float64) float64 { return 1 }))
}
