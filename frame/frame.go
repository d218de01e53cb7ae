// SPDX-License-Identifier: MIT

package frame

import (
	"math"

	"github.com/katalvlaran/gridflow/matrix"
)

// Frame is a dense matrix with labeled rows and columns.
// Operations never mutate their receiver unless the name says so (Set).
type Frame struct {
	rows, cols Index
	data       *matrix.Dense
}

// New returns an all-zero frame on the given indices.
func New(rows, cols Index) *Frame {
	d, _ := matrix.NewDense(rows.Len(), cols.Len()) // lengths are never negative

	return &Frame{rows: rows, cols: cols, data: d}
}

// FromDense labels d. The dense matrix is copied.
// Errors: ErrShape when the indices disagree with d's shape.
func FromDense(rows, cols Index, d *matrix.Dense) (*Frame, error) {
	if d == nil {
		return nil, frameErrorf("FromDense", matrix.ErrNilMatrix)
	}
	if d.Rows() != rows.Len() || d.Cols() != cols.Len() {
		return nil, frameErrorf("FromDense", ErrShape)
	}

	return &Frame{rows: rows, cols: cols, data: d.Clone()}, nil
}

// FromRows builds a frame from row-major nested slices.
func FromRows(rows, cols Index, values [][]float64) (*Frame, error) {
	if len(values) != rows.Len() {
		return nil, frameErrorf("FromRows", ErrShape)
	}
	f := New(rows, cols)
	raw := f.data.Raw()
	for i, row := range values {
		if len(row) != cols.Len() {
			return nil, frameErrorf("FromRows", ErrShape)
		}
		copy(raw[i*cols.Len():], row)
	}

	return f, nil
}

// wrap labels d without copying; d must be freshly allocated by the caller.
func wrap(rows, cols Index, d *matrix.Dense) *Frame {
	return &Frame{rows: rows, cols: cols, data: d}
}

// Rows returns the row index.
func (f *Frame) Rows() Index { return f.rows }

// Cols returns the column index.
func (f *Frame) Cols() Index { return f.cols }

// Shape returns (rows, cols).
func (f *Frame) Shape() (int, int) { return f.rows.Len(), f.cols.Len() }

// Empty reports whether the frame holds no elements.
func (f *Frame) Empty() bool { return f.rows.Len() == 0 || f.cols.Len() == 0 }

// Dense returns a copy of the numeric payload.
func (f *Frame) Dense() *matrix.Dense { return f.data.Clone() }

// At returns the value at (row, col) labels.
// Errors: ErrUnknownLabel.
func (f *Frame) At(row, col string) (float64, error) {
	i, ok := f.rows.Pos(row)
	if !ok {
		return 0, labelErrorf("Frame.At", row, ErrUnknownLabel)
	}
	j, ok := f.cols.Pos(col)
	if !ok {
		return 0, labelErrorf("Frame.At", col, ErrUnknownLabel)
	}

	return f.data.Raw()[i*f.cols.Len()+j], nil
}

// Get returns the value at (row, col), or 0 for unknown labels.
func (f *Frame) Get(row, col string) float64 {
	v, _ := f.At(row, col)

	return v
}

// AtPos returns the value at positional (i, j). Callers guarantee bounds.
func (f *Frame) AtPos(i, j int) float64 { return f.data.Raw()[i*f.cols.Len()+j] }

// Set writes v at (row, col) in place.
// Errors: ErrUnknownLabel; matrix.ErrNaNInf under the numeric policy.
func (f *Frame) Set(row, col string, v float64) error {
	i, ok := f.rows.Pos(row)
	if !ok {
		return labelErrorf("Frame.Set", row, ErrUnknownLabel)
	}
	j, ok := f.cols.Pos(col)
	if !ok {
		return labelErrorf("Frame.Set", col, ErrUnknownLabel)
	}

	return f.data.Set(i, j, v)
}

// Row returns the row at label as a vector over the columns.
func (f *Frame) Row(label string) (*Vector, error) {
	i, ok := f.rows.Pos(label)
	if !ok {
		return nil, labelErrorf("Frame.Row", label, ErrUnknownLabel)
	}
	n := f.cols.Len()

	return VectorOn(f.cols, f.data.Raw()[i*n:(i+1)*n])
}

// Col returns the column at label as a vector over the rows.
func (f *Frame) Col(label string) (*Vector, error) {
	j, ok := f.cols.Pos(label)
	if !ok {
		return nil, labelErrorf("Frame.Col", label, ErrUnknownLabel)
	}
	out := ZeroVector(f.rows)
	n := f.cols.Len()
	raw := f.data.Raw()
	for i := range out.data {
		out.data[i] = raw[i*n+j]
	}

	return out, nil
}

// T returns the transpose with swapped indices.
func (f *Frame) T() *Frame {
	t, _ := matrix.Transpose(f.data) // non-nil by construction

	return wrap(f.cols, f.rows, t)
}

// Map returns a new frame with fn applied to every element.
func (f *Frame) Map(fn func(float64) float64) *Frame {
	return wrap(f.rows, f.cols, f.data.Apply(func(_, _ int, v float64) float64 { return fn(v) }))
}

// ClipLower returns max(f, lo).
func (f *Frame) ClipLower(lo float64) *Frame {
	return f.Map(func(v float64) float64 { return math.Max(v, lo) })
}

// ClipUpper returns min(f, hi).
func (f *Frame) ClipUpper(hi float64) *Frame {
	return f.Map(func(v float64) float64 { return math.Min(v, hi) })
}

// Abs returns |f|.
func (f *Frame) Abs() *Frame { return f.Map(math.Abs) }

// Sign returns sign(f) element-wise.
func (f *Frame) Sign() *Frame { return f.Map(Sign) }

// Round rounds every element to the given number of decimals.
func (f *Frame) Round(decimals int) *Frame {
	return f.Map(func(v float64) float64 { return Round(v, decimals) })
}

// Finite replaces NaN and ±Inf with zero.
func (f *Frame) Finite() *Frame { return f.Map(Finite) }

// Scale returns alpha·f.
func (f *Frame) Scale(alpha float64) *Frame {
	return f.Map(func(v float64) float64 { return alpha * v })
}

// RowSums returns the sum of each row, labeled by row.
func (f *Frame) RowSums() *Vector {
	out := ZeroVector(f.rows)
	n := f.cols.Len()
	raw := f.data.Raw()
	for i := range out.data {
		var s float64
		for _, v := range raw[i*n : (i+1)*n] {
			s += v
		}
		out.data[i] = s
	}

	return out
}

// ColSums returns the sum of each column, labeled by column.
func (f *Frame) ColSums() *Vector {
	out := ZeroVector(f.cols)
	n := f.cols.Len()
	raw := f.data.Raw()
	for i := 0; i < f.rows.Len(); i++ {
		for j, v := range raw[i*n : (i+1)*n] {
			out.data[j] += v
		}
	}

	return out
}

// Reindex conforms f to new indices: cells whose row or column label is
// absent from f take fill; labels absent from the new indices are dropped.
func (f *Frame) Reindex(rows, cols Index, fill float64) *Frame {
	out := New(rows, cols)
	raw, src := out.data.Raw(), f.data.Raw()
	n, m := cols.Len(), f.cols.Len()
	colMap := make([]int, n)
	for j, l := range cols.labels {
		if k, ok := f.cols.Pos(l); ok {
			colMap[j] = k
		} else {
			colMap[j] = -1
		}
	}
	for i, rl := range rows.labels {
		si, ok := f.rows.Pos(rl)
		for j, sj := range colMap {
			if !ok || sj < 0 {
				raw[i*n+j] = fill
				continue
			}
			raw[i*n+j] = src[si*m+sj]
		}
	}

	return out
}

// Select returns the submatrix at the given labels, in the order given.
// Nil rows or cols select the whole axis.
func (f *Frame) Select(rows, cols []string) (*Frame, error) {
	rIx, rPos, err := f.axisSelect(f.rows, rows)
	if err != nil {
		return nil, frameErrorf("Frame.Select", err)
	}
	cIx, cPos, err := f.axisSelect(f.cols, cols)
	if err != nil {
		return nil, frameErrorf("Frame.Select", err)
	}
	d, err := f.data.Induced(rPos, cPos)
	if err != nil {
		return nil, frameErrorf("Frame.Select", err)
	}

	return wrap(rIx, cIx, d), nil
}

func (f *Frame) axisSelect(ix Index, labels []string) (Index, []int, error) {
	if labels == nil {
		pos := make([]int, ix.Len())
		for i := range pos {
			pos[i] = i
		}

		return ix, pos, nil
	}
	pos, err := ix.positions(labels)
	if err != nil {
		return Index{}, nil, err
	}
	sel, err := NewIndex(labels...)
	if err != nil {
		return Index{}, nil, err
	}

	return sel, pos, nil
}

// FilterRows keeps rows for which keep returns true.
func (f *Frame) FilterRows(keep func(label string, row []float64) bool) *Frame {
	n := f.cols.Len()
	raw := f.data.Raw()
	var labels []string
	for i, l := range f.rows.labels {
		if keep(l, raw[i*n:(i+1)*n]) {
			labels = append(labels, l)
		}
	}
	if len(labels) == 0 {
		return New(Index{}, f.cols)
	}
	out, _ := f.Select(labels, nil) // labels come from f itself

	return out
}

// FilterCols keeps columns for which keep returns true.
func (f *Frame) FilterCols(keep func(label string, col *Vector) bool) *Frame {
	var labels []string
	for _, l := range f.cols.labels {
		c, _ := f.Col(l)
		if keep(l, c) {
			labels = append(labels, l)
		}
	}
	if len(labels) == 0 {
		return New(f.rows, Index{})
	}
	out, _ := f.Select(nil, labels)

	return out
}

// Each visits every cell in row-major order.
func (f *Frame) Each(fn func(row, col string, v float64)) {
	n := f.cols.Len()
	raw := f.data.Raw()
	for i, rl := range f.rows.labels {
		for j, cl := range f.cols.labels {
			fn(rl, cl, raw[i*n+j])
		}
	}
}
