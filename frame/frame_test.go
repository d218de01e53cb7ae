// SPDX-License-Identifier: MIT
// Package frame_test verifies label alignment through the labeled algebra.

package frame_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridflow/frame"
	"github.com/katalvlaran/gridflow/matrix"
)

func mustFrame(t *testing.T, rows, cols []string, values ...[]float64) *frame.Frame {
	t.Helper()
	f, err := frame.FromRows(frame.MustIndex(rows...), frame.MustIndex(cols...), values)
	require.NoError(t, err)

	return f
}

func mustVector(t *testing.T, labels []string, values ...float64) *frame.Vector {
	t.Helper()
	v, err := frame.NewVector(labels, values)
	require.NoError(t, err)

	return v
}

func TestNewIndex_RejectsDuplicates(t *testing.T) {
	_, err := frame.NewIndex("a", "b", "a")
	assert.ErrorIs(t, err, frame.ErrDuplicateLabel)
	assert.Panics(t, func() { frame.MustIndex("x", "x") })
	assert.Equal(t, []string{"0", "1", "2"}, frame.RangeIndex(3).Labels())
}

func TestMul_AlignsPermutedOperand(t *testing.T) {
	a := mustFrame(t, []string{"r"}, []string{"x", "y"}, []float64{1, 2})
	// b's rows are in the opposite order; values must follow labels, not positions.
	b := mustFrame(t, []string{"y", "x"}, []string{"c"}, []float64{10}, []float64{100})

	got, err := frame.Mul(a, b)
	require.NoError(t, err)
	v, err := got.At("r", "c")
	require.NoError(t, err)
	assert.Equal(t, 1*100.0+2*10.0, v)
}

func TestMul_LabelMismatch(t *testing.T) {
	a := mustFrame(t, []string{"r"}, []string{"x", "y"}, []float64{1, 2})
	b := mustFrame(t, []string{"x", "z"}, []string{"c"}, []float64{1}, []float64{1})
	_, err := frame.Mul(a, b)
	assert.ErrorIs(t, err, frame.ErrLabelMismatch)
}

func TestAddSub_Aligned(t *testing.T) {
	a := mustFrame(t, []string{"p", "q"}, []string{"x"}, []float64{1}, []float64{2})
	b := mustFrame(t, []string{"q", "p"}, []string{"x"}, []float64{20}, []float64{10})

	sum, err := frame.Add(a, b)
	require.NoError(t, err)
	assert.Equal(t, 11.0, sum.Get("p", "x"))
	assert.Equal(t, 22.0, sum.Get("q", "x"))

	diff, err := frame.Sub(a, b)
	require.NoError(t, err)
	assert.Equal(t, -9.0, diff.Get("p", "x"))
}

func TestDiagAndDiagonal(t *testing.T) {
	v := mustVector(t, []string{"a", "b"}, 3, 4)
	d := frame.Diag(v)
	assert.Equal(t, 3.0, d.Get("a", "a"))
	assert.Equal(t, 0.0, d.Get("a", "b"))

	back, err := d.Diagonal()
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, back.Values())

	rect := mustFrame(t, []string{"a"}, []string{"x", "y"}, []float64{1, 2})
	_, err = rect.Diagonal()
	assert.ErrorIs(t, err, matrix.ErrNonSquare)
}

func TestScaleRowsCols(t *testing.T) {
	f := mustFrame(t, []string{"a", "b"}, []string{"x", "y"}, []float64{1, 2}, []float64{3, 4})

	rs, err := f.ScaleRows(mustVector(t, []string{"b", "a"}, 10, 1))
	require.NoError(t, err)
	assert.Equal(t, 2.0, rs.Get("a", "y"))
	assert.Equal(t, 30.0, rs.Get("b", "x"))

	cs, err := f.ScaleCols(mustVector(t, []string{"x", "y"}, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 0.0, cs.Get("b", "x"))
	assert.Equal(t, 8.0, cs.Get("b", "y"))

	_, err = f.ScaleCols(mustVector(t, []string{"x"}, 1))
	assert.ErrorIs(t, err, frame.ErrLabelMismatch)
}

func TestPinvAndNull_Labels(t *testing.T) {
	// Incidence of a single branch l between buses a and b.
	k := mustFrame(t, []string{"a", "b"}, []string{"l"}, []float64{1}, []float64{-1})
	lap, err := frame.Mul(k, k.T())
	require.NoError(t, err)

	p, err := frame.Pinv(lap)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, p.Get("a", "a"), 1e-12)
	assert.InDelta(t, -0.25, p.Get("a", "b"), 1e-12)

	ns, err := frame.Null(k.T())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ns.Rows().Labels())
	assert.Equal(t, []string{"0"}, ns.Cols().Labels())
	assert.InDelta(t, ns.Get("a", "0"), ns.Get("b", "0"), 1e-12)

	empty := frame.New(frame.Index{}, frame.MustIndex("l"))
	ns, err = frame.Null(empty)
	require.NoError(t, err)
	assert.True(t, ns.Empty())
}

func TestInverse_LabelsSwap(t *testing.T) {
	f := mustFrame(t, []string{"r1", "r2"}, []string{"c1", "c2"}, []float64{2, 0}, []float64{0, 4})
	inv, err := frame.Inverse(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, inv.Rows().Labels())
	assert.Equal(t, 0.5, inv.Get("c1", "r1"))
	assert.Equal(t, 0.25, inv.Get("c2", "r2"))
}

func TestEigSym_Descending(t *testing.T) {
	f := mustFrame(t, []string{"a", "b"}, []string{"a", "b"}, []float64{1, 0}, []float64{0, 5})
	vals, vecs, err := frame.EigSym(f)
	require.NoError(t, err)
	assert.InDelta(t, 5, vals.Get("0"), 1e-12)
	assert.InDelta(t, 1, vals.Get("1"), 1e-12)
	assert.InDelta(t, 1, math.Abs(vecs.Get("b", "0")), 1e-12)
}

func TestReindexSelect(t *testing.T) {
	f := mustFrame(t, []string{"a", "b"}, []string{"x"}, []float64{1}, []float64{2})
	r := f.Reindex(frame.MustIndex("b", "c"), frame.MustIndex("x", "y"), 0)
	assert.Equal(t, 2.0, r.Get("b", "x"))
	assert.Equal(t, 0.0, r.Get("c", "x"))
	assert.Equal(t, 0.0, r.Get("b", "y"))

	s, err := f.Select([]string{"b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, s.Rows().Labels())

	_, err = f.Select([]string{"zz"}, nil)
	assert.ErrorIs(t, err, frame.ErrUnknownLabel)

	none := f.FilterRows(func(string, []float64) bool { return false })
	assert.Equal(t, 0, none.Rows().Len())
}

func TestElementwise(t *testing.T) {
	f := mustFrame(t, []string{"a"}, []string{"x", "y", "z"}, []float64{-1.123456789012, math.Inf(1), math.NaN()})
	fin := f.Finite()
	assert.Equal(t, 0.0, fin.Get("a", "y"))
	assert.Equal(t, 0.0, fin.Get("a", "z"))
	assert.Equal(t, -1.1235, fin.Round(4).Get("a", "x"))
	assert.Equal(t, 0.0, fin.ClipLower(0).Get("a", "x"))
	assert.Equal(t, -1.0, fin.Sign().Get("a", "x"))

	sums := mustFrame(t, []string{"a", "b"}, []string{"x", "y"}, []float64{1, 2}, []float64{3, 4})
	assert.Equal(t, []float64{3, 7}, sums.RowSums().Values())
	assert.Equal(t, []float64{4, 6}, sums.ColSums().Values())
}

func TestVector_Ops(t *testing.T) {
	v := mustVector(t, []string{"a", "b", "c"}, 1, -2, 0)
	w := mustVector(t, []string{"c", "b", "a"}, 1, 1, 1)

	sum, err := v.Add(w)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, -1, 1}, sum.Values())

	div, err := v.Div(mustVector(t, []string{"a", "b", "c"}, 0, 2, 0))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, -1, 0}, div.Finite().Values())

	assert.Equal(t, []float64{1, 0, 0}, v.ClipLower(0).Values())
	assert.Equal(t, -1.0, v.Sum())

	sel, err := v.Select("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, sel.Values())

	nz := v.Filter(func(_ string, x float64) bool { return x != 0 })
	assert.Equal(t, []string{"a", "b"}, nz.Index().Labels())

	out := frame.Outer(mustVector(t, []string{"p"}, 2), mustVector(t, []string{"q", "r"}, 3, 4))
	assert.Equal(t, 8.0, out.Get("p", "r"))
}
