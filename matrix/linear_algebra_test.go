// SPDX-License-Identifier: MIT
// Package matrix_test contains unit tests for the dense kernels.

package matrix_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridflow/matrix"
)

func TestNewDense_Shapes(t *testing.T) {
	for _, tc := range []struct {
		name    string
		r, c    int
		wantErr bool
	}{
		{"3x2", 3, 2, false},
		{"empty-cols", 4, 0, false},
		{"empty-rows", 0, 4, false},
		{"negative", -1, 2, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, err := matrix.NewDense(tc.r, tc.c)
			if tc.wantErr {
				assert.ErrorIs(t, err, matrix.ErrInvalidDimensions)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.r, m.Rows())
			assert.Equal(t, tc.c, m.Cols())
			assert.Equal(t, tc.r == 0 || tc.c == 0, m.Empty())
		})
	}
}

func TestDense_AtSetBounds(t *testing.T) {
	m := MustDenseFrom(t, 2, 2, 1, 2, 3, 4)
	_, err := m.At(2, 0)
	assert.ErrorIs(t, err, matrix.ErrOutOfRange)
	assert.ErrorIs(t, m.Set(0, 5, 1), matrix.ErrOutOfRange)
	assert.ErrorIs(t, m.Set(0, 0, math.NaN()), matrix.ErrNaNInf)
	require.NoError(t, m.Set(1, 0, 9))
	assert.Equal(t, 9.0, MustAt(t, m, 1, 0))
}

func TestNewDenseFrom_LengthMismatch(t *testing.T) {
	_, err := matrix.NewDenseFrom(2, 2, []float64{1, 2, 3})
	assert.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

func TestAddSubHadamard(t *testing.T) {
	a := MustDenseFrom(t, 2, 2, 1, 2, 3, 4)
	b := MustDenseFrom(t, 2, 2, 4, 3, 2, 1)

	sum, err := matrix.Add(a, b)
	require.NoError(t, err)
	CompareClose(t, [][]float64{{5, 5}, {5, 5}}, sum, 0)

	diff, err := matrix.Sub(a, b)
	require.NoError(t, err)
	CompareClose(t, [][]float64{{-3, -1}, {1, 3}}, diff, 0)

	had, err := matrix.Hadamard(a, b)
	require.NoError(t, err)
	CompareClose(t, [][]float64{{4, 6}, {6, 4}}, had, 0)

	_, err = matrix.Add(a, MustDenseFrom(t, 1, 2, 1, 1))
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
	_, err = matrix.Sub(nil, b)
	assert.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestMulTranspose(t *testing.T) {
	// K of a 3-bus path: branch 0 = 0→1, branch 1 = 1→2.
	k := MustDenseFrom(t, 3, 2,
		1, 0,
		-1, 1,
		0, -1,
	)
	kt, err := matrix.Transpose(k)
	require.NoError(t, err)
	assert.Equal(t, 2, kt.Rows())

	l, err := matrix.Mul(k, kt)
	require.NoError(t, err)
	CompareClose(t, [][]float64{{1, -1, 0}, {-1, 2, -1}, {0, -1, 1}}, l, 0)

	_, err = matrix.Mul(k, k)
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	// Empty inner dimension yields a zero matrix of the outer shape.
	e1, _ := matrix.NewDense(3, 0)
	e2, _ := matrix.NewDense(0, 2)
	z, err := matrix.Mul(e1, e2)
	require.NoError(t, err)
	CompareClose(t, [][]float64{{0, 0}, {0, 0}, {0, 0}}, z, 0)
}

func TestMatVecScale(t *testing.T) {
	m := MustDenseFrom(t, 2, 3, 1, 0, -1, 2, 2, 2)
	y, err := matrix.MatVec(m, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{-2, 12}, y)

	_, err = matrix.MatVec(m, []float64{1})
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	s, err := matrix.Scale(m, -2)
	require.NoError(t, err)
	CompareClose(t, [][]float64{{-2, 0, 2}, {-4, -4, -4}}, s, 0)
}

func TestInverse(t *testing.T) {
	t.Run("needs-pivoting", func(t *testing.T) {
		// Zero leading pivot: Doolittle without row exchange would fail here.
		a := MustDenseFrom(t, 2, 2, 0, 1, 2, 3)
		inv, err := matrix.Inverse(a)
		require.NoError(t, err)
		CompareClose(t, [][]float64{{-1.5, 0.5}, {1, 0}}, inv, 1e-12)
	})
	t.Run("singular", func(t *testing.T) {
		_, err := matrix.Inverse(MustDenseFrom(t, 2, 2, 1, 2, 2, 4))
		assert.ErrorIs(t, err, matrix.ErrSingular)
	})
	t.Run("non-square", func(t *testing.T) {
		_, err := matrix.Inverse(MustDenseFrom(t, 1, 2, 1, 2))
		assert.ErrorIs(t, err, matrix.ErrNonSquare)
	})
	t.Run("round-trip", func(t *testing.T) {
		a := MustDenseFrom(t, 3, 3, 4, 1, 0, 1, 3, 1, 0, 1, 2)
		inv, err := matrix.Inverse(a)
		require.NoError(t, err)
		id, err := matrix.Mul(a, inv)
		require.NoError(t, err)
		CompareClose(t, [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, id, 1e-12)
	})
}

func TestSolve(t *testing.T) {
	a := MustDenseFrom(t, 2, 2, 2, 1, 1, 3)
	x, err := matrix.Solve(a, []float64{3, 5})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, x[0], 1e-12)
	assert.InDelta(t, 1.4, x[1], 1e-12)
}

func TestEigen_SortedDescending(t *testing.T) {
	a := MustDenseFrom(t, 2, 2, 2, 1, 1, 2)
	vals, vecs, err := matrix.Eigen(a)
	require.NoError(t, err)
	assert.InDelta(t, 3, vals[0], 1e-10)
	assert.InDelta(t, 1, vals[1], 1e-10)

	// A·v = λ·v for each column.
	for k := 0; k < 2; k++ {
		v := []float64{MustAt(t, vecs, 0, k), MustAt(t, vecs, 1, k)}
		av, err := matrix.MatVec(a, v)
		require.NoError(t, err)
		assert.InDelta(t, vals[k]*v[0], av[0], 1e-10)
		assert.InDelta(t, vals[k]*v[1], av[1], 1e-10)
	}

	_, _, err = matrix.Eigen(MustDenseFrom(t, 2, 2, 1, 2, 0, 1))
	assert.ErrorIs(t, err, matrix.ErrAsymmetry)
}

func TestOptions_PanicOnNonsense(t *testing.T) {
	assert.Panics(t, func() { matrix.WithEpsilon(-1) })
	assert.Panics(t, func() { matrix.WithRcond(math.Inf(1)) })
	assert.Panics(t, func() { matrix.WithMaxSweeps(0) })
	o := matrix.NewOptions(matrix.WithEpsilon(1e-6))
	assert.Equal(t, 1e-6, o.Epsilon())
	assert.Equal(t, matrix.DefaultRcond, o.Rcond())
}
