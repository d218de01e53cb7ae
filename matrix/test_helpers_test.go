// SPDX-License-Identifier: MIT
// Package matrix_test: shared helpers for matrix tests.

package matrix_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridflow/matrix"
)

// MustDenseFrom builds an r×c Dense from row-major values or fails the test.
func MustDenseFrom(t *testing.T, r, c int, vals ...float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFrom(r, c, vals)
	require.NoError(t, err)

	return m
}

// MustAt reads (i,j) or fails the test.
func MustAt(t *testing.T, m *matrix.Dense, i, j int) float64 {
	t.Helper()
	v, err := m.At(i, j)
	require.NoError(t, err)

	return v
}

// CompareClose asserts element-wise |want-got| <= tol.
func CompareClose(t *testing.T, want [][]float64, got *matrix.Dense, tol float64) {
	t.Helper()
	require.Equal(t, len(want), got.Rows(), "rows")
	for i, row := range want {
		require.Equal(t, len(row), got.Cols(), "cols")
		for j, w := range row {
			require.InDeltaf(t, w, MustAt(t, got, i, j), tol, "element [%d,%d]", i, j)
		}
	}
}

// laplacian3 is the weighted Laplacian of a triangle with admittances 1, 2, 4.
func laplacian3(t *testing.T) *matrix.Dense {
	return MustDenseFrom(t, 3, 3,
		5, -1, -4,
		-1, 3, -2,
		-4, -2, 6,
	)
}
