// SPDX-License-Identifier: MIT

package matrix_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridflow/core"
	"github.com/katalvlaran/gridflow/matrix"
)

func TestBuildDenseIncidence(t *testing.T) {
	edges := []*core.Edge{
		{ID: "e1", From: "A", To: "B"},
		{ID: "e2", From: "B", To: "A"},
		{ID: "e3", From: "C", To: "C"},
	}
	idx, k, err := matrix.BuildDenseIncidence([]string{"A", "B", "C"}, edges)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 0, "B": 1, "C": 2}, idx)
	CompareClose(t, [][]float64{
		{1, -1, 0},
		{-1, 1, 0},
		{0, 0, 0},
	}, k, 0)
}

func TestBuildDenseIncidence_Errors(t *testing.T) {
	_, _, err := matrix.BuildDenseIncidence([]string{"A"}, []*core.Edge{{ID: "e1", From: "A", To: "Z"}})
	assert.ErrorIs(t, err, matrix.ErrUnknownVertex)

	_, _, err = matrix.BuildDenseIncidence([]string{"A"}, []*core.Edge{nil})
	assert.ErrorIs(t, err, matrix.ErrNilMatrix)

	_, k, err := matrix.BuildDenseIncidence([]string{"A", "B"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, k.Rows())
	assert.Equal(t, 0, k.Cols())
}
