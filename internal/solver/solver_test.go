// SPDX-License-Identifier: MIT

package solver_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridflow/internal/solver"
)

// quadratic returns Σ (x_i - c_i)² with its gradient.
func quadratic(c ...float64) (func([]float64) float64, func(g, x []float64)) {
	f := func(x []float64) float64 {
		var s float64
		for i, xi := range x {
			s += (xi - c[i]) * (xi - c[i])
		}

		return s
	}
	g := func(grad, x []float64) {
		for i, xi := range x {
			grad[i] = 2 * (xi - c[i])
		}
	}

	return f, g
}

func TestMinimize_EqualityAndBound(t *testing.T) {
	f, g := quadratic(3, 1)
	p := solver.Problem{
		Dim: 2, Objective: f, Gradient: g,
		Lower: []float64{0, math.Inf(-1)},
		Upper: []float64{1.5, math.Inf(1)},
		Eq:    []solver.Linear{{Idx: []int{0, 1}, Coef: []float64{1, 1}, RHS: 2}},
	}
	res, err := solver.Minimize(context.Background(), p, []float64{0, 0}, solver.Settings{})
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.InDelta(t, 1.5, res.X[0], 1e-3)
	assert.InDelta(t, 0.5, res.X[1], 1e-3)
	assert.Less(t, solver.Violation(p, res.X), 1e-3)
}

func TestMinimize_FixedVariablesFoldIntoConstraints(t *testing.T) {
	f, g := quadratic(0, 0, 0)
	p := solver.Problem{
		Dim: 3, Objective: f, Gradient: g,
		Lower: []float64{4, math.Inf(-1), math.Inf(-1)},
		Upper: []float64{4, math.Inf(1), math.Inf(1)},
		Eq:    []solver.Linear{{Idx: []int{0, 1, 2}, Coef: []float64{1, 1, 1}, RHS: 10}},
	}
	res, err := solver.Minimize(context.Background(), p, []float64{0, 0, 0}, solver.Settings{})
	require.NoError(t, err)
	assert.Equal(t, 4.0, res.X[0])
	assert.InDelta(t, 3, res.X[1], 1e-3)
	assert.InDelta(t, 3, res.X[2], 1e-3)
}

func TestMinimize_AllFixed(t *testing.T) {
	f, g := quadratic(0)
	p := solver.Problem{Dim: 1, Objective: f, Gradient: g, Lower: []float64{2}, Upper: []float64{2}}
	res, err := solver.Minimize(context.Background(), p, []float64{0}, solver.Settings{})
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, res.X)
	assert.Equal(t, 4.0, res.F)
}

func TestMinimize_Errors(t *testing.T) {
	f, g := quadratic(0, 0)

	_, err := solver.Minimize(context.Background(), solver.Problem{Dim: 2, Objective: f, Gradient: g}, []float64{0}, solver.Settings{})
	assert.ErrorIs(t, err, solver.ErrDimension)

	bad := solver.Problem{Dim: 2, Objective: f, Gradient: g, Lower: []float64{1, 0}, Upper: []float64{0, 1}}
	_, err = solver.Minimize(context.Background(), bad, []float64{0, 0}, solver.Settings{})
	assert.ErrorIs(t, err, solver.ErrInfeasibleBounds)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = solver.Minimize(ctx, solver.Problem{Dim: 2, Objective: f, Gradient: g}, []float64{1, 1}, solver.Settings{})
	assert.ErrorIs(t, err, context.Canceled)
}
