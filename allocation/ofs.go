// SPDX-License-Identifier: MIT

package allocation

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gridflow/frame"
	"github.com/katalvlaran/gridflow/internal/solver"
	"github.com/katalvlaran/gridflow/network"
)

// OptimalFlowShares searches, at sn, the color matrix X (buses × buses)
// that minimizes (or maximizes) Σ(H·X)², subject to
//
//	Σ_i X[i, j] = 0      every color balances
//	Σ_j X[i, j] = p[i]   every bus injects its own power
//
// and per-cell bounds that only let a bus exchange with buses of the
// opposite injection sign. The virtual injection pattern is feasible and
// used as the starting point. The problem has buses² variables; keep it
// for small networks.
func (e *Engine) OptimalFlowShares(ctx context.Context, sn time.Time, o OptimalFlowShares) (*Result, error) {
	h, err := e.linePTDF()
	if err != nil {
		return nil, err
	}
	p, _, err := e.lineState(sn)
	if err != nil {
		return nil, err
	}

	res := &Result{Levels: []string{LevelSnapshot, LevelBus, LevelBranch}}
	if o.PerBus {
		res.Levels = []string{LevelSnapshot, LevelSource, LevelSink}
	}
	for _, d := range directions(o.Direction) {
		x, err := e.colorShares(ctx, sn, h, p, d, o)
		if err != nil {
			return nil, err
		}
		if o.PerBus {
			peerEntries(res, sn, d, ownInjection(p, d), x)
			continue
		}
		hx, err := frame.Mul(h, x)
		if err != nil {
			return nil, fmt.Errorf("allocation: %w", err)
		}
		if err := busBranchEntries(res, sn, d, hx); err != nil {
			return nil, err
		}
	}
	if o.Direction == Both {
		res.Levels = append([]string{LevelSnapshot, LevelDirection}, res.Levels[1:]...)
	}
	sortEntries(res.Entries)

	return res, nil
}

// shareBounds returns the per-cell bounds of the color matrix, row-major.
func shareBounds(p []float64, d Direction) (lower, upper []float64) {
	n := len(p)
	lower = make([]float64, n*n)
	upper = make([]float64, n*n)
	for i, pi := range p {
		for j, pj := range p {
			if (d == Upstream && pj >= 0) || (d != Upstream && pj <= 0) {
				continue
			}
			v := math.Min(pi, 0)
			if d == Upstream {
				v = math.Max(pi, 0)
			}
			if i == j {
				v += pi
			}
			k := i*n + j
			if d == Upstream {
				lower[k], upper[k] = math.Min(v, 0), v
			} else {
				lower[k], upper[k] = v, math.Max(v, 0)
			}
		}
	}

	return lower, upper
}

func (e *Engine) colorShares(ctx context.Context, sn time.Time, h *frame.Frame, p *frame.Vector, d Direction, o OptimalFlowShares) (*frame.Frame, error) {
	buses := h.Cols()
	n := buses.Len()
	pv := p.Reindex(buses, 0)
	x0, err := colorMatrix(pv, d)
	if err != nil {
		return nil, err
	}
	if n == 0 || h.Rows().Len() == 0 {
		return x0, nil
	}

	hd := mat.NewDense(h.Rows().Len(), n, h.Dense().Raw())
	var gram mat.Dense
	gram.Mul(hd.T(), hd)
	sign := 1.0
	if o.Objective == Max {
		sign = -1
	}
	var gx mat.Dense
	apply := func(x []float64) *mat.Dense {
		gx.Mul(&gram, mat.NewDense(n, n, x))
		return &gx
	}

	lower, upper := shareBounds(pv.Values(), d)
	prob := solver.Problem{
		Dim: n * n,
		Objective: func(x []float64) float64 {
			g := apply(x).RawMatrix().Data
			var s float64
			for k, xk := range x {
				s += xk * g[k]
			}

			return sign * s
		},
		Gradient: func(grad, x []float64) {
			g := apply(x).RawMatrix().Data
			for k := range grad {
				grad[k] = 2 * sign * g[k]
			}
		},
		Lower: lower,
		Upper: upper,
	}
	for j := 0; j < n; j++ {
		col := solver.Linear{}
		row := solver.Linear{RHS: pv.AtPos(j)}
		for i := 0; i < n; i++ {
			col.Idx = append(col.Idx, i*n+j)
			col.Coef = append(col.Coef, 1)
			row.Idx = append(row.Idx, j*n+i)
			row.Coef = append(row.Coef, 1)
		}
		prob.Eq = append(prob.Eq, col, row)
	}

	start := x0.Dense().Raw()
	sol, err := solver.Minimize(ctx, prob, start, solver.Settings{MaxIter: o.MaxIter, Tol: o.Tol})
	if err != nil {
		return nil, fmt.Errorf("allocation: optimal flow shares: %w", err)
	}
	if !sol.Converged {
		e.opts.logger.Warn("optimal flow shares did not converge",
			"snapshot", network.SnapshotLabel(sn),
			"direction", d.String(),
			"violation", sol.Violation,
			"status", sol.LastStatus.String())
	}
	for k, v := range sol.X {
		sol.X[k] = frame.Round(v, sensitivityDecimals)
	}
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = sol.X[i*n : (i+1)*n]
	}
	x, err := frame.FromRows(buses, buses, rows)
	if err != nil {
		return nil, fmt.Errorf("allocation: %w", err)
	}

	return x, nil
}
