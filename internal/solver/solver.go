// SPDX-License-Identifier: MIT

// Package solver minimizes a smooth objective subject to box bounds and
// linear equality constraints with a Powell–Hestenes–Rockafellar augmented
// Lagrangian. Each outer iteration solves an unconstrained subproblem with
// gonum's L-BFGS and then updates the multipliers.
//
// Variables whose lower and upper bound coincide are eliminated up front;
// the remaining finite bounds are handled as inequality constraints.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// Defaults.
const (
	DefaultMaxIter = 1000
	DefaultTol     = 1e-5

	defaultOuter   = 60
	initialPenalty = 10.0
	maxPenalty     = 1e10
	penaltyGrowth  = 10.0
)

// Sentinel errors.
var (
	// ErrDimension indicates slices whose length disagrees with Problem.Dim.
	ErrDimension = errors.New("solver: dimension mismatch")

	// ErrInfeasibleBounds indicates lower > upper for some variable.
	ErrInfeasibleBounds = errors.New("solver: lower bound exceeds upper bound")
)

// Linear is the sparse constraint Σ Coef[k]·x[Idx[k]] = RHS.
type Linear struct {
	Idx  []int
	Coef []float64
	RHS  float64
}

func (l Linear) eval(x []float64) float64 {
	s := -l.RHS
	for k, i := range l.Idx {
		s += l.Coef[k] * x[i]
	}

	return s
}

// Problem describes min f(x) s.t. Lower ≤ x ≤ Upper, Eq[j](x) = 0.
// Nil Lower/Upper mean unbounded; ±Inf entries are ignored.
type Problem struct {
	Dim       int
	Objective func(x []float64) float64
	Gradient  func(grad, x []float64)
	Lower     []float64
	Upper     []float64
	Eq        []Linear
}

// Settings tunes the solve. Zero values take the defaults.
type Settings struct {
	// MaxIter bounds L-BFGS iterations per subproblem.
	MaxIter int
	// Tol is the accepted constraint violation, relative to the largest
	// right-hand side magnitude (at least 1).
	Tol float64
	// Outer bounds multiplier updates.
	Outer int
}

// Result of a solve. X is always filled with the best iterate, also when
// Converged is false.
type Result struct {
	X          []float64
	F          float64
	Violation  float64
	Outer      int
	Converged  bool
	LastStatus optimize.Status
}

// bound is one finite inequality x[i] ≥ v (lower) or x[i] ≤ v (upper),
// expressed on the reduced variable vector.
type bound struct {
	i     int
	v     float64
	lower bool
}

func (b bound) eval(z []float64) float64 {
	if b.lower {
		return b.v - z[b.i]
	}

	return z[b.i] - b.v
}

// reduced maps between the full vector and the free variables.
type reduced struct {
	full []float64 // fixed values in place, free slots overwritten
	free []int
}

func (r *reduced) expand(z []float64) []float64 {
	x := append([]float64(nil), r.full...)
	for k, i := range r.free {
		x[i] = z[k]
	}

	return x
}

// Minimize solves p from x0. Errors only for malformed problems or context
// cancellation; non-convergence is reported through Result.Converged.
func Minimize(ctx context.Context, p Problem, x0 []float64, s Settings) (*Result, error) {
	if len(x0) != p.Dim || (p.Lower != nil && len(p.Lower) != p.Dim) || (p.Upper != nil && len(p.Upper) != p.Dim) {
		return nil, ErrDimension
	}
	if s.MaxIter <= 0 {
		s.MaxIter = DefaultMaxIter
	}
	if s.Tol <= 0 {
		s.Tol = DefaultTol
	}
	if s.Outer <= 0 {
		s.Outer = defaultOuter
	}

	red, bounds, z, err := reduce(p, x0)
	if err != nil {
		return nil, err
	}
	eq := reindexEq(p.Eq, red)

	scale := 1.0
	for _, c := range p.Eq {
		scale = math.Max(scale, math.Abs(c.RHS))
	}
	tol := s.Tol * scale

	lambda := make([]float64, len(eq))
	mu := make([]float64, len(bounds))
	rho := initialPenalty
	res := &Result{}
	prevViol := math.Inf(1)

	gradFull := make([]float64, p.Dim)
	for outer := 1; outer <= s.Outer; outer++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prevZ := append([]float64(nil), z...)
		lag := augmented{p: p, red: red, eq: eq, bounds: bounds, lambda: lambda, mu: mu, rho: rho, gradFull: gradFull}
		prob := optimize.Problem{Func: lag.value, Grad: lag.grad}
		settings := &optimize.Settings{
			MajorIterations:   s.MaxIter,
			GradientThreshold: s.Tol * 1e-3,
		}
		if len(z) > 0 {
			r, mErr := optimize.Minimize(prob, z, settings, &optimize.LBFGS{})
			switch {
			case r != nil:
				z = r.X
				res.LastStatus = r.Status
			case mErr != nil:
				return nil, fmt.Errorf("solver: subproblem: %w", mErr)
			}
		}

		viol := 0.0
		for j, c := range eq {
			h := c.eval(z)
			lambda[j] += rho * h
			viol = math.Max(viol, math.Abs(h))
		}
		for j, b := range bounds {
			g := b.eval(z)
			mu[j] = math.Max(0, mu[j]+rho*g)
			viol = math.Max(viol, g)
		}
		res.Outer = outer
		res.Violation = viol
		if viol <= tol {
			res.Converged = true
			break
		}
		if rho == maxPenalty && floats.Distance(prevZ, z, 2) < 1e-12 {
			break
		}
		if viol > 0.25*prevViol {
			rho = math.Min(rho*penaltyGrowth, maxPenalty)
		}
		prevViol = viol
	}

	res.X = red.expand(z)
	res.F = p.Objective(res.X)

	return res, nil
}

func reduce(p Problem, x0 []float64) (*reduced, []bound, []float64, error) {
	red := &reduced{full: append([]float64(nil), x0...)}
	var bounds []bound
	var z []float64
	for i := 0; i < p.Dim; i++ {
		lo, hi := math.Inf(-1), math.Inf(1)
		if p.Lower != nil {
			lo = p.Lower[i]
		}
		if p.Upper != nil {
			hi = p.Upper[i]
		}
		if lo > hi {
			return nil, nil, nil, fmt.Errorf("%w: x[%d] in [%g, %g]", ErrInfeasibleBounds, i, lo, hi)
		}
		if lo == hi {
			red.full[i] = lo
			continue
		}
		k := len(red.free)
		red.free = append(red.free, i)
		z = append(z, x0[i])
		if !math.IsInf(lo, 0) {
			bounds = append(bounds, bound{i: k, v: lo, lower: true})
		}
		if !math.IsInf(hi, 0) {
			bounds = append(bounds, bound{i: k, v: hi})
		}
	}

	return red, bounds, z, nil
}

// reindexEq rewrites constraints on the free variables, folding fixed
// variables into the right-hand side.
func reindexEq(eq []Linear, red *reduced) []Linear {
	pos := make(map[int]int, len(red.free))
	for k, i := range red.free {
		pos[i] = k
	}
	out := make([]Linear, 0, len(eq))
	for _, c := range eq {
		r := Linear{RHS: c.RHS}
		for k, i := range c.Idx {
			if j, ok := pos[i]; ok {
				r.Idx = append(r.Idx, j)
				r.Coef = append(r.Coef, c.Coef[k])
			} else {
				r.RHS -= c.Coef[k] * red.full[i]
			}
		}
		out = append(out, r)
	}

	return out
}

// augmented is the PHR augmented Lagrangian over the free variables.
type augmented struct {
	p        Problem
	red      *reduced
	eq       []Linear
	bounds   []bound
	lambda   []float64
	mu       []float64
	rho      float64
	gradFull []float64
}

func (a augmented) value(z []float64) float64 {
	v := a.p.Objective(a.red.expand(z))
	for j, c := range a.eq {
		h := c.eval(z)
		v += a.lambda[j]*h + 0.5*a.rho*h*h
	}
	for j, b := range a.bounds {
		t := math.Max(0, a.mu[j]+a.rho*b.eval(z))
		v += (t*t - a.mu[j]*a.mu[j]) / (2 * a.rho)
	}

	return v
}

func (a augmented) grad(g, z []float64) {
	a.p.Gradient(a.gradFull, a.red.expand(z))
	for k, i := range a.red.free {
		g[k] = a.gradFull[i]
	}
	for j, c := range a.eq {
		w := a.lambda[j] + a.rho*c.eval(z)
		for k, i := range c.Idx {
			g[i] += w * c.Coef[k]
		}
	}
	for j, b := range a.bounds {
		t := math.Max(0, a.mu[j]+a.rho*b.eval(z))
		if t == 0 {
			continue
		}
		if b.lower {
			g[b.i] -= t
		} else {
			g[b.i] += t
		}
	}
}

// Violation returns the largest equality residual and bound excess of x.
func Violation(p Problem, x []float64) float64 {
	v := 0.0
	for _, c := range p.Eq {
		v = math.Max(v, math.Abs(c.eval(x)))
	}
	for i, xi := range x {
		if p.Lower != nil {
			v = math.Max(v, p.Lower[i]-xi)
		}
		if p.Upper != nil {
			v = math.Max(v, xi-p.Upper[i])
		}
	}

	return v
}
