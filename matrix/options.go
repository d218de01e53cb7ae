// SPDX-License-Identifier: MIT

// Package matrix: functional configuration of the numeric policy used by the
// factorizations (Eigen, Pinv, NullSpace).
//
// Design goals:
//   - Deterministic behavior: no global state.
//   - Safe by construction: constructors panic only on nonsensical values
//     (programmer error), never on data.
package matrix

import "math"

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultEpsilon is the symmetry tolerance and Jacobi convergence threshold.
	DefaultEpsilon = 1e-12

	// DefaultMaxSweeps bounds the Jacobi rotation count per matrix entry
	// (total rotations = DefaultMaxSweeps * n * n).
	DefaultMaxSweeps = 100

	// DefaultRcond is the relative cutoff for small singular values:
	// values <= rcond * max(sigma) are treated as zero by Pinv.
	DefaultRcond = 1e-15

	// DefaultValidateNaNInf toggles finite-only writes in Dense.Set.
	DefaultValidateNaNInf = true
)

const (
	panicEpsilonInvalid = "matrix: WithEpsilon: eps must be finite, non-negative"
	panicRcondInvalid   = "matrix: WithRcond: rcond must be finite, non-negative"
	panicSweepsInvalid  = "matrix: WithMaxSweeps: sweeps must be > 0"
)

// Option mutates internal options. Safe to apply repeatedly.
type Option func(*Options)

// Options holds the resolved numeric policy. Fields are unexported; build
// it through NewOptions or pass ...Option to a kernel.
type Options struct {
	eps       float64
	rcond     float64
	maxSweeps int
	nullRcond float64 // 0 => max(r,c) * machine epsilon, resolved per call
}

// WithEpsilon sets the symmetry/convergence tolerance.
// Panics if eps is negative, NaN or Inf.
func WithEpsilon(eps float64) Option {
	if eps < 0 || math.IsNaN(eps) || math.IsInf(eps, 0) {
		panic(panicEpsilonInvalid)
	}

	return func(o *Options) { o.eps = eps }
}

// WithRcond sets the relative singular value cutoff used by Pinv.
func WithRcond(rcond float64) Option {
	if rcond < 0 || math.IsNaN(rcond) || math.IsInf(rcond, 0) {
		panic(panicRcondInvalid)
	}

	return func(o *Options) { o.rcond = rcond }
}

// WithNullRcond sets the relative cutoff used by NullSpace. Zero restores
// the shape-dependent default max(rows, cols) * machine epsilon.
func WithNullRcond(rcond float64) Option {
	if rcond < 0 || math.IsNaN(rcond) || math.IsInf(rcond, 0) {
		panic(panicRcondInvalid)
	}

	return func(o *Options) { o.nullRcond = rcond }
}

// WithMaxSweeps bounds Jacobi iterations to sweeps*n*n rotations.
func WithMaxSweeps(sweeps int) Option {
	if sweeps <= 0 {
		panic(panicSweepsInvalid)
	}

	return func(o *Options) { o.maxSweeps = sweeps }
}

// NewOptions resolves user options over the documented defaults.
func NewOptions(opts ...Option) Options {
	o := Options{
		eps:       DefaultEpsilon,
		rcond:     DefaultRcond,
		maxSweeps: DefaultMaxSweeps,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}

// Epsilon reports the resolved tolerance.
func (o Options) Epsilon() float64 { return o.eps }

// Rcond reports the resolved pseudo-inverse cutoff.
func (o Options) Rcond() float64 { return o.rcond }
