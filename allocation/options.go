// SPDX-License-Identifier: MIT

package allocation

import (
	"log/slog"
	"math"
	"runtime"

	"github.com/katalvlaran/gridflow/injection"
)

// DefaultCutLowerShare drops carrier shares at or below this value when
// expanding results by source or sink type.
const DefaultCutLowerShare = 1e-5

const (
	panicWorkersInvalid   = "allocation: WithParallel: workers must be >= 0"
	panicToleranceInvalid = "allocation: WithBalanceTolerance: tol must be finite, non-negative"
)

type mode int

const (
	modeSequential mode = iota
	modeParallel
	modeStaged
)

func (m mode) String() string {
	switch m {
	case modeParallel:
		return "parallel"
	case modeStaged:
		return "staged"
	default:
		return "sequential"
	}
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	workers    int
	parallel   bool
	staged     bool
	stageDir   string
	metrics    *Metrics
	agg        *injection.Aggregator
	balanceTol float64
}

func newOptions(opts ...Option) options {
	o := options{
		logger:     slog.Default(),
		balanceTol: injection.DefaultBalanceTolerance,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.workers == 0 {
		o.workers = runtime.NumCPU()
	}

	return o
}

func (o options) mode() mode {
	switch {
	case o.staged:
		return modeStaged
	case o.parallel:
		return modeParallel
	default:
		return modeSequential
	}
}

// WithLogger sets the logger for progress and numerical fallbacks.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithParallel allocates snapshots on a bounded pool of workers.
// Zero workers means runtime.NumCPU(). Panics on negative counts.
// Disk staging, when also requested, takes precedence.
func WithParallel(workers int) Option {
	if workers < 0 {
		panic(panicWorkersInvalid)
	}

	return func(o *options) {
		o.parallel = true
		o.workers = workers
	}
}

// WithDiskStaging writes monthly chunks to a temporary store below dir
// and reloads them once all chunks are done. An empty dir uses the system
// temporary directory. The store is removed on every exit path.
func WithDiskStaging(dir string) Option {
	return func(o *options) {
		o.staged = true
		o.stageDir = dir
	}
}

// WithMetrics records run durations and counters on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithAggregator shares an injection cache between engines on the same
// network.
func WithAggregator(a *injection.Aggregator) Option {
	return func(o *options) { o.agg = a }
}

// WithBalanceTolerance sets the per-bus mismatch above which the injection
// cross-check logs a warning.
func WithBalanceTolerance(tol float64) Option {
	if tol < 0 || math.IsNaN(tol) || math.IsInf(tol, 0) {
		panic(panicToleranceInvalid)
	}

	return func(o *options) { o.balanceTol = tol }
}
