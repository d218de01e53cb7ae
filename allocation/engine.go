// SPDX-License-Identifier: MIT

// Package allocation decomposes the branch flows of a solved power network
// onto the buses that cause them.
//
// Four methods are offered, each per snapshot: Average Participation (flow
// tracing by proportional sharing), Marginal Participation (PTDF
// sensitivities split between producers and consumers), Virtual Injection
// Pattern (superposed single-source patterns) and Optimal Flow Shares (a
// constrained least-squares color matrix). Results are flat series of
// Entry values keyed by snapshot and by source/sink bus or bus/branch.
//
// FlowAllocation runs a method over many snapshots, either sequentially,
// on a bounded worker pool, or staged to disk in monthly chunks.
package allocation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/katalvlaran/gridflow/admittance"
	"github.com/katalvlaran/gridflow/frame"
	"github.com/katalvlaran/gridflow/injection"
	"github.com/katalvlaran/gridflow/matrix"
	"github.com/katalvlaran/gridflow/network"
	"github.com/katalvlaran/gridflow/topology"
)

// Engine allocates the flows of one network. NewEngine fills the network's
// dependent values in place; after that the engine only reads the network
// and is safe for concurrent use while the network is unchanged.
type Engine struct {
	net   *network.Network
	agg   *injection.Aggregator
	model *admittance.Model
	opts  options

	ptdfOnce sync.Once
	ptdf     *frame.Frame
	ptdfErr  error
}

// NewEngine prepares n for allocation. It calls n.CalculateDependentValues,
// which writes per-unit impedances, default carriers and signs into n.
// Errors: *NoFlowDataError when n carries no branch flows,
// network.ErrDuplicateSnapshot when a snapshot repeats.
func NewEngine(n *network.Network, opts ...Option) (*Engine, error) {
	if n == nil || !n.HasFlows() {
		name := ""
		if n != nil {
			name = n.Name
		}

		return nil, &NoFlowDataError{Network: name}
	}
	if err := n.CheckSnapshots(); err != nil {
		return nil, fmt.Errorf("allocation: %w", err)
	}
	n.CalculateDependentValues()

	o := newOptions(opts...)
	agg := o.agg
	if agg == nil || agg.Network() != n {
		agg = injection.NewAggregator(n)
	}

	return &Engine{
		net:   n,
		agg:   agg,
		model: admittance.New(n, admittance.WithLogger(o.logger)),
		opts:  o,
	}, nil
}

// Network returns the allocated network.
func (e *Engine) Network() *network.Network { return e.net }

// Aggregator returns the engine's injection cache.
func (e *Engine) Aggregator() *injection.Aggregator { return e.agg }

// linePTDF returns the line PTDF, which does not depend on the snapshot.
func (e *Engine) linePTDF() (*frame.Frame, error) {
	e.ptdfOnce.Do(func() {
		e.ptdf, e.ptdfErr = e.model.PTDF(time.Time{}, topology.Line)
	})

	return e.ptdf, e.ptdfErr
}

// row extracts the single snapshot row of a snapshot-indexed frame.
func row(f *frame.Frame, sn time.Time) (*frame.Vector, error) {
	return f.Row(network.SnapshotLabel(sn))
}

func (e *Engine) injection(sn time.Time, components ...topology.Component) (*frame.Vector, error) {
	p, err := e.agg.NetworkInjection([]time.Time{sn}, components...)
	if err != nil {
		return nil, err
	}

	return row(p, sn)
}

// lineState returns the line injection and line p0 flows at sn.
func (e *Engine) lineState(sn time.Time) (*frame.Vector, *frame.Vector, error) {
	i, err := e.net.SnapshotIndex(sn)
	if err != nil {
		return nil, nil, err
	}
	g, err := topology.New(e.net, topology.Line)
	if err != nil {
		return nil, nil, err
	}
	p, err := e.injection(sn, topology.Line)
	if err != nil {
		return nil, nil, err
	}

	return p, topology.Flows(e.net, g, i, topology.P0), nil
}

// invert returns m⁻¹. Buses with an all-zero row (no flow, no injection)
// get a unit diagonal first; a still singular system falls back to the
// pseudo-inverse.
func (e *Engine) invert(m *frame.Frame, sn time.Time) (*frame.Frame, error) {
	reg := m.Map(func(v float64) float64 { return v })
	n := m.Cols().Len()
	for i, label := range m.Rows().Labels() {
		zero := true
		for j := 0; j < n && zero; j++ {
			zero = m.AtPos(i, j) == 0
		}
		if zero {
			_ = reg.Set(label, label, 1)
		}
	}
	inv, err := frame.Inverse(reg)
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, matrix.ErrSingular) {
		return nil, err
	}
	e.opts.logger.Warn("singular tracing system; using pseudo-inverse",
		"snapshot", network.SnapshotLabel(sn))
	inv, err = frame.Pinv(reg)
	if err != nil {
		return nil, fmt.Errorf("allocation: %w", err)
	}

	return inv, nil
}

// keep reports whether v is a finite non-zero allocation.
func keep(v float64) bool { return v != 0 && frame.Finite(v) == v }
