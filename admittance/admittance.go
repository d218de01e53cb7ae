// SPDX-License-Identifier: MIT

// Package admittance synthesizes per-branch impedances and the matrices
// derived from them: admittance vector, PTDF, Ybus and Zbus.
//
// Lines use their per-unit series reactance, or resistance when bus0 is not
// an AC bus. Links have no physical impedance; an effective value ("omega")
// is derived per snapshot from the cycles they close with lines, so that
// Kirchhoff's voltage law holds around every mixed loop.
package admittance

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/katalvlaran/gridflow/frame"
	"github.com/katalvlaran/gridflow/network"
	"github.com/katalvlaran/gridflow/topology"
)

// ActiveLinkThreshold is the |p0| below which a link is treated as idle
// when extracting the active cycle basis.
const ActiveLinkThreshold = 1e-8

// omegaDecimals suppresses solver noise before zero-testing omega.
const omegaDecimals = 10

// Model computes impedance-derived quantities of one network.
// A Model holds no per-snapshot state and is safe for concurrent use as
// long as the network is not mutated.
type Model struct {
	net    *network.Network
	logger *slog.Logger
}

// Option configures a Model.
type Option func(*Model)

// WithLogger routes fallback warnings to l.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// New returns a Model over n.
func New(n *network.Network, opts ...Option) *Model {
	m := &Model{net: n, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// position resolves the snapshot, falling back to the first snapshot for
// the zero time.
func (m *Model) position(snapshot time.Time) (int, error) {
	if snapshot.IsZero() {
		if len(m.net.Snapshots) == 0 {
			return 0, fmt.Errorf("admittance: %w", network.ErrUnknownSnapshot)
		}
		m.logger.Warn("links require a snapshot; falling back to the first snapshot",
			"snapshot", network.SnapshotLabel(m.net.Snapshots[0]))

		return 0, nil
	}

	return m.net.SnapshotIndex(snapshot)
}

func hasComponent(components []topology.Component, c topology.Component) bool {
	for _, x := range components {
		if x == c {
			return true
		}
	}

	return false
}

// lineImpedance returns z over the lines of n, labeled "Line:<name>".
func (m *Model) lineImpedance() *frame.Vector {
	carrier := make(map[string]string, len(m.net.Buses))
	for _, b := range m.net.Buses {
		carrier[b.Name] = b.Carrier
	}
	labels := make([]string, len(m.net.Lines))
	vals := make([]float64, len(m.net.Lines))
	for i, l := range m.net.Lines {
		labels[i] = topology.BranchKey{Component: topology.Line, Name: l.Name}.String()
		if c := carrier[l.Bus0]; c == network.CarrierAC || c == "" {
			vals[i] = l.XPuEff
		} else {
			vals[i] = l.RPuEff
		}
	}
	z, _ := frame.VectorOn(frame.MustIndex(labels...), vals)

	return z
}

// ActiveCycles returns the cycle basis (cycles × all branches) of the
// subgraph in which links with |p0| < ActiveLinkThreshold at snapshot are
// removed. Columns of removed links are zero.
func (m *Model) ActiveCycles(snapshot time.Time) (*frame.Frame, error) {
	i, err := m.position(snapshot)
	if err != nil {
		return nil, err
	}
	g, err := topology.New(m.net, topology.Line, topology.Link)
	if err != nil {
		return nil, err
	}

	return activeCycles(m.net, g, i), nil
}

func activeCycles(n *network.Network, g *topology.Graph, i int) *frame.Frame {
	act := g.Active(func(k topology.BranchKey) bool {
		return k.Component == topology.Line || math.Abs(n.LinkP0(k.Name, i)) >= ActiveLinkThreshold
	})
	c := act.Cycles()

	return c.Reindex(c.Rows(), g.BranchIndex(), 0)
}

// Impedance returns the effective impedance of every branch of the given
// components (Line when none are given), in component order.
//
// For links: cycles that contain a flowing link and any other flowing
// branch are "mixed". With no mixed cycle a link behaves as an ideal
// segment and gets 1/flow. With mixed cycles but no lines, omega is the
// first null vector of C_link·diag(f_link). Otherwise
//
//	omega = -pinv(C_link·diag(f_link)) · C_line·diag(z)·f_line
//
// Omega is rounded to 10 decimals; links left at zero while carrying flow
// fall back to 1/flow.
func (m *Model) Impedance(snapshot time.Time, components ...topology.Component) (*frame.Vector, error) {
	if len(components) == 0 {
		components = []topology.Component{topology.Line}
	}
	z := m.lineImpedance()
	if !hasComponent(components, topology.Link) || len(m.net.Links) == 0 {
		if !hasComponent(components, topology.Line) {
			return frame.ZeroVector(frame.Index{}), nil
		}

		return z, nil
	}

	i, err := m.position(snapshot)
	if err != nil {
		return nil, err
	}
	g, err := topology.New(m.net, topology.Line, topology.Link)
	if err != nil {
		return nil, err
	}
	omega, err := m.linkOmega(g, z, i)
	if err != nil {
		return nil, err
	}

	out := frame.ZeroVector(frame.Index{})
	for _, c := range components {
		switch c {
		case topology.Line:
			out, err = out.Concat(z)
		case topology.Link:
			out, err = out.Concat(omega)
		}
		if err != nil {
			return nil, fmt.Errorf("admittance: %w", err)
		}
	}

	return out, nil
}

func (m *Model) linkOmega(g *topology.Graph, z *frame.Vector, i int) (*frame.Vector, error) {
	f := topology.Flows(m.net, g, i, topology.P0)
	var lineLabels, linkLabels []string
	for _, k := range g.Keys() {
		if k.Component == topology.Line {
			lineLabels = append(lineLabels, k.String())
		} else {
			linkLabels = append(linkLabels, k.String())
		}
	}
	fLink, _ := f.Select(linkLabels...)
	fLine, _ := f.Select(lineLabels...)

	c := activeCycles(m.net, g, i)
	mix := c.FilterRows(func(_ string, row []float64) bool {
		for j, v := range row {
			k := g.BranchIndex().Label(j)
			if v != 0 && f.Get(k) != 0 && !fLine.Index().Has(k) {
				return true
			}
		}

		return false
	})

	var omega *frame.Vector
	switch {
	case mix.Rows().Len() == 0:
		omega = frame.ZeroVector(fLink.Index())
	default:
		cLink, err := mix.Select(nil, linkLabels)
		if err != nil {
			return nil, fmt.Errorf("admittance: %w", err)
		}
		a, err := cLink.ScaleCols(fLink)
		if err != nil {
			return nil, fmt.Errorf("admittance: %w", err)
		}
		if z.Len() == 0 {
			omega, err = firstNullVector(a)
		} else {
			omega, err = projectedOmega(a, mix, lineLabels, z, fLine)
		}
		if err != nil {
			return nil, err
		}
	}

	omega = omega.Round(omegaDecimals)
	fixed := frame.ZeroVector(omega.Index())
	omega.Each(func(k string, w float64) {
		fl := fLink.Get(k)
		if w == 0 && fl != 0 {
			w = 1 / fl
		}
		_ = fixed.Set(k, w)
	})

	return fixed, nil
}

func firstNullVector(a *frame.Frame) (*frame.Vector, error) {
	ns, err := frame.Null(a)
	if err != nil {
		return nil, fmt.Errorf("admittance: null space: %w", err)
	}
	if ns.Cols().Len() == 0 {
		return frame.ZeroVector(a.Cols()), nil
	}
	v, err := ns.Col("0")
	if err != nil {
		return nil, fmt.Errorf("admittance: %w", err)
	}

	return v, nil
}

func projectedOmega(a, mix *frame.Frame, lineLabels []string, z, fLine *frame.Vector) (*frame.Vector, error) {
	cLine, err := mix.Select(nil, lineLabels)
	if err != nil {
		return nil, fmt.Errorf("admittance: %w", err)
	}
	zf, err := z.Mul(fLine)
	if err != nil {
		return nil, fmt.Errorf("admittance: %w", err)
	}
	drop, err := cLine.MatVec(zf)
	if err != nil {
		return nil, fmt.Errorf("admittance: %w", err)
	}
	pa, err := frame.Pinv(a)
	if err != nil {
		return nil, fmt.Errorf("admittance: %w", err)
	}
	omega, err := pa.MatVec(drop)
	if err != nil {
		return nil, fmt.Errorf("admittance: %w", err)
	}

	return omega.Neg(), nil
}

// Admittance returns 1/Impedance with infinities mapped to zero.
func (m *Model) Admittance(snapshot time.Time, components ...topology.Component) (*frame.Vector, error) {
	z, err := m.Impedance(snapshot, components...)
	if err != nil {
		return nil, err
	}

	return z.Map(func(x float64) float64 { return frame.Finite(1 / x) }), nil
}
