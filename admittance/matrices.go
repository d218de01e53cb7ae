// SPDX-License-Identifier: MIT

package admittance

import (
	"fmt"
	"time"

	"github.com/katalvlaran/gridflow/frame"
	"github.com/katalvlaran/gridflow/topology"
)

// weightedIncidence returns K and K·diag(y) over components.
func (m *Model) weightedIncidence(snapshot time.Time, components []topology.Component) (*frame.Frame, *frame.Vector, error) {
	g, err := topology.New(m.net, components...)
	if err != nil {
		return nil, nil, err
	}
	y, err := m.Admittance(snapshot, components...)
	if err != nil {
		return nil, nil, err
	}

	return g.Incidence(), y, nil
}

// Ybus returns the nodal admittance matrix K·diag(y)·Kᵀ (buses × buses).
// Components default to lines and links.
func (m *Model) Ybus(snapshot time.Time, components ...topology.Component) (*frame.Frame, error) {
	if len(components) == 0 {
		components = topology.DefaultComponents
	}
	k, y, err := m.weightedIncidence(snapshot, components)
	if err != nil {
		return nil, err
	}
	ky, err := k.ScaleCols(y)
	if err != nil {
		return nil, fmt.Errorf("admittance: Ybus: %w", err)
	}
	out, err := frame.Mul(ky, k.T())
	if err != nil {
		return nil, fmt.Errorf("admittance: Ybus: %w", err)
	}

	return out, nil
}

// Zbus returns pinv(Ybus). Ybus of a connected network has rank buses-1,
// so the pseudo-inverse is used throughout.
func (m *Model) Zbus(snapshot time.Time, components ...topology.Component) (*frame.Frame, error) {
	yb, err := m.Ybus(snapshot, components...)
	if err != nil {
		return nil, err
	}
	z, err := frame.Pinv(yb)
	if err != nil {
		return nil, fmt.Errorf("admittance: Zbus: %w", err)
	}

	return z, nil
}

// PTDF returns H = diag(y)·Kᵀ·pinv(K·diag(y)·Kᵀ) (branches × buses), the
// sensitivity of branch flow to nodal injection. Components default to
// lines only.
func (m *Model) PTDF(snapshot time.Time, components ...topology.Component) (*frame.Frame, error) {
	if len(components) == 0 {
		components = []topology.Component{topology.Line}
	}
	k, y, err := m.weightedIncidence(snapshot, components)
	if err != nil {
		return nil, err
	}

	return ptdf(k, y)
}

// PTDFOf computes H for an explicit incidence and admittance, e.g. of a
// regional subnetwork.
func PTDFOf(k *frame.Frame, y *frame.Vector) (*frame.Frame, error) { return ptdf(k, y) }

func ptdf(k *frame.Frame, y *frame.Vector) (*frame.Frame, error) {
	kt := k.T()
	ykt, err := kt.ScaleRows(y)
	if err != nil {
		return nil, fmt.Errorf("admittance: PTDF: %w", err)
	}
	lap, err := frame.Mul(k, ykt)
	if err != nil {
		return nil, fmt.Errorf("admittance: PTDF: %w", err)
	}
	pl, err := frame.Pinv(lap)
	if err != nil {
		return nil, fmt.Errorf("admittance: PTDF: %w", err)
	}
	h, err := frame.Mul(ykt, pl)
	if err != nil {
		return nil, fmt.Errorf("admittance: PTDF: %w", err)
	}

	return h, nil
}
