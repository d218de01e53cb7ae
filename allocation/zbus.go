// SPDX-License-Identifier: MIT

package allocation

import (
	"fmt"
	"time"

	"github.com/katalvlaran/gridflow/frame"
	"github.com/katalvlaran/gridflow/topology"
)

// SlackBus returns the first bus whose voltage angle is zero in every
// snapshot. Errors: *topology.TopologyError when there is none.
func (e *Engine) SlackBus() (string, error) {
	for _, b := range e.net.Buses {
		ang, ok := e.net.BusesT.VAng[b.Name]
		if !ok || len(ang) == 0 {
			continue
		}
		slack := true
		for _, v := range ang {
			if v != 0 {
				slack = false
				break
			}
		}
		if slack {
			return b.Name, nil
		}
	}

	return "", &topology.TopologyError{Reason: "no reference bus: no bus has zero voltage angle in every snapshot"}
}

// ZbusTransmission allocates line flows at sn to buses with the linearized
// Z-bus method. With the series admittance y = 1/(jx), the nodal currents
// of the DC voltages V = v_nom·(1 + jθ) are I = Y·V, and
//
//	q[l, b] = Re(A[l, b] · V_l · I[b])
//
// where A is the PTDF and V_l the per-unit voltage at the sending end of
// line l. Entries are keyed (bus, branch).
func (e *Engine) ZbusTransmission(sn time.Time) (*Result, error) {
	if _, err := e.SlackBus(); err != nil {
		return nil, err
	}
	i, err := e.net.SnapshotIndex(sn)
	if err != nil {
		return nil, err
	}
	a, err := e.linePTDF()
	if err != nil {
		return nil, err
	}
	b, err := e.model.Ybus(sn, topology.Line)
	if err != nil {
		return nil, err
	}
	g, err := topology.New(e.net, topology.Line)
	if err != nil {
		return nil, err
	}

	buses := g.Buses()
	vRe := frame.ZeroVector(buses)
	vIm := frame.ZeroVector(buses)
	vNom := make(map[string]float64, buses.Len())
	for _, bus := range e.net.Buses {
		vn := bus.VNom
		if vn == 0 {
			vn = 1
		}
		vNom[bus.Name] = vn
		_ = vRe.Set(bus.Name, vn)
		_ = vIm.Set(bus.Name, vn*e.net.VAng(bus.Name, i))
	}
	// Y = -j·B, so I = B·Im(V) - j·B·Re(V).
	iRe, err := b.MatVec(vIm)
	if err != nil {
		return nil, fmt.Errorf("allocation: %w", err)
	}
	bRe, err := b.MatVec(vRe)
	if err != nil {
		return nil, fmt.Errorf("allocation: %w", err)
	}
	iIm := bRe.Neg()

	f := topology.Flows(e.net, g, i, topology.P0)
	q := frame.New(a.Rows(), a.Cols())
	for _, br := range g.Branches() {
		key := br.Key.String()
		end := br.Bus0
		if f.Get(key) <= 0 {
			end = br.Bus1
		}
		vn2 := vNom[end] * vNom[end]
		vl := complex(vRe.Get(end)/vn2, vIm.Get(end)/vn2)
		for _, bus := range buses.Labels() {
			cur := complex(iRe.Get(bus), iIm.Get(bus))
			v := real(complex(a.Get(key, bus), 0) * vl * cur)
			if err := q.Set(key, bus, frame.Finite(v)); err != nil {
				return nil, fmt.Errorf("allocation: %w", err)
			}
		}
	}

	res := &Result{Levels: []string{LevelSnapshot, LevelBus, LevelBranch}}
	if err := busBranchEntries(res, sn, Downstream, q); err != nil {
		return nil, err
	}
	sortEntries(res.Entries)

	return res, nil
}
