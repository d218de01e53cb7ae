// SPDX-License-Identifier: MIT

package allocation

import (
	"fmt"
	"time"

	"github.com/katalvlaran/gridflow/admittance"
	"github.com/katalvlaran/gridflow/frame"
	"github.com/katalvlaran/gridflow/topology"
)

// TransitFlow is the flow on one regional branch with and without transit.
type TransitFlow struct {
	Snapshot time.Time
	Branch   topology.BranchKey
	With     float64
	Without  float64
}

// TransitLoss is the regional ohmic loss Σ f²·r with and without transit.
type TransitLoss struct {
	Snapshot time.Time
	With     float64
	Without  float64
}

// Transit is the result of WithAndWithoutTransit for one region.
type Transit struct {
	Region string
	Flows  []TransitFlow
	Losses []TransitLoss
}

// regionView is the subnetwork of a region and its direct neighbors.
type regionView struct {
	buses    []string // region then vicinity, network order
	inRegion map[string]bool
	k        *frame.Frame
	hasLinks bool
}

func (e *Engine) region(g *topology.Graph, region string) (*regionView, error) {
	country := make(map[string]string, len(e.net.Buses))
	for _, b := range e.net.Buses {
		country[b.Name] = b.Country
	}
	rv := &regionView{inRegion: make(map[string]bool)}
	for _, b := range e.net.Buses {
		if b.Country == region {
			rv.inRegion[b.Name] = true
		}
	}
	if len(rv.inRegion) == 0 {
		return nil, fmt.Errorf("%w %q", ErrUnknownRegion, region)
	}

	touched := make(map[string]bool)
	var labels []string
	for _, br := range g.Branches() {
		if country[br.Bus0] != region && country[br.Bus1] != region {
			continue
		}
		labels = append(labels, br.Key.String())
		touched[br.Bus0], touched[br.Bus1] = true, true
		rv.hasLinks = rv.hasLinks || br.Key.Component == topology.Link
	}
	for _, b := range e.net.Buses {
		if rv.inRegion[b.Name] || touched[b.Name] {
			rv.buses = append(rv.buses, b.Name)
		}
	}
	k, err := g.Incidence().Select(rv.buses, labels)
	if err != nil {
		return nil, fmt.Errorf("allocation: %w", err)
	}
	rv.k = k

	return rv, nil
}

// withoutTransit keeps the region's own injection and nets the border:
// the larger of imports and exports is scaled down to the net exchange,
// the smaller side is dropped.
func (rv *regionView) withoutTransit(p *frame.Vector) *frame.Vector {
	var im, ex float64
	for _, b := range rv.buses {
		if rv.inRegion[b] {
			continue
		}
		if v := p.Get(b); v > 0 {
			im += v
		} else {
			ex += v
		}
	}
	importing := im > -ex
	scale := frame.Finite((im + ex) / ex)
	if importing {
		scale = frame.Finite((im + ex) / im)
	}

	out := frame.ZeroVector(p.Index())
	for _, b := range rv.buses {
		v := p.Get(b)
		switch {
		case rv.inRegion[b]:
		case importing && v > 0, !importing && v < 0:
			v *= scale
		default:
			v = 0
		}
		_ = out.Set(b, v)
	}

	return out
}

// WithAndWithoutTransit compares, for the buses whose Country is region,
// the actual branch flows with the flows of an injection pattern in which
// the border exchange is reduced to the region's net import or export.
// Losses are Σ f²·r_pu over the region's branches (links are lossless).
// Nil snapshots select all.
func (e *Engine) WithAndWithoutTransit(region string, snapshots []time.Time) (*Transit, error) {
	if snapshots == nil {
		snapshots = e.net.Snapshots
	}
	g, err := topology.New(e.net, topology.DefaultComponents...)
	if err != nil {
		return nil, err
	}
	rv, err := e.region(g, region)
	if err != nil {
		return nil, err
	}
	rPu := make(map[string]float64, len(e.net.Lines))
	for _, l := range e.net.Lines {
		rPu[topology.BranchKey{Component: topology.Line, Name: l.Name}.String()] = l.RPuEff
	}
	labels := rv.k.Cols().Labels()

	var static *frame.Frame
	if !rv.hasLinks {
		if static, err = e.regionalPTDF(rv, time.Time{}, labels, topology.Line); err != nil {
			return nil, err
		}
	}

	out := &Transit{Region: region}
	for _, sn := range snapshots {
		i, err := e.net.SnapshotIndex(sn)
		if err != nil {
			return nil, err
		}
		f, err := topology.Flows(e.net, g, i, topology.P0).Select(labels...)
		if err != nil {
			return nil, fmt.Errorf("allocation: %w", err)
		}
		p, err := rv.k.MatVec(f)
		if err != nil {
			return nil, fmt.Errorf("allocation: %w", err)
		}
		h := static
		if h == nil {
			if h, err = e.regionalPTDF(rv, sn, labels, topology.Line, topology.Link); err != nil {
				return nil, err
			}
		}
		fWo, err := h.MatVec(rv.withoutTransit(p))
		if err != nil {
			return nil, fmt.Errorf("allocation: %w", err)
		}

		loss := TransitLoss{Snapshot: sn}
		for _, key := range labels {
			w, wo := f.Get(key), fWo.Get(key)
			loss.With += w * w * rPu[key]
			loss.Without += wo * wo * rPu[key]
			br, _ := topology.ParseBranchKey(key)
			out.Flows = append(out.Flows, TransitFlow{Snapshot: sn, Branch: br, With: w, Without: frame.Round(wo, sensitivityDecimals)})
		}
		out.Losses = append(out.Losses, loss)
	}

	return out, nil
}

func (e *Engine) regionalPTDF(rv *regionView, sn time.Time, labels []string, comps ...topology.Component) (*frame.Frame, error) {
	y, err := e.model.Admittance(sn, comps...)
	if err != nil {
		return nil, err
	}

	return admittance.PTDFOf(rv.k, y.Reindex(frame.MustIndex(labels...), 0))
}
