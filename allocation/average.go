// SPDX-License-Identifier: MIT

package allocation

import (
	"fmt"
	"math"
	"time"

	"github.com/katalvlaran/gridflow/frame"
	"github.com/katalvlaran/gridflow/topology"
)

// tracing holds the proportional-sharing matrices of one snapshot.
// q[n][s] is the share of bus n's inflow that originates at source s;
// r[n][k] is the share of bus n's outflow that ends at sink k.
type tracing struct {
	g        *topology.Graph
	q, r     *frame.Frame
	fIn      *frame.Vector
	fOut     *frame.Vector
	pIn      *frame.Vector
	pOut     *frame.Vector
	selfCons *frame.Vector // nil unless aggregated
}

// AverageParticipation traces the flows at sn from sources to sinks by
// proportional sharing.
//
// With PerBus the result is peer-to-peer, keyed (source, sink): the
// upstream view reads Q, the downstream view R, both scaled to MW and with
// local self-consumption on the diagonal when injections are aggregated.
// Otherwise every branch flow is split onto (source, sink, branch) as
// Q[in, s]·f·R[out, k], where in/out are the branch ends in flow direction
// and f keeps the sign of the flow; Normalized replaces f by its sign.
func (e *Engine) AverageParticipation(sn time.Time, o AverageParticipation) (*Result, error) {
	t, err := e.trace(sn, o)
	if err != nil {
		return nil, err
	}
	dirs := directions(o.Direction)

	res := &Result{}
	if o.PerBus {
		res.Levels = []string{LevelSnapshot, LevelSource, LevelSink}
		if err := t.perBus(sn, o, dirs, res); err != nil {
			return nil, err
		}
	} else {
		res.Levels = []string{LevelSnapshot, LevelSource, LevelSink, LevelBranch}
		t.perBranch(sn, o.Normalized, dirs, res)
	}
	if o.Direction == Both {
		res.Levels = append([]string{LevelSnapshot, LevelDirection}, res.Levels[1:]...)
	}
	sortEntries(res.Entries)

	return res, nil
}

func (e *Engine) trace(sn time.Time, o AverageParticipation) (*tracing, error) {
	comps := o.BranchComponents
	if len(comps) == 0 {
		comps = topology.DefaultComponents
	}
	i, err := e.net.SnapshotIndex(sn)
	if err != nil {
		return nil, err
	}
	g, err := topology.New(e.net, comps...)
	if err != nil {
		return nil, err
	}
	f0 := topology.Flows(e.net, g, i, topology.P0)
	f1 := topology.Flows(e.net, g, i, topology.P1)
	t := &tracing{g: g, fIn: frame.ZeroVector(g.BranchIndex()), fOut: frame.ZeroVector(g.BranchIndex())}
	f0.Each(func(k string, v float64) {
		in, out := v, v
		if v <= 0 {
			in = -f1.Get(k)
		}
		if v >= 0 {
			out = -f1.Get(k)
		}
		_ = t.fIn.Set(k, in)
		_ = t.fOut.Set(k, out)
	})

	if o.Disaggregated {
		prod, err := e.agg.PowerProduction([]time.Time{sn}, nil, false)
		if err != nil {
			return nil, err
		}
		dem, err := e.agg.PowerDemand([]time.Time{sn}, nil, false)
		if err != nil {
			return nil, err
		}
		if t.pIn, err = row(prod, sn); err != nil {
			return nil, err
		}
		if t.pOut, err = row(dem, sn); err != nil {
			return nil, err
		}
	} else {
		p, err := e.injection(sn, comps...)
		if err != nil {
			return nil, err
		}
		t.pIn = p.ClipLower(0)
		t.pOut = p.ClipUpper(0).Neg()
		self, err := e.agg.SelfConsumption([]time.Time{sn}, false)
		if err != nil {
			return nil, err
		}
		if t.selfCons, err = row(self, sn); err != nil {
			return nil, err
		}
	}

	k := g.Incidence()
	kDir, err := k.ScaleCols(t.fIn.Sign())
	if err != nil {
		return nil, fmt.Errorf("allocation: %w", err)
	}
	if t.q, err = e.share(kDir.ClipUpper(0), t.fOut, k, t.pIn, sn); err != nil {
		return nil, err
	}
	if t.r, err = e.share(kDir.ClipLower(0), t.fIn, k, t.pOut, sn); err != nil {
		return nil, err
	}

	return t, nil
}

// share solves (Kdir·diag(f)·Kᵀ + diag(p))⁻¹·diag(p).
func (e *Engine) share(kDir *frame.Frame, f *frame.Vector, k *frame.Frame, p *frame.Vector, sn time.Time) (*frame.Frame, error) {
	kf, err := kDir.ScaleCols(f)
	if err != nil {
		return nil, fmt.Errorf("allocation: %w", err)
	}
	m, err := frame.Mul(kf, k.T())
	if err != nil {
		return nil, fmt.Errorf("allocation: %w", err)
	}
	if m, err = frame.Add(m, frame.Diag(p)); err != nil {
		return nil, fmt.Errorf("allocation: %w", err)
	}
	inv, err := e.invert(m, sn)
	if err != nil {
		return nil, err
	}
	out, err := inv.ScaleCols(p)
	if err != nil {
		return nil, fmt.Errorf("allocation: %w", err)
	}

	return out.Finite(), nil
}

func (t *tracing) perBus(sn time.Time, o AverageParticipation, dirs []Direction, res *Result) error {
	q, r := t.q, t.r
	if !o.Normalized {
		var err error
		if q, err = q.ScaleRows(t.pOut); err != nil {
			return fmt.Errorf("allocation: %w", err)
		}
		if r, err = r.ScaleRows(t.pIn); err != nil {
			return fmt.Errorf("allocation: %w", err)
		}
		if t.selfCons != nil {
			d := frame.Diag(t.selfCons)
			if q, err = frame.Add(q, d); err != nil {
				return fmt.Errorf("allocation: %w", err)
			}
			if r, err = frame.Add(r, d); err != nil {
				return fmt.Errorf("allocation: %w", err)
			}
		}
	}
	for _, d := range dirs {
		if d == Upstream {
			q.Each(func(bus, source string, v float64) {
				if keep(v) {
					res.Entries = append(res.Entries, Entry{Snapshot: sn, Direction: Upstream, Source: source, Sink: bus, Value: v})
				}
			})
			continue
		}
		r.Each(func(bus, sink string, v float64) {
			if keep(v) {
				res.Entries = append(res.Entries, Entry{Snapshot: sn, Direction: Downstream, Source: bus, Sink: sink, Value: v})
			}
		})
	}

	return nil
}

func (t *tracing) perBranch(sn time.Time, normalized bool, dirs []Direction, res *Result) {
	buses := t.g.Buses().Labels()
	for _, d := range dirs {
		f := t.fIn
		if d == Upstream {
			f = t.fOut
		}
		for _, b := range t.g.Branches() {
			fv := f.Get(b.Key.String())
			if fv == 0 || math.IsNaN(fv) {
				continue
			}
			in, out := b.Bus0, b.Bus1
			if fv < 0 {
				in, out = out, in
			}
			if normalized {
				fv /= math.Abs(fv)
			}
			for _, s := range buses {
				qs := t.q.Get(in, s)
				if qs == 0 {
					continue
				}
				for _, k := range buses {
					if v := qs * fv * t.r.Get(out, k); keep(v) {
						res.Entries = append(res.Entries, Entry{
							Snapshot: sn, Direction: d, Source: s, Sink: k, Branch: b.Key, Value: v,
						})
					}
				}
			}
		}
	}
}
