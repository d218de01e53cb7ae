// SPDX-License-Identifier: MIT

package allocation

import (
	"fmt"
	"math"
	"time"

	"github.com/katalvlaran/gridflow/frame"
)

// colorMatrix returns the virtual injection pattern of p (buses × buses).
// Downstream, column j is source j's injection with every sink taking its
// proportional part:
//
//	vip = diag(p⁺) + p⁻·p⁺ᵀ / Σp⁺
//
// Upstream swaps the roles of p⁺ and p⁻. Row i always sums to p[i] and
// column j to zero for a balanced p.
func colorMatrix(p *frame.Vector, d Direction) (*frame.Frame, error) {
	pPlus := p.ClipLower(0)
	pMinus := p.ClipUpper(0)
	own, other := pPlus, pMinus
	if d == Upstream {
		own, other = pMinus, pPlus
	}
	off := frame.Outer(other, own).Scale(1 / own.Sum()).Finite()
	vip, err := frame.Add(frame.Diag(own), off)
	if err != nil {
		return nil, fmt.Errorf("allocation: %w", err)
	}

	return vip, nil
}

// peerEntries reads a color matrix peer-to-peer. Downstream, the rows of
// buses without own injection are sinks and the columns their sources;
// upstream the rows are sources and the columns sinks. Values are absolute.
func peerEntries(res *Result, sn time.Time, d Direction, own *frame.Vector, x *frame.Frame) {
	x.Each(func(i, j string, v float64) {
		if own.Get(i) != 0 {
			return
		}
		v = math.Abs(v)
		if !keep(v) {
			return
		}
		e := Entry{Snapshot: sn, Direction: d, Source: j, Sink: i, Value: v}
		if d == Upstream {
			e.Source, e.Sink = i, j
		}
		res.Entries = append(res.Entries, e)
	})
}

func directions(d Direction) []Direction {
	if d == Both {
		return []Direction{Downstream, Upstream}
	}

	return []Direction{d}
}

// VirtualInjectionPattern allocates line flows at sn by superposing the
// flow of each source's virtual injection pattern (each sink's, upstream).
// Downstream per-branch results equal MarginalParticipation with Q = 1
// only when there is a single sink. With several sinks the two differ per
// bus (VIP charges sources only) while each branch still sums to its flow.
func (e *Engine) VirtualInjectionPattern(sn time.Time, o VirtualInjectionPattern) (*Result, error) {
	p, f, err := e.lineState(sn)
	if err != nil {
		return nil, err
	}
	var h *frame.Frame
	if !o.PerBus {
		if h, err = e.linePTDF(); err != nil {
			return nil, err
		}
	}

	res := &Result{Levels: []string{LevelSnapshot, LevelBus, LevelBranch}}
	if o.PerBus {
		res.Levels = []string{LevelSnapshot, LevelSource, LevelSink}
	}
	for _, d := range directions(o.Direction) {
		vip, err := colorMatrix(p, d)
		if err != nil {
			return nil, err
		}
		if o.PerBus {
			peerEntries(res, sn, d, ownInjection(p, d), vip)
			continue
		}
		hv, err := frame.Mul(h, vip)
		if err != nil {
			return nil, fmt.Errorf("allocation: %w", err)
		}
		hv = hv.Round(sensitivityDecimals)
		if o.Normalized {
			if hv, err = hv.ScaleRows(f.Map(func(x float64) float64 { return frame.Finite(1 / x) })); err != nil {
				return nil, fmt.Errorf("allocation: %w", err)
			}
		}
		if err := busBranchEntries(res, sn, d, hv); err != nil {
			return nil, err
		}
	}
	if o.Direction == Both {
		res.Levels = append([]string{LevelSnapshot, LevelDirection}, res.Levels[1:]...)
	}
	sortEntries(res.Entries)

	return res, nil
}

// ownInjection is p⁺ downstream and p⁻ upstream.
func ownInjection(p *frame.Vector, d Direction) *frame.Vector {
	if d == Upstream {
		return p.ClipUpper(0)
	}

	return p.ClipLower(0)
}
