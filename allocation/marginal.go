// SPDX-License-Identifier: MIT

package allocation

import (
	"fmt"
	"time"

	"github.com/katalvlaran/gridflow/frame"
	"github.com/katalvlaran/gridflow/topology"
)

const (
	sensitivityDecimals = 10
	resultDecimals      = 8
)

// MarginalParticipation allocates line flows at sn with the PTDF H.
//
// The injection is split into producers (p⁺) and consumers; k⁺ corrects
// the producer-only flow H·p⁺ so that q·f is reproduced:
//
//	k⁺ = (q·f − H·p⁺) / Σp⁺
//	Q[l, b] = (H[l, b] + k⁺[l]) · p[b]
//
// Only lines are considered. Values may be negative (counter flows).
// PerBus maps Q through the incidence to (source, sink) pairs.
func (e *Engine) MarginalParticipation(sn time.Time, o MarginalParticipation) (*Result, error) {
	h, err := e.linePTDF()
	if err != nil {
		return nil, err
	}
	p, f, err := e.lineState(sn)
	if err != nil {
		return nil, err
	}
	pPlus := p.ClipLower(0)
	fPlus, err := h.MatVec(pPlus)
	if err != nil {
		return nil, fmt.Errorf("allocation: %w", err)
	}
	total := pPlus.Sum()

	q := frame.New(h.Rows(), h.Cols())
	var setErr error
	h.Each(func(l, b string, v float64) {
		fl := f.Get(l)
		k := frame.Finite((o.Q*fl - fPlus.Get(l)) / total)
		x := (v + k) * p.Get(b)
		if o.Normalized {
			x = frame.Finite(x / fl)
		}
		if setErr == nil {
			setErr = q.Set(l, b, frame.Round(x, sensitivityDecimals))
		}
	})
	if setErr != nil {
		return nil, fmt.Errorf("allocation: %w", setErr)
	}

	res := &Result{}
	if o.PerBus {
		g, err := topology.New(e.net, topology.Line)
		if err != nil {
			return nil, err
		}
		kq, err := frame.Mul(g.Incidence(), q)
		if err != nil {
			return nil, fmt.Errorf("allocation: %w", err)
		}
		res.Levels = []string{LevelSnapshot, LevelSource, LevelSink}
		kq.Round(resultDecimals).Each(func(source, sink string, v float64) {
			if keep(v) {
				res.Entries = append(res.Entries, Entry{Snapshot: sn, Source: source, Sink: sink, Value: v})
			}
		})
		sortEntries(res.Entries)

		return res, nil
	}

	res.Levels = []string{LevelSnapshot, LevelBus, LevelBranch}
	if err := busBranchEntries(res, sn, Downstream, q); err != nil {
		return nil, err
	}
	sortEntries(res.Entries)

	return res, nil
}

// busBranchEntries appends the non-zero cells of a branches × buses frame,
// rounded to result precision, as (bus, branch) entries.
func busBranchEntries(res *Result, sn time.Time, d Direction, hb *frame.Frame) error {
	var err error
	hb.Round(resultDecimals).Each(func(branch, bus string, v float64) {
		if err != nil || !keep(v) {
			return
		}
		key, kErr := topology.ParseBranchKey(branch)
		if kErr != nil {
			err = fmt.Errorf("allocation: %w", kErr)
			return
		}
		res.Entries = append(res.Entries, Entry{Snapshot: sn, Direction: d, Bus: bus, Branch: key, Value: v})
	})

	return err
}
