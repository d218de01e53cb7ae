// SPDX-License-Identifier: MIT

package allocation

import (
	"fmt"
	"time"

	"github.com/katalvlaran/gridflow/frame"
	"github.com/katalvlaran/gridflow/injection"
	"github.com/katalvlaran/gridflow/network"
)

// ExpandBySourceType splits every entry of res by the production carriers
// of its source bus, in proportion to each carrier's share of the bus's
// production. Shares at or below cut are dropped (DefaultCutLowerShare when
// cut <= 0), and so are entries whose source produces nothing.
// Kinds default to generators and storage units; their carriers must be
// unique across kinds (*injection.AmbiguousCarrierError).
func (e *Engine) ExpandBySourceType(res *Result, kinds []injection.Kind, cut float64) (*Result, error) {
	return e.expand(res, kinds, cut, true)
}

// ExpandBySinkType is ExpandBySourceType for the demand carriers of each
// entry's sink. Kinds default to loads and storage units.
func (e *Engine) ExpandBySinkType(res *Result, kinds []injection.Kind, cut float64) (*Result, error) {
	return e.expand(res, kinds, cut, false)
}

func (e *Engine) expand(res *Result, kinds []injection.Kind, cut float64, source bool) (*Result, error) {
	level, typeLevel := LevelSink, LevelSinkType
	if source {
		level, typeLevel = LevelSource, LevelSourceType
	}
	if !res.Has(level) {
		return nil, fmt.Errorf("allocation: expand: result has no %s level", level)
	}
	if cut <= 0 {
		cut = DefaultCutLowerShare
	}

	var snaps []time.Time
	seen := make(map[time.Time]bool)
	for _, en := range res.Entries {
		if !seen[en.Snapshot] {
			seen[en.Snapshot] = true
			snaps = append(snaps, en.Snapshot)
		}
	}
	var (
		total *frame.Frame
		tbl   *injection.CarrierTable
		err   error
	)
	if source {
		if total, err = e.agg.PowerProduction(snaps, kinds, false); err == nil {
			tbl, err = e.agg.PowerProductionPerCarrier(snaps, kinds, false)
		}
	} else {
		if total, err = e.agg.PowerDemand(snaps, kinds, false); err == nil {
			tbl, err = e.agg.PowerDemandPerCarrier(snaps, kinds, false)
		}
	}
	if err != nil {
		return nil, err
	}
	byBus := tbl.ByBus()

	out := &Result{}
	for _, l := range res.Levels {
		out.Levels = append(out.Levels, l)
		if l == level {
			out.Levels = append(out.Levels, typeLevel)
		}
	}
	for _, en := range res.Entries {
		bus := en.Sink
		if source {
			bus = en.Source
		}
		sl := network.SnapshotLabel(en.Snapshot)
		sum := total.Get(sl, bus)
		for _, ck := range byBus[bus] {
			share := frame.Finite(tbl.Frame.Get(sl, ck.String()) / sum)
			if share <= cut {
				continue
			}
			x := en
			x.Value = en.Value * share
			if source {
				x.SourceType = ck.Carrier
			} else {
				x.SinkType = ck.Carrier
			}
			out.Entries = append(out.Entries, x)
		}
	}

	return out, nil
}
