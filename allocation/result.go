// SPDX-License-Identifier: MIT

package allocation

import (
	"sort"
	"time"

	"github.com/katalvlaran/gridflow/topology"
)

// Key levels of a result.
const (
	LevelSnapshot   = "snapshot"
	LevelDirection  = "direction"
	LevelSource     = "source"
	LevelSink       = "sink"
	LevelBus        = "bus"
	LevelBranch     = "branch"
	LevelSourceType = "sourcetype"
	LevelSinkType   = "sinktype"
)

// Entry is one allocated value. Which key fields are meaningful is given
// by the Levels of the enclosing Result.
type Entry struct {
	Snapshot   time.Time
	Direction  Direction
	Source     string
	Sink       string
	Bus        string
	Branch     topology.BranchKey
	SourceType string
	SinkType   string
	Value      float64
}

// Result is a labeled series of allocated values in snapshot order.
type Result struct {
	Levels  []string
	Entries []Entry
}

// Len returns the number of entries.
func (r *Result) Len() int { return len(r.Entries) }

// Total sums all values.
func (r *Result) Total() float64 {
	var s float64
	for _, e := range r.Entries {
		s += e.Value
	}

	return s
}

// Sum groups values by key and sums them.
func (r *Result) Sum(key func(Entry) string) map[string]float64 {
	out := make(map[string]float64)
	for _, e := range r.Entries {
		out[key(e)] += e.Value
	}

	return out
}

// Filter returns the entries for which keep is true, with the same levels.
func (r *Result) Filter(keep func(Entry) bool) *Result {
	out := &Result{Levels: r.Levels}
	for _, e := range r.Entries {
		if keep(e) {
			out.Entries = append(out.Entries, e)
		}
	}

	return out
}

// Get returns the value of the first entry matching keep.
func (r *Result) Get(keep func(Entry) bool) (float64, bool) {
	for _, e := range r.Entries {
		if keep(e) {
			return e.Value, true
		}
	}

	return 0, false
}

// Has reports whether the result is keyed by level.
func (r *Result) Has(level string) bool {
	for _, l := range r.Levels {
		if l == level {
			return true
		}
	}

	return false
}

// concat joins per-snapshot results in order. Levels are taken from the
// first non-empty part.
func concat(parts []*Result) *Result {
	out := &Result{}
	n := 0
	for _, p := range parts {
		if p == nil {
			continue
		}
		if out.Levels == nil {
			out.Levels = p.Levels
		}
		n += len(p.Entries)
	}
	out.Entries = make([]Entry, 0, n)
	for _, p := range parts {
		if p != nil {
			out.Entries = append(out.Entries, p.Entries...)
		}
	}

	return out
}

// sortEntries orders entries by their key fields for deterministic output.
func sortEntries(es []Entry) {
	sort.SliceStable(es, func(i, j int) bool {
		a, b := es[i], es[j]
		switch {
		case a.Direction != b.Direction:
			return a.Direction < b.Direction
		case a.Source != b.Source:
			return a.Source < b.Source
		case a.Sink != b.Sink:
			return a.Sink < b.Sink
		case a.Bus != b.Bus:
			return a.Bus < b.Bus
		default:
			return a.Branch.String() < b.Branch.String()
		}
	})
}
