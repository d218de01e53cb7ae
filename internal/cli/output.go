// SPDX-License-Identifier: MIT

package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/katalvlaran/gridflow/allocation"
	"github.com/katalvlaran/gridflow/network"
)

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// field renders one key level of an entry.
func field(e allocation.Entry, level string) string {
	switch level {
	case allocation.LevelSnapshot:
		return network.SnapshotLabel(e.Snapshot)
	case allocation.LevelDirection:
		return e.Direction.String()
	case allocation.LevelSource:
		return e.Source
	case allocation.LevelSink:
		return e.Sink
	case allocation.LevelBus:
		return e.Bus
	case allocation.LevelBranch:
		return e.Branch.String()
	case allocation.LevelSourceType:
		return e.SourceType
	case allocation.LevelSinkType:
		return e.SinkType
	}

	return ""
}

// writeResult writes one row per entry: the result's levels, then value.
func writeResult(w io.Writer, r *allocation.Result, format string) error {
	if format == "json" {
		rows := make([]map[string]any, 0, r.Len())
		for _, e := range r.Entries {
			row := make(map[string]any, len(r.Levels)+1)
			for _, l := range r.Levels {
				row[l] = field(e, l)
			}
			row["value"] = e.Value
			rows = append(rows, row)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(map[string]any{"levels": r.Levels, "entries": rows})
	}

	cw := csv.NewWriter(w)
	header := append(append([]string(nil), r.Levels...), "value")
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, e := range r.Entries {
		rec := make([]string, 0, len(header))
		for _, l := range r.Levels {
			rec = append(rec, field(e, l))
		}
		if err := cw.Write(append(rec, formatFloat(e.Value))); err != nil {
			return err
		}
	}
	cw.Flush()

	return cw.Error()
}

type transitRow struct {
	Kind     string  `json:"kind"`
	Snapshot string  `json:"snapshot"`
	Branch   string  `json:"branch,omitempty"`
	With     float64 `json:"with"`
	Without  float64 `json:"without"`
}

// writeTransit writes branch flows followed by the regional losses.
func writeTransit(w io.Writer, t *allocation.Transit, format string) error {
	rows := make([]transitRow, 0, len(t.Flows)+len(t.Losses))
	for _, f := range t.Flows {
		rows = append(rows, transitRow{"flow", network.SnapshotLabel(f.Snapshot), f.Branch.String(), f.With, f.Without})
	}
	for _, l := range t.Losses {
		rows = append(rows, transitRow{"loss", network.SnapshotLabel(l.Snapshot), "", l.With, l.Without})
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(map[string]any{"region": t.Region, "rows": rows})
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"kind", "snapshot", "branch", "with", "without"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Kind, r.Snapshot, r.Branch, formatFloat(r.With), formatFloat(r.Without)}); err != nil {
			return fmt.Errorf("write transit: %w", err)
		}
	}
	cw.Flush()

	return cw.Error()
}
