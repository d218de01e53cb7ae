// SPDX-License-Identifier: MIT

package network

import (
	"errors"
	"fmt"
)

// Validate checks structural consistency: unique snapshots and component
// names, positive nominal voltages, and time series that match the snapshot
// count and name known components. Branch endpoints are checked by the topology adapter,
// which owns TopologyError.
func (n *Network) Validate() error {
	var errs []error
	if err := n.CheckSnapshots(); err != nil {
		errs = append(errs, err)
	}

	buses := make(map[string]struct{}, len(n.Buses))
	for _, b := range n.Buses {
		if _, dup := buses[b.Name]; dup {
			errs = append(errs, fmt.Errorf("bus %q: %w", b.Name, ErrDuplicateName))
		}
		buses[b.Name] = struct{}{}
		if b.VNom < 0 {
			errs = append(errs, fmt.Errorf("bus %q v_nom=%g: %w", b.Name, b.VNom, ErrInvalidValue))
		}
	}

	lines := names(len(n.Lines), func(i int) string { return n.Lines[i].Name })
	links := names(len(n.Links), func(i int) string { return n.Links[i].Name })
	gens := names(len(n.Generators), func(i int) string { return n.Generators[i].Name })
	loads := names(len(n.Loads), func(i int) string { return n.Loads[i].Name })
	stores := names(len(n.StorageUnits), func(i int) string { return n.StorageUnits[i].Name })

	for table, set := range map[string]nameSet{
		"line": lines, "link": links, "generator": gens, "load": loads, "storage_unit": stores,
	} {
		for _, d := range set.dups {
			errs = append(errs, fmt.Errorf("%s %q: %w", table, d, ErrDuplicateName))
		}
	}

	ns := len(n.Snapshots)
	errs = append(errs, checkSeries("lines_t.p0", n.LinesT.P0, lines.seen, ns)...)
	errs = append(errs, checkSeries("lines_t.p1", n.LinesT.P1, lines.seen, ns)...)
	errs = append(errs, checkSeries("links_t.p0", n.LinksT.P0, links.seen, ns)...)
	errs = append(errs, checkSeries("links_t.p1", n.LinksT.P1, links.seen, ns)...)
	errs = append(errs, checkSeries("generators_t.p", n.GeneratorsT.P, gens.seen, ns)...)
	errs = append(errs, checkSeries("loads_t.p", n.LoadsT.P, loads.seen, ns)...)
	errs = append(errs, checkSeries("storage_units_t.p", n.StorageUnitsT.P, stores.seen, ns)...)
	errs = append(errs, checkSeries("buses_t.v_ang", n.BusesT.VAng, buses, ns)...)
	errs = append(errs, checkSeries("buses_t.p", n.BusesT.P, buses, ns)...)

	return errors.Join(errs...)
}

type nameSet struct {
	seen map[string]struct{}
	dups []string
}

func names(n int, at func(int) string) nameSet {
	s := nameSet{seen: make(map[string]struct{}, n)}
	for i := 0; i < n; i++ {
		name := at(i)
		if _, dup := s.seen[name]; dup {
			s.dups = append(s.dups, name)
		}
		s.seen[name] = struct{}{}
	}

	return s
}

func checkSeries(table string, series map[string][]float64, known map[string]struct{}, ns int) []error {
	var errs []error
	for name, vals := range series {
		if _, ok := known[name]; !ok {
			errs = append(errs, fmt.Errorf("%s[%q]: %w", table, name, ErrUnknownComponent))
			continue
		}
		if len(vals) != ns {
			errs = append(errs, fmt.Errorf("%s[%q] has %d values for %d snapshots: %w",
				table, name, len(vals), ns, ErrSeriesLength))
		}
	}

	return errs
}
