// SPDX-License-Identifier: MIT

// Package network models the solved power network consumed by the
// allocation engine: static component tables plus per-snapshot time series
// produced by an external power-flow solver.
//
// The engine never writes to a Network except through
// CalculateDependentValues, which fills derived per-unit impedances once
// before allocation starts.
package network

import (
	"errors"
	"fmt"
	"time"
)

// CarrierAC is the default bus carrier. Lines whose bus0 carries anything
// else use resistance instead of reactance as their impedance.
const CarrierAC = "AC"

// CarrierLoad is the carrier assigned to every load in carrier breakdowns.
const CarrierLoad = "load"

// Sentinel errors.
var (
	// ErrUnknownSnapshot indicates a snapshot outside Network.Snapshots.
	ErrUnknownSnapshot = errors.New("network: unknown snapshot")

	// ErrDuplicateSnapshot indicates a snapshot listed twice.
	ErrDuplicateSnapshot = errors.New("network: duplicate snapshot")

	// ErrDuplicateName indicates two components of one table sharing a name.
	ErrDuplicateName = errors.New("network: duplicate component name")

	// ErrSeriesLength indicates a time series whose length differs from the
	// number of snapshots.
	ErrSeriesLength = errors.New("network: time series length mismatch")

	// ErrUnknownComponent indicates a time series for a component that is
	// not in its table.
	ErrUnknownComponent = errors.New("network: series for unknown component")

	// ErrInvalidValue indicates a non-physical static attribute
	// (e.g. non-positive nominal voltage).
	ErrInvalidValue = errors.New("network: invalid attribute value")
)

// Bus is a network node.
type Bus struct {
	Name    string  `yaml:"name" json:"name"`
	VNom    float64 `yaml:"v_nom" json:"v_nom"`
	Carrier string  `yaml:"carrier" json:"carrier"`
	Country string  `yaml:"country" json:"country"`
}

// Line is a passive AC (or DC, by bus carrier) branch.
// RPuEff and XPuEff are derived by CalculateDependentValues.
type Line struct {
	Name   string  `yaml:"name" json:"name"`
	Bus0   string  `yaml:"bus0" json:"bus0"`
	Bus1   string  `yaml:"bus1" json:"bus1"`
	R      float64 `yaml:"r" json:"r"`
	X      float64 `yaml:"x" json:"x"`
	RPuEff float64 `yaml:"-" json:"-"`
	XPuEff float64 `yaml:"-" json:"-"`
}

// Link is a controllable branch; its flow is set, not physics-driven.
type Link struct {
	Name       string  `yaml:"name" json:"name"`
	Bus0       string  `yaml:"bus0" json:"bus0"`
	Bus1       string  `yaml:"bus1" json:"bus1"`
	Efficiency float64 `yaml:"efficiency" json:"efficiency"`
}

// OneBus is a single-bus component (generator, load, storage unit).
// Sign converts its reported active power into injection: +1 when positive
// power is produced, -1 when positive power is consumed.
type OneBus struct {
	Name    string  `yaml:"name" json:"name"`
	Bus     string  `yaml:"bus" json:"bus"`
	Carrier string  `yaml:"carrier" json:"carrier"`
	Sign    float64 `yaml:"sign" json:"sign"`
}

// BranchSeries holds per-snapshot active power at both branch ends,
// keyed by branch name.
type BranchSeries struct {
	P0 map[string][]float64 `yaml:"p0" json:"p0"`
	P1 map[string][]float64 `yaml:"p1" json:"p1"`
}

// OneBusSeries holds per-snapshot active power keyed by component name.
type OneBusSeries struct {
	P map[string][]float64 `yaml:"p" json:"p"`
}

// BusSeries holds per-snapshot bus quantities keyed by bus name.
type BusSeries struct {
	VAng map[string][]float64 `yaml:"v_ang" json:"v_ang"`
	P    map[string][]float64 `yaml:"p" json:"p"`
}

// Network is the full solved network.
type Network struct {
	Name      string   `yaml:"name" json:"name"`
	Snapshots Timeline `yaml:"snapshots" json:"snapshots"`

	Buses        []Bus    `yaml:"buses" json:"buses"`
	Lines        []Line   `yaml:"lines" json:"lines"`
	Links        []Link   `yaml:"links" json:"links"`
	Generators   []OneBus `yaml:"generators" json:"generators"`
	Loads        []OneBus `yaml:"loads" json:"loads"`
	StorageUnits []OneBus `yaml:"storage_units" json:"storage_units"`

	BusesT        BusSeries    `yaml:"buses_t" json:"buses_t"`
	LinesT        BranchSeries `yaml:"lines_t" json:"lines_t"`
	LinksT        BranchSeries `yaml:"links_t" json:"links_t"`
	GeneratorsT   OneBusSeries `yaml:"generators_t" json:"generators_t"`
	LoadsT        OneBusSeries `yaml:"loads_t" json:"loads_t"`
	StorageUnitsT OneBusSeries `yaml:"storage_units_t" json:"storage_units_t"`

	snapIdx map[time.Time]int
	snapN   int
}

// SnapshotLabel renders a snapshot as the label used in snapshot-indexed
// frames and staging keys (RFC 3339, UTC).
func SnapshotLabel(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

// SnapshotIndex returns the position of t in n.Snapshots.
// Errors: ErrUnknownSnapshot.
func (n *Network) SnapshotIndex(t time.Time) (int, error) {
	if n.snapIdx == nil || n.snapN != len(n.Snapshots) {
		n.indexSnapshots()
	}
	i, ok := n.snapIdx[t.UTC()]
	if !ok {
		return 0, fmt.Errorf("%s: %w", SnapshotLabel(t), ErrUnknownSnapshot)
	}

	return i, nil
}

func (n *Network) indexSnapshots() {
	n.snapIdx = make(map[time.Time]int, len(n.Snapshots))
	for i, t := range n.Snapshots {
		if _, dup := n.snapIdx[t.UTC()]; !dup {
			n.snapIdx[t.UTC()] = i
		}
	}
	n.snapN = len(n.Snapshots)
}

// CheckSnapshots fails when a snapshot occurs more than once.
// Errors: ErrDuplicateSnapshot.
func (n *Network) CheckSnapshots() error {
	seen := make(map[time.Time]struct{}, len(n.Snapshots))
	var errs []error
	for _, t := range n.Snapshots {
		if _, dup := seen[t.UTC()]; dup {
			errs = append(errs, fmt.Errorf("snapshot %s: %w", SnapshotLabel(t), ErrDuplicateSnapshot))
			continue
		}
		seen[t.UTC()] = struct{}{}
	}

	return errors.Join(errs...)
}

// BusNames returns bus names in table order.
func (n *Network) BusNames() []string {
	out := make([]string, len(n.Buses))
	for i, b := range n.Buses {
		out[i] = b.Name
	}

	return out
}

// Bus returns the bus with the given name.
func (n *Network) Bus(name string) (Bus, bool) {
	for _, b := range n.Buses {
		if b.Name == name {
			return b, true
		}
	}

	return Bus{}, false
}

// HasFlows reports whether any branch flow series is present.
func (n *Network) HasFlows() bool {
	return len(n.LinesT.P0) > 0 || len(n.LinksT.P0) > 0
}

// seriesAt returns series[name][i], treating a missing series as zero.
func seriesAt(series map[string][]float64, name string, i int) float64 {
	s, ok := series[name]
	if !ok || i >= len(s) {
		return 0
	}

	return s[i]
}

// LineP0 returns the bus0-end flow of line name at snapshot position i.
func (n *Network) LineP0(name string, i int) float64 { return seriesAt(n.LinesT.P0, name, i) }

// LineP1 returns the bus1-end flow of line name at snapshot position i.
// A missing p1 series is taken as the lossless mirror -p0.
func (n *Network) LineP1(name string, i int) float64 {
	if _, ok := n.LinesT.P1[name]; !ok {
		return -n.LineP0(name, i)
	}

	return seriesAt(n.LinesT.P1, name, i)
}

// LinkP0 returns the bus0-end flow of link name at snapshot position i.
func (n *Network) LinkP0(name string, i int) float64 { return seriesAt(n.LinksT.P0, name, i) }

// LinkP1 returns the bus1-end flow of link name at snapshot position i.
// A missing p1 series is derived as -efficiency·p0.
func (n *Network) LinkP1(name string, i int) float64 {
	if _, ok := n.LinksT.P1[name]; ok {
		return seriesAt(n.LinksT.P1, name, i)
	}
	eff := 1.0
	for _, l := range n.Links {
		if l.Name == name && l.Efficiency != 0 {
			eff = l.Efficiency
		}
	}

	return -eff * n.LinkP0(name, i)
}

// VAng returns the voltage angle of bus name at snapshot position i.
func (n *Network) VAng(name string, i int) float64 { return seriesAt(n.BusesT.VAng, name, i) }

// OneBusP returns the reported active power of a one-bus component.
func OneBusP(series OneBusSeries, name string, i int) float64 { return seriesAt(series.P, name, i) }

// CalculateDependentValues derives per-unit impedances of lines from their
// series values and the nominal voltage of bus0: x_pu = x / v_nom².
// Defaults are filled for empty carriers and zero signs.
func (n *Network) CalculateDependentValues() {
	vnom := make(map[string]float64, len(n.Buses))
	for i := range n.Buses {
		if n.Buses[i].Carrier == "" {
			n.Buses[i].Carrier = CarrierAC
		}
		vnom[n.Buses[i].Name] = n.Buses[i].VNom
	}
	for i := range n.Lines {
		l := &n.Lines[i]
		v := vnom[l.Bus0]
		if v == 0 {
			v = 1
		}
		l.XPuEff = l.X / (v * v)
		l.RPuEff = l.R / (v * v)
	}
	for i := range n.Links {
		if n.Links[i].Efficiency == 0 {
			n.Links[i].Efficiency = 1
		}
	}
	defaultSign(n.Generators, 1)
	defaultSign(n.Loads, -1)
	defaultSign(n.StorageUnits, 1)
	for i := range n.Loads {
		n.Loads[i].Carrier = CarrierLoad
	}
	n.indexSnapshots()
}

func defaultSign(cs []OneBus, sign float64) {
	for i := range cs {
		if cs[i].Sign == 0 {
			cs[i].Sign = sign
		}
	}
}
