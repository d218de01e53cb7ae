// SPDX-License-Identifier: MIT

// Package fixture builds small solved networks shared by package tests.
// All networks use v_nom = 1 and x = 0.01 per line, so per-unit values equal
// physical ones and DC angles are easy to verify by hand.
package fixture

import (
	"time"

	"github.com/katalvlaran/gridflow/network"
)

// T0 is the first snapshot of every fixture.
var T0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Hours returns n hourly snapshots starting at start.
func Hours(start time.Time, n int) network.Timeline {
	out := make(network.Timeline, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * time.Hour)
	}

	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}

	return out
}

// TwoBus: generator g at A (100 MW), load d at B (100 MW), line l A→B.
func TwoBus() *network.Network {
	return TwoBusOver(network.Timeline{T0})
}

// TwoBusOver is TwoBus repeated unchanged over the given snapshots.
func TwoBusOver(snapshots network.Timeline) *network.Network {
	ns := len(snapshots)
	n := &network.Network{
		Name:      "two-bus",
		Snapshots: snapshots,
		Buses: []network.Bus{
			{Name: "A", VNom: 1, Country: "DE"},
			{Name: "B", VNom: 1, Country: "FR"},
		},
		Lines:      []network.Line{{Name: "l", Bus0: "A", Bus1: "B", R: 0.001, X: 0.01}},
		Generators: []network.OneBus{{Name: "g", Bus: "A", Carrier: "wind"}},
		Loads:      []network.OneBus{{Name: "d", Bus: "B"}},
		BusesT: network.BusSeries{
			VAng: map[string][]float64{"A": repeat(0, ns), "B": repeat(-1, ns)},
			P:    map[string][]float64{"A": repeat(100, ns), "B": repeat(-100, ns)},
		},
		LinesT: network.BranchSeries{
			P0: map[string][]float64{"l": repeat(100, ns)},
			P1: map[string][]float64{"l": repeat(-100, ns)},
		},
		GeneratorsT: network.OneBusSeries{P: map[string][]float64{"g": repeat(100, ns)}},
		LoadsT:      network.OneBusSeries{P: map[string][]float64{"d": repeat(100, ns)}},
	}
	n.CalculateDependentValues()

	return n
}

// Triangle: generator at A (90 MW), load at C (90 MW), B without injection.
// Lines ab A→B, bc B→C, ac A→C carry 30, 30 and 60 MW.
func Triangle() *network.Network {
	n := &network.Network{
		Name:      "triangle",
		Snapshots: network.Timeline{T0},
		Buses: []network.Bus{
			{Name: "A", VNom: 1, Country: "DE"},
			{Name: "B", VNom: 1, Country: "DE"},
			{Name: "C", VNom: 1, Country: "FR"},
		},
		Lines: []network.Line{
			{Name: "ab", Bus0: "A", Bus1: "B", R: 0.001, X: 0.01},
			{Name: "bc", Bus0: "B", Bus1: "C", R: 0.001, X: 0.01},
			{Name: "ac", Bus0: "A", Bus1: "C", R: 0.001, X: 0.01},
		},
		Generators: []network.OneBus{{Name: "g", Bus: "A", Carrier: "gas"}},
		Loads:      []network.OneBus{{Name: "d", Bus: "C"}},
		BusesT: network.BusSeries{
			VAng: map[string][]float64{"A": {0}, "B": {-0.3}, "C": {-0.6}},
			P:    map[string][]float64{"A": {90}, "B": {0}, "C": {-90}},
		},
		LinesT: network.BranchSeries{
			P0: map[string][]float64{"ab": {30}, "bc": {30}, "ac": {60}},
			P1: map[string][]float64{"ab": {-30}, "bc": {-30}, "ac": {-60}},
		},
		GeneratorsT: network.OneBusSeries{P: map[string][]float64{"g": {90}}},
		LoadsT:      network.OneBusSeries{P: map[string][]float64{"d": {90}}},
	}
	n.CalculateDependentValues()

	return n
}

// TwoSources: generators at A (60 MW) and B (30 MW), load at C (90 MW) on
// the triangle topology, plus a local 10 MW load at A served by its own
// generator (self-consumption). Lines ab, bc, ac carry 10, 40 and 50 MW.
func TwoSources() *network.Network {
	n := Triangle()
	n.Name = "two-sources"
	n.Generators = []network.OneBus{
		{Name: "gA", Bus: "A", Carrier: "gas", Sign: 1},
		{Name: "gB", Bus: "B", Carrier: "solar", Sign: 1},
	}
	n.Loads = []network.OneBus{
		{Name: "dA", Bus: "A", Carrier: network.CarrierLoad, Sign: -1},
		{Name: "dC", Bus: "C", Carrier: network.CarrierLoad, Sign: -1},
	}
	n.GeneratorsT.P = map[string][]float64{"gA": {70}, "gB": {30}}
	n.LoadsT.P = map[string][]float64{"dA": {10}, "dC": {90}}
	// Net injection A=60, B=30, C=-90 over equal reactances.
	n.LinesT.P0 = map[string][]float64{"ab": {10}, "bc": {40}, "ac": {50}}
	n.LinesT.P1 = map[string][]float64{"ab": {-10}, "bc": {-40}, "ac": {-50}}
	n.BusesT.VAng = map[string][]float64{"A": {0}, "B": {-0.1}, "C": {-0.5}}
	n.BusesT.P = map[string][]float64{"A": {60}, "B": {30}, "C": {-90}}

	return n
}

// MeshWithLink: the triangle with an extra bus D fed from C over link k
// (50 MW). Generation 100 MW at A, loads of 50 MW at C and D. Lines ab, bc,
// ac carry 100/3, 100/3 and 200/3 MW.
func MeshWithLink() *network.Network {
	n := Triangle()
	n.Name = "mesh-with-link"
	n.Buses = append(n.Buses, network.Bus{Name: "D", VNom: 1, Country: "FR"})
	n.Links = []network.Link{{Name: "k", Bus0: "C", Bus1: "D", Efficiency: 1}}
	n.Loads = []network.OneBus{
		{Name: "dC", Bus: "C", Carrier: network.CarrierLoad, Sign: -1},
		{Name: "dD", Bus: "D", Carrier: network.CarrierLoad, Sign: -1},
	}
	n.GeneratorsT.P = map[string][]float64{"g": {100}}
	n.LoadsT.P = map[string][]float64{"dC": {50}, "dD": {50}}
	third := 100.0 / 3
	n.LinesT.P0 = map[string][]float64{"ab": {third}, "bc": {third}, "ac": {2 * third}}
	n.LinesT.P1 = map[string][]float64{"ab": {-third}, "bc": {-third}, "ac": {-2 * third}}
	n.LinksT.P0 = map[string][]float64{"k": {50}}
	n.LinksT.P1 = map[string][]float64{"k": {-50}}
	n.BusesT.VAng = map[string][]float64{"A": {0}, "B": {-third / 100}, "C": {-2 * third / 100}, "D": {-2 * third / 100}}
	n.BusesT.P = map[string][]float64{"A": {100}, "B": {0}, "C": {-100}, "D": {0}}
	n.CalculateDependentValues()

	return n
}
