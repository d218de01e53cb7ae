// SPDX-License-Identifier: MIT

package allocation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridflow/allocation"
	"github.com/katalvlaran/gridflow/injection"
	"github.com/katalvlaran/gridflow/internal/fixture"
	"github.com/katalvlaran/gridflow/network"
	"github.com/katalvlaran/gridflow/topology"
)

func TestZbusTransmission_TwoBus(t *testing.T) {
	e := MustEngine(t, fixture.TwoBus())

	slack, err := e.SlackBus()
	require.NoError(t, err)
	assert.Equal(t, "A", slack)

	r, err := e.ZbusTransmission(fixture.T0)
	require.NoError(t, err)
	assert.Equal(t, []string{allocation.LevelSnapshot, allocation.LevelBus, allocation.LevelBranch}, r.Levels)
	a, ok := r.Get(onBranch("A", line("l")))
	require.True(t, ok)
	b, ok := r.Get(onBranch("B", line("l")))
	require.True(t, ok)
	assert.InDelta(t, 50, a, tol)
	assert.InDelta(t, 50, b, tol)
}

func TestZbusTransmission_NoSlack(t *testing.T) {
	n := fixture.TwoBus()
	n.BusesT.VAng = map[string][]float64{"A": {0.5}, "B": {-0.5}}

	_, err := MustEngine(t, n).ZbusTransmission(fixture.T0)
	require.ErrorIs(t, err, topology.ErrTopology)
	var te *topology.TopologyError
	assert.ErrorAs(t, err, &te)
}

// chain builds X(FR) → A(DE) → Y(PL) with 100 MW passing through A.
func chain() *network.Network {
	n := &network.Network{
		Name:      "chain",
		Snapshots: network.Timeline{fixture.T0},
		Buses: []network.Bus{
			{Name: "X", VNom: 1, Country: "FR"},
			{Name: "A", VNom: 1, Country: "DE"},
			{Name: "Y", VNom: 1, Country: "PL"},
		},
		Lines: []network.Line{
			{Name: "xa", Bus0: "X", Bus1: "A", R: 0.001, X: 0.01},
			{Name: "ay", Bus0: "A", Bus1: "Y", R: 0.001, X: 0.01},
		},
		Generators: []network.OneBus{{Name: "g", Bus: "X", Carrier: "nuclear"}},
		Loads:      []network.OneBus{{Name: "d", Bus: "Y"}},
		BusesT: network.BusSeries{
			VAng: map[string][]float64{"X": {0}, "A": {-1}, "Y": {-2}},
			P:    map[string][]float64{"X": {100}, "A": {0}, "Y": {-100}},
		},
		LinesT: network.BranchSeries{
			P0: map[string][]float64{"xa": {100}, "ay": {100}},
			P1: map[string][]float64{"xa": {-100}, "ay": {-100}},
		},
		GeneratorsT: network.OneBusSeries{P: map[string][]float64{"g": {100}}},
		LoadsT:      network.OneBusSeries{P: map[string][]float64{"d": {100}}},
	}
	n.CalculateDependentValues()

	return n
}

func TestWithAndWithoutTransit_PureTransit(t *testing.T) {
	tr, err := MustEngine(t, chain()).WithAndWithoutTransit("DE", nil)
	require.NoError(t, err)
	assert.Equal(t, "DE", tr.Region)

	require.Len(t, tr.Flows, 2)
	for _, f := range tr.Flows {
		assert.InDelta(t, 100, f.With, tol, f.Branch.String())
		assert.InDelta(t, 0, f.Without, tol, f.Branch.String())
	}
	require.Len(t, tr.Losses, 1)
	assert.InDelta(t, 20, tr.Losses[0].With, tol)
	assert.InDelta(t, 0, tr.Losses[0].Without, tol)
}

func TestWithAndWithoutTransit_NoTransit(t *testing.T) {
	tr, err := MustEngine(t, fixture.Triangle()).WithAndWithoutTransit("FR", nil)
	require.NoError(t, err)

	got := make(map[string]allocation.TransitFlow)
	for _, f := range tr.Flows {
		got[f.Branch.Name] = f
	}
	require.Len(t, got, 2, "ab does not touch FR")
	assert.InDelta(t, 30, got["bc"].Without, tol)
	assert.InDelta(t, 60, got["ac"].Without, tol)
	for _, f := range got {
		assert.InDelta(t, f.With, f.Without, tol)
	}
	assert.InDelta(t, tr.Losses[0].With, tr.Losses[0].Without, tol)
}

func TestWithAndWithoutTransit_UnknownRegion(t *testing.T) {
	_, err := MustEngine(t, fixture.Triangle()).WithAndWithoutTransit("ES", nil)
	assert.ErrorIs(t, err, allocation.ErrUnknownRegion)
}

func TestExpandBySourceType(t *testing.T) {
	n := fixture.TwoBus()
	n.Generators = append(n.Generators, network.OneBus{Name: "g2", Bus: "A", Carrier: "gas"})
	n.GeneratorsT.P = map[string][]float64{"g": {50}, "g2": {50}}
	e := MustEngine(t, n)

	r, err := e.AverageParticipation(fixture.T0, allocation.AverageParticipation{PerBus: true})
	require.NoError(t, err)
	x, err := e.ExpandBySourceType(r, nil, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{allocation.LevelSnapshot, allocation.LevelSource, allocation.LevelSourceType, allocation.LevelSink}, x.Levels)
	byType := x.Sum(func(e allocation.Entry) string { return e.SourceType })
	require.Len(t, byType, 2)
	assert.InDelta(t, 50, byType["gas"], tol)
	assert.InDelta(t, 50, byType["wind"], tol)
	assert.InDelta(t, r.Total(), x.Total(), tol)
}

func TestExpandBySinkType(t *testing.T) {
	e := MustEngine(t, fixture.TwoBus())
	r, err := e.AverageParticipation(fixture.T0, allocation.AverageParticipation{})
	require.NoError(t, err)

	x, err := e.ExpandBySinkType(r, nil, 0)
	require.NoError(t, err)
	assert.True(t, x.Has(allocation.LevelSinkType))
	require.Equal(t, 1, x.Len())
	assert.Equal(t, network.CarrierLoad, x.Entries[0].SinkType)
	assert.InDelta(t, 100, x.Entries[0].Value, tol)
}

func TestExpand_Errors(t *testing.T) {
	e := MustEngine(t, fixture.TwoBus())
	mp, err := e.MarginalParticipation(fixture.T0, allocation.MarginalParticipation{Q: 0.5})
	require.NoError(t, err)
	_, err = e.ExpandBySourceType(mp, nil, 0)
	assert.ErrorContains(t, err, "no source level")

	n := fixture.TwoBus()
	n.StorageUnits = []network.OneBus{{Name: "s", Bus: "A", Carrier: "wind"}}
	n.StorageUnitsT = network.OneBusSeries{P: map[string][]float64{"s": {0}}}
	e = MustEngine(t, n)
	ap, err := e.AverageParticipation(fixture.T0, allocation.AverageParticipation{PerBus: true})
	require.NoError(t, err)
	_, err = e.ExpandBySourceType(ap, []injection.Kind{injection.Generator, injection.StorageUnit}, 0)
	assert.ErrorIs(t, err, injection.ErrAmbiguousCarrier)
}
