// SPDX-License-Identifier: MIT

package injection_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridflow/injection"
	"github.com/katalvlaran/gridflow/internal/fixture"
	"github.com/katalvlaran/gridflow/network"
	"github.com/katalvlaran/gridflow/topology"
)

var t0 = network.SnapshotLabel(fixture.T0)

func TestNetworkInjection(t *testing.T) {
	tests := []struct {
		name       string
		net        *network.Network
		components []topology.Component
		want       map[string]float64
	}{
		{"two-bus", fixture.TwoBus(), nil, map[string]float64{"A": 100, "B": -100}},
		{"triangle", fixture.Triangle(), nil, map[string]float64{"A": 90, "B": 0, "C": -90}},
		{"link network", fixture.MeshWithLink(), nil, map[string]float64{"A": 100, "B": 0, "C": -50, "D": -50}},
		{"lines only", fixture.MeshWithLink(), []topology.Component{topology.Line}, map[string]float64{"A": 100, "C": -100, "D": 0}},
		{"links only", fixture.MeshWithLink(), []topology.Component{topology.Link}, map[string]float64{"A": 0, "C": 50, "D": -50}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := injection.NewAggregator(tc.net).NetworkInjection(nil, tc.components...)
			require.NoError(t, err)
			for bus, want := range tc.want {
				assert.Equal(t, want, p.Get(t0, bus), bus)
			}
			assert.InDelta(t, 0, p.RowSums().Get(t0), 1e-9)
		})
	}
}

func TestProductionDemand(t *testing.T) {
	agg := injection.NewAggregator(fixture.TwoSources())

	prod, err := agg.PowerProduction(nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 70.0, prod.Get(t0, "A"))
	assert.Equal(t, 30.0, prod.Get(t0, "B"))
	assert.Equal(t, 0.0, prod.Get(t0, "C"))

	dem, err := agg.PowerDemand(nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 10.0, dem.Get(t0, "A"))
	assert.Equal(t, 90.0, dem.Get(t0, "C"))

	self, err := agg.SelfConsumption(nil, false)
	require.NoError(t, err)
	assert.Equal(t, 10.0, self.Get(t0, "A"))
	assert.Equal(t, 0.0, self.Get(t0, "B"))
	self.Each(func(r, c string, v float64) {
		assert.LessOrEqual(t, v, prod.Get(r, c))
		assert.LessOrEqual(t, v, dem.Get(r, c))
	})
}

func TestStorageSplitsIntoBothHalves(t *testing.T) {
	n := fixture.TwoBus()
	n.StorageUnits = []network.OneBus{{Name: "s", Bus: "B", Carrier: "battery", Sign: 1}}
	n.StorageUnitsT.P = map[string][]float64{"s": {-20}}
	agg := injection.NewAggregator(n)

	prod, err := agg.PowerProduction(nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, prod.Get(t0, "B"))

	dem, err := agg.PowerDemand(nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 120.0, dem.Get(t0, "B"))

	onlyLoads, err := agg.PowerDemand(nil, []injection.Kind{injection.Load}, false)
	require.NoError(t, err)
	assert.Equal(t, 100.0, onlyLoads.Get(t0, "B"))
}

func TestCache_IdempotentAndUpdate(t *testing.T) {
	n := fixture.TwoBus()
	agg := injection.NewAggregator(n)

	first, err := agg.PowerProduction(nil, nil, false)
	require.NoError(t, err)
	n.GeneratorsT.P["g"] = []float64{80}

	cached, err := agg.PowerProduction(nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, first.Dense().Raw(), cached.Dense().Raw())

	fresh, err := agg.PowerProduction(nil, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 80.0, fresh.Get(t0, "A"))

	n.GeneratorsT.P["g"] = []float64{60}
	agg.Invalidate()
	after, err := agg.PowerProduction(nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 60.0, after.Get(t0, "A"))
}

func TestCache_KeyedBySnapshotSet(t *testing.T) {
	n := fixture.TwoBusOver(fixture.Hours(fixture.T0, 3))
	agg := injection.NewAggregator(n)
	_, err := agg.NetworkInjection(nil)
	require.NoError(t, err)

	n.Snapshots = n.Snapshots[:2]
	for k := range n.LinesT.P0 {
		n.LinesT.P0[k] = n.LinesT.P0[k][:2]
		n.LinesT.P1[k] = n.LinesT.P1[k][:2]
	}
	p, err := agg.NetworkInjection(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Rows().Len())
}

func TestSnapshotSelection(t *testing.T) {
	n := fixture.TwoBusOver(fixture.Hours(fixture.T0, 3))
	agg := injection.NewAggregator(n)

	p, err := agg.PowerProduction([]time.Time{n.Snapshots[2], n.Snapshots[0]}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{network.SnapshotLabel(n.Snapshots[2]), t0}, p.Rows().Labels())

	_, err = agg.PowerProduction([]time.Time{time.Unix(0, 0)}, nil, false)
	assert.ErrorIs(t, err, network.ErrUnknownSnapshot)
}

func TestPerCarrier(t *testing.T) {
	agg := injection.NewAggregator(fixture.TwoSources())

	tbl, err := agg.PowerProductionPerCarrier(nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []injection.CarrierKey{{Bus: "A", Carrier: "gas"}, {Bus: "B", Carrier: "solar"}}, tbl.Keys)
	assert.Equal(t, 70.0, tbl.Frame.Get(t0, "A@gas"))

	dem, err := agg.PowerDemandPerCarrier(nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 90.0, dem.Frame.Get(t0, "C@load"))
	assert.Len(t, dem.ByBus()["A"], 1)
}

func TestPerCarrier_Ambiguous(t *testing.T) {
	n := fixture.TwoSources()
	n.StorageUnits = []network.OneBus{{Name: "s", Bus: "C", Carrier: "gas", Sign: 1}}
	n.StorageUnitsT.P = map[string][]float64{"s": {0}}

	_, err := injection.NewAggregator(n).PowerProductionPerCarrier(nil, nil, false)
	require.ErrorIs(t, err, injection.ErrAmbiguousCarrier)

	var ace *injection.AmbiguousCarrierError
	require.True(t, errors.As(err, &ace))
	assert.Equal(t, []string{"gas"}, ace.Carriers)
	assert.Equal(t, []injection.Kind{injection.Generator, injection.StorageUnit}, ace.Components)
}

func TestIsBalanced(t *testing.T) {
	for _, n := range []*network.Network{fixture.TwoBus(), fixture.TwoSources(), fixture.MeshWithLink()} {
		ok, err := injection.NewAggregator(n).IsBalanced(0)
		require.NoError(t, err)
		assert.True(t, ok, n.Name)
	}

	n := fixture.TwoBus()
	n.LoadsT.P["d"] = []float64{90}
	ok, err := injection.NewAggregator(n).IsBalanced(0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWarm(t *testing.T) {
	require.NoError(t, injection.NewAggregator(fixture.MeshWithLink()).Warm())
}

func TestCache_PerSnapshotCostIndependentOfHorizon(t *testing.T) {
	// Allocations of one cached single-snapshot read must not grow with the
	// number of snapshots in the network.
	allocsAt := func(hours int) map[string]float64 {
		n := fixture.TwoBusOver(fixture.Hours(fixture.T0, hours))
		agg := injection.NewAggregator(n)
		require.NoError(t, agg.Warm())
		sn := []time.Time{n.Snapshots[hours/2]}

		return map[string]float64{
			"injection":  testing.AllocsPerRun(20, func() { _, _ = agg.NetworkInjection(sn) }),
			"production": testing.AllocsPerRun(20, func() { _, _ = agg.PowerProduction(sn, nil, false) }),
			"self":       testing.AllocsPerRun(20, func() { _, _ = agg.SelfConsumption(sn, false) }),
		}
	}
	short, long := allocsAt(10), allocsAt(2000)
	for name, want := range short {
		assert.LessOrEqual(t, long[name], want+1, name)
	}
}

func TestCache_DuplicateSnapshots(t *testing.T) {
	n := fixture.TwoBusOver(network.Timeline{fixture.T0, fixture.T0})
	agg := injection.NewAggregator(n)

	require.NotPanics(t, func() {
		_, err := agg.NetworkInjection(nil)
		assert.ErrorIs(t, err, network.ErrDuplicateSnapshot)
		_, err = agg.Imbalance(nil)
		assert.ErrorIs(t, err, network.ErrDuplicateSnapshot)
	})
}

func TestCache_ReplacedTimeline(t *testing.T) {
	n := fixture.TwoBusOver(fixture.Hours(fixture.T0, 2))
	agg := injection.NewAggregator(n)
	p, err := agg.PowerProduction(nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, t0, p.Rows().Label(0))

	// Same length, new slice: the cache must not serve the old axis.
	n.Snapshots = fixture.Hours(fixture.T0.Add(24*time.Hour), 2)
	p, err = agg.PowerProduction(nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, network.SnapshotLabel(n.Snapshots[0]), p.Rows().Label(0))
}
