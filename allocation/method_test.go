// SPDX-License-Identifier: MIT

package allocation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridflow/allocation"
	"github.com/katalvlaran/gridflow/internal/fixture"
	"github.com/katalvlaran/gridflow/network"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		name string
		want allocation.Method
	}{
		{"Average participation", allocation.AverageParticipation{}},
		{"average_participation", allocation.AverageParticipation{}},
		{"ap", allocation.AverageParticipation{}},
		{"AP", allocation.AverageParticipation{}},
		{"Marginal participation", allocation.MarginalParticipation{Q: allocation.DefaultQ}},
		{"mp", allocation.MarginalParticipation{Q: allocation.DefaultQ}},
		{"Virtual injection pattern", allocation.VirtualInjectionPattern{}},
		{"vip", allocation.VirtualInjectionPattern{}},
		{"Minimal flow shares", allocation.OptimalFlowShares{}},
		{"mfs", allocation.OptimalFlowShares{}},
		{"optimal_flow_shares", allocation.OptimalFlowShares{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := allocation.ParseMethod(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.want, m)
		})
	}
}

func TestParseMethod_Unsupported(t *testing.T) {
	_, err := allocation.ParseMethod("least squares")
	require.ErrorIs(t, err, allocation.ErrUnsupportedMethod)

	var ume *allocation.UnsupportedMethodError
	require.True(t, errors.As(err, &ume))
	assert.Equal(t, "least squares", ume.Name)
	assert.Contains(t, ume.Valid, "vip")
	assert.Contains(t, err.Error(), "average_participation")
}

func TestParseDirectionObjective(t *testing.T) {
	d, err := allocation.ParseDirection("Upstream")
	require.NoError(t, err)
	assert.Equal(t, allocation.Upstream, d)
	assert.Equal(t, "both", allocation.Both.String())
	_, err = allocation.ParseDirection("sideways")
	assert.Error(t, err)

	o, err := allocation.ParseObjective("max")
	require.NoError(t, err)
	assert.Equal(t, allocation.Max, o)
	_, err = allocation.ParseObjective("median")
	assert.Error(t, err)
}

func TestNewEngine_NoFlowData(t *testing.T) {
	n := fixture.TwoBus()
	n.LinesT = network.BranchSeries{}

	_, err := allocation.NewEngine(n)
	require.ErrorIs(t, err, allocation.ErrNoFlowData)
	var nfe *allocation.NoFlowDataError
	require.True(t, errors.As(err, &nfe))
	assert.Equal(t, "two-bus", nfe.Network)

	_, err = allocation.NewEngine(nil)
	assert.ErrorIs(t, err, allocation.ErrNoFlowData)
}

func TestNewEngine_OnlyFillsDependentValues(t *testing.T) {
	n := fixture.TwoBus()
	n.Lines[0].XPuEff = 0
	n.Loads[0].Sign = 0

	e := MustEngine(t, n)
	assert.InDelta(t, 0.01, n.Lines[0].XPuEff, 1e-15)
	assert.Equal(t, -1.0, n.Loads[0].Sign)

	_, err := e.Allocate(context.Background(), nil, allocation.NewMarginalParticipation())
	require.NoError(t, err)
	assert.Equal(t, fixture.TwoBus(), n, "allocation leaves the network untouched")
}

func TestMarginalParticipation_ZeroValueIsDemandDriven(t *testing.T) {
	assert.Equal(t, allocation.DefaultQ, allocation.NewMarginalParticipation().Q)

	e := MustEngine(t, fixture.TwoBus())
	zero, err := e.MarginalParticipation(fixture.T0, allocation.MarginalParticipation{})
	require.NoError(t, err)
	got := busBranchMap(zero)
	assert.Len(t, got, 1)
	assert.InDelta(t, 100, got["B|Line:l"], tol)

	def, err := e.MarginalParticipation(fixture.T0, allocation.NewMarginalParticipation())
	require.NoError(t, err)
	got = busBranchMap(def)
	assert.InDelta(t, 50, got["A|Line:l"], tol)
	assert.InDelta(t, 50, got["B|Line:l"], tol)
}

func TestWithParallel_PanicsOnNegative(t *testing.T) {
	assert.Panics(t, func() { allocation.WithParallel(-1) })
	assert.Panics(t, func() { allocation.WithBalanceTolerance(-1) })
}
