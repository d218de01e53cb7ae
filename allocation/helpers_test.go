// SPDX-License-Identifier: MIT

package allocation_test

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridflow/allocation"
	"github.com/katalvlaran/gridflow/network"
	"github.com/katalvlaran/gridflow/topology"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// MustEngine builds an engine with a silent logger.
func MustEngine(t *testing.T, n *network.Network, opts ...allocation.Option) *allocation.Engine {
	t.Helper()
	e, err := allocation.NewEngine(n, append([]allocation.Option{allocation.WithLogger(quiet)}, opts...)...)
	require.NoError(t, err)

	return e
}

func line(name string) topology.BranchKey {
	return topology.BranchKey{Component: topology.Line, Name: name}
}

func peer(source, sink string) func(allocation.Entry) bool {
	return func(e allocation.Entry) bool { return e.Source == source && e.Sink == sink }
}

func onBranch(bus string, br topology.BranchKey) func(allocation.Entry) bool {
	return func(e allocation.Entry) bool { return e.Bus == bus && e.Branch == br }
}

func byBranch(e allocation.Entry) string { return e.Branch.String() }

func bySource(e allocation.Entry) string { return e.Source }

func bySink(e allocation.Entry) string { return e.Sink }

// busBranchMap flattens (bus, branch) entries for comparison.
func busBranchMap(r *allocation.Result) map[string]float64 {
	return r.Sum(func(e allocation.Entry) string { return e.Bus + "|" + e.Branch.String() })
}

// RequireFinite fails on any NaN or Inf value.
func RequireFinite(t *testing.T, r *allocation.Result) {
	t.Helper()
	for _, e := range r.Entries {
		require.False(t, math.IsNaN(e.Value) || math.IsInf(e.Value, 0), "%+v", e)
	}
}
