// SPDX-License-Identifier: MIT

package injection

import (
	"math"
	"time"

	"github.com/katalvlaran/gridflow/frame"
)

// DefaultBalanceTolerance bounds the per-bus mismatch accepted by IsBalanced.
const DefaultBalanceTolerance = 1e-9

// Imbalance returns, per snapshot and bus, the branch-flow injection minus
// the one-bus balance (production - demand). A solved network yields zeros.
func (a *Aggregator) Imbalance(snapshots []time.Time) (*frame.Frame, error) {
	inj, err := a.NetworkInjection(snapshots)
	if err != nil {
		return nil, err
	}
	prod, err := a.PowerProduction(snapshots, nil, false)
	if err != nil {
		return nil, err
	}
	dem, err := a.PowerDemand(snapshots, nil, false)
	if err != nil {
		return nil, err
	}
	bal, err := frame.Sub(prod, dem)
	if err != nil {
		return nil, err
	}

	return frame.Sub(inj, bal)
}

// IsBalanced reports whether branch flows and component dispatch agree at
// every bus and snapshot within tol (DefaultBalanceTolerance when tol <= 0).
func (a *Aggregator) IsBalanced(tol float64) (bool, error) {
	if tol <= 0 {
		tol = DefaultBalanceTolerance
	}
	d, err := a.Imbalance(nil)
	if err != nil {
		return false, err
	}
	worst := 0.0
	d.Each(func(_, _ string, v float64) { worst = math.Max(worst, math.Abs(v)) })

	return worst < tol, nil
}
