// SPDX-License-Identifier: MIT

package cli

import (
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/gridflow/allocation"
	"github.com/katalvlaran/gridflow/injection"
	"github.com/katalvlaran/gridflow/network"
)

// ErrUnbalanced is returned by the balance command when branch flows and
// dispatch disagree.
var ErrUnbalanced = errors.New("network is not balanced")

func (a *app) allocateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocate CASE",
		Short: "Allocate the branch flows of a case file",
		Long: `Allocate the flows of every snapshot of CASE with one method:

  average_participation (ap)      proportional sharing
  marginal_participation (mp)     PTDF sensitivities, producers/consumers weighted by q
  virtual_injection_pattern (vip) superposed virtual injection patterns
  optimal_flow_shares (ofs, mfs)  quadratic optimization of color flows`,
		Args: cobra.ExactArgs(1),
		RunE: a.runAllocate,
	}
	f := cmd.Flags()
	f.StringP("method", "m", "", "allocation method")
	f.Bool("per-bus", false, "peer-to-peer (source, sink) instead of per branch")
	f.Bool("normalized", false, "divide by the allocated flow")
	f.Float64("q", 0, "marginal participation producer weight in [0, 1]")
	f.String("direction", "", "downstream, upstream or both")
	f.String("objective", "", "optimal flow shares objective: min or max")
	f.Bool("source-type", false, "split sources by production carrier")
	f.Bool("sink-type", false, "split sinks by demand carrier")
	f.Bool("parallel", false, "allocate snapshots on a worker pool")
	f.Int("workers", 0, "parallel workers (0 = number of CPUs)")
	f.Bool("staged", false, "park monthly chunks on disk")
	f.String("stage-dir", "", "directory for the staging store (implies --staged)")

	return cmd
}

func (a *app) runAllocate(cmd *cobra.Command, args []string) error {
	m, err := a.cfg.AllocationMethod()
	if err != nil {
		return err
	}
	n, err := network.Load(args[0])
	if err != nil {
		return err
	}
	e, err := allocation.NewEngine(n, a.cfg.EngineOptions(a.log)...)
	if err != nil {
		return err
	}
	res, err := e.Allocate(cmd.Context(), nil, m)
	if err != nil {
		return err
	}
	if a.cfg.SourceType {
		if res, err = e.ExpandBySourceType(res, nil, 0); err != nil {
			return err
		}
	}
	if a.cfg.SinkType {
		if res, err = e.ExpandBySinkType(res, nil, 0); err != nil {
			return err
		}
	}

	return writeResult(cmd.OutOrStdout(), res, a.cfg.Format)
}

func (a *app) transitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transit CASE REGION",
		Short: "Compare regional flows and losses with and without transit",
		Long: `Compare, for the buses of CASE whose country is REGION, the actual branch
flows and ohmic losses with those obtained when the border exchange is
reduced to the region's net import or export.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := network.Load(args[0])
			if err != nil {
				return err
			}
			e, err := allocation.NewEngine(n, allocation.WithLogger(a.log))
			if err != nil {
				return err
			}
			t, err := e.WithAndWithoutTransit(args[1], nil)
			if err != nil {
				return err
			}

			return writeTransit(cmd.OutOrStdout(), t, a.cfg.Format)
		},
	}
}

func (a *app) balanceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance CASE",
		Short: "Check that branch flows match the dispatch at every bus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tol, _ := cmd.Flags().GetFloat64("tol")
			n, err := network.Load(args[0])
			if err != nil {
				return err
			}
			agg := injection.NewAggregator(n)
			d, err := agg.Imbalance(nil)
			if err != nil {
				return err
			}
			var worst float64
			var at, bus string
			d.Each(func(r, c string, v float64) {
				if math.Abs(v) > worst {
					worst, at, bus = math.Abs(v), r, c
				}
			})
			ok, err := agg.IsBalanced(tol)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "balanced: %t\nworst mismatch: %s MW\n", ok, formatFloat(worst))
			if !ok {
				a.log.Warn("imbalance", "snapshot", at, "bus", bus, "mismatch", worst)
				return fmt.Errorf("%w: %s MW at bus %s, %s", ErrUnbalanced, formatFloat(worst), bus, at)
			}

			return nil
		},
	}
	cmd.Flags().Float64("tol", injection.DefaultBalanceTolerance, "largest accepted mismatch per bus in MW")

	return cmd
}
