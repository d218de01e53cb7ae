// SPDX-License-Identifier: MIT

package allocation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/gridflow/network"
)

// FlowAllocation allocates the flows of n with method m at every snapshot
// (all when nil) and concatenates the results in snapshot order.
// Errors: *NoFlowDataError, errors of the method tagged with method and
// snapshot, staging I/O errors wrapping ErrStaging.
func FlowAllocation(ctx context.Context, n *network.Network, snapshots []time.Time, m Method, opts ...Option) (*Result, error) {
	e, err := NewEngine(n, opts...)
	if err != nil {
		return nil, err
	}

	return e.Allocate(ctx, snapshots, m)
}

// Allocate runs m over snapshots (all when nil) in the configured mode.
func (e *Engine) Allocate(ctx context.Context, snapshots []time.Time, m Method) (res *Result, err error) {
	if m == nil {
		return nil, &UnsupportedMethodError{Name: "<nil>", Valid: append([]string(nil), ValidMethods...)}
	}
	if snapshots == nil {
		snapshots = e.net.Snapshots
	}
	md := e.opts.mode()
	start := time.Now()
	log := e.opts.logger.With("run", uuid.NewString(), "method", m.Name(), "mode", md.String())
	log.Info("allocation started", "snapshots", len(snapshots), "workers", e.opts.workers)
	defer func() {
		e.opts.metrics.observe(m.Name(), md, start, len(snapshots), err)
		if err != nil {
			log.Error("allocation failed", "error", err)
			return
		}
		entries := 0
		if res != nil {
			entries = res.Len()
		}
		log.Info("allocation finished", "entries", entries, "elapsed", time.Since(start))
	}()

	e.crossCheck(snapshots)
	switch md {
	case modeParallel:
		return e.parallel(ctx, snapshots, m)
	case modeStaged:
		return e.staged(ctx, snapshots, m)
	default:
		parts, err := e.sequential(ctx, snapshots, m, true)
		if err != nil {
			return nil, err
		}

		return concat(parts), nil
	}
}

// step dispatches one snapshot.
func (e *Engine) step(ctx context.Context, sn time.Time, m Method) (*Result, error) {
	var (
		r   *Result
		err error
	)
	switch m := m.(type) {
	case AverageParticipation:
		r, err = e.AverageParticipation(sn, m)
	case MarginalParticipation:
		r, err = e.MarginalParticipation(sn, m)
	case VirtualInjectionPattern:
		r, err = e.VirtualInjectionPattern(sn, m)
	case OptimalFlowShares:
		r, err = e.OptimalFlowShares(ctx, sn, m)
	default:
		return nil, &UnsupportedMethodError{Name: m.Name(), Valid: append([]string(nil), ValidMethods...)}
	}
	if err != nil {
		return nil, snapshotErrorf(m.Name(), sn, err)
	}

	return r, nil
}

// progress logs the first snapshot of every month.
func (e *Engine) progress(sn time.Time) {
	if sn.Day() == 1 && sn.Hour() == 0 {
		e.opts.logger.Info(fmt.Sprintf("Allocating for %s %d", sn.Month(), sn.Year()))
	}
}

func (e *Engine) sequential(ctx context.Context, snapshots []time.Time, m Method, logProgress bool) ([]*Result, error) {
	parts := make([]*Result, len(snapshots))
	for i, sn := range snapshots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if logProgress {
			e.progress(sn)
		}
		r, err := e.step(ctx, sn, m)
		if err != nil {
			return nil, err
		}
		parts[i] = r
	}

	return parts, nil
}

// parallel runs snapshots on a bounded pool. Each worker writes only its
// own slot, so results come back in submission order. The injection cache
// is filled up front; afterwards workers only read shared state.
func (e *Engine) parallel(ctx context.Context, snapshots []time.Time, m Method) (*Result, error) {
	if err := e.agg.Warm(); err != nil {
		return nil, err
	}
	if _, err := e.linePTDF(); err != nil {
		return nil, err
	}
	parts := make([]*Result, len(snapshots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.workers)
	for i, sn := range snapshots {
		i, sn := i, sn
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := e.step(gctx, sn, m)
			if err != nil {
				return err
			}
			parts[i] = r

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return concat(parts), nil
}

// crossCheck warns when branch-flow injection and dispatch disagree.
func (e *Engine) crossCheck(snapshots []time.Time) {
	d, err := e.agg.Imbalance(snapshots)
	if err != nil {
		if !errors.Is(err, network.ErrUnknownSnapshot) {
			e.opts.logger.Warn("injection cross-check skipped", "error", err)
		}
		return
	}
	var worst float64
	var at, bus string
	d.Each(func(r, c string, v float64) {
		if math.Abs(v) > worst {
			worst, at, bus = math.Abs(v), r, c
		}
	})
	if worst > e.opts.balanceTol {
		e.opts.logger.Warn("branch flows do not match dispatch",
			"snapshot", at, "bus", bus, "mismatch", worst)
	}
}
